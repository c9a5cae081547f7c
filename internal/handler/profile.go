package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dhruvc/stylefeed/internal/config"
	"github.com/dhruvc/stylefeed/internal/middleware"
	"github.com/dhruvc/stylefeed/internal/model"
	"github.com/dhruvc/stylefeed/internal/repository"
)

// ProfileHandler exposes the current user's account and the public
// profiles of others.
type ProfileHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewProfileHandler(cfg config.Config, users *repository.UserRepo) *ProfileHandler {
	return &ProfileHandler{Cfg: cfg, Users: users}
}

type profilePart struct {
	UserID      uint64 `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Picture     string `json:"picture,omitempty"`
}

func profileResp(p model.Profile) profilePart {
	return profilePart{UserID: p.UserID, Username: p.Username, DisplayName: p.DisplayName, Picture: p.Picture}
}

type meResp struct {
	ID      uint64      `json:"id"`
	Email   string      `json:"email"`
	Coins   int64       `json:"coins"`
	Social  []string    `json:"social_providers"`
	Profile profilePart `json:"profile"`
	Created time.Time   `json:"created_at"`
}

// Me returns the authenticated user's account and profile.
func (h *ProfileHandler) Me(c echo.Context) error {
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	p, err := h.Users.GetProfileByUserID(ctx, userID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}

	var social []string
	for _, name := range []string{"google", "facebook", "instagram"} {
		if u.ProviderID(name) != nil {
			social = append(social, name)
		}
	}
	return c.JSON(http.StatusOK, meResp{
		ID: u.ID, Email: u.Email, Coins: u.Coins,
		Social: social, Profile: profileResp(p), Created: u.CreatedAt,
	})
}

// GetProfile returns another user's public profile.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Users.GetProfileByUserID(ctx, userID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, profileResp(p))
}

type updateProfileReq struct {
	Username string `json:"username"`
	Picture  string `json:"picture"`
}

// UpdateProfile changes the authenticated user's username and picture.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, userID, req.Username, req.Picture); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	p, err := h.Users.GetProfileByUserID(ctx, userID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, profileResp(p))
}

type transferReq struct {
	ToUserID uint64 `json:"to_user_id"`
	Amount   int64  `json:"amount"`
}

// TransferCoins moves coins from the authenticated user to another user.
func (h *ProfileHandler) TransferCoins(c echo.Context) error {
	var req transferReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}
	userID, _ := middleware.CurrentUserID(c)
	if req.ToUserID == userID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot transfer to yourself"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.TransferCoins(ctx, userID, req.ToUserID, req.Amount); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.NoContent(http.StatusNoContent)
}
