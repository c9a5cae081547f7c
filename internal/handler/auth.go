package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dhruvc/stylefeed/internal/config"
	"github.com/dhruvc/stylefeed/internal/middleware"
	"github.com/dhruvc/stylefeed/internal/provider"
	"github.com/dhruvc/stylefeed/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Auth      *service.AuthService
	Providers provider.Registry
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService, providers provider.Registry) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: auth, Providers: providers}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func pairResp(p service.TokenPair) authResp {
	return authResp{
		Access:  tokenPart{Token: p.AccessToken, Expires: p.AccessExpires},
		Refresh: tokenPart{Token: p.RefreshSecret, Expires: p.RefreshExpires},
	}
}

// Register creates a local account and returns a token pair immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	pair, err := h.Auth.Register(ctx, req.Email, req.Username, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusCreated, pairResp(pair))
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	pair, err := h.Auth.Login(ctx, req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, pairResp(pair))
}

// Refresh rotates the presented refresh secret and returns a new pair.
// A replayed secret fails here: rotation revoked it the first time.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken), c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, pairResp(pair))
}

// Logout revokes the presented refresh secret and blacklists the access
// token the request arrived with. Requires authentication.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	userID, _ := middleware.CurrentUserID(c)
	access, _ := middleware.CurrentAccessToken(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, userID, access, strings.TrimSpace(req.RefreshToken)); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.NoContent(http.StatusNoContent)
}

// SocialRedirect starts the authorization-code flow for one provider: it
// plants an anti-CSRF state cookie and redirects to the provider.
func (h *AuthHandler) SocialRedirect(c echo.Context) error {
	p := h.Providers.Lookup(c.Param("provider"))
	if p == nil {
		return writeError(c, service.ErrUnknownProvider, h.Cfg.IsDev())
	}
	state, err := randomState()
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, p.AuthURL(state))
}

// SocialCallback completes the flow: it checks the state cookie, trades
// the code for the provider identity and signs the user in or up.
func (h *AuthHandler) SocialCallback(c echo.Context) error {
	p := h.Providers.Lookup(c.Param("provider"))
	if p == nil {
		return writeError(c, service.ErrUnknownProvider, h.Cfg.IsDev())
	}
	state := c.QueryParam("state")
	cookie, err := c.Cookie(stateCookieName)
	if err != nil || state == "" || cookie.Value != state {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "state mismatch"})
	}
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	ident, err := p.Exchange(ctx, code)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "provider exchange failed"})
	}
	pair, err := h.Auth.RegisterSocial(ctx, ident.Email, p.Name(), ident.ProviderID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, pairResp(pair))
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// reqContext bounds each handler's downstream calls.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
