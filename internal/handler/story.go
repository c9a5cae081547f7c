package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dhruvc/stylefeed/internal/config"
	"github.com/dhruvc/stylefeed/internal/middleware"
	"github.com/dhruvc/stylefeed/internal/model"
	"github.com/dhruvc/stylefeed/internal/repository"
)

// StoryHandler exposes ephemeral stories: creation, viewing and reactions.
type StoryHandler struct {
	Cfg     config.Config
	Stories *repository.StoryRepo
}

func NewStoryHandler(cfg config.Config, stories *repository.StoryRepo) *StoryHandler {
	return &StoryHandler{Cfg: cfg, Stories: stories}
}

type createStoryReq struct {
	MediaID uint64 `json:"media_id"`
	Caption string `json:"caption"`
}

type reactionPart struct {
	UserID   uint64 `json:"user_id"`
	Reaction string `json:"reaction"`
}

type storyResp struct {
	ID        uint64         `json:"id"`
	AuthorID  uint64         `json:"author_id"`
	MediaID   uint64         `json:"media_id"`
	Caption   string         `json:"caption,omitempty"`
	Reactions []reactionPart `json:"reactions"`
	ViewCount int            `json:"view_count"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func storyToResp(s model.Story) storyResp {
	resp := storyResp{
		ID:        s.ID,
		AuthorID:  s.AuthorID,
		MediaID:   s.MediaID,
		Caption:   s.Caption,
		Reactions: make([]reactionPart, 0, len(s.Reactions)),
		ViewCount: len(s.Viewers),
		ExpiresAt: s.ExpiresAt,
	}
	for _, r := range s.Reactions {
		resp.Reactions = append(resp.Reactions, reactionPart{UserID: r.UserID, Reaction: string(r.Reaction)})
	}
	return resp
}

// Create publishes a story that expires after model.StoryTTL.
func (h *StoryHandler) Create(c echo.Context) error {
	var req createStoryReq
	if err := c.Bind(&req); err != nil || req.MediaID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "media_id required"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Stories.Create(ctx, userID, req.MediaID, req.Caption)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Get returns one story and records the viewer.  Expired stories are
// indistinguishable from missing ones.
func (h *StoryHandler) Get(c echo.Context) error {
	storyID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid story id"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	s, err := h.Stories.GetByID(ctx, storyID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	if s.AuthorID != userID {
		if err := h.Stories.AddView(ctx, storyID, userID); err != nil {
			return writeError(c, err, h.Cfg.IsDev())
		}
		s.AddViewer(userID)
	}
	return c.JSON(http.StatusOK, storyToResp(s))
}

// ListByAuthor returns a user's stories that have not expired yet.
func (h *StoryHandler) ListByAuthor(c echo.Context) error {
	authorID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	stories, err := h.Stories.ListActiveByAuthor(ctx, authorID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	out := make([]storyResp, 0, len(stories))
	for _, s := range stories {
		out = append(out, storyToResp(s))
	}
	return c.JSON(http.StatusOK, out)
}

type reactReq struct {
	Reaction string `json:"reaction"`
}

// React sets or replaces the authenticated user's reaction on a story.
func (h *StoryHandler) React(c echo.Context) error {
	storyID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid story id"})
	}
	var req reactReq
	if err := c.Bind(&req); err != nil || !model.ValidReaction(req.Reaction) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown reaction"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	// Reacting implies having seen the story.
	if _, err := h.Stories.GetByID(ctx, storyID); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	if err := h.Stories.SetReaction(ctx, storyID, userID, model.ReactionType(req.Reaction)); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveReaction clears the authenticated user's reaction, if any.
func (h *StoryHandler) RemoveReaction(c echo.Context) error {
	storyID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid story id"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Stories.RemoveReaction(ctx, storyID, userID); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.NoContent(http.StatusNoContent)
}
