package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dhruvc/stylefeed/internal/config"
	"github.com/dhruvc/stylefeed/internal/middleware"
	"github.com/dhruvc/stylefeed/internal/model"
	"github.com/dhruvc/stylefeed/internal/repository"
)

// PostHandler exposes feed posts, their likes and their comment threads.
type PostHandler struct {
	Cfg   config.Config
	Posts *repository.PostRepo
}

func NewPostHandler(cfg config.Config, posts *repository.PostRepo) *PostHandler {
	return &PostHandler{Cfg: cfg, Posts: posts}
}

type createPostReq struct {
	Content  string   `json:"content"`
	MediaIDs []uint64 `json:"media_ids"`
}

type commentPart struct {
	ID        uint64  `json:"id"`
	ParentID  *uint64 `json:"parent_id,omitempty"`
	AuthorID  uint64  `json:"author_id"`
	Content   string  `json:"content"`
	Deleted   bool    `json:"deleted"`
	LikeCount int     `json:"like_count"`
}

type postResp struct {
	ID           uint64        `json:"id"`
	AuthorID     uint64        `json:"author_id"`
	Content      string        `json:"content"`
	MediaIDs     []uint64      `json:"media_ids"`
	LikeCount    int           `json:"like_count"`
	ShareCount   int           `json:"share_count"`
	CommentCount int           `json:"comment_count"`
	Comments     []commentPart `json:"comments"`
	LikedByMe    bool          `json:"liked_by_me"`
}

func postToResp(p model.Post, viewerID uint64) postResp {
	resp := postResp{
		ID:           p.ID,
		AuthorID:     p.AuthorID,
		Content:      p.Content,
		MediaIDs:     p.MediaIDs,
		LikeCount:    p.LikeCount(),
		ShareCount:   p.ShareCount(),
		CommentCount: p.VisibleCommentCount(),
		Comments:     make([]commentPart, 0, len(p.Comments)),
	}
	for _, cm := range p.Comments {
		part := commentPart{ID: cm.ID, ParentID: cm.ParentID, AuthorID: cm.AuthorID, Deleted: cm.Deleted, LikeCount: cm.LikeCount()}
		// Deleted comments keep their slot in the thread but lose their text.
		if !cm.Deleted {
			part.Content = cm.Content
		}
		resp.Comments = append(resp.Comments, part)
	}
	for _, l := range p.Likes {
		if l.UserID == viewerID {
			resp.LikedByMe = true
			break
		}
	}
	return resp
}

// Create publishes a new post for the authenticated user.
func (h *PostHandler) Create(c echo.Context) error {
	var req createPostReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Content == "" && len(req.MediaIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content or media required"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Posts.Create(ctx, userID, req.Content, req.MediaIDs)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Get returns one post with its likes and comment thread.
func (h *PostHandler) Get(c echo.Context) error {
	postID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	viewerID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Posts.GetByID(ctx, postID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, postToResp(p, viewerID))
}

// ListByAuthor returns a user's recent posts.
func (h *PostHandler) ListByAuthor(c echo.Context) error {
	authorID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	viewerID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	posts, err := h.Posts.ListByAuthor(ctx, authorID, 50)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	out := make([]postResp, 0, len(posts))
	for _, p := range posts {
		out = append(out, postToResp(p, viewerID))
	}
	return c.JSON(http.StatusOK, out)
}

// Like toggles the authenticated user's like on a post and returns the
// state after the toggle.
func (h *PostHandler) Like(c echo.Context) error {
	postID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Posts.GetByID(ctx, postID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	liked := p.ToggleLike(userID)
	if err := h.Posts.SetLiked(ctx, postID, userID, liked); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": liked, "like_count": p.LikeCount()})
}

// Share records a repost by the authenticated user and returns the updated
// share count.  Sharing twice is a no-op.
func (h *PostHandler) Share(c echo.Context) error {
	postID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Posts.GetByID(ctx, postID); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	if err := h.Posts.AddShare(ctx, postID, userID); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	p, err := h.Posts.GetByID(ctx, postID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, echo.Map{"share_count": p.ShareCount()})
}

type commentReq struct {
	Content  string  `json:"content"`
	ParentID *uint64 `json:"parent_id"`
}

// Comment adds a comment, or a reply when parent_id is set.
func (h *PostHandler) Comment(c echo.Context) error {
	postID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Posts.AddComment(ctx, postID, req.ParentID, userID, req.Content)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// LikeComment toggles the authenticated user's like on a comment or reply
// and returns the state after the toggle.
func (h *PostHandler) LikeComment(c echo.Context) error {
	commentID, err := pathID(c, "commentID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	cm, err := h.Posts.GetComment(ctx, commentID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	liked := cm.ToggleLike(userID)
	if err := h.Posts.SetCommentLiked(ctx, commentID, userID, liked); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": liked, "like_count": cm.LikeCount()})
}

// DeleteComment soft-deletes the authenticated user's own comment.  The
// row stays so replies keep their parent.
func (h *PostHandler) DeleteComment(c echo.Context) error {
	commentID, err := pathID(c, "commentID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Posts.MarkCommentDeleted(ctx, commentID, userID); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.NoContent(http.StatusNoContent)
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
