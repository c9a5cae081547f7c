package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dhruvc/stylefeed/internal/config"
	"github.com/dhruvc/stylefeed/internal/middleware"
	"github.com/dhruvc/stylefeed/internal/model"
	"github.com/dhruvc/stylefeed/internal/service"
)

// ContestHandler exposes the contest lifecycle to clients.  Phase
// transitions themselves are driven by the scheduler, never by requests.
type ContestHandler struct {
	Cfg      config.Config
	Contests *service.ContestService
}

func NewContestHandler(cfg config.Config, contests *service.ContestService) *ContestHandler {
	return &ContestHandler{Cfg: cfg, Contests: contests}
}

type createContestReq struct {
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Type              string    `json:"type"`
	StartDate         time.Time `json:"start_date"`
	SubmissionEndDate time.Time `json:"submission_end_date"`
	VotingEndDate     time.Time `json:"voting_end_date"`
	ArchiveDate       time.Time `json:"archive_date"`
}

type contestResp struct {
	ID                uint64    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	Number            uint32    `json:"number"`
	Year              int       `json:"year"`
	StartDate         time.Time `json:"start_date"`
	SubmissionEndDate time.Time `json:"submission_end_date"`
	VotingEndDate     time.Time `json:"voting_end_date"`
	ArchiveDate       time.Time `json:"archive_date"`
}

// The selection seed stays server-side; clients only ever see its effects.
func contestToResp(c model.Contest) contestResp {
	return contestResp{
		ID:                c.ID,
		Title:             c.Title,
		Description:       c.Description,
		Type:              string(c.Type),
		Status:            string(c.Status),
		Number:            c.Number,
		Year:              c.Year,
		StartDate:         c.StartDate,
		SubmissionEndDate: c.SubmissionEndDate,
		VotingEndDate:     c.VotingEndDate,
		ArchiveDate:       c.ArchiveDate,
	}
}

// Create sets up a new contest.  Requires authentication.
func (h *ContestHandler) Create(c echo.Context) error {
	var req createContestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	contest, err := h.Contests.Create(ctx, req.Title, req.Description, model.ContestType(req.Type),
		req.StartDate, req.SubmissionEndDate, req.VotingEndDate, req.ArchiveDate)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusCreated, contestToResp(contest))
}

// List returns recent contests, newest first.
func (h *ContestHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	contests, err := h.Contests.List(ctx, 50)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	out := make([]contestResp, 0, len(contests))
	for _, cs := range contests {
		out = append(out, contestToResp(cs))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one contest.
func (h *ContestHandler) Get(c echo.Context) error {
	contestID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contest id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	contest, err := h.Contests.Get(ctx, contestID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, contestToResp(contest))
}

type submitReq struct {
	MediaID uint64 `json:"media_id"`
}

// Submit enters the authenticated user's media into the contest.
func (h *ContestHandler) Submit(c echo.Context) error {
	contestID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contest id"})
	}
	var req submitReq
	if err := c.Bind(&req); err != nil || req.MediaID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "media_id required"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Contests.Submit(ctx, contestID, userID, req.MediaID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

type voteReq struct {
	SubmissionID uint64 `json:"submission_id"`
}

// Vote casts the authenticated user's vote for a submission.
func (h *ContestHandler) Vote(c echo.Context) error {
	contestID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contest id"})
	}
	var req voteReq
	if err := c.Bind(&req); err != nil || req.SubmissionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "submission_id required"})
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Contests.Vote(ctx, contestID, req.SubmissionID, userID); err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.NoContent(http.StatusNoContent)
}

// Finalists returns the contest's finalist submission ids.  The list is
// stable: every call recomputes the same selection from the same seed.
func (h *ContestHandler) Finalists(c echo.Context) error {
	contestID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contest id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	ids, err := h.Contests.Finalists(ctx, contestID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, echo.Map{"submission_ids": ids})
}

// Winner returns the winning submission of a finished contest.
func (h *ContestHandler) Winner(c echo.Context) error {
	contestID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contest id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sub, votes, err := h.Contests.Winner(ctx, contestID)
	if err != nil {
		return writeError(c, err, h.Cfg.IsDev())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"submission_id": sub.ID,
		"user_id":       sub.UserID,
		"media_id":      sub.MediaID,
		"votes":         votes,
	})
}
