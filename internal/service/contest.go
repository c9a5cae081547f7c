package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/dhruvc/stylefeed/internal/model"
	"github.com/dhruvc/stylefeed/internal/queue"
	"github.com/dhruvc/stylefeed/internal/repository"
)

// Finalist selection sizes: the most-liked submissions qualify outright
// and the rest of the field is backfilled by seeded random draw.
const (
	finalistsByLikes = 70
	finalistsBySeed  = 30
)

// ContestStore is the slice of ContestRepo the contest service needs.
type ContestStore interface {
	Create(ctx context.Context, c *model.Contest) error
	GetByID(ctx context.Context, id uint64) (model.Contest, error)
	List(ctx context.Context, limit int) ([]model.Contest, error)
	ListUnarchived(ctx context.Context) ([]model.Contest, error)
	AdvanceStatus(ctx context.Context, id uint64, from, to model.ContestStatus) (bool, error)
	NextNumber(ctx context.Context, t model.ContestType, year int) (uint32, error)
	CreateSubmission(ctx context.Context, contestID, userID, mediaID uint64) (uint64, error)
	SubmissionStats(ctx context.Context, contestID uint64) ([]repository.SubmissionStat, error)
	GetSubmission(ctx context.Context, id uint64) (model.Submission, error)
	CreateVote(ctx context.Context, contestID, submissionID, userID uint64) error
	WinnerSubmission(ctx context.Context, contestID uint64) (model.Submission, int, error)
}

// EventPublisher emits contest lifecycle events.  Publish failures are the
// publisher's to log; the contest keeps advancing regardless.
type EventPublisher interface {
	PublishContestPhase(ctx context.Context, ev queue.ContestPhaseEvent) error
}

// ContestService drives the contest lifecycle and its derived results.
type ContestService struct {
	contests ContestStore
	events   EventPublisher
}

func NewContestService(contests ContestStore, events EventPublisher) *ContestService {
	return &ContestService{contests: contests, events: events}
}

// Create builds a contest for the given window.  The immutable selection
// seed is drawn here, once, and never changes afterwards.
func (s *ContestService) Create(ctx context.Context, title, description string, t model.ContestType, start, submissionEnd, votingEnd, archive time.Time) (model.Contest, error) {
	var reasons []string
	if title == "" {
		reasons = append(reasons, "title is required")
	}
	if t != model.ContestWeekly && t != model.ContestMonthly {
		reasons = append(reasons, "type must be weekly or monthly")
	}
	if !start.Before(submissionEnd) || !submissionEnd.Before(votingEnd) || !votingEnd.Before(archive) {
		reasons = append(reasons, "dates must be strictly increasing")
	}
	if len(reasons) > 0 {
		return model.Contest{}, &ValidationError{Reasons: reasons}
	}
	seed, err := newSeed()
	if err != nil {
		return model.Contest{}, err
	}
	c := model.Contest{
		Title:             title,
		Description:       description,
		Type:              t,
		Status:            model.StatusUpcoming,
		StartDate:         start.UTC(),
		SubmissionEndDate: submissionEnd.UTC(),
		VotingEndDate:     votingEnd.UTC(),
		ArchiveDate:       archive.UTC(),
		Seed:              seed,
	}
	if err := s.contests.Create(ctx, &c); err != nil {
		return model.Contest{}, err
	}
	return c, nil
}

// Get loads one contest.
func (s *ContestService) Get(ctx context.Context, id uint64) (model.Contest, error) {
	return s.contests.GetByID(ctx, id)
}

// List returns recent contests.
func (s *ContestService) List(ctx context.Context, limit int) ([]model.Contest, error) {
	return s.contests.List(ctx, limit)
}

// Sweep advances every unarchived contest through all lifecycle boundaries
// the clock has crossed, in ascending phase order, and publishes one event
// per phase entered.  A contest that was stale across several boundaries
// catches up within a single sweep.
func (s *ContestService) Sweep(ctx context.Context, now time.Time) error {
	contests, err := s.contests.ListUnarchived(ctx)
	if err != nil {
		return err
	}
	for i := range contests {
		c := &contests[i]
		prev := c.Status
		for _, entered := range c.Advance(now) {
			applied, err := s.contests.AdvanceStatus(ctx, c.ID, prev, entered)
			if err != nil {
				return err
			}
			if !applied {
				// Another sweep got there first; it owns the side effects.
				break
			}
			s.publishPhase(ctx, c, entered)
			prev = entered
		}
	}
	return nil
}

func (s *ContestService) publishPhase(ctx context.Context, c *model.Contest, entered model.ContestStatus) {
	if s.events == nil {
		return
	}
	ev := queue.ContestPhaseEvent{
		ContestID: c.ID,
		Title:     c.Title,
		Type:      string(c.Type),
		Phase:     string(entered),
		Number:    c.Number,
		Year:      c.Year,
		EnteredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishContestPhase(ctx, ev); err != nil {
		log.Printf("contest: publish phase event failed: %v", err)
	}
}

// Submit enters the user's media into the contest.  Allowed only during
// the submission phase; a second entry by the same user is a conflict.
func (s *ContestService) Submit(ctx context.Context, contestID, userID, mediaID uint64) (uint64, error) {
	c, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return 0, err
	}
	if c.Status != model.StatusSubmission {
		return 0, ErrInvalidState
	}
	return s.contests.CreateSubmission(ctx, contestID, userID, mediaID)
}

// Vote casts the user's vote for a submission.  Allowed only during the
// voting phase; the repository enforces the per-contest cap and the
// one-vote-per-submission rule.
func (s *ContestService) Vote(ctx context.Context, contestID, submissionID, userID uint64) error {
	c, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return err
	}
	if c.Status != model.StatusVoting {
		return ErrInvalidState
	}
	sub, err := s.contests.GetSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub.ContestID != contestID {
		return repository.ErrNotFound
	}
	return s.contests.CreateVote(ctx, contestID, submissionID, userID)
}

// Finalists returns the contest's finalist submission ids, reproducibly.
// Available once voting has started, when the submission set is frozen.
func (s *ContestService) Finalists(ctx context.Context, contestID uint64) ([]uint64, error) {
	c, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.StatusVoting && !c.Status.After(model.StatusVoting) {
		return nil, ErrInvalidState
	}
	stats, err := s.contests.SubmissionStats(ctx, contestID)
	if err != nil {
		return nil, err
	}
	return SelectFinalists(c.Seed, stats), nil
}

// Winner returns the submission with the most votes, once the contest has
// finished.  Ties break by earliest submission, then lowest id.
func (s *ContestService) Winner(ctx context.Context, contestID uint64) (model.Submission, int, error) {
	c, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return model.Submission{}, 0, err
	}
	if c.Status != model.StatusFinished && c.Status != model.StatusArchived {
		return model.Submission{}, 0, ErrInvalidState
	}
	return s.contests.WinnerSubmission(ctx, contestID)
}

// NextNumber exposes the sequential numbering for a (type, year) scope.
func (s *ContestService) NextNumber(ctx context.Context, t model.ContestType, year int) (uint32, error) {
	return s.contests.NextNumber(ctx, t, year)
}

// SelectFinalists picks the finalist submissions from the full field:
// the finalistsByLikes most-liked qualify outright (ties by lower id), and
// finalistsBySeed more are drawn from the remainder by a seed-keyed hash of
// each submission id, ascending.  The function is pure — same seed and
// same stats always yield the same ids in the same order.
func SelectFinalists(seed string, stats []repository.SubmissionStat) []uint64 {
	byLikes := make([]repository.SubmissionStat, len(stats))
	copy(byLikes, stats)
	sort.SliceStable(byLikes, func(i, j int) bool {
		if byLikes[i].Likes != byLikes[j].Likes {
			return byLikes[i].Likes > byLikes[j].Likes
		}
		return byLikes[i].SubmissionID < byLikes[j].SubmissionID
	})

	top := finalistsByLikes
	if top > len(byLikes) {
		top = len(byLikes)
	}
	out := make([]uint64, 0, top+finalistsBySeed)
	for _, st := range byLikes[:top] {
		out = append(out, st.SubmissionID)
	}

	rest := byLikes[top:]
	type drawn struct {
		id    uint64
		score float64
	}
	draws := make([]drawn, 0, len(rest))
	for _, st := range rest {
		draws = append(draws, drawn{id: st.SubmissionID, score: seededScore(seed, st.SubmissionID)})
	}
	sort.Slice(draws, func(i, j int) bool {
		if draws[i].score != draws[j].score {
			return draws[i].score < draws[j].score
		}
		return draws[i].id < draws[j].id
	})
	picks := finalistsBySeed
	if picks > len(draws) {
		picks = len(draws)
	}
	for _, d := range draws[:picks] {
		out = append(out, d.id)
	}
	return out
}

// seededScore maps (seed, submission id) to a deterministic value in
// [0, 1) using an HMAC-SHA256 keyed by the seed.
func seededScore(seed string, submissionID uint64) float64 {
	mac := hmac.New(sha256.New, []byte(seed))
	mac.Write([]byte(strconv.FormatUint(submissionID, 10)))
	sum := mac.Sum(nil)
	v := binary.BigEndian.Uint64(sum[:8])
	return float64(v) / float64(1<<63) / 2 // uint64 range mapped onto [0,1)
}

// newSeed draws the contest's immutable selection seed.
func newSeed() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
