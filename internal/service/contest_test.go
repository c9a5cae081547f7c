package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhruvc/stylefeed/internal/model"
	"github.com/dhruvc/stylefeed/internal/queue"
	"github.com/dhruvc/stylefeed/internal/repository"
)

// ----- in-memory fakes -----

type fakeContestStore struct {
	nextID      uint64
	contests    map[uint64]*model.Contest
	submissions map[uint64]*model.Submission
	stats       map[uint64][]repository.SubmissionStat // by contest
	votes       map[uint64]map[uint64]int              // contest -> user -> count
	voted       map[uint64]map[uint64]bool             // submission -> user
	winner      model.Submission
	winnerVotes int
}

func newFakeContestStore() *fakeContestStore {
	return &fakeContestStore{
		contests:    map[uint64]*model.Contest{},
		submissions: map[uint64]*model.Submission{},
		stats:       map[uint64][]repository.SubmissionStat{},
		votes:       map[uint64]map[uint64]int{},
		voted:       map[uint64]map[uint64]bool{},
	}
}

func (f *fakeContestStore) Create(_ context.Context, c *model.Contest) error {
	f.nextID++
	c.ID = f.nextID
	c.Year = c.StartDate.Year()
	c.Number = uint32(len(f.contests) + 1)
	cp := *c
	f.contests[c.ID] = &cp
	return nil
}

func (f *fakeContestStore) GetByID(_ context.Context, id uint64) (model.Contest, error) {
	c, ok := f.contests[id]
	if !ok {
		return model.Contest{}, repository.ErrNotFound
	}
	return *c, nil
}

func (f *fakeContestStore) List(_ context.Context, _ int) ([]model.Contest, error) {
	var out []model.Contest
	for _, c := range f.contests {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeContestStore) ListUnarchived(_ context.Context) ([]model.Contest, error) {
	var out []model.Contest
	for _, c := range f.contests {
		if c.Status != model.StatusArchived {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeContestStore) AdvanceStatus(_ context.Context, id uint64, from, to model.ContestStatus) (bool, error) {
	c, ok := f.contests[id]
	if !ok || c.Status != from || !to.After(from) {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (f *fakeContestStore) NextNumber(_ context.Context, _ model.ContestType, _ int) (uint32, error) {
	return uint32(len(f.contests) + 1), nil
}

func (f *fakeContestStore) CreateSubmission(_ context.Context, contestID, userID, mediaID uint64) (uint64, error) {
	for _, s := range f.submissions {
		if s.ContestID == contestID && s.UserID == userID {
			return 0, repository.ErrDuplicateSubmission
		}
	}
	f.nextID++
	f.submissions[f.nextID] = &model.Submission{
		ID: f.nextID, ContestID: contestID, UserID: userID, MediaID: mediaID,
		CreatedAt: time.Now().UTC(),
	}
	return f.nextID, nil
}

func (f *fakeContestStore) SubmissionStats(_ context.Context, contestID uint64) ([]repository.SubmissionStat, error) {
	return f.stats[contestID], nil
}

func (f *fakeContestStore) GetSubmission(_ context.Context, id uint64) (model.Submission, error) {
	s, ok := f.submissions[id]
	if !ok {
		return model.Submission{}, repository.ErrNotFound
	}
	return *s, nil
}

func (f *fakeContestStore) CreateVote(_ context.Context, contestID, submissionID, userID uint64) error {
	if f.voted[submissionID] == nil {
		f.voted[submissionID] = map[uint64]bool{}
	}
	if f.voted[submissionID][userID] {
		return repository.ErrDuplicateVote
	}
	if f.votes[contestID] == nil {
		f.votes[contestID] = map[uint64]int{}
	}
	if f.votes[contestID][userID] >= model.VoteLimit {
		return repository.ErrVoteLimit
	}
	f.voted[submissionID][userID] = true
	f.votes[contestID][userID]++
	return nil
}

func (f *fakeContestStore) WinnerSubmission(_ context.Context, _ uint64) (model.Submission, int, error) {
	return f.winner, f.winnerVotes, nil
}

type fakePublisher struct {
	events []queue.ContestPhaseEvent
}

func (f *fakePublisher) PublishContestPhase(_ context.Context, ev queue.ContestPhaseEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func newTestContestService() (*ContestService, *fakeContestStore, *fakePublisher) {
	store := newFakeContestStore()
	pub := &fakePublisher{}
	return NewContestService(store, pub), store, pub
}

// seedContest inserts a contest directly in the given phase.
func seedContest(store *fakeContestStore, status model.ContestStatus, start time.Time) *model.Contest {
	c := &model.Contest{
		Title:             "summer looks",
		Type:              model.ContestWeekly,
		Status:            status,
		StartDate:         start,
		SubmissionEndDate: start.Add(7 * 24 * time.Hour),
		VotingEndDate:     start.Add(10 * 24 * time.Hour),
		ArchiveDate:       start.Add(14 * 24 * time.Hour),
		Seed:              "deadbeefdeadbeefdeadbeefdeadbeef",
	}
	store.Create(context.Background(), c)
	stored := store.contests[c.ID]
	stored.Status = status
	return stored
}

// ----- Create -----

func TestContestCreate_AssignsSeed(t *testing.T) {
	svc, store, _ := newTestContestService()
	now := time.Now().UTC()

	c, err := svc.Create(context.Background(), "summer looks", "", model.ContestWeekly,
		now.Add(time.Hour), now.Add(48*time.Hour), now.Add(72*time.Hour), now.Add(96*time.Hour))
	require.NoError(t, err)
	assert.Len(t, c.Seed, 32) // 16 random bytes, hex encoded
	assert.Equal(t, model.StatusUpcoming, c.Status)

	c2, err := svc.Create(context.Background(), "fall looks", "", model.ContestWeekly,
		now.Add(time.Hour), now.Add(48*time.Hour), now.Add(72*time.Hour), now.Add(96*time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, c.Seed, c2.Seed)
	assert.Len(t, store.contests, 2)
}

func TestContestCreate_CollectsReasons(t *testing.T) {
	svc, _, _ := newTestContestService()
	now := time.Now().UTC()

	// empty title, bad type, and dates out of order
	_, err := svc.Create(context.Background(), "", "", "daily",
		now.Add(2*time.Hour), now.Add(time.Hour), now.Add(3*time.Hour), now.Add(4*time.Hour))
	ve, ok := IsValidation(err)
	require.True(t, ok, "want ValidationError, got %v", err)
	assert.Len(t, ve.Reasons, 3)
}

// ----- Sweep -----

func TestSweep_AdvancesOnePhase(t *testing.T) {
	svc, store, pub := newTestContestService()
	start := time.Now().UTC().Add(-time.Hour)
	c := seedContest(store, model.StatusUpcoming, start)

	require.NoError(t, svc.Sweep(context.Background(), time.Now().UTC()))
	assert.Equal(t, model.StatusSubmission, store.contests[c.ID].Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, string(model.StatusSubmission), pub.events[0].Phase)
}

func TestSweep_CatchesUpAcrossSeveralPhases(t *testing.T) {
	svc, store, pub := newTestContestService()
	// every boundary is already in the past
	start := time.Now().UTC().Add(-30 * 24 * time.Hour)
	c := seedContest(store, model.StatusUpcoming, start)

	require.NoError(t, svc.Sweep(context.Background(), time.Now().UTC()))
	assert.Equal(t, model.StatusArchived, store.contests[c.ID].Status)

	// one event per phase entered, in lifecycle order
	var phases []string
	for _, ev := range pub.events {
		phases = append(phases, ev.Phase)
	}
	assert.Equal(t, []string{"submission", "voting", "finished", "archived"}, phases)
}

func TestSweep_NotDueYet(t *testing.T) {
	svc, store, pub := newTestContestService()
	c := seedContest(store, model.StatusUpcoming, time.Now().UTC().Add(time.Hour))

	require.NoError(t, svc.Sweep(context.Background(), time.Now().UTC()))
	assert.Equal(t, model.StatusUpcoming, store.contests[c.ID].Status)
	assert.Empty(t, pub.events)
}

// ----- Submit -----

func TestSubmit_OnlyDuringSubmissionPhase(t *testing.T) {
	svc, store, _ := newTestContestService()
	start := time.Now().UTC().Add(-time.Hour)

	open := seedContest(store, model.StatusSubmission, start)
	_, err := svc.Submit(context.Background(), open.ID, 1, 10)
	assert.NoError(t, err)

	for _, status := range []model.ContestStatus{
		model.StatusUpcoming, model.StatusVoting, model.StatusFinished, model.StatusArchived,
	} {
		c := seedContest(store, status, start)
		_, err := svc.Submit(context.Background(), c.ID, 1, 10)
		assert.ErrorIs(t, err, ErrInvalidState, "status %s", status)
	}
}

func TestSubmit_OncePerUser(t *testing.T) {
	svc, store, _ := newTestContestService()
	c := seedContest(store, model.StatusSubmission, time.Now().UTC().Add(-time.Hour))

	_, err := svc.Submit(context.Background(), c.ID, 1, 10)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), c.ID, 1, 11)
	assert.ErrorIs(t, err, repository.ErrDuplicateSubmission)
}

// ----- Vote -----

func TestVote_OnlyDuringVotingPhase(t *testing.T) {
	svc, store, _ := newTestContestService()
	c := seedContest(store, model.StatusSubmission, time.Now().UTC().Add(-time.Hour))
	subID, err := svc.Submit(context.Background(), c.ID, 1, 10)
	require.NoError(t, err)

	err = svc.Vote(context.Background(), c.ID, subID, 2)
	assert.ErrorIs(t, err, ErrInvalidState)

	store.contests[c.ID].Status = model.StatusVoting
	assert.NoError(t, svc.Vote(context.Background(), c.ID, subID, 2))
}

func TestVote_LimitPerContest(t *testing.T) {
	svc, store, _ := newTestContestService()
	c := seedContest(store, model.StatusSubmission, time.Now().UTC().Add(-time.Hour))

	var subIDs []uint64
	for user := uint64(1); user <= 4; user++ {
		id, err := svc.Submit(context.Background(), c.ID, user, user*10)
		require.NoError(t, err)
		subIDs = append(subIDs, id)
	}
	store.contests[c.ID].Status = model.StatusVoting

	const voter = uint64(99)
	for i := 0; i < model.VoteLimit; i++ {
		require.NoError(t, svc.Vote(context.Background(), c.ID, subIDs[i], voter))
	}
	err := svc.Vote(context.Background(), c.ID, subIDs[3], voter)
	assert.ErrorIs(t, err, repository.ErrVoteLimit)
}

func TestVote_DuplicateSubmission(t *testing.T) {
	svc, store, _ := newTestContestService()
	c := seedContest(store, model.StatusSubmission, time.Now().UTC().Add(-time.Hour))
	subID, err := svc.Submit(context.Background(), c.ID, 1, 10)
	require.NoError(t, err)
	store.contests[c.ID].Status = model.StatusVoting

	require.NoError(t, svc.Vote(context.Background(), c.ID, subID, 2))
	err = svc.Vote(context.Background(), c.ID, subID, 2)
	assert.ErrorIs(t, err, repository.ErrDuplicateVote)
}

func TestVote_SubmissionMustBelongToContest(t *testing.T) {
	svc, store, _ := newTestContestService()
	a := seedContest(store, model.StatusSubmission, time.Now().UTC().Add(-time.Hour))
	b := seedContest(store, model.StatusVoting, time.Now().UTC().Add(-time.Hour))
	subID, err := svc.Submit(context.Background(), a.ID, 1, 10)
	require.NoError(t, err)

	err = svc.Vote(context.Background(), b.ID, subID, 2)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// ----- Finalists -----

// statsField builds n submissions where submission i has i likes, so the
// like ranking is fully determined.
func statsField(n int) []repository.SubmissionStat {
	stats := make([]repository.SubmissionStat, 0, n)
	for i := 1; i <= n; i++ {
		stats = append(stats, repository.SubmissionStat{SubmissionID: uint64(i), Likes: i})
	}
	return stats
}

func TestSelectFinalists_Deterministic(t *testing.T) {
	stats := statsField(150)

	a := SelectFinalists("seed-1", stats)
	b := SelectFinalists("seed-1", stats)
	assert.Equal(t, a, b, "same seed and field must select the same finalists in the same order")

	c := SelectFinalists("seed-2", stats)
	assert.NotEqual(t, a, c, "a different seed should draw a different random tail")
	// the likes-ranked head does not depend on the seed
	assert.Equal(t, a[:70], c[:70])
}

func TestSelectFinalists_TopLikedAlwaysQualify(t *testing.T) {
	stats := statsField(150)
	got := SelectFinalists("any-seed", stats)
	require.Len(t, got, 100)

	// submissions 81..150 hold the 70 highest like counts
	want := make(map[uint64]bool)
	for id := uint64(81); id <= 150; id++ {
		want[id] = true
	}
	for _, id := range got[:70] {
		assert.True(t, want[id], "submission %d in the liked head was not a top-70 submission", id)
	}
	// head is ordered by likes descending, so ids descend here
	assert.Equal(t, uint64(150), got[0])
	assert.Equal(t, uint64(81), got[69])
}

func TestSelectFinalists_LikeTiesBreakByLowerID(t *testing.T) {
	stats := []repository.SubmissionStat{
		{SubmissionID: 5, Likes: 3},
		{SubmissionID: 2, Likes: 3},
		{SubmissionID: 9, Likes: 7},
	}
	got := SelectFinalists("s", stats)
	require.Len(t, got, 3)
	assert.Equal(t, []uint64{9, 2, 5}, got)
}

func TestSelectFinalists_SmallField(t *testing.T) {
	// fewer submissions than the liked quota: everyone is a finalist
	got := SelectFinalists("s", statsField(40))
	assert.Len(t, got, 40)

	// between the quotas: 70 by likes plus the whole remainder
	got = SelectFinalists("s", statsField(85))
	assert.Len(t, got, 85)

	got = SelectFinalists("s", nil)
	assert.Empty(t, got)
}

func TestFinalists_PhaseGate(t *testing.T) {
	svc, store, _ := newTestContestService()
	c := seedContest(store, model.StatusSubmission, time.Now().UTC().Add(-time.Hour))
	store.stats[c.ID] = statsField(10)

	_, err := svc.Finalists(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	store.contests[c.ID].Status = model.StatusVoting
	ids, err := svc.Finalists(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 10)

	// still available after the contest finishes
	store.contests[c.ID].Status = model.StatusFinished
	again, err := svc.Finalists(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, ids, again)
}

// ----- Winner -----

func TestWinner_PhaseGate(t *testing.T) {
	svc, store, _ := newTestContestService()
	c := seedContest(store, model.StatusVoting, time.Now().UTC().Add(-time.Hour))
	store.winner = model.Submission{ID: 42, ContestID: c.ID, UserID: 7, MediaID: 70}
	store.winnerVotes = 12

	_, _, err := svc.Winner(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	store.contests[c.ID].Status = model.StatusFinished
	sub, votes, err := svc.Winner(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), sub.ID)
	assert.Equal(t, 12, votes)
}
