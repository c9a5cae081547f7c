package model

import (
	"testing"
	"time"
)

func testContest(start time.Time) Contest {
	return Contest{
		Status:            StatusUpcoming,
		StartDate:         start,
		SubmissionEndDate: start.Add(24 * time.Hour),
		VotingEndDate:     start.Add(48 * time.Hour),
		ArchiveDate:       start.Add(72 * time.Hour),
	}
}

func TestNextStatus_OneStepAtATime(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := testContest(start)

	// before the start nothing is due
	if next, due := c.NextStatus(start.Add(-time.Minute)); due {
		t.Fatalf("not started yet, but NextStatus reported %s due", next)
	}

	// exactly at the boundary the phase is due (inclusive)
	next, due := c.NextStatus(start)
	if !due || next != StatusSubmission {
		t.Fatalf("NextStatus(start) = (%s, %v), want (submission, true)", next, due)
	}

	// far in the future it still proposes only the next step
	next, _ = c.NextStatus(start.Add(100 * 24 * time.Hour))
	if next != StatusSubmission {
		t.Fatalf("NextStatus must not skip phases, got %s", next)
	}

	// archived is terminal
	c.Status = StatusArchived
	if next, due := c.NextStatus(start.Add(200 * 24 * time.Hour)); due {
		t.Fatalf("archived contest reported %s due", next)
	}
}

func TestAdvance_CatchesUp(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		at      time.Time
		entered int
		final   ContestStatus
	}{
		{start.Add(-time.Hour), 0, StatusUpcoming},
		{start.Add(time.Hour), 1, StatusSubmission},
		{start.Add(25 * time.Hour), 2, StatusVoting},
		{start.Add(49 * time.Hour), 3, StatusFinished},
		{start.Add(80 * time.Hour), 4, StatusArchived},
	}
	for _, tc := range cases {
		c := testContest(start)
		entered := c.Advance(tc.at)
		if len(entered) != tc.entered || c.Status != tc.final {
			t.Errorf("Advance(%v): entered %v, status %s; want %d phases ending at %s",
				tc.at, entered, c.Status, tc.entered, tc.final)
		}
		// entered phases must be in lifecycle order
		for i := 1; i < len(entered); i++ {
			if !entered[i].After(entered[i-1]) {
				t.Errorf("Advance(%v) out of order: %v", tc.at, entered)
			}
		}
	}
}

func TestStatusAfter(t *testing.T) {
	order := []ContestStatus{StatusUpcoming, StatusSubmission, StatusVoting, StatusFinished, StatusArchived}
	for i, a := range order {
		for j, b := range order {
			if got := a.After(b); got != (i > j) {
				t.Errorf("%s.After(%s) = %v, want %v", a, b, got, i > j)
			}
		}
	}
}

func TestStoryExpiry(t *testing.T) {
	now := time.Now().UTC()
	s := Story{ExpiresAt: now.Add(time.Hour)}
	if s.Expired(now) {
		t.Error("story expired an hour early")
	}
	if !s.Expired(now.Add(time.Hour)) {
		t.Error("expiry boundary should be inclusive")
	}
}

func TestPostToggleLike(t *testing.T) {
	var p Post
	if liked := p.ToggleLike(1); !liked || p.LikeCount() != 1 {
		t.Fatalf("first toggle: liked=%v count=%d", liked, p.LikeCount())
	}
	if liked := p.ToggleLike(1); liked || p.LikeCount() != 0 {
		t.Fatalf("second toggle: liked=%v count=%d", liked, p.LikeCount())
	}
}

func TestCommentToggleLike(t *testing.T) {
	var c Comment
	if liked := c.ToggleLike(1); !liked || c.LikeCount() != 1 {
		t.Fatalf("first toggle: liked=%v count=%d", liked, c.LikeCount())
	}
	if liked := c.ToggleLike(2); !liked || c.LikeCount() != 2 {
		t.Fatalf("second user: liked=%v count=%d", liked, c.LikeCount())
	}
	if liked := c.ToggleLike(1); liked || c.LikeCount() != 1 {
		t.Fatalf("untoggle: liked=%v count=%d", liked, c.LikeCount())
	}
	if c.Likes[0].UserID != 2 {
		t.Fatalf("wrong like removed, remaining user %d", c.Likes[0].UserID)
	}
}
