package model

import "time"

// ContestType scopes contest numbering: weekly contests and monthly
// contests each get their own sequence per calendar year.
type ContestType string

const (
	ContestWeekly  ContestType = "weekly"
	ContestMonthly ContestType = "monthly"
)

// ContestStatus is one phase of the contest lifecycle.  Phases only ever
// move forward: upcoming → submission → voting → finished → archived.
type ContestStatus string

const (
	StatusUpcoming   ContestStatus = "upcoming"
	StatusSubmission ContestStatus = "submission"
	StatusVoting     ContestStatus = "voting"
	StatusFinished   ContestStatus = "finished"
	StatusArchived   ContestStatus = "archived"
)

// statusOrder maps each status to its position in the lifecycle so
// transitions can be compared for monotonicity.
var statusOrder = map[ContestStatus]int{
	StatusUpcoming:   0,
	StatusSubmission: 1,
	StatusVoting:     2,
	StatusFinished:   3,
	StatusArchived:   4,
}

// After reports whether s comes later in the lifecycle than other.
func (s ContestStatus) After(other ContestStatus) bool {
	return statusOrder[s] > statusOrder[other]
}

// Contest is a time-boxed submission-and-voting competition.  The Seed is
// assigned once at creation and drives the deterministic part of finalist
// selection; it must never change after the first save — the repository
// rejects any attempt.
type Contest struct {
	ID                uint64
	Title             string
	Description       string
	Type              ContestType
	Status            ContestStatus
	StartDate         time.Time
	SubmissionEndDate time.Time
	VotingEndDate     time.Time
	ArchiveDate       time.Time
	Number            uint32 // sequential within (Type, Year)
	Year              int
	Seed              string // immutable after first save
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NextStatus returns the phase the contest should move to next and whether
// that boundary has been crossed at the given time.  It advances one step
// at a time so a sweep can walk a stale contest through several phases in
// order without skipping any side effects.
func (c *Contest) NextStatus(now time.Time) (ContestStatus, bool) {
	switch c.Status {
	case StatusUpcoming:
		return StatusSubmission, !now.Before(c.StartDate)
	case StatusSubmission:
		return StatusVoting, !now.Before(c.SubmissionEndDate)
	case StatusVoting:
		return StatusFinished, !now.Before(c.VotingEndDate)
	case StatusFinished:
		return StatusArchived, !now.Before(c.ArchiveDate)
	}
	return c.Status, false
}

// Advance walks the contest forward through every boundary already crossed
// at the given time and returns the phases entered, in order.  A contest
// whose process was down across several boundaries catches up in one call.
func (c *Contest) Advance(now time.Time) []ContestStatus {
	var entered []ContestStatus
	for {
		next, due := c.NextStatus(now)
		if !due {
			return entered
		}
		c.Status = next
		entered = append(entered, next)
	}
}

// Submission is one user's entry in a contest.  A user may enter a contest
// at most once; the repository enforces the (contest, user) uniqueness.
type Submission struct {
	ID        uint64
	ContestID uint64
	UserID    uint64
	MediaID   uint64
	CreatedAt time.Time
}

// Vote records one user voting for one submission.  Per contest a user may
// vote for at most VoteLimit distinct submissions and only once per
// submission.
type Vote struct {
	ID           uint64
	ContestID    uint64
	SubmissionID uint64
	UserID       uint64
	CreatedAt    time.Time
}

// VoteLimit is the maximum number of distinct submissions a user may vote
// for within one contest.
const VoteLimit = 3
