// Package scheduler runs the periodic maintenance jobs: contest phase
// sweeps, expired-story cleanup and stale-token cleanup. Jobs run on plain
// tickers inside one goroutine each; there is no cron surface because
// nothing here needs calendar semantics.
package scheduler

import (
	"context"
	"log"
	"time"
)

type contestSweeper interface {
	Sweep(ctx context.Context, now time.Time) error
}

type tokenJanitor interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type storyJanitor interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type contestJanitor interface {
	PruneStale(ctx context.Context) error
}

// Intervals for the periodic jobs. The contest sweep runs often because a
// phase boundary should be observed within about a minute of passing; the
// cleanups are housekeeping and can be lazy.
const (
	sweepEvery        = time.Minute
	storyCleanEvery   = time.Hour
	tokenCleanEvery   = 24 * time.Hour
	contestCleanEvery = 24 * time.Hour
)

// Scheduler owns the background maintenance goroutines.
type Scheduler struct {
	contests contestSweeper
	tokens   tokenJanitor
	stories  storyJanitor
	pruner   contestJanitor
	stop     chan struct{}
	done     chan struct{}
}

func New(contests contestSweeper, tokens tokenJanitor, stories storyJanitor, pruner contestJanitor) *Scheduler {
	return &Scheduler{
		contests: contests,
		tokens:   tokens,
		stories:  stories,
		pruner:   pruner,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs every job once immediately, then on its interval. The
// immediate run matters after downtime: stale contests catch up on their
// missed phase boundaries and tokens past their retention window go away
// without waiting a day.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop signals the scheduler to quit and waits for the loop to exit.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) run() {
	defer close(s.done)

	s.runAll()

	sweep := time.NewTicker(sweepEvery)
	stories := time.NewTicker(storyCleanEvery)
	tokens := time.NewTicker(tokenCleanEvery)
	contests := time.NewTicker(contestCleanEvery)
	defer sweep.Stop()
	defer stories.Stop()
	defer tokens.Stop()
	defer contests.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-sweep.C:
			s.sweepContests()
		case <-stories.C:
			s.cleanStories()
		case <-tokens.C:
			s.cleanTokens()
		case <-contests.C:
			s.pruneContests()
		}
	}
}

func (s *Scheduler) runAll() {
	s.sweepContests()
	s.cleanStories()
	s.cleanTokens()
	s.pruneContests()
}

func (s *Scheduler) sweepContests() {
	ctx, cancel := jobContext()
	defer cancel()
	if err := s.contests.Sweep(ctx, time.Now().UTC()); err != nil {
		log.Printf("scheduler: contest sweep failed: %v", err)
	}
}

func (s *Scheduler) cleanStories() {
	ctx, cancel := jobContext()
	defer cancel()
	n, err := s.stories.DeleteExpired(ctx)
	if err != nil {
		log.Printf("scheduler: story cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("scheduler: removed %d expired stories", n)
	}
}

func (s *Scheduler) cleanTokens() {
	ctx, cancel := jobContext()
	defer cancel()
	n, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		log.Printf("scheduler: token cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("scheduler: removed %d stale refresh tokens", n)
	}
}

func (s *Scheduler) pruneContests() {
	ctx, cancel := jobContext()
	defer cancel()
	if err := s.pruner.PruneStale(ctx); err != nil {
		log.Printf("scheduler: contest prune failed: %v", err)
	}
}

func jobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
