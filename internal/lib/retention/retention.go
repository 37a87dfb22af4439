// Package retention deletes old browser_meta records on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Pruner deletes records created before cutoff and reports how many went.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs the pruner on a cron schedule.
type Scheduler struct {
	pruner   Pruner
	schedule string
	maxAge   time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	running bool
}

// NewScheduler creates a scheduler that keeps records for days days.
//
// schedule accepts the standard five-field syntax and descriptors such as
// "@daily" or "@every 6h".
func NewScheduler(pruner Pruner, schedule string, days int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		pruner:   pruner,
		schedule: schedule,
		maxAge:   time.Duration(days) * 24 * time.Hour,
		now:      time.Now,
		logger:   logger.With().Str("component", "retention").Logger(),
		cron:     cron.New(),
	}
}

// Start validates the schedule and starts the cron runner. The scheduler
// stops itself when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	entry, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}
	s.entry = entry

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.schedule).
		Dur("max_age", s.maxAge).
		Msg("retention scheduler started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce runs a single pruning cycle and returns the number of deleted
// records.
func (s *Scheduler) RunOnce(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.maxAge)

	deleted, err := s.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Time("cutoff", cutoff).Msg("scheduled pruning failed")
		return 0
	}

	if deleted > 0 {
		s.logger.Info().Int64("deleted_count", deleted).Time("cutoff", cutoff).Msg("scheduled pruning completed")
	} else {
		s.logger.Debug().Time("cutoff", cutoff).Msg("scheduled pruning completed, no records deleted")
	}
	return deleted
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info().Msg("retention scheduler stopped")
}

// IsRunning reports whether the cron runner is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pruning time, nil when not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	return &next
}
