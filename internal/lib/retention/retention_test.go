package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakePruner struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakePruner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func TestRunOnce(t *testing.T) {
	now := time.Date(2025, 2, 1, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		pruner *fakePruner
		want   int64
	}{
		{"deletes", &fakePruner{deleted: 42}, 42},
		{"nothing to delete", &fakePruner{}, 0},
		{"store error", &fakePruner{deleted: 7, err: errors.New("db down")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(tt.pruner, "@daily", 30, zerolog.Nop())
			s.now = func() time.Time { return now }

			if got := s.RunOnce(context.Background()); got != tt.want {
				t.Errorf("RunOnce() = %d, want %d", got, tt.want)
			}

			wantCutoff := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
			if len(tt.pruner.cutoffs) != 1 || !tt.pruner.cutoffs[0].Equal(wantCutoff) {
				t.Errorf("cutoffs = %v, want [%v]", tt.pruner.cutoffs, wantCutoff)
			}
		})
	}
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&fakePruner{}, "@every 1h", 7, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}
	if next := s.NextRun(); next == nil || !next.After(time.Now()) {
		t.Errorf("NextRun() = %v, want a future time", next)
	}

	// A second Start is a no-op.
	if err := s.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if s.NextRun() != nil {
		t.Error("NextRun() != nil after Stop")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	s := NewScheduler(&fakePruner{}, "@hourly", 7, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after context cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&fakePruner{}, "every tuesday", 7, zerolog.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want invalid schedule error")
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true after failed Start")
	}
}
