package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/deppfellow/bltz-shield/internal/lib/job"
	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// store is the full capability set shared by the memory and sqlite backends.
type store interface {
	MetadataWriter
	MetadataReader
	Pruner
	Pinger
}

var base = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func record(model string, age time.Duration) metadata.Record {
	return metadata.Record{
		ID:        uuid.New(),
		CreatedAt: base.Add(-age),
		Model:     model,
		Timestamp: base.Add(-age - time.Second),
		MetaData:  map[string]any{"url": "https://example.com", "tabs": float64(3)},
	}
}

// exerciseStore runs the contract every readable backend must satisfy.
func exerciseStore(t *testing.T, s store) {
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	oldest := record("gpt", 72*time.Hour)
	middle := record("claude", 2*time.Hour)
	newest := record("gpt", time.Minute)

	for _, rec := range []metadata.Record{middle, oldest, newest} {
		status, err := s.Save(ctx, rec)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if status != metadata.StatusStored {
			t.Fatalf("Save() status = %q, want %q", status, metadata.StatusStored)
		}
	}

	t.Run("recent is newest first", func(t *testing.T) {
		got, err := s.Recent(ctx, metadata.RecentFilter{Limit: 10})
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		want := []uuid.UUID{newest.ID, middle.ID, oldest.ID}
		if len(got) != len(want) {
			t.Fatalf("Recent() returned %d records, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i] {
				t.Errorf("Recent()[%d].ID = %s, want %s", i, got[i].ID, want[i])
			}
		}

		first := got[0]
		if !first.Timestamp.Equal(newest.Timestamp) || !first.CreatedAt.Equal(newest.CreatedAt) {
			t.Errorf("times did not round-trip: %+v", first)
		}
		if first.MetaData["url"] != "https://example.com" || first.MetaData["tabs"] != float64(3) {
			t.Errorf("MetaData = %v", first.MetaData)
		}
	})

	t.Run("recent filters and limits", func(t *testing.T) {
		got, err := s.Recent(ctx, metadata.RecentFilter{Limit: 1, Model: "gpt"})
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != newest.ID {
			t.Fatalf("Recent(gpt, 1) = %+v, want only the newest gpt record", got)
		}

		got, err = s.Recent(ctx, metadata.RecentFilter{Limit: 10, Model: "llama"})
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Recent(llama) = %#v, want empty non-nil slice", got)
		}
	})

	t.Run("prune", func(t *testing.T) {
		deleted, err := s.DeleteOlderThan(ctx, base.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("DeleteOlderThan() error = %v", err)
		}
		if deleted != 1 {
			t.Errorf("deleted = %d, want 1", deleted)
		}

		got, _ := s.Recent(ctx, metadata.RecentFilter{Limit: 10})
		for _, rec := range got {
			if rec.ID == oldest.ID {
				t.Error("oldest record survived pruning")
			}
		}
		if len(got) != 2 {
			t.Errorf("%d records left, want 2", len(got))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Save(ctx, record("gpt", 0)); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() with canceled context error = %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "shield.db")

	s, err := NewSQLiteStore(context.Background(), path, &logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)

	// Reopening the same file keeps the data and the schema.
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	reopened, err := NewSQLiteStore(context.Background(), path, &logger)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Recent(context.Background(), metadata.RecentFilter{Limit: 10})
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("reopened store has %d records, want 2", len(got))
	}
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestQueueStore(t *testing.T) {
	ctx := context.Background()
	rec := record("gemini", 0)

	t.Run("enqueues a persist task", func(t *testing.T) {
		client := &fakeEnqueuer{}
		q := NewQueueStore(client, nil)

		status, err := q.Save(ctx, rec)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if status != metadata.StatusQueued {
			t.Errorf("status = %q, want %q", status, metadata.StatusQueued)
		}
		if len(client.tasks) != 1 || client.tasks[0].Type() != job.TaskPersistMetadata {
			t.Fatalf("tasks = %+v", client.tasks)
		}
		if err := q.Ping(ctx); err != nil {
			t.Errorf("Ping() without pinger error = %v", err)
		}
	})

	t.Run("enqueue failure", func(t *testing.T) {
		redisDown := errors.New("dial tcp: connection refused")
		q := NewQueueStore(&fakeEnqueuer{err: redisDown}, fakePinger{err: redisDown})

		if _, err := q.Save(ctx, rec); !errors.Is(err, redisDown) {
			t.Errorf("Save() error = %v, want wrapped %v", err, redisDown)
		}
		if err := q.Ping(ctx); !errors.Is(err, redisDown) {
			t.Errorf("Ping() error = %v", err)
		}
	})
}

func TestCombinedPinger(t *testing.T) {
	ctx := context.Background()
	redisDown := errors.New("dial tcp: connection refused")
	pgDown := errors.New("pg: connection reset")

	tests := []struct {
		name    string
		pingers []Pinger
		wantErr error
	}{
		{"all healthy", []Pinger{fakePinger{}, fakePinger{}}, nil},
		{"queue redis down", []Pinger{fakePinger{}, NewQueueStore(&fakeEnqueuer{}, fakePinger{err: redisDown})}, redisDown},
		{"first failure wins", []Pinger{fakePinger{err: pgDown}, fakePinger{err: redisDown}}, pgDown},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCombinedPinger(tt.pingers...).Ping(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Ping() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
