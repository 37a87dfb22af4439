package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/bltz-shield/internal/config"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/redis/go-redis/v9"
)

// Repositories is the container of the stores selected by
// storage.backend. Nil fields mean the backend has no such capability.
type Repositories struct {
	// Backend is the configured storage backend name.
	Backend string

	Writer MetadataWriter
	Reader MetadataReader
	Pruner Pruner

	// Health is the dependency GET /status checks for "storage".
	Health Pinger

	closers []func() error
}

// NewRepositories builds the stores for the configured backend using the
// shared resources on s.
//
// For the queue backend the job worker is wired to the Postgres store here,
// so callers must start s.Job only after this returns.
func NewRepositories(ctx context.Context, s *server.Server) (*Repositories, error) {
	backend := s.Config.Storage.Backend
	repos := &Repositories{Backend: backend}

	switch backend {
	case config.StorageNone:
	case config.StorageMemory:
		store := NewMemoryStore()
		repos.Writer, repos.Reader, repos.Pruner, repos.Health = store, store, store, store
	case config.StorageSQLite:
		store, err := NewSQLiteStore(ctx, s.Config.Storage.SQLitePath, s.Logger)
		if err != nil {
			return nil, err
		}
		repos.Writer, repos.Reader, repos.Pruner, repos.Health = store, store, store, store
		repos.closers = append(repos.closers, store.Close)
	case config.StoragePostgres:
		if s.DB == nil {
			return nil, fmt.Errorf("storage backend %q: database is not initialized", backend)
		}
		store := NewPostgresStore(s.DB.Pool)
		repos.Writer, repos.Reader, repos.Pruner, repos.Health = store, store, store, store
	case config.StorageQueue:
		if s.DB == nil || s.Job == nil {
			return nil, fmt.Errorf("storage backend %q: database or job service is not initialized", backend)
		}
		pg := NewPostgresStore(s.DB.Pool)
		s.Job.SetMetadataWriter(pg)

		var pinger Pinger
		if s.Redis != nil {
			pinger = NewRedisPinger(s.Redis)
		}
		queue := NewQueueStore(s.Job.Client, pinger)
		repos.Writer = queue
		repos.Reader, repos.Pruner = pg, pg
		repos.Health = NewCombinedPinger(pg, queue)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}

	return repos, nil
}

// Close releases stores that own their connection.
func (r *Repositories) Close() error {
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil {
			return err
		}
	}
	return nil
}

// redisPinger adapts *redis.Client to Pinger.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// NewRedisPinger returns a Pinger backed by client.
func NewRedisPinger(client *redis.Client) Pinger {
	return redisPinger{client: client}
}

type combinedPinger []Pinger

func (c combinedPinger) Ping(ctx context.Context) error {
	for _, p := range c {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// NewCombinedPinger returns a Pinger that is healthy only when every one of
// pingers is. The first failure is returned.
func NewCombinedPinger(pingers ...Pinger) Pinger {
	return combinedPinger(pingers)
}
