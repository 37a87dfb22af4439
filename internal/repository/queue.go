package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/bltz-shield/internal/lib/job"
	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the queue store needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueStore accepts records by enqueuing a persist task. A background
// worker writes them to Postgres with retries.
type QueueStore struct {
	client Enqueuer
	pinger Pinger
}

// NewQueueStore creates a store that enqueues through client. pinger, if
// set, reports the health of the queue's Redis.
func NewQueueStore(client Enqueuer, pinger Pinger) *QueueStore {
	return &QueueStore{client: client, pinger: pinger}
}

func (q *QueueStore) Save(ctx context.Context, rec metadata.Record) (string, error) {
	task, err := job.NewPersistMetadataTask(rec)
	if err != nil {
		return "", err
	}

	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return "", fmt.Errorf("enqueuing metadata record %s: %w", rec.ID, err)
	}
	return metadata.StatusQueued, nil
}

func (q *QueueStore) Ping(ctx context.Context) error {
	if q.pinger == nil {
		return nil
	}
	return q.pinger.Ping(ctx)
}
