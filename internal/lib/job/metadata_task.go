package job

import (
	"encoding/json"
	"time"

	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/hibiken/asynq"
)

const (
	// TaskPersistMetadata is the job type name stored in Redis.
	TaskPersistMetadata = "metadata:persist"
)

// NewPersistMetadataTask builds the task that writes rec to the store.
//
// The record id doubles as the task id, so enqueuing the same record twice
// is rejected by Asynq instead of producing a duplicate row.
//   - MaxRetry(5): retry up to 5 times on failure
//   - Queue("default")
//   - Timeout(30s): give up on a single attempt after 30 seconds
func NewPersistMetadataTask(rec metadata.Record) (*asynq.Task, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskPersistMetadata,
		payload,
		asynq.TaskID(rec.ID.String()),
		asynq.MaxRetry(5),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
