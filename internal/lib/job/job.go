// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - the queue storage backend enqueues persist tasks through asynq.Client;
//   - a worker server (asynq.Server) runs the handlers that write them to
//     Postgres, retrying on failure.
package job

import (
	"context"
	"errors"
	"time"

	"github.com/deppfellow/bltz-shield/internal/config"
	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// MetadataWriter is what the persist handler writes records to. It is
// satisfied by the repository stores.
type MetadataWriter interface {
	Save(ctx context.Context, rec metadata.Record) (string, error)
}

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	// server runs worker processes that pull tasks from Redis and execute handlers.
	server *asynq.Server

	logger *zerolog.Logger

	// writer receives records from the persist handler.
	writer MetadataWriter
}

// NewJobService creates a JobService configured to use Redis from cfg.
//
// Queue weights give "critical" tasks more worker share; persist tasks go to
// "default".
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	client := asynq.NewClient(redisOpt)

	jobLogger := logger.With().Str("component", "job").Logger()

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger:          NewAsynqLogger(jobLogger),
			ShutdownTimeout: 10 * time.Second,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				jobLogger.Error().
					Err(err).
					Str("type", task.Type()).
					Int("retried", retried).
					Int("max_retry", maxRetry).
					Msg("task failed")
			}),
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: &jobLogger,
	}
}

// SetMetadataWriter sets where persist tasks write records. It must be called
// before Start.
func (j *JobService) SetMetadataWriter(w MetadataWriter) {
	j.writer = w
}

// Start registers the task handlers and starts the worker server. It does
// not block.
func (j *JobService) Start() error {
	if j.writer == nil {
		return errors.New("job service has no metadata writer")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPersistMetadata, j.handlePersistMetadataTask)

	j.logger.Info().Msg("Starting background job server")

	return j.server.Start(mux)
}

// Stop gracefully stops the job server and closes client resources.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Error().Err(err).Msg("closing job client")
	}
}
