package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/hibiken/asynq"
)

// handlePersistMetadataTask writes a queued record to the store.
//
// A payload that cannot be decoded will never succeed, so it is not retried.
// Store errors are returned so Asynq schedules a retry.
func (j *JobService) handlePersistMetadataTask(ctx context.Context, t *asynq.Task) error {
	dec := json.NewDecoder(bytes.NewReader(t.Payload()))
	dec.UseNumber()

	var rec metadata.Record
	if err := dec.Decode(&rec); err != nil {
		return fmt.Errorf("failed to unmarshal metadata payload: %v: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", TaskPersistMetadata).
		Str("record_id", rec.ID.String()).
		Str("model", rec.Model).
		Msg("Processing persist metadata task")

	if _, err := j.writer.Save(ctx, rec); err != nil {
		j.logger.Error().
			Str("type", TaskPersistMetadata).
			Str("record_id", rec.ID.String()).
			Err(err).
			Msg("Failed to persist metadata record")
		return err
	}

	j.logger.Info().
		Str("type", TaskPersistMetadata).
		Str("record_id", rec.ID.String()).
		Msg("Successfully persisted metadata record")

	return nil
}
