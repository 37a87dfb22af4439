package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

type fakeWriter struct {
	saved []metadata.Record
	err   error
}

func (f *fakeWriter) Save(ctx context.Context, rec metadata.Record) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, rec)
	return metadata.StatusStored, nil
}

func newTestJobService(w MetadataWriter) *JobService {
	logger := zerolog.Nop()
	return &JobService{logger: &logger, writer: w}
}

func testRecord() metadata.Record {
	return metadata.Record{
		ID:        uuid.New(),
		CreatedAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		Model:     "gpt",
		Timestamp: time.Date(2025, 1, 15, 10, 29, 0, 0, time.UTC),
		MetaData:  map[string]any{"count": json.Number("12345678901234567890")},
	}
}

func TestNewPersistMetadataTask(t *testing.T) {
	rec := testRecord()

	task, err := NewPersistMetadataTask(rec)
	if err != nil {
		t.Fatalf("NewPersistMetadataTask() error = %v", err)
	}
	if task.Type() != TaskPersistMetadata {
		t.Errorf("Type() = %q, want %q", task.Type(), TaskPersistMetadata)
	}

	var decoded metadata.Record
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("payload is not a record: %v", err)
	}
	if decoded.ID != rec.ID || decoded.Model != rec.Model {
		t.Errorf("payload = %+v, want %+v", decoded, rec)
	}
}

func TestHandlePersistMetadataTask(t *testing.T) {
	t.Run("writes the record", func(t *testing.T) {
		writer := &fakeWriter{}
		rec := testRecord()
		task, _ := NewPersistMetadataTask(rec)

		if err := newTestJobService(writer).handlePersistMetadataTask(context.Background(), task); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if len(writer.saved) != 1 {
			t.Fatalf("saved %d records, want 1", len(writer.saved))
		}

		got := writer.saved[0]
		if got.ID != rec.ID || !got.Timestamp.Equal(rec.Timestamp) {
			t.Errorf("saved = %+v, want %+v", got, rec)
		}
		if got.MetaData["count"] != json.Number("12345678901234567890") {
			t.Errorf("large number changed in transit: %v", got.MetaData["count"])
		}
	})

	t.Run("store errors are retried", func(t *testing.T) {
		storeErr := errors.New("connection reset")
		task, _ := NewPersistMetadataTask(testRecord())

		err := newTestJobService(&fakeWriter{err: storeErr}).handlePersistMetadataTask(context.Background(), task)
		if !errors.Is(err, storeErr) {
			t.Fatalf("handler error = %v, want %v", err, storeErr)
		}
		if errors.Is(err, asynq.SkipRetry) {
			t.Error("store error marked as SkipRetry")
		}
	})

	t.Run("bad payload is not retried", func(t *testing.T) {
		writer := &fakeWriter{}
		task := asynq.NewTask(TaskPersistMetadata, []byte("{broken"))

		err := newTestJobService(writer).handlePersistMetadataTask(context.Background(), task)
		if !errors.Is(err, asynq.SkipRetry) {
			t.Fatalf("handler error = %v, want SkipRetry", err)
		}
		if len(writer.saved) != 0 {
			t.Error("bad payload reached the store")
		}
	})
}

func TestStartRequiresWriter(t *testing.T) {
	if err := newTestJobService(nil).Start(); err == nil {
		t.Fatal("Start() error = nil, want missing writer error")
	}
}
