package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/deppfellow/bltz-shield/internal/repository"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MetadataService accepts browser metadata payloads and lists stored ones.
type MetadataService struct {
	schema *metadata.Schema
	writer repository.MetadataWriter
	reader repository.MetadataReader
	server *server.Server

	// now is the clock used for response timestamps and record creation.
	now func() time.Time
}

func NewMetadataService(s *server.Server, repos *repository.Repositories) *MetadataService {
	svc := &MetadataService{
		schema: metadata.NewSchema(s.Config.Metadata.EnforceSchema, s.Config.Metadata.SupportedModels),
		server: s,
		now:    time.Now,
	}
	if repos != nil {
		svc.writer = repos.Writer
		svc.reader = repos.Reader
	}
	return svc
}

// Schema returns the payload rules requests are validated against.
func (m *MetadataService) Schema() *metadata.Schema {
	return m.schema
}

// Accept builds the success response for a validated request and, when a
// store is configured and the payload was schema-checked, persists it.
//
// Storage errors are returned wrapped; the HTTP layer reports them as a
// generic 500.
func (m *MetadataService) Accept(ctx context.Context, req *metadata.AcceptMetadataRequest) (*metadata.AcceptResponse, error) {
	resp := &metadata.AcceptResponse{
		Result:       errs.ResultSuccess,
		Message:      metadata.MsgAccepted,
		ReceivedData: req.Body,
		FieldCount:   len(req.Body),
	}

	if m.writer != nil && req.Payload != nil {
		rec, err := req.Payload.Record()
		if err != nil {
			return nil, fmt.Errorf("building metadata record: %w", err)
		}
		rec.ID = uuid.New()
		rec.CreatedAt = m.now().UTC()

		status, err := m.writer.Save(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("saving metadata record %s: %w", rec.ID, err)
		}

		if m.server.Metrics != nil {
			m.server.Metrics.RecordMetadataRecord(status, rec.Model)
		}
		zerolog.Ctx(ctx).Debug().
			Str("record_id", rec.ID.String()).
			Str("model", rec.Model).
			Str("status", status).
			Msg("metadata record accepted")

		resp.Record = &metadata.RecordSummary{
			ID:     rec.ID,
			Model:  rec.Model,
			Status: status,
		}
	}

	// The timestamp is taken last so it is never earlier than the work done.
	resp.Timestamp = errs.FormatTimestamp(m.now())
	return resp, nil
}

// CanRead reports whether the configured backend can list records.
func (m *MetadataService) CanRead() bool {
	return m.reader != nil
}

// Recent lists stored records, newest first. Without a readable backend the
// route does not exist, so it answers like any unknown endpoint.
func (m *MetadataService) Recent(ctx context.Context, req *metadata.RecentMetadataRequest) (*metadata.RecentResponse, error) {
	if m.reader == nil {
		return nil, errs.NewUnknownEndpointError()
	}

	records, err := m.reader.Recent(ctx, req.Filter())
	if err != nil {
		return nil, fmt.Errorf("listing metadata records: %w", err)
	}
	if records == nil {
		records = []metadata.Record{}
	}

	return &metadata.RecentResponse{
		Result:    errs.ResultSuccess,
		Message:   metadata.MsgRetrieved,
		Timestamp: errs.FormatTimestamp(m.now()),
		Count:     len(records),
		Records:   records,
	}, nil
}
