package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/bltz-shield/internal/config"
	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/deppfellow/bltz-shield/internal/metrics"
	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/deppfellow/bltz-shield/internal/repository"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/rs/zerolog"
)

func newTestServer(enforce bool) *server.Server {
	cfg := config.DefaultConfig()
	cfg.Auth.APIKey = "bltz_shield_2025_secure_key"
	cfg.Metadata.EnforceSchema = enforce

	logger := zerolog.Nop()
	return &server.Server{Config: cfg, Logger: &logger, Metrics: metrics.NewCollector()}
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuthService(newTestServer(false))

	tests := []struct {
		name       string
		key        string
		wantOK     bool
		wantReason string
	}{
		{"correct key", "bltz_shield_2025_secure_key", true, ""},
		{"missing key", "", false, metrics.AuthMissing},
		{"wrong key", "wrong_key", false, metrics.AuthInvalid},
		{"prefix of key", "bltz_shield_2025", false, metrics.AuthInvalid},
		{"key with trailing space", "bltz_shield_2025_secure_key ", false, metrics.AuthInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := auth.Authenticate(tt.key)
			if ok != tt.wantOK || reason != tt.wantReason {
				t.Errorf("Authenticate(%q) = (%v, %q), want (%v, %q)", tt.key, ok, reason, tt.wantOK, tt.wantReason)
			}
		})
	}
}

func TestAuthenticateWithoutConfiguredKey(t *testing.T) {
	s := newTestServer(false)
	s.Config.Auth.APIKey = ""

	if ok, _ := NewAuthService(s).Authenticate("anything"); ok {
		t.Error("Authenticate() accepted a key with no secret configured")
	}
}

type failingWriter struct{ err error }

func (f failingWriter) Save(context.Context, metadata.Record) (string, error) {
	return "", f.err
}

func acceptRequest(t *testing.T, svc *MetadataService, body string) *metadata.AcceptMetadataRequest {
	t.Helper()
	req := svc.Schema().NewAcceptRequest()
	if err := req.BindBody([]byte(body)); err != nil {
		t.Fatalf("BindBody() error = %v", err)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return req
}

func TestAcceptWithoutStore(t *testing.T) {
	svc := NewMetadataService(newTestServer(false), nil)
	fixed := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	resp, err := svc.Accept(context.Background(), acceptRequest(t, svc, `{"test":"data","n":1}`))
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if resp.Result != errs.ResultSuccess || resp.Message != metadata.MsgAccepted {
		t.Errorf("response = %+v", resp)
	}
	if resp.FieldCount != 2 || resp.ReceivedData["test"] != "data" {
		t.Errorf("echo = %v (%d fields)", resp.ReceivedData, resp.FieldCount)
	}
	if resp.Timestamp != "2025-01-15T10:30:00Z" {
		t.Errorf("Timestamp = %q", resp.Timestamp)
	}
	if resp.Record != nil {
		t.Errorf("Record = %+v, want nil without a store", resp.Record)
	}
}

func TestAcceptStoresRecord(t *testing.T) {
	s := newTestServer(true)
	store := repository.NewMemoryStore()
	svc := NewMetadataService(s, &repository.Repositories{Writer: store, Reader: store})

	resp, err := svc.Accept(context.Background(), acceptRequest(t, svc,
		`{"model":"LLAMA","timestamp":"2025-01-15T10:30:00Z","metadata_data":{"lang":"en"}}`))
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if resp.Record == nil || resp.Record.Status != metadata.StatusStored || resp.Record.Model != "llama" {
		t.Fatalf("Record = %+v", resp.Record)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d records, want 1", store.Len())
	}

	list, err := svc.Recent(context.Background(), svc.Schema().NewRecentRequest())
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if list.Count != 1 || list.Records[0].ID != resp.Record.ID {
		t.Errorf("Recent() = %+v", list)
	}
	if list.Records[0].CreatedAt.Location() != time.UTC {
		t.Error("CreatedAt is not UTC")
	}
}

func TestAcceptStorageFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	svc := NewMetadataService(newTestServer(true), &repository.Repositories{Writer: failingWriter{err: storeErr}})

	resp, err := svc.Accept(context.Background(), acceptRequest(t, svc,
		`{"model":"gpt","timestamp":"2025-01-15","metadata_data":{}}`))
	if !errors.Is(err, storeErr) {
		t.Fatalf("Accept() error = %v, want wrapped %v", err, storeErr)
	}
	if resp != nil {
		t.Errorf("Accept() response = %+v on failure", resp)
	}
}

func TestRecentWithoutReader(t *testing.T) {
	svc := NewMetadataService(newTestServer(true), &repository.Repositories{})
	if svc.CanRead() {
		t.Fatal("CanRead() = true without a reader")
	}

	_, err := svc.Recent(context.Background(), svc.Schema().NewRecentRequest())

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Message != errs.MsgUnknownEndpoint {
		t.Fatalf("Recent() error = %v, want unknown endpoint", err)
	}
}
