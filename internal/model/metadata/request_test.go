package metadata

import (
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/bltz-shield/internal/validation"
)

var testModels = []string{"GPT", "claude", "gemini", "llama"}

func bind(t *testing.T, req *AcceptMetadataRequest, body string) {
	t.Helper()
	if err := req.BindBody([]byte(body)); err != nil {
		t.Fatalf("BindBody(%s) error = %v", body, err)
	}
}

func TestAcceptValidateNotEnforced(t *testing.T) {
	req := NewSchema(false, testModels).NewAcceptRequest()
	bind(t, req, `{"anything":[1,2,3]}`)

	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if req.Payload != nil {
		t.Error("Payload set without schema enforcement")
	}
}

func TestAcceptValidateEnforced(t *testing.T) {
	schema := NewSchema(true, testModels)

	tests := []struct {
		name       string
		body       string
		wantFields []string
		wantFirst  string
	}{
		{
			name: "valid",
			body: `{"model":"Gemini","timestamp":"2025-01-15T10:30:00Z","metadata_data":{"url":"https://example.com"}}`,
		},
		{
			name:       "empty body",
			body:       ``,
			wantFields: []string{FieldModel, FieldTimestamp, FieldMetadataData},
			wantFirst:  "is required",
		},
		{
			name:       "unsupported model",
			body:       `{"model":"bard","timestamp":"2025-01-15","metadata_data":{}}`,
			wantFields: []string{FieldModel},
			wantFirst:  "must be one of: gpt claude gemini llama",
		},
		{
			name:       "type errors win over tag errors",
			body:       `{"model":["gpt"],"timestamp":"","metadata_data":[]}`,
			wantFields: []string{FieldModel, FieldTimestamp, FieldMetadataData},
			wantFirst:  "must be a string",
		},
		{
			name:       "bad timestamp only",
			body:       `{"model":"llama","timestamp":"noon","metadata_data":{}}`,
			wantFields: []string{FieldTimestamp},
			wantFirst:  "must be an ISO-8601 date-time",
		},
		{
			name:       "null metadata_data",
			body:       `{"model":"llama","timestamp":"2025-01-15","metadata_data":null}`,
			wantFields: []string{FieldMetadataData},
			wantFirst:  "must be an object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := schema.NewAcceptRequest()
			bind(t, req, tt.body)

			err := req.Validate()
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if req.Payload == nil || req.Payload.Model != "gemini" {
					t.Fatalf("Payload = %+v, want lowercased model", req.Payload)
				}
				return
			}

			var failures validation.CustomValidationErrors
			if !errors.As(err, &failures) {
				t.Fatalf("Validate() error = %v, want CustomValidationErrors", err)
			}
			if len(failures) != len(tt.wantFields) {
				t.Fatalf("failures = %+v, want fields %v", failures, tt.wantFields)
			}
			for i, field := range tt.wantFields {
				if failures[i].Field != field {
					t.Errorf("failures[%d].Field = %q, want %q", i, failures[i].Field, field)
				}
			}
			if failures[0].Message != tt.wantFirst {
				t.Errorf("first message = %q, want %q", failures[0].Message, tt.wantFirst)
			}
			if req.Payload != nil {
				t.Error("Payload set on failed validation")
			}
		})
	}
}

func TestPayloadRecord(t *testing.T) {
	p := &Payload{
		Model:        "Claude",
		Timestamp:    "2025-01-15T17:30:00+07:00",
		MetadataData: map[string]any{"tab": "1"},
	}

	rec, err := p.Record()
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if rec.Model != "claude" {
		t.Errorf("Model = %q, want claude", rec.Model)
	}
	if want := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC); !rec.Timestamp.Equal(want) || rec.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp = %v, want %v in UTC", rec.Timestamp, want)
	}
}

func TestRecentValidate(t *testing.T) {
	schema := NewSchema(true, testModels)

	tests := []struct {
		name    string
		limit   int
		model   string
		wantErr bool
	}{
		{"defaults", DefaultRecentLimit, "", false},
		{"max limit", MaxRecentLimit, "GPT", false},
		{"zero limit", 0, "", true},
		{"limit too large", MaxRecentLimit + 1, "", true},
		{"unsupported model", 5, "bard", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := schema.NewRecentRequest()
			req.Limit = tt.limit
			req.Model = tt.model

			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	req := schema.NewRecentRequest()
	req.Model = "GPT"
	if f := req.Filter(); f.Model != "gpt" || f.Limit != DefaultRecentLimit {
		t.Errorf("Filter() = %+v", f)
	}
}

func TestSchemaModels(t *testing.T) {
	schema := NewSchema(true, testModels)

	models := schema.Models()
	models[0] = "mutated"
	if schema.Models()[0] != "gpt" {
		t.Error("Models() exposes internal slice")
	}
	if !schema.Supports("LLAMA") || schema.Supports("bard") {
		t.Error("Supports() is not a case-insensitive membership check")
	}
}
