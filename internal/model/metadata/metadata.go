// Package metadata holds the request, record and response types of the
// browser metadata API.
package metadata

import (
	"time"

	"github.com/google/uuid"
)

// Field names of the structured payload, in validation order.
const (
	FieldModel        = "model"
	FieldTimestamp    = "timestamp"
	FieldMetadataData = "metadata_data"
)

// Record statuses reported back to the client.
const (
	StatusStored = "stored"
	StatusQueued = "queued"
)

// Messages returned on success.
const (
	MsgAccepted  = "Metadata request processed successfully"
	MsgRetrieved = "Metadata records retrieved successfully"
)

// Payload is the structured variant of a metadata request body.
type Payload struct {
	Model        string         `json:"model" validate:"required,supported_model"`
	Timestamp    string         `json:"timestamp" validate:"required,isotime"`
	MetadataData map[string]any `json:"metadata_data" validate:"required"`
}

// Record is one stored row of the browser_meta table.
type Record struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	Model     string         `json:"model" db:"model"`
	Timestamp time.Time      `json:"timestamp" db:"timestamp"`
	MetaData  map[string]any `json:"meta_data" db:"meta_data"`
}

// RecordSummary tells the client what happened to its payload.
type RecordSummary struct {
	ID     uuid.UUID `json:"id"`
	Model  string    `json:"model"`
	Status string    `json:"status"`
}

// AcceptResponse is the 200 body of POST /metadata.
type AcceptResponse struct {
	Result       string         `json:"result"`
	Message      string         `json:"message"`
	Timestamp    string         `json:"timestamp"`
	ReceivedData map[string]any `json:"received_data"`
	FieldCount   int            `json:"field_count"`
	Record       *RecordSummary `json:"record,omitempty"`
}

// RecentResponse is the 200 body of GET /metadata/recent.
type RecentResponse struct {
	Result    string   `json:"result"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	Count     int      `json:"count"`
	Records   []Record `json:"records"`
}

// RecentFilter selects records for listing, newest first.
type RecentFilter struct {
	Limit int
	Model string
}
