// Package repository handles all interactions with the metadata stores.
//
// It contains the SQL for the browser_meta table and the in-memory and queue
// variants behind the same small interfaces, abstracting storage away from
// the service layer.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/deppfellow/bltz-shield/internal/model/metadata"
)

// ErrReadUnsupported is returned by backends that cannot list records.
var ErrReadUnsupported = errors.New("metadata backend does not support reads")

// MetadataWriter persists one validated record and reports whether it was
// stored or queued.
type MetadataWriter interface {
	Save(ctx context.Context, rec metadata.Record) (string, error)
}

// MetadataReader lists records, newest first.
type MetadataReader interface {
	Recent(ctx context.Context, filter metadata.RecentFilter) ([]metadata.Record, error)
}

// Pruner deletes records created before cutoff.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
