package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

// sqliteSchema mirrors the browser_meta table of the Postgres migration.
// created_at is stored as unix nanoseconds so ordering is numeric.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS browser_meta (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	model      TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	meta_data  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_browser_meta_created_at ON browser_meta (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_browser_meta_model ON browser_meta (model);
`

// SQLiteStore persists records to a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(ctx context.Context, path string, logger *zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring sqlite (%s): %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("sqlite metadata store ready")

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec metadata.Record) (string, error) {
	metaData, err := json.Marshal(rec.MetaData)
	if err != nil {
		return "", fmt.Errorf("encoding meta_data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO browser_meta (id, created_at, model, timestamp, meta_data) VALUES (?, ?, ?, ?, ?)`,
		rec.ID.String(),
		rec.CreatedAt.UTC().UnixNano(),
		rec.Model,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		string(metaData),
	)
	if err != nil {
		return "", fmt.Errorf("inserting browser_meta: %w", err)
	}
	return metadata.StatusStored, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, filter metadata.RecentFilter) ([]metadata.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, model, timestamp, meta_data
		   FROM browser_meta
		  WHERE (? = '' OR model = ?)
		  ORDER BY created_at DESC
		  LIMIT ?`,
		filter.Model, filter.Model, filter.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying browser_meta: %w", err)
	}
	defer rows.Close()

	records := []metadata.Record{}
	for rows.Next() {
		var (
			id        string
			createdAt int64
			rec       metadata.Record
			timestamp string
			metaData  string
		)
		if err := rows.Scan(&id, &createdAt, &rec.Model, &timestamp, &metaData); err != nil {
			return nil, fmt.Errorf("scanning browser_meta: %w", err)
		}

		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing record id %q: %w", id, err)
		}
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp); err != nil {
			return nil, fmt.Errorf("parsing record timestamp %q: %w", timestamp, err)
		}
		if err := json.Unmarshal([]byte(metaData), &rec.MetaData); err != nil {
			return nil, fmt.Errorf("decoding meta_data: %w", err)
		}

		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM browser_meta WHERE created_at < ?`, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("pruning browser_meta: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.logger.Info().Msg("closing sqlite metadata store")
	return s.db.Close()
}
