package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists records to the browser_meta table created by the
// tern migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Save(ctx context.Context, rec metadata.Record) (string, error) {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO browser_meta (id, created_at, model, timestamp, meta_data)
		 VALUES (@id, @created_at, @model, @timestamp, @meta_data)
		 ON CONFLICT (id) DO NOTHING`,
		pgx.NamedArgs{
			"id":         rec.ID,
			"created_at": rec.CreatedAt,
			"model":      rec.Model,
			"timestamp":  rec.Timestamp,
			"meta_data":  rec.MetaData,
		},
	)
	if err != nil {
		return "", fmt.Errorf("inserting browser_meta: %w", err)
	}
	return metadata.StatusStored, nil
}

func (p *PostgresStore) Recent(ctx context.Context, filter metadata.RecentFilter) ([]metadata.Record, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, created_at, model, timestamp, meta_data
		   FROM browser_meta
		  WHERE (@model::text = '' OR model = @model::text)
		  ORDER BY created_at DESC
		  LIMIT @limit`,
		pgx.NamedArgs{
			"model": filter.Model,
			"limit": filter.Limit,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("table:browser_meta: querying: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[metadata.Record])
	if err != nil {
		return nil, fmt.Errorf("table:browser_meta: collecting rows: %w", err)
	}
	return records, nil
}

func (p *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM browser_meta WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning browser_meta: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
