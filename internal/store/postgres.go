package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/segments"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
//
// Flags and segments are stored as whole JSONB documents keyed by their
// natural identifier. The document is the source of truth; the indexed
// columns exist only for lookups. Schema:
//
//	CREATE TABLE flags (
//	    key        TEXT PRIMARY KEY,
//	    doc        JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE TABLE segments (
//	    id         UUID PRIMARY KEY,
//	    doc        JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListFlags retrieves all flags from the database, sorted by key.
func (p *PostgresStore) ListFlags(ctx context.Context) ([]flags.Flag, error) {
	rows, err := p.pool.Query(ctx, `SELECT doc FROM flags ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	var result []flags.Flag
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		var f flags.Flag
		if err := json.Unmarshal(doc, &f); err != nil {
			return nil, fmt.Errorf("decode flag document: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	if result == nil {
		result = []flags.Flag{}
	}
	return result, nil
}

// GetFlag retrieves a single flag by key.
func (p *PostgresStore) GetFlag(ctx context.Context, key flags.Key) (flags.Flag, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM flags WHERE key = $1`, key.String()).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return flags.Flag{}, ErrFlagNotFound
		}
		return flags.Flag{}, fmt.Errorf("get flag %q: %w", key, err)
	}

	var f flags.Flag
	if err := json.Unmarshal(doc, &f); err != nil {
		return flags.Flag{}, fmt.Errorf("decode flag document: %w", err)
	}
	return f, nil
}

// UpsertFlag creates or updates a flag document.
func (p *PostgresStore) UpsertFlag(ctx context.Context, flag flags.Flag) error {
	doc, err := json.Marshal(flag)
	if err != nil {
		return fmt.Errorf("encode flag document: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO flags (key, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		flag.Key.String(), doc)
	if err != nil {
		return fmt.Errorf("upsert flag %q: %w", flag.Key, err)
	}
	return nil
}

// DeleteFlag removes a flag by key. Idempotent.
func (p *PostgresStore) DeleteFlag(ctx context.Context, key flags.Key) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM flags WHERE key = $1`, key.String())
	if err != nil {
		return fmt.Errorf("delete flag %q: %w", key, err)
	}
	return nil
}

// ListSegments retrieves all segments from the database.
func (p *PostgresStore) ListSegments(ctx context.Context) ([]segments.Segment, error) {
	rows, err := p.pool.Query(ctx, `SELECT doc FROM segments ORDER BY doc->>'key'`)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var result []segments.Segment
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		var s segments.Segment
		if err := json.Unmarshal(doc, &s); err != nil {
			return nil, fmt.Errorf("decode segment document: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	if result == nil {
		result = []segments.Segment{}
	}
	return result, nil
}

// GetSegment retrieves a segment by ID.
func (p *PostgresStore) GetSegment(ctx context.Context, id uuid.UUID) (segments.Segment, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM segments WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return segments.Segment{}, ErrSegmentNotFound
		}
		return segments.Segment{}, fmt.Errorf("get segment %s: %w", id, err)
	}

	var s segments.Segment
	if err := json.Unmarshal(doc, &s); err != nil {
		return segments.Segment{}, fmt.Errorf("decode segment document: %w", err)
	}
	return s, nil
}

// UpsertSegment creates or updates a segment document.
func (p *PostgresStore) UpsertSegment(ctx context.Context, segment segments.Segment) error {
	doc, err := json.Marshal(segment)
	if err != nil {
		return fmt.Errorf("encode segment document: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO segments (id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		segment.ID, doc)
	if err != nil {
		return fmt.Errorf("upsert segment %s: %w", segment.ID, err)
	}
	return nil
}

// DeleteSegment removes a segment by ID. Idempotent.
func (p *PostgresStore) DeleteSegment(ctx context.Context, id uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM segments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete segment %s: %w", id, err)
	}
	return nil
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
