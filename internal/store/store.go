// Package store defines flag and segment persistence. Two backends are
// provided: an in-memory map for development and tests, and PostgreSQL with
// flags stored as JSONB documents.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/segments"
)

// Sentinel errors returned by lookups. Callers branch with errors.Is.
var (
	ErrFlagNotFound    = errors.New("flag not found")
	ErrSegmentNotFound = errors.New("segment not found")
)

// Store defines the interface for flag and segment persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// ListFlags retrieves all flags. Returns an empty slice when none exist.
	ListFlags(ctx context.Context) ([]flags.Flag, error)

	// GetFlag retrieves a single flag by key. Returns ErrFlagNotFound if no
	// flag with that key exists.
	GetFlag(ctx context.Context, key flags.Key) (flags.Flag, error)

	// UpsertFlag creates or updates a flag, keyed by flag key.
	UpsertFlag(ctx context.Context, flag flags.Flag) error

	// DeleteFlag removes a flag by key. Deleting a missing flag is not an
	// error (idempotent).
	DeleteFlag(ctx context.Context, key flags.Key) error

	// ListSegments retrieves all segments.
	ListSegments(ctx context.Context) ([]segments.Segment, error)

	// GetSegment retrieves a segment by ID. Returns ErrSegmentNotFound if no
	// segment with that ID exists.
	GetSegment(ctx context.Context, id uuid.UUID) (segments.Segment, error)

	// UpsertSegment creates or updates a segment, keyed by ID.
	UpsertSegment(ctx context.Context, segment segments.Segment) error

	// DeleteSegment removes a segment by ID (idempotent).
	DeleteSegment(ctx context.Context, id uuid.UUID) error

	// Close releases any resources held by the store.
	Close() error
}
