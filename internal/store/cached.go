package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/cache"
	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/segments"
)

// CachedStore layers a Redis flag cache over another store. Flag list reads
// are served from the cache when possible; every write invalidates. Cache
// failures are never fatal: reads fall through to the inner store and writes
// proceed with a best-effort invalidation.
//
// The full flag list is cached under the nil project ID, keyed by the
// serving environment.
type CachedStore struct {
	inner       Store
	cache       *cache.RedisFlagCache
	environment string
}

// NewCachedStore wraps inner with a Redis flag cache.
func NewCachedStore(inner Store, flagCache *cache.RedisFlagCache, environment string) *CachedStore {
	return &CachedStore{inner: inner, cache: flagCache, environment: environment}
}

func (s *CachedStore) ListFlags(ctx context.Context) ([]flags.Flag, error) {
	// Any cache error, miss or Redis trouble, falls through to the store.
	if cached, err := s.cache.Get(ctx, uuid.Nil, s.environment); err == nil {
		return cached, nil
	}

	flagList, err := s.inner.ListFlags(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, uuid.Nil, s.environment, flagList)
	return flagList, nil
}

func (s *CachedStore) GetFlag(ctx context.Context, key flags.Key) (flags.Flag, error) {
	return s.inner.GetFlag(ctx, key)
}

func (s *CachedStore) UpsertFlag(ctx context.Context, flag flags.Flag) error {
	if err := s.inner.UpsertFlag(ctx, flag); err != nil {
		return err
	}
	_ = s.cache.InvalidateProject(ctx, uuid.Nil)
	return nil
}

func (s *CachedStore) DeleteFlag(ctx context.Context, key flags.Key) error {
	if err := s.inner.DeleteFlag(ctx, key); err != nil {
		return err
	}
	_ = s.cache.InvalidateProject(ctx, uuid.Nil)
	return nil
}

func (s *CachedStore) ListSegments(ctx context.Context) ([]segments.Segment, error) {
	return s.inner.ListSegments(ctx)
}

func (s *CachedStore) GetSegment(ctx context.Context, id uuid.UUID) (segments.Segment, error) {
	return s.inner.GetSegment(ctx, id)
}

func (s *CachedStore) UpsertSegment(ctx context.Context, segment segments.Segment) error {
	return s.inner.UpsertSegment(ctx, segment)
}

func (s *CachedStore) DeleteSegment(ctx context.Context, id uuid.UUID) error {
	return s.inner.DeleteSegment(ctx, id)
}

func (s *CachedStore) Close() error {
	cacheErr := s.cache.Close()
	if err := s.inner.Close(); err != nil {
		return err
	}
	return cacheErr
}
