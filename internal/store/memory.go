package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/segments"
)

// MemoryStore is an in-memory implementation of the Store interface. It uses
// maps guarded by an RWMutex and is suitable for development, testing, or
// single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	flags    map[flags.Key]flags.Flag
	segments map[uuid.UUID]segments.Segment
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flags:    make(map[flags.Key]flags.Flag),
		segments: make(map[uuid.UUID]segments.Segment),
	}
}

// ListFlags retrieves all flags, sorted by key for stable output.
func (m *MemoryStore) ListFlags(ctx context.Context) ([]flags.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]flags.Flag, 0, len(m.flags))
	for _, f := range m.flags {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// GetFlag retrieves a single flag by key.
func (m *MemoryStore) GetFlag(ctx context.Context, key flags.Key) (flags.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.flags[key]
	if !ok {
		return flags.Flag{}, ErrFlagNotFound
	}
	return f, nil
}

// UpsertFlag creates or updates a flag in memory.
func (m *MemoryStore) UpsertFlag(ctx context.Context, flag flags.Flag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flags[flag.Key] = flag
	return nil
}

// DeleteFlag removes a flag from memory. Idempotent.
func (m *MemoryStore) DeleteFlag(ctx context.Context, key flags.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.flags, key)
	return nil
}

// ListSegments retrieves all segments, sorted by key for stable output.
func (m *MemoryStore) ListSegments(ctx context.Context) ([]segments.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]segments.Segment, 0, len(m.segments))
	for _, s := range m.segments {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// GetSegment retrieves a segment by ID.
func (m *MemoryStore) GetSegment(ctx context.Context, id uuid.UUID) (segments.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.segments[id]
	if !ok {
		return segments.Segment{}, ErrSegmentNotFound
	}
	return s, nil
}

// UpsertSegment creates or updates a segment in memory.
func (m *MemoryStore) UpsertSegment(ctx context.Context, segment segments.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.segments[segment.ID] = segment
	return nil
}

// DeleteSegment removes a segment from memory. Idempotent.
func (m *MemoryStore) DeleteSegment(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.segments, id)
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
