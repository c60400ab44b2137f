// Package snapshot holds the server's in-memory view of all flags and
// segments. A snapshot is immutable; updates swap the whole pointer, so
// readers never see a partially applied change.
package snapshot

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/segments"
)

// Snapshot is an immutable point-in-time view of all flags and segments.
type Snapshot struct {
	ETag      string                        `json:"etag"`
	Flags     map[string]flags.Flag         `json:"flags"`
	Segments  map[uuid.UUID]segments.Segment `json:"segments"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

// Build assembles a snapshot from the full flag and segment lists and
// computes its ETag. The ETag is a weak validator derived from the JSON
// encoding of the content (maps marshal with sorted keys, so the encoding is
// deterministic).
func Build(flagList []flags.Flag, segmentList []segments.Segment) *Snapshot {
	flagMap := make(map[string]flags.Flag, len(flagList))
	for _, f := range flagList {
		flagMap[f.Key.String()] = f
	}
	segmentMap := make(map[uuid.UUID]segments.Segment, len(segmentList))
	for _, s := range segmentList {
		segmentMap[s.ID] = s
	}

	payload := struct {
		Flags    map[string]flags.Flag          `json:"flags"`
		Segments map[uuid.UUID]segments.Segment `json:"segments"`
	}{flagMap, segmentMap}
	blob, _ := json.Marshal(payload)
	etag := fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(blob))

	return &Snapshot{
		ETag:      etag,
		Flags:     flagMap,
		Segments:  segmentMap,
		UpdatedAt: time.Now().UTC(),
	}
}

// Empty returns a snapshot with no flags or segments.
func Empty() *Snapshot {
	return Build(nil, nil)
}

// Flag looks up a flag by key.
func (s *Snapshot) Flag(key string) (flags.Flag, bool) {
	f, ok := s.Flags[key]
	return f, ok
}

// SegmentList returns the snapshot's segments as a slice, for feeding an
// evaluator.
func (s *Snapshot) SegmentList() []segments.Segment {
	list := make([]segments.Segment, 0, len(s.Segments))
	for _, seg := range s.Segments {
		list = append(list, seg)
	}
	return list
}

// Registry holds the current snapshot behind an atomic pointer and fans out
// update notifications to subscribers (SSE handlers, SDK pollers).
type Registry struct {
	current  atomic.Pointer[Snapshot]
	notifier notifier
}

// NewRegistry creates a registry initialized with an empty snapshot.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(Empty())
	return r
}

// Load returns the current snapshot. Never nil.
func (r *Registry) Load() *Snapshot {
	return r.current.Load()
}

// Update swaps in a new snapshot and notifies subscribers with its ETag.
func (r *Registry) Update(s *Snapshot) {
	r.current.Store(s)
	r.notifier.publish(s.ETag)
}

// Subscribe registers an update listener. The returned channel carries new
// ETags; the returned func unsubscribes and closes the channel.
func (r *Registry) Subscribe() (<-chan string, func()) {
	return r.notifier.subscribe()
}
