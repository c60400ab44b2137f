package snapshot

import (
	"sync"
)

// notifier fans new ETags out to subscribers. Slow subscribers are skipped
// rather than blocked: a listener that misses an ETag will catch up on its
// next snapshot fetch anyway.
type notifier struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

// subscribe registers a listener and returns its channel and an unsubscribe
// func. Unsubscribing twice is safe.
func (n *notifier) subscribe() (<-chan string, func()) {
	ch := make(chan string, 1)
	n.mu.Lock()
	if n.subs == nil {
		n.subs = make(map[chan string]struct{})
	}
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	unsub := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[ch]; ok {
			delete(n.subs, ch)
			close(ch)
		}
	}
	return ch, unsub
}

// publish notifies all listeners without blocking.
func (n *notifier) publish(etag string) {
	n.mu.Lock()
	for ch := range n.subs {
		select {
		case ch <- etag:
		default: // slow client; skip instead of blocking
		}
	}
	n.mu.Unlock()
}
