package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nubster/flaps/internal/telemetry"
)

// heartbeatInterval keeps intermediaries from closing idle SSE connections.
const heartbeatInterval = 30 * time.Second

// handleStream serves the snapshot change stream as Server-Sent Events.
// Clients get an "init" event with the current ETag on connect, then an
// "update" event for every snapshot swap. Payloads carry only the ETag;
// clients re-fetch the snapshot themselves.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalError(w, r, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	telemetry.SSEClients.Inc()
	defer telemetry.SSEClients.Dec()

	updates, unsub := s.registry.Subscribe()
	defer unsub()

	writeEvent(w, "init", s.registry.Load().ETag)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case etag, ok := <-updates:
			if !ok {
				return
			}
			writeEvent(w, "update", etag)
			flusher.Flush()
		case <-heartbeat.C:
			// Comment line; ignored by EventSource parsers.
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, etag string) {
	_, _ = fmt.Fprintf(w, "event: %s\ndata: {\"etag\":%q}\n\n", event, etag)
}
