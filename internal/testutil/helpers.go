// Package testutil provides helpers for API-level tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nubster/flaps/internal/api"
	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/snapshot"
	"github.com/nubster/flaps/internal/store"
)

// NewTestServer creates a test server with an in-memory store and a fresh
// snapshot registry.
func NewTestServer(t *testing.T, env, adminKey string) (*api.Server, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	registry := snapshot.NewRegistry()
	server := api.NewServer(memStore, registry, env, adminKey)
	return server, memStore
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedFlags populates the store with test flags.
func SeedFlags(ctx context.Context, st store.Store, flagList []flags.Flag) error {
	for _, f := range flagList {
		if err := st.UpsertFlag(ctx, f); err != nil {
			return err
		}
	}
	return nil
}
