// Package client is the embeddable SDK. It pulls the flag snapshot from a
// flaps server, evaluates flags locally with the same engine the server
// uses, and keeps itself fresh with conditional ETag polling. All reads are
// lock-free: the snapshot and its evaluator swap atomically as a pair.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/nubster/flaps/internal/engine"
	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/segments"
	"github.com/nubster/flaps/internal/snapshot"
)

const (
	// DefaultPollInterval is how often the client re-checks the snapshot
	// when no interval is configured.
	DefaultPollInterval = 30 * time.Second

	defaultHTTPTimeout = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	// BaseURL of the flaps server, e.g. "http://localhost:8080".
	BaseURL string

	// Environment evaluations target, e.g. "prod".
	Environment string

	// APIKey is sent as a bearer token when set. The public snapshot
	// endpoint doesn't require one.
	APIKey string

	// PollInterval between conditional snapshot fetches. Zero means
	// DefaultPollInterval; negative disables background polling entirely
	// (Refresh still works).
	PollInterval time.Duration

	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client
}

// state pairs a snapshot with the evaluator built from its segments, so a
// reader never mixes flags from one snapshot with segments from another.
type state struct {
	snapshot  *snapshot.Snapshot
	evaluator *engine.Evaluator
}

// Client evaluates flags locally against a cached snapshot.
//
// current is a shared pointer: environment-scoped clones made with
// WithEnvironment point at the same cell, so a refresh or poll on any of
// them is visible to all.
type Client struct {
	baseURL      string
	environment  string
	apiKey       string
	pollInterval time.Duration
	httpClient   *http.Client

	current *atomic.Pointer[state]
	cancel  context.CancelFunc
	done    chan struct{}
}

// New connects to a flaps server, performs an initial snapshot fetch, and
// starts background polling. It fails rather than starting blind: an SDK
// that silently evaluates everything to false is worse than an error.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("client: BaseURL is required")
	}
	c := &Client{
		baseURL:      opts.BaseURL,
		environment:  opts.Environment,
		apiKey:       opts.APIKey,
		pollInterval: opts.PollInterval,
		httpClient:   opts.HTTPClient,
		current:      new(atomic.Pointer[state]),
	}
	if c.pollInterval == 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	c.swap(snapshot.Empty())

	if err := c.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("client: initial snapshot fetch: %w", err)
	}

	if c.pollInterval > 0 {
		pollCtx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		c.done = make(chan struct{})
		go c.poll(pollCtx)
	}
	return c, nil
}

// NewOffline builds a client from preloaded flags and segments, with no
// server and no polling. Intended for tests and air-gapped evaluation.
func NewOffline(flagList []flags.Flag, segmentList []segments.Segment) *Client {
	c := &Client{environment: "prod", current: new(atomic.Pointer[state])}
	c.swap(snapshot.Build(flagList, segmentList))
	return c
}

// WithEnvironment returns a copy targeting a different environment. The copy
// shares the live snapshot state with the original: a Refresh or background
// poll on either client is immediately visible to both. Only the original
// polls; Close it last.
func (c *Client) WithEnvironment(environment string) *Client {
	return &Client{
		baseURL:      c.baseURL,
		environment:  environment,
		apiKey:       c.apiKey,
		pollInterval: c.pollInterval,
		httpClient:   c.httpClient,
		current:      c.current,
	}
}

// Close stops background polling. Evaluations against the last snapshot
// keep working after Close.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
		c.cancel = nil
	}
}

// ETag returns the validator of the currently held snapshot.
func (c *Client) ETag() string {
	return c.current.Load().snapshot.ETag
}

// Refresh performs one conditional snapshot fetch. A 304 is a no-op.
func (c *Client) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/flags/snapshot", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if etag := c.ETag(); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return nil
	case http.StatusOK:
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("snapshot fetch: status %d: %s", resp.StatusCode, body)
	}

	var snap snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	c.swap(&snap)
	return nil
}

// Evaluate computes the flag's value for ctx in the client's environment.
// Unknown flags degrade to a flag_not_found result, never an error.
func (c *Client) Evaluate(flagKey string, ctx engine.Context) engine.Result {
	st := c.current.Load()
	flag, ok := st.snapshot.Flag(flagKey)
	if !ok {
		return engine.FlagNotFoundResult()
	}
	return st.evaluator.Evaluate(flag, c.environment, ctx)
}

// IsEnabled reports whether the flag is on for ctx. Missing flags are off.
func (c *Client) IsEnabled(flagKey string, ctx engine.Context) bool {
	return c.Evaluate(flagKey, ctx).IsEnabled()
}

// GetBool returns the flag's boolean value, or fallback when the flag is
// missing, misconfigured for this environment, or not a boolean.
func (c *Client) GetBool(flagKey string, ctx engine.Context, fallback bool) bool {
	result := c.Evaluate(flagKey, ctx)
	switch result.Reason {
	case engine.ReasonFlagNotFound, engine.ReasonEnvironmentNotFound, engine.ReasonError:
		return fallback
	}
	value, ok := result.Value.AsBool()
	if !ok {
		return fallback
	}
	return value
}

// GetString returns the flag's string variant, or fallback when the flag is
// missing, misconfigured for this environment, or not a string flag.
func (c *Client) GetString(flagKey string, ctx engine.Context, fallback string) string {
	result := c.Evaluate(flagKey, ctx)
	switch result.Reason {
	case engine.ReasonFlagNotFound, engine.ReasonEnvironmentNotFound, engine.ReasonError:
		return fallback
	}
	value, ok := result.Value.AsString()
	if !ok {
		return fallback
	}
	return value
}

func (c *Client) swap(snap *snapshot.Snapshot) {
	c.current.Store(&state{
		snapshot:  snap,
		evaluator: engine.WithSegments(snap.SegmentList()),
	})
}

func (c *Client) poll(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Transient failures keep the last good snapshot.
			_ = c.Refresh(ctx)
		}
	}
}
