package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/segments"
)

// Admin methods drive the server's protected CRUD endpoints. They require
// Options.APIKey and are used by the flaps CLI; SDK consumers that only
// evaluate flags never touch them.

// UpsertFlag creates or replaces a flag document on the server.
func (c *Client) UpsertFlag(ctx context.Context, flag flags.Flag) error {
	return c.doAdmin(ctx, http.MethodPut, "/v1/flags/"+flag.Key.String(), flag)
}

// DeleteFlag removes a flag. Deleting a missing flag is not an error.
func (c *Client) DeleteFlag(ctx context.Context, key string) error {
	return c.doAdmin(ctx, http.MethodDelete, "/v1/flags/"+key, nil)
}

// UpsertSegment creates or replaces a segment document on the server.
func (c *Client) UpsertSegment(ctx context.Context, segment segments.Segment) error {
	return c.doAdmin(ctx, http.MethodPut, "/v1/segments/"+segment.ID.String(), segment)
}

// DeleteSegment removes a segment. Deleting a missing segment is not an error.
func (c *Client) DeleteSegment(ctx context.Context, id uuid.UUID) error {
	return c.doAdmin(ctx, http.MethodDelete, "/v1/segments/"+id.String(), nil)
}

// ListFlags returns the flags of the current snapshot, sorted by key. It
// refreshes first so admin tooling sees writes it just made.
func (c *Client) ListFlags(ctx context.Context) ([]flags.Flag, error) {
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	snap := c.current.Load().snapshot
	list := make([]flags.Flag, 0, len(snap.Flags))
	for _, f := range snap.Flags {
		list = append(list, f)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return list, nil
}

// GetFlag returns one flag from a fresh snapshot.
func (c *Client) GetFlag(ctx context.Context, key string) (flags.Flag, error) {
	if err := c.Refresh(ctx); err != nil {
		return flags.Flag{}, err
	}
	flag, ok := c.current.Load().snapshot.Flag(key)
	if !ok {
		return flags.Flag{}, fmt.Errorf("flag not found: %s", key)
	}
	return flag, nil
}

// ListSegments returns the segments of a fresh snapshot, sorted by key.
func (c *Client) ListSegments(ctx context.Context) ([]segments.Segment, error) {
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	list := c.current.Load().snapshot.SegmentList()
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return list, nil
}

func (c *Client) doAdmin(ctx context.Context, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(blob)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		blob, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, blob)
	}
	return nil
}
