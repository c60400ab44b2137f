package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/api"
	"github.com/nubster/flaps/internal/engine"
	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/rules"
	"github.com/nubster/flaps/internal/segments"
	"github.com/nubster/flaps/internal/snapshot"
	"github.com/nubster/flaps/internal/store"
)

const testAdminKey = "test-admin-key"

// newBackend spins up a real API server over an in-memory store.
func newBackend(t *testing.T) (*httptest.Server, *api.Server, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	apiServer := api.NewServer(memStore, snapshot.NewRegistry(), "prod", testAdminKey)
	ts := httptest.NewServer(apiServer.Router())
	t.Cleanup(ts.Close)
	return ts, apiServer, memStore
}

func seedBackend(t *testing.T, apiServer *api.Server, memStore *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()

	flag, err := flags.NewBoolean("premium-feature", "Premium Feature", uuid.New(), "tester")
	if err != nil {
		t.Fatalf("NewBoolean: %v", err)
	}
	flag = flag.WithEnvironment("prod",
		flags.EnabledBoolean(false).WithRule(
			flags.NewTargetingRule(1, flags.BoolFlagValue(true)).
				WithCondition(rules.Equals("plan", rules.StringValue("pro"))),
		),
	)
	if err := memStore.UpsertFlag(ctx, flag); err != nil {
		t.Fatalf("seed flag: %v", err)
	}

	theme, err := flags.NewString("theme", "Theme", []string{"light", "dark"}, uuid.New(), "tester")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	theme = theme.WithEnvironment("prod", flags.EnabledString("dark"))
	if err := memStore.UpsertFlag(ctx, theme); err != nil {
		t.Fatalf("seed flag: %v", err)
	}

	if err := apiServer.RebuildSnapshot(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
}

func newConnectedClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(context.Background(), Options{
		BaseURL:      baseURL,
		Environment:  "prod",
		APIKey:       testAdminKey,
		PollInterval: -1, // tests drive Refresh explicitly
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClientInitialFetch(t *testing.T) {
	ts, apiServer, memStore := newBackend(t)
	seedBackend(t, apiServer, memStore)

	c := newConnectedClient(t, ts.URL)
	if c.ETag() == "" {
		t.Fatal("client should hold the server's ETag after the initial fetch")
	}

	evalCtx := engine.WithUserID("user-1").Set("plan", rules.StringValue("pro"))
	if !c.IsEnabled("premium-feature", evalCtx) {
		t.Error("pro user should be enabled")
	}
	free := engine.WithUserID("user-2").Set("plan", rules.StringValue("free"))
	if c.IsEnabled("premium-feature", free) {
		t.Error("free user should not be enabled")
	}
}

func TestClientRequiresBaseURL(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil {
		t.Error("New without BaseURL should fail")
	}
}

func TestClientFailsWhenServerUnreachable(t *testing.T) {
	_, err := New(context.Background(), Options{
		BaseURL:      "http://127.0.0.1:1",
		PollInterval: -1,
	})
	if err == nil {
		t.Error("New against an unreachable server should fail")
	}
}

func TestClientRefreshPicksUpChanges(t *testing.T) {
	ts, apiServer, memStore := newBackend(t)
	seedBackend(t, apiServer, memStore)
	c := newConnectedClient(t, ts.URL)
	ctx := context.Background()

	evalCtx := engine.WithUserID("user-1")
	if c.IsEnabled("new-flag", evalCtx) {
		t.Fatal("flag should not exist yet")
	}

	flag, _ := flags.NewBoolean("new-flag", "New Flag", uuid.New(), "tester")
	flag = flag.WithEnvironment("prod", flags.EnabledBoolean(true))
	if err := memStore.UpsertFlag(ctx, flag); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := apiServer.RebuildSnapshot(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	before := c.ETag()
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if c.ETag() == before {
		t.Error("ETag should change after the server snapshot changed")
	}
	if !c.IsEnabled("new-flag", evalCtx) {
		t.Error("refreshed client should see the new flag")
	}
}

func TestClientRefreshNotModified(t *testing.T) {
	ts, apiServer, memStore := newBackend(t)
	seedBackend(t, apiServer, memStore)
	c := newConnectedClient(t, ts.URL)

	before := c.ETag()
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if c.ETag() != before {
		t.Error("unchanged server snapshot should leave the client snapshot alone")
	}
}

func TestClientGetBoolAndGetString(t *testing.T) {
	ts, apiServer, memStore := newBackend(t)
	seedBackend(t, apiServer, memStore)
	c := newConnectedClient(t, ts.URL)

	evalCtx := engine.WithUserID("user-1").Set("plan", rules.StringValue("pro"))

	if got := c.GetBool("premium-feature", evalCtx, false); !got {
		t.Error("GetBool should return the evaluated true")
	}
	if got := c.GetString("theme", evalCtx, "light"); got != "dark" {
		t.Errorf("GetString = %q, want dark", got)
	}

	// Missing flags fall back to the caller's default.
	if got := c.GetBool("no-such-flag", evalCtx, true); !got {
		t.Error("GetBool for a missing flag should return the fallback")
	}
	if got := c.GetString("no-such-flag", evalCtx, "light"); got != "light" {
		t.Errorf("GetString for a missing flag = %q, want fallback light", got)
	}

	// Type mismatches fall back too.
	if got := c.GetString("premium-feature", evalCtx, "light"); got != "light" {
		t.Errorf("GetString on a boolean flag = %q, want fallback light", got)
	}
	if got := c.GetBool("theme", evalCtx, false); got {
		t.Error("GetBool on a string flag should return the fallback")
	}
}

func TestClientEvaluateUnknownFlag(t *testing.T) {
	ts, apiServer, memStore := newBackend(t)
	seedBackend(t, apiServer, memStore)
	c := newConnectedClient(t, ts.URL)

	result := c.Evaluate("nope", engine.WithUserID("user-1"))
	if result.Reason != engine.ReasonFlagNotFound {
		t.Errorf("reason = %q, want flag_not_found", result.Reason)
	}
	if result.IsEnabled() {
		t.Error("unknown flag must be off")
	}
}

func TestOfflineClient(t *testing.T) {
	seg := segments.New("beta", "Beta", uuid.New(), "tester").
		WithIncludedUser("beta-user")

	flag, err := flags.NewBoolean("beta-feature", "Beta Feature", uuid.New(), "tester")
	if err != nil {
		t.Fatalf("NewBoolean: %v", err)
	}
	flag = flag.WithEnvironment("prod",
		flags.EnabledBoolean(false).WithRule(
			flags.NewTargetingRule(1, flags.BoolFlagValue(true)).
				WithCondition(rules.MatchesSegment(seg.ID)),
		),
	)

	c := NewOffline([]flags.Flag{flag}, []segments.Segment{seg})
	if !c.IsEnabled("beta-feature", engine.WithUserID("beta-user")) {
		t.Error("offline client should evaluate segment membership")
	}
	if c.IsEnabled("beta-feature", engine.WithUserID("stranger")) {
		t.Error("non-member should be off")
	}

	// Offline clients never poll; Close must be a no-op.
	c.Close()
}

func TestClientWithEnvironment(t *testing.T) {
	flag, err := flags.NewBoolean("staged", "Staged", uuid.New(), "tester")
	if err != nil {
		t.Fatalf("NewBoolean: %v", err)
	}
	flag = flag.
		WithEnvironment("prod", flags.Disabled()).
		WithEnvironment("staging", flags.EnabledBoolean(true))

	c := NewOffline([]flags.Flag{flag}, nil)
	evalCtx := engine.WithUserID("user-1")

	if c.IsEnabled("staged", evalCtx) {
		t.Error("prod should be off")
	}
	if !c.WithEnvironment("staging").IsEnabled("staged", evalCtx) {
		t.Error("staging should be on")
	}
}

func TestClientWithEnvironmentSeesRefreshes(t *testing.T) {
	ts, apiServer, memStore := newBackend(t)
	seedBackend(t, apiServer, memStore)
	c := newConnectedClient(t, ts.URL)
	ctx := context.Background()

	clone := c.WithEnvironment("staging")
	if clone.ETag() != c.ETag() {
		t.Fatalf("clone etag = %q, want parent's %q", clone.ETag(), c.ETag())
	}

	flag, _ := flags.NewBoolean("staged-flag", "Staged Flag", uuid.New(), "tester")
	flag = flag.WithEnvironment("staging", flags.EnabledBoolean(true))
	if err := memStore.UpsertFlag(ctx, flag); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := apiServer.RebuildSnapshot(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	// A refresh on the parent must reach the clone: they share state.
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if clone.ETag() != c.ETag() {
		t.Errorf("clone etag = %q after parent refresh, want %q", clone.ETag(), c.ETag())
	}
	if !clone.IsEnabled("staged-flag", engine.WithUserID("user-1")) {
		t.Error("clone should evaluate the refreshed snapshot in its own environment")
	}

	// And the reverse: a refresh on the clone updates the parent.
	flag2, _ := flags.NewBoolean("another-flag", "Another Flag", uuid.New(), "tester")
	flag2 = flag2.WithEnvironment("prod", flags.EnabledBoolean(true))
	if err := memStore.UpsertFlag(ctx, flag2); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := apiServer.RebuildSnapshot(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if err := clone.Refresh(ctx); err != nil {
		t.Fatalf("clone refresh: %v", err)
	}
	if !c.IsEnabled("another-flag", engine.WithUserID("user-1")) {
		t.Error("parent should see the snapshot refreshed through the clone")
	}
}

func TestClientAdminRoundTrip(t *testing.T) {
	ts, _, memStore := newBackend(t)
	c := newConnectedClient(t, ts.URL)
	ctx := context.Background()

	flag, err := flags.NewBoolean("cli-made", "CLI Made", uuid.New(), "cli")
	if err != nil {
		t.Fatalf("NewBoolean: %v", err)
	}
	flag = flag.WithEnvironment("prod", flags.EnabledBoolean(true))

	if err := c.UpsertFlag(ctx, flag); err != nil {
		t.Fatalf("UpsertFlag: %v", err)
	}
	if _, err := memStore.GetFlag(ctx, flag.Key); err != nil {
		t.Errorf("flag should be persisted: %v", err)
	}

	got, err := c.GetFlag(ctx, "cli-made")
	if err != nil {
		t.Fatalf("GetFlag: %v", err)
	}
	if got.Name != "CLI Made" {
		t.Errorf("Name = %q, want CLI Made", got.Name)
	}

	list, err := c.ListFlags(ctx)
	if err != nil {
		t.Fatalf("ListFlags: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d flags, want 1", len(list))
	}

	seg := segments.New("vip", "VIP", uuid.New(), "cli").WithIncludedUser("u1")
	if err := c.UpsertSegment(ctx, seg); err != nil {
		t.Fatalf("UpsertSegment: %v", err)
	}
	segs, err := c.ListSegments(ctx)
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segs) != 1 || segs[0].Key != "vip" {
		t.Errorf("segments = %+v, want one vip segment", segs)
	}
	if err := c.DeleteSegment(ctx, seg.ID); err != nil {
		t.Fatalf("DeleteSegment: %v", err)
	}

	if err := c.DeleteFlag(ctx, "cli-made"); err != nil {
		t.Fatalf("DeleteFlag: %v", err)
	}
	if _, err := c.GetFlag(ctx, "cli-made"); err == nil {
		t.Error("deleted flag should be gone")
	}
}

func TestClientAdminRequiresKey(t *testing.T) {
	ts, _, _ := newBackend(t)
	c, err := New(context.Background(), Options{
		BaseURL:      ts.URL,
		Environment:  "prod",
		PollInterval: -1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	flag, _ := flags.NewBoolean("nope", "Nope", uuid.New(), "tester")
	if err := c.UpsertFlag(context.Background(), flag); err == nil {
		t.Error("admin call without an API key should fail")
	}
}
