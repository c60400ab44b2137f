package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/rules"
	"github.com/nubster/flaps/internal/segments"
)

func seedPremiumFlag(t *testing.T, srv *Server, memStore interface {
	UpsertFlag(ctx context.Context, f flags.Flag) error
}) {
	t.Helper()
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
	if err := memStore.UpsertFlag(context.Background(), flag); err != nil {
		t.Fatalf("seed flag: %v", err)
	}
	if err := srv.RebuildSnapshot(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
}

func TestEvaluateSingleFlag(t *testing.T) {
	srv, memStore := newTestServer(t)
	seedPremiumFlag(t, srv, memStore)
	handler := srv.Router()

	body := map[string]any{
		"flag_key": "premium-feature",
		"context": map[string]any{
			"user_id":    "user-1",
			"attributes": map[string]any{"plan": "pro"},
		},
	}
	rr := doJSON(t, handler, http.MethodPost, "/v1/evaluate", body, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Result.Enabled {
		t.Error("pro user should be enabled")
	}
	if resp.Result.Reason != "targeting_match" {
		t.Errorf("reason = %q, want targeting_match", resp.Result.Reason)
	}
	if resp.ETag == "" {
		t.Error("response should carry the snapshot ETag")
	}

	// A free-plan user falls back to the default.
	body["context"] = map[string]any{
		"user_id":    "user-2",
		"attributes": map[string]any{"plan": "free"},
	}
	rr = doJSON(t, handler, http.MethodPost, "/v1/evaluate", body, nil)
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result.Enabled {
		t.Error("free user should not be enabled")
	}
	if resp.Result.Reason != "default" {
		t.Errorf("reason = %q, want default", resp.Result.Reason)
	}
}

func TestEvaluateUnknownFlag(t *testing.T) {
	srv, _ := newTestServer(t)

	body := map[string]any{
		"flag_key": "no-such-flag",
		"context":  map[string]any{"user_id": "user-1"},
	}
	rr := doJSON(t, srv.Router(), http.MethodPost, "/v1/evaluate", body, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp evaluateResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result.Reason != "flag_not_found" {
		t.Errorf("reason = %q, want flag_not_found", resp.Result.Reason)
	}
	if resp.Result.Enabled {
		t.Error("unknown flag must not be enabled")
	}
}

func TestEvaluateRequiresFlagKey(t *testing.T) {
	srv, _ := newTestServer(t)

	body := map[string]any{"context": map[string]any{"user_id": "u1"}}
	rr := doJSON(t, srv.Router(), http.MethodPost, "/v1/evaluate", body, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestEvaluateInvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	// A JSON string is not a valid request object.
	rr := doJSON(t, srv.Router(), http.MethodPost, "/v1/evaluate", "not an object", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestEvaluateBatch(t *testing.T) {
	srv, memStore := newTestServer(t)
	seedPremiumFlag(t, srv, memStore)

	other, _ := flags.NewBoolean("dark-mode", "Dark Mode", uuid.New(), "tester")
	other = other.WithEnvironment("prod", flags.EnabledBoolean(true))
	if err := memStore.UpsertFlag(context.Background(), other); err != nil {
		t.Fatalf("seed flag: %v", err)
	}
	if err := srv.RebuildSnapshot(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	handler := srv.Router()

	// Empty flag_keys evaluates everything in the snapshot.
	body := map[string]any{
		"context": map[string]any{
			"user_id":    "user-1",
			"attributes": map[string]any{"plan": "pro"},
		},
	}
	rr := doJSON(t, handler, http.MethodPost, "/v1/evaluate/batch", body, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}

	var resp batchEvaluateResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	// Whole-snapshot evaluation is ordered by key, so repeated requests are
	// byte-comparable.
	if resp.Results[0].FlagKey != "dark-mode" || resp.Results[1].FlagKey != "premium-feature" {
		t.Errorf("results order = [%s, %s], want sorted [dark-mode, premium-feature]",
			resp.Results[0].FlagKey, resp.Results[1].FlagKey)
	}

	// Explicit keys preserve order, including misses.
	body["flag_keys"] = []string{"dark-mode", "missing", "premium-feature"}
	rr = doJSON(t, handler, http.MethodPost, "/v1/evaluate/batch", body, nil)
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(resp.Results))
	}
	if resp.Results[0].FlagKey != "dark-mode" || !resp.Results[0].Enabled {
		t.Errorf("results[0] = %+v, want enabled dark-mode", resp.Results[0])
	}
	if resp.Results[1].Reason != "flag_not_found" {
		t.Errorf("results[1].Reason = %q, want flag_not_found", resp.Results[1].Reason)
	}
	if resp.Results[2].FlagKey != "premium-feature" || !resp.Results[2].Enabled {
		t.Errorf("results[2] = %+v, want enabled premium-feature", resp.Results[2])
	}
}

func TestEvaluateSegmentCondition(t *testing.T) {
	srv, memStore := newTestServer(t)
	handler := srv.Router()

	seg := segments.New("beta", "Beta", uuid.New(), "tester").
		WithIncludedUser("beta-user")
	if err := memStore.UpsertSegment(context.Background(), seg); err != nil {
		t.Fatalf("seed segment: %v", err)
	}

	flag, _ := flags.NewBoolean("beta-feature", "Beta Feature", uuid.New(), "tester")
	flag = flag.WithEnvironment("prod",
		flags.EnabledBoolean(false).WithRule(
			flags.NewTargetingRule(1, flags.BoolFlagValue(true)).
				WithCondition(rules.MatchesSegment(seg.ID)),
		),
	)
	if err := memStore.UpsertFlag(context.Background(), flag); err != nil {
		t.Fatalf("seed flag: %v", err)
	}
	if err := srv.RebuildSnapshot(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	evaluate := func(userID string) evaluateResponse {
		t.Helper()
		body := map[string]any{
			"flag_key": "beta-feature",
			"context":  map[string]any{"user_id": userID},
		}
		rr := doJSON(t, handler, http.MethodPost, "/v1/evaluate", body, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var resp evaluateResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp
	}

	if resp := evaluate("beta-user"); !resp.Result.Enabled {
		t.Error("segment member should be enabled")
	}
	if resp := evaluate("stranger"); resp.Result.Enabled {
		t.Error("non-member should not be enabled")
	}
}

func TestAttributeValueConversion(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		ok   bool
	}{
		{"string", "pro", true},
		{"bool", true, true},
		{"number", 42.0, true},
		{"string list", []any{"a", "b"}, true},
		{"mixed list", []any{"a", 1.0}, false},
		{"object", map[string]any{"x": 1}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := attributeValue(tt.raw)
			if ok != tt.ok {
				t.Errorf("attributeValue(%v) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
		})
	}
}

func TestEnvironmentFallback(t *testing.T) {
	srv, _ := newTestServer(t)
	if got := srv.env(""); got != "prod" {
		t.Errorf("env(\"\") = %q, want server default prod", got)
	}
	if got := srv.env(" staging "); got != "staging" {
		t.Errorf("env with override = %q, want staging", got)
	}
}
