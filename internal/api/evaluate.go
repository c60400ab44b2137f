package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/engine"
	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/rules"
	"github.com/nubster/flaps/internal/snapshot"
	"github.com/nubster/flaps/internal/telemetry"
)

// evaluateContextDTO is the wire form of an evaluation context.
type evaluateContextDTO struct {
	UserID     string         `json:"user_id,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// evaluateRequest is the body of POST /v1/evaluate.
type evaluateRequest struct {
	FlagKey     string             `json:"flag_key"`
	Environment string             `json:"environment,omitempty"`
	Context     evaluateContextDTO `json:"context"`
}

// batchEvaluateRequest is the body of POST /v1/evaluate/batch. An empty
// FlagKeys list evaluates every flag in the snapshot.
type batchEvaluateRequest struct {
	FlagKeys    []string           `json:"flag_keys,omitempty"`
	Environment string             `json:"environment,omitempty"`
	Context     evaluateContextDTO `json:"context"`
}

// evaluateResult is one evaluated flag on the wire.
type evaluateResult struct {
	FlagKey   string        `json:"flag_key"`
	Value     flags.Value   `json:"value"`
	Enabled   bool          `json:"enabled"`
	Reason    engine.Reason `json:"reason"`
	RuleID    *uuid.UUID    `json:"rule_id,omitempty"`
	InRollout *bool         `json:"in_rollout,omitempty"`
}

type evaluateResponse struct {
	Result      evaluateResult `json:"result"`
	ETag        string         `json:"etag"`
	EvaluatedAt string         `json:"evaluated_at"`
}

type batchEvaluateResponse struct {
	Results     []evaluateResult `json:"results"`
	ETag        string           `json:"etag"`
	EvaluatedAt string           `json:"evaluated_at"`
}

// handleEvaluate handles POST /v1/evaluate.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.FlagKey) == "" {
		BadRequestError(w, r, ErrCodeBadRequest, "flag_key is required")
		return
	}

	snap := s.registry.Load()
	evaluator := engine.WithSegments(snap.SegmentList())
	ctx := contextFromDTO(req.Context)

	result := s.evaluateOne(snap, evaluator, req.FlagKey, s.env(req.Environment), ctx)
	writeJSON(w, http.StatusOK, evaluateResponse{
		Result:      result,
		ETag:        snap.ETag,
		EvaluatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleEvaluateBatch handles POST /v1/evaluate/batch.
func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	snap := s.registry.Load()
	evaluator := engine.WithSegments(snap.SegmentList())
	ctx := contextFromDTO(req.Context)
	environment := s.env(req.Environment)

	keys := req.FlagKeys
	if len(keys) == 0 {
		// Evaluate the whole snapshot in key order so identical requests
		// produce identically ordered responses.
		keys = make([]string, 0, len(snap.Flags))
		for key := range snap.Flags {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}

	results := make([]evaluateResult, 0, len(keys))
	for _, key := range keys {
		results = append(results, s.evaluateOne(snap, evaluator, key, environment, ctx))
	}

	writeJSON(w, http.StatusOK, batchEvaluateResponse{
		Results:     results,
		ETag:        snap.ETag,
		EvaluatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// evaluateOne resolves one flag from the snapshot and evaluates it. A missing
// flag degrades to a flag_not_found result rather than an HTTP error, so
// batch responses stay positionally complete.
func (s *Server) evaluateOne(snap *snapshot.Snapshot, evaluator *engine.Evaluator, key, environment string, ctx engine.Context) evaluateResult {
	flag, ok := snap.Flag(key)

	var result engine.Result
	if !ok {
		result = engine.FlagNotFoundResult()
	} else {
		result = evaluator.Evaluate(flag, environment, ctx)
	}
	telemetry.RecordEvaluation(string(result.Reason))

	return evaluateResult{
		FlagKey:   key,
		Value:     result.Value,
		Enabled:   result.IsEnabled(),
		Reason:    result.Reason,
		RuleID:    result.RuleID,
		InRollout: result.InRollout,
	}
}

// env resolves the request environment, falling back to the server default.
func (s *Server) env(requested string) string {
	if strings.TrimSpace(requested) != "" {
		return strings.TrimSpace(requested)
	}
	return s.environment
}

// contextFromDTO converts wire attributes into a typed evaluation context.
// JSON numbers become Number values, bools Boolean, strings String, and
// homogeneous string arrays StringList; anything else is dropped.
func contextFromDTO(dto evaluateContextDTO) engine.Context {
	ctx := engine.NewContext()
	if dto.UserID != "" {
		ctx = engine.WithUserID(dto.UserID)
	}
	for key, raw := range dto.Attributes {
		if value, ok := attributeValue(raw); ok {
			ctx = ctx.Set(key, value)
		}
	}
	return ctx
}

func attributeValue(raw any) (rules.Value, bool) {
	switch v := raw.(type) {
	case string:
		return rules.StringValue(v), true
	case bool:
		return rules.BoolValue(v), true
	case float64:
		return rules.NumberValue(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return rules.Value{}, false
		}
		return rules.NumberValue(f), true
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return rules.Value{}, false
			}
			items = append(items, s)
		}
		return rules.StringListValue(items...), true
	default:
		return rules.Value{}, false
	}
}
