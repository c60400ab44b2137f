// Package engine implements deterministic feature-flag evaluation: ordered
// rule matching, segment membership, and stable percentage rollouts.
package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/rollout"
	"github.com/nubster/flaps/internal/rules"
	"github.com/nubster/flaps/internal/segments"
)

// Evaluator computes flag values for user contexts.
//
// An Evaluator is immutable: its segment map is built at construction and
// never changes, so any number of evaluations may run in parallel without
// coordination. To pick up segment changes, build a new Evaluator and swap
// the reference (see client.Client for the swap pattern). Evaluation is
// referentially transparent: the same (flag, environment, context) triple
// always yields the same result for a given segment snapshot.
type Evaluator struct {
	segments map[uuid.UUID]segments.Segment
}

// New creates an evaluator with no segments.
func New() *Evaluator {
	return &Evaluator{segments: map[uuid.UUID]segments.Segment{}}
}

// WithSegments creates an evaluator preloaded with the given segments,
// indexed by ID.
func WithSegments(segs []segments.Segment) *Evaluator {
	m := make(map[uuid.UUID]segments.Segment, len(segs))
	for _, s := range segs {
		m[s.ID] = s
	}
	return &Evaluator{segments: m}
}

// Evaluate computes the value of flag in the given environment for ctx.
//
// The algorithm, in order:
//  1. Unknown environment -> environment_not_found (terminal).
//  2. Disabled environment -> flag_disabled, value still populated.
//  3. Rules in ascending priority (stable: ties keep declaration order).
//     The first matching rule wins; a matching rule with a rollout
//     percentage only wins if the user is inside it - users who roll out
//     of a matching rule are skipped, not rejected, and later rules still
//     apply.
//  4. Global rollout percentage, if configured.
//  5. Environment default.
//
// Evaluate never mutates its inputs and has no error path: every abnormal
// input degrades to a well-defined reason or a conservative false.
func (e *Evaluator) Evaluate(flag flags.Flag, environment string, ctx Context) Result {
	envConfig, ok := flag.Environment(environment)
	if !ok {
		return EnvironmentNotFoundResult()
	}

	if !envConfig.Enabled {
		return DisabledResult(flag.DefaultValue())
	}

	ordered := make([]flags.TargetingRule, len(envConfig.Rules))
	copy(ordered, envConfig.Rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, rule := range ordered {
		if !e.ruleMatches(rule, ctx) {
			continue
		}

		if rule.RolloutPercentage != nil {
			if rollout.InRollout(ctx.EffectiveUserID(), flag.Key.String(), *rule.RolloutPercentage) {
				ruleID := rule.ID
				inRollout := true
				return Result{
					Value:     rule.Value,
					Reason:    ReasonTargetingMatch,
					RuleID:    &ruleID,
					InRollout: &inRollout,
				}
			}
			// Not in this rule's rollout; keep scanning later rules.
			continue
		}

		ruleID := rule.ID
		return Result{
			Value:  rule.Value,
			Reason: ReasonTargetingMatch,
			RuleID: &ruleID,
		}
	}

	if envConfig.RolloutPercentage != nil {
		inRollout := rollout.InRollout(ctx.EffectiveUserID(), flag.Key.String(), *envConfig.RolloutPercentage)
		result := Result{InRollout: &inRollout}
		if inRollout {
			result.Value = envConfig.DefaultValue
			result.Reason = ReasonRolloutIncluded
		} else {
			result.Value = flag.DefaultValue()
			result.Reason = ReasonRolloutExcluded
		}
		return result
	}

	return DefaultResult(envConfig.DefaultValue)
}

// ruleMatches reports whether all of the rule's conditions hold for ctx.
// A rule with no conditions is a catch-all.
func (e *Evaluator) ruleMatches(rule flags.TargetingRule, ctx Context) bool {
	for _, condition := range rule.Conditions {
		if !e.conditionMatches(condition, ctx) {
			return false
		}
	}
	return true
}

// conditionMatches evaluates one condition. Segment operators are resolved
// against the evaluator's segment map; everything else is an attribute
// comparison. A missing attribute fails the condition, never errors.
func (e *Evaluator) conditionMatches(condition rules.Condition, ctx Context) bool {
	switch condition.Operator {
	case rules.OpMatchesSegment:
		segmentID, ok := condition.Value.AsSegmentRef()
		if !ok {
			return false
		}
		return e.segmentMembership(segmentID, ctx)
	case rules.OpNotMatchesSegment:
		segmentID, ok := condition.Value.AsSegmentRef()
		if !ok {
			return false
		}
		return !e.segmentMembership(segmentID, ctx)
	}

	actual, ok := ctx.Get(condition.Attribute)
	if !ok {
		return false
	}
	return rules.Compare(actual, condition.Operator, condition.Value)
}

// segmentMembership decides whether ctx belongs to the segment, with fixed
// precedence: explicit exclusion, then explicit inclusion, then rules
// (OR across rules, AND within a rule). Unknown segment IDs are not
// members: references are closed-world and never fail evaluation.
func (e *Evaluator) segmentMembership(segmentID uuid.UUID, ctx Context) bool {
	segment, ok := e.segments[segmentID]
	if !ok {
		return false
	}

	if userID, hasUser := ctx.UserID(); hasUser {
		if segment.IsExcluded(userID) {
			return false
		}
		if segment.IsIncluded(userID) {
			return true
		}
	}

	for _, rule := range segment.Rules {
		allMatch := true
		for _, c := range rule.Conditions {
			if !e.conditionMatches(c, ctx) {
				allMatch = false
				break
			}
		}
		if allMatch {
			return true
		}
	}
	return false
}
