// Package segments defines reusable user segments for targeting. A segment
// groups users by explicit allow/deny lists and by rules; it can be
// referenced from targeting conditions across multiple flags.
package segments

import (
	"time"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/rules"
)

// Segment is a reusable group of users.
//
// Membership precedence is fixed: explicit exclusion beats explicit
// inclusion, which beats rule evaluation. The evaluation engine enforces the
// ordering; this type only carries the data.
type Segment struct {
	ID            uuid.UUID `json:"id"`
	Key           string    `json:"key"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Rules         []Rule    `json:"rules"`
	IncludedUsers []string  `json:"included_users"`
	ExcludedUsers []string  `json:"excluded_users"`
	ProjectID     uuid.UUID `json:"project_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedBy     string    `json:"created_by"`
}

// New creates a segment.
func New(key, name string, projectID uuid.UUID, createdBy string) Segment {
	now := time.Now().UTC()
	return Segment{
		ID:        uuid.New(),
		Key:       key,
		Name:      name,
		ProjectID: projectID,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: createdBy,
	}
}

// WithDescription sets the description.
func (s Segment) WithDescription(description string) Segment {
	s.Description = description
	return s
}

// WithRule appends a membership rule (OR semantics across rules).
func (s Segment) WithRule(rule Rule) Segment {
	s.Rules = append(s.Rules[:len(s.Rules):len(s.Rules)], rule)
	return s
}

// WithIncludedUser appends an explicitly included user ID.
func (s Segment) WithIncludedUser(userID string) Segment {
	s.IncludedUsers = append(s.IncludedUsers[:len(s.IncludedUsers):len(s.IncludedUsers)], userID)
	return s
}

// WithExcludedUser appends an explicitly excluded user ID.
func (s Segment) WithExcludedUser(userID string) Segment {
	s.ExcludedUsers = append(s.ExcludedUsers[:len(s.ExcludedUsers):len(s.ExcludedUsers)], userID)
	return s
}

// IsExcluded reports whether the user is explicitly excluded.
func (s Segment) IsExcluded(userID string) bool {
	return containsUser(s.ExcludedUsers, userID)
}

// IsIncluded reports whether the user is explicitly included.
func (s Segment) IsIncluded(userID string) bool {
	return containsUser(s.IncludedUsers, userID)
}

func containsUser(users []string, userID string) bool {
	for _, id := range users {
		if id == userID {
			return true
		}
	}
	return false
}

// Rule defines segment membership. Conditions within a rule use AND logic;
// rules within a segment use OR logic.
type Rule struct {
	Conditions []rules.Condition `json:"conditions"`
}

// NewRule creates an empty segment rule.
func NewRule() Rule {
	return Rule{}
}

// WithCondition appends a condition.
func (r Rule) WithCondition(c rules.Condition) Rule {
	r.Conditions = append(r.Conditions[:len(r.Conditions):len(r.Conditions)], c)
	return r
}

// Single creates a rule with one condition.
func Single(c rules.Condition) Rule {
	return Rule{Conditions: []rules.Condition{c}}
}
