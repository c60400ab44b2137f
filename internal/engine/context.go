package engine

import (
	"sort"
	"strings"

	"github.com/nubster/flaps/internal/rules"
)

// Context carries the user identity and attributes a flag is evaluated
// against. A Context is immutable once constructed: the builder methods
// return copies, so a context handed to concurrent evaluations can never
// change underneath them.
type Context struct {
	userID     string
	hasUserID  bool
	attributes map[string]rules.Value
}

// NewContext creates an empty evaluation context.
func NewContext() Context {
	return Context{}
}

// WithUserID creates a context with the given user ID.
func WithUserID(userID string) Context {
	return Context{userID: userID, hasUserID: true}
}

// UserID returns the explicit user ID, if one was set.
func (c Context) UserID() (string, bool) {
	return c.userID, c.hasUserID
}

// Set returns a copy of the context with the attribute set.
func (c Context) Set(key string, value rules.Value) Context {
	attrs := make(map[string]rules.Value, len(c.attributes)+1)
	for k, v := range c.attributes {
		attrs[k] = v
	}
	attrs[key] = value
	c.attributes = attrs
	return c
}

// SetString is shorthand for Set with a string value.
func (c Context) SetString(key, value string) Context {
	return c.Set(key, rules.StringValue(value))
}

// Get returns the attribute value for key.
func (c Context) Get(key string) (rules.Value, bool) {
	v, ok := c.attributes[key]
	return v, ok
}

// Has reports whether the attribute exists.
func (c Context) Has(key string) bool {
	_, ok := c.attributes[key]
	return ok
}

// Len returns the number of attributes.
func (c Context) Len() int {
	return len(c.attributes)
}

// Merge returns a new context combining c with other; values from other take
// precedence, including the user ID when other has one.
func (c Context) Merge(other Context) Context {
	merged := Context{userID: c.userID, hasUserID: c.hasUserID}
	if other.hasUserID {
		merged.userID = other.userID
		merged.hasUserID = true
	}
	attrs := make(map[string]rules.Value, len(c.attributes)+len(other.attributes))
	for k, v := range c.attributes {
		attrs[k] = v
	}
	for k, v := range other.attributes {
		attrs[k] = v
	}
	merged.attributes = attrs
	return merged
}

// EffectiveUserID returns the identity used for rollout bucketing.
//
// With an explicit user ID, that ID is returned verbatim. Without one, a
// stable pseudo-identity is derived by rendering every attribute as
// "key:Value(...)", sorting the pairs lexicographically, and joining them
// under an "anonymous:" prefix. The result is a pure function of the
// context's content: independent of attribute insertion order and stable
// across process restarts, so anonymous users keep their rollout buckets.
func (c Context) EffectiveUserID() string {
	if c.hasUserID {
		return c.userID
	}
	parts := make([]string, 0, len(c.attributes))
	for k, v := range c.attributes {
		parts = append(parts, k+":"+v.String())
	}
	sort.Strings(parts)
	return "anonymous:" + strings.Join(parts, ",")
}
