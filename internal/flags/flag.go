// Package flags defines the feature-flag domain model: flags, their typed
// values, per-environment configuration, and targeting rules.
package flags

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidKey is returned when a flag key fails validation.
var ErrInvalidKey = errors.New("invalid flag key")

// Key is the human-readable identifier of a flag (e.g., "new-checkout").
// A Key is guaranteed non-empty and restricted to ASCII alphanumerics,
// hyphens, and underscores; construct one with NewKey.
type Key string

// NewKey validates and creates a flag key.
func NewKey(key string) (Key, error) {
	if key == "" {
		return "", fmt.Errorf("%w: key must not be empty", ErrInvalidKey)
	}
	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return "", fmt.Errorf("%w: %q contains %q; only alphanumerics, hyphens, and underscores are allowed", ErrInvalidKey, key, c)
		}
	}
	return Key(key), nil
}

// MustKey creates a flag key and panics on invalid input. For tests and
// static flag definitions only.
func MustKey(key string) Key {
	k, err := NewKey(key)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Key) String() string {
	return string(k)
}

// Value is the result of a flag evaluation: either a boolean or a string
// variant. The zero value is Boolean(false).
type Value struct {
	isString bool
	b        bool
	s        string
}

// BoolFlagValue creates a boolean flag value.
func BoolFlagValue(b bool) Value {
	return Value{b: b}
}

// StringFlagValue creates a string flag value.
func StringFlagValue(s string) Value {
	return Value{isString: true, s: s}
}

// AsBool returns the boolean value if this is a boolean variant.
func (v Value) AsBool() (bool, bool) {
	if v.isString {
		return false, false
	}
	return v.b, true
}

// AsString returns the string value if this is a string variant.
func (v Value) AsString() (string, bool) {
	if !v.isString {
		return "", false
	}
	return v.s, true
}

// IsTruthy reports whether the value is "on": a true boolean or a non-empty
// string.
func (v Value) IsTruthy() bool {
	if v.isString {
		return v.s != ""
	}
	return v.b
}

// MarshalJSON encodes the value untagged, as a bare bool or string.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isString {
		return json.Marshal(v.s)
	}
	return json.Marshal(v.b)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolFlagValue(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = StringFlagValue(s)
		return nil
	}
	return fmt.Errorf("flags: value must be a bool or a string, got %s", string(data))
}

// TypeKind discriminates flag types.
type TypeKind string

const (
	TypeBoolean TypeKind = "boolean"
	TypeString  TypeKind = "string"
)

// Type describes what a flag evaluates to: a simple on/off boolean, or a
// string with declared variants (for A/B testing).
type Type struct {
	Kind     TypeKind `json:"type"`
	Variants []string `json:"variants,omitempty"`
}

// BooleanType returns the boolean flag type.
func BooleanType() Type {
	return Type{Kind: TypeBoolean}
}

// StringType returns a string flag type with the given variants.
func StringType(variants ...string) Type {
	return Type{Kind: TypeString, Variants: variants}
}

// Flag is a feature flag with targeting rules and per-environment
// configuration.
type Flag struct {
	ID           uuid.UUID                    `json:"id"`
	Key          Key                          `json:"key"`
	Name         string                       `json:"name"`
	Description  string                       `json:"description,omitempty"`
	Type         Type                         `json:"flag_type"`
	Environments map[string]EnvironmentConfig `json:"environments"`
	Tags         []string                     `json:"tags,omitempty"`
	ProjectID    uuid.UUID                    `json:"project_id"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
	CreatedBy    string                       `json:"created_by"`
}

// NewBoolean creates a boolean flag. The key is validated eagerly; a flag is
// never partially constructed.
func NewBoolean(key, name string, projectID uuid.UUID, createdBy string) (Flag, error) {
	return newFlag(key, name, BooleanType(), projectID, createdBy)
}

// NewString creates a string flag with the given variants.
func NewString(key, name string, variants []string, projectID uuid.UUID, createdBy string) (Flag, error) {
	return newFlag(key, name, StringType(variants...), projectID, createdBy)
}

func newFlag(key, name string, typ Type, projectID uuid.UUID, createdBy string) (Flag, error) {
	k, err := NewKey(key)
	if err != nil {
		return Flag{}, err
	}
	now := time.Now().UTC()
	return Flag{
		ID:           uuid.New(),
		Key:          k,
		Name:         name,
		Type:         typ,
		Environments: make(map[string]EnvironmentConfig),
		ProjectID:    projectID,
		CreatedAt:    now,
		UpdatedAt:    now,
		CreatedBy:    createdBy,
	}, nil
}

// WithDescription sets the description.
func (f Flag) WithDescription(description string) Flag {
	f.Description = description
	return f
}

// WithTag appends a tag.
func (f Flag) WithTag(tag string) Flag {
	f.Tags = append(f.Tags[:len(f.Tags):len(f.Tags)], tag)
	return f
}

// WithEnvironment returns a copy of the flag with the given environment
// configuration set.
func (f Flag) WithEnvironment(envKey string, config EnvironmentConfig) Flag {
	envs := make(map[string]EnvironmentConfig, len(f.Environments)+1)
	for k, v := range f.Environments {
		envs[k] = v
	}
	envs[envKey] = config
	f.Environments = envs
	return f
}

// Environment returns the configuration for the given environment key.
func (f Flag) Environment(envKey string) (EnvironmentConfig, bool) {
	cfg, ok := f.Environments[envKey]
	return cfg, ok
}

// DefaultValue returns the flag's type-level default: false for boolean
// flags, and the first declared variant (or the empty string) for string
// flags.
func (f Flag) DefaultValue() Value {
	if f.Type.Kind == TypeString {
		if len(f.Type.Variants) > 0 {
			return StringFlagValue(f.Type.Variants[0])
		}
		return StringFlagValue("")
	}
	return BoolFlagValue(false)
}
