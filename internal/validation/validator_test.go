package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/nubster/flaps/internal/flags"
	"github.com/nubster/flaps/internal/rules"
	"github.com/nubster/flaps/internal/segments"
)

func validFlag(t *testing.T) flags.Flag {
	t.Helper()
	f, err := flags.NewBoolean("my-flag", "My Flag", uuid.New(), "tester")
	if err != nil {
		t.Fatalf("NewBoolean: %v", err)
	}
	return f.WithEnvironment("prod", flags.EnabledBoolean(true))
}

func TestValidateFlag_Valid(t *testing.T) {
	if errs := ValidateFlag(validFlag(t)); len(errs) > 0 {
		t.Errorf("Expected no errors, got %v", errs)
	}
}

func TestValidateFlag_Key(t *testing.T) {
	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{"valid alphanumeric", "my_flag_123", true},
		{"valid with hyphen", "my-flag-123", true},
		{"empty", "", false},
		{"spaces only", "   ", false},
		{"with spaces", "my flag", false},
		{"with dots", "my.flag", false},
		{"too long", strings.Repeat("a", 65), false},
		{"exactly max length", strings.Repeat("a", 64), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFlag(t)
			f.Key = flags.Key(tt.key)
			errs := ValidateFlag(f)
			if _, hasKeyErr := errs["key"]; hasKeyErr == tt.ok {
				t.Errorf("key %q: key error present=%v, want valid=%v (errs=%v)", tt.key, hasKeyErr, tt.ok, errs)
			}
		})
	}
}

func TestValidateFlag_Name(t *testing.T) {
	f := validFlag(t)
	f.Name = "  "
	errs := ValidateFlag(f)
	if _, ok := errs["name"]; !ok {
		t.Error("Expected a name error for blank name")
	}
}

func TestValidateFlag_Description(t *testing.T) {
	f := validFlag(t)
	f.Description = strings.Repeat("x", 501)
	errs := ValidateFlag(f)
	if _, ok := errs["description"]; !ok {
		t.Error("Expected a description error for over-long description")
	}

	f.Description = strings.Repeat("x", 500)
	if errs := ValidateFlag(f); len(errs) > 0 {
		t.Errorf("500-char description should be fine, got %v", errs)
	}
}

func TestValidateFlag_Type(t *testing.T) {
	f := validFlag(t)
	f.Type = flags.Type{Kind: flags.TypeString}
	errs := ValidateFlag(f)
	if _, ok := errs["flag_type"]; !ok {
		t.Error("String flags without variants should fail")
	}

	f.Type = flags.Type{Kind: flags.TypeBoolean, Variants: []string{"a"}}
	errs = ValidateFlag(f)
	if _, ok := errs["flag_type"]; !ok {
		t.Error("Boolean flags with variants should fail")
	}

	f.Type = flags.Type{Kind: "tristate"}
	errs = ValidateFlag(f)
	if _, ok := errs["flag_type"]; !ok {
		t.Error("Unknown flag types should fail")
	}
}

func TestValidateFlag_Rollout(t *testing.T) {
	f := validFlag(t)
	over := 150
	cfg, _ := f.Environment("prod")
	cfg.RolloutPercentage = &over
	f = f.WithEnvironment("prod", cfg)

	errs := ValidateFlag(f)
	if _, ok := errs["environments.prod.rollout_percentage"]; !ok {
		t.Errorf("Expected a rollout error, got %v", errs)
	}
}

func TestValidateFlag_RuleConditions(t *testing.T) {
	f := validFlag(t)
	badRule := flags.NewTargetingRule(1, flags.BoolFlagValue(true)).
		WithCondition(rules.NewCondition("plan", "no_such_op", rules.StringValue("pro")))
	f = f.WithEnvironment("prod", flags.EnabledBoolean(false).WithRule(badRule))

	errs := ValidateFlag(f)
	if _, ok := errs["environments.prod.rules[0].conditions"]; !ok {
		t.Errorf("Expected a conditions error, got %v", errs)
	}
}

func TestValidateSegment(t *testing.T) {
	seg := segments.New("beta-users", "Beta Users", uuid.New(), "tester").
		WithRule(segments.Single(rules.Equals("plan", rules.StringValue("pro")))).
		WithIncludedUser("user-1")

	if errs := ValidateSegment(seg); len(errs) > 0 {
		t.Errorf("Expected no errors, got %v", errs)
	}

	seg.ID = uuid.Nil
	errs := ValidateSegment(seg)
	if _, ok := errs["id"]; !ok {
		t.Error("Expected an id error for nil UUID")
	}

	seg = segments.New("bad key!", "", uuid.New(), "tester").
		WithIncludedUser("  ")
	errs = ValidateSegment(seg)
	if _, ok := errs["key"]; !ok {
		t.Error("Expected a key error")
	}
	if _, ok := errs["name"]; !ok {
		t.Error("Expected a name error")
	}
	if _, ok := errs["included_users[0]"]; !ok {
		t.Error("Expected an included_users error")
	}
}

func TestResultFirstErrorPerFieldWins(t *testing.T) {
	r := NewResult()
	r.AddError("key", "first")
	r.AddError("key", "second")
	if r.Errors["key"] != "first" {
		t.Errorf("Errors[key] = %q, want first", r.Errors["key"])
	}
	if r.Valid() {
		t.Error("Result with errors should not be valid")
	}
}
