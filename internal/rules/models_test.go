package rules

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// JSON round-trip
// ---------------------------------------------------------------------------

func TestConditionJSONRoundtrip(t *testing.T) {
	original := Condition{
		Attribute: "email",
		Operator:  OpEndsWith,
		Value:     StringValue("@firma.de"),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Condition
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Attribute != original.Attribute {
		t.Errorf("attribute = %q, want %q", decoded.Attribute, original.Attribute)
	}
	if decoded.Operator != original.Operator {
		t.Errorf("operator = %q, want %q", decoded.Operator, original.Operator)
	}
	if s, _ := decoded.Value.AsString(); s != "@firma.de" {
		t.Errorf("value = %q, want %q", s, "@firma.de")
	}
}

func TestSegmentRefSurvivesRoundtrip(t *testing.T) {
	// A bare UUID string would decode as a string value; the tagged object
	// form must come back as a segment reference.
	id := uuid.New()
	cond := MatchesSegment(id)

	data, err := json.Marshal(cond)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Condition
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, ok := decoded.Value.AsSegmentRef()
	if !ok {
		t.Fatalf("decoded value kind = %v, want segment ref", decoded.Value.Kind())
	}
	if got != id {
		t.Errorf("segment id = %s, want %s", got, id)
	}
}

func TestValueUnmarshalVariants(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind Kind
	}{
		{"string", `"pro"`, KindString},
		{"number", `42.5`, KindNumber},
		{"bool", `true`, KindBoolean},
		{"list", `["FR","DE"]`, KindStringList},
		{"segment", `{"segment":"018f3a2b-0000-7000-8000-000000000000"}`, KindSegmentRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(tt.json), &v); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.json, err)
			}
			if v.Kind() != tt.kind {
				t.Errorf("kind = %v, want %v", v.Kind(), tt.kind)
			}
		})
	}
}

func TestValueUnmarshalRejectsMixedList(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`["a", 2]`), &v); err == nil {
		t.Error("expected error for mixed-type list")
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func TestValueAccessorsAreVariantStrict(t *testing.T) {
	v := NumberValue(3.14)

	if _, ok := v.AsString(); ok {
		t.Error("AsString should fail on a number")
	}
	if _, ok := v.AsBool(); ok {
		t.Error("AsBool should fail on a number")
	}
	if n, ok := v.AsNumber(); !ok || n != 3.14 {
		t.Errorf("AsNumber = (%v, %v), want (3.14, true)", n, ok)
	}
}

func TestConditionBuilders(t *testing.T) {
	cond := EndsWith("email", "@nubster.com")
	if cond.Attribute != "email" || cond.Operator != OpEndsWith {
		t.Errorf("unexpected condition: %+v", cond)
	}

	cond = InList("role", "admin", "moderator")
	if cond.Operator != OpIn {
		t.Errorf("operator = %q, want %q", cond.Operator, OpIn)
	}
	list, ok := cond.Value.AsStringList()
	if !ok || len(list) != 2 {
		t.Errorf("value = %v, want two-element list", cond.Value)
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateCondition(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr error
	}{
		{"valid equals", Equals("plan", StringValue("pro")), nil},
		{"valid in", InList("country", "FR"), nil},
		{"valid segment", MatchesSegment(uuid.New()), nil},
		{"unknown operator", NewCondition("plan", Operator("matches_vibe"), StringValue("x")), ErrInvalidOperator},
		{"empty attribute", NewCondition("", OpEquals, StringValue("x")), ErrInvalidCondition},
		{"in without list", NewCondition("plan", OpIn, StringValue("pro")), ErrInvalidValueType},
		{"gt without number", NewCondition("age", OpGreaterThan, StringValue("18")), ErrInvalidValueType},
		{"segment without ref", NewCondition("", OpMatchesSegment, StringValue("beta")), ErrInvalidValueType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCondition(tt.cond)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
