package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindStringList
	KindSegmentRef
)

// Value is the attribute value used in conditions and evaluation contexts.
// It is a closed tagged union over string, number, boolean, string list,
// and segment reference. The zero value is the empty string.
type Value struct {
	kind    Kind
	str     string
	num     float64
	boolean bool
	list    []string
	segment uuid.UUID
}

// StringValue creates a string value.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// NumberValue creates a numeric value.
func NumberValue(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// BoolValue creates a boolean value.
func BoolValue(b bool) Value {
	return Value{kind: KindBoolean, boolean: b}
}

// StringListValue creates a string-list value.
func StringListValue(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{kind: KindStringList, list: list}
}

// SegmentRefValue creates a segment-reference value.
func SegmentRefValue(id uuid.UUID) Value {
	return Value{kind: KindSegmentRef, segment: id}
}

// Kind returns the variant held by this value.
func (v Value) Kind() Kind {
	return v.kind
}

// AsString returns the string value if this is a string variant.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the numeric value if this is a number variant.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns the boolean value if this is a boolean variant.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.boolean, true
}

// AsStringList returns the list value if this is a string-list variant.
// The returned slice must not be mutated.
func (v Value) AsStringList() ([]string, bool) {
	if v.kind != KindStringList {
		return nil, false
	}
	return v.list, true
}

// AsSegmentRef returns the segment ID if this is a segment-reference variant.
func (v Value) AsSegmentRef() (uuid.UUID, bool) {
	if v.kind != KindSegmentRef {
		return uuid.UUID{}, false
	}
	return v.segment, true
}

// String renders the value with its variant tag. The format is part of the
// anonymous-identity contract (engine.Context.EffectiveUserID) and must stay
// stable across releases.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("String(%q)", v.str)
	case KindNumber:
		return "Number(" + strconv.FormatFloat(v.num, 'g', -1, 64) + ")"
	case KindBoolean:
		return "Boolean(" + strconv.FormatBool(v.boolean) + ")"
	case KindStringList:
		quoted := make([]string, len(v.list))
		for i, s := range v.list {
			quoted[i] = strconv.Quote(s)
		}
		return "StringList([" + strings.Join(quoted, ",") + "])"
	case KindSegmentRef:
		return "SegmentRef(" + v.segment.String() + ")"
	default:
		return "Unknown()"
	}
}

// segmentRefJSON is the wire form of a segment reference. Strings, numbers,
// booleans, and string lists are encoded untagged; a bare UUID string would
// be indistinguishable from a string value, so segment references carry an
// explicit tag.
type segmentRefJSON struct {
	Segment uuid.UUID `json:"segment"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBoolean:
		return json.Marshal(v.boolean)
	case KindStringList:
		return json.Marshal(v.list)
	case KindSegmentRef:
		return json.Marshal(segmentRefJSON{Segment: v.segment})
	default:
		return nil, fmt.Errorf("rules: cannot marshal value of kind %d", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch val := raw.(type) {
	case string:
		*v = StringValue(val)
		return nil
	case bool:
		*v = BoolValue(val)
		return nil
	case json.Number:
		n, err := val.Float64()
		if err != nil {
			return fmt.Errorf("rules: invalid number %q: %w", val.String(), err)
		}
		*v = NumberValue(n)
		return nil
	case []any:
		list := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("rules: string list contains non-string element %v", item)
			}
			list = append(list, s)
		}
		*v = Value{kind: KindStringList, list: list}
		return nil
	case map[string]any:
		var ref segmentRefJSON
		if err := json.Unmarshal(data, &ref); err != nil {
			return fmt.Errorf("rules: invalid segment reference: %w", err)
		}
		*v = SegmentRefValue(ref.Segment)
		return nil
	default:
		return fmt.Errorf("rules: unsupported attribute value %s", string(data))
	}
}
