package graph

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NodeRef names a node within one resolution run. Numeric ids are kept as
// their decimal text so "5" and 5 compare equal.
type NodeRef = string

// UnknownSource is the source id of a link whose edge could not be found
const UnknownSource NodeRef = "Unknown"

// MaxLinkSlot is the largest output slot index accepted when deciding
// whether a two-element array is a link
const MaxLinkSlot = 255

// InputValue is either a literal or a link to another node's output slot.
// It is built once at ingestion; nothing downstream re-inspects wire shapes.
type InputValue struct {
	link   bool
	value  any
	source NodeRef
	slot   int
}

// Literal wraps a scalar, list or object value
func Literal(v any) InputValue {
	return InputValue{value: v}
}

// LinkTo references output slot of source
func LinkTo(source NodeRef, slot int) InputValue {
	return InputValue{link: true, source: source, slot: slot}
}

// UnknownLink marks "a link exists but its edge is unresolvable"
var UnknownLink = LinkTo(UnknownSource, 0)

func (v InputValue) IsLink() bool    { return v.link }
func (v InputValue) Value() any      { return v.value }
func (v InputValue) Source() NodeRef { return v.source }
func (v InputValue) Slot() int       { return v.slot }
func (v InputValue) IsUnknown() bool { return v.link && v.source == UnknownSource }
func (v InputValue) IsLiteral() bool { return !v.link }

// MarshalJSON writes the host wire shape back out: links as [source, slot]
func (v InputValue) MarshalJSON() ([]byte, error) {
	if v.link {
		return json.Marshal([]any{v.source, v.slot})
	}
	return json.Marshal(v.value)
}

// ParseInput disambiguates a raw decoded input value. A two-element array
// whose first element looks like a node id and whose second element is a
// small non-negative integer is a link; everything else is a literal.
func ParseInput(raw any) InputValue {
	pair, ok := raw.([]any)
	if !ok || len(pair) != 2 {
		return Literal(raw)
	}
	source, ok := asNodeRef(pair[0])
	if !ok {
		return Literal(raw)
	}
	slot, ok := asInt(pair[1])
	if !ok || slot < 0 || slot > MaxLinkSlot {
		return Literal(raw)
	}
	return LinkTo(source, slot)
}

// asNodeRef accepts non-empty strings and integral numbers
func asNodeRef(v any) (NodeRef, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		return "", false
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return "", false
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

// asInt accepts integral numbers only; strings are not slot indexes
func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		s := t.String()
		if strings.ContainsAny(s, ".eE") {
			f, err := t.Float64()
			if err != nil || f != math.Trunc(f) {
				return 0, false
			}
			return int(f), true
		}
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	default:
		return 0, false
	}
}

// RefOf converts a decoded id (string or number) to a NodeRef
func RefOf(v any) (NodeRef, bool) {
	return asNodeRef(v)
}
