package crawler

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Upstream records are loosely typed: the same field may arrive as a string,
// a number, null or not at all. These helpers coerce a decoded value
// (decoded with UseNumber) to the type the tables need.

func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func asOptionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := asString(v)
	return &s
}

// asFloat parses strings and numbers. Anything else, including NaN and
// the infinities, is nil.
func asFloat(v any) *float64 {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	case float64:
		f = t
	default:
		return nil
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// asCount coerces a count. Fractional values are truncated.
func asCount(v any) *int64 {
	f := asFloat(v)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}

func asBool(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}
