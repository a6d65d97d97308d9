package evaluate

import (
	"math"
	"strconv"
	"strings"

	"github.com/caliberhq/caliper/internal/domain/scorecard"
)

// RawInput is the key-value record captured from the operator form. Keys are
// parameter fieldIDs or fieldID_yes / fieldID_no radio pairs; values are raw
// strings, numbers, or booleans. Only the resolver interprets this shape.
type RawInput map[string]any

// Resolve extracts the numeric value for one parameter from raw input.
// Counter fields yield a non-negative integer count; radio fields yield 0 or
// 1. It never fails: absent, negative, or unparseable data degrades to 0 so
// a partially filled form cannot poison the evaluation.
func Resolve(p scorecard.Parameter, in RawInput) float64 {
	switch p.FieldType {
	case scorecard.FieldRadio:
		return resolveRadio(p.FieldID, in)
	case scorecard.FieldCounter:
		return resolveCounter(p.FieldID, in)
	default:
		// Unknown field types read like counters.
		return resolveCounter(p.FieldID, in)
	}
}

func resolveCounter(fieldID string, in RawInput) float64 {
	v, ok := in[fieldID]
	if !ok {
		return 0
	}
	n, ok := toNumber(v)
	if !ok || n < 0 {
		return 0
	}
	return math.Trunc(n)
}

func resolveRadio(fieldID string, in RawInput) float64 {
	if v, ok := in[fieldID]; ok {
		if n, ok := toNumber(v); ok && n != 0 {
			return 1
		}
		return 0
	}
	// Radio pairs: a truthy fieldID_yes selects yes; fieldID_no or nothing
	// selects no.
	if v, ok := in[fieldID+"_yes"]; ok {
		if n, ok := toNumber(v); ok && n != 0 {
			return 1
		}
	}
	return 0
}

// toNumber coerces the raw value shapes operator forms produce. The second
// return is false when the value has no numeric reading.
func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		switch strings.ToLower(s) {
		case "yes", "true", "on":
			return 1, true
		case "no", "false", "off":
			return 0, true
		}
		return 0, false
	default:
		return 0, false
	}
}
