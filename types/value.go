package types

import "math"

/*
This file normalizes raw stored values into the cache representation of a
kind.

A durable store hands back whatever its decoder produces: YAML gives int,
SQLite gives int64, JSON-ish stores give float64. The cache keeps exactly
one representation per kind so accessors and the changed-comparison never
have to care where a value came from:

	KindBool       → bool
	KindInt        → int
	KindInt64      → int64
	KindFloat64    → float64
	KindString     → string
	KindIntEnum    → int    (raw storage value, decoded on read)
	KindStringEnum → string (raw storage value, decoded on read)
*/

// Coerce converts a raw stored value into the cache representation for the
// kind. ok is false when the raw value cannot represent the kind, in which
// case the entry is dropped and reads fall back to the default.
func Coerce(kind Kind, raw any) (any, bool) {
	switch kind {
	case KindBool:
		v, ok := raw.(bool)
		return v, ok

	case KindInt, KindIntEnum:
		v, ok := toInt64(raw)
		if !ok || v > math.MaxInt || v < math.MinInt {
			return nil, false
		}
		return int(v), true

	case KindInt64:
		return resultOf(toInt64(raw))

	case KindFloat64:
		switch v := raw.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
		return nil, false

	case KindString, KindStringEnum:
		v, ok := raw.(string)
		return v, ok
	}
	return nil, false
}

func toInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		// Stores with a single number type round-trip integers as floats.
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), true
		}
	}
	return 0, false
}

func resultOf(v int64, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}
