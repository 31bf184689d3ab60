package prefkit

import (
	"math"

	"github.com/prefkit/prefkit/types"
)

/*
This file holds the typed accessor surface.

Every accessor checks the key's kind at the boundary. A mismatch is a
defect in the calling code — the key universe is static, so the wrong
getter can never be a runtime data condition — and panics with a
*types.KindError so it surfaces loudly in tests.
*/

// GetBool returns the bool preference value for the key.
func (p *Preferences) GetBool(key types.Key) bool {
	p.checkKind(key, types.KindBool)
	if v, ok := p.cached(key); ok {
		return v.(bool)
	}
	return key.DefaultValue().(bool)
}

// GetInt returns the int preference value for the key.
func (p *Preferences) GetInt(key types.Key) int {
	p.checkKind(key, types.KindInt)
	if v, ok := p.cached(key); ok {
		return v.(int)
	}
	return key.DefaultValue().(int)
}

// GetInt64 returns the int64 preference value for the key.
func (p *Preferences) GetInt64(key types.Key) int64 {
	p.checkKind(key, types.KindInt64)
	if v, ok := p.cached(key); ok {
		return v.(int64)
	}
	return key.DefaultValue().(int64)
}

// GetFloat64 returns the float64 preference value for the key.
func (p *Preferences) GetFloat64(key types.Key) float64 {
	p.checkKind(key, types.KindFloat64)
	if v, ok := p.cached(key); ok {
		return v.(float64)
	}
	return key.DefaultValue().(float64)
}

// GetString returns the string preference value for the key.
// A key with a nil default reads as the empty string when unset;
// Contains distinguishes unset from an explicitly stored "".
func (p *Preferences) GetString(key types.Key) string {
	p.checkKind(key, types.KindString)
	if v, ok := p.cached(key); ok {
		return v.(string)
	}
	if d, ok := key.DefaultValue().(string); ok {
		return d
	}
	return ""
}

// GetIntEnum returns the enum preference value for the key, decoding the
// raw stored integer through the key's own strategy. An unmapped raw value
// reads as the default variant.
func (p *Preferences) GetIntEnum(key types.Key) types.IntEnum {
	p.checkKind(key, types.KindIntEnum)
	def := key.DefaultValue().(types.IntEnum)

	v, ok := p.cached(key)
	if !ok {
		return def
	}
	raw, ok := v.(int)
	if !ok {
		return def
	}
	if decoded, ok := def.VariantOf(raw); ok {
		return decoded
	}
	return def
}

// GetStringEnum returns the enum preference value for the key, decoding
// the raw stored string. An unmapped raw value reads as the default
// variant.
func (p *Preferences) GetStringEnum(key types.Key) types.StringEnum {
	p.checkKind(key, types.KindStringEnum)
	def := key.DefaultValue().(types.StringEnum)

	v, ok := p.cached(key)
	if !ok {
		return def
	}
	raw, ok := v.(string)
	if !ok {
		return def
	}
	if decoded, ok := def.VariantOf(raw); ok {
		return decoded
	}
	return def
}

// PutBool sets a bool preference value.
func (p *Preferences) PutBool(key types.Key, value bool) {
	p.checkKind(key, types.KindBool)
	p.putValue(key, types.KindBool, value, true)
}

// PutInt sets an int preference value.
func (p *Preferences) PutInt(key types.Key, value int) {
	p.checkKind(key, types.KindInt)
	p.putValue(key, types.KindInt, value, true)
}

// PutInt64 sets an int64 preference value.
func (p *Preferences) PutInt64(key types.Key, value int64) {
	p.checkKind(key, types.KindInt64)
	p.putValue(key, types.KindInt64, value, true)
}

// PutFloat64 sets a float64 preference value.
func (p *Preferences) PutFloat64(key types.Key, value float64) {
	p.checkKind(key, types.KindFloat64)
	p.putValue(key, types.KindFloat64, value, true)
}

// PutString sets a string preference value.
func (p *Preferences) PutString(key types.Key, value string) {
	p.checkKind(key, types.KindString)
	p.putValue(key, types.KindString, value, true)
}

// PutIntEnum sets an enum preference value, persisting its raw integer
// form. A nil value removes the entry.
func (p *Preferences) PutIntEnum(key types.Key, value types.IntEnum) {
	p.checkKind(key, types.KindIntEnum)
	if value == nil {
		p.removeValue(key, true)
		return
	}
	p.putValue(key, types.KindIntEnum, value.StorageValue(), true)
}

// PutStringEnum sets an enum preference value, persisting its raw string
// form. A nil value removes the entry.
func (p *Preferences) PutStringEnum(key types.Key, value types.StringEnum) {
	p.checkKind(key, types.KindStringEnum)
	if value == nil {
		p.removeValue(key, true)
		return
	}
	p.putValue(key, types.KindStringEnum, value.StorageValue(), true)
}

// Contains reports whether the key has an explicitly stored value.
func (p *Preferences) Contains(key types.Key) bool {
	_, ok := p.cached(key)
	return ok
}

// Remove deletes the preference so reads revert to the default value.
// It always enqueues a durable removal and always notifies.
func (p *Preferences) Remove(key types.Key) {
	p.removeValue(key, true)
}

func (p *Preferences) checkKind(key types.Key, want types.Kind) {
	if got := types.KindOf(key.DefaultValue()); got != want {
		panic(&types.KindError{Key: key, Want: want, Got: got})
	}
}

// defaultCached is the key's default value in cache representation —
// enum defaults reduce to their raw storage value, a nil string default
// reduces to "".
func defaultCached(key types.Key, kind types.Kind) any {
	def := key.DefaultValue()
	switch kind {
	case types.KindIntEnum:
		return def.(types.IntEnum).StorageValue()
	case types.KindStringEnum:
		return def.(types.StringEnum).StorageValue()
	case types.KindString:
		if def == nil {
			return ""
		}
	}
	return def
}

// sameValue is the changed-gate comparison. Floats compare by exact bit
// pattern, not epsilon, so NaN equals NaN and -0 differs from +0.
func sameValue(kind types.Kind, a, b any) bool {
	if kind == types.KindFloat64 {
		af, aok := a.(float64)
		bf, bok := b.(float64)
		if aok && bok {
			return math.Float64bits(af) == math.Float64bits(bf)
		}
	}
	return a == b
}
