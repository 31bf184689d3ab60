package types

import "testing"

type testKey struct {
	name string
	def  any
}

func (k testKey) StorageName() string { return k.name }
func (k testKey) DefaultValue() any   { return k.def }

type shade int

const (
	light shade = iota
	dark
)

func (s shade) StorageValue() int { return int(s) }

func (s shade) VariantOf(stored int) (IntEnum, bool) {
	if stored < 0 || stored > int(dark) {
		return nil, false
	}
	return shade(stored), true
}

type tone string

func (t tone) StorageValue() string { return string(t) }

func (t tone) VariantOf(stored string) (StringEnum, bool) {
	if stored == "warm" || stored == "cold" {
		return tone(stored), true
	}
	return nil, false
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		def  any
		want Kind
	}{
		{true, KindBool},
		{0, KindInt},
		{int64(0), KindInt64},
		{1.5, KindFloat64},
		{"x", KindString},
		{nil, KindString}, // nil default means a string key
		{light, KindIntEnum},
		{tone("warm"), KindStringEnum},
		{[]string{}, KindInvalid},
	}

	for _, c := range cases {
		if got := KindOf(c.def); got != c.want {
			t.Fatalf("KindOf(%v): got %v, want %v", c.def, got, c.want)
		}
	}
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		kind Kind
		raw  any
		want any
		ok   bool
	}{
		{KindBool, true, true, true},
		{KindBool, 1, nil, false},

		{KindInt, 5, 5, true},
		{KindInt, int64(5), 5, true},
		{KindInt, 5.0, 5, true}, // integral float round-trips
		{KindInt, 5.5, nil, false},

		{KindInt64, 5, int64(5), true},
		{KindInt64, int64(1 << 40), int64(1 << 40), true},

		{KindFloat64, 2.5, 2.5, true},
		{KindFloat64, 2, 2.0, true},
		{KindFloat64, "x", nil, false},

		{KindString, "x", "x", true},
		{KindString, 1, nil, false},

		{KindIntEnum, 1, 1, true},
		{KindStringEnum, "warm", "warm", true},
	}

	for _, c := range cases {
		got, ok := Coerce(c.kind, c.raw)
		if ok != c.ok {
			t.Fatalf("Coerce(%v, %v): ok=%v, want %v", c.kind, c.raw, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("Coerce(%v, %v): got %v (%T), want %v (%T)", c.kind, c.raw, got, got, c.want, c.want)
		}
	}
}

func TestKindErrorMessage(t *testing.T) {
	err := &KindError{
		Key:  testKey{"counter", 0},
		Want: KindBool,
		Got:  KindInt,
	}
	want := `preference "counter" is int, not bool`
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
