package types

/*
This file defines how enum values are made safe to persist.

An enum is never stored as itself. It is stored as its raw storage
representation (an integer or a string) and decoded again on read. Each
enum type carries its own encode/decode strategy, so the cache does not
need to know anything about the concrete enum.

Decode can fail: a raw value written by an older or newer version of the
program may have no mapping. That is a data condition, not an error — reads
fall back to the key's default variant.
*/

// IntEnum is implemented by enum types persisted as integers.
// Any variant of the enum can decode any stored value, so the key's
// default variant doubles as the decoder.
type IntEnum interface {

	// StorageValue returns the integer persisted for this variant.
	StorageValue() int

	// VariantOf maps a stored integer back to a variant.
	// ok is false when the stored value has no mapping.
	VariantOf(stored int) (IntEnum, bool)
}

// StringEnum is implemented by enum types persisted as strings.
type StringEnum interface {

	// StorageValue returns the string persisted for this variant.
	StorageValue() string

	// VariantOf maps a stored string back to a variant.
	// ok is false when the stored value has no mapping.
	VariantOf(stored string) (StringEnum, bool)
}
