package types

import "fmt"

/*
Key is the contract for one preference entry.

A Key is pure metadata:
- A storage name, unique within one store
- A default value

The runtime type of the default value decides which accessor family is
allowed for the key (see Kind). The enumeration of concrete keys is static
and supplied by the caller, usually as a set of package-level values.
*/
type Key interface {

	// StorageName returns the name the preference is persisted under.
	// It must be unique per Key within a store.
	StorageName() string

	// DefaultValue returns the value reads fall back to when nothing has
	// been stored for the key. A nil default is treated as a string key.
	DefaultValue() any
}

/*
Kind is the closed set of value kinds a preference can hold.

Every Key belongs to exactly one kind, derived from its default value via
KindOf. Typed accessors check the kind at the boundary: calling GetBool on
an int key is a programming error, not a data condition.
*/
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindInt64
	KindFloat64
	KindString
	KindIntEnum
	KindStringEnum
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindIntEnum:
		return "int-enum"
	case KindStringEnum:
		return "string-enum"
	default:
		return "invalid"
	}
}

// KindOf derives the value kind from the runtime type of a default value.
// Enum strategies are checked first so an enum default is never mistaken
// for its raw storage type. A nil default means a string key.
func KindOf(defaultValue any) Kind {
	switch defaultValue.(type) {
	case IntEnum:
		return KindIntEnum
	case StringEnum:
		return KindStringEnum
	case bool:
		return KindBool
	case int:
		return KindInt
	case int64:
		return KindInt64
	case float64:
		return KindFloat64
	case string, nil:
		return KindString
	default:
		return KindInvalid
	}
}

/*
KindError reports a typed accessor used on a key of a different kind.

This signals a defect in the calling code, so the facade panics with a
*KindError instead of returning it. Tests can recover the panic and inspect
the fields.
*/
type KindError struct {
	Key  Key
	Want Kind
	Got  Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("preference %q is %s, not %s", e.Key.StorageName(), e.Got, e.Want)
}
