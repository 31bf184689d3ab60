package api

import (
	"github.com/prefkit/prefkit/notify"
	"github.com/prefkit/prefkit/types"
)

/*
Preferences defines the PUBLIC API of the preference system.
This is a contract that guarantees certain behaviors without exposing
internals. All of the details (hydration, write-back ordering, listener
liveness, storage format) are hidden behind this interface.
*/
type Preferences interface {

	/*
		Typed getters.

		BEHAVIOR:
		---------
		1. If the key has a cached value, return it — no storage I/O, ever.
		2. Otherwise return the key's default value.

		Calling a getter whose type does not match the key's declared
		default type is a programming error: the call panics with a
		*types.KindError.

		The enum getters decode the raw stored representation through the
		key's own enum strategy. A raw value with no mapping falls back to
		the default variant instead of failing.
	*/
	GetBool(key types.Key) bool
	GetInt(key types.Key) int
	GetInt64(key types.Key) int64
	GetFloat64(key types.Key) float64
	GetString(key types.Key) string
	GetIntEnum(key types.Key) types.IntEnum
	GetStringEnum(key types.Key) types.StringEnum

	/*
		Typed setters.

		BEHAVIOR:
		---------
		- Update the in-memory cache synchronously
		- If the value actually changed (compared to the cached-or-default
		  value): enqueue exactly one durable write job and fire exactly
		  one change notification
		- Idempotent writes are absorbed — no job, no notification

		Setters never block on storage I/O; durability lags by a finite
		but unspecified delay.

		The enum setters persist the raw storage value. A nil enum value
		removes the entry, reverting reads to the default.
	*/
	PutBool(key types.Key, value bool)
	PutInt(key types.Key, value int)
	PutInt64(key types.Key, value int64)
	PutFloat64(key types.Key, value float64)
	PutString(key types.Key, value string)
	PutIntEnum(key types.Key, value types.IntEnum)
	PutStringEnum(key types.Key, value types.StringEnum)

	/*
		Contains reports whether the key has an explicitly stored value.
		A false result means reads return the default.
	*/
	Contains(key types.Key) bool

	/*
		Remove deletes the cached entry so reads revert to the default.

		Removal is always observable: it always enqueues a durable removal
		and always notifies, even when no entry existed.
	*/
	Remove(key types.Key)

	/*
		Listener registration.

		Listeners are held through notify.Ref liveness probes, so a
		listener registered via notify.WeakRef never has to unregister —
		it is pruned lazily once collected. If initialKeys are given, the
		listener is invoked once per key before joining the list.
		Unregistering an absent listener is a no-op.
	*/
	RegisterChangeListener(ref notify.Ref, initialKeys ...types.Key)
	UnregisterChangeListener(listener notify.Listener)

	/*
		Close stops the change subscription and drains pending write-back
		jobs. The durable store itself stays open — the caller owns it.
	*/
	Close()
}
