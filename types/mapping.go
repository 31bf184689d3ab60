package types

/*
KeyMapping resolves a raw storage name back to its Key.

It is consumed in two places:
- during hydration, to map every persisted entry onto the static key set
- when the durable store reports an out-of-band change by name

The mapping must be a total, side-effect-free lookup over the static key
universe. Names with no mapping are logged and dropped by the facade, never
treated as fatal.
*/
type KeyMapping interface {
	StorageToKey(storageName string) (Key, bool)
}

// KeyMappingFunc adapts a plain function to a KeyMapping.
type KeyMappingFunc func(storageName string) (Key, bool)

func (f KeyMappingFunc) StorageToKey(storageName string) (Key, bool) {
	return f(storageName)
}

// MapOf builds a KeyMapping from a static list of keys.
// Later keys win if two share a storage name, which the contract forbids.
func MapOf(keys ...Key) KeyMapping {
	byName := make(map[string]Key, len(keys))
	for _, k := range keys {
		byName[k.StorageName()] = k
	}
	return KeyMappingFunc(func(storageName string) (Key, bool) {
		k, ok := byName[storageName]
		return k, ok
	})
}
