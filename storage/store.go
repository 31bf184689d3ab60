// Package storage defines the durable store contract the preference cache
// writes back to, plus the shipped adapters (memory, YAML file, SQLite).
// The persistence format is owned entirely by the adapter; the cache never
// sees it.
package storage

import "context"

/*
Store is the contract between the preference cache and durable storage.

The cache uses it three ways:
1. One bulk LoadAll at construction to hydrate the in-memory copy
2. One Editor per pending write job, committed by the write-back worker
3. Subscribe, to learn about changes made by writers other than this cache

Implementations must allow Edit/Commit from a goroutine other than the one
calling LoadAll. They do not need to coordinate multiple processes; an
adapter that can observe out-of-band writes (file watcher, polling) reports
them through Subscribe, one callback per changed storage name.
*/
type Store interface {

	// LoadAll returns every persisted entry, keyed by storage name.
	// The values carry whatever primitive types the adapter's decoder
	// produces; the cache normalizes them per key kind.
	LoadAll(ctx context.Context) (map[string]any, error)

	// Edit opens a mutation scope. Nothing is durable until Commit.
	Edit() Editor

	// Subscribe registers a callback invoked with the storage name of every
	// entry changed by another writer. The returned cancel function stops
	// delivery. Callbacks run on the adapter's goroutine.
	Subscribe(onChange func(storageName string)) (cancel func(), err error)

	// Close releases adapter resources. Pending subscriptions stop.
	Close() error
}

/*
Editor is one mutation scope over a Store.

Calls chain so a scope reads naturally:

	store.Edit().PutValue("counter", 5).Commit()

The write-back worker opens one Editor per job and commits synchronously
before taking the next job, which is what serializes durable mutations.
*/
type Editor interface {

	// PutValue stages a write of a raw storage value under the name.
	PutValue(storageName string, value any) Editor

	// Remove stages the removal of the named entry.
	Remove(storageName string) Editor

	// Commit applies the staged mutations durably.
	Commit() error
}
