// Package prefkit is an in-memory cache over a durable key-value preference
// store. Reads are synchronous and type-checked against a memory-resident
// copy; writes update the copy immediately and reach durable storage
// asynchronously through a single ordered write-back lane. Change events fan
// out to weakly-held listeners.
package prefkit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prefkit/prefkit/notify"
	"github.com/prefkit/prefkit/storage"
	"github.com/prefkit/prefkit/types"
	"github.com/prefkit/prefkit/writeback"
)

/*
Preferences is the orchestrator that connects:
- the typed value cache (the authoritative in-memory copy)
- the durable store the cache was hydrated from
- the write-back worker that trails behind mutations
- the change notifier

Construction hydrates the cache fully before returning; every accessor is
safe to call afterwards. Mutations are expected to come from one owning
goroutine (typically the application's main context). The store's change
feed is the one extra writer the facade tolerates, which is why the cache
map carries its own lock.
*/
type Preferences struct {
	store   storage.Store
	mapping types.KeyMapping
	logger  *slog.Logger
	metrics types.Metrics

	mu     sync.RWMutex
	values map[types.Key]any

	worker      *writeback.Worker
	notifier    *notify.Notifier
	unsubscribe func()
}

// Option configures a Preferences instance.
type Option func(*Preferences)

// WithLogger routes the facade's and worker's log output through logger.
// The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Preferences) { p.logger = logger }
}

// WithMetrics wires a metrics sink into the worker and notifier.
func WithMetrics(metrics types.Metrics) Option {
	return func(p *Preferences) { p.metrics = metrics }
}

/*
New builds a Preferences over the store and hydrates it.

Hydration order matters:
1. Subscribe to the store's native change feed, so no out-of-band write
   slips between the bulk load and the subscription.
2. Bulk-load every persisted entry, map its storage name onto the static
   key universe, and coerce the raw value to the key's kind. Names with no
   mapping and values that cannot represent the kind are logged and
   dropped, never fatal.
3. Start the write-back worker.
*/
func New(ctx context.Context, store storage.Store, mapping types.KeyMapping, opts ...Option) (*Preferences, error) {
	p := &Preferences{
		store:   store,
		mapping: mapping,
		logger:  slog.Default(),
		metrics: types.NoopMetrics{},
		values:  make(map[types.Key]any),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.notifier = notify.NewNotifier(p.metrics)
	p.worker = writeback.NewWorker(store, p.logger, p.metrics)

	unsubscribe, err := store.Subscribe(p.onStoreChanged)
	if err != nil {
		p.worker.Close()
		return nil, fmt.Errorf("subscribing to preference store: %w", err)
	}
	p.unsubscribe = unsubscribe

	all, err := store.LoadAll(ctx)
	if err != nil {
		p.unsubscribe()
		p.worker.Close()
		return nil, fmt.Errorf("hydrating preferences: %w", err)
	}

	p.mu.Lock()
	for name, raw := range all {
		key, ok := mapping.StorageToKey(name)
		if !ok {
			p.logger.Warn("unknown preference key", "name", name)
			continue
		}
		kind := types.KindOf(key.DefaultValue())
		value, ok := types.Coerce(kind, raw)
		if !ok {
			p.logger.Warn("undecodable preference value",
				"name", name, "kind", kind, "type", fmt.Sprintf("%T", raw))
			continue
		}
		p.values[key] = value
	}
	p.mu.Unlock()

	return p, nil
}

// Close stops the store change subscription and drains every pending
// write-back job. The store itself stays open; the caller owns it.
func (p *Preferences) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.worker.Close()
}

// RegisterChangeListener adds a listener reference, invoking it once per
// initial key before it joins the list. See notify.Notifier.Register.
func (p *Preferences) RegisterChangeListener(ref notify.Ref, initialKeys ...types.Key) {
	p.notifier.Register(ref, initialKeys...)
}

// UnregisterChangeListener removes the listener. Absent listeners are a
// no-op.
func (p *Preferences) UnregisterChangeListener(listener notify.Listener) {
	p.notifier.Unregister(listener)
}

/*
onStoreChanged handles a native change event from the durable store —
another writer touched the backing store out-of-band.

The new value is re-read, decoded according to the key's declared kind, and
routed through the same put/remove path local mutations use, so cache state
and notifications stay consistent no matter where a change originated. The
one difference: the write-back enqueue is suppressed, because the store
already holds the value.
*/
func (p *Preferences) onStoreChanged(storageName string) {
	key, ok := p.mapping.StorageToKey(storageName)
	if !ok {
		p.logger.Warn("unknown preference key", "name", storageName)
		return
	}

	all, err := p.store.LoadAll(context.Background())
	if err != nil {
		p.logger.Error("reloading preferences after store change", "error", err)
		return
	}

	raw, present := all[storageName]
	if !present {
		p.removeValue(key, false)
		return
	}

	kind := types.KindOf(key.DefaultValue())
	value, ok := types.Coerce(kind, raw)
	if !ok {
		p.logger.Warn("undecodable preference value",
			"name", storageName, "kind", kind, "type", fmt.Sprintf("%T", raw))
		return
	}
	p.putValue(key, kind, value, false)
}

// putValue writes one cache entry. enqueue is false for store-originated
// changes, which must not be written back to the store they came from.
// The changed-comparison gates both the job and the notification, so
// idempotent writes cost nothing downstream.
func (p *Preferences) putValue(key types.Key, kind types.Kind, value any, enqueue bool) {
	p.mu.Lock()
	prev, had := p.values[key]
	p.values[key] = value
	p.mu.Unlock()

	if !had {
		prev = defaultCached(key, kind)
	}
	if sameValue(kind, prev, value) {
		return
	}

	if enqueue {
		p.worker.Enqueue(writeback.Job{Name: key.StorageName(), Value: value})
	}
	p.notifier.Notify(key)
}

// removeValue deletes one cache entry. Removal has no no-op short-circuit:
// it always propagates and always notifies, even when no entry existed.
func (p *Preferences) removeValue(key types.Key, enqueue bool) {
	p.mu.Lock()
	delete(p.values, key)
	p.mu.Unlock()

	if enqueue {
		p.worker.Enqueue(writeback.Job{Name: key.StorageName(), Remove: true})
	}
	p.notifier.Notify(key)
}

// cached returns the raw cache entry for key.
func (p *Preferences) cached(key types.Key) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	return v, ok
}
