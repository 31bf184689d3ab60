// Package notify fans preference-change events out to registered listeners
// without extending listener lifetimes.
package notify

import (
	"sync"
	"sync/atomic"

	"github.com/prefkit/prefkit/types"
)

// Listener receives change events for individual preference keys.
// Invocations happen synchronously on the goroutine that mutated the
// preference, after the cache update is visible and before the matching
// write job is guaranteed durable.
type Listener interface {
	PreferenceChanged(key types.Key)
}

/*
Notifier maintains an ordered list of listener references.

The list uses the same copy-on-write technique as the rest of the system's
hot paths:
- Notify reads an immutable snapshot, lock-free
- Register/Unregister build a new slice under a mutex and swap it atomically

So notification iteration is never corrupted by concurrent registration; at
worst an in-flight Notify misses (or still sees) a listener that was
registered or removed mid-iteration. Notification is best-effort, so that
is acceptable.

References whose listener has been reclaimed are pruned lazily, whenever
the list is traversed — a listener never has to unregister for correctness.
*/
type Notifier struct {
	mu      sync.Mutex   // serializes list mutation
	list    atomic.Value // holds []Ref, the immutable snapshot
	metrics types.Metrics
}

// NewNotifier creates an empty notifier.
func NewNotifier(metrics types.Metrics) *Notifier {
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	n := &Notifier{metrics: metrics}
	n.list.Store([]Ref{})
	return n
}

func (n *Notifier) snapshot() []Ref {
	return n.list.Load().([]Ref)
}

/*
Register adds a listener reference.

If initialKeys are given, the listener is invoked once per key BEFORE it
joins the list, so it is primed with current state without depending on
list order. Registration is idempotent per listener identity: an equal live
listener already present is not added twice.
*/
func (n *Notifier) Register(ref Ref, initialKeys ...types.Key) {
	listener, ok := ref.Listener()
	if !ok {
		return
	}
	for _, key := range initialKeys {
		listener.PreferenceChanged(key)
		n.metrics.Notified()
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	old := n.snapshot()
	next := make([]Ref, 0, len(old)+1)
	found := false
	for _, r := range old {
		existing, live := r.Listener()
		if !live {
			n.metrics.Pruned()
			continue
		}
		next = append(next, r)
		if existing == listener {
			found = true
		}
	}
	if !found {
		next = append(next, ref)
	}
	n.list.Store(next)
}

// Unregister removes every live entry matching the listener by identity.
// Unregistering a listener that is absent (or already reclaimed) is a no-op.
func (n *Notifier) Unregister(listener Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()

	old := n.snapshot()
	next := make([]Ref, 0, len(old))
	for _, r := range old {
		existing, live := r.Listener()
		if !live {
			n.metrics.Pruned()
			continue
		}
		if existing == listener {
			continue
		}
		next = append(next, r)
	}
	n.list.Store(next)
}

// Notify invokes every live listener with the key, in insertion order, on
// the calling goroutine. Reclaimed references are skipped and then pruned.
func (n *Notifier) Notify(key types.Key) {
	var dead bool
	for _, r := range n.snapshot() {
		listener, live := r.Listener()
		if !live {
			dead = true
			continue
		}
		listener.PreferenceChanged(key)
		n.metrics.Notified()
	}
	if dead {
		n.prune()
	}
}

// Len reports the number of registrations still held, dead or alive.
func (n *Notifier) Len() int {
	return len(n.snapshot())
}

func (n *Notifier) prune() {
	n.mu.Lock()
	defer n.mu.Unlock()

	old := n.snapshot()
	next := make([]Ref, 0, len(old))
	for _, r := range old {
		if _, live := r.Listener(); !live {
			n.metrics.Pruned()
			continue
		}
		next = append(next, r)
	}
	n.list.Store(next)
}
