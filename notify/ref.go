package notify

import "weak"

/*
This file defines how the notifier holds listeners without owning them.

A Ref is a liveness probe over a listener. The notifier never stores a
Listener directly — it stores Refs and resolves them on every traversal, so
a listener that has been garbage collected simply stops resolving and is
pruned on the next pass.

Two flavors exist:
- WeakRef: the runtime weak pointer; registration does not keep the
  listener alive. This is the default the facade expects.
- StrongRef: a plain reference for callers that manage listener lifetime
  explicitly and will call Unregister themselves.
*/

// Ref resolves to its listener, or reports false once the listener is gone.
type Ref interface {
	Listener() (Listener, bool)
}

// StrongRef wraps a listener in a reference that never expires.
// The listener must be a comparable type so identity checks work; in
// practice that means a pointer.
func StrongRef(l Listener) Ref {
	return strongRef{l: l}
}

type strongRef struct {
	l Listener
}

func (r strongRef) Listener() (Listener, bool) {
	return r.l, true
}

// WeakRef wraps a listener pointer in a reference that expires when the
// pointer is reclaimed. The compiler enforces that *L implements Listener.
func WeakRef[L any, PL interface {
	Listener
	*L
}](l PL) Ref {
	return weakRef[L]{ref: weak.Make((*L)(l))}
}

type weakRef[L any] struct {
	ref weak.Pointer[L]
}

func (r weakRef[L]) Listener() (Listener, bool) {
	p := r.ref.Value()
	if p == nil {
		return nil, false
	}
	return any(p).(Listener), true
}
