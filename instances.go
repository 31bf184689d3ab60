package prefkit

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

/*
This file provides the shared-instance registry.

A preference store is commonly held as one process-wide instance per store
name. The registry makes that explicit: construction happens exactly once
per name, concurrent first callers collapse onto a single construction, and
everyone gets the same *Preferences back.
*/

var (
	instMu    sync.Mutex
	instances = make(map[string]*Preferences)
	instGroup singleflight.Group
)

// Open returns the shared instance for name, constructing it with opener
// on first use. A failed construction is not cached; the next caller
// retries.
func Open(name string, opener func() (*Preferences, error)) (*Preferences, error) {
	instMu.Lock()
	if p, ok := instances[name]; ok {
		instMu.Unlock()
		return p, nil
	}
	instMu.Unlock()

	v, err, _ := instGroup.Do(name, func() (any, error) {
		// Re-check: another caller may have finished between the fast
		// path and joining the flight.
		instMu.Lock()
		if p, ok := instances[name]; ok {
			instMu.Unlock()
			return p, nil
		}
		instMu.Unlock()

		p, err := opener()
		if err != nil {
			return nil, err
		}

		instMu.Lock()
		instances[name] = p
		instMu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Preferences), nil
}

// CloseAll drains and forgets every shared instance. Meant for process
// shutdown and test cleanup.
func CloseAll() {
	instMu.Lock()
	open := instances
	instances = make(map[string]*Preferences)
	instMu.Unlock()

	for _, p := range open {
		p.Close()
	}
}
