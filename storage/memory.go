package storage

import (
	"context"
	"maps"
	"sync"
)

// Memory is a Store kept entirely in process memory. It backs tests and
// short-lived tools that want the cache semantics without a file on disk.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]any
	subs   map[int]func(string)
	nextID int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]any),
		subs: make(map[int]func(string)),
	}
}

func (s *Memory) LoadAll(_ context.Context) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data), nil
}

func (s *Memory) Edit() Editor {
	return &memoryEditor{store: s}
}

// Subscribe registers a change callback. Commits made through this store's
// own editors are not echoed back; only Simulate* calls fire callbacks,
// standing in for an out-of-band writer.
func (s *Memory) Subscribe(onChange func(string)) (func(), error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = onChange
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

func (s *Memory) Close() error {
	s.mu.Lock()
	s.subs = make(map[int]func(string))
	s.mu.Unlock()
	return nil
}

// SimulatePut writes a value as if another process touched the backing
// store, then notifies subscribers.
func (s *Memory) SimulatePut(storageName string, value any) {
	s.mu.Lock()
	s.data[storageName] = value
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(storageName)
	}
}

// SimulateRemove removes an entry as an out-of-band writer would.
func (s *Memory) SimulateRemove(storageName string) {
	s.mu.Lock()
	delete(s.data, storageName)
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(storageName)
	}
}

func (s *Memory) snapshotSubs() []func(string) {
	out := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

type editOp struct {
	name   string
	value  any
	remove bool
}

type memoryEditor struct {
	store *Memory
	ops   []editOp
}

func (e *memoryEditor) PutValue(storageName string, value any) Editor {
	e.ops = append(e.ops, editOp{name: storageName, value: value})
	return e
}

func (e *memoryEditor) Remove(storageName string) Editor {
	e.ops = append(e.ops, editOp{name: storageName, remove: true})
	return e
}

func (e *memoryEditor) Commit() error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	for _, op := range e.ops {
		if op.remove {
			delete(e.store.data, op.name)
		} else {
			e.store.data[op.name] = op.value
		}
	}
	e.ops = e.ops[:0]
	return nil
}
