package storage

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

/*
File is a Store persisted as a single YAML document on disk.

Commits are atomic at the file level: the whole document is rewritten to a
temporary file and renamed into place, so readers never observe a torn
write. Out-of-band writers are observed with a filesystem watcher; the
store keeps a snapshot of the last content it saw and reports the names
whose values actually differ, so a watch event caused by this store's own
commit produces no callbacks.
*/
type File struct {
	path string

	mu       sync.Mutex
	snapshot map[string]any
	watchers []*fsnotify.Watcher
}

// NewFile creates a file store at path. The file does not need to exist
// yet; the parent directory is created if needed.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating preference directory: %w", err)
	}
	return &File{path: path, snapshot: make(map[string]any)}, nil
}

func (s *File) LoadAll(_ context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	s.snapshot = maps.Clone(data)
	return data, nil
}

func (s *File) Edit() Editor {
	return &fileEditor{store: s}
}

// Subscribe watches the backing file for out-of-band changes. The parent
// directory is watched rather than the file itself because atomic rename
// replaces the inode. Watcher errors end that subscription; the change
// feed is best-effort.
func (s *File) Subscribe(onChange func(string)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching preference directory: %w", err)
	}

	s.mu.Lock()
	s.watchers = append(s.watchers, watcher)
	s.mu.Unlock()

	base := filepath.Base(s.path)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				for _, name := range s.refreshDiff() {
					onChange(name)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() { watcher.Close() }, nil
}

func (s *File) Close() error {
	s.mu.Lock()
	watchers := s.watchers
	s.watchers = nil
	s.mu.Unlock()

	for _, w := range watchers {
		w.Close()
	}
	return nil
}

// refreshDiff reloads the file and returns the storage names whose values
// differ from the last snapshot, updating the snapshot as it goes.
func (s *File) refreshDiff() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readLocked()
	if err != nil {
		return nil
	}

	var changed []string
	for name, value := range current {
		if old, ok := s.snapshot[name]; !ok || !reflect.DeepEqual(old, value) {
			changed = append(changed, name)
		}
	}
	for name := range s.snapshot {
		if _, ok := current[name]; !ok {
			changed = append(changed, name)
		}
	}

	s.snapshot = current
	return changed
}

// readLocked loads the whole document. A missing file is an empty store.
func (s *File) readLocked() (map[string]any, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("reading preferences: %w", err)
	}

	data := make(map[string]any)
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding preferences: %w", err)
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}

// writeLocked rewrites the document atomically via temp file + rename.
func (s *File) writeLocked(data map[string]any) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing preferences: %w", err)
	}
	return nil
}

type fileEditor struct {
	store *File
	ops   []editOp
}

func (e *fileEditor) PutValue(storageName string, value any) Editor {
	e.ops = append(e.ops, editOp{name: storageName, value: value})
	return e
}

func (e *fileEditor) Remove(storageName string) Editor {
	e.ops = append(e.ops, editOp{name: storageName, remove: true})
	return e
}

// Commit applies the staged mutations with a read-modify-write of the whole
// document. The snapshot is updated in the same critical section so the
// watcher does not report this store's own writes.
func (e *fileEditor) Commit() error {
	s := e.store
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readLocked()
	if err != nil {
		return err
	}
	for _, op := range e.ops {
		if op.remove {
			delete(data, op.name)
		} else {
			data[op.name] = op.value
		}
	}
	if err := s.writeLocked(data); err != nil {
		return err
	}

	// Snapshot what a re-read would decode, not what was written, so the
	// watcher diff for this commit's own rename event comes up empty even
	// when the YAML round-trip changes a value's Go type.
	decoded, err := s.readLocked()
	if err != nil {
		return err
	}
	s.snapshot = decoded
	e.ops = e.ops[:0]
	return nil
}
