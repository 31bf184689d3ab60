package storage

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Row kinds. SQLite's dynamic typing is avoided on purpose: the kind
// column makes decode unambiguous regardless of what wrote the row.
const (
	rowBool   = "b"
	rowInt    = "i"
	rowFloat  = "f"
	rowString = "s"
)

/*
SQLite is a Store backed by a single-table SQLite database.

SQLite offers no native change notification, so out-of-band writers are
observed by polling: Subscribe re-reads the table on an interval and diffs
against the last snapshot. The same snapshot keeps this store's own commits
out of the change feed.
*/
type SQLite struct {
	db           *sql.DB
	path         string
	pollInterval time.Duration

	mu       sync.Mutex
	snapshot map[string]any
	stop     map[int]chan struct{}
	nextID   int
}

// SQLiteOption configures a SQLite store.
type SQLiteOption func(*SQLite)

// WithPollInterval sets how often Subscribe re-reads the table looking for
// out-of-band changes. The default is one second.
func WithPollInterval(d time.Duration) SQLiteOption {
	return func(s *SQLite) { s.pollInterval = d }
}

// NewSQLite opens (or creates) the preference database at path.
func NewSQLite(path string, opts ...SQLiteOption) (*SQLite, error) {
	// WAL mode so the write-back worker's commits never block readers.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening preference database: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS preferences (
		name  TEXT PRIMARY KEY,
		kind  TEXT NOT NULL,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating preference table: %w", err)
	}

	s := &SQLite{
		db:           db,
		path:         path,
		pollInterval: time.Second,
		snapshot:     make(map[string]any),
		stop:         make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLite) LoadAll(ctx context.Context) (map[string]any, error) {
	data, err := s.queryAll(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = maps.Clone(data)
	s.mu.Unlock()
	return data, nil
}

func (s *SQLite) Edit() Editor {
	return &sqliteEditor{store: s}
}

// Subscribe polls the table for changes made by other writers.
func (s *SQLite) Subscribe(onChange func(string)) (func(), error) {
	stop := make(chan struct{})

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.stop[id] = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				for _, name := range s.refreshDiff() {
					onChange(name)
				}
			}
		}
	}()

	// Each channel has exactly one closer: cancel if the entry is still
	// subscribed, Close otherwise. Cancel after Close is a no-op.
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if ch, ok := s.stop[id]; ok {
			close(ch)
			delete(s.stop, id)
		}
	}, nil
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	for id, stop := range s.stop {
		close(stop)
		delete(s.stop, id)
	}
	s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLite) refreshDiff() []string {
	current, err := s.queryAll(context.Background())
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []string
	for name, value := range current {
		if old, ok := s.snapshot[name]; !ok || old != value {
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

func (s *SQLite) queryAll(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, kind, value FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	defer rows.Close()

	data := make(map[string]any)
	for rows.Next() {
		var name, kind, value string
		if err := rows.Scan(&name, &kind, &value); err != nil {
			return nil, fmt.Errorf("scanning preference row: %w", err)
		}
		decoded, err := decodeRow(kind, value)
		if err != nil {
			return nil, fmt.Errorf("decoding preference %q: %w", name, err)
		}
		data[name] = decoded
	}
	return data, rows.Err()
}

func decodeRow(kind, value string) (any, error) {
	switch kind {
	case rowBool:
		return value == "1", nil
	case rowInt:
		return strconv.ParseInt(value, 10, 64)
	case rowFloat:
		return strconv.ParseFloat(value, 64)
	case rowString:
		return value, nil
	}
	return nil, fmt.Errorf("unknown row kind %q", kind)
}

func encodeRow(v any) (kind, value string, err error) {
	switch v := v.(type) {
	case bool:
		if v {
			return rowBool, "1", nil
		}
		return rowBool, "0", nil
	case int:
		return rowInt, strconv.FormatInt(int64(v), 10), nil
	case int64:
		return rowInt, strconv.FormatInt(v, 10), nil
	case float64:
		return rowFloat, strconv.FormatFloat(v, 'g', -1, 64), nil
	case string:
		return rowString, v, nil
	}
	return "", "", fmt.Errorf("unsupported value type %T", v)
}

type sqliteEditor struct {
	store *SQLite
	ops   []editOp
}

func (e *sqliteEditor) PutValue(storageName string, value any) Editor {
	e.ops = append(e.ops, editOp{name: storageName, value: value})
	return e
}

func (e *sqliteEditor) Remove(storageName string) Editor {
	e.ops = append(e.ops, editOp{name: storageName, remove: true})
	return e
}

func (e *sqliteEditor) Commit() error {
	s := e.store

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("opening preference transaction: %w", err)
	}
	for _, op := range e.ops {
		if op.remove {
			_, err = tx.Exec(`DELETE FROM preferences WHERE name = ?`, op.name)
		} else {
			var kind, value string
			kind, value, err = encodeRow(op.value)
			if err == nil {
				_, err = tx.Exec(
					`INSERT INTO preferences (name, kind, value) VALUES (?, ?, ?)
					 ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, value = excluded.value`,
					op.name, kind, value)
			}
		}
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("staging preference %q: %w", op.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing preferences: %w", err)
	}

	// Keep our own writes out of the poll diff. The snapshot holds decoded
	// row values, so normalize through the row codec.
	s.mu.Lock()
	for _, op := range e.ops {
		if op.remove {
			delete(s.snapshot, op.name)
			continue
		}
		if kind, value, err := encodeRow(op.value); err == nil {
			if decoded, err := decodeRow(kind, value); err == nil {
				s.snapshot[op.name] = decoded
			}
		}
	}
	s.mu.Unlock()

	e.ops = e.ops[:0]
	return nil
}
