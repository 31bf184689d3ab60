package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupSQLiteStore creates a SQLite store in a temporary directory.
func setupSQLiteStore(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prefs.db")
	store, err := NewSQLite(path, WithPollInterval(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store, path
}

func TestSQLiteRoundTrip(t *testing.T) {
	store, _ := setupSQLiteStore(t)

	err := store.Edit().
		PutValue("enabled", true).
		PutValue("counter", 42).
		PutValue("ratio", 2.5).
		PutValue("label", "hello").
		Commit()
	require.NoError(t, err)

	all, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, all["enabled"])
	assert.Equal(t, int64(42), all["counter"]) // integers come back as int64
	assert.Equal(t, 2.5, all["ratio"])
	assert.Equal(t, "hello", all["label"])
}

func TestSQLiteUpsertOverwrites(t *testing.T) {
	store, _ := setupSQLiteStore(t)

	require.NoError(t, store.Edit().PutValue("counter", 1).Commit())
	require.NoError(t, store.Edit().PutValue("counter", 2).Commit())

	all, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), all["counter"])
}

func TestSQLiteRemove(t *testing.T) {
	store, _ := setupSQLiteStore(t)

	require.NoError(t, store.Edit().PutValue("gone", "x").Commit())
	require.NoError(t, store.Edit().Remove("gone").Commit())

	all, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, all, "gone")
}

func TestSQLiteRejectsUnsupportedValueType(t *testing.T) {
	store, _ := setupSQLiteStore(t)

	err := store.Edit().PutValue("weird", []string{"no"}).Commit()
	require.Error(t, err)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	store, path := setupSQLiteStore(t)
	require.NoError(t, store.Edit().PutValue("counter", 5).Commit())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), all["counter"])
}

func TestSQLitePollingSeesExternalWrite(t *testing.T) {
	store, path := setupSQLiteStore(t)

	_, err := store.LoadAll(context.Background()) // prime the snapshot
	require.NoError(t, err)

	events := make(chan string, 8)
	cancel, err := store.Subscribe(func(name string) { events <- name })
	require.NoError(t, err)
	defer cancel()

	// a second handle onto the same database stands in for another writer
	other, err := NewSQLite(path)
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Edit().PutValue("counter", 9).Commit())

	select {
	case name := <-events:
		assert.Equal(t, "counter", name)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event for external write")
	}
}

func TestSQLiteCancelThenCloseIsSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	store, err := NewSQLite(path)
	require.NoError(t, err)

	cancel, err := store.Subscribe(func(string) {})
	require.NoError(t, err)

	// the documented shutdown order: the facade cancels its subscription,
	// then the owning caller closes the store
	cancel()
	cancel() // idempotent
	require.NoError(t, store.Close())
}

func TestSQLiteCancelAfterCloseIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	store, err := NewSQLite(path)
	require.NoError(t, err)

	cancel, err := store.Subscribe(func(string) {})
	require.NoError(t, err)

	require.NoError(t, store.Close())
	cancel()
}

func TestSQLitePollingIgnoresOwnCommits(t *testing.T) {
	store, _ := setupSQLiteStore(t)

	_, err := store.LoadAll(context.Background())
	require.NoError(t, err)

	events := make(chan string, 8)
	cancel, err := store.Subscribe(func(name string) { events <- name })
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, store.Edit().PutValue("own", 1).Commit())

	select {
	case name := <-events:
		t.Fatalf("own commit echoed back as change event for %q", name)
	case <-time.After(300 * time.Millisecond):
		// no echo, as intended
	}
}
