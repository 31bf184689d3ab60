package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// setupFileStore creates a file store in a temporary directory.
func setupFileStore(t *testing.T) (*File, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prefs.yaml")
	store, err := NewFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store, path
}

func TestFileMissingFileIsEmptyStore(t *testing.T) {
	store, _ := setupFileStore(t)

	all, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileRoundTrip(t *testing.T) {
	store, _ := setupFileStore(t)

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
	assert.Equal(t, 42, all["counter"])
	assert.Equal(t, 2.5, all["ratio"])
	assert.Equal(t, "hello", all["label"])
}

func TestFileRemove(t *testing.T) {
	store, _ := setupFileStore(t)

	require.NoError(t, store.Edit().PutValue("gone", 1).Commit())
	require.NoError(t, store.Edit().Remove("gone").Commit())

	all, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, all, "gone")
}

func TestFileCommitSurvivesReopen(t *testing.T) {
	store, path := setupFileStore(t)
	require.NoError(t, store.Edit().PutValue("counter", 5).Commit())

	reopened, err := NewFile(path)
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, all["counter"])
}

func TestFileSubscribeSeesExternalWrite(t *testing.T) {
	store, path := setupFileStore(t)

	_, err := store.LoadAll(context.Background()) // prime the snapshot
	require.NoError(t, err)

	events := make(chan string, 8)
	cancel, err := store.Subscribe(func(name string) { events <- name })
	require.NoError(t, err)
	defer cancel()

	// another writer replaces the document out-of-band
	raw, err := yaml.Marshal(map[string]any{"counter": 9})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	select {
	case name := <-events:
		assert.Equal(t, "counter", name)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event for external write")
	}
}

func TestFileSubscribeSeesExternalDelete(t *testing.T) {
	store, path := setupFileStore(t)

	require.NoError(t, store.Edit().PutValue("counter", 9).Commit())

	events := make(chan string, 8)
	cancel, err := store.Subscribe(func(name string) { events <- name })
	require.NoError(t, err)
	defer cancel()

	// another writer deletes the whole document; every entry is gone
	require.NoError(t, os.Remove(path))

	select {
	case name := <-events:
		assert.Equal(t, "counter", name)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event for external delete")
	}
}

func TestFileSubscribeIgnoresOwnCommits(t *testing.T) {
	store, _ := setupFileStore(t)

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
	case <-time.After(500 * time.Millisecond):
		// no echo, as intended
	}
}
