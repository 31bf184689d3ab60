package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEditorCommitsAtomically(t *testing.T) {
	store := NewMemory()

	require.NoError(t, store.Edit().
		PutValue("a", 1).
		PutValue("b", 2).
		Remove("a").
		Commit())

	all, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": 2}, all)
}

func TestMemorySimulateFiresSubscribers(t *testing.T) {
	store := NewMemory()

	var got []string
	cancel, err := store.Subscribe(func(name string) { got = append(got, name) })
	require.NoError(t, err)

	store.SimulatePut("x", 1)
	store.SimulateRemove("x")
	assert.Equal(t, []string{"x", "x"}, got)

	// own commits do not echo
	require.NoError(t, store.Edit().PutValue("y", 2).Commit())
	assert.Len(t, got, 2)

	cancel()
	store.SimulatePut("z", 3)
	assert.Len(t, got, 2)
}
