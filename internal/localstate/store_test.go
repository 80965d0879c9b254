package localstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStore(path)

	_, ok, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("a", "1"))
	require.NoError(t, store.Set("b", "2"))

	// a second handle on the same file sees the writes
	other := NewFileStore(path)
	v, ok, err := other.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, store.Delete("a"))
	_, ok, err = other.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete("never-set"))
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	store := NewFileStore(path)

	_, _, err := store.Get("a")
	assert.Error(t, err)

	// writing replaces the corrupt file
	require.NoError(t, store.Set("a", "1"))

	v, ok, err := store.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Set("k", "v"))
	v, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, store.Delete("k"))
	_, ok, _ = store.Get("k")
	assert.False(t, ok)
}
