package localstate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorStoreRoundTrip(t *testing.T) {
	store := NewCursorStore(NewMemoryStore())

	assert.Nil(t, store.LoadCursorPosition())

	store.SaveCursorPosition(Position{X: 120, Y: 45.5})

	pos := store.LoadCursorPosition()
	require.NotNil(t, pos)
	assert.Equal(t, Position{X: 120, Y: 45.5}, *pos)
}

func TestCursorStoreCorruptData(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "{{"},
		{name: "null", raw: "null"},
		{name: "wrong shape", raw: `["x"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewMemoryStore()
			require.NoError(t, mem.Set(KeyCursorPosition, tt.raw))

			assert.Nil(t, NewCursorStore(mem).LoadCursorPosition())
		})
	}
}

func TestCursorStoreUnavailable(t *testing.T) {
	store := NewCursorStore(brokenStore{})

	store.SaveCursorPosition(Position{X: 1, Y: 1})
	assert.Nil(t, store.LoadCursorPosition())
}

func TestCursorStoreSkipsNonFinite(t *testing.T) {
	mem := NewMemoryStore()
	store := NewCursorStore(mem)

	store.SaveCursorPosition(Position{X: math.NaN(), Y: 1})

	_, ok, _ := mem.Get(KeyCursorPosition)
	assert.False(t, ok)
}

func TestSoundPreference(t *testing.T) {
	mem := NewMemoryStore()
	pref := NewSoundPreference(mem)

	assert.False(t, pref.Muted())

	pref.SetMuted(true)
	assert.True(t, pref.Muted())

	raw, _, _ := mem.Get(KeySoundMuted)
	assert.Equal(t, "true", raw)

	pref.SetMuted(false)
	assert.False(t, pref.Muted())

	require.NoError(t, mem.Set(KeySoundMuted, "maybe"))
	assert.False(t, pref.Muted())
}
