package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := OpenState(path)
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyAuthToken, "tok-123"))
	require.NoError(t, store.Set(KeyIsTracking, true))

	// Re-open from disk and read everything back
	reloaded, err := OpenState(path)
	require.NoError(t, err)

	token, ok := reloaded.GetString(KeyAuthToken)
	assert.True(t, ok)
	assert.Equal(t, "tok-123", token)
	assert.True(t, reloaded.GetBool(KeyIsTracking))
}

func TestStateStoreMissingFile(t *testing.T) {
	store, err := OpenState(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	_, ok := store.GetString(KeyAuthToken)
	assert.False(t, ok)
	assert.False(t, store.GetBool(KeyIsTracking))
}

func TestStateStoreDeleteClearsEveryKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := OpenState(path)
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyAuthToken, "tok"))
	require.NoError(t, store.Set(KeyCurrentJourney, map[string]any{"id": 7}))
	require.NoError(t, store.Set(KeyIsTracking, true))
	require.NoError(t, store.Set(KeyLegacyActiveJourney, "old-format"))

	require.NoError(t, store.Delete(AllStateKeys...))

	// Verify by re-reading each key, as the logout path requires
	for _, key := range AllStateKeys {
		assert.False(t, store.Has(key), "key %q should be cleared", key)
	}

	reloaded, err := OpenState(path)
	require.NoError(t, err)
	for _, key := range AllStateKeys {
		assert.False(t, reloaded.Has(key), "key %q should be cleared on disk", key)
	}
}
