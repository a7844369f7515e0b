package filestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tourstack/go-portal-client/session"
	"github.com/tourstack/go-portal-client/tokenstore/filestore"
)

func TestStore(t *testing.T) {
	pair := session.TokenPair{Access: "access-1", Refresh: "refresh-1"}

	t.Run("load on a fresh store is empty", func(t *testing.T) {
		store, err := filestore.New(t.TempDir())
		require.NoError(t, err)

		tokens, err := store.Load()
		require.NoError(t, err)
		require.True(t, tokens.Empty())
	})

	t.Run("save then load round-trips", func(t *testing.T) {
		store, err := filestore.New(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Save(pair))
		tokens, err := store.Load()
		require.NoError(t, err)
		require.Equal(t, pair, tokens)
	})

	t.Run("tokens survive reopening the store", func(t *testing.T) {
		dir := t.TempDir()
		store, err := filestore.New(dir)
		require.NoError(t, err)
		require.NoError(t, store.Save(pair))

		reopened, err := filestore.New(dir)
		require.NoError(t, err)
		tokens, err := reopened.Load()
		require.NoError(t, err)
		require.Equal(t, pair, tokens)
	})

	t.Run("tokens are not stored in the clear", func(t *testing.T) {
		dir := t.TempDir()
		store, err := filestore.New(dir)
		require.NoError(t, err)
		require.NoError(t, store.Save(pair))

		raw, err := os.ReadFile(filepath.Join(dir, "tokens.bin"))
		require.NoError(t, err)
		require.NotContains(t, string(raw), pair.Access)
		require.NotContains(t, string(raw), pair.Refresh)
	})

	t.Run("clear removes tokens and is idempotent", func(t *testing.T) {
		store, err := filestore.New(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, store.Save(pair))

		require.NoError(t, store.Clear())
		require.NoError(t, store.Clear())

		tokens, err := store.Load()
		require.NoError(t, err)
		require.True(t, tokens.Empty())
	})

	t.Run("tampered token file fails to load", func(t *testing.T) {
		dir := t.TempDir()
		store, err := filestore.New(dir)
		require.NoError(t, err)
		require.NoError(t, store.Save(pair))

		path := filepath.Join(dir, "tokens.bin")
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0xff
		require.NoError(t, os.WriteFile(path, raw, 0o600))

		_, err = store.Load()
		require.Error(t, err)
	})
}
