package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(Options{Path: dbPath})
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestStore_RegisterUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	t.Run("register new alias", func(t *testing.T) {
		require.NoError(t, store.RegisterUser(ctx, "alice"))
		assert.True(t, store.IsRegistered("alice"))
	})

	t.Run("register is idempotent", func(t *testing.T) {
		require.NoError(t, store.RegisterUser(ctx, "bob"))
		require.NoError(t, store.RegisterUser(ctx, "bob"))

		count := 0
		for _, u := range store.ListUsers() {
			if u.ID == "bob" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("unknown alias", func(t *testing.T) {
		assert.False(t, store.IsRegistered("nobody"))
	})
}

func TestStore_ListUsers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	assert.Empty(t, store.ListUsers())

	store.RegisterUser(ctx, "u1")
	store.RegisterUser(ctx, "u2")

	users := store.ListUsers()
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.NotEmpty(t, u.ID)
		assert.False(t, u.RegisteredAt.IsZero())
	}
}

func TestOpen_ReadOnly(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "ro.db")

	store, err := Open(Options{Path: dbPath})
	require.NoError(t, err)
	require.NoError(t, store.RegisterUser(context.Background(), "alice"))
	require.NoError(t, store.Close())

	ro, err := Open(Options{Path: dbPath, ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()

	assert.True(t, ro.IsRegistered("alice"))
	assert.Error(t, ro.RegisterUser(context.Background(), "bob"))
}
