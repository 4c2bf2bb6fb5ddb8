package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateFreshArchive(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "backup.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Migrate(context.Background()))

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)

	var name string
	err = store.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'snapshots'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "snapshots", name)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "backup.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestNewSQLiteStoreCreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "backup.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Migrate(context.Background()))
}

func TestNewSQLiteStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.ErrorIs(t, err, ErrEmptyString)
}
