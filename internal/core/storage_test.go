package core

import (
	"claimcore/internal/infra/persistence/jsonfile"
	"claimcore/internal/infra/persistence/memory"
	"claimcore/internal/infra/persistence/postgres"
	"claimcore/internal/infra/persistence/postgres/testutil"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpenPersistentStoreDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := OpenPersistentStore(ctx, StorageConfig{Driver: StorageMemory}, NewDefaultRulesEngine(), nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	assert.NoError(t, CloseStore(store))

	store, err = OpenPersistentStore(ctx, StorageConfig{JSONPath: filepath.Join(dir, "data.json")}, NewDefaultRulesEngine(), nil)
	require.NoError(t, err)
	js, ok := store.(*jsonfile.Store)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "data.json"), js.Path())

	_, err = OpenPersistentStore(ctx, StorageConfig{Driver: "floppy"}, NewDefaultRulesEngine(), nil)
	assert.EqualError(t, err, "unknown storage driver floppy")
}

func TestOpenPersistentStoreSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := StorageConfig{Driver: StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "claims.db")}
	store, err := OpenPersistentStore(ctx, cfg, NewDefaultRulesEngine(), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	id, err := NewService(store).RegisterPolicyholder(ctx, "Sqlite Holder", 50, "Vehicle", 5000)
	require.NoError(t, err)
	require.NoError(t, CloseStore(store))

	reopened, err := OpenPersistentStore(ctx, cfg, NewDefaultRulesEngine(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseStore(reopened) })
	holder, ok := reopened.GetPolicyholder(id)
	require.True(t, ok)
	assert.Equal(t, "Sqlite Holder", holder.Name)
}

func TestOpenPersistentStorePostgres(t *testing.T) {
	db, _ := testutil.NewStubDB()
	restore := postgres.OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)

	store, err := OpenPersistentStore(context.Background(), StorageConfig{Driver: StoragePostgres}, NewDefaultRulesEngine(), nil)
	require.NoError(t, err)
	assert.IsType(t, &postgres.Store{}, store)
	assert.NoError(t, CloseStore(store))
}

func TestOpenPersistentStoreMalformedSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	core, logs := observer.New(zap.WarnLevel)

	store, err := OpenPersistentStore(context.Background(), StorageConfig{Driver: StorageJSON, JSONPath: path}, NewDefaultRulesEngine(), zap.New(core))
	require.NoError(t, err)
	assert.Empty(t, store.ListPolicyholders())
	entries := logs.FilterMessage("snapshot unreadable, starting empty").All()
	require.Len(t, entries, 1)
	assert.Equal(t, path, entries[0].ContextMap()["source"])
}
