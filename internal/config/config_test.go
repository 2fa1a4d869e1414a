package config

import (
	"claimcore/internal/blob"
	"claimcore/internal/core"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Storage.Driver)
	assert.Equal(t, "data.json", cfg.Storage.JSONPath)
	assert.Equal(t, "claimcore.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "fs", cfg.Blob.Driver)
	assert.Equal(t, "./blobdata", cfg.Blob.FSRoot)
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "snapshots", cfg.Archive.Prefix)
	assert.Empty(t, cfg.Import.CSVPath)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claimcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: sqlite
  sqlite_path: /var/lib/claimcore/state.db
blob:
  driver: s3
  s3_bucket: claims
  s3_path_style: true
http:
  addr: ":8080"
`), 0o600))
	t.Setenv("CLAIMCORE_HTTP_ADDR", ":9090")
	t.Setenv("CLAIMCORE_IMPORT_CSV_PATH", "Insurance_auto_data.csv")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "Insurance_auto_data.csv", cfg.Import.CSVPath)

	assert.Equal(t, core.StorageConfig{Driver: core.StorageSQLite, JSONPath: "data.json", SQLitePath: "/var/lib/claimcore/state.db"}, cfg.StorageOptions())
	assert.Equal(t, blob.Config{Driver: "s3", FSRoot: "./blobdata", S3Bucket: "claims", S3PathStyle: true}, cfg.BlobOptions())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsNegativeKeep(t *testing.T) {
	t.Setenv("CLAIMCORE_ARCHIVE_KEEP", "-2")
	_, err := Load("")
	assert.Error(t, err)
}
