// Package config loads claimcore settings from an optional YAML file and
// CLAIMCORE_* environment variables.
package config

import (
	"claimcore/internal/blob"
	"claimcore/internal/core"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CLAIMCORE_STORAGE_DRIVER.
const EnvPrefix = "CLAIMCORE"

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	JSONPath    string `mapstructure:"json_path"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type ImportConfig struct {
	CSVPath string `mapstructure:"csv_path"`
}

type BlobConfig struct {
	Driver      string `mapstructure:"driver"`
	FSRoot      string `mapstructure:"fs_root"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3PathStyle bool   `mapstructure:"s3_path_style"`
}

type ArchiveConfig struct {
	Prefix string `mapstructure:"prefix"`
	Keep   int    `mapstructure:"keep"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the fully resolved application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Import  ImportConfig  `mapstructure:"import"`
	Blob    BlobConfig    `mapstructure:"blob"`
	Archive ArchiveConfig `mapstructure:"archive"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
}

var defaults = map[string]any{
	"storage.driver":       string(core.StorageJSON),
	"storage.json_path":    "data.json",
	"storage.sqlite_path":  "claimcore.db",
	"storage.postgres_dsn": "",
	"import.csv_path":      "",
	"blob.driver":          string(blob.DriverFilesystem),
	"blob.fs_root":         "./blobdata",
	"blob.s3_bucket":       "",
	"blob.s3_region":       "",
	"blob.s3_endpoint":     "",
	"blob.s3_path_style":   false,
	"archive.prefix":       "snapshots",
	"archive.keep":         0,
	"http.addr":            ":5000",
	"log.level":            "info",
}

// Load resolves configuration. Precedence: environment, then the file at
// path (when non-empty), then defaults. A named file that cannot be read is
// an error.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config to struct: %w", err)
	}
	if cfg.Archive.Keep < 0 {
		return Config{}, fmt.Errorf("archive.keep must be non-negative, got %d", cfg.Archive.Keep)
	}
	return cfg, nil
}

// StorageOptions converts the storage section for core.OpenPersistentStore.
func (c Config) StorageOptions() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		JSONPath:    c.Storage.JSONPath,
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
	}
}

// BlobOptions converts the blob section for blob.Open.
func (c Config) BlobOptions() blob.Config {
	return blob.Config{
		Driver:      c.Blob.Driver,
		FSRoot:      c.Blob.FSRoot,
		S3Bucket:    c.Blob.S3Bucket,
		S3Region:    c.Blob.S3Region,
		S3Endpoint:  c.Blob.S3Endpoint,
		S3PathStyle: c.Blob.S3PathStyle,
	}
}
