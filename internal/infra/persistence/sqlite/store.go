// Package sqlite persists the in-memory store to an embedded SQLite database,
// one JSON payload per bucket, rewritten after every committed transaction.
package sqlite

import (
	"claimcore/internal/infra/persistence/memory"
	"claimcore/pkg/domain"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	bucketPolicyholders = "policyholders"
	bucketClaims        = "claims"
)

var sqliteBuckets = []string{bucketPolicyholders, bucketClaims}

// goose keeps its configuration in package globals.
var migrateMu sync.Mutex

// Store persists the in-memory state to a single SQLite table as JSON blobs.
// Every commit upserts the full state before it becomes visible in memory.
type Store struct {
	*memory.Store
	db   *sqlx.DB
	path string
}

// NewStore opens (creating if needed) the database at path and applies the
// embedded migrations. Call Load to hydrate the in-memory state.
func NewStore(path string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if path == "" {
		path = "claimcore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db, path: path}
	s.Store = memory.NewStore(engine, append(opts[:len(opts):len(opts)], memory.WithPersist(s.persist))...)
	return s, nil
}

func migrate(db *sqlx.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

type stateRow struct {
	Bucket  string `db:"bucket"`
	Payload []byte `db:"payload"`
}

// Load hydrates the in-memory state from the state table. Undecodable
// payloads return an *domain.ImportError and leave the store empty.
func (s *Store) Load(ctx context.Context) error {
	var rows []stateRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT bucket, payload FROM state`); err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	snapshot := memory.Snapshot{}
	for _, r := range rows {
		var err error
		switch r.Bucket {
		case bucketPolicyholders:
			err = json.Unmarshal(r.Payload, &snapshot.Policyholders)
		case bucketClaims:
			err = json.Unmarshal(r.Payload, &snapshot.Claims)
		}
		if err != nil {
			return &domain.ImportError{Source: s.path, Err: fmt.Errorf("decode %s: %w", r.Bucket, err)}
		}
	}
	s.ImportState(snapshot)
	return nil
}

// persist runs under the memory store's write lock. A failed upsert rolls
// back the database transaction and the memory commit alike.
func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) (retErr error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case bucketPolicyholders:
			data, err = json.Marshal(snapshot.Policyholders)
		case bucketClaims:
			data, err = json.Marshal(snapshot.Claims)
		}
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO state(bucket, payload) VALUES(?, ?)
			ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying database for integration testing hooks.
func (s *Store) DB() *sqlx.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
