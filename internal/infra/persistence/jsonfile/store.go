// Package jsonfile provides the default persistent store: the in-memory store
// snapshotted to a single JSON document after every committed transaction.
package jsonfile

import (
	"claimcore/internal/infra/persistence/memory"
	"claimcore/pkg/domain"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const defaultPath = "data.json"

// Store persists the in-memory state to a JSON snapshot file. Each commit
// writes the file before the new state becomes visible, and the file is
// replaced atomically so a failed write keeps both the previous snapshot and
// the previous in-memory state.
type Store struct {
	*memory.Store
	path string
}

// NewStore constructs a JSON-file-backed store. Call Load to hydrate it.
func NewStore(path string, engine *domain.RulesEngine, opts ...memory.Option) *Store {
	if path == "" {
		path = defaultPath
	}
	s := &Store{path: path}
	s.Store = memory.NewStore(engine, append(opts[:len(opts):len(opts)], memory.WithPersist(s.persist))...)
	return s
}

// Load reads the snapshot file into memory. A missing file leaves the store
// empty. A malformed file returns an *domain.ImportError and also leaves the
// store empty.
func (s *Store) Load(_ context.Context) error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &domain.ImportError{Source: s.path, Err: err}
	}
	defer func() { _ = f.Close() }()
	snapshot, err := DecodeSnapshot(f)
	if err != nil {
		return &domain.ImportError{Source: s.path, Err: err}
	}
	s.ImportState(snapshot)
	return nil
}

// Path returns the configured snapshot path.
func (s *Store) Path() string { return s.path }

// persist runs under the memory store's write lock.
func (s *Store) persist(_ context.Context, snapshot memory.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := EncodeSnapshot(tmp, snapshot); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
