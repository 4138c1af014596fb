// Package store caches compiled bytecode in a SQLite database, keyed by
// source text and function registry.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/rbsl/compiler"
	"github.com/chazu/rbsl/pkg/bytecode"
)

// ErrNotFound indicates no program is cached under the requested key.
var ErrNotFound = errors.New("program not found")

var log = commonlog.GetLogger("rbsl.store")

// Store is a compile cache backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		key TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		record BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Put stores rec under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, rec *Record) error {
	data, err := MarshalRecord(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO programs (key, id, record) VALUES (?, ?, ?)",
		key, rec.ID, data,
	)
	if err != nil {
		return fmt.Errorf("saving program: %w", err)
	}
	return nil
}

// Get returns the record cached under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT record FROM programs WHERE key = ?", key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying program: %w", err)
	}
	return UnmarshalRecord(data)
}

// Delete removes the entry under key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM programs WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting program: %w", err)
	}
	return nil
}

// Count returns the number of cached programs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM programs").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting programs: %w", err)
	}
	return n, nil
}

// Build compiles source against reg, serving the result from the cache
// when an entry exists. hit reports whether the cache answered. Compile
// errors are returned as-is and never cached.
func (s *Store) Build(ctx context.Context, source string, reg *bytecode.Registry) (data []byte, hit bool, err error) {
	if reg == nil {
		reg = bytecode.DefaultRegistry()
	}
	key := Key(source, reg)

	rec, err := s.Get(ctx, key)
	switch {
	case err == nil:
		if _, derr := bytecode.Decode(rec.Bytecode); derr == nil {
			log.Debugf("cache hit %s (record %s)", key[:12], rec.ID)
			return rec.Bytecode, true, nil
		}
		log.Warningf("discarding corrupt cache entry %s", key[:12])
	case !errors.Is(err, ErrNotFound):
		log.Warningf("cache lookup failed: %s", err)
	}

	unit, err := compiler.Compile(source, reg)
	if err != nil {
		return nil, false, err
	}
	data, err = bytecode.Encode(unit.Program)
	if err != nil {
		return nil, false, err
	}

	if err := s.Put(ctx, key, NewRecord(source, reg, data, len(unit.Program))); err != nil {
		log.Warningf("cache store failed: %s", err)
	} else {
		log.Debugf("cached %s", key[:12])
	}
	return data, false, nil
}
