// Package database holds the process-lifetime DuckDB session: one live
// in-memory connection plus the list of files currently considered loaded.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb/v2"
)

// Session owns a single DuckDB connection and the active-files list.
// All access goes through methods holding the session mutex, so a hosting
// transport may dispatch concurrent tool calls without corrupting state
// (a reset during a running query would otherwise drop tables mid-read).
type Session struct {
	mu    sync.Mutex
	db    *sql.DB
	files []string
	dsn   string
	id    string
}

// NewSession opens a fresh DuckDB connection for the given DSN.
// An empty DSN selects an in-memory database.
func NewSession(dsn string) (*Session, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open duckdb: %w", err)
	}
	return &Session{db: db, dsn: dsn, id: uuid.NewString()}, nil
}

// ID returns a stable identifier for log correlation.
func (s *Session) ID() string { return s.id }

// ActiveFiles returns a copy of the currently loaded file paths.
func (s *Session) ActiveFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// With runs fn against the live connection under the session lock.
func (s *Session) With(fn func(db *sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.db)
}

// Reset discards the current connection and all its tables, opens a fresh
// empty one, and clears the active-files list.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked(ctx)
}

// Replace performs the load lifecycle: reset first, then run the ingest
// callback against the fresh connection, and record the file as the sole
// active source on success. A failed ingest leaves the session empty, not
// holding the previously loaded tables.
func (s *Session) Replace(ctx context.Context, file string, ingest func(db *sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.resetLocked(ctx); err != nil {
		return err
	}
	if err := ingest(s.db); err != nil {
		return err
	}
	s.files = []string{file}
	return nil
}

// Close releases the underlying connection. The session is unusable after.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Session) resetLocked(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("database: close connection: %w", err)
		}
	}
	db, err := sql.Open("duckdb", s.dsn)
	if err != nil {
		return fmt.Errorf("database: reopen duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("database: ping after reset: %w", err)
	}
	s.db = db
	s.files = nil
	return nil
}
