// Package session records completed focus sessions in a local SQLite database.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"focusdeck/internal/core/model"
)

// FileName is the default database file name inside the config directory.
const FileName = "sessions.db"

// ErrStoreClosed indicates the underlying database connection is unavailable.
var ErrStoreClosed = errors.New("session: store closed")

// Entry is one logged session.
type Entry struct {
	ID              string    `json:"id"`
	DurationMinutes int       `json:"durationMinutes"`
	BreakMinutes    int       `json:"breakMinutes"`
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Store persists session records.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create sessions",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				duration_minutes INTEGER NOT NULL,
				break_minutes INTEGER NOT NULL,
				completed INTEGER NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		version: 2,
		name:    "index sessions by time",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at DESC)`,
		},
	},
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	// One writer at a time; the engine logs at most one row per completion.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure session database (%s): %w", pragma, err)
		}
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		for _, statement := range m.statements {
			if _, err := tx.Exec(statement); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.version, m.name, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// LogSession stores record and returns its id.
func (s *Store) LogSession(ctx context.Context, record model.SessionRecord) (string, error) {
	if s == nil || s.db == nil {
		return "", ErrStoreClosed
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, duration_minutes, break_minutes, completed, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, record.DurationMinutes, record.BreakMinutes, record.Completed, s.now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// Recent returns up to limit sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, duration_minutes, break_minutes, completed, created_at
		FROM sessions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.DurationMinutes, &entry.BreakMinutes, &entry.Completed, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// TotalFocusMinutes sums the duration of all completed sessions.
func (s *Store) TotalFocusMinutes(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrStoreClosed
	}
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(duration_minutes), 0) FROM sessions WHERE completed = 1`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum sessions: %w", err)
	}
	return total, nil
}

// Close closes the database. Later calls return ErrStoreClosed.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
