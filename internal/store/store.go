package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sadopc/shiftclock/internal/entry"
	"github.com/sadopc/shiftclock/internal/profile"
)

const currentVersion = 2

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrBadTimestamp is returned when a stored timestamp cannot be parsed.
	ErrBadTimestamp = errors.New("malformed stored timestamp")
)

type Store struct {
	db     *sql.DB
	logger *slog.Logger

	entriesFeed  feed[[]entry.TimeEntry]
	projectsFeed feed[[]Project]
	profileFeed  feed[profile.Profile]
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return New(":memory:", opts...)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		name        TEXT NOT NULL,
		color       TEXT NOT NULL DEFAULT '#6C63FF',
		archived    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		UNIQUE(owner_id, name)
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id               TEXT PRIMARY KEY,
		owner_id         TEXT NOT NULL,
		project_id       TEXT REFERENCES projects(id) ON DELETE SET NULL,
		task             TEXT NOT NULL DEFAULT '',
		note             TEXT NOT NULL DEFAULT '',
		origin           TEXT NOT NULL DEFAULT 'timer',
		start_time       TEXT NOT NULL,
		end_time         TEXT,
		status           TEXT NOT NULL CHECK(status IN ('active', 'on_break', 'completed')),
		break_minutes    INTEGER NOT NULL DEFAULT 0,
		break_started_at TEXT,
		total_minutes    INTEGER NOT NULL DEFAULT 0,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_owner ON time_entries(owner_id);
	CREATE INDEX IF NOT EXISTS idx_entries_start ON time_entries(start_time);

	CREATE TABLE IF NOT EXISTS entry_breaks (
		entry_id    TEXT NOT NULL REFERENCES time_entries(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL,
		minutes     INTEGER NOT NULL,
		PRIMARY KEY (entry_id, seq)
	);

	CREATE TABLE IF NOT EXISTS profiles (
		owner_id     TEXT PRIMARY KEY,
		hourly_rate  REAL NOT NULL DEFAULT 0,
		currency     TEXT NOT NULL DEFAULT 'USD',
		idle_minutes INTEGER NOT NULL DEFAULT 5,
		updated_at   TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// migrateV2 allows at most one running entry per owner.
func (s *Store) migrateV2() error {
	_, err := s.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_one_running
		ON time_entries(owner_id) WHERE end_time IS NULL`)
	if err != nil {
		return fmt.Errorf("create running-entry index: %w", err)
	}
	return nil
}

// DefaultDBPath returns ~/.config/shiftclock/shiftclock.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "shiftclock", "shiftclock.db"), nil
}

// Fixed-width UTC timestamps keep lexical order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	return t.Local(), nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func timePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
