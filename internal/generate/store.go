package generate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for history ids that do not exist.
var ErrNotFound = errors.New("generation not found")

// Entry is one saved generation.
type Entry struct {
	ID             int64
	Prompt         string
	NegativePrompt string
	Service        string
	Path           string
	Width, Height  int
	CreatedAt      time.Time
}

// Store keeps the generation history in SQLite.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS generations (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	prompt          TEXT NOT NULL,
	negative_prompt TEXT NOT NULL DEFAULT '',
	service         TEXT NOT NULL,
	path            TEXT NOT NULL,
	width           INTEGER NOT NULL,
	height          INTEGER NOT NULL,
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS generations_created ON generations (created_at);
`

// OpenStore opens or creates the history database at path. ":memory:" keeps
// it in memory.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// one connection so an in-memory database is shared by every query
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records e and returns its id. A zero CreatedAt is set to now.
func (s *Store) Add(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (prompt, negative_prompt, service, path, width, height, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Prompt, e.NegativePrompt, e.Service, e.Path, e.Width, e.Height, e.CreatedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("add generation: %w", err)
	}
	return res.LastInsertId()
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, negative_prompt, service, path, width, height, created_at
		 FROM generations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Prompt, &e.NegativePrompt, &e.Service, &e.Path, &e.Width, &e.Height, &ms); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		e.CreatedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns entry id.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	var (
		e  Entry
		ms int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, prompt, negative_prompt, service, path, width, height, created_at
		 FROM generations WHERE id = ?`, id).
		Scan(&e.ID, &e.Prompt, &e.NegativePrompt, &e.Service, &e.Path, &e.Width, &e.Height, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return e, fmt.Errorf("get generation: %w", err)
	}
	e.CreatedAt = time.UnixMilli(ms)
	return e, nil
}

// Delete removes entry id. The image file is left alone.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete generation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM generations`); err != nil {
		return fmt.Errorf("clear generations: %w", err)
	}
	return nil
}
