// Package store keeps named wall configurations in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drummonds/artwall/internal/config"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var ErrNotFound = errors.New("config not found")

const schema = `
CREATE TABLE IF NOT EXISTS configs (
    name     TEXT PRIMARY KEY,
    created  TEXT NOT NULL,
    document TEXT NOT NULL
)`

// Entry lists one saved configuration.
type Entry struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

type Store struct {
	db *sql.DB
}

// Open opens, creating if needed, the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save stores d under its name, replacing any configuration of the same
// name. updated reports whether one was replaced.
func (s *Store) Save(ctx context.Context, d config.Document) (updated bool, err error) {
	name := strings.TrimSpace(d.Meta.Name)
	if name == "" {
		return false, errors.New("config name required")
	}
	d.Meta.Name = name
	data, err := json.Marshal(d)
	if err != nil {
		return false, fmt.Errorf("encode config: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM configs WHERE name = ?`, name).Scan(&n); err != nil {
		return false, err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO configs (name, created, document) VALUES (?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET created = excluded.created, document = excluded.document
    `, name, d.Meta.Created.UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return false, fmt.Errorf("save config %q: %w", name, err)
	}
	return n > 0, nil
}

// List returns the saved configurations in the order they were first saved.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, created FROM configs ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.Name, &created); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("config %q created: %w", e.Name, err)
		}
		e.Created = t
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Load(ctx context.Context, name string) (config.Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM configs WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return config.Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return config.Document{}, err
	}
	var d config.Document
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return config.Document{}, fmt.Errorf("decode config %q: %w", name, err)
	}
	return d, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM configs WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
