// Package store persists completed solve results.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Result is one persisted solve outcome.
type Result struct {
	ID         string
	CreatedAt  time.Time
	Ciphertext string
	Plaintext  string
	Key        map[string]string
	Energy     float64
	Iterations int
}

// Store records solve results in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path with WAL mode
// enabled and initializes the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS results (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	ciphertext TEXT NOT NULL,
	plaintext TEXT NOT NULL,
	key_json TEXT NOT NULL,
	energy REAL NOT NULL,
	iterations INTEGER NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Save inserts a solve result.
func (s *Store) Save(ctx context.Context, r Result) error {
	keyJSON, err := json.Marshal(r.Key)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (id, created_at, ciphertext, plaintext, key_json, energy, iterations)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.Ciphertext, r.Plaintext, string(keyJSON), r.Energy, r.Iterations)
	return err
}

// Get loads a solve result by id. Returns sql.ErrNoRows if missing.
func (s *Store) Get(ctx context.Context, id string) (*Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, ciphertext, plaintext, key_json, energy, iterations
		 FROM results WHERE id = ?`, id)

	var r Result
	var createdAt, keyJSON string
	if err := row.Scan(&r.ID, &createdAt, &r.Ciphertext, &r.Plaintext, &keyJSON, &r.Energy, &r.Iterations); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = ts

	if err := json.Unmarshal([]byte(keyJSON), &r.Key); err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	return &r, nil
}

// List returns the most recent solve results, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, ciphertext, plaintext, key_json, energy, iterations
		 FROM results ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var createdAt, keyJSON string
		if err := rows.Scan(&r.ID, &createdAt, &r.Ciphertext, &r.Plaintext, &keyJSON, &r.Energy, &r.Iterations); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = ts
		}
		if err := json.Unmarshal([]byte(keyJSON), &r.Key); err != nil {
			return nil, fmt.Errorf("decode key: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
