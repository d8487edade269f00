// Package pgstore is a blob backend on PostgreSQL. The caller owns the
// *sql.DB (and the driver import); the store only owns its tables.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shoebox/shoebox/internal/blob"
)

// Schema is the store's DDL, applied idempotently at open.
const Schema = `
CREATE TABLE IF NOT EXISTS blobs (
  token TEXT PRIMARY KEY,
  data BYTEA NOT NULL
);

CREATE TABLE IF NOT EXISTS register (
  id INT PRIMARY KEY CHECK (id = 1),
  value TEXT NOT NULL
);
`

// Store reads and writes blobs in the blobs table and the root register in
// the single-row register table.
type Store struct {
	db *sql.DB
}

var _ blob.Backend = (*Store)(nil)

// New ensures the schema exists and returns a store on db.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Put stores data under its content token. Content already present is left
// alone; the bytes are identical by construction.
func (s *Store) Put(ctx context.Context, data []byte) (blob.Token, error) {
	tok := blob.HashToken(data)
	const q = `INSERT INTO blobs (token, data) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, string(tok), data); err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}
	return tok, nil
}

// Get returns the blob for tok, or blob.ErrNotFound.
func (s *Store) Get(ctx context.Context, tok blob.Token) ([]byte, error) {
	const q = `SELECT data FROM blobs WHERE token = $1`
	var data []byte
	err := s.db.QueryRowContext(ctx, q, string(tok)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blob %s: %w", tok, blob.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Read returns the register value, "" if never written.
func (s *Store) Read(ctx context.Context) (string, error) {
	const q = `SELECT value FROM register WHERE id = 1`
	var value string
	err := s.db.QueryRowContext(ctx, q).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read register: %w", err)
	}
	return value, nil
}

// Write blindly replaces the register value; no compare, last writer wins.
func (s *Store) Write(ctx context.Context, value string) error {
	const q = `INSERT INTO register (id, value) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value`
	if _, err := s.db.ExecContext(ctx, q, value); err != nil {
		return fmt.Errorf("write register: %w", err)
	}
	return nil
}
