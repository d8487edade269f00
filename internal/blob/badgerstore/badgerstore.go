// Package badgerstore is a blob backend on an embedded Badger database.
// Blobs and the root register share one keyspace, so a catalog and its
// content travel as a single directory.
package badgerstore

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/shoebox/shoebox/internal/blob"
)

// Key layout: blobs under "blob/<token>", the register under "meta/root".
var registerKey = []byte("meta/root")

func blobKey(tok blob.Token) []byte {
	return []byte("blob/" + string(tok))
}

// Store wraps a Badger database. Safe for concurrent use; Badger provides
// the transactional isolation.
type Store struct {
	db *badger.DB
}

var _ blob.Backend = (*Store)(nil)

// Open opens the database at dir, creating it when absent. Badger's own
// logging is disabled; the catalog's logs are the interesting ones.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens an ephemeral database, for tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database. Further calls on the store fail.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores data under its content token. Re-putting existing content is
// a no-op.
func (s *Store) Put(_ context.Context, data []byte) (blob.Token, error) {
	tok := blob.HashToken(data)
	err := s.db.Update(func(txn *badger.Txn) error {
		key := blobKey(tok)
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}
	return tok, nil
}

// Get returns the blob for tok, or blob.ErrNotFound.
func (s *Store) Get(_ context.Context, tok blob.Token) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(tok))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("blob %s: %w", tok, blob.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return out, nil
}

// Read returns the register value, "" if never written.
func (s *Store) Read(_ context.Context) (string, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(registerKey)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read register: %w", err)
	}
	return string(val), nil
}

// Write blindly replaces the register value.
func (s *Store) Write(_ context.Context, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(registerKey, []byte(value))
	})
	if err != nil {
		return fmt.Errorf("write register: %w", err)
	}
	return nil
}
