// Package memstore is an in-memory blob backend. It exists for tests and for
// throwaway catalogs; nothing survives the process.
package memstore

import (
	"context"
	"sync"

	"github.com/shoebox/shoebox/internal/blob"
)

// Store keeps blobs in a map keyed by token and the register in a plain
// string. Safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	blobs map[blob.Token][]byte
	root  string
}

var _ blob.Backend = (*Store)(nil)

// New returns an empty store with an unset register.
func New() *Store {
	return &Store{blobs: make(map[blob.Token][]byte)}
}

// Put stores a copy of data under its content token.
func (s *Store) Put(_ context.Context, data []byte) (blob.Token, error) {
	tok := blob.HashToken(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[tok]; !ok {
		cp := make([]byte, len(data))
		copy(cp, data)
		s.blobs[tok] = cp
	}
	return tok, nil
}

// Get returns a copy of the blob for tok, or blob.ErrNotFound.
func (s *Store) Get(_ context.Context, tok blob.Token) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[tok]
	if !ok {
		return nil, blob.ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Read returns the register value, "" if never written.
func (s *Store) Read(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root, nil
}

// Write replaces the register value.
func (s *Store) Write(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = value
	return nil
}

// Len reports how many distinct blobs the store holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
