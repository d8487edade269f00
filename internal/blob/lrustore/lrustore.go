// Package lrustore wraps a blob store with an in-memory LRU cache keyed by
// token. Blobs are immutable, so entries never go stale; they only get
// evicted. The root register is deliberately not cacheable and callers keep
// using the underlying backend for it.
package lrustore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shoebox/shoebox/internal/blob"
)

// Store is a read-through cache in front of another blob store.
type Store struct {
	inner blob.Store
	cache *lru.Cache[blob.Token, []byte]
}

var _ blob.Store = (*Store)(nil)

// Wrap returns a caching store holding up to entries blobs in memory.
func Wrap(inner blob.Store, entries int) (*Store, error) {
	cache, err := lru.New[blob.Token, []byte](entries)
	if err != nil {
		return nil, err
	}
	return &Store{inner: inner, cache: cache}, nil
}

// Put writes through to the inner store and seeds the cache; a freshly
// written catalog or document blob is the likeliest next read.
func (s *Store) Put(ctx context.Context, data []byte) (blob.Token, error) {
	tok, err := s.inner.Put(ctx, data)
	if err != nil {
		return "", err
	}
	s.cache.Add(tok, cloneBytes(data))
	return tok, nil
}

// Get serves from the cache when possible. Returned slices are copies; the
// cached bytes are never handed out.
func (s *Store) Get(ctx context.Context, tok blob.Token) ([]byte, error) {
	if data, ok := s.cache.Get(tok); ok {
		return cloneBytes(data), nil
	}
	data, err := s.inner.Get(ctx, tok)
	if err != nil {
		return nil, err
	}
	s.cache.Add(tok, cloneBytes(data))
	return data, nil
}

// Len reports how many blobs the cache currently holds.
func (s *Store) Len() int {
	return s.cache.Len()
}

func cloneBytes(data []byte) []byte {
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp
}
