// Package blob defines the storage capabilities the catalog is built on:
// an immutable content-addressed store and a single mutable register that
// holds the root pointer. Every backend implements both.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Token is an opaque reference to an immutable blob. Tokens are produced by
// Put and are the only way to read content back.
type Token string

// ErrNotFound is returned by Get when a token does not resolve to a blob,
// by any path: missing file, missing row, missing object.
var ErrNotFound = errors.New("blob not found")

// Store is an immutable blob store. Put is the only way in and Get the only
// way out; there is no delete, no listing, and no overwrite.
type Store interface {
	// Put stores content and returns its token. Storing the same content
	// twice returns the same token.
	Put(ctx context.Context, data []byte) (Token, error)

	// Get returns the content for a token, or ErrNotFound.
	Get(ctx context.Context, tok Token) ([]byte, error)
}

// Register is the single mutable slot a catalog hangs off. Read returns the
// current value ("" when the slot has never been written); Write replaces it
// blindly, without comparing against the previous value.
type Register interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, value string) error
}

// Backend is a Store with a Register, the full capability surface a catalog
// needs from one place.
type Backend interface {
	Store
	Register
}

// HashToken computes the content token for data: the hex-encoded SHA-256 of
// the plaintext. All backends address blobs by this token so content moved
// between backends keeps its identity.
func HashToken(data []byte) Token {
	sum := sha256.Sum256(data)
	return Token(hex.EncodeToString(sum[:]))
}
