// Package filestore is the default blob backend: encrypted, compressed
// blobs on a local filesystem, addressed by the SHA-256 of their plaintext.
//
// Storage format: plaintext -> zstd compress -> XChaCha20-Poly1305 encrypt
// -> write. Encryption is convergent: keys and nonces are derived from the
// master key and the content hash, so identical plaintext produces an
// identical file and deduplication falls out of the content addressing.
// The trade-off is that anyone holding the secret can confirm whether a
// known plaintext is present. For a single-owner catalog that is acceptable;
// hash verification on read still detects corruption and the AEAD detects
// tampering.
package filestore

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/shoebox/shoebox/internal/blob"
)

const (
	blobsDir     = "blobs"
	registerFile = "root"

	keyInfo   = "shoebox-filestore-key"
	blobInfo  = "shoebox-filestore-blob"
	nonceInfo = "shoebox-filestore-nonce"
)

// Store holds blobs under <dir>/blobs/<hh>/<hash> and the root register in
// <dir>/root. Safe for concurrent use: blob writes go through unique temp
// files and an atomic rename, and identical plaintext encrypts to identical
// bytes, so the last rename of a given hash wins harmlessly.
type Store struct {
	fs        billy.Filesystem
	masterKey [32]byte

	encoderPool sync.Pool
	decoderPool sync.Pool

	// registerMu serializes register replacement; reads are lock-free and
	// see either the old or the new value thanks to the rename.
	registerMu sync.Mutex
}

var _ blob.Backend = (*Store)(nil)

// New opens (or initializes) a store rooted at dir on the host filesystem.
// The secret keys the convergent encryption; a store can only be reopened
// with the secret it was created with.
func New(dir, secret string) (*Store, error) {
	return NewWithFilesystem(osfs.New(dir), secret)
}

// NewWithFilesystem is New on an arbitrary billy filesystem. Tests use
// memfs.
func NewWithFilesystem(fs billy.Filesystem, secret string) (*Store, error) {
	if secret == "" {
		return nil, errors.New("filestore: secret is required")
	}
	if err := fs.MkdirAll(blobsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create blobs dir: %w", err)
	}

	s := &Store{fs: fs}
	if err := deriveKey(secret, keyInfo, s.masterKey[:]); err != nil {
		return nil, err
	}

	s.encoderPool = sync.Pool{
		New: func() interface{} {
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
			return enc
		},
	}
	s.decoderPool = sync.Pool{
		New: func() interface{} {
			dec, _ := zstd.NewReader(nil)
			return dec
		},
	}
	return s, nil
}

// Put stores data and returns its content token. Storing content that is
// already present returns immediately.
func (s *Store) Put(_ context.Context, data []byte) (blob.Token, error) {
	tok := blob.HashToken(data)
	path := s.blobPath(tok)

	// Approximate dedup check; a lost race just rewrites identical bytes.
	if _, err := s.fs.Stat(path); err == nil {
		return tok, nil
	}

	compressed := s.compress(data)
	encrypted, err := s.encrypt(compressed, tok)
	if err != nil {
		return "", err
	}

	dir := s.fs.Join(blobsDir, shard(tok))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create shard dir: %w", err)
	}
	if err := s.writeAtomic(dir, path, encrypted); err != nil {
		return "", err
	}
	return tok, nil
}

// Get reads, decrypts, and decompresses the blob for tok, verifying that
// the plaintext still hashes to the token.
func (s *Store) Get(_ context.Context, tok blob.Token) ([]byte, error) {
	encrypted, err := util.ReadFile(s.fs, s.blobPath(tok))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", tok, blob.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}

	compressed, err := s.decrypt(encrypted, tok)
	if err != nil {
		return nil, fmt.Errorf("decrypt blob %s: %w", tok, err)
	}
	data, err := s.decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress blob %s: %w", tok, err)
	}

	if actual := blob.HashToken(data); actual != tok {
		return nil, fmt.Errorf("blob hash mismatch: expected %s, got %s (data corruption)", tok, actual)
	}
	return data, nil
}

// Exists reports whether a blob is present without reading it.
func (s *Store) Exists(tok blob.Token) bool {
	_, err := s.fs.Stat(s.blobPath(tok))
	return err == nil
}

// writeAtomic writes data to path via a unique temp file in dir and an
// atomic rename, so readers never observe a partial blob.
func (s *Store) writeAtomic(dir, path string, data []byte) error {
	tmp, err := util.TempFile(s.fs, dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("rename blob: %w", err)
	}
	return nil
}

// shard returns the two-character fan-out directory for a token.
func shard(tok blob.Token) string {
	if len(tok) < 2 {
		return "__"
	}
	return string(tok[:2])
}

func (s *Store) blobPath(tok blob.Token) string {
	return s.fs.Join(blobsDir, shard(tok), string(tok))
}

// deriveKey fills out with an HKDF expansion of the secret for the given
// context label.
func deriveKey(secret, info string, out []byte) error {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	return nil
}

// deriveBlobKey derives the per-blob encryption key. Same plaintext, same
// key, same ciphertext.
func (s *Store) deriveBlobKey(tok blob.Token) ([32]byte, error) {
	var key [32]byte
	r := hkdf.New(sha256.New, s.masterKey[:], []byte(tok), []byte(blobInfo))
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return key, fmt.Errorf("derive blob key: %w", err)
	}
	return key, nil
}

// deriveNonce derives the deterministic per-blob nonce from masterKey ||
// hash, keeping nonces unpredictable without the secret.
func (s *Store) deriveNonce(tok blob.Token) ([24]byte, error) {
	var nonce [24]byte
	r := hkdf.New(sha256.New, append(s.masterKey[:], []byte(tok)...), nil, []byte(nonceInfo))
	if _, err := io.ReadFull(r, nonce[:]); err != nil {
		return nonce, fmt.Errorf("derive nonce: %w", err)
	}
	return nonce, nil
}

func (s *Store) encrypt(plaintext []byte, tok blob.Token) ([]byte, error) {
	key, err := s.deriveBlobKey(tok)
	if err != nil {
		return nil, err
	}
	nonce, err := s.deriveNonce(tok)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return aead.Seal(nil, nonce[:], plaintext, nil), nil
}

func (s *Store) decrypt(ciphertext []byte, tok blob.Token) ([]byte, error) {
	key, err := s.deriveBlobKey(tok)
	if err != nil {
		return nil, err
	}
	nonce, err := s.deriveNonce(tok)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

func (s *Store) compress(data []byte) []byte {
	enc := s.encoderPool.Get().(*zstd.Encoder)
	defer s.encoderPool.Put(enc)
	return enc.EncodeAll(data, nil)
}

func (s *Store) decompress(data []byte) ([]byte, error) {
	dec := s.decoderPool.Get().(*zstd.Decoder)
	defer s.decoderPool.Put(dec)
	return dec.DecodeAll(data, nil)
}
