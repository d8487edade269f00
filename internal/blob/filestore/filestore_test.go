package filestore

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoebox/shoebox/internal/blob"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewWithFilesystem(memfs.New(), "test-secret")
	require.NoError(t, err)
	return s
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := NewWithFilesystem(memfs.New(), "")
	require.Error(t, err)
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	data := []byte("the quick brown fox")
	tok, err := s.Put(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, blob.HashToken(data), tok)

	got, err := s.Get(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestPut_Dedup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tok1, err := s.Put(ctx, []byte("identical"))
	require.NoError(t, err)
	tok2, err := s.Put(ctx, []byte("identical"))
	require.NoError(t, err)

	assert.Equal(t, tok1, tok2)
	assert.True(t, s.Exists(tok1))
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "feedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeedfeed")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestBlobsEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	s, err := NewWithFilesystem(fs, "test-secret")
	require.NoError(t, err)

	plaintext := []byte("clearly readable plaintext, long enough to survive compression")
	tok, err := s.Put(ctx, plaintext)
	require.NoError(t, err)

	raw, err := util.ReadFile(fs, s.blobPath(tok))
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, raw)
	assert.False(t, bytes.Contains(raw, []byte("readable plaintext")))
}

func TestWrongSecretCannotRead(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	locked, err := NewWithFilesystem(fs, "secret-one")
	require.NoError(t, err)
	tok, err := locked.Put(ctx, []byte("locked away"))
	require.NoError(t, err)

	intruder, err := NewWithFilesystem(fs, "secret-two")
	require.NoError(t, err)
	_, err = intruder.Get(ctx, tok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")
}

// Same secret and same plaintext give the same bytes at rest, so stores
// sharing a filesystem agree about what is already present.
func TestConvergentDedupAcrossStores(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	s1, err := NewWithFilesystem(fs, "shared")
	require.NoError(t, err)
	s2, err := NewWithFilesystem(fs, "shared")
	require.NoError(t, err)

	tok1, err := s1.Put(ctx, []byte("common content"))
	require.NoError(t, err)
	tok2, err := s2.Put(ctx, []byte("common content"))
	require.NoError(t, err)
	assert.Equal(t, tok1, tok2)

	got, err := s2.Get(ctx, tok1)
	require.NoError(t, err)
	assert.Equal(t, []byte("common content"), got)
}

func TestTamperedBlobFailsToRead(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	s, err := NewWithFilesystem(fs, "test-secret")
	require.NoError(t, err)
	tok, err := s.Put(ctx, []byte("integrity matters"))
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(fs, s.blobPath(tok), []byte("scribbled over"), 0o644))

	_, err = s.Get(ctx, tok)
	require.Error(t, err)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	val, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, s.Write(ctx, "roottoken"))
	val, err = s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "roottoken", val)

	require.NoError(t, s.Write(ctx, "latertoken"))
	val, err = s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "latertoken", val)
}

func TestNew_OnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := New(dir, "disk-secret")
	require.NoError(t, err)
	tok, err := s1.Put(ctx, []byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, s1.Write(ctx, string(tok)))

	// A second store over the same directory sees everything.
	s2, err := New(dir, "disk-secret")
	require.NoError(t, err)
	got, err := s2.Get(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)

	root, err := s2.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(tok), root)
}
