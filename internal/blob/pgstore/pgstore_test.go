package pgstore

// These tests need a live PostgreSQL. Point SHOEBOX_TEST_POSTGRES_DSN at
// one to run them; they are skipped otherwise.

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoebox/shoebox/internal/blob"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SHOEBOX_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SHOEBOX_TEST_POSTGRES_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(context.Background(), db)
	require.NoError(t, err)
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	data := []byte("pg blob")
	tok, err := s.Put(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, blob.HashToken(data), tok)

	got, err := s.Get(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Re-putting the same content is a no-op, not a conflict.
	tok2, err := s.Put(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, tok, tok2)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing-token")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Write(ctx, "first"))
	val, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", val)

	require.NoError(t, s.Write(ctx, "second"))
	val, err = s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", val)
}
