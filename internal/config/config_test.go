package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoebox/shoebox/testutil"
)

func TestLoad(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	content := `
locale: da
max_file_size: 512MB
media:
  preview_max: 256
cache:
  entries: 64
store:
  backend: badger
  badger:
    dir: /var/lib/shoebox/badger
audit_log: /var/log/shoebox-audit.log
loki:
  enabled: true
  url: http://localhost:3100
  batch_size: 50
  flush_interval: 2s
`
	path := testutil.TempFile(t, dir, "config.yaml", []byte(content))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "da", cfg.Locale)
	assert.Equal(t, int64(512)*1024*1024, cfg.MaxFileSize.Bytes())
	assert.Equal(t, 256, cfg.Media.PreviewMax)
	assert.Equal(t, 1280, cfg.Media.ScreenMax, "unset field keeps its default")
	assert.Equal(t, 64, cfg.Cache.Entries)
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/shoebox/badger", cfg.Store.Badger.Dir)
	assert.Equal(t, "/var/log/shoebox-audit.log", cfg.AuditLog)
	assert.True(t, cfg.Loki.Enabled)
	assert.Equal(t, "http://localhost:3100", cfg.Loki.URL)
	assert.Equal(t, 50, cfg.Loki.BatchSize)
	assert.Equal(t, "2s", cfg.Loki.FlushInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/shoebox.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()
	path := testutil.TempFile(t, dir, "config.yaml", []byte("store: [broken"))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ExpandsHome(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()
	path := testutil.TempFile(t, dir, "config.yaml",
		[]byte("store:\n  file:\n    dir: ~/shoebox-data\n"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(cfg.Store.File.Dir, "~"))
	assert.True(t, filepath.IsAbs(cfg.Store.File.Dir))
	assert.True(t, strings.HasSuffix(cfg.Store.File.Dir, "shoebox-data"))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, 320, cfg.Media.PreviewMax)
	assert.Equal(t, 1280, cfg.Media.ScreenMax)
	assert.Equal(t, 256, cfg.Cache.Entries)
	assert.Equal(t, int64(0), cfg.MaxFileSize.Bytes())
	assert.True(t, strings.HasSuffix(cfg.Store.File.Dir, filepath.Join(".shoebox", "store")))
	assert.False(t, cfg.Loki.Enabled, "log shipping is opt-in")

	// The file backend never gets a default secret; a fresh config fails
	// validation until one is set.
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Store.Backend = BackendMemory
		return cfg
	}

	t.Run("memory backend is self-contained", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("file backend requires secret", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = BackendFile
		cfg.Store.File.Secret = ""
		assert.Error(t, cfg.Validate())

		cfg.Store.File.Secret = "0123abcd"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("file backend requires dir", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = BackendFile
		cfg.Store.File.Dir = ""
		cfg.Store.File.Secret = "0123abcd"
		assert.Error(t, cfg.Validate())
	})

	t.Run("badger requires dir", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = BackendBadger
		cfg.Store.Badger.Dir = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = BackendPostgres
		assert.Error(t, cfg.Validate())

		cfg.Store.Postgres.DSN = "postgres://localhost/shoebox?sslmode=disable"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = BackendS3
		assert.Error(t, cfg.Validate())

		cfg.Store.S3.Bucket = "shoebox"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = "gopherspace"
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative cache entries", func(t *testing.T) {
		cfg := base()
		cfg.Cache.Entries = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive media bounds", func(t *testing.T) {
		cfg := base()
		cfg.Media.PreviewMax = -10
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative max file size", func(t *testing.T) {
		cfg := base()
		cfg.MaxFileSize = -1
		assert.Error(t, cfg.Validate())
	})
}
