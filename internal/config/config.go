// Package config loads shoebox configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shoebox/shoebox/pkg/bytesize"
)

// Supported store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Config is the top-level configuration.
type Config struct {
	// Locale is a BCP 47 tag controlling album and file name ordering.
	// Empty means locale-neutral.
	Locale string `yaml:"locale"`

	// MaxFileSize skips files larger than this during add; zero means no
	// limit.
	MaxFileSize bytesize.Size `yaml:"max_file_size"`

	Media MediaConfig `yaml:"media"`
	Cache CacheConfig `yaml:"cache"`
	Store StoreConfig `yaml:"store"`

	// AuditLog is a file to append audit events to; empty disables the
	// audit trail.
	AuditLog string `yaml:"audit_log"`

	Loki LokiConfig `yaml:"loki"`
}

// MediaConfig bounds the derived renditions, in pixels.
type MediaConfig struct {
	PreviewMax int `yaml:"preview_max"`
	ScreenMax  int `yaml:"screen_max"`
}

// CacheConfig sizes the in-memory blob cache. Zero entries disables it.
type CacheConfig struct {
	Entries int `yaml:"entries"`
}

// StoreConfig selects and configures the blob backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	File     FileConfig     `yaml:"file"`
	Badger   BadgerConfig   `yaml:"badger"`
	Postgres PostgresConfig `yaml:"postgres"`
	S3       S3Config       `yaml:"s3"`
}

// FileConfig configures the default filesystem backend.
type FileConfig struct {
	Dir string `yaml:"dir"`

	// Secret keys the store's convergent encryption. Required; a store
	// can only be reopened with the secret it was created with.
	Secret string `yaml:"secret"`
}

// BadgerConfig configures the embedded Badger backend.
type BadgerConfig struct {
	Dir string `yaml:"dir"`
}

// PostgresConfig configures the PostgreSQL backend.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// LokiConfig ships logs to a Grafana Loki endpoint while a command runs.
// FlushInterval is a duration string; the writer falls back to its own
// default when it does not parse.
type LokiConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval string `yaml:"flush_interval"`
}

// S3Config configures the S3 backend. Endpoint is only set for
// S3-compatible services like MinIO.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

// Default returns the configuration used when no config file exists: the
// file backend under ~/.shoebox.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a config file, applies defaults, and expands home
// directories in paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Media.PreviewMax == 0 {
		c.Media.PreviewMax = 320
	}
	if c.Media.ScreenMax == 0 {
		c.Media.ScreenMax = 1280
	}
	if c.Cache.Entries == 0 {
		c.Cache.Entries = 256
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
	}
	if c.Store.File.Dir == "" {
		c.Store.File.Dir = "~/.shoebox/store"
	}
	if c.Store.Badger.Dir == "" {
		c.Store.Badger.Dir = "~/.shoebox/badger"
	}

	c.Store.File.Dir = expandHome(c.Store.File.Dir)
	c.Store.Badger.Dir = expandHome(c.Store.Badger.Dir)
	c.AuditLog = expandHome(c.AuditLog)
}

// expandHome expands a leading "~/" against the current user's home
// directory, leaving the path alone when the home dir is unknown.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Media.PreviewMax <= 0 || c.Media.ScreenMax <= 0 {
		return fmt.Errorf("media sizes must be positive")
	}
	if c.Cache.Entries < 0 {
		return fmt.Errorf("cache entries must not be negative")
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must not be negative")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.File.Dir == "" {
			return fmt.Errorf("store.file.dir is required")
		}
		if c.Store.File.Secret == "" {
			return fmt.Errorf("store.file.secret is required")
		}
	case BackendBadger:
		if c.Store.Badger.Dir == "" {
			return fmt.Errorf("store.badger.dir is required")
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required")
		}
	case BackendS3:
		if c.Store.S3.Bucket == "" {
			return fmt.Errorf("store.s3.bucket is required")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}
