// shoebox is the content-addressed photo album catalog tool.
package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shoebox/shoebox/internal/admin"
	"github.com/shoebox/shoebox/internal/audit"
	"github.com/shoebox/shoebox/internal/blob"
	"github.com/shoebox/shoebox/internal/blob/badgerstore"
	"github.com/shoebox/shoebox/internal/blob/filestore"
	"github.com/shoebox/shoebox/internal/blob/lrustore"
	"github.com/shoebox/shoebox/internal/blob/memstore"
	"github.com/shoebox/shoebox/internal/blob/pgstore"
	"github.com/shoebox/shoebox/internal/blob/s3store"
	"github.com/shoebox/shoebox/internal/catalog"
	"github.com/shoebox/shoebox/internal/config"
	"github.com/shoebox/shoebox/internal/logging/loki"
	"github.com/shoebox/shoebox/internal/media"
	"github.com/shoebox/shoebox/internal/metrics"
	"github.com/shoebox/shoebox/internal/tracing"
)

// Build information. Populated at build-time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// CLI flags
var (
	cfgFile       string
	logLevel      string
	metricsListen string
	enableTracing bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shoebox",
		Short: "Shoebox - content-addressed photo album catalog",
		Long: `Shoebox keeps photo and video albums in a content-addressed blob store.

Album documents and the catalog that lists them are immutable blobs; a single
mutable register points at the current catalog. Every change stores new
documents bottom-up and repoints the register last, so the store always holds
a complete, consistent catalog.

QUICK START:

  # Generate a config with a fresh store secret
  shoebox init

  # Create an album and fill it
  shoebox album create "Summer 2024"
  shoebox add "Summer 2024" beach.jpg sunset.jpg

  # See what's inside
  shoebox album list
  shoebox ls "Summer 2024"

  # Soft-delete into Trash, then restore
  shoebox rm "Summer 2024" <file-id>
  shoebox restore <file-id>

For more help on any command, use: shoebox <command> --help`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "serve metrics, health and status on this address (e.g. 127.0.0.1:9090)")
	rootCmd.PersistentFlags().BoolVar(&enableTracing, "enable-tracing", false, "record runtime traces, served at /debug/trace on the metrics address")

	// Album management
	rootCmd.AddCommand(newAlbumCmd())

	// File operations
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newRestoreCmd())
	rootCmd.AddCommand(newPurgeCmd())
	rootCmd.AddCommand(newSetThumbCmd())
	rootCmd.AddCommand(newGetCmd())

	// Init command - generate a starter config
	rootCmd.AddCommand(newInitCmd())

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shoebox %s\n", Version)
			fmt.Printf("  Commit:     %s\n", Commit)
			fmt.Printf("  Build Time: %s\n", BuildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// defaultConfigPath is where commands look when --config is not given.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".shoebox", "config.yaml")
}

// loadConfig loads the --config file, the default config file if it exists,
// or the built-in defaults.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
		if path == "" {
			return config.Default(), nil
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// openCatalog loads the configuration, builds the configured blob backend,
// and opens the catalog. The returned cleanup function releases backend
// resources and must be called once the command is done with the catalog.
func openCatalog(ctx context.Context) (*catalog.Catalog, func(), error) {
	setupLogging()

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w (run 'shoebox init' to generate one)", err)
	}

	stopLoki := setupLokiLogging(cfg)

	if enableTracing {
		if err := tracing.Enable(tracing.DefaultBufferSize); err != nil {
			log.Warn().Err(err).Msg("failed to enable tracing")
		}
	}

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		stopLoki()
		return nil, nil, err
	}

	store := blob.Store(backend)
	var cache *lrustore.Store
	if cfg.Cache.Entries > 0 {
		cache, err = lrustore.Wrap(store, cfg.Cache.Entries)
		if err != nil {
			closeBackend()
			stopLoki()
			return nil, nil, fmt.Errorf("blob cache: %w", err)
		}
		store = cache
	}

	auditLogger, closeAudit, err := openAudit(cfg.AuditLog)
	if err != nil {
		closeBackend()
		stopLoki()
		return nil, nil, err
	}

	cat, err := catalog.Open(ctx, catalog.Config{
		Store:        store,
		Register:     backend,
		Resizer:      media.NewResizer(),
		Logger:       log.Logger,
		Audit:        auditLogger,
		Locale:       cfg.Locale,
		PreviewMaxPx: cfg.Media.PreviewMax,
		ScreenMaxPx:  cfg.Media.ScreenMax,
		MaxFileBytes: cfg.MaxFileSize.Bytes(),
	})
	if err != nil {
		closeAudit()
		closeBackend()
		stopLoki()
		return nil, nil, err
	}

	var stopAdmin func() error
	if metricsListen != "" {
		m := metrics.Init(nil)
		m.SetBuildInfo(Version, Commit)

		// Sample occupancy from whatever can count itself.
		cc := metrics.CollectorConfig{}
		if counter, ok := backend.(metrics.BlobCounter); ok {
			cc.Store = counter
		}
		if cache != nil {
			cc.Cache = cache
		}
		if cc.Store != nil || cc.Cache != nil {
			go metrics.NewCollector(m, cc).Run(ctx, 15*time.Second)
		}

		srv := admin.New(statusHandler(cat, cfg.Store.Backend))
		if err := srv.Start(metricsListen); err != nil {
			log.Warn().Err(err).Str("addr", metricsListen).Msg("failed to start admin server")
		} else {
			log.Info().Str("addr", metricsListen).Msg("admin server started")
			stopAdmin = srv.Stop
		}
	}

	cleanup := func() {
		if stopAdmin != nil {
			_ = stopAdmin()
		}
		closeAudit()
		closeBackend()
		stopLoki()
	}
	return cat, cleanup, nil
}

// openBackend builds the blob backend named by the config.
func openBackend(ctx context.Context, cfg *config.Config) (blob.Backend, func(), error) {
	noop := func() {}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		return memstore.New(), noop, nil

	case config.BackendFile:
		st, err := filestore.New(cfg.Store.File.Dir, cfg.Store.File.Secret)
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		return st, noop, nil

	case config.BackendBadger:
		st, err := badgerstore.Open(cfg.Store.Badger.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger store: %w", err)
		}
		return st, func() { _ = st.Close() }, nil

	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		st, err := pgstore.New(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		return st, func() { _ = db.Close() }, nil

	case config.BackendS3:
		st, err := s3store.New(ctx, s3store.Config{
			Endpoint:  cfg.Store.S3.Endpoint,
			Region:    cfg.Store.S3.Region,
			Bucket:    cfg.Store.S3.Bucket,
			AccessKey: cfg.Store.S3.AccessKey,
			SecretKey: cfg.Store.S3.SecretKey,
			Prefix:    cfg.Store.S3.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open s3 store: %w", err)
		}
		return st, noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// openAudit opens the append-only audit trail. An empty path disables it.
func openAudit(path string) (*audit.Logger, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	logger := audit.NewLogger(zerolog.New(f).With().Timestamp().Logger())
	return logger, func() { _ = f.Close() }, nil
}

// setupLokiLogging ships logs to Grafana Loki when the config asks for it,
// keeping the console writer alongside. The returned stop function flushes
// whatever is still buffered.
func setupLokiLogging(cfg *config.Config) func() {
	if !cfg.Loki.Enabled || cfg.Loki.URL == "" {
		return func() {}
	}

	flushInterval := 5 * time.Second
	if cfg.Loki.FlushInterval != "" {
		if d, err := time.ParseDuration(cfg.Loki.FlushInterval); err == nil {
			flushInterval = d
		}
	}

	writer := loki.NewWriter(loki.Config{
		URL:           cfg.Loki.URL,
		BatchSize:     cfg.Loki.BatchSize,
		FlushInterval: flushInterval,
		Labels: map[string]string{
			"backend": cfg.Store.Backend,
		},
	})
	writer.Start()

	log.Logger = log.Output(zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: os.Stderr},
		writer,
	))
	log.Info().Str("url", cfg.Loki.URL).Msg("shipping logs to loki")

	return writer.Stop
}

// statusHandler reports a small JSON summary of the open catalog.
func statusHandler(cat *catalog.Catalog, backend string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		summary := struct {
			Version string `json:"version"`
			Commit  string `json:"commit"`
			Backend string `json:"backend"`
			Albums  int    `json:"albums"`
		}{
			Version: Version,
			Commit:  Commit,
			Backend: backend,
			Albums:  len(cat.Albums()),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summary)
	})
}

func newInitCmd() *cobra.Command {
	var outputPath string

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter config with a fresh store secret",
		Long: `Generate a starter configuration file.

The file backend encrypts blobs at rest with a secret that cannot be
recovered or changed later, so init generates one and writes it into the
config. Keep a copy of the secret somewhere safe: without it the store
cannot be reopened.

Examples:
  # Write ~/.shoebox/config.yaml
  shoebox init

  # Write somewhere else
  shoebox init --output ./shoebox.yaml`,
		RunE: runInit,
	}
	initCmd.Flags().StringVarP(&outputPath, "output", "o", "", "config file to write (default ~/.shoebox/config.yaml)")

	return initCmd
}

// nolint:revive // args required by cobra.Command RunE signature
func runInit(cmd *cobra.Command, args []string) error {
	setupLogging()

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = defaultConfigPath()
		if outputPath == "" {
			return fmt.Errorf("cannot determine home directory; pass --output")
		}
	}

	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("config already exists: %s", outputPath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := writeStarterConfig(outputPath, generateStoreSecret()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Config generated: %s\n", outputPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Back up the store secret in the config file")
	fmt.Println("  2. shoebox album create \"My first album\"")
	fmt.Println("  3. shoebox add \"My first album\" photo.jpg")

	return nil
}

func generateStoreSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func writeStarterConfig(path, secret string) error {
	content := fmt.Sprintf(`# Shoebox configuration
locale: ""            # BCP 47 tag for name ordering, e.g. "en" or "da"
max_file_size: 0      # skip files larger than this during add; 0 = unlimited

media:
  preview_max: 320    # bounding box for preview renditions, in pixels
  screen_max: 1280    # bounding box for screen renditions, in pixels

cache:
  entries: 256        # in-memory blob cache; 0 disables

store:
  backend: file       # memory | file | badger | postgres | s3
  file:
    dir: ~/.shoebox/store
    # Encryption-at-rest key. The store can only be reopened with the
    # secret it was created with - keep a copy somewhere safe.
    secret: "%s"

# audit_log: ~/.shoebox/audit.log
`, secret)

	return os.WriteFile(path, []byte(content), 0o600)
}
