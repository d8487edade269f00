// Package catalog implements a two-level album/file catalog on top of an
// immutable blob store and a single mutable root register.
//
// All persisted state is copy-on-write: the catalog blob lists albums, each
// album record points at its current document blob, and the register holds
// the token of the current catalog blob. Mutations rewrite bottom-up
// (document, catalog, register); old blobs stay behind, unreferenced.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/shoebox/shoebox/internal/audit"
	"github.com/shoebox/shoebox/internal/blob"
	"github.com/shoebox/shoebox/internal/metrics"
)

// Rendition bounding boxes, overridable through Config.
const (
	DefaultPreviewMaxPx = 320
	DefaultScreenMaxPx  = 1280
)

// Resizer derives a rendition of media content that fits within the given
// bounding box. It fails for content it cannot decode; the catalog treats
// that as "reuse the original", never as an item failure.
type Resizer interface {
	Resize(data []byte, maxWidth, maxHeight int) ([]byte, error)
}

// Config carries the collaborators and tunables for Open.
type Config struct {
	// Store and Register are required.
	Store    blob.Store
	Register blob.Register

	// Resizer derives preview and screen renditions. When nil every
	// rendition token falls back to the original content token.
	Resizer Resizer

	// Logger receives operational logs. Pass zerolog.Nop() to silence.
	Logger zerolog.Logger

	// Audit receives mutation events; nil disables audit logging.
	Audit *audit.Logger

	// Locale is a BCP 47 tag selecting the collation for name ordering.
	// Empty means locale-neutral ordering.
	Locale string

	// PreviewMaxPx and ScreenMaxPx bound the renditions; zero means the
	// package default.
	PreviewMaxPx int
	ScreenMaxPx  int

	// MaxFileBytes skips add items larger than this; zero means no limit.
	MaxFileBytes int64
}

// Catalog is the in-memory root of the album hierarchy. It is safe for
// concurrent use within one process, but the register carries no optimistic
// check: with two writing processes the last catalog save wins.
type Catalog struct {
	mu       sync.Mutex
	store    blob.Store
	register blob.Register
	resizer  Resizer
	logger   zerolog.Logger
	audit    *audit.Logger
	metrics  *metrics.CatalogMetrics
	collator *collate.Collator

	previewMax   int
	screenMax    int
	maxFileBytes int64

	// records is the sorted album list, the in-memory source of truth.
	records []*AlbumRecord

	// docs caches loaded album documents by album id.
	docs map[string]*document
}

// Open loads the catalog from the register, or bootstraps a fresh one when
// the register is empty or its content is missing or malformed. It
// guarantees a Trash album exists before returning; no operation is usable
// until Open has succeeded.
func Open(ctx context.Context, cfg Config) (*Catalog, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	if cfg.Register == nil {
		return nil, errors.New("catalog: register is required")
	}

	tag := language.Und
	if cfg.Locale != "" {
		var err error
		tag, err = language.Parse(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("catalog: parse locale %q: %w", cfg.Locale, err)
		}
	}

	c := &Catalog{
		store:        cfg.Store,
		register:     cfg.Register,
		resizer:      cfg.Resizer,
		logger:       cfg.Logger,
		audit:        cfg.Audit,
		metrics:      metrics.Init(nil),
		collator:     collate.New(tag),
		previewMax:   cfg.PreviewMaxPx,
		screenMax:    cfg.ScreenMaxPx,
		maxFileBytes: cfg.MaxFileBytes,
		docs:         make(map[string]*document),
	}
	if c.previewMax <= 0 {
		c.previewMax = DefaultPreviewMaxPx
	}
	if c.screenMax <= 0 {
		c.screenMax = DefaultScreenMaxPx
	}
	if c.audit == nil {
		c.audit = audit.NewNop()
	}

	if err := c.bootstrap(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// bootstrap establishes the in-memory catalog and synthesizes the Trash
// album when absent.
func (c *Catalog) bootstrap(ctx context.Context) error {
	root, err := c.register.Read(ctx)
	if err != nil {
		return fmt.Errorf("read root register: %w", err)
	}

	records, fresh, err := c.loadRoot(ctx, root)
	if err != nil {
		return err
	}
	if fresh {
		c.records = nil
		if err := c.saveCatalog(ctx); err != nil {
			return err
		}
	} else {
		// Legacy catalogs may lack stable ids; mint them at load so
		// every album is addressable. They persist on the next save.
		for _, rec := range records {
			if rec.AlbumID == "" {
				rec.AlbumID = newAlbumID()
			}
		}
		c.records = records
		c.sortRecords()
	}

	if c.trash() == nil {
		if err := c.createTrash(ctx); err != nil {
			return err
		}
	}
	return nil
}

// loadRoot resolves the register value into album records. fresh reports
// that no usable catalog exists and a new one must be written. Transport
// failures are returned; a missing or malformed catalog blob is logged and
// treated as absent.
func (c *Catalog) loadRoot(ctx context.Context, root string) (records []*AlbumRecord, fresh bool, err error) {
	if root == "" {
		c.logger.Info().Msg("root register unset, starting a fresh catalog")
		return nil, true, nil
	}
	data, err := c.store.Get(ctx, blob.Token(root))
	if errors.Is(err, blob.ErrNotFound) {
		c.logger.Warn().Str("root", root).Msg("root register points at a missing blob, starting a fresh catalog")
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load catalog: %w", err)
	}
	records, err = decodeCatalog(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("root", root).Msg("catalog blob is malformed, starting a fresh catalog")
		return nil, true, nil
	}
	return records, false, nil
}

// createTrash synthesizes the reserved Trash album and cascade-saves.
func (c *Catalog) createTrash(ctx context.Context) error {
	doc := &document{}
	tok, err := c.putDocument(ctx, doc)
	if err != nil {
		return err
	}
	rec := &AlbumRecord{Name: TrashAlbumName, AlbumID: newAlbumID(), CurrentToken: tok}
	c.records = append(c.records, rec)
	c.sortRecords()
	c.docs[rec.AlbumID] = doc
	c.logger.Info().Str("album_id", rec.AlbumID).Msg("synthesized trash album")
	return c.saveCatalog(ctx)
}

// saveCatalog serializes the in-memory catalog, stores it, and points the
// register at the new token. The register write is blind: no read, no
// compare. On failure the in-memory state is not rolled back; the caller
// must treat the catalog as diverged from storage.
func (c *Catalog) saveCatalog(ctx context.Context) error {
	data, err := encodeCatalog(c.records)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	tok, err := c.putBlob(ctx, data)
	if err != nil {
		c.metrics.CatalogSaveFailures.Inc()
		return fmt.Errorf("store catalog: %w", err)
	}
	if err := c.register.Write(ctx, string(tok)); err != nil {
		c.metrics.CatalogSaveFailures.Inc()
		return fmt.Errorf("write root register: %w", err)
	}
	c.metrics.CatalogSaves.Inc()
	c.metrics.AlbumsTotal.Set(float64(len(c.records)))
	return nil
}

// putDocument serializes and stores an album document.
func (c *Catalog) putDocument(ctx context.Context, doc *document) (blob.Token, error) {
	data, err := encodeDocument(doc)
	if err != nil {
		return "", fmt.Errorf("encode album document: %w", err)
	}
	tok, err := c.putBlob(ctx, data)
	if err != nil {
		return "", fmt.Errorf("store album document: %w", err)
	}
	c.metrics.AlbumSaves.Inc()
	return tok, nil
}

// putBlob stores one blob and counts the write.
func (c *Catalog) putBlob(ctx context.Context, data []byte) (blob.Token, error) {
	tok, err := c.store.Put(ctx, data)
	if err != nil {
		return "", err
	}
	c.metrics.BlobsWritten.Inc()
	c.metrics.BlobBytesWritten.Add(float64(len(data)))
	return tok, nil
}

// saveAlbum runs the bottom-up cascade for one album: store the document,
// point the record at the fresh token, propagate through a catalog save.
// When recomputeThumb is set the record's thumbnail follows the first
// file's preview. A catalog failure after the document stored is logged and
// swallowed; the register keeps the previous root until the next successful
// save.
func (c *Catalog) saveAlbum(ctx context.Context, rec *AlbumRecord, doc *document, recomputeThumb bool) error {
	tok, err := c.putDocument(ctx, doc)
	if err != nil {
		return fmt.Errorf("album %q: %w", rec.Name, err)
	}
	rec.CurrentToken = tok
	if recomputeThumb {
		rec.ThumbToken = doc.firstPreview()
	}
	c.docs[rec.AlbumID] = doc
	if err := c.saveCatalog(ctx); err != nil {
		c.metrics.PropagationFailures.Inc()
		c.logger.Error().Err(err).
			Str("album", rec.Name).
			Str("album_id", rec.AlbumID).
			Msg("album saved but catalog propagation failed")
	}
	return nil
}

// document returns the album's document, loading and caching it on first
// access.
func (c *Catalog) document(ctx context.Context, rec *AlbumRecord) (*document, error) {
	if doc, ok := c.docs[rec.AlbumID]; ok {
		return doc, nil
	}
	data, err := c.store.Get(ctx, rec.CurrentToken)
	if err != nil {
		return nil, fmt.Errorf("load album %q: %w", rec.Name, err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("album %q: %w", rec.Name, err)
	}
	c.docs[rec.AlbumID] = doc
	return doc, nil
}

// sortRecords re-sorts the album list by name, locale-aware and stable.
func (c *Catalog) sortRecords() {
	sort.SliceStable(c.records, func(i, j int) bool {
		return c.collator.CompareString(c.records[i].Name, c.records[j].Name) < 0
	})
}

// sortFiles re-sorts a document's files by name, locale-aware and stable.
func (c *Catalog) sortFiles(doc *document) {
	sort.SliceStable(doc.files, func(i, j int) bool {
		return c.collator.CompareString(doc.files[i].Name, doc.files[j].Name) < 0
	})
}

func (c *Catalog) findByID(albumID string) *AlbumRecord {
	for _, rec := range c.records {
		if rec.AlbumID == albumID {
			return rec
		}
	}
	return nil
}

// findByName returns the first record with the given name in sort order.
func (c *Catalog) findByName(name string) *AlbumRecord {
	for _, rec := range c.records {
		if rec.Name == name {
			return rec
		}
	}
	return nil
}

func (c *Catalog) trash() *AlbumRecord {
	return c.findByName(TrashAlbumName)
}

// Albums returns a snapshot of all album records in sort order. Mutating
// the returned slice does not affect the catalog.
func (c *Catalog) Albums() []AlbumRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]AlbumRecord, len(c.records))
	for i, rec := range c.records {
		out[i] = *rec
	}
	return out
}

// Album returns the record for an album id.
func (c *Catalog) Album(albumID string) (AlbumRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.findByID(albumID)
	if rec == nil {
		return AlbumRecord{}, fmt.Errorf("album %q: %w", albumID, ErrAlbumNotFound)
	}
	return *rec, nil
}

// AlbumByName returns the first album with the given name in sort order.
// Names are not unique; callers that need an exact album use Album.
func (c *Catalog) AlbumByName(name string) (AlbumRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.findByName(name)
	if rec == nil {
		return AlbumRecord{}, fmt.Errorf("album %q: %w", name, ErrAlbumNotFound)
	}
	return *rec, nil
}

// Files returns a snapshot of an album's file records in sort order.
func (c *Catalog) Files(ctx context.Context, albumID string) ([]FileRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.findByID(albumID)
	if rec == nil {
		return nil, fmt.Errorf("album %q: %w", albumID, ErrAlbumNotFound)
	}
	doc, err := c.document(ctx, rec)
	if err != nil {
		return nil, err
	}
	return doc.snapshot(), nil
}

// Content fetches raw blob content by token.
func (c *Catalog) Content(ctx context.Context, token blob.Token) ([]byte, error) {
	return c.store.Get(ctx, token)
}

// CreateAlbum mints a new empty album and cascade-saves the catalog.
// Duplicate names are allowed; the reserved Trash name is not.
func (c *Catalog) CreateAlbum(ctx context.Context, name string) (AlbumRecord, error) {
	if name == "" {
		return AlbumRecord{}, ErrNameRequired
	}
	if name == TrashAlbumName {
		return AlbumRecord{}, fmt.Errorf("%q: %w", name, ErrNameReserved)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	doc := &document{}
	tok, err := c.putDocument(ctx, doc)
	if err != nil {
		return AlbumRecord{}, err
	}
	rec := &AlbumRecord{Name: name, AlbumID: newAlbumID(), CurrentToken: tok}
	c.records = append(c.records, rec)
	c.sortRecords()
	c.docs[rec.AlbumID] = doc
	if err := c.saveCatalog(ctx); err != nil {
		return AlbumRecord{}, err
	}

	c.logger.Info().Str("album", name).Str("album_id", rec.AlbumID).Msg("album created")
	c.audit.LogAlbumCreated(name, rec.AlbumID)
	return *rec, nil
}

// DeleteAlbum removes an album's record from the catalog and cascade-saves.
// The album's files are not moved to Trash; its document simply becomes
// unreachable. The Trash album itself cannot be deleted.
func (c *Catalog) DeleteAlbum(ctx context.Context, albumID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.findByID(albumID)
	if rec == nil {
		return fmt.Errorf("album %q: %w", albumID, ErrAlbumNotFound)
	}
	if rec.IsTrash() {
		return fmt.Errorf("delete album: %w", ErrTrashProtected)
	}

	for i, r := range c.records {
		if r == rec {
			c.records = append(c.records[:i], c.records[i+1:]...)
			break
		}
	}
	delete(c.docs, rec.AlbumID)
	if err := c.saveCatalog(ctx); err != nil {
		return err
	}

	c.logger.Info().Str("album", rec.Name).Str("album_id", rec.AlbumID).Msg("album deleted")
	c.audit.LogAlbumDeleted(rec.Name, rec.AlbumID)
	return nil
}

// DeleteAllAlbums drops every album except Trash, which is preserved as-is
// with its contents, and cascade-saves once.
func (c *Catalog) DeleteAllAlbums(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	trash := c.trash()
	if trash == nil {
		return ErrTrashMissing
	}

	dropped := len(c.records) - 1
	trashDoc, hasDoc := c.docs[trash.AlbumID]
	c.records = []*AlbumRecord{trash}
	c.docs = make(map[string]*document)
	if hasDoc {
		c.docs[trash.AlbumID] = trashDoc
	}
	if err := c.saveCatalog(ctx); err != nil {
		return err
	}

	c.logger.Warn().Int("albums_dropped", dropped).Msg("all albums deleted")
	c.audit.LogCatalogWiped(dropped)
	return nil
}
