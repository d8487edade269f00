package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shoebox/shoebox/internal/blob"
	"github.com/shoebox/shoebox/pkg/mediakind"
)

// FileItem is one input to AddFiles.
type FileItem struct {
	Name      string
	MediaType string // MIME type; empty means detect from the name
	Content   []byte
}

// SkippedItem records an input AddFiles declined to store. Skips are
// warnings, not failures; the batch continues.
type SkippedItem struct {
	Name   string
	Reason string
}

// FailedItem records an input whose storage failed.
type FailedItem struct {
	Name string
	Err  error
}

// AddReport is the outcome of one AddFiles batch.
type AddReport struct {
	Added   []FileRecord
	Skipped []SkippedItem
	Failed  []FailedItem
}

// AddFiles stores a batch of files into an album. Items are processed
// independently and strictly in order: each accepted item is stored, its
// renditions derived, and the album cascade-saved before the next item
// begins, so a mid-batch crash loses at most the item in flight. Items of
// unsupported media kinds are skipped with a warning; an item whose storage
// fails is reported without aborting the batch. The returned report is
// never nil on success.
func (c *Catalog) AddFiles(ctx context.Context, albumID string, items []FileItem) (*AddReport, error) {
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

	opID := uuid.New().String()
	report := &AddReport{}
	for _, item := range items {
		doc = c.addOne(ctx, opID, rec, doc, item, report)
	}

	c.logger.Info().
		Str("op_id", opID).
		Str("album", rec.Name).
		Str("album_id", rec.AlbumID).
		Int("added", len(report.Added)).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Msg("add batch finished")
	c.audit.LogFilesAdded(opID, rec.Name, rec.AlbumID, len(report.Added), len(report.Skipped), len(report.Failed))
	return report, nil
}

// addOne attempts a single item and returns the album's current document,
// which advances only when the item committed.
func (c *Catalog) addOne(ctx context.Context, opID string, rec *AlbumRecord, doc *document, item FileItem, report *AddReport) *document {
	logger := c.logger.With().
		Str("op_id", opID).
		Str("album", rec.Name).
		Str("file", item.Name).
		Logger()

	if item.Name == "" {
		report.Failed = append(report.Failed, FailedItem{Name: item.Name, Err: ErrNameRequired})
		c.metrics.FilesFailed.Inc()
		logger.Warn().Msg("rejecting file without a name")
		return doc
	}

	mime, kind := mediakind.Detect(item.Name, item.MediaType)
	if !kind.Supported() {
		reason := "unknown media type"
		if mime != "" {
			reason = fmt.Sprintf("unsupported media type %q", mime)
		}
		report.Skipped = append(report.Skipped, SkippedItem{Name: item.Name, Reason: reason})
		c.metrics.FilesSkipped.WithLabelValues("unsupported").Inc()
		logger.Warn().Str("mime", mime).Msg("skipping file of unsupported media kind")
		return doc
	}

	if c.maxFileBytes > 0 && int64(len(item.Content)) > c.maxFileBytes {
		report.Skipped = append(report.Skipped, SkippedItem{
			Name:   item.Name,
			Reason: fmt.Sprintf("larger than the %d byte limit", c.maxFileBytes),
		})
		c.metrics.FilesSkipped.WithLabelValues("too_large").Inc()
		logger.Warn().Int("size", len(item.Content)).Msg("skipping file over the size limit")
		return doc
	}

	full, err := c.putBlob(ctx, item.Content)
	if err != nil {
		report.Failed = append(report.Failed, FailedItem{Name: item.Name, Err: fmt.Errorf("store content: %w", err)})
		c.metrics.FilesFailed.Inc()
		logger.Error().Err(err).Msg("failed to store file content")
		return doc
	}

	fr := FileRecord{
		Name:         item.Name,
		MediaType:    mime,
		FullToken:    full,
		PreviewToken: c.rendition(ctx, logger, "preview", item.Content, c.previewMax, full),
		ScreenToken:  c.rendition(ctx, logger, "screen", item.Content, c.screenMax, full),
	}

	// Stage the append on a copy so a failed save leaves the album as it
	// was, then cascade the staged document all the way to the register.
	next := &document{files: append(doc.snapshot(), fr)}
	c.sortFiles(next)
	if err := c.saveAlbum(ctx, rec, next, true); err != nil {
		report.Failed = append(report.Failed, FailedItem{Name: item.Name, Err: err})
		c.metrics.FilesFailed.Inc()
		logger.Error().Err(err).Msg("failed to save album document")
		return doc
	}

	report.Added = append(report.Added, fr.clone())
	c.metrics.FilesAdded.Inc()
	logger.Info().Str("token", string(full)).Msg("file added")
	return next
}

// rendition derives one bounded rendition of content and stores it. Any
// failure, resize or store, falls back to the original token so the item
// itself never fails over a rendition.
func (c *Catalog) rendition(ctx context.Context, logger zerolog.Logger, name string, content []byte, maxPx int, full blob.Token) blob.Token {
	if c.resizer == nil {
		return full
	}
	out, err := c.resizer.Resize(content, maxPx, maxPx)
	if err != nil {
		c.metrics.ResizeFallbacks.WithLabelValues(name).Inc()
		logger.Debug().Err(err).Str("rendition", name).Msg("resize failed, reusing original content")
		return full
	}
	tok, err := c.putBlob(ctx, out)
	if err != nil {
		c.metrics.ResizeFallbacks.WithLabelValues(name).Inc()
		logger.Warn().Err(err).Str("rendition", name).Msg("failed to store rendition, reusing original content")
		return full
	}
	return tok
}

// SetAlbumThumbnail pins the album's thumbnail to the given file's preview
// token. The pin is a plain assignment, not a tracked choice: a later add
// recomputes the thumbnail from the sorted document, and deleting the file
// leaves the pinned token in place, pointing at content no record claims.
func (c *Catalog) SetAlbumThumbnail(ctx context.Context, albumID string, fileToken blob.Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.findByID(albumID)
	if rec == nil {
		return fmt.Errorf("album %q: %w", albumID, ErrAlbumNotFound)
	}
	doc, err := c.document(ctx, rec)
	if err != nil {
		return err
	}
	i := doc.indexOf(fileToken)
	if i < 0 {
		return fmt.Errorf("file %q in album %q: %w", fileToken, rec.Name, ErrFileNotFound)
	}

	rec.ThumbToken = doc.files[i].PreviewToken
	if err := c.saveCatalog(ctx); err != nil {
		return err
	}

	c.logger.Info().
		Str("album", rec.Name).
		Str("album_id", rec.AlbumID).
		Str("file", doc.files[i].Name).
		Msg("album thumbnail set")
	c.audit.LogThumbnailSet(rec.Name, rec.AlbumID, string(rec.ThumbToken))
	return nil
}
