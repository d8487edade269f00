package catalog

import (
	"context"
	"fmt"

	"github.com/shoebox/shoebox/internal/blob"
)

// MoveToTrash removes a file from an album and appends it to Trash,
// recording the album it left on the file's provenance stack. Trash is
// cascade-saved first, then the source album; a failure between the two
// leaves the file listed in both until the next successful save of the
// source.
func (c *Catalog) MoveToTrash(ctx context.Context, albumID string, fileToken blob.Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.findByID(albumID)
	if rec == nil {
		return fmt.Errorf("album %q: %w", albumID, ErrAlbumNotFound)
	}
	if rec.IsTrash() {
		return fmt.Errorf("move to trash: %w", ErrTrashProtected)
	}
	trash := c.trash()
	if trash == nil {
		return ErrTrashMissing
	}

	srcDoc, err := c.document(ctx, rec)
	if err != nil {
		return err
	}
	trashDoc, err := c.document(ctx, trash)
	if err != nil {
		return err
	}

	i := srcDoc.indexOf(fileToken)
	if i < 0 {
		return fmt.Errorf("file %q in album %q: %w", fileToken, rec.Name, ErrFileNotFound)
	}

	// Stage both documents on copies; neither becomes current until its
	// cascade save succeeds.
	nextSrc := &document{files: srcDoc.snapshot()}
	moved := nextSrc.removeAt(i)
	if n := len(moved.Provenance); n == 0 || moved.Provenance[n-1] != rec.AlbumID {
		moved.Provenance = append(moved.Provenance, rec.AlbumID)
	}
	nextTrash := &document{files: append(trashDoc.snapshot(), moved)}
	c.sortFiles(nextTrash)

	if err := c.saveAlbum(ctx, trash, nextTrash, false); err != nil {
		return err
	}
	if err := c.saveAlbum(ctx, rec, nextSrc, false); err != nil {
		return err
	}

	c.metrics.FilesTrashed.Inc()
	c.logger.Info().
		Str("file", moved.Name).
		Str("album", rec.Name).
		Str("album_id", rec.AlbumID).
		Msg("file moved to trash")
	c.audit.LogFileTrashed(moved.Name, rec.Name, rec.AlbumID, string(moved.FullToken))
	return nil
}

// RestoreFromTrash returns a trashed file to the album it was most recently
// removed from, popping that album from its provenance stack. It fails when
// the file has no recorded origin or the origin album no longer exists; the
// file then stays in Trash untouched. Returns the album the file went back
// to.
func (c *Catalog) RestoreFromTrash(ctx context.Context, fileToken blob.Token) (AlbumRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	trash := c.trash()
	if trash == nil {
		return AlbumRecord{}, ErrTrashMissing
	}
	trashDoc, err := c.document(ctx, trash)
	if err != nil {
		return AlbumRecord{}, err
	}

	i := trashDoc.indexOf(fileToken)
	if i < 0 {
		return AlbumRecord{}, fmt.Errorf("file %q in trash: %w", fileToken, ErrFileNotFound)
	}
	prov := trashDoc.files[i].Provenance
	if len(prov) == 0 {
		return AlbumRecord{}, fmt.Errorf("file %q: %w", fileToken, ErrNoProvenance)
	}
	targetID := prov[len(prov)-1]
	target := c.findByID(targetID)
	if target == nil {
		return AlbumRecord{}, fmt.Errorf("restore target %q: %w", targetID, ErrAlbumNotFound)
	}
	targetDoc, err := c.document(ctx, target)
	if err != nil {
		return AlbumRecord{}, err
	}

	nextTrash := &document{files: trashDoc.snapshot()}
	moved := nextTrash.removeAt(i)
	moved.Provenance = moved.Provenance[:len(moved.Provenance)-1]
	if len(moved.Provenance) == 0 {
		moved.Provenance = nil
	}
	nextTarget := &document{files: append(targetDoc.snapshot(), moved)}
	c.sortFiles(nextTarget)

	if err := c.saveAlbum(ctx, target, nextTarget, false); err != nil {
		return AlbumRecord{}, err
	}
	if err := c.saveAlbum(ctx, trash, nextTrash, false); err != nil {
		return AlbumRecord{}, err
	}

	c.metrics.FilesRestored.Inc()
	c.logger.Info().
		Str("file", moved.Name).
		Str("album", target.Name).
		Str("album_id", target.AlbumID).
		Msg("file restored from trash")
	c.audit.LogFileRestored(moved.Name, target.Name, target.AlbumID, string(moved.FullToken))
	return *target, nil
}

// RemoveForever deletes a file record from whichever album currently holds
// it, usually Trash. The content blobs stay in the store but nothing in the
// catalog references them afterward. There is no undo.
func (c *Catalog) RemoveForever(ctx context.Context, albumID string, fileToken blob.Token) error {
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

	next := &document{files: doc.snapshot()}
	removed := next.removeAt(i)
	if err := c.saveAlbum(ctx, rec, next, false); err != nil {
		return err
	}

	c.metrics.FilesPurged.Inc()
	c.logger.Info().
		Str("file", removed.Name).
		Str("album", rec.Name).
		Str("album_id", rec.AlbumID).
		Msg("file removed forever")
	c.audit.LogFilePurged(removed.Name, rec.Name, rec.AlbumID, string(removed.FullToken))
	return nil
}
