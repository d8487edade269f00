// Package audit provides structured audit logging for catalog mutations.
// Every event carries structured fields for easy filtering and analysis.
package audit

import (
	"github.com/rs/zerolog"
)

// Logger records catalog mutations as structured audit events.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new audit logger from a zerolog.Logger.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

// NewNop returns a logger that silently discards all audit events.
func NewNop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// LogAlbumCreated logs the creation of an album.
// name: the album's display name
// albumID: the minted stable identifier
func (l *Logger) LogAlbumCreated(name, albumID string) {
	l.logger.Info().
		Str("event_type", "album_created").
		Str("album", name).
		Str("album_id", albumID).
		Msg("Album created")
}

// LogAlbumDeleted logs the removal of an album from the catalog. The
// album's files are not moved anywhere; its document becomes unreachable.
func (l *Logger) LogAlbumDeleted(name, albumID string) {
	l.logger.Info().
		Str("event_type", "album_deleted").
		Str("album", name).
		Str("album_id", albumID).
		Msg("Album deleted")
}

// LogCatalogWiped logs a delete-all-albums operation.
// dropped: how many albums were removed (Trash excluded)
func (l *Logger) LogCatalogWiped(dropped int) {
	l.logger.Warn().
		Str("event_type", "catalog_wiped").
		Int("albums_dropped", dropped).
		Msg("All albums deleted")
}

// LogFilesAdded logs the outcome of an add batch.
// opID: the batch operation id
func (l *Logger) LogFilesAdded(opID, album, albumID string, added, skipped, failed int) {
	level := zerolog.InfoLevel
	if failed > 0 {
		level = zerolog.WarnLevel
	}

	l.logger.WithLevel(level).
		Str("event_type", "files_added").
		Str("op_id", opID).
		Str("album", album).
		Str("album_id", albumID).
		Int("added", added).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Files added")
}

// LogFileTrashed logs a file moving from an album into Trash.
func (l *Logger) LogFileTrashed(name, fromAlbum, fromAlbumID string, token string) {
	l.logger.Info().
		Str("event_type", "file_trashed").
		Str("file", name).
		Str("album", fromAlbum).
		Str("album_id", fromAlbumID).
		Str("token", token).
		Msg("File moved to trash")
}

// LogFileRestored logs a file moving from Trash back to an album.
func (l *Logger) LogFileRestored(name, toAlbum, toAlbumID string, token string) {
	l.logger.Info().
		Str("event_type", "file_restored").
		Str("file", name).
		Str("album", toAlbum).
		Str("album_id", toAlbumID).
		Str("token", token).
		Msg("File restored from trash")
}

// LogFilePurged logs a permanent file removal.
// album: the album that held the record, usually Trash
func (l *Logger) LogFilePurged(name, album, albumID string, token string) {
	l.logger.Warn().
		Str("event_type", "file_purged").
		Str("file", name).
		Str("album", album).
		Str("album_id", albumID).
		Str("token", token).
		Msg("File removed forever")
}

// LogThumbnailSet logs an explicit album thumbnail assignment.
// token: the preview token assigned, may be empty when the chosen file has
// no preview
func (l *Logger) LogThumbnailSet(album, albumID, token string) {
	event := l.logger.Info().
		Str("event_type", "thumbnail_set").
		Str("album", album).
		Str("album_id", albumID)

	if token != "" {
		event = event.Str("token", token)
	}

	event.Msg("Album thumbnail set")
}
