package catalog

import "errors"

// Catalog errors. Operations wrap these with context; callers match with
// errors.Is.
var (
	// ErrNameRequired is returned when an album or file is given no name.
	ErrNameRequired = errors.New("name required")

	// ErrNameReserved is returned when an album would take the reserved
	// Trash name.
	ErrNameReserved = errors.New("album name is reserved")

	// ErrAlbumNotFound is returned when no album matches the given id.
	ErrAlbumNotFound = errors.New("album not found")

	// ErrFileNotFound is returned when an album holds no file with the
	// given token.
	ErrFileNotFound = errors.New("file not found in album")

	// ErrTrashMissing is returned when the reserved Trash album is absent.
	// Bootstrap synthesizes Trash, so this only happens if the catalog was
	// mutated behind our back.
	ErrTrashMissing = errors.New("trash album missing from catalog")

	// ErrTrashProtected is returned when an operation would delete the
	// Trash album or move files from Trash into itself.
	ErrTrashProtected = errors.New("trash album is protected")

	// ErrNoProvenance is returned when a trashed file has no recorded
	// origin to restore to.
	ErrNoProvenance = errors.New("file has no album to restore to")
)
