package catalog

import "github.com/shoebox/shoebox/internal/blob"

// TrashAlbumName is the reserved album every catalog carries. It cannot be
// created, deleted, or wiped.
const TrashAlbumName = "Trash"

// AlbumRecord is one catalog entry: an album's identity plus the token of
// its current document. The catalog blob is exactly a list of these.
type AlbumRecord struct {
	// Name is the display name. Duplicates are allowed; identity lives in
	// AlbumID.
	Name string

	// AlbumID is the stable identifier minted at creation. It survives
	// renames and every document rewrite.
	AlbumID string

	// CurrentToken points at the album's current document blob and changes
	// on every mutation of the album.
	CurrentToken blob.Token

	// ThumbToken is the preview token of the file representing this album,
	// empty when the album has no usable thumbnail.
	ThumbToken blob.Token
}

// IsTrash reports whether this record is the reserved Trash album.
func (r *AlbumRecord) IsTrash() bool {
	return r.Name == TrashAlbumName
}

// FileRecord describes one stored file inside an album document.
type FileRecord struct {
	// Name is the display name files are sorted by.
	Name string

	// MediaType is the resolved MIME type, "" when unknown.
	MediaType string

	// FullToken points at the original content and doubles as the file's
	// identity within an album.
	FullToken blob.Token

	// PreviewToken and ScreenToken point at the renditions. Either may
	// equal FullToken when derivation fell back to the original.
	PreviewToken blob.Token
	ScreenToken  blob.Token

	// Provenance is the stack of album ids this file was trashed from,
	// most recent last. Empty outside Trash.
	Provenance []string
}

// clone returns a deep copy; Provenance is the only reference field.
func (f FileRecord) clone() FileRecord {
	cp := f
	if f.Provenance != nil {
		cp.Provenance = make([]string, len(f.Provenance))
		copy(cp.Provenance, f.Provenance)
	}
	return cp
}

// document is an album's content: the ordered list of its files. Documents
// are immutable on the wire; the catalog mutates an in-memory copy and
// stores a fresh blob.
type document struct {
	files []FileRecord
}

// indexOf returns the position of the first file whose FullToken matches,
// or -1.
func (d *document) indexOf(tok blob.Token) int {
	for i := range d.files {
		if d.files[i].FullToken == tok {
			return i
		}
	}
	return -1
}

// removeAt deletes the file at i, preserving order.
func (d *document) removeAt(i int) FileRecord {
	f := d.files[i]
	d.files = append(d.files[:i], d.files[i+1:]...)
	return f
}

// firstPreview returns the preview token of the first file, empty when the
// document has no files or the first file carries no preview.
func (d *document) firstPreview() blob.Token {
	if len(d.files) == 0 {
		return ""
	}
	return d.files[0].PreviewToken
}

// snapshot returns deep copies of the file records.
func (d *document) snapshot() []FileRecord {
	out := make([]FileRecord, len(d.files))
	for i := range d.files {
		out[i] = d.files[i].clone()
	}
	return out
}
