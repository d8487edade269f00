package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/shoebox/shoebox/internal/blob"
)

// Wire forms. The catalog blob is a JSON array of catalogRecord; an album
// document blob is a JSON array of documentRecord. Field names are part of
// the stored format and must not change.

type catalogRecord struct {
	Name        string  `json:"name"`
	AlbumFileID string  `json:"albumFileId"`
	AlbumID     string  `json:"albumId,omitempty"`
	ThumbFileID *string `json:"thumbFileId,omitempty"`
}

type documentRecord struct {
	Name             string   `json:"name"`
	FullFileID       string   `json:"fullFileId"`
	Mime             string   `json:"mime,omitempty"`
	ThumbFileID      string   `json:"thumbFileId,omitempty"`
	ScreenFileID     string   `json:"screenFileId,omitempty"`
	OriginalAlbumIDs []string `json:"originalAlbumIds,omitempty"`
}

// decodeCatalog parses and validates a catalog blob. Records may come back
// without an AlbumID; the caller mints ids for those. Any malformed record
// fails the whole load.
func decodeCatalog(data []byte) ([]*AlbumRecord, error) {
	var wire []catalogRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	records := make([]*AlbumRecord, 0, len(wire))
	for i, w := range wire {
		if w.Name == "" || w.AlbumFileID == "" {
			return nil, fmt.Errorf("catalog record %d: name and albumFileId are required", i)
		}
		rec := &AlbumRecord{
			Name:         w.Name,
			AlbumID:      w.AlbumID,
			CurrentToken: blob.Token(w.AlbumFileID),
		}
		if w.ThumbFileID != nil {
			rec.ThumbToken = blob.Token(*w.ThumbFileID)
		}
		records = append(records, rec)
	}
	return records, nil
}

// encodeCatalog serializes the album records. An empty catalog encodes as an
// empty array, never null.
func encodeCatalog(records []*AlbumRecord) ([]byte, error) {
	wire := make([]catalogRecord, 0, len(records))
	for _, rec := range records {
		w := catalogRecord{
			Name:        rec.Name,
			AlbumFileID: string(rec.CurrentToken),
			AlbumID:     rec.AlbumID,
		}
		if rec.ThumbToken != "" {
			thumb := string(rec.ThumbToken)
			w.ThumbFileID = &thumb
		}
		wire = append(wire, w)
	}
	return json.MarshalIndent(wire, "", "  ")
}

// decodeDocument parses and validates an album document blob.
func decodeDocument(data []byte) (*document, error) {
	var wire []documentRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse album document: %w", err)
	}
	doc := &document{files: make([]FileRecord, 0, len(wire))}
	for i, w := range wire {
		if w.Name == "" || w.FullFileID == "" {
			return nil, fmt.Errorf("file record %d: name and fullFileId are required", i)
		}
		doc.files = append(doc.files, FileRecord{
			Name:         w.Name,
			MediaType:    w.Mime,
			FullToken:    blob.Token(w.FullFileID),
			PreviewToken: blob.Token(w.ThumbFileID),
			ScreenToken:  blob.Token(w.ScreenFileID),
			Provenance:   w.OriginalAlbumIDs,
		})
	}
	return doc, nil
}

// encodeDocument serializes an album document. An empty album encodes as an
// empty array.
func encodeDocument(doc *document) ([]byte, error) {
	wire := make([]documentRecord, 0, len(doc.files))
	for i := range doc.files {
		f := &doc.files[i]
		wire = append(wire, documentRecord{
			Name:             f.Name,
			FullFileID:       string(f.FullToken),
			Mime:             f.MediaType,
			ThumbFileID:      string(f.PreviewToken),
			ScreenFileID:     string(f.ScreenToken),
			OriginalAlbumIDs: f.Provenance,
		})
	}
	return json.MarshalIndent(wire, "", "  ")
}
