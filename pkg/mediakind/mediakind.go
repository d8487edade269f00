// Package mediakind classifies content into the media kinds the catalog
// accepts. Classification is by MIME type, with a filename-extension
// fallback for callers that don't know the type.
package mediakind

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind is a coarse media class.
type Kind int

const (
	Unknown Kind = iota
	Image
	Video
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return "unknown"
	}
}

// Supported reports whether the catalog stores this kind at all.
func (k Kind) Supported() bool {
	return k == Image || k == Video
}

// Video extensions the stdlib mime table doesn't carry.
var videoExt = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// FromMIME classifies a MIME type string.
func FromMIME(mimeType string) Kind {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return Image
	case strings.HasPrefix(mt, "video/"):
		return Video
	default:
		return Unknown
	}
}

// Detect resolves a media type for a file. An explicit mimeType wins; when it
// is empty the filename extension is consulted. Returns the resolved MIME
// type (possibly "") and its kind.
func Detect(name, mimeType string) (string, Kind) {
	if mimeType != "" {
		return mimeType, FromMIME(mimeType)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := videoExt[ext]; ok {
		return mt, Video
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt, FromMIME(mt)
	}
	return "", Unknown
}
