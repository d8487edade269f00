// Package media derives bounded renditions of still images. Video and any
// other non-decodable content fail here; the catalog falls back to the
// original content token in that case.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// DefaultQuality is the JPEG quality renditions are encoded with.
const DefaultQuality = 80

// Resizer decodes an image, corrects its EXIF orientation, and re-encodes
// a copy that fits a bounding box. Implements catalog.Resizer.
type Resizer struct {
	// Quality is the JPEG encode quality, 1 to 100. Zero means
	// DefaultQuality.
	Quality int
}

// NewResizer returns a Resizer with default settings.
func NewResizer() *Resizer {
	return &Resizer{Quality: DefaultQuality}
}

// Resize fits the image within maxWidth x maxHeight preserving aspect
// ratio, never upscaling, and returns it as JPEG. Orientation metadata is
// applied to the pixels so the rendition displays upright without EXIF.
func (r *Resizer) Resize(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = applyOrientation(img, orientation(data))
	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	quality := r.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
