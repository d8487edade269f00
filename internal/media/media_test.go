package media

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoebox/shoebox/testutil"
)

func decode(t *testing.T, data []byte) (image.Image, string) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img, format
}

func TestResize_FitsBoundingBox(t *testing.T) {
	r := NewResizer()
	src := testutil.JPEG(t, 800, 600)

	out, err := r.Resize(src, 320, 320)
	require.NoError(t, err)

	img, format := decode(t, out)
	assert.Equal(t, "jpeg", format)
	// Fit preserves the 4:3 aspect ratio inside the box.
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestResize_TallImage(t *testing.T) {
	r := NewResizer()
	src := testutil.JPEG(t, 600, 800)

	out, err := r.Resize(src, 320, 320)
	require.NoError(t, err)

	img, _ := decode(t, out)
	assert.Equal(t, 240, img.Bounds().Dx())
	assert.Equal(t, 320, img.Bounds().Dy())
}

func TestResize_NeverUpscales(t *testing.T) {
	r := NewResizer()
	src := testutil.JPEG(t, 64, 48)

	out, err := r.Resize(src, 320, 320)
	require.NoError(t, err)

	img, _ := decode(t, out)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestResize_PNGInputReencodesAsJPEG(t *testing.T) {
	r := NewResizer()
	src := testutil.PNG(t, 500, 500)

	out, err := r.Resize(src, 100, 100)
	require.NoError(t, err)

	img, format := decode(t, out)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestResize_UndecodableInput(t *testing.T) {
	r := NewResizer()
	_, err := r.Resize([]byte("definitely not an image"), 320, 320)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode image")
}

func TestOrientation_DefaultsToUpright(t *testing.T) {
	assert.Equal(t, 1, orientation(testutil.JPEG(t, 10, 10)))
	assert.Equal(t, 1, orientation([]byte("garbage")))
	assert.Equal(t, 1, orientation(nil))
}

func TestApplyOrientation(t *testing.T) {
	// 2x1 so the rotating cases swap the dimensions.
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))

	keeps := []int{1, 2, 3, 4}
	for _, o := range keeps {
		got := applyOrientation(img, o)
		assert.Equal(t, 2, got.Bounds().Dx(), "orientation %d", o)
		assert.Equal(t, 1, got.Bounds().Dy(), "orientation %d", o)
	}

	swaps := []int{5, 6, 7, 8}
	for _, o := range swaps {
		got := applyOrientation(img, o)
		assert.Equal(t, 1, got.Bounds().Dx(), "orientation %d", o)
		assert.Equal(t, 2, got.Bounds().Dy(), "orientation %d", o)
	}
}
