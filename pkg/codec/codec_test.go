package codec

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return NewImage(img)
}

func TestEncodeDecodeRoundTripPreservesBounds(t *testing.T) {
	c := New()
	path := filepath.Join(t.TempDir(), "img.mpc")

	original := solidImage(20, 10, color.RGBA{R: 255, A: 255})
	require.NoError(t, c.Encode(path, original, ""))

	decoded, err := c.Decode(path, "", "")
	require.NoError(t, err)
	cols, rows := decoded.Bounds()
	require.Equal(t, 20, cols)
	require.Equal(t, 10, rows)
}

func TestDecodeWithCropExtract(t *testing.T) {
	c := New()
	path := filepath.Join(t.TempDir(), "img.mpc")
	require.NoError(t, c.Encode(path, solidImage(100, 100, color.RGBA{G: 255, A: 255}), ""))

	decoded, err := c.Decode(path, "10x10+5+5", "")
	require.NoError(t, err)
	cols, rows := decoded.Bounds()
	require.Equal(t, 10, cols)
	require.Equal(t, 10, rows)
}

func TestDecodeWithResizeExtract(t *testing.T) {
	c := New()
	path := filepath.Join(t.TempDir(), "img.mpc")
	require.NoError(t, c.Encode(path, solidImage(100, 50, color.RGBA{B: 255, A: 255}), ""))

	decoded, err := c.Decode(path, "10x5", "")
	require.NoError(t, err)
	cols, rows := decoded.Bounds()
	require.Equal(t, 10, cols)
	require.Equal(t, 5, rows)
}

func TestParseGeometryRejectsGarbage(t *testing.T) {
	_, _, _, _, _, err := parseGeometry("not-a-geometry")
	require.ErrorIs(t, err, ErrUnsupportedExtract)
}
