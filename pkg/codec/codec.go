// Package codec defines the image-codec collaborator spec §1 and §4.5
// place out of the repository engine's scope, plus a reference
// implementation so the module is usable standalone.
//
// The core never inspects pixel data or image file formats itself; it
// only calls Codec to decode/encode at a target path and to report
// dimensions, and passes the user's extract string to Decode unchanged
// without validating it (spec §9's explicit delegation).
package codec

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strconv"
	"strings"
)

// ErrUnsupportedExtract is returned when an extract geometry string
// cannot be parsed by the reference codec. Spec §9 notes this syntax
// is inherited from the real collaborator and validation is delegated
// to it — this reference implementation supports the two forms spec
// §4.5 documents ("WxH+X+Y" crop, "WxH" resize) and rejects anything
// else.
var ErrUnsupportedExtract = errors.New("codec: unsupported extract geometry")

// Image is the decoded in-memory form the core hands back from
// GetImage and accepts into PutImage. It wraps the standard library's
// image.Image so the reference codec needs no external image library,
// while keeping the core's payload union (spec §9) agnostic to the
// concrete representation.
type Image struct {
	img image.Image
}

// NewImage wraps a decoded standard-library image.
func NewImage(img image.Image) *Image { return &Image{img: img} }

// Bounds returns the image's pixel dimensions as (columns, rows).
func (m *Image) Bounds() (columns, rows int) {
	b := m.img.Bounds()
	return b.Dx(), b.Dy()
}

// Img exposes the underlying standard-library image for callers (e.g.
// tests) that want to inspect pixels directly.
func (m *Image) Img() image.Image { return m.img }

// Codec is the out-of-scope image collaborator's contract as seen by
// the repository engine (spec §4.5 PutImage/GetImage).
type Codec interface {
	// Decode reads and decodes the image at path, optionally applying
	// an extract geometry suffix ("WxH+X+Y" crop or "WxH" resize). An
	// empty extract means "no extraction requested". passphrase is the
	// per-image encryption passphrase from spec §6.3's -passphrase flag,
	// forwarded unchanged; the core never inspects or validates it (the
	// same opaque-delegation treatment as extract).
	Decode(path string, extract string, passphrase string) (*Image, error)

	// Encode writes img to path in the codec's native, memory-mappable,
	// no-decode-needed format (the "MPC" hint of spec §4.5 PutImage).
	// passphrase is forwarded unchanged, as in Decode.
	Encode(path string, img *Image, passphrase string) error
}

// mpcCodec is the reference Codec implementation. It stands in for
// ImageMagick's MPC format using the standard library's image/png
// instead: PNG is not itself mmap-random-access-friendly, but no
// image-processing library appears anywhere in the retrieval pack, so
// this reference implementation is necessarily standard-library based
// (see DESIGN.md). Production deployments are expected to supply their
// own Codec bound to a real image library or to ImageMagick itself.
type mpcCodec struct{}

// New returns the reference Codec implementation.
func New() Codec { return mpcCodec{} }

// Decode ignores passphrase: the reference codec has no encryption
// support (no cipher library appears anywhere in the retrieval pack,
// see DESIGN.md). A real Codec bound to ImageMagick or a cipher-aware
// format would use it to decrypt path before decoding.
func (mpcCodec) Decode(path string, extract string, passphrase string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", path, err)
	}

	if extract == "" {
		return &Image{img: img}, nil
	}
	return applyExtract(img, extract)
}

// Encode ignores passphrase for the same reason Decode does.
func (mpcCodec) Encode(path string, img *Image, passphrase string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img.img)
}

// applyExtract implements the two extract forms spec §4.5/§9 name:
// "WxH+X+Y" crops to that rectangle, "WxH" resizes preserving aspect
// is approximated here by a simple nearest-neighbour resize (the real
// collaborator is responsible for a faithful resize; this reference
// implementation only needs to be functionally complete).
func applyExtract(img image.Image, extract string) (*Image, error) {
	w, h, x, y, hasOffset, err := parseGeometry(extract)
	if err != nil {
		return nil, err
	}

	if hasOffset {
		rect := image.Rect(x, y, x+w, y+h)
		cropped := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(cropped, cropped.Bounds(), img, rect.Min, draw.Src)
		return &Image{img: cropped}, nil
	}
	return &Image{img: resizeNearest(img, w, h)}, nil
}

// parseGeometry parses "WxH+X+Y" or "WxH". Zero width/height is
// allowed through unchanged — spec §8 boundary behaviours require the
// value be "propagated to the codec unchanged", not rejected here.
func parseGeometry(extract string) (w, h, x, y int, hasOffset bool, err error) {
	plusIdx := strings.IndexByte(extract, '+')
	dims := extract
	if plusIdx >= 0 {
		dims = extract[:plusIdx]
		hasOffset = true
	}

	xIdx := strings.IndexByte(dims, 'x')
	if xIdx < 0 {
		return 0, 0, 0, 0, false, ErrUnsupportedExtract
	}
	w, err = strconv.Atoi(dims[:xIdx])
	if err != nil {
		return 0, 0, 0, 0, false, fmt.Errorf("%w: %v", ErrUnsupportedExtract, err)
	}
	h, err = strconv.Atoi(dims[xIdx+1:])
	if err != nil {
		return 0, 0, 0, 0, false, fmt.Errorf("%w: %v", ErrUnsupportedExtract, err)
	}

	if hasOffset {
		rest := extract[plusIdx+1:]
		parts := strings.Split(rest, "+")
		if len(parts) != 2 {
			return 0, 0, 0, 0, false, ErrUnsupportedExtract
		}
		x, err = strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, 0, 0, false, fmt.Errorf("%w: %v", ErrUnsupportedExtract, err)
		}
		y, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, 0, 0, false, fmt.Errorf("%w: %v", ErrUnsupportedExtract, err)
		}
	}
	return w, h, x, y, hasOffset, nil
}

func resizeNearest(src image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for dy := 0; dy < h; dy++ {
		sy := b.Min.Y + dy*b.Dy()/h
		for dx := 0; dx < w; dx++ {
			sx := b.Min.X + dx*b.Dx()/w
			dst.Set(dx, dy, colorAt(src, sx, sy))
		}
	}
	return dst
}

func colorAt(img image.Image, x, y int) color.Color {
	return img.At(x, y)
}
