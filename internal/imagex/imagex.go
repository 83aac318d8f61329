// Package imagex re-encodes and resizes poster images.
package imagex

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // registered for image.Decode
	"image/jpeg"
	_ "image/png" // TMDB serves some artwork as PNG

	"golang.org/x/image/draw"
)

// DefaultQuality mirrors a 0.8 compression quality on a 0..1 scale.
const DefaultQuality = 80

// ErrEmpty is returned when no image bytes are supplied.
var ErrEmpty = errors.New("imagex: empty image data")

// Decode parses JPEG, PNG or GIF data.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", errors.New("imagex: invalid image dimensions")
	}
	return img, format, nil
}

// RecompressJPEG decodes data and encodes it again as JPEG at quality
// (1..100, out-of-range values fall back to DefaultQuality). The result is
// always a fresh JPEG, even when the input already was one.
func RecompressJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodeJPEG(img, quality)
}

// EncodeJPEG encodes img as JPEG at quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// Downsample scales img to fit within maxWidth x maxHeight preserving the
// aspect ratio. Images already inside the box are returned unchanged; a
// non-positive bound leaves that axis unconstrained.
func Downsample(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := 1.0
	if maxWidth > 0 && w > maxWidth {
		scale = float64(maxWidth) / float64(w)
	}
	if maxHeight > 0 && h > maxHeight {
		if s := float64(maxHeight) / float64(h); s < scale {
			scale = s
		}
	}
	if scale >= 1 {
		return img
	}
	dw := max(1, int(float64(w)*scale+0.5))
	dh := max(1, int(float64(h)*scale+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// DownsampleJPEG decodes data, downsamples it to the box, and encodes the
// result as JPEG.
func DownsampleJPEG(data []byte, maxWidth, maxHeight, quality int) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodeJPEG(Downsample(img, maxWidth, maxHeight), quality)
}
