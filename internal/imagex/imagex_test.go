package imagex

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestRecompressJPEGProducesJPEG(t *testing.T) {
	src := testPNG(t, 20, 30)

	out, err := RecompressJPEG(src, 80)
	if err != nil {
		t.Fatalf("RecompressJPEG: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
	if cfg.Width != 20 || cfg.Height != 30 {
		t.Fatalf("dimensions changed: %dx%d", cfg.Width, cfg.Height)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("jpeg decode: %v", err)
	}
}

func TestRecompressJPEGRejectsGarbage(t *testing.T) {
	if _, err := RecompressJPEG(nil, 80); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := RecompressJPEG([]byte("not an image"), 80); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEncodeJPEGClampsQuality(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if _, err := EncodeJPEG(img, 0); err != nil {
		t.Fatalf("EncodeJPEG with zero quality: %v", err)
	}
	if _, err := EncodeJPEG(img, 101); err != nil {
		t.Fatalf("EncodeJPEG with quality above range: %v", err)
	}
}

func TestDownsamplePreservesAspect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 600))

	got := Downsample(img, 100, 0).Bounds()
	if got.Dx() != 100 || got.Dy() != 150 {
		t.Fatalf("unexpected size %dx%d", got.Dx(), got.Dy())
	}

	got = Downsample(img, 300, 150).Bounds()
	if got.Dx() != 100 || got.Dy() != 150 {
		t.Fatalf("height bound should win, got %dx%d", got.Dx(), got.Dy())
	}

	if same := Downsample(img, 1000, 1000); same != image.Image(img) {
		t.Fatal("expected image inside bounds to be returned unchanged")
	}
}

func TestDownsampleJPEG(t *testing.T) {
	out, err := DownsampleJPEG(testPNG(t, 40, 60), 20, 0, 80)
	if err != nil {
		t.Fatalf("DownsampleJPEG: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 20 || cfg.Height != 30 {
		t.Fatalf("unexpected size %dx%d", cfg.Width, cfg.Height)
	}
}
