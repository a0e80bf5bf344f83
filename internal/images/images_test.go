package images

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func fixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func decodeDataURL(t *testing.T, s string) image.Image {
	t.Helper()
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(s, prefix) {
		t.Fatalf("not a jpeg data URL: %.40s", s)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, prefix))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	if len(raw) > MaxBytes {
		t.Fatalf("encoded image is %d bytes, over the %d limit", len(raw), MaxBytes)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	return img
}

func TestProcessSmallImageKeepsDimensions(t *testing.T) {
	out, err := Process(fixture(t, 120, 80))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	img := decodeDataURL(t, out)
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 80 {
		t.Errorf("bounds = %v, want 120x80 untouched", img.Bounds())
	}
}

func TestProcessDownsizesLargeImage(t *testing.T) {
	out, err := Process(fixture(t, 2000, 1000))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	img := decodeDataURL(t, out)
	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		t.Errorf("bounds = %v, exceed %d", b, MaxDimension)
	}
	// Aspect ratio survives the fit.
	if b.Dx() != 800 || b.Dy() != 400 {
		t.Errorf("bounds = %v, want 800x400", b)
	}
}

func TestProcessRejectsNonImage(t *testing.T) {
	if _, err := Process([]byte("definitely not pixels")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := Process(nil); err == nil {
		t.Fatal("expected decode error for empty payload")
	}
}
