// Package images prepares avatar uploads for storage: bounded dimensions,
// bounded byte size, re-encoded and returned as a base64 data URL.
package images

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// MaxDimension bounds the longer image side in pixels.
	MaxDimension = 800
	// MaxBytes bounds the encoded image size.
	MaxBytes = 1 << 20

	startQuality = 85
	minQuality   = 30
	qualityStep  = 10
)

// Process decodes an uploaded image, downsizes it to fit MaxDimension,
// re-encodes it as JPEG within MaxBytes, and returns a data-URL string.
func Process(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	for quality := startQuality; ; quality -= qualityStep {
		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return "", fmt.Errorf("encode image: %w", err)
		}
		if buf.Len() <= MaxBytes || quality <= minQuality {
			break
		}
	}
	if buf.Len() > MaxBytes {
		return "", fmt.Errorf("image too large after compression: %d bytes", buf.Len())
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
