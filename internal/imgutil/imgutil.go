// Package imgutil prepares scan images for transport to the recognition
// service: decode, downscale to a bounded size, re-encode as JPEG, base64.
// Nothing else happens to the pixels.
package imgutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"golang.org/x/image/draw"

	// register decoders for the accepted scan formats
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds both sides of the transported image.
	MaxDimension = 1024
	// JPEGQuality is the re-encode quality for transport.
	JPEGQuality = 90
)

// EncodeFile reads an image file, downscales it to fit
// MaxDimension x MaxDimension (aspect ratio preserved, never upscaled),
// re-encodes it as JPEG and returns the base64 payload.
func EncodeFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return Encode(raw)
}

// Encode is EncodeFile for in-memory bytes.
func Encode(raw []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fit scales img down so both dimensions are <= limit. Images already within
// the limit are returned unchanged.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}
	scale := float64(limit) / float64(w)
	if h > w {
		scale = float64(limit) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
