package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

const jpegQuality = 85

// IsResizable reports whether Downscale handles files with this extension.
func IsResizable(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Downscale shrinks a JPEG or PNG wider than maxWidth, keeping the aspect
// ratio and the original encoding. It reports whether data was changed.
func Downscale(data []byte, ext string, maxWidth int) ([]byte, bool, error) {
	if maxWidth <= 0 || !IsResizable(ext) {
		return data, false, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= maxWidth {
		return data, false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	newH := bounds.Dy() * maxWidth / bounds.Dx()
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch strings.ToLower(ext) {
	case ".png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, false, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), true, nil
}
