// Package export renders the wall as a PNG at a fixed pixel density,
// independent of the current pan and zoom.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/drummonds/artwall/internal/scene"
)

// PixelRatio is the device pixels per wall unit of an export.
const PixelRatio = 2.0

// MaxPixels bounds the size of an export.
const MaxPixels = 100_000_000

var ErrExport = errors.New("export failed")

// PNG writes the wall at PixelRatio.
func PNG(s *scene.Scene, w io.Writer) error {
	return Encode(s, w, PixelRatio)
}

// Encode writes the wall at ratio as PNG. Rendering failures, panics
// included, are reported as ErrExport.
func Encode(s *scene.Scene, w io.Writer, ratio float64) (err error) {
	if !(ratio > 0) {
		return fmt.Errorf("%w: pixel ratio %v", ErrExport, ratio)
	}
	size := s.CanonicalSize(ratio)
	if size.X <= 0 || size.Y <= 0 || size.X*size.Y > MaxPixels {
		return fmt.Errorf("%w: %dx%d pixels", ErrExport, size.X, size.Y)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExport, r)
		}
	}()
	dc := s.Canonical(ratio, false)
	if err := png.Encode(w, dc.Image()); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}

// FileName is the export file name for a moment in time.
func FileName(now time.Time) string {
	return fmt.Sprintf("artwall-%d.png", now.UnixMilli())
}

// File renders the wall into dir and returns the path written. Nothing is
// written unless the whole image encoded.
func File(s *scene.Scene, dir string, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := PNG(s, &buf); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExport, err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: %v", ErrExport, err)
	}
	log.Printf("export: wrote %s (%d bytes)", path, buf.Len())
	return path, nil
}
