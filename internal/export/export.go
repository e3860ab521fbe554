// Package export writes records and composites to image files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"strings"

	lcimage "layercanvas/internal/image"

	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedFormat is returned for file extensions that cannot be written.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format is an output file format.
type Format int

const (
	PNG Format = iota
	JPEG
	BMP
	TIFF
	GIF
)

var formatNames = map[Format]string{
	PNG:  "png",
	JPEG: "jpeg",
	BMP:  "bmp",
	TIFF: "tiff",
	GIF:  "gif",
}

func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the preferred file extension, with the dot.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return ".jpg"
	case TIFF:
		return ".tiff"
	}
	return "." + f.String()
}

// Opaque reports whether the format has no alpha channel.
func (f Format) Opaque() bool {
	return f == JPEG || f == BMP
}

// FormatFor picks the format from a path's extension.
func FormatFor(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseFormat resolves a format name or extension such as "jpg".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	case "gif":
		return GIF, nil
	}
	return PNG, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Options control encoding.
type Options struct {
	Quality    int         // JPEG quality, 1-100
	Background color.Color // Fill behind transparent pixels for opaque formats
}

// DefaultOptions encodes JPEG at quality 95 onto white.
func DefaultOptions() Options {
	return Options{Quality: 95, Background: color.White}
}

// Encoder returns the encoder for a format.
func Encoder(f Format, opts Options) imgio.Encoder {
	switch f {
	case JPEG:
		q := opts.Quality
		if q <= 0 || q > 100 {
			q = DefaultOptions().Quality
		}
		return imgio.JPEGEncoder(q)
	case BMP:
		return imgio.BMPEncoder()
	case TIFF:
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}
	case GIF:
		return func(w io.Writer, img image.Image) error {
			return gif.Encode(w, img, &gif.Options{NumColors: 256})
		}
	}
	return imgio.PNGEncoder()
}

// Prepare returns img as it will be encoded: opaque formats are flattened
// onto the background colour.
func Prepare(img image.Image, f Format, opts Options) image.Image {
	if !f.Opaque() {
		return img
	}
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	return lcimage.Flatten(img, bg)
}

// Save writes img to path in the format its extension names. Missing parent
// directories are created.
func Save(path string, img image.Image, opts Options) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := imgio.Save(path, Prepare(img, f, opts), Encoder(f, opts)); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SaveRecord writes a record as painted, with its rotation applied.
func SaveRecord(path string, r *lcimage.Record, opts Options) error {
	if r == nil {
		return errors.New("save: no record")
	}
	return Save(path, r.Rendered(), opts)
}
