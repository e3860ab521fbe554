package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned when bytes do not hold a decodable raster image.
var ErrNotImage = errors.New("not a supported image")

// SupportedFormats lists the file extensions accepted for loading.
var SupportedFormats = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// IsSupportedFormat reports whether a file extension is supported for loading.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range SupportedFormats {
		if ext == f {
			return true
		}
	}
	return false
}

// Decode sniffs and decodes raw image bytes. The result is an RGBA copy
// anchored at the origin.
func Decode(data []byte) (*image.RGBA, string, error) {
	if !filetype.IsImage(data) {
		return nil, "", ErrNotImage
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("%w: empty bitmap", ErrNotImage)
	}
	return CopyRGBA(img), format, nil
}

// Load reads and decodes an image file into a new record.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return NewRecord(img, path), nil
}

// LoadFolder returns the supported image files directly inside dir, sorted by name.
func LoadFolder(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFormat(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Fit shrinks img to fit inside bounds keeping the aspect ratio. Images that
// already fit are returned unchanged.
func Fit(img image.Image, bounds image.Point) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if bounds.X <= 0 || bounds.Y <= 0 || (w <= bounds.X && h <= bounds.Y) {
		return img
	}
	scale := min(float64(bounds.X)/float64(w), float64(bounds.Y)/float64(h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
