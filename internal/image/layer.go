// Package image provides image records, loading, and compositing.
package image

import (
	"bytes"
	"image"

	"layercanvas/pkg/geometry"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"
)

// Record is one placed bitmap on the canvas plus its transform metadata.
// The bitmap is owned exclusively by the record; Clone never aliases it.
type Record struct {
	Path     string      // Provenance, for display and re-save
	Position image.Point // Top-left placement on the canvas
	Visible  bool        // Invisible records are skipped when painting

	pixels   *image.RGBA
	original *image.RGBA // As first placed; replaced only by ReplaceOriginal
	rotation float64     // Degrees in [0, 360), counter-clockwise, applied at render time
	width    int
	height   int

	rendered    *image.RGBA
	renderedFor float64
}

// NewRecord creates a visible record at the origin holding a private copy of img.
func NewRecord(img image.Image, path string) *Record {
	r := &Record{Path: path, Visible: true}
	r.SetPixels(img)
	r.original = CopyRGBA(r.pixels)
	return r
}

// Pixels returns the record's bitmap. Callers must not modify it; use SetPixels.
func (r *Record) Pixels() *image.RGBA {
	return r.pixels
}

// Original returns the bitmap as first placed.
func (r *Record) Original() *image.RGBA {
	return r.original
}

// SetPixels stores a private copy of img and refreshes the cached size.
func (r *Record) SetPixels(img image.Image) {
	r.pixels = CopyRGBA(img)
	b := r.pixels.Bounds()
	r.width, r.height = b.Dx(), b.Dy()
	r.rendered = nil
}

// ReplaceOriginal makes the current pixels the new original.
func (r *Record) ReplaceOriginal() {
	r.original = CopyRGBA(r.pixels)
}

// Width returns the bitmap width in pixels.
func (r *Record) Width() int {
	return r.width
}

// Height returns the bitmap height in pixels.
func (r *Record) Height() int {
	return r.height
}

// Rotation returns the render-time rotation in degrees.
func (r *Record) Rotation() float64 {
	return r.rotation
}

// SetRotation sets the render-time rotation, normalised into [0, 360).
func (r *Record) SetRotation(deg float64) {
	deg = geometry.NormalizeDegrees(deg)
	if deg != r.rotation {
		r.rotation = deg
		r.rendered = nil
	}
}

// Rotate adds delta degrees to the render-time rotation.
func (r *Record) Rotate(delta float64) {
	r.SetRotation(r.rotation + delta)
}

// Rendered returns the bitmap as painted: rotated with an expanded bounding box.
func (r *Record) Rendered() *image.RGBA {
	if r.rotation == 0 {
		return r.pixels
	}
	if r.rendered == nil || r.renderedFor != r.rotation {
		// bild rotates clockwise
		r.rendered = transform.Rotate(r.pixels, -r.rotation, &transform.RotationOptions{ResizeBounds: true})
		r.renderedFor = r.rotation
	}
	return r.rendered
}

// Footprint returns the painted size, which grows with rotation.
func (r *Record) Footprint() image.Point {
	if r.rotation == 0 {
		return image.Pt(r.width, r.height)
	}
	return r.Rendered().Bounds().Size()
}

// Bounds returns the axis-aligned box the record occupies on the canvas.
func (r *Record) Bounds() image.Rectangle {
	return image.Rectangle{Min: r.Position, Max: r.Position.Add(r.Footprint())}
}

// Contains reports whether the canvas point lies inside the record's box, edges included.
func (r *Record) Contains(p image.Point) bool {
	return geometry.ContainsInclusive(r.Bounds(), p)
}

// BakeRotation writes the rotation into the pixels and resets it to zero.
func (r *Record) BakeRotation() {
	if r.rotation == 0 {
		return
	}
	r.SetPixels(r.Rendered())
	r.rotation = 0
}

// ResetToOriginal restores the pixels from the original bitmap.
func (r *Record) ResetToOriginal() {
	r.SetPixels(r.original)
}

// ScaledOriginal returns the original bitmap resized by pct percent, at least 1x1.
func (r *Record) ScaledOriginal(pct float64) *image.RGBA {
	b := r.original.Bounds()
	w := max(1, int(float64(b.Dx())*pct/100))
	h := max(1, int(float64(b.Dy())*pct/100))
	return transform.Resize(r.original, w, h, transform.Lanczos)
}

// CenterOn positions the record's footprint in the middle of a canvas.
func (r *Record) CenterOn(canvas image.Point) {
	r.Position = geometry.CenteredIn(canvas, r.Footprint())
}

// Clone returns a deep copy. The original bitmap is shared because it is never
// written in place.
func (r *Record) Clone() *Record {
	return &Record{
		Path:     r.Path,
		Position: r.Position,
		Visible:  r.Visible,
		pixels:   CopyRGBA(r.pixels),
		original: r.original,
		rotation: r.rotation,
		width:    r.width,
		height:   r.height,
	}
}

// Equal reports whether two records hold identical pixels and metadata.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Path == other.Path &&
		r.Position == other.Position &&
		r.Visible == other.Visible &&
		r.rotation == other.rotation &&
		SamePixels(r.pixels, other.pixels)
}

// SamePixels reports pixel-for-pixel equality of two bitmaps.
func SamePixels(a, b *image.RGBA) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Bounds().Size() != b.Bounds().Size() {
		return false
	}
	if a.Stride == b.Stride && a.Rect.Min == b.Rect.Min {
		return bytes.Equal(a.Pix, b.Pix)
	}
	sz := a.Bounds().Size()
	for y := 0; y < sz.Y; y++ {
		ra := a.Pix[a.PixOffset(a.Rect.Min.X, a.Rect.Min.Y+y):][:sz.X*4]
		rb := b.Pix[b.PixOffset(b.Rect.Min.X, b.Rect.Min.Y+y):][:sz.X*4]
		if !bytes.Equal(ra, rb) {
			return false
		}
	}
	return true
}

// CopyRGBA returns an RGBA copy of img whose bounds start at the origin.
func CopyRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
