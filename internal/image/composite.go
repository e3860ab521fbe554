package image

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Composite flattens records onto a fixed-size canvas.
type Composite struct {
	Width      int
	Height     int
	Background color.Color
	Records    []*Record
}

// NewComposite creates a Composite with the specified dimensions and a white background.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:      width,
		Height:     height,
		Background: color.White,
	}
}

// Add appends records above the ones already present.
func (c *Composite) Add(records ...*Record) {
	c.Records = append(c.Records, records...)
}

// Render paints visible records bottom-to-top at their positions. Rotated
// records paint their expanded box; anything outside the canvas is clipped.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, max(c.Width, 0), max(c.Height, 0)))
	if c.Background != nil {
		draw.Draw(result, result.Bounds(), &image.Uniform{C: c.Background}, image.Point{}, draw.Src)
	}

	for _, r := range c.Records {
		if r == nil || r.pixels == nil || !r.Visible {
			continue
		}
		c.paint(result, r)
	}
	return result
}

func (c *Composite) paint(dst *image.RGBA, r *Record) {
	src := r.Rendered()
	target := r.Bounds().Intersect(dst.Bounds())
	if target.Empty() {
		return
	}
	sp := src.Bounds().Min.Add(target.Min.Sub(r.Position))
	draw.Draw(dst, target, src, sp, draw.Over)
}

// Flatten paints img over an opaque background, for formats without alpha.
func Flatten(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
