// Package render turns the record stack and overlay collaborators into a
// finished frame.
//
// A frame is painted in a fixed order: visible records back to front, then
// each overlay in the order given, then the selection highlight on top.
// Rendering reads state only, so the same state always yields the same frame.
package render

import (
	"fmt"
	"image"
	"image/color"

	"layercanvas/internal/stack"
	"layercanvas/pkg/colorutil"

	"github.com/gogpu/gg"
)

// Overlay is a collaborator that owns elements drawn above the records.
type Overlay interface {
	Redraw(dc *gg.Context) error
}

// Options controls the frame appearance.
type Options struct {
	Background     color.Color
	Highlight      color.Color
	HighlightWidth float64
	Dash           []float64
}

// DefaultOptions returns a white background with a dashed red highlight.
func DefaultOptions() Options {
	return Options{
		Background:     colorutil.White,
		Highlight:      colorutil.Red,
		HighlightWidth: 2,
		Dash:           []float64{5, 5},
	}
}

// Renderer paints frames of a fixed canvas size.
type Renderer struct {
	width  int
	height int
	opts   Options
}

// New creates a renderer for a width x height canvas.
func New(width, height int, opts Options) *Renderer {
	return &Renderer{width: width, height: height, opts: opts}
}

// Size returns the canvas size.
func (r *Renderer) Size() image.Point {
	return image.Pt(r.width, r.height)
}

// Resize changes the canvas size for subsequent frames.
func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
}

// Options returns the current appearance settings.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render paints a full frame.
func (r *Renderer) Render(s *stack.Stack, overlays ...Overlay) (*image.RGBA, error) {
	dc := gg.NewContextForImage(s.Composite(r.width, r.height, r.opts.Background))
	defer dc.Close()

	for i, o := range overlays {
		if o == nil {
			continue
		}
		if err := o.Redraw(dc); err != nil {
			return nil, fmt.Errorf("overlay %d: %w", i, err)
		}
	}

	if sel := s.At(s.Selected()); sel != nil {
		if err := r.highlight(dc, sel.Bounds()); err != nil {
			return nil, fmt.Errorf("highlight: %w", err)
		}
	}

	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("unexpected frame type %T", dc.Image())
	}
	return img, nil
}

func (r *Renderer) highlight(dc *gg.Context, b image.Rectangle) error {
	dc.SetColor(r.opts.Highlight)
	dc.SetLineWidth(r.opts.HighlightWidth)
	if len(r.opts.Dash) > 0 {
		dc.SetDash(r.opts.Dash...)
		defer dc.ClearDash()
	}
	dc.DrawRectangle(float64(b.Min.X), float64(b.Min.Y), float64(b.Dx()), float64(b.Dy()))
	return dc.Stroke()
}
