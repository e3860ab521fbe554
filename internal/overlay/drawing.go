// Package overlay holds the collaborators that draw above the record stack:
// freehand strokes and text. They own their element lists and are replayed
// by the renderer after the records are painted.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"layercanvas/pkg/colorutil"
	"layercanvas/pkg/geometry"

	"github.com/gogpu/gg"
)

// LineStyle selects the dash pattern of a stroke.
type LineStyle int

const (
	Solid LineStyle = iota
	Dashed
	Dotted
	DashDot
)

func (s LineStyle) String() string {
	switch s {
	case Solid:
		return "solid"
	case Dashed:
		return "dashed"
	case Dotted:
		return "dotted"
	case DashDot:
		return "dashdot"
	default:
		return "unknown"
	}
}

// Dash returns the dash lengths for the style, nil for solid lines.
func (s LineStyle) Dash() []float64 {
	switch s {
	case Dashed:
		return []float64{10, 5}
	case Dotted:
		return []float64{2, 3}
	case DashDot:
		return []float64{10, 3, 2, 3}
	default:
		return nil
	}
}

// ParseLineStyle converts a style name. Unknown names are an error.
func ParseLineStyle(name string) (LineStyle, error) {
	for _, s := range []LineStyle{Solid, Dashed, Dotted, DashDot} {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return Solid, fmt.Errorf("unknown line style %q", name)
}

// Pen is the appearance applied to new strokes.
type Pen struct {
	Color color.Color
	Width float64
	Style LineStyle
}

// DefaultPen is a 3px solid black line.
func DefaultPen() Pen {
	return Pen{Color: colorutil.Black, Width: 3, Style: Solid}
}

// Stroke is one committed freehand line.
type Stroke struct {
	Points []image.Point
	Pen
}

// Drawing collects freehand strokes in creation order.
type Drawing struct {
	Pen Pen

	strokes []Stroke
	active  *Stroke
}

// NewDrawing creates an empty drawing with the default pen.
func NewDrawing() *Drawing {
	return &Drawing{Pen: DefaultPen()}
}

// Begin starts a new stroke at p. An unfinished stroke is committed first.
func (d *Drawing) Begin(p image.Point) {
	d.End()
	d.active = &Stroke{Points: []image.Point{p}, Pen: d.Pen}
}

// Extend adds a point to the stroke in progress. It reports false when no
// stroke is active.
func (d *Drawing) Extend(p image.Point) bool {
	if d.active == nil {
		return false
	}
	last := d.active.Points[len(d.active.Points)-1]
	if last != p {
		d.active.Points = append(d.active.Points, p)
	}
	return true
}

// End commits the stroke in progress. Strokes with fewer than two points are
// discarded. It reports whether a stroke was committed.
func (d *Drawing) End() bool {
	s := d.active
	d.active = nil
	if s == nil || len(s.Points) < 2 {
		return false
	}
	d.strokes = append(d.strokes, *s)
	return true
}

// Active reports whether a stroke is in progress.
func (d *Drawing) Active() bool {
	return d.active != nil
}

// Strokes returns the committed strokes, oldest first.
func (d *Drawing) Strokes() []Stroke {
	out := make([]Stroke, len(d.strokes))
	copy(out, d.strokes)
	return out
}

// Len returns the number of committed strokes.
func (d *Drawing) Len() int {
	return len(d.strokes)
}

// Clear removes every stroke, including one in progress.
func (d *Drawing) Clear() {
	d.strokes = nil
	d.active = nil
}

// RemoveLast drops the most recent stroke. It reports false when there is none.
func (d *Drawing) RemoveLast() bool {
	if len(d.strokes) == 0 {
		return false
	}
	d.strokes = d.strokes[:len(d.strokes)-1]
	return true
}

// EraseAt removes every stroke with a point within radius of p and returns
// how many were removed.
func (d *Drawing) EraseAt(p image.Point, radius float64) int {
	center := geometry.FromPoint(p)
	kept := d.strokes[:0]
	removed := 0
	for _, s := range d.strokes {
		if strokeNear(s, center, radius) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	d.strokes = kept
	return removed
}

func strokeNear(s Stroke, center geometry.Point2D, radius float64) bool {
	for _, pt := range s.Points {
		if geometry.FromPoint(pt).Distance(center) <= radius {
			return true
		}
	}
	return false
}

// Redraw replays the committed strokes, then the one in progress.
func (d *Drawing) Redraw(dc *gg.Context) error {
	for i := range d.strokes {
		if err := drawStroke(dc, &d.strokes[i]); err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
	}
	if d.active != nil && len(d.active.Points) > 1 {
		return drawStroke(dc, d.active)
	}
	return nil
}

func drawStroke(dc *gg.Context, s *Stroke) error {
	dc.SetColor(s.Color)
	dc.SetLineWidth(s.Width)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	if dash := s.Style.Dash(); dash != nil {
		dc.SetDash(dash...)
	} else {
		dc.ClearDash()
	}
	dc.MoveTo(float64(s.Points[0].X), float64(s.Points[0].Y))
	for _, p := range s.Points[1:] {
		dc.LineTo(float64(p.X), float64(p.Y))
	}
	err := dc.Stroke()
	dc.ClearDash()
	return err
}
