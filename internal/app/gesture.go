package app

import (
	"fmt"
	"image"
	"math"

	"layercanvas/internal/filters"
	lcimage "layercanvas/internal/image"
	"layercanvas/internal/stack"
	"layercanvas/pkg/geometry"
)

type gestureKind int

const (
	gestureScale gestureKind = iota
	gestureAdjust
	gestureRotate
)

func (k gestureKind) String() string {
	switch k {
	case gestureScale:
		return "Scale"
	case gestureAdjust:
		return "Colour adjustment"
	case gestureRotate:
		return "Rotate"
	}
	return "Edit"
}

// gesture is a live edit of one record. The record changes on every update
// without touching history; commit records a single step for the gesture.
type gesture struct {
	kind  gestureKind
	index int
	rec   *lcimage.Record

	pixels   *image.RGBA
	position image.Point
	rotation float64

	// rotation gestures
	pivot      geometry.Point2D
	startAngle float64
}

// beginGesture captures the target record's state. A gesture already in
// progress is committed first.
func (s *Session) beginGesture(kind gestureKind) (*gesture, error) {
	s.finishGestures()
	i, r, err := s.target()
	if err != nil {
		s.warn(kind.String(), err)
		return nil, err
	}
	s.gesture = &gesture{
		kind:     kind,
		index:    i,
		rec:      r,
		pixels:   r.Pixels(),
		position: r.Position,
		rotation: r.Rotation(),
	}
	return s.gesture, nil
}

// active returns the live gesture of the given kind, or nil.
func (s *Session) active(kind gestureKind) *gesture {
	if s.gesture == nil || s.gesture.kind != kind || s.stack.At(s.gesture.index) != s.gesture.rec {
		return nil
	}
	return s.gesture
}

func (g *gesture) changed() bool {
	r := g.rec
	return r.Pixels() != g.pixels || r.Position != g.position || r.Rotation() != g.rotation
}

// restore puts the captured state back on the record.
func (g *gesture) restore() {
	if g.rec.Pixels() != g.pixels {
		g.rec.SetPixels(g.pixels)
	}
	g.rec.Position = g.position
	g.rec.SetRotation(g.rotation)
}

// commitGesture records the gesture as one undoable step. It reports whether
// anything changed.
func (s *Session) commitGesture() bool {
	g := s.gesture
	s.gesture = nil
	if g == nil || s.stack.At(g.index) != g.rec || !g.changed() {
		return false
	}
	r := g.rec
	pixels, pos, rot := r.Pixels(), r.Position, r.Rotation()

	// history must hold the state from before the gesture
	g.restore()
	s.snapshot()
	if pixels != g.pixels {
		r.SetPixels(pixels)
	}
	r.Position = pos
	r.SetRotation(rot)

	s.statusf("%s applied", g.kind)
	s.emitChanged()
	return true
}

// cancelGesture discards the live gesture and restores the record.
func (s *Session) cancelGesture() bool {
	g := s.gesture
	s.gesture = nil
	if g == nil || s.stack.At(g.index) != g.rec {
		return false
	}
	g.restore()
	s.Emit(EventStackChanged, nil)
	return true
}

// finishGestures commits any pointer or slider gesture still in progress.
func (s *Session) finishGestures() {
	if s.drag.active {
		s.EndDrag()
	}
	if s.gesture != nil {
		s.commitGesture()
	}
	s.band = nil
}

// BeginScale starts a percentage scaling gesture on the target record.
func (s *Session) BeginScale() error {
	_, err := s.beginGesture(gestureScale)
	return err
}

// ScaleTo shows the target record's original bitmap at pct percent,
// centred on the canvas. Nothing is recorded until EndScale.
func (s *Session) ScaleTo(pct float64) error {
	g := s.active(gestureScale)
	if g == nil {
		return fmt.Errorf("scale: %w", ErrNoTarget)
	}
	if pct <= 0 {
		return fmt.Errorf("scale %g%%: %w", pct, ErrInvalidSize)
	}
	img, err := guard("scale", func() (image.Image, error) { return g.rec.ScaledOriginal(pct), nil })
	if err != nil {
		s.warn("Scale", err)
		return err
	}
	g.rec.SetPixels(img)
	g.rec.CenterOn(s.canvas)
	s.Emit(EventStackChanged, nil)
	return nil
}

// Scaling reports whether a scaling gesture is open.
func (s *Session) Scaling() bool {
	return s.active(gestureScale) != nil
}

// EndScale commits the scaling gesture.
func (s *Session) EndScale() bool {
	if s.active(gestureScale) == nil {
		return false
	}
	return s.commitGesture()
}

// BeginPreview starts a live colour adjustment on the target record.
func (s *Session) BeginPreview() error {
	_, err := s.beginGesture(gestureAdjust)
	return err
}

// PreviewAdjust shows a applied to the pixels the preview started from.
func (s *Session) PreviewAdjust(a filters.Adjustment) error {
	g := s.active(gestureAdjust)
	if g == nil {
		return fmt.Errorf("preview: %w", ErrNoTarget)
	}
	if a.IsIdentity() {
		if g.rec.Pixels() != g.pixels {
			g.rec.SetPixels(g.pixels)
			s.Emit(EventStackChanged, nil)
		}
		return nil
	}
	img, err := guard("adjust", func() (image.Image, error) { return a.Apply(g.pixels), nil })
	if err != nil {
		s.warn("Colour adjustment", err)
		return err
	}
	g.rec.SetPixels(img)
	s.Emit(EventStackChanged, nil)
	return nil
}

// Previewing reports whether a colour adjustment preview is open.
func (s *Session) Previewing() bool {
	return s.active(gestureAdjust) != nil
}

// EndPreview commits the previewed adjustment.
func (s *Session) EndPreview() bool {
	if s.active(gestureAdjust) == nil {
		return false
	}
	return s.commitGesture()
}

// CancelPreview restores the pixels the preview started from.
func (s *Session) CancelPreview() bool {
	if s.active(gestureAdjust) == nil {
		return false
	}
	return s.cancelGesture()
}

// Pivot is the centre of mouse rotation.
type Pivot int

const (
	PivotImageCenter Pivot = iota
	PivotCanvasCenter
	PivotPointer // the point where the gesture started
)

// rotateThreshold is the smallest pointer angle change that rotates, in degrees.
const rotateThreshold = 1.0

// SetPivot chooses the mouse rotation pivot.
func (s *Session) SetPivot(p Pivot) {
	s.pivot = p
}

// Pivot returns the mouse rotation pivot.
func (s *Session) Pivot() Pivot {
	return s.pivot
}

// BeginRotate starts a mouse rotation of the selected record at p. Unlike
// the slider gestures it never falls back to the current record.
func (s *Session) BeginRotate(p image.Point) error {
	if s.stack.Selected() == stack.None {
		err := fmt.Errorf("rotate: %w", ErrNoTarget)
		s.warn(gestureRotate.String(), err)
		return err
	}
	g, err := s.beginGesture(gestureRotate)
	if err != nil {
		return err
	}
	switch s.pivot {
	case PivotCanvasCenter:
		g.pivot = geometry.NewPoint2D(float64(s.canvas.X)/2, float64(s.canvas.Y)/2)
	case PivotPointer:
		g.pivot = geometry.FromPoint(p)
	default:
		g.pivot = geometry.FromPoint(center(g.rec))
	}
	g.startAngle = geometry.Angle(g.pivot, geometry.FromPoint(p))
	return nil
}

// RotateTo turns the record by the angle the pointer swept around the pivot
// since BeginRotate. Sweeps under a degree are ignored.
func (s *Session) RotateTo(p image.Point) error {
	g := s.active(gestureRotate)
	if g == nil {
		return fmt.Errorf("rotate: %w", ErrNoTarget)
	}
	pt := geometry.FromPoint(p)
	if pt == g.pivot {
		return nil
	}
	delta := geometry.Angle(g.pivot, pt) - g.startAngle
	if math.Abs(delta) <= rotateThreshold {
		return nil
	}
	g.rec.SetRotation(g.rotation)
	g.rec.Position = g.position
	orbit(g.rec, g.pivot, delta, g.rotation+delta)
	s.Emit(EventStackChanged, nil)
	return nil
}

// EndRotate commits the mouse rotation.
func (s *Session) EndRotate() bool {
	if s.active(gestureRotate) == nil {
		return false
	}
	return s.commitGesture()
}
