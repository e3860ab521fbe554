package app

import (
	"fmt"
	"image"
	"image/color"

	lcimage "layercanvas/internal/image"
	"layercanvas/internal/overlay"
	"layercanvas/pkg/geometry"

	"github.com/anthonynsimon/bild/transform"
	"github.com/gogpu/gg"
)

// Tool decides what pointer input does.
type Tool int

const (
	ToolSelect Tool = iota // select and drag records
	ToolDraw               // freehand strokes
	ToolText               // request text at the pointer
	ToolCrop               // rubber band crop of the target record
	ToolRotate             // rotate the selected record around the pivot
	ToolErase              // remove strokes under the pointer
)

var toolNames = map[Tool]string{
	ToolSelect: "select",
	ToolDraw:   "draw",
	ToolText:   "text",
	ToolCrop:   "crop",
	ToolRotate: "rotate",
	ToolErase:  "erase",
}

func (t Tool) String() string {
	if n, ok := toolNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// eraseRadius is how close the eraser must pass to a stroke, in pixels.
const eraseRadius = 8

type dragState struct {
	active   bool
	index    int
	rec      *lcimage.Record
	offset   image.Point
	recorded bool
}

// StartDrag begins moving the selected record. p must lie inside it.
func (s *Session) StartDrag(p image.Point) error {
	i := s.stack.Selected()
	r := s.stack.At(i)
	if r == nil {
		return fmt.Errorf("drag: %w", ErrNoTarget)
	}
	if !r.Contains(p) {
		return fmt.Errorf("%w: %v is outside the selection", ErrNotDragging, p)
	}
	s.finishGestures()
	s.drag = dragState{active: true, index: i, rec: r, offset: p.Sub(r.Position)}
	return nil
}

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool {
	return s.drag.active
}

// ContinueDrag moves the dragged record so the grab point follows p, clamped
// to keep the record on the canvas. The first real movement of a drag
// snapshots history; later ones do not.
func (s *Session) ContinueDrag(p image.Point) error {
	d := &s.drag
	if !d.active || s.stack.At(d.index) != d.rec {
		return ErrNotDragging
	}
	r := d.rec
	fp := r.Footprint()
	next := image.Pt(
		geometry.ClampInt(p.X-d.offset.X, 0, s.canvas.X-fp.X),
		geometry.ClampInt(p.Y-d.offset.Y, 0, s.canvas.Y-fp.Y),
	)
	if next == r.Position {
		return nil
	}
	if !d.recorded {
		s.snapshot()
		d.recorded = true
	}
	r.Position = next
	s.Emit(EventStackChanged, nil)
	return nil
}

// EndDrag finishes the drag. It reports whether the record moved.
func (s *Session) EndDrag() bool {
	d := s.drag
	s.drag = dragState{}
	if !d.active || !d.recorded {
		return false
	}
	s.statusf("Moved %s to (%d, %d)", displayName(d.rec.Path), d.rec.Position.X, d.rec.Position.Y)
	s.Emit(EventHistoryChanged, nil)
	return true
}

// cropBand is the rubber band drawn while the crop tool is dragged.
type cropBand struct {
	start, end image.Point
}

func (b *cropBand) Rect() image.Rectangle {
	return geometry.NormalizeRect(b.start, b.end)
}

func (b *cropBand) Redraw(dc *gg.Context) error {
	r := b.Rect()
	dc.SetColor(color.RGBA{R: 0, G: 120, B: 255, A: 255})
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	defer dc.ClearDash()
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	return dc.Stroke()
}

// CropBand returns the rubber band in canvas coordinates while the crop tool
// is dragged.
func (s *Session) CropBand() (image.Rectangle, bool) {
	if s.band == nil {
		return image.Rectangle{}, false
	}
	return s.band.Rect(), true
}

// CropCanvasRect crops the target record to the part covered by area, given
// in canvas coordinates. A rotated record is cropped as painted and loses its
// rotation.
func (s *Session) CropCanvasRect(area image.Rectangle) error {
	return s.applyEach("Crop", TargetSelected, func(r *lcimage.Record) (image.Image, error) {
		src := r.Rendered()
		clip := area.Canon().Sub(r.Position).Intersect(src.Bounds())
		if clip.Dx() < 1 || clip.Dy() < 1 {
			return nil, ErrInvalidArea
		}
		return transform.Crop(src, clip), nil
	}, func(r *lcimage.Record) {
		r.SetRotation(0)
		r.CenterOn(s.canvas)
	})
}

// Tool returns the active pointer tool.
func (s *Session) Tool() Tool {
	return s.tool
}

// SetTool switches the pointer tool, finishing whatever the old one was doing.
func (s *Session) SetTool(t Tool) {
	if t == s.tool {
		return
	}
	s.finishGestures()
	if s.drawing.End() {
		s.Emit(EventOverlayChanged, nil)
	}
	s.tool = t
	s.Emit(EventToolChanged, t)
}

// Press handles a pointer press at canvas point p.
func (s *Session) Press(p image.Point) {
	switch s.tool {
	case ToolSelect:
		if s.SelectAt(p) >= 0 {
			_ = s.StartDrag(p)
		}
	case ToolDraw:
		s.drawing.Begin(p)
	case ToolText:
		s.Emit(EventTextRequested, p)
	case ToolCrop:
		s.finishGestures()
		s.band = &cropBand{start: p, end: p}
		s.Emit(EventOverlayChanged, nil)
	case ToolRotate:
		if s.stack.Selected() < 0 {
			s.SelectAt(p)
		}
		_ = s.BeginRotate(p)
	case ToolErase:
		s.erase(p)
	}
}

// Drag handles pointer movement with the button held.
func (s *Session) Drag(p image.Point) {
	switch s.tool {
	case ToolSelect:
		_ = s.ContinueDrag(p)
	case ToolDraw:
		if s.drawing.Extend(p) {
			s.Emit(EventOverlayChanged, nil)
		}
	case ToolCrop:
		if s.band != nil {
			s.band.end = p
			s.Emit(EventOverlayChanged, nil)
		}
	case ToolRotate:
		_ = s.RotateTo(p)
	case ToolErase:
		s.erase(p)
	}
}

// Release handles the pointer button going up at p.
func (s *Session) Release(p image.Point) {
	switch s.tool {
	case ToolSelect:
		s.EndDrag()
	case ToolDraw:
		s.drawing.Extend(p)
		if s.drawing.End() {
			s.Emit(EventOverlayChanged, nil)
		}
	case ToolCrop:
		if s.band == nil {
			return
		}
		s.band.end = p
		area := s.band.Rect()
		s.band = nil
		s.Emit(EventOverlayChanged, nil)
		if area.Dx() > 1 && area.Dy() > 1 {
			_ = s.CropCanvasRect(area)
		}
	case ToolRotate:
		_ = s.RotateTo(p)
		s.EndRotate()
	}
}

func (s *Session) erase(p image.Point) {
	if n := s.drawing.EraseAt(p, eraseRadius); n > 0 {
		s.Emit(EventOverlayChanged, nil)
	}
}

// SetPen sets the appearance of new strokes.
func (s *Session) SetPen(p overlay.Pen) {
	s.drawing.Pen = p
}

// RemoveLastStroke deletes the newest stroke.
func (s *Session) RemoveLastStroke() bool {
	if !s.drawing.RemoveLast() {
		return false
	}
	s.Emit(EventOverlayChanged, nil)
	return true
}

// ClearDrawing removes every stroke.
func (s *Session) ClearDrawing() {
	s.drawing.Clear()
	s.setStatus("Drawing cleared")
	s.Emit(EventOverlayChanged, nil)
}

// TextStyle returns the template for new text elements.
func (s *Session) TextStyle() overlay.TextElement {
	return s.textStyle
}

// SetTextStyle sets the font, size, colour and alignment of new text.
func (s *Session) SetTextStyle(el overlay.TextElement) {
	el.Text, el.Position = "", image.Point{}
	s.textStyle = el
}

// AddText places text at p using the current text style. Text elements live
// outside undo history.
func (s *Session) AddText(text string, p image.Point) (int, error) {
	el := s.textStyle
	el.Text, el.Position = text, p
	i, err := s.text.Add(el)
	if err != nil {
		s.warn("Add text", err)
		return i, err
	}
	s.statusf("Added text at (%d, %d)", p.X, p.Y)
	s.Emit(EventOverlayChanged, nil)
	return i, nil
}

// UpdateText replaces text element i.
func (s *Session) UpdateText(i int, el overlay.TextElement) error {
	if err := s.text.Update(i, el); err != nil {
		s.warn("Edit text", err)
		return err
	}
	s.Emit(EventOverlayChanged, nil)
	return nil
}

// DeleteText removes text element i.
func (s *Session) DeleteText(i int) error {
	if err := s.text.Delete(i); err != nil {
		s.warn("Delete text", err)
		return err
	}
	s.Emit(EventOverlayChanged, nil)
	return nil
}

// AddTextElements appends recognised or imported text in one go and returns
// how many were added.
func (s *Session) AddTextElements(els []overlay.TextElement) int {
	n := 0
	for _, el := range els {
		if _, err := s.text.Add(el); err == nil {
			n++
		}
	}
	if n > 0 {
		s.statusf("Added %d text elements", n)
		s.Emit(EventOverlayChanged, nil)
	}
	return n
}

// ClearText removes every text element.
func (s *Session) ClearText() {
	s.text.Clear()
	s.setStatus("Text cleared")
	s.Emit(EventOverlayChanged, nil)
}
