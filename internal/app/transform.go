package app

import (
	"errors"
	"fmt"
	"image"

	"layercanvas/internal/filters"
	lcimage "layercanvas/internal/image"
	"layercanvas/pkg/geometry"

	"github.com/anthonynsimon/bild/transform"
)

// Target chooses which records an operation affects.
type Target int

const (
	TargetSelected Target = iota // the selected record, else the current one
	TargetAll                    // every record
)

// Transform is a pixel operation. It must not modify its input.
type Transform func(image.Image) (image.Image, error)

// Lift adapts an infallible filter.
func Lift(fn filters.Func) Transform {
	return func(img image.Image) (image.Image, error) {
		return fn(img), nil
	}
}

// Mirror axes.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
	Both
)

func (a Axis) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Both:
		return "both"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// indices resolves a target to record indices.
func (s *Session) indices(t Target) ([]int, error) {
	if t == TargetAll {
		if s.stack.Empty() {
			return nil, ErrNoTarget
		}
		out := make([]int, s.stack.Len())
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	i, _, err := s.target()
	if err != nil {
		return nil, err
	}
	return []int{i}, nil
}

// Apply runs fn over the target records. Every result is computed before
// anything changes; the history snapshot is taken only if at least one
// record succeeded, and failed records are left untouched. The returned
// error joins the individual failures.
func (s *Session) Apply(name string, t Target, fn Transform) error {
	return s.applyEach(name, t, func(r *lcimage.Record) (image.Image, error) {
		return fn(r.Pixels())
	}, nil)
}

// applyEach computes per-record results with compute, then commits them.
// after, when set, runs on each committed record.
func (s *Session) applyEach(name string, t Target, compute func(*lcimage.Record) (image.Image, error), after func(*lcimage.Record)) error {
	idx, err := s.indices(t)
	if err != nil {
		s.warn(name, err)
		return err
	}
	s.finishGestures()

	results := make(map[int]image.Image, len(idx))
	var errs []error
	for _, i := range idx {
		r := s.stack.At(i)
		img, err := guard(name, func() (image.Image, error) { return compute(r) })
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", displayName(r.Path), err))
			continue
		}
		results[i] = img
	}

	failed := errors.Join(errs...)
	if len(results) == 0 {
		s.warn(name+" failed", failed)
		return failed
	}

	s.snapshot()
	for _, i := range idx {
		img, ok := results[i]
		if !ok {
			continue
		}
		r := s.stack.At(i)
		r.SetPixels(img)
		if after != nil {
			after(r)
		}
	}
	if failed != nil {
		s.warn(fmt.Sprintf("%s applied to %d of %d images", name, len(results), len(idx)), failed)
	} else if len(idx) > 1 {
		s.statusf("%s applied to %d images", name, len(idx))
	} else {
		s.statusf("%s applied", name)
	}
	s.emitChanged()
	return failed
}

// guard runs fn and turns a panic or an empty result into an error.
func guard(name string, fn func() (image.Image, error)) (img image.Image, err error) {
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("%s: panic: %v", name, p)
		}
	}()
	img, err = fn()
	if err == nil && (img == nil || img.Bounds().Empty()) {
		err = ErrEmptyResult
	}
	return img, err
}

// edit snapshots once and runs fn on each target record. It is used for
// metadata changes that cannot fail.
func (s *Session) edit(name string, t Target, fn func(*lcimage.Record)) error {
	idx, err := s.indices(t)
	if err != nil {
		s.warn(name, err)
		return err
	}
	s.finishGestures()
	s.snapshot()
	for _, i := range idx {
		fn(s.stack.At(i))
	}
	s.setStatus(name)
	s.emitChanged()
	return nil
}

// ApplyFilter runs a named filter.
func (s *Session) ApplyFilter(k filters.Kind, t Target) error {
	fn, err := filters.Handler(k)
	if err != nil {
		s.warn("Filter", err)
		return err
	}
	return s.Apply(k.String()+" filter", t, Lift(fn))
}

// ApplyEffect runs a tonal preset.
func (s *Session) ApplyEffect(e filters.Effect, t Target) error {
	return s.Apply(e.String()+" effect", t, func(img image.Image) (image.Image, error) {
		return filters.ApplyEffect(e, img)
	})
}

// ApplyStyle runs a style preset at intensity in [0, 1].
func (s *Session) ApplyStyle(st filters.Style, intensity float64, t Target) error {
	return s.Apply(st.String()+" style", t, func(img image.Image) (image.Image, error) {
		return filters.ApplyStyle(st, img, intensity)
	})
}

// ApplyAdjustment applies colour corrections. The identity adjustment is a no-op.
func (s *Session) ApplyAdjustment(a filters.Adjustment, t Target) error {
	if a.IsIdentity() {
		return nil
	}
	return s.Apply("Colour adjustment", t, Lift(a.Func()))
}

// AutoEnhance balances exposure.
func (s *Session) AutoEnhance(t Target) error {
	return s.Apply("Auto enhance", t, Lift(filters.AutoEnhance))
}

// Mirror flips the target records.
func (s *Session) Mirror(axis Axis, t Target) error {
	return s.Apply("Mirror "+axis.String(), t, func(img image.Image) (image.Image, error) {
		switch axis {
		case Horizontal:
			return transform.FlipH(img), nil
		case Vertical:
			return transform.FlipV(img), nil
		case Both:
			return transform.FlipV(transform.FlipH(img)), nil
		}
		return nil, fmt.Errorf("unknown axis %d", int(axis))
	})
}

// Rotate adds delta degrees, counter-clockwise, to the target records.
func (s *Session) Rotate(delta float64, t Target) error {
	return s.edit(fmt.Sprintf("Rotated %g°", delta), t, func(r *lcimage.Record) {
		keepCenter(r, func() { r.Rotate(delta) })
	})
}

// RotateAll rotates every record in place.
func (s *Session) RotateAll(delta float64) error {
	return s.Rotate(delta, TargetAll)
}

// RotateCanvas turns the whole arrangement by delta degrees about the
// canvas centre: every record rotates and its centre orbits the canvas centre.
func (s *Session) RotateCanvas(delta float64) error {
	pivot := geometry.NewPoint2D(float64(s.canvas.X)/2, float64(s.canvas.Y)/2)
	return s.edit(fmt.Sprintf("Canvas rotated %g°", delta), TargetAll, func(r *lcimage.Record) {
		orbit(r, pivot, delta, r.Rotation()+delta)
	})
}

// BakeRotation writes the render-time rotation into the pixels.
func (s *Session) BakeRotation(t Target) error {
	centers := make(map[*lcimage.Record]image.Point)
	return s.applyEach("Apply rotation", t, func(r *lcimage.Record) (image.Image, error) {
		centers[r] = center(r)
		return r.Rendered(), nil
	}, func(r *lcimage.Record) {
		r.SetRotation(0)
		placeCenter(r, centers[r])
	})
}

// Crop keeps area, given in the record's pixel coordinates, and re-centres
// the record on the canvas.
func (s *Session) Crop(area image.Rectangle) error {
	return s.applyEach("Crop", TargetSelected, func(r *lcimage.Record) (image.Image, error) {
		clip := area.Canon().Intersect(r.Pixels().Bounds())
		if clip.Dx() < 1 || clip.Dy() < 1 {
			return nil, ErrInvalidArea
		}
		return transform.Crop(r.Pixels(), clip), nil
	}, func(r *lcimage.Record) {
		r.CenterOn(s.canvas)
	})
}

// Resize scales the target record to width x height, keeping its centre.
func (s *Session) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		err := fmt.Errorf("%dx%d: %w", width, height, ErrInvalidSize)
		s.warn("Resize", err)
		return err
	}
	return s.resize(TargetSelected, func(image.Point) image.Point { return image.Pt(width, height) })
}

// ResizeAll scales every record. A zero dimension is derived from the other
// one so the aspect ratio is kept.
func (s *Session) ResizeAll(width, height int) error {
	if width < 0 || height < 0 || (width == 0 && height == 0) {
		err := fmt.Errorf("%dx%d: %w", width, height, ErrInvalidSize)
		s.warn("Resize all", err)
		return err
	}
	return s.resize(TargetAll, func(sz image.Point) image.Point {
		switch {
		case width == 0:
			return image.Pt(max(1, sz.X*height/sz.Y), height)
		case height == 0:
			return image.Pt(width, max(1, sz.Y*width/sz.X))
		}
		return image.Pt(width, height)
	})
}

func (s *Session) resize(t Target, size func(image.Point) image.Point) error {
	centers := make(map[*lcimage.Record]image.Point)
	return s.applyEach("Resize", t, func(r *lcimage.Record) (image.Image, error) {
		sz := size(image.Pt(r.Width(), r.Height()))
		centers[r] = center(r)
		return transform.Resize(r.Pixels(), sz.X, sz.Y, transform.Lanczos), nil
	}, func(r *lcimage.Record) {
		placeCenter(r, centers[r])
	})
}

// ResetToOriginal restores the target records' pixels from their originals.
func (s *Session) ResetToOriginal(t Target) error {
	return s.edit("Reset to original", t, func(r *lcimage.Record) {
		keepCenter(r, r.ResetToOriginal)
	})
}

// Center places the target records in the middle of the canvas.
func (s *Session) Center(t Target) error {
	return s.edit("Centred", t, func(r *lcimage.Record) {
		r.CenterOn(s.canvas)
	})
}

// MoveTo places the record at i with its top-left corner at p.
func (s *Session) MoveTo(i int, p image.Point) bool {
	r := s.stack.At(i)
	if r == nil || r.Position == p {
		return false
	}
	return s.structural("Move", i, func() error {
		r.Position = p
		return nil
	})
}

// SetVisible shows or hides the record at i.
func (s *Session) SetVisible(i int, visible bool) bool {
	r := s.stack.At(i)
	if r == nil || r.Visible == visible {
		return false
	}
	return s.structural("Visibility", i, func() error {
		r.Visible = visible
		return nil
	})
}

func center(r *lcimage.Record) image.Point {
	b := r.Bounds()
	return image.Pt((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2)
}

func placeCenter(r *lcimage.Record, c image.Point) {
	fp := r.Footprint()
	r.Position = image.Pt(c.X-fp.X/2, c.Y-fp.Y/2)
}

// keepCenter runs fn and then restores the record's visual centre.
func keepCenter(r *lcimage.Record, fn func()) {
	c := center(r)
	fn()
	placeCenter(r, c)
}

// orbit sets the record's rotation and turns its centre about pivot by delta
// degrees counter-clockwise on screen.
func orbit(r *lcimage.Record, pivot geometry.Point2D, delta, rotation float64) {
	c := geometry.FromPoint(center(r))
	// RotateAbout turns clockwise on a y-down canvas
	moved := geometry.RotateAbout([]geometry.Point2D{c}, pivot, -delta)[0]
	r.SetRotation(rotation)
	placeCenter(r, moved.Round())
}
