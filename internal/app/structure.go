package app

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	lcimage "layercanvas/internal/image"
	"layercanvas/internal/stack"
)

// AddImage places img on top of the stack, shrunk to fit the canvas and
// centred, and makes it current. It returns the new index.
func (s *Session) AddImage(img image.Image, path string) int {
	r := lcimage.NewRecord(lcimage.Fit(img, s.canvas), path)
	r.CenterOn(s.canvas)
	return s.AddRecord(r)
}

// AddRecord places an already built record on top of the stack as one
// undoable step.
func (s *Session) AddRecord(r *lcimage.Record) int {
	s.snapshot()
	i := s.stack.Add(r)
	s.statusf("Loaded: %s", displayName(r.Path))
	s.Emit(EventImageLoaded, i)
	s.emitChanged()
	return i
}

// AddImages places several images as one undoable step, for results that
// arrive together such as a generation job. paths may be shorter than imgs.
// It returns how many were added.
func (s *Session) AddImages(imgs []image.Image, paths []string) int {
	var recs []*lcimage.Record
	for i, img := range imgs {
		if img == nil || img.Bounds().Empty() {
			continue
		}
		path := ""
		if i < len(paths) {
			path = paths[i]
		}
		r := lcimage.NewRecord(lcimage.Fit(img, s.canvas), path)
		r.CenterOn(s.canvas)
		recs = append(recs, r)
	}
	if len(recs) == 0 {
		return 0
	}
	s.snapshot()
	for _, r := range recs {
		s.Emit(EventImageLoaded, s.stack.Add(r))
	}
	s.statusf("Added %d images", len(recs))
	s.emitChanged()
	return len(recs)
}

// Load decodes the file at path and adds it. Nothing is added on failure.
func (s *Session) Load(path string) error {
	r, err := lcimage.Load(path)
	if err != nil {
		s.warn("Failed to load "+displayName(path), err)
		return err
	}
	s.AddImage(r.Pixels(), path)
	return nil
}

// LoadAll adds every readable file in paths and returns how many were added.
// Unreadable files are skipped and reported in the joined error.
func (s *Session) LoadAll(paths []string) (int, error) {
	var errs []error
	n := 0
	for _, p := range paths {
		if err := s.Load(p); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	if len(paths) > 1 {
		s.statusf("Loaded %d of %d images", n, len(paths))
	}
	return n, errors.Join(errs...)
}

// LoadFolder adds every supported image in dir, in name order.
func (s *Session) LoadFolder(dir string) (int, error) {
	paths, err := lcimage.LoadFolder(dir)
	if err != nil {
		s.warn("Failed to read folder", err)
		return 0, err
	}
	if len(paths) == 0 {
		s.setStatus("No supported images in " + displayName(dir))
		return 0, nil
	}
	return s.LoadAll(paths)
}

// Select sets the selection; stack.None clears it. An invalid index is
// reported and ignored.
func (s *Session) Select(i int) bool {
	if err := s.stack.Select(i); err != nil {
		s.warn("Select", err)
		return false
	}
	s.Emit(EventSelectionChanged, s.stack.Selection())
	return true
}

// SelectAt selects the topmost record containing p, or clears the selection.
// It returns the selected index.
func (s *Session) SelectAt(p image.Point) int {
	i := s.stack.HitTest(p)
	_ = s.stack.Select(i)
	if r := s.stack.At(i); r != nil {
		s.statusf("Selected: %s", displayName(r.Path))
	}
	s.Emit(EventSelectionChanged, s.stack.Selection())
	return i
}

// Delete removes the selected record.
func (s *Session) Delete() bool {
	return s.DeleteAt(s.stack.Selected())
}

// DeleteAt removes the record at index i.
func (s *Session) DeleteAt(i int) bool {
	return s.structural("Delete", i, func() error {
		name := displayName(s.stack.At(i).Path)
		if err := s.stack.RemoveAt(i); err != nil {
			return err
		}
		s.statusf("Deleted image: %s", name)
		return nil
	})
}

// BringToFront moves the selected record to the top.
func (s *Session) BringToFront() bool {
	return s.BringToFrontAt(s.stack.Selected())
}

// BringToFrontAt moves the record at i to the top.
func (s *Session) BringToFrontAt(i int) bool {
	return s.structural("Bring to front", i, func() error {
		return s.stack.BringToFront(i)
	})
}

// SendToBack moves the selected record to the bottom.
func (s *Session) SendToBack() bool {
	return s.SendToBackAt(s.stack.Selected())
}

// SendToBackAt moves the record at i to the bottom.
func (s *Session) SendToBackAt(i int) bool {
	return s.structural("Send to back", i, func() error {
		return s.stack.SendToBack(i)
	})
}

// structural validates i, snapshots and runs fn.
func (s *Session) structural(name string, i int, fn func() error) bool {
	if !s.stack.Valid(i) {
		s.warn(name, fmt.Errorf("%d: %w", i, stack.ErrInvalidIndex))
		return false
	}
	s.finishGestures()
	s.snapshot()
	if err := fn(); err != nil {
		s.warn(name, err)
		return false
	}
	s.emitChanged()
	return true
}

// ResetCanvas removes every record as one undoable step. Overlays are kept.
func (s *Session) ResetCanvas() bool {
	if s.stack.Empty() {
		return false
	}
	s.finishGestures()
	s.snapshot()
	s.stack.Clear()
	s.setStatus("Canvas reset")
	s.emitChanged()
	return true
}

func displayName(path string) string {
	if path == "" {
		return "untitled"
	}
	return filepath.Base(path)
}
