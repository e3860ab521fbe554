package app

import (
	"image/color"

	"layercanvas/internal/export"
	"layercanvas/internal/stack"
)

// SaveSelected writes the target record, rotation applied.
func (s *Session) SaveSelected(path string, opts export.Options) error {
	_, r, err := s.target()
	if err != nil {
		s.warn("Save", err)
		return err
	}
	if err := export.SaveRecord(path, r, opts); err != nil {
		s.warn("Save", err)
		return err
	}
	s.statusf("Saved: %s", displayName(path))
	return nil
}

// SaveComposite writes every visible record flattened onto a transparent
// canvas. Opaque formats get the options' background instead.
func (s *Session) SaveComposite(path string, opts export.Options) error {
	if s.stack.Empty() {
		s.warn("Save composite", ErrNoTarget)
		return ErrNoTarget
	}
	if err := export.Save(path, s.Composite(color.Transparent), opts); err != nil {
		s.warn("Save composite", err)
		return err
	}
	s.statusf("Saved composite: %s", displayName(path))
	return nil
}

// SaveCanvas writes the canvas as displayed, overlays included but without
// the selection highlight.
func (s *Session) SaveCanvas(path string, opts export.Options) error {
	sel := s.stack.Selected()
	_ = s.stack.Select(stack.None)
	frame, err := s.Render()
	_ = s.stack.Select(sel)
	if err == nil {
		err = export.Save(path, frame, opts)
	}
	if err != nil {
		s.warn("Save canvas", err)
		return err
	}
	s.statusf("Canvas saved as: %s", displayName(path))
	return nil
}
