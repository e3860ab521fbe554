package app

import (
	"context"
	"fmt"

	"layercanvas/internal/ocr"
)

// RecognizeText reads the words on the target record as painted and adds
// them to the text overlay at their canvas positions. It returns how many
// elements were added.
func (s *Session) RecognizeText(ctx context.Context, rec ocr.Recognizer, opts ocr.Options) (int, error) {
	s.finishGestures()
	_, r, err := s.target()
	if err != nil {
		s.warn("Recognize text", err)
		return 0, err
	}
	img := r.Rendered()
	words, err := rec.Recognize(ctx, img)
	if err != nil {
		err = fmt.Errorf("recognize %s: %w", displayName(r.Path), err)
		s.warn("Recognize text", err)
		return 0, err
	}
	n := s.AddTextElements(ocr.TextElements(img, words, r.Position, opts))
	if n == 0 {
		s.setStatus("No text found")
	}
	return n, nil
}
