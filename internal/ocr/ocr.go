// Package ocr turns recognised words into text overlay elements.
package ocr

import (
	"context"
	"image"
	"image/color"
	"sort"
	"strings"

	"layercanvas/internal/overlay"
	"layercanvas/pkg/colorutil"
)

// Word is one recognised word in image coordinates.
type Word struct {
	Text       string
	Box        image.Rectangle
	Confidence float64 // 0..100
}

// Recognizer finds words in an image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Word, error)
}

// Options controls how words become text elements.
type Options struct {
	// MinConfidence drops words below this confidence.
	MinConfidence float64
	// JoinLines merges words on the same line into one element.
	JoinLines bool
	// SampleColor picks each element's colour from the ink under its box.
	SampleColor bool
}

// DefaultOptions returns the options used by the editor.
func DefaultOptions() Options {
	return Options{MinConfidence: 60, JoinLines: true, SampleColor: true}
}

// Filter drops blank words and words under min confidence. Overlapping
// duplicates keep the more confident word.
func Filter(words []Word, min float64) []Word {
	var out []Word
	for _, w := range words {
		w.Text = strings.Join(strings.Fields(w.Text), " ")
		if w.Text == "" || w.Confidence < min || w.Box.Empty() {
			continue
		}
		if j := duplicateOf(w, out); j >= 0 {
			if w.Confidence > out[j].Confidence {
				out[j] = w
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

func duplicateOf(w Word, existing []Word) int {
	for i, e := range existing {
		in := w.Box.Intersect(e.Box)
		if in.Empty() {
			continue
		}
		smaller := min(area(w.Box), area(e.Box))
		if area(in)*2 >= smaller {
			return i
		}
	}
	return -1
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// Lines groups words whose vertical centres fall inside each other's boxes
// and returns one word per line, left to right.
func Lines(words []Word) []Word {
	sorted := append([]Word(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Box.Min.Y != sorted[j].Box.Min.Y {
			return sorted[i].Box.Min.Y < sorted[j].Box.Min.Y
		}
		return sorted[i].Box.Min.X < sorted[j].Box.Min.X
	})

	var lines [][]Word
	for _, w := range sorted {
		placed := false
		for i, line := range lines {
			if sameLine(line[0].Box, w.Box) {
				lines[i] = append(line, w)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, []Word{w})
		}
	}

	out := make([]Word, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].Box.Min.X < line[j].Box.Min.X })
		joined := Word{Box: line[0].Box, Confidence: line[0].Confidence}
		parts := make([]string, 0, len(line))
		for _, w := range line {
			parts = append(parts, w.Text)
			joined.Box = joined.Box.Union(w.Box)
			joined.Confidence = min(joined.Confidence, w.Confidence)
		}
		joined.Text = strings.Join(parts, " ")
		out = append(out, joined)
	}
	return out
}

func sameLine(a, b image.Rectangle) bool {
	ca := (a.Min.Y + a.Max.Y) / 2
	cb := (b.Min.Y + b.Max.Y) / 2
	return (ca >= b.Min.Y && ca < b.Max.Y) || (cb >= a.Min.Y && cb < a.Max.Y)
}

// TextElements converts words found in img into overlay elements placed at
// offset, normally the record's canvas position.
func TextElements(img image.Image, words []Word, offset image.Point, opts Options) []overlay.TextElement {
	words = Filter(words, opts.MinConfidence)
	if opts.JoinLines {
		words = Lines(words)
	}
	els := make([]overlay.TextElement, 0, len(words))
	for _, w := range words {
		el := overlay.NewTextElement(w.Text, w.Box.Min.Add(offset))
		el.Size = fontSize(w.Box)
		if opts.SampleColor && img != nil {
			el.Color = InkColor(img, w.Box)
		}
		els = append(els, el)
	}
	return els
}

// fontSize approximates the point size that fills a word box of this height.
func fontSize(box image.Rectangle) float64 {
	return max(8, float64(box.Dy())*0.9)
}

// InkColor estimates the colour of text inside box. The box border is taken
// as background and the pixels furthest from it as ink.
func InkColor(img image.Image, box image.Rectangle) color.Color {
	box = box.Intersect(img.Bounds())
	if box.Empty() {
		return colorutil.Black
	}
	bg := borderAverage(img, box)

	type sample struct {
		c    color.RGBA
		dist int
	}
	samples := make([]sample, 0, area(box))
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			samples = append(samples, sample{c, distance(c, bg)})
		}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].dist > samples[j].dist })

	// the furthest tenth is taken as the glyph strokes
	n := max(1, len(samples)/10)
	var r, g, b int
	for _, s := range samples[:n] {
		r += int(s.c.R)
		g += int(s.c.G)
		b += int(s.c.B)
	}
	return color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: 255}
}

func borderAverage(img image.Image, box image.Rectangle) color.RGBA {
	var r, g, b, count int
	add := func(x, y int) {
		c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
		r += int(c.R)
		g += int(c.G)
		b += int(c.B)
		count++
	}
	for x := box.Min.X; x < box.Max.X; x++ {
		add(x, box.Min.Y)
		add(x, box.Max.Y-1)
	}
	for y := box.Min.Y; y < box.Max.Y; y++ {
		add(box.Min.X, y)
		add(box.Max.X-1, y)
	}
	return color.RGBA{R: uint8(r / count), G: uint8(g / count), B: uint8(b / count), A: 255}
}

func distance(a, b color.RGBA) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}
