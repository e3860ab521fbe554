package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"layercanvas/pkg/colorutil"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
)

// ErrEmptyText is returned when a text element has nothing to show.
var ErrEmptyText = errors.New("text is empty")

// ErrNoElement is returned for an element index outside the layer.
var ErrNoElement = errors.New("no such text element")

// Align is the horizontal anchor of a text element.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// anchor is the fraction of the text width left of the position.
func (a Align) anchor() float64 {
	switch a {
	case AlignCenter:
		return 0.5
	case AlignRight:
		return 1
	default:
		return 0
	}
}

// Family is the typeface of a text element.
type Family int

const (
	FamilySans Family = iota
	FamilyMono
	FamilySmallCaps
)

// Families lists every typeface in menu order.
func Families() []Family {
	return []Family{FamilySans, FamilyMono, FamilySmallCaps}
}

func (f Family) String() string {
	switch f {
	case FamilyMono:
		return "mono"
	case FamilySmallCaps:
		return "smallcaps"
	default:
		return "sans"
	}
}

// ParseFamily converts a family name. Unknown names are an error.
func ParseFamily(name string) (Family, error) {
	for _, f := range Families() {
		if strings.EqualFold(name, f.String()) {
			return f, nil
		}
	}
	return FamilySans, fmt.Errorf("unknown font family %q", name)
}

// TextElement is one piece of text placed on the canvas. Position is the top
// of the text; Align decides which horizontal edge it marks.
type TextElement struct {
	Text      string
	Position  image.Point
	Size      float64
	Family    Family
	Color     color.Color
	Bold      bool
	Italic    bool
	Underline bool
	Align     Align
}

// NewTextElement returns an element with the default size and colour.
func NewTextElement(s string, at image.Point) TextElement {
	return TextElement{Text: s, Position: at, Size: 24, Color: colorutil.Black}
}

type fontStyle struct {
	family       Family
	bold, italic bool
}

// TextLayer collects text elements in creation order.
type TextLayer struct {
	elements []TextElement
	sources  map[fontStyle]*text.FontSource
}

// NewTextLayer creates an empty layer.
func NewTextLayer() *TextLayer {
	return &TextLayer{sources: make(map[fontStyle]*text.FontSource)}
}

// Add appends an element and returns its index.
func (l *TextLayer) Add(el TextElement) (int, error) {
	el, err := normalize(el)
	if err != nil {
		return -1, err
	}
	l.elements = append(l.elements, el)
	return len(l.elements) - 1, nil
}

// Update replaces the element at index i.
func (l *TextLayer) Update(i int, el TextElement) error {
	if i < 0 || i >= len(l.elements) {
		return fmt.Errorf("update %d: %w", i, ErrNoElement)
	}
	el, err := normalize(el)
	if err != nil {
		return err
	}
	l.elements[i] = el
	return nil
}

// Delete removes the element at index i.
func (l *TextLayer) Delete(i int) error {
	if i < 0 || i >= len(l.elements) {
		return fmt.Errorf("delete %d: %w", i, ErrNoElement)
	}
	l.elements = append(l.elements[:i], l.elements[i+1:]...)
	return nil
}

// Clear removes every element.
func (l *TextLayer) Clear() {
	l.elements = nil
}

// Elements returns the elements, oldest first.
func (l *TextLayer) Elements() []TextElement {
	out := make([]TextElement, len(l.elements))
	copy(out, l.elements)
	return out
}

// Len returns the number of elements.
func (l *TextLayer) Len() int {
	return len(l.elements)
}

func normalize(el TextElement) (TextElement, error) {
	el.Text = strings.TrimSpace(el.Text)
	if el.Text == "" {
		return el, ErrEmptyText
	}
	if el.Size <= 0 {
		el.Size = 24
	}
	if el.Color == nil {
		el.Color = colorutil.Black
	}
	if el.Family < FamilySans || el.Family > FamilySmallCaps {
		el.Family = FamilySans
	}
	return el, nil
}

func (l *TextLayer) face(el TextElement) (text.Face, error) {
	key := fontStyle{family: el.Family, bold: el.Bold, italic: el.Italic}
	src, ok := l.sources[key]
	if !ok {
		var err error
		src, err = text.NewFontSource(fontData(key))
		if err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
		l.sources[key] = src
	}
	return src.Face(el.Size), nil
}

// fontData picks the Go font for s. Small caps has no bold cut.
func fontData(s fontStyle) []byte {
	switch s.family {
	case FamilyMono:
		switch {
		case s.bold && s.italic:
			return gomonobolditalic.TTF
		case s.bold:
			return gomonobold.TTF
		case s.italic:
			return gomonoitalic.TTF
		default:
			return gomono.TTF
		}
	case FamilySmallCaps:
		if s.italic {
			return gosmallcapsitalic.TTF
		}
		return gosmallcaps.TTF
	}
	switch {
	case s.bold && s.italic:
		return gobolditalic.TTF
	case s.bold:
		return gobold.TTF
	case s.italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}

// Redraw paints every element in creation order.
func (l *TextLayer) Redraw(dc *gg.Context) error {
	for i, el := range l.elements {
		face, err := l.face(el)
		if err != nil {
			return fmt.Errorf("text %d: %w", i, err)
		}
		dc.SetFont(face)
		dc.SetColor(el.Color)
		x, y := float64(el.Position.X), float64(el.Position.Y)
		ax := el.Align.anchor()
		dc.DrawStringAnchored(el.Text, x, y, ax, 0)

		if el.Underline {
			w, _ := dc.MeasureString(el.Text)
			m := face.Metrics()
			base := y + m.Ascent + m.Descent + 2
			left := x - w*ax
			dc.SetLineWidth(1)
			dc.MoveTo(left, base)
			dc.LineTo(left+w, base)
			if err := dc.Stroke(); err != nil {
				return fmt.Errorf("underline %d: %w", i, err)
			}
		}
	}
	return nil
}
