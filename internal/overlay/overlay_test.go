package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineStyle(t *testing.T) {
	assert.Nil(t, Solid.Dash())
	assert.Equal(t, []float64{10, 5}, Dashed.Dash())

	s, err := ParseLineStyle("Dotted")
	require.NoError(t, err)
	assert.Equal(t, Dotted, s)

	_, err = ParseLineStyle("wavy")
	assert.Error(t, err)
}

func TestStrokeLifecycle(t *testing.T) {
	d := NewDrawing()
	assert.False(t, d.Extend(image.Pt(1, 1)), "no stroke in progress")

	d.Begin(image.Pt(0, 0))
	assert.True(t, d.Active())
	d.Extend(image.Pt(0, 0))
	assert.False(t, d.End(), "single point strokes are dropped")
	assert.Equal(t, 0, d.Len())

	d.Pen.Style = Dashed
	d.Begin(image.Pt(0, 0))
	d.Extend(image.Pt(10, 0))
	d.Extend(image.Pt(10, 10))
	require.True(t, d.End())

	strokes := d.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, []image.Point{{0, 0}, {10, 0}, {10, 10}}, strokes[0].Points)
	assert.Equal(t, Dashed, strokes[0].Style)
}

func TestBeginCommitsUnfinishedStroke(t *testing.T) {
	d := NewDrawing()
	d.Begin(image.Pt(0, 0))
	d.Extend(image.Pt(5, 5))
	d.Begin(image.Pt(20, 20))
	assert.Equal(t, 1, d.Len())
}

func TestRemoveLastAndClear(t *testing.T) {
	d := NewDrawing()
	assert.False(t, d.RemoveLast())
	for i := 0; i < 3; i++ {
		d.Begin(image.Pt(i, 0))
		d.Extend(image.Pt(i, 10))
		d.End()
	}
	require.True(t, d.RemoveLast())
	assert.Equal(t, 2, d.Len())
	d.Clear()
	assert.Equal(t, 0, d.Len())
}

func TestEraseAt(t *testing.T) {
	d := NewDrawing()
	d.Begin(image.Pt(0, 0))
	d.Extend(image.Pt(10, 0))
	d.End()
	d.Begin(image.Pt(100, 100))
	d.Extend(image.Pt(110, 100))
	d.End()

	assert.Equal(t, 1, d.EraseAt(image.Pt(12, 3), 5))
	require.Equal(t, 1, d.Len())
	assert.Equal(t, image.Pt(100, 100), d.Strokes()[0].Points[0])
	assert.Equal(t, 0, d.EraseAt(image.Pt(50, 50), 5))
}

func TestDrawingRedrawPaints(t *testing.T) {
	d := NewDrawing()
	d.Pen = Pen{Color: color.RGBA{R: 255, A: 255}, Width: 6, Style: Solid}
	d.Begin(image.Pt(5, 20))
	d.Extend(image.Pt(35, 20))
	d.End()

	dc := gg.NewContext(40, 40)
	defer dc.Close()
	dc.ClearWithColor(gg.FromColor(color.White))
	require.NoError(t, d.Redraw(dc))

	img := dc.Image()
	r, g, b, _ := img.At(20, 20).RGBA()
	assert.Greater(t, r, g)
	assert.Greater(t, r, b)
	r, g, b, _ = img.At(20, 5).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestTextLayerCRUD(t *testing.T) {
	l := NewTextLayer()

	_, err := l.Add(NewTextElement("   ", image.Pt(0, 0)))
	assert.ErrorIs(t, err, ErrEmptyText)

	i, err := l.Add(TextElement{Text: " hello ", Position: image.Pt(4, 4)})
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	el := l.Elements()[0]
	assert.Equal(t, "hello", el.Text)
	assert.Equal(t, 24.0, el.Size)
	assert.NotNil(t, el.Color)

	require.NoError(t, l.Update(0, NewTextElement("bye", image.Pt(1, 1))))
	assert.Equal(t, "bye", l.Elements()[0].Text)
	assert.ErrorIs(t, l.Update(5, NewTextElement("x", image.Pt(0, 0))), ErrNoElement)

	assert.ErrorIs(t, l.Delete(1), ErrNoElement)
	require.NoError(t, l.Delete(0))
	assert.Equal(t, 0, l.Len())

	_, _ = l.Add(NewTextElement("a", image.Pt(0, 0)))
	_, _ = l.Add(NewTextElement("b", image.Pt(0, 0)))
	l.Clear()
	assert.Equal(t, 0, l.Len())
}

func TestTextLayerRedraw(t *testing.T) {
	l := NewTextLayer()
	el := NewTextElement("Hi", image.Pt(2, 2))
	el.Size = 30
	el.Bold = true
	el.Underline = true
	_, err := l.Add(el)
	require.NoError(t, err)
	_, err = l.Add(NewTextElement("x", image.Pt(60, 2)))
	require.NoError(t, err)

	dc := gg.NewContext(100, 60)
	defer dc.Close()
	dc.ClearWithColor(gg.FromColor(color.White))
	require.NoError(t, l.Redraw(dc))

	img := dc.Image()
	dark := false
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !dark; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark, "text should leave ink on the canvas")
}

func TestParseFamily(t *testing.T) {
	for _, f := range Families() {
		got, err := ParseFamily(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFamily("MONO")
	require.NoError(t, err)
	assert.Equal(t, FamilyMono, got)
	_, err = ParseFamily("comic")
	assert.Error(t, err)
}

func TestTextFamilyChangesFace(t *testing.T) {
	l := NewTextLayer()
	sans := NewTextElement("iii", image.Pt(0, 0))
	mono := sans
	mono.Family = FamilyMono

	dc := gg.NewContext(10, 10)
	defer dc.Close()
	width := func(el TextElement) float64 {
		face, err := l.face(el)
		require.NoError(t, err)
		dc.SetFont(face)
		w, _ := dc.MeasureString(el.Text)
		return w
	}
	assert.Greater(t, width(mono), width(sans))

	i, err := l.Add(TextElement{Text: "x", Family: Family(42)})
	require.NoError(t, err)
	assert.Equal(t, FamilySans, l.Elements()[i].Family)
}
