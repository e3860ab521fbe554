package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	lcimage "layercanvas/internal/image"
	"layercanvas/internal/stack"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingOverlay struct {
	calls *[]string
	name  string
	err   error
}

func (o recordingOverlay) Redraw(dc *gg.Context) error {
	*o.calls = append(*o.calls, o.name)
	return o.err
}

type fillOverlay struct {
	rect image.Rectangle
	c    color.Color
}

func (o fillOverlay) Redraw(dc *gg.Context) error {
	dc.SetColor(o.c)
	dc.DrawRectangle(float64(o.rect.Min.X), float64(o.rect.Min.Y), float64(o.rect.Dx()), float64(o.rect.Dy()))
	return dc.Fill()
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRenderPaintsRecords(t *testing.T) {
	s := stack.New()
	r := lcimage.NewRecord(solid(20, 20, color.RGBA{B: 255, A: 255}), "")
	r.Position = image.Pt(10, 10)
	s.Add(r)

	frame, err := New(60, 40, DefaultOptions()).Render(s)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 60, 40), frame.Bounds())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, frame.RGBAAt(20, 20))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, frame.RGBAAt(50, 5))
}

func TestRenderCallsOverlaysInOrder(t *testing.T) {
	var calls []string
	_, err := New(10, 10, DefaultOptions()).Render(stack.New(),
		recordingOverlay{calls: &calls, name: "drawing"},
		nil,
		recordingOverlay{calls: &calls, name: "text"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"drawing", "text"}, calls)
}

func TestRenderOverlayError(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	_, err := New(10, 10, DefaultOptions()).Render(stack.New(),
		recordingOverlay{calls: &calls, name: "a", err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestOverlayDrawsAboveRecords(t *testing.T) {
	s := stack.New()
	s.Add(lcimage.NewRecord(solid(40, 40, color.RGBA{B: 255, A: 255}), ""))

	frame, err := New(40, 40, DefaultOptions()).Render(s,
		fillOverlay{rect: image.Rect(0, 0, 20, 20), c: color.RGBA{G: 255, A: 255}})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, frame.RGBAAt(10, 10))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, frame.RGBAAt(30, 30))
}

func TestHighlightOnlyWhenSelected(t *testing.T) {
	s := stack.New()
	r := lcimage.NewRecord(solid(30, 30, color.RGBA{B: 255, A: 255}), "")
	r.Position = image.Pt(10, 10)
	s.Add(r)
	rd := New(60, 60, DefaultOptions())

	plain, err := rd.Render(s)
	require.NoError(t, err)

	require.NoError(t, s.Select(0))
	highlighted, err := rd.Render(s)
	require.NoError(t, err)

	assert.False(t, lcimage.SamePixels(plain, highlighted))
	assert.Equal(t, plain.RGBAAt(25, 25), highlighted.RGBAAt(25, 25), "interior is untouched")
	assert.Equal(t, plain.RGBAAt(55, 55), highlighted.RGBAAt(55, 55))
}

func TestRenderIsDeterministic(t *testing.T) {
	s := stack.New()
	a := lcimage.NewRecord(solid(15, 25, color.RGBA{R: 200, A: 255}), "")
	a.SetRotation(30)
	s.Add(a)
	require.NoError(t, s.Select(0))
	rd := New(50, 50, DefaultOptions())

	first, err := rd.Render(s)
	require.NoError(t, err)
	second, err := rd.Render(s)
	require.NoError(t, err)
	assert.True(t, lcimage.SamePixels(first, second))
}
