package filters

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / max(1, w-1))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

func TestEveryKindHasHandler(t *testing.T) {
	src := gradient(16, 8)
	for _, k := range Kinds() {
		out, err := Apply(k, src)
		require.NoError(t, err, k.String())
		assert.Equal(t, src.Bounds().Size(), out.Bounds().Size(), k.String())
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind(" SEPIA ")
	require.NoError(t, err)
	assert.Equal(t, Sepia, got)

	_, err = ParseKind("oil")
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = Apply(Kind(99), gradient(2, 2))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestInputIsNotModified(t *testing.T) {
	src := gradient(8, 8)
	before := append([]uint8(nil), src.Pix...)
	for _, k := range Kinds() {
		_, err := Apply(k, src)
		require.NoError(t, err)
	}
	assert.Equal(t, before, src.Pix)
}

func TestInvertAndGrayscale(t *testing.T) {
	out, err := Apply(Invert, solid(2, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255}))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 245, G: 235, B: 225, A: 255}, out.RGBAAt(0, 0))

	out, err = Apply(Grayscale, gradient(4, 1))
	require.NoError(t, err)
	c := out.RGBAAt(2, 0)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}

func TestDarkerLighter(t *testing.T) {
	src := solid(1, 1, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	dark, _ := Apply(Darker, src)
	light, _ := Apply(Lighter, src)
	assert.Equal(t, uint8(50), dark.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(150), light.RGBAAt(0, 0).R)
}

func TestSolarizeAndPosterize(t *testing.T) {
	src := solid(1, 1, color.RGBA{R: 200, G: 50, B: 128, A: 255})
	out := SolarizeAbove(src, 128)
	assert.Equal(t, color.RGBA{R: 55, G: 50, B: 127, A: 255}, out.RGBAAt(0, 0))

	out = PosterizeLevels(src, 2)
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 255, A: 255}, out.RGBAAt(0, 0))
}

func TestAdjustment(t *testing.T) {
	src := solid(1, 1, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	assert.True(t, NoAdjustment().IsIdentity())
	assert.Equal(t, src.Pix, NoAdjustment().Apply(src).Pix)

	a := NoAdjustment()
	a.Red = 2
	a.Blue = 0.5
	assert.False(t, a.IsIdentity())
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, a.Apply(src).RGBAAt(0, 0))

	a = NoAdjustment()
	a.Red = 5
	assert.Equal(t, uint8(255), a.Apply(src).RGBAAt(0, 0).R, "channels clamp")
}

func TestEffectsAndStyles(t *testing.T) {
	src := gradient(12, 6)
	for _, e := range Effects() {
		out, err := ApplyEffect(e, src)
		require.NoError(t, err, e.String())
		assert.Equal(t, src.Bounds().Size(), out.Bounds().Size())

		parsed, err := ParseEffect(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, parsed)
	}
	for _, s := range Styles() {
		out, err := ApplyStyle(s, src, 0.7)
		require.NoError(t, err, s.String())
		assert.Equal(t, src.Bounds().Size(), out.Bounds().Size())
	}

	s, err := ParseStyle("Van Gogh")
	require.NoError(t, err)
	assert.Equal(t, VanGogh, s)

	_, err = ApplyStyle(Style(42), src, 1)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestAutoEnhanceSpreadsTones(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 1))
	for x := 0; x < 10; x++ {
		v := uint8(100 + x*2)
		img.SetRGBA(x, 0, color.RGBA{R: v, G: v, B: v, A: 255})
	}
	_, before := LumaStats(img)
	mean, after := LumaStats(AutoEnhance(img))

	assert.Greater(t, after, before)
	assert.InDelta(t, 128, mean, 3)
}

func TestAutoEnhanceFlatImage(t *testing.T) {
	out := AutoEnhance(solid(3, 3, color.RGBA{R: 40, G: 40, B: 40, A: 255}))
	assert.Equal(t, uint8(128), out.RGBAAt(1, 1).R)
}
