package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func TestNewRecordCopiesPixels(t *testing.T) {
	src := solid(4, 3, red)
	r := NewRecord(src, "a.png")

	assert.Equal(t, 4, r.Width())
	assert.Equal(t, 3, r.Height())
	assert.True(t, r.Visible)

	src.Set(0, 0, blue)
	assert.Equal(t, red, r.Pixels().RGBAAt(0, 0), "record must not alias its source")
}

func TestNewRecordNormalizesOrigin(t *testing.T) {
	src := solid(10, 10, red).SubImage(image.Rect(5, 5, 8, 9))
	r := NewRecord(src, "")
	assert.Equal(t, image.Rect(0, 0, 3, 4), r.Pixels().Bounds())
}

func TestCloneIsIndependent(t *testing.T) {
	r := NewRecord(solid(2, 2, red), "a.png")
	r.Position = image.Pt(3, 4)
	r.SetRotation(90)

	c := r.Clone()
	require.True(t, r.Equal(c))

	r.SetPixels(solid(2, 2, blue))
	r.Position = image.Pt(0, 0)
	assert.False(t, r.Equal(c))
	assert.Equal(t, red, c.Pixels().RGBAAt(1, 1))
	assert.Equal(t, image.Pt(3, 4), c.Position)
	assert.Equal(t, 90.0, c.Rotation())
}

func TestRotationNormalized(t *testing.T) {
	r := NewRecord(solid(2, 2, red), "")
	r.Rotate(-90)
	assert.Equal(t, 270.0, r.Rotation())
	r.Rotate(90)
	assert.Equal(t, 0.0, r.Rotation())
	r.SetRotation(720 + 45)
	assert.Equal(t, 45.0, r.Rotation())
}

func TestFootprintGrowsWithRotation(t *testing.T) {
	r := NewRecord(solid(4, 2, red), "")
	assert.Equal(t, image.Pt(4, 2), r.Footprint())

	r.SetRotation(90)
	assert.Equal(t, image.Pt(2, 4), r.Footprint())
	assert.Equal(t, 4, r.Width(), "rotation is not baked into the pixels")

	r.BakeRotation()
	assert.Equal(t, 0.0, r.Rotation())
	assert.Equal(t, 2, r.Width())
	assert.Equal(t, 4, r.Height())
}

func TestContainsIsInclusive(t *testing.T) {
	r := NewRecord(solid(10, 10, red), "")
	r.Position = image.Pt(5, 5)

	assert.True(t, r.Contains(image.Pt(5, 5)))
	assert.True(t, r.Contains(image.Pt(15, 15)))
	assert.False(t, r.Contains(image.Pt(16, 15)))
	assert.False(t, r.Contains(image.Pt(4, 10)))
}

func TestResetToOriginal(t *testing.T) {
	r := NewRecord(solid(3, 3, red), "")
	r.SetPixels(solid(5, 5, blue))
	require.Equal(t, 5, r.Width())

	r.ResetToOriginal()
	assert.Equal(t, 3, r.Width())
	assert.Equal(t, red, r.Pixels().RGBAAt(2, 2))
}

func TestScaledOriginal(t *testing.T) {
	r := NewRecord(solid(10, 20, red), "")
	scaled := r.ScaledOriginal(50)
	assert.Equal(t, image.Pt(5, 10), scaled.Bounds().Size())

	tiny := r.ScaledOriginal(1)
	assert.Equal(t, image.Pt(1, 1), tiny.Bounds().Size())
}

func TestCenterOn(t *testing.T) {
	r := NewRecord(solid(10, 20, red), "")
	r.CenterOn(image.Pt(100, 100))
	assert.Equal(t, image.Pt(45, 40), r.Position)
}

func TestCompositeOrderAndClipping(t *testing.T) {
	bottom := NewRecord(solid(4, 4, red), "")
	top := NewRecord(solid(4, 4, blue), "")
	top.Position = image.Pt(2, 2)
	hidden := NewRecord(solid(6, 6, color.Black), "")
	hidden.Visible = false
	offCanvas := NewRecord(solid(4, 4, color.Black), "")
	offCanvas.Position = image.Pt(50, 50)

	c := NewComposite(5, 5)
	c.Add(bottom, top, hidden, offCanvas)
	out := c.Render()

	require.Equal(t, image.Rect(0, 0, 5, 5), out.Bounds())
	assert.Equal(t, red, out.RGBAAt(0, 0))
	assert.Equal(t, blue, out.RGBAAt(3, 3), "later records paint on top")
	assert.Equal(t, blue, out.RGBAAt(4, 4), "partially visible record is clipped, not dropped")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(4, 0))
}

func TestCompositeNegativePosition(t *testing.T) {
	r := NewRecord(solid(4, 4, red), "")
	r.Position = image.Pt(-2, -2)
	c := NewComposite(4, 4)
	c.Add(r)
	out := c.Render()
	assert.Equal(t, red, out.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(2, 2))
}

func TestFlatten(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, red)
	out := Flatten(src, color.White)
	assert.Equal(t, red, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(1, 1))
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img, format, err := Decode(encodePNG(t, solid(3, 2, red)))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Pt(3, 2), img.Bounds().Size())

	_, _, err = Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestLoadAndFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), encodePNG(t, solid(2, 2, red)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.PNG"), encodePNG(t, solid(2, 2, blue)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("x"), 0o644))

	paths, err := LoadFolder(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "broken.jpg"),
	}, paths)

	r, err := Load(paths[1])
	require.NoError(t, err)
	assert.Equal(t, paths[1], r.Path)

	_, err = Load(paths[2])
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestFit(t *testing.T) {
	small := solid(10, 10, red)
	assert.Same(t, small, Fit(small, image.Pt(20, 20)).(*image.RGBA))

	big := Fit(solid(200, 100, red), image.Pt(50, 50))
	assert.Equal(t, image.Pt(50, 25), big.Bounds().Size())
}

func TestSupportedFormats(t *testing.T) {
	assert.True(t, IsSupportedFormat("x.JPG"))
	assert.True(t, IsSupportedFormat("x.webp"))
	assert.False(t, IsSupportedFormat("x.svg"))
}
