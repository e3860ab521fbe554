package batch

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"layercanvas/internal/export"
	lcimage "layercanvas/internal/image"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 20), G: 100, B: uint8(y * 20), A: 255})
		}
	}
	return img
}

func TestParseNumbers(t *testing.T) {
	nums, err := ParseNumbers(" 90, 180 ,270,")
	require.NoError(t, err)
	assert.Equal(t, []float64{90, 180, 270}, nums)

	_, err = ParseNumbers("90, ninety")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	vars, err := Parse(Scale, "0.5, 1.5")
	require.NoError(t, err)
	assert.Equal(t, []Variation{{Type: Scale, Number: 0.5}, {Type: Scale, Number: 1.5}}, vars)

	vars, err = Parse(Style, "van_gogh:0.8, monet")
	require.NoError(t, err)
	assert.Equal(t, []Variation{StyleAt("van_gogh", 0.8), StyleAt("monet", 1)}, vars)

	_, err = Parse(Style, "monet:loud")
	assert.Error(t, err)

	typ, err := ParseType("style_transfer")
	require.NoError(t, err)
	assert.Equal(t, Style, typ)
	_, err = ParseType("lightglue")
	assert.Error(t, err)
}

func TestParseSpec(t *testing.T) {
	vars, err := ParseSpec("rotation=90,180\n# comment\n\nfilter=sepia; style=monet:0.5")
	require.NoError(t, err)
	assert.Equal(t, []Variation{
		{Type: Rotation, Number: 90},
		{Type: Rotation, Number: 180},
		{Type: Filter, Value: "sepia"},
		StyleAt("monet", 0.5),
	}, vars)

	_, err = ParseSpec("rotation 90")
	assert.Error(t, err)
	_, err = ParseSpec("warp=1")
	assert.Error(t, err)
	_, err = ParseSpec("scale=big")
	assert.Error(t, err)
}

func TestFormatSpecRoundTrip(t *testing.T) {
	spec := FormatSpec(Defaults())
	assert.Contains(t, spec, "rotation=90,180,270")
	assert.Contains(t, spec, "filter=sepia,grayscale,invert,blur,sharpen,emboss,edge_enhance")

	vars, err := ParseSpec(spec)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), vars)

	assert.Equal(t, "style=monet:0.5", FormatSpec([]Variation{StyleAt("monet", 0.5)}))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "rotation_90", Variation{Type: Rotation, Number: 90}.String())
	assert.Equal(t, "scale_0.75", Variation{Type: Scale, Number: 0.75}.String())
	assert.Equal(t, "filter_sepia", Variation{Type: Filter, Value: "sepia"}.String())
	assert.Equal(t, "style_monet_0.5", StyleAt("monet", 0.5).String())
}

func TestNamer(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	v := Variation{Type: Rotation, Number: 90}

	n := Namer{Format: export.JPEG, Now: func() time.Time { return at }}
	assert.Equal(t, "photo_rotation_90_3.jpg", n.Name("/tmp/photo.png", v, 3))

	n.Pattern = "{name}-{type}-{value}-{timestamp}"
	assert.Equal(t, "photo-rotation-90-20240309_140506.jpg", n.Name("photo.png", v, 0))

	n.Pattern = "{original}/{transformation}"
	n.Format = export.PNG
	assert.Equal(t, "photo_rotation_90.png", n.Name("photo.png", v, 0))
}

func TestApplyVariations(t *testing.T) {
	img := source(4, 2)

	out, err := Variation{Type: Rotation, Number: 90}.Apply(img)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(2, 4), out.Bounds().Size())

	out, err = Variation{Type: Scale, Number: 1.5}.Apply(img)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(6, 3), out.Bounds().Size())

	_, err = Variation{Type: Scale, Number: 0.1}.Apply(img)
	assert.Error(t, err)

	for _, v := range Defaults() {
		out, err := v.Apply(img)
		require.NoError(t, err, v.String())
		assert.False(t, out.Bounds().Empty(), v.String())
	}

	_, err = Variation{Type: Filter, Value: "glow"}.Apply(img)
	assert.Error(t, err)
	_, err = Variation{Type: Custom, Value: "x"}.Apply(img)
	assert.Error(t, err)
}

func TestRunContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)
	p.Register("boom", func(image.Image) (image.Image, error) { panic("no") })
	p.Register("fail", func(image.Image) (image.Image, error) { return nil, errors.New("nope") })

	var progress []int
	p.Progress = func(done, total int, _ Result) {
		assert.Equal(t, 5, total)
		progress = append(progress, done)
	}

	vars := []Variation{
		{Type: Rotation, Number: 90},
		{Type: Custom, Value: "boom"},
		{Type: Filter, Value: "glow"},
		{Type: Custom, Value: "fail"},
		{Type: Brightness, Number: 1.3},
	}
	report, err := p.Run(context.Background(), source(4, 2), "src.png", vars)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)
	assert.Equal(t, 2, report.Succeeded())
	assert.Len(t, report.Failed(), 3)
	assert.Error(t, report.Err())

	assert.FileExists(t, filepath.Join(dir, "src_rotation_90_0.png"))
	assert.FileExists(t, filepath.Join(dir, "src_brightness_1.3_4.png"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunStopsOnCancel(t *testing.T) {
	p := NewProcessor(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	p.Progress = func(done, _ int, _ Result) {
		if done == 1 {
			cancel()
		}
	}
	report, err := p.Run(ctx, source(4, 2), "src.png", Defaults())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, report.Results, 1)
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	require.NoError(t, export.Save(src, source(4, 2), export.DefaultOptions()))

	out := filepath.Join(dir, "out")
	p := NewProcessor(out)
	p.Namer.Format = export.JPEG
	report, err := p.RunFile(context.Background(), src, Numbers(Scale, 2))
	require.NoError(t, err)
	require.NoError(t, report.Err())

	r, err := lcimage.Load(report.Results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, 8, r.Width())
	assert.Equal(t, "in_scale_2_0.jpg", filepath.Base(report.Results[0].Path))

	_, err = p.RunFile(context.Background(), filepath.Join(dir, "missing.png"), nil)
	assert.Error(t, err)
}
