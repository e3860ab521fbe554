package generate

import (
	"context"
	"hash/fnv"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/perlin"
)

// Local paints placeholder images from perlin noise without any service.
// The same prompt and seed always give the same picture, tinted with two
// colours picked from the prompt.
type Local struct {
	// Frequency scales the noise; larger values give finer detail.
	Frequency float64
}

// NewLocal returns a local generator.
func NewLocal() *Local {
	return &Local{Frequency: 0.3}
}

// Name implements Generator.
func (l *Local) Name() string {
	return ServiceLocal
}

// Generate implements Generator.
func (l *Local) Generate(ctx context.Context, req Request) ([]image.Image, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	seed := int64(req.Seed)
	if req.Seed < 0 {
		h := fnv.New64a()
		h.Write([]byte(req.Prompt))
		seed = int64(h.Sum64() >> 1)
	}
	from, to := palette(req.Prompt)

	n := max(1, req.Count)
	imgs := make([]image.Image, 0, n)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		imgs = append(imgs, l.paint(req.Size, seed+int64(i), from, to))
	}
	return imgs, nil
}

func (l *Local) paint(size Size, seed int64, from, to color.RGBA) image.Image {
	p := perlin.NewPerlin(2, 2, 3, seed)
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	freq := l.Frequency / 10
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			t := (p.Noise2D(float64(x)*freq, float64(y)*freq) + 1) / 2
			img.SetRGBA(x, y, mix(from, to, t))
		}
	}
	return blur.Box(img, 1)
}

// palette derives two colours from the prompt text.
func palette(prompt string) (color.RGBA, color.RGBA) {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	v := h.Sum32()
	from := color.RGBA{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: 255}
	to := color.RGBA{R: 255 - from.B, G: 255 - from.R, B: 255 - from.G, A: 255}
	return from, to
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	t = max(0, min(1, t))
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}
