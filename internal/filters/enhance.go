package filters

import (
	"image"
	"image/color"

	"layercanvas/pkg/colorutil"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/clone"
	"gonum.org/v1/gonum/stat"
)

// Target tone for AutoEnhance, on the 0-255 luma scale.
const (
	enhanceMean   = 128.0
	enhanceStdDev = 55.0
)

// LumaStats returns the mean and standard deviation of the image's luma.
func LumaStats(img image.Image) (mean, stddev float64) {
	src := clone.AsShallowRGBA(img)
	b := src.Bounds()
	luma := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.RGBAAt(x, y)
			luma = append(luma, colorutil.Luminance(c.R, c.G, c.B))
		}
	}
	if len(luma) == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(luma, nil)
}

// AutoEnhance remaps tones so the luma mean and spread move towards a
// balanced exposure. Flat images only get their mean shifted.
func AutoEnhance(img image.Image) *image.RGBA {
	mean, stddev := LumaStats(img)
	gain := 1.0
	if stddev > 1 {
		gain = min(enhanceStdDev/stddev, 2.5)
	}
	var lookup [256]uint8
	for i := range lookup {
		lookup[i] = colorutil.ClampByte((float64(i)-mean)*gain + enhanceMean)
	}
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{R: lookup[c.R], G: lookup[c.G], B: lookup[c.B], A: c.A}
	})
}
