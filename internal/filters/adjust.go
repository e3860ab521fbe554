package filters

import (
	"image"
	"image/color"

	"layercanvas/pkg/colorutil"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/clone"
)

// Brightness scales every channel by factor. 1 leaves the image unchanged,
// 0 makes it black.
func Brightness(img image.Image, factor float64) *image.RGBA {
	if factor == 1 {
		return clone.AsRGBA(img)
	}
	return adjust.Brightness(img, factor-1)
}

// ContrastFactor spreads channel values away from mid grey by factor.
func ContrastFactor(img image.Image, factor float64) *image.RGBA {
	if factor == 1 {
		return clone.AsRGBA(img)
	}
	return adjust.Contrast(img, factor-1)
}

// Saturation scales colourfulness by factor; 0 yields grey.
func Saturation(img image.Image, factor float64) *image.RGBA {
	if factor == 1 {
		return clone.AsRGBA(img)
	}
	return adjust.Saturation(img, factor-1)
}

// Adjustment is a set of colour corrections applied together. All values
// are factors where 1 means no change.
type Adjustment struct {
	Red        float64 `yaml:"red"`
	Green      float64 `yaml:"green"`
	Blue       float64 `yaml:"blue"`
	Brightness float64 `yaml:"brightness"`
	Contrast   float64 `yaml:"contrast"`
}

// NoAdjustment leaves an image unchanged.
func NoAdjustment() Adjustment {
	return Adjustment{Red: 1, Green: 1, Blue: 1, Brightness: 1, Contrast: 1}
}

// IsIdentity reports whether applying a would change nothing.
func (a Adjustment) IsIdentity() bool {
	return a == NoAdjustment()
}

// Apply runs brightness, then contrast, then the channel factors.
func (a Adjustment) Apply(img image.Image) *image.RGBA {
	out := clone.AsRGBA(img)
	if a.Brightness != 1 {
		out = Brightness(out, a.Brightness)
	}
	if a.Contrast != 1 {
		out = ContrastFactor(out, a.Contrast)
	}
	if a.Red != 1 || a.Green != 1 || a.Blue != 1 {
		out = adjust.Apply(out, func(c color.RGBA) color.RGBA {
			return color.RGBA{
				R: colorutil.ClampByte(float64(c.R) * a.Red),
				G: colorutil.ClampByte(float64(c.G) * a.Green),
				B: colorutil.ClampByte(float64(c.B) * a.Blue),
				A: c.A,
			}
		})
	}
	return out
}

// Func returns the adjustment as a transform.
func (a Adjustment) Func() Func {
	return a.Apply
}
