// Package filters provides the pixel transforms applied to records. Every
// transform is a pure function from one bitmap to a new one.
package filters

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// ErrUnknownKind is returned when a filter name does not match any Kind.
var ErrUnknownKind = errors.New("unknown filter")

// Func is a pure bitmap transform.
type Func func(image.Image) *image.RGBA

// Kind identifies a standard filter.
type Kind int

const (
	Sepia Kind = iota
	Grayscale
	Invert
	Darker
	Lighter
	Contrast
	Blur
	Sharpen
	Edge
	Emboss
	Posterize
	Solarize
	EdgeEnhance
	Contour
)

var kindNames = map[Kind]string{
	Sepia:       "sepia",
	Grayscale:   "grayscale",
	Invert:      "invert",
	Darker:      "darker",
	Lighter:     "lighter",
	Contrast:    "contrast",
	Blur:        "blur",
	Sharpen:     "sharpen",
	Edge:        "edge",
	Emboss:      "emboss",
	Posterize:   "posterize",
	Solarize:    "solarize",
	EdgeEnhance: "edge_enhance",
	Contour:     "contour",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds returns every filter in menu order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := Sepia; k <= Contour; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind resolves a filter name such as "sepia" or "edge_enhance".
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "find_edges" {
		return Edge, nil
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

var handlers = map[Kind]Func{
	Sepia:     effect.Sepia,
	Grayscale: effect.Grayscale,
	Invert:    effect.Invert,
	Darker:    func(img image.Image) *image.RGBA { return Brightness(img, 0.5) },
	Lighter:   func(img image.Image) *image.RGBA { return Brightness(img, 1.5) },
	Contrast:  func(img image.Image) *image.RGBA { return ContrastFactor(img, 2) },
	Blur:      func(img image.Image) *image.RGBA { return blur.Box(img, 2) },
	Sharpen:   effect.Sharpen,
	Edge:      func(img image.Image) *image.RGBA { return effect.EdgeDetection(img, 1) },
	Emboss:    effect.Emboss,
	Posterize: func(img image.Image) *image.RGBA { return PosterizeLevels(img, 2) },
	Solarize:  func(img image.Image) *image.RGBA { return SolarizeAbove(img, 128) },
	EdgeEnhance: func(img image.Image) *image.RGBA {
		return effect.UnsharpMask(img, 1, 1)
	},
	Contour: func(img image.Image) *image.RGBA {
		return effect.Invert(effect.EdgeDetection(effect.Grayscale(img), 1))
	},
}

// Handler returns the transform for k.
func Handler(k Kind) (Func, error) {
	fn, ok := handlers[k]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return fn, nil
}

// Apply runs filter k over img.
func Apply(k Kind, img image.Image) (*image.RGBA, error) {
	fn, err := Handler(k)
	if err != nil {
		return nil, err
	}
	return fn(img), nil
}

// PosterizeLevels reduces every channel to the given number of evenly spaced levels.
func PosterizeLevels(img image.Image, levels int) *image.RGBA {
	if levels < 2 {
		levels = 2
	}
	var lookup [256]uint8
	step := 255.0 / float64(levels-1)
	for i := range lookup {
		bucket := int(float64(i) * float64(levels) / 256)
		lookup[i] = uint8(float64(bucket)*step + 0.5)
	}
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{R: lookup[c.R], G: lookup[c.G], B: lookup[c.B], A: c.A}
	})
}

// SolarizeAbove inverts every channel value at or above threshold.
func SolarizeAbove(img image.Image, threshold uint8) *image.RGBA {
	var lookup [256]uint8
	for i := range lookup {
		if uint8(i) >= threshold {
			lookup[i] = 255 - uint8(i)
		} else {
			lookup[i] = uint8(i)
		}
	}
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{R: lookup[c.R], G: lookup[c.G], B: lookup[c.B], A: c.A}
	})
}
