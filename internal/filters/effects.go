package filters

import (
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// Effect is a tonal preset built from the basic adjustments.
type Effect int

const (
	Vintage Effect = iota
	Dramatic
	Soft
	HDR
	Cartoon
	Sketch
)

var effectNames = map[Effect]string{
	Vintage:  "vintage",
	Dramatic: "dramatic",
	Soft:     "soft",
	HDR:      "hdr",
	Cartoon:  "cartoon",
	Sketch:   "sketch",
}

func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return "unknown"
}

// Effects returns every effect in menu order.
func Effects() []Effect {
	return []Effect{Vintage, Dramatic, Soft, HDR, Cartoon, Sketch}
}

// ParseEffect resolves an effect name.
func ParseEffect(name string) (Effect, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for e, n := range effectNames {
		if n == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: effect %q", ErrUnknownKind, name)
}

var effectHandlers = map[Effect]Func{
	Vintage: func(img image.Image) *image.RGBA {
		return Brightness(ContrastFactor(Saturation(img, 0.8), 1.2), 0.9)
	},
	Dramatic: func(img image.Image) *image.RGBA {
		return Brightness(ContrastFactor(img, 1.5), 0.8)
	},
	Soft: func(img image.Image) *image.RGBA {
		return Brightness(ContrastFactor(img, 0.8), 1.1)
	},
	HDR: func(img image.Image) *image.RGBA {
		return Saturation(ContrastFactor(img, 1.3), 1.2)
	},
	Cartoon: func(img image.Image) *image.RGBA {
		edges := effect.EdgeDetection(effect.Grayscale(img), 1)
		return blend.Opacity(img, edges, 0.3)
	},
	Sketch: func(img image.Image) *image.RGBA {
		gray := effect.Grayscale(img)
		return blend.Opacity(gray, blur.Gaussian(effect.Invert(gray), 2), 0.5)
	},
}

// ApplyEffect runs effect e over img.
func ApplyEffect(e Effect, img image.Image) (*image.RGBA, error) {
	fn, ok := effectHandlers[e]
	if !ok {
		return nil, fmt.Errorf("%w: effect %d", ErrUnknownKind, int(e))
	}
	return fn(img), nil
}

// Style is an artistic preset scaled by an intensity in [0, 1].
type Style int

const (
	VanGogh Style = iota
	Picasso
	Monet
	Watercolor
	OilPainting
	PencilSketch
)

var styleNames = map[Style]string{
	VanGogh:      "van_gogh",
	Picasso:      "picasso",
	Monet:        "monet",
	Watercolor:   "watercolor",
	OilPainting:  "oil_painting",
	PencilSketch: "sketch",
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return "unknown"
}

// Styles returns every style in menu order.
func Styles() []Style {
	return []Style{VanGogh, Picasso, Monet, Watercolor, OilPainting, PencilSketch}
}

// ParseStyle resolves a style name; spaces and case are ignored.
func ParseStyle(name string) (Style, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	for s, n := range styleNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: style %q", ErrUnknownKind, name)
}

// ApplyStyle runs style s at the given intensity, clamped to [0, 1].
func ApplyStyle(s Style, img image.Image, intensity float64) (*image.RGBA, error) {
	intensity = max(0, min(1, intensity))
	switch s {
	case VanGogh:
		return Saturation(img, 1+intensity*0.5), nil
	case Picasso:
		return ContrastFactor(img, 1+intensity*0.3), nil
	case Monet:
		return Brightness(img, 1+intensity*0.4), nil
	case Watercolor:
		return Saturation(img, 1-intensity*0.3), nil
	case OilPainting, PencilSketch:
		return ContrastFactor(img, 1+intensity*0.4), nil
	}
	return nil, fmt.Errorf("%w: style %d", ErrUnknownKind, int(s))
}
