// Package colorutil provides shared color utilities for the editor.
package colorutil

import (
	"image/color"
	"math"
	"strings"

	"github.com/gogpu/gg"
)

// Common colors used throughout the application.
var (
	Black       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red         = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Transparent = color.RGBA{}
)

// ParseHex converts "#rgb", "#rgba", "#rrggbb" or "#rrggbbaa" to a color.
// An empty or malformed string yields fallback.
func ParseHex(s string, fallback color.Color) color.Color {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	c, err := gg.ParseHex(s)
	if err != nil {
		return fallback
	}
	return c.Color()
}

// CheckHex reports whether s is a colour ParseHex understands. Empty is
// allowed and means "use the default".
func CheckHex(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := gg.ParseHex(s)
	return err
}

// Hex formats a color as "#rrggbbaa".
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	const digits = "0123456789abcdef"
	out := []byte{'#'}
	for _, v := range []uint8{n.R, n.G, n.B, n.A} {
		out = append(out, digits[v>>4], digits[v&0x0f])
	}
	return string(out)
}

// Luminance returns the Rec. 601 luma of an 8-bit RGB triple in 0-255.
func Luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// ClampByte rounds and clamps v into 0-255.
func ClampByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
