package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rgba(c color.Color) [4]uint32 {
	r, g, b, a := c.RGBA()
	return [4]uint32{r, g, b, a}
}

func TestParseHex(t *testing.T) {
	assert.Equal(t, rgba(color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}), rgba(ParseHex("#102030", White)))
	assert.Equal(t, rgba(color.RGBA{R: 255, A: 255}), rgba(ParseHex(" f00 ", White)))
	assert.Equal(t, rgba(White), rgba(ParseHex("", White)))

	for _, bad := range []string{"white", "#12345", "#gg0000", "#"} {
		assert.Equal(t, rgba(White), rgba(ParseHex(bad, White)), bad)
		assert.Error(t, CheckHex(bad), bad)
	}
	assert.NoError(t, CheckHex(""))
	assert.NoError(t, CheckHex("#102030ff"))
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#ff0000ff", Hex(Red))
	assert.Equal(t, "#00000000", Hex(Transparent))
}

func TestLuminanceAndClamp(t *testing.T) {
	assert.InDelta(t, 255, Luminance(255, 255, 255), 1e-9)
	assert.Equal(t, uint8(0), ClampByte(-3))
	assert.Equal(t, uint8(255), ClampByte(300))
	assert.Equal(t, uint8(13), ClampByte(12.6))
}
