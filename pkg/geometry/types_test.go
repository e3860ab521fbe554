package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDegrees(t *testing.T) {
	for in, want := range map[float64]float64{
		0: 0, 90: 90, 360: 0, 450: 90, -90: 270, -360: 0, 725: 5,
	} {
		assert.InDelta(t, want, NormalizeDegrees(in), 1e-9, "in=%v", in)
	}
}

func TestRotateAbout(t *testing.T) {
	center := NewPoint2D(10, 10)
	out := RotateAbout([]Point2D{{X: 20, Y: 10}, {X: 10, Y: 10}}, center, 90)
	require.Len(t, out, 2)
	// y grows downward, so +90 moves a point right of centre to below it
	assert.InDelta(t, 10, out[0].X, 1e-9)
	assert.InDelta(t, 20, out[0].Y, 1e-9)
	assert.Equal(t, center, out[1])

	assert.Nil(t, RotateAbout(nil, center, 45))
}

func TestAngle(t *testing.T) {
	c := NewPoint2D(0, 0)
	assert.InDelta(t, 0, Angle(c, NewPoint2D(5, 0)), 1e-9)
	assert.InDelta(t, 90, Angle(c, NewPoint2D(0, -5)), 1e-9)
	assert.InDelta(t, 5, NewPoint2D(3, 4).Distance(c), 1e-9)
}

func TestRects(t *testing.T) {
	assert.Equal(t, image.Rect(2, 3, 8, 9), NormalizeRect(image.Pt(8, 3), image.Pt(2, 9)))
	assert.Equal(t, image.Pt(25, 50), CenteredIn(image.Pt(100, 200), image.Pt(50, 100)))
	assert.True(t, ContainsInclusive(image.Rect(0, 0, 10, 10), image.Pt(10, 10)))
	assert.False(t, ContainsInclusive(image.Rect(0, 0, 10, 10), image.Pt(11, 0)))
	assert.Equal(t, 5, ClampInt(9, 0, 5))
	assert.Equal(t, 0, ClampInt(3, 0, -1))
	assert.Equal(t, image.Pt(2, -3), Point2D{X: 1.6, Y: -2.6}.Round())
}
