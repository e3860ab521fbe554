// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Round converts to the nearest integer point.
func (p Point2D) Round() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// FromPoint converts an integer point.
func FromPoint(p image.Point) Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// Angle returns the angle in degrees of the vector from centre to p,
// measured counter-clockwise on screen (y grows downward).
func Angle(center, p Point2D) float64 {
	return math.Atan2(center.Y-p.Y, p.X-center.X) * 180 / math.Pi
}

// NormalizeDegrees maps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -0 and values that round up to 360
	if deg >= 360 || deg == 0 {
		return 0
	}
	return deg
}

// RotateAbout rotates points by deg degrees about center. The rotation uses
// the mathematical convention, so on a y-down canvas positive angles turn clockwise.
func RotateAbout(points []Point2D, center Point2D, deg float64) []Point2D {
	if len(points) == 0 {
		return nil
	}
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	rot := mat.NewDense(2, 2, []float64{
		cos, -sin,
		sin, cos,
	})

	offsets := mat.NewDense(2, len(points), nil)
	for i, p := range points {
		offsets.Set(0, i, p.X-center.X)
		offsets.Set(1, i, p.Y-center.Y)
	}

	var rotated mat.Dense
	rotated.Mul(rot, offsets)

	out := make([]Point2D, len(points))
	for i := range points {
		out[i] = Point2D{
			X: center.X + rotated.At(0, i),
			Y: center.Y + rotated.At(1, i),
		}
	}
	return out
}

// ClampInt limits v to [lo, hi]. When hi < lo the lower bound wins.
func ClampInt(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// NormalizeRect returns the rectangle spanned by two corner points in any order.
func NormalizeRect(a, b image.Point) image.Rectangle {
	return image.Rectangle{Min: a, Max: b}.Canon()
}

// CenteredIn returns the top-left position that centres an object of the
// given size inside a container.
func CenteredIn(container, size image.Point) image.Point {
	return image.Pt((container.X-size.X)/2, (container.Y-size.Y)/2)
}

// ContainsInclusive reports whether p lies within r, treating the max edge as inside.
func ContainsInclusive(r image.Rectangle, p image.Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}
