// Package geom provides the numeric primitives for planar constructions.
//
// Every evaluator in this package is a pure function of its input
// coordinates. Degenerate configurations (a denominator whose magnitude
// falls below [Epsilon]) never panic and never produce NaN; they yield the
// infinite sentinel returned by [Infinite], which downstream passes treat
// as "point at infinity" and keep propagating.
package geom

import "math"

// Epsilon is the magnitude below which a denominator is treated as zero.
// Division by a value at exactly Epsilon is allowed; only strictly smaller
// magnitudes trigger the infinite sentinel.
const Epsilon = 1e-12

// Point is a position in the plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Infinite returns the point-at-infinity sentinel.
// Both components are +Inf so that a single component check suffices.
func Infinite() Point {
	return Point{X: math.Inf(1), Y: math.Inf(1)}
}

// IsInfinite reports whether p is the point-at-infinity sentinel.
func (p Point) IsInfinite() bool {
	return math.IsInf(p.X, 0) || math.IsInf(p.Y, 0)
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Dot returns the dot product p · q.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Cross returns the z component of the cross product p × q.
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Div divides the vector p by the scalar d with the epsilon guard:
// |d| < Epsilon yields the infinite sentinel instead of overflowing.
func (p Point) Div(d float64) Point {
	if math.Abs(d) < Epsilon {
		return Infinite()
	}
	return Point{p.X / d, p.Y / d}
}
