package geom

import "math"

// Midpoint returns the midpoint of a and b.
func Midpoint(a, b Point) Point {
	if a.IsInfinite() || b.IsInfinite() {
		return Infinite()
	}
	return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// PerpendicularFoot returns the orthogonal projection of p onto the line
// through a and b. A degenerate line (a == b within Epsilon) yields the
// infinite sentinel.
func PerpendicularFoot(p, a, b Point) Point {
	if p.IsInfinite() || a.IsInfinite() || b.IsInfinite() {
		return Infinite()
	}
	d := b.Sub(a)
	den := d.Dot(d)
	if math.Abs(den) < Epsilon {
		return Infinite()
	}
	t := p.Sub(a).Dot(d) / den
	return a.Add(d.Scale(t))
}

// Reflect returns the mirror image of p across the line through a and b.
func Reflect(p, a, b Point) Point {
	foot := PerpendicularFoot(p, a, b)
	if foot.IsInfinite() {
		return Infinite()
	}
	return foot.Scale(2).Sub(p)
}

// ParallelPoint returns c translated by the direction b - a, i.e. the
// fourth vertex of the parallelogram a, b, c.
func ParallelPoint(c, a, b Point) Point {
	if c.IsInfinite() || a.IsInfinite() || b.IsInfinite() {
		return Infinite()
	}
	return c.Add(b.Sub(a))
}

// Circumcenter returns the center of the circle through a, b and c.
// Collinear inputs make the 2x2 system singular and yield the sentinel.
func Circumcenter(a, b, c Point) Point {
	if a.IsInfinite() || b.IsInfinite() || c.IsInfinite() {
		return Infinite()
	}
	ab := b.Sub(a)
	ac := c.Sub(a)
	den := 2 * ab.Cross(ac)
	if math.Abs(den) < Epsilon {
		return Infinite()
	}
	abSq := ab.Dot(ab)
	acSq := ac.Dot(ac)
	ux := (ac.Y*abSq - ab.Y*acSq) / den
	uy := (ab.X*acSq - ac.X*abSq) / den
	return Point{a.X + ux, a.Y + uy}
}

// LineIntersection returns the intersection of the line through a, b with
// the line through c, d. Parallel lines yield the infinite sentinel.
func LineIntersection(a, b, c, d Point) Point {
	if a.IsInfinite() || b.IsInfinite() || c.IsInfinite() || d.IsInfinite() {
		return Infinite()
	}
	r := b.Sub(a)
	s := d.Sub(c)
	den := r.Cross(s)
	if math.Abs(den) < Epsilon {
		return Infinite()
	}
	t := c.Sub(a).Cross(s) / den
	return a.Add(r.Scale(t))
}
