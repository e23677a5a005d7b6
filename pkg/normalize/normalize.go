// Package normalize rewrites a constraint system into a normalized
// coordinate frame before elimination.
//
// Two anchor points are chosen among the free ancestors of the locus
// target. A rigid transform maps the first to the origin and the second
// onto the positive x axis, which pins three of the system's free
// parameter symbols to zero. Fewer free symbols keep the polynomials the
// elimination engine sees small. Curve points coming back from the
// engine live in the normalized frame and are mapped back through the
// inverse transform before being shown to anyone.
package normalize

import (
	"math"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/errors"
	"github.com/loci-dev/loci/pkg/geom"
	"github.com/loci-dev/loci/pkg/symbolic"
)

// Transform is a rigid motion: translate by -Origin, then rotate by
// Angle. Apply sends the anchor pair to (0,0) and (d,0); Invert undoes
// it exactly.
type Transform struct {
	Origin geom.Point `json:"origin"`
	Angle  float64    `json:"angle"`
}

// NewTransform returns the rigid transform placing p0 at the origin and
// p1 on the positive x axis.
func NewTransform(p0, p1 geom.Point) Transform {
	d := p1.Sub(p0)
	return Transform{Origin: p0, Angle: -math.Atan2(d.Y, d.X)}
}

// Apply maps a point from user coordinates into the normalized frame.
func (t Transform) Apply(p geom.Point) geom.Point {
	if p.IsInfinite() {
		return p
	}
	q := p.Sub(t.Origin)
	sin, cos := math.Sincos(t.Angle)
	return geom.Point{X: q.X*cos - q.Y*sin, Y: q.X*sin + q.Y*cos}
}

// Invert maps a point from the normalized frame back to user coordinates.
func (t Transform) Invert(p geom.Point) geom.Point {
	if p.IsInfinite() {
		return p
	}
	sin, cos := math.Sincos(-t.Angle)
	return geom.Point{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}.Add(t.Origin)
}

// InvertAll maps a whole sampled branch back to user coordinates.
func (t Transform) InvertAll(pts []geom.Point) []geom.Point {
	out := make([]geom.Point, len(pts))
	for i, p := range pts {
		out[i] = t.Invert(p)
	}
	return out
}

// AnchorSelector picks the two anchor points for normalization. The
// quality of the choice affects polynomial size, never correctness, so
// the strategy is pluggable.
type AnchorSelector interface {
	SelectAnchors(c *construction.Construction, sys *construction.System) (construction.ID, construction.ID, error)
}

// FirstFreePoints is the default selector: the first two free ancestor
// points in creation order.
type FirstFreePoints struct{}

// SelectAnchors implements AnchorSelector.
func (FirstFreePoints) SelectAnchors(_ *construction.Construction, sys *construction.System) (construction.ID, construction.ID, error) {
	if len(sys.Free) < 2 {
		return 0, 0, errors.New(errors.ErrCodeDegenerateSystem,
			"normalization needs two free ancestor points, target %d has %d", sys.Target, len(sys.Free))
	}
	return sys.Free[0], sys.Free[1], nil
}

// System is a constraint system rewritten into the normalized frame.
type System struct {
	Transform   Transform
	Polynomials []symbolic.Expr
	Eliminate   []string
	Keep        []string
	// Pinned lists the parameter symbols substituted by zero.
	Pinned []string
}

// Strings renders the normalized polynomials in the wire grammar.
func (s *System) Strings() []string {
	out := make([]string, len(s.Polynomials))
	for i, p := range s.Polynomials {
		out[i] = p.String()
	}
	return out
}

// Normalize rewrites the system into the frame defined by the selected
// anchors. The anchor pins u_p0 = v_p0 = v_p1 = 0; the pinned symbols
// disappear from the elimination set. The returned transform is built
// from the anchors' current numeric positions, so the caller can map
// curve points back after elimination.
func Normalize(c *construction.Construction, sys *construction.System, sel AnchorSelector) (*System, error) {
	if sel == nil {
		sel = FirstFreePoints{}
	}
	p0, p1, err := sel.SelectAnchors(c, sys)
	if err != nil {
		return nil, err
	}
	e0, err := c.Element(p0)
	if err != nil {
		return nil, err
	}
	e1, err := c.Element(p1)
	if err != nil {
		return nil, err
	}
	if !e0.IsFree() || !e1.IsFree() || p0 == p1 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"anchors must be two distinct free points, got %d and %d", p0, p1)
	}

	pinned := []string{
		construction.SymbolU(p0),
		construction.SymbolV(p0),
		construction.SymbolV(p1),
	}
	polys := make([]symbolic.Expr, len(sys.Polynomials))
	for i, p := range sys.Polynomials {
		q := p
		for _, name := range pinned {
			q = q.Sub(name, symbolic.N(0))
		}
		polys[i] = q
	}

	drop := map[string]bool{pinned[0]: true, pinned[1]: true, pinned[2]: true}
	elim := make([]string, 0, len(sys.Eliminate))
	for _, v := range sys.Eliminate {
		if !drop[v] {
			elim = append(elim, v)
		}
	}

	return &System{
		Transform:   NewTransform(e0.Pos(), e1.Pos()),
		Polynomials: polys,
		Eliminate:   elim,
		Keep:        append([]string(nil), sys.Keep...),
		Pinned:      pinned,
	}, nil
}
