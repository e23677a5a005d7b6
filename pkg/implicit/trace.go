package implicit

import (
	"math"

	"github.com/loci-dev/loci/pkg/geom"
)

// BoundingBox is the viewport a curve is traced within.
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal extent.
func (b BoundingBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }

func (b BoundingBox) contains(p geom.Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// SampledCurve is an ordered, possibly disconnected approximation of an
// implicit curve's zero set. Each branch is a polyline.
type SampledCurve struct {
	Branches [][]geom.Point `json:"branches"`
}

// IsEmpty reports whether the curve has no points at all.
func (c *SampledCurve) IsEmpty() bool {
	for _, b := range c.Branches {
		if len(b) > 0 {
			return false
		}
	}
	return true
}

// Points returns the total number of sampled points.
func (c *SampledCurve) Points() int {
	n := 0
	for _, b := range c.Branches {
		n += len(b)
	}
	return n
}

// Options tune the tracer. Zero values select defaults.
type Options struct {
	// GridSize is the seeding lattice resolution per axis.
	GridSize int
	// MaxSteps caps the marching steps per branch direction.
	MaxSteps int
	// StepSize is the marching step; zero derives it from the viewport.
	StepSize float64
}

// DefaultGridSize is the seeding lattice resolution used when Options
// leaves GridSize zero.
const DefaultGridSize = 64

// DefaultMaxSteps caps the marching steps per branch direction when
// Options leaves MaxSteps zero.
const DefaultMaxSteps = 4000

func (o Options) withDefaults(box BoundingBox) Options {
	if o.GridSize <= 0 {
		o.GridSize = DefaultGridSize
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	if o.StepSize <= 0 {
		o.StepSize = math.Hypot(box.Width(), box.Height()) / 512
	}
	return o
}

// Trace approximates the zero set of p inside the viewport by marching
// along the curve from grid-detected seed points. The result is
// deterministic for identical (polynomial, viewport, options) inputs:
// seeds are scanned in fixed grid order and every step is a pure
// function of the previous point.
func Trace(p *Poly, box BoundingBox, opts Options) *SampledCurve {
	out := &SampledCurve{}
	if p == nil || p.IsZero() || box.Width() <= 0 || box.Height() <= 0 {
		return out
	}
	opts = opts.withDefaults(box)
	t := &tracer{
		poly:    p,
		box:     box,
		opts:    opts,
		cellW:   box.Width() / float64(opts.GridSize),
		cellH:   box.Height() / float64(opts.GridSize),
		visited: make(map[[2]int]bool),
	}

	for _, seed := range t.seeds() {
		if t.seen(seed) {
			continue
		}
		branch := t.march(seed)
		if len(branch) > 1 {
			out.Branches = append(out.Branches, branch)
		}
	}
	return out
}

type tracer struct {
	poly         *Poly
	box          BoundingBox
	opts         Options
	cellW, cellH float64
	visited      map[[2]int]bool
}

// seeds scans the grid for sign changes along cell edges and refines
// each crossing onto the curve.
func (t *tracer) seeds() []geom.Point {
	n := t.opts.GridSize
	vals := make([][]float64, n+1)
	for i := 0; i <= n; i++ {
		vals[i] = make([]float64, n+1)
		for j := 0; j <= n; j++ {
			x := t.box.MinX + float64(i)*t.cellW
			y := t.box.MinY + float64(j)*t.cellH
			vals[i][j] = t.poly.Eval(x, y)
		}
	}

	var seeds []geom.Point
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			x := t.box.MinX + float64(i)*t.cellW
			y := t.box.MinY + float64(j)*t.cellH
			if i < n && vals[i][j]*vals[i+1][j] < 0 {
				seeds = append(seeds, t.refine(geom.Point{
					X: x + t.cellW*frac(vals[i][j], vals[i+1][j]),
					Y: y,
				}))
			}
			if j < n && vals[i][j]*vals[i][j+1] < 0 {
				seeds = append(seeds, t.refine(geom.Point{
					X: x,
					Y: y + t.cellH*frac(vals[i][j], vals[i][j+1]),
				}))
			}
		}
	}
	return seeds
}

// frac is the linear-interpolation parameter of the zero crossing
// between two values of opposite sign.
func frac(a, b float64) float64 {
	return a / (a - b)
}

// refine applies a few Newton corrections pulling a point onto the curve
// along the gradient.
func (t *tracer) refine(p geom.Point) geom.Point {
	for i := 0; i < 8; i++ {
		f := t.poly.Eval(p.X, p.Y)
		gx, gy := t.poly.Gradient(p.X, p.Y)
		g2 := gx*gx + gy*gy
		if g2 < geom.Epsilon {
			break
		}
		step := f / g2
		p = geom.Point{X: p.X - step*gx, Y: p.Y - step*gy}
		if math.Abs(f) < 1e-12 {
			break
		}
	}
	return p
}

// march traces one branch through the seed: forward, then backward, then
// stitches the halves together. A closed loop is detected on the forward
// walk and skips the backward one.
func (t *tracer) march(seed geom.Point) []geom.Point {
	t.mark(seed)
	fwd := t.walk(seed, 1)
	if len(fwd) > 2 && fwd[len(fwd)-1] == seed {
		return fwd
	}
	back := t.walk(seed, -1)

	branch := make([]geom.Point, 0, len(fwd)+len(back)-1)
	for i := len(back) - 1; i > 0; i-- {
		branch = append(branch, back[i])
	}
	branch = append(branch, fwd...)
	return branch
}

// walk steps along the curve in one direction until it leaves the
// viewport, closes a loop, hits a singular point, or exhausts MaxSteps.
func (t *tracer) walk(start geom.Point, dir float64) []geom.Point {
	pts := []geom.Point{start}
	p := start
	h := t.opts.StepSize
	for step := 0; step < t.opts.MaxSteps; step++ {
		gx, gy := t.poly.Gradient(p.X, p.Y)
		norm := math.Hypot(gx, gy)
		if norm < geom.Epsilon {
			break
		}
		// Tangent is the gradient rotated a quarter turn.
		next := geom.Point{
			X: p.X + dir*h*(-gy/norm),
			Y: p.Y + dir*h*(gx/norm),
		}
		next = t.refine(next)
		if !t.box.contains(next) {
			break
		}
		t.mark(next)
		pts = append(pts, next)
		// Closed loop: back at the start after having gone somewhere.
		if step > 4 && next.Dist(start) < h {
			pts = append(pts, start)
			break
		}
		p = next
	}
	return pts
}

func (t *tracer) cell(p geom.Point) [2]int {
	return [2]int{
		int((p.X - t.box.MinX) / t.cellW),
		int((p.Y - t.box.MinY) / t.cellH),
	}
}

func (t *tracer) mark(p geom.Point) { t.visited[t.cell(p)] = true }

func (t *tracer) seen(p geom.Point) bool { return t.visited[t.cell(p)] }
