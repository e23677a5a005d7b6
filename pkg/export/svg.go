// Package export renders constructions for humans: scene SVGs with
// locus curves overlaid, and Graphviz views of the dependency graph.
package export

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/geom"
	"github.com/loci-dev/loci/pkg/implicit"
)

// SVGOption configures scene rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	viewport implicit.BoundingBox
	width    float64
	curves   map[construction.ID]*implicit.SampledCurve
	labels   bool
}

// WithViewport sets the world-coordinate region to render.
func WithViewport(box implicit.BoundingBox) SVGOption {
	return func(r *svgRenderer) { r.viewport = box }
}

// WithWidth sets the output pixel width; height follows the viewport
// aspect ratio.
func WithWidth(w float64) SVGOption {
	return func(r *svgRenderer) { r.width = w }
}

// WithCurve overlays a locus curve for the given element.
func WithCurve(id construction.ID, curve *implicit.SampledCurve) SVGOption {
	return func(r *svgRenderer) { r.curves[id] = curve }
}

// WithLabels annotates points with their element ids.
func WithLabels() SVGOption {
	return func(r *svgRenderer) { r.labels = true }
}

// RenderSVG draws the construction: lines and segments, then circles,
// then locus curves, then points on top.
func RenderSVG(c *construction.Construction, opts ...SVGOption) []byte {
	r := &svgRenderer{
		viewport: implicit.BoundingBox{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10},
		width:    800,
		curves:   make(map[construction.ID]*implicit.SampledCurve),
	}
	for _, opt := range opts {
		opt(r)
	}
	height := r.width * r.viewport.Height() / r.viewport.Width()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		r.width, height, r.width, height)
	fmt.Fprintf(&buf, `<rect width="100%%" height="100%%" fill="white"/>`+"\n")

	c.Elements(func(e *construction.Element) {
		switch e.Kind() {
		case construction.KindLine, construction.KindSegment:
			r.renderLine(&buf, c, e)
		case construction.KindCircle:
			r.renderCircle(&buf, c, e)
		}
	})
	ids := make([]construction.ID, 0, len(r.curves))
	for id := range r.curves {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		r.renderCurve(&buf, id, r.curves[id])
	}
	c.Elements(func(e *construction.Element) {
		if e.Kind().IsPoint() {
			r.renderPoint(&buf, e)
		}
	})

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// project maps world coordinates to pixel coordinates, flipping y so
// world up is screen up.
func (r *svgRenderer) project(p geom.Point) (float64, float64) {
	sx := (p.X - r.viewport.MinX) / r.viewport.Width() * r.width
	height := r.width * r.viewport.Height() / r.viewport.Width()
	sy := (r.viewport.MaxY - p.Y) / r.viewport.Height() * height
	return sx, sy
}

func (r *svgRenderer) renderLine(buf *bytes.Buffer, c *construction.Construction, e *construction.Element) {
	parents := e.Parents()
	pa, err := c.Element(parents[0])
	if err != nil {
		return
	}
	pb, err := c.Element(parents[1])
	if err != nil {
		return
	}
	a, b := pa.Pos(), pb.Pos()
	if a.IsInfinite() || b.IsInfinite() {
		return
	}
	if e.Kind() == construction.KindLine {
		// Extend across the viewport.
		d := b.Sub(a)
		span := r.viewport.Width() + r.viewport.Height()
		n := d.Dist(geom.Point{})
		if n < geom.Epsilon {
			return
		}
		a = a.Sub(d.Scale(span / n))
		b = b.Add(d.Scale(span / n))
	}
	x1, y1 := r.project(a)
	x2, y2 := r.project(b)
	fmt.Fprintf(buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#444" stroke-width="1.5"/>`+"\n",
		x1, y1, x2, y2)
}

func (r *svgRenderer) renderCircle(buf *bytes.Buffer, c *construction.Construction, e *construction.Element) {
	parents := e.Parents()
	pc, err := c.Element(parents[0])
	if err != nil {
		return
	}
	pr, err := c.Element(parents[1])
	if err != nil {
		return
	}
	center, rim := pc.Pos(), pr.Pos()
	if center.IsInfinite() || rim.IsInfinite() {
		return
	}
	cx, cy := r.project(center)
	radius := center.Dist(rim) / r.viewport.Width() * r.width
	fmt.Fprintf(buf, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="#444" stroke-width="1.5"/>`+"\n",
		cx, cy, radius)
}

func (r *svgRenderer) renderCurve(buf *bytes.Buffer, id construction.ID, curve *implicit.SampledCurve) {
	for _, branch := range curve.Branches {
		if len(branch) < 2 {
			continue
		}
		var path bytes.Buffer
		started := false
		for _, p := range branch {
			if p.IsInfinite() {
				started = false
				continue
			}
			x, y := r.project(p)
			if !started {
				fmt.Fprintf(&path, "M %.2f %.2f", x, y)
				started = true
			} else {
				fmt.Fprintf(&path, " L %.2f %.2f", x, y)
			}
		}
		if path.Len() > 0 {
			fmt.Fprintf(buf, `<path d="%s" fill="none" stroke="#c0392b" stroke-width="2" data-locus="%d"/>`+"\n",
				path.String(), id)
		}
	}
}

func (r *svgRenderer) renderPoint(buf *bytes.Buffer, e *construction.Element) {
	p := e.Pos()
	if p.IsInfinite() {
		return
	}
	x, y := r.project(p)
	fill := "#2c6fbb"
	if e.IsFree() {
		fill = "#27ae60"
	}
	fmt.Fprintf(buf, `<circle cx="%.2f" cy="%.2f" r="4" fill="%s" data-element="%d"/>`+"\n",
		x, y, fill, e.ID())
	if r.labels {
		fmt.Fprintf(buf, `<text x="%.2f" y="%.2f" font-size="12" fill="#333">%d</text>`+"\n",
			x+6, y-6, e.ID())
	}
}
