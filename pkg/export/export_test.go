package export

import (
	"strings"
	"testing"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/geom"
	"github.com/loci-dev/loci/pkg/implicit"
)

func sampleConstruction(t *testing.T) (*construction.Construction, construction.ID) {
	t.Helper()
	c := construction.New()
	a := c.AddFreePoint(0, 0)
	b := c.AddFreePoint(4, 0)
	l, err := c.AddElement(construction.KindLine, a, b)
	if err != nil {
		t.Fatal(err)
	}
	m, err := c.AddElement(construction.KindMidpoint, a, b)
	if err != nil {
		t.Fatal(err)
	}
	_ = l
	return c, m
}

func TestToDOT(t *testing.T) {
	c, _ := sampleConstruction(t)
	dot := ToDOT(c, DOTOptions{})

	if !strings.HasPrefix(dot, "digraph G {") {
		t.Error("DOT should open a digraph")
	}
	for _, want := range []string{
		`"e0"`, `"e3"`,
		`"e0" -> "e2"`, // a feeds the line
		`"e0" -> "e3"`, // a feeds the midpoint
		"midpoint",
		"fillcolor=lightgreen", // free points stand out
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTDetailedIncludesPositions(t *testing.T) {
	c, _ := sampleConstruction(t)
	dot := ToDOT(c, DOTOptions{Detailed: true})
	if !strings.Contains(dot, "(2, 0)") {
		t.Errorf("detailed DOT should include the midpoint position:\n%s", dot)
	}
}

func TestRenderSVGScene(t *testing.T) {
	c, m := sampleConstruction(t)
	curve := &implicit.SampledCurve{Branches: [][]geom.Point{{
		{X: 0, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 1},
	}}}

	svg := string(RenderSVG(c,
		WithViewport(implicit.BoundingBox{MinX: -5, MinY: -5, MaxX: 5, MaxY: 5}),
		WithCurve(m, curve),
		WithLabels(),
	))

	if !strings.HasPrefix(svg, "<svg ") {
		t.Fatal("output should be an SVG document")
	}
	for _, want := range []string{
		"</svg>",
		"<line",          // the line element
		"<path",          // the locus curve
		`data-locus="3"`, // tagged with the target id
		"<text",          // labels enabled
		`data-element="0"`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

func TestRenderSVGSkipsInfinitePoints(t *testing.T) {
	c := construction.New()
	a := c.AddFreePoint(0, 0)
	b := c.AddFreePoint(1, 0)
	d := c.AddFreePoint(0, 1)
	f := c.AddFreePoint(1, 1)
	l1, _ := c.AddElement(construction.KindLine, a, b)
	l2, _ := c.AddElement(construction.KindLine, d, f)
	// Parallel lines: the intersection is the infinite sentinel.
	x, err := c.AddElement(construction.KindIntersection, l1, l2)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(RenderSVG(c))
	if strings.Contains(svg, "Inf") || strings.Contains(svg, "NaN") {
		t.Errorf("infinite point %d leaked into the SVG", x)
	}
}
