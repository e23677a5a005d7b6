package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/loci-dev/loci/pkg/construction"
)

// DOTOptions configures dependency graph rendering.
type DOTOptions struct {
	// Detailed includes positions in node labels.
	Detailed bool
}

// ToDOT converts a construction's dependency graph to Graphviz DOT
// format. Free points are drawn filled to distinguish the draggable
// inputs from derived elements.
func ToDOT(c *construction.Construction, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	c.Elements(func(e *construction.Element) {
		label := fmtLabel(e, opts.Detailed)
		attrs := fmtAttrs(e, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(e.ID()), strings.Join(attrs, ", "))
	})

	buf.WriteString("\n")
	c.Elements(func(e *construction.Element) {
		for _, p := range e.Parents() {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(p), nodeID(e.ID()))
		}
	})

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(id construction.ID) string {
	return fmt.Sprintf("e%d", id)
}

func fmtLabel(e *construction.Element, detailed bool) string {
	label := fmt.Sprintf("%d: %s", e.ID(), e.Kind())
	if detailed && e.Kind().IsPoint() && !e.Pos().IsInfinite() {
		label += fmt.Sprintf("\n(%.3g, %.3g)", e.Pos().X, e.Pos().Y)
	}
	return label
}

func fmtAttrs(e *construction.Element, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if e.IsFree() {
		attrs = append(attrs, "fillcolor=lightgreen")
	} else if e.Kind() == construction.KindLocus {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightyellow")
	}
	return attrs
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz.
func RenderDOTSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
