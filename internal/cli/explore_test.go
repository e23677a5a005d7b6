package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/eliminate"
	"github.com/loci-dev/loci/pkg/implicit"
	"github.com/loci-dev/loci/pkg/locus"
)

type engineFunc func(ctx context.Context, polys, elim, keep []string) (*eliminate.Result, error)

func (f engineFunc) Eliminate(ctx context.Context, polys, elim, keep []string) (*eliminate.Result, error) {
	return f(ctx, polys, elim, keep)
}

func exploreFixture(t *testing.T) *ExploreModel {
	t.Helper()
	c := construction.New()
	a := c.AddFreePoint(0, 0)
	b := c.AddFreePoint(4, 0)
	if _, err := c.AddElement(construction.KindMidpoint, a, b); err != nil {
		t.Fatal(err)
	}
	engine := engineFunc(func(ctx context.Context, polys, elim, keep []string) (*eliminate.Result, error) {
		return &eliminate.Result{Polynomials: []string{"x^2 + y^2 - 4"}}, nil
	})
	runner := locus.NewRunner(nil, nil, engine, nil)
	return newExploreModel(c, runner, implicit.BoundingBox{MinX: -5, MinY: -5, MaxX: 5, MaxY: 5})
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestExploreNavigation(t *testing.T) {
	m := exploreFixture(t)
	if m.cursor != 0 {
		t.Fatalf("initial cursor = %d", m.cursor)
	}
	m.Update(key("j"))
	m.Update(key("j"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d after two downs, want 2", m.cursor)
	}
	m.Update(key("j"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, must stop at last element", m.cursor)
	}
	m.Update(key("k"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d after up, want 1", m.cursor)
	}
}

func TestExploreDragMovesFreePoint(t *testing.T) {
	m := exploreFixture(t)

	m.Update(key("d")) // move free point 0 right by one step
	e, err := m.cons.Element(0)
	if err != nil {
		t.Fatal(err)
	}
	if e.Pos().X != 0.5 {
		t.Errorf("free point x = %g, want 0.5", e.Pos().X)
	}

	// The midpoint follows.
	mid, err := m.cons.Element(2)
	if err != nil {
		t.Fatal(err)
	}
	if mid.Pos().X != 2.25 {
		t.Errorf("midpoint x = %g, want 2.25", mid.Pos().X)
	}
}

func TestExploreDragRejectsDependentPoint(t *testing.T) {
	m := exploreFixture(t)
	m.cursor = 2 // the midpoint

	m.Update(key("d"))
	mid, _ := m.cons.Element(2)
	if mid.Pos().X != 2 {
		t.Errorf("midpoint moved to x = %g", mid.Pos().X)
	}
	if !strings.Contains(m.status, "free points") {
		t.Errorf("status = %q", m.status)
	}
}

func TestExploreStepAdjustment(t *testing.T) {
	m := exploreFixture(t)
	m.Update(key("+"))
	if m.step != 1 {
		t.Errorf("step = %g after +, want 1", m.step)
	}
	m.Update(key("-"))
	m.Update(key("-"))
	if m.step != 0.25 {
		t.Errorf("step = %g after two -, want 0.25", m.step)
	}
}

func TestExploreRefreshProducesCurve(t *testing.T) {
	m := exploreFixture(t)
	m.cursor = 2 // the midpoint

	_, cmd := m.Update(key("r"))
	if cmd == nil {
		t.Fatal("refresh on dependent point produced no command")
	}
	msg := cmd()
	lm, ok := msg.(locusMsg)
	if !ok {
		t.Fatalf("refresh returned %T", msg)
	}
	if lm.err != nil {
		t.Fatal(lm.err)
	}
	if lm.result.Curve.Points() == 0 {
		t.Error("refresh produced an empty curve")
	}

	m.Update(lm)
	if m.pending != 0 {
		t.Errorf("pending = %d after refresh completed", m.pending)
	}
	if !strings.Contains(m.status, "branches") {
		t.Errorf("status = %q", m.status)
	}
}

func TestExploreRefreshRejectsFreePoint(t *testing.T) {
	m := exploreFixture(t)
	m.cursor = 0

	_, cmd := m.Update(key("r"))
	if cmd != nil {
		t.Error("refresh on a free point should not produce a command")
	}
	if !strings.Contains(m.status, "dependent point") {
		t.Errorf("status = %q", m.status)
	}
}

func TestExploreViewShowsElements(t *testing.T) {
	m := exploreFixture(t)
	view := m.View()
	if !strings.Contains(view, "midpoint") {
		t.Error("view is missing the midpoint row")
	}
	if !strings.Contains(view, "free") {
		t.Error("view is missing free point rows")
	}
}
