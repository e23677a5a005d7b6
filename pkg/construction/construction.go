// Package construction implements the dependency graph of a dynamic
// geometric construction.
//
// Elements live in an arena and refer to each other by integer id.
// Ids are handed out in creation order and never reused, which gives the
// graph its central invariant: every parent id is smaller than its
// child's id. Update exploits this to re-evaluate any set of affected
// elements exactly once by visiting them in ascending id order.
//
// The package carries both representations of each element: the numeric
// position (re-evaluated on every drag) and, via constraints.go, the
// symbolic constraint polynomials consumed by the locus pipeline.
package construction

import (
	"sort"

	"github.com/loci-dev/loci/pkg/errors"
	"github.com/loci-dev/loci/pkg/geom"
)

// ID identifies an element within one Construction. Ids are assigned in
// creation order and are never reused.
type ID int

// Element is a node of the construction graph.
type Element struct {
	id       ID
	kind     Kind
	parents  []ID
	children []ID
	pos      geom.Point
}

// ID returns the element's id.
func (e *Element) ID() ID { return e.id }

// Kind returns the element's kind.
func (e *Element) Kind() Kind { return e.kind }

// Parents returns the ids of the defining elements, in definition order.
func (e *Element) Parents() []ID { return e.parents }

// Children returns the ids of the elements defined in terms of this one.
func (e *Element) Children() []ID { return e.children }

// Pos returns the current numeric position. For non-point kinds the
// value is meaningless.
func (e *Element) Pos() geom.Point { return e.pos }

// IsFree reports whether the element is a directly draggable point.
func (e *Element) IsFree() bool { return e.kind == KindFreePoint }

// Construction is an arena of elements forming a dependency DAG.
type Construction struct {
	elems []*Element
}

// New returns an empty construction.
func New() *Construction {
	return &Construction{}
}

// Len returns the number of live elements.
func (c *Construction) Len() int {
	n := 0
	for _, e := range c.elems {
		if e != nil {
			n++
		}
	}
	return n
}

// Element returns the element with the given id.
func (c *Construction) Element(id ID) (*Element, error) {
	if int(id) < 0 || int(id) >= len(c.elems) || c.elems[id] == nil {
		return nil, errors.New(errors.ErrCodeUnknownElement, "no element with id %d", id)
	}
	return c.elems[id], nil
}

// Elements calls fn for every live element in creation order.
func (c *Construction) Elements(fn func(*Element)) {
	for _, e := range c.elems {
		if e != nil {
			fn(e)
		}
	}
}

// FreePoints returns the ids of all free points in creation order.
func (c *Construction) FreePoints() []ID {
	var out []ID
	for _, e := range c.elems {
		if e != nil && e.IsFree() {
			out = append(out, e.id)
		}
	}
	return out
}

// AddFreePoint creates a free point at the given position.
func (c *Construction) AddFreePoint(x, y float64) ID {
	id := ID(len(c.elems))
	c.elems = append(c.elems, &Element{
		id:   id,
		kind: KindFreePoint,
		pos:  geom.Point{X: x, Y: y},
	})
	return id
}

// AddElement creates a dependent element of the given kind. Parents must
// already exist and match the kind's capability requirements; on failure
// the graph is left unchanged. The new element's position is evaluated
// immediately from the current parent positions.
func (c *Construction) AddElement(kind Kind, parents ...ID) (ID, error) {
	want, ok := parentClasses[kind]
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidInput, "unknown kind %d", int(kind))
	}
	if kind == KindFreePoint {
		return 0, errors.New(errors.ErrCodeInvalidInput, "free points take coordinates, not parents")
	}
	if len(parents) != len(want) {
		return 0, errors.New(errors.ErrCodeInvalidParentTypes,
			"%s wants %d parents, got %d", kind, len(want), len(parents))
	}
	for i, pid := range parents {
		p, err := c.Element(pid)
		if err != nil {
			return 0, err
		}
		if ClassOf(p.kind) != want[i] {
			return 0, errors.New(errors.ErrCodeInvalidParentTypes,
				"%s parent %d must be %s, got %s", kind, i, className(want[i]), p.kind)
		}
	}

	id := ID(len(c.elems))
	e := &Element{id: id, kind: kind, parents: append([]ID(nil), parents...)}
	c.elems = append(c.elems, e)
	for _, pid := range parents {
		c.elems[pid].children = append(c.elems[pid].children, id)
	}
	c.evaluate(e)
	return id, nil
}

// AddEdge adds an explicit dependency edge from parent to child. The edge
// is rejected, leaving the graph unchanged, if it would close a cycle.
func (c *Construction) AddEdge(parent, child ID) error {
	p, err := c.Element(parent)
	if err != nil {
		return err
	}
	ch, err := c.Element(child)
	if err != nil {
		return err
	}
	if parent == child || c.reaches(parent, child) {
		return errors.New(errors.ErrCodeCyclicDependency,
			"edge %d -> %d would create a cycle", parent, child)
	}
	for _, existing := range p.children {
		if existing == child {
			return nil
		}
	}
	p.children = append(p.children, child)
	ch.parents = append(ch.parents, parent)
	return nil
}

// reaches reports whether from is a descendant of through, i.e. whether
// through is reachable from from by following parent links upward.
func (c *Construction) reaches(from, through ID) bool {
	seen := make(map[ID]bool)
	stack := []ID{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == through {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, c.elems[id].parents...)
	}
	return false
}

// Remove deletes the element and everything defined in terms of it, since
// a dependent without its parent cannot be evaluated. It returns the ids
// that were removed, in ascending order, so callers holding per-element
// state (cached locus curves, in-flight requests) can discard it.
func (c *Construction) Remove(id ID) ([]ID, error) {
	if _, err := c.Element(id); err != nil {
		return nil, err
	}
	doomed := c.Descendants(id)
	doomed = append(doomed, id)
	sort.Slice(doomed, func(i, j int) bool { return doomed[i] < doomed[j] })

	gone := make(map[ID]bool, len(doomed))
	for _, d := range doomed {
		gone[d] = true
	}
	for _, e := range c.elems {
		if e == nil || gone[e.id] {
			continue
		}
		e.children = filterIDs(e.children, gone)
		e.parents = filterIDs(e.parents, gone)
	}
	for _, d := range doomed {
		c.elems[d] = nil
	}
	return doomed, nil
}

// Descendants returns the ids of every element transitively defined in
// terms of id, in ascending order. The element itself is not included.
func (c *Construction) Descendants(id ID) []ID {
	seen := make(map[ID]bool)
	stack := append([]ID(nil), c.elems[id].children...)
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[d] {
			continue
		}
		seen[d] = true
		stack = append(stack, c.elems[d].children...)
	}
	out := make([]ID, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Move repositions a free point and propagates the change through every
// dependent element. It returns the number of elements re-evaluated.
func (c *Construction) Move(id ID, x, y float64) (int, error) {
	e, err := c.Element(id)
	if err != nil {
		return 0, err
	}
	if !e.IsFree() {
		return 0, errors.New(errors.ErrCodeInvalidInput,
			"element %d is a %s, only free points can be moved", id, e.kind)
	}
	e.pos = geom.Point{X: x, Y: y}
	return c.Update(id), nil
}

// Update re-evaluates the given roots and every element affected by
// them, each exactly once. Because parents always carry smaller ids
// than their children, visiting the affected set in ascending id order
// guarantees parents are fresh before any child reads them. It returns
// the number of elements evaluated.
func (c *Construction) Update(roots ...ID) int {
	affected := make(map[ID]bool)
	for _, r := range roots {
		if int(r) < 0 || int(r) >= len(c.elems) || c.elems[r] == nil {
			continue
		}
		// A dependent root is itself recomputed; free roots fall out of
		// the evaluation filter below.
		affected[r] = true
		for _, d := range c.Descendants(r) {
			affected[d] = true
		}
	}
	order := make([]ID, 0, len(affected))
	for id := range affected {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	n := 0
	for _, id := range order {
		e := c.elems[id]
		if e.kind.IsPoint() && !e.IsFree() {
			c.evaluate(e)
			n++
		}
	}
	return n
}

// UpdateAll re-evaluates every dependent element from scratch.
func (c *Construction) UpdateAll() int {
	n := 0
	for _, e := range c.elems {
		if e != nil && e.kind.IsPoint() && !e.IsFree() {
			c.evaluate(e)
			n++
		}
	}
	return n
}

// evaluate recomputes the numeric position of a dependent point from its
// parents. Singular configurations produce the infinite sentinel rather
// than an error.
func (c *Construction) evaluate(e *Element) {
	at := func(id ID) geom.Point { return c.elems[id].pos }
	line := func(id ID) (geom.Point, geom.Point) {
		l := c.elems[id]
		return at(l.parents[0]), at(l.parents[1])
	}
	switch e.kind {
	case KindMidpoint:
		e.pos = geom.Midpoint(at(e.parents[0]), at(e.parents[1]))
	case KindPerpFoot:
		a, b := line(e.parents[1])
		e.pos = geom.PerpendicularFoot(at(e.parents[0]), a, b)
	case KindReflection:
		a, b := line(e.parents[1])
		e.pos = geom.Reflect(at(e.parents[0]), a, b)
	case KindParallelPoint:
		a, b := line(e.parents[1])
		e.pos = geom.ParallelPoint(at(e.parents[0]), a, b)
	case KindCircumcenter:
		e.pos = geom.Circumcenter(at(e.parents[0]), at(e.parents[1]), at(e.parents[2]))
	case KindIntersection:
		a, b := line(e.parents[0])
		d, f := line(e.parents[1])
		e.pos = geom.LineIntersection(a, b, d, f)
	}
}

func className(cl Class) string {
	switch cl {
	case ClassPoint:
		return "point"
	case ClassLine:
		return "line"
	case ClassCircle:
		return "circle"
	case ClassCurve:
		return "curve"
	}
	return "unknown"
}

func filterIDs(ids []ID, drop map[ID]bool) []ID {
	out := ids[:0]
	for _, id := range ids {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}
