package construction

import (
	"strconv"

	"github.com/loci-dev/loci/pkg/errors"
	"github.com/loci-dev/loci/pkg/symbolic"
)

// Symbolic coordinates follow a fixed naming scheme: free point i owns
// the parameter symbols u{i}/v{i}, every dependent point i owns the
// constrained symbols x{i}/y{i}. The locus target's coordinates are
// additionally tied to the bare symbols x/y, which are the two variables
// the elimination engine keeps.

// SymbolU returns the x-parameter symbol name of a free point.
func SymbolU(id ID) string { return "u" + strconv.Itoa(int(id)) }

// SymbolV returns the y-parameter symbol name of a free point.
func SymbolV(id ID) string { return "v" + strconv.Itoa(int(id)) }

// SymbolX returns the x-coordinate symbol name of a dependent point.
func SymbolX(id ID) string { return "x" + strconv.Itoa(int(id)) }

// SymbolY returns the y-coordinate symbol name of a dependent point.
func SymbolY(id ID) string { return "y" + strconv.Itoa(int(id)) }

// Coords returns the symbolic coordinate pair of a point element.
func (c *Construction) Coords(id ID) (symbolic.Expr, symbolic.Expr, error) {
	e, err := c.Element(id)
	if err != nil {
		return nil, nil, err
	}
	if !e.kind.IsPoint() {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput,
			"element %d is a %s, not a point", id, e.kind)
	}
	if e.IsFree() {
		return symbolic.S(SymbolU(id)), symbolic.S(SymbolV(id)), nil
	}
	return symbolic.S(SymbolX(id)), symbolic.S(SymbolY(id)), nil
}

// System is the polynomial constraint system feeding one locus target:
// the union of every ancestor's local constraints plus the coordinate
// equations tying the target to the kept variables x and y.
type System struct {
	Target      ID
	Polynomials []symbolic.Expr
	// Eliminate lists every variable except the kept pair, sorted.
	Eliminate []string
	// Keep is always {"x", "y"}.
	Keep []string
	// Free lists the free-point ancestors in creation order. The
	// normalizer picks its anchor pair from this list.
	Free []ID
}

// Strings renders the polynomials in the elimination wire grammar.
func (s *System) Strings() []string {
	out := make([]string, len(s.Polynomials))
	for i, p := range s.Polynomials {
		out[i] = p.String()
	}
	return out
}

// System collects the constraint system for a locus target by walking its
// ancestor chain and concatenating each ancestor's local constraints. No
// closed-form equation is ever derived by hand; the system is always this
// union plus the two target coordinate equations.
func (c *Construction) System(target ID) (*System, error) {
	t, err := c.Element(target)
	if err != nil {
		return nil, err
	}
	if !t.kind.IsPoint() || t.IsFree() {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"locus target must be a dependent point, element %d is a %s", target, t.kind)
	}

	chain := c.ancestorChain(target)
	sys := &System{Target: target, Keep: []string{"x", "y"}}
	for _, id := range chain {
		e := c.elems[id]
		if e.IsFree() {
			sys.Free = append(sys.Free, id)
			continue
		}
		sys.Polynomials = append(sys.Polynomials, c.localConstraints(e)...)
	}

	tx, ty, _ := c.Coords(target)
	sys.Polynomials = append(sys.Polynomials,
		symbolic.Sum(symbolic.S("x"), symbolic.Neg(tx)),
		symbolic.Sum(symbolic.S("y"), symbolic.Neg(ty)),
	)

	for _, name := range symbolic.FreeVars(sys.Polynomials...) {
		if name != "x" && name != "y" {
			sys.Eliminate = append(sys.Eliminate, name)
		}
	}
	return sys, nil
}

// ancestorChain returns the upward closure of id, including id itself,
// in ascending (creation) order.
func (c *Construction) ancestorChain(id ID) []ID {
	seen := make(map[ID]bool)
	var walk func(ID)
	walk = func(cur ID) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		for _, p := range c.elems[cur].parents {
			walk(p)
		}
	}
	walk(id)
	out := make([]ID, 0, len(seen))
	for i := range c.elems {
		if seen[ID(i)] {
			out = append(out, ID(i))
		}
	}
	return out
}

// localConstraints produces the element's own constraint polynomials,
// each expressed only in terms of its immediate parents' symbols.
func (c *Construction) localConstraints(e *Element) []symbolic.Expr {
	co := func(id ID) (symbolic.Expr, symbolic.Expr) {
		x, y, _ := c.Coords(id)
		return x, y
	}
	lineCo := func(id ID) (symbolic.Expr, symbolic.Expr, symbolic.Expr, symbolic.Expr) {
		l := c.elems[id]
		a1, a2 := co(l.parents[0])
		b1, b2 := co(l.parents[1])
		return a1, a2, b1, b2
	}
	t1, t2 := co(e.id)

	switch e.kind {
	case KindMidpoint:
		a1, a2 := co(e.parents[0])
		b1, b2 := co(e.parents[1])
		return []symbolic.Expr{
			collinear(a1, a2, b1, b2, t1, t2),
			equidistant(a1, a2, b1, b2, t1, t2),
		}
	case KindPerpFoot:
		p1, p2 := co(e.parents[0])
		a1, a2, b1, b2 := lineCo(e.parents[1])
		return []symbolic.Expr{
			collinear(a1, a2, b1, b2, t1, t2),
			orthogonal(p1, p2, t1, t2, a1, a2, b1, b2),
		}
	case KindReflection:
		p1, p2 := co(e.parents[0])
		a1, a2, b1, b2 := lineCo(e.parents[1])
		return []symbolic.Expr{
			orthogonal(p1, p2, t1, t2, a1, a2, b1, b2),
			mirrorDistance(a1, a2, t1, t2, p1, p2),
		}
	case KindParallelPoint:
		c1, c2 := co(e.parents[0])
		a1, a2, b1, b2 := lineCo(e.parents[1])
		return []symbolic.Expr{
			parallel(c1, c2, t1, t2, a1, a2, b1, b2),
			parallel(b1, b2, t1, t2, a1, a2, c1, c2),
		}
	case KindCircumcenter:
		a1, a2 := co(e.parents[0])
		b1, b2 := co(e.parents[1])
		d1, d2 := co(e.parents[2])
		return []symbolic.Expr{
			equidistant(a1, a2, b1, b2, t1, t2),
			equidistant(a1, a2, d1, d2, t1, t2),
		}
	case KindIntersection:
		a1, a2, b1, b2 := lineCo(e.parents[0])
		d1, d2, f1, f2 := lineCo(e.parents[1])
		return []symbolic.Expr{
			collinear(a1, a2, b1, b2, t1, t2),
			collinear(d1, d2, f1, f2, t1, t2),
		}
	}
	return nil
}

// collinear is zero when T lies on the line AB:
// a2*t1 - a2*b1 + t2*b1 - a1*t2 + a1*b2 - t1*b2.
func collinear(a1, a2, b1, b2, t1, t2 symbolic.Expr) symbolic.Expr {
	return symbolic.Sum(
		symbolic.Prod(a2, t1),
		symbolic.Neg(symbolic.Prod(a2, b1)),
		symbolic.Prod(t2, b1),
		symbolic.Neg(symbolic.Prod(a1, t2)),
		symbolic.Prod(a1, b2),
		symbolic.Neg(symbolic.Prod(t1, b2)),
	)
}

// equidistant is zero when T is equally far from A and B:
// a1^2 - 2*a1*t1 + a2^2 - 2*a2*t2 - b1^2 + 2*b1*t1 - b2^2 + 2*b2*t2.
func equidistant(a1, a2, b1, b2, t1, t2 symbolic.Expr) symbolic.Expr {
	two := symbolic.N(2)
	return symbolic.Sum(
		symbolic.Square(a1),
		symbolic.Neg(symbolic.Prod(two, a1, t1)),
		symbolic.Square(a2),
		symbolic.Neg(symbolic.Prod(two, a2, t2)),
		symbolic.Neg(symbolic.Square(b1)),
		symbolic.Prod(two, b1, t1),
		symbolic.Neg(symbolic.Square(b2)),
		symbolic.Prod(two, b2, t2),
	)
}

// orthogonal is zero when PT is perpendicular to AB:
// p2*a2 - p2*b2 - t2*a2 + t2*b2 + p1*a1 - p1*b1 - t1*a1 + t1*b1.
func orthogonal(p1, p2, t1, t2, a1, a2, b1, b2 symbolic.Expr) symbolic.Expr {
	return symbolic.Sum(
		symbolic.Prod(p2, a2),
		symbolic.Neg(symbolic.Prod(p2, b2)),
		symbolic.Neg(symbolic.Prod(t2, a2)),
		symbolic.Prod(t2, b2),
		symbolic.Prod(p1, a1),
		symbolic.Neg(symbolic.Prod(p1, b1)),
		symbolic.Neg(symbolic.Prod(t1, a1)),
		symbolic.Prod(t1, b1),
	)
}

// parallel is zero when CT is parallel to AB, with the cross product
// expanded over the two direction vectors.
func parallel(c1, c2, t1, t2, a1, a2, b1, b2 symbolic.Expr) symbolic.Expr {
	return symbolic.Sum(
		symbolic.Prod(b1, t2),
		symbolic.Neg(symbolic.Prod(b1, c2)),
		symbolic.Neg(symbolic.Prod(a1, t2)),
		symbolic.Prod(a1, c2),
		symbolic.Neg(symbolic.Prod(b2, t1)),
		symbolic.Prod(b2, c1),
		symbolic.Prod(a2, t1),
		symbolic.Neg(symbolic.Prod(a2, c1)),
	)
}

// mirrorDistance is zero when A is equally far from R and from P:
// r1^2 - 2*a1*r1 + r2^2 - 2*a2*r2 - p1^2 + 2*a1*p1 - p2^2 + 2*a2*p2.
func mirrorDistance(a1, a2, r1, r2, p1, p2 symbolic.Expr) symbolic.Expr {
	two := symbolic.N(2)
	return symbolic.Sum(
		symbolic.Square(r1),
		symbolic.Neg(symbolic.Prod(two, a1, r1)),
		symbolic.Square(r2),
		symbolic.Neg(symbolic.Prod(two, a2, r2)),
		symbolic.Neg(symbolic.Square(p1)),
		symbolic.Prod(two, a1, p1),
		symbolic.Neg(symbolic.Square(p2)),
		symbolic.Prod(two, a2, p2),
	)
}
