// Package symbolic implements the small expression language used to carry
// exact constraint polynomials from a construction to the elimination
// engine.
//
// Expressions are immutable trees of numbers, named variables, sums,
// products and integer powers. Simplification is deterministic and
// intentionally shallow: it flattens nested sums/products, folds numeric
// constants and sorts operands, but never expands products. The String
// form is exactly the wire grammar the elimination engine accepts:
// infix `+ - * ^` with integer exponents and named variables.
package symbolic

import (
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Expr is an immutable symbolic expression.
type Expr interface {
	// Simplify returns a canonical form of the expression.
	Simplify() Expr
	// String renders the expression in the elimination wire grammar.
	String() string
	// Sub returns the expression with every occurrence of name replaced
	// by value.
	Sub(name string, value Expr) Expr
	// EvalAt numerically evaluates the expression with the given variable
	// bindings. Unbound variables evaluate to NaN.
	EvalAt(vars map[string]float64) float64
	// Vars adds every variable name in the expression to the set.
	Vars(set map[string]struct{})
}

// =============================================================================
// Num
// =============================================================================

// Num is an exact rational constant.
type Num struct{ val *big.Rat }

// N returns the integer constant n.
func N(n int64) Num { return Num{val: new(big.Rat).SetInt64(n)} }

func (n Num) Simplify() Expr          { return n }
func (n Num) Sub(string, Expr) Expr   { return n }
func (n Num) Vars(map[string]struct{}) {}

// IsZero reports whether the constant is exactly zero.
func (n Num) IsZero() bool { return n.val.Sign() == 0 }

// IsOne reports whether the constant is exactly one.
func (n Num) IsOne() bool { return n.val.Cmp(ratOne) == 0 }

func (n Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n Num) EvalAt(map[string]float64) float64 {
	f, _ := n.val.Float64()
	return f
}

var (
	ratOne      = new(big.Rat).SetInt64(1)
	ratMinusOne = new(big.Rat).SetInt64(-1)
)

func numAdd(a, b Num) Num { return Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b Num) Num { return Num{val: new(big.Rat).Mul(a.val, b.val)} }

// =============================================================================
// Sym
// =============================================================================

// Sym is a named variable.
type Sym struct{ name string }

// S returns the variable with the given name.
func S(name string) Sym { return Sym{name: name} }

func (s Sym) Simplify() Expr { return s }
func (s Sym) String() string { return s.name }

// Name returns the variable name.
func (s Sym) Name() string { return s.name }

func (s Sym) Sub(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

func (s Sym) EvalAt(vars map[string]float64) float64 {
	if v, ok := vars[s.name]; ok {
		return v
	}
	return math.NaN()
}

func (s Sym) Vars(set map[string]struct{}) { set[s.name] = struct{}{} }

// =============================================================================
// Add
// =============================================================================

// Add is a sum of terms.
type Add struct{ terms []Expr }

// Sum returns the simplified sum of the given terms.
func Sum(terms ...Expr) Expr { return Add{terms: terms}.Simplify() }

func (a Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	acc := N(0)
	for _, t := range a.terms {
		switch v := t.Simplify().(type) {
		case Add:
			flat = append(flat, v.terms...)
		case Num:
			acc = numAdd(acc, v)
		default:
			flat = append(flat, v)
		}
	}
	sortExprs(flat)
	if !acc.IsZero() {
		flat = append(flat, acc)
	}
	switch len(flat) {
	case 0:
		return N(0)
	case 1:
		return flat[0]
	}
	return Add{terms: flat}
}

func (a Add) String() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	// Render "+ -3*x" as "- 3*x" so the wire form stays readable.
	s := strings.Join(parts, " + ")
	return strings.ReplaceAll(s, "+ -", "- ")
}

func (a Add) Sub(name string, value Expr) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Sub(name, value)
	}
	return Sum(out...)
}

func (a Add) EvalAt(vars map[string]float64) float64 {
	var acc float64
	for _, t := range a.terms {
		acc += t.EvalAt(vars)
	}
	return acc
}

func (a Add) Vars(set map[string]struct{}) {
	for _, t := range a.terms {
		t.Vars(set)
	}
}

// Terms returns the summands.
func (a Add) Terms() []Expr { return a.terms }

// =============================================================================
// Mul
// =============================================================================

// Mul is a product of factors.
type Mul struct{ factors []Expr }

// Prod returns the simplified product of the given factors.
func Prod(factors ...Expr) Expr { return Mul{factors: factors}.Simplify() }

// Neg returns -e.
func Neg(e Expr) Expr { return Prod(N(-1), e) }

func (m Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	coeff := N(1)
	for _, f := range m.factors {
		switch v := f.Simplify().(type) {
		case Mul:
			flat = append(flat, v.factors...)
		case Num:
			coeff = numMul(coeff, v)
		default:
			flat = append(flat, v)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	sortExprs(flat)
	if len(flat) == 0 {
		return coeff
	}
	if coeff.IsOne() {
		if len(flat) == 1 {
			return flat[0]
		}
		return Mul{factors: flat}
	}
	return Mul{factors: append([]Expr{coeff}, flat...)}
}

func (m Mul) String() string {
	factors := m.factors
	sign := ""
	// A -1 coefficient renders as a bare sign: -b^2, not -1*b^2.
	if n, ok := factors[0].(Num); ok && len(factors) > 1 && n.val.Cmp(ratMinusOne) == 0 {
		sign = "-"
		factors = factors[1:]
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		if _, isAdd := f.(Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return sign + strings.Join(parts, "*")
}

func (m Mul) Sub(name string, value Expr) Expr {
	out := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.Sub(name, value)
	}
	return Prod(out...)
}

func (m Mul) EvalAt(vars map[string]float64) float64 {
	acc := 1.0
	for _, f := range m.factors {
		acc *= f.EvalAt(vars)
	}
	return acc
}

func (m Mul) Vars(set map[string]struct{}) {
	for _, f := range m.factors {
		f.Vars(set)
	}
}

// Factors returns the multiplicands.
func (m Mul) Factors() []Expr { return m.factors }

// =============================================================================
// Pow
// =============================================================================

// Pow is base raised to a non-negative integer exponent.
type Pow struct {
	base Expr
	exp  int
}

// Power returns the simplified power base^exp.
func Power(base Expr, exp int) Expr { return Pow{base: base, exp: exp}.Simplify() }

// Square returns e^2.
func Square(e Expr) Expr { return Power(e, 2) }

func (p Pow) Simplify() Expr {
	base := p.base.Simplify()
	switch p.exp {
	case 0:
		return N(1)
	case 1:
		return base
	}
	if n, ok := base.(Num); ok {
		acc := N(1)
		for i := 0; i < p.exp; i++ {
			acc = numMul(acc, n)
		}
		return acc
	}
	if inner, ok := base.(Pow); ok {
		return Pow{base: inner.base, exp: inner.exp * p.exp}
	}
	return Pow{base: base, exp: p.exp}
}

func (p Pow) String() string {
	s := p.base.String()
	switch p.base.(type) {
	case Add, Mul:
		s = "(" + s + ")"
	}
	return s + "^" + strconv.Itoa(p.exp)
}

func (p Pow) Sub(name string, value Expr) Expr {
	return Power(p.base.Sub(name, value), p.exp)
}

func (p Pow) EvalAt(vars map[string]float64) float64 {
	return math.Pow(p.base.EvalAt(vars), float64(p.exp))
}

func (p Pow) Vars(set map[string]struct{}) { p.base.Vars(set) }

// =============================================================================
// Helpers
// =============================================================================

// FreeVars returns the sorted variable names occurring in the expressions.
func FreeVars(exprs ...Expr) []string {
	set := make(map[string]struct{})
	for _, e := range exprs {
		e.Vars(set)
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// sortExprs orders operands by their wire form. Terms compare without
// their sign and leading numeric coefficient, so a^2 + -2*a*t renders
// as "a^2 - 2*a*t" rather than leading with the negated term.
func sortExprs(es []Expr) {
	sort.SliceStable(es, func(i, j int) bool {
		si, sj := es[i].String(), es[j].String()
		ki, kj := termKey(si), termKey(sj)
		if ki != kj {
			return termLess(ki, kj)
		}
		return si < sj
	})
}

// termKey strips a leading minus sign and numeric coefficient, leaving
// the variable part of a rendered term.
func termKey(s string) string {
	s = strings.TrimPrefix(s, "-")
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.' || s[i] == '/') {
		i++
	}
	if i > 0 && i < len(s) && s[i] == '*' {
		return s[i+1:]
	}
	return s
}

// termLess compares variable parts byte-wise, ranking '^' before '*'
// so a power sorts ahead of a product over the same variable: a^2
// comes before a*t.
func termLess(a, b string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		return termRank(a[i]) < termRank(b[i])
	}
	return len(a) < len(b)
}

func termRank(c byte) int {
	if c == '*' {
		return 0x7f
	}
	return int(c)
}
