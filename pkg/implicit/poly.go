// Package implicit parses implicit polynomials returned by the
// elimination engine and traces their zero sets into renderable curves.
package implicit

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/loci-dev/loci/pkg/errors"
)

// Poly is a bivariate polynomial in x and y with float coefficients,
// stored sparsely by exponent pair.
type Poly struct {
	terms map[[2]int]float64
	// list caches the terms in a fixed order so evaluation sums floats
	// deterministically. Map iteration order would vary between calls
	// and make repeated traces differ in the last bits.
	list []term
}

type term struct {
	exp  [2]int
	coef float64
}

func (p *Poly) sorted() []term {
	if p.list == nil {
		p.list = make([]term, 0, len(p.terms))
		for exp, coef := range p.terms {
			p.list = append(p.list, term{exp, coef})
		}
		sort.Slice(p.list, func(i, j int) bool {
			if p.list[i].exp[0] != p.list[j].exp[0] {
				return p.list[i].exp[0] < p.list[j].exp[0]
			}
			return p.list[i].exp[1] < p.list[j].exp[1]
		})
	}
	return p.list
}

// Parse reads a polynomial in the engine wire grammar: infix `+ - * ^`
// with integer exponents and the variables x and y. Division is accepted
// for constant denominators only.
func Parse(s string) (*Poly, error) {
	p := &parser{input: s}
	p.next()
	poly, err := p.parseExpr()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse polynomial %q", s)
	}
	if p.tok.kind != tokEOF {
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"parse polynomial %q: trailing input at %q", s, p.tok.text)
	}
	return poly, nil
}

// Eval evaluates the polynomial at (x, y).
func (p *Poly) Eval(x, y float64) float64 {
	var acc float64
	for _, t := range p.sorted() {
		acc += t.coef * intPow(x, t.exp[0]) * intPow(y, t.exp[1])
	}
	return acc
}

// Gradient returns the analytic partial derivatives at (x, y).
func (p *Poly) Gradient(x, y float64) (float64, float64) {
	var gx, gy float64
	for _, t := range p.sorted() {
		if t.exp[0] > 0 {
			gx += t.coef * float64(t.exp[0]) * intPow(x, t.exp[0]-1) * intPow(y, t.exp[1])
		}
		if t.exp[1] > 0 {
			gy += t.coef * float64(t.exp[1]) * intPow(x, t.exp[0]) * intPow(y, t.exp[1]-1)
		}
	}
	return gx, gy
}

// Degree returns the total degree, or -1 for the zero polynomial.
func (p *Poly) Degree() int {
	deg := -1
	for exp, coef := range p.terms {
		if coef != 0 && exp[0]+exp[1] > deg {
			deg = exp[0] + exp[1]
		}
	}
	return deg
}

// IsZero reports whether every coefficient is zero.
func (p *Poly) IsZero() bool { return p.Degree() < 0 }

// String renders the polynomial back into the wire grammar with terms in
// a fixed order, highest degree first.
func (p *Poly) String() string {
	var ts []term
	for _, t := range p.sorted() {
		if t.coef != 0 {
			ts = append(ts, t)
		}
	}
	if len(ts) == 0 {
		return "0"
	}
	sort.Slice(ts, func(i, j int) bool {
		di, dj := ts[i].exp[0]+ts[i].exp[1], ts[j].exp[0]+ts[j].exp[1]
		if di != dj {
			return di > dj
		}
		if ts[i].exp[0] != ts[j].exp[0] {
			return ts[i].exp[0] > ts[j].exp[0]
		}
		return ts[i].exp[1] > ts[j].exp[1]
	})

	var b strings.Builder
	for i, t := range ts {
		coef := t.coef
		if i == 0 {
			if coef < 0 {
				b.WriteString("-")
				coef = -coef
			}
		} else {
			if coef < 0 {
				b.WriteString(" - ")
				coef = -coef
			} else {
				b.WriteString(" + ")
			}
		}
		mono := monoString(t.exp)
		if mono == "" {
			b.WriteString(strconv.FormatFloat(coef, 'g', -1, 64))
			continue
		}
		if coef != 1 {
			b.WriteString(strconv.FormatFloat(coef, 'g', -1, 64))
			b.WriteString("*")
		}
		b.WriteString(mono)
	}
	return b.String()
}

func monoString(exp [2]int) string {
	var parts []string
	if exp[0] == 1 {
		parts = append(parts, "x")
	} else if exp[0] > 1 {
		parts = append(parts, "x^"+strconv.Itoa(exp[0]))
	}
	if exp[1] == 1 {
		parts = append(parts, "y")
	} else if exp[1] > 1 {
		parts = append(parts, "y^"+strconv.Itoa(exp[1]))
	}
	return strings.Join(parts, "*")
}

func intPow(base float64, exp int) float64 {
	acc := 1.0
	for i := 0; i < exp; i++ {
		acc *= base
	}
	return acc
}

// =============================================================================
// Parser
// =============================================================================

type tokKind int

const (
	tokEOF tokKind = iota
	tokBad
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
}

type parser struct {
	input string
	pos   int
	tok   token
}

func (p *parser) next() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
	if p.pos >= len(p.input) {
		p.tok = token{kind: tokEOF}
		return
	}
	c := p.input[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.input) && (p.input[p.pos] >= '0' && p.input[p.pos] <= '9' || p.input[p.pos] == '.') {
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: p.input[start:p.pos]}
	case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		start := p.pos
		for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.input[start:p.pos]}
	default:
		kinds := map[byte]tokKind{
			'+': tokPlus, '-': tokMinus, '*': tokStar,
			'/': tokSlash, '^': tokCaret, '(': tokLParen, ')': tokRParen,
		}
		kind, ok := kinds[c]
		if !ok {
			p.tok = token{kind: tokBad, text: string(c)}
			return
		}
		p.pos++
		p.tok = token{kind: kind, text: string(c)}
	}
}

func (p *parser) parseExpr() (*Poly, error) {
	// Leading sign.
	neg := false
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		if p.tok.kind == tokMinus {
			neg = !neg
		}
		p.next()
	}
	acc, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if neg {
		acc = acc.scale(-1)
	}
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		minus := p.tok.kind == tokMinus
		p.next()
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if minus {
			t = t.scale(-1)
		}
		acc = acc.add(t)
	}
	return acc, nil
}

func (p *parser) parseTerm() (*Poly, error) {
	acc, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokStar || p.tok.kind == tokSlash {
		div := p.tok.kind == tokSlash
		p.next()
		f, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		if div {
			c, ok := f.constant()
			if !ok || c == 0 {
				return nil, fmt.Errorf("division only by nonzero constants")
			}
			acc = acc.scale(1 / c)
			continue
		}
		acc = acc.mul(f)
	}
	return acc, nil
}

func (p *parser) parseFactor() (*Poly, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokCaret {
		return base, nil
	}
	p.next()
	if p.tok.kind != tokNumber {
		return nil, fmt.Errorf("exponent must be an integer, got %q", p.tok.text)
	}
	exp, err := strconv.Atoi(p.tok.text)
	if err != nil || exp < 0 {
		return nil, fmt.Errorf("exponent must be a non-negative integer, got %q", p.tok.text)
	}
	p.next()
	return base.pow(exp), nil
}

func (p *parser) parseAtom() (*Poly, error) {
	switch p.tok.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", p.tok.text)
		}
		p.next()
		return constPoly(v), nil
	case tokIdent:
		name := p.tok.text
		p.next()
		switch name {
		case "x":
			return varPoly(1, 0), nil
		case "y":
			return varPoly(0, 1), nil
		}
		return nil, fmt.Errorf("unexpected variable %q, only x and y are allowed", name)
	case tokMinus:
		p.next()
		f, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return f.scale(-1), nil
	case tokLParen:
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.next()
		return inner, nil
	}
	return nil, fmt.Errorf("unexpected token %q", p.tok.text)
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// =============================================================================
// Polynomial arithmetic
// =============================================================================

func constPoly(v float64) *Poly {
	if v == 0 {
		return &Poly{terms: map[[2]int]float64{}}
	}
	return &Poly{terms: map[[2]int]float64{{0, 0}: v}}
}

func varPoly(dx, dy int) *Poly {
	return &Poly{terms: map[[2]int]float64{{dx, dy}: 1}}
}

func (p *Poly) constant() (float64, bool) {
	for exp, coef := range p.terms {
		if coef != 0 && (exp[0] != 0 || exp[1] != 0) {
			return 0, false
		}
	}
	return p.terms[[2]int{0, 0}], true
}

func (p *Poly) add(q *Poly) *Poly {
	out := make(map[[2]int]float64, len(p.terms)+len(q.terms))
	for exp, coef := range p.terms {
		out[exp] = coef
	}
	for exp, coef := range q.terms {
		out[exp] += coef
	}
	return prune(out)
}

func (p *Poly) mul(q *Poly) *Poly {
	out := make(map[[2]int]float64)
	for pe, pc := range p.terms {
		for qe, qc := range q.terms {
			out[[2]int{pe[0] + qe[0], pe[1] + qe[1]}] += pc * qc
		}
	}
	return prune(out)
}

func (p *Poly) scale(v float64) *Poly {
	out := make(map[[2]int]float64, len(p.terms))
	for exp, coef := range p.terms {
		out[exp] = coef * v
	}
	return prune(out)
}

func (p *Poly) pow(exp int) *Poly {
	acc := constPoly(1)
	for i := 0; i < exp; i++ {
		acc = acc.mul(p)
	}
	return acc
}

func prune(terms map[[2]int]float64) *Poly {
	for exp, coef := range terms {
		if coef == 0 || math.Abs(coef) < 1e-300 {
			delete(terms, exp)
		}
	}
	return &Poly{terms: terms}
}
