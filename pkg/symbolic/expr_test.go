package symbolic

import (
	"math"
	"testing"
)

func TestSumFoldsConstants(t *testing.T) {
	e := Sum(N(1), S("a"), N(2), Neg(S("a")), S("b"))
	got := e.EvalAt(map[string]float64{"a": 5, "b": 7})
	if got != 10 {
		t.Errorf("EvalAt = %v, want 10", got)
	}
}

func TestProdZeroAnnihilates(t *testing.T) {
	e := Prod(N(0), S("a"), S("b"))
	if n, ok := e.(Num); !ok || !n.IsZero() {
		t.Errorf("0*a*b should simplify to 0, got %s", e)
	}
}

func TestStringWireGrammar(t *testing.T) {
	tests := []struct {
		expr Expr
		want string
	}{
		{Sum(S("a"), S("b")), "a + b"},
		{Prod(N(2), S("a")), "2*a"},
		{Square(S("t1")), "t1^2"},
		{Sum(Square(S("a")), Neg(Prod(N(2), S("a"), S("t")))), "a^2 - 2*a*t"},
		{Sum(Neg(Prod(N(2), S("a"), S("t"))), Square(S("a"))), "a^2 - 2*a*t"},
		{Neg(Square(S("b"))), "-b^2"},
		{
			Sum(
				Neg(Square(S("b1"))),
				Prod(N(2), S("b1"), S("t1")),
				Square(S("a1")),
				Neg(Prod(N(2), S("a1"), S("t1"))),
			),
			"a1^2 - 2*a1*t1 - b1^2 + 2*b1*t1",
		},
		{Prod(Sum(S("a"), S("b")), S("c")), "(a + b)*c"},
	}
	for _, tt := range tests {
		if got := tt.expr.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSub(t *testing.T) {
	e := Sum(Prod(S("a"), S("t")), S("b"))
	subbed := e.Sub("a", N(0))
	if got := subbed.String(); got != "b" {
		t.Errorf("sub a=0: got %q, want %q", got, "b")
	}
}

func TestEvalAtUnbound(t *testing.T) {
	e := Sum(S("missing"), N(1))
	if !math.IsNaN(e.EvalAt(nil)) {
		t.Error("unbound variable should evaluate to NaN")
	}
}

func TestFreeVars(t *testing.T) {
	e := Sum(Prod(S("b"), S("a")), Square(S("c")))
	got := FreeVars(e)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("FreeVars = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FreeVars[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSimplifyDeterministic(t *testing.T) {
	a := Sum(S("z"), S("a"), Prod(N(3), S("m"))).String()
	b := Sum(Prod(N(3), S("m")), S("z"), S("a")).String()
	if a != b {
		t.Errorf("order-dependent simplification: %q vs %q", a, b)
	}
}
