package matching

import (
	"sort"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/gitrdm/homatch/pkg/expr"
	"github.com/kylelemons/godebug/pretty"
)

func sym(name string) expr.Expression { return expr.Sym(name) }
func v(name string) expr.Expression   { return expr.Var(name) }
func meta(name string) expr.Expression {
	return expr.Meta(name)
}
func num(n int64) expr.Expression { return expr.Int(n) }

// app builds head(args...) with a symbol head.
func app(head string, args ...expr.Expression) expr.Expression {
	return expr.App(expr.Sym(head), args...)
}

func bind(head string, vars []string, body expr.Expression) expr.Expression {
	vs := make([]*expr.Variable, len(vars))
	for i, n := range vars {
		vs[i] = expr.Var(n)
	}
	return expr.Bind(expr.Sym(head), vs, body)
}

// lambda builds an expression function over plain variables.
func lambda(t *testing.T, vars []string, body expr.Expression) expr.Expression {
	t.Helper()
	vs := make([]expr.Expression, len(vars))
	for i, n := range vars {
		vs[i] = expr.Var(n)
	}
	ef, err := MakeExpressionFunction(vs, body)
	if err != nil {
		t.Fatalf("MakeExpressionFunction: %v", err)
	}
	return ef
}

func efa(t *testing.T, f expr.Expression, args ...expr.Expression) expr.Expression {
	t.Helper()
	e, err := MakeExpressionFunctionApplication(f, args...)
	if err != nil {
		t.Fatalf("MakeExpressionFunctionApplication: %v", err)
	}
	return e
}

// want is an expected solution keyed by metavariable name.
type want map[string]expr.Expression

func sameValue(a, b expr.Expression) bool {
	return equalOrAlpha(a, b)
}

func matches(sol *ConstraintList, w want) bool {
	got := sol.Map()
	if len(got) != len(w) {
		return false
	}
	for name, exp := range w {
		g, ok := got[name]
		if !ok || !sameValue(g, exp) {
			return false
		}
	}
	return true
}

// assertSolutions compares solution sets as unordered collections.
func assertSolutions(t *testing.T, got []*ConstraintList, exp []want) {
	t.Helper()
	used := make([]bool, len(got))
	for _, w := range exp {
		found := false
		for i, sol := range got {
			if !used[i] && matches(sol, w) {
				used[i], found = true, true
				break
			}
		}
		if !found {
			t.Errorf("expected solution not found: %s", pretty.Sprint(renderWant(w)))
		}
	}
	if len(got) != len(exp) {
		t.Errorf("expected %d solutions, got %d:\n%s", len(exp), len(got), spew.Sdump(renderSolutions(got)))
	}
}

func renderWant(w want) map[string]string {
	out := make(map[string]string, len(w))
	for k, e := range w {
		out[k] = e.String()
	}
	return out
}

func renderSolutions(sols []*ConstraintList) []string {
	out := make([]string, len(sols))
	for i, s := range sols {
		out[i] = s.String()
	}
	sort.Strings(out)
	return out
}
