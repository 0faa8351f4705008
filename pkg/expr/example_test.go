package expr_test

import (
	"fmt"

	"github.com/gitrdm/homatch/pkg/expr"
)

// Build an expression, replace one subterm and query free variables. The
// original tree is left untouched.
func ExampleReplace() {
	e := expr.App(expr.Sym("and"), expr.Var("a"), expr.App(expr.Sym("or"), expr.Var("b"), expr.Var("c")))

	replaced, err := expr.Replace(e, expr.Path{2, 2}, expr.Var("d"))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(e)
	fmt.Println(replaced)
	fmt.Println(expr.VariableIsFree(expr.Var("c"), replaced))
	// Output:
	// and(a, or(b, c))
	// and(a, or(b, d))
	// false
}

func ExampleFilter() {
	e := expr.Bind(expr.Sym("forall"), []*expr.Variable{expr.Var("x")},
		expr.App(expr.Sym("P"), expr.Var("x"), expr.Meta("Q")))

	for _, s := range expr.Filter(e, expr.IsVariable) {
		fmt.Println(s.Path, s.Expression)
	}
	// Output:
	// /1 x
	// /2/1 x
	// /2/2 _Q
}
