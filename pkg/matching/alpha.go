package matching

import (
	"github.com/gitrdm/homatch/pkg/expr"
)

// AlphaEquivalent reports whether a and b are equal up to a consistent
// renaming of bound variables. Both must be Applications or Bindings;
// alpha-equivalence of two atoms is not defined, so AlphaEquivalent returns
// false for them. Below the top level, atoms compare with Equal.
func AlphaEquivalent(a, b expr.Expression) bool {
	if !expr.IsCompound(a) || !expr.IsCompound(b) {
		return false
	}
	return alphaEq(a, b)
}

func alphaEq(a, b expr.Expression) bool {
	switch {
	case expr.IsApplication(a) && expr.IsApplication(b):
		ac, bc := a.Children(), b.Children()
		if len(ac) != len(bc) {
			return false
		}
		for i := range ac {
			if !alphaEq(ac[i], bc[i]) {
				return false
			}
		}
		return true

	case expr.IsBinding(a) && expr.IsBinding(b):
		av, bv := a.Variables(), b.Variables()
		if len(av) != len(bv) || !a.Head().Equal(b.Head()) {
			return false
		}
		// rename both sides to one shared set of fresh variables
		next := expr.NewVariableIndex(a, b)
		var err error
		for i := range av {
			fresh := a.Language().Variable(expr.FreshName(next + i))
			if a, err = AlphaConvert(a, av[i], fresh); err != nil {
				return false
			}
			if b, err = AlphaConvert(b, bv[i], fresh); err != nil {
				return false
			}
		}
		return alphaEq(a.Body(), b.Body())

	default:
		return a.Equal(b)
	}
}

// equalOrAlpha is the equivalence used to deduplicate constraints.
func equalOrAlpha(a, b expr.Expression) bool {
	return expr.Equal(a, b) || AlphaEquivalent(a, b)
}
