package matching

import (
	"sort"

	"github.com/gitrdm/homatch/internal/errwrap"
	"github.com/gitrdm/homatch/pkg/expr"
	"github.com/samber/lo"
)

// ReplaceWithoutCapture returns e with every free occurrence of variable
// replaced by replacement. Binders whose bound variables occur free in
// replacement are renamed first, so no free variable of replacement is ever
// captured. The result has no free occurrence of variable.
//
// A binder that itself binds variable can only be rewritten when replacement
// is a variable; the binder is then renamed along with its body. Any other
// replacement fails with ErrIllegalCapture.
//
// The input is never modified; untouched subtrees are shared with the result.
func ReplaceWithoutCapture(e, variable, replacement expr.Expression) (expr.Expression, error) {
	if e == nil || variable == nil || replacement == nil {
		return nil, errwrap.Wrapf(ErrInvalidArgument, "replace needs an expression, a variable and a replacement")
	}
	return replace(e, variable, replacement)
}

func replace(e, variable, replacement expr.Expression) (expr.Expression, error) {
	if e.Equal(variable) {
		return replacement, nil
	}
	switch {
	case expr.IsApplication(e):
		children := e.Children()
		var next []expr.Expression
		for i, c := range children {
			r, err := replace(c, variable, replacement)
			if err != nil {
				return nil, err
			}
			if r != c && next == nil {
				next = append([]expr.Expression(nil), children...)
			}
			if next != nil {
				next[i] = r
			}
		}
		if next == nil {
			return e, nil
		}
		return e.Language().Application(next...)

	case expr.IsBinding(e):
		if lo.ContainsBy(e.Variables(), variable.Equal) {
			return rebind(e, variable, replacement)
		}
		if !expr.VariableIsFree(variable, e) {
			return e, nil
		}
		var err error
		for _, bv := range e.Variables() {
			if !expr.VariableIsFree(bv, replacement) {
				continue
			}
			fresh := expr.NewVariable(e.Language(), e, replacement, variable)
			if e, err = AlphaConvert(e, bv, fresh); err != nil {
				return nil, err
			}
		}
		head, err := replace(e.Head(), variable, replacement)
		if err != nil {
			return nil, err
		}
		body, err := replace(e.Body(), variable, replacement)
		if err != nil {
			return nil, err
		}
		return e.Language().Binding(head, e.Variables(), body)
	}
	return e, nil
}

// rebind handles a binder that binds variable itself.
func rebind(e, variable, replacement expr.Expression) (expr.Expression, error) {
	if !expr.IsVariable(replacement) {
		return nil, errwrap.Wrapf(ErrIllegalCapture, "bound variable %v cannot become %v", variable, replacement)
	}
	others := lo.Reject(e.Variables(), func(v expr.Expression, _ int) bool { return v.Equal(variable) })
	if lo.ContainsBy(others, replacement.Equal) || expr.VariableIsFree(replacement, e) {
		return nil, errwrap.Wrapf(ErrIllegalCapture, "renaming %v to %v would capture it in %v", variable, replacement, e)
	}
	vars := lo.Map(e.Variables(), func(v expr.Expression, _ int) expr.Expression {
		if v.Equal(variable) {
			return replacement
		}
		return v
	})
	head, err := replace(e.Head(), variable, replacement)
	if err != nil {
		return nil, err
	}
	body, err := replace(e.Body(), variable, replacement)
	if err != nil {
		return nil, err
	}
	return e.Language().Binding(head, vars, body)
}

// AlphaConvert renames the bound variable which of binding to with, in the
// binder list and throughout the body. with should not occur free in the
// body. It fails with ErrUnboundVariable when binding does not bind which.
func AlphaConvert(binding, which, with expr.Expression) (expr.Expression, error) {
	if !expr.IsBinding(binding) {
		return nil, errwrap.Wrapf(ErrInvalidArgument, "cannot alpha-convert %v, it is not a binding", binding)
	}
	if !expr.IsVariable(with) {
		return nil, errwrap.Wrapf(ErrInvalidArgument, "cannot rename a bound variable to %v", with)
	}
	if !lo.ContainsBy(binding.Variables(), which.Equal) {
		return nil, errwrap.Wrapf(ErrUnboundVariable, "%v is not bound by %v", which, binding)
	}
	vars := lo.Map(binding.Variables(), func(v expr.Expression, _ int) expr.Expression {
		if v.Equal(which) {
			return with
		}
		return v
	})
	body, err := ReplaceWithoutCapture(binding.Body(), which, with)
	if err != nil {
		return nil, err
	}
	return binding.Language().Binding(binding.Head(), vars, body)
}

// BetaReduce applies the expression function ef to args. The substitution is
// simultaneous: parameters that occur free in an argument are renamed apart
// before any argument is substituted. ef is never modified.
func BetaReduce(ef expr.Expression, args []expr.Expression) (expr.Expression, error) {
	if !IsExpressionFunction(ef) {
		return nil, errwrap.Wrapf(ErrInvalidArgument, "%v is not an expression function", ef)
	}
	if len(args) != len(ef.Variables()) {
		return nil, errwrap.Wrapf(ErrArityMismatch, "%v takes %d arguments, got %d", ef, len(ef.Variables()), len(args))
	}
	avoid := append([]expr.Expression{ef}, args...)
	for _, v := range ef.Variables() {
		if !lo.SomeBy(args, func(a expr.Expression) bool { return expr.VariableIsFree(v, a) }) {
			continue
		}
		fresh := expr.NewVariable(ef.Language(), avoid...)
		var err error
		if ef, err = AlphaConvert(ef, v, fresh); err != nil {
			return nil, err
		}
		avoid[0] = ef
	}
	body := ef.Body()
	for i, v := range ef.Variables() {
		var err error
		if body, err = ReplaceWithoutCapture(body, v, args[i]); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// maxNormalizeSweeps bounds Normalize on expressions without a normal form.
const maxNormalizeSweeps = 256

// Normalize beta-reduces every applicable expression function application in
// e until none is left. Deeper applications are reduced before the ones that
// contain them. It fails with ErrNoNormalForm when applications remain after
// maxNormalizeSweeps sweeps.
func Normalize(e expr.Expression) (expr.Expression, error) {
	for sweep := 0; ; sweep++ {
		if sweep == maxNormalizeSweeps {
			return nil, errwrap.Wrapf(ErrNoNormalForm, "still reducible after %d sweeps", maxNormalizeSweeps)
		}
		found := expr.Filter(e, CanApply)
		if len(found) == 0 {
			return e, nil
		}
		sort.SliceStable(found, func(i, j int) bool { return len(found[i].Path) > len(found[j].Path) })
		for _, f := range found {
			cur, err := expr.At(e, f.Path)
			if err != nil {
				return nil, err
			}
			if !CanApply(cur) {
				continue
			}
			reduced, err := ApplyExpressionFunctionApplication(cur)
			if err != nil {
				return nil, err
			}
			if e, err = expr.Replace(e, f.Path, reduced); err != nil {
				return nil, err
			}
		}
	}
}
