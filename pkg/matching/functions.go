package matching

import (
	"github.com/gitrdm/homatch/internal/errwrap"
	"github.com/gitrdm/homatch/pkg/expr"
)

// Reserved symbols that mark expression functions and their applications.
// They live in their own namespace so they never collide with user symbols.
const (
	ReservedNamespace = "SecondOrderMatching"
	ReservedEF        = "ExpressionFunction"
	ReservedEFA       = "ExpressionFunctionApplication"
)

func isReserved(e expr.Expression, name string) bool {
	return expr.IsSymbol(e) && !e.IsMetavariable() &&
		e.Namespace() == ReservedNamespace && e.Name() == name
}

// MakeExpressionFunction builds λv1..vk.body. The variables and body are
// shared with the result, not copied.
func MakeExpressionFunction(variables []expr.Expression, body expr.Expression) (expr.Expression, error) {
	if body == nil {
		return nil, errwrap.Wrapf(ErrInvalidArgument, "expression function needs a body")
	}
	if len(variables) == 0 {
		return nil, errwrap.Wrapf(ErrInvalidArgument, "expression function needs at least one variable")
	}
	for i, v := range variables {
		if !expr.IsVariable(v) {
			return nil, errwrap.Wrapf(ErrInvalidArgument, "expression function parameter %d is %v, not a variable", i, v)
		}
	}
	lang := body.Language()
	return lang.Binding(lang.Symbol(ReservedNamespace, ReservedEF), variables, body)
}

// IsExpressionFunction reports whether e is an expression function.
func IsExpressionFunction(e expr.Expression) bool {
	return expr.IsBinding(e) && isReserved(e.Head(), ReservedEF)
}

// MakeExpressionFunctionApplication builds the application of f, an
// expression function or a metavariable, to args.
func MakeExpressionFunctionApplication(f expr.Expression, args ...expr.Expression) (expr.Expression, error) {
	if f == nil {
		return nil, errwrap.Wrapf(ErrInvalidArgument, "expression function application needs a function")
	}
	if len(args) == 0 {
		return nil, errwrap.Wrapf(ErrInvalidArgument, "expression function application needs at least one argument")
	}
	lang := f.Language()
	children := make([]expr.Expression, 0, len(args)+2)
	children = append(children, lang.Symbol(ReservedNamespace, ReservedEFA), f)
	children = append(children, args...)
	return lang.Application(children...)
}

// IsExpressionFunctionApplication reports whether e is an expression function
// application.
func IsExpressionFunctionApplication(e expr.Expression) bool {
	if !expr.IsApplication(e) {
		return false
	}
	children := e.Children()
	return len(children) >= 3 && isReserved(children[0], ReservedEFA)
}

// Function returns the function position of an expression function
// application.
func Function(efa expr.Expression) expr.Expression {
	if !IsExpressionFunctionApplication(efa) {
		return nil
	}
	return efa.Children()[1]
}

// Arguments returns the arguments of an expression function application.
func Arguments(efa expr.Expression) []expr.Expression {
	if !IsExpressionFunctionApplication(efa) {
		return nil
	}
	return efa.Children()[2:]
}

// CanApply reports whether efa is an expression function application whose
// function position already holds an expression function.
func CanApply(efa expr.Expression) bool {
	return IsExpressionFunctionApplication(efa) && IsExpressionFunction(efa.Children()[1])
}

// ApplyExpressionFunctionApplication beta-reduces efa. It returns nil and no
// error when efa cannot be applied yet.
func ApplyExpressionFunctionApplication(efa expr.Expression) (expr.Expression, error) {
	if !CanApply(efa) {
		return nil, nil
	}
	return BetaReduce(Function(efa), Arguments(efa))
}

// MakeConstantExpression builds a function of the given fresh variables that
// ignores them and returns e.
func MakeConstantExpression(e expr.Expression, freshVars ...expr.Expression) (expr.Expression, error) {
	return MakeExpressionFunction(freshVars, e)
}

// MakeProjectionExpression builds λv1..vk.point, where point must be one of
// the variables.
func MakeProjectionExpression(variables []expr.Expression, point expr.Expression) (expr.Expression, error) {
	for _, v := range variables {
		if expr.IsVariable(point) && v.Name() == point.Name() {
			return MakeExpressionFunction(variables, v)
		}
	}
	return nil, errwrap.Wrapf(ErrInvalidArgument, "projection point %v is not among the variables", point)
}

// MakeImitationExpression builds a function of variables that reproduces the
// top-level shape of e and defers every position to a temporary metavariable
// applied to all of the variables.
//
// For an Application, tempMetavars needs one entry per child, the operator
// included. For a Binding, the head and bound variables are kept and a single
// temporary metavariable stands for the body.
func MakeImitationExpression(variables []expr.Expression, e expr.Expression, tempMetavars []expr.Expression) (expr.Expression, error) {
	hole := func(h expr.Expression) (expr.Expression, error) {
		return MakeExpressionFunctionApplication(h, variables...)
	}
	lang := e.Language()
	var body expr.Expression
	switch {
	case expr.IsApplication(e):
		children := e.Children()
		if len(tempMetavars) != len(children) {
			return nil, errwrap.Wrapf(ErrInvalidArgument, "imitating %v needs %d metavariables, got %d", e, len(children), len(tempMetavars))
		}
		deferred := make([]expr.Expression, len(children))
		for i, h := range tempMetavars {
			d, err := hole(h)
			if err != nil {
				return nil, err
			}
			deferred[i] = d
		}
		app, err := lang.Application(deferred...)
		if err != nil {
			return nil, err
		}
		body = app
	case expr.IsBinding(e):
		if len(tempMetavars) != 1 {
			return nil, errwrap.Wrapf(ErrInvalidArgument, "imitating %v needs 1 metavariable, got %d", e, len(tempMetavars))
		}
		d, err := hole(tempMetavars[0])
		if err != nil {
			return nil, err
		}
		b, err := lang.Binding(e.Head(), e.Variables(), d)
		if err != nil {
			return nil, err
		}
		body = b
	default:
		return nil, errwrap.Wrapf(ErrInvalidArgument, "cannot imitate atomic expression %v", e)
	}
	return MakeExpressionFunction(variables, body)
}
