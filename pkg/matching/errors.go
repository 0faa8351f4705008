package matching

import (
	"github.com/gitrdm/homatch/pkg/expr"
	"github.com/pkg/errors"
)

// Errors raised at the point of misuse. They signal malformed input, never
// search failure: a challenge without matches is simply unsolvable.
var (
	// ErrInvalidArgument reports malformed constructor input, such as a
	// non-variable in a binder position.
	ErrInvalidArgument = expr.ErrInvalidArgument

	// ErrArityMismatch reports a beta-reduction whose argument count differs
	// from the function's bound-variable count.
	ErrArityMismatch = errors.New("arity mismatch")

	// ErrIllegalCapture reports an attempt to place a non-variable into a
	// bound-variable position during capture-avoiding replacement.
	ErrIllegalCapture = errors.New("illegal capture")

	// ErrUnboundVariable reports an alpha-conversion of a variable the
	// binding does not bind.
	ErrUnboundVariable = errors.New("unbound variable")

	// ErrNoNormalForm reports an expression whose expression function
	// applications keep reducing to new ones, such as a self-application.
	ErrNoNormalForm = errors.New("no normal form")
)
