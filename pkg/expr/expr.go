// Package expr provides the expression abstraction consumed by the matching
// engine, together with a reference tree implementation.
//
// An expression is a tree whose nodes belong to one of five syntactic
// categories:
//   - Literal: opaque atomic values (integers, floats, strings)
//   - Variable: a named variable, possibly bound by a Binding
//   - Symbol: a named (optionally namespaced) constant
//   - Application: an ordered, non-empty list of children; child 0 is the operator
//   - Binding: a head symbol, a non-empty list of bound variables and a body
//
// Any Variable or Symbol may be marked as a metavariable. The marker is part
// of the node's identity: two variables that differ only in the marker are
// not Equal.
//
// Trees are persistent. No operation in this package mutates a node; the
// "replace in place" primitive is Replace, which returns a new root that
// shares every untouched subtree with the old one. References held elsewhere
// remain valid snapshots.
//
// The engine never depends on the concrete node types in this package. It
// only uses the Expression and Language interfaces, so any tree library that
// implements them can be matched against.
package expr

import (
	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned when a constructor receives malformed input,
// such as a non-variable in a binder position.
var ErrInvalidArgument = errors.New("invalid argument")

// Kind identifies the syntactic category of an expression node.
type Kind int

const (
	// KindLiteral is an opaque atomic value.
	KindLiteral Kind = iota
	// KindVariable is a named variable.
	KindVariable
	// KindSymbol is a named constant.
	KindSymbol
	// KindApplication is an operator applied to arguments.
	KindApplication
	// KindBinding is a quantifier-like node binding variables in a body.
	KindBinding
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindVariable:
		return "variable"
	case KindSymbol:
		return "symbol"
	case KindApplication:
		return "application"
	case KindBinding:
		return "binding"
	default:
		return "unknown"
	}
}

// Expression is a node of an expression tree.
//
// Accessors that do not apply to a node's kind return their zero value: a
// Variable has no Children, an Application has no Body, and so on.
type Expression interface {
	// Kind returns the syntactic category of the node.
	Kind() Kind

	// Name returns the name of a Variable or Symbol, "" otherwise.
	Name() string

	// Namespace returns the namespace of a Symbol, "" otherwise.
	Namespace() string

	// IsMetavariable reports whether the node is a Variable or Symbol
	// marked as a metavariable.
	IsMetavariable() bool

	// Children returns the children of an Application. Callers must not
	// modify the returned slice.
	Children() []Expression

	// Head returns the head symbol of a Binding.
	Head() Expression

	// Variables returns the bound variables of a Binding. Callers must not
	// modify the returned slice.
	Variables() []Expression

	// Body returns the body of a Binding.
	Body() Expression

	// Equal reports deep structural equality, including metavariable
	// markers. It is not alpha-equivalence.
	Equal(other Expression) bool

	// Clone returns a deep, independent copy.
	Clone() Expression

	// Language returns the constructor set that built this node.
	Language() Language

	// String returns a human-readable rendering for logs and tests.
	String() string
}

// Language is the constructor half of the expression abstraction. The engine
// creates fresh variables, functions and applications through the Language of
// the expressions it was given, so it never needs to know the concrete tree
// type.
type Language interface {
	// Variable builds a plain variable.
	Variable(name string) Expression

	// Symbol builds a symbol in the given namespace ("" for none).
	Symbol(namespace, name string) Expression

	// Application builds an application node. It fails with
	// ErrInvalidArgument when children is empty.
	Application(children ...Expression) (Expression, error)

	// Binding builds a binding node. It fails with ErrInvalidArgument when
	// variables is empty or contains a non-variable.
	Binding(head Expression, variables []Expression, body Expression) (Expression, error)

	// SetMetavariable returns a copy of a Variable or Symbol with the
	// metavariable marker set to meta. It fails with ErrInvalidArgument for
	// other kinds.
	SetMetavariable(e Expression, meta bool) (Expression, error)
}

// IsVariable reports whether e is a Variable.
func IsVariable(e Expression) bool { return e != nil && e.Kind() == KindVariable }

// IsSymbol reports whether e is a Symbol.
func IsSymbol(e Expression) bool { return e != nil && e.Kind() == KindSymbol }

// IsApplication reports whether e is an Application.
func IsApplication(e Expression) bool { return e != nil && e.Kind() == KindApplication }

// IsBinding reports whether e is a Binding.
func IsBinding(e Expression) bool { return e != nil && e.Kind() == KindBinding }

// IsCompound reports whether e is an Application or a Binding.
func IsCompound(e Expression) bool { return IsApplication(e) || IsBinding(e) }

// IsMetavariable reports whether e is a metavariable.
func IsMetavariable(e Expression) bool { return e != nil && e.IsMetavariable() }

// SameType reports whether a and b belong to the same syntactic category.
func SameType(a, b Expression) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind() == b.Kind()
}

// Copy returns a deep copy of e, or nil for a nil expression.
func Copy(e Expression) Expression {
	if e == nil {
		return nil
	}
	return e.Clone()
}

// Equal reports whether a and b are structurally equal; two nils are equal.
func Equal(a, b Expression) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// SetMetavariable marks e as a metavariable using e's own language.
func SetMetavariable(e Expression) (Expression, error) {
	if e == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "cannot mark nil as a metavariable")
	}
	return e.Language().SetMetavariable(e, true)
}

// ClearMetavariable removes the metavariable marker from e.
func ClearMetavariable(e Expression) (Expression, error) {
	if e == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "cannot unmark nil")
	}
	return e.Language().SetMetavariable(e, false)
}
