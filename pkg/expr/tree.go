package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Tree is the Language of the reference tree implementation. Its zero value
// is ready to use.
type Tree struct{}

// Default is the reference Language used by the convenience constructors.
var Default Language = Tree{}

// Variable implements Language.
func (Tree) Variable(name string) Expression { return &Variable{name: name} }

// Symbol implements Language.
func (Tree) Symbol(namespace, name string) Expression {
	return &Symbol{namespace: namespace, name: name}
}

// Application implements Language.
func (Tree) Application(children ...Expression) (Expression, error) {
	if len(children) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "application needs at least one child")
	}
	for i, c := range children {
		if c == nil {
			return nil, errors.Wrapf(ErrInvalidArgument, "application child %d is nil", i)
		}
	}
	return &Application{children: append([]Expression(nil), children...)}, nil
}

// Binding implements Language.
func (Tree) Binding(head Expression, variables []Expression, body Expression) (Expression, error) {
	if head == nil || body == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "binding needs a head and a body")
	}
	if len(variables) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "binding needs at least one bound variable")
	}
	for i, v := range variables {
		if !IsVariable(v) {
			return nil, errors.Wrapf(ErrInvalidArgument, "bound position %d holds %v, not a variable", i, v)
		}
	}
	return &Binding{head: head, variables: append([]Expression(nil), variables...), body: body}, nil
}

// SetMetavariable implements Language.
func (Tree) SetMetavariable(e Expression, meta bool) (Expression, error) {
	switch t := e.(type) {
	case *Variable:
		return &Variable{name: t.name, meta: meta}, nil
	case *Symbol:
		return &Symbol{namespace: t.namespace, name: t.name, meta: meta}, nil
	}
	if IsVariable(e) || IsSymbol(e) {
		// foreign node: rebuild it in this language
		if IsVariable(e) {
			return &Variable{name: e.Name(), meta: meta}, nil
		}
		return &Symbol{namespace: e.Namespace(), name: e.Name(), meta: meta}, nil
	}
	return nil, errors.Wrapf(ErrInvalidArgument, "only variables and symbols can be metavariables, got %v", e)
}

// node supplies the zero-valued accessors shared by every node type.
type node struct{}

func (node) Name() string            { return "" }
func (node) Namespace() string       { return "" }
func (node) IsMetavariable() bool    { return false }
func (node) Children() []Expression  { return nil }
func (node) Head() Expression        { return nil }
func (node) Variables() []Expression { return nil }
func (node) Body() Expression        { return nil }
func (node) Language() Language      { return Default }

// Variable is a named variable.
type Variable struct {
	node
	name string
	meta bool
}

// Var builds a plain variable.
func Var(name string) *Variable { return &Variable{name: name} }

// Meta builds a metavariable.
func Meta(name string) *Variable { return &Variable{name: name, meta: true} }

// Kind implements Expression.
func (v *Variable) Kind() Kind { return KindVariable }

// Name implements Expression.
func (v *Variable) Name() string { return v.name }

// IsMetavariable implements Expression.
func (v *Variable) IsMetavariable() bool { return v.meta }

// Equal implements Expression.
func (v *Variable) Equal(other Expression) bool {
	o, ok := other.(*Variable)
	if !ok {
		return other != nil && other.Kind() == KindVariable && other.Name() == v.name && other.IsMetavariable() == v.meta
	}
	return v.name == o.name && v.meta == o.meta
}

// Clone implements Expression.
func (v *Variable) Clone() Expression { return &Variable{name: v.name, meta: v.meta} }

// String renders metavariables with a leading underscore.
func (v *Variable) String() string {
	if v.meta {
		return "_" + v.name
	}
	return v.name
}

// Symbol is a named constant.
type Symbol struct {
	node
	namespace string
	name      string
	meta      bool
}

// Sym builds a symbol without a namespace.
func Sym(name string) *Symbol { return &Symbol{name: name} }

// SymNS builds a namespaced symbol.
func SymNS(namespace, name string) *Symbol { return &Symbol{namespace: namespace, name: name} }

// MetaSym builds a symbol marked as a metavariable.
func MetaSym(name string) *Symbol { return &Symbol{name: name, meta: true} }

// Kind implements Expression.
func (s *Symbol) Kind() Kind { return KindSymbol }

// Name implements Expression.
func (s *Symbol) Name() string { return s.name }

// Namespace implements Expression.
func (s *Symbol) Namespace() string { return s.namespace }

// IsMetavariable implements Expression.
func (s *Symbol) IsMetavariable() bool { return s.meta }

// Equal implements Expression.
func (s *Symbol) Equal(other Expression) bool {
	if other == nil || other.Kind() != KindSymbol {
		return false
	}
	return s.name == other.Name() && s.namespace == other.Namespace() && s.meta == other.IsMetavariable()
}

// Clone implements Expression.
func (s *Symbol) Clone() Expression {
	return &Symbol{namespace: s.namespace, name: s.name, meta: s.meta}
}

// String implements Expression.
func (s *Symbol) String() string {
	name := s.name
	if s.namespace != "" {
		name = s.namespace + "." + name
	}
	if s.meta {
		return "_" + name
	}
	return name
}

// Literal is an opaque atomic value. Only comparable values are stored, so
// Equal can use ==.
type Literal struct {
	node
	value interface{}
}

// Int builds an integer literal.
func Int(n int64) *Literal { return &Literal{value: n} }

// Float builds a floating point literal.
func Float(f float64) *Literal { return &Literal{value: f} }

// Str builds a string literal.
func Str(s string) *Literal { return &Literal{value: s} }

// Kind implements Expression.
func (l *Literal) Kind() Kind { return KindLiteral }

// Value returns the underlying Go value.
func (l *Literal) Value() interface{} { return l.value }

// Equal implements Expression.
func (l *Literal) Equal(other Expression) bool {
	o, ok := other.(*Literal)
	return ok && l.value == o.value
}

// Clone implements Expression.
func (l *Literal) Clone() Expression { return &Literal{value: l.value} }

// String implements Expression.
func (l *Literal) String() string {
	switch v := l.value.(type) {
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Application is an operator applied to arguments. children[0] is the
// operator.
type Application struct {
	node
	children []Expression
}

// App builds an application of head to args.
func App(head Expression, args ...Expression) *Application {
	children := make([]Expression, 0, len(args)+1)
	children = append(children, head)
	children = append(children, args...)
	return &Application{children: children}
}

// Kind implements Expression.
func (a *Application) Kind() Kind { return KindApplication }

// Children implements Expression.
func (a *Application) Children() []Expression { return a.children }

// Equal implements Expression.
func (a *Application) Equal(other Expression) bool {
	if other == nil || other.Kind() != KindApplication {
		return false
	}
	oc := other.Children()
	if len(oc) != len(a.children) {
		return false
	}
	for i, c := range a.children {
		if !c.Equal(oc[i]) {
			return false
		}
	}
	return true
}

// Clone implements Expression.
func (a *Application) Clone() Expression {
	return &Application{children: lo.Map(a.children, func(c Expression, _ int) Expression { return c.Clone() })}
}

// String renders f(x, y); compound operators are parenthesised.
func (a *Application) String() string {
	head := a.children[0].String()
	if IsCompound(a.children[0]) {
		head = "(" + head + ")"
	}
	args := lo.Map(a.children[1:], func(c Expression, _ int) string { return c.String() })
	return head + "(" + strings.Join(args, ", ") + ")"
}

// Binding binds variables within a body under a head symbol.
type Binding struct {
	node
	head      Expression
	variables []Expression
	body      Expression
}

// Bind builds a binding. It panics when vars is empty, which is a programming
// error.
func Bind(head Expression, vars []*Variable, body Expression) *Binding {
	if len(vars) == 0 {
		panic("expr: Bind needs at least one bound variable")
	}
	return &Binding{
		head:      head,
		variables: lo.Map(vars, func(v *Variable, _ int) Expression { return v }),
		body:      body,
	}
}

// Kind implements Expression.
func (b *Binding) Kind() Kind { return KindBinding }

// Head implements Expression.
func (b *Binding) Head() Expression { return b.head }

// Variables implements Expression.
func (b *Binding) Variables() []Expression { return b.variables }

// Body implements Expression.
func (b *Binding) Body() Expression { return b.body }

// Equal implements Expression.
func (b *Binding) Equal(other Expression) bool {
	if other == nil || other.Kind() != KindBinding {
		return false
	}
	ov := other.Variables()
	if len(ov) != len(b.variables) || !b.head.Equal(other.Head()) {
		return false
	}
	for i, v := range b.variables {
		if !v.Equal(ov[i]) {
			return false
		}
	}
	return b.body.Equal(other.Body())
}

// Clone implements Expression.
func (b *Binding) Clone() Expression {
	return &Binding{
		head:      b.head.Clone(),
		variables: lo.Map(b.variables, func(v Expression, _ int) Expression { return v.Clone() }),
		body:      b.body.Clone(),
	}
}

// String renders head[x, y, body].
func (b *Binding) String() string {
	parts := lo.Map(b.variables, func(v Expression, _ int) string { return v.String() })
	parts = append(parts, b.body.String())
	return b.head.String() + "[" + strings.Join(parts, ", ") + "]"
}
