package challengefile

import (
	"github.com/gitrdm/homatch/internal/errwrap"
	"github.com/gitrdm/homatch/pkg/expr"
	"github.com/gitrdm/homatch/pkg/matching"
	"github.com/pkg/errors"
)

// ErrMalformed is returned for a node that does not describe exactly one
// expression.
var ErrMalformed = errors.New("malformed node")

// Node is the YAML encoding of one expression. Exactly one of its keys is
// set; Sym may be accompanied by NS.
type Node struct {
	Var     string   `yaml:"var,omitempty"`
	Meta    string   `yaml:"meta,omitempty"`
	Sym     string   `yaml:"sym,omitempty"`
	NS      string   `yaml:"ns,omitempty"`
	MetaSym string   `yaml:"metasym,omitempty"`
	Int     *int64   `yaml:"int,omitempty"`
	Float   *float64 `yaml:"float,omitempty"`
	Str     *string  `yaml:"str,omitempty"`
	App     []Node   `yaml:"app,omitempty"`
	Bind    *Binder  `yaml:"bind,omitempty"`
	EF      *EF      `yaml:"ef,omitempty"`
	EFA     *EFA     `yaml:"efa,omitempty"`
}

// Binder encodes a Binding.
type Binder struct {
	Head Node   `yaml:"head"`
	Vars []Node `yaml:"vars"`
	Body Node   `yaml:"body"`
}

// EF encodes an expression function.
type EF struct {
	Vars []Node `yaml:"vars"`
	Body Node   `yaml:"body"`
}

// EFA encodes an expression function application.
type EFA struct {
	Fn   Node   `yaml:"fn"`
	Args []Node `yaml:"args"`
}

func (n *Node) keys() int {
	set := 0
	for _, ok := range []bool{
		n.Var != "", n.Meta != "", n.Sym != "", n.MetaSym != "",
		n.Int != nil, n.Float != nil, n.Str != nil,
		n.App != nil, n.Bind != nil, n.EF != nil, n.EFA != nil,
	} {
		if ok {
			set++
		}
	}
	return set
}

// Expression builds the expression n describes in lang.
func (n *Node) Expression(lang expr.Language) (expr.Expression, error) {
	if k := n.keys(); k != 1 {
		return nil, errwrap.Wrapf(ErrMalformed, "node sets %d expression keys, want 1", k)
	}
	if n.NS != "" && n.Sym == "" && n.MetaSym == "" {
		return nil, errwrap.Wrapf(ErrMalformed, "ns %q without a symbol", n.NS)
	}
	switch {
	case n.Var != "":
		return lang.Variable(n.Var), nil
	case n.Meta != "":
		return lang.SetMetavariable(lang.Variable(n.Meta), true)
	case n.Sym != "":
		return lang.Symbol(n.NS, n.Sym), nil
	case n.MetaSym != "":
		return lang.SetMetavariable(lang.Symbol(n.NS, n.MetaSym), true)
	case n.Int != nil:
		return expr.Int(*n.Int), nil
	case n.Float != nil:
		return expr.Float(*n.Float), nil
	case n.Str != nil:
		return expr.Str(*n.Str), nil
	case n.App != nil:
		children, err := nodes(lang, n.App)
		if err != nil {
			return nil, errwrap.Wrapf(err, "app")
		}
		return lang.Application(children...)
	case n.Bind != nil:
		head, err := n.Bind.Head.Expression(lang)
		if err != nil {
			return nil, errwrap.Wrapf(err, "bind head")
		}
		vars, err := nodes(lang, n.Bind.Vars)
		if err != nil {
			return nil, errwrap.Wrapf(err, "bind vars")
		}
		body, err := n.Bind.Body.Expression(lang)
		if err != nil {
			return nil, errwrap.Wrapf(err, "bind body")
		}
		return lang.Binding(head, vars, body)
	case n.EF != nil:
		vars, err := nodes(lang, n.EF.Vars)
		if err != nil {
			return nil, errwrap.Wrapf(err, "ef vars")
		}
		body, err := n.EF.Body.Expression(lang)
		if err != nil {
			return nil, errwrap.Wrapf(err, "ef body")
		}
		return matching.MakeExpressionFunction(vars, body)
	default:
		fn, err := n.EFA.Fn.Expression(lang)
		if err != nil {
			return nil, errwrap.Wrapf(err, "efa fn")
		}
		args, err := nodes(lang, n.EFA.Args)
		if err != nil {
			return nil, errwrap.Wrapf(err, "efa args")
		}
		return matching.MakeExpressionFunctionApplication(fn, args...)
	}
}

func nodes(lang expr.Language, ns []Node) ([]expr.Expression, error) {
	out := make([]expr.Expression, len(ns))
	for i := range ns {
		e, err := ns[i].Expression(lang)
		if err != nil {
			return nil, errwrap.Wrapf(err, "item %d", i)
		}
		out[i] = e
	}
	return out, nil
}

// FromExpression encodes e. Expression functions and their applications get
// the ef and efa keys.
func FromExpression(e expr.Expression) (Node, error) {
	switch {
	case e == nil:
		return Node{}, errwrap.Wrapf(ErrMalformed, "nil expression")
	case matching.IsExpressionFunction(e):
		vars, err := fromExpressions(e.Variables())
		if err != nil {
			return Node{}, err
		}
		body, err := FromExpression(e.Body())
		if err != nil {
			return Node{}, err
		}
		return Node{EF: &EF{Vars: vars, Body: body}}, nil
	case matching.IsExpressionFunctionApplication(e):
		fn, err := FromExpression(matching.Function(e))
		if err != nil {
			return Node{}, err
		}
		args, err := fromExpressions(matching.Arguments(e))
		if err != nil {
			return Node{}, err
		}
		return Node{EFA: &EFA{Fn: fn, Args: args}}, nil
	}

	switch e.Kind() {
	case expr.KindVariable:
		if e.IsMetavariable() {
			return Node{Meta: e.Name()}, nil
		}
		return Node{Var: e.Name()}, nil
	case expr.KindSymbol:
		if e.IsMetavariable() {
			return Node{MetaSym: e.Name(), NS: e.Namespace()}, nil
		}
		return Node{Sym: e.Name(), NS: e.Namespace()}, nil
	case expr.KindLiteral:
		return fromLiteral(e)
	case expr.KindApplication:
		children, err := fromExpressions(e.Children())
		if err != nil {
			return Node{}, err
		}
		return Node{App: children}, nil
	case expr.KindBinding:
		head, err := FromExpression(e.Head())
		if err != nil {
			return Node{}, err
		}
		vars, err := fromExpressions(e.Variables())
		if err != nil {
			return Node{}, err
		}
		body, err := FromExpression(e.Body())
		if err != nil {
			return Node{}, err
		}
		return Node{Bind: &Binder{Head: head, Vars: vars, Body: body}}, nil
	}
	return Node{}, errwrap.Wrapf(ErrMalformed, "cannot encode %v", e)
}

func fromLiteral(e expr.Expression) (Node, error) {
	lit, ok := e.(*expr.Literal)
	if !ok {
		return Node{}, errwrap.Wrapf(ErrMalformed, "cannot encode foreign literal %v", e)
	}
	switch x := lit.Value().(type) {
	case int64:
		return Node{Int: &x}, nil
	case float64:
		return Node{Float: &x}, nil
	case string:
		return Node{Str: &x}, nil
	}
	return Node{}, errwrap.Wrapf(ErrMalformed, "cannot encode literal %v", e)
}

func fromExpressions(es []expr.Expression) ([]Node, error) {
	out := make([]Node, len(es))
	for i, e := range es {
		n, err := FromExpression(e)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
