package expr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// FreshPrefix is the name prefix of variables minted by NewVariable.
const FreshPrefix = "v"

var freshName = regexp.MustCompile(`^` + FreshPrefix + `([0-9]+)$`)

// Path addresses a node by the child positions taken from the root. For an
// Application, position i is child i. For a Binding, position 0 is the head,
// positions 1..k are the bound variables and position k+1 is the body.
type Path []int

// String renders the path as /1/0/2.
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	return "/" + strings.Join(lo.Map(p, func(i int, _ int) string { return strconv.Itoa(i) }), "/")
}

// Subexpression is a node together with its location in a tree.
type Subexpression struct {
	Path       Path
	Expression Expression
}

// Positions returns every positional child of e in Path order.
func Positions(e Expression) []Expression {
	switch {
	case IsApplication(e):
		return e.Children()
	case IsBinding(e):
		out := make([]Expression, 0, len(e.Variables())+2)
		out = append(out, e.Head())
		out = append(out, e.Variables()...)
		return append(out, e.Body())
	default:
		return nil
	}
}

// rebuild builds a node of the same kind as e from new positional children.
func rebuild(e Expression, positions []Expression) (Expression, error) {
	lang := e.Language()
	switch {
	case IsApplication(e):
		return lang.Application(positions...)
	case IsBinding(e):
		k := len(positions) - 2
		return lang.Binding(positions[0], positions[1:1+k], positions[k+1])
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "%v has no children", e)
	}
}

// At returns the node found at path below root.
func At(root Expression, path Path) (Expression, error) {
	cur := root
	for depth, i := range path {
		pos := Positions(cur)
		if i < 0 || i >= len(pos) {
			return nil, errors.Wrapf(ErrInvalidArgument, "path %s leaves the tree at depth %d", path, depth)
		}
		cur = pos[i]
	}
	return cur, nil
}

// Replace returns a copy of root in which the node at path is replaced by
// with. Subtrees off the path are shared, not copied. Replacing a bound
// variable position by a non-variable fails with ErrInvalidArgument.
func Replace(root Expression, path Path, with Expression) (Expression, error) {
	if len(path) == 0 {
		return with, nil
	}
	pos := Positions(root)
	i := path[0]
	if i < 0 || i >= len(pos) {
		return nil, errors.Wrapf(ErrInvalidArgument, "path %s leaves the tree", path)
	}
	child, err := Replace(pos[i], path[1:], with)
	if err != nil {
		return nil, err
	}
	next := append([]Expression(nil), pos...)
	next[i] = child
	return rebuild(root, next)
}

// Filter returns, in pre-order, every subexpression of root (root included)
// for which keep returns true.
func Filter(root Expression, keep func(Expression) bool) []Subexpression {
	var out []Subexpression
	var walk func(e Expression, path Path)
	walk = func(e Expression, path Path) {
		if keep(e) {
			out = append(out, Subexpression{Path: append(Path(nil), path...), Expression: e})
		}
		for i, c := range Positions(e) {
			walk(c, append(path, i))
		}
	}
	walk(root, Path{})
	return out
}

// Contains reports whether any subexpression of root satisfies pred.
func Contains(root Expression, pred func(Expression) bool) bool {
	if pred(root) {
		return true
	}
	for _, c := range Positions(root) {
		if Contains(c, pred) {
			return true
		}
	}
	return false
}

// ContainsMetavariable reports whether a metavariable appears anywhere in e.
func ContainsMetavariable(e Expression) bool { return Contains(e, IsMetavariable) }

// binds reports whether binding b binds variable v.
func binds(b Expression, v Expression) bool {
	for _, bv := range b.Variables() {
		if bv.Equal(v) {
			return true
		}
	}
	return false
}

// VariableIsFree reports whether variable has a free occurrence in e.
// Occurrences inside a Binding that binds an equal variable are bound.
func VariableIsFree(variable, e Expression) bool {
	switch {
	case e.Equal(variable):
		return true
	case IsApplication(e):
		for _, c := range e.Children() {
			if VariableIsFree(variable, c) {
				return true
			}
		}
		return false
	case IsBinding(e):
		if binds(e, variable) {
			return false
		}
		return VariableIsFree(variable, e.Head()) || VariableIsFree(variable, e.Body())
	default:
		return false
	}
}

// FreeVariables returns the distinct variables occurring free in e, in order
// of first occurrence.
func FreeVariables(e Expression) []Expression {
	var out []Expression
	var walk func(e Expression, bound []Expression)
	walk = func(e Expression, bound []Expression) {
		switch {
		case IsVariable(e):
			for _, b := range bound {
				if b.Equal(e) {
					return
				}
			}
			for _, o := range out {
				if o.Equal(e) {
					return
				}
			}
			out = append(out, e)
		case IsApplication(e):
			for _, c := range e.Children() {
				walk(c, bound)
			}
		case IsBinding(e):
			walk(e.Head(), bound)
			walk(e.Body(), append(append([]Expression(nil), bound...), e.Variables()...))
		}
	}
	walk(e, nil)
	return out
}

// FreeMetavariables returns the distinct metavariables occurring free in e,
// in order of first occurrence.
func FreeMetavariables(e Expression) []Expression {
	var out []Expression
	var walk func(e Expression, bound []Expression)
	walk = func(e Expression, bound []Expression) {
		if e.IsMetavariable() {
			for _, b := range bound {
				if b.Equal(e) {
					return
				}
			}
			if !lo.ContainsBy(out, func(o Expression) bool { return o.Equal(e) }) {
				out = append(out, e)
			}
			return
		}
		switch {
		case IsApplication(e):
			for _, c := range e.Children() {
				walk(c, bound)
			}
		case IsBinding(e):
			walk(e.Head(), bound)
			walk(e.Body(), append(append([]Expression(nil), bound...), e.Variables()...))
		}
	}
	walk(e, nil)
	return out
}

// OccursFree reports whether sub occurs in e at a position where none of
// sub's free variables is captured by an enclosing binder of e.
func OccursFree(sub, e Expression) bool {
	free := FreeVariables(sub)
	var walk func(e Expression, bound []Expression) bool
	walk = func(e Expression, bound []Expression) bool {
		if e.Equal(sub) {
			captured := lo.ContainsBy(free, func(v Expression) bool {
				return lo.ContainsBy(bound, func(b Expression) bool { return b.Equal(v) })
			})
			if !captured {
				return true
			}
		}
		switch {
		case IsApplication(e):
			for _, c := range e.Children() {
				if walk(c, bound) {
					return true
				}
			}
		case IsBinding(e):
			if walk(e.Head(), bound) {
				return true
			}
			return walk(e.Body(), append(append([]Expression(nil), bound...), e.Variables()...))
		}
		return false
	}
	return walk(e, nil)
}

// NewVariableIndex returns the smallest n ≥ 1 such that no variable named
// v{m} with m ≥ n occurs anywhere in exprs, bound or free.
func NewVariableIndex(exprs ...Expression) int {
	next := 1
	for _, e := range exprs {
		if e == nil {
			continue
		}
		for _, s := range Filter(e, IsVariable) {
			m := freshName.FindStringSubmatch(s.Expression.Name())
			if m == nil {
				continue
			}
			n, err := strconv.Atoi(m[1])
			if err == nil && n >= next {
				next = n + 1
			}
		}
	}
	return next
}

// FreshName returns the name of the n-th minted variable.
func FreshName(n int) string { return FreshPrefix + strconv.Itoa(n) }

// NewVariable returns a plain variable of lang that does not occur anywhere
// in avoid.
func NewVariable(lang Language, avoid ...Expression) Expression {
	return lang.Variable(FreshName(NewVariableIndex(avoid...)))
}
