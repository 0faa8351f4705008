package matching

import (
	"strings"

	"github.com/gitrdm/homatch/pkg/expr"
	"github.com/hashicorp/go-set/v3"
	"github.com/samber/lo"
)

// BindingConstraint records that, in any solution, the instantiation of
// Inner must not contain a free occurrence of the instantiation of Outer.
// Outer is a metavariable bound by a Binding of some pattern and Inner a
// metavariable occurring free in that Binding.
type BindingConstraint struct {
	Inner expr.Expression
	Outer expr.Expression
}

// ConstraintList is a duplicate-free collection of constraints. It also
// carries the index used to mint fresh variables and the binding
// constraints found in its patterns so far.
//
// A ConstraintList used as a solution holds only substitutions.
type ConstraintList struct {
	contents           []*Constraint
	nextNewVariableIdx int
	bindingConstraints []BindingConstraint
}

// NewConstraintList builds a list holding constraints.
func NewConstraintList(constraints ...*Constraint) *ConstraintList {
	l := &ConstraintList{nextNewVariableIdx: 1}
	l.Add(constraints...)
	return l
}

// Add appends every constraint not already present and returns how many
// were added.
func (l *ConstraintList) Add(constraints ...*Constraint) int {
	added := 0
	for _, c := range constraints {
		if c == nil || l.Index(c) >= 0 {
			continue
		}
		l.contents = append(l.contents, c)
		l.reserve(c.pattern, c.expression)
		added++
	}
	if added > 0 {
		l.computeBindingConstraints()
	}
	return added
}

// Remove drops the given constraints. A constraint is matched by identity
// first and by Equal otherwise.
func (l *ConstraintList) Remove(constraints ...*Constraint) {
	for _, c := range constraints {
		if i := l.indexOf(c); i >= 0 {
			l.contents = append(l.contents[:i:i], l.contents[i+1:]...)
		}
	}
}

func (l *ConstraintList) indexOf(c *Constraint) int {
	for i, o := range l.contents {
		if o == c {
			return i
		}
	}
	return l.Index(c)
}

// Index returns the position of a constraint Equal to c, or -1.
func (l *ConstraintList) Index(c *Constraint) int {
	for i, o := range l.contents {
		if o.Equal(c) {
			return i
		}
	}
	return -1
}

// Contents returns the constraints in list order.
func (l *ConstraintList) Contents() []*Constraint {
	return append([]*Constraint(nil), l.contents...)
}

// Len returns the number of constraints.
func (l *ConstraintList) Len() int { return len(l.contents) }

// BestCase returns the constraint to process next: the first Failure, else
// the first Identity, then Binding, Simplification and EFA. It returns nil
// for an empty list.
func (l *ConstraintList) BestCase() *Constraint {
	var best *Constraint
	for _, c := range l.contents {
		if best == nil || c.kase < best.kase {
			best = c
			if best.kase == CaseFailure {
				break
			}
		}
	}
	return best
}

// IsFunction reports whether the list is a well-defined partial function
// from metavariables to expressions.
func (l *ConstraintList) IsFunction() bool {
	seen := set.New[string](len(l.contents))
	for _, c := range l.contents {
		if !c.IsSubstitution() || !seen.Insert(metavariableKey(c.pattern)) {
			return false
		}
	}
	return true
}

// metavariableKey identifies a metavariable by kind, namespace and name.
func metavariableKey(m expr.Expression) string {
	return m.Kind().String() + "\x00" + m.Namespace() + "\x00" + m.Name()
}

// SolutionKey names a metavariable in Map, LookupName and encoded results. A
// variable metavariable is keyed by its bare name, a symbol metavariable by
// "#" and its qualified name, so _f the variable and _f the symbol differ.
func SolutionKey(m expr.Expression) string {
	if expr.IsSymbol(m) {
		if ns := m.Namespace(); ns != "" {
			return "#" + ns + "." + m.Name()
		}
		return "#" + m.Name()
	}
	return m.Name()
}

// Lookup returns the expression a metavariable is bound to, or nil. An
// unmarked variable or symbol is looked up as the metavariable of that name.
func (l *ConstraintList) Lookup(metavariable expr.Expression) expr.Expression {
	if metavariable == nil {
		return nil
	}
	if !metavariable.IsMetavariable() {
		m, err := expr.SetMetavariable(metavariable)
		if err != nil {
			return nil
		}
		metavariable = m
	}
	for _, c := range l.contents {
		if c.pattern.Equal(metavariable) {
			return c.expression
		}
	}
	return nil
}

// LookupName returns the expression bound to the metavariable whose
// SolutionKey is key, or nil.
func (l *ConstraintList) LookupName(key string) expr.Expression {
	for _, c := range l.contents {
		if c.IsSubstitution() && SolutionKey(c.pattern) == key {
			return c.expression
		}
	}
	return nil
}

// Instantiate applies every substitution in l, in list order, to the pattern
// of each constraint in patterns. The constraints of patterns are replaced by
// reclassified ones.
func (l *ConstraintList) Instantiate(patterns *ConstraintList) error {
	for i, c := range patterns.contents {
		p := c.pattern
		for _, s := range l.contents {
			if !s.IsSubstitution() {
				continue
			}
			var err error
			if p, err = s.ApplyInstantiation(p); err != nil {
				return err
			}
		}
		if p != c.pattern {
			patterns.contents[i] = c.WithPattern(p)
		}
	}
	patterns.computeBindingConstraints()
	return nil
}

// reserve raises the fresh-variable index above every v{n} in exprs.
func (l *ConstraintList) reserve(exprs ...expr.Expression) {
	if n := expr.NewVariableIndex(exprs...); n > l.nextNewVariableIdx {
		l.nextNewVariableIdx = n
	}
}

// NextNewVariable mints a variable of lang that occurs nowhere in the list.
func (l *ConstraintList) NextNewVariable(lang expr.Language) expr.Expression {
	for _, c := range l.contents {
		l.reserve(c.pattern, c.expression)
	}
	v := lang.Variable(expr.FreshName(l.nextNewVariableIdx))
	l.nextNewVariableIdx++
	return v
}

// NextNewVariables mints n distinct fresh variables.
func (l *ConstraintList) NextNewVariables(lang expr.Language, n int) []expr.Expression {
	out := make([]expr.Expression, n)
	for i := range out {
		out[i] = l.NextNewVariable(lang)
	}
	return out
}

// computeBindingConstraints extends the binding constraints with every pair
// found in the current patterns. Pairs are never dropped.
func (l *ConstraintList) computeBindingConstraints() {
	for _, c := range l.contents {
		for _, b := range expr.Filter(c.pattern, expr.IsBinding) {
			inner := expr.FreeMetavariables(b.Expression)
			for _, outer := range b.Expression.Variables() {
				if !outer.IsMetavariable() {
					continue
				}
				for _, in := range inner {
					bc := BindingConstraint{Inner: in, Outer: outer}
					if !lo.ContainsBy(l.bindingConstraints, func(o BindingConstraint) bool {
						return o.Inner.Equal(bc.Inner) && o.Outer.Equal(bc.Outer)
					}) {
						l.bindingConstraints = append(l.bindingConstraints, bc)
					}
				}
			}
		}
	}
}

// BindingConstraints returns the binding constraints discovered so far.
func (l *ConstraintList) BindingConstraints() []BindingConstraint {
	return append([]BindingConstraint(nil), l.bindingConstraints...)
}

// SatisfiesBindingConstraints reports whether solution violates none of the
// binding constraints of l. A constraint whose metavariables are not both
// bound in solution is satisfied.
func (l *ConstraintList) SatisfiesBindingConstraints(solution *ConstraintList) bool {
	for _, bc := range l.bindingConstraints {
		inner, outer := solution.Lookup(bc.Inner), solution.Lookup(bc.Outer)
		if inner != nil && outer != nil && expr.OccursFree(outer, inner) {
			return false
		}
	}
	return true
}

// Map returns the substitutions keyed by SolutionKey.
func (l *ConstraintList) Map() map[string]expr.Expression {
	out := make(map[string]expr.Expression, len(l.contents))
	for _, c := range l.contents {
		if c.IsSubstitution() {
			out[SolutionKey(c.pattern)] = c.expression
		}
	}
	return out
}

// Clone returns an independent copy, binding constraints and fresh index
// included.
func (l *ConstraintList) Clone() *ConstraintList {
	return &ConstraintList{
		contents:           append([]*Constraint(nil), l.contents...),
		nextNewVariableIdx: l.nextNewVariableIdx,
		bindingConstraints: append([]BindingConstraint(nil), l.bindingConstraints...),
	}
}

// String renders {(p1, e1), (p2, e2)}.
func (l *ConstraintList) String() string {
	parts := lo.Map(l.contents, func(c *Constraint, _ int) string { return c.String() })
	return "{" + strings.Join(parts, ", ") + "}"
}
