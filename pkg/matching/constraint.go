package matching

import (
	"fmt"

	"github.com/gitrdm/homatch/internal/errwrap"
	"github.com/gitrdm/homatch/pkg/expr"
)

// Case classifies a constraint by the work needed to resolve it. The order of
// the values is the order in which ConstraintList.BestCase prefers them.
type Case int

const (
	// CaseFailure is a mismatch no metavariable can absorb.
	CaseFailure Case = iota
	// CaseIdentity is a pattern equal to its expression.
	CaseIdentity
	// CaseBinding is a metavariable pattern: a substitution.
	CaseBinding
	// CaseSimplification decomposes into component-wise constraints.
	CaseSimplification
	// CaseEFA needs the constant/projection/imitation case split.
	CaseEFA
)

var caseNames = [...]string{"failure", "identity", "binding", "simplification", "efa"}

func (c Case) String() string {
	if c < 0 || int(c) >= len(caseNames) {
		return fmt.Sprintf("case(%d)", int(c))
	}
	return caseNames[c]
}

// GetCase classifies a pattern/expression pair.
func GetCase(pattern, expression expr.Expression) Case {
	switch {
	case expr.Equal(pattern, expression):
		return CaseIdentity
	case expr.IsMetavariable(pattern):
		return CaseBinding
	case IsExpressionFunctionApplication(pattern):
		f := Function(pattern)
		if expr.IsMetavariable(f) || IsExpressionFunction(f) {
			return CaseEFA
		}
		return CaseFailure
	case expr.IsApplication(pattern) && expr.IsApplication(expression):
		if len(pattern.Children()) == len(expression.Children()) && !IsExpressionFunctionApplication(expression) {
			return CaseSimplification
		}
	case expr.IsBinding(pattern) && expr.IsBinding(expression):
		if len(pattern.Variables()) == len(expression.Variables()) && pattern.Head().Equal(expression.Head()) {
			return CaseSimplification
		}
	}
	return CaseFailure
}

// Constraint is a pattern that must match an expression. A Constraint is
// immutable; operations that change it return a new one, so its Case always
// describes its current pair.
type Constraint struct {
	pattern    expr.Expression
	expression expr.Expression
	kase       Case
}

// NewConstraint builds a constraint and classifies it.
func NewConstraint(pattern, expression expr.Expression) *Constraint {
	return &Constraint{pattern: pattern, expression: expression, kase: GetCase(pattern, expression)}
}

// Pattern returns the pattern side.
func (c *Constraint) Pattern() expr.Expression { return c.pattern }

// Expression returns the expression side.
func (c *Constraint) Expression() expr.Expression { return c.expression }

// Case returns the classification of the pair.
func (c *Constraint) Case() Case { return c.kase }

// IsSubstitution reports whether the pattern is a metavariable.
func (c *Constraint) IsSubstitution() bool { return expr.IsMetavariable(c.pattern) }

// WithPattern returns a copy of c with a new pattern, reclassified.
func (c *Constraint) WithPattern(pattern expr.Expression) *Constraint {
	return NewConstraint(pattern, c.expression)
}

// Equal reports whether both sides are equal or alpha-equivalent.
func (c *Constraint) Equal(other *Constraint) bool {
	if c == nil || other == nil {
		return c == other
	}
	return equalOrAlpha(c.pattern, other.pattern) && equalOrAlpha(c.expression, other.expression)
}

// ApplyInstantiation treats c as the substitution pattern ↦ expression and
// applies it to target, then beta-reduces every expression function
// application the substitution made applicable.
func (c *Constraint) ApplyInstantiation(target expr.Expression) (expr.Expression, error) {
	if !c.IsSubstitution() {
		return nil, errwrap.Wrapf(ErrInvalidArgument, "%v is not a substitution", c)
	}
	out, err := ReplaceWithoutCapture(target, c.pattern, c.expression)
	if err != nil {
		return nil, err
	}
	return Normalize(out)
}

// BreakIntoArgPairs decomposes a simplification constraint into one
// constraint per aligned child. For Bindings that is one per bound variable
// plus one for the bodies; the heads are already equal.
func (c *Constraint) BreakIntoArgPairs() ([]*Constraint, error) {
	if c.kase != CaseSimplification {
		return nil, errwrap.Wrapf(ErrInvalidArgument, "cannot break %v constraint %v", c.kase, c)
	}
	if expr.IsApplication(c.pattern) {
		pc, ec := c.pattern.Children(), c.expression.Children()
		out := make([]*Constraint, len(pc))
		for i := range pc {
			out[i] = NewConstraint(pc[i], ec[i])
		}
		return out, nil
	}
	pv, ev := c.pattern.Variables(), c.expression.Variables()
	out := make([]*Constraint, 0, len(pv)+1)
	for i := range pv {
		out = append(out, NewConstraint(pv[i], ev[i]))
	}
	return append(out, NewConstraint(c.pattern.Body(), c.expression.Body())), nil
}

// Clone returns a copy of c. The trees are persistent, so they are shared.
func (c *Constraint) Clone() *Constraint {
	cp := *c
	return &cp
}

// String renders (pattern, expression).
func (c *Constraint) String() string {
	return fmt.Sprintf("(%v, %v)", c.pattern, c.expression)
}
