package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "literal", KindLiteral.String())
	assert.Equal(t, "binding", KindBinding.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestStringRendering(t *testing.T) {
	tests := []struct {
		name string
		e    Expression
		want string
	}{
		{"variable", Var("x"), "x"},
		{"metavariable", Meta("P"), "_P"},
		{"symbol", Sym("and"), "and"},
		{"namespaced symbol", SymNS("logic", "and"), "logic.and"},
		{"meta symbol", MetaSym("f"), "_f"},
		{"int", Int(3), "3"},
		{"float", Float(1.5), "1.5"},
		{"string", Str("hi"), `"hi"`},
		{"application", App(Sym("and"), Var("a"), App(Sym("or"), Var("b"), Var("c"))), "and(a, or(b, c))"},
		{"compound operator", App(App(Sym("f"), Var("x")), Var("y")), "(f(x))(y)"},
		{"binding", Bind(Sym("forall"), []*Variable{Var("x"), Var("y")}, App(Sym("P"), Var("x"), Var("y"))), "forall[x, y, P(x, y)]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.String())
		})
	}
}

func TestMetavariableMarkerIsIdentity(t *testing.T) {
	assert.True(t, Var("x").Equal(Var("x")))
	assert.False(t, Var("x").Equal(Meta("x")))
	assert.False(t, Sym("f").Equal(MetaSym("f")))
	assert.False(t, Sym("f").Equal(SymNS("ns", "f")))
	assert.False(t, Var("x").Equal(Sym("x")))
	assert.False(t, Int(1).Equal(Float(1)))
}

func TestStructuralEquality(t *testing.T) {
	a := App(Sym("f"), Var("x"), Bind(Sym("forall"), []*Variable{Var("y")}, Var("y")))
	b := App(Sym("f"), Var("x"), Bind(Sym("forall"), []*Variable{Var("y")}, Var("y")))
	c := App(Sym("f"), Var("x"), Bind(Sym("forall"), []*Variable{Var("z")}, Var("z")))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "Equal is not alpha-equivalence")
	assert.False(t, a.Equal(nil))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(a, nil))
}

func TestCloneIsDeep(t *testing.T) {
	a := App(Sym("f"), Var("x"), Bind(Sym("forall"), []*Variable{Var("y")}, Var("y")))
	c := a.Clone()
	require.True(t, a.Equal(c))
	assert.NotSame(t, a.Children()[1], c.Children()[1])
	assert.Nil(t, Copy(nil))
}

func TestLanguageValidation(t *testing.T) {
	_, err := Default.Application()
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Default.Binding(Sym("forall"), nil, Var("x"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Default.Binding(Sym("forall"), []Expression{Int(1)}, Var("x"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	b, err := Default.Binding(Sym("forall"), []Expression{Var("x")}, Var("x"))
	require.NoError(t, err)
	assert.Equal(t, "forall[x, x]", b.String())
}

func TestSetMetavariable(t *testing.T) {
	m, err := SetMetavariable(Var("x"))
	require.NoError(t, err)
	assert.True(t, m.Equal(Meta("x")))

	u, err := ClearMetavariable(m)
	require.NoError(t, err)
	assert.True(t, u.Equal(Var("x")))

	s, err := SetMetavariable(SymNS("ns", "f"))
	require.NoError(t, err)
	assert.True(t, s.IsMetavariable())
	assert.Equal(t, "ns", s.Namespace())

	_, err = SetMetavariable(Int(1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = SetMetavariable(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPredicates(t *testing.T) {
	app := App(Sym("f"), Var("x"))
	bind := Bind(Sym("forall"), []*Variable{Var("x")}, Var("x"))
	assert.True(t, IsApplication(app))
	assert.True(t, IsBinding(bind))
	assert.True(t, IsCompound(app) && IsCompound(bind))
	assert.False(t, IsCompound(Var("x")))
	assert.True(t, SameType(Var("x"), Meta("y")))
	assert.False(t, SameType(Var("x"), Sym("x")))
	assert.True(t, IsMetavariable(Meta("P")))
	assert.False(t, IsMetavariable(nil))
}
