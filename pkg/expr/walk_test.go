package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forall(v string, body Expression) *Binding {
	return Bind(Sym("forall"), []*Variable{Var(v)}, body)
}

func TestPathString(t *testing.T) {
	assert.Equal(t, "/", Path{}.String())
	assert.Equal(t, "/1/0/2", Path{1, 0, 2}.String())
}

func TestAt(t *testing.T) {
	e := App(Sym("f"), Var("x"), forall("y", App(Sym("g"), Var("y"))))

	got, err := At(e, Path{2, 2, 1})
	require.NoError(t, err)
	assert.True(t, got.Equal(Var("y")))

	got, err = At(e, Path{2, 1})
	require.NoError(t, err)
	assert.True(t, got.Equal(Var("y")), "position 1 of a binding is its first bound variable")

	_, err = At(e, Path{5})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReplaceIsPersistent(t *testing.T) {
	e := App(Sym("f"), Var("x"), App(Sym("g"), Var("y")))
	before := e.Clone()

	got, err := Replace(e, Path{2, 1}, Int(7))
	require.NoError(t, err)
	assert.Equal(t, "f(x, g(7))", got.String())
	assert.True(t, e.Equal(before), "the old root must be unchanged")
	assert.Same(t, e.Children()[1], got.Children()[1], "untouched subtrees are shared")

	root, err := Replace(e, Path{}, Var("z"))
	require.NoError(t, err)
	assert.True(t, root.Equal(Var("z")))
}

func TestReplaceBoundPosition(t *testing.T) {
	b := forall("x", Var("x"))

	got, err := Replace(b, Path{1}, Var("z"))
	require.NoError(t, err)
	assert.Equal(t, "forall[z, x]", got.String())

	_, err = Replace(b, Path{1}, Int(1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFilterPreOrder(t *testing.T) {
	e := App(Sym("f"), Var("x"), App(Sym("g"), Var("x")))
	found := Filter(e, IsVariable)
	require.Len(t, found, 2)
	assert.Equal(t, Path{1}, found[0].Path)
	assert.Equal(t, Path{2, 1}, found[1].Path)

	all := Filter(e, func(Expression) bool { return true })
	assert.Len(t, all, 6)
	assert.Equal(t, Path{}, all[0].Path)
}

func TestVariableIsFree(t *testing.T) {
	x := Var("x")
	assert.True(t, VariableIsFree(x, App(Sym("f"), x)))
	assert.False(t, VariableIsFree(x, forall("x", App(Sym("f"), x))))
	assert.True(t, VariableIsFree(x, App(Sym("g"), x, forall("x", x))))
	assert.True(t, VariableIsFree(x, forall("y", x)))
	assert.False(t, VariableIsFree(Meta("x"), App(Sym("f"), x)))
}

func TestFreeVariables(t *testing.T) {
	e := App(Sym("f"), Var("x"), forall("y", App(Sym("g"), Var("y"), Var("z"), Var("x"))))
	free := FreeVariables(e)
	require.Len(t, free, 2)
	assert.True(t, free[0].Equal(Var("x")))
	assert.True(t, free[1].Equal(Var("z")))
}

func TestFreeMetavariables(t *testing.T) {
	e := App(Sym("f"), Meta("P"), Bind(Sym("forall"), []*Variable{Meta("x")}, App(Meta("Q"), Meta("x"), MetaSym("c"))), Meta("P"))
	free := FreeMetavariables(e)
	require.Len(t, free, 3)
	assert.True(t, free[0].Equal(Meta("P")))
	assert.True(t, free[1].Equal(Meta("Q")))
	assert.True(t, free[2].Equal(MetaSym("c")))
	assert.True(t, ContainsMetavariable(e))
	assert.False(t, ContainsMetavariable(App(Sym("f"), Var("x"))))
}

func TestOccursFree(t *testing.T) {
	fy := App(Sym("f"), Var("y"))
	assert.False(t, OccursFree(Var("x"), forall("x", App(Sym("f"), Var("x")))))
	assert.True(t, OccursFree(Var("x"), App(Sym("g"), Var("x"), forall("x", Var("x")))))
	assert.False(t, OccursFree(fy, forall("y", fy)), "f(y) is captured by the binder")
	assert.True(t, OccursFree(fy, forall("x", fy)))
	assert.True(t, OccursFree(Sym("c"), forall("x", Sym("c"))))
}

func TestNewVariableIndex(t *testing.T) {
	assert.Equal(t, 1, NewVariableIndex())
	assert.Equal(t, 1, NewVariableIndex(App(Sym("f"), Var("x"), Var("vx"))))

	e := App(Sym("f"), Var("v3"), forall("v7", Var("v7")), Meta("v2"))
	assert.Equal(t, 8, NewVariableIndex(e))
	assert.Equal(t, 10, NewVariableIndex(e, nil, Var("v9")))

	v := NewVariable(Default, e)
	assert.Equal(t, "v8", v.Name())
	assert.False(t, v.IsMetavariable())
}
