package matching

import (
	"testing"

	"github.com/gitrdm/homatch/pkg/expr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeExpressionFunction(t *testing.T) {
	ef := lambda(t, []string{"x", "y"}, app("f", v("x"), v("y")))
	if !IsExpressionFunction(ef) {
		t.Fatalf("expected an expression function, got %v", ef)
	}
	if IsExpressionFunction(bind("forall", []string{"x"}, v("x"))) {
		t.Fatalf("an ordinary binding is not an expression function")
	}

	_, err := MakeExpressionFunction([]expr.Expression{num(1)}, v("x"))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	_, err = MakeExpressionFunction(nil, v("x"))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for no variables, got %v", err)
	}
}

func TestExpressionFunctionApplication(t *testing.T) {
	ef := lambda(t, []string{"x"}, app("g", v("x")))
	a := efa(t, meta("P"), v("a"))
	b := efa(t, ef, v("a"))

	assert.True(t, IsExpressionFunctionApplication(a))
	assert.False(t, IsExpressionFunctionApplication(app("f", v("a"))))
	assert.False(t, CanApply(a))
	assert.True(t, CanApply(b))
	assert.True(t, Function(a).Equal(meta("P")))
	assert.Len(t, Arguments(b), 1)
	assert.Nil(t, Function(app("f", v("a"))))

	got, err := ApplyExpressionFunctionApplication(a)
	require.NoError(t, err)
	assert.Nil(t, got, "an unresolved function position is not an error")

	got, err = ApplyExpressionFunctionApplication(b)
	require.NoError(t, err)
	assert.Equal(t, "g(a)", got.String())

	_, err = MakeExpressionFunctionApplication(meta("P"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBetaReduceArity(t *testing.T) {
	ef := lambda(t, []string{"x", "y"}, app("f", v("x"), v("y")))
	before := ef.Clone()

	_, err := BetaReduce(ef, []expr.Expression{v("a")})
	if !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("expected ErrArityMismatch, got %v", err)
	}
	_, err = BetaReduce(ef, []expr.Expression{v("a"), v("b"), v("c")})
	if !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("expected ErrArityMismatch, got %v", err)
	}

	got, err := BetaReduce(ef, []expr.Expression{num(1), num(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "f(1, 2)" {
		t.Fatalf("expected f(1, 2), got %v", got)
	}
	if !ef.Equal(before) {
		t.Fatalf("BetaReduce modified its function: %v", ef)
	}
}

func TestBetaReduceIsSimultaneous(t *testing.T) {
	ef := lambda(t, []string{"x", "y"}, app("f", v("x"), v("y")))
	got, err := BetaReduce(ef, []expr.Expression{v("y"), v("a")})
	require.NoError(t, err)
	assert.Equal(t, "f(y, a)", got.String())
}

func TestReplaceWithoutCaptureRenamesBinder(t *testing.T) {
	// forall y. f(x, y) with x := g(y) must not capture y
	e := bind("forall", []string{"y"}, app("f", v("x"), v("y")))
	repl := app("g", v("y"))

	got, err := ReplaceWithoutCapture(e, v("x"), repl)
	require.NoError(t, err)
	assert.False(t, expr.VariableIsFree(v("x"), got), "x must not remain free in %v", got)
	assert.True(t, expr.VariableIsFree(v("y"), got), "the y of the replacement must stay free in %v", got)
	assert.True(t, AlphaEquivalent(got, bind("forall", []string{"z"}, app("f", app("g", v("y")), v("z")))), "got %v", got)
	assert.Equal(t, "forall[y, f(x, y)]", e.String(), "input must be unchanged")
}

func TestReplaceWithoutCaptureRebinderNeedsVariable(t *testing.T) {
	// the inner binder re-binds x, which cannot receive a non-variable
	e := app("h", v("x"), bind("forall", []string{"x"}, app("f", v("x"))))
	_, err := ReplaceWithoutCapture(e, v("x"), num(5))
	if !errors.Is(err, ErrIllegalCapture) {
		t.Fatalf("expected ErrIllegalCapture, got %v", err)
	}
}

func TestReplaceWithoutCaptureRebindsVariable(t *testing.T) {
	e := bind("forall", []string{"x"}, app("f", v("x"), v("c")))
	got, err := ReplaceWithoutCapture(e, v("x"), v("z"))
	require.NoError(t, err)
	assert.Equal(t, "forall[z, f(z, c)]", got.String())
	assert.False(t, expr.VariableIsFree(v("x"), got))

	_, err = ReplaceWithoutCapture(e, v("x"), v("c"))
	assert.ErrorIs(t, err, ErrIllegalCapture, "renaming x to the free c would capture c")
}

func TestReplaceWithoutCaptureProperty(t *testing.T) {
	inputs := []expr.Expression{
		app("f", v("x"), v("y")),
		bind("forall", []string{"y"}, app("f", v("x"), v("y"))),
		bind("exists", []string{"y", "z"}, app("and", v("x"), bind("forall", []string{"x"}, v("x")), v("z"))),
		app("g", bind("forall", []string{"v1"}, app("p", v("v1"), v("x"))), v("x")),
	}
	replacements := []expr.Expression{
		v("y"),
		app("g", v("y"), v("z")),
		app("h", v("v1")),
		num(3),
	}
	for _, in := range inputs {
		for _, r := range replacements {
			got, err := ReplaceWithoutCapture(in, v("x"), r)
			if errors.Is(err, ErrIllegalCapture) {
				continue
			}
			require.NoError(t, err)
			assert.False(t, expr.VariableIsFree(v("x"), got), "%v[x := %v] = %v", in, r, got)
			for _, fv := range expr.FreeVariables(r) {
				if expr.VariableIsFree(v("x"), in) {
					assert.True(t, expr.VariableIsFree(fv, got), "%v captured in %v[x := %v] = %v", fv, in, r, got)
				}
			}
		}
	}
}

func TestAlphaConvert(t *testing.T) {
	e := bind("forall", []string{"x"}, app("f", v("x"), v("y")))
	got, err := AlphaConvert(e, v("x"), v("z"))
	require.NoError(t, err)
	assert.Equal(t, "forall[z, f(z, y)]", got.String())
	assert.Equal(t, "forall[x, f(x, y)]", e.String())

	_, err = AlphaConvert(e, v("y"), v("z"))
	assert.ErrorIs(t, err, ErrUnboundVariable)
	_, err = AlphaConvert(app("f", v("x")), v("x"), v("z"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAlphaEquivalent(t *testing.T) {
	idX := lambda(t, []string{"x"}, v("x"))
	idY := lambda(t, []string{"y"}, v("y"))
	idZ := lambda(t, []string{"z"}, v("z"))
	other := lambda(t, []string{"x"}, v("randomvar"))

	assert.True(t, AlphaEquivalent(idX, idY))
	assert.False(t, AlphaEquivalent(idX, other))
	assert.False(t, AlphaEquivalent(v("x"), v("x")), "atoms are not compared")

	// equivalence relation
	set := []expr.Expression{idX, idY, idZ, other,
		app("f", idX, num(1)), app("f", idY, num(1)),
		bind("forall", []string{"a", "b"}, app("r", v("a"), v("b"))),
		bind("forall", []string{"b", "a"}, app("r", v("b"), v("a"))),
		bind("forall", []string{"a", "b"}, app("r", v("b"), v("a"))),
	}
	for _, a := range set {
		assert.True(t, AlphaEquivalent(a, a), "reflexive: %v", a)
		for _, b := range set {
			assert.Equal(t, AlphaEquivalent(a, b), AlphaEquivalent(b, a), "symmetric: %v %v", a, b)
			for _, c := range set {
				if AlphaEquivalent(a, b) && AlphaEquivalent(b, c) {
					assert.True(t, AlphaEquivalent(a, c), "transitive: %v %v %v", a, b, c)
				}
			}
		}
	}
	assert.True(t, AlphaEquivalent(set[6], set[7]))
	assert.False(t, AlphaEquivalent(set[6], set[8]))
}

func TestAlphaEquivalentNested(t *testing.T) {
	a := bind("forall", []string{"x"}, bind("exists", []string{"y"}, app("r", v("x"), v("y"))))
	b := bind("forall", []string{"y"}, bind("exists", []string{"x"}, app("r", v("y"), v("x"))))
	c := bind("forall", []string{"y"}, bind("exists", []string{"x"}, app("r", v("x"), v("y"))))
	assert.True(t, AlphaEquivalent(a, b))
	assert.False(t, AlphaEquivalent(a, c))
}

func TestMakeConstantAndProjection(t *testing.T) {
	c, err := MakeConstantExpression(num(7), v("v1"), v("v2"))
	require.NoError(t, err)
	got, err := BetaReduce(c, []expr.Expression{v("a"), v("b")})
	require.NoError(t, err)
	assert.Equal(t, "7", got.String())

	vars := []expr.Expression{v("v1"), v("v2")}
	p, err := MakeProjectionExpression(vars, v("v2"))
	require.NoError(t, err)
	got, err = BetaReduce(p, []expr.Expression{v("a"), v("b")})
	require.NoError(t, err)
	assert.Equal(t, "b", got.String())

	_, err = MakeProjectionExpression(vars, v("v3"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMakeImitationExpression(t *testing.T) {
	vars := []expr.Expression{v("v1")}

	im, err := MakeImitationExpression(vars, app("f", num(1), num(2)), []expr.Expression{meta("H0"), meta("H1"), meta("H2")})
	require.NoError(t, err)
	require.True(t, IsExpressionFunction(im))
	body := im.Body()
	require.True(t, expr.IsApplication(body))
	require.Len(t, body.Children(), 3)
	for i, c := range body.Children() {
		assert.True(t, IsExpressionFunctionApplication(c), "child %d: %v", i, c)
		assert.Equal(t, "v1", Arguments(c)[0].Name())
	}
	assert.True(t, Function(body.Children()[2]).Equal(meta("H2")))

	im, err = MakeImitationExpression(vars, bind("forall", []string{"y"}, app("p", v("y"))), []expr.Expression{meta("H")})
	require.NoError(t, err)
	inner := im.Body()
	require.True(t, expr.IsBinding(inner))
	assert.Equal(t, "forall", inner.Head().String())
	assert.True(t, inner.Variables()[0].Equal(v("y")))
	assert.True(t, IsExpressionFunctionApplication(inner.Body()))

	_, err = MakeImitationExpression(vars, app("f", num(1)), []expr.Expression{meta("H0")})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = MakeImitationExpression(vars, num(1), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNormalize(t *testing.T) {
	id := lambda(t, []string{"y"}, v("y"))
	g := lambda(t, []string{"x"}, app("g", v("x"), v("x")))
	e := app("h", efa(t, g, efa(t, id, v("a"))), v("b"))

	got, err := Normalize(e)
	require.NoError(t, err)
	assert.Equal(t, "h(g(a, a), b)", got.String())

	// a reduction that exposes another reducible application
	applyToC := lambda(t, []string{"f"}, efa(t, v("f"), v("c")))
	got, err = Normalize(efa(t, applyToC, id))
	require.NoError(t, err)
	assert.Equal(t, "c", got.String())
}

func TestNormalizeSelfApplication(t *testing.T) {
	omega := lambda(t, []string{"f"}, efa(t, v("f"), v("f")))
	_, err := Normalize(efa(t, omega, omega))
	assert.ErrorIs(t, err, ErrNoNormalForm)
}
