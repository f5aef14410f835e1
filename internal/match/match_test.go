package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/rulefilter/internal/expr"
)

func TestReflexive(t *testing.T) {
	a := expr.NewArena()
	patterns := []expr.ID{
		a.Pattern("x"),
		a.Add(a.Pattern("x"), a.Pattern("y")),
		a.Select(a.LT(a.Pattern("x"), a.Const(0)), a.Pattern("y"), a.Const(1)),
		a.Min(a.Mul(a.Pattern("x"), a.Const(2)), a.Pattern("c0")),
	}
	for _, p := range patterns {
		b, ok := MoreGeneralThan(a, p, p)
		require.True(t, ok, "pattern must subsume itself: %s", a.Format(p))
		for name, bound := range b {
			assert.True(t, a.Equal(bound, a.Pattern(name)),
				"reflexive match must bind %s to itself", name)
		}
	}
}

func TestWildcardBindsSubterm(t *testing.T) {
	a := expr.NewArena()
	general := a.Add(a.Pattern("x"), a.Pattern("y"))
	specific := a.Add(a.Pattern("x"), a.Const(0))

	b, ok := MoreGeneralThan(a, general, specific)
	require.True(t, ok)
	assert.True(t, a.Equal(b["x"], a.Pattern("x")))
	assert.True(t, a.Equal(b["y"], a.Const(0)))

	// The other direction must fail: a literal 0 cannot match the rigid
	// wildcard y.
	_, ok = MoreGeneralThan(a, specific, general)
	assert.False(t, ok)
}

func TestRepeatedWildcardConsistency(t *testing.T) {
	a := expr.NewArena()
	twice := a.Add(a.Pattern("x"), a.Pattern("x"))

	_, ok := MoreGeneralThan(a, twice, a.Add(a.Const(1), a.Const(1)))
	assert.True(t, ok, "x + x should match 1 + 1")

	_, ok = MoreGeneralThan(a, twice, a.Add(a.Const(1), a.Const(2)))
	assert.False(t, ok, "x + x must not match 1 + 2")
}

func TestCommutativeSwap(t *testing.T) {
	a := expr.NewArena()
	// (x + 1) vs (1 + y): only the swapped operand order unifies, with x
	// absorbing the rigid wildcard y.
	pa := a.Add(a.Pattern("x"), a.Const(1))
	pb := a.Add(a.Const(1), a.Pattern("y"))

	b, ok := MoreGeneralThan(a, pa, pb)
	require.True(t, ok)
	assert.True(t, a.Equal(b["x"], a.Pattern("y")))

	// Subtraction is not commutative, so the mirrored form must not match.
	sa := a.Sub(a.Pattern("x"), a.Const(0))
	sb := a.Sub(a.Const(0), a.Pattern("y"))
	_, ok = MoreGeneralThan(a, sa, sb)
	assert.False(t, ok)
}

func TestStructuralMismatch(t *testing.T) {
	a := expr.NewArena()
	tests := []struct {
		name   string
		pa, pb expr.ID
	}{
		{
			"different constants",
			a.Add(a.Pattern("x"), a.Const(1)),
			a.Add(a.Pattern("x"), a.Const(2)),
		},
		{
			"different operators",
			a.Add(a.Pattern("x"), a.Pattern("y")),
			a.Mul(a.Pattern("x"), a.Pattern("y")),
		},
		{
			"operator vs leaf",
			a.Min(a.Pattern("x"), a.Const(0)),
			a.Const(0),
		},
		{
			"different named vars",
			a.Var("n"),
			a.Var("m"),
		},
	}
	for _, tt := range tests {
		if _, ok := MoreGeneralThan(a, tt.pa, tt.pb); ok {
			t.Errorf("%s: expected no match", tt.name)
		}
	}
}

func TestNestedBinding(t *testing.T) {
	a := expr.NewArena()
	general := a.Min(a.Pattern("x"), a.Pattern("y"))
	specific := a.Min(a.Add(a.Pattern("u"), a.Const(3)), a.Pattern("v"))

	b, ok := MoreGeneralThan(a, general, specific)
	require.True(t, ok)
	assert.True(t, a.Equal(b["x"], a.Add(a.Pattern("u"), a.Const(3))))
	assert.True(t, a.Equal(b["y"], a.Pattern("v")))
}
