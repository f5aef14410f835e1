package expr

import (
	"fmt"
	"sort"
	"testing"
)

// TestInterning verifies that structurally equal trees share an arena slot.
func TestInterning(t *testing.T) {
	a := NewArena()
	x1 := a.Add(a.Pattern("x"), a.Const(1))
	x2 := a.Add(a.Pattern("x"), a.Const(1))
	if x1 != x2 {
		t.Fatalf("expected interned IDs to match, got %d and %d", x1, x2)
	}
	if !SameIdentity(x1, x2) {
		t.Error("SameIdentity should hold for interned duplicates")
	}
	y := a.Add(a.Pattern("x"), a.Const(2))
	if x1 == y {
		t.Error("distinct trees must not share an ID")
	}
}

// TestInterningNameSeparator checks that a name containing the intern-key
// separator cannot alias a node with children.
func TestInterningNameSeparator(t *testing.T) {
	a := NewArena()
	x := a.Pattern("x")
	call := a.Call("f", x)
	tricky := a.Call(fmt.Sprintf("f|%d", x))
	if call == tricky {
		t.Fatalf("distinct call forms interned to the same ID %d", call)
	}
	if len(a.Children(tricky)) != 0 {
		t.Error("zero-argument call grew children")
	}
	if a.Name(call) != "f" {
		t.Errorf("Name = %q, want %q", a.Name(call), "f")
	}
}

// TestCompareTotalOrder checks the kind-then-children-then-payload order.
func TestCompareTotalOrder(t *testing.T) {
	a := NewArena()
	c1 := a.Const(1)
	c2 := a.Const(2)
	vx := a.Pattern("x")
	vy := a.Pattern("y")
	sum := a.Add(vx, vy)

	tests := []struct {
		name string
		x, y ID
		want int
	}{
		{"equal constants", c1, a.Const(1), 0},
		{"constant payloads", c1, c2, -1},
		{"const before pattern", c1, vx, -1},
		{"pattern names", vx, vy, -1},
		{"leaf before operator", vx, sum, -1},
		{"reflexive", sum, sum, 0},
	}
	for _, tt := range tests {
		if got := a.Compare(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: Compare = %d, want %d", tt.name, got, tt.want)
		}
		if got := a.Compare(tt.y, tt.x); got != -tt.want {
			t.Errorf("%s: reversed Compare = %d, want %d", tt.name, got, -tt.want)
		}
	}
}

func TestCompareSorts(t *testing.T) {
	a := NewArena()
	exprs := []ID{
		a.Add(a.Pattern("x"), a.Const(3)),
		a.Const(7),
		a.Pattern("z"),
		a.Add(a.Pattern("x"), a.Const(1)),
		a.Const(7), // duplicate interns to the same ID
	}
	sort.Slice(exprs, func(i, j int) bool { return a.Compare(exprs[i], exprs[j]) < 0 })
	for i := 1; i < len(exprs); i++ {
		if a.Compare(exprs[i-1], exprs[i]) > 0 {
			t.Fatalf("not sorted at %d", i)
		}
	}
	if exprs[0] != exprs[1] {
		t.Error("duplicate constants should be adjacent and identical after sorting")
	}
}

func TestFreePatternVars(t *testing.T) {
	a := NewArena()
	tree := a.Select(
		a.LT(a.Pattern("x"), a.Const(4)),
		a.Add(a.Pattern("x"), a.Pattern("y")),
		a.Var("n"),
	)
	vars := a.FreePatternVars(tree)
	if len(vars) != 2 {
		t.Fatalf("got %d vars, want 2: %v", len(vars), vars)
	}
	for _, name := range []string{"x", "y"} {
		if _, ok := vars[name]; !ok {
			t.Errorf("missing %q", name)
		}
		if !a.UsesVar(tree, name) {
			t.Errorf("UsesVar(%q) = false", name)
		}
	}
	if a.UsesVar(tree, "n") {
		t.Error("Var leaves must not count as pattern variables")
	}
	names := a.FreeNames(tree)
	if _, ok := names["n"]; !ok {
		t.Error("FreeNames should include Var leaves")
	}
}

func TestLeafCount(t *testing.T) {
	a := NewArena()
	tests := []struct {
		name string
		id   ID
		want int
	}{
		{"constant", a.Const(0), 1},
		{"x - x", a.Sub(a.Pattern("x"), a.Pattern("x")), 2},
		{"nested", a.Mul(a.Add(a.Pattern("x"), a.Const(1)), a.Var("k")), 3},
	}
	for _, tt := range tests {
		if got := a.LeafCount(tt.id); got != tt.want {
			t.Errorf("%s: LeafCount = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestSubstitute(t *testing.T) {
	a := NewArena()
	tree := a.Add(a.Pattern("x"), a.Pattern("y"))
	got := a.Substitute(Binding{"y": a.Const(0)}, tree)
	want := a.Add(a.Pattern("x"), a.Const(0))
	if !a.Equal(got, want) {
		t.Fatalf("Substitute = %s, want %s", a.Format(got), a.Format(want))
	}
	// Substitution that changes nothing keeps the original ID.
	if a.Substitute(Binding{"z": a.Const(9)}, tree) != tree {
		t.Error("no-op substitution should return the same tree")
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{7, 2, 3},
		{-7, 2, -4},
		{7, -2, -4},
		{-7, -2, 3},
		{6, 3, 2},
		{5, 0, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := FloorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("FloorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEval(t *testing.T) {
	a := NewArena()
	x, y := a.Pattern("x"), a.Pattern("y")
	ex := Example{"x": 5, "y": -2}

	tests := []struct {
		name string
		id   ID
		want int64
	}{
		{"add", a.Add(x, y), 3},
		{"mul", a.Mul(x, y), -10},
		{"div", a.Div(x, y), -3},
		{"div by zero", a.Div(x, a.Const(0)), 0},
		{"min", a.Min(x, y), -2},
		{"max", a.Max(x, y), 5},
		{"lt", a.LT(y, x), 1},
		{"le", a.LE(x, y), 0},
		{"eq", a.EQ(x, x), 1},
		{"ne", a.NE(x, y), 1},
		{"and", a.And(a.LT(y, x), a.Bool(true)), 1},
		{"or", a.Or(a.Bool(false), a.LT(x, y)), 0},
		{"not", a.Not(a.LT(x, y)), 1},
		{"select", a.Select(a.LT(y, x), x, y), 5},
	}
	for _, tt := range tests {
		got, err := a.Eval(tt.id, ex)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: Eval = %d, want %d", tt.name, got, tt.want)
		}
	}

	if _, err := a.Eval(a.Pattern("missing"), ex); err == nil {
		t.Error("expected error for unassigned variable")
	}
}

func TestFormat(t *testing.T) {
	a := NewArena()
	x, y := a.Pattern("x"), a.Pattern("y")
	tests := []struct {
		id   ID
		want string
	}{
		{a.Add(x, a.Const(0)), "(x + 0)"},
		{a.Mul(x, a.Const(2)), "(x*2)"},
		{a.Sub(x, x), "(x - x)"},
		{a.EQ(y, a.Const(0)), "(y == 0)"},
		{a.Const(-3), "-3"},
		{a.Bool(true), "true"},
		{a.Bool(false), "false"},
		{a.Not(a.LT(x, y)), "!(x < y)"},
		{a.Min(x, y), "min(x, y)"},
		{a.Select(a.LE(x, y), x, y), "select((x <= y), x, y)"},
		{a.Call("rewrite", a.Add(x, a.Const(0)), x, a.Bool(true)), "rewrite((x + 0), x, true)"},
	}
	for _, tt := range tests {
		if got := a.Format(tt.id); got != tt.want {
			t.Errorf("Format = %q, want %q", got, tt.want)
		}
	}
}

// TestConcurrentInterning exercises the arena's locking under parallel
// construction.
func TestConcurrentInterning(t *testing.T) {
	a := NewArena()
	done := make(chan ID, 8)
	for i := 0; i < 8; i++ {
		go func() {
			done <- a.Add(a.Pattern("x"), a.Const(41))
		}()
	}
	first := <-done
	for i := 1; i < 8; i++ {
		if got := <-done; got != first {
			t.Fatalf("concurrent interning produced distinct IDs %d and %d", first, got)
		}
	}
}
