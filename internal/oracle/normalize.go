package oracle

import (
	"github.com/orizon-lang/rulefilter/internal/expr"
)

// Algebraic is the default oracle: a fixpoint rewriting normalizer over
// established integer identities, and a prover that reduces formulas to the
// constant true. Both are bounded, so every call terminates.
type Algebraic struct {
	// MaxPasses caps the normalizer's fixpoint iteration.
	MaxPasses int
	// RefuteValues is the value ladder used by the bounded refutation
	// search, in the order attempted.
	RefuteValues []int64
}

// NewAlgebraic returns an Algebraic oracle with the default bounds.
func NewAlgebraic() *Algebraic {
	return &Algebraic{
		MaxPasses:    16,
		RefuteValues: []int64{0, 1, -1, 2, -2, 3, -3, 4, -4, 5, -5, 8, -8, 16, -16, 100, -100},
	}
}

// Normalize rewrites the tree bottom-up to a canonical form, iterating until
// a fixpoint or the pass bound is reached. This is the baseline simplifier
// consumed by the redundancy filter: it applies cancellation, constant
// folding, and structural collapses, but deliberately not the identity
// eliminations (x+0, x*1, ...) that the candidate rule corpus exists to
// teach the production simplifier.
func (o *Algebraic) Normalize(a *expr.Arena, e expr.ID) expr.ID {
	return o.reduce(a, e, false)
}

// full is the stronger normalization the validity prover uses internally; it
// additionally folds identity elements.
func (o *Algebraic) full(a *expr.Arena, e expr.ID) expr.ID {
	return o.reduce(a, e, true)
}

func (o *Algebraic) reduce(a *expr.Arena, e expr.ID, full bool) expr.ID {
	cur := e
	passes := o.MaxPasses
	if passes <= 0 {
		passes = 1
	}
	for i := 0; i < passes; i++ {
		next := normalizeOnce(a, cur, full)
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

func normalizeOnce(a *expr.Arena, id expr.ID, full bool) expr.ID {
	kids := a.Children(id)
	if len(kids) == 0 {
		return id
	}
	nk := make([]expr.ID, len(kids))
	for i, k := range kids {
		nk[i] = normalizeOnce(a, k, full)
	}
	return simplifyNode(a, a.Rebuild(id, nk), full)
}

// constVal extracts the payload of a Const or Bool node.
func constVal(a *expr.Arena, id expr.ID) (int64, bool) {
	switch a.Kind(id) {
	case expr.KindConst, expr.KindBool:
		return a.Value(id), true
	}
	return 0, false
}

// simplifyNode applies local identities to a node whose children are already
// normalized. Identity-element folds only fire in full mode.
func simplifyNode(a *expr.Arena, id expr.ID, full bool) expr.ID {
	kind := a.Kind(id)
	kids := a.Children(id)

	switch kind {
	case expr.KindNot:
		return simplifyNot(a, id, kids[0], full)
	case expr.KindSelect:
		c, t, f := kids[0], kids[1], kids[2]
		if a.IsTrue(c) {
			return t
		}
		if a.IsFalse(c) {
			return f
		}
		if a.Equal(t, f) {
			return t
		}
		return id
	}
	if len(kids) != 2 {
		return id
	}
	l, r := kids[0], kids[1]
	lv, lc := constVal(a, l)
	rv, rc := constVal(a, r)

	switch kind {
	case expr.KindAdd:
		if lc && rc {
			return a.Const(lv + rv)
		}
		if full && lc && lv == 0 {
			return r
		}
		if full && rc && rv == 0 {
			return l
		}
	case expr.KindSub:
		if lc && rc {
			return a.Const(lv - rv)
		}
		if a.Equal(l, r) {
			return a.Const(0)
		}
		if full && rc && rv == 0 {
			return l
		}
		// (a + b) - b  =>  a, and (a + b) - a  =>  b
		if a.Kind(l) == expr.KindAdd {
			lk := a.Children(l)
			if a.Equal(lk[1], r) {
				return lk[0]
			}
			if a.Equal(lk[0], r) {
				return lk[1]
			}
		}
	case expr.KindMul:
		if lc && rc {
			return a.Const(lv * rv)
		}
		if full && ((lc && lv == 0) || (rc && rv == 0)) {
			return a.Const(0)
		}
		if full && lc && lv == 1 {
			return r
		}
		if full && rc && rv == 1 {
			return l
		}
	case expr.KindDiv:
		if lc && rc {
			return a.Const(expr.FloorDiv(lv, rv))
		}
		if full && lc && lv == 0 {
			return a.Const(0)
		}
		if full && rc && rv == 1 {
			return l
		}
	case expr.KindMin:
		if lc && rc {
			return a.Const(min64(lv, rv))
		}
		if a.Equal(l, r) {
			return l
		}
	case expr.KindMax:
		if lc && rc {
			return a.Const(max64(lv, rv))
		}
		if a.Equal(l, r) {
			return l
		}
	case expr.KindLT:
		if lc && rc {
			return a.Bool(lv < rv)
		}
		if a.Equal(l, r) {
			return a.Bool(false)
		}
	case expr.KindLE:
		if lc && rc {
			return a.Bool(lv <= rv)
		}
		if a.Equal(l, r) {
			return a.Bool(true)
		}
	case expr.KindEQ:
		if lc && rc {
			return a.Bool(lv == rv)
		}
		if a.Equal(l, r) {
			return a.Bool(true)
		}
	case expr.KindNE:
		if lc && rc {
			return a.Bool(lv != rv)
		}
		if a.Equal(l, r) {
			return a.Bool(false)
		}
	case expr.KindAnd:
		if a.IsFalse(l) || a.IsFalse(r) {
			return a.Bool(false)
		}
		if a.IsTrue(l) {
			return r
		}
		if a.IsTrue(r) {
			return l
		}
		if a.Equal(l, r) {
			return l
		}
	case expr.KindOr:
		if a.IsTrue(l) || a.IsTrue(r) {
			return a.Bool(true)
		}
		if a.IsFalse(l) {
			return r
		}
		if a.IsFalse(r) {
			return l
		}
		if a.Equal(l, r) {
			return l
		}
	}

	// Canonical operand order for symmetric kinds, so commuted spellings of
	// the same expression normalize to a single tree.
	switch kind {
	case expr.KindAdd, expr.KindMul, expr.KindMin, expr.KindMax,
		expr.KindEQ, expr.KindNE, expr.KindAnd, expr.KindOr:
		if a.Compare(l, r) > 0 {
			return a.Binary(kind, r, l)
		}
	}
	return id
}

// simplifyNot rewrites negation into the complementary form where one
// exists; the prover relies on negations of comparisons normalizing away.
func simplifyNot(a *expr.Arena, id, x expr.ID, full bool) expr.ID {
	switch a.Kind(x) {
	case expr.KindBool:
		return a.Bool(a.Value(x) == 0)
	case expr.KindNot:
		return a.Children(x)[0]
	case expr.KindLT:
		k := a.Children(x)
		return a.LE(k[1], k[0])
	case expr.KindLE:
		k := a.Children(x)
		return a.LT(k[1], k[0])
	case expr.KindEQ:
		k := a.Children(x)
		return simplifyNode(a, a.NE(k[0], k[1]), full)
	case expr.KindNE:
		k := a.Children(x)
		return simplifyNode(a, a.EQ(k[0], k[1]), full)
	}
	return id
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
