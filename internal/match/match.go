// Package match implements the pattern-generality check between rewrite-rule
// left-hand sides. Pattern a is more general than pattern b when every
// concrete instantiation matched by b is also matched by a; the check solves
// a's wildcards against b's sub-terms while treating b's wildcards as rigid.
package match

import (
	"github.com/orizon-lang/rulefilter/internal/expr"
)

// MoreGeneralThan reports whether pattern a matches a superset of the
// instantiations matched by pattern b, returning the binding from a's
// wildcard names to b's sub-terms on success. The relation is a preorder:
// reflexive (every pattern subsumes itself under the identity binding) but
// neither antisymmetric nor total. Failure returns a nil binding, never a
// partial one.
func MoreGeneralThan(a *expr.Arena, pa, pb expr.ID) (expr.Binding, bool) {
	binding := expr.Binding{}
	if !unify(a, pa, pb, binding) {
		return nil, false
	}
	return binding, true
}

func unify(a *expr.Arena, pa, pb expr.ID, binding expr.Binding) bool {
	if a.Kind(pa) == expr.KindPattern {
		name := a.Name(pa)
		if prev, ok := binding[name]; ok {
			// A repeated wildcard must see a structurally equal sub-term.
			return a.Equal(prev, pb)
		}
		binding[name] = pb
		return true
	}

	if a.Kind(pa) != a.Kind(pb) {
		return false
	}
	switch a.Kind(pa) {
	case expr.KindConst, expr.KindBool:
		return a.Value(pa) == a.Value(pb)
	case expr.KindVar:
		return a.Name(pa) == a.Name(pb)
	case expr.KindCall:
		if a.Name(pa) != a.Name(pb) {
			return false
		}
	}

	ka, kb := a.Children(pa), a.Children(pb)
	if len(ka) != len(kb) {
		return false
	}

	if a.Kind(pa).Commutative() && len(ka) == 2 {
		// Try the direct operand order first, then the swapped order. Each
		// attempt works on a trial copy of the binding; once an order
		// succeeds for this subtree its bindings are committed and no
		// cross-subtree backtracking occurs, keeping the search polynomial.
		trial := cloneBinding(binding)
		if unify(a, ka[0], kb[0], trial) && unify(a, ka[1], kb[1], trial) {
			adopt(binding, trial)
			return true
		}
		trial = cloneBinding(binding)
		if unify(a, ka[0], kb[1], trial) && unify(a, ka[1], kb[0], trial) {
			adopt(binding, trial)
			return true
		}
		return false
	}

	for i := range ka {
		if !unify(a, ka[i], kb[i], binding) {
			return false
		}
	}
	return true
}

func cloneBinding(b expr.Binding) expr.Binding {
	c := make(expr.Binding, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

func adopt(dst, src expr.Binding) {
	for k, v := range src {
		dst[k] = v
	}
}
