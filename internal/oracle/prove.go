package oracle

import (
	"sort"

	"github.com/orizon-lang/rulefilter/internal/expr"
)

// IsValid attempts to prove the formula holds for every integer assignment.
// The procedure is sound and incomplete: it normalizes the formula, splits
// conjunctions, and treats a disjunction as an implication whose hypotheses
// feed equality substitution and min/max ordering facts into the goal. Any
// branch it cannot close returns false, which callers read as "unproven".
func (o *Algebraic) IsValid(a *expr.Arena, f expr.ID) bool {
	return o.valid(a, f, 0)
}

const maxProveDepth = 8

func (o *Algebraic) valid(a *expr.Arena, f expr.ID, depth int) bool {
	if depth > maxProveDepth {
		return false
	}
	n := o.full(a, f)
	if a.IsTrue(n) {
		return true
	}
	switch a.Kind(n) {
	case expr.KindAnd:
		for _, c := range flatten(a, n, expr.KindAnd) {
			if !o.valid(a, c, depth+1) {
				return false
			}
		}
		return true
	case expr.KindOr:
		disjuncts := flatten(a, n, expr.KindOr)
		// Prove some disjunct under the negations of the others.
		for i, goal := range disjuncts {
			hyps := make([]expr.ID, 0, len(disjuncts)-1)
			for j, d := range disjuncts {
				if j != i {
					hyps = append(hyps, a.Not(d))
				}
			}
			if o.implies(a, hyps, goal, depth+1) {
				return true
			}
		}
		return false
	}
	return o.implies(a, nil, n, depth+1)
}

// implies attempts to prove goal under the hypotheses.
func (o *Algebraic) implies(a *expr.Arena, hyps []expr.ID, goal expr.ID, depth int) bool {
	if depth > maxProveDepth {
		return false
	}

	// Normalize and split hypotheses into atoms.
	var atoms []expr.ID
	for _, h := range hyps {
		atoms = append(atoms, flatten(a, o.full(a, h), expr.KindAnd)...)
	}

	// A contradictory hypothesis set proves anything.
	for _, h := range atoms {
		if a.IsFalse(h) {
			return true
		}
	}

	// Equality substitution: a hypothesis v == e with v a variable not
	// occurring in e pins v throughout the goal and the other hypotheses.
	for iter := 0; iter <= len(atoms); iter++ {
		substituted := false
		for i, h := range atoms {
			name, repl, ok := pinnedVar(a, h)
			if !ok {
				continue
			}
			changed := false
			for j := range atoms {
				if j == i {
					continue
				}
				if next := substName(a, atoms[j], name, repl); next != atoms[j] {
					atoms[j] = o.full(a, next)
					changed = true
				}
			}
			if next := substName(a, goal, name, repl); next != goal {
				goal = next
				changed = true
			}
			if changed {
				substituted = true
			}
		}
		if !substituted {
			break
		}
		for _, h := range atoms {
			if a.IsFalse(o.full(a, h)) {
				return true
			}
		}
	}

	// Ordering facts: under lo <= hi (or lo < hi), min(lo, hi) is lo and
	// max(lo, hi) is hi.
	for _, h := range atoms {
		switch a.Kind(h) {
		case expr.KindLE, expr.KindLT:
			k := a.Children(h)
			goal = rewriteMinMax(a, goal, k[0], k[1])
		}
	}

	goal = o.full(a, goal)
	if a.IsTrue(goal) {
		return true
	}
	// Hypotheses may directly discharge the goal.
	for _, h := range atoms {
		if a.Equal(h, goal) {
			return true
		}
	}
	if a.Kind(goal) == expr.KindAnd || a.Kind(goal) == expr.KindOr {
		return o.valid(a, goal, depth+1)
	}
	return false
}

// pinnedVar recognizes hypotheses of the form v == e (either orientation)
// where v is a variable or wildcard leaf not occurring in e.
func pinnedVar(a *expr.Arena, h expr.ID) (string, expr.ID, bool) {
	if a.Kind(h) != expr.KindEQ {
		return "", expr.NoID, false
	}
	k := a.Children(h)
	if name, ok := leafName(a, k[0]); ok && !usesName(a, k[1], name) {
		return name, k[1], true
	}
	if name, ok := leafName(a, k[1]); ok && !usesName(a, k[0], name) {
		return name, k[0], true
	}
	return "", expr.NoID, false
}

func leafName(a *expr.Arena, id expr.ID) (string, bool) {
	switch a.Kind(id) {
	case expr.KindVar, expr.KindPattern:
		return a.Name(id), true
	}
	return "", false
}

func usesName(a *expr.Arena, id expr.ID, name string) bool {
	switch a.Kind(id) {
	case expr.KindVar, expr.KindPattern:
		return a.Name(id) == name
	}
	for _, k := range a.Children(id) {
		if usesName(a, k, name) {
			return true
		}
	}
	return false
}

// substName replaces every Var or Pattern leaf called name with repl.
func substName(a *expr.Arena, id expr.ID, name string, repl expr.ID) expr.ID {
	switch a.Kind(id) {
	case expr.KindVar, expr.KindPattern:
		if a.Name(id) == name {
			return repl
		}
		return id
	}
	kids := a.Children(id)
	if len(kids) == 0 {
		return id
	}
	nk := make([]expr.ID, len(kids))
	for i, k := range kids {
		nk[i] = substName(a, k, name, repl)
	}
	return a.Rebuild(id, nk)
}

// rewriteMinMax replaces min(lo, hi) with lo and max(lo, hi) with hi, in
// either operand order, throughout the tree.
func rewriteMinMax(a *expr.Arena, id, lo, hi expr.ID) expr.ID {
	kids := a.Children(id)
	if len(kids) == 0 {
		return id
	}
	nk := make([]expr.ID, len(kids))
	for i, k := range kids {
		nk[i] = rewriteMinMax(a, k, lo, hi)
	}
	id = a.Rebuild(id, nk)
	switch a.Kind(id) {
	case expr.KindMin, expr.KindMax:
		k := a.Children(id)
		pair := (a.Equal(k[0], lo) && a.Equal(k[1], hi)) ||
			(a.Equal(k[0], hi) && a.Equal(k[1], lo))
		if pair {
			if a.Kind(id) == expr.KindMin {
				return lo
			}
			return hi
		}
	}
	return id
}

// flatten collects the leaves of a nested chain of the given connective.
func flatten(a *expr.Arena, id expr.ID, k expr.Kind) []expr.ID {
	if a.Kind(id) != k {
		return []expr.ID{id}
	}
	var out []expr.ID
	for _, c := range a.Children(id) {
		out = append(out, flatten(a, c, k)...)
	}
	return out
}

// Refute searches for an integer assignment satisfying the formula, trying
// the value ladder over the variables in name order. The search is bounded
// and deterministic; not finding an assignment proves nothing.
func (o *Algebraic) Refute(a *expr.Arena, f expr.ID, vars []string) (expr.Example, bool) {
	names := append([]string(nil), vars...)
	sort.Strings(names)
	if len(names) == 0 {
		v, err := a.Eval(f, nil)
		if err == nil && v != 0 {
			return expr.Example{}, true
		}
		return nil, false
	}
	ex := make(expr.Example, len(names))
	if o.refute(a, f, names, ex) {
		return ex, true
	}
	return nil, false
}

func (o *Algebraic) refute(a *expr.Arena, f expr.ID, names []string, ex expr.Example) bool {
	if len(names) == 0 {
		v, err := a.Eval(f, ex)
		return err == nil && v != 0
	}
	for _, v := range o.RefuteValues {
		ex[names[0]] = v
		if o.refute(a, f, names[1:], ex) {
			return true
		}
	}
	delete(ex, names[0])
	return false
}
