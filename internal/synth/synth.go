// Package synth derives a sufficient applicability predicate for a candidate
// rewrite rule by counterexample-guided refinement. Starting from the
// predicate true it alternates a deterministic small-range search for
// assignments that break the equivalence with either pinning an ambiguous
// constant wildcard or conjoining an atom that excludes the counterexample,
// until the oracle validates the implication or the iteration bound runs
// out. Exhaustion is an explicit false predicate, never an error.
package synth

import (
	"sort"
	"strings"

	"github.com/orizon-lang/rulefilter/internal/expr"
	"github.com/orizon-lang/rulefilter/internal/oracle"
)

// Config bounds the synthesis loop. Every bound must be finite for the
// whole batch to terminate.
type Config struct {
	// MaxIters caps the number of refinement iterations.
	MaxIters int
	// Radius is the half-width of the base enumeration: candidate values
	// run over 0, 1, -1, ... up to ±Radius.
	Radius int
	// WideRadius is the wider half-width used to double-check a constant
	// pinning before committing to it.
	WideRadius int
	// UseRefuter consults the oracle's refutation search after the base
	// enumeration finds no counterexample.
	UseRefuter bool
}

// DefaultConfig returns the bounds used by the command-line tool.
func DefaultConfig() Config {
	return Config{MaxIters: 16, Radius: 3, WideRadius: 6, UseRefuter: true}
}

// Synthesizer owns the arena, the oracle, and the bounds for one batch.
type Synthesizer struct {
	arena *expr.Arena
	orc   oracle.Oracle
	cfg   Config
}

// New creates a synthesizer over the given arena and oracle.
func New(a *expr.Arena, orc oracle.Oracle, cfg Config) *Synthesizer {
	if cfg.MaxIters <= 0 {
		cfg.MaxIters = DefaultConfig().MaxIters
	}
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultConfig().Radius
	}
	if cfg.WideRadius < cfg.Radius {
		cfg.WideRadius = cfg.Radius * 2
	}
	return &Synthesizer{arena: a, orc: orc, cfg: cfg}
}

// Synthesize derives a predicate P and a wildcard binding such that, after
// substituting the binding, lhs == rhs holds for every assignment satisfying
// P. On failure it returns the constant false and an empty binding. The
// result is deterministic for a given lhs, rhs, and oracle.
func (s *Synthesizer) Synthesize(lhs, rhs expr.ID) (expr.ID, expr.Binding) {
	a := s.arena
	vars := sortedNames(a.FreeNames(lhs), a.FreeNames(rhs))
	pred := a.Bool(true)
	binding := expr.Binding{}

	for iter := 0; iter < s.cfg.MaxIters; iter++ {
		l := a.Substitute(binding, lhs)
		r := a.Substitute(binding, rhs)
		p := a.Substitute(binding, pred)

		positives, cex, found := s.sweep(l, r, p, vars)
		if !found && s.cfg.UseRefuter {
			cex, found = s.askRefuter(l, r, p, vars)
		}

		if !found {
			goal := a.Or(a.Not(p), a.EQ(l, r))
			if !s.orc.IsValid(a, goal) {
				break
			}
			if s.trivialPredicate(p, l) {
				break
			}
			return p, binding
		}

		if name, val, ok := s.pinConstant(lhs, rhs, binding, vars); ok {
			// Binding refinement resolves an ambiguous constant wildcard;
			// the predicate is left untouched.
			binding[name] = a.Const(val)
			continue
		}

		atom, ok := s.chooseAtom(vars, positives, cex)
		if !ok {
			break
		}
		if a.IsTrue(pred) {
			pred = atom
		} else {
			pred = a.And(pred, atom)
		}
	}

	return a.Bool(false), expr.Binding{}
}

// maxSweep caps the number of assignments any single enumeration visits;
// rules with many variables degrade to a partial (still deterministic)
// search rather than an exponential one.
const maxSweep = 1 << 17

// maxPositives caps the positive-example set consulted for atom consistency.
const maxPositives = 512

// ladder returns candidate values in the fixed search order.
func ladder(radius int) []int64 {
	vals := []int64{0}
	for v := int64(1); v <= int64(radius); v++ {
		vals = append(vals, v, -v)
	}
	return vals
}

// sweep enumerates assignments over the base range, collecting every
// positive example (lhs == rhs) and the first counterexample (predicate
// holds, lhs != rhs). The enumeration order is fixed, so the first
// counterexample is deterministic.
func (s *Synthesizer) sweep(l, r, p expr.ID, vars []string) ([]expr.Example, expr.Example, bool) {
	a := s.arena
	var positives []expr.Example
	var cex expr.Example

	ex := make(expr.Example, len(vars))
	visited := 0
	var walk func(i int)
	walk = func(i int) {
		if visited >= maxSweep {
			return
		}
		if i == len(vars) {
			visited++
			lv, err := a.Eval(l, ex)
			if err != nil {
				return
			}
			rv, err := a.Eval(r, ex)
			if err != nil {
				return
			}
			if lv == rv {
				if len(positives) < maxPositives {
					positives = append(positives, cloneExample(ex))
				}
				return
			}
			if cex != nil {
				return
			}
			pv, err := a.Eval(p, ex)
			if err == nil && pv != 0 {
				cex = cloneExample(ex)
			}
			return
		}
		for _, v := range ladder(s.cfg.Radius) {
			ex[vars[i]] = v
			walk(i + 1)
		}
	}
	walk(0)
	return positives, cex, cex != nil
}

// askRefuter hands the counterexample search to the oracle when it supports
// one. The returned assignment is re-verified by evaluation before use; an
// oracle bug must not be able to smuggle in a bogus example.
func (s *Synthesizer) askRefuter(l, r, p expr.ID, vars []string) (expr.Example, bool) {
	ref, ok := s.orc.(oracle.Refuter)
	if !ok {
		return nil, false
	}
	a := s.arena
	formula := a.And(p, a.NE(l, r))
	ex, ok := ref.Refute(a, formula, vars)
	if !ok {
		return nil, false
	}
	v, err := a.Eval(formula, ex)
	if err != nil || v == 0 {
		return nil, false
	}
	return ex, true
}

// pinConstant looks for an unbound constant-class wildcard (c0, c1, ... by
// corpus convention) and a value that makes the equivalence hold across the
// whole wide search range once the wildcard is pinned to it.
func (s *Synthesizer) pinConstant(lhs, rhs expr.ID, binding expr.Binding, vars []string) (string, int64, bool) {
	a := s.arena
	for _, name := range vars {
		if !isConstWildcard(name) {
			continue
		}
		if _, bound := binding[name]; bound {
			continue
		}
		if !a.UsesVar(lhs, name) {
			continue
		}
		for _, n := range ladder(s.cfg.Radius) {
			if s.holdsWithPinned(lhs, rhs, binding, vars, name, n) {
				return name, n, true
			}
		}
	}
	return "", 0, false
}

// holdsWithPinned checks lhs == rhs over the wide range with name fixed.
func (s *Synthesizer) holdsWithPinned(lhs, rhs expr.ID, binding expr.Binding, vars []string, name string, val int64) bool {
	a := s.arena
	trial := expr.Binding{}
	for k, v := range binding {
		trial[k] = v
	}
	trial[name] = a.Const(val)
	l := a.Substitute(trial, lhs)
	r := a.Substitute(trial, rhs)

	rest := make([]string, 0, len(vars))
	for _, v := range vars {
		if v != name {
			rest = append(rest, v)
		}
	}

	ex := make(expr.Example, len(rest))
	ok := true
	visited := 0
	var walk func(i int)
	walk = func(i int) {
		if !ok || visited >= maxSweep {
			return
		}
		if i == len(rest) {
			visited++
			lv, err := a.Eval(l, ex)
			if err != nil {
				ok = false
				return
			}
			rv, err := a.Eval(r, ex)
			if err != nil || lv != rv {
				ok = false
			}
			return
		}
		for _, v := range ladder(s.cfg.WideRadius) {
			ex[rest[i]] = v
			walk(i + 1)
		}
	}
	walk(0)
	return ok
}

// chooseAtom picks the first atom, in a fixed grammar order, that holds on
// every positive example and fails on the counterexample.
func (s *Synthesizer) chooseAtom(vars []string, positives []expr.Example, cex expr.Example) (expr.ID, bool) {
	a := s.arena
	eqConsts := []int64{0, 1, -1, 2, -2}
	leConsts := []int64{0, 1, -1}

	var candidates []expr.ID
	for _, v := range vars {
		pv := a.Pattern(v)
		for _, c := range eqConsts {
			candidates = append(candidates, a.EQ(pv, a.Const(c)))
		}
	}
	for i, v := range vars {
		for _, w := range vars[i+1:] {
			candidates = append(candidates, a.EQ(a.Pattern(v), a.Pattern(w)))
		}
	}
	for _, v := range vars {
		pv := a.Pattern(v)
		for _, c := range leConsts {
			candidates = append(candidates, a.LE(pv, a.Const(c)), a.LE(a.Const(c), pv))
		}
	}
	for i, v := range vars {
		for _, w := range vars[i+1:] {
			pv, pw := a.Pattern(v), a.Pattern(w)
			candidates = append(candidates,
				a.LT(pv, pw), a.LT(pw, pv), a.LE(pv, pw), a.LE(pw, pv))
		}
	}
	for _, v := range vars {
		pv := a.Pattern(v)
		for _, c := range eqConsts {
			candidates = append(candidates, a.NE(pv, a.Const(c)))
		}
	}

	for _, atom := range candidates {
		if s.atomConsistent(atom, positives, cex) {
			return atom, true
		}
	}
	return expr.NoID, false
}

func (s *Synthesizer) atomConsistent(atom expr.ID, positives []expr.Example, cex expr.Example) bool {
	a := s.arena
	v, err := a.Eval(atom, cex)
	if err != nil || v != 0 {
		return false
	}
	for _, p := range positives {
		v, err := a.Eval(atom, p)
		if err != nil || v == 0 {
			return false
		}
	}
	return true
}

// trivialPredicate reports whether the predicate pins every free variable of
// the (substituted) lhs to a single value over the base range. Such a
// predicate reduces the rule to a handful of ground instances and is treated
// as a synthesis failure rather than a result. The enumeration must assign
// every variable the predicate mentions, including ones free only in the
// rhs; only the lhs variables are subject to the single-value test.
func (s *Synthesizer) trivialPredicate(p, lhs expr.ID) bool {
	a := s.arena
	if a.IsTrue(p) {
		return false
	}
	lhsVars := sortedNames(a.FreeNames(lhs))
	if len(lhsVars) == 0 {
		return false
	}
	vars := sortedNames(a.FreeNames(lhs), a.FreeNames(p))

	seen := make(map[string]map[int64]struct{}, len(lhsVars))
	for _, v := range lhsVars {
		seen[v] = make(map[int64]struct{})
	}
	ex := make(expr.Example, len(vars))
	visited := 0
	var walk func(i int)
	walk = func(i int) {
		if visited >= maxSweep {
			return
		}
		if i == len(vars) {
			visited++
			pv, err := a.Eval(p, ex)
			if err == nil && pv != 0 {
				for _, v := range lhsVars {
					seen[v][ex[v]] = struct{}{}
				}
			}
			return
		}
		for _, val := range ladder(s.cfg.Radius) {
			ex[vars[i]] = val
			walk(i + 1)
		}
	}
	walk(0)

	for _, v := range lhsVars {
		if len(seen[v]) > 1 {
			return false
		}
	}
	return true
}

// isConstWildcard follows the corpus naming convention: c0, c1, ... denote
// wildcards that stand for integer literals.
func isConstWildcard(name string) bool {
	if len(name) < 2 || name[0] != 'c' {
		return false
	}
	rest := name[1:]
	return strings.TrimLeft(rest, "0123456789") == ""
}

func sortedNames(sets ...map[string]struct{}) []string {
	merged := make(map[string]struct{})
	for _, s := range sets {
		for k := range s {
			merged[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(merged))
	for k := range merged {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func cloneExample(ex expr.Example) expr.Example {
	c := make(expr.Example, len(ex))
	for k, v := range ex {
		c[k] = v
	}
	return c
}
