// Package oracle defines the arithmetic oracle consumed by the rule filter:
// a sound-but-incomplete validity check for boolean integer formulas and a
// trusted canonicalizing normalizer. The oracle is an injected capability so
// tests can substitute an exact bounded-range implementation; Algebraic is
// the default implementation shipped with the tool.
//
// The contract every consumer must honor: IsValid returning false means
// "unproven", never "disproven". Decisions default to the conservative
// branch (keep the rule, claim nothing) when evidence is insufficient.
package oracle

import (
	"github.com/orizon-lang/rulefilter/internal/expr"
)

// Oracle is the decision-procedure surface the classification pipeline and
// the predicate synthesizer depend on.
type Oracle interface {
	// IsValid reports whether the boolean formula holds for every integer
	// instantiation of its free variables. A true result is a proof; a
	// false result is only an absence of one.
	IsValid(a *expr.Arena, f expr.ID) bool

	// Normalize reduces a tree to a canonical, presumably smaller form
	// using established algebraic identities. It is used as a redundancy
	// detector only, never for soundness-critical reasoning.
	Normalize(a *expr.Arena, e expr.ID) expr.ID
}

// Refuter is an optional extension: a bounded search for an integer
// assignment satisfying the formula. The synthesizer consults it, when
// available, after its own small-range enumeration comes up empty.
type Refuter interface {
	Refute(a *expr.Arena, f expr.ID, vars []string) (expr.Example, bool)
}
