// Package classify orchestrates the rule-filter pipeline: deduplication of
// the candidate corpus, per-rule predicate re-synthesis, the local rejection
// filters, the pairwise domination check, and report emission. A Session is
// an explicit value owning the candidate list and all search bounds; there
// is no global state.
package classify

import (
	"fmt"
	"io"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/rulefilter/internal/expr"
	"github.com/orizon-lang/rulefilter/internal/match"
	"github.com/orizon-lang/rulefilter/internal/oracle"
	"github.com/orizon-lang/rulefilter/internal/synth"
)

// Rule is one candidate rewrite rule. Origin retains the unmutated parsed
// form for reporting and for identity-based self-exclusion in the domination
// check; LHS, RHS, and Predicate are rewritten by re-synthesis.
type Rule struct {
	LHS       expr.ID
	RHS       expr.ID
	Predicate expr.ID
	Origin    expr.ID
}

// Status classifies the outcome for one rule.
type Status int

const (
	StatusGood Status = iota
	StatusFalsePredicate
	StatusImplicit
	StatusSimplifiable
	StatusTooSpecific
)

// String returns the report tag for the status.
func (s Status) String() string {
	switch s {
	case StatusGood:
		return "good"
	case StatusFalsePredicate:
		return "false predicate"
	case StatusImplicit:
		return "implicit rule"
	case StatusSimplifiable:
		return "simplifiable lhs"
	case StatusTooSpecific:
		return "too specific"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Verdict is the decision for one rule, with the supporting detail the
// report needs.
type Verdict struct {
	Rule      *Rule
	Status    Status
	Reduced   expr.ID // simplified lhs, for StatusSimplifiable
	Dominator *Rule   // the more general rule, for StatusTooSpecific
}

// Config holds the session bounds.
type Config struct {
	Synth synth.Config
	// Jobs limits concurrent rule processing; zero or below means one
	// worker per CPU.
	Jobs int
}

// DefaultConfig returns the bounds used by the command-line tool.
func DefaultConfig() Config {
	return Config{Synth: synth.DefaultConfig()}
}

// Session owns one classification run over a rule corpus.
type Session struct {
	arena *expr.Arena
	orc   oracle.Oracle
	cfg   Config
	rules []*Rule
}

// NewSession creates a session over the arena with the injected oracle.
func NewSession(a *expr.Arena, orc oracle.Oracle, cfg Config) *Session {
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.NumCPU()
	}
	return &Session{arena: a, orc: orc, cfg: cfg}
}

// AddTerms validates and adopts parsed top-level terms as candidate rules.
// A term that is not a 3-argument rewrite(...) construct is a fatal input
// error: the session takes nothing and the caller aborts the run.
func (s *Session) AddTerms(terms []expr.ID) error {
	a := s.arena
	rules := make([]*Rule, 0, len(terms))
	for _, t := range terms {
		if a.Kind(t) != expr.KindCall || a.Name(t) != "rewrite" {
			return fmt.Errorf("expression is not a rewrite rule: %s", a.Format(t))
		}
		args := a.Children(t)
		if len(args) != 3 {
			return fmt.Errorf("rewrite takes 3 arguments, found %d: %s", len(args), a.Format(t))
		}
		rules = append(rules, &Rule{LHS: args[0], RHS: args[1], Predicate: args[2], Origin: t})
	}
	s.rules = append(s.rules, rules...)
	return nil
}

// Rules returns the current candidate list in its current order.
func (s *Session) Rules() []*Rule {
	return s.rules
}

// Run executes the full pipeline and writes the report. One line per
// deduplicated rule announces re-synthesis, then exactly one classification
// line per rule follows, all in canonical sorted order.
func (s *Session) Run(w io.Writer) error {
	verdicts := s.Classify()
	for _, v := range verdicts {
		if _, err := fmt.Fprintf(w, "Re-synthesizing predicate for %s\n", s.arena.Format(v.Rule.Origin)); err != nil {
			return err
		}
	}
	for _, v := range verdicts {
		if err := s.report(w, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) report(w io.Writer, v Verdict) error {
	a := s.arena
	var err error
	switch v.Status {
	case StatusFalsePredicate:
		_, err = fmt.Fprintf(w, "False predicate: %s\n", a.Format(v.Rule.Origin))
	case StatusImplicit:
		_, err = fmt.Fprintf(w, "Implicit rule: %s\n", a.Format(v.Rule.Origin))
	case StatusSimplifiable:
		_, err = fmt.Fprintf(w, "Simplifiable LHS: %s -> %s\n", a.Format(v.Rule.LHS), a.Format(v.Reduced))
	case StatusTooSpecific:
		_, err = fmt.Fprintf(w, "Too specific: %s vs %s\n", a.Format(v.Rule.Origin), a.Format(v.Dominator.Origin))
	case StatusGood:
		_, err = fmt.Fprintf(w, "Good rule: rewrite(%s, %s, %s)\n",
			a.Format(v.Rule.LHS), a.Format(v.Rule.RHS), a.Format(v.Rule.Predicate))
	}
	return err
}

// Classify runs the pipeline stages and returns one verdict per
// deduplicated rule, in canonical sorted order.
func (s *Session) Classify() []Verdict {
	s.dedup()

	// Stages 2-5 are independent across rules; each worker owns its rule.
	verdicts := make([]Verdict, len(s.rules))
	var g errgroup.Group
	g.SetLimit(s.cfg.Jobs)
	for i, r := range s.rules {
		i, r := i, r
		g.Go(func() error {
			verdicts[i] = s.classifyLocal(r)
			return nil
		})
	}
	_ = g.Wait() // workers record verdicts and never return errors

	// Stage 6: pairwise domination over the surviving candidates only,
	// read-only, parallel across rules.
	var survivors []*Rule
	for _, v := range verdicts {
		if v.Status == StatusGood {
			survivors = append(survivors, v.Rule)
		}
	}
	var g2 errgroup.Group
	g2.SetLimit(s.cfg.Jobs)
	for i := range verdicts {
		if verdicts[i].Status != StatusGood {
			continue
		}
		i := i
		g2.Go(func() error {
			if dom := s.dominator(verdicts[i].Rule, survivors); dom != nil {
				verdicts[i].Status = StatusTooSpecific
				verdicts[i].Dominator = dom
			}
			return nil
		})
	}
	_ = g2.Wait()

	return verdicts
}

// dedup sorts the corpus by structural order on origin and collapses
// adjacent duplicates, so identical candidates are processed once.
func (s *Session) dedup() {
	a := s.arena
	sort.SliceStable(s.rules, func(i, j int) bool {
		return a.Compare(s.rules[i].Origin, s.rules[j].Origin) < 0
	})
	out := s.rules[:0]
	var last *Rule
	for _, r := range s.rules {
		if last != nil && a.Equal(r.Origin, last.Origin) {
			continue
		}
		out = append(out, r)
		last = r
	}
	s.rules = out
}

// classifyLocal runs re-synthesis and the per-rule filters (stages 2-5).
func (s *Session) classifyLocal(r *Rule) Verdict {
	a := s.arena

	// Stage 2: replace the predicate with a freshly synthesized one and
	// fold the discovered binding into the rule.
	sy := synth.New(a, s.orc, s.cfg.Synth)
	pred, binding := sy.Synthesize(r.LHS, r.RHS)
	r.Predicate = pred
	r.LHS = a.Substitute(binding, r.LHS)
	r.RHS = a.Substitute(binding, r.RHS)

	// Stage 3: vacuous predicate.
	if a.IsFalse(r.Predicate) {
		return Verdict{Rule: r, Status: StatusFalsePredicate}
	}

	// Stage 4: implicit rule — every wildcard free in the rhs must occur
	// in the lhs.
	for name := range a.FreePatternVars(r.RHS) {
		if !a.UsesVar(r.LHS, name) {
			return Verdict{Rule: r, Status: StatusImplicit}
		}
	}

	// Stage 5: the baseline simplifier already improves the lhs, so the
	// rule is redundant with it.
	reduced := s.orc.Normalize(a, r.LHS)
	if a.LeafCount(reduced) < a.LeafCount(r.LHS) {
		return Verdict{Rule: r, Status: StatusSimplifiable, Reduced: reduced}
	}

	return Verdict{Rule: r, Status: StatusGood}
}

// dominator returns the first surviving candidate that strictly dominates
// r, or nil. A rule never dominates itself: candidates sharing r's origin
// identity are skipped.
func (s *Session) dominator(r *Rule, survivors []*Rule) *Rule {
	a := s.arena
	for _, r2 := range survivors {
		if expr.SameIdentity(r2.Origin, r.Origin) {
			continue
		}
		b, ok := match.MoreGeneralThan(a, r2.LHS, r.LHS)
		if !ok {
			continue
		}
		// Wherever r2's more general pattern matches an instance of r,
		// either r2 already fires or r's own predicate is false; in both
		// cases r contributes nothing. The oracle returning false keeps r.
		claim := a.Or(a.Substitute(b, r2.Predicate), a.Not(r.Predicate))
		if s.orc.IsValid(a, claim) {
			return r2
		}
	}
	return nil
}
