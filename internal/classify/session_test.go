package classify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/orizon-lang/rulefilter/internal/expr"
	"github.com/orizon-lang/rulefilter/internal/oracle"
	"github.com/orizon-lang/rulefilter/internal/parser"
)

func runCorpus(t *testing.T, src string) string {
	t.Helper()
	a := expr.NewArena()
	res, err := parser.Parse(a, []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	s := NewSession(a, oracle.NewAlgebraic(), DefaultConfig())
	if err := s.AddTerms(res.Terms); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := s.Run(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestRunSimplifiableLHS(t *testing.T) {
	got := runCorpus(t, "rewrite(x - x, 0, true)")
	want := "Re-synthesizing predicate for rewrite((x - x), 0, true)\n" +
		"Simplifiable LHS: (x - x) -> 0\n"
	if got != want {
		t.Errorf("got:\n%swant:\n%s", got, want)
	}
}

func TestRunFalsePredicate(t *testing.T) {
	got := runCorpus(t, "rewrite(x*2, x*3, true)")
	want := "Re-synthesizing predicate for rewrite((x*2), (x*3), true)\n" +
		"False predicate: rewrite((x*2), (x*3), true)\n"
	if got != want {
		t.Errorf("got:\n%swant:\n%s", got, want)
	}
}

func TestRunImplicitRule(t *testing.T) {
	got := runCorpus(t, "rewrite(y, x, true)")
	want := "Re-synthesizing predicate for rewrite(y, x, true)\n" +
		"Implicit rule: rewrite(y, x, true)\n"
	if got != want {
		t.Errorf("got:\n%swant:\n%s", got, want)
	}
}

// TestRunDomination feeds a specific rule together with the general rule
// that covers it. The specific rule must be dropped and the general one kept
// with its synthesized guard.
func TestRunDomination(t *testing.T) {
	got := runCorpus(t, `
rewrite(x + 0, x, true)
rewrite(x + y, x, true)
`)
	want := "Re-synthesizing predicate for rewrite((x + 0), x, true)\n" +
		"Re-synthesizing predicate for rewrite((x + y), x, true)\n" +
		"Too specific: rewrite((x + 0), x, true) vs rewrite((x + y), x, true)\n" +
		"Good rule: rewrite((x + y), x, (y == 0))\n"
	if got != want {
		t.Errorf("got:\n%swant:\n%s", got, want)
	}
}

// TestRunConstantWildcardPinning checks that an ambiguous constant wildcard
// is resolved by binding rather than by predicate, and the binding shows up
// in the reported rule.
func TestRunConstantWildcardPinning(t *testing.T) {
	got := runCorpus(t, "rewrite(x + c0, x, c0 == 0)")
	want := "Re-synthesizing predicate for rewrite((x + c0), x, (c0 == 0))\n" +
		"Good rule: rewrite((x + 0), x, true)\n"
	if got != want {
		t.Errorf("got:\n%swant:\n%s", got, want)
	}
}

func TestRunNoSelfDomination(t *testing.T) {
	got := runCorpus(t, "rewrite(x + y, x, true)")
	if !strings.Contains(got, "Good rule: rewrite((x + y), x, (y == 0))") {
		t.Errorf("a lone rule must not dominate itself:\n%s", got)
	}
}

func TestRunDeduplicates(t *testing.T) {
	got := runCorpus(t, `
rewrite(x - x, 0, true)
rewrite(x - x, 0, true)
rewrite(x - x, 0, true)
`)
	if n := strings.Count(got, "Re-synthesizing"); n != 1 {
		t.Errorf("duplicates must collapse to one rule, got %d re-synthesis lines:\n%s", n, got)
	}
	if n := strings.Count(got, "Simplifiable LHS"); n != 1 {
		t.Errorf("expected exactly one classification line:\n%s", got)
	}
}

// TestRunOrderIndependent reverses the corpus order; the sorted pipeline
// must produce byte-identical output.
func TestRunOrderIndependent(t *testing.T) {
	fwd := runCorpus(t, "rewrite(x + 0, x, true)\nrewrite(x + y, x, true)\n")
	rev := runCorpus(t, "rewrite(x + y, x, true)\nrewrite(x + 0, x, true)\n")
	if fwd != rev {
		t.Errorf("output depends on input order:\nforward:\n%s\nreversed:\n%s", fwd, rev)
	}
}

// TestRunClosure re-feeds the accepted rules; a second pass must keep them.
func TestRunClosure(t *testing.T) {
	first := runCorpus(t, "rewrite(x + 0, x, true)\nrewrite(x + y, x, true)\n")
	var kept []string
	for _, line := range strings.Split(first, "\n") {
		if rest, ok := strings.CutPrefix(line, "Good rule: "); ok {
			kept = append(kept, rest)
		}
	}
	if len(kept) == 0 {
		t.Fatal("no accepted rules to re-run")
	}
	second := runCorpus(t, strings.Join(kept, "\n"))
	for _, r := range kept {
		if !strings.Contains(second, "Good rule: "+r) {
			t.Errorf("accepted rule %s did not survive a second pass:\n%s", r, second)
		}
	}
}

func TestAddTermsRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		frag string
	}{
		{"not a rewrite", "x + 0", "not a rewrite rule"},
		{"other call", "fold(x, x)", "not a rewrite rule"},
		{"wrong arity", "rewrite(x, x)", "rewrite takes 3 arguments"},
	}
	for _, tt := range tests {
		a := expr.NewArena()
		res, err := parser.Parse(a, []byte(tt.src))
		if err != nil {
			t.Fatalf("%s: parse: %v", tt.name, err)
		}
		s := NewSession(a, oracle.NewAlgebraic(), DefaultConfig())
		err = s.AddTerms(res.Terms)
		if err == nil {
			t.Errorf("%s: AddTerms accepted %q", tt.name, tt.src)
			continue
		}
		if !strings.Contains(err.Error(), tt.frag) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.frag)
		}
		if len(s.Rules()) != 0 {
			t.Errorf("%s: session adopted rules from a rejected batch", tt.name)
		}
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusGood, "good"},
		{StatusFalsePredicate, "false predicate"},
		{StatusImplicit, "implicit rule"},
		{StatusSimplifiable, "simplifiable lhs"},
		{StatusTooSpecific, "too specific"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}
