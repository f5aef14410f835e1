// orizon-rulefilter validates and strengthens a corpus of candidate
// conditional rewrite rules for the expression simplifier. For each rule it
// re-synthesizes a sound applicability predicate, then rejects rules that
// are vacuous, implicit, already handled by the baseline simplifier, or
// dominated by a more general rule, and prints one classification line per
// rule.
//
// Usage:
//
//	orizon-rulefilter [flags] rewrite_rules.txt
//
// Flags:
//
//	-max-iters  synthesis iteration bound
//	-radius     half-width of the counterexample search range
//	-jobs       parallel rule workers (default: one per CPU)
//	-watch      re-run classification whenever the rule file changes
//	-verbose    log watch-mode passes
//	-version    print version information and exit
//	-json       with -version, print as JSON
package main

import (
	"flag"
	"fmt"
	"os"

	semver "github.com/Masterminds/semver/v3"
	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/rulefilter/internal/classify"
	"github.com/orizon-lang/rulefilter/internal/cli"
	"github.com/orizon-lang/rulefilter/internal/expr"
	"github.com/orizon-lang/rulefilter/internal/oracle"
	"github.com/orizon-lang/rulefilter/internal/parser"
)

func main() {
	cfg := classify.DefaultConfig()
	var watch, verbose, showVersion, jsonVersion bool
	flag.IntVar(&cfg.Synth.MaxIters, "max-iters", cfg.Synth.MaxIters, "synthesis iteration bound")
	flag.IntVar(&cfg.Synth.Radius, "radius", cfg.Synth.Radius, "half-width of the counterexample search range")
	flag.IntVar(&cfg.Jobs, "jobs", 0, "parallel rule workers (0 = one per CPU)")
	flag.BoolVar(&watch, "watch", false, "re-run classification when the rule file changes")
	flag.BoolVar(&verbose, "verbose", false, "log watch-mode passes")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.BoolVar(&jsonVersion, "json", false, "with -version, print as JSON")
	flag.Parse()

	if showVersion {
		cli.PrintVersion("orizon-rulefilter", jsonVersion)
		return
	}
	if flag.NArg() < 1 {
		fmt.Println("Usage: orizon-rulefilter [flags] rewrite_rules.txt")
		flag.PrintDefaults()
		return
	}
	path := flag.Arg(0)

	if err := run(path, cfg); err != nil {
		cli.ExitWithError("%v", err)
	}
	if !watch {
		return
	}
	if err := watchLoop(path, cfg, cli.NewLogger(verbose)); err != nil {
		cli.ExitWithError("%v", err)
	}
}

// run executes one classification pass over the rule file.
func run(path string, cfg classify.Config) error {
	arena := expr.NewArena()
	res, err := parser.ParseFile(arena, path)
	if err != nil {
		return err
	}
	if err := checkRequires(res.Requires); err != nil {
		return err
	}

	session := classify.NewSession(arena, oracle.NewAlgebraic(), cfg)
	if err := session.AddTerms(res.Terms); err != nil {
		return err
	}
	return session.Run(os.Stdout)
}

// checkRequires enforces the corpus's tool-version directives.
func checkRequires(reqs []string) error {
	if len(reqs) == 0 {
		return nil
	}
	v := semver.MustParse(cli.Version)
	for _, req := range reqs {
		c, err := semver.NewConstraint(req)
		if err != nil {
			return fmt.Errorf("bad requires directive %q: %w", req, err)
		}
		if !c.Check(v) {
			return fmt.Errorf("rule file requires tool version %q, this is %s", req, cli.Version)
		}
	}
	return nil
}

// watchLoop re-runs classification whenever the rule file is rewritten.
// Failures of individual passes are reported and the watch continues; only
// watcher breakage ends the loop.
func watchLoop(path string, cfg classify.Config, log *cli.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	log.Info("watching %s", path)

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Editors replace files on save; re-arm the watch on the path.
			_ = w.Add(path)
			log.Info("change detected, reclassifying %s", path)
			if err := run(path, cfg); err != nil {
				log.Warn("%v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher: %w", err)
		}
	}
}
