package expr

// FreePatternVars returns the set of distinct pattern-variable names
// occurring in the tree. Const, Bool, and Var leaves contribute nothing.
func (a *Arena) FreePatternVars(id ID) map[string]struct{} {
	vars := make(map[string]struct{})
	a.collectPatternVars(id, vars)
	return vars
}

func (a *Arena) collectPatternVars(id ID, vars map[string]struct{}) {
	n := a.node(id)
	if n.kind == KindPattern {
		vars[n.name] = struct{}{}
		return
	}
	for _, k := range n.kids {
		a.collectPatternVars(k, vars)
	}
}

// UsesVar reports whether name occurs as a pattern-variable leaf anywhere in
// the tree.
func (a *Arena) UsesVar(id ID, name string) bool {
	n := a.node(id)
	if n.kind == KindPattern {
		return n.name == name
	}
	for _, k := range n.kids {
		if a.UsesVar(k, name) {
			return true
		}
	}
	return false
}

// FreeNames returns the names of all Var and Pattern leaves in the tree.
// Counterexample search assigns an integer to every one of them.
func (a *Arena) FreeNames(id ID) map[string]struct{} {
	names := make(map[string]struct{})
	a.collectNames(id, names)
	return names
}

func (a *Arena) collectNames(id ID, names map[string]struct{}) {
	n := a.node(id)
	switch n.kind {
	case KindVar, KindPattern:
		names[n.name] = struct{}{}
		return
	}
	for _, k := range n.kids {
		a.collectNames(k, names)
	}
}

// LeafCount counts constant and variable occurrences (Const, Bool, Var, and
// Pattern leaves), ignoring operator nodes. Used as the redundancy metric
// against the baseline normalizer.
func (a *Arena) LeafCount(id ID) int {
	n := a.node(id)
	switch n.kind {
	case KindConst, KindBool, KindVar, KindPattern:
		return 1
	}
	total := 0
	for _, k := range n.kids {
		total += a.LeafCount(k)
	}
	return total
}
