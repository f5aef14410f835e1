package expr

// Binding maps pattern-variable names to sub-trees. Keys are unique; a
// matcher never produces a name bound to two structurally distinct trees.
type Binding map[string]ID

// Substitute returns the tree obtained by replacing every pattern-variable
// leaf whose name is bound in b with its binding. Unbound leaves and all
// other nodes are left intact; unchanged sub-trees keep their IDs.
func (a *Arena) Substitute(b Binding, id ID) ID {
	if len(b) == 0 {
		return id
	}
	n := a.node(id)
	if n.kind == KindPattern {
		if repl, ok := b[n.name]; ok {
			return repl
		}
		return id
	}
	if len(n.kids) == 0 {
		return id
	}
	kids := make([]ID, len(n.kids))
	for i, k := range n.kids {
		kids[i] = a.Substitute(b, k)
	}
	return a.Rebuild(id, kids)
}
