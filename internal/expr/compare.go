package expr

import "strings"

// Compare imposes a strict total order over trees: by kind tag first, then
// children pairwise left-to-right, then leaf payload. The result follows the
// strings.Compare convention (-1, 0, +1). Structural comparison is the
// source of truth for equality; ID identity is only a fast path.
func (a *Arena) Compare(x, y ID) int {
	if x == y {
		// Interning guarantees structurally equal trees share an ID.
		return 0
	}
	nx, ny := a.node(x), a.node(y)
	if nx.kind != ny.kind {
		if nx.kind < ny.kind {
			return -1
		}
		return 1
	}
	if len(nx.kids) != len(ny.kids) {
		if len(nx.kids) < len(ny.kids) {
			return -1
		}
		return 1
	}
	for i := range nx.kids {
		if c := a.Compare(nx.kids[i], ny.kids[i]); c != 0 {
			return c
		}
	}
	switch nx.kind {
	case KindConst, KindBool:
		switch {
		case nx.value < ny.value:
			return -1
		case nx.value > ny.value:
			return 1
		}
		return 0
	default:
		return strings.Compare(nx.name, ny.name)
	}
}

// Equal reports structural equality of two trees.
func (a *Arena) Equal(x, y ID) bool {
	return a.Compare(x, y) == 0
}

// SameIdentity reports whether two IDs address the same arena slot. Usable
// as a cheap pre-filter; never required for correctness.
func SameIdentity(x, y ID) bool {
	return x == y
}
