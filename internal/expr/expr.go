// Package expr defines the expression-tree model used by the rewrite-rule
// filter. Trees are built out of a closed set of node kinds and live in an
// index-addressed arena with structural interning: constructing a node that
// is structurally equal to an existing one yields the same ID, so identity
// comparison and structural comparison coincide. Nodes are immutable once
// constructed; transformations build new trees via substitution.
package expr

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Kind identifies the variant of a node. The set is closed: every consumer
// switches exhaustively over it, so adding a kind forces all consumers to be
// updated.
type Kind uint8

const (
	KindConst   Kind = iota // integer immediate
	KindBool                // boolean immediate
	KindVar                 // named mathematical variable
	KindPattern             // rule-level wildcard
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindMin
	KindMax
	KindLT
	KindLE
	KindEQ
	KindNE
	KindAnd
	KindOr
	KindNot
	KindSelect
	KindCall // named call form, e.g. the top-level rewrite(lhs, rhs, pred)
)

var kindNames = map[Kind]string{
	KindConst:   "const",
	KindBool:    "bool",
	KindVar:     "var",
	KindPattern: "pattern",
	KindAdd:     "add",
	KindSub:     "sub",
	KindMul:     "mul",
	KindDiv:     "div",
	KindMin:     "min",
	KindMax:     "max",
	KindLT:      "lt",
	KindLE:      "le",
	KindEQ:      "eq",
	KindNE:      "ne",
	KindAnd:     "and",
	KindOr:      "or",
	KindNot:     "not",
	KindSelect:  "select",
	KindCall:    "call",
}

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Commutative reports whether operand order is irrelevant for the kind.
func (k Kind) Commutative() bool {
	switch k {
	case KindAdd, KindMul, KindMin, KindMax:
		return true
	}
	return false
}

// ID addresses a node inside an Arena.
type ID int32

// NoID is the zero value used where no node is present.
const NoID ID = -1

type node struct {
	kind  Kind
	value int64  // KindConst value; KindBool 0 or 1
	name  string // KindVar, KindPattern, KindCall
	kids  []ID
}

// Arena owns a set of interned expression nodes. Construction is guarded by
// a mutex so classification stages may build nodes concurrently; lookups of
// already-built nodes take a read lock only.
type Arena struct {
	mu     sync.RWMutex
	nodes  []node
	intern map[string]ID
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{intern: make(map[string]ID)}
}

// internKey encodes a node's full structure; structurally equal nodes encode
// to the same key. The name is length-prefixed so a name containing the
// separator cannot collide with an encoded child list.
func internKey(n node) string {
	var b strings.Builder
	b.WriteByte(byte(n.kind))
	b.WriteString(strconv.FormatInt(n.value, 10))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(len(n.name)))
	b.WriteByte(':')
	b.WriteString(n.name)
	for _, k := range n.kids {
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(int64(k), 10))
	}
	return b.String()
}

func (a *Arena) add(n node) ID {
	key := internKey(n)
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.intern[key]; ok {
		return id
	}
	id := ID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	a.intern[key] = id
	return id
}

func (a *Arena) node(id ID) node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.nodes[id]
}

// Len returns the number of distinct nodes in the arena.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.nodes)
}

// Kind returns the kind tag of id.
func (a *Arena) Kind(id ID) Kind { return a.node(id).kind }

// Value returns the integer payload of a KindConst or KindBool node.
func (a *Arena) Value(id ID) int64 { return a.node(id).value }

// Name returns the name payload of a KindVar, KindPattern, or KindCall node.
func (a *Arena) Name(id ID) string { return a.node(id).name }

// Children returns the child IDs of id. The returned slice must not be
// modified.
func (a *Arena) Children(id ID) []ID { return a.node(id).kids }

// IsTrue reports whether id is the boolean constant true.
func (a *Arena) IsTrue(id ID) bool {
	n := a.node(id)
	return n.kind == KindBool && n.value != 0
}

// IsFalse reports whether id is the boolean constant false.
func (a *Arena) IsFalse(id ID) bool {
	n := a.node(id)
	return n.kind == KindBool && n.value == 0
}

// Const interns an integer immediate.
func (a *Arena) Const(v int64) ID {
	return a.add(node{kind: KindConst, value: v})
}

// Bool interns a boolean immediate.
func (a *Arena) Bool(v bool) ID {
	var n int64
	if v {
		n = 1
	}
	return a.add(node{kind: KindBool, value: n})
}

// Var interns a named mathematical variable.
func (a *Arena) Var(name string) ID {
	return a.add(node{kind: KindVar, name: name})
}

// Pattern interns a rule-level wildcard.
func (a *Arena) Pattern(name string) ID {
	return a.add(node{kind: KindPattern, name: name})
}

// Binary interns a binary node of the given kind.
func (a *Arena) Binary(k Kind, l, r ID) ID {
	switch k {
	case KindAdd, KindSub, KindMul, KindDiv, KindMin, KindMax,
		KindLT, KindLE, KindEQ, KindNE, KindAnd, KindOr:
		return a.add(node{kind: k, kids: []ID{l, r}})
	}
	panic(fmt.Sprintf("expr: %v is not a binary kind", k))
}

// Add interns l + r.
func (a *Arena) Add(l, r ID) ID { return a.Binary(KindAdd, l, r) }

// Sub interns l - r.
func (a *Arena) Sub(l, r ID) ID { return a.Binary(KindSub, l, r) }

// Mul interns l * r.
func (a *Arena) Mul(l, r ID) ID { return a.Binary(KindMul, l, r) }

// Div interns l / r (floor division, divide-by-zero yields zero).
func (a *Arena) Div(l, r ID) ID { return a.Binary(KindDiv, l, r) }

// Min interns min(l, r).
func (a *Arena) Min(l, r ID) ID { return a.Binary(KindMin, l, r) }

// Max interns max(l, r).
func (a *Arena) Max(l, r ID) ID { return a.Binary(KindMax, l, r) }

// LT interns l < r.
func (a *Arena) LT(l, r ID) ID { return a.Binary(KindLT, l, r) }

// LE interns l <= r.
func (a *Arena) LE(l, r ID) ID { return a.Binary(KindLE, l, r) }

// EQ interns l == r.
func (a *Arena) EQ(l, r ID) ID { return a.Binary(KindEQ, l, r) }

// NE interns l != r.
func (a *Arena) NE(l, r ID) ID { return a.Binary(KindNE, l, r) }

// And interns l && r.
func (a *Arena) And(l, r ID) ID { return a.Binary(KindAnd, l, r) }

// Or interns l || r.
func (a *Arena) Or(l, r ID) ID { return a.Binary(KindOr, l, r) }

// Not interns !x.
func (a *Arena) Not(x ID) ID {
	return a.add(node{kind: KindNot, kids: []ID{x}})
}

// Select interns select(cond, t, f).
func (a *Arena) Select(cond, t, f ID) ID {
	return a.add(node{kind: KindSelect, kids: []ID{cond, t, f}})
}

// Call interns a named call form with the given arguments.
func (a *Arena) Call(name string, args ...ID) ID {
	kids := make([]ID, len(args))
	copy(kids, args)
	return a.add(node{kind: KindCall, name: name, kids: kids})
}

// Rebuild interns a node of the same shape as id but with the given
// children. If the children are unchanged the original ID is returned.
func (a *Arena) Rebuild(id ID, kids []ID) ID {
	n := a.node(id)
	same := len(kids) == len(n.kids)
	if same {
		for i, k := range kids {
			if k != n.kids[i] {
				same = false
				break
			}
		}
	}
	if same {
		return id
	}
	nn := node{kind: n.kind, value: n.value, name: n.name, kids: append([]ID(nil), kids...)}
	return a.add(nn)
}
