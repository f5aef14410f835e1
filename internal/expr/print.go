package expr

import (
	"strconv"
	"strings"
)

// Format renders a tree to its canonical text form. Binary operators are
// fully parenthesized so the output is stable and re-parseable; min, max,
// select, and call forms render as calls.
func (a *Arena) Format(id ID) string {
	var b strings.Builder
	a.format(&b, id)
	return b.String()
}

func (a *Arena) format(b *strings.Builder, id ID) {
	n := a.node(id)
	switch n.kind {
	case KindConst:
		b.WriteString(strconv.FormatInt(n.value, 10))
	case KindBool:
		if n.value != 0 {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindVar, KindPattern:
		b.WriteString(n.name)
	case KindAdd:
		a.infix(b, n, " + ")
	case KindSub:
		a.infix(b, n, " - ")
	case KindMul:
		a.infix(b, n, "*")
	case KindDiv:
		a.infix(b, n, "/")
	case KindLT:
		a.infix(b, n, " < ")
	case KindLE:
		a.infix(b, n, " <= ")
	case KindEQ:
		a.infix(b, n, " == ")
	case KindNE:
		a.infix(b, n, " != ")
	case KindAnd:
		a.infix(b, n, " && ")
	case KindOr:
		a.infix(b, n, " || ")
	case KindNot:
		b.WriteByte('!')
		a.format(b, n.kids[0])
	case KindMin:
		a.call(b, "min", n.kids)
	case KindMax:
		a.call(b, "max", n.kids)
	case KindSelect:
		a.call(b, "select", n.kids)
	case KindCall:
		a.call(b, n.name, n.kids)
	}
}

func (a *Arena) infix(b *strings.Builder, n node, op string) {
	b.WriteByte('(')
	a.format(b, n.kids[0])
	b.WriteString(op)
	a.format(b, n.kids[1])
	b.WriteByte(')')
}

func (a *Arena) call(b *strings.Builder, name string, kids []ID) {
	b.WriteString(name)
	b.WriteByte('(')
	for i, k := range kids {
		if i > 0 {
			b.WriteString(", ")
		}
		a.format(b, k)
	}
	b.WriteByte(')')
}
