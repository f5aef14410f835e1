package expr

import "fmt"

// Example assigns a concrete integer to each variable name. Boolean values
// are encoded as 0 and 1.
type Example map[string]int64

// FloorDiv is the division used throughout: the quotient rounds toward
// negative infinity, and division by zero yields zero. The constant folder
// and the evaluator must agree on this definition.
func FloorDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Eval computes the integer value of the tree under the example. Var and
// Pattern leaves both read the assignment; a name missing from the example
// is an error. Call nodes do not evaluate.
func (a *Arena) Eval(id ID, ex Example) (int64, error) {
	n := a.node(id)
	switch n.kind {
	case KindConst, KindBool:
		return n.value, nil
	case KindVar, KindPattern:
		v, ok := ex[n.name]
		if !ok {
			return 0, fmt.Errorf("expr: no value for %q in example", n.name)
		}
		return v, nil
	case KindNot:
		v, err := a.Eval(n.kids[0], ex)
		if err != nil {
			return 0, err
		}
		if v == 0 {
			return 1, nil
		}
		return 0, nil
	case KindSelect:
		c, err := a.Eval(n.kids[0], ex)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return a.Eval(n.kids[1], ex)
		}
		return a.Eval(n.kids[2], ex)
	}

	l, err := a.Eval(n.kids[0], ex)
	if err != nil {
		return 0, err
	}
	r, err := a.Eval(n.kids[1], ex)
	if err != nil {
		return 0, err
	}
	switch n.kind {
	case KindAdd:
		return l + r, nil
	case KindSub:
		return l - r, nil
	case KindMul:
		return l * r, nil
	case KindDiv:
		return FloorDiv(l, r), nil
	case KindMin:
		if l < r {
			return l, nil
		}
		return r, nil
	case KindMax:
		if l > r {
			return l, nil
		}
		return r, nil
	case KindLT:
		return boolVal(l < r), nil
	case KindLE:
		return boolVal(l <= r), nil
	case KindEQ:
		return boolVal(l == r), nil
	case KindNE:
		return boolVal(l != r), nil
	case KindAnd:
		return boolVal(l != 0 && r != 0), nil
	case KindOr:
		return boolVal(l != 0 || r != 0), nil
	}
	return 0, fmt.Errorf("expr: cannot evaluate %v node", n.kind)
}

func boolVal(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
