package parser

import (
	"fmt"
	"os"
	"strconv"

	"github.com/orizon-lang/rulefilter/internal/expr"
)

// Result is the parsed content of a rule corpus: an ordered sequence of
// top-level trees plus any "# requires:" tool-version directives.
type Result struct {
	Terms    []expr.ID
	Requires []string
}

// ParseFile reads and parses the rule corpus at path, interning trees into
// the arena.
func ParseFile(a *expr.Arena, path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}
	res, err := Parse(a, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Parse parses a rule corpus from source bytes. Parsing is all-or-nothing:
// any malformed term fails the whole corpus.
func Parse(a *expr.Arena, src []byte) (*Result, error) {
	p := &parser{arena: a, lex: newLexer(src)}
	p.advance()

	res := &Result{}
	for p.tok.Type != TokenEOF {
		term, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		res.Terms = append(res.Terms, term)
	}
	res.Requires = p.lex.directives
	return res, nil
}

type parser struct {
	arena *expr.Arena
	lex   *lexer
	tok   Token
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s", p.tok.Line, fmt.Sprintf(format, args...))
}

func (p *parser) expect(t TokenType) error {
	if p.tok.Type != t {
		return p.errorf("expected %v, found %q", t, p.tok.Text)
	}
	p.advance()
	return nil
}

// parseExpr parses a full expression starting at the || level.
func (p *parser) parseExpr() (expr.ID, error) {
	left, err := p.parseAnd()
	if err != nil {
		return expr.NoID, err
	}
	for p.tok.Type == TokenOrOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return expr.NoID, err
		}
		left = p.arena.Or(left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (expr.ID, error) {
	left, err := p.parseComparison()
	if err != nil {
		return expr.NoID, err
	}
	for p.tok.Type == TokenAndAnd {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return expr.NoID, err
		}
		left = p.arena.And(left, right)
	}
	return left, nil
}

func (p *parser) parseComparison() (expr.ID, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return expr.NoID, err
	}
	op := p.tok.Type
	switch op {
	case TokenLt, TokenLe, TokenGt, TokenGe, TokenEqEq, TokenNe:
	default:
		return left, nil
	}
	p.advance()
	right, err := p.parseAdditive()
	if err != nil {
		return expr.NoID, err
	}
	switch op {
	case TokenLt:
		return p.arena.LT(left, right), nil
	case TokenLe:
		return p.arena.LE(left, right), nil
	case TokenGt:
		// a > b is stored as b < a; the model has no Gt kind.
		return p.arena.LT(right, left), nil
	case TokenGe:
		return p.arena.LE(right, left), nil
	case TokenEqEq:
		return p.arena.EQ(left, right), nil
	default:
		return p.arena.NE(left, right), nil
	}
}

func (p *parser) parseAdditive() (expr.ID, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return expr.NoID, err
	}
	for p.tok.Type == TokenPlus || p.tok.Type == TokenMinus {
		op := p.tok.Type
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return expr.NoID, err
		}
		if op == TokenPlus {
			left = p.arena.Add(left, right)
		} else {
			left = p.arena.Sub(left, right)
		}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (expr.ID, error) {
	left, err := p.parseUnary()
	if err != nil {
		return expr.NoID, err
	}
	for p.tok.Type == TokenStar || p.tok.Type == TokenSlash {
		op := p.tok.Type
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return expr.NoID, err
		}
		if op == TokenStar {
			left = p.arena.Mul(left, right)
		} else {
			left = p.arena.Div(left, right)
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (expr.ID, error) {
	switch p.tok.Type {
	case TokenBang:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return expr.NoID, err
		}
		return p.arena.Not(x), nil
	case TokenMinus:
		p.advance()
		if p.tok.Type == TokenInt {
			v, err := strconv.ParseInt(p.tok.Text, 10, 64)
			if err != nil {
				return expr.NoID, p.errorf("bad integer literal %q", p.tok.Text)
			}
			p.advance()
			return p.arena.Const(-v), nil
		}
		x, err := p.parseUnary()
		if err != nil {
			return expr.NoID, err
		}
		return p.arena.Sub(p.arena.Const(0), x), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (expr.ID, error) {
	switch p.tok.Type {
	case TokenInt:
		v, err := strconv.ParseInt(p.tok.Text, 10, 64)
		if err != nil {
			return expr.NoID, p.errorf("bad integer literal %q", p.tok.Text)
		}
		p.advance()
		return p.arena.Const(v), nil
	case TokenTrue:
		p.advance()
		return p.arena.Bool(true), nil
	case TokenFalse:
		p.advance()
		return p.arena.Bool(false), nil
	case TokenLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return expr.NoID, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return expr.NoID, err
		}
		return inner, nil
	case TokenIdent:
		name := p.tok.Text
		p.advance()
		if p.tok.Type != TokenLParen {
			// Bare identifiers are rule-level wildcards.
			return p.arena.Pattern(name), nil
		}
		return p.parseCall(name)
	case TokenError:
		return expr.NoID, p.errorf("%s", p.tok.Text)
	}
	return expr.NoID, p.errorf("unexpected token %q", p.tok.Text)
}

func (p *parser) parseCall(name string) (expr.ID, error) {
	if err := p.expect(TokenLParen); err != nil {
		return expr.NoID, err
	}
	var args []expr.ID
	for p.tok.Type != TokenRParen {
		if len(args) > 0 {
			if err := p.expect(TokenComma); err != nil {
				return expr.NoID, err
			}
		}
		arg, err := p.parseExpr()
		if err != nil {
			return expr.NoID, err
		}
		args = append(args, arg)
	}
	p.advance() // past )

	switch name {
	case "min", "max":
		if len(args) != 2 {
			return expr.NoID, p.errorf("%s takes 2 arguments, found %d", name, len(args))
		}
		if name == "min" {
			return p.arena.Min(args[0], args[1]), nil
		}
		return p.arena.Max(args[0], args[1]), nil
	case "select":
		if len(args) != 3 {
			return expr.NoID, p.errorf("select takes 3 arguments, found %d", len(args))
		}
		return p.arena.Select(args[0], args[1], args[2]), nil
	}
	return p.arena.Call(name, args...), nil
}
