// Package parser turns a textual rule corpus into expression trees. The
// surface syntax is parenthesized infix arithmetic with min/max/select call
// forms and a top-level rewrite(lhs, rhs, predicate) construct per rule.
package parser

import (
	"fmt"
	"strings"
)

// TokenType identifies a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError
	TokenInt
	TokenIdent
	TokenTrue
	TokenFalse
	TokenLParen
	TokenRParen
	TokenComma
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenEqEq
	TokenNe
	TokenAndAnd
	TokenOrOr
	TokenBang
)

var tokenNames = map[TokenType]string{
	TokenEOF:    "EOF",
	TokenError:  "ERROR",
	TokenInt:    "INT",
	TokenIdent:  "IDENT",
	TokenTrue:   "true",
	TokenFalse:  "false",
	TokenLParen: "(",
	TokenRParen: ")",
	TokenComma:  ",",
	TokenPlus:   "+",
	TokenMinus:  "-",
	TokenStar:   "*",
	TokenSlash:  "/",
	TokenLt:     "<",
	TokenLe:     "<=",
	TokenGt:     ">",
	TokenGe:     ">=",
	TokenEqEq:   "==",
	TokenNe:     "!=",
	TokenAndAnd: "&&",
	TokenOrOr:   "||",
	TokenBang:   "!",
}

// String returns the display name of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a lexeme with its source line for diagnostics.
type Token struct {
	Type TokenType
	Text string
	Line int
}

// lexer scans the source byte slice. Comment lines beginning with # are
// skipped, except that "# requires:" directives are collected for the
// driver's tool-version check.
type lexer struct {
	src        string
	pos        int
	line       int
	directives []string
}

func newLexer(src []byte) *lexer {
	return &lexer{src: string(src), line: 1}
}

func (l *lexer) errorf(format string, args ...interface{}) Token {
	return Token{Type: TokenError, Text: fmt.Sprintf(format, args...), Line: l.line}
}

func (l *lexer) next() Token {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			l.skipHashLine()
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			l.skipToEOL()
		default:
			return l.scan()
		}
	}
	return Token{Type: TokenEOF, Line: l.line}
}

func (l *lexer) skipToEOL() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

func (l *lexer) skipHashLine() {
	start := l.pos
	l.skipToEOL()
	text := strings.TrimSpace(strings.TrimPrefix(l.src[start:l.pos], "#"))
	if rest, ok := strings.CutPrefix(text, "requires:"); ok {
		l.directives = append(l.directives, strings.TrimSpace(rest))
	}
}

func (l *lexer) scan() Token {
	c := l.src[l.pos]
	switch {
	case c >= '0' && c <= '9':
		start := l.pos
		for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			l.pos++
		}
		return Token{Type: TokenInt, Text: l.src[start:l.pos], Line: l.line}
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		text := l.src[start:l.pos]
		switch text {
		case "true":
			return Token{Type: TokenTrue, Text: text, Line: l.line}
		case "false":
			return Token{Type: TokenFalse, Text: text, Line: l.line}
		}
		return Token{Type: TokenIdent, Text: text, Line: l.line}
	}

	if l.pos+1 < len(l.src) {
		two := l.src[l.pos : l.pos+2]
		if t, ok := twoCharTokens[two]; ok {
			l.pos += 2
			return Token{Type: t, Text: two, Line: l.line}
		}
	}
	if t, ok := oneCharTokens[c]; ok {
		l.pos++
		return Token{Type: t, Text: string(c), Line: l.line}
	}
	l.pos++
	return l.errorf("unexpected character %q", c)
}

var twoCharTokens = map[string]TokenType{
	"<=": TokenLe,
	">=": TokenGe,
	"==": TokenEqEq,
	"!=": TokenNe,
	"&&": TokenAndAnd,
	"||": TokenOrOr,
}

var oneCharTokens = map[byte]TokenType{
	'(': TokenLParen,
	')': TokenRParen,
	',': TokenComma,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'<': TokenLt,
	'>': TokenGt,
	'!': TokenBang,
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
