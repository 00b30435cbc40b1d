// Package wkt parses and formats Well-Known Text geometries.
package wkt

import (
	"fmt"
	"strings"
)

// ParseError is returned for malformed WKT. Pos is the character offset in
// Input at which the problem was detected.
type ParseError struct {
	Pos   int
	Msg   string
	Input string
}

func (e *ParseError) Error() string {
	pos := e.Pos
	if pos > len(e.Input) {
		pos = len(e.Input)
	}
	return fmt.Sprintf("wkt: %s at pos %d\n%s\n%s^", e.Msg, e.Pos, e.Input, strings.Repeat(" ", pos))
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokNumber
	tokLParen
	tokRParen
	tokComma
	tokSemicolon
	tokEquals
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokWord:
		return "word"
	case tokNumber:
		return "number"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokSemicolon:
		return "';'"
	case tokEquals:
		return "'='"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	input  string
	pos    int
	peeked *token
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isNumStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func isNumChar(c byte) bool {
	return isNumStart(c) || c == 'e' || c == 'E'
}

func (l *lexer) errorf(pos int, format string, args ...interface{}) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...), Input: l.input}
}

func (l *lexer) peek() (token, error) {
	if l.peeked == nil {
		t, err := l.scan()
		if err != nil {
			return t, err
		}
		l.peeked = &t
	}
	return *l.peeked, nil
}

func (l *lexer) next() (token, error) {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t, nil
	}
	return l.scan()
}

func (l *lexer) scan() (token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := l.input[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case c == ';':
		l.pos++
		return token{kind: tokSemicolon, text: ";", pos: start}, nil
	case c == '=':
		l.pos++
		return token{kind: tokEquals, text: "=", pos: start}, nil
	case isLetter(c):
		for l.pos < len(l.input) && isLetter(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokWord, text: l.input[start:l.pos], pos: start}, nil
	case isNumStart(c):
		for l.pos < len(l.input) && isNumChar(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokNumber, text: l.input[start:l.pos], pos: start}, nil
	default:
		l.pos++
		return token{}, l.errorf(start, "invalid character %q", c)
	}
}

func (l *lexer) expect(kind tokenKind) (token, error) {
	t, err := l.next()
	if err != nil {
		return t, err
	}
	if t.kind != kind {
		return t, l.errorf(t.pos, "expected %s, found %s", kind, describe(t))
	}
	return t, nil
}

func describe(t token) string {
	if t.kind == tokWord || t.kind == tokNumber {
		return fmt.Sprintf("%s %q", t.kind, t.text)
	}
	return t.kind.String()
}
