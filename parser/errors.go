package parser

import (
	"fmt"

	"github.com/finitefield-org/browser-tester-sub000/token"
)

// ParseError is a syntax error with its source position. Incomplete is set
// when the input ended before the construct did, which lets a REPL keep
// reading lines instead of reporting the error.
type ParseError struct {
	Line       int
	Column     int
	Msg        string
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("SyntaxError: %s (%d:%d)", e.Msg, e.Line, e.Column)
}

// bailout unwinds the parser after the first error.
type bailout struct{}

func (p *Parser) failAt(tok token.Token, format string, args ...interface{}) {
	p.err = &ParseError{
		Line:       tok.Line,
		Column:     tok.Column,
		Msg:        fmt.Sprintf(format, args...),
		Incomplete: tok.Type == token.EOF,
	}
	panic(bailout{})
}

func (p *Parser) fail(format string, args ...interface{}) {
	p.failAt(p.curToken, format, args...)
}

func (p *Parser) unexpected() {
	if p.curToken.Type == token.EOF {
		p.fail("Unexpected end of input")
	}
	p.fail("Unexpected token %s", p.curToken.Describe())
}
