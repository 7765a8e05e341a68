package parser

import (
	"strings"

	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/lexer"
	"github.com/finitefield-org/browser-tester-sub000/token"
)

// Precedence levels for binary operators, lowest first.
const (
	_ int = iota
	precNullishCoalesce
	precLogicalOr
	precLogicalAnd
	precBitwiseOr
	precBitwiseXor
	precBitwiseAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precExponent
)

type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
	err       *ParseError

	module      bool
	noIn        bool // 'in' is not a binary operator (for-in heads)
	inFunction  bool
	inGenerator bool
	inAsync     bool

	// parenthesized is the last single expression read between parens;
	// an arrow held here may be called or accessed like any primary.
	parenthesized ast.Expression
}

func newParser(source string, module bool) *Parser {
	return &Parser{l: lexer.New(source), module: module, inAsync: true}
}

// ParseScript parses classic script source. Top-level await is accepted.
func ParseScript(source string) (*ast.Program, error) {
	return newParser(source, false).parseProgram()
}

// ParseModule parses ES module source; import and export are only
// accepted here.
func ParseModule(source string) (*ast.Program, error) {
	return newParser(source, true).parseProgram()
}

// ParseFunctionBody parses source as the body of a plain function, which
// is how inline event handler attributes are compiled.
func ParseFunctionBody(source string) ([]ast.Statement, error) {
	p := newParser(source, false)
	p.inFunction, p.inAsync = true, false
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return prog.Statements, nil
}

func (p *Parser) parseProgram() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			prog, err = nil, p.err
		}
	}()
	p.peekToken = p.l.Next(true)
	p.nextToken()
	prog = &ast.Program{Module: p.module}
	for !p.curTokenIs(token.EOF) {
		prog.Statements = append(prog.Statements, p.parseStatement())
	}
	return prog, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.curToken.Type == token.Illegal {
		p.err = &ParseError{
			Line:       p.curToken.Line,
			Column:     p.curToken.Column,
			Msg:        "Invalid or unexpected token: " + p.curToken.Literal,
			Incomplete: strings.HasPrefix(p.curToken.Literal, "unterminated template"),
		}
		panic(bailout{})
	}
	if p.curToken.Type != token.EOF {
		p.peekToken = p.l.Next(lexer.RegexAllowedAfter(p.curToken.Type))
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

// curIsWord reports whether the current token is the contextual keyword w.
func (p *Parser) curIsWord(w string) bool {
	return p.curToken.Type == token.Identifier && p.curToken.Literal == w
}

func (p *Parser) expect(t token.TokenType, what string) token.Token {
	tok := p.curToken
	if tok.Type != t {
		if tok.Type == token.EOF {
			p.fail("Unexpected end of input, expected %s", what)
		}
		p.fail("Unexpected token %s, expected %s", tok.Describe(), what)
	}
	p.nextToken()
	return tok
}

func (p *Parser) expectWord(w string) {
	if !p.curIsWord(w) {
		p.fail("Unexpected token %s, expected '%s'", p.curToken.Describe(), w)
	}
	p.nextToken()
}

// consumeSemicolon applies automatic semicolon insertion: an explicit ';'
// is consumed, and a line break, '}' or end of input ends the statement.
func (p *Parser) consumeSemicolon() {
	switch {
	case p.curTokenIs(token.Semicolon):
		p.nextToken()
	case p.curTokenIs(token.RightBrace), p.curTokenIs(token.EOF), p.curToken.NewlineBefore:
	default:
		p.unexpected()
	}
}

// canEndStatement reports whether an optional operand (return, yield, a
// break label) is absent at the current token.
func (p *Parser) canEndStatement() bool {
	return p.curTokenIs(token.Semicolon) || p.curTokenIs(token.RightBrace) ||
		p.curTokenIs(token.EOF) || p.curToken.NewlineBefore
}

// identifierName accepts any identifier or reserved word, as allowed after
// '.' and as a property key.
func (p *Parser) identifierName() *ast.Identifier {
	if !p.curTokenIs(token.Identifier) && !token.IsKeyword(p.curToken.Type) {
		p.unexpected()
	}
	id := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	p.nextToken()
	return id
}

// bindingIdentifier parses a name that is being declared.
func (p *Parser) bindingIdentifier() *ast.Identifier {
	switch p.curToken.Type {
	case token.Identifier, token.Async, token.Let:
	case token.Yield:
		if p.inGenerator {
			p.unexpected()
		}
	case token.Await:
		if p.inAsync && (p.inFunction || p.module) {
			p.unexpected()
		}
	default:
		p.unexpected()
	}
	id := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	p.nextToken()
	return id
}

// withFunctionContext runs fn with the flags of a new function body and
// restores the enclosing ones afterwards.
func (p *Parser) withFunctionContext(generator, async bool, fn func()) {
	saved := [4]bool{p.inFunction, p.inGenerator, p.inAsync, p.noIn}
	p.inFunction, p.inGenerator, p.inAsync, p.noIn = true, generator, async, false
	defer func() {
		p.inFunction, p.inGenerator, p.inAsync, p.noIn = saved[0], saved[1], saved[2], saved[3]
	}()
	fn()
}
