package parser

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/token"
)

func (p *Parser) parseFunctionDeclaration(async bool) ast.Statement {
	tok := p.curToken
	if async {
		p.nextToken()
	}
	fn := p.parseFunctionLiteral(tok, async, true)
	return &ast.FunctionDeclaration{Token: tok, Function: fn}
}

// parseFunctionExpression parses `function [*] [name] (...) {...}`; for an
// async function the `async` word has already been consumed.
func (p *Parser) parseFunctionExpression(async bool) ast.Expression {
	return p.parseFunctionLiteral(p.curToken, async, false)
}

func (p *Parser) parseFunctionLiteral(tok token.Token, async, requireName bool) *ast.FunctionLiteral {
	p.expect(token.Function, "'function'")
	fn := &ast.FunctionLiteral{Token: tok, Async: async}
	if p.curTokenIs(token.Asterisk) {
		fn.Generator = true
		p.nextToken()
	}
	if !p.curTokenIs(token.LeftParen) {
		fn.Name = p.bindingIdentifier()
	} else if requireName {
		p.fail("Function statements require a function name")
	}
	p.withFunctionContext(fn.Generator, fn.Async, func() {
		fn.Params = p.parseFormalParams()
		fn.Body = p.parseBlockStatement()
	})
	return fn
}

// parseMethod parses the parameter list and body of an object or class
// method whose key has been consumed.
func (p *Parser) parseMethod(tok token.Token, async, generator bool) *ast.FunctionLiteral {
	fn := &ast.FunctionLiteral{Token: tok, Async: async, Generator: generator, Method: true}
	p.withFunctionContext(generator, async, func() {
		fn.Params = p.parseFormalParams()
		fn.Body = p.parseBlockStatement()
	})
	return fn
}

func (p *Parser) parseFormalParams() []ast.Expression {
	p.expect(token.LeftParen, "'('")
	var params []ast.Expression
	for !p.curTokenIs(token.RightParen) {
		if p.curTokenIs(token.Spread) {
			rest := &ast.RestElement{Token: p.curToken}
			p.nextToken()
			rest.Argument = p.parseBindingTarget()
			params = append(params, rest)
			if !p.curTokenIs(token.RightParen) {
				p.fail("Rest parameter must be last formal parameter")
			}
			break
		}
		params = append(params, p.parseBindingElement())
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.expect(token.RightParen, "')'")
	return params
}

// parseArrowFromIdentifier parses `x => body` with the current token as
// the single parameter.
func (p *Parser) parseArrowFromIdentifier(async bool) ast.Expression {
	tok := p.curToken
	param := p.bindingIdentifier()
	return p.parseArrowBody(tok, []ast.Expression{param}, async)
}

// toParams converts a parenthesized list, parsed as expressions, into
// arrow parameters.
func (p *Parser) toParams(items []ast.Expression, rest *ast.RestElement) []ast.Expression {
	params := make([]ast.Expression, 0, len(items)+1)
	for _, it := range items {
		if spread, ok := it.(*ast.SpreadElement); ok {
			p.failAt(spread.Token, "Rest parameter must be last formal parameter")
		}
		params = append(params, p.toPattern(it, true, p.curToken))
	}
	if rest != nil {
		params = append(params, &ast.RestElement{Token: rest.Token, Argument: p.toPattern(rest.Argument, true, rest.Token)})
	}
	return params
}

func (p *Parser) parseArrowBody(tok token.Token, params []ast.Expression, async bool) ast.Expression {
	p.expect(token.Arrow, "'=>'")
	fn := &ast.FunctionLiteral{Token: tok, Params: params, Async: async, Arrow: true}
	noIn := p.noIn
	p.withFunctionContext(false, async, func() {
		if p.curTokenIs(token.LeftBrace) {
			fn.Body = p.parseBlockStatement()
			return
		}
		p.noIn = noIn
		fn.ExprBody = p.parseAssignment()
	})
	return fn
}

// ---------- Classes ----------

func (p *Parser) parseClassDeclaration() ast.Statement {
	tok := p.curToken
	return &ast.ClassDeclaration{Token: tok, Class: p.parseClass(true)}
}

func (p *Parser) parseClass(requireName bool) *ast.ClassLiteral {
	cls := &ast.ClassLiteral{Token: p.expect(token.Class, "'class'")}
	if !p.curTokenIs(token.Extends) && !p.curTokenIs(token.LeftBrace) {
		cls.Name = p.bindingIdentifier()
	} else if requireName {
		p.fail("Class statements require a class name")
	}
	if p.curTokenIs(token.Extends) {
		p.nextToken()
		cls.SuperClass = p.parseLeftHandSide()
	}
	p.expect(token.LeftBrace, "'{'")
	hasCtor := false
	for !p.curTokenIs(token.RightBrace) {
		if p.curTokenIs(token.Semicolon) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(token.EOF) {
			p.fail("Unexpected end of input")
		}
		member := p.parseClassMember()
		if m, ok := member.(*ast.MethodDefinition); ok && m.Kind == "constructor" {
			if hasCtor {
				p.failAt(m.Token, "A class may only have one constructor")
			}
			hasCtor = true
		}
		cls.Members = append(cls.Members, member)
	}
	p.nextToken()
	return cls
}

// classWordIsKey reports whether a modifier word (static, get, set, async)
// is actually the member name, judged by the token that follows.
func (p *Parser) classWordIsKey() bool {
	switch p.peekToken.Type {
	case token.LeftParen, token.Assign, token.Semicolon, token.RightBrace:
		return true
	}
	return false
}

func (p *Parser) parseClassMember() ast.ClassMember {
	tok := p.curToken
	static := false
	if p.curIsWord("static") && !p.classWordIsKey() {
		p.nextToken()
		if p.curTokenIs(token.LeftBrace) {
			block := &ast.StaticBlock{Token: tok}
			p.withFunctionContext(false, false, func() {
				block.Body = p.parseBlockStatement()
			})
			return block
		}
		static = true
	}

	async, generator, kind := false, false, "method"
	if p.curTokenIs(token.Async) && !p.classWordIsKey() && !p.peekToken.NewlineBefore {
		async = true
		p.nextToken()
	}
	if p.curTokenIs(token.Asterisk) {
		generator = true
		p.nextToken()
	}
	if !async && !generator && (p.curIsWord("get") || p.curIsWord("set")) && !p.classWordIsKey() {
		kind = p.curToken.Literal
		p.nextToken()
	}

	keyTok := p.curToken
	key, computed := p.parsePropertyKey()
	if p.curTokenIs(token.LeftParen) || async || generator || kind != "method" {
		if !static && !computed && propertyKeyIs(key, "constructor") && kind == "method" {
			if async || generator {
				p.failAt(keyTok, "Class constructor may not be a generator or async")
			}
			kind = "constructor"
		}
		return &ast.MethodDefinition{
			Token:    tok,
			Key:      key,
			Computed: computed,
			Static:   static,
			Kind:     kind,
			Value:    p.parseMethod(keyTok, async, generator),
		}
	}

	field := &ast.PropertyDefinition{Token: tok, Key: key, Computed: computed, Static: static}
	if !computed && propertyKeyIs(key, "constructor") {
		p.failAt(keyTok, "Classes may not have a field named 'constructor'")
	}
	if p.curTokenIs(token.Assign) {
		p.nextToken()
		p.withFunctionContext(false, false, func() {
			field.Value = p.parseAssignment()
		})
	}
	p.consumeSemicolon()
	return field
}

func propertyKeyIs(key ast.Expression, name string) bool {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Value == name
	case *ast.StringLiteral:
		return k.Value == name
	}
	return false
}
