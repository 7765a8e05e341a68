package parser

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/token"
)

func (p *Parser) requireModule(tok token.Token) {
	if !p.module {
		p.failAt(tok, "Cannot use %s statement outside a module", tok.Literal)
	}
}

func (p *Parser) parseImportDeclaration() ast.Statement {
	decl := &ast.ImportDeclaration{Token: p.curToken}
	p.requireModule(p.curToken)
	p.nextToken()

	if p.curTokenIs(token.String) {
		decl.Source = p.curToken.Literal
		p.nextToken()
		decl.AttributeType = p.parseImportAttributes()
		p.consumeSemicolon()
		return decl
	}

	if !p.curTokenIs(token.LeftBrace) && !p.curTokenIs(token.Asterisk) {
		local := p.bindingIdentifier()
		decl.Specifiers = append(decl.Specifiers, &ast.ImportSpecifier{Token: local.Token, Kind: ast.ImportDefault, Local: local})
		if p.curTokenIs(token.Comma) {
			p.nextToken()
			if !p.curTokenIs(token.LeftBrace) && !p.curTokenIs(token.Asterisk) {
				p.unexpected()
			}
		}
	}
	switch {
	case p.curTokenIs(token.Asterisk):
		tok := p.curToken
		p.nextToken()
		p.expectWord("as")
		decl.Specifiers = append(decl.Specifiers, &ast.ImportSpecifier{Token: tok, Kind: ast.ImportNamespace, Local: p.bindingIdentifier()})
	case p.curTokenIs(token.LeftBrace):
		p.nextToken()
		for !p.curTokenIs(token.RightBrace) {
			spec := &ast.ImportSpecifier{Token: p.curToken, Kind: ast.ImportNamed}
			nameTok := p.curToken
			spec.Imported = p.moduleExportName()
			if p.curIsWord("as") {
				p.nextToken()
				spec.Local = p.bindingIdentifier()
			} else {
				if nameTok.Type == token.String || token.IsKeyword(nameTok.Type) && nameTok.Type != token.Async &&
					nameTok.Type != token.Let && nameTok.Type != token.Yield && nameTok.Type != token.Await {
					p.failAt(nameTok, "Unexpected token %s", nameTok.Describe())
				}
				spec.Local = &ast.Identifier{Token: nameTok, Value: spec.Imported}
			}
			decl.Specifiers = append(decl.Specifiers, spec)
			if !p.curTokenIs(token.Comma) {
				break
			}
			p.nextToken()
		}
		p.expect(token.RightBrace, "'}'")
	}
	p.expectWord("from")
	decl.Source = p.expect(token.String, "module specifier").Literal
	decl.AttributeType = p.parseImportAttributes()
	p.consumeSemicolon()
	return decl
}

// moduleExportName accepts an identifier, a reserved word or a string, as
// allowed for names in import and export lists.
func (p *Parser) moduleExportName() string {
	if p.curTokenIs(token.String) {
		name := p.curToken.Literal
		p.nextToken()
		return name
	}
	return p.identifierName().Value
}

// parseImportAttributes parses `with { type: "json" }` (or the older
// `assert` spelling) and returns the declared type.
func (p *Parser) parseImportAttributes() string {
	if !p.curTokenIs(token.With) && !(p.curIsWord("assert") && !p.curToken.NewlineBefore) {
		return ""
	}
	p.nextToken()
	p.expect(token.LeftBrace, "'{'")
	typ := ""
	for !p.curTokenIs(token.RightBrace) {
		key := p.moduleExportName()
		p.expect(token.Colon, "':'")
		val := p.expect(token.String, "string").Literal
		if key == "type" {
			typ = val
		}
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.expect(token.RightBrace, "'}'")
	return typ
}

func (p *Parser) parseExportDeclaration() ast.Statement {
	tok := p.curToken
	p.requireModule(tok)
	p.nextToken()

	switch p.curToken.Type {
	case token.Default:
		p.nextToken()
		return p.parseExportDefault(tok)
	case token.Asterisk:
		decl := &ast.ExportAllDeclaration{Token: tok}
		p.nextToken()
		if p.curIsWord("as") {
			p.nextToken()
			decl.Exported = p.moduleExportName()
		}
		p.expectWord("from")
		decl.Source = p.expect(token.String, "module specifier").Literal
		decl.AttributeType = p.parseImportAttributes()
		p.consumeSemicolon()
		return decl
	case token.LeftBrace:
		return p.parseExportList(tok)
	case token.Var, token.Let, token.Const:
		return &ast.ExportNamedDeclaration{Token: tok, Declaration: p.parseVariableStatement()}
	case token.Function:
		return &ast.ExportNamedDeclaration{Token: tok, Declaration: p.parseFunctionDeclaration(false)}
	case token.Async:
		if p.peekTokenIs(token.Function) {
			return &ast.ExportNamedDeclaration{Token: tok, Declaration: p.parseFunctionDeclaration(true)}
		}
	case token.Class:
		return &ast.ExportNamedDeclaration{Token: tok, Declaration: p.parseClassDeclaration()}
	}
	p.unexpected()
	return nil
}

func (p *Parser) parseExportList(tok token.Token) ast.Statement {
	decl := &ast.ExportNamedDeclaration{Token: tok}
	p.nextToken()
	var stringLocal *token.Token
	for !p.curTokenIs(token.RightBrace) {
		spec := &ast.ExportSpecifier{Token: p.curToken}
		if p.curTokenIs(token.String) && stringLocal == nil {
			t := p.curToken
			stringLocal = &t
		}
		spec.Local = p.moduleExportName()
		spec.Exported = spec.Local
		if p.curIsWord("as") {
			p.nextToken()
			spec.Exported = p.moduleExportName()
		}
		decl.Specifiers = append(decl.Specifiers, spec)
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.expect(token.RightBrace, "'}'")
	if p.curIsWord("from") {
		p.nextToken()
		decl.Source = p.expect(token.String, "module specifier").Literal
		decl.AttributeType = p.parseImportAttributes()
	} else if stringLocal != nil {
		// Only re-exports may name a binding with a string.
		p.failAt(*stringLocal, "Unexpected string")
	}
	p.consumeSemicolon()
	return decl
}

func (p *Parser) parseExportDefault(tok token.Token) ast.Statement {
	decl := &ast.ExportDefaultDeclaration{Token: tok}
	switch {
	case p.curTokenIs(token.Function):
		fnTok := p.curToken
		decl.Declaration = &ast.FunctionDeclaration{Token: fnTok, Function: p.parseFunctionLiteral(fnTok, false, false)}
		return decl
	case p.curTokenIs(token.Async) && p.peekTokenIs(token.Function) && !p.peekToken.NewlineBefore:
		fnTok := p.curToken
		p.nextToken()
		decl.Declaration = &ast.FunctionDeclaration{Token: fnTok, Function: p.parseFunctionLiteral(fnTok, true, false)}
		return decl
	case p.curTokenIs(token.Class):
		clsTok := p.curToken
		decl.Declaration = &ast.ClassDeclaration{Token: clsTok, Class: p.parseClass(false)}
		return decl
	}
	decl.Declaration = p.parseAssignment()
	p.consumeSemicolon()
	return decl
}
