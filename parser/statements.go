package parser

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/token"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LeftBrace:
		return p.parseBlockStatement()
	case token.Var, token.Const:
		return p.parseVariableStatement()
	case token.Let:
		// `let` followed by a binding starts a declaration; otherwise it
		// is an identifier.
		if p.peekTokenIs(token.Identifier) || p.peekTokenIs(token.LeftBracket) || p.peekTokenIs(token.LeftBrace) ||
			p.peekTokenIs(token.Yield) || p.peekTokenIs(token.Await) || p.peekTokenIs(token.Async) {
			return p.parseVariableStatement()
		}
	case token.Function:
		return p.parseFunctionDeclaration(false)
	case token.Async:
		if p.peekTokenIs(token.Function) && !p.peekToken.NewlineBefore {
			return p.parseFunctionDeclaration(true)
		}
	case token.Class:
		return p.parseClassDeclaration()
	case token.If:
		return p.parseIfStatement()
	case token.While:
		return p.parseWhileStatement()
	case token.Do:
		return p.parseDoWhileStatement()
	case token.For:
		return p.parseForStatement()
	case token.Return:
		return p.parseReturnStatement()
	case token.Break, token.Continue:
		return p.parseJumpStatement()
	case token.Throw:
		return p.parseThrowStatement()
	case token.Try:
		return p.parseTryStatement()
	case token.Switch:
		return p.parseSwitchStatement()
	case token.Semicolon:
		stmt := &ast.EmptyStatement{Token: p.curToken}
		p.nextToken()
		return stmt
	case token.Debugger:
		stmt := &ast.DebuggerStatement{Token: p.curToken}
		p.nextToken()
		p.consumeSemicolon()
		return stmt
	case token.With:
		return p.parseWithStatement()
	case token.Import:
		if !p.peekTokenIs(token.LeftParen) && !p.peekTokenIs(token.Dot) {
			return p.parseImportDeclaration()
		}
	case token.Export:
		return p.parseExportDeclaration()
	case token.Identifier, token.Yield, token.Await:
		if p.peekTokenIs(token.Colon) {
			return p.parseLabeledStatement()
		}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.expect(token.LeftBrace, "'{'")}
	for !p.curTokenIs(token.RightBrace) {
		if p.curTokenIs(token.EOF) {
			p.fail("Unexpected end of input")
		}
		block.Statements = append(block.Statements, p.parseStatement())
	}
	p.nextToken()
	return block
}

func (p *Parser) parseVariableStatement() *ast.VariableDeclaration {
	decl := p.parseVariableDeclaration(true)
	p.consumeSemicolon()
	return decl
}

// parseVariableDeclaration parses `kind declarator, ...`. requireConstInit
// is false in for-in/of heads, where the initializer comes from the loop.
func (p *Parser) parseVariableDeclaration(requireConstInit bool) *ast.VariableDeclaration {
	decl := &ast.VariableDeclaration{Token: p.curToken, Kind: p.curToken.Literal}
	p.nextToken()
	for {
		d := &ast.VariableDeclarator{Token: p.curToken, Target: p.parseBindingTarget()}
		if p.curTokenIs(token.Assign) {
			p.nextToken()
			d.Init = p.parseAssignment()
		} else if requireConstInit {
			if decl.Kind == "const" {
				p.fail("Missing initializer in const declaration")
			}
			if _, ok := d.Target.(*ast.Identifier); !ok {
				p.fail("Missing initializer in destructuring declaration")
			}
		}
		decl.Declarations = append(decl.Declarations, d)
		if !p.curTokenIs(token.Comma) {
			return decl
		}
		p.nextToken()
	}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken, Expression: p.parseExpression()}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseLabeledStatement() ast.Statement {
	stmt := &ast.LabeledStatement{Token: p.curToken}
	stmt.Label = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	p.nextToken()
	p.expect(token.Colon, "':'")
	if p.curTokenIs(token.Function) {
		stmt.Body = p.parseFunctionDeclaration(false)
		return stmt
	}
	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}
	p.nextToken()
	stmt.Test = p.parseParenExpression()
	stmt.Consequent = p.parseStatement()
	if p.curTokenIs(token.Else) {
		p.nextToken()
		stmt.Alternate = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseParenExpression() ast.Expression {
	p.expect(token.LeftParen, "'('")
	expr := p.parseExpression()
	p.expect(token.RightParen, "')'")
	return expr
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	p.nextToken()
	stmt.Test = p.parseParenExpression()
	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseDoWhileStatement() ast.Statement {
	stmt := &ast.DoWhileStatement{Token: p.curToken}
	p.nextToken()
	stmt.Body = p.parseStatement()
	p.expect(token.While, "'while'")
	stmt.Test = p.parseParenExpression()
	if p.curTokenIs(token.Semicolon) {
		p.nextToken()
	}
	return stmt
}

// parseForStatement handles the classic, for-in, for-of and for-await
// forms, which share a prefix up to the first ';', 'in' or 'of'.
func (p *Parser) parseForStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	await := false
	if p.curTokenIs(token.Await) {
		if !p.inAsync {
			p.fail("for await is only valid in async functions and the top level bodies of modules")
		}
		await = true
		p.nextToken()
	}
	p.expect(token.LeftParen, "'('")

	var init ast.Node
	switch {
	case p.curTokenIs(token.Semicolon):
	case p.curTokenIs(token.Var), p.curTokenIs(token.Const),
		p.curTokenIs(token.Let) && !p.peekTokenIs(token.In) && !(p.peekTokenIs(token.Identifier) && p.peekToken.Literal == "of"):
		p.noIn = true
		decl := p.parseVariableDeclaration(false)
		p.noIn = false
		if len(decl.Declarations) == 1 && decl.Declarations[0].Init == nil && (p.curTokenIs(token.In) || p.curIsWord("of")) {
			return p.parseForInOf(tok, decl, await)
		}
		for _, d := range decl.Declarations {
			if d.Init == nil && decl.Kind == "const" {
				p.fail("Missing initializer in const declaration")
			}
		}
		init = decl
	default:
		start := p.curToken
		p.noIn = true
		expr := p.parseExpression()
		p.noIn = false
		if p.curTokenIs(token.In) || p.curIsWord("of") {
			return p.parseForInOf(tok, p.toAssignmentTarget(expr, start), await)
		}
		init = expr
	}
	if await {
		p.fail("Unexpected token %s, expected 'of'", p.curToken.Describe())
	}

	stmt := &ast.ForStatement{Token: tok, Init: init}
	p.expect(token.Semicolon, "';'")
	if !p.curTokenIs(token.Semicolon) {
		stmt.Test = p.parseExpression()
	}
	p.expect(token.Semicolon, "';'")
	if !p.curTokenIs(token.RightParen) {
		stmt.Update = p.parseExpression()
	}
	p.expect(token.RightParen, "')'")
	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseForInOf(tok token.Token, left ast.Node, await bool) ast.Statement {
	if p.curTokenIs(token.In) {
		if await {
			p.fail("Unexpected token 'in', expected 'of'")
		}
		p.nextToken()
		stmt := &ast.ForInStatement{Token: tok, Left: left, Right: p.parseExpression()}
		p.expect(token.RightParen, "')'")
		stmt.Body = p.parseStatement()
		return stmt
	}
	p.nextToken() // of
	stmt := &ast.ForOfStatement{Token: tok, Left: left, Right: p.parseAssignment(), Await: await}
	p.expect(token.RightParen, "')'")
	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	p.nextToken()
	if !p.canEndStatement() {
		stmt.Argument = p.parseExpression()
	}
	p.consumeSemicolon()
	return stmt
}

// parseJumpStatement parses break and continue. A label must sit on the
// same line as the keyword.
func (p *Parser) parseJumpStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	var label *ast.Identifier
	if p.curTokenIs(token.Identifier) && !p.curToken.NewlineBefore {
		label = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
		p.nextToken()
	}
	p.consumeSemicolon()
	if tok.Type == token.Break {
		return &ast.BreakStatement{Token: tok, Label: label}
	}
	return &ast.ContinueStatement{Token: tok, Label: label}
}

func (p *Parser) parseThrowStatement() ast.Statement {
	stmt := &ast.ThrowStatement{Token: p.curToken}
	p.nextToken()
	if p.curToken.NewlineBefore {
		p.fail("Illegal newline after throw")
	}
	stmt.Argument = p.parseExpression()
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseTryStatement() ast.Statement {
	stmt := &ast.TryStatement{Token: p.curToken}
	p.nextToken()
	stmt.Block = p.parseBlockStatement()
	if p.curTokenIs(token.Catch) {
		clause := &ast.CatchClause{Token: p.curToken}
		p.nextToken()
		if p.curTokenIs(token.LeftParen) {
			p.nextToken()
			clause.Param = p.parseBindingTarget()
			p.expect(token.RightParen, "')'")
		}
		clause.Body = p.parseBlockStatement()
		stmt.Handler = clause
	}
	if p.curTokenIs(token.Finally) {
		p.nextToken()
		stmt.Finalizer = p.parseBlockStatement()
	}
	if stmt.Handler == nil && stmt.Finalizer == nil {
		p.fail("Missing catch or finally after try")
	}
	return stmt
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	stmt := &ast.SwitchStatement{Token: p.curToken}
	p.nextToken()
	stmt.Discriminant = p.parseParenExpression()
	p.expect(token.LeftBrace, "'{'")
	seenDefault := false
	for !p.curTokenIs(token.RightBrace) {
		sc := &ast.SwitchCase{Token: p.curToken}
		switch p.curToken.Type {
		case token.Case:
			p.nextToken()
			sc.Test = p.parseExpression()
		case token.Default:
			if seenDefault {
				p.fail("More than one default clause in switch statement")
			}
			seenDefault = true
			p.nextToken()
		default:
			p.unexpected()
		}
		p.expect(token.Colon, "':'")
		for !p.curTokenIs(token.Case) && !p.curTokenIs(token.Default) && !p.curTokenIs(token.RightBrace) {
			if p.curTokenIs(token.EOF) {
				p.fail("Unexpected end of input")
			}
			sc.Consequent = append(sc.Consequent, p.parseStatement())
		}
		stmt.Cases = append(stmt.Cases, sc)
	}
	p.nextToken()
	return stmt
}

func (p *Parser) parseWithStatement() ast.Statement {
	stmt := &ast.WithStatement{Token: p.curToken}
	p.nextToken()
	stmt.Object = p.parseParenExpression()
	stmt.Body = p.parseStatement()
	return stmt
}
