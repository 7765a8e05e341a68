package parser

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/token"
)

// parseExpression parses a comma-separated expression.
func (p *Parser) parseExpression() ast.Expression {
	tok := p.curToken
	expr := p.parseAssignment()
	if !p.curTokenIs(token.Comma) {
		return expr
	}
	seq := &ast.SequenceExpression{Token: tok, Expressions: []ast.Expression{expr}}
	for p.curTokenIs(token.Comma) {
		p.nextToken()
		seq.Expressions = append(seq.Expressions, p.parseAssignment())
	}
	return seq
}

func isAssignOp(t token.TokenType) bool {
	switch t {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.AsteriskAssign,
		token.SlashAssign, token.PercentAssign, token.ExponentAssign,
		token.AmpersandAssign, token.PipeAssign, token.CaretAssign,
		token.LeftShiftAssign, token.RightShiftAssign, token.UnsignedRightShiftAssign,
		token.NullishAssign, token.AndAssign, token.OrAssign:
		return true
	}
	return false
}

func (p *Parser) parseAssignment() ast.Expression {
	if p.curTokenIs(token.Yield) && p.inGenerator {
		return p.parseYieldExpression()
	}
	start := p.curToken
	left := p.parseConditional()
	if !isAssignOp(p.curToken.Type) {
		return left
	}
	op := p.curToken
	var target ast.Expression
	if op.Type == token.Assign {
		target = p.toAssignmentTarget(left, start)
	} else {
		target = p.simpleTarget(left, start)
	}
	p.nextToken()
	return &ast.AssignmentExpression{Token: op, Operator: op.Literal, Target: target, Value: p.parseAssignment()}
}

func (p *Parser) parseYieldExpression() ast.Expression {
	expr := &ast.YieldExpression{Token: p.curToken}
	p.nextToken()
	if p.curTokenIs(token.Asterisk) && !p.curToken.NewlineBefore {
		expr.Delegate = true
		p.nextToken()
		expr.Argument = p.parseAssignment()
		return expr
	}
	switch p.curToken.Type {
	case token.RightParen, token.RightBracket, token.RightBrace, token.Comma, token.Colon,
		token.Semicolon, token.EOF, token.TemplateMiddle, token.TemplateTail:
		return expr
	}
	if p.curToken.NewlineBefore || (p.noIn && p.curTokenIs(token.In)) {
		return expr
	}
	expr.Argument = p.parseAssignment()
	return expr
}

func (p *Parser) parseConditional() ast.Expression {
	tok := p.curToken
	test := p.parseBinary(precNullishCoalesce)
	if !p.curTokenIs(token.QuestionMark) {
		return test
	}
	p.nextToken()
	cond := &ast.ConditionalExpression{Token: tok, Test: test}
	noIn := p.noIn
	p.noIn = false
	cond.Consequent = p.parseAssignment()
	p.noIn = noIn
	p.expect(token.Colon, "':'")
	cond.Alternate = p.parseAssignment()
	return cond
}

func (p *Parser) binaryPrecedence() int {
	switch p.curToken.Type {
	case token.NullishCoalesce:
		return precNullishCoalesce
	case token.Or:
		return precLogicalOr
	case token.And:
		return precLogicalAnd
	case token.BitwiseOr:
		return precBitwiseOr
	case token.BitwiseXor:
		return precBitwiseXor
	case token.BitwiseAnd:
		return precBitwiseAnd
	case token.Equal, token.NotEqual, token.StrictEqual, token.StrictNotEqual:
		return precEquality
	case token.LessThan, token.GreaterThan, token.LessThanOrEqual, token.GreaterThanOrEqual, token.Instanceof:
		return precRelational
	case token.In:
		if p.noIn {
			return 0
		}
		return precRelational
	case token.LeftShift, token.RightShift, token.UnsignedRightShift:
		return precShift
	case token.Plus, token.Minus:
		return precAdditive
	case token.Asterisk, token.Slash, token.Percent:
		return precMultiplicative
	case token.Exponent:
		return precExponent
	}
	return 0
}

// parseBinary is precedence climbing over the binary and logical
// operators. '**' is right-associative; everything else is left.
func (p *Parser) parseBinary(minPrec int) ast.Expression {
	left := p.parseUnary()
	for {
		prec := p.binaryPrecedence()
		if prec == 0 || prec < minPrec {
			return left
		}
		op := p.curToken
		if op.Type == token.Exponent {
			if u, ok := left.(*ast.UnaryExpression); ok {
				p.failAt(u.Token, "Unary operator used immediately before exponentiation expression. Parenthesis must be used to disambiguate operator precedence")
			}
		}
		p.nextToken()
		next := prec + 1
		if op.Type == token.Exponent {
			next = prec
		}
		right := p.parseBinary(next)
		switch op.Type {
		case token.And, token.Or, token.NullishCoalesce:
			left = &ast.LogicalExpression{Token: op, Operator: op.Literal, Left: left, Right: right}
		default:
			left = &ast.BinaryExpression{Token: op, Operator: op.Literal, Left: left, Right: right}
		}
	}
}

func (p *Parser) parseUnary() ast.Expression {
	tok := p.curToken
	switch tok.Type {
	case token.Not, token.BitwiseNot, token.Plus, token.Minus, token.Typeof, token.Void, token.Delete:
		p.nextToken()
		return &ast.UnaryExpression{Token: tok, Operator: tok.Literal, Operand: p.parseUnary()}
	case token.Increment, token.Decrement:
		p.nextToken()
		start := p.curToken
		operand := p.simpleTarget(p.parseUnary(), start)
		return &ast.UpdateExpression{Token: tok, Operator: tok.Literal, Prefix: true, Operand: operand}
	case token.Await:
		if p.inAsync {
			p.nextToken()
			return &ast.AwaitExpression{Token: tok, Argument: p.parseUnary()}
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expression {
	start := p.curToken
	expr := p.parseLeftHandSide()
	if (p.curTokenIs(token.Increment) || p.curTokenIs(token.Decrement)) && !p.curToken.NewlineBefore {
		op := p.curToken
		target := p.simpleTarget(expr, start)
		p.nextToken()
		return &ast.UpdateExpression{Token: op, Operator: op.Literal, Operand: target}
	}
	return expr
}

// parseLeftHandSide parses a primary or `new` expression followed by any
// member accesses, calls, optional links and tagged templates. A chain
// containing `?.` is wrapped in a ChainExpression.
func (p *Parser) parseLeftHandSide() ast.Expression {
	start := p.curToken
	var expr ast.Expression
	if p.curTokenIs(token.New) {
		expr = p.parseNewExpression()
	} else {
		expr = p.parsePrimary()
	}
	if fn, ok := expr.(*ast.FunctionLiteral); ok && fn.Arrow && expr != p.parenthesized {
		return expr
	}
	chained := false
	for {
		switch p.curToken.Type {
		case token.Dot:
			tok := p.curToken
			p.nextToken()
			expr = &ast.MemberExpression{Token: tok, Object: expr, Property: p.memberName()}
		case token.LeftBracket:
			tok := p.curToken
			p.nextToken()
			prop := p.parseNested(p.parseExpression)
			p.expect(token.RightBracket, "']'")
			expr = &ast.MemberExpression{Token: tok, Object: expr, Property: prop, Computed: true}
		case token.LeftParen:
			tok := p.curToken
			expr = &ast.CallExpression{Token: tok, Callee: expr, Arguments: p.parseArguments()}
		case token.OptionalChain:
			tok := p.curToken
			chained = true
			p.nextToken()
			switch p.curToken.Type {
			case token.LeftParen:
				expr = &ast.CallExpression{Token: tok, Callee: expr, Arguments: p.parseArguments(), Optional: true}
			case token.LeftBracket:
				p.nextToken()
				prop := p.parseNested(p.parseExpression)
				p.expect(token.RightBracket, "']'")
				expr = &ast.MemberExpression{Token: tok, Object: expr, Property: prop, Computed: true, Optional: true}
			default:
				expr = &ast.MemberExpression{Token: tok, Object: expr, Property: p.memberName(), Optional: true}
			}
		case token.NoSubstitutionTemplate, token.TemplateHead:
			if chained {
				p.fail("Invalid tagged template on optional chain")
			}
			tok := p.curToken
			expr = &ast.TaggedTemplateExpression{Token: tok, Tag: expr, Quasi: p.parseTemplateLiteral()}
		default:
			if chained {
				return &ast.ChainExpression{Token: start, Expression: expr}
			}
			return expr
		}
	}
}

// parseNested parses fn with 'in' re-enabled, as inside brackets and
// parentheses.
func (p *Parser) parseNested(fn func() ast.Expression) ast.Expression {
	saved := p.noIn
	p.noIn = false
	defer func() { p.noIn = saved }()
	return fn()
}

// memberName parses the name after '.' or '?.'.
func (p *Parser) memberName() ast.Expression {
	if p.curTokenIs(token.PrivateName) {
		name := &ast.PrivateName{Token: p.curToken, Name: p.curToken.Literal}
		p.nextToken()
		return name
	}
	return p.identifierName()
}

func (p *Parser) parseArguments() []ast.Expression {
	p.expect(token.LeftParen, "'('")
	var args []ast.Expression
	for !p.curTokenIs(token.RightParen) {
		if p.curTokenIs(token.Spread) {
			spread := &ast.SpreadElement{Token: p.curToken}
			p.nextToken()
			spread.Argument = p.parseNested(p.parseAssignment)
			args = append(args, spread)
		} else {
			args = append(args, p.parseNested(p.parseAssignment))
		}
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.expect(token.RightParen, "')'")
	return args
}

func (p *Parser) parseNewExpression() ast.Expression {
	tok := p.curToken
	p.nextToken()
	if p.curTokenIs(token.Dot) {
		p.nextToken()
		if !p.curIsWord("target") || !p.inFunction {
			p.fail("new.target expression is not allowed here")
		}
		p.nextToken()
		return &ast.MetaProperty{Token: tok, Meta: "new", Property: "target"}
	}
	var callee ast.Expression
	if p.curTokenIs(token.New) {
		callee = p.parseNewExpression()
	} else {
		callee = p.parsePrimary()
	}
	for {
		switch p.curToken.Type {
		case token.Dot:
			dot := p.curToken
			p.nextToken()
			callee = &ast.MemberExpression{Token: dot, Object: callee, Property: p.memberName()}
			continue
		case token.LeftBracket:
			br := p.curToken
			p.nextToken()
			prop := p.parseNested(p.parseExpression)
			p.expect(token.RightBracket, "']'")
			callee = &ast.MemberExpression{Token: br, Object: callee, Property: prop, Computed: true}
			continue
		}
		break
	}
	expr := &ast.NewExpression{Token: tok, Callee: callee}
	if p.curTokenIs(token.LeftParen) {
		expr.Arguments = p.parseArguments()
	}
	return expr
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.curToken
	switch tok.Type {
	case token.Identifier:
		if p.peekTokenIs(token.Arrow) && !p.peekToken.NewlineBefore {
			return p.parseArrowFromIdentifier(false)
		}
		p.nextToken()
		return &ast.Identifier{Token: tok, Value: tok.Literal}
	case token.Async:
		return p.parseAsyncPrimary()
	case token.Yield, token.Await, token.Let:
		// reserved only inside generators / async bodies; parseAssignment
		// and parseUnary have already claimed those cases.
		if p.peekTokenIs(token.Arrow) && !p.peekToken.NewlineBefore {
			return p.parseArrowFromIdentifier(false)
		}
		p.nextToken()
		return &ast.Identifier{Token: tok, Value: tok.Literal}
	case token.PrivateName:
		// only `#name in obj` may use a private name on its own
		if !p.peekTokenIs(token.In) || p.noIn {
			p.unexpected()
		}
		p.nextToken()
		return &ast.PrivateName{Token: tok, Name: tok.Literal}
	case token.This:
		p.nextToken()
		return &ast.ThisExpression{Token: tok}
	case token.Super:
		p.nextToken()
		if !p.curTokenIs(token.LeftParen) && !p.curTokenIs(token.Dot) && !p.curTokenIs(token.LeftBracket) {
			p.fail("'super' keyword unexpected here")
		}
		return &ast.SuperExpression{Token: tok}
	case token.Null:
		p.nextToken()
		return &ast.NullLiteral{Token: tok}
	case token.True, token.False:
		p.nextToken()
		return &ast.BooleanLiteral{Token: tok, Value: tok.Type == token.True}
	case token.Number:
		p.nextToken()
		return &ast.NumberLiteral{Token: tok, Value: p.numberValue(tok)}
	case token.BigInt:
		p.nextToken()
		v, ok := new(big.Int).SetString(tok.Literal, 0)
		if !ok {
			p.failAt(tok, "Invalid BigInt literal %s", tok.Literal)
		}
		return &ast.BigIntLiteral{Token: tok, Value: v}
	case token.String:
		p.nextToken()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}
	case token.NoSubstitutionTemplate, token.TemplateHead:
		return p.parseTemplateLiteral()
	case token.RegExp:
		p.nextToken()
		slash := strings.LastIndexByte(tok.Literal, '/')
		return &ast.RegExpLiteral{Token: tok, Pattern: tok.Literal[1:slash], Flags: tok.Literal[slash+1:]}
	case token.LeftParen:
		return p.parseParenthesized()
	case token.LeftBracket:
		return p.parseArrayLiteral()
	case token.LeftBrace:
		return p.parseObjectLiteral()
	case token.Function:
		return p.parseFunctionExpression(false)
	case token.Class:
		return p.parseClass(false)
	}
	p.unexpected()
	return nil
}

// parseAsyncPrimary disambiguates the uses of `async`: an async function
// expression, an async arrow, a call to a function named async, or the
// plain identifier.
func (p *Parser) parseAsyncPrimary() ast.Expression {
	tok := p.curToken
	switch {
	case p.peekTokenIs(token.Function) && !p.peekToken.NewlineBefore:
		p.nextToken()
		return p.parseFunctionExpression(true)
	case p.peekTokenIs(token.Arrow):
		return p.parseArrowFromIdentifier(false)
	case (p.peekTokenIs(token.Identifier) || p.peekTokenIs(token.Yield)) && !p.peekToken.NewlineBefore:
		p.nextToken()
		if !p.peekTokenIs(token.Arrow) {
			p.unexpected()
		}
		return p.parseArrowFromIdentifier(true)
	case p.peekTokenIs(token.LeftParen) && !p.peekToken.NewlineBefore:
		p.nextToken()
		items, trailing := p.parseParenItems()
		if p.curTokenIs(token.Arrow) && !p.curToken.NewlineBefore {
			return p.parseArrowBody(tok, p.toParams(items, trailing), true)
		}
		if trailing != nil {
			p.failAt(trailing.Token, "Unexpected token '...'")
		}
		args := items
		if len(args) == 0 {
			args = nil
		}
		return &ast.CallExpression{Token: tok, Callee: &ast.Identifier{Token: tok, Value: "async"}, Arguments: args}
	}
	p.nextToken()
	return &ast.Identifier{Token: tok, Value: "async"}
}

// parseParenItems parses a parenthesized list that may turn out to be
// arrow parameters. A trailing `...rest` is returned separately; spread
// arguments of an async call come back as SpreadElement items.
func (p *Parser) parseParenItems() ([]ast.Expression, *ast.RestElement) {
	p.expect(token.LeftParen, "'('")
	saved := p.noIn
	p.noIn = false
	defer func() { p.noIn = saved }()

	var items []ast.Expression
	var rest *ast.RestElement
	for !p.curTokenIs(token.RightParen) {
		if p.curTokenIs(token.Spread) {
			tok := p.curToken
			p.nextToken()
			if p.curTokenIs(token.LeftBracket) || p.curTokenIs(token.LeftBrace) {
				rest = &ast.RestElement{Token: tok, Argument: p.parseBindingTarget()}
			} else {
				arg := p.parseAssignment()
				if id, ok := arg.(*ast.Identifier); ok && p.curTokenIs(token.RightParen) {
					rest = &ast.RestElement{Token: tok, Argument: id}
				} else {
					items = append(items, &ast.SpreadElement{Token: tok, Argument: arg})
				}
			}
			if rest != nil {
				if !p.curTokenIs(token.RightParen) {
					p.fail("Rest parameter must be last formal parameter")
				}
				break
			}
		} else {
			items = append(items, p.parseAssignment())
		}
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.expect(token.RightParen, "')'")
	return items, rest
}

func (p *Parser) parseParenthesized() ast.Expression {
	tok := p.curToken
	items, rest := p.parseParenItems()
	if p.curTokenIs(token.Arrow) && !p.curToken.NewlineBefore {
		return p.parseArrowBody(tok, p.toParams(items, rest), false)
	}
	if rest != nil {
		p.failAt(rest.Token, "Unexpected token '...'")
	}
	switch len(items) {
	case 0:
		p.failAt(tok, "Unexpected token ')'")
	case 1:
		if spread, ok := items[0].(*ast.SpreadElement); ok {
			p.failAt(spread.Token, "Unexpected token '...'")
		}
		p.parenthesized = items[0]
		return items[0]
	}
	for _, it := range items {
		if spread, ok := it.(*ast.SpreadElement); ok {
			p.failAt(spread.Token, "Unexpected token '...'")
		}
	}
	return &ast.SequenceExpression{Token: tok, Expressions: items}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	arr := &ast.ArrayLiteral{Token: p.curToken}
	p.nextToken()
	saved := p.noIn
	p.noIn = false
	for !p.curTokenIs(token.RightBracket) {
		switch p.curToken.Type {
		case token.Comma:
			arr.Elements = append(arr.Elements, nil)
			p.nextToken()
			continue
		case token.Spread:
			spread := &ast.SpreadElement{Token: p.curToken}
			p.nextToken()
			spread.Argument = p.parseAssignment()
			arr.Elements = append(arr.Elements, spread)
		default:
			arr.Elements = append(arr.Elements, p.parseAssignment())
		}
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.noIn = saved
	p.expect(token.RightBracket, "']'")
	return arr
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	obj := &ast.ObjectLiteral{Token: p.curToken}
	p.nextToken()
	saved := p.noIn
	p.noIn = false
	for !p.curTokenIs(token.RightBrace) {
		obj.Properties = append(obj.Properties, p.parseObjectProperty())
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.noIn = saved
	p.expect(token.RightBrace, "'}'")
	return obj
}

func (p *Parser) parseObjectProperty() *ast.Property {
	prop := &ast.Property{Token: p.curToken, Kind: ast.PropertyInit}
	if p.curTokenIs(token.Spread) {
		p.nextToken()
		prop.Kind = ast.PropertySpread
		prop.Value = p.parseAssignment()
		return prop
	}

	async, generator := false, false
	if p.curTokenIs(token.Async) && !p.peekIsPropertyEnd() && !p.peekToken.NewlineBefore {
		async = true
		p.nextToken()
	}
	if p.curTokenIs(token.Asterisk) {
		generator = true
		p.nextToken()
	}
	if !async && !generator && (p.curIsWord("get") || p.curIsWord("set")) && !p.peekIsPropertyEnd() {
		if p.curToken.Literal == "get" {
			prop.Kind = ast.PropertyGet
		} else {
			prop.Kind = ast.PropertySet
		}
		p.nextToken()
	}

	keyTok := p.curToken
	prop.Key, prop.Computed = p.parsePropertyKey()

	if p.curTokenIs(token.LeftParen) || async || generator || prop.Kind != ast.PropertyInit {
		prop.Method = true
		prop.Value = p.parseMethod(keyTok, async, generator)
		return prop
	}
	if p.curTokenIs(token.Colon) {
		p.nextToken()
		prop.Value = p.parseAssignment()
		return prop
	}

	// shorthand, possibly with a default that only a pattern can use
	id, ok := prop.Key.(*ast.Identifier)
	if !ok || prop.Computed || (keyTok.Type != token.Identifier && keyTok.Type != token.Yield &&
		keyTok.Type != token.Await && keyTok.Type != token.Async && keyTok.Type != token.Let) {
		p.unexpected()
	}
	prop.Shorthand = true
	prop.Value = id
	if p.curTokenIs(token.Assign) {
		eq := p.curToken
		p.nextToken()
		prop.Value = &ast.AssignmentPattern{Token: eq, Target: id, Default: p.parseAssignment()}
	}
	return prop
}

// peekIsPropertyEnd reports whether the token after a get/set/async word
// ends the property, making the word itself the key.
func (p *Parser) peekIsPropertyEnd() bool {
	switch p.peekToken.Type {
	case token.LeftParen, token.Colon, token.Comma, token.RightBrace, token.Assign, token.Semicolon:
		return true
	}
	return false
}

// parsePropertyKey parses an object or class key: a name, string, number,
// private name or `[computed]`.
func (p *Parser) parsePropertyKey() (ast.Expression, bool) {
	tok := p.curToken
	switch tok.Type {
	case token.LeftBracket:
		p.nextToken()
		key := p.parseNested(p.parseAssignment)
		p.expect(token.RightBracket, "']'")
		return key, true
	case token.String:
		p.nextToken()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}, false
	case token.Number:
		p.nextToken()
		return &ast.NumberLiteral{Token: tok, Value: p.numberValue(tok)}, false
	case token.BigInt:
		p.nextToken()
		v, _ := new(big.Int).SetString(tok.Literal, 0)
		return &ast.StringLiteral{Token: tok, Value: v.String()}, false
	case token.PrivateName:
		p.nextToken()
		return &ast.PrivateName{Token: tok, Name: tok.Literal}, false
	}
	return p.identifierName(), false
}

func (p *Parser) parseTemplateLiteral() *ast.TemplateLiteral {
	tmpl := &ast.TemplateLiteral{Token: p.curToken}
	if p.curTokenIs(token.NoSubstitutionTemplate) {
		tmpl.Quasis = append(tmpl.Quasis, &ast.TemplateElement{Token: p.curToken, Value: p.curToken.Literal, Raw: p.curToken.Raw, Tail: true})
		p.nextToken()
		return tmpl
	}
	tmpl.Quasis = append(tmpl.Quasis, &ast.TemplateElement{Token: p.curToken, Value: p.curToken.Literal, Raw: p.curToken.Raw})
	p.nextToken()
	for {
		tmpl.Expressions = append(tmpl.Expressions, p.parseNested(p.parseExpression))
		tok := p.curToken
		switch tok.Type {
		case token.TemplateMiddle:
			tmpl.Quasis = append(tmpl.Quasis, &ast.TemplateElement{Token: tok, Value: tok.Literal, Raw: tok.Raw})
			p.nextToken()
		case token.TemplateTail:
			tmpl.Quasis = append(tmpl.Quasis, &ast.TemplateElement{Token: tok, Value: tok.Literal, Raw: tok.Raw, Tail: true})
			p.nextToken()
			return tmpl
		default:
			p.unexpected()
		}
	}
}

// numberValue converts a numeric literal. Radix literals too large for
// uint64 go through big.Int so they round like any other double.
func (p *Parser) numberValue(tok token.Token) float64 {
	lit := tok.Literal
	if len(lit) > 2 && lit[0] == '0' {
		base := map[byte]int{'x': 16, 'o': 8, 'b': 2}[lit[1]]
		if base != 0 {
			if u, err := strconv.ParseUint(lit[2:], base, 64); err == nil {
				return float64(u)
			}
			n, ok := new(big.Int).SetString(lit[2:], base)
			if !ok {
				p.failAt(tok, "Invalid number %s", lit)
			}
			f, _ := new(big.Float).SetInt(n).Float64()
			return f
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		p.failAt(tok, "Invalid number %s", lit)
	}
	if math.IsNaN(f) {
		p.failAt(tok, "Invalid number %s", lit)
	}
	return f
}
