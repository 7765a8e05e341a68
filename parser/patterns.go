package parser

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/token"
)

// parseBindingTarget parses the target of a declaration: an identifier
// or an object/array binding pattern.
func (p *Parser) parseBindingTarget() ast.Expression {
	switch p.curToken.Type {
	case token.LeftBracket:
		return p.parseArrayBindingPattern()
	case token.LeftBrace:
		return p.parseObjectBindingPattern()
	}
	return p.bindingIdentifier()
}

// parseBindingElement is a binding target with an optional default.
func (p *Parser) parseBindingElement() ast.Expression {
	target := p.parseBindingTarget()
	if !p.curTokenIs(token.Assign) {
		return target
	}
	eq := p.curToken
	p.nextToken()
	return &ast.AssignmentPattern{Token: eq, Target: target, Default: p.parseNested(p.parseAssignment)}
}

func (p *Parser) parseArrayBindingPattern() ast.Expression {
	pat := &ast.ArrayPattern{Token: p.curToken}
	p.nextToken()
	for !p.curTokenIs(token.RightBracket) {
		if p.curTokenIs(token.Comma) {
			pat.Elements = append(pat.Elements, nil)
			p.nextToken()
			continue
		}
		if p.curTokenIs(token.Spread) {
			p.nextToken()
			pat.Rest = p.parseBindingTarget()
			if !p.curTokenIs(token.RightBracket) {
				p.fail("Rest element must be last element")
			}
			break
		}
		pat.Elements = append(pat.Elements, p.parseBindingElement())
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.expect(token.RightBracket, "']'")
	return pat
}

func (p *Parser) parseObjectBindingPattern() ast.Expression {
	pat := &ast.ObjectPattern{Token: p.curToken}
	p.nextToken()
	for !p.curTokenIs(token.RightBrace) {
		if p.curTokenIs(token.Spread) {
			p.nextToken()
			pat.Rest = p.bindingIdentifier()
			if !p.curTokenIs(token.RightBrace) {
				p.fail("Rest element must be last element")
			}
			break
		}
		prop := &ast.Property{Token: p.curToken, Kind: ast.PropertyInit}
		keyTok := p.curToken
		prop.Key, prop.Computed = p.parsePropertyKey()
		if p.curTokenIs(token.Colon) {
			p.nextToken()
			prop.Value = p.parseBindingElement()
		} else {
			id, ok := prop.Key.(*ast.Identifier)
			if !ok || prop.Computed || token.IsKeyword(keyTok.Type) && keyTok.Type != token.Yield &&
				keyTok.Type != token.Await && keyTok.Type != token.Async && keyTok.Type != token.Let {
				p.failAt(keyTok, "Unexpected token %s", keyTok.Describe())
			}
			prop.Shorthand = true
			prop.Value = &ast.Identifier{Token: id.Token, Value: id.Value}
			if p.curTokenIs(token.Assign) {
				eq := p.curToken
				p.nextToken()
				prop.Value = &ast.AssignmentPattern{Token: eq, Target: prop.Value, Default: p.parseNested(p.parseAssignment)}
			}
		}
		pat.Properties = append(pat.Properties, prop)
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.expect(token.RightBrace, "'}'")
	return pat
}

// toAssignmentTarget converts the left side of `=` (or a for-in/of head)
// from the expression it was parsed as into an assignment target.
func (p *Parser) toAssignmentTarget(expr ast.Expression, start token.Token) ast.Expression {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e
	case *ast.MemberExpression:
		if !e.Optional {
			return e
		}
	case *ast.ArrayLiteral, *ast.ObjectLiteral, *ast.ArrayPattern, *ast.ObjectPattern:
		return p.toPattern(e, false, start)
	}
	p.failAt(start, "Invalid left-hand side in assignment")
	return nil
}

// simpleTarget accepts only identifiers and member expressions, as
// compound assignment and ++/-- require.
func (p *Parser) simpleTarget(expr ast.Expression, start token.Token) ast.Expression {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e
	case *ast.MemberExpression:
		if !e.Optional {
			return e
		}
	}
	p.failAt(start, "Invalid left-hand side expression")
	return nil
}

// toPattern reinterprets an array/object literal (the cover grammar) as a
// destructuring pattern. binding restricts leaves to identifiers, as in
// arrow parameters.
func (p *Parser) toPattern(expr ast.Expression, binding bool, start token.Token) ast.Expression {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e
	case *ast.MemberExpression:
		if !binding && !e.Optional {
			return e
		}
	case *ast.AssignmentExpression:
		if e.Operator == "=" {
			return &ast.AssignmentPattern{Token: e.Token, Target: p.toPattern(e.Target, binding, start), Default: e.Value}
		}
	case *ast.AssignmentPattern:
		return &ast.AssignmentPattern{Token: e.Token, Target: p.toPattern(e.Target, binding, start), Default: e.Default}
	case *ast.ArrayLiteral:
		pat := &ast.ArrayPattern{Token: e.Token}
		for i, el := range e.Elements {
			if spread, ok := el.(*ast.SpreadElement); ok {
				if i != len(e.Elements)-1 {
					p.failAt(spread.Token, "Rest element must be last element")
				}
				pat.Rest = p.toPattern(spread.Argument, binding, start)
				break
			}
			if el == nil {
				pat.Elements = append(pat.Elements, nil)
				continue
			}
			pat.Elements = append(pat.Elements, p.toPattern(el, binding, start))
		}
		return pat
	case *ast.ArrayPattern:
		pat := &ast.ArrayPattern{Token: e.Token}
		for _, el := range e.Elements {
			if el == nil {
				pat.Elements = append(pat.Elements, nil)
				continue
			}
			pat.Elements = append(pat.Elements, p.toPattern(el, binding, start))
		}
		if e.Rest != nil {
			pat.Rest = p.toPattern(e.Rest, binding, start)
		}
		return pat
	case *ast.ObjectLiteral:
		pat := &ast.ObjectPattern{Token: e.Token}
		for i, prop := range e.Properties {
			switch {
			case prop.Kind == ast.PropertySpread:
				if i != len(e.Properties)-1 {
					p.failAt(prop.Token, "Rest element must be last element")
				}
				pat.Rest = p.toPattern(prop.Value, binding, start)
			case prop.Kind == ast.PropertyInit && !prop.Method:
				pat.Properties = append(pat.Properties, &ast.Property{
					Token:     prop.Token,
					Kind:      ast.PropertyInit,
					Key:       prop.Key,
					Value:     p.toPattern(prop.Value, binding, start),
					Computed:  prop.Computed,
					Shorthand: prop.Shorthand,
				})
			default:
				p.failAt(prop.Token, "Invalid destructuring assignment target")
			}
		}
		return pat
	case *ast.ObjectPattern:
		pat := &ast.ObjectPattern{Token: e.Token}
		for _, prop := range e.Properties {
			cp := *prop
			cp.Value = p.toPattern(prop.Value, binding, start)
			pat.Properties = append(pat.Properties, &cp)
		}
		if e.Rest != nil {
			pat.Rest = p.toPattern(e.Rest, binding, start)
		}
		return pat
	}
	p.failAt(start, "Invalid destructuring assignment target")
	return nil
}
