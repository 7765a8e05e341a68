package ast

import (
	"math/big"

	"github.com/finitefield-org/browser-tester-sub000/token"
)

type Identifier struct {
	Token token.Token
	Value string
}

// PrivateName is a `#name` class element key. Name includes the '#'.
type PrivateName struct {
	Token token.Token
	Name  string
}

type NumberLiteral struct {
	Token token.Token
	Value float64
}

type BigIntLiteral struct {
	Token token.Token
	Value *big.Int
}

type StringLiteral struct {
	Token token.Token
	Value string
}

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

type NullLiteral struct {
	Token token.Token
}

type RegExpLiteral struct {
	Token   token.Token
	Pattern string
	Flags   string
}

type TemplateLiteral struct {
	Token       token.Token
	Quasis      []*TemplateElement
	Expressions []Expression
}

// TemplateElement holds a chunk's cooked Value and its Raw source text.
type TemplateElement struct {
	Token token.Token
	Value string
	Raw   string
	Tail  bool
}

type TaggedTemplateExpression struct {
	Token token.Token
	Tag   Expression
	Quasi *TemplateLiteral
}

// ArrayLiteral elements are nil for holes.
type ArrayLiteral struct {
	Token    token.Token
	Elements []Expression
}

type ObjectLiteral struct {
	Token      token.Token
	Properties []*Property
}

// PropertyKind distinguishes plain, accessor and spread entries of an
// object literal.
type PropertyKind int

const (
	PropertyInit PropertyKind = iota
	PropertyGet
	PropertySet
	PropertySpread
)

// Property is an object literal entry or an object pattern entry. For a
// spread (or a pattern rest) Key is nil and Value is the argument.
type Property struct {
	Token     token.Token
	Kind      PropertyKind
	Key       Expression
	Value     Expression
	Computed  bool
	Shorthand bool
	Method    bool
}

// FunctionLiteral is shared by function declarations, function
// expressions, arrows and methods. Params holds Identifier, patterns,
// AssignmentPattern (defaults) and a trailing RestElement. Arrows with an
// expression body set ExprBody and leave Body nil.
type FunctionLiteral struct {
	Token     token.Token
	Name      *Identifier
	Params    []Expression
	Body      *BlockStatement
	ExprBody  Expression
	Generator bool
	Async     bool
	Arrow     bool
	Method    bool
}

// SimpleParams reports whether every parameter is a plain identifier.
func (f *FunctionLiteral) SimpleParams() bool {
	for _, p := range f.Params {
		if _, ok := p.(*Identifier); !ok {
			return false
		}
	}
	return true
}

// ClassLiteral is the class body shared by declarations and expressions.
type ClassLiteral struct {
	Token      token.Token
	Name       *Identifier
	SuperClass Expression // may be nil
	Members    []ClassMember
}

// ClassMember is a *MethodDefinition, *PropertyDefinition or *StaticBlock.
type ClassMember interface {
	Node
	classMember()
}

type MethodDefinition struct {
	Token    token.Token
	Key      Expression // Identifier, PrivateName, literal or computed expression
	Computed bool
	Static   bool
	Kind     string // "constructor", "method", "get" or "set"
	Value    *FunctionLiteral
}

// PropertyDefinition is a class field. Value may be nil.
type PropertyDefinition struct {
	Token    token.Token
	Key      Expression
	Computed bool
	Static   bool
	Value    Expression
}

type StaticBlock struct {
	Token token.Token
	Body  *BlockStatement
}

type UnaryExpression struct {
	Token    token.Token
	Operator string
	Operand  Expression
}

type UpdateExpression struct {
	Token    token.Token
	Operator string // "++" or "--"
	Prefix   bool
	Operand  Expression
}

type BinaryExpression struct {
	Token    token.Token
	Operator string
	Left     Expression
	Right    Expression
}

type LogicalExpression struct {
	Token    token.Token
	Operator string // "&&", "||" or "??"
	Left     Expression
	Right    Expression
}

// AssignmentExpression targets an Identifier, a MemberExpression or (for
// "=" only) an ObjectPattern/ArrayPattern.
type AssignmentExpression struct {
	Token    token.Token
	Operator string
	Target   Expression
	Value    Expression
}

type ConditionalExpression struct {
	Token      token.Token
	Test       Expression
	Consequent Expression
	Alternate  Expression
}

// CallExpression and MemberExpression set Optional on the link written
// with `?.`. The outermost link of such a chain is wrapped in a
// ChainExpression, which is where a nullish short-circuit lands.
type CallExpression struct {
	Token     token.Token
	Callee    Expression
	Arguments []Expression
	Optional  bool
}

type MemberExpression struct {
	Token    token.Token
	Object   Expression
	Property Expression // Identifier or PrivateName unless Computed
	Computed bool
	Optional bool
}

type ChainExpression struct {
	Token      token.Token
	Expression Expression
}

type NewExpression struct {
	Token     token.Token
	Callee    Expression
	Arguments []Expression
}

type SequenceExpression struct {
	Token       token.Token
	Expressions []Expression
}

type SpreadElement struct {
	Token    token.Token
	Argument Expression
}

type YieldExpression struct {
	Token    token.Token
	Argument Expression // may be nil
	Delegate bool
}

type AwaitExpression struct {
	Token    token.Token
	Argument Expression
}

type ThisExpression struct {
	Token token.Token
}

type SuperExpression struct {
	Token token.Token
}

// MetaProperty is `new.target`.
type MetaProperty struct {
	Token    token.Token
	Meta     string
	Property string
}

// ---------- Patterns ----------

// ObjectPattern entries are Property values with Kind PropertyInit; Rest
// collects the remaining own enumerable keys.
type ObjectPattern struct {
	Token      token.Token
	Properties []*Property
	Rest       Expression
}

// ArrayPattern elements are nil for elisions.
type ArrayPattern struct {
	Token    token.Token
	Elements []Expression
	Rest     Expression
}

type AssignmentPattern struct {
	Token   token.Token
	Target  Expression
	Default Expression
}

// RestElement only appears as the last function parameter.
type RestElement struct {
	Token    token.Token
	Argument Expression
}

// ---------- expression boilerplate ----------

func (e *Identifier) expressionNode()               {}
func (e *PrivateName) expressionNode()              {}
func (e *NumberLiteral) expressionNode()            {}
func (e *BigIntLiteral) expressionNode()            {}
func (e *StringLiteral) expressionNode()            {}
func (e *BooleanLiteral) expressionNode()           {}
func (e *NullLiteral) expressionNode()              {}
func (e *RegExpLiteral) expressionNode()            {}
func (e *TemplateLiteral) expressionNode()          {}
func (e *TaggedTemplateExpression) expressionNode() {}
func (e *ArrayLiteral) expressionNode()             {}
func (e *ObjectLiteral) expressionNode()            {}
func (e *FunctionLiteral) expressionNode()          {}
func (e *ClassLiteral) expressionNode()             {}
func (e *UnaryExpression) expressionNode()          {}
func (e *UpdateExpression) expressionNode()         {}
func (e *BinaryExpression) expressionNode()         {}
func (e *LogicalExpression) expressionNode()        {}
func (e *AssignmentExpression) expressionNode()     {}
func (e *ConditionalExpression) expressionNode()    {}
func (e *CallExpression) expressionNode()           {}
func (e *MemberExpression) expressionNode()         {}
func (e *ChainExpression) expressionNode()          {}
func (e *NewExpression) expressionNode()            {}
func (e *SequenceExpression) expressionNode()       {}
func (e *SpreadElement) expressionNode()            {}
func (e *YieldExpression) expressionNode()          {}
func (e *AwaitExpression) expressionNode()          {}
func (e *ThisExpression) expressionNode()           {}
func (e *SuperExpression) expressionNode()          {}
func (e *MetaProperty) expressionNode()             {}
func (e *ObjectPattern) expressionNode()            {}
func (e *ArrayPattern) expressionNode()             {}
func (e *AssignmentPattern) expressionNode()        {}
func (e *RestElement) expressionNode()              {}

func (m *MethodDefinition) classMember()   {}
func (m *PropertyDefinition) classMember() {}
func (m *StaticBlock) classMember()        {}

func (e *Identifier) TokenLiteral() string               { return e.Token.Literal }
func (e *PrivateName) TokenLiteral() string              { return e.Token.Literal }
func (e *NumberLiteral) TokenLiteral() string            { return e.Token.Literal }
func (e *BigIntLiteral) TokenLiteral() string            { return e.Token.Literal }
func (e *StringLiteral) TokenLiteral() string            { return e.Token.Literal }
func (e *BooleanLiteral) TokenLiteral() string           { return e.Token.Literal }
func (e *NullLiteral) TokenLiteral() string              { return e.Token.Literal }
func (e *RegExpLiteral) TokenLiteral() string            { return e.Token.Literal }
func (e *TemplateLiteral) TokenLiteral() string          { return e.Token.Literal }
func (e *TemplateElement) TokenLiteral() string          { return e.Token.Literal }
func (e *TaggedTemplateExpression) TokenLiteral() string { return e.Token.Literal }
func (e *ArrayLiteral) TokenLiteral() string             { return e.Token.Literal }
func (e *ObjectLiteral) TokenLiteral() string            { return e.Token.Literal }
func (e *Property) TokenLiteral() string                 { return e.Token.Literal }
func (e *FunctionLiteral) TokenLiteral() string          { return e.Token.Literal }
func (e *ClassLiteral) TokenLiteral() string             { return e.Token.Literal }
func (e *MethodDefinition) TokenLiteral() string         { return e.Token.Literal }
func (e *PropertyDefinition) TokenLiteral() string       { return e.Token.Literal }
func (e *StaticBlock) TokenLiteral() string              { return e.Token.Literal }
func (e *UnaryExpression) TokenLiteral() string          { return e.Token.Literal }
func (e *UpdateExpression) TokenLiteral() string         { return e.Token.Literal }
func (e *BinaryExpression) TokenLiteral() string         { return e.Token.Literal }
func (e *LogicalExpression) TokenLiteral() string        { return e.Token.Literal }
func (e *AssignmentExpression) TokenLiteral() string     { return e.Token.Literal }
func (e *ConditionalExpression) TokenLiteral() string    { return e.Token.Literal }
func (e *CallExpression) TokenLiteral() string           { return e.Token.Literal }
func (e *MemberExpression) TokenLiteral() string         { return e.Token.Literal }
func (e *ChainExpression) TokenLiteral() string          { return e.Token.Literal }
func (e *NewExpression) TokenLiteral() string            { return e.Token.Literal }
func (e *SequenceExpression) TokenLiteral() string       { return e.Token.Literal }
func (e *SpreadElement) TokenLiteral() string            { return e.Token.Literal }
func (e *YieldExpression) TokenLiteral() string          { return e.Token.Literal }
func (e *AwaitExpression) TokenLiteral() string          { return e.Token.Literal }
func (e *ThisExpression) TokenLiteral() string           { return e.Token.Literal }
func (e *SuperExpression) TokenLiteral() string          { return e.Token.Literal }
func (e *MetaProperty) TokenLiteral() string             { return e.Token.Literal }
func (e *ObjectPattern) TokenLiteral() string            { return e.Token.Literal }
func (e *ArrayPattern) TokenLiteral() string             { return e.Token.Literal }
func (e *AssignmentPattern) TokenLiteral() string        { return e.Token.Literal }
func (e *RestElement) TokenLiteral() string              { return e.Token.Literal }

func (e *Identifier) NodeType() string               { return "Identifier" }
func (e *PrivateName) NodeType() string              { return "PrivateName" }
func (e *NumberLiteral) NodeType() string            { return "NumberLiteral" }
func (e *BigIntLiteral) NodeType() string            { return "BigIntLiteral" }
func (e *StringLiteral) NodeType() string            { return "StringLiteral" }
func (e *BooleanLiteral) NodeType() string           { return "BooleanLiteral" }
func (e *NullLiteral) NodeType() string              { return "NullLiteral" }
func (e *RegExpLiteral) NodeType() string            { return "RegExpLiteral" }
func (e *TemplateLiteral) NodeType() string          { return "TemplateLiteral" }
func (e *TemplateElement) NodeType() string          { return "TemplateElement" }
func (e *TaggedTemplateExpression) NodeType() string { return "TaggedTemplateExpression" }
func (e *ArrayLiteral) NodeType() string             { return "ArrayLiteral" }
func (e *ObjectLiteral) NodeType() string            { return "ObjectLiteral" }
func (e *Property) NodeType() string                 { return "Property" }
func (e *FunctionLiteral) NodeType() string          { return "FunctionLiteral" }
func (e *ClassLiteral) NodeType() string             { return "ClassLiteral" }
func (e *MethodDefinition) NodeType() string         { return "MethodDefinition" }
func (e *PropertyDefinition) NodeType() string       { return "PropertyDefinition" }
func (e *StaticBlock) NodeType() string              { return "StaticBlock" }
func (e *UnaryExpression) NodeType() string          { return "UnaryExpression" }
func (e *UpdateExpression) NodeType() string         { return "UpdateExpression" }
func (e *BinaryExpression) NodeType() string         { return "BinaryExpression" }
func (e *LogicalExpression) NodeType() string        { return "LogicalExpression" }
func (e *AssignmentExpression) NodeType() string     { return "AssignmentExpression" }
func (e *ConditionalExpression) NodeType() string    { return "ConditionalExpression" }
func (e *CallExpression) NodeType() string           { return "CallExpression" }
func (e *MemberExpression) NodeType() string         { return "MemberExpression" }
func (e *ChainExpression) NodeType() string          { return "ChainExpression" }
func (e *NewExpression) NodeType() string            { return "NewExpression" }
func (e *SequenceExpression) NodeType() string       { return "SequenceExpression" }
func (e *SpreadElement) NodeType() string            { return "SpreadElement" }
func (e *YieldExpression) NodeType() string          { return "YieldExpression" }
func (e *AwaitExpression) NodeType() string          { return "AwaitExpression" }
func (e *ThisExpression) NodeType() string           { return "ThisExpression" }
func (e *SuperExpression) NodeType() string          { return "SuperExpression" }
func (e *MetaProperty) NodeType() string             { return "MetaProperty" }
func (e *ObjectPattern) NodeType() string            { return "ObjectPattern" }
func (e *ArrayPattern) NodeType() string             { return "ArrayPattern" }
func (e *AssignmentPattern) NodeType() string        { return "AssignmentPattern" }
func (e *RestElement) NodeType() string              { return "RestElement" }
