package ast

import "github.com/finitefield-org/browser-tester-sub000/token"

// Node is the interface all AST nodes implement. NodeType names the
// concrete node type for diagnostics.
type Node interface {
	TokenLiteral() string
	NodeType() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of every AST. Module is set when the source
// was parsed as an ES module.
type Program struct {
	Statements []Statement
	Module     bool
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}
func (p *Program) NodeType() string { return "Program" }

// ---------- Statements ----------

type VariableDeclaration struct {
	Token        token.Token
	Kind         string // "var", "let" or "const"
	Declarations []*VariableDeclarator
}

type VariableDeclarator struct {
	Token  token.Token
	Target Expression // Identifier, ObjectPattern or ArrayPattern
	Init   Expression // may be nil
}

type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

type BlockStatement struct {
	Token      token.Token
	Statements []Statement
}

type ReturnStatement struct {
	Token    token.Token
	Argument Expression // may be nil
}

type IfStatement struct {
	Token      token.Token
	Test       Expression
	Consequent Statement
	Alternate  Statement // may be nil
}

type WhileStatement struct {
	Token token.Token
	Test  Expression
	Body  Statement
}

type DoWhileStatement struct {
	Token token.Token
	Body  Statement
	Test  Expression
}

type ForStatement struct {
	Token  token.Token
	Init   Node       // *VariableDeclaration, Expression or nil
	Test   Expression // may be nil
	Update Expression // may be nil
	Body   Statement
}

// ForInStatement and ForOfStatement share a head: Left is either a
// *VariableDeclaration with one declarator and no initializer, or an
// assignment target.
type ForInStatement struct {
	Token token.Token
	Left  Node
	Right Expression
	Body  Statement
}

type ForOfStatement struct {
	Token token.Token
	Left  Node
	Right Expression
	Body  Statement
	Await bool
}

type BreakStatement struct {
	Token token.Token
	Label *Identifier // may be nil
}

type ContinueStatement struct {
	Token token.Token
	Label *Identifier // may be nil
}

type SwitchStatement struct {
	Token        token.Token
	Discriminant Expression
	Cases        []*SwitchCase
}

type SwitchCase struct {
	Token      token.Token
	Test       Expression // nil for default
	Consequent []Statement
}

type ThrowStatement struct {
	Token    token.Token
	Argument Expression
}

type TryStatement struct {
	Token     token.Token
	Block     *BlockStatement
	Handler   *CatchClause    // may be nil
	Finalizer *BlockStatement // may be nil
}

type CatchClause struct {
	Token token.Token
	Param Expression // may be nil
	Body  *BlockStatement
}

type FunctionDeclaration struct {
	Token    token.Token
	Function *FunctionLiteral
}

// Name returns the declared binding name.
func (d *FunctionDeclaration) Name() string {
	if d.Function.Name == nil {
		return ""
	}
	return d.Function.Name.Value
}

type ClassDeclaration struct {
	Token token.Token
	Class *ClassLiteral
}

func (d *ClassDeclaration) Name() string {
	if d.Class.Name == nil {
		return ""
	}
	return d.Class.Name.Value
}

type LabeledStatement struct {
	Token token.Token
	Label *Identifier
	Body  Statement
}

type DebuggerStatement struct {
	Token token.Token
}

type EmptyStatement struct {
	Token token.Token
}

type WithStatement struct {
	Token  token.Token
	Object Expression
	Body   Statement
}

// ---------- Modules ----------

type ImportKind int

const (
	ImportNamed ImportKind = iota
	ImportDefault
	ImportNamespace
)

// ImportDeclaration covers `import x, {a as b} from "m"`, `import * as ns
// from "m"` and the bare `import "m"`. AttributeType carries `with { type:
// "..." }`.
type ImportDeclaration struct {
	Token         token.Token
	Specifiers    []*ImportSpecifier
	Source        string
	AttributeType string
}

type ImportSpecifier struct {
	Token    token.Token
	Kind     ImportKind
	Imported string // export name; empty for default and namespace
	Local    *Identifier
}

// ExportNamedDeclaration is either `export <declaration>` or an export
// list, optionally re-exported from Source.
type ExportNamedDeclaration struct {
	Token         token.Token
	Declaration   Statement // may be nil
	Specifiers    []*ExportSpecifier
	Source        string
	AttributeType string
}

type ExportSpecifier struct {
	Token    token.Token
	Local    string
	Exported string
}

// ExportDefaultDeclaration holds a *FunctionDeclaration, a
// *ClassDeclaration or an Expression.
type ExportDefaultDeclaration struct {
	Token       token.Token
	Declaration Node
}

// ExportAllDeclaration is `export * from "m"` or `export * as ns from "m"`.
type ExportAllDeclaration struct {
	Token         token.Token
	Exported      string
	Source        string
	AttributeType string
}

// ---------- statement boilerplate ----------

func (s *VariableDeclaration) statementNode()      {}
func (s *ExpressionStatement) statementNode()      {}
func (s *BlockStatement) statementNode()           {}
func (s *ReturnStatement) statementNode()          {}
func (s *IfStatement) statementNode()              {}
func (s *WhileStatement) statementNode()           {}
func (s *DoWhileStatement) statementNode()         {}
func (s *ForStatement) statementNode()             {}
func (s *ForInStatement) statementNode()           {}
func (s *ForOfStatement) statementNode()           {}
func (s *BreakStatement) statementNode()           {}
func (s *ContinueStatement) statementNode()        {}
func (s *SwitchStatement) statementNode()          {}
func (s *ThrowStatement) statementNode()           {}
func (s *TryStatement) statementNode()             {}
func (s *FunctionDeclaration) statementNode()      {}
func (s *ClassDeclaration) statementNode()         {}
func (s *LabeledStatement) statementNode()         {}
func (s *DebuggerStatement) statementNode()        {}
func (s *EmptyStatement) statementNode()           {}
func (s *WithStatement) statementNode()            {}
func (s *ImportDeclaration) statementNode()        {}
func (s *ExportNamedDeclaration) statementNode()   {}
func (s *ExportDefaultDeclaration) statementNode() {}
func (s *ExportAllDeclaration) statementNode()     {}

func (s *VariableDeclaration) TokenLiteral() string      { return s.Token.Literal }
func (s *VariableDeclarator) TokenLiteral() string       { return s.Token.Literal }
func (s *ExpressionStatement) TokenLiteral() string      { return s.Token.Literal }
func (s *BlockStatement) TokenLiteral() string           { return s.Token.Literal }
func (s *ReturnStatement) TokenLiteral() string          { return s.Token.Literal }
func (s *IfStatement) TokenLiteral() string              { return s.Token.Literal }
func (s *WhileStatement) TokenLiteral() string           { return s.Token.Literal }
func (s *DoWhileStatement) TokenLiteral() string         { return s.Token.Literal }
func (s *ForStatement) TokenLiteral() string             { return s.Token.Literal }
func (s *ForInStatement) TokenLiteral() string           { return s.Token.Literal }
func (s *ForOfStatement) TokenLiteral() string           { return s.Token.Literal }
func (s *BreakStatement) TokenLiteral() string           { return s.Token.Literal }
func (s *ContinueStatement) TokenLiteral() string        { return s.Token.Literal }
func (s *SwitchStatement) TokenLiteral() string          { return s.Token.Literal }
func (s *SwitchCase) TokenLiteral() string               { return s.Token.Literal }
func (s *ThrowStatement) TokenLiteral() string           { return s.Token.Literal }
func (s *TryStatement) TokenLiteral() string             { return s.Token.Literal }
func (s *CatchClause) TokenLiteral() string              { return s.Token.Literal }
func (s *FunctionDeclaration) TokenLiteral() string      { return s.Token.Literal }
func (s *ClassDeclaration) TokenLiteral() string         { return s.Token.Literal }
func (s *LabeledStatement) TokenLiteral() string         { return s.Token.Literal }
func (s *DebuggerStatement) TokenLiteral() string        { return s.Token.Literal }
func (s *EmptyStatement) TokenLiteral() string           { return s.Token.Literal }
func (s *WithStatement) TokenLiteral() string            { return s.Token.Literal }
func (s *ImportDeclaration) TokenLiteral() string        { return s.Token.Literal }
func (s *ImportSpecifier) TokenLiteral() string          { return s.Token.Literal }
func (s *ExportNamedDeclaration) TokenLiteral() string   { return s.Token.Literal }
func (s *ExportSpecifier) TokenLiteral() string          { return s.Token.Literal }
func (s *ExportDefaultDeclaration) TokenLiteral() string { return s.Token.Literal }
func (s *ExportAllDeclaration) TokenLiteral() string     { return s.Token.Literal }

func (s *VariableDeclaration) NodeType() string      { return "VariableDeclaration" }
func (s *VariableDeclarator) NodeType() string       { return "VariableDeclarator" }
func (s *ExpressionStatement) NodeType() string      { return "ExpressionStatement" }
func (s *BlockStatement) NodeType() string           { return "BlockStatement" }
func (s *ReturnStatement) NodeType() string          { return "ReturnStatement" }
func (s *IfStatement) NodeType() string              { return "IfStatement" }
func (s *WhileStatement) NodeType() string           { return "WhileStatement" }
func (s *DoWhileStatement) NodeType() string         { return "DoWhileStatement" }
func (s *ForStatement) NodeType() string             { return "ForStatement" }
func (s *ForInStatement) NodeType() string           { return "ForInStatement" }
func (s *ForOfStatement) NodeType() string           { return "ForOfStatement" }
func (s *BreakStatement) NodeType() string           { return "BreakStatement" }
func (s *ContinueStatement) NodeType() string        { return "ContinueStatement" }
func (s *SwitchStatement) NodeType() string          { return "SwitchStatement" }
func (s *SwitchCase) NodeType() string               { return "SwitchCase" }
func (s *ThrowStatement) NodeType() string           { return "ThrowStatement" }
func (s *TryStatement) NodeType() string             { return "TryStatement" }
func (s *CatchClause) NodeType() string              { return "CatchClause" }
func (s *FunctionDeclaration) NodeType() string      { return "FunctionDeclaration" }
func (s *ClassDeclaration) NodeType() string         { return "ClassDeclaration" }
func (s *LabeledStatement) NodeType() string         { return "LabeledStatement" }
func (s *DebuggerStatement) NodeType() string        { return "DebuggerStatement" }
func (s *EmptyStatement) NodeType() string           { return "EmptyStatement" }
func (s *WithStatement) NodeType() string            { return "WithStatement" }
func (s *ImportDeclaration) NodeType() string        { return "ImportDeclaration" }
func (s *ImportSpecifier) NodeType() string          { return "ImportSpecifier" }
func (s *ExportNamedDeclaration) NodeType() string   { return "ExportNamedDeclaration" }
func (s *ExportSpecifier) NodeType() string          { return "ExportSpecifier" }
func (s *ExportDefaultDeclaration) NodeType() string { return "ExportDefaultDeclaration" }
func (s *ExportAllDeclaration) NodeType() string     { return "ExportAllDeclaration" }
