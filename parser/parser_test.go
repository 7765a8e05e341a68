package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finitefield-org/browser-tester-sub000/ast"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, err := ParseScript(input)
	require.NoError(t, err, "source: %s", input)
	return prog
}

func parseModule(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, err := ParseModule(input)
	require.NoError(t, err, "source: %s", input)
	return prog
}

func parseErr(t *testing.T, input string) *ParseError {
	t.Helper()
	_, err := ParseScript(input)
	require.Error(t, err, "source: %s", input)
	perr, ok := err.(*ParseError)
	require.True(t, ok, "want *ParseError, got %T", err)
	return perr
}

// expr returns the expression of the only statement in input.
func expr(t *testing.T, input string) ast.Expression {
	t.Helper()
	prog := parse(t, input)
	require.Len(t, prog.Statements, 1)
	stmt, ok := prog.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "want expression statement, got %T", prog.Statements[0])
	return stmt.Expression
}

func TestVariableDeclarations(t *testing.T) {
	assert := assert.New(t)
	prog := parse(t, `var x = 1; let a, b = 2; const {c, d: [e]} = o;`)
	require.Len(t, prog.Statements, 3)

	decl := prog.Statements[0].(*ast.VariableDeclaration)
	assert.Equal("var", decl.Kind)
	assert.Equal("x", decl.Declarations[0].Target.(*ast.Identifier).Value)

	decl = prog.Statements[1].(*ast.VariableDeclaration)
	assert.Equal("let", decl.Kind)
	assert.Len(decl.Declarations, 2)
	assert.Nil(decl.Declarations[0].Init)

	decl = prog.Statements[2].(*ast.VariableDeclaration)
	pat := decl.Declarations[0].Target.(*ast.ObjectPattern)
	assert.Len(pat.Properties, 2)
	assert.True(pat.Properties[0].Shorthand)
	assert.IsType(&ast.ArrayPattern{}, pat.Properties[1].Value)
}

func TestDeclarationErrors(t *testing.T) {
	assert := assert.New(t)
	assert.Contains(parseErr(t, `const x;`).Msg, "Missing initializer in const declaration")
	assert.Contains(parseErr(t, `let [a];`).Msg, "Missing initializer in destructuring declaration")
	assert.Contains(parseErr(t, `try {}`).Msg, "Missing catch or finally")
	assert.Contains(parseErr(t, "throw\nx").Msg, "Illegal newline after throw")
}

func TestParenthesizedAssignment(t *testing.T) {
	e := expr(t, `(x = 5)`)
	assign, ok := e.(*ast.AssignmentExpression)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, "=", assign.Operator)
	assert.Equal(t, "x", assign.Target.(*ast.Identifier).Value)
}

func TestSequenceInParens(t *testing.T) {
	seq, ok := expr(t, `(a, b, c)`).(*ast.SequenceExpression)
	require.True(t, ok)
	assert.Len(t, seq.Expressions, 3)
}

func TestArrowFunctions(t *testing.T) {
	assert := assert.New(t)

	fn := expr(t, `x => x * 2`).(*ast.FunctionLiteral)
	assert.True(fn.Arrow)
	assert.Len(fn.Params, 1)
	assert.NotNil(fn.ExprBody)

	fn = expr(t, `({a, b: [c]}, d = 1, ...rest) => { return a }`).(*ast.FunctionLiteral)
	require.Len(t, fn.Params, 4)
	assert.IsType(&ast.ObjectPattern{}, fn.Params[0])
	def := fn.Params[1].(*ast.AssignmentPattern)
	assert.Equal("d", def.Target.(*ast.Identifier).Value)
	rest := fn.Params[3].(*ast.RestElement)
	assert.Equal("rest", rest.Argument.(*ast.Identifier).Value)
	assert.NotNil(fn.Body)

	fn = expr(t, `async (a) => await a`).(*ast.FunctionLiteral)
	assert.True(fn.Async)
	assert.IsType(&ast.AwaitExpression{}, fn.ExprBody)

	fn = expr(t, `async x => x`).(*ast.FunctionLiteral)
	assert.True(fn.Async)

	call := expr(t, `async(1, 2)`).(*ast.CallExpression)
	assert.Len(call.Arguments, 2)
}

func TestParenthesizedArrowChains(t *testing.T) {
	assert := assert.New(t)

	call := expr(t, `(() => 1)()`).(*ast.CallExpression)
	assert.True(call.Callee.(*ast.FunctionLiteral).Arrow)

	member := expr(t, `((a, b, c) => 0).length`).(*ast.MemberExpression)
	assert.Len(member.Object.(*ast.FunctionLiteral).Params, 3)

	call = expr(t, `(async () => { await 1 })()`).(*ast.CallExpression)
	assert.True(call.Callee.(*ast.FunctionLiteral).Async)

	fn := expr(t, `x => (y => y)`).(*ast.FunctionLiteral)
	assert.IsType(&ast.FunctionLiteral{}, fn.ExprBody)
}

func TestArrowParamErrors(t *testing.T) {
	parseErr(t, `(a.b) => 1`)
	parseErr(t, `(...a, b) => 1`)
}

func TestDestructuringAssignment(t *testing.T) {
	assign := expr(t, `[a, , ...b] = list`).(*ast.AssignmentExpression)
	pat, ok := assign.Target.(*ast.ArrayPattern)
	require.True(t, ok)
	assert.Len(t, pat.Elements, 2)
	assert.Nil(t, pat.Elements[1])
	assert.NotNil(t, pat.Rest)

	assign = expr(t, `({a = 1, b: obj.c} = src)`).(*ast.AssignmentExpression)
	opat := assign.Target.(*ast.ObjectPattern)
	assert.IsType(t, &ast.AssignmentPattern{}, opat.Properties[0].Value)
	assert.IsType(t, &ast.MemberExpression{}, opat.Properties[1].Value)

	assert.Contains(t, parseErr(t, `a + b = 1`).Msg, "Invalid left-hand side")
	parseErr(t, `++f()`)
}

func TestOperatorPrecedence(t *testing.T) {
	bin := expr(t, `1 + 2 * 3`).(*ast.BinaryExpression)
	assert.Equal(t, "+", bin.Operator)
	assert.Equal(t, "*", bin.Right.(*ast.BinaryExpression).Operator)

	pow := expr(t, `2 ** 3 ** 2`).(*ast.BinaryExpression)
	assert.Equal(t, "**", pow.Right.(*ast.BinaryExpression).Operator)

	logical := expr(t, `a ?? b || c`)
	assert.IsType(t, &ast.LogicalExpression{}, logical)

	parseErr(t, `-2 ** 2`)
}

func TestOptionalChainWrapping(t *testing.T) {
	chain, ok := expr(t, `a?.b.c()`).(*ast.ChainExpression)
	require.True(t, ok)
	call := chain.Expression.(*ast.CallExpression)
	member := call.Callee.(*ast.MemberExpression)
	assert.False(t, member.Optional)
	assert.True(t, member.Object.(*ast.MemberExpression).Optional)

	_, ok = expr(t, `a.b`).(*ast.MemberExpression)
	assert.True(t, ok)

	chain = expr(t, `f?.(1)`).(*ast.ChainExpression)
	assert.True(t, chain.Expression.(*ast.CallExpression).Optional)

	parseErr(t, "a?.b`t`")
}

func TestLoops(t *testing.T) {
	prog := parse(t, `
for (let i = 0; i < 3; i++) {}
for (const k in obj) {}
for (x of list);
for (;;) break;
async function f() { for await (const v of src) {} }
`)
	require.Len(t, prog.Statements, 5)
	assert.IsType(t, &ast.ForStatement{}, prog.Statements[0])
	in := prog.Statements[1].(*ast.ForInStatement)
	assert.Equal(t, "const", in.Left.(*ast.VariableDeclaration).Kind)
	of := prog.Statements[2].(*ast.ForOfStatement)
	assert.IsType(t, &ast.Identifier{}, of.Left)

	fn := prog.Statements[4].(*ast.FunctionDeclaration).Function
	await := fn.Body.Statements[0].(*ast.ForOfStatement)
	assert.True(t, await.Await)
}

func TestForInHeadAllowsInInsideParens(t *testing.T) {
	prog := parse(t, `for (var i = ("a" in o) ? 1 : 0; i < 1; i++) {}`)
	assert.IsType(t, &ast.ForStatement{}, prog.Statements[0])
}

func TestLabelsAndJumps(t *testing.T) {
	prog := parse(t, `outer: for (;;) { inner: while (1) { continue outer; break inner; } }`)
	label := prog.Statements[0].(*ast.LabeledStatement)
	assert.Equal(t, "outer", label.Label.Value)

	// a label on the next line is a new statement
	prog = parse(t, "while (1) { break\nfoo }")
	body := prog.Statements[0].(*ast.WhileStatement).Body.(*ast.BlockStatement)
	require.Len(t, body.Statements, 2)
	assert.Nil(t, body.Statements[0].(*ast.BreakStatement).Label)
}

func TestAutomaticSemicolons(t *testing.T) {
	prog := parse(t, "function f() { return\n1 }")
	body := prog.Statements[0].(*ast.FunctionDeclaration).Function.Body
	require.Len(t, body.Statements, 2)
	assert.Nil(t, body.Statements[0].(*ast.ReturnStatement).Argument)

	prog = parse(t, "a\n++b")
	require.Len(t, prog.Statements, 2)
	upd := prog.Statements[1].(*ast.ExpressionStatement).Expression.(*ast.UpdateExpression)
	assert.True(t, upd.Prefix)

	parseErr(t, `a b`)
}

func TestSwitch(t *testing.T) {
	prog := parse(t, `switch (x) { case 1: a(); case 2: default: b(); }`)
	sw := prog.Statements[0].(*ast.SwitchStatement)
	require.Len(t, sw.Cases, 3)
	assert.Nil(t, sw.Cases[2].Test)
	assert.Empty(t, sw.Cases[1].Consequent)

	assert.Contains(t, parseErr(t, `switch (x) { default: default: }`).Msg, "More than one default")
}

func TestTryCatch(t *testing.T) {
	prog := parse(t, `try { a() } catch ({message}) { } finally { b() }`)
	try := prog.Statements[0].(*ast.TryStatement)
	assert.IsType(t, &ast.ObjectPattern{}, try.Handler.Param)
	assert.NotNil(t, try.Finalizer)

	prog = parse(t, `try {} catch { }`)
	assert.Nil(t, prog.Statements[0].(*ast.TryStatement).Handler.Param)
}

func TestClasses(t *testing.T) {
	prog := parse(t, `
class A extends B {
  #count = 0;
  static total = 1;
  name
  constructor(x) { super(x); }
  get value() { return this.#count; }
  set value(v) {}
  static { A.ready = true; }
  async *stream() {}
  static create() { return new A(); }
  ['computed']() {}
}`)
	cls := prog.Statements[0].(*ast.ClassDeclaration).Class
	assert.Equal(t, "A", cls.Name.Value)
	assert.NotNil(t, cls.SuperClass)
	require.Len(t, cls.Members, 10)

	field := cls.Members[0].(*ast.PropertyDefinition)
	assert.Equal(t, "#count", field.Key.(*ast.PrivateName).Name)
	assert.True(t, cls.Members[1].(*ast.PropertyDefinition).Static)
	assert.Nil(t, cls.Members[2].(*ast.PropertyDefinition).Value)
	assert.Equal(t, "constructor", cls.Members[3].(*ast.MethodDefinition).Kind)
	assert.Equal(t, "get", cls.Members[4].(*ast.MethodDefinition).Kind)
	assert.Equal(t, "set", cls.Members[5].(*ast.MethodDefinition).Kind)
	assert.IsType(t, &ast.StaticBlock{}, cls.Members[6])
	gen := cls.Members[7].(*ast.MethodDefinition).Value
	assert.True(t, gen.Async && gen.Generator)
	assert.True(t, cls.Members[8].(*ast.MethodDefinition).Static)
	assert.True(t, cls.Members[9].(*ast.MethodDefinition).Computed)

	assert.Contains(t, parseErr(t, `class A { constructor(){} constructor(){} }`).Msg, "only have one constructor")
	parseErr(t, `class { }`)
}

func TestPrivateNameIn(t *testing.T) {
	prog := parse(t, `class A { #x; static has(o) { return #x in o } }`)
	cls := prog.Statements[0].(*ast.ClassDeclaration).Class
	method := cls.Members[1].(*ast.MethodDefinition).Value
	ret := method.Body.Statements[0].(*ast.ReturnStatement)
	bin := ret.Argument.(*ast.BinaryExpression)
	assert.Equal(t, "in", bin.Operator)
	assert.Equal(t, "#x", bin.Left.(*ast.PrivateName).Name)

	parseErr(t, `class A { #x; m() { return #x } }`)
	parseErr(t, `class A { #x; m() { return #x + 1 } }`)
}

func TestObjectLiteral(t *testing.T) {
	obj := expr(t, `({a: 1, b, [c]: 2, d() {}, get e() {}, ...f, async g() {}, *h() {}, get: 1, 1n: 2})`).(*ast.ObjectLiteral)
	require.Len(t, obj.Properties, 10)
	assert.True(t, obj.Properties[1].Shorthand)
	assert.True(t, obj.Properties[2].Computed)
	assert.True(t, obj.Properties[3].Method)
	assert.Equal(t, ast.PropertyGet, obj.Properties[4].Kind)
	assert.Equal(t, ast.PropertySpread, obj.Properties[5].Kind)
	assert.True(t, obj.Properties[6].Value.(*ast.FunctionLiteral).Async)
	assert.True(t, obj.Properties[7].Value.(*ast.FunctionLiteral).Generator)
	assert.Equal(t, "get", obj.Properties[8].Key.(*ast.Identifier).Value)
	assert.Equal(t, "1", obj.Properties[9].Key.(*ast.StringLiteral).Value)

	// a shorthand default only makes sense as a pattern
	assign := expr(t, `({a = 1} = {})`).(*ast.AssignmentExpression)
	assert.IsType(t, &ast.ObjectPattern{}, assign.Target)
}

func TestLiterals(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(255.0, expr(t, `0xff`).(*ast.NumberLiteral).Value)
	assert.Equal(1000000.0, expr(t, `1_000_000`).(*ast.NumberLiteral).Value)
	assert.Equal("12345678901234567890", expr(t, `12345678901234567890n`).(*ast.BigIntLiteral).Value.String())
	assert.Equal("255", expr(t, `0xffn`).(*ast.BigIntLiteral).Value.String())

	re := expr(t, `/a[/]b/gi`).(*ast.RegExpLiteral)
	assert.Equal("a[/]b", re.Pattern)
	assert.Equal("gi", re.Flags)

	tmpl := expr(t, "`a${x}b${y}c`").(*ast.TemplateLiteral)
	assert.Len(tmpl.Quasis, 3)
	assert.Len(tmpl.Expressions, 2)
	assert.True(tmpl.Quasis[2].Tail)

	tagged := expr(t, "tag`x`").(*ast.TaggedTemplateExpression)
	assert.Equal("tag", tagged.Tag.(*ast.Identifier).Value)
}

func TestGenerators(t *testing.T) {
	prog := parse(t, `function* g() { const x = yield 1; yield* other(); yield }`)
	fn := prog.Statements[0].(*ast.FunctionDeclaration).Function
	assert.True(t, fn.Generator)
	decl := fn.Body.Statements[0].(*ast.VariableDeclaration)
	assert.IsType(t, &ast.YieldExpression{}, decl.Declarations[0].Init)
	delegate := fn.Body.Statements[1].(*ast.ExpressionStatement).Expression.(*ast.YieldExpression)
	assert.True(t, delegate.Delegate)
	bare := fn.Body.Statements[2].(*ast.ExpressionStatement).Expression.(*ast.YieldExpression)
	assert.Nil(t, bare.Argument)

	// outside a generator yield is an ordinary identifier
	assert.IsType(t, &ast.Identifier{}, expr(t, `yield`))
}

func TestNewAndMeta(t *testing.T) {
	n := expr(t, `new a.B(1)`).(*ast.NewExpression)
	assert.IsType(t, &ast.MemberExpression{}, n.Callee)
	assert.Len(t, n.Arguments, 1)

	call := expr(t, `new Foo().bar()`).(*ast.CallExpression)
	assert.IsType(t, &ast.NewExpression{}, call.Callee.(*ast.MemberExpression).Object)

	prog := parse(t, `function F() { return new.target }`)
	ret := prog.Statements[0].(*ast.FunctionDeclaration).Function.Body.Statements[0].(*ast.ReturnStatement)
	assert.IsType(t, &ast.MetaProperty{}, ret.Argument)

	parseErr(t, `new.target`)
}

func TestImports(t *testing.T) {
	prog := parseModule(t, `
import "./side.js";
import def from "./a.js";
import def2, { x, y as z, default as w } from "./b.js";
import * as ns from "./c.js";
import data from "./d.json" with { type: "json" };
`)
	require.Len(t, prog.Statements, 5)
	assert.Equal(t, "./side.js", prog.Statements[0].(*ast.ImportDeclaration).Source)

	named := prog.Statements[2].(*ast.ImportDeclaration)
	require.Len(t, named.Specifiers, 4)
	assert.Equal(t, ast.ImportDefault, named.Specifiers[0].Kind)
	assert.Equal(t, "y", named.Specifiers[2].Imported)
	assert.Equal(t, "z", named.Specifiers[2].Local.Value)
	assert.Equal(t, "default", named.Specifiers[3].Imported)

	ns := prog.Statements[3].(*ast.ImportDeclaration)
	assert.Equal(t, ast.ImportNamespace, ns.Specifiers[0].Kind)
	assert.Equal(t, "json", prog.Statements[4].(*ast.ImportDeclaration).AttributeType)
}

func TestExports(t *testing.T) {
	prog := parseModule(t, `
export const a = 1, b = 2;
export function f() {}
export class C {}
export { a as alias, b };
export { x as y } from "./m.js";
export * from "./all.js";
export * as bag from "./bag.js";
export default function () {}
`)
	require.Len(t, prog.Statements, 8)
	decl := prog.Statements[0].(*ast.ExportNamedDeclaration)
	assert.IsType(t, &ast.VariableDeclaration{}, decl.Declaration)

	list := prog.Statements[3].(*ast.ExportNamedDeclaration)
	assert.Equal(t, "a", list.Specifiers[0].Local)
	assert.Equal(t, "alias", list.Specifiers[0].Exported)

	re := prog.Statements[4].(*ast.ExportNamedDeclaration)
	assert.Equal(t, "./m.js", re.Source)

	assert.Empty(t, prog.Statements[5].(*ast.ExportAllDeclaration).Exported)
	assert.Equal(t, "bag", prog.Statements[6].(*ast.ExportAllDeclaration).Exported)

	def := prog.Statements[7].(*ast.ExportDefaultDeclaration)
	fn := def.Declaration.(*ast.FunctionDeclaration)
	assert.Nil(t, fn.Function.Name)

	prog = parseModule(t, `export default 1 + 2;`)
	assert.IsType(t, &ast.BinaryExpression{}, prog.Statements[0].(*ast.ExportDefaultDeclaration).Declaration)
}

func TestModuleSyntaxOutsideModule(t *testing.T) {
	assert.Contains(t, parseErr(t, `import x from "y"`).Msg, "outside a module")
	assert.Contains(t, parseErr(t, `export const a = 1`).Msg, "outside a module")
}

func TestAwaitContexts(t *testing.T) {
	// top-level await is accepted in scripts
	assert.IsType(t, &ast.AwaitExpression{}, expr(t, `await p`))

	prog := parse(t, `function f() { var await = 1; return await }`)
	assert.Len(t, prog.Statements, 1)

	body, err := ParseFunctionBody(`return false`)
	require.NoError(t, err)
	assert.IsType(t, &ast.ReturnStatement{}, body[0])
}

func TestParseErrorPosition(t *testing.T) {
	perr := parseErr(t, "let a = 1;\nlet b = ;")
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, 9, perr.Column)
	assert.False(t, perr.Incomplete)
	assert.Contains(t, perr.Error(), "SyntaxError")
}

func TestIncompleteInput(t *testing.T) {
	for _, src := range []string{"function f() {", "if (x", "`abc", "[1, 2"} {
		perr := parseErr(t, src)
		assert.True(t, perr.Incomplete, "source %q: %s", src, perr.Msg)
	}
	assert.False(t, parseErr(t, `)`).Incomplete)
}
