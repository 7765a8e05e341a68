package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func TestTemporalDeadZone(t *testing.T) {
	err := evalError(t, "x; let x = 1;")
	assert.Equal(t, runtime.KindReferenceError, runtime.ErrorKindOf(err))
	assert.Contains(t, err.Error(), "Cannot access 'x' before initialization")

	err = evalError(t, "{ y = 2; const y = 1; }")
	assert.Contains(t, err.Error(), "before initialization")

	err = evalError(t, "function f() { return z } f(); let z = 1;")
	assert.Contains(t, err.Error(), "Cannot access 'z' before initialization")

	err = evalError(t, "new C(); class C {}")
	assert.Contains(t, err.Error(), "Cannot access 'C' before initialization")

	runCases(t, []evalCase{
		{"after declaration", "let x = 1; x", "1"},
		{"closure called later", "function f() { return z } let z = 4; f()", "4"},
		{"typeof still throws", "try { typeof q; let q } catch (e) { e.name }", "ReferenceError"},
		{"shadowing in block", "let a = 'outer'; { let a = 'inner' } a", "outer"},
		{"inner tdz shadows outer", "let a = 1; let r; { try { a } catch (e) { r = 'tdz' } let a = 2 } r", "tdz"},
	})
}

func TestRedeclaration(t *testing.T) {
	for _, src := range []string{
		"let a = 1; let a = 2;",
		"const b = 1; let b = 2;",
		"var c; let c;",
		"let d; var d;",
		"{ let e; { var e } }",
		"class F {} let F;",
	} {
		err := evalError(t, src)
		assert.Equal(t, runtime.KindSyntaxError, runtime.ErrorKindOf(err), src)
		assert.Contains(t, err.Error(), "has already been declared", src)
	}

	runCases(t, []evalCase{
		{"repeated var", "var a = 1; var a = 2; a", "2"},
		{"var redeclare without init keeps value", "var a = 1; var a; a", "1"},
		{"separate blocks", "{ let a = 1 } { let a = 2 } 'ok'", "ok"},
		{"builtin shadowed", "let Math = 'mine'; Math", "mine"},
		{"function and var", "function g() { return 1 } var g; typeof g", "function"},
	})
}

func TestConstBindings(t *testing.T) {
	err := evalError(t, "const a = 1; a = 2;")
	assert.Equal(t, runtime.KindTypeError, runtime.ErrorKindOf(err))
	assert.Contains(t, err.Error(), "Assignment to constant variable.")

	err = evalError(t, "const o = {n: 1}; o.n++; o = {};")
	assert.Contains(t, err.Error(), "Assignment to constant variable.")

	err = evalError(t, "for (const i = 0; i < 2; i++) {}")
	assert.Equal(t, runtime.KindTypeError, runtime.ErrorKindOf(err))

	runCases(t, []evalCase{
		{"const object mutable", "const o = {n: 1}; o.n = 5; o.n", "5"},
		{"const in for of", "let s = 0; for (const v of [1, 2]) s += v; s", "3"},
		{"shadow const in block", "const a = 1; { let a = 2; a = 3 } a", "1"},
	})
}

func TestReadOnlyGlobals(t *testing.T) {
	for _, name := range []string{"NaN", "undefined", "Infinity"} {
		err := evalError(t, name+" = 1;")
		assert.Equal(t, runtime.KindTypeError, runtime.ErrorKindOf(err), name)
		assert.Contains(t, err.Error(), "Cannot assign to read only property '"+name+"'")
	}

	runCases(t, []evalCase{
		{"value kept", "try { Infinity = 0 } catch (e) {} Infinity", "Infinity"},
		{"compound", "try { NaN += 1; 'silent' } catch (e) { e.name }", "TypeError"},
		{"shadowed by let", "(() => { let undefined = 3; return undefined })()", "3"},
		{"function expression name ignores writes", "(function f() { f = 1; return typeof f })()", "function"},
		{"builtins writable", "Math = 1; Math", "1"},
	})
}

func TestHoisting(t *testing.T) {
	runCases(t, []evalCase{
		{"var hoists undefined", "const r = typeof v; var v = 1; r", "undefined"},
		{"var from nested blocks", "function f() { if (true) { for (;;) { var deep = 3; break } } return deep } f()", "3"},
		{"var not from nested functions", "function f() { function g() { var inner = 1 } g(); return typeof inner } f()", "undefined"},
		{"function declaration hoists", "const r = add(2, 3); function add(a, b) { return a + b } r", "5"},
		{"block function visible after block", "{ function inBlock() { return 'b' } } inBlock()", "b"},
		{"var in try and switch", "function f() { try { var a = 1 } finally {} switch (1) { case 1: var b = 2 } return a + b } f()", "3"},
		{"var loop head", "for (var i = 0; i < 3; i++) {} i", "3"},
	})
}

func TestLoopBindings(t *testing.T) {
	runCases(t, []evalCase{
		{"let per iteration", "const fs = []; for (let i = 0; i < 3; i++) fs.push(() => i); fs.map(f => f()).join()", "0,1,2"},
		{"var shared", "const fs = []; for (var i = 0; i < 3; i++) fs.push(() => i); fs.map(f => f()).join()", "3,3,3"},
		{"let for of per iteration", "const fs = []; for (const v of ['a', 'b']) fs.push(() => v); fs.map(f => f()).join()", "a,b"},
		{"continue and break", "const seen = []; for (let i = 0; i < 5; i++) { if (i === 0) continue; if (i === 3) break; seen.push(i) } seen.join()", "1,2"},
		{"closure mutation copied forward", "const fs = []; for (let i = 0; i < 3; i++) { fs.push(() => i); i++ } fs.map(f => f()).join()", "1,3"},
	})
}

func TestLabels(t *testing.T) {
	runCases(t, []evalCase{
		{"break outer", "let n = 0; outer: for (let i = 0; i < 3; i++) { for (let j = 0; j < 3; j++) { if (j === 1) break outer; n++ } } n", "1"},
		{"continue outer", "let n = 0; outer: for (let i = 0; i < 3; i++) { for (let j = 0; j < 3; j++) { if (j === 1) continue outer; n++ } } n", "3"},
		{"break labelled block", "let r = 'a'; blk: { r = 'b'; break blk; r = 'c' } r", "b"},
		{"stacked labels", "let n = 0; a: b: for (;;) { n++; if (n < 3) continue a; break b } n", "3"},
		{"while labelled", "let i = 0; w: while (true) { do { i++; if (i > 4) break w } while (true) } i", "5"},
	})

	err := evalError(t, "blk: { for (;;) { continue blk } }")
	assert.Equal(t, runtime.KindSyntaxError, runtime.ErrorKindOf(err))
	assert.Contains(t, err.Error(), "'blk' does not denote an iteration statement")
}
