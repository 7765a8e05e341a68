package interpreter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func newTestInterpreter(t *testing.T) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return New(Options{Console: &out}), &out
}

func evalString(t *testing.T, source string) string {
	t.Helper()
	interp, _ := newTestInterpreter(t)
	v, err := interp.Eval(source)
	require.NoError(t, err, source)
	return v.ToString()
}

func evalError(t *testing.T, source string) error {
	t.Helper()
	interp, _ := newTestInterpreter(t)
	_, err := interp.Eval(source)
	require.Error(t, err, source)
	return err
}

type evalCase struct {
	name   string
	source string
	want   string
}

func runCases(t *testing.T, cases []evalCase) {
	t.Helper()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, evalString(t, tc.source))
		})
	}
}

func TestExpressions(t *testing.T) {
	runCases(t, []evalCase{
		{"arithmetic", "1 + 2 * 3 - 4 / 2", "5"},
		{"modulo", "17 % 5", "2"},
		{"exponent", "2 ** 10", "1024"},
		{"fraction promotes", "7 / 2", "3.5"},
		{"string concat", "'a' + 1 + 2", "a12"},
		{"numeric before string", "1 + 2 + 'a'", "3a"},
		{"comparison chain", "[1 < 2, 2 <= 2, 3 > 4, 'b' > 'a'].join()", "true,true,false,true"},
		{"loose equality", "[null == undefined, 0 == '', 1 == '1', null == 0].join()", "true,true,true,false"},
		{"strict equality", "[1 === 1, 1 === '1', NaN === NaN].join()", "true,false,false"},
		{"logical", "[0 || 'x', 1 && 'y', null ?? 'z', 0 ?? 'w'].join()", "x,y,z,0"},
		{"ternary", "5 > 3 ? 'yes' : 'no'", "yes"},
		{"bitwise", "[5 & 3, 5 | 3, 5 ^ 3, ~5, 1 << 4, -16 >> 2, -1 >>> 28].join()", "1,7,6,-6,16,-4,15"},
		{"typeof", "[typeof 1, typeof 'a', typeof undefined, typeof null, typeof {}, typeof function(){}, typeof Symbol()].join()",
			"number,string,undefined,object,object,function,symbol"},
		{"typeof undeclared", "typeof notDeclaredAnywhere", "undefined"},
		{"void", "void 42", "undefined"},
		{"sequence", "(1, 2, 3)", "3"},
		{"template", "const n = 'x'; `a${n}b${1 + 1}`", "axb2"},
		{"in operator", "const o = {a: 1}; ['a' in o, 'b' in o].join()", "true,false"},
		{"delete", "const o = {a: 1, b: 2}; delete o.a; Object.keys(o).join()", "b"},
		{"update", "let i = 1; const a = i++; const b = ++i; [a, b, i].join()", "1,3,3"},
		{"compound", "let x = 10; x += 5; x -= 3; x *= 2; x /= 4; x", "6"},
		{"logical assignment", "let a = null; a ??= 1; let b = 0; b ||= 2; let c = 1; c &&= 3; [a, b, c].join()", "1,2,3"},
		{"optional chaining", "const o = {a: {b: 1}}; [o?.a?.b, o.x?.y, o.f?.()].join()", "1,,"},
		{"bigint", "(2n ** 64n).toString()", "18446744073709551616"},
		{"int overflow", "9007199254740993 * 1024 > 0", "true"},
	})
}

func TestObjectsAndArrays(t *testing.T) {
	runCases(t, []evalCase{
		{"shorthand and computed", "const k = 'b'; const a = 1; const o = {a, [k]: 2, ['c' + 1]: 3}; [o.a, o.b, o.c1].join()", "1,2,3"},
		{"methods and this", "const o = {v: 4, get() { return this.v * 2 }}; o.get()", "8"},
		{"accessors", "const o = {_v: 1, get v() { return this._v }, set v(x) { this._v = x * 10 }}; o.v = 2; o.v", "20"},
		{"spread object", "const a = {x: 1, y: 2}; const b = {...a, y: 3}; [b.x, b.y].join()", "1,3"},
		{"array spread", "const a = [1, 2]; [0, ...a, 3].join()", "0,1,2,3"},
		{"array holes", "[1, , 3].length", "3"},
		{"proto literal", "const p = {hi() { return 'hi' }}; const o = {__proto__: p}; o.hi()", "hi"},
		{"super in object method", "const p = {n() { return 'p' }}; const o = {__proto__: p, n() { return super.n() + 'o' }}; o.n()", "po"},
		{"symbol keys", "const s = Symbol('k'); const o = {[s]: 5}; o[s]", "5"},
		{"array index assign", "const a = []; a[2] = 'x'; a.length", "3"},
	})
}

func TestDestructuring(t *testing.T) {
	runCases(t, []evalCase{
		{"array", "const [a, , b = 5, ...rest] = [1, 2, undefined, 4, 6]; [a, b, rest.join('|')].join()", "1,5,4|6"},
		{"object", "const {a, b: {c}, d = 7, ...others} = {a: 1, b: {c: 2}, e: 3, f: 4}; [a, c, d, Object.keys(others).join('|')].join()", "1,2,7,e|f"},
		{"assignment", "let x, y; [x, y] = [1, 2]; [x, y] = [y, x]; [x, y].join()", "2,1"},
		{"params", "function f({a, b = 2}, [c]) { return a + b + c } f({a: 1}, [3])", "6"},
		{"from iterator", "function* g() { yield 1; yield 2; yield 3 } const [p, q] = g(); p + q", "3"},
		{"member targets", "const o = {}; ({a: o.x, b: o['y']} = {a: 1, b: 2}); o.x + o.y", "3"},
	})

	err := evalError(t, "const {a} = null;")
	assert.Equal(t, runtime.KindTypeError, runtime.ErrorKindOf(err))
}

func TestControlFlow(t *testing.T) {
	runCases(t, []evalCase{
		{"if else", "let r; if (0) { r = 'a' } else if (1) { r = 'b' } else { r = 'c' } r", "b"},
		{"while", "let i = 0, s = 0; while (i < 5) { s += i; i++ } s", "10"},
		{"do while", "let i = 10, n = 0; do { n++ } while (i < 5); n", "1"},
		{"for", "let s = ''; for (let i = 0; i < 3; i++) { s += i } s", "012"},
		{"for in", "const o = {a: 1, b: 2}; let ks = ''; for (const k in o) ks += k; ks", "ab"},
		{"for of", "let s = 0; for (const v of [1, 2, 3]) s += v; s", "6"},
		{"for of string", "let s = ''; for (const c of 'héllo') s = c + s; s", "olléh"},
		{"switch", "function f(x) { switch (x) { case 1: return 'one'; case 2: case 3: return 'few'; default: return 'many' } } [f(1), f(3), f(9)].join()", "one,few,many"},
		{"switch fallthrough", "let s = ''; switch (1) { case 1: s += 'a'; case 2: s += 'b'; break; case 3: s += 'c' } s", "ab"},
		{"switch lexical scope", "switch (1) { case 1: let x = 'in'; default: } typeof x", "undefined"},
		{"completion value", "1; 2; if (true) { 3 }", "3"},
	})
}

func TestForInOrder(t *testing.T) {
	runCases(t, []evalCase{
		{"integer keys first", "const o = {b: 1, 2: 1, a: 1, 1: 1, '-1': 1}; const ks = []; for (const k in o) ks.push(k); ks.join()", "1,2,b,a,-1"},
		{"array indices", "const ks = []; for (const k in ['x', 'y']) ks.push(k); ks.join()", "0,1"},
		{"prototype chain after own", "const p = {x: 1, 1: 1}; const o = Object.create(p); o.b = 1; o[0] = 1; o.x = 2; const ks = []; for (const k in o) ks.push(k); ks.join()", "0,b,x,1"},
		{"non-enumerable skipped", "const o = {a: 1}; Object.defineProperty(o, 'h', {value: 1}); const ks = []; for (const k in o) ks.push(k); ks.join()", "a"},
		{"non-enumerable own shadows prototype", "const o = Object.create({h: 1}); Object.defineProperty(o, 'h', {value: 2}); const ks = []; for (const k in o) ks.push(k); ks.length", "0"},
		{"deleted during loop", "const o = {a: 1, b: 2, c: 3}; const ks = []; for (const k in o) { ks.push(k); delete o.b } ks.join()", "a,c"},
		{"nullish source", "let n = 0; for (const k in null) n++; for (const k in undefined) n++; n", "0"},
	})
}

// countingIterable is an iterable whose iterator yields 0, 1, 2 and counts
// calls to return().
const countingIterable = `
let returns = 0;
const iterable = {
  [Symbol.iterator]() {
    let i = 0;
    return {
      next() { return {value: i, done: i++ >= 3} },
      return() { returns++; return {} },
    };
  },
};
`

func TestForOfIteratorClose(t *testing.T) {
	runCases(t, []evalCase{
		{"exhaustion does not close", countingIterable + "for (const v of iterable) {} returns", "0"},
		{"throw closes once", countingIterable + "try { for (const v of iterable) { throw new Error('x') } } catch (e) {} returns", "1"},
		{"break closes once", countingIterable + "for (const v of iterable) { if (v === 1) break } returns", "1"},
		{"return closes once", countingIterable + "(function () { for (const v of iterable) return v })(); returns", "1"},
		{"labeled continue to outer closes", countingIterable + "outer: for (const a of [1, 2]) { for (const v of iterable) continue outer } returns", "2"},
		{"plain continue does not close", countingIterable + "for (const v of iterable) { continue } returns", "0"},
		{"error from next does not close", "let returns = 0; const it = {[Symbol.iterator]() { return {next() { throw new Error('n') }, return() { returns++; return {} }} }}; try { for (const v of it) {} } catch (e) {} returns", "0"},
		{"throwing return keeps body error", "const it = {[Symbol.iterator]() { return {next() { return {value: 1, done: false} }, return() { throw new Error('from return') }} }}; let m; try { for (const v of it) throw new Error('body') } catch (e) { m = e.message } m", "body"},
	})
}

func TestTryCatchFinally(t *testing.T) {
	runCases(t, []evalCase{
		{"catch binding", "try { throw new Error('boom') } catch (e) { e.message }", "boom"},
		{"catch without binding", "let r = 'no'; try { null.x } catch { r = 'yes' } r", "yes"},
		{"runtime errors are catchable", "try { undefined.x } catch (e) { e instanceof TypeError }", "true"},
		{"finally runs", "const log = []; try { log.push('t') } finally { log.push('f') } log.join()", "t,f"},
		{"finally overrides return", "function f() { try { return 1 } finally { return 2 } } f()", "2"},
		{"finally after catch", "const log = []; try { throw 1 } catch (e) { log.push('c' + e) } finally { log.push('f') } log.join()", "c1,f"},
		{"rethrow", "let r; try { try { throw 'in' } catch (e) { throw e + '!' } } catch (e) { r = e } r", "in!"},
		{"catch param destructuring", "try { throw {code: 7} } catch ({code}) { code }", "7"},
		{"finally break", "let n = 0; for (;;) { try { n++; if (n > 20) break } finally { n += 10 } } n", "33"},
	})

	err := evalError(t, "throw new RangeError('bad')")
	assert.Equal(t, runtime.KindRangeError, runtime.ErrorKindOf(err))
	assert.Equal(t, "Uncaught RangeError: bad", err.Error())
}

func TestConsoleOutput(t *testing.T) {
	interp, out := newTestInterpreter(t)
	_, err := interp.Eval("console.log('hello', 1 + 1, [1, 2]); console.log({a: 1})")
	require.NoError(t, err)
	assert.Equal(t, "hello 2 [ 1, 2 ]\n{ a: 1 }\n", out.String())
}

func TestGlobalObjectMirrorsVars(t *testing.T) {
	runCases(t, []evalCase{
		{"this is window", "this === window", "true"},
		{"var on window", "var g = 3; window.g", "3"},
		{"window write visible", "var g = 1; window.g = 9; g", "9"},
		{"implicit global", "function f() { leaked = 5 } f(); window.leaked", "5"},
		{"let stays lexical", "let hidden = 1; window.hidden", "undefined"},
		{"new global from window", "window.made = 'w'; made", "w"},
	})
}

func TestDepthGuard(t *testing.T) {
	interp := New(Options{MaxDepth: 50})
	_, err := interp.Eval("function f() { return f() } f()")
	require.Error(t, err)
	assert.True(t, runtime.IsFatal(err))
	assert.Contains(t, err.Error(), "Maximum call stack size exceeded")

	_, err = interp.Eval("try { (function g() { g() })() } catch (e) { 'caught' }")
	require.Error(t, err, "fatal errors skip catch")
}

func TestEvalKeepsGlobalState(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	_, err := interp.Eval("let counter = 1; function bump() { return ++counter }")
	require.NoError(t, err)
	v, err := interp.Eval("bump(); bump()")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int)

	names := interp.GlobalEnv().Names()
	assert.Contains(t, names, "counter")
	assert.NotContains(t, names, slotThis)
}
