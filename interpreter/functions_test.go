package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func TestFunctions(t *testing.T) {
	runCases(t, []evalCase{
		{"declaration", "function add(a, b) { return a + b } add(2, 3)", "5"},
		{"expression", "const sq = function(x) { return x * x }; sq(4)", "16"},
		{"arrow expression body", "const inc = x => x + 1; inc(1)", "2"},
		{"arrow object body", "const mk = () => ({a: 1}); mk().a", "1"},
		{"default params", "function f(a, b = a * 2) { return a + b } [f(1), f(1, 1)].join()", "3,2"},
		{"rest params", "function f(first, ...rest) { return first + ':' + rest.join('') } f(1, 2, 3)", "1:23"},
		{"spread call", "function f(a, b, c) { return a + b + c } f(...[1, 2], 3)", "6"},
		{"arguments", "function f() { return arguments.length + ':' + arguments[1] } f('a', 'b', 'c')", "3:b"},
		{"length", "function f(a, b = 1, ...c) {} f.length", "1"},
		{"name inference", "const named = () => 1; const o = {m() {}}; [named.name, o.m.name].join()", "named,m"},
		{"closure counter", "function make() { let n = 0; return () => ++n } const c = make(); c(); c(); c()", "3"},
		{"recursion", "function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2) } fib(15)", "610"},
		{"named expression self binding", "const f = function fact(n) { return n <= 1 ? 1 : n * fact(n - 1) }; f(5)", "120"},
		{"iife", "(function() { return 'run' })()", "run"},
		{"method this", "const o = {n: 2, get() { return this.n }}; o.get()", "2"},
		{"arrow lexical this", "const o = {n: 3, get() { return (() => this.n)() }}; o.get()", "3"},
		{"constructor function", "function P(x) { this.x = x } P.prototype.dbl = function() { return this.x * 2 }; new P(4).dbl()", "8"},
		{"new.target", "function F() { return new.target === F } [new F() instanceof F, F()].join()", "true,false"},
		{"constructor returns object", "function F() { return {o: 1} } new F().o", "1"},
		{"call apply bind", "function f(a) { return this.v + a } const o = {v: 1}; [f.call(o, 1), f.apply(o, [2]), f.bind(o, 3)()].join()", "2,3,4"},
		{"bound constructor", "function P(a, b) { this.s = a + b } const B = P.bind(null, 1); const p = new B(2); [p.s, p instanceof P].join()", "3,true"},
		{"tagged template", "function tag(s, ...v) { return s.raw.join('|') + v.join(',') } tag`a${1}b${2}c`", "a|b|c1,2"},
	})

	err := evalError(t, "const x = 1; x()")
	assert.Equal(t, runtime.KindTypeError, runtime.ErrorKindOf(err))
	assert.Contains(t, err.Error(), "x is not a function")

	err = evalError(t, "const o = {}; o.missing()")
	assert.Contains(t, err.Error(), "o.missing is not a function")
}

func TestClasses(t *testing.T) {
	runCases(t, []evalCase{
		{"basic", "class A { constructor(x) { this.x = x } get() { return this.x } } new A(3).get()", "3"},
		{"inheritance", `
class Animal { constructor(name) { this.name = name } speak() { return this.name + ' makes a sound' } }
class Dog extends Animal { speak() { return super.speak() + ' (woof)' } }
new Dog('Rex').speak()`, "Rex makes a sound (woof)"},
		{"implicit derived constructor", "class A { constructor(a, b) { this.s = a + b } } class B extends A {} new B(1, 2).s", "3"},
		{"static members", "class M { static twice(x) { return x * 2 } static base = 10 } M.twice(M.base)", "20"},
		{"accessors", "class T { #c = 0; get c() { return this.#c } set c(v) { this.#c = v * 2 } } const t = new T(); t.c = 4; t.c", "8"},
		{"fields", "class F { a = 1; b = this.a + 1; ['c' + 1] = 3 } const f = new F(); [f.a, f.b, f.c1].join()", "1,2,3"},
		{"private methods", "class P { #secret() { return 42 } reveal() { return this.#secret() } } new P().reveal()", "42"},
		{"private in", "class P { #x; static has(o) { return #x in o } } [P.has(new P()), P.has({})].join()", "true,false"},
		{"static private", "class S { static #n = 5; static n() { return S.#n } } S.n()", "5"},
		{"static block", "class S { static v; static { S.v = 'init' } } S.v", "init"},
		{"instanceof chain", "class A {} class B extends A {} const b = new B(); [b instanceof B, b instanceof A, b instanceof Object].join()", "true,true,true"},
		{"class expression name", "const K = class Inner { who() { return Inner.name } }; new K().who()", "Inner"},
		{"methods not enumerable", "class A { m() {} } Object.keys(A.prototype).length", "0"},
		{"extends null", "class N extends null { constructor() { return Object.create(N.prototype) } } Object.getPrototypeOf(N.prototype)", "null"},
		{"extends builtin", "class L extends Array { first() { return this[0] } } const l = new L(); l.push(9); [l.first(), l.length, l instanceof Array].join()", "9,1,true"},
		{"extends Error", "class MyErr extends Error { constructor(m) { super(m); this.name = 'MyErr' } } try { throw new MyErr('x') } catch (e) { [e.name, e.message, e instanceof Error].join() }", "MyErr,x,true"},
		{"super property in static", "class A { static id() { return 'A' } } class B extends A { static id() { return super.id() + 'B' } } B.id()", "AB"},
		{"symbol method", "class C { *[Symbol.iterator]() { yield 1; yield 2 } } [...new C()].join()", "1,2"},
	})

	for src, msg := range map[string]string{
		"class A {} A()":       "Class constructor A cannot be invoked without 'new'",
		"class A extends 5 {}": "Class extends value 5 is not a constructor or null",
		"class B extends Object { constructor() { this.x = 1 } } new B()":                                              "Must call super constructor",
		"class B extends Object { constructor() { super(); super() } } new B()":                                        "Super constructor may only be called once",
		"class P { #x } const o = {}; (function() { class Q { #x; get(o) { return o.#x } } return new Q().get(o) })()": "Cannot read private member #x",
	} {
		err := evalError(t, src)
		assert.Contains(t, err.Error(), msg, src)
	}
}

func TestGenerators(t *testing.T) {
	runCases(t, []evalCase{
		{"lazy next", "const log = []; function* g() { log.push('start'); yield 1; log.push('after') } const it = g(); const before = log.length; it.next(); [before, log.join()].join('|')", "0|start"},
		{"spread", "function* g() { yield 1; yield 2; yield 3 } [...g()].join()", "1,2,3"},
		{"next value", "function* g() { const x = yield 1; yield x * 2 } const it = g(); it.next(); it.next(21).value", "42"},
		{"return result", "function* g() { yield 1; return 'r' } const it = g(); it.next(); const r = it.next(); [r.value, r.done].join()", "r,true"},
		{"return method runs finally", "const log = []; function* g() { try { yield 1; yield 2 } finally { log.push('cleanup') } } const it = g(); it.next(); const r = it.return(7); [r.value, r.done, log.join()].join()", "7,true,cleanup"},
		{"throw method caught", "function* g() { try { yield 1 } catch (e) { yield 'caught ' + e } } const it = g(); it.next(); it.throw('boom').value", "caught boom"},
		{"delegate", "function* inner() { yield 'a'; return 'r' } function* outer() { const v = yield* inner(); yield v } [...outer()].join()", "a,r"},
		{"delegate to array", "function* g() { yield* [1, 2] } [...g()].join()", "1,2"},
		{"break closes", "const log = []; function* g() { try { yield 1; yield 2 } finally { log.push('closed') } } for (const v of g()) { break } log.join()", "closed"},
		{"infinite with take", "function* nat() { let n = 0; for (;;) yield n++ } const out = []; for (const n of nat()) { if (n > 3) break; out.push(n) } out.join()", "0,1,2,3"},
		{"method generator", "const o = { *items() { yield 'x' } }; [...o.items()].join()", "x"},
		{"done after completion", "function* g() {} const it = g(); it.next(); JSON.stringify(it.next())", `{"done":true}`},
	})
}

func TestAsyncFunctions(t *testing.T) {
	interp, out := newTestInterpreter(t)
	_, err := interp.Eval(`
const log = [];
async function value() { return 1 }
async function run() {
  log.push('start');
  const a = await value();
  const b = await Promise.resolve(2);
  const c = await 3;
  try { await Promise.reject(new Error('no')) } catch (e) { log.push('caught ' + e.message) }
  return a + b + c;
}
run().then(v => log.push('result ' + v));
log.push('sync end');
`)
	require.NoError(t, err)
	require.NoError(t, interp.Scheduler().Flush())
	v, err := interp.Eval("log.join('|')")
	require.NoError(t, err)
	assert.Equal(t, "start|caught no|sync end|result 6", v.ToString())
	assert.Empty(t, out.String())
}

func TestAsyncRejectsOnThrow(t *testing.T) {
	runCases(t, []evalCase{
		{"rejection handled", "let r; async function f() { throw new TypeError('t') } f().catch(e => { r = e.name }); r", "undefined"},
		{"top level await", "const v = await Promise.resolve(5); v", "5"},
		{"await pending timer promise", "const p = new Promise(res => setTimeout(() => res(1), 10)); const v = await p; String(v)", "undefined"},
	})

	interp, _ := newTestInterpreter(t)
	_, err := interp.Eval("let r; async function f() { throw new TypeError('t') } f().catch(e => { r = e.name });")
	require.NoError(t, err)
	require.NoError(t, interp.Scheduler().Flush())
	v, err := interp.Eval("r")
	require.NoError(t, err)
	assert.Equal(t, "TypeError", v.ToString())
}

func TestAsyncGenerators(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	_, err := interp.Eval(`
const seen = [];
async function* ticks() { yield 1; yield await Promise.resolve(2); yield 3 }
(async () => { for await (const v of ticks()) seen.push(v) })();
`)
	require.NoError(t, err)
	require.NoError(t, interp.Scheduler().Flush())
	v, err := interp.Eval("seen.join()")
	require.NoError(t, err)
	assert.Equal(t, "1,2,3", v.ToString())
}
