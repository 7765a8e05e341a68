package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectReflection(t *testing.T) {
	runCases(t, []evalCase{
		{"keys order", "Object.keys({b: 1, a: 2, 1: 0, 0: 0}).join()", "0,1,b,a"},
		{"values", "Object.values({a: 1, b: 2}).join()", "1,2"},
		{"entries", "Object.entries({a: 1}).map(e => e.join('=')).join()", "a=1"},
		{"fromEntries", "Object.fromEntries([['a', 1], ['b', 2]]).b", "2"},
		{"fromEntries map", "Object.fromEntries(new Map([['k', 'v']])).k", "v"},
		{"assign", "const o = Object.assign({a: 1}, {b: 2}, null, {a: 3}); o.a + o.b", "5"},
		{"hasOwn", "[Object.hasOwn({a: 1}, 'a'), Object.hasOwn({}, 'toString')].join()", "true,false"},
		{"hasOwnProperty", "({a: 1}).hasOwnProperty('a')", "true"},
		{"getOwnPropertyNames", "Object.getOwnPropertyNames([1]).join()", "0,length"},
		{"is", "[Object.is(NaN, NaN), Object.is(0, -0)].join()", "true,false"},
		{"groupBy", "const g = Object.groupBy([1, 2, 3], x => x % 2 ? 'odd' : 'even'); g.odd.join() + '|' + g.even.join()", "1,3|2"},
	})
}

func TestObjectPrototypes(t *testing.T) {
	runCases(t, []evalCase{
		{"create", "const p = {x: 1}; const o = Object.create(p); [o.x, Object.getPrototypeOf(o) === p].join()", "1,true"},
		{"create null", "Object.getPrototypeOf(Object.create(null))", "null"},
		{"setPrototypeOf", "const o = Object.setPrototypeOf({}, {y: 2}); o.y", "2"},
		{"isPrototypeOf", "Array.prototype.isPrototypeOf([])", "true"},
		{"toString tags", "[[], null, 1, new Map()].map(v => Object.prototype.toString.call(v)).join()",
			"[object Array],[object Null],[object Number],[object Map]"},
	})
}

func TestObjectDescriptors(t *testing.T) {
	runCases(t, []evalCase{
		{"defineProperty defaults", "const o = {}; Object.defineProperty(o, 'x', {value: 1}); const d = Object.getOwnPropertyDescriptor(o, 'x'); [d.value, d.writable, d.enumerable, d.configurable].join()",
			"1,false,false,false"},
		{"non-enumerable hidden", "const o = {}; Object.defineProperty(o, 'x', {value: 1}); Object.keys(o).length", "0"},
		{"getter", "const o = {}; Object.defineProperty(o, 'x', {get() { return 42 }}); o.x", "42"},
		{"defineProperties", "const o = Object.defineProperties({}, {a: {value: 1, enumerable: true}, b: {value: 2}}); Object.keys(o).join()", "a"},
		{"descriptors", "Object.keys(Object.getOwnPropertyDescriptors({a: 1, b: 2})).join()", "a,b"},
		{"accessor literal", "const d = Object.getOwnPropertyDescriptor({get a() { return 1 }}, 'a'); typeof d.get + typeof d.value", "functionundefined"},
	})
	assert.Equal(t, "TypeError: Cannot redefine property: x",
		caught(t, "const o = {}; Object.defineProperty(o, 'x', {value: 1}); Object.defineProperty(o, 'x', {value: 2})"))
	assert.Contains(t, caught(t, "Object.defineProperty({}, 'x', {get() {}, value: 1})"), "Invalid property descriptor")
}

func TestObjectFreeze(t *testing.T) {
	runCases(t, []evalCase{
		{"frozen ignores writes", "const o = Object.freeze({a: 1}); o.a = 2; o.a", "1"},
		{"isFrozen", "[Object.isFrozen(Object.freeze({})), Object.isFrozen({})].join()", "true,false"},
		{"isExtensible", "Object.isExtensible(Object.freeze({}))", "false"},
		{"frozen array push", "const a = Object.freeze([1]); try { a.push(2) } catch (e) { e.name }", "TypeError"},
	})
}

func TestFunctionPrototype(t *testing.T) {
	runCases(t, []evalCase{
		{"call", "function f(a, b) { return this.x + a + b } f.call({x: 1}, 2, 3)", "6"},
		{"apply", "function f(a, b) { return this.x + a + b } f.apply({x: 1}, [2, 3])", "6"},
		{"apply nullish args", "function f() { return arguments.length } f.apply(null)", "0"},
		{"bind", "function f(a, b) { return this.x + a + b } const g = f.bind({x: 1}, 2); g(3)", "6"},
		{"bind name and length", "function f(a, b) {} const g = f.bind(null, 1); g.name + ':' + g.length", "bound f:1"},
		{"bind construct", "function P(x) { this.x = x } const B = P.bind(null, 5); new B().x", "5"},
		{"name", "function hello() {} hello.name", "hello"},
		{"length", "((a, b, c) => 0).length", "3"},
		{"toString", "typeof (function f() {}).toString()", "string"},
		{"instanceof Function", "(() => 1) instanceof Function", "true"},
	})
	assert.Contains(t, caught(t, "Function.prototype.apply.call(1)"), "TypeError")
}
