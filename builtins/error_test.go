package builtins_test

import (
	"testing"
)

func TestErrors(t *testing.T) {
	runCases(t, []evalCase{
		{"message", "new Error('boom').message", "boom"},
		{"toString", "String(new TypeError('bad'))", "TypeError: bad"},
		{"empty message", "String(new RangeError())", "RangeError"},
		{"call without new", "Error('x') instanceof Error", "true"},
		{"subclass chain", "new SyntaxError('s') instanceof Error", "true"},
		{"stack", "new Error('m').stack.split('\\n')[0]", "Error: m"},
		{"cause", "new Error('a', {cause: 'b'}).cause", "b"},
		{"name on prototype", "Object.hasOwn(new Error('x'), 'name')", "false"},
		{"constructor inherits", "Object.getPrototypeOf(TypeError) === Error", "true"},
		{"aggregate", "const e = new AggregateError([1, 2], 'many'); e.errors.length + e.message", "2many"},
		{"user subclass", "class MyErr extends Error { constructor(m) { super(m); this.name = 'MyErr' } } String(new MyErr('x'))", "MyErr: x"},
		{"engine errors are instances", "try { null.x } catch (e) { e instanceof TypeError }", "true"},
		{"captureStackTrace", "const o = {}; Error.captureStackTrace(o); typeof o.stack", "string"},
	})
}

func TestSymbols(t *testing.T) {
	runCases(t, []evalCase{
		{"unique", "Symbol('a') === Symbol('a')", "false"},
		{"description", "Symbol('desc').description", "desc"},
		{"toString", "Symbol('x').toString()", "Symbol(x)"},
		{"registry", "Symbol.for('k') === Symbol.for('k')", "true"},
		{"keyFor", "Symbol.keyFor(Symbol.for('k'))", "k"},
		{"keyFor unregistered", "Symbol.keyFor(Symbol('k'))", "undefined"},
		{"property key", "const s = Symbol(); const o = {[s]: 1}; o[s] + Object.keys(o).length", "1"},
		{"well known", "typeof Symbol.iterator", "symbol"},
		{"custom iterator", "const o = {*[Symbol.iterator]() { yield 1; yield 2 }}; [...o].join()", "1,2"},
		{"toStringTag", "const o = {[Symbol.toStringTag]: 'Thing'}; Object.prototype.toString.call(o)", "[object Thing]"},
		{"toPrimitive", "const o = {[Symbol.toPrimitive](h) { return h === 'number' ? 7 : 'str' }}; (+o) + `${o}`", "7str"},
	})
}

func TestSymbolErrors(t *testing.T) {
	runCases(t, []evalCase{
		{"not a constructor", "try { new Symbol() } catch (e) { e.message }", "Symbol is not a constructor"},
		{"no string conversion", "try { Symbol() + '' } catch (e) { e.name }", "TypeError"},
	})
}
