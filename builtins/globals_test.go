package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURICoding(t *testing.T) {
	runCases(t, []evalCase{
		{"component", "encodeURIComponent('a b&c/d?é')", "a%20b%26c%2Fd%3F%C3%A9"},
		{"uri keeps reserved", "encodeURI('http://x.y/a b?q=1#f')", "http://x.y/a%20b?q=1#f"},
		{"unreserved kept", "encodeURIComponent(\"-_.!~*'()\")", "-_.!~*'()"},
		{"astral", "encodeURIComponent('😀')", "%F0%9F%98%80"},
		{"decode component", "decodeURIComponent('a%20b%26c%C3%A9')", "a b&cé"},
		{"decodeURI keeps reserved escapes", "decodeURI('a%20b%26c%2F')", "a b%26c%2F"},
		{"round trip", "const s = 'x=1&y=ü ñ'; decodeURIComponent(encodeURIComponent(s)) === s", "true"},
	})
	assert.Equal(t, "URIError: URI malformed", caught(t, "decodeURIComponent('%')"))
	assert.Equal(t, "URIError: URI malformed", caught(t, "decodeURIComponent('%C3%28')"))
	assert.Equal(t, "URIError: URI malformed", caught(t, "decodeURIComponent('%FF')"))
}

func TestLegacyEscape(t *testing.T) {
	runCases(t, []evalCase{
		{"escape", "escape('a b+c/é')", "a%20b+c/%E9"},
		{"escape wide", "escape('\\u20ac')", "%u20AC"},
		{"escape astral splits", "escape('😀')", "%uD83D%uDE00"},
		{"unescape", "unescape('%u20AC%41')", "€A"},
		{"unescape surrogate pair", "unescape('%uD83D%uDE00') === '😀'", "true"},
		{"unescape leaves bad escapes", "unescape('%zz')", "%zz"},
	})
}

func TestNumericGlobals(t *testing.T) {
	runCases(t, []evalCase{
		{"isNaN coerces", "[isNaN('x'), isNaN('1'), isNaN(undefined)].join()", "true,false,true"},
		{"isFinite coerces", "[isFinite('12'), isFinite(Infinity), isFinite(null)].join()", "true,false,true"},
		{"constants", "[typeof undefined, NaN, Infinity].join()", "undefined,NaN,Infinity"},
		{"NaN is read-only", "try { NaN = 1 } catch (e) { e.name + (NaN !== NaN) }", "TypeErrortrue"},
	})
}

func TestEvalUnsupported(t *testing.T) {
	assert.Equal(t, "EvalError: eval is not supported", caught(t, "eval('1')"))
}

func TestStructuredClone(t *testing.T) {
	runCases(t, []evalCase{
		{"deep copy", "const a = {x: [1, {y: 2}]}; const b = structuredClone(a); b.x[1].y = 3; [a.x[1].y, b.x[1].y].join()", "2,3"},
		{"cycles", "const a = {}; a.self = a; const b = structuredClone(a); [b.self === b, b !== a].join()", "true,true"},
		{"shared references", "const s = {}; const b = structuredClone([s, s]); b[0] === b[1]", "true"},
		{"map", "const m = structuredClone(new Map([['k', {v: 1}]])); m.get('k').v", "1"},
		{"set", "structuredClone(new Set([1, 2])).size", "2"},
		{"error", "const e = structuredClone(new RangeError('r')); [e instanceof RangeError, e.message].join()", "true,r"},
		{"primitives", "structuredClone('s') + structuredClone(1)", "s1"},
	})
	assert.Contains(t, caught(t, "structuredClone(() => 1)"), "DataCloneError")
	assert.Contains(t, caught(t, "structuredClone({f() {}})"), "DataCloneError")
}

func TestTimers(t *testing.T) {
	cases := []evalCase{
		{"timeout order", "setTimeout(() => console.log('b'), 20); setTimeout(() => console.log('a'), 10)", "a\nb\n"},
		{"extra args", "setTimeout((x, y) => console.log(x + y), 0, 2, 3)", "5\n"},
		{"clearTimeout", "const id = setTimeout(() => console.log('no'), 5); clearTimeout(id); console.log(typeof id)", "number\n"},
		{"interval", "let n = 0; const id = setInterval(() => { n++; console.log(n); if (n === 3) clearInterval(id) }, 10)", "1\n2\n3\n"},
		{"microtask before timer", "setTimeout(() => console.log('t')); queueMicrotask(() => console.log('m'))", "m\nt\n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, logged(t, tc.source))
		})
	}
	assert.Contains(t, caught(t, "setTimeout('code', 1)"), "TypeError")
	assert.Contains(t, caught(t, "queueMicrotask(1)"), "TypeError")
}
