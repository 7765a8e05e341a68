package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegExpBasics(t *testing.T) {
	runCases(t, []evalCase{
		{"test", "/ab+c/.test('xabbbcx')", "true"},
		{"ignoreCase", "/HELLO/i.test('hello')", "true"},
		{"source and flags", "const r = /a\\/b/gi; r.source + ' ' + r.flags", "a\\/b gi"},
		{"empty source", "new RegExp('').source", "(?:)"},
		{"toString", "String(new RegExp('a+', 'g'))", "/a+/g"},
		{"flag getters", "const r = /x/gimsuy; [r.global, r.ignoreCase, r.multiline, r.dotAll, r.unicode, r.sticky].join()", "true,true,true,true,true,true"},
		{"constructor copies", "const r = new RegExp(/a/g, 'i'); r.flags", "i"},
		{"call returns same", "const r = /a/; RegExp(r) === r", "true"},
		{"multiline anchors", "'a\\nb'.match(/^b/m)[0]", "b"},
		{"dotAll", "/a.b/s.test('a\\nb')", "true"},
		{"dot without s", "/a.b/.test('a\\nb')", "false"},
		{"unicode escape", "/\\u0041/.test('A')", "true"},
		{"match everything class", "/[^]/.test('\\n')", "true"},
	})
}

func TestRegExpExec(t *testing.T) {
	runCases(t, []evalCase{
		{"groups", "const m = /(\\d+)-(\\d+)/.exec('tel 12-34'); [m[0], m[1], m[2], m.index].join()", "12-34,12,34,4"},
		{"input", "/b/.exec('abc').input", "abc"},
		{"named groups", "/(?<year>\\d{4})/.exec('in 2024').groups.year", "2024"},
		{"no groups is undefined", "/a/.exec('a').groups", "undefined"},
		{"unmatched group", "/(a)|(b)/.exec('b')[1]", "undefined"},
		{"null on failure", "/z/.exec('abc')", "null"},
		{"global advances lastIndex", "const r = /a/g; r.exec('aa'); r.lastIndex", "1"},
		{"global loop", "const r = /\\d/g; let m, s = ''; while ((m = r.exec('1a2b3'))) s += m[0]; s", "123"},
		{"reset after failure", "const r = /a/g; r.exec('a'); r.exec('a'); r.lastIndex", "0"},
		{"sticky", "const r = /b/y; [r.test('ab'), (r.lastIndex = 1, r.test('ab'))].join()", "false,true"},
	})
}

func TestRegExpErrors(t *testing.T) {
	assert.Contains(t, caught(t, "new RegExp('a', 'q')"), "SyntaxError: Invalid flags")
	assert.Contains(t, caught(t, "new RegExp('(')"), "SyntaxError: Invalid regular expression")
}

func TestRegExpBacktracking(t *testing.T) {
	runCases(t, []evalCase{
		{"lookbehind", "'price: $42'.match(/(?<=\\$)\\d+/)[0]", "42"},
		{"negative lookbehind", "/(?<!a)b/.test('ab')", "false"},
		{"backreference", "/(\\w)\\1/.exec('hello')[0]", "ll"},
		{"named backreference", "/(?<q>['\"]).*?\\k<q>/.exec('say \"hi\" now')[0]", "\"hi\""},
		{"lookahead", "'a1b2'.replace(/[a-z](?=2)/, 'X')", "a1X2"},
	})
}

func TestRegExpGroupOrder(t *testing.T) {
	runCases(t, []evalCase{
		{"named before unnamed", "const m = /(?<y>\\d{4})-(\\d{2})/.exec('2024-05'); [m[1], m[2], m.groups.y].join()", "2024,05,2024"},
		{"replace template", "'2024-05'.replace(/(?<y>\\d+)-(\\d+)/, '$2/$<y>')", "05/2024"},
		{"class holding paren", "/[(](a)/.exec('(a')[1]", "a"},
		{"rune offsets", "const m = /ö(r)/.exec('wörld'); [m.index, m[1]].join()", "1,r"},
		{"search after wide runes", "'héllo wörld'.search(/w/)", "6"},
		{"global match", "'a1b22c333'.match(/\\d+/g).join('|')", "1|22|333"},
		{"split with group", "'a1b2c'.split(/(\\d)/).join()", "a,1,b,2,c"},
	})
}
