package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringAccess(t *testing.T) {
	runCases(t, []evalCase{
		{"charAt", "'hello'.charAt(1)", "e"},
		{"charAt out of range", "'hello'.charAt(10) === ''", "true"},
		{"charCodeAt", "'A'.charCodeAt(0)", "65"},
		{"codePointAt astral", "'😀'.codePointAt(0)", "128512"},
		{"at negative", "'abc'.at(-1)", "c"},
		{"length", "'héllo'.length", "5"},
		{"index", "'abc'[1]", "b"},
	})
}

func TestStringSearch(t *testing.T) {
	runCases(t, []evalCase{
		{"indexOf", "'hello world'.indexOf('o')", "4"},
		{"indexOf from", "'hello world'.indexOf('o', 5)", "7"},
		{"lastIndexOf", "'hello world'.lastIndexOf('o')", "7"},
		{"includes", "'hello'.includes('ell')", "true"},
		{"startsWith", "'hello'.startsWith('he')", "true"},
		{"endsWith", "'hello'.endsWith('lo')", "true"},
		{"search", "'abc123'.search(/\\d/)", "3"},
	})
	assert.Contains(t, caught(t, "'abc'.includes(/b/)"), "TypeError")
}

func TestStringSlicing(t *testing.T) {
	runCases(t, []evalCase{
		{"slice", "'hello'.slice(1, 3)", "el"},
		{"slice negative", "'hello'.slice(-3)", "llo"},
		{"substring swaps", "'hello'.substring(3, 1)", "el"},
		{"substr", "'hello'.substr(1, 3)", "ell"},
		{"split", "'a,b,c'.split(',').length", "3"},
		{"split limit", "'a,b,c'.split(',', 2).join('|')", "a|b"},
		{"split empty", "'abc'.split('').join('|')", "a|b|c"},
		{"split regexp", "'a1b2c'.split(/\\d/).join('|')", "a|b|c"},
		{"split captures", "'a1b'.split(/(\\d)/).join('|')", "a|1|b"},
	})
}

func TestStringTransforms(t *testing.T) {
	runCases(t, []evalCase{
		{"case", "'Hello'.toUpperCase() + 'Hello'.toLowerCase()", "HELLOhello"},
		{"trim", "'[' + '  x  '.trim() + ']'", "[x]"},
		{"trimStart trimEnd", "'[' + '  x  '.trimStart() + '][' + '  x  '.trimEnd() + ']'", "[x  ][  x]"},
		{"padStart", "'5'.padStart(3, '0')", "005"},
		{"padEnd", "'ab'.padEnd(5, 'xy')", "abxyx"},
		{"repeat", "'ab'.repeat(3)", "ababab"},
		{"concat", "'a'.concat('b', 1)", "ab1"},
		{"normalize", "'\\u0065\\u0301'.normalize('NFC').length", "1"},
		{"localeCompare", "['b'.localeCompare('a'), 'a'.localeCompare('b'), 'a'.localeCompare('a')].join()", "1,-1,0"},
		{"fromCharCode", "String.fromCharCode(72, 105)", "Hi"},
		{"fromCodePoint", "String.fromCodePoint(128512) === '😀'", "true"},
		{"raw", "String.raw`a\\nb${1}`", "a\\nb1"},
		{"iterates code points", "[...'a😀b'].length", "3"},
	})
	assert.Contains(t, caught(t, "'a'.repeat(-1)"), "RangeError")
}

func TestStringReplace(t *testing.T) {
	runCases(t, []evalCase{
		{"first only", "'aaa'.replace('a', 'b')", "baa"},
		{"replaceAll", "'aaa'.replaceAll('a', 'b')", "bbb"},
		{"global regexp", "'a1b2'.replace(/\\d/g, '#')", "a#b#"},
		{"groups", "'john smith'.replace(/(\\w+) (\\w+)/, '$2, $1')", "smith, john"},
		{"named groups", "'2024-05'.replace(/(?<y>\\d+)-(?<m>\\d+)/, '$<m>/$<y>')", "05/2024"},
		{"whole match", "'abc'.replace('b', '[$&]')", "a[b]c"},
		{"dollar escape", "'abc'.replace('b', '$$')", "a$c"},
		{"function", "'a1b22'.replace(/\\d+/g, m => m.length)", "a1b2"},
		{"function args", "'x-y'.replace(/(\\w)-(\\w)/, (m, a, b, off) => b + a + off)", "yx0"},
	})
	assert.Contains(t, caught(t, "'a'.replaceAll(/a/, 'b')"), "TypeError")
}

func TestStringMatch(t *testing.T) {
	runCases(t, []evalCase{
		{"match", "'abc123'.match(/\\d+/)[0]", "123"},
		{"match index", "'abc123'.match(/\\d+/).index", "3"},
		{"match global", "'a1b2c3'.match(/\\d/g).join()", "1,2,3"},
		{"no match", "'abc'.match(/\\d/)", "null"},
		{"matchAll", "[...'a1b2'.matchAll(/[a-z](\\d)/g)].map(m => m[1]).join()", "1,2"},
	})
}

func TestStringWrapper(t *testing.T) {
	runCases(t, []evalCase{
		{"typeof wrapper", "typeof new String('a')", "object"},
		{"call converts", "String(123) + String(null)", "123null"},
		{"symbol description", "String(Symbol('s'))", "Symbol(s)"},
		{"valueOf", "new String('x').valueOf()", "x"},
	})
}
