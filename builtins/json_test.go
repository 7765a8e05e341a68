package builtins_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finitefield-org/browser-tester-sub000/builtins"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func TestJSONParse(t *testing.T) {
	runCases(t, []evalCase{
		{"object", "JSON.parse('{\"a\": 1, \"b\": [true, null]}').b.length", "2"},
		{"key order", "Object.keys(JSON.parse('{\"z\": 1, \"a\": 2}')).join()", "z,a"},
		{"number", "JSON.parse('-1.5e2')", "-150"},
		{"string escapes", "JSON.parse('\"a\\\\nb\"').length", "3"},
		{"reviver", "JSON.parse('{\"a\": 1, \"b\": 2}', (k, v) => typeof v === 'number' ? v * 10 : v).b", "20"},
		{"reviver drops", "Object.keys(JSON.parse('{\"a\": 1, \"b\": 2}', (k, v) => k === 'a' ? undefined : v)).join()", "b"},
	})
	assert.Equal(t, "SyntaxError: Unexpected end of JSON input", caught(t, "JSON.parse('{\"a\":')"))
	assert.Contains(t, caught(t, "JSON.parse('{a: 1}')"), "SyntaxError")
	assert.Contains(t, caught(t, "JSON.parse('1 2')"), "SyntaxError")
}

func TestJSONStringify(t *testing.T) {
	runCases(t, []evalCase{
		{"object", "JSON.stringify({a: 1, b: 'x', c: [1, null]})", `{"a":1,"b":"x","c":[1,null]}`},
		{"omits undefined", "JSON.stringify({a: undefined, f() {}, s: Symbol()})", "{}"},
		{"array undefined is null", "JSON.stringify([undefined, () => 1])", "[null,null]"},
		{"non-finite", "JSON.stringify([NaN, Infinity])", "[null,null]"},
		{"top-level undefined", "String(JSON.stringify(undefined))", "undefined"},
		{"indent", "JSON.stringify({a: [1]}, null, 2)", "{\n  \"a\": [\n    1\n  ]\n}"},
		{"indent string", "JSON.stringify({a: 1}, null, '--')", "{\n--\"a\": 1\n}"},
		{"replacer function", "JSON.stringify({a: 1, b: 2}, (k, v) => k === 'a' ? undefined : v)", `{"b":2}`},
		{"replacer array", "JSON.stringify({a: 1, b: 2, c: 3}, ['c', 'a'])", `{"c":3,"a":1}`},
		{"toJSON", "JSON.stringify({x: {toJSON() { return 'X' }}})", `{"x":"X"}`},
		{"wrappers", "JSON.stringify([new Number(1), new String('s'), new Boolean(true)])", `[1,"s",true]`},
		{"escapes", `JSON.stringify('a"b\n<')`, `"a\"b\n<"`},
		{"map is empty object", "JSON.stringify(new Map([[1, 2]]))", "{}"},
	})
	assert.Equal(t, "TypeError: Converting circular structure to JSON", caught(t, "const o = {}; o.self = o; JSON.stringify(o)"))
	assert.Equal(t, "TypeError: Do not know how to serialize a BigInt", caught(t, "JSON.stringify(1n)"))
}

func TestParseJSONFromHost(t *testing.T) {
	realm := runtime.NewRealm()
	builtins.Install(realm, builtins.Host{})
	v, err := builtins.ParseJSON(realm, `{"name": "x", "tags": ["a", "b"], "n": 3}`)
	require.NoError(t, err)
	require.True(t, v.IsObject())

	if diff := cmp.Diff([]string{"name", "tags", "n"}, v.Object.OwnKeys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
	tags := v.Object.Get("tags")
	require.True(t, tags.IsObject())
	assert.Len(t, tags.Object.ArrayData, 2)
	assert.Equal(t, "3", v.Object.Get("n").ToString())

	_, err = builtins.ParseJSON(realm, `[1,`)
	assert.Error(t, err)
}
