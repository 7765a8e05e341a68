package builtins_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finitefield-org/browser-tester-sub000/builtins"
	"github.com/finitefield-org/browser-tester-sub000/interpreter"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func TestConsoleFormatting(t *testing.T) {
	cases := []evalCase{
		{"strings raw at top level", "console.log('hello', 2, [1, 2])", "hello 2 [ 1, 2 ]\n"},
		{"nested strings quoted", "console.log(['a', {b: 'c'}])", "[ 'a', { b: 'c' } ]\n"},
		{"object", "console.log({a: 1, 'b-c': true})", "{ a: 1, 'b-c': true }\n"},
		{"empty", "console.log({}, [])", "{} []\n"},
		{"nullish", "console.log(null, undefined)", "null undefined\n"},
		{"negative zero", "console.log([-0])", "[ -0 ]\n"},
		{"bigint", "console.log(10n)", "10n\n"},
		{"functions", "console.log(function foo() {}, () => 1)", "[Function: foo] [Function (anonymous)]\n"},
		{"class", "class Point {} console.log(Point, new Point())", "[class Point] Point {}\n"},
		{"map set", "console.log(new Map([['a', 1]]), new Set([1]))", "Map(1) { 'a' => 1 } Set(1) { 1 }\n"},
		{"holes", "console.log([1, , , 4])", "[ 1, <2 empty items>, 4 ]\n"},
		{"depth", "console.log({a: {b: {c: {d: 1}}}})", "{ a: { b: { c: [Object] } } }\n"},
		{"circular", "const o = {}; o.self = o; console.log(o)", "{ self: [Circular *1] }\n"},
		{"error", "console.log(new Error('boom'))", "Error: boom\n"},
		{"boxed", "console.log(new Number(3))", "[Number: 3]\n"},
		{"null prototype", "console.log(Object.create(null))", "[Object: null prototype] {}\n"},
		{"promise", "console.log(Promise.resolve(1))", "Promise { 1 }\n"},
		{"typed array", "console.log(new Uint8Array([1, 2]))", "Uint8Array(2) [ 1, 2 ]\n"},
		{"symbol key", "console.log({[Symbol('k')]: 1})", "{ [Symbol(k)]: 1 }\n"},
		{"getter", "console.log({get x() { return 1 }})", "{ x: [Getter] }\n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, logged(t, tc.source))
		})
	}
}

func TestConsoleDirectives(t *testing.T) {
	cases := []evalCase{
		{"string", "console.log('%s is %d years', 'Bob', 42.9)", "Bob is 42.9 years\n"},
		{"integer", "console.log('%i', 42.9)", "42\n"},
		{"object", "console.log('%o', {a: 1})", "{ a: 1 }\n"},
		{"json", "console.log('%j', 'x')", "\"x\"\n"},
		{"percent", "console.log('100%%')", "100%\n"},
		{"css dropped", "console.log('%cred', 'color: red')", "red\n"},
		{"missing args kept", "console.log('%s and %s', 'a')", "a and %s\n"},
		{"extra args appended", "console.log('%s', 'a', 'b')", "a b\n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, logged(t, tc.source))
		})
	}
}

func TestConsoleCountersAndGroups(t *testing.T) {
	out := logged(t, `
		console.count(); console.count(); console.count('x'); console.countReset(); console.count();
		console.group('outer');
		console.log('inside');
		console.groupEnd();
		console.log('outside');
		console.assert(true, 'hidden');
		console.assert(false, 'shown', 1);
	`)
	assert.Equal(t, strings.Join([]string{
		"default: 1", "default: 2", "x: 1", "default: 1",
		"outer", "  inside", "outside", "Assertion failed: shown 1",
	}, "\n")+"\n", out)
}

func TestConsoleTimers(t *testing.T) {
	out := logged(t, "console.time('t'); console.timeEnd('t'); console.timeEnd('t')")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^t: \d+\.\d{3}ms$`, lines[0])
	assert.Equal(t, "Warning: No such label 't' for console.timeEnd()", lines[1])
}

func TestConsoleMirrorsToLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	var out bytes.Buffer
	interp := interpreter.New(interpreter.Options{Console: &out, Logger: logger})
	_, err := interp.Eval("console.warn('careful')")
	require.NoError(t, err)

	assert.Equal(t, "careful\n", out.String())
	var found bool
	for _, e := range hook.AllEntries() {
		if e.Data["console"] == "warn" && e.Message == "careful" {
			found = true
		}
	}
	assert.True(t, found, "console line mirrored to logger")
}

func TestInspect(t *testing.T) {
	assert.Equal(t, "'s'", builtins.Inspect(runtime.NewString("s")))
	assert.Equal(t, "3", builtins.Inspect(runtime.NewInt(3)))
	assert.Equal(t, "undefined", builtins.Inspect(runtime.Undefined))

	interp, _ := newInterp(t)
	v, err := interp.Eval("({list: Array.from({length: 30}, (_, i) => i)})")
	require.NoError(t, err)
	got := builtins.Inspect(v)
	assert.True(t, strings.HasPrefix(got, "{\n  list: [\n    0,\n"), got)
	assert.True(t, strings.HasSuffix(got, "\n  ]\n}"), got)
}
