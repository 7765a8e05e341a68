package builtins_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finitefield-org/browser-tester-sub000/interpreter"
)

func newInterp(t *testing.T) (*interpreter.Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return interpreter.New(interpreter.Options{Console: &out, RandomSeed: 1}), &out
}

func eval(t *testing.T, source string) string {
	t.Helper()
	interp, _ := newInterp(t)
	v, err := interp.Eval(source)
	require.NoError(t, err, source)
	return v.ToString()
}

// caught runs source inside try/catch and reports "Name: message" of the
// thrown error.
func caught(t *testing.T, source string) string {
	t.Helper()
	return eval(t, "try { "+source+"; 'no error' } catch (e) { e.name + ': ' + e.message }")
}

// logged runs source and returns everything written to the console.
func logged(t *testing.T, source string) string {
	t.Helper()
	interp, out := newInterp(t)
	_, err := interp.Eval(source)
	require.NoError(t, err, source)
	require.NoError(t, interp.Scheduler().Flush())
	return out.String()
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
			assert.Equal(t, tc.want, eval(t, tc.source))
		})
	}
}

func TestGlobalsInstalled(t *testing.T) {
	names := []string{
		"Object", "Function", "Array", "String", "Number", "Boolean", "BigInt",
		"Symbol", "Error", "TypeError", "ReferenceError", "SyntaxError",
		"RangeError", "URIError", "EvalError", "AggregateError",
		"RegExp", "Map", "Set", "WeakMap", "WeakSet", "Promise",
		"Uint8Array", "Float64Array", "Math", "JSON", "console",
		"parseInt", "parseFloat", "isNaN", "isFinite",
		"encodeURI", "decodeURI", "encodeURIComponent", "decodeURIComponent",
		"setTimeout", "setInterval", "clearTimeout", "clearInterval", "queueMicrotask",
		"structuredClone",
	}
	interp, _ := newInterp(t)
	for _, name := range names {
		v, err := interp.Eval("typeof " + name)
		require.NoError(t, err, name)
		assert.NotEqual(t, "undefined", v.ToString(), name)
	}
}

func TestGlobalsAreShadowable(t *testing.T) {
	assert.Equal(t, "mine", eval(t, "var JSON = 'mine'; JSON"))
	assert.Equal(t, "3", eval(t, "function parseInt() { return 3 } parseInt('9')"))
}
