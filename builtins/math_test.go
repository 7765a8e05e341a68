package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMath(t *testing.T) {
	runCases(t, []evalCase{
		{"abs", "Math.abs(-5)", "5"},
		{"floor ceil", "[Math.floor(-1.5), Math.ceil(-1.5)].join()", "-2,-1"},
		{"round half up", "[Math.round(2.5), Math.round(-2.5), Math.round(-2.6)].join()", "3,-2,-3"},
		{"round negative zero", "Object.is(Math.round(-0.4), -0)", "true"},
		{"trunc sign", "[Math.trunc(-4.7), Math.sign(-3), Math.sign(0)].join()", "-4,-1,0"},
		{"max min", "[Math.max(1, 3, 2), Math.min(1, 3, 2)].join()", "3,1"},
		{"max empty", "[Math.max(), Math.min()].join()", "-Infinity,Infinity"},
		{"max NaN", "Math.max(1, NaN)", "NaN"},
		{"max zeros", "Object.is(Math.max(-0, 0), 0)", "true"},
		{"pow", "Math.pow(2, 10)", "1024"},
		{"pow one infinity", "Math.pow(1, Infinity)", "NaN"},
		{"sqrt cbrt", "[Math.sqrt(16), Math.cbrt(27)].join()", "4,3"},
		{"hypot", "Math.hypot(3, 4)", "5"},
		{"imul", "Math.imul(0xffffffff, 5)", "-5"},
		{"clz32", "Math.clz32(1)", "31"},
		{"fround", "Math.fround(5.5)", "5.5"},
		{"log2", "Math.log2(8)", "3"},
		{"PI", "Math.PI.toFixed(5)", "3.14159"},
		{"tag", "String(Math)", "[object Math]"},
		{"coerces", "Math.abs('-2')", "2"},
	})
}

func TestMathRandomSeeded(t *testing.T) {
	a, _ := newInterp(t)
	b, _ := newInterp(t)
	va, err := a.Eval("[Math.random(), Math.random()].join()")
	assert.NoError(t, err)
	vb, err := b.Eval("[Math.random(), Math.random()].join()")
	assert.NoError(t, err)
	assert.Equal(t, va.ToString(), vb.ToString())
	assert.Equal(t, "true", eval(t, "const r = Math.random(); r >= 0 && r < 1"))
}
