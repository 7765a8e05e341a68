package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberFormatting(t *testing.T) {
	runCases(t, []evalCase{
		{"toFixed", "(3.14159).toFixed(2)", "3.14"},
		{"toFixed rounds half up", "(1.005).toFixed(2)", "1.00"},
		{"toFixed pads", "(2).toFixed(3)", "2.000"},
		{"toFixed large", "(1e21).toFixed(2)", "1e+21"},
		{"toPrecision", "(123.456).toPrecision(4)", "123.5"},
		{"toPrecision exponent", "(0.000123).toPrecision(2)", "0.00012"},
		{"toExponential", "(12345).toExponential(2)", "1.23e+4"},
		{"toString radix", "(255).toString(16)", "ff"},
		{"toString binary", "(-5).toString(2)", "-101"},
		{"toString fraction radix", "(0.5).toString(2)", "0.1"},
		{"toLocaleString", "(1234567.891).toLocaleString()", "1,234,567.891"},
		{"exponent form", "String(1e21)", "1e+21"},
		{"small exponent", "String(1e-7)", "1e-7"},
		{"negative zero prints 0", "String(-0)", "0"},
	})
	assert.Contains(t, caught(t, "(1).toFixed(101)"), "RangeError")
	assert.Contains(t, caught(t, "(1).toString(1)"), "RangeError")
}

func TestNumberStatics(t *testing.T) {
	runCases(t, []evalCase{
		{"isInteger", "[Number.isInteger(5), Number.isInteger(5.5), Number.isInteger('5')].join()", "true,false,false"},
		{"isSafeInteger", "[Number.isSafeInteger(2 ** 53 - 1), Number.isSafeInteger(2 ** 53)].join()", "true,false"},
		{"isNaN strict", "[Number.isNaN(NaN), Number.isNaN('x')].join()", "true,false"},
		{"isFinite strict", "[Number.isFinite(1), Number.isFinite('1')].join()", "true,false"},
		{"MAX_SAFE_INTEGER", "Number.MAX_SAFE_INTEGER", "9007199254740991"},
		{"EPSILON", "Number.EPSILON > 0 && Number.EPSILON < 1e-15", "true"},
		{"parseInt shared", "Number.parseInt === parseInt", "true"},
	})
}

func TestNumberParsing(t *testing.T) {
	runCases(t, []evalCase{
		{"parseInt", "parseInt('42px')", "42"},
		{"parseInt hex", "parseInt('0x1f')", "31"},
		{"parseInt radix", "parseInt('101', 2)", "5"},
		{"parseInt sign", "parseInt('  -12')", "-12"},
		{"parseInt garbage", "parseInt('abc')", "NaN"},
		{"parseFloat", "parseFloat('3.5e2xyz')", "350"},
		{"parseFloat infinity", "parseFloat('-Infinity')", "-Infinity"},
		{"Number empty", "Number('')", "0"},
		{"Number whitespace", "Number('  12  ')", "12"},
		{"Number hex", "Number('0x10')", "16"},
		{"Number invalid", "Number('12px')", "NaN"},
		{"Number bigint", "Number(10n)", "10"},
	})
}

func TestBigInt(t *testing.T) {
	runCases(t, []evalCase{
		{"call", "BigInt(42) === 42n", "true"},
		{"from string", "BigInt('12345678901234567890').toString()", "12345678901234567890"},
		{"radix", "(255n).toString(16)", "ff"},
		{"asIntN", "BigInt.asIntN(8, 255n).toString()", "-1"},
		{"asUintN", "BigInt.asUintN(8, -1n).toString()", "255"},
		{"typeof", "typeof 1n", "bigint"},
	})
	assert.Equal(t, "TypeError: BigInt is not a constructor", caught(t, "new BigInt(1)"))
	assert.Contains(t, caught(t, "BigInt(1.5)"), "RangeError")
}

func TestBoolean(t *testing.T) {
	runCases(t, []evalCase{
		{"call", "[Boolean(0), Boolean('x'), Boolean({})].join()", "false,true,true"},
		{"wrapper is truthy", "new Boolean(false) ? 'yes' : 'no'", "yes"},
		{"valueOf", "new Boolean(false).valueOf()", "false"},
		{"toString", "true.toString()", "true"},
	})
	assert.Contains(t, caught(t, "Boolean.prototype.toString.call(1)"), "TypeError")
}
