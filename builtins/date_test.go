package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateFields(t *testing.T) {
	runCases(t, []evalCase{
		{"epoch", "new Date(0).toISOString()", "1970-01-01T00:00:00.000Z"},
		{"weekday", "new Date(0).getDay()", "4"},
		{"utc getters match", "const d = new Date(Date.UTC(2024, 1, 29, 13, 5, 9, 7)); [d.getFullYear(), d.getUTCMonth(), d.getDate(), d.getHours(), d.getMinutes(), d.getSeconds(), d.getMilliseconds()].join()", "2024,1,29,13,5,9,7"},
		{"components", "new Date(2024, 1, 29).toISOString()", "2024-02-29T00:00:00.000Z"},
		{"overflow carries", "const d = new Date(2024, 0, 32); d.getMonth() + '/' + d.getDate()", "1/1"},
		{"two digit year", "new Date(99, 0).getFullYear()", "1999"},
		{"copy", "new Date(new Date(5)).getTime()", "5"},
		{"out of range", "new Date(8.64e15 + 1).getTime()", "NaN"},
		{"timezone", "new Date(0).getTimezoneOffset()", "0"},
		{"utc missing year", "Date.UTC()", "NaN"},
	})
}

func TestDateFormatting(t *testing.T) {
	runCases(t, []evalCase{
		{"toString", "new Date(0).toString()", "Thu Jan 01 1970 00:00:00 GMT+0000 (Coordinated Universal Time)"},
		{"toUTCString", "new Date(0).toUTCString()", "Thu, 01 Jan 1970 00:00:00 GMT"},
		{"toDateString", "new Date(0).toDateString()", "Thu Jan 01 1970"},
		{"locale", "new Date(Date.UTC(2024, 2, 5, 15, 4, 5)).toLocaleString()", "3/5/2024, 3:04:05 PM"},
		{"invalid string", "String(new Date('nope'))", "Invalid Date"},
		{"expanded year", "new Date(Date.UTC(10000, 0)).toISOString()", "+010000-01-01T00:00:00.000Z"},
		{"json", "JSON.stringify({d: new Date(0), bad: new Date(NaN)})", `{"d":"1970-01-01T00:00:00.000Z","bad":null}`},
		{"tag", "Object.prototype.toString.call(new Date(0))", "[object Date]"},
		{"default hint is string", "typeof (new Date(0) + 1)", "string"},
		{"subtraction is numeric", "new Date(1000) - new Date(0)", "1000"},
		{"called without new", "typeof Date()", "string"},
		{"clone", "structuredClone(new Date(7)).getTime()", "7"},
	})
	assert.Equal(t, "RangeError: Invalid time value", caught(t, "new Date(NaN).toISOString()"))
	assert.Equal(t, "TypeError: this is not a Date object.", caught(t, "Date.prototype.getTime.call({})"))
	assert.Equal(t, "1970-01-01T00:00:00.000Z\nInvalid Date\n", logged(t, "console.log(new Date(0)); console.log(new Date(NaN))"))
}

func TestDateParse(t *testing.T) {
	runCases(t, []evalCase{
		{"iso with millis", "Date.parse('2024-03-05T10:20:30.456Z') === Date.UTC(2024, 2, 5, 10, 20, 30, 456)", "true"},
		{"iso with offset", "Date.parse('2024-03-05T10:20:30+02:00') === Date.UTC(2024, 2, 5, 8, 20, 30)", "true"},
		{"date only", "Date.parse('2024-03-05') === Date.UTC(2024, 2, 5)", "true"},
		{"year month", "Date.parse('2024-03') === Date.UTC(2024, 2)", "true"},
		{"toString round trip", "Date.parse(new Date(86400000).toString())", "86400000"},
		{"toUTCString round trip", "Date.parse(new Date(86400000).toUTCString())", "86400000"},
		{"garbage", "isNaN(Date.parse('x'))", "true"},
		{"constructor parses", "new Date('2024-03-05T00:00:00Z').getUTCDate()", "5"},
	})
}

func TestDateSetters(t *testing.T) {
	runCases(t, []evalCase{
		{"month overflow", "const d = new Date(0); d.setMonth(13); d.toISOString()", "1971-02-01T00:00:00.000Z"},
		{"hours overflow", "const d = new Date(0); d.setHours(25); d.toISOString()", "1970-01-02T01:00:00.000Z"},
		{"extra fields", "const d = new Date(0); d.setMinutes(1, 2, 3); d.toISOString()", "1970-01-01T00:01:02.003Z"},
		{"returns time value", "new Date(0).setSeconds(1)", "1000"},
		{"utc alias", "const d = new Date(0); d.setUTCDate(3); d.getDate()", "3"},
		{"invalid stays invalid", "const d = new Date(NaN); [d.setDate(1), d.getTime()].join()", "NaN,NaN"},
		{"full year revives", "const d = new Date(NaN); d.setFullYear(2000); d.toISOString()", "2000-01-01T00:00:00.000Z"},
		{"setTime clips", "const d = new Date(0); d.setTime(Infinity); String(d)", "Invalid Date"},
	})
}

func TestDateFollowsVirtualClock(t *testing.T) {
	assert.Equal(t, "0", eval(t, "Date.now()"))
	assert.Equal(t, "1500 1500\n", logged(t, "const t0 = Date.now(); setTimeout(() => console.log(Date.now() - t0, new Date().getTime()), 1500)"))

	interp, _ := newInterp(t)
	require.NoError(t, interp.Scheduler().AdvanceBy(250))
	v, err := interp.Eval("new Date().toISOString()")
	require.NoError(t, err)
	assert.Equal(t, "1970-01-01T00:00:00.250Z", v.ToString())
}
