package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedArrays(t *testing.T) {
	runCases(t, []evalCase{
		{"length zero filled", "const a = new Int16Array(3); a.length + ':' + a.join()", "3:0,0,0"},
		{"from array", "new Uint8Array([1, 2, 300]).join()", "1,2,44"},
		{"wraps signed", "new Int8Array([200]).join()", "-56"},
		{"clamped", "new Uint8ClampedArray([300, -5, 1.5, 2.5]).join()", "255,0,2,2"},
		{"float32 rounds", "new Float32Array([0.1])[0] === 0.1", "false"},
		{"index write coerces", "const a = new Uint8Array(1); a[0] = 257; a[0]", "1"},
		{"out of range write ignored", "const a = new Uint8Array(1); a[5] = 1; a.length", "1"},
		{"length fixed", "const a = new Uint8Array(2); a.length = 10; a.length", "2"},
		{"numeric sort", "new Int32Array([10, 9, 1, 100]).sort().join()", "1,9,10,100"},
		{"map keeps kind", "const m = new Uint8Array([1, 2]).map(x => x * 200); m.constructor.name + ':' + m.join()", "Uint8Array:200,144"},
		{"filter", "new Int32Array([1, 2, 3, 4]).filter(x => x % 2).join()", "1,3"},
		{"subarray", "new Int32Array([1, 2, 3, 4]).subarray(1, 3).join()", "2,3"},
		{"set", "const a = new Int32Array(4); a.set([7, 8], 1); a.join()", "0,7,8,0"},
		{"iterable", "[...new Uint8Array([5, 6])].join()", "5,6"},
		{"byteLength", "new Float64Array(3).byteLength", "24"},
		{"BYTES_PER_ELEMENT", "Int16Array.BYTES_PER_ELEMENT", "2"},
		{"of", "Uint16Array.of(1, 65537).join()", "1,1"},
		{"from mapper", "Int8Array.from([1, 2], x => x * 3).join()", "3,6"},
		{"toStringTag", "Object.prototype.toString.call(new Float32Array(1))", "[object Float32Array]"},
		{"not an array", "Array.isArray(new Uint8Array(1))", "false"},
	})
	assert.Contains(t, caught(t, "new Uint8Array(-1)"), "RangeError")
	assert.Contains(t, caught(t, "new Uint8Array(2).set([1, 2, 3])"), "RangeError")
	assert.Contains(t, caught(t, "Uint8Array(2)"), "TypeError")
}
