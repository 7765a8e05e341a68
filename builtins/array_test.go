package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArrayMutators(t *testing.T) {
	runCases(t, []evalCase{
		{"push pop", "const a = [1, 2]; const n = a.push(3, 4); [n, a.pop(), a.join()].join('|')", "4|4|1,2,3"},
		{"shift unshift", "const a = [1, 2, 3]; const s = a.shift(); a.unshift(0, 9); [s, a.join()].join('|')", "1|0,9,2,3"},
		{"splice", "const a = [1, 2, 3, 4, 5]; const r = a.splice(1, 2, 'x'); [r.join(), a.join()].join('|')", "2,3|1,x,4,5"},
		{"splice negative", "const a = [1, 2, 3]; a.splice(-1); a.join()", "1,2"},
		{"reverse", "[1, 2, 3].reverse().join()", "3,2,1"},
		{"fill", "new Array(3).fill(7).join()", "7,7,7"},
		{"fill range", "[1, 2, 3, 4].fill(0, 1, 3).join()", "1,0,0,4"},
		{"copyWithin", "[1, 2, 3, 4, 5].copyWithin(0, 3).join()", "4,5,3,4,5"},
		{"length truncates", "const a = [1, 2, 3]; a.length = 1; a.join()", "1"},
	})
}

func TestArraySearch(t *testing.T) {
	runCases(t, []evalCase{
		{"indexOf", "[1, 2, 3, 2].indexOf(2)", "1"},
		{"lastIndexOf", "[1, 2, 3, 2].lastIndexOf(2)", "3"},
		{"indexOf NaN", "[NaN].indexOf(NaN)", "-1"},
		{"includes NaN", "[NaN].includes(NaN)", "true"},
		{"find", "[1, 5, 10].find(x => x > 3)", "5"},
		{"findIndex", "[1, 5, 10].findIndex(x => x > 3)", "1"},
		{"findLast", "[1, 5, 10].findLast(x => x > 3)", "10"},
		{"findLastIndex", "[1, 5, 10].findLastIndex(x => x > 30)", "-1"},
		{"at", "[1, 2, 3].at(-1)", "3"},
		{"some every", "[[1, 2].some(x => x > 1), [1, 2].every(x => x > 1)].join()", "true,false"},
	})
}

func TestArrayTransforms(t *testing.T) {
	runCases(t, []evalCase{
		{"map", "[1, 2, 3].map((x, i) => x * i).join()", "0,2,6"},
		{"filter", "[1, 2, 3, 4].filter(x => x % 2 === 0).join()", "2,4"},
		{"reduce", "[1, 2, 3].reduce((a, b) => a + b)", "6"},
		{"reduce initial", "[1, 2, 3].reduce((a, b) => a + b, 10)", "16"},
		{"reduceRight", "['a', 'b', 'c'].reduceRight((a, b) => a + b)", "cba"},
		{"concat", "[1].concat([2, 3], 4).join()", "1,2,3,4"},
		{"slice", "[1, 2, 3, 4].slice(1, -1).join()", "2,3"},
		{"flat", "[1, [2, [3, [4]]]].flat(2).length", "4"},
		{"flat infinity", "[1, [2, [3, [4]]]].flat(Infinity).join()", "1,2,3,4"},
		{"flatMap", "[1, 2].flatMap(x => [x, x * 10]).join()", "1,10,2,20"},
		{"join nullish", "[1, null, undefined, 2].join('-')", "1---2"},
		{"nested toString", "String([1, [2, 3]])", "1,2,3"},
		{"with", "const a = [1, 2, 3]; [a.with(1, 9).join(), a.join()].join('|')", "1,9,3|1,2,3"},
		{"toReversed", "const a = [1, 2]; [a.toReversed().join(), a.join()].join('|')", "2,1|1,2"},
		{"toSpliced", "[1, 2, 3].toSpliced(1, 1, 'a', 'b').join()", "1,a,b,3"},
	})
}

func TestArraySort(t *testing.T) {
	runCases(t, []evalCase{
		{"default is string order", "[10, 9, 1, 100].sort().join()", "1,10,100,9"},
		{"comparator", "[10, 9, 1, 100].sort((a, b) => a - b).join()", "1,9,10,100"},
		{"undefined last", "[3, undefined, 1].sort().join()", "1,3,"},
		{"stable", "[{k: 1, v: 'a'}, {k: 0, v: 'b'}, {k: 1, v: 'c'}].sort((x, y) => x.k - y.k).map(x => x.v).join('')", "bac"},
		{"toSorted copies", "const a = [3, 1, 2]; [a.toSorted().join(), a.join()].join('|')", "1,2,3|3,1,2"},
	})
	assert.Equal(t, "TypeError: The comparison function must be either a function or undefined",
		caught(t, "[1, 2].sort(1)"))
}

func TestArrayStatics(t *testing.T) {
	runCases(t, []evalCase{
		{"isArray", "[Array.isArray([]), Array.isArray({length: 0})].join()", "true,false"},
		{"of", "Array.of(7).length", "1"},
		{"from string", "Array.from('abc').join('-')", "a-b-c"},
		{"from array-like", "Array.from({length: 3}, (_, i) => i * 2).join()", "0,2,4"},
		{"from set", "Array.from(new Set([1, 1, 2])).join()", "1,2"},
		{"constructor length", "new Array(4).length", "4"},
		{"constructor items", "new Array(1, 2).join()", "1,2"},
	})
	assert.Equal(t, "RangeError: Invalid array length", caught(t, "new Array(-1)"))
}

func TestArrayIteration(t *testing.T) {
	runCases(t, []evalCase{
		{"keys", "[...['a', 'b'].keys()].join()", "0,1"},
		{"entries", "[...['a', 'b'].entries()].map(e => e.join(':')).join()", "0:a,1:b"},
		{"values is iterator", "[].values === [][Symbol.iterator]", "true"},
		{"forEach skips holes", "let n = 0; [1, , 3].forEach(() => n++); n", "2"},
		{"spread", "Math.max(...[1, 5, 3])", "5"},
	})
}
