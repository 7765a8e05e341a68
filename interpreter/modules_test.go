package interpreter

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func moduleInterpreter(t *testing.T, sources map[string]string) *Interpreter {
	t.Helper()
	loader := NewSourceLoader("")
	for id, src := range sources {
		loader.Register(id, src)
	}
	return New(Options{Loader: loader})
}

func TestModuleExports(t *testing.T) {
	interp := moduleInterpreter(t, nil)
	exports, err := interp.RunModule("main.js", `
export const answer = 42;
export let counter = 0;
export function bump() { counter++ }
export default class Widget {}
const hidden = 1;
export { hidden as visible };
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"answer", "counter", "bump", "default", "visible"}, exports.Names())

	v, ok := exports.Get("answer")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int)

	bump, _ := exports.Get("bump")
	_, err = interp.Call(bump, runtime.Undefined, nil)
	require.NoError(t, err)
	counter, _ := exports.Get("counter")
	assert.Equal(t, int64(1), counter.Int, "exports are live bindings")

	def, _ := exports.Get("default")
	assert.Equal(t, "function", def.TypeOf())
}

func TestModuleImports(t *testing.T) {
	interp := moduleInterpreter(t, map[string]string{
		"lib/math.js": `
export const PI = 3;
export function area(r) { return PI * r * r }
export default function double(x) { return x * 2 }
`,
		"lib/state.js": `
export let count = 0;
export function inc() { count++ }
`,
		"lib/index.js": `
export * from './math.js';
export { inc as increment, count } from './state.js';
export * as state from './state.js';
`,
		"data.json": `{"name": "fixture", "items": [1, 2]}`,
	})
	exports, err := interp.RunModule("app/main.js", `
import double, { area, PI as pi } from '../lib/math.js';
import * as all from '../lib/index.js';
import { count, inc } from '../lib/state.js';
import data from '../data.json' with { type: 'json' };
inc();
inc();
export const results = [double(2), area(2), pi, all.PI, count, all.count, all.state.count, data.name, data.items.length].join();
export const tag = Object.prototype.toString.call(all);
`)
	require.NoError(t, err)
	v, _ := exports.Get("results")
	assert.Equal(t, "4,12,3,3,2,2,2,fixture,2", v.ToString())
	tag, _ := exports.Get("tag")
	assert.Equal(t, "[object Module]", tag.ToString())
}

func TestModuleEvaluatedOnce(t *testing.T) {
	interp := moduleInterpreter(t, map[string]string{
		"once.js": "export let runs = 0; runs++; globalThis.sideEffects = (globalThis.sideEffects || 0) + 1;",
		"a.js":    "import { runs } from './once.js'; export const a = runs;",
		"b.js":    "import { runs } from './once.js'; export const b = runs;",
	})
	_, err := interp.RunModule("main.js", "import { a } from './a.js'; import { b } from './b.js'; export const both = a + b;")
	require.NoError(t, err)
	v, err := interp.Eval("sideEffects")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)
}

func TestModuleCycle(t *testing.T) {
	interp := moduleInterpreter(t, map[string]string{
		"even.js": "import { odd } from './odd.js'; export function even(n) { return n === 0 ? true : odd(n - 1) }",
		"odd.js":  "import { even } from './even.js'; export function odd(n) { return n === 0 ? false : even(n - 1) }",
	})
	exports, err := interp.RunModule("main.js", "import { even } from './even.js'; export const r = [even(4), even(7)].join();")
	require.NoError(t, err)
	v, _ := exports.Get("r")
	assert.Equal(t, "true,false", v.ToString())
}

func TestModuleCycleLexicalExports(t *testing.T) {
	interp := moduleInterpreter(t, map[string]string{
		"a.js": "import { getA } from './b.js'; export let a = 'A'; export const viaB = () => getA();",
		"b.js": "import { a } from './a.js'; export function getA() { return a }",
	})
	exports, err := interp.RunModule("main.js", "import { viaB } from './a.js'; export const r = viaB();")
	require.NoError(t, err)
	v, _ := exports.Get("r")
	assert.Equal(t, "A", v.ToString())
}

func TestModuleCycleReadBeforeLink(t *testing.T) {
	interp := moduleInterpreter(t, map[string]string{
		"a.js": "import { seen } from './b.js'; export let a = 1;",
		"b.js": "import { a } from './a.js'; export let seen; try { a } catch (e) { seen = e.name + ': ' + e.message }",
	})
	exports, err := interp.RunModule("main.js", "import { a } from './a.js'; import { seen } from './b.js'; export const r = seen + ' ' + a;")
	require.NoError(t, err)
	v, _ := exports.Get("r")
	assert.Equal(t, "ReferenceError: Cannot access 'a' before initialization 1", v.ToString())
}

func TestModuleHoistedFunctionsLinkBeforeImports(t *testing.T) {
	interp := moduleInterpreter(t, map[string]string{
		"a.js": "import { fromB } from './b.js'; export function twice(n) { return n * 2 }",
		"b.js": "import { twice } from './a.js'; export const fromB = twice(21);",
	})
	exports, err := interp.RunModule("main.js", "import { twice } from './a.js'; import { fromB } from './b.js'; export const r = fromB;")
	require.NoError(t, err)
	v, _ := exports.Get("r")
	assert.Equal(t, int64(42), v.Int)
}

func TestModuleCycleMissingExport(t *testing.T) {
	interp := moduleInterpreter(t, map[string]string{
		"a.js": "import { b } from './b.js'; export const a = 1;",
		"b.js": "import { nope } from './a.js'; export const b = 2;",
	})
	_, err := interp.RunModule("main.js", "import { a } from './a.js';")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not provide an export named 'nope'")
}

func TestImportRedeclaration(t *testing.T) {
	interp := moduleInterpreter(t, map[string]string{
		"lib.js": "export const a = 1;",
	})
	for i, src := range []string{
		"import { a } from './lib.js'; let a = 2;",
		"import { a } from './lib.js'; var a;",
		"import { a } from './lib.js'; function a() {}",
		"import { a } from './lib.js'; import { a } from './lib.js';",
	} {
		_, err := interp.RunModule(fmt.Sprintf("redeclare%d.js", i), src)
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), "Identifier 'a' has already been declared", src)
	}
}

func TestModuleErrors(t *testing.T) {
	interp := moduleInterpreter(t, map[string]string{
		"lib.js": "export const a = 1;",
	})

	_, err := interp.RunModule("missing.js", "import { x } from './nope.js';")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModuleNotFound), err.Error())

	_, err = interp.RunModule("bad-name.js", "import { b } from './lib.js';")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not provide an export named 'b'")

	_, err = interp.RunModule("assign.js", "import { a } from './lib.js'; a = 2;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Assignment to constant variable.")

	_, err = interp.RunModule("this.js", "export const t = typeof this;")
	require.NoError(t, err)
}

func TestSourceLoaderFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "greet.js"), []byte("export const greet = n => 'hi ' + n;"), 0o644))

	loader := NewSourceLoader(dir)
	loader.Alias("greeter", "pkg/greet.js")
	interp := New(Options{Loader: loader})

	exports, err := interp.RunModule("main.js", "import { greet } from 'greeter'; import { greet as g2 } from './pkg/greet.js'; export const out = greet('a') + ',' + g2('b');")
	require.NoError(t, err)
	v, _ := exports.Get("out")
	assert.Equal(t, "hi a,hi b", v.ToString())

	id, err := loader.Resolve("../x.js", "pkg/greet.js")
	assert.Error(t, err)
	assert.Empty(t, id)
}
