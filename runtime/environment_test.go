package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentTDZ(t *testing.T) {
	env := NewEnvironment(nil, ScopeGlobal)
	env.DeclareUninitialized("x", BindLet)

	_, err := env.Get("x")
	require.Error(t, err)
	assert.Equal(t, "ReferenceError: Cannot access 'x' before initialization", err.Error())

	err = env.Set("x", NewInt(1))
	require.Error(t, err)
	assert.Equal(t, KindReferenceError, ErrorKindOf(err))

	env.Initialize("x", NewInt(2))
	v, err := env.Get("x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int)
}

func TestEnvironmentConstAssignment(t *testing.T) {
	env := NewEnvironment(nil, ScopeGlobal)
	require.NoError(t, env.Declare("c", BindConst, NewInt(1)))

	err := env.Set("c", NewInt(2))
	require.Error(t, err)
	assert.Equal(t, "TypeError: Assignment to constant variable.", err.Error())
}

func TestEnvironmentRedeclaration(t *testing.T) {
	env := NewEnvironment(nil, ScopeGlobal)
	require.NoError(t, env.Declare("a", BindVar, NewInt(1)))
	require.NoError(t, env.Declare("a", BindVar, NewInt(2)))
	v, _ := env.Get("a")
	assert.Equal(t, int64(2), v.Int)

	require.NoError(t, env.Declare("b", BindLet, NewInt(1)))
	err := env.Declare("b", BindLet, NewInt(1))
	require.Error(t, err)
	assert.Equal(t, KindSyntaxError, ErrorKindOf(err))
}

func TestEnvironmentUndefinedName(t *testing.T) {
	env := NewEnvironment(nil, ScopeGlobal)
	_, err := env.Get("missing")
	require.Error(t, err)
	assert.Equal(t, "ReferenceError: missing is not defined", err.Error())
}

func TestEnvironmentFunctionScope(t *testing.T) {
	global := NewEnvironment(nil, ScopeGlobal)
	fn := NewEnvironment(global, ScopeFunction)
	block := NewEnvironment(NewEnvironment(fn, ScopeBlock), ScopeBlock)

	assert.Same(t, fn, block.FunctionScope())
	assert.Same(t, global, block.Global())
	assert.True(t, block.IsBlock())
}

func TestEnvironmentLinkIsLive(t *testing.T) {
	module := NewEnvironment(nil, ScopeModule)
	require.NoError(t, module.Declare("count", BindLet, NewInt(1)))
	cell, _ := module.Own("count")

	importer := NewEnvironment(nil, ScopeModule)
	importer.DeclareLink("count", cell)

	require.NoError(t, module.Set("count", NewInt(5)))
	v, err := importer.Get("count")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int)

	err = importer.Set("count", NewInt(6))
	require.Error(t, err)
	assert.Equal(t, KindTypeError, ErrorKindOf(err))
}

func TestEnvironmentSnapshotCopiesValues(t *testing.T) {
	global := NewEnvironment(nil, ScopeGlobal)
	require.NoError(t, global.Declare("g", BindVar, NewInt(0)))
	fn := NewEnvironment(global, ScopeFunction)
	require.NoError(t, fn.Declare("local", BindLet, NewString("before")))

	snap := fn.Snapshot(global)
	require.NoError(t, fn.Set("local", NewString("after")))

	v, err := snap.Get("local")
	require.NoError(t, err)
	assert.Equal(t, "before", v.Str)

	// Globals are shared, not copied.
	require.NoError(t, global.Set("g", NewInt(9)))
	v, err = snap.Get("g")
	require.NoError(t, err)
	assert.Equal(t, int64(9), v.Int)
}

func TestEnvironmentNamesSkipsInternalSlots(t *testing.T) {
	env := NewEnvironment(nil, ScopeFunction)
	env.DeclareVar("b")
	env.DeclareVar("a")
	env.DeclareVar("%this")
	assert.Equal(t, []string{"a", "b"}, env.Names())
}
