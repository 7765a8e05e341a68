package runtime

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMapSameValueZero(t *testing.T) {
	m := NewOrderedMap()
	m.Set(NaN, NewString("nan"))
	m.Set(NewFloat(math.Copysign(0, -1)), NewString("zero"))
	m.Set(NewString("1"), NewString("str"))
	m.Set(NewInt(1), NewString("num"))

	v, ok := m.Get(NewFloat(math.NaN()))
	require.True(t, ok)
	assert.Equal(t, "nan", v.Str)

	v, ok = m.Get(Zero)
	require.True(t, ok)
	assert.Equal(t, "zero", v.Str)

	assert.Equal(t, 4, m.Size())
	assert.True(t, m.Has(NewFloat(1)))
}

func TestOrderedMapKeepsInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	for _, k := range []string{"b", "a", "c"} {
		m.Set(NewString(k), Undefined)
	}
	m.Set(NewString("b"), True)
	m.Delete(NewString("a"))

	var keys []string
	for _, e := range m.Entries() {
		keys = append(keys, e[0].Str)
	}
	if diff := cmp.Diff([]string{"b", "c"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderedMapCursorSeesAppends(t *testing.T) {
	m := NewOrderedMap()
	m.Set(NewInt(1), Undefined)
	cursor := m.Cursor()

	k, _, ok := cursor()
	require.True(t, ok)
	assert.Equal(t, int64(1), k.Int)

	m.Set(NewInt(2), Undefined)
	k, _, ok = cursor()
	require.True(t, ok)
	assert.Equal(t, int64(2), k.Int)

	_, _, ok = cursor()
	assert.False(t, ok)
}

func TestExportTableLiveBinding(t *testing.T) {
	env := NewEnvironment(nil, ScopeModule)
	require.NoError(t, env.Declare("n", BindLet, NewInt(1)))
	cell, _ := env.Own("n")

	exports := NewExportTable()
	exports.Bind("n", cell)
	exports.SetValue("default", NewString("d"))

	require.NoError(t, env.Set("n", NewInt(2)))
	v, ok := exports.Get("n")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.Int)
	assert.Equal(t, []string{"n", "default"}, exports.Names())

	exports.Append("n", cell)
	assert.Equal(t, []string{"default", "n"}, exports.Names())
}

func TestPendingLinkStaysInTDZUntilResolved(t *testing.T) {
	src := NewEnvironment(nil, ScopeModule)
	require.NoError(t, src.Declare("a", BindLet, NewString("A")))
	target, _ := src.Own("a")

	env := NewEnvironment(nil, ScopeModule)
	cell := env.DeclarePendingLink("a")
	assert.False(t, cell.Ready())
	assert.False(t, cell.Mutable)

	cell.Resolve(target)
	b, _ := env.Own("a")
	assert.True(t, b.Ready())
	assert.Equal(t, "A", b.Current().Str)
}

func TestGetIteratorOverBuiltins(t *testing.T) {
	realm := NewRealm()

	vals, err := IterateToSlice(realm, NewString("héllo"))
	require.NoError(t, err)
	assert.Len(t, vals, 5)
	assert.Equal(t, "é", vals[1].Str)

	arr := realm.ArrayValue([]*Value{NewInt(1), nil, NewInt(3)})
	vals, err = IterateToSlice(realm, arr)
	require.NoError(t, err)
	assert.Equal(t, TypeUndefined, vals[1].Type)

	_, err = GetIterator(realm, NewInt(3))
	require.Error(t, err)
	assert.Equal(t, KindTypeError, ErrorKindOf(err))
}

func TestGetIteratorProtocol(t *testing.T) {
	realm := NewRealm()
	n := 0
	closed := false
	iter := realm.NewObject()
	iter.Set("next", nativeFn(realm, func(this *Value, args []*Value) (*Value, error) {
		n++
		return realm.IterResult(NewInt(int64(n)), n > 3), nil
	}))
	iter.Set("return", nativeFn(realm, func(this *Value, args []*Value) (*Value, error) {
		closed = true
		return realm.IterResult(Undefined, true), nil
	}))
	iterable := realm.NewObject()
	iterable.SetSymbol(SymbolIterator, nativeFn(realm, func(this *Value, args []*Value) (*Value, error) {
		return NewObject(iter), nil
	}))

	it, err := GetIterator(realm, NewObject(iterable))
	require.NoError(t, err)
	v, done, err := it.Next()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, int64(1), v.Int)

	require.NoError(t, it.Close())
	assert.True(t, closed)

	_, done, _ = it.Next()
	assert.True(t, done)
}
