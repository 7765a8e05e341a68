package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nativeFn(realm *Realm, fn CallableFunc) *Value {
	return NewObject(realm.NewFunction("", 1, fn))
}

func TestPromiseReactionsRunAsJobs(t *testing.T) {
	realm := NewRealm()
	p := NewPromise(realm)
	var seen []string

	PromiseThen(realm, p, nativeFn(realm, func(this *Value, args []*Value) (*Value, error) {
		seen = append(seen, "then:"+args[0].ToString())
		return Undefined, nil
	}), nil)

	ResolvePromise(realm, p, NewString("ok"))
	assert.Empty(t, seen, "reactions must not run synchronously")
	assert.Equal(t, PromiseFulfilled, p.Promise.State)

	require.NoError(t, realm.RunJobs())
	assert.Equal(t, []string{"then:ok"}, seen)
}

func TestPromiseSettlesOnce(t *testing.T) {
	realm := NewRealm()
	p := NewPromise(realm)
	resolve, reject := CreateResolvingFunctions(realm, p)

	_, err := Call(resolve, Undefined, []*Value{NewInt(1)})
	require.NoError(t, err)
	_, err = Call(reject, Undefined, []*Value{NewInt(2)})
	require.NoError(t, err)

	assert.Equal(t, PromiseFulfilled, p.Promise.State)
	assert.Equal(t, int64(1), p.Promise.Value.Int)
}

func TestPromiseSelfResolutionRejects(t *testing.T) {
	realm := NewRealm()
	p := NewPromise(realm)
	ResolvePromise(realm, p, NewObject(p))

	assert.Equal(t, PromiseRejected, p.Promise.State)
	assert.Equal(t, "TypeError", p.Promise.Value.Object.Get("name").ToString())
}

func TestPromiseAdoptsPromise(t *testing.T) {
	realm := NewRealm()
	inner := NewPromise(realm)
	outer := NewPromise(realm)

	ResolvePromise(realm, outer, NewObject(inner))
	require.NoError(t, realm.RunJobs())
	assert.Equal(t, PromisePending, outer.Promise.State)

	RejectPromise(realm, inner, NewString("boom"))
	require.NoError(t, realm.RunJobs())
	assert.Equal(t, PromiseRejected, outer.Promise.State)
	assert.Equal(t, "boom", outer.Promise.Value.Str)
}

func TestPromiseThenPropagatesThrow(t *testing.T) {
	realm := NewRealm()
	p := PromiseResolve(realm, NewInt(1))
	derived := PromiseThen(realm, p, nativeFn(realm, func(this *Value, args []*Value) (*Value, error) {
		return nil, NewTypeError("bad")
	}), nil)

	require.NoError(t, realm.RunJobs())
	assert.Equal(t, PromiseRejected, derived.Promise.State)
	assert.Equal(t, "TypeError: bad", DescribeThrown(derived.Promise.Value))
}

func TestPromiseRejectionPassesThrough(t *testing.T) {
	realm := NewRealm()
	p := RejectedPromise(realm, NewString("nope"))
	derived := PromiseThen(realm, p, nil, nil)

	require.NoError(t, realm.RunJobs())
	assert.Equal(t, PromiseRejected, derived.Promise.State)
	assert.True(t, p.Promise.Handled)
}
