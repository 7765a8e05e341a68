package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromiseChains(t *testing.T) {
	cases := []evalCase{
		{"then", "Promise.resolve(1).then(v => v + 1).then(v => console.log(v))", "2\n"},
		{"catch", "Promise.reject(new Error('no')).catch(e => console.log(e.message))", "no\n"},
		{"executor throw rejects", "new Promise(() => { throw new TypeError('t') }).catch(e => console.log(e.name))", "TypeError\n"},
		{"finally passes through", "Promise.resolve(5).finally(() => console.log('f')).then(v => console.log(v))", "f\n5\n"},
		{"thenable adoption", "Promise.resolve({then(r) { r(9) }}).then(v => console.log(v))", "9\n"},
		{"withResolvers", "const {promise, resolve} = Promise.withResolvers(); promise.then(v => console.log(v)); resolve('ok')", "ok\n"},
		{"try", "Promise.try(() => { throw 1 }).catch(v => console.log('caught', v))", "caught 1\n"},
		{"resolve identity", "const p = Promise.resolve(1); console.log(Promise.resolve(p) === p)", "true\n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, logged(t, tc.source))
		})
	}
}

func TestPromiseCombinators(t *testing.T) {
	cases := []evalCase{
		{"all", "Promise.all([1, Promise.resolve(2), new Promise(r => setTimeout(() => r(3), 10))]).then(v => console.log(v.join()))", "1,2,3\n"},
		{"all empty", "Promise.all([]).then(v => console.log(v.length))", "0\n"},
		{"all rejects", "Promise.all([1, Promise.reject('bad')]).catch(e => console.log(e))", "bad\n"},
		{"allSettled", "Promise.allSettled([Promise.resolve(1), Promise.reject(2)]).then(rs => console.log(rs.map(r => r.status).join()))", "fulfilled,rejected\n"},
		{"any", "Promise.any([Promise.reject(1), Promise.resolve(2)]).then(v => console.log(v))", "2\n"},
		{"any rejects", "Promise.any([Promise.reject(1)]).catch(e => console.log(e.name, e.errors.join()))", "AggregateError 1\n"},
		{"race", "Promise.race([new Promise(r => setTimeout(() => r('slow'), 20)), new Promise(r => setTimeout(() => r('fast'), 5))]).then(v => console.log(v))", "fast\n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, logged(t, tc.source))
		})
	}
}

func TestJobOrdering(t *testing.T) {
	out := logged(t, `
		setTimeout(() => console.log('timeout'), 0);
		Promise.resolve().then(() => console.log('micro1'));
		queueMicrotask(() => console.log('micro2'));
		console.log('sync');
	`)
	assert.Equal(t, "sync\nmicro1\nmicro2\ntimeout\n", out)
}

func TestPromiseErrors(t *testing.T) {
	assert.Equal(t, "TypeError: Promise resolver 1 is not a function", caught(t, "new Promise(1)"))
	assert.Contains(t, caught(t, "Promise(() => {})"), "without 'new'")
}
