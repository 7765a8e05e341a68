package interpreter

import (
	goruntime "runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endlessGenerator = `
var cleaned = false;
function* ones() { try { while (true) yield 1 } finally { cleaned = true } }
`

func TestAbandonedGeneratorsAreReaped(t *testing.T) {
	base := goruntime.NumGoroutine()
	interp, _ := newTestInterpreter(t)
	_, err := interp.Eval(endlessGenerator + "for (let i = 0; i < 200; i++) ones().next()")
	require.NoError(t, err)

	// Collected generator objects are unwound when the next one starts.
	assert.Eventually(t, func() bool {
		goruntime.GC()
		if _, err := interp.Eval("ones()"); err != nil {
			return false
		}
		return goruntime.NumGoroutine() < base+20
	}, 10*time.Second, 20*time.Millisecond)

	v, err := interp.Eval("cleaned")
	require.NoError(t, err)
	assert.Equal(t, "false", v.ToString(), "finally blocks do not run when a generator is reaped")
}

func TestCloseStopsSuspendedGenerators(t *testing.T) {
	base := goruntime.NumGoroutine()
	interp, _ := newTestInterpreter(t)
	_, err := interp.Eval(endlessGenerator + "var kept = []; for (let i = 0; i < 50; i++) { const g = ones(); g.next(); kept.push(g) }")
	require.NoError(t, err)
	require.GreaterOrEqual(t, goruntime.NumGoroutine(), base+50)

	interp.Close()
	assert.Eventually(t, func() bool {
		return goruntime.NumGoroutine() < base+10
	}, 5*time.Second, 10*time.Millisecond)

	v, err := interp.Eval("const r = kept[0].next(); [r.done, cleaned].join()")
	require.NoError(t, err)
	assert.Equal(t, "true,false", v.ToString())
}
