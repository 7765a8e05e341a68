package interpreter

import (
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// callAsync runs an async function body to completion and returns a
// promise settled from it. Only fatal errors escape to the caller.
func (interp *Interpreter) callAsync(c *closure, this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	p := runtime.NewPromise(interp.realm)
	v, _, err := interp.invoke(c, this, args, nil)
	if err != nil {
		if !catchable(err) {
			return nil, err
		}
		runtime.RejectPromise(interp.realm, p, interp.errorValue(err))
		return runtime.NewObject(p), nil
	}
	runtime.ResolvePromise(interp.realm, p, v)
	return runtime.NewObject(p), nil
}

// await unwraps v. A settled promise yields its value or throws its
// reason. A pending one gets the microtask queue drained first; if it is
// still pending afterwards the result is Undefined.
func (interp *Interpreter) await(v *runtime.Value) (*runtime.Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	var p *runtime.Object
	switch {
	case runtime.IsPromise(v):
		p = v.Object
	case v.Object.Get("then").IsCallable():
		p = runtime.PromiseResolve(interp.realm, v)
	default:
		return v, nil
	}
	if p.Promise.State == runtime.PromisePending {
		if err := interp.sched.RunMicrotasks(); err != nil {
			return nil, err
		}
	}
	switch p.Promise.State {
	case runtime.PromiseFulfilled:
		return p.Promise.Value, nil
	case runtime.PromiseRejected:
		p.Promise.Handled = true
		return nil, throwValue(p.Promise.Value)
	}
	interp.log.WithField("function", "await").Debug("promise still pending after draining microtasks")
	return runtime.Undefined, nil
}
