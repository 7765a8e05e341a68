package builtins

import (
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installPromise() {
	r := l.realm
	proto := r.PromisePrototype

	then := r.NewFunction("then", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if !runtime.IsPromise(this) {
			return nil, runtime.NewTypeError("Method Promise.prototype.then called on incompatible receiver %s", describe(this))
		}
		return runtime.NewObject(runtime.PromiseThen(r, this.Object, argAt(args, 0), argAt(args, 1))), nil
	})
	setDataProp(proto, "then", runtime.NewObject(then), true, false, true)
	r.IntrinsicThen = then

	l.method(proto, "catch", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return invokeThen(r, this, runtime.Undefined, argAt(args, 0))
	})
	l.method(proto, "finally", 1, l.promiseFinally)
	setToStringTag(proto, "Promise")

	ctor := l.constructor("Promise", 1, proto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewTypeError("Promise constructor cannot be invoked without 'new'")
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		executor := argAt(args, 0)
		if !executor.IsCallable() {
			return nil, runtime.NewTypeError("Promise resolver %s is not a function", describe(executor))
		}
		obj := this.Object
		obj.OType = runtime.ObjTypePromise
		obj.Promise = &runtime.Promise{State: runtime.PromisePending}
		resolve, reject := runtime.CreateResolvingFunctions(r, obj)
		if _, err := runtime.Call(executor, runtime.Undefined, []*runtime.Value{resolve, reject}); err != nil {
			if runtime.IsFatal(err) {
				return nil, err
			}
			if _, err := runtime.Call(reject, runtime.Undefined, []*runtime.Value{r.ErrorToValue(err)}); err != nil {
				return nil, err
			}
		}
		return this, nil
	})

	l.method(ctor, "resolve", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewObject(runtime.PromiseResolve(r, argAt(args, 0))), nil
	})
	l.method(ctor, "reject", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewObject(runtime.RejectedPromise(r, argAt(args, 0))), nil
	})
	l.method(ctor, "withResolvers", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		p := runtime.NewPromise(r)
		resolve, reject := runtime.CreateResolvingFunctions(r, p)
		return l.newObject("promise", runtime.NewObject(p), "resolve", resolve, "reject", reject), nil
	})
	l.method(ctor, "try", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		fn, err := callbackArg(args, 0)
		if err != nil {
			return nil, err
		}
		var rest []*runtime.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		res, err := runtime.Call(fn, runtime.Undefined, rest)
		if err != nil {
			if runtime.IsFatal(err) {
				return nil, err
			}
			return runtime.NewObject(runtime.RejectedPromise(r, r.ErrorToValue(err))), nil
		}
		return runtime.NewObject(runtime.PromiseResolve(r, res)), nil
	})
	l.method(ctor, "all", 1, l.promiseCombinator(combineAll))
	l.method(ctor, "allSettled", 1, l.promiseCombinator(combineAllSettled))
	l.method(ctor, "any", 1, l.promiseCombinator(combineAny))
	l.method(ctor, "race", 1, l.promiseCombinator(combineRace))
}

// invokeThen calls this.then through property lookup so overrides apply.
func invokeThen(r *runtime.Realm, this, onFulfilled, onRejected *runtime.Value) (*runtime.Value, error) {
	then, err := r.Get(this, "then")
	if err != nil {
		return nil, err
	}
	return runtime.Call(then, this, []*runtime.Value{onFulfilled, onRejected})
}

func (l *lib) promiseFinally(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	r := l.realm
	onFinally := argAt(args, 0)
	if !onFinally.IsCallable() {
		return invokeThen(r, this, onFinally, onFinally)
	}
	// settleAfter runs onFinally and then restores the original outcome.
	settleAfter := func(outcome func() (*runtime.Value, error)) runtime.CallableFunc {
		return func(_ *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			res, err := runtime.Call(onFinally, runtime.Undefined, nil)
			if err != nil {
				return nil, err
			}
			restore := l.fn("", 0, func(*runtime.Value, []*runtime.Value) (*runtime.Value, error) {
				return outcome()
			})
			return runtime.NewObject(runtime.PromiseThen(r, runtime.PromiseResolve(r, res), restore, nil)), nil
		}
	}
	var value *runtime.Value
	onF := l.fn("", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		value = argAt(args, 0)
		return settleAfter(func() (*runtime.Value, error) { return value, nil })(this, args)
	})
	onR := l.fn("", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		reason := argAt(args, 0)
		return settleAfter(func() (*runtime.Value, error) { return nil, runtime.Throw(reason) })(this, args)
	})
	return invokeThen(r, this, onF, onR)
}

// combinator drives one of the Promise.all family. Each settles result
// through the supplied callbacks.
type combinator struct {
	onEmpty     func(l *lib, result *runtime.Object)
	onFulfilled func(l *lib, c *combineState, i int, v *runtime.Value)
	onRejected  func(l *lib, c *combineState, i int, v *runtime.Value)
	onDone      func(l *lib, c *combineState)
}

type combineState struct {
	result    *runtime.Object
	values    []*runtime.Value
	remaining int
}

func (l *lib) promiseCombinator(comb combinator) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		r := l.realm
		result := runtime.NewPromise(r)
		items, err := runtime.IterateToSlice(r, argAt(args, 0))
		if err != nil {
			if runtime.IsFatal(err) {
				return nil, err
			}
			runtime.RejectPromise(r, result, r.ErrorToValue(err))
			return runtime.NewObject(result), nil
		}
		if len(items) == 0 {
			comb.onEmpty(l, result)
			return runtime.NewObject(result), nil
		}
		c := &combineState{result: result, values: make([]*runtime.Value, len(items)), remaining: len(items)}
		for i, item := range items {
			i := i
			runtime.OnSettled(r, runtime.PromiseResolve(r, item), func(state runtime.PromiseState, v *runtime.Value) error {
				if state == runtime.PromiseFulfilled {
					comb.onFulfilled(l, c, i, v)
				} else {
					comb.onRejected(l, c, i, v)
				}
				if c.remaining == 0 && comb.onDone != nil {
					comb.onDone(l, c)
				}
				return nil
			})
		}
		return runtime.NewObject(result), nil
	}
}

func resolveWithArray(l *lib, c *combineState) {
	runtime.ResolvePromise(l.realm, c.result, l.realm.ArrayValue(c.values))
}

var combineAll = combinator{
	onEmpty: func(l *lib, result *runtime.Object) {
		runtime.ResolvePromise(l.realm, result, l.realm.ArrayValue(nil))
	},
	onFulfilled: func(l *lib, c *combineState, i int, v *runtime.Value) {
		c.values[i] = v
		c.remaining--
	},
	onRejected: func(l *lib, c *combineState, i int, v *runtime.Value) {
		runtime.RejectPromise(l.realm, c.result, v)
	},
	onDone: resolveWithArray,
}

var combineAllSettled = combinator{
	onEmpty: combineAll.onEmpty,
	onFulfilled: func(l *lib, c *combineState, i int, v *runtime.Value) {
		c.values[i] = l.newObject("status", runtime.NewString("fulfilled"), "value", v)
		c.remaining--
	},
	onRejected: func(l *lib, c *combineState, i int, v *runtime.Value) {
		c.values[i] = l.newObject("status", runtime.NewString("rejected"), "reason", v)
		c.remaining--
	},
	onDone: resolveWithArray,
}

var combineAny = combinator{
	onEmpty: func(l *lib, result *runtime.Object) {
		runtime.RejectPromise(l.realm, result, l.aggregateError(nil))
	},
	onFulfilled: func(l *lib, c *combineState, i int, v *runtime.Value) {
		runtime.ResolvePromise(l.realm, c.result, v)
	},
	onRejected: func(l *lib, c *combineState, i int, v *runtime.Value) {
		c.values[i] = v
		c.remaining--
	},
	onDone: func(l *lib, c *combineState) {
		runtime.RejectPromise(l.realm, c.result, l.aggregateError(c.values))
	},
}

var combineRace = combinator{
	onEmpty: func(*lib, *runtime.Object) {},
	onFulfilled: func(l *lib, c *combineState, i int, v *runtime.Value) {
		runtime.ResolvePromise(l.realm, c.result, v)
	},
	onRejected: func(l *lib, c *combineState, i int, v *runtime.Value) {
		runtime.RejectPromise(l.realm, c.result, v)
	},
}

func (l *lib) aggregateError(errs []*runtime.Value) *runtime.Value {
	v, err := l.construct(l.realm.Constructors["AggregateError"], []*runtime.Value{
		l.realm.ArrayValue(errs),
		runtime.NewString("All promises were rejected"),
	})
	if err != nil {
		return l.realm.ErrorToValue(err)
	}
	return v
}
