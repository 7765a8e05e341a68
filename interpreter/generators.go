package interpreter

import (
	goruntime "runtime"
	"sync"

	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

type resumeKind int

const (
	resumeNext resumeKind = iota
	resumeThrow
	resumeReturn
	// resumeAbandon unwinds a generator nothing can reach any more.
	resumeAbandon
)

type genPhase int

const (
	genSuspendedStart genPhase = iota
	genSuspendedYield
	genRunning
	genCompleted
)

type genSignal struct {
	kind  resumeKind
	value *runtime.Value
}

type genResult struct {
	value *runtime.Value
	done  bool
	err   error
}

// generatorState drives one generator body on its own goroutine. Control
// passes back and forth over in and out, so exactly one side runs.
type generatorState struct {
	c     *closure
	env   *runtime.Environment
	ctx   *execContext
	async bool
	phase genPhase
	in    chan genSignal
	out   chan genResult
}

// generatorReturn unwinds a generator body for return(); try/finally
// blocks still run but catch clauses do not see it.
type generatorReturn struct {
	value *runtime.Value
}

func (r *generatorReturn) Error() string {
	return "generator return"
}

// generatorReaper collects generators whose objects were garbage
// collected while suspended at a yield. Their goroutines are unwound on
// the interpreter's side of the hand-off the next time a generator starts.
type generatorReaper struct {
	mu        sync.Mutex
	abandoned []*generatorState

	// live holds generators whose goroutine has started and not finished.
	// Only the interpreter side of the hand-off touches it.
	live map[*generatorState]struct{}
}

func (r *generatorReaper) started(g *generatorState) {
	if r.live == nil {
		r.live = make(map[*generatorState]struct{})
	}
	r.live[g] = struct{}{}
}

func (r *generatorReaper) add(g *generatorState) {
	r.mu.Lock()
	r.abandoned = append(r.abandoned, g)
	r.mu.Unlock()
}

func (r *generatorReaper) take() []*generatorState {
	r.mu.Lock()
	defer r.mu.Unlock()
	gens := r.abandoned
	r.abandoned = nil
	return gens
}

// reapGenerators stops the goroutines of abandoned generators. The body
// unwinds with a fatal error, so no catch or finally code runs.
func (interp *Interpreter) reapGenerators() {
	for _, g := range interp.gens.take() {
		if g.phase != genSuspendedYield {
			continue
		}
		_, _, _ = interp.resumeGenerator(g, genSignal{kind: resumeAbandon})
	}
}

// Close stops every suspended generator body. The interpreter stays
// usable; generators closed this way report done.
func (interp *Interpreter) Close() {
	interp.gens.take()
	for g := range interp.gens.live {
		if g.phase == genSuspendedYield {
			_, _, _ = interp.resumeGenerator(g, genSignal{kind: resumeAbandon})
		}
	}
}

// startGenerator binds the arguments and returns a suspended generator
// object. The body does not run until the first next().
func (interp *Interpreter) startGenerator(c *closure, this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	interp.reapGenerators()
	fnEnv, err := interp.prepareCall(c, this, args, nil)
	if err != nil {
		return nil, err
	}
	g := &generatorState{
		c:     c,
		env:   fnEnv,
		async: c.lit.Async,
		in:    make(chan genSignal),
		out:   make(chan genResult),
	}
	g.ctx = &execContext{gen: g}

	proto := interp.realm.GeneratorPrototype
	if g.async {
		proto = interp.realm.AsyncGeneratorPrototype
	}
	if p := c.obj.Get("prototype"); p.IsObject() {
		proto = p.Object
	}
	obj := runtime.NewOrdinaryObject(proto)
	obj.SetInternal("generator", g)
	// The goroutine holds g but never obj, so obj becomes unreachable once
	// scripts drop it.
	goruntime.SetFinalizer(obj, func(*runtime.Object) { interp.gens.add(g) })
	if !g.async {
		obj.IteratorNext = func() (*runtime.Value, bool, error) {
			return interp.resumeGenerator(g, genSignal{kind: resumeNext, value: runtime.Undefined})
		}
		obj.IteratorReturn = func() error {
			_, _, err := interp.resumeGenerator(g, genSignal{kind: resumeReturn, value: runtime.Undefined})
			return err
		}
	}
	return runtime.NewObject(obj), nil
}

// resumeGenerator hands control to the generator until it yields or
// finishes.
func (interp *Interpreter) resumeGenerator(g *generatorState, sig genSignal) (*runtime.Value, bool, error) {
	switch g.phase {
	case genRunning:
		return nil, true, runtime.NewTypeError("Generator is already running")
	case genCompleted:
		return finishedResume(sig)
	case genSuspendedStart:
		if sig.kind != resumeNext {
			g.phase = genCompleted
			return finishedResume(sig)
		}
		interp.gens.started(g)
		go interp.runGenerator(g)
	}

	caller := interp.cur
	g.ctx.depth = caller.depth
	g.phase = genRunning
	interp.cur = g.ctx
	g.in <- sig
	res := <-g.out
	interp.cur = caller

	if res.done || res.err != nil {
		g.phase = genCompleted
		delete(interp.gens.live, g)
	} else {
		g.phase = genSuspendedYield
	}
	if res.value == nil {
		res.value = runtime.Undefined
	}
	return res.value, res.done, res.err
}

func finishedResume(sig genSignal) (*runtime.Value, bool, error) {
	switch sig.kind {
	case resumeThrow:
		return nil, true, throwValue(sig.value)
	case resumeReturn:
		return sig.value, true, nil
	}
	return runtime.Undefined, true, nil
}

func (interp *Interpreter) runGenerator(g *generatorState) {
	<-g.in
	var (
		v   *runtime.Value
		err error
	)
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = runtime.NewFatalError(runtime.KindError, "generator panicked: %v", p)
			}
		}()
		v, err = interp.runBody(g.c, g.env)
	}()
	if r, ok := err.(*generatorReturn); ok {
		v, err = r.value, nil
	}
	g.out <- genResult{value: v, done: true, err: err}
}

// yieldValue suspends the running generator with v and waits to be
// resumed.
func (interp *Interpreter) yieldValue(g *generatorState, v *runtime.Value) genSignal {
	g.out <- genResult{value: v}
	return <-g.in
}

func (interp *Interpreter) evalYield(e *ast.YieldExpression, env *runtime.Environment) (*runtime.Value, error) {
	g := interp.cur.gen
	if g == nil {
		return nil, runtime.NewSyntaxError("yield is only valid in generator functions")
	}
	v := runtime.Undefined
	if e.Argument != nil {
		var err error
		if v, err = interp.evalExpression(e.Argument, env); err != nil {
			return nil, err
		}
	}
	if e.Delegate {
		return interp.yieldDelegate(g, v)
	}
	if g.async {
		var err error
		if v, err = interp.await(v); err != nil {
			return nil, err
		}
	}
	return interp.received(interp.yieldValue(g, v))
}

func (interp *Interpreter) received(sig genSignal) (*runtime.Value, error) {
	switch sig.kind {
	case resumeThrow:
		return nil, throwValue(sig.value)
	case resumeReturn:
		return nil, &generatorReturn{value: sig.value}
	case resumeAbandon:
		return nil, errGeneratorAbandoned()
	}
	return sig.value, nil
}

func errGeneratorAbandoned() error {
	return runtime.NewFatalError(runtime.KindError, "generator abandoned")
}

// yieldDelegate implements yield*, forwarding next, throw and return to
// the inner iterator.
func (interp *Interpreter) yieldDelegate(g *generatorState, src *runtime.Value) (*runtime.Value, error) {
	iter, err := interp.delegateIterator(g, src)
	if err != nil {
		return nil, err
	}
	nextFn, err := interp.realm.Get(iter, "next")
	if err != nil {
		return nil, err
	}
	sig := genSignal{kind: resumeNext, value: runtime.Undefined}
	for {
		if sig.kind == resumeAbandon {
			return nil, errGeneratorAbandoned()
		}
		var res *runtime.Value
		switch sig.kind {
		case resumeNext:
			res, err = runtime.Call(nextFn, iter, []*runtime.Value{sig.value})
		case resumeThrow:
			th, gerr := interp.realm.Get(iter, "throw")
			if gerr != nil {
				return nil, gerr
			}
			if !th.IsCallable() {
				if ret, _ := interp.realm.Get(iter, "return"); ret.IsCallable() {
					if _, err := ret.Object.Callable(iter, nil); err != nil {
						return nil, err
					}
				}
				return nil, runtime.NewTypeError("The iterator does not provide a 'throw' method")
			}
			res, err = th.Object.Callable(iter, []*runtime.Value{sig.value})
		case resumeReturn:
			ret, gerr := interp.realm.Get(iter, "return")
			if gerr != nil {
				return nil, gerr
			}
			if !ret.IsCallable() {
				return nil, &generatorReturn{value: sig.value}
			}
			res, err = ret.Object.Callable(iter, []*runtime.Value{sig.value})
		}
		if err != nil {
			return nil, err
		}
		if g.async {
			if res, err = interp.await(res); err != nil {
				return nil, err
			}
		}
		if !res.IsObject() {
			return nil, runtime.NewTypeError("Iterator result %s is not an object", res.ToString())
		}
		done := res.Object.Get("done").ToBoolean()
		value, err := res.Object.GetValue("value")
		if err != nil {
			return nil, err
		}
		if done {
			if sig.kind == resumeReturn {
				return nil, &generatorReturn{value: value}
			}
			return value, nil
		}
		sig = interp.yieldValue(g, value)
	}
}

func (interp *Interpreter) delegateIterator(g *generatorState, src *runtime.Value) (*runtime.Value, error) {
	if src.IsObject() {
		if g.async {
			if m := src.Object.GetSymbol(runtime.SymbolAsyncIterator); m.IsCallable() {
				return m.Object.Callable(src, nil)
			}
		}
		if m := src.Object.GetSymbol(runtime.SymbolIterator); m.IsCallable() {
			return m.Object.Callable(src, nil)
		}
	}
	it, err := runtime.GetIterator(interp.realm, src)
	if err != nil {
		return nil, err
	}
	return runtime.NewObject(runtime.NewIteratorObject(interp.realm.ArrayIteratorPrototype, it)), nil
}

func generatorOf(this *runtime.Value, method string) (*generatorState, error) {
	if this.IsObject() {
		if g, ok := this.Object.Internal["generator"].(*generatorState); ok {
			return g, nil
		}
	}
	return nil, runtime.NewTypeError("%s method called on incompatible receiver %s", method, this.ToString())
}

// installGenerators puts next, return and throw on the generator
// prototypes.
func (interp *Interpreter) installGenerators() {
	r := interp.realm
	methods := []struct {
		name string
		kind resumeKind
	}{
		{"next", resumeNext},
		{"return", resumeReturn},
		{"throw", resumeThrow},
	}
	for _, m := range methods {
		m := m
		r.GeneratorPrototype.DefineProperty(m.name, &runtime.Property{
			Value: runtime.NewObject(r.NewFunction(m.name, 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
				g, err := generatorOf(this, "Generator.prototype."+m.name)
				if err != nil {
					return nil, err
				}
				v, done, err := interp.resumeGenerator(g, genSignal{kind: m.kind, value: argAt(args, 0)})
				if err != nil {
					return nil, err
				}
				return r.IterResult(v, done), nil
			})),
			Writable: true, Configurable: true,
		})
		r.AsyncGeneratorPrototype.DefineProperty(m.name, &runtime.Property{
			Value: runtime.NewObject(r.NewFunction(m.name, 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
				p := runtime.NewPromise(r)
				g, err := generatorOf(this, "AsyncGenerator.prototype."+m.name)
				if err == nil {
					var v *runtime.Value
					var done bool
					if v, done, err = interp.resumeGenerator(g, genSignal{kind: m.kind, value: argAt(args, 0)}); err == nil {
						runtime.FulfillPromise(r, p, r.IterResult(v, done))
						return runtime.NewObject(p), nil
					}
				}
				if !catchable(err) {
					return nil, err
				}
				runtime.RejectPromise(r, p, interp.errorValue(err))
				return runtime.NewObject(p), nil
			})),
			Writable: true, Configurable: true,
		})
	}
	r.GeneratorPrototype.DefineSymbol(runtime.SymbolToStringTag, &runtime.Property{Value: runtime.NewString("Generator"), Configurable: true})
	r.AsyncGeneratorPrototype.DefineSymbol(runtime.SymbolToStringTag, &runtime.Property{Value: runtime.NewString("AsyncGenerator"), Configurable: true})
	r.AsyncGeneratorPrototype.DefineSymbol(runtime.SymbolAsyncIterator, &runtime.Property{
		Value: runtime.NewObject(r.NewFunction("[Symbol.asyncIterator]", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			return this, nil
		})),
		Writable: true, Configurable: true,
	})
}

func argAt(args []*runtime.Value, i int) *runtime.Value {
	if i < len(args) {
		return args[i]
	}
	return runtime.Undefined
}
