package interpreter

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// closure is the script side of a function object, kept in
// Internal["closure"].
type closure struct {
	lit  *ast.FunctionLiteral
	env  *runtime.Environment
	name string
	obj  *runtime.Object
	// home is the object a method was defined on; super reads start at
	// its prototype.
	home *runtime.Object
	// class is set on class constructors.
	class *classInfo
}

func closureOf(obj *runtime.Object) (*closure, bool) {
	if obj == nil {
		return nil, false
	}
	c, ok := obj.Internal["closure"].(*closure)
	return c, ok
}

// paramLength counts the parameters before the first default or rest.
func paramLength(params []ast.Expression) int {
	n := 0
	for _, p := range params {
		switch p.(type) {
		case *ast.AssignmentPattern, *ast.RestElement:
			return n
		}
		n++
	}
	return n
}

// makeClosure creates a function object for lit. Named function
// expressions see their own name in a scope of their own.
func (interp *Interpreter) makeClosure(lit *ast.FunctionLiteral, env *runtime.Environment, name string, isExpr bool) *runtime.Value {
	if lit.Name != nil {
		if name == "" || isExpr {
			name = lit.Name.Value
		}
	}
	scope := env
	if isExpr && lit.Name != nil && !lit.Arrow {
		scope = runtime.NewEnvironment(env, runtime.ScopeBlock)
	}
	c := &closure{lit: lit, env: scope, name: name}
	obj := interp.newFunctionObject(c)
	if scope != env {
		scope.DefineCallee(lit.Name.Value, runtime.NewObject(obj))
	}
	return runtime.NewObject(obj)
}

// makeMethod creates an object-literal or class method bound to home.
func (interp *Interpreter) makeMethod(lit *ast.FunctionLiteral, env *runtime.Environment, home *runtime.Object, name string) *runtime.Value {
	c := &closure{lit: lit, env: env, name: name, home: home}
	return runtime.NewObject(interp.newFunctionObject(c))
}

func (interp *Interpreter) newFunctionObject(c *closure) *runtime.Object {
	lit := c.lit
	obj := runtime.NewFunctionObject(interp.realm.FunctionPrototype, nil)
	c.obj = obj
	obj.SetInternal("closure", c)
	obj.DefineProperty("length", &runtime.Property{Value: runtime.NewInt(int64(paramLength(lit.Params))), Configurable: true})
	obj.DefineProperty("name", &runtime.Property{Value: runtime.NewString(c.name), Configurable: true})

	obj.Callable = interp.closureCall(c)
	switch {
	case lit.Generator:
		proto := interp.realm.GeneratorPrototype
		if lit.Async {
			proto = interp.realm.AsyncGeneratorPrototype
		}
		obj.DefineProperty("prototype", &runtime.Property{Value: runtime.NewObject(runtime.NewOrdinaryObject(proto)), Writable: true})
	case !lit.Async && !lit.Arrow && !lit.Method:
		proto := interp.realm.NewObject()
		proto.DefineProperty("constructor", &runtime.Property{Value: runtime.NewObject(obj), Writable: true, Configurable: true})
		obj.DefineProperty("prototype", &runtime.Property{Value: runtime.NewObject(proto), Writable: true})
		obj.Constructor = func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			return interp.constructClosure(c, args, obj)
		}
	}
	return obj
}

// closureCall returns the call behavior of c: generators start
// suspended, async functions return a promise.
func (interp *Interpreter) closureCall(c *closure) runtime.CallableFunc {
	switch {
	case c.lit.Generator:
		return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			return interp.startGenerator(c, this, args)
		}
	case c.lit.Async:
		return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			return interp.callAsync(c, this, args)
		}
	}
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		v, _, err := interp.invoke(c, this, args, nil)
		return v, err
	}
}

// invoke runs a closure body. newTarget is nil for plain calls. It returns
// the completion value and the function environment, which constructors
// read `this` back from.
func (interp *Interpreter) invoke(c *closure, this *runtime.Value, args []*runtime.Value, newTarget *runtime.Object) (*runtime.Value, *runtime.Environment, error) {
	if err := interp.enter(); err != nil {
		return nil, nil, err
	}
	defer interp.leave()

	saved := *interp.cur
	interp.cur.gen = nil
	interp.cur.labels = nil
	defer func() {
		interp.cur.gen = saved.gen
		interp.cur.labels = saved.labels
		interp.cur.completion = saved.completion
	}()

	fnEnv, err := interp.prepareCall(c, this, args, newTarget)
	if err != nil {
		return nil, fnEnv, err
	}
	v, err := interp.runBody(c, fnEnv)
	return v, fnEnv, err
}

// prepareCall creates the function environment and binds parameters.
func (interp *Interpreter) prepareCall(c *closure, this *runtime.Value, args []*runtime.Value, newTarget *runtime.Object) (*runtime.Environment, error) {
	fnEnv := runtime.NewEnvironment(c.env, runtime.ScopeFunction)
	if !c.lit.Arrow {
		if c.class != nil && c.class.derived && newTarget != nil {
			fnEnv.DeclareUninitialized(slotThis, runtime.BindLet)
		} else {
			fnEnv.Declare(slotThis, runtime.BindParam, this)
		}
		fnEnv.Declare(slotFunc, runtime.BindParam, runtime.NewObject(c.obj))
		nt := runtime.Undefined
		if newTarget != nil {
			nt = runtime.NewObject(newTarget)
		}
		fnEnv.Declare(slotNewTarget, runtime.BindParam, nt)
		if c.home != nil {
			fnEnv.Declare(slotHome, runtime.BindParam, runtime.NewObject(c.home))
		}
		fnEnv.Declare("arguments", runtime.BindVar, interp.realm.ArrayValue(append([]*runtime.Value(nil), args...)))
	}
	return fnEnv, interp.bindFunctionParams(c.lit.Params, args, fnEnv)
}

func (interp *Interpreter) bindFunctionParams(params []ast.Expression, args []*runtime.Value, env *runtime.Environment) error {
	for i, param := range params {
		if rest, ok := param.(*ast.RestElement); ok {
			var restArgs []*runtime.Value
			if i < len(args) {
				restArgs = append(restArgs, args[i:]...)
			}
			return interp.bindPattern(rest.Argument, interp.realm.ArrayValue(restArgs), runtime.BindParam, env)
		}
		v := runtime.Undefined
		if i < len(args) {
			v = args[i]
		}
		if err := interp.bindPattern(param, v, runtime.BindParam, env); err != nil {
			return err
		}
	}
	return nil
}

// runBody executes the body of a prepared call and yields its return value.
func (interp *Interpreter) runBody(c *closure, fnEnv *runtime.Environment) (*runtime.Value, error) {
	if c.lit.ExprBody != nil {
		return interp.evalExpression(c.lit.ExprBody, fnEnv)
	}
	if c.lit.Body == nil {
		return runtime.Undefined, nil
	}
	flow, err := interp.execStatements(c.lit.Body.Statements, fnEnv, listFunction)
	if err != nil {
		return nil, err
	}
	switch flow.Kind {
	case FlowReturn:
		if b, ok := fnEnv.Own(slotReturn); ok {
			return b.Current(), nil
		}
	case FlowBreak, FlowContinue:
		return nil, illegalFlow(flow)
	}
	return runtime.Undefined, nil
}

// isConstructor reports whether v may be used with new.
func isConstructor(v *runtime.Value) bool {
	if !v.IsObject() {
		return false
	}
	if target, ok := v.Object.Internal["boundTarget"].(*runtime.Object); ok {
		return isConstructor(runtime.NewObject(target))
	}
	return v.Object.Constructor != nil
}

// construct implements new for every kind of constructor.
func (interp *Interpreter) construct(callee *runtime.Value, args []*runtime.Value, newTarget *runtime.Object) (*runtime.Value, error) {
	if !isConstructor(callee) {
		return nil, runtime.NewTypeError("%s is not a constructor", functionName(callee.Object))
	}
	obj := callee.Object
	if target, ok := obj.Internal["boundTarget"].(*runtime.Object); ok {
		bound, _ := obj.Internal["boundArgs"].([]*runtime.Value)
		all := append(append([]*runtime.Value(nil), bound...), args...)
		if newTarget == obj {
			newTarget = target
		}
		return interp.construct(runtime.NewObject(target), all, newTarget)
	}
	if c, ok := closureOf(obj); ok {
		return interp.constructClosure(c, args, newTarget)
	}
	this := runtime.NewObject(runtime.NewOrdinaryObject(interp.prototypeFor(newTarget, interp.realm.ObjectPrototype)))
	res, err := obj.Constructor(this, args)
	if err != nil {
		return nil, err
	}
	if res != nil && res.IsObject() {
		return res, nil
	}
	return this, nil
}

// prototypeFor reads newTarget.prototype, falling back to def.
func (interp *Interpreter) prototypeFor(newTarget *runtime.Object, def *runtime.Object) *runtime.Object {
	if newTarget != nil {
		if p := newTarget.Get("prototype"); p.IsObject() {
			return p.Object
		}
	}
	return def
}

func (interp *Interpreter) constructClosure(c *closure, args []*runtime.Value, newTarget *runtime.Object) (*runtime.Value, error) {
	if c.class != nil && c.class.derived {
		return interp.constructDerived(c, args, newTarget)
	}
	this := runtime.NewObject(runtime.NewOrdinaryObject(interp.prototypeFor(newTarget, interp.realm.ObjectPrototype)))
	if c.class != nil {
		if err := interp.initializeFields(c.class, this); err != nil {
			return nil, err
		}
	}
	res, _, err := interp.invoke(c, this, args, newTarget)
	if err != nil {
		return nil, err
	}
	if res.IsObject() {
		return res, nil
	}
	return this, nil
}

func (interp *Interpreter) constructDerived(c *closure, args []*runtime.Value, newTarget *runtime.Object) (*runtime.Value, error) {
	res, fnEnv, err := interp.invoke(c, runtime.Undefined, args, newTarget)
	if err != nil {
		return nil, err
	}
	if res.IsObject() {
		return res, nil
	}
	if res.Type != runtime.TypeUndefined {
		return nil, runtime.NewTypeError("Derived constructors may only return object or undefined")
	}
	b, _ := fnEnv.Own(slotThis)
	if b == nil || !b.Initialized {
		return nil, runtime.NewReferenceError("Must call super constructor in derived class before accessing 'this' or returning from derived constructor")
	}
	return b.Current(), nil
}

// superCall runs the parent constructor for super(...args) and binds the
// result as this of the current constructor.
func (interp *Interpreter) superCall(args []*runtime.Value, env *runtime.Environment) (*runtime.Value, error) {
	fb, _ := env.Lookup(slotFunc)
	if fb == nil {
		return nil, runtime.NewSyntaxError("'super' keyword unexpected here")
	}
	c, ok := closureOf(fb.Current().Object)
	if !ok || c.class == nil || !c.class.derived {
		return nil, runtime.NewSyntaxError("'super' keyword unexpected here")
	}
	thisBinding, _ := env.Lookup(slotThis)
	if thisBinding.Initialized {
		return nil, runtime.NewReferenceError("Super constructor may only be called once")
	}
	ntb, _ := env.Lookup(slotNewTarget)
	newTarget := c.obj
	if nt := ntb.Current(); nt.IsObject() {
		newTarget = nt.Object
	}
	parent := c.obj.Prototype
	if parent == nil || parent.Constructor == nil {
		return nil, runtime.NewTypeError("Super constructor %s of anonymous class is not a constructor", functionName(parent))
	}
	this, err := interp.construct(runtime.NewObject(parent), args, newTarget)
	if err != nil {
		return nil, err
	}
	if thisBinding.Initialized {
		return nil, runtime.NewReferenceError("Super constructor may only be called once")
	}
	thisBinding.Value = this
	thisBinding.Initialized = true
	if err := interp.initializeFields(c.class, this); err != nil {
		return nil, err
	}
	return runtime.Undefined, nil
}

func functionName(obj *runtime.Object) string {
	if obj == nil {
		return "null"
	}
	if n := obj.Get("name"); n.Type == runtime.TypeString && n.Str != "" {
		return n.Str
	}
	return "anonymous"
}
