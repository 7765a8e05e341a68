package builtins

import (
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installFunction() {
	proto := l.realm.FunctionPrototype
	setDataProp(proto, "name", runtime.EmptyStr, false, false, true)
	setDataProp(proto, "length", runtime.Zero, false, false, true)

	l.method(proto, "call", 1, functionCall)
	l.method(proto, "apply", 2, functionApply)
	l.method(proto, "bind", 1, l.functionBind)
	l.method(proto, "toString", 0, functionToString)
	proto.DefineSymbol(runtime.SymbolHasInstance, &runtime.Property{
		Value: l.fn("[Symbol.hasInstance]", 1, functionHasInstance),
	})

	// Source text evaluation is not supported.
	refuse := func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewError(runtime.KindEvalError, "Code generation from strings disallowed for this context")
	}
	l.constructor("Function", 1, proto, refuse, refuse)
}

func functionCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !this.IsCallable() {
		return nil, runtime.NewTypeError("Function.prototype.call called on non-function")
	}
	var rest []*runtime.Value
	if len(args) > 1 {
		rest = args[1:]
	}
	return this.Object.Callable(argAt(args, 0), rest)
}

func functionApply(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !this.IsCallable() {
		return nil, runtime.NewTypeError("Function.prototype.apply was called on %s, which is not a function", this.TypeOf())
	}
	list := argAt(args, 1)
	if list.IsNullish() {
		return this.Object.Callable(argAt(args, 0), nil)
	}
	if !list.IsObject() {
		return nil, runtime.NewTypeError("CreateListFromArrayLike called on non-object")
	}
	els, err := elements(list.Object)
	if err != nil {
		return nil, err
	}
	for i, el := range els {
		els[i] = orUndefined(el)
	}
	return this.Object.Callable(argAt(args, 0), els)
}

// functionBind records the target in boundTarget and boundArgs so
// construction through the bound function reaches the target.
func (l *lib) functionBind(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !this.IsCallable() {
		return nil, runtime.NewTypeError("Bind must be called on a function")
	}
	target := this.Object
	boundThis := argAt(args, 0)
	var bound []*runtime.Value
	if len(args) > 1 {
		bound = append(bound, args[1:]...)
	}
	call := func(_ *runtime.Value, callArgs []*runtime.Value) (*runtime.Value, error) {
		all := append(append([]*runtime.Value(nil), bound...), callArgs...)
		return target.Callable(boundThis, all)
	}
	length := 0
	if n := target.Get("length"); n.IsNumber() {
		length = max(0, int(n.ToNumber())-len(bound))
	}
	name := target.Get("name")
	fn := l.realm.NewFunction("bound "+name.ToString(), length, call)
	fn.SetInternal("boundTarget", target)
	fn.SetInternal("boundArgs", bound)
	if target.Constructor != nil {
		fn.Constructor = func(newThis *runtime.Value, callArgs []*runtime.Value) (*runtime.Value, error) {
			all := append(append([]*runtime.Value(nil), bound...), callArgs...)
			return target.Constructor(newThis, all)
		}
	}
	return runtime.NewObject(fn), nil
}

func functionToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !this.IsCallable() {
		return nil, runtime.NewTypeError("Function.prototype.toString requires that 'this' be a Function")
	}
	if src, ok := this.Object.Internal["source"].(string); ok {
		return runtime.NewString(src), nil
	}
	return runtime.NewString("function " + this.Object.Get("name").ToString() + "() { [native code] }"), nil
}

// functionHasInstance is the default instanceof check.
func functionHasInstance(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := argAt(args, 0)
	if !this.IsCallable() || !v.IsObject() {
		return runtime.False, nil
	}
	target := this.Object
	if t, ok := target.Internal["boundTarget"].(*runtime.Object); ok {
		target = t
	}
	proto := target.Get("prototype")
	if !proto.IsObject() {
		return nil, runtime.NewTypeError("Function has non-object prototype '%s' in instanceof check", proto.ToString())
	}
	return runtime.NewBool(v.Object.InstanceOf(proto.Object)), nil
}
