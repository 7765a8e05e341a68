package builtins

import (
	"math"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func argAt(args []*runtime.Value, i int) *runtime.Value {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return runtime.Undefined
}

func toNumber(v *runtime.Value) (float64, error) {
	return runtime.ToNumberValue(v)
}

func toString(v *runtime.Value) (string, error) {
	return runtime.ToStringValue(v)
}

// toInteger implements ToIntegerOrInfinity.
func toInteger(v *runtime.Value) (float64, error) {
	if v.Type == runtime.TypeNumber {
		return float64(v.Int), nil
	}
	n, err := toNumber(v)
	if err != nil {
		return 0, err
	}
	return runtime.ToIntegerOrInfinity(n), nil
}

// relativeIndex resolves a possibly negative position against length,
// clamped to [0, length]. Undefined selects def.
func relativeIndex(v *runtime.Value, length, def int) (int, error) {
	if v.Type == runtime.TypeUndefined {
		return def, nil
	}
	n, err := toInteger(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n += float64(length)
		if n < 0 {
			return 0, nil
		}
		return int(n), nil
	}
	if n > float64(length) {
		return length, nil
	}
	return int(n), nil
}

// callbackArg returns args[i] when it is callable.
func callbackArg(args []*runtime.Value, i int) (*runtime.Value, error) {
	cb := argAt(args, i)
	if !cb.IsCallable() {
		return nil, runtime.NewTypeError("%s is not a function", describe(cb))
	}
	return cb, nil
}

// describe renders a value for error messages.
func describe(v *runtime.Value) string {
	switch v.Type {
	case runtime.TypeString:
		return "\"" + v.Str + "\""
	case runtime.TypeObject:
		if v.IsCallable() {
			return "function"
		}
		if v.Object.OType == runtime.ObjTypeArray {
			return "[object Array]"
		}
		return "#<Object>"
	case runtime.TypeSymbol:
		return v.ToString()
	}
	return v.ToString()
}

func isArray(v *runtime.Value) bool {
	return v.IsObject() && v.Object.OType == runtime.ObjTypeArray
}

// hasIndexedData reports whether obj keeps its elements in ArrayData.
func hasIndexedData(obj *runtime.Object) bool {
	switch obj.OType {
	case runtime.ObjTypeArray, runtime.ObjTypeNodeList, runtime.ObjTypeTypedArray:
		return true
	}
	return false
}

// lengthOf reads the length property of an array-like.
func lengthOf(obj *runtime.Object) (int, error) {
	if hasIndexedData(obj) {
		return len(obj.ArrayData), nil
	}
	v, err := obj.GetValue("length")
	if err != nil {
		return 0, err
	}
	n, err := toInteger(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 || math.IsNaN(n) {
		return 0, nil
	}
	if n > math.MaxInt32 {
		return math.MaxInt32, nil
	}
	return int(n), nil
}

// elements copies an array-like into a slice. Holes stay nil.
func elements(obj *runtime.Object) ([]*runtime.Value, error) {
	if hasIndexedData(obj) {
		return append([]*runtime.Value(nil), obj.ArrayData...), nil
	}
	n, err := lengthOf(obj)
	if err != nil {
		return nil, err
	}
	out := make([]*runtime.Value, n)
	for i := range out {
		key := itoa(i)
		if !obj.HasProperty(key) {
			continue
		}
		v, err := obj.GetValue(key)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func orUndefined(v *runtime.Value) *runtime.Value {
	if v == nil {
		return runtime.Undefined
	}
	return v
}

func itoa(i int) string {
	return runtime.NewInt(int64(i)).ToString()
}

// isConstructor reports whether v can be used with new.
func isConstructor(v *runtime.Value) bool {
	return v.IsObject() && v.Object.Constructor != nil
}

// construct runs ctor's constructor on a fresh object inheriting from
// ctor.prototype.
func (l *lib) construct(ctor *runtime.Object, args []*runtime.Value) (*runtime.Value, error) {
	if ctor.Constructor == nil {
		return nil, runtime.NewTypeError("%s is not a constructor", ctor.Get("name").ToString())
	}
	proto := l.realm.ObjectPrototype
	if p := ctor.Get("prototype"); p.IsObject() {
		proto = p.Object
	}
	this := runtime.NewObject(runtime.NewOrdinaryObject(proto))
	res, err := ctor.Constructor(this, args)
	if err != nil {
		return nil, err
	}
	if res != nil && res.IsObject() {
		return res, nil
	}
	return this, nil
}

// newObject builds a plain object from ordered key/value pairs.
func (l *lib) newObject(kv ...interface{}) *runtime.Value {
	obj := l.realm.NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		obj.Set(kv[i].(string), kv[i+1].(*runtime.Value))
	}
	return runtime.NewObject(obj)
}

func (l *lib) errorValue(kind, format string, args ...interface{}) *runtime.Value {
	return l.realm.ErrorToValue(runtime.NewError(kind, format, args...))
}
