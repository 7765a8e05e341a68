package builtins

import (
	"math"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// typedKind describes one typed array element type.
type typedKind struct {
	name   string
	size   int
	coerce func(f float64) *runtime.Value
}

var typedKinds = []*typedKind{
	{"Int8Array", 1, func(f float64) *runtime.Value { return runtime.NewInt(int64(int8(runtime.ToInt32(f)))) }},
	{"Uint8Array", 1, func(f float64) *runtime.Value { return runtime.NewInt(int64(uint8(runtime.ToUint32(f)))) }},
	{"Uint8ClampedArray", 1, clampUint8},
	{"Int16Array", 2, func(f float64) *runtime.Value { return runtime.NewInt(int64(int16(runtime.ToInt32(f)))) }},
	{"Uint16Array", 2, func(f float64) *runtime.Value { return runtime.NewInt(int64(uint16(runtime.ToUint32(f)))) }},
	{"Int32Array", 4, func(f float64) *runtime.Value { return runtime.NewInt(int64(runtime.ToInt32(f))) }},
	{"Uint32Array", 4, func(f float64) *runtime.Value { return runtime.NewInt(int64(runtime.ToUint32(f))) }},
	{"Float32Array", 4, func(f float64) *runtime.Value { return runtime.NewNumber(float64(float32(f))) }},
	{"Float64Array", 8, runtime.NewNumber},
}

func clampUint8(f float64) *runtime.Value {
	switch {
	case math.IsNaN(f) || f <= 0:
		return runtime.Zero
	case f >= 255:
		return runtime.NewInt(255)
	}
	return runtime.NewInt(int64(math.RoundToEven(f)))
}

// typedHost coerces index writes to the element type and drops writes
// outside the fixed length.
type typedHost struct {
	obj  *runtime.Object
	kind *typedKind
}

func (h *typedHost) GetHost(name string) (*runtime.Value, bool, error) {
	return nil, false, nil
}

func (h *typedHost) SetHost(name string, v *runtime.Value) (bool, error) {
	if name == "length" {
		return true, nil
	}
	idx, ok := runtime.ArrayIndex(name)
	if !ok {
		return false, nil
	}
	if idx >= len(h.obj.ArrayData) {
		return true, nil
	}
	f, err := toNumber(v)
	if err != nil {
		return true, err
	}
	h.obj.ArrayData[idx] = h.kind.coerce(f)
	return true, nil
}

func kindOf(obj *runtime.Object) *typedKind {
	k, _ := obj.Internal["typedKind"].(*typedKind)
	return k
}

// coerceTyped converts v to arr's element type.
func coerceTyped(arr *runtime.Object, v *runtime.Value) (*runtime.Value, error) {
	f, err := toNumber(v)
	if err != nil {
		return nil, err
	}
	return kindOf(arr).coerce(f), nil
}

func thisTyped(this *runtime.Value, method string) (*runtime.Object, error) {
	if this.IsObject() && this.Object.OType == runtime.ObjTypeTypedArray && kindOf(this.Object) != nil {
		return this.Object, nil
	}
	return nil, runtime.NewTypeError("%%TypedArray%%.prototype.%s called on incompatible receiver %s", method, describe(this))
}

// initTyped makes obj a typed array of kind holding values.
func initTyped(obj *runtime.Object, kind *typedKind, values []*runtime.Value) error {
	obj.OType = runtime.ObjTypeTypedArray
	obj.SetInternal("typedKind", kind)
	obj.Host = &typedHost{obj: obj, kind: kind}
	obj.ArrayData = make([]*runtime.Value, len(values))
	for i, v := range values {
		if v == nil {
			v = runtime.Undefined
		}
		f, err := toNumber(v)
		if err != nil {
			return err
		}
		obj.ArrayData[i] = kind.coerce(f)
	}
	return nil
}

func (l *lib) newTyped(kind *typedKind, values []*runtime.Value) (*runtime.Value, error) {
	return l.construct(l.realm.Constructors[kind.name], []*runtime.Value{l.realm.ArrayValue(values)})
}

func (l *lib) installTypedArrays() {
	proto := l.realm.TypedArrayPrototype
	arrayProto := l.realm.ArrayPrototype
	// Element-preserving methods are shared with Array.prototype.
	for _, name := range []string{
		"at", "copyWithin", "entries", "every", "fill", "find", "findIndex", "findLast",
		"findLastIndex", "forEach", "includes", "indexOf", "join", "keys", "lastIndexOf",
		"reduce", "reduceRight", "reverse", "some", "toLocaleString", "toString", "values",
	} {
		prop, _ := arrayProto.GetOwnProperty(name)
		setDataProp(proto, name, prop.Value, true, false, true)
	}
	values, _ := arrayProto.GetOwnProperty("values")
	proto.DefineSymbol(runtime.SymbolIterator, &runtime.Property{Value: values.Value, Writable: true, Configurable: true})
	proto.DefineSymbol(runtime.SymbolToStringTag, &runtime.Property{
		IsAccessor: true,
		Getter: l.fn("get [Symbol.toStringTag]", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			if this.IsObject() {
				if k := kindOf(this.Object); k != nil {
					return runtime.NewString(k.name), nil
				}
			}
			return runtime.Undefined, nil
		}),
		Configurable: true,
	})

	numeric := l.fn("compare", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		a, b := argAt(args, 0).ToNumber(), argAt(args, 1).ToNumber()
		switch {
		case a < b:
			return runtime.NewInt(-1), nil
		case a > b:
			return runtime.NewInt(1), nil
		}
		return runtime.Zero, nil
	})
	sorter := func(method string, inPlace bool) runtime.CallableFunc {
		return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			arr, err := thisTyped(this, method)
			if err != nil {
				return nil, err
			}
			cmp := argAt(args, 0)
			if cmp.Type == runtime.TypeUndefined {
				cmp = numeric
			} else if !cmp.IsCallable() {
				return nil, runtime.NewTypeError("The comparison function must be either a function or undefined")
			}
			sorted, err := l.sortValues(append([]*runtime.Value(nil), arr.ArrayData...), cmp)
			if err != nil {
				return nil, err
			}
			if !inPlace {
				return l.newTyped(kindOf(arr), sorted)
			}
			copy(arr.ArrayData, sorted)
			return this, nil
		}
	}
	l.method(proto, "sort", 1, sorter("sort", true))
	l.method(proto, "toSorted", 1, sorter("toSorted", false))

	l.method(proto, "map", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		arr, err := thisTyped(this, "map")
		if err != nil {
			return nil, err
		}
		cb, err := callbackArg(args, 0)
		if err != nil {
			return nil, err
		}
		out := make([]*runtime.Value, len(arr.ArrayData))
		for i := range out {
			if out[i], err = runtime.Call(cb, argAt(args, 1), []*runtime.Value{arr.ArrayData[i], runtime.NewInt(int64(i)), this}); err != nil {
				return nil, err
			}
		}
		return l.newTyped(kindOf(arr), out)
	})
	l.method(proto, "filter", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		arr, err := thisTyped(this, "filter")
		if err != nil {
			return nil, err
		}
		cb, err := callbackArg(args, 0)
		if err != nil {
			return nil, err
		}
		var out []*runtime.Value
		for i, v := range arr.ArrayData {
			keep, err := runtime.Call(cb, argAt(args, 1), []*runtime.Value{v, runtime.NewInt(int64(i)), this})
			if err != nil {
				return nil, err
			}
			if keep.ToBoolean() {
				out = append(out, v)
			}
		}
		return l.newTyped(kindOf(arr), out)
	})
	// subarray copies; there is no shared backing buffer.
	for _, name := range []string{"slice", "subarray"} {
		name := name
		l.method(proto, name, 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			arr, err := thisTyped(this, name)
			if err != nil {
				return nil, err
			}
			n := len(arr.ArrayData)
			start, err := relativeIndex(argAt(args, 0), n, 0)
			if err != nil {
				return nil, err
			}
			end, err := relativeIndex(argAt(args, 1), n, n)
			if err != nil {
				return nil, err
			}
			if end < start {
				end = start
			}
			return l.newTyped(kindOf(arr), arr.ArrayData[start:end])
		})
	}
	l.method(proto, "set", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		arr, err := thisTyped(this, "set")
		if err != nil {
			return nil, err
		}
		src := argAt(args, 0)
		if !src.IsObject() {
			return nil, runtime.NewTypeError("%s is not an array-like object", describe(src))
		}
		els, err := elements(src.Object)
		if err != nil {
			return nil, err
		}
		off, err := toInteger(argAt(args, 1))
		if err != nil {
			return nil, err
		}
		if off < 0 || int(off)+len(els) > len(arr.ArrayData) {
			return nil, runtime.NewRangeError("offset is out of bounds")
		}
		for i, v := range els {
			if arr.ArrayData[int(off)+i], err = coerceTyped(arr, orUndefined(v)); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	})
	l.getter(proto, "byteLength", func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		arr, err := thisTyped(this, "byteLength")
		if err != nil {
			return nil, err
		}
		return runtime.NewInt(int64(len(arr.ArrayData) * kindOf(arr).size)), nil
	})

	for _, kind := range typedKinds {
		l.installTypedKind(kind)
	}
}

func (l *lib) installTypedKind(kind *typedKind) {
	proto := runtime.NewOrdinaryObject(l.realm.TypedArrayPrototype)
	setConstant(proto, "BYTES_PER_ELEMENT", runtime.NewInt(int64(kind.size)))

	var ctor *runtime.Object
	ctor = l.constructor(kind.name, 3, proto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewTypeError("Constructor %s requires 'new'", kind.name)
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		src := argAt(args, 0)
		var values []*runtime.Value
		switch {
		case src.IsObject() && isIterable(src):
			items, err := runtime.IterateToSlice(l.realm, src)
			if err != nil {
				return nil, err
			}
			values = items
		case src.IsObject():
			els, err := elements(src.Object)
			if err != nil {
				return nil, err
			}
			values = els
		default:
			n, err := toNumber(src)
			if err != nil {
				return nil, err
			}
			if src.Type == runtime.TypeUndefined {
				n = 0
			}
			if n < 0 || n != math.Trunc(n) || n > 1<<32 {
				return nil, runtime.NewRangeError("Invalid typed array length: %s", runtime.FormatNumber(n))
			}
			values = make([]*runtime.Value, int(n))
			for i := range values {
				values[i] = runtime.Zero
			}
		}
		if err := initTyped(this.Object, kind, values); err != nil {
			return nil, err
		}
		return this, nil
	})
	setConstant(ctor, "BYTES_PER_ELEMENT", runtime.NewInt(int64(kind.size)))
	l.method(ctor, "of", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return l.newTyped(kind, args)
	})
	l.method(ctor, "from", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		src := argAt(args, 0)
		var items []*runtime.Value
		var err error
		if isIterable(src) {
			items, err = runtime.IterateToSlice(l.realm, src)
		} else if src.IsObject() {
			items, err = elements(src.Object)
		} else {
			return nil, runtime.NewTypeError("%s is not iterable", describe(src))
		}
		if err != nil {
			return nil, err
		}
		if mapFn := argAt(args, 1); mapFn.Type != runtime.TypeUndefined {
			if !mapFn.IsCallable() {
				return nil, runtime.NewTypeError("%s is not a function", describe(mapFn))
			}
			for i, v := range items {
				if items[i], err = runtime.Call(mapFn, argAt(args, 2), []*runtime.Value{orUndefined(v), runtime.NewInt(int64(i))}); err != nil {
					return nil, err
				}
			}
		}
		return l.newTyped(kind, items)
	})
}
