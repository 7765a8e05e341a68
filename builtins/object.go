package builtins

import (
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installObject() {
	proto := l.realm.ObjectPrototype

	l.method(proto, "hasOwnProperty", 1, l.objectHasOwnProperty)
	l.method(proto, "isPrototypeOf", 1, objectIsPrototypeOf)
	l.method(proto, "propertyIsEnumerable", 1, objectPropertyIsEnumerable)
	l.method(proto, "toString", 0, objectToString)
	l.method(proto, "toLocaleString", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := toString(this)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(s), nil
	})
	l.method(proto, "valueOf", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		obj, err := l.realm.ToObject(this)
		if err != nil {
			return nil, err
		}
		return runtime.NewObject(obj), nil
	})
	proto.DefineProperty("__proto__", &runtime.Property{
		IsAccessor: true,
		Getter: l.fn("get __proto__", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			if p := l.realm.PrototypeOf(this); p != nil {
				return runtime.NewObject(p), nil
			}
			return runtime.Null, nil
		}),
		Setter: l.fn("set __proto__", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			p := argAt(args, 0)
			if this.IsObject() && (p.IsObject() || p.Type == runtime.TypeNull) {
				return runtime.Undefined, setPrototype(this.Object, p)
			}
			return runtime.Undefined, nil
		}),
		Configurable: true,
	})

	ctor := l.constructor("Object", 1, proto, l.objectCall, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if v := argAt(args, 0); !v.IsNullish() {
			return l.objectCall(this, args)
		}
		return this, nil
	})

	l.method(ctor, "keys", 1, l.objectKeys)
	l.method(ctor, "values", 1, l.objectValues)
	l.method(ctor, "entries", 1, l.objectEntries)
	l.method(ctor, "assign", 2, l.objectAssign)
	l.method(ctor, "create", 2, l.objectCreate)
	l.method(ctor, "getPrototypeOf", 1, l.objectGetPrototypeOf)
	l.method(ctor, "setPrototypeOf", 2, objectSetPrototypeOf)
	l.method(ctor, "defineProperty", 3, l.objectDefineProperty)
	l.method(ctor, "defineProperties", 2, l.objectDefineProperties)
	l.method(ctor, "getOwnPropertyNames", 1, l.objectGetOwnPropertyNames)
	l.method(ctor, "getOwnPropertySymbols", 1, l.objectGetOwnPropertySymbols)
	l.method(ctor, "getOwnPropertyDescriptor", 2, l.objectGetOwnPropertyDescriptor)
	l.method(ctor, "getOwnPropertyDescriptors", 1, l.objectGetOwnPropertyDescriptors)
	l.method(ctor, "freeze", 1, objectFreeze)
	l.method(ctor, "isFrozen", 1, objectIsFrozen)
	l.method(ctor, "isExtensible", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		o := argAt(args, 0)
		return runtime.NewBool(o.IsObject() && !o.Object.Frozen), nil
	})
	l.method(ctor, "fromEntries", 1, l.objectFromEntries)
	l.method(ctor, "groupBy", 2, l.objectGroupBy)
	l.method(ctor, "is", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewBool(runtime.SameValue(argAt(args, 0), argAt(args, 1))), nil
	})
	l.method(ctor, "hasOwn", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return l.objectHasOwnProperty(argAt(args, 0), args[min(1, len(args)):])
	})
}

func (l *lib) objectCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := argAt(args, 0)
	if v.IsNullish() {
		return runtime.NewObject(l.realm.NewObject()), nil
	}
	obj, err := l.realm.ToObject(v)
	if err != nil {
		return nil, err
	}
	return runtime.NewObject(obj), nil
}

// toObjectArg converts args[0] for the static Object methods.
func (l *lib) toObjectArg(args []*runtime.Value) (*runtime.Object, error) {
	return l.realm.ToObject(argAt(args, 0))
}

// enumerableKeys lists own enumerable string keys in property order.
func enumerableKeys(obj *runtime.Object) []string {
	var keys []string
	for _, k := range obj.OwnKeys() {
		if obj.IsEnumerable(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (l *lib) ownEnumerable(args []*runtime.Value) (*runtime.Object, []string, error) {
	v := argAt(args, 0)
	if v.Type == runtime.TypeString {
		obj, _ := l.realm.ToObject(v)
		keys := make([]string, len([]rune(v.Str)))
		for i := range keys {
			keys[i] = itoa(i)
		}
		return obj, keys, nil
	}
	obj, err := l.toObjectArg(args)
	if err != nil {
		return nil, nil, err
	}
	return obj, enumerableKeys(obj), nil
}

func (l *lib) objectKeys(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, keys, err := l.ownEnumerable(args)
	if err != nil {
		return nil, err
	}
	out := make([]*runtime.Value, len(keys))
	for i, k := range keys {
		out[i] = runtime.NewString(k)
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) objectValues(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj, keys, err := l.ownEnumerable(args)
	if err != nil {
		return nil, err
	}
	out := make([]*runtime.Value, 0, len(keys))
	for _, k := range keys {
		v, err := l.realm.Get(runtime.NewObject(obj), k)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) objectEntries(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj, keys, err := l.ownEnumerable(args)
	if err != nil {
		return nil, err
	}
	out := make([]*runtime.Value, 0, len(keys))
	for _, k := range keys {
		v, err := l.realm.Get(runtime.NewObject(obj), k)
		if err != nil {
			return nil, err
		}
		out = append(out, l.realm.ArrayValue([]*runtime.Value{runtime.NewString(k), v}))
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) objectAssign(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	target, err := l.toObjectArg(args)
	if err != nil {
		return nil, err
	}
	for _, src := range args[min(1, len(args)):] {
		if src.IsNullish() {
			continue
		}
		from, err := l.realm.ToObject(src)
		if err != nil {
			return nil, err
		}
		if err := copyOwn(target, from, nil); err != nil {
			return nil, err
		}
	}
	return runtime.NewObject(target), nil
}

// copyOwn copies own enumerable properties, string keys first, then
// symbols. Keys in skip are left out.
func copyOwn(target, from *runtime.Object, skip map[string]bool) error {
	for _, k := range enumerableKeys(from) {
		if skip[k] {
			continue
		}
		v, err := from.GetValue(k)
		if err != nil {
			return err
		}
		if err := target.Put(k, v); err != nil {
			return err
		}
	}
	for _, sym := range from.OwnSymbols() {
		if prop, _ := from.GetOwnSymbol(sym); prop.Enumerable || !prop.IsAccessor {
			target.SetSymbol(sym, from.GetSymbol(sym))
		}
	}
	return nil
}

func (l *lib) objectCreate(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	p := argAt(args, 0)
	var proto *runtime.Object
	switch {
	case p.IsObject():
		proto = p.Object
	case p.Type == runtime.TypeNull:
	default:
		return nil, runtime.NewTypeError("Object prototype may only be an Object or null: %s", p.ToString())
	}
	obj := runtime.NewOrdinaryObject(proto)
	if props := argAt(args, 1); !props.IsNullish() {
		if err := l.defineProperties(obj, props); err != nil {
			return nil, err
		}
	}
	return runtime.NewObject(obj), nil
}

func (l *lib) objectGetPrototypeOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj, err := l.toObjectArg(args)
	if err != nil {
		return nil, err
	}
	if p := l.realm.PrototypeOf(argAt(args, 0)); p != nil && obj != nil {
		return runtime.NewObject(p), nil
	}
	return runtime.Null, nil
}

func objectSetPrototypeOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	o, p := argAt(args, 0), argAt(args, 1)
	if o.IsNullish() {
		return nil, runtime.NewTypeError("Object.setPrototypeOf called on null or undefined")
	}
	if !p.IsObject() && p.Type != runtime.TypeNull {
		return nil, runtime.NewTypeError("Object prototype may only be an Object or null: %s", p.ToString())
	}
	if !o.IsObject() {
		return o, nil
	}
	return o, setPrototype(o.Object, p)
}

func setPrototype(obj *runtime.Object, p *runtime.Value) error {
	if p.Type == runtime.TypeNull {
		obj.Prototype = nil
		return nil
	}
	for cur := p.Object; cur != nil; cur = cur.Prototype {
		if cur == obj {
			return runtime.NewTypeError("Cyclic __proto__ value")
		}
	}
	if obj.Frozen {
		return runtime.NewTypeError("#<Object> is not extensible")
	}
	obj.Prototype = p.Object
	return nil
}

func (l *lib) objectDefineProperty(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	o := argAt(args, 0)
	if !o.IsObject() {
		return nil, runtime.NewTypeError("Object.defineProperty called on non-object")
	}
	name, sym, err := runtime.ToPropertyKey(argAt(args, 1))
	if err != nil {
		return nil, err
	}
	if err := defineFromDescriptor(o.Object, name, sym, argAt(args, 2)); err != nil {
		return nil, err
	}
	return o, nil
}

func (l *lib) objectDefineProperties(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	o := argAt(args, 0)
	if !o.IsObject() {
		return nil, runtime.NewTypeError("Object.defineProperties called on non-object")
	}
	return o, l.defineProperties(o.Object, argAt(args, 1))
}

func (l *lib) defineProperties(obj *runtime.Object, props *runtime.Value) error {
	src, err := l.realm.ToObject(props)
	if err != nil {
		return err
	}
	for _, k := range enumerableKeys(src) {
		desc, err := src.GetValue(k)
		if err != nil {
			return err
		}
		if err := defineFromDescriptor(obj, k, nil, desc); err != nil {
			return err
		}
	}
	return nil
}

// defineFromDescriptor applies a descriptor object. Missing attributes
// keep their current value on existing properties and default to false
// on new ones.
func defineFromDescriptor(obj *runtime.Object, name string, sym *runtime.Symbol, descVal *runtime.Value) error {
	if !descVal.IsObject() {
		return runtime.NewTypeError("Property description must be an object: %s", descVal.ToString())
	}
	desc := descVal.Object
	var existing *runtime.Property
	if sym != nil {
		existing, _ = obj.GetOwnSymbol(sym)
	} else {
		existing, _ = obj.GetOwnProperty(name)
	}
	if existing != nil && !existing.Configurable {
		return runtime.NewTypeError("Cannot redefine property: %s", keyName(name, sym))
	}
	if obj.Frozen {
		return runtime.NewTypeError("Cannot define property %s, object is not extensible", keyName(name, sym))
	}
	prop := &runtime.Property{}
	if existing != nil {
		cp := *existing
		prop = &cp
	}
	flag := func(key string, dst *bool) error {
		if !desc.HasProperty(key) {
			return nil
		}
		v, err := desc.GetValue(key)
		if err != nil {
			return err
		}
		*dst = v.ToBoolean()
		return nil
	}
	if err := flag("enumerable", &prop.Enumerable); err != nil {
		return err
	}
	if err := flag("configurable", &prop.Configurable); err != nil {
		return err
	}
	get, set := desc.HasProperty("get"), desc.HasProperty("set")
	if get || set {
		if desc.HasProperty("value") || desc.HasProperty("writable") {
			return runtime.NewTypeError("Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
		}
		if !prop.IsAccessor {
			prop.Value, prop.Writable = nil, false
		}
		prop.IsAccessor = true
		for _, acc := range []struct {
			key string
			dst **runtime.Value
		}{{"get", &prop.Getter}, {"set", &prop.Setter}} {
			if !desc.HasProperty(acc.key) {
				continue
			}
			fn, err := desc.GetValue(acc.key)
			if err != nil {
				return err
			}
			if fn.Type != runtime.TypeUndefined && !fn.IsCallable() {
				return runtime.NewTypeError("%s must be a function: %s", acc.key, fn.ToString())
			}
			*acc.dst = fn
		}
	} else {
		if prop.IsAccessor {
			prop.IsAccessor, prop.Getter, prop.Setter = false, nil, nil
		}
		if desc.HasProperty("value") {
			v, err := desc.GetValue("value")
			if err != nil {
				return err
			}
			prop.Value = v
		}
		if prop.Value == nil {
			prop.Value = runtime.Undefined
		}
		if err := flag("writable", &prop.Writable); err != nil {
			return err
		}
	}
	if sym != nil {
		obj.DefineSymbol(sym, prop)
		return nil
	}
	if hasIndexedData(obj) {
		if idx, ok := runtime.ArrayIndex(name); ok && !prop.IsAccessor {
			obj.SetIndex(idx, prop.Value)
			return nil
		}
	}
	obj.DefineProperty(name, prop)
	return nil
}

func keyName(name string, sym *runtime.Symbol) string {
	if sym != nil {
		return "Symbol(" + sym.Description + ")"
	}
	return name
}

func (l *lib) objectGetOwnPropertyNames(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj, err := l.toObjectArg(args)
	if err != nil {
		return nil, err
	}
	keys := obj.OwnKeys()
	out := make([]*runtime.Value, len(keys))
	for i, k := range keys {
		out[i] = runtime.NewString(k)
	}
	if hasIndexedData(obj) {
		out = append(out, runtime.NewString("length"))
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) objectGetOwnPropertySymbols(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj, err := l.toObjectArg(args)
	if err != nil {
		return nil, err
	}
	syms := obj.OwnSymbols()
	out := make([]*runtime.Value, len(syms))
	for i, s := range syms {
		out[i] = runtime.NewSymbolValue(s)
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) objectGetOwnPropertyDescriptor(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj, err := l.toObjectArg(args)
	if err != nil {
		return nil, err
	}
	name, sym, err := runtime.ToPropertyKey(argAt(args, 1))
	if err != nil {
		return nil, err
	}
	return l.descriptorOf(obj, name, sym)
}

func (l *lib) objectGetOwnPropertyDescriptors(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj, err := l.toObjectArg(args)
	if err != nil {
		return nil, err
	}
	out := l.realm.NewObject()
	for _, k := range obj.OwnKeys() {
		d, err := l.descriptorOf(obj, k, nil)
		if err != nil {
			return nil, err
		}
		out.Set(k, d)
	}
	for _, sym := range obj.OwnSymbols() {
		d, err := l.descriptorOf(obj, "", sym)
		if err != nil {
			return nil, err
		}
		out.SetSymbol(sym, d)
	}
	return runtime.NewObject(out), nil
}

func (l *lib) descriptorOf(obj *runtime.Object, name string, sym *runtime.Symbol) (*runtime.Value, error) {
	var prop *runtime.Property
	var ok bool
	if sym != nil {
		prop, ok = obj.GetOwnSymbol(sym)
	} else {
		prop, ok = obj.GetOwnProperty(name)
	}
	if !ok {
		if sym != nil || !obj.HasOwnProperty(name) {
			return runtime.Undefined, nil
		}
		// Indexed elements and host properties report as plain data.
		v, err := obj.GetValue(name)
		if err != nil {
			return nil, err
		}
		writable := !obj.Frozen
		enumerable := name != "length"
		return l.newObject("value", v, "writable", runtime.NewBool(writable),
			"enumerable", runtime.NewBool(enumerable), "configurable", runtime.NewBool(enumerable && writable)), nil
	}
	if prop.IsAccessor {
		return l.newObject("get", orUndefined(prop.Getter), "set", orUndefined(prop.Setter),
			"enumerable", runtime.NewBool(prop.Enumerable), "configurable", runtime.NewBool(prop.Configurable)), nil
	}
	return l.newObject("value", orUndefined(prop.Value), "writable", runtime.NewBool(prop.Writable && !obj.Frozen),
		"enumerable", runtime.NewBool(prop.Enumerable), "configurable", runtime.NewBool(prop.Configurable && !obj.Frozen)), nil
}

func objectFreeze(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	o := argAt(args, 0)
	if !o.IsObject() {
		return o, nil
	}
	obj := o.Object
	for _, k := range obj.OwnKeys() {
		if prop, ok := obj.GetOwnProperty(k); ok {
			prop.Configurable = false
			if !prop.IsAccessor {
				prop.Writable = false
			}
		}
	}
	obj.Frozen = true
	return o, nil
}

func objectIsFrozen(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	o := argAt(args, 0)
	return runtime.NewBool(!o.IsObject() || o.Object.Frozen), nil
}

func (l *lib) objectFromEntries(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	entries, err := runtime.IterateToSlice(l.realm, argAt(args, 0))
	if err != nil {
		return nil, err
	}
	out := l.realm.NewObject()
	for _, e := range entries {
		if !e.IsObject() {
			return nil, runtime.NewTypeError("Iterator value %s is not an entry object", e.ToString())
		}
		k, err := l.realm.GetMember(e, runtime.NewInt(0))
		if err != nil {
			return nil, err
		}
		v, err := l.realm.GetMember(e, runtime.NewInt(1))
		if err != nil {
			return nil, err
		}
		name, sym, err := runtime.ToPropertyKey(k)
		if err != nil {
			return nil, err
		}
		if sym != nil {
			out.SetSymbol(sym, v)
			continue
		}
		out.Set(name, v)
	}
	return runtime.NewObject(out), nil
}

func (l *lib) objectGroupBy(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	items, err := runtime.IterateToSlice(l.realm, argAt(args, 0))
	if err != nil {
		return nil, err
	}
	cb, err := callbackArg(args, 1)
	if err != nil {
		return nil, err
	}
	out := runtime.NewOrdinaryObject(nil)
	for i, item := range items {
		k, err := runtime.Call(cb, runtime.Undefined, []*runtime.Value{item, runtime.NewInt(int64(i))})
		if err != nil {
			return nil, err
		}
		name, err := toString(k)
		if err != nil {
			return nil, err
		}
		group := out.Get(name)
		if !group.IsObject() {
			group = l.realm.ArrayValue(nil)
			out.Set(name, group)
		}
		group.Object.ArrayData = append(group.Object.ArrayData, item)
	}
	return runtime.NewObject(out), nil
}

func (l *lib) objectHasOwnProperty(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	name, sym, err := runtime.ToPropertyKey(argAt(args, 0))
	if err != nil {
		return nil, err
	}
	if this.Type == runtime.TypeString && sym == nil {
		if name == "length" {
			return runtime.True, nil
		}
		idx, ok := runtime.ArrayIndex(name)
		return runtime.NewBool(ok && idx < len([]rune(this.Str))), nil
	}
	obj, err := l.realm.ToObject(this)
	if err != nil {
		return nil, err
	}
	if sym != nil {
		_, ok := obj.GetOwnSymbol(sym)
		return runtime.NewBool(ok), nil
	}
	return runtime.NewBool(obj.HasOwnProperty(name)), nil
}

func objectIsPrototypeOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v := argAt(args, 0)
	if !v.IsObject() || !this.IsObject() {
		return runtime.False, nil
	}
	return runtime.NewBool(v.Object.InstanceOf(this.Object)), nil
}

func objectPropertyIsEnumerable(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !this.IsObject() {
		return runtime.False, nil
	}
	name, sym, err := runtime.ToPropertyKey(argAt(args, 0))
	if err != nil {
		return nil, err
	}
	if sym != nil {
		prop, ok := this.Object.GetOwnSymbol(sym)
		return runtime.NewBool(ok && prop.Enumerable), nil
	}
	return runtime.NewBool(this.Object.IsEnumerable(name)), nil
}

// objectToString implements Object.prototype.toString.
func objectToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	switch this.Type {
	case runtime.TypeUndefined:
		return runtime.NewString("[object Undefined]"), nil
	case runtime.TypeNull:
		return runtime.NewString("[object Null]"), nil
	}
	return runtime.NewString("[object " + builtinTag(this) + "]"), nil
}

func builtinTag(v *runtime.Value) string {
	if v.IsObject() {
		if tag := v.Object.GetSymbol(runtime.SymbolToStringTag); tag.Type == runtime.TypeString {
			return tag.Str
		}
	}
	switch v.Type {
	case runtime.TypeString:
		return "String"
	case runtime.TypeNumber, runtime.TypeFloat:
		return "Number"
	case runtime.TypeBoolean:
		return "Boolean"
	case runtime.TypeSymbol:
		return "Symbol"
	case runtime.TypeBigInt:
		return "BigInt"
	}
	obj := v.Object
	switch {
	case obj.OType == runtime.ObjTypeArray:
		return "Array"
	case obj.Callable != nil:
		return "Function"
	case obj.OType == runtime.ObjTypeError:
		return "Error"
	case obj.OType == runtime.ObjTypeBoolean:
		return "Boolean"
	case obj.OType == runtime.ObjTypeNumber:
		return "Number"
	case obj.OType == runtime.ObjTypeString:
		return "String"
	}
	if _, ok := obj.Internal["regexp"]; ok {
		return "RegExp"
	}
	if _, ok := obj.Internal["date"]; ok {
		return "Date"
	}
	return "Object"
}
