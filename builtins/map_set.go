package builtins

import (
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installMapSet() {
	l.installMap()
	l.installSet()
	l.installWeak()
}

// thisCollection returns the backing map of a Map, Set, WeakMap or
// WeakSet receiver.
func thisCollection(this *runtime.Value, kind, method string) (*runtime.OrderedMap, error) {
	if this.IsObject() && this.Object.Collection != nil {
		if tag, _ := this.Object.Internal["collection"].(string); tag == kind {
			return this.Object.Collection, nil
		}
	}
	return nil, runtime.NewTypeError("Method %s.prototype.%s called on incompatible receiver %s", kind, method, describe(this))
}

// initCollection turns a freshly constructed object into a collection
// and feeds it the iterable argument through adder.
func (l *lib) initCollection(this *runtime.Value, otype runtime.ObjectType, kind, adder string, iterable *runtime.Value, pairs bool) (*runtime.Value, error) {
	obj := this.Object
	obj.OType = otype
	obj.Collection = runtime.NewOrderedMap()
	obj.SetInternal("collection", kind)
	if iterable.IsNullish() {
		return this, nil
	}
	add, err := obj.GetValue(adder)
	if err != nil {
		return nil, err
	}
	if !add.IsCallable() {
		return nil, runtime.NewTypeError("'%s' returned for property '%s' of object '#<%s>' is not a function", add.ToString(), adder, kind)
	}
	it, err := runtime.GetIterator(l.realm, iterable)
	if err != nil {
		return nil, err
	}
	for {
		item, done, err := it.Next()
		if err != nil {
			return nil, err
		}
		if done {
			return this, nil
		}
		args := []*runtime.Value{item}
		if pairs {
			if !item.IsObject() {
				it.Close()
				return nil, runtime.NewTypeError("Iterator value %s is not an entry object", item.ToString())
			}
			k, err := item.Object.GetValue("0")
			if err != nil {
				return nil, err
			}
			v, err := item.Object.GetValue("1")
			if err != nil {
				return nil, err
			}
			args = []*runtime.Value{k, v}
		}
		if _, err := runtime.Call(add, this, args); err != nil {
			it.Close()
			return nil, err
		}
	}
}

func normalizeKey(k *runtime.Value) *runtime.Value {
	if k.Type == runtime.TypeFloat && k.Float == 0 {
		return runtime.Zero
	}
	return k
}

func (l *lib) installMap() {
	proto := l.realm.MapPrototype
	l.method(proto, "get", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, "Map", "get")
		if err != nil {
			return nil, err
		}
		v, ok := m.Get(argAt(args, 0))
		if !ok {
			return runtime.Undefined, nil
		}
		return v, nil
	})
	l.method(proto, "set", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, "Map", "set")
		if err != nil {
			return nil, err
		}
		m.Set(normalizeKey(argAt(args, 0)), argAt(args, 1))
		return this, nil
	})
	l.collectionCommon(proto, "Map")
	l.method(proto, "forEach", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, "Map", "forEach")
		if err != nil {
			return nil, err
		}
		return forEachEntry(m, this, args, false)
	})
	l.method(proto, "keys", 0, l.collectionIter("Map", "keys", l.mapIteratorProto))
	l.method(proto, "values", 0, l.collectionIter("Map", "values", l.mapIteratorProto))
	entries := l.fn("entries", 0, l.collectionIter("Map", "entries", l.mapIteratorProto))
	setDataProp(proto, "entries", entries, true, false, true)
	proto.DefineSymbol(runtime.SymbolIterator, &runtime.Property{Value: entries, Writable: true, Configurable: true})
	setToStringTag(proto, "Map")

	var ctor *runtime.Object
	ctor = l.constructor("Map", 0, proto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewTypeError("Constructor Map requires 'new'")
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return l.initCollection(this, runtime.ObjTypeMap, "Map", "set", argAt(args, 0), true)
	})
	l.method(ctor, "groupBy", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		cb, err := callbackArg(args, 1)
		if err != nil {
			return nil, err
		}
		items, err := runtime.IterateToSlice(l.realm, argAt(args, 0))
		if err != nil {
			return nil, err
		}
		res, err := l.construct(ctor, nil)
		if err != nil {
			return nil, err
		}
		m := res.Object.Collection
		for i, item := range items {
			k, err := runtime.Call(cb, runtime.Undefined, []*runtime.Value{item, runtime.NewInt(int64(i))})
			if err != nil {
				return nil, err
			}
			k = normalizeKey(k)
			group, ok := m.Get(k)
			if !ok {
				group = l.realm.ArrayValue(nil)
				m.Set(k, group)
			}
			group.Object.ArrayData = append(group.Object.ArrayData, item)
		}
		return res, nil
	})
}

func (l *lib) installSet() {
	proto := l.realm.SetPrototype
	l.method(proto, "add", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, "Set", "add")
		if err != nil {
			return nil, err
		}
		v := normalizeKey(argAt(args, 0))
		if !m.Has(v) {
			m.Set(v, v)
		}
		return this, nil
	})
	l.collectionCommon(proto, "Set")
	l.method(proto, "forEach", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, "Set", "forEach")
		if err != nil {
			return nil, err
		}
		return forEachEntry(m, this, args, true)
	})
	values := l.fn("values", 0, l.collectionIter("Set", "values", l.setIteratorProto))
	setDataProp(proto, "values", values, true, false, true)
	setDataProp(proto, "keys", values, true, false, true)
	proto.DefineSymbol(runtime.SymbolIterator, &runtime.Property{Value: values, Writable: true, Configurable: true})
	l.method(proto, "entries", 0, l.collectionIter("Set", "entries", l.setIteratorProto))

	l.method(proto, "union", 1, l.setAlgebra("union", func(a, b *runtime.OrderedMap, out *runtime.OrderedMap) {
		copyKeys(out, a, nil)
		copyKeys(out, b, nil)
	}))
	l.method(proto, "intersection", 1, l.setAlgebra("intersection", func(a, b *runtime.OrderedMap, out *runtime.OrderedMap) {
		copyKeys(out, a, b.Has)
	}))
	l.method(proto, "difference", 1, l.setAlgebra("difference", func(a, b *runtime.OrderedMap, out *runtime.OrderedMap) {
		copyKeys(out, a, func(k *runtime.Value) bool { return !b.Has(k) })
	}))
	l.method(proto, "symmetricDifference", 1, l.setAlgebra("symmetricDifference", func(a, b *runtime.OrderedMap, out *runtime.OrderedMap) {
		copyKeys(out, a, func(k *runtime.Value) bool { return !b.Has(k) })
		copyKeys(out, b, func(k *runtime.Value) bool { return !a.Has(k) })
	}))
	l.method(proto, "isSubsetOf", 1, l.setRelation("isSubsetOf", func(a, b *runtime.OrderedMap) bool { return allIn(a, b.Has) }))
	l.method(proto, "isSupersetOf", 1, l.setRelation("isSupersetOf", func(a, b *runtime.OrderedMap) bool { return allIn(b, a.Has) }))
	l.method(proto, "isDisjointFrom", 1, l.setRelation("isDisjointFrom", func(a, b *runtime.OrderedMap) bool {
		return allIn(a, func(k *runtime.Value) bool { return !b.Has(k) })
	}))
	setToStringTag(proto, "Set")

	l.constructor("Set", 0, proto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewTypeError("Constructor Set requires 'new'")
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return l.initCollection(this, runtime.ObjTypeSet, "Set", "add", argAt(args, 0), false)
	})
}

// collectionCommon installs has, delete, clear and size.
func (l *lib) collectionCommon(proto *runtime.Object, kind string) {
	l.method(proto, "has", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, kind, "has")
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(m.Has(argAt(args, 0))), nil
	})
	l.method(proto, "delete", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, kind, "delete")
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(m.Delete(argAt(args, 0))), nil
	})
	l.method(proto, "clear", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, kind, "clear")
		if err != nil {
			return nil, err
		}
		m.Clear()
		return runtime.Undefined, nil
	})
	l.getter(proto, "size", func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, kind, "size")
		if err != nil {
			return nil, err
		}
		return runtime.NewInt(int64(m.Size())), nil
	})
}

func (l *lib) collectionIter(kind, iterKind string, proto *runtime.Object) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, kind, iterKind)
		if err != nil {
			return nil, err
		}
		return l.iteratorValue(proto, runtime.CollectionIterator(l.realm, m, iterKind)), nil
	}
}

// forEachEntry visits entries live: additions made by the callback are
// visited, deletions are skipped.
func forEachEntry(m *runtime.OrderedMap, this *runtime.Value, args []*runtime.Value, valuesOnly bool) (*runtime.Value, error) {
	cb, err := callbackArg(args, 0)
	if err != nil {
		return nil, err
	}
	next := m.Cursor()
	for {
		k, v, ok := next()
		if !ok {
			return runtime.Undefined, nil
		}
		if valuesOnly {
			k = v
		}
		if _, err := runtime.Call(cb, argAt(args, 1), []*runtime.Value{v, k, this}); err != nil {
			return nil, err
		}
	}
}

// otherSet resolves the argument of a set algebra method.
func otherSet(v *runtime.Value) (*runtime.OrderedMap, error) {
	if v.IsObject() && v.Object.Collection != nil {
		return v.Object.Collection, nil
	}
	return nil, runtime.NewTypeError("The 'other' argument must be set-like")
}

func copyKeys(out, from *runtime.OrderedMap, keep func(*runtime.Value) bool) {
	for _, e := range from.Entries() {
		if keep == nil || keep(e[0]) {
			out.Set(e[0], e[0])
		}
	}
}

func allIn(m *runtime.OrderedMap, pred func(*runtime.Value) bool) bool {
	for _, e := range m.Entries() {
		if !pred(e[0]) {
			return false
		}
	}
	return true
}

func (l *lib) setAlgebra(method string, combine func(a, b, out *runtime.OrderedMap)) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		a, err := thisCollection(this, "Set", method)
		if err != nil {
			return nil, err
		}
		b, err := otherSet(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		res, err := l.construct(l.realm.Constructors["Set"], nil)
		if err != nil {
			return nil, err
		}
		combine(a, b, res.Object.Collection)
		return res, nil
	}
}

func (l *lib) setRelation(method string, rel func(a, b *runtime.OrderedMap) bool) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		a, err := thisCollection(this, "Set", method)
		if err != nil {
			return nil, err
		}
		b, err := otherSet(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(rel(a, b)), nil
	}
}

// installWeak adds WeakMap and WeakSet. Entries are held strongly; only
// the object-key restriction is observable.
func (l *lib) installWeak() {
	weakKey := func(kind string, v *runtime.Value) error {
		if v.IsObject() || (v.Type == runtime.TypeSymbol && l.realm.SymbolRegistry[v.Symbol.Description] != v.Symbol) {
			return nil
		}
		return runtime.NewTypeError("Invalid value used %s", kind)
	}

	mapProto := runtime.NewOrdinaryObject(l.realm.ObjectPrototype)
	l.method(mapProto, "get", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, "WeakMap", "get")
		if err != nil {
			return nil, err
		}
		if v, ok := m.Get(argAt(args, 0)); ok {
			return v, nil
		}
		return runtime.Undefined, nil
	})
	l.method(mapProto, "set", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, "WeakMap", "set")
		if err != nil {
			return nil, err
		}
		if err := weakKey("as weak map key", argAt(args, 0)); err != nil {
			return nil, err
		}
		m.Set(argAt(args, 0), argAt(args, 1))
		return this, nil
	})
	l.weakCommon(mapProto, "WeakMap")
	setToStringTag(mapProto, "WeakMap")
	l.constructor("WeakMap", 0, mapProto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewTypeError("Constructor WeakMap requires 'new'")
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return l.initCollection(this, runtime.ObjTypeOrdinary, "WeakMap", "set", argAt(args, 0), true)
	})

	setProto := runtime.NewOrdinaryObject(l.realm.ObjectPrototype)
	l.method(setProto, "add", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, "WeakSet", "add")
		if err != nil {
			return nil, err
		}
		if err := weakKey("in weak set", argAt(args, 0)); err != nil {
			return nil, err
		}
		m.Set(argAt(args, 0), argAt(args, 0))
		return this, nil
	})
	l.weakCommon(setProto, "WeakSet")
	setToStringTag(setProto, "WeakSet")
	l.constructor("WeakSet", 0, setProto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewTypeError("Constructor WeakSet requires 'new'")
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return l.initCollection(this, runtime.ObjTypeOrdinary, "WeakSet", "add", argAt(args, 0), false)
	})
}

func (l *lib) weakCommon(proto *runtime.Object, kind string) {
	l.method(proto, "has", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, kind, "has")
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(m.Has(argAt(args, 0))), nil
	})
	l.method(proto, "delete", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := thisCollection(this, kind, "delete")
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(m.Delete(argAt(args, 0))), nil
	})
}
