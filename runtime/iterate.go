package runtime

// Iterator is a Go-side view of the iteration protocol.
type Iterator struct {
	next   func() (*Value, bool, error)
	close  func() error
	closed bool
}

// Next returns the next value. done is true once the iterator is exhausted.
func (it *Iterator) Next() (*Value, bool, error) {
	if it.closed {
		return Undefined, true, nil
	}
	v, done, err := it.next()
	if err != nil || done {
		it.closed = true
	}
	if v == nil {
		v = Undefined
	}
	return v, done, err
}

// Close runs the iterator's return hook if it has not finished.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	if it.close != nil {
		return it.close()
	}
	return nil
}

// IteratorOf adapts a Go generator function.
func IteratorOf(next func() (*Value, bool, error)) *Iterator {
	return &Iterator{next: next}
}

// NewIterator adapts a next function with a return hook that runs on early
// exit.
func NewIterator(next func() (*Value, bool, error), close func() error) *Iterator {
	return &Iterator{next: next, close: close}
}

// GetIterator obtains a synchronous iterator for v. Arrays, node lists,
// strings and collections iterate natively; other objects go through
// Symbol.iterator.
func GetIterator(r *Realm, v *Value) (*Iterator, error) {
	switch v.Type {
	case TypeString:
		return runeIterator(v.Str), nil
	case TypeObject:
	default:
		return nil, NewTypeError("%s is not iterable", v.ToString())
	}
	obj := v.Object
	if obj.IteratorNext != nil {
		return &Iterator{next: obj.IteratorNext, close: obj.IteratorReturn}, nil
	}
	method := obj.GetSymbol(SymbolIterator)
	if method.IsCallable() && !isIntrinsicIterator(r, obj, method) {
		return iteratorFromMethod(r, v, method)
	}
	switch obj.OType {
	case ObjTypeArray, ObjTypeNodeList, ObjTypeTypedArray:
		return indexIterator(obj), nil
	case ObjTypeString:
		if s, ok := stringPrimitive(obj); ok {
			return runeIterator(s), nil
		}
	case ObjTypeMap:
		return collectionIterator(r, obj.Collection, "entries"), nil
	case ObjTypeSet:
		return collectionIterator(r, obj.Collection, "values"), nil
	}
	if method.IsCallable() {
		return iteratorFromMethod(r, v, method)
	}
	return nil, NewTypeError("object is not iterable")
}

// isIntrinsicIterator reports whether method is the builtin Symbol.iterator
// of obj's own kind, which the native fast paths already implement.
func isIntrinsicIterator(r *Realm, obj *Object, method *Value) bool {
	var proto *Object
	switch obj.OType {
	case ObjTypeArray:
		proto = r.ArrayPrototype
	case ObjTypeTypedArray:
		proto = r.TypedArrayPrototype
	case ObjTypeString:
		proto = r.StringPrototype
	case ObjTypeMap:
		proto = r.MapPrototype
	case ObjTypeSet:
		proto = r.SetPrototype
	case ObjTypeNodeList:
		return true
	default:
		return false
	}
	own, ok := proto.symbols[SymbolIterator]
	return ok && !own.IsAccessor && own.Value.IsObject() && own.Value.Object == method.Object
}

func indexIterator(obj *Object) *Iterator {
	i := 0
	return IteratorOf(func() (*Value, bool, error) {
		if i >= len(obj.ArrayData) {
			return Undefined, true, nil
		}
		el := obj.ArrayData[i]
		i++
		if el == nil {
			el = Undefined
		}
		return el, false, nil
	})
}

func runeIterator(s string) *Iterator {
	runes := []rune(s)
	i := 0
	return IteratorOf(func() (*Value, bool, error) {
		if i >= len(runes) {
			return Undefined, true, nil
		}
		ch := runes[i]
		i++
		return NewString(string(ch)), false, nil
	})
}

func collectionIterator(r *Realm, m *OrderedMap, kind string) *Iterator {
	cursor := m.Cursor()
	return IteratorOf(func() (*Value, bool, error) {
		k, v, ok := cursor()
		if !ok {
			return Undefined, true, nil
		}
		switch kind {
		case "keys":
			return k, false, nil
		case "values":
			return v, false, nil
		}
		return r.ArrayValue([]*Value{k, v}), false, nil
	})
}

// CollectionIterator exposes keys, values or entries of a Map or Set.
func CollectionIterator(r *Realm, m *OrderedMap, kind string) *Iterator {
	return collectionIterator(r, m, kind)
}

func iteratorFromMethod(r *Realm, v, method *Value) (*Iterator, error) {
	iterVal, err := method.Object.Callable(v, nil)
	if err != nil {
		return nil, err
	}
	return FromIteratorObject(r, iterVal, nil)
}

// FromIteratorObject drives an object implementing next/return. When await
// is non-nil each result of next() is awaited first (async iteration).
func FromIteratorObject(r *Realm, iterVal *Value, await func(*Value) (*Value, error)) (*Iterator, error) {
	if !iterVal.IsObject() {
		return nil, NewTypeError("Result of the Symbol.iterator method is not an object")
	}
	iterObj := iterVal.Object
	if iterObj.IteratorNext != nil && await == nil {
		return &Iterator{next: iterObj.IteratorNext, close: iterObj.IteratorReturn}, nil
	}
	nextFn, err := iterObj.GetValue("next")
	if err != nil {
		return nil, err
	}
	it := &Iterator{}
	it.next = func() (*Value, bool, error) {
		res, err := Call(nextFn, iterVal, nil)
		if err != nil {
			return nil, true, err
		}
		if await != nil {
			if res, err = await(res); err != nil {
				return nil, true, err
			}
		}
		if !res.IsObject() {
			return nil, true, NewTypeError("Iterator result %s is not an object", res.ToString())
		}
		done, err := res.Object.GetValue("done")
		if err != nil {
			return nil, true, err
		}
		if done.ToBoolean() {
			return Undefined, true, nil
		}
		value, err := res.Object.GetValue("value")
		return value, false, err
	}
	it.close = func() error {
		ret, err := iterObj.GetValue("return")
		if err != nil || !ret.IsCallable() {
			return err
		}
		res, err := ret.Object.Callable(iterVal, nil)
		if err != nil {
			return err
		}
		if await != nil {
			_, err = await(res)
		}
		return err
	}
	return it, nil
}

// GetAsyncIterator obtains an iterator for for-await. Objects with
// Symbol.asyncIterator have each next() result awaited; sync iterables have
// each produced value awaited instead.
func GetAsyncIterator(r *Realm, v *Value, await func(*Value) (*Value, error)) (*Iterator, error) {
	if v.IsObject() {
		if method := v.Object.GetSymbol(SymbolAsyncIterator); method.IsCallable() {
			iterVal, err := method.Object.Callable(v, nil)
			if err != nil {
				return nil, err
			}
			return FromIteratorObject(r, iterVal, await)
		}
	}
	sync, err := GetIterator(r, v)
	if err != nil {
		return nil, err
	}
	return &Iterator{
		next: func() (*Value, bool, error) {
			val, done, err := sync.Next()
			if err != nil || done {
				return val, done, err
			}
			val, err = await(val)
			return val, false, err
		},
		close: sync.Close,
	}, nil
}

// IterateToSlice drains v's iterator into a slice.
func IterateToSlice(r *Realm, v *Value) ([]*Value, error) {
	if v.IsObject() && v.Object.OType == ObjTypeArray && isIntrinsicIterator(r, v.Object, v.Object.GetSymbol(SymbolIterator)) {
		out := make([]*Value, len(v.Object.ArrayData))
		for i, el := range v.Object.ArrayData {
			if el == nil {
				el = Undefined
			}
			out[i] = el
		}
		return out, nil
	}
	it, err := GetIterator(r, v)
	if err != nil {
		return nil, err
	}
	var out []*Value
	for {
		val, done, err := it.Next()
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
		out = append(out, val)
	}
}

// NewIteratorObject wraps a Go iterator as a script iterator object that
// inherits next and Symbol.iterator from proto.
func NewIteratorObject(proto *Object, it *Iterator) *Object {
	return &Object{
		OType:          ObjTypeIterator,
		Prototype:      proto,
		IteratorNext:   it.Next,
		IteratorReturn: it.Close,
	}
}

// IterResult builds a {value, done} result object.
func (r *Realm) IterResult(value *Value, done bool) *Value {
	obj := r.NewObject()
	obj.Set("value", value)
	obj.Set("done", NewBool(done))
	return NewObject(obj)
}
