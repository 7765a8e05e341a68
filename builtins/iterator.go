package builtins

import (
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// installIterators sets up %IteratorPrototype% and the prototypes of
// the engine-backed iterators, which share one native next.
func (l *lib) installIterators() {
	r := l.realm
	l.symbolMethod(r.IteratorPrototype, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return this, nil
	})
	l.method(r.IteratorPrototype, "toArray", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		items, err := runtime.IterateToSlice(r, this)
		if err != nil {
			return nil, err
		}
		return r.ArrayValue(items), nil
	})
	l.method(r.IteratorPrototype, "forEach", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		cb, err := callbackArg(args, 0)
		if err != nil {
			return nil, err
		}
		items, err := runtime.IterateToSlice(r, this)
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			if _, err := runtime.Call(cb, runtime.Undefined, []*runtime.Value{item, runtime.NewInt(int64(i))}); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	})

	l.mapIteratorProto = runtime.NewOrdinaryObject(r.IteratorPrototype)
	l.setIteratorProto = runtime.NewOrdinaryObject(r.IteratorPrototype)
	l.stringIteratorProto = runtime.NewOrdinaryObject(r.IteratorPrototype)
	for proto, tag := range map[*runtime.Object]string{
		r.ArrayIteratorPrototype: "Array Iterator",
		l.mapIteratorProto:       "Map Iterator",
		l.setIteratorProto:       "Set Iterator",
		l.stringIteratorProto:    "String Iterator",
	} {
		l.method(proto, "next", 0, l.iteratorNext)
		setToStringTag(proto, tag)
	}
}

func (l *lib) iteratorNext(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !this.IsObject() || this.Object.IteratorNext == nil {
		return nil, runtime.NewTypeError("next method called on incompatible receiver %s", this.ToString())
	}
	v, done, err := this.Object.IteratorNext()
	if err != nil {
		return nil, err
	}
	if done {
		return l.realm.IterResult(runtime.Undefined, true), nil
	}
	return l.realm.IterResult(v, false), nil
}

// iteratorValue wraps a Go iterator as a script iterator object.
func (l *lib) iteratorValue(proto *runtime.Object, it *runtime.Iterator) *runtime.Value {
	return runtime.NewObject(runtime.NewIteratorObject(proto, it))
}

// isIterable reports whether v can be spread or iterated.
func isIterable(v *runtime.Value) bool {
	switch v.Type {
	case runtime.TypeString:
		return true
	case runtime.TypeObject:
		obj := v.Object
		return obj.IteratorNext != nil || obj.GetSymbol(runtime.SymbolIterator).IsCallable()
	}
	return false
}
