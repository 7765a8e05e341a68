package builtins

import (
	"math"
	"sort"
	"strings"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installArray() {
	proto := l.realm.ArrayPrototype

	l.method(proto, "push", 1, arrayPush)
	l.method(proto, "pop", 0, arrayPop)
	l.method(proto, "shift", 0, arrayShift)
	l.method(proto, "unshift", 1, arrayUnshift)
	l.method(proto, "splice", 2, l.arraySplice)
	l.method(proto, "slice", 2, l.arraySlice)
	l.method(proto, "concat", 1, l.arrayConcat)
	l.method(proto, "indexOf", 1, l.arrayIndexOf)
	l.method(proto, "lastIndexOf", 1, l.arrayLastIndexOf)
	l.method(proto, "includes", 1, l.arrayIncludes)
	l.method(proto, "find", 1, l.arrayFinder(false, false))
	l.method(proto, "findIndex", 1, l.arrayFinder(false, true))
	l.method(proto, "findLast", 1, l.arrayFinder(true, false))
	l.method(proto, "findLastIndex", 1, l.arrayFinder(true, true))
	l.method(proto, "forEach", 1, l.arrayForEach)
	l.method(proto, "map", 1, l.arrayMap)
	l.method(proto, "filter", 1, l.arrayFilter)
	l.method(proto, "some", 1, l.arraySome)
	l.method(proto, "every", 1, l.arrayEvery)
	l.method(proto, "reduce", 1, l.arrayReducer(false))
	l.method(proto, "reduceRight", 1, l.arrayReducer(true))
	l.method(proto, "sort", 1, l.arraySort)
	l.method(proto, "toSorted", 1, l.arrayToSorted)
	l.method(proto, "reverse", 0, arrayReverse)
	l.method(proto, "toReversed", 0, l.arrayToReversed)
	l.method(proto, "fill", 1, arrayFill)
	l.method(proto, "copyWithin", 2, arrayCopyWithin)
	l.method(proto, "join", 1, l.arrayJoin)
	l.method(proto, "toString", 0, l.arrayToString)
	l.method(proto, "toLocaleString", 0, l.arrayToString)
	l.method(proto, "flat", 0, l.arrayFlat)
	l.method(proto, "flatMap", 1, l.arrayFlatMap)
	l.method(proto, "at", 1, l.arrayAt)
	l.method(proto, "with", 2, l.arrayWith)
	l.method(proto, "toSpliced", 2, l.arrayToSpliced)
	l.method(proto, "keys", 0, l.arrayIteratorMethod("keys"))
	l.method(proto, "entries", 0, l.arrayIteratorMethod("entries"))
	values := l.fn("values", 0, l.arrayIteratorMethod("values"))
	setDataProp(proto, "values", values, true, false, true)
	proto.DefineSymbol(runtime.SymbolIterator, &runtime.Property{Value: values, Writable: true, Configurable: true})

	ctor := l.constructor("Array", 1, proto, l.arrayCall, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		data, err := arrayArgs(args)
		if err != nil {
			return nil, err
		}
		this.Object.OType = runtime.ObjTypeArray
		this.Object.ArrayData = data
		return this, nil
	})
	l.method(ctor, "isArray", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewBool(isArray(argAt(args, 0))), nil
	})
	l.method(ctor, "of", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return l.realm.ArrayValue(append([]*runtime.Value(nil), args...)), nil
	})
	l.method(ctor, "from", 1, l.arrayFrom)
}

func (l *lib) arrayCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	data, err := arrayArgs(args)
	if err != nil {
		return nil, err
	}
	return l.realm.ArrayValue(data), nil
}

// arrayArgs implements the Array(len) / Array(...items) split.
func arrayArgs(args []*runtime.Value) ([]*runtime.Value, error) {
	if len(args) == 1 && args[0].IsNumber() {
		n := args[0].ToNumber()
		if n < 0 || n != math.Trunc(n) || n > math.MaxUint32 {
			return nil, runtime.NewRangeError("Invalid array length")
		}
		return make([]*runtime.Value, int(n)), nil
	}
	return append([]*runtime.Value(nil), args...), nil
}

func (l *lib) arrayFrom(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	src := argAt(args, 0)
	if src.IsNullish() {
		return nil, runtime.NewTypeError("%s is not iterable", src.ToString())
	}
	var items []*runtime.Value
	var err error
	if isIterable(src) {
		items, err = runtime.IterateToSlice(l.realm, src)
	} else if src.IsObject() {
		items, err = elements(src.Object)
	}
	if err != nil {
		return nil, err
	}
	mapFn := argAt(args, 1)
	if mapFn.Type != runtime.TypeUndefined && !mapFn.IsCallable() {
		return nil, runtime.NewTypeError("%s is not a function", describe(mapFn))
	}
	for i, item := range items {
		item = orUndefined(item)
		if mapFn.IsCallable() {
			if item, err = runtime.Call(mapFn, argAt(args, 2), []*runtime.Value{item, runtime.NewInt(int64(i))}); err != nil {
				return nil, err
			}
		}
		items[i] = item
	}
	return l.realm.ArrayValue(items), nil
}

// mutableArray returns the receiver of a length-changing method.
func mutableArray(this *runtime.Value, method string) (*runtime.Object, error) {
	if !this.IsObject() || this.Object.OType != runtime.ObjTypeArray {
		return nil, runtime.NewTypeError("Array.prototype.%s called on non-array %s", method, describe(this))
	}
	if this.Object.Frozen {
		return nil, runtime.NewTypeError("Cannot add property %d, object is not extensible", len(this.Object.ArrayData))
	}
	return this.Object, nil
}

// indexedReceiver returns a receiver whose elements live in ArrayData and
// may be rewritten in place.
func indexedReceiver(this *runtime.Value, method string) (*runtime.Object, error) {
	if !this.IsObject() || !hasIndexedData(this.Object) {
		return nil, runtime.NewTypeError("Array.prototype.%s called on non-array %s", method, describe(this))
	}
	if this.Object.Frozen {
		return nil, runtime.NewTypeError("Cannot assign to read only property '0' of object")
	}
	return this.Object, nil
}

// receiverElements snapshots the receiver as an array-like.
func (l *lib) receiverElements(this *runtime.Value) (*runtime.Object, []*runtime.Value, error) {
	obj, err := l.realm.ToObject(this)
	if err != nil {
		return nil, nil, err
	}
	if s, ok := obj.Internal["primitive"].(*runtime.Value); ok && s.Type == runtime.TypeString {
		runes := []rune(s.Str)
		out := make([]*runtime.Value, len(runes))
		for i, r := range runes {
			out[i] = runtime.NewString(string(r))
		}
		return obj, out, nil
	}
	els, err := elements(obj)
	return obj, els, err
}

// elementAt reads index i live, reporting whether it is present.
func elementAt(obj *runtime.Object, i int) (*runtime.Value, bool, error) {
	if hasIndexedData(obj) {
		if i < len(obj.ArrayData) && obj.ArrayData[i] != nil {
			return obj.ArrayData[i], true, nil
		}
		return runtime.Undefined, false, nil
	}
	key := itoa(i)
	if !obj.HasProperty(key) {
		return runtime.Undefined, false, nil
	}
	v, err := obj.GetValue(key)
	return v, true, err
}

func arrayPush(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := mutableArray(this, "push")
	if err != nil {
		return nil, err
	}
	arr.ArrayData = append(arr.ArrayData, args...)
	return runtime.NewInt(int64(len(arr.ArrayData))), nil
}

func arrayPop(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := mutableArray(this, "pop")
	if err != nil {
		return nil, err
	}
	n := len(arr.ArrayData)
	if n == 0 {
		return runtime.Undefined, nil
	}
	last := arr.ArrayData[n-1]
	arr.ArrayData = arr.ArrayData[:n-1]
	return orUndefined(last), nil
}

func arrayShift(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := mutableArray(this, "shift")
	if err != nil {
		return nil, err
	}
	if len(arr.ArrayData) == 0 {
		return runtime.Undefined, nil
	}
	first := arr.ArrayData[0]
	arr.ArrayData = append([]*runtime.Value(nil), arr.ArrayData[1:]...)
	return orUndefined(first), nil
}

func arrayUnshift(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := mutableArray(this, "unshift")
	if err != nil {
		return nil, err
	}
	arr.ArrayData = append(append([]*runtime.Value(nil), args...), arr.ArrayData...)
	return runtime.NewInt(int64(len(arr.ArrayData))), nil
}

// spliceBounds resolves start and deleteCount for splice and toSpliced.
func spliceBounds(args []*runtime.Value, length int) (int, int, error) {
	start, err := relativeIndex(argAt(args, 0), length, 0)
	if err != nil {
		return 0, 0, err
	}
	count := 0
	switch {
	case len(args) == 0:
	case len(args) == 1:
		count = length - start
	default:
		n, err := toInteger(args[1])
		if err != nil {
			return 0, 0, err
		}
		count = int(math.Max(0, math.Min(n, float64(length-start))))
	}
	return start, count, nil
}

func (l *lib) arraySplice(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := mutableArray(this, "splice")
	if err != nil {
		return nil, err
	}
	start, count, err := spliceBounds(args, len(arr.ArrayData))
	if err != nil {
		return nil, err
	}
	var items []*runtime.Value
	if len(args) > 2 {
		items = args[2:]
	}
	removed := append([]*runtime.Value(nil), arr.ArrayData[start:start+count]...)
	out := make([]*runtime.Value, 0, len(arr.ArrayData)-count+len(items))
	out = append(out, arr.ArrayData[:start]...)
	out = append(out, items...)
	out = append(out, arr.ArrayData[start+count:]...)
	arr.ArrayData = out
	return l.realm.ArrayValue(removed), nil
}

func (l *lib) arrayToSpliced(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, els, err := l.receiverElements(this)
	if err != nil {
		return nil, err
	}
	start, count, err := spliceBounds(args, len(els))
	if err != nil {
		return nil, err
	}
	out := append([]*runtime.Value(nil), els[:start]...)
	if len(args) > 2 {
		out = append(out, args[2:]...)
	}
	out = append(out, els[start+count:]...)
	for i, v := range out {
		out[i] = orUndefined(v)
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) arraySlice(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, els, err := l.receiverElements(this)
	if err != nil {
		return nil, err
	}
	start, err := relativeIndex(argAt(args, 0), len(els), 0)
	if err != nil {
		return nil, err
	}
	end, err := relativeIndex(argAt(args, 1), len(els), len(els))
	if err != nil {
		return nil, err
	}
	if end < start {
		end = start
	}
	return l.realm.ArrayValue(append([]*runtime.Value(nil), els[start:end]...)), nil
}

func (l *lib) arrayConcat(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj, err := l.realm.ToObject(this)
	if err != nil {
		return nil, err
	}
	var out []*runtime.Value
	for _, item := range append([]*runtime.Value{runtime.NewObject(obj)}, args...) {
		if isArray(item) {
			out = append(out, item.Object.ArrayData...)
			continue
		}
		out = append(out, item)
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) arrayIndexOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, els, err := l.receiverElements(this)
	if err != nil {
		return nil, err
	}
	from, err := relativeIndex(argAt(args, 1), len(els), 0)
	if err != nil {
		return nil, err
	}
	target := argAt(args, 0)
	for i := from; i < len(els); i++ {
		if els[i] != nil && runtime.StrictEquals(els[i], target) {
			return runtime.NewInt(int64(i)), nil
		}
	}
	return runtime.NewInt(-1), nil
}

func (l *lib) arrayLastIndexOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, els, err := l.receiverElements(this)
	if err != nil {
		return nil, err
	}
	from := len(els) - 1
	if len(args) > 1 {
		n, err := toInteger(args[1])
		if err != nil {
			return nil, err
		}
		if n < 0 {
			n += float64(len(els))
		}
		from = int(math.Min(n, float64(len(els)-1)))
	}
	target := argAt(args, 0)
	for i := from; i >= 0; i-- {
		if els[i] != nil && runtime.StrictEquals(els[i], target) {
			return runtime.NewInt(int64(i)), nil
		}
	}
	return runtime.NewInt(-1), nil
}

func (l *lib) arrayIncludes(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, els, err := l.receiverElements(this)
	if err != nil {
		return nil, err
	}
	from, err := relativeIndex(argAt(args, 1), len(els), 0)
	if err != nil {
		return nil, err
	}
	target := argAt(args, 0)
	for i := from; i < len(els); i++ {
		if runtime.SameValueZero(orUndefined(els[i]), target) {
			return runtime.True, nil
		}
	}
	return runtime.False, nil
}

// arrayFinder builds find, findIndex, findLast and findLastIndex. Holes
// are visited as undefined.
func (l *lib) arrayFinder(fromEnd, wantIndex bool) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		obj, els, err := l.receiverElements(this)
		if err != nil {
			return nil, err
		}
		cb, err := callbackArg(args, 0)
		if err != nil {
			return nil, err
		}
		for k := range els {
			i := k
			if fromEnd {
				i = len(els) - 1 - k
			}
			v, _, err := elementAt(obj, i)
			if err != nil {
				return nil, err
			}
			ok, err := runtime.Call(cb, argAt(args, 1), []*runtime.Value{v, runtime.NewInt(int64(i)), runtime.NewObject(obj)})
			if err != nil {
				return nil, err
			}
			if ok.ToBoolean() {
				if wantIndex {
					return runtime.NewInt(int64(i)), nil
				}
				return v, nil
			}
		}
		if wantIndex {
			return runtime.NewInt(-1), nil
		}
		return runtime.Undefined, nil
	}
}

// eachPresent calls visit for each present element, reading live so
// callbacks observe earlier mutations. visit returns false to stop.
func (l *lib) eachPresent(this *runtime.Value, args []*runtime.Value, visit func(i int, v, res *runtime.Value) bool) (*runtime.Object, int, error) {
	obj, els, err := l.receiverElements(this)
	if err != nil {
		return nil, 0, err
	}
	cb, err := callbackArg(args, 0)
	if err != nil {
		return nil, 0, err
	}
	for i := range els {
		v, present, err := elementAt(obj, i)
		if err != nil {
			return nil, 0, err
		}
		if !present {
			if s, ok := obj.Internal["primitive"].(*runtime.Value); !ok || s.Type != runtime.TypeString {
				continue
			}
			v = els[i]
		}
		res, err := runtime.Call(cb, argAt(args, 1), []*runtime.Value{v, runtime.NewInt(int64(i)), runtime.NewObject(obj)})
		if err != nil {
			return nil, 0, err
		}
		if !visit(i, v, res) {
			break
		}
	}
	return obj, len(els), nil
}

func (l *lib) arrayForEach(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, _, err := l.eachPresent(this, args, func(int, *runtime.Value, *runtime.Value) bool { return true })
	if err != nil {
		return nil, err
	}
	return runtime.Undefined, nil
}

func (l *lib) arrayMap(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	var out []*runtime.Value
	_, n, err := l.eachPresent(this, args, func(i int, _, res *runtime.Value) bool {
		if out == nil {
			out = make([]*runtime.Value, i+1)
		}
		for len(out) <= i {
			out = append(out, nil)
		}
		out[i] = res
		return true
	})
	if err != nil {
		return nil, err
	}
	for len(out) < n {
		out = append(out, nil)
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) arrayFilter(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	var out []*runtime.Value
	_, _, err := l.eachPresent(this, args, func(_ int, v, res *runtime.Value) bool {
		if res.ToBoolean() {
			out = append(out, v)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) arraySome(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	found := false
	_, _, err := l.eachPresent(this, args, func(_ int, _, res *runtime.Value) bool {
		found = res.ToBoolean()
		return !found
	})
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(found), nil
}

func (l *lib) arrayEvery(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	all := true
	_, _, err := l.eachPresent(this, args, func(_ int, _, res *runtime.Value) bool {
		all = res.ToBoolean()
		return all
	})
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(all), nil
}

func (l *lib) arrayReducer(fromEnd bool) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		obj, els, err := l.receiverElements(this)
		if err != nil {
			return nil, err
		}
		cb, err := callbackArg(args, 0)
		if err != nil {
			return nil, err
		}
		order := make([]int, 0, len(els))
		for k := range els {
			i := k
			if fromEnd {
				i = len(els) - 1 - k
			}
			order = append(order, i)
		}
		var acc *runtime.Value
		if len(args) > 1 {
			acc = args[1]
		}
		for _, i := range order {
			v, present, err := elementAt(obj, i)
			if err != nil {
				return nil, err
			}
			if !present {
				if els[i] == nil {
					continue
				}
				v = els[i]
			}
			if acc == nil {
				acc = v
				continue
			}
			if acc, err = runtime.Call(cb, runtime.Undefined, []*runtime.Value{acc, v, runtime.NewInt(int64(i)), runtime.NewObject(obj)}); err != nil {
				return nil, err
			}
		}
		if acc == nil {
			return nil, runtime.NewTypeError("Reduce of empty array with no initial value")
		}
		return acc, nil
	}
}

// sortValues sorts a copy of els: undefined after defined values, holes
// last, others by comparator or by string order.
func (l *lib) sortValues(els []*runtime.Value, cmp *runtime.Value) ([]*runtime.Value, error) {
	if cmp.Type != runtime.TypeUndefined && !cmp.IsCallable() {
		return nil, runtime.NewTypeError("The comparison function must be either a function or undefined")
	}
	var defined []*runtime.Value
	undefined, holes := 0, 0
	for _, v := range els {
		switch {
		case v == nil:
			holes++
		case v.Type == runtime.TypeUndefined:
			undefined++
		default:
			defined = append(defined, v)
		}
	}
	var sortErr error
	keys := make([]string, len(defined))
	if !cmp.IsCallable() {
		for i, v := range defined {
			s, err := toString(v)
			if err != nil {
				return nil, err
			}
			keys[i] = s
		}
	}
	idx := make([]int, len(defined))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		x, y := idx[a], idx[b]
		if !cmp.IsCallable() {
			return keys[x] < keys[y]
		}
		res, err := runtime.Call(cmp, runtime.Undefined, []*runtime.Value{defined[x], defined[y]})
		if err != nil {
			sortErr = err
			return false
		}
		n, err := toNumber(res)
		if err != nil {
			sortErr = err
			return false
		}
		return n < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	out := make([]*runtime.Value, 0, len(els))
	for _, i := range idx {
		out = append(out, defined[i])
	}
	for ; undefined > 0; undefined-- {
		out = append(out, runtime.Undefined)
	}
	for ; holes > 0; holes-- {
		out = append(out, nil)
	}
	return out, nil
}

func (l *lib) arraySort(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := indexedReceiver(this, "sort")
	if err != nil {
		return nil, err
	}
	sorted, err := l.sortValues(arr.ArrayData, argAt(args, 0))
	if err != nil {
		return nil, err
	}
	if arr.OType == runtime.ObjTypeTypedArray {
		for i, v := range sorted {
			arr.ArrayData[i] = v
		}
		return this, nil
	}
	arr.ArrayData = sorted
	return this, nil
}

func (l *lib) arrayToSorted(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, els, err := l.receiverElements(this)
	if err != nil {
		return nil, err
	}
	for i, v := range els {
		els[i] = orUndefined(v)
	}
	sorted, err := l.sortValues(els, argAt(args, 0))
	if err != nil {
		return nil, err
	}
	return l.realm.ArrayValue(sorted), nil
}

func arrayReverse(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := indexedReceiver(this, "reverse")
	if err != nil {
		return nil, err
	}
	d := arr.ArrayData
	for i, j := 0, len(d)-1; i < j; i, j = i+1, j-1 {
		d[i], d[j] = d[j], d[i]
	}
	return this, nil
}

func (l *lib) arrayToReversed(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, els, err := l.receiverElements(this)
	if err != nil {
		return nil, err
	}
	out := make([]*runtime.Value, len(els))
	for i, v := range els {
		out[len(els)-1-i] = orUndefined(v)
	}
	return l.realm.ArrayValue(out), nil
}

func arrayFill(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := indexedReceiver(this, "fill")
	if err != nil {
		return nil, err
	}
	n := len(arr.ArrayData)
	start, err := relativeIndex(argAt(args, 1), n, 0)
	if err != nil {
		return nil, err
	}
	end, err := relativeIndex(argAt(args, 2), n, n)
	if err != nil {
		return nil, err
	}
	v := argAt(args, 0)
	if arr.OType == runtime.ObjTypeTypedArray {
		if v, err = coerceTyped(arr, v); err != nil {
			return nil, err
		}
	}
	for i := start; i < end; i++ {
		arr.ArrayData[i] = v
	}
	return this, nil
}

func arrayCopyWithin(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := indexedReceiver(this, "copyWithin")
	if err != nil {
		return nil, err
	}
	n := len(arr.ArrayData)
	target, err := relativeIndex(argAt(args, 0), n, 0)
	if err != nil {
		return nil, err
	}
	start, err := relativeIndex(argAt(args, 1), n, 0)
	if err != nil {
		return nil, err
	}
	end, err := relativeIndex(argAt(args, 2), n, n)
	if err != nil {
		return nil, err
	}
	if end > start {
		chunk := append([]*runtime.Value(nil), arr.ArrayData[start:end]...)
		copy(arr.ArrayData[target:], chunk)
	}
	return this, nil
}

func (l *lib) arrayJoin(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj, err := l.realm.ToObject(this)
	if err != nil {
		return nil, err
	}
	sep := ","
	if s := argAt(args, 0); s.Type != runtime.TypeUndefined {
		if sep, err = toString(s); err != nil {
			return nil, err
		}
	}
	if l.joining[obj] {
		return runtime.EmptyStr, nil
	}
	l.joining[obj] = true
	defer delete(l.joining, obj)
	els, err := elements(obj)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(els))
	for i, v := range els {
		if v == nil || v.IsNullish() {
			continue
		}
		if parts[i], err = toString(v); err != nil {
			return nil, err
		}
	}
	return runtime.NewString(strings.Join(parts, sep)), nil
}

func (l *lib) arrayToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if this.IsObject() {
		join, err := this.Object.GetValue("join")
		if err != nil {
			return nil, err
		}
		if join.IsCallable() {
			return runtime.Call(join, this, nil)
		}
	}
	return objectToString(this, nil)
}

func (l *lib) arrayFlat(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, els, err := l.receiverElements(this)
	if err != nil {
		return nil, err
	}
	depth := 1.0
	if d := argAt(args, 0); d.Type != runtime.TypeUndefined {
		if depth, err = toInteger(d); err != nil {
			return nil, err
		}
	}
	return l.realm.ArrayValue(flatten(els, depth)), nil
}

func flatten(els []*runtime.Value, depth float64) []*runtime.Value {
	var out []*runtime.Value
	for _, v := range els {
		if v == nil {
			continue
		}
		if depth >= 1 && isArray(v) {
			out = append(out, flatten(v.Object.ArrayData, depth-1)...)
			continue
		}
		out = append(out, v)
	}
	return out
}

func (l *lib) arrayFlatMap(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	var mapped []*runtime.Value
	_, _, err := l.eachPresent(this, args, func(_ int, _, res *runtime.Value) bool {
		mapped = append(mapped, res)
		return true
	})
	if err != nil {
		return nil, err
	}
	return l.realm.ArrayValue(flatten(mapped, 1)), nil
}

// absoluteIndex resolves at/with positions, reporting out-of-range ones.
func absoluteIndex(v *runtime.Value, length int) (int, bool, error) {
	n, err := toInteger(v)
	if err != nil {
		return 0, false, err
	}
	if n < 0 {
		n += float64(length)
	}
	if n < 0 || n >= float64(length) {
		return 0, false, nil
	}
	return int(n), true, nil
}

func (l *lib) arrayAt(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, els, err := l.receiverElements(this)
	if err != nil {
		return nil, err
	}
	i, ok, err := absoluteIndex(argAt(args, 0), len(els))
	if err != nil || !ok {
		return runtime.Undefined, err
	}
	return orUndefined(els[i]), nil
}

func (l *lib) arrayWith(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	_, els, err := l.receiverElements(this)
	if err != nil {
		return nil, err
	}
	i, ok, err := absoluteIndex(argAt(args, 0), len(els))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, runtime.NewRangeError("Invalid index : %s", argAt(args, 0).ToString())
	}
	for k, v := range els {
		els[k] = orUndefined(v)
	}
	els[i] = argAt(args, 1)
	return l.realm.ArrayValue(els), nil
}

// arrayIteratorMethod builds keys, values and entries. The iterator
// reads the receiver live, so elements pushed during iteration are seen.
func (l *lib) arrayIteratorMethod(kind string) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		obj, err := l.realm.ToObject(this)
		if err != nil {
			return nil, err
		}
		i := 0
		it := runtime.IteratorOf(func() (*runtime.Value, bool, error) {
			n, err := lengthOf(obj)
			if err != nil {
				return nil, true, err
			}
			if i >= n {
				return runtime.Undefined, true, nil
			}
			idx := i
			i++
			if kind == "keys" {
				return runtime.NewInt(int64(idx)), false, nil
			}
			v, _, err := elementAt(obj, idx)
			if err != nil {
				return nil, true, err
			}
			if kind == "entries" {
				return l.realm.ArrayValue([]*runtime.Value{runtime.NewInt(int64(idx)), v}), false, nil
			}
			return v, false, nil
		})
		return l.iteratorValue(l.realm.ArrayIteratorPrototype, it), nil
	}
}
