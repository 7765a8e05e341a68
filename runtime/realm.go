package runtime

import (
	"math/big"
	"strconv"
	"unicode/utf8"
)

// Realm owns the intrinsic prototypes and the job queue shared by one
// global environment. Builtins populate the prototypes; the interpreter and
// the scheduler only read them.
type Realm struct {
	ObjectPrototype         *Object
	FunctionPrototype       *Object
	ArrayPrototype          *Object
	ErrorPrototype          *Object
	ErrorPrototypes         map[string]*Object
	PromisePrototype        *Object
	IteratorPrototype       *Object
	ArrayIteratorPrototype  *Object
	GeneratorPrototype      *Object
	AsyncGeneratorPrototype *Object
	StringPrototype         *Object
	NumberPrototype         *Object
	BooleanPrototype        *Object
	SymbolPrototype         *Object
	BigIntPrototype         *Object
	MapPrototype            *Object
	SetPrototype            *Object
	TypedArrayPrototype     *Object

	// Constructors maps intrinsic constructor names to their objects.
	Constructors map[string]*Object
	// IntrinsicThen is Promise.prototype.then; promises still using it are
	// adopted without a script-visible call.
	IntrinsicThen *Object
	// SymbolRegistry backs Symbol.for / Symbol.keyFor.
	SymbolRegistry map[string]*Symbol

	GlobalObject *Object
	Global       *Environment

	enqueue func(job func() error)
	jobs    []func() error
}

// NewRealm creates a realm with empty intrinsic prototypes wired into a
// prototype chain rooted at ObjectPrototype.
func NewRealm() *Realm {
	r := &Realm{
		ErrorPrototypes: make(map[string]*Object),
		Constructors:    make(map[string]*Object),
		SymbolRegistry:  make(map[string]*Symbol),
	}
	r.ObjectPrototype = &Object{OType: ObjTypeOrdinary}
	proto := func() *Object { return NewOrdinaryObject(r.ObjectPrototype) }
	r.FunctionPrototype = NewFunctionObject(r.ObjectPrototype, func(this *Value, args []*Value) (*Value, error) {
		return Undefined, nil
	})
	r.ArrayPrototype = NewArrayObject(r.ObjectPrototype, nil)
	r.ErrorPrototype = proto()
	r.ErrorPrototypes[KindError] = r.ErrorPrototype
	for _, kind := range []string{KindTypeError, KindReferenceError, KindSyntaxError, KindRangeError, KindURIError, KindEvalError} {
		r.ErrorPrototypes[kind] = NewOrdinaryObject(r.ErrorPrototype)
	}
	r.PromisePrototype = proto()
	r.IteratorPrototype = proto()
	r.ArrayIteratorPrototype = NewOrdinaryObject(r.IteratorPrototype)
	r.GeneratorPrototype = NewOrdinaryObject(r.IteratorPrototype)
	r.AsyncGeneratorPrototype = proto()
	r.StringPrototype = proto()
	r.NumberPrototype = proto()
	r.BooleanPrototype = proto()
	r.SymbolPrototype = proto()
	r.BigIntPrototype = proto()
	r.MapPrototype = proto()
	r.SetPrototype = proto()
	r.TypedArrayPrototype = proto()
	r.GlobalObject = proto()
	r.Global = NewEnvironment(nil, ScopeGlobal)
	return r
}

// SetJobQueue routes EnqueueJob to an external queue such as a scheduler's
// microtask queue.
func (r *Realm) SetJobQueue(enqueue func(job func() error)) {
	r.enqueue = enqueue
}

// EnqueueJob schedules a microtask.
func (r *Realm) EnqueueJob(job func() error) {
	if r.enqueue != nil {
		r.enqueue(job)
		return
	}
	r.jobs = append(r.jobs, job)
}

// RunJobs drains the internal job queue, including jobs queued while
// draining. It is used when no external queue is attached.
func (r *Realm) RunJobs() error {
	for len(r.jobs) > 0 {
		job := r.jobs[0]
		r.jobs = r.jobs[1:]
		if err := job(); err != nil {
			return err
		}
	}
	return nil
}

// PendingJobs reports the length of the internal job queue.
func (r *Realm) PendingJobs() int {
	return len(r.jobs)
}

// NewObject creates a plain object inheriting from Object.prototype.
func (r *Realm) NewObject() *Object {
	return NewOrdinaryObject(r.ObjectPrototype)
}

// NewArray creates an array inheriting from Array.prototype.
func (r *Realm) NewArray(elements []*Value) *Object {
	return NewArrayObject(r.ArrayPrototype, elements)
}

// ArrayValue wraps elements in a new array value.
func (r *Realm) ArrayValue(elements []*Value) *Value {
	return NewObject(r.NewArray(elements))
}

// NewFunction creates a native function with non-enumerable name and length.
func (r *Realm) NewFunction(name string, length int, fn CallableFunc) *Object {
	obj := NewFunctionObject(r.FunctionPrototype, fn)
	obj.DefineProperty("length", &Property{Value: NewInt(int64(length)), Configurable: true})
	obj.DefineProperty("name", &Property{Value: NewString(name), Configurable: true})
	return obj
}

// NewErrorValue creates an error object of kind with message.
func (r *Realm) NewErrorValue(kind, message string) *Value {
	proto, ok := r.ErrorPrototypes[kind]
	if !ok {
		proto = r.ErrorPrototype
	}
	return NewObject(NewErrorObject(proto, kind, message))
}

// ErrorToValue converts a Go error into the value a catch clause binds.
func (r *Realm) ErrorToValue(err error) *Value {
	if tv, ok := AsThrown(err); ok {
		return tv.Value
	}
	if re, ok := AsRuntimeError(err); ok {
		return r.NewErrorValue(re.Kind, re.Message)
	}
	return r.NewErrorValue(KindError, err.Error())
}

// ToObject boxes primitives into wrapper objects.
func (r *Realm) ToObject(v *Value) (*Object, error) {
	switch v.Type {
	case TypeUndefined, TypeNull:
		return nil, NewTypeError("Cannot convert undefined or null to object")
	case TypeObject:
		return v.Object, nil
	case TypeBoolean:
		return r.wrapPrimitive(ObjTypeBoolean, r.BooleanPrototype, v), nil
	case TypeNumber, TypeFloat:
		return r.wrapPrimitive(ObjTypeNumber, r.NumberPrototype, v), nil
	case TypeString:
		return r.wrapPrimitive(ObjTypeString, r.StringPrototype, v), nil
	case TypeSymbol:
		return r.wrapPrimitive(ObjTypeOrdinary, r.SymbolPrototype, v), nil
	case TypeBigInt:
		return r.wrapPrimitive(ObjTypeOrdinary, r.BigIntPrototype, v), nil
	}
	return nil, NewTypeError("Cannot convert value to object")
}

func (r *Realm) wrapPrimitive(kind ObjectType, proto *Object, v *Value) *Object {
	obj := &Object{OType: kind, Prototype: proto}
	obj.SetInternal("primitive", v)
	return obj
}

// PrototypeOf returns the prototype used for property lookups on v.
func (r *Realm) PrototypeOf(v *Value) *Object {
	switch v.Type {
	case TypeObject:
		return v.Object.Prototype
	case TypeBoolean:
		return r.BooleanPrototype
	case TypeNumber, TypeFloat:
		return r.NumberPrototype
	case TypeString:
		return r.StringPrototype
	case TypeSymbol:
		return r.SymbolPrototype
	case TypeBigInt:
		return r.BigIntPrototype
	}
	return nil
}

// GetMember reads v[key] for any base value. Strings expose length and
// per-character indices; other primitives read through their prototype.
func (r *Realm) GetMember(v *Value, key *Value) (*Value, error) {
	if v.IsNullish() {
		return nil, NewTypeError("Cannot read properties of %s (reading '%s')", v.ToString(), key.ToString())
	}
	name, sym, err := ToPropertyKey(key)
	if err != nil {
		return nil, err
	}
	if v.IsObject() {
		if sym != nil {
			return v.Object.GetSymbol(sym), nil
		}
		if s, ok := stringPrimitive(v.Object); ok {
			if res, ok := stringMember(s, name); ok {
				return res, nil
			}
		}
		return v.Object.GetValue(name)
	}
	if v.Type == TypeString {
		if res, ok := stringMember(v.Str, name); ok {
			return res, nil
		}
	}
	proto := r.PrototypeOf(v)
	if proto == nil {
		return Undefined, nil
	}
	if sym != nil {
		return symbolWithReceiver(proto, sym, v)
	}
	return proto.getWithReceiver(name, v)
}

// Get reads a named property of any base value.
func (r *Realm) Get(v *Value, name string) (*Value, error) {
	return r.GetMember(v, NewString(name))
}

func symbolWithReceiver(proto *Object, sym *Symbol, receiver *Value) (*Value, error) {
	for cur := proto; cur != nil; cur = cur.Prototype {
		if prop, ok := cur.symbols[sym]; ok {
			if prop.IsAccessor {
				if prop.Getter == nil || !prop.Getter.IsCallable() {
					return Undefined, nil
				}
				return prop.Getter.Object.Callable(receiver, nil)
			}
			return prop.Value, nil
		}
	}
	return Undefined, nil
}

func stringPrimitive(o *Object) (string, bool) {
	if o.OType != ObjTypeString {
		return "", false
	}
	p, ok := o.Internal["primitive"].(*Value)
	if !ok {
		return "", false
	}
	return p.Str, true
}

func stringMember(s, name string) (*Value, bool) {
	if name == "length" {
		return NewInt(int64(utf8.RuneCountInString(s))), true
	}
	if idx, ok := ArrayIndex(name); ok {
		runes := []rune(s)
		if idx < len(runes) {
			return NewString(string(runes[idx])), true
		}
		return Undefined, true
	}
	return nil, false
}

// Call invokes fn with this and args, failing with a TypeError when fn is
// not callable.
func Call(fn, this *Value, args []*Value) (*Value, error) {
	if !fn.IsCallable() {
		return nil, NewTypeError("%s is not a function", describeCallee(fn))
	}
	return fn.Object.Callable(this, args)
}

func describeCallee(v *Value) string {
	switch v.Type {
	case TypeString:
		return strconv.Quote(v.Str)
	case TypeObject:
		return "object"
	}
	return v.ToString()
}

// SymbolFor returns the registry symbol for key, creating it on first use.
func (r *Realm) SymbolFor(key string) *Symbol {
	if sym, ok := r.SymbolRegistry[key]; ok {
		return sym
	}
	sym := &Symbol{Description: key}
	r.SymbolRegistry[key] = sym
	return sym
}

// BigIntFromNumber converts an integral number to a BigInt.
func BigIntFromNumber(v *Value) (*big.Int, error) {
	if v.Type == TypeNumber {
		return big.NewInt(v.Int), nil
	}
	f := v.ToNumber()
	if f != f || f-f != 0 {
		return nil, NewRangeError("The number %s cannot be converted to a BigInt because it is not an integer", FormatNumber(f))
	}
	bf := new(big.Float).SetFloat64(f)
	if !bf.IsInt() {
		return nil, NewRangeError("The number %s cannot be converted to a BigInt because it is not an integer", FormatNumber(f))
	}
	n, _ := bf.Int(nil)
	return n, nil
}
