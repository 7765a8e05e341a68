package runtime

import (
	"sort"
	"strconv"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// ObjectType describes the kind of object.
type ObjectType int

const (
	ObjTypeOrdinary ObjectType = iota
	ObjTypeArray
	ObjTypeFunction
	ObjTypeError
	ObjTypeBoolean
	ObjTypeNumber
	ObjTypeString
	ObjTypeMap
	ObjTypeSet
	ObjTypePromise
	ObjTypeIterator
	ObjTypeTypedArray
	ObjTypeNode
	ObjTypeNodeList
	ObjTypeNamespace
)

// CallableFunc is the Go function signature for callable objects.
type CallableFunc func(this *Value, args []*Value) (*Value, error)

// HostObject lets embedders own some properties of an object. Handled
// reports whether the host claimed the property.
type HostObject interface {
	GetHost(name string) (v *Value, handled bool, err error)
	SetHost(name string, v *Value) (handled bool, err error)
}

// HostKeyLister is implemented by hosts whose properties should show up
// in key enumeration.
type HostKeyLister interface {
	HostKeys() []string
}

// Object is a script object. Properties keep insertion order.
type Object struct {
	OType     ObjectType
	Prototype *Object
	Callable  CallableFunc
	// Constructor runs for `new`; this is the freshly allocated object
	// and the result is the constructed value.
	Constructor CallableFunc
	Internal    map[string]interface{}
	Frozen      bool

	ArrayData  []*Value
	Collection *OrderedMap
	Promise    *Promise
	Host       HostObject

	// Internal iterators produced by the engine.
	IteratorNext   func() (value *Value, done bool, err error)
	IteratorReturn func() error

	props       *linkedhashmap.Map
	symbols     map[*Symbol]*Property
	symbolOrder []*Symbol
}

// Property is a property descriptor.
type Property struct {
	Value        *Value
	Getter       *Value
	Setter       *Value
	Writable     bool
	Enumerable   bool
	Configurable bool
	IsAccessor   bool
}

// NewOrdinaryObject creates a plain object.
func NewOrdinaryObject(proto *Object) *Object {
	return &Object{OType: ObjTypeOrdinary, Prototype: proto}
}

// NewArrayObject creates an array over elements.
func NewArrayObject(proto *Object, elements []*Value) *Object {
	if elements == nil {
		elements = []*Value{}
	}
	return &Object{OType: ObjTypeArray, Prototype: proto, ArrayData: elements}
}

// NewFunctionObject creates a function object.
func NewFunctionObject(proto *Object, callable CallableFunc) *Object {
	return &Object{OType: ObjTypeFunction, Prototype: proto, Callable: callable}
}

// NewErrorObject creates an error object with name and message.
func NewErrorObject(proto *Object, name, message string) *Object {
	obj := &Object{OType: ObjTypeError, Prototype: proto}
	obj.DefineProperty("message", &Property{Value: NewString(message), Writable: true, Configurable: true})
	if proto == nil || proto.Get("name").ToString() != name {
		obj.DefineProperty("name", &Property{Value: NewString(name), Writable: true, Configurable: true})
	}
	obj.DefineProperty("stack", &Property{Value: NewString(name + ": " + message), Writable: true, Configurable: true})
	return obj
}

func (o *Object) properties() *linkedhashmap.Map {
	if o.props == nil {
		o.props = linkedhashmap.New()
	}
	return o.props
}

// SetInternal stores an internal slot.
func (o *Object) SetInternal(key string, v interface{}) {
	if o.Internal == nil {
		o.Internal = make(map[string]interface{})
	}
	o.Internal[key] = v
}

// GetOwnProperty returns the own descriptor for name.
func (o *Object) GetOwnProperty(name string) (*Property, bool) {
	if o.props == nil {
		return nil, false
	}
	p, ok := o.props.Get(name)
	if !ok {
		return nil, false
	}
	return p.(*Property), true
}

// GetValue reads a property through host hooks, array/string indices,
// accessors and the prototype chain.
func (o *Object) GetValue(name string) (*Value, error) {
	return o.getWithReceiver(name, NewObject(o))
}

func (o *Object) getWithReceiver(name string, receiver *Value) (*Value, error) {
	for cur := o; cur != nil; cur = cur.Prototype {
		if cur.Host != nil {
			v, handled, err := cur.Host.GetHost(name)
			if err != nil || handled {
				return v, err
			}
		}
		if cur.OType == ObjTypeArray || cur.OType == ObjTypeTypedArray || cur.OType == ObjTypeNodeList {
			if name == "length" {
				return NewInt(int64(len(cur.ArrayData))), nil
			}
			if idx, ok := ArrayIndex(name); ok {
				if idx < len(cur.ArrayData) {
					if el := cur.ArrayData[idx]; el != nil {
						return el, nil
					}
				}
				return Undefined, nil
			}
		}
		if prop, ok := cur.GetOwnProperty(name); ok {
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

// Get is GetValue with getter errors discarded.
func (o *Object) Get(name string) *Value {
	v, err := o.GetValue(name)
	if err != nil || v == nil {
		return Undefined
	}
	return v
}

// Put writes a property, honouring host hooks, setters and writability.
// Writes to non-writable or frozen properties are ignored.
func (o *Object) Put(name string, val *Value) error {
	if o.Host != nil {
		handled, err := o.Host.SetHost(name, val)
		if err != nil || handled {
			return err
		}
	}
	if o.OType == ObjTypeArray || o.OType == ObjTypeTypedArray {
		if name == "length" {
			if o.Frozen {
				return nil
			}
			n := int(val.ToNumber())
			if n < 0 {
				n = 0
			}
			o.setLength(n)
			return nil
		}
		if idx, ok := ArrayIndex(name); ok {
			if o.Frozen {
				return nil
			}
			o.SetIndex(idx, val)
			return nil
		}
	}
	if prop, ok := o.GetOwnProperty(name); ok {
		if prop.IsAccessor {
			if prop.Setter != nil && prop.Setter.IsCallable() {
				_, err := prop.Setter.Object.Callable(NewObject(o), []*Value{val})
				return err
			}
			return nil
		}
		if prop.Writable && !o.Frozen {
			prop.Value = val
		}
		return nil
	}
	for proto := o.Prototype; proto != nil; proto = proto.Prototype {
		if prop, ok := proto.GetOwnProperty(name); ok {
			if prop.IsAccessor {
				if prop.Setter != nil && prop.Setter.IsCallable() {
					_, err := prop.Setter.Object.Callable(NewObject(o), []*Value{val})
					return err
				}
				return nil
			}
			if !prop.Writable {
				return nil
			}
			break
		}
	}
	if o.Frozen {
		return nil
	}
	o.properties().Put(name, &Property{Value: val, Writable: true, Enumerable: true, Configurable: true})
	return nil
}

// Set is Put with setter errors discarded.
func (o *Object) Set(name string, val *Value) {
	_ = o.Put(name, val)
}

// SetIndex writes an array element, growing the array with holes.
func (o *Object) SetIndex(idx int, val *Value) {
	if idx >= len(o.ArrayData) {
		o.setLength(idx + 1)
	}
	o.ArrayData[idx] = val
}

func (o *Object) setLength(n int) {
	if n <= len(o.ArrayData) {
		o.ArrayData = o.ArrayData[:n]
		return
	}
	grown := make([]*Value, n)
	copy(grown, o.ArrayData)
	o.ArrayData = grown
}

// DefineProperty installs a descriptor, replacing any existing one in place.
func (o *Object) DefineProperty(name string, prop *Property) {
	o.properties().Put(name, prop)
}

// Delete removes an own property. It reports false for non-configurable ones.
func (o *Object) Delete(name string) bool {
	if o.Frozen {
		return false
	}
	if o.OType == ObjTypeArray {
		if idx, ok := ArrayIndex(name); ok {
			if idx < len(o.ArrayData) {
				o.ArrayData[idx] = nil
			}
			return true
		}
	}
	prop, ok := o.GetOwnProperty(name)
	if !ok {
		return true
	}
	if !prop.Configurable {
		return false
	}
	o.props.Remove(name)
	return true
}

// HasOwnProperty checks own properties only.
func (o *Object) HasOwnProperty(name string) bool {
	if o.OType == ObjTypeArray || o.OType == ObjTypeTypedArray || o.OType == ObjTypeNodeList {
		if name == "length" {
			return true
		}
		if idx, ok := ArrayIndex(name); ok {
			return idx < len(o.ArrayData) && o.ArrayData[idx] != nil
		}
	}
	if o.Host != nil {
		if _, handled, _ := o.Host.GetHost(name); handled {
			return true
		}
	}
	_, ok := o.GetOwnProperty(name)
	return ok
}

// HasProperty checks own properties and the prototype chain.
func (o *Object) HasProperty(name string) bool {
	for cur := o; cur != nil; cur = cur.Prototype {
		if cur.HasOwnProperty(name) {
			return true
		}
	}
	return false
}

// OwnKeys returns own string keys: integer-like keys ascending, then the
// remaining keys in insertion order.
func (o *Object) OwnKeys() []string {
	var indices []int
	var named []string
	if o.OType == ObjTypeArray || o.OType == ObjTypeTypedArray || o.OType == ObjTypeNodeList {
		for i, el := range o.ArrayData {
			if el != nil {
				indices = append(indices, i)
			}
		}
	}
	if lister, ok := o.Host.(HostKeyLister); ok {
		named = append(named, lister.HostKeys()...)
	}
	if o.props != nil {
		it := o.props.Iterator()
		for it.Next() {
			key := it.Key().(string)
			if idx, ok := ArrayIndex(key); ok {
				indices = append(indices, idx)
				continue
			}
			named = append(named, key)
		}
	}
	sort.Ints(indices)
	keys := make([]string, 0, len(indices)+len(named))
	for _, idx := range indices {
		keys = append(keys, strconv.Itoa(idx))
	}
	return append(keys, named...)
}

// IsEnumerable reports whether an own key is enumerable.
func (o *Object) IsEnumerable(name string) bool {
	if o.OType == ObjTypeArray || o.OType == ObjTypeTypedArray || o.OType == ObjTypeNodeList {
		if _, ok := ArrayIndex(name); ok {
			return true
		}
	}
	if lister, ok := o.Host.(HostKeyLister); ok {
		for _, k := range lister.HostKeys() {
			if k == name {
				return true
			}
		}
	}
	prop, ok := o.GetOwnProperty(name)
	return ok && prop.Enumerable
}

// GetSymbol reads a symbol-keyed property through the prototype chain.
func (o *Object) GetSymbol(sym *Symbol) *Value {
	for cur := o; cur != nil; cur = cur.Prototype {
		if prop, ok := cur.symbols[sym]; ok {
			if prop.IsAccessor {
				if prop.Getter == nil || !prop.Getter.IsCallable() {
					return Undefined
				}
				v, err := prop.Getter.Object.Callable(NewObject(o), nil)
				if err != nil {
					return Undefined
				}
				return v
			}
			return prop.Value
		}
	}
	return Undefined
}

// SetSymbol writes a symbol-keyed data property.
func (o *Object) SetSymbol(sym *Symbol, val *Value) {
	if o.symbols == nil {
		o.symbols = make(map[*Symbol]*Property)
	}
	if prop, ok := o.symbols[sym]; ok && !prop.IsAccessor {
		if prop.Writable {
			prop.Value = val
		}
		return
	}
	if _, ok := o.symbols[sym]; !ok {
		o.symbolOrder = append(o.symbolOrder, sym)
	}
	o.symbols[sym] = &Property{Value: val, Writable: true, Enumerable: true, Configurable: true}
}

// DefineSymbol installs a symbol-keyed descriptor.
func (o *Object) DefineSymbol(sym *Symbol, prop *Property) {
	if o.symbols == nil {
		o.symbols = make(map[*Symbol]*Property)
	}
	if _, ok := o.symbols[sym]; !ok {
		o.symbolOrder = append(o.symbolOrder, sym)
	}
	o.symbols[sym] = prop
}

// GetOwnSymbol returns the own descriptor for sym.
func (o *Object) GetOwnSymbol(sym *Symbol) (*Property, bool) {
	prop, ok := o.symbols[sym]
	return prop, ok
}

// OwnSymbols lists own symbol keys in definition order.
func (o *Object) OwnSymbols() []*Symbol {
	out := make([]*Symbol, 0, len(o.symbols))
	for _, sym := range o.symbolOrder {
		if _, ok := o.symbols[sym]; ok {
			out = append(out, sym)
		}
	}
	return out
}

// DeleteSymbol removes an own symbol-keyed property.
func (o *Object) DeleteSymbol(sym *Symbol) bool {
	if prop, ok := o.symbols[sym]; ok {
		if !prop.Configurable || o.Frozen {
			return false
		}
		delete(o.symbols, sym)
		for i, s := range o.symbolOrder {
			if s == sym {
				o.symbolOrder = append(o.symbolOrder[:i], o.symbolOrder[i+1:]...)
				break
			}
		}
	}
	return true
}

// LookupSymbol finds the descriptor for sym along the prototype chain.
func (o *Object) LookupSymbol(sym *Symbol) (*Property, bool) {
	for cur := o; cur != nil; cur = cur.Prototype {
		if prop, ok := cur.symbols[sym]; ok {
			return prop, true
		}
	}
	return nil, false
}

// HasSymbol reports whether sym is reachable through the prototype chain.
func (o *Object) HasSymbol(sym *Symbol) bool {
	for cur := o; cur != nil; cur = cur.Prototype {
		if _, ok := cur.symbols[sym]; ok {
			return true
		}
	}
	return false
}

// IsCallable reports whether the object can be called.
func (o *Object) IsCallable() bool {
	return o != nil && o.Callable != nil
}

// InstanceOf walks the prototype chain looking for proto.
func (o *Object) InstanceOf(proto *Object) bool {
	for cur := o.Prototype; cur != nil; cur = cur.Prototype {
		if cur == proto {
			return true
		}
	}
	return false
}

// ArrayIndex parses a canonical array index key.
func ArrayIndex(key string) (int, bool) {
	if key == "" || len(key) > 10 {
		return 0, false
	}
	if key[0] == '0' && len(key) > 1 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n > 1<<32-2 {
		return 0, false
	}
	return n, true
}
