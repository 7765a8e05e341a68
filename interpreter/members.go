package interpreter

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// propKey is an evaluated property key: a string name or a symbol.
type propKey struct {
	name string
	sym  *runtime.Symbol
}

func (k propKey) value() *runtime.Value {
	if k.sym != nil {
		return runtime.NewSymbolValue(k.sym)
	}
	return runtime.NewString(k.name)
}

func keyDisplay(k propKey) string {
	if k.sym != nil {
		return "[" + k.sym.Description + "]"
	}
	return k.name
}

func accessorName(kind ast.PropertyKind, k propKey) string {
	if kind == ast.PropertyGet {
		return "get " + keyDisplay(k)
	}
	return "set " + keyDisplay(k)
}

// privateKey is the Internal slot of a private member. Names keep their
// leading '#'.
func privateKey(name string) string {
	return name
}

// propertyKeyName is the literal name of a non-computed key.
func propertyKeyName(key ast.Expression) string {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Value
	case *ast.StringLiteral:
		return k.Value
	case *ast.NumberLiteral:
		return runtime.NewNumber(k.Value).ToString()
	case *ast.BigIntLiteral:
		return k.Value.String()
	case *ast.PrivateName:
		return privateKey(k.Name)
	}
	return ""
}

func (interp *Interpreter) propertyKey(key ast.Expression, computed bool, env *runtime.Environment) (propKey, error) {
	if !computed {
		return propKey{name: propertyKeyName(key)}, nil
	}
	v, err := interp.evalExpression(key, env)
	if err != nil {
		return propKey{}, err
	}
	name, sym, err := runtime.ToPropertyKey(v)
	if err != nil {
		return propKey{}, err
	}
	return propKey{name: name, sym: sym}, nil
}

func defineData(obj *runtime.Object, k propKey, v *runtime.Value) {
	prop := &runtime.Property{Value: v, Writable: true, Enumerable: true, Configurable: true}
	if k.sym != nil {
		obj.DefineSymbol(k.sym, prop)
		return
	}
	if idx, ok := runtime.ArrayIndex(k.name); ok && obj.OType == runtime.ObjTypeArray {
		obj.SetIndex(idx, v)
		return
	}
	obj.DefineProperty(k.name, prop)
}

// defineAccessor installs one half of an accessor pair, keeping the other
// half if the key already has one.
func defineAccessor(obj *runtime.Object, k propKey, fn *runtime.Value, getter, enumerable bool) {
	var prop *runtime.Property
	if k.sym == nil {
		if existing, ok := obj.GetOwnProperty(k.name); ok && existing.IsAccessor {
			prop = existing
		}
	}
	if prop == nil {
		prop = &runtime.Property{IsAccessor: true, Enumerable: enumerable, Configurable: true}
	}
	if getter {
		prop.Getter = fn
	} else {
		prop.Setter = fn
	}
	if k.sym != nil {
		obj.DefineSymbol(k.sym, prop)
		return
	}
	obj.DefineProperty(k.name, prop)
}

// memberKey evaluates the property part of a member expression.
func (interp *Interpreter) memberKey(m *ast.MemberExpression, env *runtime.Environment) (*runtime.Value, error) {
	if !m.Computed {
		return runtime.NewString(propertyKeyName(m.Property)), nil
	}
	return interp.evalExpression(m.Property, env)
}

func (interp *Interpreter) evalMember(m *ast.MemberExpression, env *runtime.Environment) (*runtime.Value, error) {
	if _, ok := m.Object.(*ast.SuperExpression); ok {
		key, err := interp.memberKey(m, env)
		if err != nil {
			return nil, err
		}
		return interp.superGet(key, env)
	}
	base, err := interp.evalExpression(m.Object, env)
	if err != nil {
		return nil, err
	}
	if m.Optional && base.IsNullish() {
		return nil, errShortCircuit
	}
	if priv, ok := m.Property.(*ast.PrivateName); ok {
		return interp.getPrivate(base, priv.Name)
	}
	key, err := interp.memberKey(m, env)
	if err != nil {
		return nil, err
	}
	return interp.getMember(base, key)
}

func (interp *Interpreter) getMember(base, key *runtime.Value) (*runtime.Value, error) {
	return interp.realm.GetMember(base, key)
}

// putMember writes base[key]. Writes to primitives are dropped.
func (interp *Interpreter) putMember(base, key, v *runtime.Value) error {
	if base.IsNullish() {
		return runtime.NewTypeError("Cannot set properties of %s (setting '%s')", base.ToString(), key.ToString())
	}
	name, sym, err := runtime.ToPropertyKey(key)
	if err != nil {
		return err
	}
	if !base.IsObject() {
		return nil
	}
	if sym != nil {
		if setter := findSymbolSetter(base.Object, sym); setter != nil {
			_, err := setter.Object.Callable(base, []*runtime.Value{v})
			return err
		}
		if !base.Object.Frozen {
			base.Object.SetSymbol(sym, v)
		}
		return nil
	}
	return base.Object.Put(name, v)
}

func findSymbolSetter(obj *runtime.Object, sym *runtime.Symbol) *runtime.Value {
	if prop, ok := obj.LookupSymbol(sym); ok && prop.IsAccessor && prop.Setter != nil && prop.Setter.IsCallable() {
		return prop.Setter
	}
	return nil
}

func (interp *Interpreter) getPrivate(base *runtime.Value, name string) (*runtime.Value, error) {
	prop, err := privateSlot(base, name, "read")
	if err != nil {
		return nil, err
	}
	if prop.IsAccessor {
		if prop.Getter == nil {
			return nil, runtime.NewTypeError("'%s' was defined without a getter", name)
		}
		return prop.Getter.Object.Callable(base, nil)
	}
	return prop.Value, nil
}

func (interp *Interpreter) putPrivate(base *runtime.Value, name string, v *runtime.Value) error {
	prop, err := privateSlot(base, name, "write")
	if err != nil {
		return err
	}
	if prop.IsAccessor {
		if prop.Setter == nil {
			return runtime.NewTypeError("'%s' was defined without a setter", name)
		}
		_, err := prop.Setter.Object.Callable(base, []*runtime.Value{v})
		return err
	}
	if !prop.Writable {
		return runtime.NewTypeError("Private method '%s' is not writable", name)
	}
	prop.Value = v
	return nil
}

func privateSlot(base *runtime.Value, name, verb string) (*runtime.Property, error) {
	if base.IsObject() {
		if prop, ok := base.Object.Internal[privateKey(name)].(*runtime.Property); ok {
			return prop, nil
		}
	}
	return nil, runtime.NewTypeError("Cannot %s private member %s from an object whose class did not declare it", verb, name)
}

// homeObject finds the object a method was defined on, for super lookups.
func homeObject(env *runtime.Environment) (*runtime.Object, error) {
	b, _ := env.Lookup(slotHome)
	if b == nil || !b.Current().IsObject() {
		return nil, runtime.NewSyntaxError("'super' keyword unexpected here")
	}
	return b.Current().Object, nil
}

func (interp *Interpreter) superGet(key *runtime.Value, env *runtime.Environment) (*runtime.Value, error) {
	home, err := homeObject(env)
	if err != nil {
		return nil, err
	}
	this, err := interp.evalThis(env)
	if err != nil {
		return nil, err
	}
	proto := home.Prototype
	if proto == nil {
		return runtime.Undefined, nil
	}
	name, sym, err := runtime.ToPropertyKey(key)
	if err != nil {
		return nil, err
	}
	if sym != nil {
		return proto.GetSymbol(sym), nil
	}
	for cur := proto; cur != nil; cur = cur.Prototype {
		if prop, ok := cur.GetOwnProperty(name); ok {
			if prop.IsAccessor {
				if prop.Getter == nil || !prop.Getter.IsCallable() {
					return runtime.Undefined, nil
				}
				return prop.Getter.Object.Callable(this, nil)
			}
			return prop.Value, nil
		}
	}
	return proto.GetValue(name)
}

// reference is an assignable place: a binding, a property or a private
// member.
type reference struct {
	name    string
	env     *runtime.Environment
	base    *runtime.Value
	key     *runtime.Value
	private string
	super   bool
}

func (interp *Interpreter) resolveReference(target ast.Expression, env *runtime.Environment) (*reference, error) {
	switch t := target.(type) {
	case *ast.Identifier:
		return &reference{name: t.Value, env: env}, nil
	case *ast.MemberExpression:
		if _, ok := t.Object.(*ast.SuperExpression); ok {
			key, err := interp.memberKey(t, env)
			if err != nil {
				return nil, err
			}
			this, err := interp.evalThis(env)
			if err != nil {
				return nil, err
			}
			return &reference{base: this, key: key, env: env, super: true}, nil
		}
		base, err := interp.evalExpression(t.Object, env)
		if err != nil {
			return nil, err
		}
		if priv, ok := t.Property.(*ast.PrivateName); ok {
			return &reference{base: base, private: priv.Name}, nil
		}
		key, err := interp.memberKey(t, env)
		if err != nil {
			return nil, err
		}
		return &reference{base: base, key: key}, nil
	case *ast.ChainExpression:
		return nil, runtime.NewSyntaxError("Invalid left-hand side in assignment")
	}
	return nil, runtime.NewSyntaxError("Invalid left-hand side in assignment")
}

func (interp *Interpreter) getReference(ref *reference) (*runtime.Value, error) {
	switch {
	case ref.base == nil:
		return interp.evalIdentifier(ref.name, ref.env)
	case ref.private != "":
		return interp.getPrivate(ref.base, ref.private)
	case ref.super:
		return interp.superGet(ref.key, ref.env)
	}
	return interp.getMember(ref.base, ref.key)
}

func (interp *Interpreter) putReference(ref *reference, v *runtime.Value) error {
	switch {
	case ref.base == nil:
		return interp.assignIdentifier(ref.name, v, ref.env)
	case ref.private != "":
		return interp.putPrivate(ref.base, ref.private, v)
	}
	return interp.putMember(ref.base, ref.key, v)
}

// evalCallee evaluates a callee along with the this value a call through
// it receives.
func (interp *Interpreter) evalCallee(callee ast.Expression, env *runtime.Environment) (*runtime.Value, *runtime.Value, error) {
	switch c := callee.(type) {
	case *ast.MemberExpression:
		if _, ok := c.Object.(*ast.SuperExpression); ok {
			key, err := interp.memberKey(c, env)
			if err != nil {
				return nil, nil, err
			}
			fn, err := interp.superGet(key, env)
			if err != nil {
				return nil, nil, err
			}
			this, err := interp.evalThis(env)
			return fn, this, err
		}
		base, err := interp.evalExpression(c.Object, env)
		if err != nil {
			return nil, nil, err
		}
		if c.Optional && base.IsNullish() {
			return nil, nil, errShortCircuit
		}
		if priv, ok := c.Property.(*ast.PrivateName); ok {
			fn, err := interp.getPrivate(base, priv.Name)
			return fn, base, err
		}
		key, err := interp.memberKey(c, env)
		if err != nil {
			return nil, nil, err
		}
		fn, err := interp.getMember(base, key)
		return fn, base, err
	case *ast.ChainExpression:
		fn, this, err := interp.evalCallee(c.Expression, env)
		if err == errShortCircuit {
			return runtime.Undefined, runtime.Undefined, nil
		}
		return fn, this, err
	}
	fn, err := interp.evalExpression(callee, env)
	return fn, runtime.Undefined, err
}

func (interp *Interpreter) evalCall(e *ast.CallExpression, env *runtime.Environment) (*runtime.Value, error) {
	if _, ok := e.Callee.(*ast.SuperExpression); ok {
		args, err := interp.evalArguments(e.Arguments, env)
		if err != nil {
			return nil, err
		}
		return interp.superCall(args, env)
	}
	fn, this, err := interp.evalCallee(e.Callee, env)
	if err != nil {
		return nil, err
	}
	if e.Optional && fn.IsNullish() {
		return nil, errShortCircuit
	}
	args, err := interp.evalArguments(e.Arguments, env)
	if err != nil {
		return nil, err
	}
	if !fn.IsCallable() {
		return nil, runtime.NewTypeError("%s is not a function", describeExpr(e.Callee))
	}
	return fn.Object.Callable(this, args)
}
