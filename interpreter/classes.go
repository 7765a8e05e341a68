package interpreter

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// classInfo carries what construction needs beyond the constructor body.
type classInfo struct {
	derived bool
	proto   *runtime.Object
	env     *runtime.Environment
	// fields and private methods are installed on every instance, in
	// declaration order.
	fields         []*fieldDef
	privateMethods []privateMember
}

type fieldDef struct {
	key     propKey
	private string
	value   ast.Expression
}

type privateMember struct {
	name string
	prop *runtime.Property
}

// implicitConstructor is the body of a derived class without one:
// constructor(...args) { super(...args) }.
func implicitConstructor(derived bool) *ast.FunctionLiteral {
	lit := &ast.FunctionLiteral{Method: true, Body: &ast.BlockStatement{}}
	if derived {
		args := &ast.Identifier{Value: "args"}
		lit.Params = []ast.Expression{&ast.RestElement{Argument: args}}
		lit.Body.Statements = []ast.Statement{&ast.ExpressionStatement{Expression: &ast.CallExpression{
			Callee:    &ast.SuperExpression{},
			Arguments: []ast.Expression{&ast.SpreadElement{Argument: args}},
		}}}
	}
	return lit
}

// evalClass builds a class constructor. name is used when the class has
// no name of its own.
func (interp *Interpreter) evalClass(cls *ast.ClassLiteral, env *runtime.Environment, name string) (*runtime.Value, error) {
	classEnv := runtime.NewEnvironment(env, runtime.ScopeBlock)
	if cls.Name != nil {
		name = cls.Name.Value
		classEnv.DeclareUninitialized(name, runtime.BindConst)
	}

	protoParent := interp.realm.ObjectPrototype
	ctorParent := interp.realm.FunctionPrototype
	info := &classInfo{env: classEnv}
	if cls.SuperClass != nil {
		info.derived = true
		sup, err := interp.evalExpression(cls.SuperClass, classEnv)
		if err != nil {
			return nil, err
		}
		switch {
		case sup.Type == runtime.TypeNull:
			protoParent = nil
		case !isConstructor(sup):
			return nil, runtime.NewTypeError("Class extends value %s is not a constructor or null", sup.ToString())
		default:
			pp, err := sup.Object.GetValue("prototype")
			if err != nil {
				return nil, err
			}
			switch {
			case pp.IsObject():
				protoParent = pp.Object
			case pp.Type == runtime.TypeNull:
				protoParent = nil
			default:
				return nil, runtime.NewTypeError("Class extends value does not have valid prototype property %s", pp.ToString())
			}
			ctorParent = sup.Object
		}
	}
	proto := runtime.NewOrdinaryObject(protoParent)
	info.proto = proto

	var ctorLit *ast.FunctionLiteral
	for _, m := range cls.Members {
		if md, ok := m.(*ast.MethodDefinition); ok && md.Kind == "constructor" && !md.Static {
			ctorLit = md.Value
		}
	}
	if ctorLit == nil {
		ctorLit = implicitConstructor(info.derived)
	}

	c := &closure{lit: ctorLit, env: classEnv, name: name, home: proto, class: info}
	obj := runtime.NewFunctionObject(ctorParent, nil)
	c.obj = obj
	obj.SetInternal("closure", c)
	obj.SetInternal("class", true)
	obj.DefineProperty("length", &runtime.Property{Value: runtime.NewInt(int64(paramLength(ctorLit.Params))), Configurable: true})
	obj.DefineProperty("name", &runtime.Property{Value: runtime.NewString(name), Configurable: true})
	obj.DefineProperty("prototype", &runtime.Property{Value: runtime.NewObject(proto)})
	obj.Callable = func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewTypeError("Class constructor %s cannot be invoked without 'new'", name)
	}
	obj.Constructor = func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return interp.constructClosure(c, args, obj)
	}
	proto.DefineProperty("constructor", &runtime.Property{Value: runtime.NewObject(obj), Writable: true, Configurable: true})

	// Static fields and blocks run after every method exists.
	var statics []func() error
	for _, m := range cls.Members {
		switch member := m.(type) {
		case *ast.MethodDefinition:
			if member.Kind == "constructor" && !member.Static {
				continue
			}
			if err := interp.defineClassMethod(info, obj, member, classEnv); err != nil {
				return nil, err
			}
		case *ast.PropertyDefinition:
			field, err := interp.classField(member, classEnv)
			if err != nil {
				return nil, err
			}
			if !member.Static {
				info.fields = append(info.fields, field)
				continue
			}
			statics = append(statics, func() error {
				return interp.defineField(field, runtime.NewObject(obj), obj, classEnv)
			})
		case *ast.StaticBlock:
			body := member.Body
			statics = append(statics, func() error {
				return interp.runStaticBlock(body, obj, classEnv)
			})
		}
	}
	if cls.Name != nil {
		classEnv.Initialize(name, runtime.NewObject(obj))
	}
	for _, run := range statics {
		if err := run(); err != nil {
			return nil, err
		}
	}
	return runtime.NewObject(obj), nil
}

func (interp *Interpreter) defineClassMethod(info *classInfo, ctor *runtime.Object, md *ast.MethodDefinition, env *runtime.Environment) error {
	target := info.proto
	if md.Static {
		target = ctor
	}
	if priv, ok := md.Key.(*ast.PrivateName); ok {
		fn := interp.makeMethod(md.Value, env, target, priv.Name)
		prop := &runtime.Property{Value: fn}
		switch md.Kind {
		case "get", "set":
			prop = interp.privateAccessor(info, ctor, md.Static, priv.Name)
			prop.IsAccessor = true
			if md.Kind == "get" {
				prop.Getter = fn
			} else {
				prop.Setter = fn
			}
			return nil
		}
		if md.Static {
			ctor.SetInternal(privateKey(priv.Name), prop)
		} else {
			info.privateMethods = append(info.privateMethods, privateMember{priv.Name, prop})
		}
		return nil
	}
	key, err := interp.propertyKey(md.Key, md.Computed, env)
	if err != nil {
		return err
	}
	switch md.Kind {
	case "get":
		defineAccessor(target, key, interp.makeMethod(md.Value, env, target, "get "+keyDisplay(key)), true, false)
	case "set":
		defineAccessor(target, key, interp.makeMethod(md.Value, env, target, "set "+keyDisplay(key)), false, false)
	default:
		prop := &runtime.Property{Value: interp.makeMethod(md.Value, env, target, keyDisplay(key)), Writable: true, Configurable: true}
		if key.sym != nil {
			target.DefineSymbol(key.sym, prop)
		} else {
			target.DefineProperty(key.name, prop)
		}
	}
	return nil
}

// privateAccessor returns the shared descriptor for a private getter and
// setter pair, creating it on first use.
func (interp *Interpreter) privateAccessor(info *classInfo, ctor *runtime.Object, static bool, name string) *runtime.Property {
	if static {
		if prop, ok := ctor.Internal[privateKey(name)].(*runtime.Property); ok {
			return prop
		}
		prop := &runtime.Property{IsAccessor: true}
		ctor.SetInternal(privateKey(name), prop)
		return prop
	}
	for _, pm := range info.privateMethods {
		if pm.name == name && pm.prop.IsAccessor {
			return pm.prop
		}
	}
	prop := &runtime.Property{IsAccessor: true}
	info.privateMethods = append(info.privateMethods, privateMember{name, prop})
	return prop
}

func (interp *Interpreter) classField(pd *ast.PropertyDefinition, env *runtime.Environment) (*fieldDef, error) {
	if priv, ok := pd.Key.(*ast.PrivateName); ok {
		return &fieldDef{private: priv.Name, value: pd.Value}, nil
	}
	key, err := interp.propertyKey(pd.Key, pd.Computed, env)
	if err != nil {
		return nil, err
	}
	return &fieldDef{key: key, value: pd.Value}, nil
}

// initializerEnv is the scope field initializers and static blocks run in:
// this is the target and super reads start above home.
func (interp *Interpreter) initializerEnv(env *runtime.Environment, this *runtime.Value, home *runtime.Object) *runtime.Environment {
	scope := runtime.NewEnvironment(env, runtime.ScopeFunction)
	scope.Declare(slotThis, runtime.BindParam, this)
	scope.Declare(slotHome, runtime.BindParam, runtime.NewObject(home))
	scope.Declare(slotNewTarget, runtime.BindParam, runtime.Undefined)
	return scope
}

func (interp *Interpreter) defineField(f *fieldDef, this *runtime.Value, home *runtime.Object, env *runtime.Environment) error {
	v := runtime.Undefined
	if f.value != nil {
		name := f.private
		if name == "" {
			name = keyDisplay(f.key)
		}
		var err error
		if v, err = interp.evalNamed(f.value, interp.initializerEnv(env, this, home), name); err != nil {
			return err
		}
	}
	if f.private != "" {
		this.Object.SetInternal(privateKey(f.private), &runtime.Property{Value: v, Writable: true})
		return nil
	}
	defineData(this.Object, f.key, v)
	return nil
}

// initializeFields installs private methods and instance fields on a
// freshly constructed object.
func (interp *Interpreter) initializeFields(info *classInfo, this *runtime.Value) error {
	if !this.IsObject() {
		return nil
	}
	for _, pm := range info.privateMethods {
		this.Object.SetInternal(privateKey(pm.name), pm.prop)
	}
	for _, f := range info.fields {
		if err := interp.defineField(f, this, info.proto, info.env); err != nil {
			return err
		}
	}
	return nil
}

func (interp *Interpreter) runStaticBlock(body *ast.BlockStatement, ctor *runtime.Object, env *runtime.Environment) error {
	scope := interp.initializerEnv(env, runtime.NewObject(ctor), ctor)
	flow, err := interp.execStatements(body.Statements, scope, listFunction)
	if err != nil {
		return err
	}
	if flow.Kind != FlowNormal {
		return illegalFlow(flow)
	}
	return nil
}
