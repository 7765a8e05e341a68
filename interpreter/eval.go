package interpreter

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// errShortCircuit unwinds an optional chain whose base is nullish up to
// the enclosing ChainExpression.
var errShortCircuit = errors.New("optional chain short-circuit")

func (interp *Interpreter) evalExpression(expr ast.Expression, env *runtime.Environment) (*runtime.Value, error) {
	switch e := expr.(type) {
	case *ast.Identifier:
		return interp.evalIdentifier(e.Value, env)
	case *ast.NumberLiteral:
		return runtime.NewNumber(e.Value), nil
	case *ast.BigIntLiteral:
		return runtime.NewBigInt(new(big.Int).Set(e.Value)), nil
	case *ast.StringLiteral:
		return runtime.NewString(e.Value), nil
	case *ast.BooleanLiteral:
		return runtime.NewBool(e.Value), nil
	case *ast.NullLiteral:
		return runtime.Null, nil
	case *ast.RegExpLiteral:
		return interp.evalRegExp(e)
	case *ast.TemplateLiteral:
		return interp.evalTemplate(e, env)
	case *ast.TaggedTemplateExpression:
		return interp.evalTaggedTemplate(e, env)
	case *ast.ArrayLiteral:
		return interp.evalArrayLiteral(e, env)
	case *ast.ObjectLiteral:
		return interp.evalObjectLiteral(e, env)
	case *ast.FunctionLiteral:
		return interp.makeClosure(e, env, "", true), nil
	case *ast.ClassLiteral:
		return interp.evalClass(e, env, "")
	case *ast.UnaryExpression:
		return interp.evalUnary(e, env)
	case *ast.UpdateExpression:
		return interp.evalUpdate(e, env)
	case *ast.BinaryExpression:
		return interp.evalBinary(e, env)
	case *ast.LogicalExpression:
		return interp.evalLogical(e, env)
	case *ast.AssignmentExpression:
		return interp.evalAssignment(e, env)
	case *ast.ConditionalExpression:
		test, err := interp.evalExpression(e.Test, env)
		if err != nil {
			return nil, err
		}
		if test.ToBoolean() {
			return interp.evalExpression(e.Consequent, env)
		}
		return interp.evalExpression(e.Alternate, env)
	case *ast.SequenceExpression:
		var last *runtime.Value
		for _, item := range e.Expressions {
			v, err := interp.evalExpression(item, env)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	case *ast.CallExpression:
		return interp.evalCall(e, env)
	case *ast.MemberExpression:
		return interp.evalMember(e, env)
	case *ast.ChainExpression:
		v, err := interp.evalExpression(e.Expression, env)
		if err == errShortCircuit {
			return runtime.Undefined, nil
		}
		return v, err
	case *ast.NewExpression:
		return interp.evalNew(e, env)
	case *ast.ThisExpression:
		return interp.evalThis(env)
	case *ast.MetaProperty:
		if b, _ := env.Lookup(slotNewTarget); b != nil {
			return b.Current(), nil
		}
		return runtime.Undefined, nil
	case *ast.YieldExpression:
		return interp.evalYield(e, env)
	case *ast.AwaitExpression:
		v, err := interp.evalExpression(e.Argument, env)
		if err != nil {
			return nil, err
		}
		return interp.await(v)
	case *ast.SuperExpression:
		return nil, runtime.NewSyntaxError("'super' keyword unexpected here")
	case *ast.SpreadElement:
		return nil, runtime.NewSyntaxError("Unexpected token '...'")
	}
	return nil, runtime.NewSyntaxError("unsupported expression %T", expr)
}

// evalNamed evaluates expr, naming anonymous functions and classes after
// the binding they are assigned to.
func (interp *Interpreter) evalNamed(expr ast.Expression, env *runtime.Environment, name string) (*runtime.Value, error) {
	if name != "" {
		switch e := expr.(type) {
		case *ast.FunctionLiteral:
			if e.Name == nil {
				return interp.makeClosure(e, env, name, true), nil
			}
		case *ast.ClassLiteral:
			if e.Name == nil {
				return interp.evalClass(e, env, name)
			}
		}
	}
	return interp.evalExpression(expr, env)
}

func (interp *Interpreter) evalIdentifier(name string, env *runtime.Environment) (*runtime.Value, error) {
	b, err := interp.ensureBindingInitialized(name, env)
	if err != nil {
		return nil, err
	}
	return b.Current(), nil
}

// assignIdentifier writes an existing binding, enforcing TDZ and const.
// Unknown names become globals.
func (interp *Interpreter) assignIdentifier(name string, v *runtime.Value, env *runtime.Environment) error {
	b, owner := env.Lookup(name)
	if b == nil {
		interp.global.SetInCurrentScope(name, v)
		return nil
	}
	if !b.Ready() || interp.pendingInFrame(name, owner) {
		return runtime.NewReferenceError("Cannot access '%s' before initialization", name)
	}
	ok, err := ensureBindingIsMutable(name, b)
	if err != nil || !ok {
		return err
	}
	b.Value = v
	return nil
}

func (interp *Interpreter) evalThis(env *runtime.Environment) (*runtime.Value, error) {
	b, _ := env.Lookup(slotThis)
	if b == nil {
		return runtime.Undefined, nil
	}
	if !b.Initialized {
		return nil, runtime.NewReferenceError("Must call super constructor in derived class before accessing 'this' or returning from derived constructor")
	}
	return b.Current(), nil
}

func (interp *Interpreter) evalRegExp(e *ast.RegExpLiteral) (*runtime.Value, error) {
	ctor, ok := interp.realm.Constructors["RegExp"]
	if !ok {
		return nil, runtime.NewSyntaxError("regular expressions are not available")
	}
	return interp.construct(runtime.NewObject(ctor), []*runtime.Value{runtime.NewString(e.Pattern), runtime.NewString(e.Flags)}, ctor)
}

func (interp *Interpreter) evalTemplate(e *ast.TemplateLiteral, env *runtime.Environment) (*runtime.Value, error) {
	var sb strings.Builder
	for i, q := range e.Quasis {
		sb.WriteString(q.Value)
		if i < len(e.Expressions) {
			v, err := interp.evalExpression(e.Expressions[i], env)
			if err != nil {
				return nil, err
			}
			if v.Type == runtime.TypeSymbol {
				return nil, runtime.NewTypeError("Cannot convert a Symbol value to a string")
			}
			s, err := runtime.ToStringValue(v)
			if err != nil {
				return nil, err
			}
			sb.WriteString(s)
		}
	}
	return runtime.NewString(sb.String()), nil
}

func (interp *Interpreter) evalTaggedTemplate(e *ast.TaggedTemplateExpression, env *runtime.Environment) (*runtime.Value, error) {
	fn, this, err := interp.evalCallee(e.Tag, env)
	if err != nil {
		return nil, err
	}
	cooked := make([]*runtime.Value, len(e.Quasi.Quasis))
	raw := make([]*runtime.Value, len(e.Quasi.Quasis))
	for i, q := range e.Quasi.Quasis {
		cooked[i] = runtime.NewString(q.Value)
		raw[i] = runtime.NewString(q.Raw)
	}
	strs := interp.realm.NewArray(cooked)
	strs.DefineProperty("raw", &runtime.Property{Value: interp.realm.ArrayValue(raw)})
	args := []*runtime.Value{runtime.NewObject(strs)}
	for _, ex := range e.Quasi.Expressions {
		v, err := interp.evalExpression(ex, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	if !fn.IsCallable() {
		return nil, runtime.NewTypeError("%s is not a function", describeExpr(e.Tag))
	}
	return fn.Object.Callable(this, args)
}

func (interp *Interpreter) evalArrayLiteral(e *ast.ArrayLiteral, env *runtime.Environment) (*runtime.Value, error) {
	arr := interp.realm.NewArray(nil)
	for _, el := range e.Elements {
		switch item := el.(type) {
		case nil:
			arr.ArrayData = append(arr.ArrayData, nil)
		case *ast.SpreadElement:
			v, err := interp.evalExpression(item.Argument, env)
			if err != nil {
				return nil, err
			}
			items, err := runtime.IterateToSlice(interp.realm, v)
			if err != nil {
				return nil, err
			}
			arr.ArrayData = append(arr.ArrayData, items...)
		default:
			v, err := interp.evalExpression(item, env)
			if err != nil {
				return nil, err
			}
			arr.ArrayData = append(arr.ArrayData, v)
		}
	}
	return runtime.NewObject(arr), nil
}

func (interp *Interpreter) evalObjectLiteral(e *ast.ObjectLiteral, env *runtime.Environment) (*runtime.Value, error) {
	obj := interp.realm.NewObject()
	for _, prop := range e.Properties {
		if prop.Kind == ast.PropertySpread {
			src, err := interp.evalExpression(prop.Value, env)
			if err != nil {
				return nil, err
			}
			if err := interp.copyDataProperties(obj, src, nil); err != nil {
				return nil, err
			}
			continue
		}
		if !prop.Computed && !prop.Shorthand && prop.Kind == ast.PropertyInit && !prop.Method {
			if propertyKeyName(prop.Key) == "__proto__" {
				v, err := interp.evalExpression(prop.Value, env)
				if err != nil {
					return nil, err
				}
				if v.IsObject() {
					obj.Prototype = v.Object
				} else if v.Type == runtime.TypeNull {
					obj.Prototype = nil
				}
				continue
			}
		}
		key, err := interp.propertyKey(prop.Key, prop.Computed, env)
		if err != nil {
			return nil, err
		}
		switch prop.Kind {
		case ast.PropertyGet, ast.PropertySet:
			fn := interp.makeMethod(prop.Value.(*ast.FunctionLiteral), env, obj, accessorName(prop.Kind, key))
			defineAccessor(obj, key, fn, prop.Kind == ast.PropertyGet, true)
			continue
		}
		var v *runtime.Value
		if prop.Method {
			v = interp.makeMethod(prop.Value.(*ast.FunctionLiteral), env, obj, keyDisplay(key))
		} else {
			if v, err = interp.evalNamed(prop.Value, env, keyDisplay(key)); err != nil {
				return nil, err
			}
		}
		defineData(obj, key, v)
	}
	return runtime.NewObject(obj), nil
}

// copyDataProperties copies own enumerable string keys of src onto dst,
// skipping excluded.
func (interp *Interpreter) copyDataProperties(dst *runtime.Object, src *runtime.Value, excluded map[string]bool) error {
	if src.IsNullish() {
		return nil
	}
	if src.Type == runtime.TypeString {
		for i, r := range []rune(src.Str) {
			k := runtime.NewInt(int64(i)).ToString()
			if !excluded[k] {
				dst.Set(k, runtime.NewString(string(r)))
			}
		}
		return nil
	}
	if !src.IsObject() {
		return nil
	}
	for _, k := range src.Object.OwnKeys() {
		if excluded[k] || !src.Object.IsEnumerable(k) {
			continue
		}
		v, err := src.Object.GetValue(k)
		if err != nil {
			return err
		}
		dst.DefineProperty(k, &runtime.Property{Value: v, Writable: true, Enumerable: true, Configurable: true})
	}
	return nil
}

func (interp *Interpreter) evalUnary(e *ast.UnaryExpression, env *runtime.Environment) (*runtime.Value, error) {
	switch e.Operator {
	case "typeof":
		if id, ok := e.Operand.(*ast.Identifier); ok {
			if b, _ := env.Lookup(id.Value); b == nil {
				return runtime.NewString("undefined"), nil
			}
		}
		v, err := interp.evalExpression(e.Operand, env)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(v.TypeOf()), nil
	case "delete":
		return interp.evalDelete(e.Operand, env)
	}
	v, err := interp.evalExpression(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "void":
		return runtime.Undefined, nil
	case "!":
		return runtime.NewBool(!v.ToBoolean()), nil
	case "-":
		return runtime.Negate(v)
	case "+":
		n, err := runtime.ToNumberValue(v)
		if err != nil {
			return nil, err
		}
		return runtime.NewNumber(n), nil
	case "~":
		return runtime.BitNot(v)
	}
	return nil, runtime.NewSyntaxError("unknown unary operator %s", e.Operator)
}

func (interp *Interpreter) evalDelete(operand ast.Expression, env *runtime.Environment) (*runtime.Value, error) {
	if chain, ok := operand.(*ast.ChainExpression); ok {
		v, err := interp.evalDelete(chain.Expression, env)
		if err == errShortCircuit {
			return runtime.True, nil
		}
		return v, err
	}
	m, ok := operand.(*ast.MemberExpression)
	if !ok {
		if _, isIdent := operand.(*ast.Identifier); isIdent {
			return runtime.False, nil
		}
		if _, err := interp.evalExpression(operand, env); err != nil {
			return nil, err
		}
		return runtime.True, nil
	}
	base, err := interp.evalExpression(m.Object, env)
	if err != nil {
		return nil, err
	}
	if m.Optional && base.IsNullish() {
		return nil, errShortCircuit
	}
	key, err := interp.memberKey(m, env)
	if err != nil {
		return nil, err
	}
	if base.IsNullish() {
		return nil, runtime.NewTypeError("Cannot convert undefined or null to object")
	}
	if !base.IsObject() {
		return runtime.True, nil
	}
	name, sym, err := runtime.ToPropertyKey(key)
	if err != nil {
		return nil, err
	}
	if sym != nil {
		return runtime.NewBool(base.Object.DeleteSymbol(sym)), nil
	}
	return runtime.NewBool(base.Object.Delete(name)), nil
}

func (interp *Interpreter) evalUpdate(e *ast.UpdateExpression, env *runtime.Environment) (*runtime.Value, error) {
	ref, err := interp.resolveReference(e.Operand, env)
	if err != nil {
		return nil, err
	}
	old, err := interp.getReference(ref)
	if err != nil {
		return nil, err
	}
	num, err := runtime.ToNumeric(old)
	if err != nil {
		return nil, err
	}
	delta := int64(1)
	if e.Operator == "--" {
		delta = -1
	}
	next, err := runtime.Increment(num, delta)
	if err != nil {
		return nil, err
	}
	if err := interp.putReference(ref, next); err != nil {
		return nil, err
	}
	if e.Prefix {
		return next, nil
	}
	return num, nil
}

func (interp *Interpreter) evalBinary(e *ast.BinaryExpression, env *runtime.Environment) (*runtime.Value, error) {
	if priv, ok := e.Left.(*ast.PrivateName); ok && e.Operator == "in" {
		obj, err := interp.evalExpression(e.Right, env)
		if err != nil {
			return nil, err
		}
		if !obj.IsObject() {
			return nil, runtime.NewTypeError("Cannot use 'in' operator to search for '%s' in %s", priv.Name, obj.ToString())
		}
		_, has := obj.Object.Internal[privateKey(priv.Name)]
		return runtime.NewBool(has), nil
	}
	left, err := interp.evalExpression(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := interp.evalExpression(e.Right, env)
	if err != nil {
		return nil, err
	}
	return interp.binaryOp(e.Operator, left, right)
}

func (interp *Interpreter) binaryOp(op string, left, right *runtime.Value) (*runtime.Value, error) {
	switch op {
	case "+":
		return runtime.Add(left, right)
	case "==":
		eq, err := runtime.LooseEquals(left, right)
		return runtime.NewBool(eq), err
	case "!=":
		eq, err := runtime.LooseEquals(left, right)
		return runtime.NewBool(!eq), err
	case "===":
		return runtime.NewBool(runtime.StrictEquals(left, right)), nil
	case "!==":
		return runtime.NewBool(!runtime.StrictEquals(left, right)), nil
	case "<":
		lt, defined, err := runtime.LessThan(left, right, true)
		return runtime.NewBool(defined && lt), err
	case ">":
		lt, defined, err := runtime.LessThan(right, left, false)
		return runtime.NewBool(defined && lt), err
	case "<=":
		lt, defined, err := runtime.LessThan(right, left, false)
		return runtime.NewBool(defined && !lt), err
	case ">=":
		lt, defined, err := runtime.LessThan(left, right, true)
		return runtime.NewBool(defined && !lt), err
	case "instanceof":
		return interp.instanceOf(left, right)
	case "in":
		if !right.IsObject() {
			return nil, runtime.NewTypeError("Cannot use 'in' operator to search for '%s' in %s", left.ToString(), right.ToString())
		}
		name, sym, err := runtime.ToPropertyKey(left)
		if err != nil {
			return nil, err
		}
		if sym != nil {
			return runtime.NewBool(right.Object.HasSymbol(sym)), nil
		}
		return runtime.NewBool(right.Object.HasProperty(name)), nil
	}
	return runtime.BinaryOp(op, left, right)
}

func (interp *Interpreter) instanceOf(v, ctor *runtime.Value) (*runtime.Value, error) {
	if !ctor.IsObject() {
		return nil, runtime.NewTypeError("Right-hand side of 'instanceof' is not an object")
	}
	if h := ctor.Object.GetSymbol(runtime.SymbolHasInstance); h.IsCallable() {
		res, err := h.Object.Callable(ctor, []*runtime.Value{v})
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(res.ToBoolean()), nil
	}
	if !ctor.IsCallable() {
		return nil, runtime.NewTypeError("Right-hand side of 'instanceof' is not callable")
	}
	target := ctor.Object
	if bound, ok := target.Internal["boundTarget"].(*runtime.Object); ok {
		target = bound
	}
	if !v.IsObject() {
		return runtime.False, nil
	}
	proto, err := target.GetValue("prototype")
	if err != nil {
		return nil, err
	}
	if !proto.IsObject() {
		return nil, runtime.NewTypeError("Function has non-object prototype '%s' in instanceof check", proto.ToString())
	}
	return runtime.NewBool(v.Object.InstanceOf(proto.Object)), nil
}

func (interp *Interpreter) evalLogical(e *ast.LogicalExpression, env *runtime.Environment) (*runtime.Value, error) {
	left, err := interp.evalExpression(e.Left, env)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "&&":
		if !left.ToBoolean() {
			return left, nil
		}
	case "||":
		if left.ToBoolean() {
			return left, nil
		}
	case "??":
		if !left.IsNullish() {
			return left, nil
		}
	}
	return interp.evalExpression(e.Right, env)
}

func (interp *Interpreter) evalAssignment(e *ast.AssignmentExpression, env *runtime.Environment) (*runtime.Value, error) {
	if e.Operator == "=" {
		switch t := e.Target.(type) {
		case *ast.ArrayPattern, *ast.ObjectPattern:
			v, err := interp.evalExpression(e.Value, env)
			if err != nil {
				return nil, err
			}
			return v, interp.bindPattern(t, v, "", env)
		case *ast.Identifier:
			v, err := interp.evalNamed(e.Value, env, t.Value)
			if err != nil {
				return nil, err
			}
			return v, interp.assignIdentifier(t.Value, v, env)
		}
	}
	ref, err := interp.resolveReference(e.Target, env)
	if err != nil {
		return nil, err
	}
	if e.Operator == "=" {
		v, err := interp.evalExpression(e.Value, env)
		if err != nil {
			return nil, err
		}
		return v, interp.putReference(ref, v)
	}
	cur, err := interp.getReference(ref)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "&&=", "||=", "??=":
		take := false
		switch e.Operator {
		case "&&=":
			take = cur.ToBoolean()
		case "||=":
			take = !cur.ToBoolean()
		default:
			take = cur.IsNullish()
		}
		if !take {
			return cur, nil
		}
		v, err := interp.evalNamed(e.Value, env, targetName(e.Target))
		if err != nil {
			return nil, err
		}
		return v, interp.putReference(ref, v)
	}
	rhs, err := interp.evalExpression(e.Value, env)
	if err != nil {
		return nil, err
	}
	v, err := interp.binaryOp(strings.TrimSuffix(e.Operator, "="), cur, rhs)
	if err != nil {
		return nil, err
	}
	return v, interp.putReference(ref, v)
}

func (interp *Interpreter) evalNew(e *ast.NewExpression, env *runtime.Environment) (*runtime.Value, error) {
	callee, err := interp.evalExpression(e.Callee, env)
	if err != nil {
		return nil, err
	}
	args, err := interp.evalArguments(e.Arguments, env)
	if err != nil {
		return nil, err
	}
	if !callee.IsObject() {
		return nil, runtime.NewTypeError("%s is not a constructor", describeExpr(e.Callee))
	}
	return interp.construct(callee, args, callee.Object)
}

func (interp *Interpreter) evalArguments(list []ast.Expression, env *runtime.Environment) ([]*runtime.Value, error) {
	args := make([]*runtime.Value, 0, len(list))
	for _, a := range list {
		if spread, ok := a.(*ast.SpreadElement); ok {
			v, err := interp.evalExpression(spread.Argument, env)
			if err != nil {
				return nil, err
			}
			items, err := runtime.IterateToSlice(interp.realm, v)
			if err != nil {
				return nil, err
			}
			args = append(args, items...)
			continue
		}
		v, err := interp.evalExpression(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// describeExpr renders a callee for error messages.
func describeExpr(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e.Value
	case *ast.ThisExpression:
		return "this"
	case *ast.SuperExpression:
		return "super"
	case *ast.PrivateName:
		return e.Name
	case *ast.MemberExpression:
		base := describeExpr(e.Object)
		if e.Computed {
			return base + "[...]"
		}
		return base + "." + describeExpr(e.Property)
	case *ast.CallExpression:
		return describeExpr(e.Callee) + "(...)"
	case *ast.ChainExpression:
		return describeExpr(e.Expression)
	}
	return "expression"
}
