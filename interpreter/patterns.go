package interpreter

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// bindPattern destructures v into target. kind is the declaration kind,
// or "" for plain assignment.
func (interp *Interpreter) bindPattern(target ast.Expression, v *runtime.Value, kind string, env *runtime.Environment) error {
	switch t := target.(type) {
	case *ast.Identifier:
		return interp.bindName(t.Value, v, kind, env)
	case *ast.AssignmentPattern:
		if v.Type == runtime.TypeUndefined {
			def, err := interp.evalNamed(t.Default, env, targetName(t.Target))
			if err != nil {
				return err
			}
			v = def
		}
		return interp.bindPattern(t.Target, v, kind, env)
	case *ast.RestElement:
		return interp.bindPattern(t.Argument, v, kind, env)
	case *ast.ArrayPattern:
		return interp.bindArrayPattern(t, v, kind, env)
	case *ast.ObjectPattern:
		return interp.bindObjectPattern(t, v, kind, env)
	case *ast.MemberExpression:
		if kind != "" {
			return runtime.NewSyntaxError("Illegal property in declaration context")
		}
		ref, err := interp.resolveReference(t, env)
		if err != nil {
			return err
		}
		return interp.putReference(ref, v)
	}
	return runtime.NewSyntaxError("Invalid destructuring assignment target")
}

func (interp *Interpreter) bindName(name string, v *runtime.Value, kind string, env *runtime.Environment) error {
	switch kind {
	case "":
		return interp.assignIdentifier(name, v, env)
	case runtime.BindVar:
		if b, _ := env.Lookup(name); b == nil {
			env.FunctionScope().DeclareVar(name)
		}
		return interp.assignIdentifier(name, v, env)
	case runtime.BindParam:
		return env.Declare(name, runtime.BindParam, v)
	}
	if _, ok := env.Own(name); ok {
		interp.markTDZInitialized(name, env, v)
		return nil
	}
	return env.Declare(name, kind, v)
}

func (interp *Interpreter) bindArrayPattern(p *ast.ArrayPattern, v *runtime.Value, kind string, env *runtime.Environment) error {
	if v.IsNullish() {
		return runtime.NewTypeError("%s is not iterable", v.ToString())
	}
	it, err := runtime.GetIterator(interp.realm, v)
	if err != nil {
		return err
	}
	done := false
	next := func() (*runtime.Value, error) {
		if done {
			return runtime.Undefined, nil
		}
		item, finished, err := it.Next()
		if err != nil {
			done = true
			return nil, err
		}
		if finished {
			done = true
			return runtime.Undefined, nil
		}
		return item, nil
	}
	fail := func(err error) error {
		if !done {
			_ = it.Close()
		}
		return err
	}
	for _, el := range p.Elements {
		item, err := next()
		if err != nil {
			return err
		}
		if el == nil {
			continue
		}
		if err := interp.bindPattern(el, item, kind, env); err != nil {
			return fail(err)
		}
	}
	if p.Rest != nil {
		var rest []*runtime.Value
		for !done {
			item, err := next()
			if err != nil {
				return err
			}
			if !done {
				rest = append(rest, item)
			}
		}
		return interp.bindPattern(p.Rest, interp.realm.ArrayValue(rest), kind, env)
	}
	if !done {
		return it.Close()
	}
	return nil
}

func (interp *Interpreter) bindObjectPattern(p *ast.ObjectPattern, v *runtime.Value, kind string, env *runtime.Environment) error {
	if v.IsNullish() {
		return runtime.NewTypeError("Cannot destructure '%s' as it is %s.", v.ToString(), v.ToString())
	}
	used := map[string]bool{}
	for _, prop := range p.Properties {
		key, err := interp.propertyKey(prop.Key, prop.Computed, env)
		if err != nil {
			return err
		}
		if key.sym == nil {
			used[key.name] = true
		}
		item, err := interp.getMember(v, key.value())
		if err != nil {
			return err
		}
		if err := interp.bindPattern(prop.Value, item, kind, env); err != nil {
			return err
		}
	}
	if p.Rest != nil {
		rest := interp.realm.NewObject()
		if err := interp.copyDataProperties(rest, v, used); err != nil {
			return err
		}
		return interp.bindPattern(p.Rest, runtime.NewObject(rest), kind, env)
	}
	return nil
}
