package interpreter

import (
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (interp *Interpreter) execWhile(s *ast.WhileStatement, env *runtime.Environment) (ExecFlow, error) {
	frame := interp.pushLoopFrame()
	defer interp.popLoopFrame()
	for {
		test, err := interp.evalExpression(s.Test, env)
		if err != nil {
			return normalFlow, err
		}
		if !test.ToBoolean() {
			return normalFlow, nil
		}
		flow, err := interp.execStatement(s.Body, env)
		if err != nil {
			return normalFlow, err
		}
		if exit, out := frame.settle(flow); exit {
			return out, nil
		}
	}
}

func (interp *Interpreter) execDoWhile(s *ast.DoWhileStatement, env *runtime.Environment) (ExecFlow, error) {
	frame := interp.pushLoopFrame()
	defer interp.popLoopFrame()
	for {
		flow, err := interp.execStatement(s.Body, env)
		if err != nil {
			return normalFlow, err
		}
		if exit, out := frame.settle(flow); exit {
			return out, nil
		}
		test, err := interp.evalExpression(s.Test, env)
		if err != nil {
			return normalFlow, err
		}
		if !test.ToBoolean() {
			return normalFlow, nil
		}
	}
}

// execFor scopes a let/const init clause to the loop and gives every
// iteration its own copy of those bindings, so closures created in the
// body keep the value of their iteration.
func (interp *Interpreter) execFor(s *ast.ForStatement, env *runtime.Environment) (ExecFlow, error) {
	frame := interp.pushLoopFrame()
	defer interp.popLoopFrame()

	loopEnv := env
	var perIteration []string
	switch init := s.Init.(type) {
	case nil:
	case *ast.VariableDeclaration:
		if init.Kind != "var" {
			loopEnv = runtime.NewEnvironment(env, runtime.ScopeBlock)
			names := collectDirectTDZBindingNames([]ast.Statement{init})
			interp.pushTDZFrame(names, loopEnv)
			defer interp.popTDZFrame()
			if init.Kind == "let" {
				for _, n := range names {
					perIteration = append(perIteration, n.name)
				}
			}
		}
		if err := interp.execVarDecl(init, loopEnv); err != nil {
			return normalFlow, err
		}
	case ast.Expression:
		if _, err := interp.evalExpression(init, env); err != nil {
			return normalFlow, err
		}
	}

	iterEnv := interp.copyIterationEnv(loopEnv, env, perIteration)
	for {
		if s.Test != nil {
			test, err := interp.evalExpression(s.Test, iterEnv)
			if err != nil {
				return normalFlow, err
			}
			if !test.ToBoolean() {
				return normalFlow, nil
			}
		}
		flow, err := interp.execStatement(s.Body, iterEnv)
		if err != nil {
			return normalFlow, err
		}
		if exit, out := frame.settle(flow); exit {
			return out, nil
		}
		iterEnv = interp.copyIterationEnv(iterEnv, env, perIteration)
		if s.Update != nil {
			if _, err := interp.evalExpression(s.Update, iterEnv); err != nil {
				return normalFlow, err
			}
		}
	}
}

func (interp *Interpreter) copyIterationEnv(prev, outer *runtime.Environment, names []string) *runtime.Environment {
	if len(names) == 0 {
		return prev
	}
	next := runtime.NewEnvironment(outer, runtime.ScopeBlock)
	next.CopyBindings(prev, names)
	return next
}

// bindLoopHead binds one iteration value to a for-in/of head. Lexical
// declarations get a fresh scope per iteration.
func (interp *Interpreter) bindLoopHead(left ast.Node, v *runtime.Value, env *runtime.Environment) (*runtime.Environment, error) {
	switch l := left.(type) {
	case *ast.VariableDeclaration:
		target := l.Declarations[0].Target
		if l.Kind == "var" {
			return env, interp.bindPattern(target, v, "var", env)
		}
		iterEnv := runtime.NewEnvironment(env, runtime.ScopeBlock)
		for _, name := range boundNames(target) {
			iterEnv.DeclareUninitialized(name, l.Kind)
		}
		return iterEnv, interp.bindPattern(target, v, l.Kind, iterEnv)
	case ast.Expression:
		return env, interp.bindPattern(l, v, "", env)
	}
	return env, runtime.NewSyntaxError("Invalid left-hand side in for loop")
}

// forInKeys lists enumerable string keys along the prototype chain. A key
// seen on a nearer object hides farther ones even when it is not
// enumerable.
func (interp *Interpreter) forInKeys(obj *runtime.Object) []string {
	seen := hashset.New()
	var keys []string
	for cur := obj; cur != nil; cur = cur.Prototype {
		for _, k := range cur.OwnKeys() {
			if seen.Contains(k) {
				continue
			}
			seen.Add(k)
			if cur.IsEnumerable(k) {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func (interp *Interpreter) execForIn(s *ast.ForInStatement, env *runtime.Environment) (ExecFlow, error) {
	frame := interp.pushLoopFrame()
	defer interp.popLoopFrame()

	src, err := interp.evalExpression(s.Right, env)
	if err != nil {
		return normalFlow, err
	}
	if src.IsNullish() {
		return normalFlow, nil
	}
	obj, err := interp.realm.ToObject(src)
	if err != nil {
		return normalFlow, err
	}
	if src.Type == runtime.TypeString {
		obj = interp.realm.NewArray(nil)
		for i := range []rune(src.Str) {
			obj.SetIndex(i, runtime.NewString(""))
		}
	}
	for _, key := range interp.forInKeys(obj) {
		if !obj.HasProperty(key) {
			continue
		}
		iterEnv, err := interp.bindLoopHead(s.Left, runtime.NewString(key), env)
		if err != nil {
			return normalFlow, err
		}
		flow, err := interp.execStatement(s.Body, iterEnv)
		if err != nil {
			return normalFlow, err
		}
		if exit, out := frame.settle(flow); exit {
			return out, nil
		}
	}
	return normalFlow, nil
}

// materialize snapshots the built-in iterable kinds for for...of.
func (interp *Interpreter) materialize(v *runtime.Value) ([]*runtime.Value, bool) {
	if v.Type == runtime.TypeString {
		var out []*runtime.Value
		for _, r := range v.Str {
			out = append(out, runtime.NewString(string(r)))
		}
		return out, true
	}
	if !v.IsObject() {
		return nil, false
	}
	obj := v.Object
	switch obj.OType {
	case runtime.ObjTypeArray, runtime.ObjTypeNodeList, runtime.ObjTypeTypedArray:
		if custom := obj.GetSymbol(runtime.SymbolIterator); custom.IsCallable() && !interp.isIntrinsicValues(custom) {
			return nil, false
		}
		out := make([]*runtime.Value, len(obj.ArrayData))
		for i, el := range obj.ArrayData {
			if el == nil {
				el = runtime.Undefined
			}
			out[i] = el
		}
		return out, true
	case runtime.ObjTypeMap:
		var out []*runtime.Value
		for _, kv := range obj.Collection.Entries() {
			out = append(out, interp.realm.ArrayValue([]*runtime.Value{kv[0], kv[1]}))
		}
		return out, true
	case runtime.ObjTypeSet:
		var out []*runtime.Value
		for _, kv := range obj.Collection.Entries() {
			out = append(out, kv[0])
		}
		return out, true
	}
	return nil, false
}

// isIntrinsicValues reports whether fn is the engine's own array values
// iterator rather than a script override.
func (interp *Interpreter) isIntrinsicValues(fn *runtime.Value) bool {
	values := interp.realm.ArrayPrototype.GetSymbol(runtime.SymbolIterator)
	return values.IsObject() && values.Object == fn.Object
}

// forOfIterator picks the iteration source for for...of.
func (interp *Interpreter) forOfIterator(v *runtime.Value) (*runtime.Iterator, error) {
	if items, ok := interp.materialize(v); ok {
		i := 0
		return runtime.IteratorOf(func() (*runtime.Value, bool, error) {
			if i >= len(items) {
				return runtime.Undefined, true, nil
			}
			i++
			return items[i-1], false, nil
		}), nil
	}
	if v.IsObject() {
		obj := v.Object
		if obj.IteratorNext == nil && !obj.GetSymbol(runtime.SymbolIterator).IsCallable() {
			// A pair sequence: an object whose entries() returns an array.
			if entries := obj.Get("entries"); entries.IsCallable() {
				res, err := entries.Object.Callable(v, nil)
				if err != nil {
					return nil, err
				}
				if res.IsObject() && res.Object.OType == runtime.ObjTypeArray {
					return interp.forOfIterator(res)
				}
			}
		}
	}
	return runtime.GetIterator(interp.realm, v)
}

func (interp *Interpreter) execForOf(s *ast.ForOfStatement, env *runtime.Environment) (ExecFlow, error) {
	frame := interp.pushLoopFrame()
	defer interp.popLoopFrame()

	src, err := interp.evalExpression(s.Right, env)
	if err != nil {
		return normalFlow, err
	}
	var it *runtime.Iterator
	if s.Await {
		it, err = interp.asyncIterator(src)
	} else {
		it, err = interp.forOfIterator(src)
	}
	if err != nil {
		return normalFlow, err
	}
	for {
		v, done, err := it.Next()
		if err != nil {
			return normalFlow, err
		}
		if done {
			return normalFlow, nil
		}
		flow, err := interp.runForOfBody(s, v, env)
		if err != nil {
			// A throwing return() never masks the body's error. Fatal
			// unwinds run no script code, so the iterator stays open.
			if !runtime.IsFatal(err) {
				_ = it.Close()
			}
			return normalFlow, err
		}
		exit, out := frame.settle(flow)
		if exit {
			if cerr := it.Close(); cerr != nil {
				return normalFlow, cerr
			}
			return out, nil
		}
	}
}

func (interp *Interpreter) runForOfBody(s *ast.ForOfStatement, v *runtime.Value, env *runtime.Environment) (ExecFlow, error) {
	iterEnv, err := interp.bindLoopHead(s.Left, v, env)
	if err != nil {
		return normalFlow, err
	}
	return interp.execStatement(s.Body, iterEnv)
}

// asyncIterator prefers Symbol.asyncIterator, falling back to the sync
// sources with every value awaited.
func (interp *Interpreter) asyncIterator(v *runtime.Value) (*runtime.Iterator, error) {
	if v.IsObject() && v.Object.GetSymbol(runtime.SymbolAsyncIterator).IsCallable() {
		return runtime.GetAsyncIterator(interp.realm, v, interp.await)
	}
	sync, err := interp.forOfIterator(v)
	if err != nil {
		return nil, err
	}
	return runtime.NewIterator(func() (*runtime.Value, bool, error) {
		val, done, err := sync.Next()
		if err != nil || done {
			return val, done, err
		}
		val, err = interp.await(val)
		return val, false, err
	}, sync.Close), nil
}
