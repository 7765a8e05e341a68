package interpreter

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// execStatements runs one statement list: hoist functions, bind a
// module's imports, hoist vars, open the list's TDZ frame, publish a
// module's exports, then run each statement until an error or a
// non-normal flow.
func (interp *Interpreter) execStatements(stmts []ast.Statement, env *runtime.Environment, kind listKind) (ExecFlow, error) {
	if err := interp.enter(); err != nil {
		return normalFlow, err
	}
	defer interp.leave()

	if err := interp.validateConstRedeclarations(stmts, env, kind); err != nil {
		return normalFlow, err
	}
	interp.hoistFunctionDeclarations(stmts, env)
	if kind == listModule {
		if err := interp.linkImports(stmts, env); err != nil {
			return normalFlow, err
		}
	}
	if kind != listBlock {
		interp.hoistVarDeclarations(stmts, env)
	}
	interp.pushTDZFrame(collectDirectTDZBindingNames(stmts), env)
	defer interp.popTDZFrame()
	if kind == listModule {
		if err := interp.linkExports(stmts, env); err != nil {
			return normalFlow, err
		}
	}

	for _, stmt := range stmts {
		flow, err := interp.execStatement(stmt, env)
		if err != nil {
			return flow, err
		}
		if flow.Kind != FlowNormal {
			return flow, nil
		}
	}
	return normalFlow, nil
}

// execNested runs a nested list in a child scope when it declares
// block-scoped names.
func (interp *Interpreter) execNested(stmts []ast.Statement, env *runtime.Environment) (ExecFlow, error) {
	if needsScope(stmts) {
		env = runtime.NewEnvironment(env, runtime.ScopeBlock)
	}
	return interp.execStatements(stmts, env, listBlock)
}

func (interp *Interpreter) execStatement(stmt ast.Statement, env *runtime.Environment) (ExecFlow, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		v, err := interp.evalExpression(s.Expression, env)
		if err != nil {
			return normalFlow, err
		}
		interp.cur.completion = v
		return normalFlow, nil
	case *ast.VariableDeclaration:
		return normalFlow, interp.execVarDecl(s, env)
	case *ast.FunctionDeclaration:
		interp.execFunctionDecl(s, env)
		return normalFlow, nil
	case *ast.ClassDeclaration:
		return normalFlow, interp.execClassDecl(s, env)
	case *ast.BlockStatement:
		return interp.execNested(s.Statements, env)
	case *ast.EmptyStatement, *ast.DebuggerStatement:
		return normalFlow, nil
	case *ast.ReturnStatement:
		return interp.execReturn(s, env)
	case *ast.IfStatement:
		return interp.execIf(s, env)
	case *ast.WhileStatement:
		return interp.execWhile(s, env)
	case *ast.DoWhileStatement:
		return interp.execDoWhile(s, env)
	case *ast.ForStatement:
		return interp.execFor(s, env)
	case *ast.ForInStatement:
		return interp.execForIn(s, env)
	case *ast.ForOfStatement:
		return interp.execForOf(s, env)
	case *ast.BreakStatement:
		flow := ExecFlow{Kind: FlowBreak}
		if s.Label != nil {
			flow.Label = s.Label.Value
		}
		return flow, nil
	case *ast.ContinueStatement:
		flow := ExecFlow{Kind: FlowContinue}
		if s.Label != nil {
			flow.Label = s.Label.Value
		}
		return flow, nil
	case *ast.SwitchStatement:
		return interp.execSwitch(s, env)
	case *ast.ThrowStatement:
		v, err := interp.evalExpression(s.Argument, env)
		if err != nil {
			return normalFlow, err
		}
		return normalFlow, throwValue(v)
	case *ast.TryStatement:
		return interp.execTry(s, env)
	case *ast.LabeledStatement:
		return interp.execLabeled(s, env)
	case *ast.WithStatement:
		return normalFlow, runtime.NewSyntaxError("with statements are not supported")
	case *ast.ImportDeclaration:
		// Bound before the body runs.
		return normalFlow, nil
	case *ast.ExportNamedDeclaration:
		if s.Declaration != nil {
			return interp.execStatement(s.Declaration, env)
		}
		return normalFlow, nil
	case *ast.ExportDefaultDeclaration:
		return normalFlow, interp.execExportDefault(s, env)
	case *ast.ExportAllDeclaration:
		return normalFlow, nil
	}
	return normalFlow, runtime.NewSyntaxError("unsupported statement %T", stmt)
}

func (interp *Interpreter) execVarDecl(s *ast.VariableDeclaration, env *runtime.Environment) error {
	for _, d := range s.Declarations {
		if d.Init == nil {
			if s.Kind == "var" {
				continue
			}
			if err := interp.bindPattern(d.Target, runtime.Undefined, s.Kind, env); err != nil {
				return err
			}
			continue
		}
		v, err := interp.evalNamed(d.Init, env, targetName(d.Target))
		if err != nil {
			return err
		}
		if err := interp.bindPattern(d.Target, v, s.Kind, env); err != nil {
			return err
		}
	}
	return nil
}

// execFunctionDecl runs when control reaches a declaration that was
// already hoisted. Inside a block it also publishes the function to the
// enclosing function's var of the same name.
func (interp *Interpreter) execFunctionDecl(s *ast.FunctionDeclaration, env *runtime.Environment) {
	if !env.IsBlock() || s.Function.Name == nil {
		return
	}
	name := s.Function.Name.Value
	own, ok := env.Own(name)
	if !ok {
		return
	}
	if b, ok := env.Outer().FunctionScope().Own(name); ok && b.Kind == runtime.BindVar {
		b.Value = own.Current()
	}
}

func (interp *Interpreter) execClassDecl(s *ast.ClassDeclaration, env *runtime.Environment) error {
	name := defaultExportSlot
	display := "default"
	if s.Class.Name != nil {
		name = s.Class.Name.Value
		display = name
	}
	cls, err := interp.evalClass(s.Class, env, display)
	if err != nil {
		return err
	}
	interp.markTDZInitialized(name, env, cls)
	return nil
}

func (interp *Interpreter) execReturn(s *ast.ReturnStatement, env *runtime.Environment) (ExecFlow, error) {
	v := runtime.Undefined
	if s.Argument != nil {
		var err error
		if v, err = interp.evalExpression(s.Argument, env); err != nil {
			return normalFlow, err
		}
	}
	env.FunctionScope().SetInCurrentScope(slotReturn, v)
	return ExecFlow{Kind: FlowReturn}, nil
}

func (interp *Interpreter) execIf(s *ast.IfStatement, env *runtime.Environment) (ExecFlow, error) {
	test, err := interp.evalExpression(s.Test, env)
	if err != nil {
		return normalFlow, err
	}
	if test.ToBoolean() {
		return interp.execStatement(s.Consequent, env)
	}
	if s.Alternate != nil {
		return interp.execStatement(s.Alternate, env)
	}
	return normalFlow, nil
}

func (interp *Interpreter) execSwitch(s *ast.SwitchStatement, env *runtime.Environment) (ExecFlow, error) {
	disc, err := interp.evalExpression(s.Discriminant, env)
	if err != nil {
		return normalFlow, err
	}
	// All clauses share one scope.
	var all []ast.Statement
	starts := make([]int, len(s.Cases))
	for i, c := range s.Cases {
		starts[i] = len(all)
		all = append(all, c.Consequent...)
	}
	scope := env
	if needsScope(all) {
		scope = runtime.NewEnvironment(env, runtime.ScopeBlock)
	}
	if err := interp.enter(); err != nil {
		return normalFlow, err
	}
	defer interp.leave()
	if err := interp.validateConstRedeclarations(all, scope, listBlock); err != nil {
		return normalFlow, err
	}
	interp.hoistFunctionDeclarations(all, scope)
	interp.pushTDZFrame(collectDirectTDZBindingNames(all), scope)
	defer interp.popTDZFrame()

	start := -1
	for i, c := range s.Cases {
		if c.Test == nil {
			continue
		}
		v, err := interp.evalExpression(c.Test, scope)
		if err != nil {
			return normalFlow, err
		}
		if runtime.StrictEquals(disc, v) {
			start = i
			break
		}
	}
	if start < 0 {
		for i, c := range s.Cases {
			if c.Test == nil {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return normalFlow, nil
	}
	for _, stmt := range all[starts[start]:] {
		flow, err := interp.execStatement(stmt, scope)
		if err != nil {
			return flow, err
		}
		switch {
		case flow.Kind == FlowBreak && flow.Label == "":
			return normalFlow, nil
		case flow.Kind != FlowNormal:
			return flow, nil
		}
	}
	return normalFlow, nil
}

// execTry runs the try block, then the handler for catchable errors, then
// the finalizer. A finalizer that completes abruptly replaces the pending
// outcome.
func (interp *Interpreter) execTry(s *ast.TryStatement, env *runtime.Environment) (ExecFlow, error) {
	flow, err := interp.execNested(s.Block.Statements, env)
	if err != nil && s.Handler != nil && catchable(err) {
		flow, err = interp.execCatch(s.Handler, err, env)
	}
	if s.Finalizer == nil || runtime.IsFatal(err) {
		return flow, err
	}
	fflow, ferr := interp.execNested(s.Finalizer.Statements, env)
	if ferr != nil || fflow.Kind != FlowNormal {
		return fflow, ferr
	}
	return flow, err
}

func (interp *Interpreter) execCatch(c *ast.CatchClause, caught error, env *runtime.Environment) (ExecFlow, error) {
	scope := runtime.NewEnvironment(env, runtime.ScopeBlock)
	if c.Param != nil {
		if err := interp.bindPattern(c.Param, interp.errorValue(caught), runtime.BindParam, scope); err != nil {
			return normalFlow, err
		}
	}
	return interp.execNested(c.Body.Statements, scope)
}

// targetName is the name inferred for an anonymous function assigned to
// target.
func targetName(target ast.Expression) string {
	if id, ok := target.(*ast.Identifier); ok {
		return id.Value
	}
	return ""
}
