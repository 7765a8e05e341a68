package interpreter

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// listKind says which statement list is being executed; var hoisting and
// import binding only happen at function, script and module tops.
type listKind int

const (
	listBlock listKind = iota
	listFunction
	listScript
	listModule
)

// defaultExportSlot holds the value of `export default <expression>` and of
// anonymous default-exported classes.
const defaultExportSlot = "%default"

type lexicalName struct {
	name string
	kind string
}

// boundNames lists the identifiers a binding target introduces.
func boundNames(target ast.Expression) []string {
	var names []string
	var walk func(ast.Expression)
	walk = func(e ast.Expression) {
		switch t := e.(type) {
		case *ast.Identifier:
			names = append(names, t.Value)
		case *ast.AssignmentPattern:
			walk(t.Target)
		case *ast.RestElement:
			walk(t.Argument)
		case *ast.ArrayPattern:
			for _, el := range t.Elements {
				if el != nil {
					walk(el)
				}
			}
			if t.Rest != nil {
				walk(t.Rest)
			}
		case *ast.ObjectPattern:
			for _, p := range t.Properties {
				walk(p.Value)
			}
			if t.Rest != nil {
				walk(t.Rest)
			}
		}
	}
	walk(target)
	return names
}

func declarationNames(decl *ast.VariableDeclaration) []string {
	var names []string
	for _, d := range decl.Declarations {
		names = append(names, boundNames(d.Target)...)
	}
	return names
}

// collectVarDeclaredNames walks nested statements, but not nested
// functions, for var declarations. Names keep first-seen order.
func collectVarDeclaredNames(stmts []ast.Statement) []string {
	seen := map[string]bool{}
	var names []string
	add := func(list []string) {
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	var visit func(ast.Statement)
	visitNode := func(n ast.Node) {
		if decl, ok := n.(*ast.VariableDeclaration); ok && decl.Kind == "var" {
			add(declarationNames(decl))
		}
	}
	visit = func(stmt ast.Statement) {
		switch s := stmt.(type) {
		case *ast.VariableDeclaration:
			visitNode(s)
		case *ast.ExportNamedDeclaration:
			if s.Declaration != nil {
				visit(s.Declaration)
			}
		case *ast.BlockStatement:
			for _, inner := range s.Statements {
				visit(inner)
			}
		case *ast.IfStatement:
			visit(s.Consequent)
			if s.Alternate != nil {
				visit(s.Alternate)
			}
		case *ast.WhileStatement:
			visit(s.Body)
		case *ast.DoWhileStatement:
			visit(s.Body)
		case *ast.ForStatement:
			if s.Init != nil {
				visitNode(s.Init)
			}
			visit(s.Body)
		case *ast.ForInStatement:
			visitNode(s.Left)
			visit(s.Body)
		case *ast.ForOfStatement:
			visitNode(s.Left)
			visit(s.Body)
		case *ast.SwitchStatement:
			for _, c := range s.Cases {
				for _, inner := range c.Consequent {
					visit(inner)
				}
			}
		case *ast.TryStatement:
			visit(s.Block)
			if s.Handler != nil {
				visit(s.Handler.Body)
			}
			if s.Finalizer != nil {
				visit(s.Finalizer)
			}
		case *ast.LabeledStatement:
			visit(s.Body)
		case *ast.WithStatement:
			visit(s.Body)
		}
	}
	for _, stmt := range stmts {
		visit(stmt)
	}
	return names
}

// directFunctions returns the function declarations of this list,
// including exported ones and those wrapped in labels.
func directFunctions(stmts []ast.Statement) []*ast.FunctionDeclaration {
	var out []*ast.FunctionDeclaration
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FunctionDeclaration:
			out = append(out, s)
		case *ast.LabeledStatement:
			_, body := labelChain(s)
			if fd, ok := body.(*ast.FunctionDeclaration); ok {
				out = append(out, fd)
			}
		case *ast.ExportNamedDeclaration:
			if fd, ok := s.Declaration.(*ast.FunctionDeclaration); ok {
				out = append(out, fd)
			}
		case *ast.ExportDefaultDeclaration:
			if fd, ok := s.Declaration.(*ast.FunctionDeclaration); ok {
				out = append(out, fd)
			}
		}
	}
	return out
}

func functionBindingName(fd *ast.FunctionDeclaration) string {
	if fd.Function.Name == nil {
		return defaultExportSlot
	}
	return fd.Function.Name.Value
}

// collectDirectTDZBindingNames returns only this list's own let, const
// and class names.
func collectDirectTDZBindingNames(stmts []ast.Statement) []lexicalName {
	var names []lexicalName
	var visit func(ast.Node)
	visit = func(n ast.Node) {
		switch s := n.(type) {
		case *ast.VariableDeclaration:
			if s.Kind == "var" {
				return
			}
			for _, name := range declarationNames(s) {
				names = append(names, lexicalName{name, s.Kind})
			}
		case *ast.ClassDeclaration:
			if s.Class.Name != nil {
				names = append(names, lexicalName{s.Class.Name.Value, runtime.BindClass})
			} else {
				names = append(names, lexicalName{defaultExportSlot, runtime.BindConst})
			}
		case *ast.ExportNamedDeclaration:
			if s.Declaration != nil {
				visit(s.Declaration)
			}
		case *ast.ExportDefaultDeclaration:
			switch d := s.Declaration.(type) {
			case *ast.ClassDeclaration:
				visit(d)
			case *ast.FunctionDeclaration:
			default:
				names = append(names, lexicalName{defaultExportSlot, runtime.BindConst})
			}
		}
	}
	for _, stmt := range stmts {
		visit(stmt)
	}
	return names
}

// collectBlockFunctionNames finds function declarations nested in blocks
// of this body. Sloppy scripts see them as vars of the enclosing function
// once the block has run.
func collectBlockFunctionNames(stmts []ast.Statement) []string {
	var names []string
	var visitList func([]ast.Statement, bool)
	var visit func(ast.Statement)
	visit = func(stmt ast.Statement) {
		switch s := stmt.(type) {
		case *ast.BlockStatement:
			visitList(s.Statements, true)
		case *ast.IfStatement:
			visit(s.Consequent)
			if s.Alternate != nil {
				visit(s.Alternate)
			}
		case *ast.WhileStatement:
			visit(s.Body)
		case *ast.DoWhileStatement:
			visit(s.Body)
		case *ast.ForStatement:
			visit(s.Body)
		case *ast.ForInStatement:
			visit(s.Body)
		case *ast.ForOfStatement:
			visit(s.Body)
		case *ast.TryStatement:
			visit(s.Block)
			if s.Handler != nil {
				visit(s.Handler.Body)
			}
			if s.Finalizer != nil {
				visit(s.Finalizer)
			}
		case *ast.SwitchStatement:
			for _, c := range s.Cases {
				visitList(c.Consequent, true)
			}
		case *ast.LabeledStatement:
			visit(s.Body)
		}
	}
	visitList = func(list []ast.Statement, nested bool) {
		for _, stmt := range list {
			if fd, ok := stmt.(*ast.FunctionDeclaration); ok {
				if nested && !fd.Function.Generator && !fd.Function.Async {
					names = append(names, fd.Function.Name.Value)
				}
				continue
			}
			visit(stmt)
		}
	}
	visitList(stmts, false)
	return names
}

// hoistFunctionDeclarations binds this list's function declarations so
// they can be called before the statement that declares them.
func (interp *Interpreter) hoistFunctionDeclarations(stmts []ast.Statement, env *runtime.Environment) {
	for _, fd := range directFunctions(stmts) {
		name := functionBindingName(fd)
		fnName := name
		if name == defaultExportSlot {
			fnName = "default"
		}
		fn := interp.makeClosure(fd.Function, env, fnName, false)
		if b, ok := env.Own(name); ok && !b.IsLexical() {
			b.Value = fn
			b.Initialized = true
			continue
		}
		env.Declare(name, runtime.BindFunction, fn)
	}
}

// hoistVarDeclarations binds every var name of a function, script or
// module body to Undefined unless the name already exists there.
func (interp *Interpreter) hoistVarDeclarations(stmts []ast.Statement, env *runtime.Environment) {
	for _, name := range collectVarDeclaredNames(stmts) {
		env.DeclareVar(name)
	}
	lexical := map[string]bool{}
	for _, n := range collectDirectTDZBindingNames(stmts) {
		lexical[n.name] = true
	}
	for _, name := range collectBlockFunctionNames(stmts) {
		if !lexical[name] {
			env.DeclareVar(name)
		}
	}
}

// validateConstRedeclarations rejects, in one pass, duplicate lexical
// names in this list (imports count as lexical), lexical names that
// collide with var-like names of the list (including nested vars), and,
// at script top level, lexical names already bound by an earlier script.
func (interp *Interpreter) validateConstRedeclarations(stmts []ast.Statement, env *runtime.Environment, kind listKind) error {
	lexical := collectDirectTDZBindingNames(stmts)
	if len(lexical) == 0 && kind != listScript && kind != listModule {
		return nil
	}
	seen := make(map[string]bool, len(lexical))
	for _, n := range lexical {
		if seen[n.name] {
			return redeclared(n.name)
		}
		seen[n.name] = true
	}
	if kind == listModule {
		for _, name := range importLocals(stmts) {
			if seen[name] {
				return redeclared(name)
			}
			seen[name] = true
		}
	}
	varLike := collectVarDeclaredNames(stmts)
	for _, fd := range directFunctions(stmts) {
		varLike = append(varLike, functionBindingName(fd))
	}
	for _, name := range varLike {
		if seen[name] {
			return redeclared(name)
		}
	}
	if kind == listScript && env == interp.global {
		for _, n := range lexical {
			if b, ok := env.Own(n.name); ok && b.Kind != runtime.BindGlobal {
				return redeclared(n.name)
			}
		}
		for _, name := range varLike {
			if b, ok := env.Own(name); ok && b.IsLexical() {
				return redeclared(name)
			}
		}
	}
	if kind == listFunction {
		// Parameters live in the same frame as the body.
		for _, n := range lexical {
			if b, ok := env.Own(n.name); ok && b.Kind == runtime.BindParam {
				return redeclared(n.name)
			}
		}
	}
	return nil
}

func redeclared(name string) error {
	return runtime.NewSyntaxError("Identifier '%s' has already been declared", name)
}

// needsScope reports whether a nested list declares block-scoped names.
func needsScope(stmts []ast.Statement) bool {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.VariableDeclaration:
			if s.Kind != "var" {
				return true
			}
		case *ast.ClassDeclaration, *ast.FunctionDeclaration:
			return true
		}
	}
	return false
}
