package interpreter

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/builtins"
	"github.com/finitefield-org/browser-tester-sub000/parser"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// ErrModuleNotFound is returned when a specifier resolves to nothing.
var ErrModuleNotFound = errors.New("module not found")

// ModuleLoader turns import specifiers into module source text.
type ModuleLoader interface {
	// Resolve maps a specifier seen in referrer to a canonical module id.
	Resolve(specifier, referrer string) (string, error)
	// Load returns the source of a resolved module id.
	Load(id string) (string, error)
}

// SourceLoader serves registered in-memory sources first, then files
// under root.
type SourceLoader struct {
	root    string
	sources map[string]string
	aliases map[string]string
}

func NewSourceLoader(root string) *SourceLoader {
	return &SourceLoader{root: root, sources: map[string]string{}, aliases: map[string]string{}}
}

// Register makes source importable under id.
func (l *SourceLoader) Register(id, source string) {
	l.sources[path.Clean(id)] = source
}

// Alias maps a bare specifier to a file path relative to root.
func (l *SourceLoader) Alias(specifier, file string) {
	l.aliases[specifier] = filepath.ToSlash(file)
}

func (l *SourceLoader) Resolve(specifier, referrer string) (string, error) {
	if _, ok := l.sources[specifier]; ok {
		return specifier, nil
	}
	if file, ok := l.aliases[specifier]; ok {
		return path.Clean(file), nil
	}
	id := specifier
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		base := "."
		if referrer != "" {
			base = path.Dir(referrer)
		}
		id = path.Join(base, specifier)
	}
	id = path.Clean(id)
	if _, ok := l.sources[id]; ok {
		return id, nil
	}
	if l.root == "" && !path.IsAbs(id) {
		return "", errors.Wrapf(ErrModuleNotFound, "cannot resolve '%s'", specifier)
	}
	if _, err := os.Stat(l.filePath(id)); err != nil {
		return "", errors.Wrapf(ErrModuleNotFound, "cannot resolve '%s'", specifier)
	}
	return id, nil
}

func (l *SourceLoader) filePath(id string) string {
	if path.IsAbs(id) {
		return filepath.FromSlash(id)
	}
	return filepath.Join(l.root, filepath.FromSlash(id))
}

func (l *SourceLoader) Load(id string) (string, error) {
	if src, ok := l.sources[id]; ok {
		return src, nil
	}
	data, err := os.ReadFile(l.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrModuleNotFound, "%s", id)
		}
		return "", errors.Wrapf(err, "reading module %s", id)
	}
	return string(data), nil
}

type moduleStatus int

const (
	moduleEvaluating moduleStatus = iota
	moduleEvaluated
	moduleFailed
)

type moduleRecord struct {
	id      string
	status  moduleStatus
	exports *runtime.ExportTable
	err     error
	// linked is set once every export of the module is published.
	linked bool
	// pending holds imports of this module taken by a cycle partner
	// before it was linked.
	pending []pendingImport
}

// pendingImport is an import cell waiting for its exporter to link.
type pendingImport struct {
	cell      *runtime.Binding
	name      string
	specifier string
}

// RunModule evaluates source as the module id and returns its exports.
func (interp *Interpreter) RunModule(id, source string) (*runtime.ExportTable, error) {
	if l, ok := interp.loader.(*SourceLoader); ok {
		l.Register(id, source)
	}
	return interp.LoadModuleExports(id, "", "")
}

// LoadModuleExports resolves, evaluates (once) and returns the export
// table of a module. A module imported again while still evaluating, as
// in an import cycle, yields its partially initialized table.
func (interp *Interpreter) LoadModuleExports(specifier, attributeType, referrer string) (*runtime.ExportTable, error) {
	id, err := interp.loader.Resolve(specifier, referrer)
	if err != nil {
		return nil, err
	}
	key := id
	if attributeType != "" {
		key = id + "#" + attributeType
	}
	if rec, ok := interp.modules[key]; ok {
		if rec.status == moduleFailed {
			return nil, rec.err
		}
		return rec.exports, nil
	}
	src, err := interp.loader.Load(id)
	if err != nil {
		return nil, err
	}
	rec := &moduleRecord{id: id, exports: runtime.NewExportTable()}
	interp.modules[key] = rec
	log := interp.log.WithField("module", id)
	log.Debug("evaluating module")

	if err := interp.evaluateModule(rec, src, attributeType); err != nil {
		rec.status = moduleFailed
		rec.err = err
		log.WithError(err).Debug("module failed")
		return nil, err
	}
	rec.status = moduleEvaluated
	return rec.exports, nil
}

func (interp *Interpreter) evaluateModule(rec *moduleRecord, src, attributeType string) error {
	switch attributeType {
	case "":
	case "json":
		v, err := builtins.ParseJSON(interp.realm, src)
		if err != nil {
			return err
		}
		rec.exports.SetValue("default", v)
		return nil
	default:
		return runtime.NewTypeError("Import attribute type \"%s\" is not supported", attributeType)
	}
	prog, err := parser.ParseModule(src)
	if err != nil {
		return errors.Wrapf(err, "parsing module %s", rec.id)
	}
	env := runtime.NewEnvironment(interp.global, runtime.ScopeModule)
	env.Declare(slotThis, runtime.BindParam, runtime.Undefined)
	env.Declare(slotModule, runtime.BindParam, runtime.NewString(rec.id))

	saved := interp.cur
	interp.cur = &execContext{depth: saved.depth}
	defer func() { interp.cur = saved }()
	flow, err := interp.execStatements(prog.Statements, env, listModule)
	if err != nil {
		return err
	}
	if flow.Kind != FlowNormal {
		return illegalFlow(flow)
	}
	return nil
}

func moduleID(env *runtime.Environment) string {
	if b, _ := env.Lookup(slotModule); b != nil {
		return b.Current().Str
	}
	return ""
}

// evaluatingModule returns the record of the module whose body runs in env.
func (interp *Interpreter) evaluatingModule(env *runtime.Environment) *moduleRecord {
	id := moduleID(env)
	for _, rec := range interp.modules {
		if rec.id == id && rec.status == moduleEvaluating {
			return rec
		}
	}
	return nil
}

func (interp *Interpreter) moduleExports(env *runtime.Environment) *runtime.ExportTable {
	if rec := interp.evaluatingModule(env); rec != nil {
		return rec.exports
	}
	return runtime.NewExportTable()
}

// unlinkedModule returns the record behind table while its exports are
// still being published.
func (interp *Interpreter) unlinkedModule(table *runtime.ExportTable) *moduleRecord {
	for _, rec := range interp.modules {
		if rec.exports == table && rec.status == moduleEvaluating && !rec.linked {
			return rec
		}
	}
	return nil
}

// importLocals lists the local names bound by a module's imports.
func importLocals(stmts []ast.Statement) []string {
	var names []string
	for _, stmt := range stmts {
		if imp, ok := stmt.(*ast.ImportDeclaration); ok {
			for _, spec := range imp.Specifiers {
				names = append(names, spec.Local.Value)
			}
		}
	}
	return names
}

func importedNames(stmts []ast.Statement) map[string]bool {
	imported := map[string]bool{}
	for _, name := range importLocals(stmts) {
		imported[name] = true
	}
	return imported
}

// linkImports runs right after function hoisting. It publishes the
// hoisted function exports, so a cycle partner can call them while this
// module waits on it, then binds every import.
func (interp *Interpreter) linkImports(stmts []ast.Statement, env *runtime.Environment) error {
	if err := interp.registerExports(stmts, env, importedNames(stmts), exportHoisted); err != nil {
		return err
	}
	return interp.bindImports(stmts, env)
}

// linkExports runs once var and lexical names are declared. It publishes
// the remaining local exports and the re-exports, then resolves imports a
// cycle partner took from this module before it was linked.
func (interp *Interpreter) linkExports(stmts []ast.Statement, env *runtime.Environment) error {
	imported := importedNames(stmts)
	if err := interp.registerExports(stmts, env, imported, exportLocal); err != nil {
		return err
	}
	if err := interp.registerExports(stmts, env, imported, exportForwarded); err != nil {
		return err
	}
	rec := interp.evaluatingModule(env)
	if rec == nil {
		return nil
	}
	rec.linked = true
	for _, p := range rec.pending {
		b, ok := rec.exports.Binding(p.name)
		if !ok {
			return runtime.NewSyntaxError("The requested module '%s' does not provide an export named '%s'", p.specifier, p.name)
		}
		p.cell.Resolve(b)
	}
	rec.pending = nil
	return nil
}

// bindImports links every import of a module body before it runs.
func (interp *Interpreter) bindImports(stmts []ast.Statement, env *runtime.Environment) error {
	referrer := moduleID(env)
	for _, stmt := range stmts {
		imp, ok := stmt.(*ast.ImportDeclaration)
		if !ok {
			continue
		}
		table, err := interp.LoadModuleExports(imp.Source, imp.AttributeType, referrer)
		if err != nil {
			return err
		}
		for _, spec := range imp.Specifiers {
			local := spec.Local.Value
			name := spec.Imported
			switch spec.Kind {
			case ast.ImportNamespace:
				env.Declare(local, runtime.BindImport, interp.namespaceObject(table))
				continue
			case ast.ImportDefault:
				name = "default"
			}
			b, ok := table.Binding(name)
			if ok {
				env.DeclareLink(local, b)
				continue
			}
			// A cycle partner still linking may publish name later; until
			// then the import sits in its TDZ.
			rec := interp.unlinkedModule(table)
			if rec == nil {
				return runtime.NewSyntaxError("The requested module '%s' does not provide an export named '%s'", imp.Source, name)
			}
			rec.pending = append(rec.pending, pendingImport{cell: env.DeclarePendingLink(local), name: name, specifier: imp.Source})
		}
	}
	return nil
}

// exportPass selects which exports registerExports publishes.
type exportPass int

const (
	// exportHoisted publishes local exports already bound by function
	// hoisting and skips the rest.
	exportHoisted exportPass = iota
	// exportLocal publishes every export of the module's own declarations.
	exportLocal
	// exportForwarded publishes imported names and re-exports.
	exportForwarded
)

// registerExports fills the module's export table with live bindings.
func (interp *Interpreter) registerExports(stmts []ast.Statement, env *runtime.Environment, imported map[string]bool, pass exportPass) error {
	table := interp.moduleExports(env)
	referrer := moduleID(env)
	forwarded := pass == exportForwarded
	bindLocal := func(exported, local string) error {
		if imported[local] != forwarded {
			return nil
		}
		b, ok := env.Own(local)
		if !ok {
			if pass == exportHoisted {
				return nil
			}
			return runtime.NewSyntaxError("Export '%s' is not defined in module", local)
		}
		if pass == exportLocal {
			// Keep source order for names the hoisted pass published early.
			table.Append(exported, b)
			return nil
		}
		table.Bind(exported, b)
		return nil
	}
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.ExportNamedDeclaration:
			if s.Source != "" {
				if !forwarded {
					continue
				}
				src, err := interp.LoadModuleExports(s.Source, s.AttributeType, referrer)
				if err != nil {
					return err
				}
				for _, spec := range s.Specifiers {
					b, ok := src.Binding(spec.Local)
					if !ok {
						return runtime.NewSyntaxError("The requested module '%s' does not provide an export named '%s'", s.Source, spec.Local)
					}
					table.Bind(spec.Exported, b)
				}
				continue
			}
			for _, spec := range s.Specifiers {
				if err := bindLocal(spec.Exported, spec.Local); err != nil {
					return err
				}
			}
			for _, name := range exportedDeclarationNames(s.Declaration) {
				if err := bindLocal(name, name); err != nil {
					return err
				}
			}
		case *ast.ExportDefaultDeclaration:
			local := defaultExportSlot
			switch d := s.Declaration.(type) {
			case *ast.FunctionDeclaration:
				local = functionBindingName(d)
			case *ast.ClassDeclaration:
				if d.Class.Name != nil {
					local = d.Class.Name.Value
				}
			}
			if err := bindLocal("default", local); err != nil {
				return err
			}
		case *ast.ExportAllDeclaration:
			if !forwarded {
				continue
			}
			src, err := interp.LoadModuleExports(s.Source, s.AttributeType, referrer)
			if err != nil {
				return err
			}
			if s.Exported != "" {
				table.SetValue(s.Exported, interp.namespaceObject(src))
				continue
			}
			for _, name := range src.Names() {
				if name == "default" || table.Has(name) {
					continue
				}
				b, _ := src.Binding(name)
				table.Bind(name, b)
			}
		}
	}
	return nil
}

func exportedDeclarationNames(decl ast.Statement) []string {
	switch d := decl.(type) {
	case *ast.VariableDeclaration:
		return declarationNames(d)
	case *ast.FunctionDeclaration:
		return []string{functionBindingName(d)}
	case *ast.ClassDeclaration:
		if d.Class.Name != nil {
			return []string{d.Class.Name.Value}
		}
	}
	return nil
}

func (interp *Interpreter) execExportDefault(s *ast.ExportDefaultDeclaration, env *runtime.Environment) error {
	switch d := s.Declaration.(type) {
	case *ast.FunctionDeclaration:
		return nil
	case *ast.ClassDeclaration:
		return interp.execClassDecl(d, env)
	case ast.Expression:
		v, err := interp.evalNamed(d, env, "default")
		if err != nil {
			return err
		}
		interp.markTDZInitialized(defaultExportSlot, env, v)
		return nil
	}
	return runtime.NewSyntaxError("unsupported default export %T", s.Declaration)
}

// namespaceHost exposes an export table as a read-only object whose
// properties track the live bindings.
type namespaceHost struct {
	table *runtime.ExportTable
}

func (h namespaceHost) GetHost(name string) (*runtime.Value, bool, error) {
	b, ok := h.table.Binding(name)
	if !ok {
		return nil, false, nil
	}
	if !b.Ready() {
		return nil, true, runtime.NewReferenceError("Cannot access '%s' before initialization", name)
	}
	return b.Current(), true, nil
}

func (h namespaceHost) SetHost(name string, v *runtime.Value) (bool, error) {
	return true, runtime.NewTypeError("Cannot assign to read only property '%s' of object '[object Module]'", name)
}

func (h namespaceHost) HostKeys() []string {
	return h.table.Names()
}

func (interp *Interpreter) namespaceObject(table *runtime.ExportTable) *runtime.Value {
	obj := &runtime.Object{OType: runtime.ObjTypeNamespace, Host: namespaceHost{table}}
	obj.DefineSymbol(runtime.SymbolToStringTag, &runtime.Property{Value: runtime.NewString("Module")})
	return runtime.NewObject(obj)
}
