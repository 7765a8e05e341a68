package runtime

import (
	"sort"
	"strings"
)

// Binding kinds.
const (
	BindVar      = "var"
	BindLet      = "let"
	BindConst    = "const"
	BindClass    = "class"
	BindFunction = "function"
	BindParam    = "param"
	BindImport   = "import"
	// BindGlobal marks host-provided globals such as builtins; scripts may
	// shadow them with lexical declarations.
	BindGlobal = "global"
	// BindCallee is a named function expression's own name inside its
	// body. Writes to it are ignored.
	BindCallee = "callee"
)

// ScopeKind distinguishes the frames var declarations hoist to from
// plain block frames.
type ScopeKind int

const (
	ScopeBlock ScopeKind = iota
	ScopeFunction
	ScopeGlobal
	ScopeModule
)

// Environment is one lexical scope frame.
type Environment struct {
	store map[string]*Binding
	outer *Environment
	kind  ScopeKind
}

// Binding is a variable cell. Initialized is false while the name is in
// its temporal dead zone. Link makes an import alias another module's cell.
type Binding struct {
	Value       *Value
	Mutable     bool
	Kind        string
	Initialized bool
	Link        *Binding
}

// IsLexical reports whether the binding is let/const/class.
func (b *Binding) IsLexical() bool {
	return b.Kind == BindLet || b.Kind == BindConst || b.Kind == BindClass
}

func (b *Binding) target() *Binding {
	for b.Link != nil {
		b = b.Link
	}
	return b
}

// Current returns the live value, following import links.
func (b *Binding) Current() *Value {
	t := b.target()
	if t.Value == nil {
		return Undefined
	}
	return t.Value
}

// Resolve completes a pending import link.
func (b *Binding) Resolve(target *Binding) {
	b.Link = target
	b.Initialized = true
}

// Ready reports whether the binding (or the cell it links to) left its TDZ.
func (b *Binding) Ready() bool {
	return b.Initialized && b.target().Initialized
}

func NewEnvironment(outer *Environment, kind ScopeKind) *Environment {
	return &Environment{
		store: make(map[string]*Binding),
		outer: outer,
		kind:  kind,
	}
}

// Declare creates an initialized binding in this frame. Lexical kinds fail
// when the name already exists here; var and function redeclarations
// overwrite the value of a var-like binding.
func (e *Environment) Declare(name, kind string, value *Value) error {
	if existing, ok := e.store[name]; ok {
		if existing.IsLexical() || kind == BindLet || kind == BindConst || kind == BindClass {
			return NewSyntaxError("Identifier '%s' has already been declared", name)
		}
		existing.Value = value
		existing.Initialized = true
		return nil
	}
	e.store[name] = &Binding{
		Value:       value,
		Mutable:     kind != BindConst && kind != BindImport,
		Kind:        kind,
		Initialized: true,
	}
	return nil
}

// DefineGlobal installs a host-provided binding. Writes to an immutable
// one fail with a TypeError.
func (e *Environment) DefineGlobal(name string, value *Value, mutable bool) {
	e.store[name] = &Binding{Value: value, Mutable: mutable, Kind: BindGlobal, Initialized: true}
}

// DefineCallee binds a named function expression to its own name.
func (e *Environment) DefineCallee(name string, fn *Value) {
	e.store[name] = &Binding{Value: fn, Kind: BindCallee, Initialized: true}
}

// CopyBindings copies the named cells of src into e by value, keeping
// their kind, const flag and TDZ state.
func (e *Environment) CopyBindings(src *Environment, names []string) {
	for _, name := range names {
		if b, ok := src.store[name]; ok {
			cp := *b
			e.store[name] = &cp
		}
	}
}

// DeclareUninitialized creates a binding in its temporal dead zone.
func (e *Environment) DeclareUninitialized(name, kind string) {
	e.store[name] = &Binding{
		Value:   Undefined,
		Mutable: kind != BindConst,
		Kind:    kind,
	}
}

// DeclarePendingLink binds name to a read-only cell that stays in its TDZ
// until Resolve points it at another module's binding.
func (e *Environment) DeclarePendingLink(name string) *Binding {
	b := &Binding{Kind: BindImport}
	e.store[name] = b
	return b
}

// DeclareLink binds name to another environment's cell, read-only.
func (e *Environment) DeclareLink(name string, target *Binding) {
	e.store[name] = &Binding{Kind: BindImport, Initialized: true, Link: target}
}

// Initialize ends the TDZ of an own binding and stores its first value.
func (e *Environment) Initialize(name string, value *Value) {
	if b, ok := e.store[name]; ok {
		b.Value = value
		b.Initialized = true
		return
	}
	e.store[name] = &Binding{Value: value, Mutable: true, Kind: BindLet, Initialized: true}
}

// Own returns the binding declared directly in this frame.
func (e *Environment) Own(name string) (*Binding, bool) {
	b, ok := e.store[name]
	return b, ok
}

// Lookup finds the nearest binding for name and the frame that owns it.
func (e *Environment) Lookup(name string) (*Binding, *Environment) {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.store[name]; ok {
			return b, env
		}
	}
	return nil, nil
}

// Get reads a variable, enforcing the TDZ.
func (e *Environment) Get(name string) (*Value, error) {
	b, _ := e.Lookup(name)
	if b == nil {
		return nil, NewReferenceError("%s is not defined", name)
	}
	if !b.Ready() {
		return nil, NewReferenceError("Cannot access '%s' before initialization", name)
	}
	return b.Current(), nil
}

// Set writes an existing variable, enforcing the TDZ and const-ness.
func (e *Environment) Set(name string, value *Value) error {
	b, _ := e.Lookup(name)
	if b == nil {
		return NewReferenceError("%s is not defined", name)
	}
	if !b.Ready() {
		return NewReferenceError("Cannot access '%s' before initialization", name)
	}
	if !b.Mutable {
		return NewTypeError("Assignment to constant variable.")
	}
	b.Value = value
	return nil
}

// DeclareVar hoists a var binding to Undefined unless the name already
// exists in this frame.
func (e *Environment) DeclareVar(name string) {
	if _, exists := e.store[name]; exists {
		return
	}
	e.store[name] = &Binding{Value: Undefined, Mutable: true, Kind: BindVar, Initialized: true}
}

// SetInCurrentScope assigns or creates a var binding in this frame.
func (e *Environment) SetInCurrentScope(name string, value *Value) {
	if b, ok := e.store[name]; ok {
		b.Value = value
		b.Initialized = true
		return
	}
	e.store[name] = &Binding{Value: value, Mutable: true, Kind: BindVar, Initialized: true}
}

// FunctionScope returns the nearest frame var declarations hoist to.
func (e *Environment) FunctionScope() *Environment {
	env := e
	for env.kind == ScopeBlock && env.outer != nil {
		env = env.outer
	}
	return env
}

// Global returns the outermost frame.
func (e *Environment) Global() *Environment {
	env := e
	for env.outer != nil {
		env = env.outer
	}
	return env
}

// HasVarBinding reports whether this frame holds a var or function binding.
func (e *Environment) HasVarBinding(name string) bool {
	if b, ok := e.store[name]; ok {
		return b.Kind == BindVar || b.Kind == BindFunction
	}
	return false
}

// Names lists user-visible names declared in this frame, sorted.
// Internal bookkeeping slots (prefixed with '%') are skipped.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.store))
	for name := range e.store {
		if strings.HasPrefix(name, "%") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies every binding visible from e, stopping before stop, into
// a fresh frame whose parent is stop. Inner bindings shadow outer ones.
// Values are copied, so later writes on either side are not shared.
func (e *Environment) Snapshot(stop *Environment) *Environment {
	snap := NewEnvironment(stop, ScopeFunction)
	for env := e; env != nil && env != stop; env = env.outer {
		for name, b := range env.store {
			if _, shadowed := snap.store[name]; shadowed {
				continue
			}
			cp := *b
			snap.store[name] = &cp
		}
	}
	return snap
}

func (e *Environment) Kind() ScopeKind {
	return e.kind
}

func (e *Environment) IsBlock() bool {
	return e.kind == ScopeBlock
}

func (e *Environment) Outer() *Environment {
	return e.outer
}
