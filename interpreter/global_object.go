package interpreter

import (
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// globalHost mirrors the var-like bindings of the global scope as
// properties of the global object, so window.x and a top-level `var x`
// name the same cell. Lexical bindings stay off the object.
type globalHost struct {
	env *runtime.Environment
}

func (h *globalHost) binding(name string) (*runtime.Binding, bool) {
	b, ok := h.env.Own(name)
	if !ok || b.IsLexical() || name == "" || name[0] == '%' {
		return nil, false
	}
	return b, true
}

func (h *globalHost) GetHost(name string) (*runtime.Value, bool, error) {
	b, ok := h.binding(name)
	if !ok {
		return nil, false, nil
	}
	return b.Current(), true, nil
}

func (h *globalHost) SetHost(name string, v *runtime.Value) (bool, error) {
	if b, ok := h.binding(name); ok {
		if b.Mutable {
			b.Value = v
		}
		return true, nil
	}
	if _, lexical := h.env.Own(name); lexical {
		return false, nil
	}
	h.env.SetInCurrentScope(name, v)
	return true, nil
}

// HostKeys lists script-declared globals; builtins stay non-enumerable.
func (h *globalHost) HostKeys() []string {
	var keys []string
	for _, name := range h.env.Names() {
		if b, ok := h.binding(name); ok && (b.Kind == runtime.BindVar || b.Kind == runtime.BindFunction) {
			keys = append(keys, name)
		}
	}
	return keys
}

// installGlobalObject binds top-level `this`, window and globalThis to the
// global object and starts mirroring global bindings onto it.
func (interp *Interpreter) installGlobalObject() {
	g := interp.realm.GlobalObject
	self := runtime.NewObject(g)
	interp.global.Declare(slotThis, runtime.BindParam, self)
	for _, name := range []string{"globalThis", "window", "self"} {
		interp.global.DefineGlobal(name, self, true)
	}
	g.Host = &globalHost{env: interp.global}
}
