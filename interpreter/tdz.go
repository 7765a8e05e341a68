package interpreter

import (
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// tdzFrame tracks the lexical names of one statement list. A name stays
// pending until its declaration statement runs.
type tdzFrame struct {
	env      *runtime.Environment
	declared *hashset.Set
	pending  *hashset.Set
}

// pushTDZFrame declares the list's direct lexical names as uninitialized
// bindings of env.
func (interp *Interpreter) pushTDZFrame(names []lexicalName, env *runtime.Environment) *tdzFrame {
	frame := &tdzFrame{env: env, declared: hashset.New(), pending: hashset.New()}
	for _, n := range names {
		env.DeclareUninitialized(n.name, n.kind)
		frame.declared.Add(n.name)
		frame.pending.Add(n.name)
	}
	interp.cur.tdz = append(interp.cur.tdz, frame)
	return frame
}

func (interp *Interpreter) popTDZFrame() {
	interp.cur.tdz = interp.cur.tdz[:len(interp.cur.tdz)-1]
}

// markTDZInitialized ends the TDZ of name in env and stores its first value.
func (interp *Interpreter) markTDZInitialized(name string, env *runtime.Environment, v *runtime.Value) {
	env.Initialize(name, v)
	for i := len(interp.cur.tdz) - 1; i >= 0; i-- {
		frame := interp.cur.tdz[i]
		if frame.env == env && frame.declared.Contains(name) {
			frame.pending.Remove(name)
			return
		}
	}
}

// pendingInFrame reports whether the innermost frame declaring name for
// owner still has it pending.
func (interp *Interpreter) pendingInFrame(name string, owner *runtime.Environment) bool {
	for i := len(interp.cur.tdz) - 1; i >= 0; i-- {
		frame := interp.cur.tdz[i]
		if frame.env == owner && frame.declared.Contains(name) {
			return frame.pending.Contains(name)
		}
	}
	return false
}

// ensureBindingInitialized resolves name for a read or write.
func (interp *Interpreter) ensureBindingInitialized(name string, env *runtime.Environment) (*runtime.Binding, error) {
	b, owner := env.Lookup(name)
	if b == nil {
		return nil, runtime.NewReferenceError("%s is not defined", name)
	}
	if !b.Ready() || interp.pendingInFrame(name, owner) {
		return nil, runtime.NewReferenceError("Cannot access '%s' before initialization", name)
	}
	return b, nil
}

// ensureBindingIsMutable rejects writes to const and import bindings and
// to read-only host globals such as NaN. A function expression's own name
// reports ok=false without an error; the write is dropped.
func ensureBindingIsMutable(name string, b *runtime.Binding) (ok bool, err error) {
	switch {
	case b.Mutable:
		return true, nil
	case b.Kind == runtime.BindCallee:
		return false, nil
	case b.Kind == runtime.BindGlobal:
		return false, runtime.NewTypeError("Cannot assign to read only property '%s' of object '#<Object>'", name)
	}
	return false, runtime.NewTypeError("Assignment to constant variable.")
}
