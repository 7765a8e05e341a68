package interpreter

import (
	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/dom"
	"github.com/finitefield-org/browser-tester-sub000/parser"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// DispatchEvent runs ev at target through the document's listeners,
// including inline on<type> handlers.
func (interp *Interpreter) DispatchEvent(target dom.NodeID, ev *dom.Event) error {
	if interp.dom == nil {
		return runtime.NewTypeError("no document attached")
	}
	return interp.dom.dispatch(target, ev)
}

// Click performs a user click on target, including the checkbox and
// radio default action.
func (interp *Interpreter) Click(target dom.NodeID) error {
	if interp.dom == nil {
		return runtime.NewTypeError("no document attached")
	}
	return interp.dom.click(target)
}

// NodeValue returns the script object for a node.
func (interp *Interpreter) NodeValue(id dom.NodeID) *runtime.Value {
	if interp.dom == nil {
		return runtime.Null
	}
	return interp.dom.wrap(id)
}

func (b *domBindings) installTarget(obj *runtime.Object) {
	b.method(obj, "addEventListener", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		target, err := b.eventTarget(this, "addEventListener")
		if err != nil {
			return nil, err
		}
		handler := argAt(args, 1)
		if !handler.IsObject() {
			return runtime.Undefined, nil
		}
		capture, once := listenerOptions(argAt(args, 2))
		b.doc.Events.Add(target, &dom.Listener{
			Type:     argAt(args, 0).ToString(),
			Capture:  capture,
			Once:     once,
			Handler:  handler.Object,
			Callback: b.captureListener(handler),
		})
		return runtime.Undefined, nil
	})
	b.method(obj, "removeEventListener", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		target, err := b.eventTarget(this, "removeEventListener")
		if err != nil {
			return nil, err
		}
		handler := argAt(args, 1)
		if !handler.IsObject() {
			return runtime.Undefined, nil
		}
		capture, _ := listenerOptions(argAt(args, 2))
		b.doc.Events.Remove(target, argAt(args, 0).ToString(), capture, handler.Object)
		return runtime.Undefined, nil
	})
	b.method(obj, "dispatchEvent", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		target, err := b.eventTarget(this, "dispatchEvent")
		if err != nil {
			return nil, err
		}
		ev, ok := eventOf(argAt(args, 0))
		if !ok {
			return nil, runtime.NewTypeError("Failed to execute 'dispatchEvent' on 'EventTarget': parameter 1 is not of type 'Event'.")
		}
		if ev.Phase != dom.PhaseNone {
			return nil, runtime.NewError(runtime.KindError, "Failed to execute 'dispatchEvent' on 'EventTarget': The event is already being dispatched.")
		}
		ev.State.PropagationStopped = false
		ev.State.ImmediatePropagationStopped = false
		if err := b.dispatch(target, ev); err != nil {
			return nil, err
		}
		return runtime.NewBool(!ev.State.DefaultPrevented), nil
	})
}

// listenerOptions reads the third argument of addEventListener: a capture
// boolean or an options object.
func listenerOptions(v *runtime.Value) (capture, once bool) {
	if !v.IsObject() {
		return v.ToBoolean(), false
	}
	return v.Object.Get("capture").ToBoolean(), v.Object.Get("once").ToBoolean()
}

// captureListener builds the callback stored with a listener. Script
// closures run against a copy of their environment taken now; bindings
// of the global scope stay live.
func (b *domBindings) captureListener(handler *runtime.Value) runtime.CallableFunc {
	if c, ok := closureOf(handler.Object); ok && c.class == nil {
		cp := *c
		cp.env = c.env.Snapshot(b.interp.global)
		return b.interp.closureCall(&cp)
	}
	if handler.IsCallable() {
		return handler.Object.Callable
	}
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		m, err := handler.Object.GetValue("handleEvent")
		if err != nil {
			return nil, err
		}
		if !m.IsCallable() {
			return nil, runtime.NewTypeError("handleEvent is not a function")
		}
		return runtime.Call(m, handler, args)
	}
}

// dispatch registers inline handlers along the path, then runs the
// phases.
func (b *domBindings) dispatch(target dom.NodeID, ev *dom.Event) error {
	path := append(b.doc.EventPath(target), target)
	for _, id := range path {
		if id == dom.WindowID {
			continue
		}
		if b.doc.HasAttribute(id, "on"+ev.Type) {
			b.doc.Events.Add(id, &dom.Listener{Type: ev.Type, Handler: inlineHandler{id, ev.Type}})
		}
	}
	b.interp.log.WithField("event", ev.Type).WithField("target", int(target)).Debug("dispatch")
	return b.doc.Dispatch(target, ev, b.invoke)
}

func (b *domBindings) invoke(l *dom.Listener, ev *dom.Event) error {
	evObj := b.eventObject(ev)
	if h, ok := l.Handler.(inlineHandler); ok {
		return b.runInline(h, evObj, ev)
	}
	cb, ok := l.Callback.(runtime.CallableFunc)
	if !ok {
		return nil
	}
	_, err := cb(b.wrap(ev.CurrentTarget), []*runtime.Value{evObj})
	return err
}

// runInline runs the on<type> handler of a node. A property handler wins
// over the attribute; either one returning false prevents the default.
func (b *domBindings) runInline(h inlineHandler, evObj *runtime.Value, ev *dom.Event) error {
	if fn, ok := b.onProps[h]; ok {
		res, err := runtime.Call(fn, b.wrap(h.node), []*runtime.Value{evObj})
		if err != nil {
			return err
		}
		if res.Type == runtime.TypeBoolean && !res.Bool {
			ev.PreventDefault()
		}
		return nil
	}
	src, ok := b.doc.GetAttribute(h.node, "on"+h.typ)
	if !ok {
		return nil
	}
	stmts, err := b.inlineBody(src)
	if err != nil {
		return err
	}
	_, err = b.interp.ExecuteStmts(stmts, evObj, ev.State, nil)
	return err
}

func (b *domBindings) inlineBody(src string) ([]ast.Statement, error) {
	if stmts, ok := b.inline[src]; ok {
		return stmts, nil
	}
	stmts, err := parser.ParseFunctionBody(src)
	if err != nil {
		return nil, err
	}
	b.inline[src] = stmts
	return stmts, nil
}

func (b *domBindings) setHandlerProperty(id dom.NodeID, typ string, v *runtime.Value) {
	key := inlineHandler{id, typ}
	if v.IsCallable() {
		b.onProps[key] = v
		b.doc.Events.Add(id, &dom.Listener{Type: typ, Handler: key})
		return
	}
	delete(b.onProps, key)
	if !b.doc.HasAttribute(id, "on"+typ) {
		b.doc.Events.Remove(id, typ, false, key)
	}
}

func (b *domBindings) focus(id dom.NodeID) error {
	prev := b.doc.ActiveElement()
	if prev == id {
		return nil
	}
	b.doc.Focus(id)
	if b.doc.ActiveElement() != id {
		return nil
	}
	if prev != dom.NoNode && prev != b.doc.Body() {
		if err := b.dispatch(prev, dom.NewEvent("blur", false, false)); err != nil {
			return err
		}
	}
	return b.dispatch(id, dom.NewEvent("focus", false, false))
}

func (b *domBindings) blur(id dom.NodeID) error {
	if b.doc.ActiveElement() != id {
		return nil
	}
	b.doc.Blur(id)
	return b.dispatch(id, dom.NewEvent("blur", false, false))
}

func (b *domBindings) click(id dom.NodeID) error {
	if b.doc.HasAttribute(id, "disabled") {
		return nil
	}
	typ, _ := b.doc.GetAttribute(id, "type")
	n := b.doc.Node(id)
	checkable := n != nil && n.Tag == "input" && (typ == "checkbox" || typ == "radio")
	before := b.doc.Checked(id)
	if checkable {
		b.doc.SetChecked(id, typ == "radio" || !before)
	}
	ev := dom.NewEvent("click", true, true)
	if err := b.dispatch(id, ev); err != nil {
		return err
	}
	if !checkable {
		return nil
	}
	if ev.State.DefaultPrevented {
		b.doc.SetChecked(id, before)
		return nil
	}
	if before == b.doc.Checked(id) {
		return nil
	}
	if err := b.dispatch(id, dom.NewEvent("input", true, false)); err != nil {
		return err
	}
	return b.dispatch(id, dom.NewEvent("change", true, false))
}

func eventOf(v *runtime.Value) (*dom.Event, bool) {
	if !v.IsObject() {
		return nil, false
	}
	ev, ok := v.Object.Internal["event"].(*dom.Event)
	return ev, ok
}

// eventObject returns the script object of ev, creating it on first use.
func (b *domBindings) eventObject(ev *dom.Event) *runtime.Value {
	if obj, ok := ev.Detail.(*runtime.Object); ok {
		return runtime.NewObject(obj)
	}
	return runtime.NewObject(b.newEventObject(ev, b.eventProto))
}

func (b *domBindings) newEventObject(ev *dom.Event, proto *runtime.Object) *runtime.Object {
	obj := runtime.NewOrdinaryObject(proto)
	obj.Host = &eventHost{b: b, ev: ev}
	obj.SetInternal("event", ev)
	ev.Detail = obj
	return obj
}

type eventHost struct {
	b  *domBindings
	ev *dom.Event
}

var readOnlyEventProps = map[string]bool{
	"type": true, "target": true, "currentTarget": true, "eventPhase": true,
	"bubbles": true, "cancelable": true, "defaultPrevented": true,
	"isTrusted": true, "timeStamp": true,
}

func (h *eventHost) GetHost(name string) (*runtime.Value, bool, error) {
	ev := h.ev
	switch name {
	case "type":
		return runtime.NewString(ev.Type), true, nil
	case "target", "srcElement":
		if ev.Target == dom.NoNode {
			return runtime.Null, true, nil
		}
		return h.b.wrap(ev.Target), true, nil
	case "currentTarget":
		if ev.CurrentTarget == dom.NoNode {
			return runtime.Null, true, nil
		}
		return h.b.wrap(ev.CurrentTarget), true, nil
	case "eventPhase":
		return runtime.NewInt(int64(ev.Phase)), true, nil
	case "bubbles":
		return runtime.NewBool(ev.Bubbles), true, nil
	case "cancelable":
		return runtime.NewBool(ev.Cancelable), true, nil
	case "defaultPrevented":
		return runtime.NewBool(ev.State.DefaultPrevented), true, nil
	case "isTrusted":
		return runtime.NewBool(false), true, nil
	case "timeStamp":
		return runtime.NewInt(h.b.interp.sched.Now()), true, nil
	case "returnValue":
		return runtime.NewBool(!ev.State.DefaultPrevented), true, nil
	case "cancelBubble":
		return runtime.NewBool(ev.State.PropagationStopped), true, nil
	}
	return nil, false, nil
}

func (h *eventHost) SetHost(name string, v *runtime.Value) (bool, error) {
	if readOnlyEventProps[name] {
		return true, runtime.NewTypeError("%s is read-only", name)
	}
	switch name {
	case "returnValue":
		if !v.ToBoolean() {
			h.ev.PreventDefault()
		}
		return true, nil
	case "cancelBubble":
		if v.ToBoolean() {
			h.ev.StopPropagation()
		}
		return true, nil
	}
	return false, nil
}

func (b *domBindings) installEvents() {
	r := b.interp.realm
	p := b.eventProto
	eventMethod := func(name string, fn func(*dom.Event)) {
		b.method(p, name, 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			ev, ok := eventOf(this)
			if !ok {
				return nil, runtime.NewTypeError("Failed to execute '%s' on 'Event': Illegal invocation", name)
			}
			fn(ev)
			return runtime.Undefined, nil
		})
	}
	eventMethod("preventDefault", (*dom.Event).PreventDefault)
	eventMethod("stopPropagation", (*dom.Event).StopPropagation)
	eventMethod("stopImmediatePropagation", (*dom.Event).StopImmediatePropagation)
	for i, name := range []string{"NONE", "CAPTURING_PHASE", "AT_TARGET", "BUBBLING_PHASE"} {
		p.DefineProperty(name, &runtime.Property{Value: runtime.NewInt(int64(i))})
	}

	b.eventConstructor(r, "Event", p, nil)
	b.eventConstructor(r, "CustomEvent", b.customEventProto, func(obj *runtime.Object, init *runtime.Value) {
		detail := runtime.Null
		if init.IsObject() {
			if d := init.Object.Get("detail"); d.Type != runtime.TypeUndefined {
				detail = d
			}
		}
		obj.DefineProperty("detail", &runtime.Property{Value: detail, Enumerable: true})
	})
}

// eventConstructor defines a global constructor for script-created events.
func (b *domBindings) eventConstructor(r *runtime.Realm, name string, proto *runtime.Object, extra func(*runtime.Object, *runtime.Value)) {
	ctor := r.NewFunction(name, 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewTypeError("Failed to construct '%s': Please use the 'new' operator, this DOM object constructor cannot be called as a function.", name)
	})
	ctor.Constructor = func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if len(args) == 0 {
			return nil, runtime.NewTypeError("Failed to construct '%s': 1 argument required, but only 0 present.", name)
		}
		init := argAt(args, 1)
		var bubbles, cancelable bool
		if init.IsObject() {
			bubbles = init.Object.Get("bubbles").ToBoolean()
			cancelable = init.Object.Get("cancelable").ToBoolean()
		}
		target := proto
		if this.IsObject() && this.Object.Prototype != nil {
			target = this.Object.Prototype
		}
		obj := b.newEventObject(dom.NewEvent(args[0].ToString(), bubbles, cancelable), target)
		if extra != nil {
			extra(obj, init)
		}
		return runtime.NewObject(obj), nil
	}
	ctor.DefineProperty("prototype", &runtime.Property{Value: runtime.NewObject(proto)})
	proto.DefineProperty("constructor", &runtime.Property{Value: runtime.NewObject(ctor), Writable: true, Configurable: true})
	proto.DefineSymbol(runtime.SymbolToStringTag, &runtime.Property{Value: runtime.NewString(name), Configurable: true})
	b.defineGlobal(name, runtime.NewObject(ctor))
}
