package dom

// Phase is the event phase currently being dispatched.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

// EventState carries the flags listeners may set during dispatch.
type EventState struct {
	DefaultPrevented            bool
	PropagationStopped          bool
	ImmediatePropagationStopped bool
}

// Event is one dispatch in progress.
type Event struct {
	Type          string
	Target        NodeID
	CurrentTarget NodeID
	Phase         Phase
	Bubbles       bool
	Cancelable    bool
	State         *EventState
	// Detail is an embedder payload (e.g. the script event object).
	Detail interface{}
}

// NewEvent creates an event with a fresh state.
func NewEvent(typ string, bubbles, cancelable bool) *Event {
	return &Event{Type: typ, Bubbles: bubbles, Cancelable: cancelable, State: &EventState{}}
}

// PreventDefault marks a cancelable event as default-prevented.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.State.DefaultPrevented = true
	}
}

func (e *Event) StopPropagation() {
	e.State.PropagationStopped = true
}

func (e *Event) StopImmediatePropagation() {
	e.State.PropagationStopped = true
	e.State.ImmediatePropagationStopped = true
}

// Listener is a registered handler. Handler is the identity used for
// deduplication and removal; Callback is what the invoker runs.
type Listener struct {
	Type     string
	Capture  bool
	Once     bool
	Handler  interface{}
	Callback interface{}

	removed bool
}

// Registry stores listeners per target in registration order.
type Registry struct {
	byTarget map[NodeID][]*Listener
}

func NewRegistry() *Registry {
	return &Registry{byTarget: make(map[NodeID][]*Listener)}
}

// Add registers l on target unless an equal (type, capture, handler)
// listener exists. It reports whether l was added.
func (r *Registry) Add(target NodeID, l *Listener) bool {
	for _, existing := range r.byTarget[target] {
		if existing.Type == l.Type && existing.Capture == l.Capture && existing.Handler == l.Handler {
			return false
		}
	}
	r.byTarget[target] = append(r.byTarget[target], l)
	return true
}

// Remove unregisters the listener matching (type, capture, handler).
func (r *Registry) Remove(target NodeID, typ string, capture bool, handler interface{}) bool {
	list := r.byTarget[target]
	for i, l := range list {
		if l.Type == typ && l.Capture == capture && l.Handler == handler {
			l.removed = true
			r.byTarget[target] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Listeners returns a snapshot of target's listeners for typ.
func (r *Registry) Listeners(target NodeID, typ string) []*Listener {
	var out []*Listener
	for _, l := range r.byTarget[target] {
		if l.Type == typ {
			out = append(out, l)
		}
	}
	return out
}

// Count reports how many listeners target has.
func (r *Registry) Count(target NodeID) int {
	return len(r.byTarget[target])
}

// Invoker runs one listener for an event.
type Invoker func(l *Listener, ev *Event) error

// EventPath returns the propagation path of target, outermost first and
// excluding target. Connected nodes end at the window.
func (d *Document) EventPath(target NodeID) []NodeID {
	if target == WindowID || d.Node(target) == nil {
		return nil
	}
	ancestors := d.Ancestors(target)
	connected := target == d.root || (len(ancestors) > 0 && ancestors[len(ancestors)-1] == d.root)
	path := make([]NodeID, 0, len(ancestors)+1)
	if connected {
		path = append(path, WindowID)
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		path = append(path, ancestors[i])
	}
	return path
}

// Dispatch runs ev through the capture, target and bubble phases. A
// listener error stops the dispatch and is returned.
func (d *Document) Dispatch(target NodeID, ev *Event, invoke Invoker) error {
	if ev.State == nil {
		ev.State = &EventState{}
	}
	ev.Target = target
	path := d.EventPath(target)

	ev.Phase = PhaseCapturing
	for _, node := range path {
		if err := d.invokeAt(node, ev, invoke, true, false); err != nil || ev.State.PropagationStopped {
			return d.finish(ev, err)
		}
	}

	ev.Phase = PhaseAtTarget
	if err := d.invokeAt(target, ev, invoke, true, true); err != nil || ev.State.PropagationStopped {
		return d.finish(ev, err)
	}

	if ev.Bubbles {
		ev.Phase = PhaseBubbling
		for i := len(path) - 1; i >= 0; i-- {
			if err := d.invokeAt(path[i], ev, invoke, false, true); err != nil || ev.State.PropagationStopped {
				return d.finish(ev, err)
			}
		}
	}
	return d.finish(ev, nil)
}

func (d *Document) finish(ev *Event, err error) error {
	ev.Phase = PhaseNone
	ev.CurrentTarget = NoNode
	return err
}

// invokeAt runs node's listeners for ev. At the target both capturing and
// non-capturing listeners run, capturing first.
func (d *Document) invokeAt(node NodeID, ev *Event, invoke Invoker, capture, bubble bool) error {
	listeners := d.Events.Listeners(node, ev.Type)
	if len(listeners) == 0 {
		return nil
	}
	ev.CurrentTarget = node
	run := func(wantCapture bool) error {
		for _, l := range listeners {
			if l.Capture != wantCapture || l.removed {
				continue
			}
			if l.Once {
				d.Events.Remove(node, l.Type, l.Capture, l.Handler)
			}
			if err := invoke(l, ev); err != nil {
				return err
			}
			if ev.State.ImmediatePropagationStopped {
				return nil
			}
		}
		return nil
	}
	if capture {
		if err := run(true); err != nil || ev.State.ImmediatePropagationStopped {
			return err
		}
	}
	if bubble {
		return run(false)
	}
	return nil
}
