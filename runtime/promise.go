package runtime

// PromiseState is the settlement state of a promise.
type PromiseState int

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

func (s PromiseState) String() string {
	switch s {
	case PromiseFulfilled:
		return "fulfilled"
	case PromiseRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// PromiseReaction runs once the promise settles.
type PromiseReaction func(state PromiseState, value *Value) error

// Promise is the settlement cell behind a promise object. Transitions out
// of Pending happen at most once.
type Promise struct {
	State     PromiseState
	Value     *Value
	Handled   bool
	reactions []PromiseReaction
}

// NewPromise creates a pending promise object.
func NewPromise(realm *Realm) *Object {
	return &Object{
		OType:     ObjTypePromise,
		Prototype: realm.PromisePrototype,
		Promise:   &Promise{State: PromisePending},
	}
}

// IsPromise reports whether v is a promise object.
func IsPromise(v *Value) bool {
	return v.IsObject() && v.Object.Promise != nil
}

func settle(realm *Realm, p *Object, state PromiseState, value *Value) {
	cell := p.Promise
	if cell.State != PromisePending {
		return
	}
	cell.State = state
	cell.Value = value
	reactions := cell.reactions
	cell.reactions = nil
	for _, r := range reactions {
		r := r
		realm.EnqueueJob(func() error { return r(state, value) })
	}
}

// FulfillPromise settles p with value without thenable adoption.
func FulfillPromise(realm *Realm, p *Object, value *Value) {
	settle(realm, p, PromiseFulfilled, value)
}

// RejectPromise settles p with reason.
func RejectPromise(realm *Realm, p *Object, reason *Value) {
	settle(realm, p, PromiseRejected, reason)
}

// ResolvePromise resolves p with resolution, adopting promises and
// thenables through a microtask.
func ResolvePromise(realm *Realm, p *Object, resolution *Value) {
	if p.Promise.State != PromisePending {
		return
	}
	if resolution.IsObject() && resolution.Object == p {
		RejectPromise(realm, p, realm.NewErrorValue(KindTypeError, "Chaining cycle detected for promise #<Promise>"))
		return
	}
	if !resolution.IsObject() {
		FulfillPromise(realm, p, resolution)
		return
	}
	then, err := resolution.Object.GetValue("then")
	if err != nil {
		RejectPromise(realm, p, realm.ErrorToValue(err))
		return
	}
	if IsPromise(resolution) && (!then.IsCallable() || then.Object == realm.IntrinsicThen) {
		inner := resolution.Object
		realm.EnqueueJob(func() error {
			OnSettled(realm, inner, func(state PromiseState, value *Value) error {
				if state == PromiseRejected {
					RejectPromise(realm, p, value)
				} else {
					ResolvePromise(realm, p, value)
				}
				return nil
			})
			return nil
		})
		return
	}
	if !then.IsCallable() {
		FulfillPromise(realm, p, resolution)
		return
	}
	realm.EnqueueJob(func() error {
		resolve, reject := CreateResolvingFunctions(realm, p)
		if _, err := then.Object.Callable(resolution, []*Value{resolve, reject}); err != nil {
			if IsFatal(err) {
				return err
			}
			_, _ = reject.Object.Callable(Undefined, []*Value{realm.ErrorToValue(err)})
		}
		return nil
	})
}

// CreateResolvingFunctions returns resolve/reject functions that settle p
// at most once between them.
func CreateResolvingFunctions(realm *Realm, p *Object) (*Value, *Value) {
	done := false
	resolve := realm.NewFunction("", 1, func(this *Value, args []*Value) (*Value, error) {
		if done {
			return Undefined, nil
		}
		done = true
		ResolvePromise(realm, p, argOrUndefined(args, 0))
		return Undefined, nil
	})
	reject := realm.NewFunction("", 1, func(this *Value, args []*Value) (*Value, error) {
		if done {
			return Undefined, nil
		}
		done = true
		RejectPromise(realm, p, argOrUndefined(args, 0))
		return Undefined, nil
	})
	return NewObject(resolve), NewObject(reject)
}

// OnSettled registers a Go reaction. It is queued immediately when p has
// already settled.
func OnSettled(realm *Realm, p *Object, reaction PromiseReaction) {
	cell := p.Promise
	cell.Handled = true
	if cell.State == PromisePending {
		cell.reactions = append(cell.reactions, reaction)
		return
	}
	state, value := cell.State, cell.Value
	realm.EnqueueJob(func() error { return reaction(state, value) })
}

// PromiseThen implements then(onFulfilled, onRejected) and returns the
// derived promise.
func PromiseThen(realm *Realm, p *Object, onFulfilled, onRejected *Value) *Object {
	derived := NewPromise(realm)
	OnSettled(realm, p, func(state PromiseState, value *Value) error {
		handler := onFulfilled
		if state == PromiseRejected {
			handler = onRejected
		}
		if handler == nil || !handler.IsCallable() {
			if state == PromiseRejected {
				RejectPromise(realm, derived, value)
			} else {
				ResolvePromise(realm, derived, value)
			}
			return nil
		}
		res, err := handler.Object.Callable(Undefined, []*Value{value})
		if err != nil {
			if IsFatal(err) {
				return err
			}
			RejectPromise(realm, derived, realm.ErrorToValue(err))
			return nil
		}
		ResolvePromise(realm, derived, res)
		return nil
	})
	return derived
}

// PromiseResolve returns v when it already is a promise, otherwise a new
// promise resolved with v.
func PromiseResolve(realm *Realm, v *Value) *Object {
	if IsPromise(v) {
		return v.Object
	}
	p := NewPromise(realm)
	ResolvePromise(realm, p, v)
	return p
}

// RejectedPromise returns a promise rejected with reason.
func RejectedPromise(realm *Realm, reason *Value) *Object {
	p := NewPromise(realm)
	RejectPromise(realm, p, reason)
	return p
}

func argOrUndefined(args []*Value, i int) *Value {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return Undefined
}
