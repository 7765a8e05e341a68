package builtins

import (
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installErrors() {
	r := l.realm
	ctor := l.errorConstructor(runtime.KindError, r.ErrorPrototype, 0)
	l.method(r.ErrorPrototype, "toString", 0, errorToString)
	l.method(ctor, "captureStackTrace", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if t := argAt(args, 0); t.IsObject() {
			msg := t.Object.Get("message").ToString()
			setDataProp(t.Object, "stack", runtime.NewString(t.Object.Get("name").ToString()+": "+msg), true, false, true)
		}
		return runtime.Undefined, nil
	})

	for _, kind := range []string{
		runtime.KindTypeError,
		runtime.KindReferenceError,
		runtime.KindSyntaxError,
		runtime.KindRangeError,
		runtime.KindURIError,
		runtime.KindEvalError,
	} {
		sub := l.errorConstructor(kind, r.ErrorPrototypes[kind], 0)
		sub.Prototype = ctor
	}

	aggProto := runtime.NewOrdinaryObject(r.ErrorPrototype)
	r.ErrorPrototypes["AggregateError"] = aggProto
	agg := l.errorConstructor("AggregateError", aggProto, 1)
	agg.Prototype = ctor
}

// errorConstructor installs an error type whose message argument sits
// at msgIndex; AggregateError takes its errors first.
func (l *lib) errorConstructor(name string, proto *runtime.Object, msgIndex int) *runtime.Object {
	setDataProp(proto, "name", runtime.NewString(name), true, false, true)
	setDataProp(proto, "message", runtime.EmptyStr, true, false, true)

	var ctor *runtime.Object
	ctor = l.constructor(name, msgIndex+1, proto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return l.construct(ctor, args)
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		obj := this.Object
		obj.OType = runtime.ObjTypeError
		if msgIndex > 0 {
			items, err := runtime.IterateToSlice(l.realm, argAt(args, 0))
			if err != nil {
				return nil, err
			}
			setDataProp(obj, "errors", l.realm.ArrayValue(items), true, false, true)
		}
		msg := ""
		if m := argAt(args, msgIndex); m.Type != runtime.TypeUndefined {
			var err error
			if msg, err = toString(m); err != nil {
				return nil, err
			}
			setDataProp(obj, "message", runtime.NewString(msg), true, false, true)
		}
		if opts := argAt(args, msgIndex+1); opts.IsObject() && opts.Object.HasProperty("cause") {
			cause, err := opts.Object.GetValue("cause")
			if err != nil {
				return nil, err
			}
			setDataProp(obj, "cause", cause, true, false, true)
		}
		stack := obj.Get("name").ToString()
		if msg != "" {
			stack += ": " + msg
		}
		setDataProp(obj, "stack", runtime.NewString(stack), true, false, true)
		return this, nil
	})
	return ctor
}

func errorToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !this.IsObject() {
		return nil, runtime.NewTypeError("Error.prototype.toString requires that 'this' be an Object")
	}
	name, err := this.Object.GetValue("name")
	if err != nil {
		return nil, err
	}
	nameStr := "Error"
	if name.Type != runtime.TypeUndefined {
		if nameStr, err = toString(name); err != nil {
			return nil, err
		}
	}
	msg, err := this.Object.GetValue("message")
	if err != nil {
		return nil, err
	}
	msgStr := ""
	if msg.Type != runtime.TypeUndefined {
		if msgStr, err = toString(msg); err != nil {
			return nil, err
		}
	}
	switch {
	case nameStr == "":
		return runtime.NewString(msgStr), nil
	case msgStr == "":
		return runtime.NewString(nameStr), nil
	}
	return runtime.NewString(nameStr + ": " + msgStr), nil
}
