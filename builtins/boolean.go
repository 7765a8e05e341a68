package builtins

import (
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installBoolean() {
	proto := l.realm.BooleanPrototype
	proto.OType = runtime.ObjTypeBoolean
	proto.SetInternal("primitive", runtime.False)

	l.method(proto, "toString", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		b, err := thisBoolean(this, "toString")
		if err != nil {
			return nil, err
		}
		if b {
			return runtime.NewString("true"), nil
		}
		return runtime.NewString("false"), nil
	})
	l.method(proto, "valueOf", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		b, err := thisBoolean(this, "valueOf")
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(b), nil
	})

	l.constructor("Boolean", 1, proto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewBool(argAt(args, 0).ToBoolean()), nil
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		this.Object.OType = runtime.ObjTypeBoolean
		this.Object.SetInternal("primitive", runtime.NewBool(argAt(args, 0).ToBoolean()))
		return this, nil
	})
}

func thisBoolean(this *runtime.Value, method string) (bool, error) {
	if this.Type == runtime.TypeBoolean {
		return this.Bool, nil
	}
	if this.IsObject() && this.Object.OType == runtime.ObjTypeBoolean {
		if p, ok := this.Object.Internal["primitive"].(*runtime.Value); ok {
			return p.Bool, nil
		}
	}
	return false, runtime.NewTypeError("Boolean.prototype.%s requires that 'this' be a Boolean", method)
}
