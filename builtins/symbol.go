package builtins

import (
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installSymbol() {
	proto := l.realm.SymbolPrototype
	l.method(proto, "toString", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		sym, err := thisSymbol(this, "toString")
		if err != nil {
			return nil, err
		}
		return runtime.NewString(runtime.NewSymbolValue(sym).ToString()), nil
	})
	l.method(proto, "valueOf", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		sym, err := thisSymbol(this, "valueOf")
		if err != nil {
			return nil, err
		}
		return runtime.NewSymbolValue(sym), nil
	})
	l.getter(proto, "description", func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		sym, err := thisSymbol(this, "description")
		if err != nil {
			return nil, err
		}
		return runtime.NewString(sym.Description), nil
	})
	l.symbolMethod(proto, runtime.SymbolToPrimitive, "[Symbol.toPrimitive]", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		sym, err := thisSymbol(this, "[Symbol.toPrimitive]")
		if err != nil {
			return nil, err
		}
		return runtime.NewSymbolValue(sym), nil
	})
	setToStringTag(proto, "Symbol")

	ctor := l.constructor("Symbol", 0, proto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		desc := ""
		if d := argAt(args, 0); d.Type != runtime.TypeUndefined {
			var err error
			if desc, err = toString(d); err != nil {
				return nil, err
			}
		}
		return runtime.NewSymbolValue(&runtime.Symbol{Description: desc}), nil
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewTypeError("Symbol is not a constructor")
	})

	l.method(ctor, "for", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		key, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return runtime.NewSymbolValue(l.realm.SymbolFor(key)), nil
	})
	l.method(ctor, "keyFor", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		a := argAt(args, 0)
		if a.Type != runtime.TypeSymbol {
			return nil, runtime.NewTypeError("%s is not a symbol", describe(a))
		}
		if reg, ok := l.realm.SymbolRegistry[a.Symbol.Description]; ok && reg == a.Symbol {
			return runtime.NewString(a.Symbol.Description), nil
		}
		return runtime.Undefined, nil
	})

	for name, sym := range map[string]*runtime.Symbol{
		"iterator":      runtime.SymbolIterator,
		"asyncIterator": runtime.SymbolAsyncIterator,
		"hasInstance":   runtime.SymbolHasInstance,
		"toPrimitive":   runtime.SymbolToPrimitive,
		"toStringTag":   runtime.SymbolToStringTag,
	} {
		setConstant(ctor, name, runtime.NewSymbolValue(sym))
	}
}

func thisSymbol(this *runtime.Value, method string) (*runtime.Symbol, error) {
	if this.Type == runtime.TypeSymbol {
		return this.Symbol, nil
	}
	if this.IsObject() {
		if p, ok := this.Object.Internal["primitive"].(*runtime.Value); ok && p.Type == runtime.TypeSymbol {
			return p.Symbol, nil
		}
	}
	return nil, runtime.NewTypeError("Symbol.prototype.%s requires that 'this' be a Symbol", method)
}
