package builtins

import (
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finitefield-org/browser-tester-sub000/logging"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// Timers is the task queue behind setTimeout, setInterval and
// queueMicrotask. Now is its virtual clock in milliseconds, which Date
// reads.
type Timers interface {
	Now() int64
	SetTimeout(cb func() error, delay int64) int64
	SetInterval(cb func() error, interval int64) int64
	Clear(id int64)
	QueueMicrotask(cb func() error)
}

// Host supplies the embedder-owned pieces of the standard library.
type Host struct {
	Console    io.Writer
	Logger     logrus.FieldLogger
	RandomSeed int64
	Timers     Timers
}

// lib carries the realm every builtin closes over.
type lib struct {
	realm   *runtime.Realm
	console io.Writer
	log     logrus.FieldLogger
	rand    *rand.Rand
	timers  Timers

	mapIteratorProto    *runtime.Object
	setIteratorProto    *runtime.Object
	stringIteratorProto *runtime.Object
	regexpProto         *runtime.Object
	counts              map[string]int
	timeStarts          map[string]time.Time
	groupDepth          int
	// joining guards Array.prototype.join against cyclic arrays.
	joining map[*runtime.Object]bool
}

// Install populates the realm's intrinsic prototypes and defines the
// global bindings. Globals are shadowable by script declarations.
func Install(realm *runtime.Realm, host Host) {
	l := &lib{
		realm:      realm,
		console:    host.Console,
		log:        logging.OrDiscard(host.Logger),
		rand:       rand.New(rand.NewSource(host.RandomSeed)),
		timers:     host.Timers,
		counts:     make(map[string]int),
		timeStarts: make(map[string]time.Time),
		joining:    make(map[*runtime.Object]bool),
	}
	if l.console == nil {
		l.console = io.Discard
	}

	// Object and Function come first: every other prototype hangs off them.
	l.installObject()
	l.installFunction()
	l.installIterators()
	l.installArray()
	l.installString()
	l.installNumber()
	l.installBoolean()
	l.installBigInt()
	l.installSymbol()
	l.installErrors()
	l.installRegExp()
	l.installDate()
	l.installMapSet()
	l.installPromise()
	l.installTypedArrays()
	l.installMath()
	l.installJSON()
	l.installConsole()
	l.installGlobals()
	l.installTimers()

	realm.GlobalObject.Prototype = realm.ObjectPrototype
}

// global defines a shadowable global binding.
func (l *lib) global(name string, v *runtime.Value) {
	l.realm.Global.DefineGlobal(name, v, true)
}

// constructor builds a constructor function over proto, registers it as
// an intrinsic and defines it globally. construct initializes the
// allocated this in place; call handles invocation without new.
func (l *lib) constructor(name string, length int, proto *runtime.Object, call, construct runtime.CallableFunc) *runtime.Object {
	ctor := l.realm.NewFunction(name, length, call)
	ctor.Constructor = construct
	setDataProp(ctor, "prototype", runtime.NewObject(proto), false, false, false)
	setDataProp(proto, "constructor", runtime.NewObject(ctor), true, false, true)
	l.realm.Constructors[name] = ctor
	l.global(name, runtime.NewObject(ctor))
	return ctor
}

// fn wraps a Go function as a script function value.
func (l *lib) fn(name string, length int, f runtime.CallableFunc) *runtime.Value {
	return runtime.NewObject(l.realm.NewFunction(name, length, f))
}

func (l *lib) method(obj *runtime.Object, name string, length int, f runtime.CallableFunc) {
	setDataProp(obj, name, l.fn(name, length, f), true, false, true)
}

func (l *lib) symbolMethod(obj *runtime.Object, sym *runtime.Symbol, name string, length int, f runtime.CallableFunc) {
	obj.DefineSymbol(sym, &runtime.Property{Value: l.fn(name, length, f), Writable: true, Configurable: true})
}

func (l *lib) getter(obj *runtime.Object, name string, f runtime.CallableFunc) {
	obj.DefineProperty(name, &runtime.Property{
		IsAccessor:   true,
		Getter:       l.fn("get "+name, 0, f),
		Configurable: true,
	})
}

func setDataProp(obj *runtime.Object, name string, val *runtime.Value, writable, enumerable, configurable bool) {
	obj.DefineProperty(name, &runtime.Property{
		Value:        val,
		Writable:     writable,
		Enumerable:   enumerable,
		Configurable: configurable,
	})
}

func setConstant(obj *runtime.Object, name string, val *runtime.Value) {
	setDataProp(obj, name, val, false, false, false)
}

func setToStringTag(obj *runtime.Object, tag string) {
	obj.DefineSymbol(runtime.SymbolToStringTag, &runtime.Property{Value: runtime.NewString(tag), Configurable: true})
}
