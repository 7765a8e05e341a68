package interpreter

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/builtins"
	"github.com/finitefield-org/browser-tester-sub000/dom"
	"github.com/finitefield-org/browser-tester-sub000/logging"
	"github.com/finitefield-org/browser-tester-sub000/parser"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
	"github.com/finitefield-org/browser-tester-sub000/scheduler"
)

// DefaultMaxDepth bounds nested statement lists plus function calls.
const DefaultMaxDepth = 2000

// FlowKind classifies how a statement completed.
type FlowKind int

const (
	FlowNormal FlowKind = iota
	FlowBreak
	FlowContinue
	FlowReturn
)

func (k FlowKind) String() string {
	switch k {
	case FlowBreak:
		return "break"
	case FlowContinue:
		return "continue"
	case FlowReturn:
		return "return"
	}
	return "normal"
}

// ExecFlow is the non-error completion of a statement. Label is set for
// labelled break and continue.
type ExecFlow struct {
	Kind  FlowKind
	Label string
}

var normalFlow = ExecFlow{}

// Reserved environment slots. The '%' prefix keeps them out of Names().
const (
	slotThis      = "%this"
	slotReturn    = "%return"
	slotNewTarget = "%newtarget"
	slotHome      = "%home"
	slotFunc      = "%func"
	slotModule    = "%module"
)

// execContext is the per-thread execution state. Generator bodies run on
// their own goroutine with their own context; only one context is active
// at a time.
type execContext struct {
	depth  int
	tdz    []*tdzFrame
	loops  []*labelFrame
	labels []string // labels waiting for the next loop frame
	gen    *generatorState
	// completion is the value of the last expression statement run at
	// this call level.
	completion *runtime.Value
}

// Options configures an Interpreter. Zero values select defaults.
type Options struct {
	Document  *dom.Document
	Scheduler *scheduler.Scheduler
	Loader    ModuleLoader
	Logger    logrus.FieldLogger
	Console   io.Writer
	MaxDepth  int
	// RandomSeed seeds Math.random.
	RandomSeed int64
}

// Interpreter evaluates programs over one realm, document and scheduler.
type Interpreter struct {
	realm    *runtime.Realm
	global   *runtime.Environment
	doc      *dom.Document
	sched    *scheduler.Scheduler
	loader   ModuleLoader
	log      logrus.FieldLogger
	maxDepth int

	cur     *execContext
	modules map[string]*moduleRecord
	dom     *domBindings
	gens    generatorReaper
}

// New creates an interpreter with builtins installed and, when a document
// is given, the DOM globals.
func New(opts Options) *Interpreter {
	log := logging.OrDiscard(opts.Logger)
	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.New(scheduler.Options{Logger: log})
	}
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	loader := opts.Loader
	if loader == nil {
		loader = NewSourceLoader("")
	}
	realm := runtime.NewRealm()
	interp := &Interpreter{
		realm:    realm,
		global:   realm.Global,
		doc:      opts.Document,
		sched:    sched,
		loader:   loader,
		log:      log,
		maxDepth: maxDepth,
		cur:      &execContext{},
		modules:  make(map[string]*moduleRecord),
	}
	realm.SetJobQueue(func(job func() error) { sched.QueueMicrotask(job) })
	builtins.Install(realm, builtins.Host{
		Console:    console,
		Logger:     log,
		RandomSeed: opts.RandomSeed,
		Timers:     schedulerTimers{sched},
	})
	interp.installGenerators()
	if interp.doc != nil {
		interp.installDOM()
	}
	interp.installGlobalObject()
	return interp
}

// schedulerTimers adapts the scheduler to the builtins timer host.
type schedulerTimers struct {
	s *scheduler.Scheduler
}

func (t schedulerTimers) Now() int64 {
	return t.s.Now()
}

func (t schedulerTimers) SetTimeout(cb func() error, delay int64) int64 {
	return t.s.SetTimeout(cb, delay)
}

func (t schedulerTimers) SetInterval(cb func() error, interval int64) int64 {
	return t.s.SetInterval(cb, interval)
}

func (t schedulerTimers) Clear(id int64) {
	t.s.Clear(id)
}

func (t schedulerTimers) QueueMicrotask(cb func() error) {
	t.s.QueueMicrotask(cb)
}

func (interp *Interpreter) Realm() *runtime.Realm {
	return interp.realm
}

// GlobalEnv returns the global environment shared by every script.
func (interp *Interpreter) GlobalEnv() *runtime.Environment {
	return interp.global
}

func (interp *Interpreter) Scheduler() *scheduler.Scheduler {
	return interp.sched
}

func (interp *Interpreter) Document() *dom.Document {
	return interp.doc
}

// Eval parses source as a classic script and runs it in the global scope.
// The result is the value of the last expression statement.
func (interp *Interpreter) Eval(source string) (*runtime.Value, error) {
	prog, err := parser.ParseScript(source)
	if err != nil {
		return nil, err
	}
	return interp.RunProgram(prog)
}

// RunProgram executes a parsed script in the global scope.
func (interp *Interpreter) RunProgram(prog *ast.Program) (*runtime.Value, error) {
	interp.cur.completion = nil
	flow, err := interp.execStatements(prog.Statements, interp.global, listScript)
	if err != nil {
		return nil, err
	}
	switch flow.Kind {
	case FlowReturn:
		if b, ok := interp.global.Own(slotReturn); ok {
			return b.Current(), nil
		}
		return runtime.Undefined, nil
	case FlowBreak, FlowContinue:
		return nil, illegalFlow(flow)
	}
	if last := interp.cur.completion; last != nil {
		return last, nil
	}
	return runtime.Undefined, nil
}

// Call invokes a callable value from the host.
func (interp *Interpreter) Call(fn, this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return runtime.Call(fn, this, args)
}

// ExecuteStmts runs stmts in env with `event` bound to eventParam, as
// inline event handlers do. A `return false` sets DefaultPrevented on
// state.
func (interp *Interpreter) ExecuteStmts(stmts []ast.Statement, eventParam *runtime.Value, state *dom.EventState, env *runtime.Environment) (ExecFlow, error) {
	if env == nil {
		env = interp.global
	}
	scope := runtime.NewEnvironment(env, runtime.ScopeFunction)
	if eventParam == nil {
		eventParam = runtime.Undefined
	}
	scope.Declare("event", runtime.BindParam, eventParam)
	scope.Declare(slotThis, runtime.BindParam, runtime.Undefined)
	flow, err := interp.execStatements(stmts, scope, listFunction)
	if err != nil {
		return flow, err
	}
	switch flow.Kind {
	case FlowReturn:
		if b, ok := scope.Own(slotReturn); ok && state != nil {
			if v := b.Current(); v.Type == runtime.TypeBoolean && !v.Bool {
				state.DefaultPrevented = true
			}
		}
	case FlowBreak, FlowContinue:
		return flow, illegalFlow(flow)
	}
	return flow, nil
}

// enter guards recursion for statement lists and calls.
func (interp *Interpreter) enter() error {
	interp.cur.depth++
	if interp.cur.depth > interp.maxDepth {
		interp.cur.depth--
		return runtime.NewFatalError(runtime.KindRangeError, "Maximum call stack size exceeded")
	}
	return nil
}

func (interp *Interpreter) leave() {
	interp.cur.depth--
}

// throwValue wraps a script value as a Go error.
func throwValue(v *runtime.Value) error {
	return runtime.Throw(v)
}

// catchable reports whether a try statement may intercept err.
func catchable(err error) bool {
	if err == nil || runtime.IsFatal(err) {
		return false
	}
	if _, ok := errors.Cause(err).(*generatorReturn); ok {
		return false
	}
	return errors.Cause(err) != scheduler.ErrStepLimitExceeded
}

// errorValue converts an error into the value a catch clause binds.
func (interp *Interpreter) errorValue(err error) *runtime.Value {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return interp.realm.NewErrorValue(runtime.KindSyntaxError, perr.Msg)
	}
	if errors.Cause(err) == ErrModuleNotFound {
		return interp.realm.NewErrorValue(runtime.KindTypeError, err.Error())
	}
	if tv, ok := runtime.AsThrown(err); ok {
		return tv.Value
	}
	if re, ok := runtime.AsRuntimeError(err); ok {
		return interp.realm.NewErrorValue(re.Kind, re.Message)
	}
	return interp.realm.NewErrorValue(runtime.KindError, errors.Cause(err).Error())
}

func illegalFlow(flow ExecFlow) error {
	if flow.Label != "" {
		return runtime.NewSyntaxError("Undefined label '%s'", flow.Label)
	}
	if flow.Kind == FlowContinue {
		return runtime.NewSyntaxError("Illegal continue statement: no surrounding iteration statement")
	}
	return runtime.NewSyntaxError("Illegal break statement")
}
