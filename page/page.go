// Package page hosts a document, an interpreter and a scheduler together:
// it runs a page's inline scripts, dispatches user events and drives the
// virtual clock.
package page

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/finitefield-org/browser-tester-sub000/config"
	"github.com/finitefield-org/browser-tester-sub000/dom"
	"github.com/finitefield-org/browser-tester-sub000/interpreter"
	"github.com/finitefield-org/browser-tester-sub000/logging"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
	"github.com/finitefield-org/browser-tester-sub000/scheduler"
)

// ErrNoMatch is returned when a selector finds no element.
var ErrNoMatch = errors.New("no element matches selector")

// Options configures a Page. HTML may be empty for a bare document.
type Options struct {
	HTML    string
	Config  *config.Config
	Console io.Writer
	Loader  interpreter.ModuleLoader
}

// Page is one loaded document with its script engine.
type Page struct {
	doc    *dom.Document
	sched  *scheduler.Scheduler
	interp *interpreter.Interpreter
	loader interpreter.ModuleLoader
	log    logrus.FieldLogger
}

// New parses the markup and builds the engine around it. Scripts are not
// run until Load.
func New(ctx context.Context, opts Options) (*Page, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := logging.Logger(ctx).WithField("component", "page")

	doc, err := dom.ParseHTML(opts.HTML)
	if err != nil {
		return nil, err
	}
	loader := opts.Loader
	if loader == nil {
		loader = cfg.Loader()
	}
	sched := scheduler.New(scheduler.Options{StepLimit: cfg.StepLimit, Logger: log})
	interp := interpreter.New(interpreter.Options{
		Document:   doc,
		Scheduler:  sched,
		Loader:     loader,
		Logger:     log,
		Console:    opts.Console,
		MaxDepth:   cfg.MaxDepth,
		RandomSeed: cfg.RandomSeed,
	})
	return &Page{doc: doc, sched: sched, interp: interp, loader: loader, log: log}, nil
}

func (p *Page) Document() *dom.Document {
	return p.doc
}

func (p *Page) Interpreter() *interpreter.Interpreter {
	return p.interp
}

func (p *Page) Scheduler() *scheduler.Scheduler {
	return p.sched
}

// ScriptError reports a failed <script> element. Later scripts still run.
type ScriptError struct {
	Index int
	Name  string
	Err   error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// ScriptErrors collects every script failure of a Load.
type ScriptErrors []*ScriptError

func (e ScriptErrors) Error() string {
	msgs := make([]string, len(e))
	for i, se := range e {
		msgs[i] = se.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e ScriptErrors) Unwrap() []error {
	out := make([]error, len(e))
	for i, se := range e {
		out[i] = se
	}
	return out
}

// Load runs the document's scripts in order, draining microtasks after
// each, then fires DOMContentLoaded on the document and load on the
// window. Timers are left pending.
func (p *Page) Load() error {
	var failed ScriptErrors
	for i, id := range p.Scripts() {
		name, err := p.runScript(i, id)
		if err == nil {
			err = p.sched.RunMicrotasks()
		}
		if err != nil {
			p.log.WithError(err).WithField("script", name).Warn("script failed")
			failed = append(failed, &ScriptError{Index: i, Name: name, Err: err})
		}
	}
	if err := p.fire(p.doc.Root(), "DOMContentLoaded", true); err != nil {
		return err
	}
	if err := p.fire(dom.WindowID, "load", false); err != nil {
		return err
	}
	if len(failed) > 0 {
		return failed
	}
	return nil
}

// Scripts returns the executable <script> elements in document order.
func (p *Page) Scripts() []dom.NodeID {
	var out []dom.NodeID
	p.doc.Walk(p.doc.Root(), func(id dom.NodeID) bool {
		if n := p.doc.Node(id); n.Type == dom.ElementNode && n.Tag == "script" && isScriptType(p.scriptType(id)) {
			out = append(out, id)
		}
		return true
	})
	return out
}

func (p *Page) scriptType(id dom.NodeID) string {
	typ, _ := p.doc.GetAttribute(id, "type")
	return strings.ToLower(strings.TrimSpace(typ))
}

func isScriptType(typ string) bool {
	switch typ {
	case "", "text/javascript", "application/javascript", "module":
		return true
	}
	return false
}

func (p *Page) runScript(i int, id dom.NodeID) (string, error) {
	module := p.scriptType(id) == "module"
	if src, ok := p.doc.GetAttribute(id, "src"); ok && src != "" {
		if module {
			_, err := p.interp.LoadModuleExports(src, "", "")
			return src, err
		}
		resolved, err := p.loader.Resolve(src, "")
		if err != nil {
			return src, err
		}
		code, err := p.loader.Load(resolved)
		if err != nil {
			return src, err
		}
		_, err = p.interp.Eval(code)
		return src, err
	}

	name := fmt.Sprintf("inline-%d", i)
	if v, ok := p.doc.GetAttribute(id, "id"); ok && v != "" {
		name = v
	}
	code := p.doc.TextContent(id)
	if strings.TrimSpace(code) == "" {
		return name, nil
	}
	p.log.WithField("script", name).Debug("run")
	if module {
		_, err := p.interp.RunModule(name, code)
		return name, err
	}
	_, err := p.interp.Eval(code)
	return name, err
}

func (p *Page) fire(target dom.NodeID, typ string, bubbles bool) error {
	if err := p.interp.DispatchEvent(target, dom.NewEvent(typ, bubbles, false)); err != nil {
		return errors.Wrapf(err, "%s handler", typ)
	}
	return p.sched.RunMicrotasks()
}

// Eval runs source in the page's global scope and drains microtasks.
func (p *Page) Eval(source string) (*runtime.Value, error) {
	v, err := p.interp.Eval(source)
	if err != nil {
		return nil, err
	}
	if err := p.sched.RunMicrotasks(); err != nil {
		return nil, err
	}
	return v, nil
}

// Query returns the first element matching selector.
func (p *Page) Query(selector string) (dom.NodeID, error) {
	id, err := p.doc.QuerySelector(p.doc.Root(), selector)
	if err != nil {
		return dom.NoNode, err
	}
	if id == dom.NoNode {
		return dom.NoNode, errors.Wrap(ErrNoMatch, selector)
	}
	return id, nil
}

// Text returns the text content of the first match of selector.
func (p *Page) Text(selector string) (string, error) {
	id, err := p.Query(selector)
	if err != nil {
		return "", err
	}
	return p.doc.TextContent(id), nil
}

// Click clicks the first match of selector, running default actions.
func (p *Page) Click(selector string) error {
	id, err := p.Query(selector)
	if err != nil {
		return err
	}
	if err := p.interp.Click(id); err != nil {
		return err
	}
	return p.sched.RunMicrotasks()
}

// Dispatch fires a bubbling, cancelable event of type typ at the first
// match of selector. It reports whether a listener prevented the default.
func (p *Page) Dispatch(selector, typ string) (bool, error) {
	id, err := p.Query(selector)
	if err != nil {
		return false, err
	}
	ev := dom.NewEvent(typ, true, true)
	if err := p.interp.DispatchEvent(id, ev); err != nil {
		return false, err
	}
	return ev.State.DefaultPrevented, p.sched.RunMicrotasks()
}

// SetValue types into a form control and fires input and change.
func (p *Page) SetValue(selector, value string) error {
	id, err := p.Query(selector)
	if err != nil {
		return err
	}
	p.doc.SetValue(id, value)
	for _, typ := range []string{"input", "change"} {
		if err := p.interp.DispatchEvent(id, dom.NewEvent(typ, true, false)); err != nil {
			return err
		}
	}
	return p.sched.RunMicrotasks()
}

// AdvanceBy moves the virtual clock forward, running due timers.
func (p *Page) AdvanceBy(ms int64) error {
	return p.sched.AdvanceBy(ms)
}

// Flush runs timers and microtasks until the queues are empty.
func (p *Page) Flush() error {
	return p.sched.Flush()
}

// Close stops any generator bodies still suspended in the page's
// interpreter. The page stays readable afterwards.
func (p *Page) Close() {
	p.interp.Close()
}

// HTML serializes the whole document.
func (p *Page) HTML() string {
	return p.doc.OuterHTML(p.doc.DocumentElement())
}
