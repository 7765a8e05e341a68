// Package testrunner runs .js fixtures whose YAML front matter states the
// page markup, host actions and the expected output or error.
package testrunner

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/finitefield-org/browser-tester-sub000/config"
	"github.com/finitefield-org/browser-tester-sub000/logging"
	"github.com/finitefield-org/browser-tester-sub000/page"
	"github.com/finitefield-org/browser-tester-sub000/parser"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// DefaultTimeout bounds one fixture.
const DefaultTimeout = 5 * time.Second

type Result int

const (
	Pass Result = iota
	Fail
	Skip
	Error
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Skip:
		return "SKIP"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

type TestResult struct {
	Path    string
	Result  Result
	Message string
	Elapsed time.Duration
}

type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  int
	Elapsed time.Duration
}

// OK reports whether nothing failed or errored.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.Errors == 0
}

type Config struct {
	Dir     string         // fixture root, walked recursively
	Filter  string         // substring a fixture's relative path must contain
	Limit   int            // stop after this many fixtures when > 0
	Timeout time.Duration  // per fixture; DefaultTimeout when zero
	Verbose bool           // log every result at info level instead of debug
	Engine  *config.Config // base engine settings; fixtures may override
}

// Discover lists the fixtures under cfg.Dir in lexical order. Files whose
// name starts with an underscore are helpers and never run directly.
func Discover(cfg Config) ([]string, error) {
	var files []string
	err := filepath.WalkDir(cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".js") || strings.HasPrefix(d.Name(), "_") {
			return nil
		}
		if cfg.Filter != "" {
			rel, _ := filepath.Rel(cfg.Dir, path)
			if !strings.Contains(filepath.ToSlash(rel), cfg.Filter) {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", cfg.Dir)
	}
	if cfg.Limit > 0 && len(files) > cfg.Limit {
		files = files[:cfg.Limit]
	}
	return files, nil
}

// Run discovers and runs fixtures, returning results and a summary.
func Run(ctx context.Context, cfg Config) ([]TestResult, Summary, error) {
	log := logging.Logger(ctx)
	files, err := Discover(cfg)
	if err != nil {
		return nil, Summary{}, err
	}

	start := time.Now()
	var results []TestResult
	summary := Summary{Total: len(files)}

	for _, path := range files {
		rel, _ := filepath.Rel(cfg.Dir, path)
		tr := RunFixture(ctx, cfg, path)
		tr.Path = filepath.ToSlash(rel)
		results = append(results, tr)

		switch tr.Result {
		case Pass:
			summary.Passed++
		case Fail:
			summary.Failed++
		case Skip:
			summary.Skipped++
		case Error:
			summary.Errors++
		}

		entry := log.WithFields(logrus.Fields{"fixture": tr.Path, "result": tr.Result.String(), "elapsed": tr.Elapsed})
		if tr.Message != "" {
			entry = entry.WithField("message", tr.Message)
		}
		if cfg.Verbose {
			entry.Info("fixture")
		} else {
			entry.Debug("fixture")
		}
	}

	summary.Elapsed = time.Since(start)
	return results, summary, nil
}

type runOutcome struct {
	output string
	page   *page.Page
	err    error
}

// RunFixture runs a single fixture file.
func RunFixture(ctx context.Context, cfg Config, path string) TestResult {
	source, err := os.ReadFile(path)
	if err != nil {
		return TestResult{Path: path, Result: Error, Message: "read error: " + err.Error()}
	}
	fx, err := ParseFixture(string(source))
	if err != nil {
		return TestResult{Path: path, Result: Error, Message: err.Error()}
	}

	if fx.HasFlag("skip") {
		return TestResult{Path: path, Result: Skip, Message: "skip flag"}
	}
	for _, feat := range fx.Features {
		if isUnsupportedFeature(feat) {
			return TestResult{Path: path, Result: Skip, Message: "unsupported feature: " + feat}
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// The interpreter cannot be interrupted; a timed out fixture keeps its
	// goroutine until the process exits.
	start := time.Now()
	resultCh := make(chan runOutcome, 1)
	go func() {
		resultCh <- execute(ctx, cfg, fx, path)
	}()

	var out runOutcome
	select {
	case out = <-resultCh:
	case <-time.After(timeout):
		return TestResult{Path: path, Result: Error, Message: fmt.Sprintf("timeout (%s)", timeout), Elapsed: time.Since(start)}
	case <-ctx.Done():
		return TestResult{Path: path, Result: Error, Message: ctx.Err().Error(), Elapsed: time.Since(start)}
	}

	tr := check(fx, out)
	if out.page != nil {
		out.page.Close()
	}
	tr.Path = path
	tr.Elapsed = time.Since(start)
	return tr
}

func execute(ctx context.Context, cfg Config, fx *Fixture, path string) (out runOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out.err = errors.Errorf("panic: %v", r)
		}
	}()

	engine := cfg.Engine
	if engine == nil {
		engine = config.Default()
	}
	engine, err := engine.Merge(fx.Config)
	if err != nil {
		return runOutcome{err: err}
	}
	if engine.ModuleRoot == "" {
		engine.ModuleRoot = filepath.Dir(path)
	}
	if err := engine.Validate(); err != nil {
		return runOutcome{err: err}
	}

	var console bytes.Buffer
	p, err := page.New(ctx, page.Options{HTML: fx.HTML, Config: engine, Console: &console})
	if err != nil {
		return runOutcome{err: err}
	}
	out.page = p
	defer func() { out.output = console.String() }()

	if out.err = p.Load(); out.err != nil {
		return
	}
	for _, inc := range fx.Includes {
		src, err := os.ReadFile(filepath.Join(filepath.Dir(path), inc))
		if err != nil {
			out.err = errors.Wrapf(err, "include %s", inc)
			return
		}
		if _, out.err = p.Eval(string(src)); out.err != nil {
			return
		}
	}

	if fx.HasFlag("module") {
		if _, out.err = p.Interpreter().RunModule(filepath.Base(path), fx.Source); out.err == nil {
			out.err = p.Scheduler().RunMicrotasks()
		}
	} else {
		_, out.err = p.Eval(fx.Source)
	}
	if out.err != nil {
		return
	}

	for _, a := range fx.Actions {
		if out.err = apply(p, a); out.err != nil {
			out.err = errors.Wrap(out.err, a.String())
			return
		}
	}
	if !fx.HasFlag("noflush") {
		out.err = p.Flush()
	}
	return
}

func apply(p *page.Page, a Action) error {
	switch {
	case a.Click != "":
		return p.Click(a.Click)
	case a.Event != "":
		_, err := p.Dispatch(a.Target, a.Event)
		return err
	case a.Input != nil:
		return p.SetValue(a.Target, *a.Input)
	case a.Advance > 0:
		return p.AdvanceBy(a.Advance)
	case a.Flush:
		return p.Flush()
	case a.Eval != "":
		_, err := p.Eval(a.Eval)
		return err
	}
	return errors.New("empty action")
}

func check(fx *Fixture, out runOutcome) TestResult {
	if n := fx.Negative; n != nil {
		if out.err == nil {
			return TestResult{Result: Fail, Message: fmt.Sprintf("expected %s error in %s phase", n.Type, phaseName(n.Phase))}
		}
		phase, typ := classify(out.err)
		switch {
		case n.Phase != "" && n.Phase != phase:
			return TestResult{Result: Fail, Message: fmt.Sprintf("expected %s phase, got %s: %v", n.Phase, phase, out.err)}
		case n.Type != "" && n.Type != typ:
			return TestResult{Result: Fail, Message: fmt.Sprintf("expected %s, got %v", n.Type, out.err)}
		case n.Message != "" && !strings.Contains(out.err.Error(), n.Message):
			return TestResult{Result: Fail, Message: fmt.Sprintf("expected message containing %q, got %v", n.Message, out.err)}
		}
	} else if out.err != nil {
		return TestResult{Result: Fail, Message: out.err.Error()}
	}

	if fx.Output != nil && *fx.Output != out.output {
		diff := cmp.Diff(strings.Split(*fx.Output, "\n"), strings.Split(out.output, "\n"))
		return TestResult{Result: Fail, Message: "output mismatch (-want +got):\n" + diff}
	}
	if out.page != nil {
		for sel, want := range fx.Text {
			got, err := out.page.Text(sel)
			if err != nil {
				return TestResult{Result: Fail, Message: err.Error()}
			}
			if got != want {
				return TestResult{Result: Fail, Message: fmt.Sprintf("%s: text %q, want %q", sel, got, want)}
			}
		}
	}
	return TestResult{Result: Pass}
}

// classify reports the phase and script-visible error type of err.
func classify(err error) (phase, typ string) {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return "parse", runtime.KindSyntaxError
	}
	return "runtime", runtime.ErrorKindOf(err)
}

func phaseName(p string) string {
	if p == "" {
		return "any"
	}
	return p
}
