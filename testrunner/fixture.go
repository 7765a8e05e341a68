package testrunner

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/finitefield-org/browser-tester-sub000/config"
)

// ErrNoFrontMatter is returned for a fixture without a /*--- ---*/ block.
var ErrNoFrontMatter = errors.New("missing /*--- ---*/ front matter")

const (
	frontMatterStart = "/*---"
	frontMatterEnd   = "---*/"
)

// Fixture is one test file: script source plus the expectations from its
// YAML front matter.
type Fixture struct {
	Description string               `yaml:"description"`
	HTML        string               `yaml:"html"`     // page markup loaded before the script
	Output      *string              `yaml:"output"`   // exact console output, when set
	Text        map[string]string    `yaml:"text"`     // selector -> expected textContent after the run
	Negative    *NegativeExpectation `yaml:"negative"` // the run must fail this way
	Flags       []string             `yaml:"flags"`    // module, noflush, skip
	Features    []string             `yaml:"features"`
	Includes    []string             `yaml:"includes"` // helper scripts next to the fixture, run first
	Actions     []Action             `yaml:"actions"`
	Config      *config.Config       `yaml:"config"` // engine overrides

	Source string `yaml:"-"`
}

// NegativeExpectation describes the error a fixture must end with. An
// empty Phase matches both phases.
type NegativeExpectation struct {
	Phase   string `yaml:"phase"`   // "parse" or "runtime"
	Type    string `yaml:"type"`    // SyntaxError, TypeError, ...
	Message string `yaml:"message"` // substring of the error message
}

// Action is one host step run after the script. Exactly one field is
// expected to be set; Target goes with Event and Input.
type Action struct {
	Click   string  `yaml:"click"`
	Target  string  `yaml:"target"`
	Event   string  `yaml:"event"`
	Input   *string `yaml:"input"`
	Advance int64   `yaml:"advance"`
	Flush   bool    `yaml:"flush"`
	Eval    string  `yaml:"eval"`
}

func (a Action) String() string {
	switch {
	case a.Click != "":
		return "click " + a.Click
	case a.Event != "":
		return "dispatch " + a.Event + " at " + a.Target
	case a.Input != nil:
		return "input " + a.Target
	case a.Advance > 0:
		return "advance"
	case a.Flush:
		return "flush"
	case a.Eval != "":
		return "eval"
	}
	return "noop"
}

// ParseFixture splits source into front matter and script.
func ParseFixture(source string) (*Fixture, error) {
	start := strings.Index(source, frontMatterStart)
	if start < 0 {
		return nil, ErrNoFrontMatter
	}
	end := strings.Index(source[start:], frontMatterEnd)
	if end < 0 {
		return nil, errors.Wrap(ErrNoFrontMatter, "unterminated")
	}
	fx := &Fixture{Source: source}
	if err := yaml.Unmarshal([]byte(source[start+len(frontMatterStart):start+end]), fx); err != nil {
		return nil, errors.Wrap(err, "front matter")
	}
	if n := fx.Negative; n != nil && n.Phase != "" && n.Phase != "parse" && n.Phase != "runtime" {
		return nil, errors.Errorf("negative.phase must be parse or runtime, got %q", n.Phase)
	}
	return fx, nil
}

// HasFlag reports whether the fixture carries flag.
func (f *Fixture) HasFlag(flag string) bool {
	for _, fl := range f.Flags {
		if fl == flag {
			return true
		}
	}
	return false
}

// unsupportedFeatures lists language features the engine does not
// implement; fixtures requiring them are skipped.
var unsupportedFeatures = map[string]bool{
	"Proxy":                           true,
	"Reflect":                         true,
	"WeakRef":                         true,
	"FinalizationRegistry":            true,
	"SharedArrayBuffer":               true,
	"ArrayBuffer":                     true,
	"Atomics":                         true,
	"Intl":                            true,
	"Temporal":                        true,
	"dynamic-import":                  true,
	"import.meta":                     true,
	"regexp-unicode-property-escapes": true,
	"decorators":                      true,
	"eval":                            true,
}

func isUnsupportedFeature(feat string) bool {
	return unsupportedFeatures[feat]
}
