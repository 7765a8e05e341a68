package testrunner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finitefield-org/browser-tester-sub000/config"
	"github.com/finitefield-org/browser-tester-sub000/logging"
)

func TestParseFixture(t *testing.T) {
	assert := assert.New(t)
	fx, err := ParseFixture(`/*---
description: demo
html: <p id="x"></p>
output: |
  a
negative:
  phase: runtime
  type: TypeError
flags: [module, noflush]
actions:
  - click: "#x"
  - target: "#x"
    event: ping
  - advance: 10
config:
  step_limit: 3
---*/
console.log('a')`)
	require.NoError(t, err)

	assert.Equal("demo", fx.Description)
	assert.Equal(`<p id="x"></p>`, fx.HTML)
	require.NotNil(t, fx.Output)
	assert.Equal("a\n", *fx.Output)
	assert.Equal(&NegativeExpectation{Phase: "runtime", Type: "TypeError"}, fx.Negative)
	assert.True(fx.HasFlag("module"))
	assert.False(fx.HasFlag("skip"))
	if diff := cmp.Diff([]Action{{Click: "#x"}, {Target: "#x", Event: "ping"}, {Advance: 10}}, fx.Actions); diff != "" {
		t.Errorf("actions (-want +got):\n%s", diff)
	}
	require.NotNil(t, fx.Config)
	assert.Equal(3, fx.Config.StepLimit)
	assert.True(strings.HasSuffix(fx.Source, "console.log('a')"))
}

func TestParseFixtureErrors(t *testing.T) {
	_, err := ParseFixture("console.log(1)")
	assert.ErrorIs(t, err, ErrNoFrontMatter)
	_, err = ParseFixture("/*--- description: x")
	assert.ErrorIs(t, err, ErrNoFrontMatter)
	_, err = ParseFixture("/*---\nnegative:\n  phase: later\n---*/")
	assert.Error(t, err)
	_, err = ParseFixture("/*---\nflags: [\n---*/")
	assert.Error(t, err)
}

func TestRunTestdata(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx := logging.WithLogger(context.Background(), logger)

	results, summary, err := Run(ctx, Config{Dir: "testdata"})
	require.NoError(t, err)

	for _, r := range results {
		if r.Result == Fail || r.Result == Error {
			t.Errorf("%s %s: %s", r.Result, r.Path, r.Message)
		}
	}
	assert.True(t, summary.OK())
	assert.Equal(t, 17, summary.Total)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, summary.Total-1, summary.Passed)

	var paths []string
	for _, r := range results {
		paths = append(paths, r.Path)
		assert.NotContains(t, r.Path, "_", "helpers must not run as fixtures")
	}
	assert.Contains(t, paths, "language/proxy.js")
}

func TestDiscoverFilterAndLimit(t *testing.T) {
	files, err := Discover(Config{Dir: "testdata", Filter: "scheduler/"})
	require.NoError(t, err)
	assert.Len(t, files, 4)

	files, err = Discover(Config{Dir: "testdata", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = Discover(Config{Dir: "testdata/missing"})
	assert.Error(t, err)
}

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.js")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunFixtureOutcomes(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		result Result
		msg    string
	}{
		{"pass", "/*---\noutput: \"hi\\n\"\n---*/\nconsole.log('hi')", Pass, ""},
		{"output mismatch", "/*---\noutput: \"hi\\n\"\n---*/\nconsole.log('bye')", Fail, "output mismatch"},
		{"unexpected error", "/*---\ndescription: x\n---*/\nundefinedName", Fail, "ReferenceError"},
		{"missing error", "/*---\nnegative:\n  type: TypeError\n---*/\n1", Fail, "expected TypeError error in any phase"},
		{"wrong type", "/*---\nnegative:\n  type: TypeError\n---*/\nthrow new RangeError('r')", Fail, "expected TypeError"},
		{"wrong phase", "/*---\nnegative:\n  phase: parse\n---*/\nnull.x", Fail, "expected parse phase"},
		{"text mismatch", "/*---\nhtml: <p id=\"p\">a</p>\ntext:\n  \"#p\": b\n---*/\n", Fail, "#p"},
		{"skip flag", "/*---\nflags: [skip]\n---*/\n", Skip, "skip flag"},
		{"bad front matter", "no front matter", Error, "front matter"},
		{"step limit override", "/*---\nconfig:\n  step_limit: 3\nnegative:\n  message: step limit\n---*/\nsetInterval(() => {}, 1)", Pass, ""},
		{"eval action", "/*---\nactions:\n  - eval: console.log(seen)\noutput: \"7\\n\"\n---*/\nvar seen = 7", Pass, ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tr := RunFixture(context.Background(), Config{Engine: config.Default()}, writeFixture(t, tc.body))
			assert.Equal(t, tc.result, tr.Result, tr.Message)
			assert.Contains(t, tr.Message, tc.msg)
		})
	}
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "PASS", Pass.String())
	assert.Equal(t, "ERROR", Error.String())
	assert.Equal(t, "UNKNOWN", Result(9).String())
}
