package page

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finitefield-org/browser-tester-sub000/config"
	"github.com/finitefield-org/browser-tester-sub000/logging"
	"github.com/finitefield-org/browser-tester-sub000/scheduler"
)

func newPage(t *testing.T, markup string) (*Page, *bytes.Buffer) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	var out bytes.Buffer
	p, err := New(logging.WithLogger(context.Background(), logger), Options{HTML: markup, Console: &out})
	require.NoError(t, err)
	return p, &out
}

func TestLoadRunsScriptsInOrder(t *testing.T) {
	assert := assert.New(t)
	p, out := newPage(t, `<body>
<p id="msg">before</p>
<script>console.log('first'); var shared = 1;</script>
<script type="text/plain">console.log('skipped')</script>
<script>console.log('second', shared); document.getElementById('msg').textContent = 'after'</script>
<script>
  document.addEventListener('DOMContentLoaded', () => console.log('ready'));
  window.addEventListener('load', () => console.log('loaded'));
  Promise.resolve().then(() => console.log('micro'));
</script>
</body>`)

	require.NoError(t, p.Load())
	assert.Equal("first\nsecond 1\nmicro\nready\nloaded\n", out.String())
	text, err := p.Text("#msg")
	require.NoError(t, err)
	assert.Equal("after", text)
	assert.Len(p.Scripts(), 3)
}

func TestLoadContinuesAfterScriptError(t *testing.T) {
	p, out := newPage(t, `<script id="bad">throw new Error('boom')</script><script>console.log('still runs')</script>`)

	err := p.Load()
	require.Error(t, err)
	var failed ScriptErrors
	require.True(t, errors.As(err, &failed))
	require.Len(t, failed, 1)
	assert.Equal(t, "bad", failed[0].Name)
	assert.Contains(t, failed[0].Error(), "boom")
	assert.Equal(t, "still runs\n", out.String())
}

func TestModuleScripts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.js"), []byte("export const greet = n => 'hi ' + n"), 0o644))
	cfg := config.Default()
	cfg.ModuleRoot = dir
	cfg.Modules["greet"] = "greet.js"

	var out bytes.Buffer
	p, err := New(context.Background(), Options{
		HTML:    `<script type="module">import { greet } from 'greet'; console.log(greet('bob'))</script>`,
		Config:  cfg,
		Console: &out,
	})
	require.NoError(t, err)
	require.NoError(t, p.Load())
	assert.Equal(t, "hi bob\n", out.String())
}

func TestExternalClassicScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('external')"), 0o644))
	cfg := config.Default()
	cfg.ModuleRoot = dir

	var out bytes.Buffer
	p, err := New(context.Background(), Options{HTML: `<script src="./app.js"></script>`, Config: cfg, Console: &out})
	require.NoError(t, err)
	require.NoError(t, p.Load())
	assert.Equal(t, "external\n", out.String())
}

func TestClickAndDispatch(t *testing.T) {
	assert := assert.New(t)
	p, out := newPage(t, `<body>
<button id="go">go</button>
<a id="link" href="/x" onclick="return false">x</a>
<input id="box" type="checkbox">
<script>
  document.getElementById('go').addEventListener('click', e => console.log('clicked', e.target.id));
</script>
</body>`)
	require.NoError(t, p.Load())

	require.NoError(t, p.Click("#go"))
	assert.Equal("clicked go\n", out.String())

	prevented, err := p.Dispatch("#link", "click")
	require.NoError(t, err)
	assert.True(prevented)

	require.NoError(t, p.Click("#box"))
	v, err := p.Eval("document.getElementById('box').checked")
	require.NoError(t, err)
	assert.Equal("true", v.ToString())

	assert.True(errors.Is(p.Click("#missing"), ErrNoMatch))
}

func TestSetValueFiresInputAndChange(t *testing.T) {
	p, out := newPage(t, `<input id="name"><script>
  const el = document.getElementById('name');
  el.addEventListener('input', () => console.log('input', el.value));
  el.addEventListener('change', () => console.log('change', el.value));
</script>`)
	require.NoError(t, p.Load())
	require.NoError(t, p.SetValue("#name", "ann"))
	assert.Equal(t, "input ann\nchange ann\n", out.String())
}

func TestVirtualClock(t *testing.T) {
	assert := assert.New(t)
	p, out := newPage(t, `<script>
  setTimeout(() => console.log('late'), 100);
  setTimeout(() => console.log('soon'), 10);
</script>`)
	require.NoError(t, p.Load())
	assert.Empty(out.String())

	require.NoError(t, p.AdvanceBy(50))
	assert.Equal("soon\n", out.String())
	require.NoError(t, p.Flush())
	assert.Equal("soon\nlate\n", out.String())
	assert.True(p.Scheduler().Idle())
}

func TestStepLimitFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.StepLimit = 5
	p, err := New(context.Background(), Options{HTML: `<script>setInterval(() => {}, 1)</script>`, Config: cfg, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	require.NoError(t, p.Load())
	assert.True(t, errors.Is(p.Flush(), scheduler.ErrStepLimitExceeded))
}

func TestHTMLReflectsMutations(t *testing.T) {
	p, _ := newPage(t, `<body><ul></ul><script>document.querySelector('ul').innerHTML = '<li>x</li>'</script></body>`)
	require.NoError(t, p.Load())
	assert.Contains(t, p.HTML(), "<ul><li>x</li></ul>")
}
