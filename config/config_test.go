package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	assert := assert.New(t)
	cfg := Default()
	assert.NoError(cfg.Validate())
	assert.Equal(10000, cfg.StepLimit)
	assert.Equal(2000, cfg.MaxDepth)
	assert.Equal(log.InfoLevel, cfg.Level())
	assert.NotNil(cfg.Modules)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
step_limit: 50
log_level: debug
random_seed: 7
modules:
  utils: lib/utils.js
`))
	require.NoError(t, err)

	want := Default()
	want.StepLimit = 50
	want.LogLevel = "debug"
	want.RandomSeed = 7
	want.Modules = map[string]string{"utils": "lib/utils.js"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, log.DebugLevel, cfg.Level())
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad level":      "log_level: loud",
		"negative step":  "step_limit: -1",
		"negative depth": "max_depth: -3",
		"empty module":   "modules:\n  x: ''",
		"not yaml":       "step_limit: [",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadResolvesModuleRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jsgo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("module_root: src\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.ModuleRoot)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoaderUsesAliases(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "u.js"), []byte("export const x = 1"), 0o644))

	cfg := Default()
	cfg.ModuleRoot = dir
	cfg.Modules["u"] = "lib/u.js"
	l := cfg.Loader()

	id, err := l.Resolve("u", "")
	require.NoError(t, err)
	assert.Equal(t, "lib/u.js", id)
	src, err := l.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "export const x = 1", src)
}

func TestMerge(t *testing.T) {
	assert := assert.New(t)
	base := Default()
	base.Modules["a"] = "a.js"
	base.Modules["b"] = "old.js"
	out, err := base.Merge(&Config{StepLimit: 5, Modules: map[string]string{"b": "b.js"}})
	require.NoError(t, err)

	assert.Equal(5, out.StepLimit)
	assert.Equal(base.MaxDepth, out.MaxDepth)
	assert.Equal(base.LogLevel, out.LogLevel)
	assert.Equal(map[string]string{"a": "a.js", "b": "b.js"}, out.Modules)
	assert.Equal("old.js", base.Modules["b"], "merge must not mutate the receiver")

	same, err := base.Merge(nil)
	require.NoError(t, err)
	assert.Equal(base, same)
	assert.NotSame(base, same)
}

func TestClone(t *testing.T) {
	base := Default()
	cp := base.Clone()
	cp.Modules["x"] = "x.js"
	cp.StepLimit = 1
	assert.Empty(t, base.Modules)
	assert.Equal(t, 10000, base.StepLimit)
}
