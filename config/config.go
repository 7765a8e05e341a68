// Package config holds the engine settings shared by the CLI, the page
// host and the fixture runner.
package config

import (
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/finitefield-org/browser-tester-sub000/interpreter"
	"github.com/finitefield-org/browser-tester-sub000/scheduler"
)

// Config contains the engine settings.
type Config struct {
	StepLimit  int               `yaml:"step_limit"`  // tasks a single scheduler run may execute
	MaxDepth   int               `yaml:"max_depth"`   // nested statement lists plus calls before RangeError
	LogLevel   string            `yaml:"log_level"`   // logrus level name
	RandomSeed int64             `yaml:"random_seed"` // seed for Math.random
	Modules    map[string]string `yaml:"modules"`     // bare import specifier -> file path relative to ModuleRoot
	ModuleRoot string            `yaml:"module_root"` // directory relative imports are read from
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		StepLimit:  scheduler.DefaultStepLimit,
		MaxDepth:   interpreter.DefaultMaxDepth,
		LogLevel:   log.InfoLevel.String(),
		RandomSeed: 1,
		Modules:    map[string]string{},
	}
}

// Load reads a YAML file over the defaults. A relative module_root is
// taken relative to the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if cfg.ModuleRoot != "" && !filepath.IsAbs(cfg.ModuleRoot) {
		cfg.ModuleRoot = filepath.Join(filepath.Dir(path), cfg.ModuleRoot)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decoding yaml")
	}
	if cfg.Modules == nil {
		cfg.Modules = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects negative limits and unknown log levels.
func (c *Config) Validate() error {
	if c.StepLimit < 0 {
		return errors.Errorf("step_limit must not be negative, got %d", c.StepLimit)
	}
	if c.MaxDepth < 0 {
		return errors.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	for spec, file := range c.Modules {
		if spec == "" || file == "" {
			return errors.Errorf("modules: empty entry %q -> %q", spec, file)
		}
	}
	return nil
}

// Level returns the parsed log level, InfoLevel when unset.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Loader builds a module loader rooted at ModuleRoot with the configured
// aliases.
func (c *Config) Loader() *interpreter.SourceLoader {
	l := interpreter.NewSourceLoader(c.ModuleRoot)
	for spec, file := range c.Modules {
		l.Alias(spec, file)
	}
	return l
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Modules = make(map[string]string, len(c.Modules))
	for k, v := range c.Modules {
		out.Modules[k] = v
	}
	return &out
}

// Merge overlays the non-zero fields of o onto a copy of c. Module
// aliases are combined, o winning on conflicts.
func (c *Config) Merge(o *Config) (*Config, error) {
	out := c.Clone()
	if o == nil {
		return out, nil
	}
	if err := mergo.Merge(out, o, mergo.WithOverride); err != nil {
		return nil, errors.Wrap(err, "merging config")
	}
	return out, nil
}
