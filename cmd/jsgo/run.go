package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/finitefield-org/browser-tester-sub000/builtins"
	"github.com/finitefield-org/browser-tester-sub000/page"
)

type runOptions struct {
	htmlPath string
	module   bool
	advance  int64
	noFlush  bool
	dump     bool
}

func newRunCmd(c *cli) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <file.js|file.html>",
		Short: "Run a script, or load an HTML page and run its scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.htmlPath, "html", "", "HTML page to load before the script")
	cmd.Flags().BoolVarP(&opts.module, "module", "m", false, "evaluate the script as an ES module")
	cmd.Flags().Int64Var(&opts.advance, "advance", 0, "advance the virtual clock by this many ms instead of flushing")
	cmd.Flags().BoolVar(&opts.noFlush, "no-flush", false, "leave pending timers unrun")
	cmd.Flags().BoolVar(&opts.dump, "dump", false, "print the final document HTML")
	return cmd
}

func (c *cli) run(path string, opts *runOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading script")
	}

	markup := ""
	script := string(data)
	if isHTML(path) {
		markup, script = script, ""
	} else if opts.htmlPath != "" {
		html, err := os.ReadFile(opts.htmlPath)
		if err != nil {
			return errors.Wrap(err, "reading page")
		}
		markup = string(html)
	}

	cfg := c.cfg
	if cfg.ModuleRoot == "" {
		cfg = cfg.Clone()
		cfg.ModuleRoot = filepath.Dir(path)
	}
	p, err := page.New(c.ctx, page.Options{HTML: markup, Config: cfg, Console: c.stdout})
	if err != nil {
		return err
	}
	defer p.Close()
	if err := p.Load(); err != nil {
		return err
	}

	if script != "" {
		if opts.module || strings.HasSuffix(path, ".mjs") {
			if _, err := p.Interpreter().RunModule(filepath.Base(path), script); err != nil {
				return err
			}
			if err := p.Scheduler().RunMicrotasks(); err != nil {
				return err
			}
		} else if _, err := p.Eval(script); err != nil {
			return err
		}
	}

	switch {
	case opts.advance > 0:
		err = p.AdvanceBy(opts.advance)
	case !opts.noFlush:
		err = p.Flush()
	}
	if err != nil {
		return err
	}
	c.log.WithField("now", p.Scheduler().Now()).Debug("run finished")

	if opts.dump {
		c.println(p.HTML())
	}
	return nil
}

func isHTML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

func newEvalCmd(c *cli) *cobra.Command {
	var htmlPath string
	cmd := &cobra.Command{
		Use:   "eval <source>",
		Short: "Evaluate source and print the completion value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			markup := ""
			if htmlPath != "" {
				data, err := os.ReadFile(htmlPath)
				if err != nil {
					return errors.Wrap(err, "reading page")
				}
				markup = string(data)
			}
			p, err := page.New(c.ctx, page.Options{HTML: markup, Config: c.cfg, Console: c.stdout})
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.Load(); err != nil {
				return err
			}
			v, err := p.Eval(args[0])
			if err != nil {
				return err
			}
			c.println(builtins.Inspect(v))
			return p.Flush()
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "HTML page to load first")
	return cmd
}

func (c *cli) println(s string) {
	c.stdout.Write([]byte(s + "\n"))
}
