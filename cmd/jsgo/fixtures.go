package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	fswatch "github.com/andreaskoch/go-fswatch"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/finitefield-org/browser-tester-sub000/testrunner"
)

func newFixturesCmd(c *cli) *cobra.Command {
	cfg := testrunner.Config{}
	var quiet, watch bool
	cmd := &cobra.Command{
		Use:   "fixtures <dir>",
		Short: "Run .js fixtures with YAML front matter and report results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Dir = args[0]
			cfg.Engine = c.cfg
			cfg.Verbose = c.verbose
			if watch {
				return watchAndRun(c.ctx, c, cfg.Dir, func() error {
					return c.fixtures(cfg, quiet)
				})
			}
			return c.fixtures(cfg, quiet)
		},
	}
	cmd.Flags().StringVar(&cfg.Filter, "filter", "", "only run fixtures whose path contains this string")
	cmd.Flags().IntVar(&cfg.Limit, "limit", 0, "stop after this many fixtures")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", testrunner.DefaultTimeout, "per-fixture timeout")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only list failures")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "run again whenever a file in the directory changes")
	return cmd
}

func (c *cli) fixtures(cfg testrunner.Config, quiet bool) error {
	results, summary, err := testrunner.Run(c.ctx, cfg)
	if err != nil {
		return err
	}
	for _, r := range results {
		if quiet && r.Result != testrunner.Fail && r.Result != testrunner.Error {
			continue
		}
		line := fmt.Sprintf("%s %s", r.Result, r.Path)
		if r.Message != "" && r.Result != testrunner.Pass {
			line += ": " + r.Message
		}
		c.println(line)
	}
	c.println(fmt.Sprintf("\n%d fixtures: %d passed, %d failed, %d skipped, %d errors (%s)",
		summary.Total, summary.Passed, summary.Failed, summary.Skipped, summary.Errors,
		summary.Elapsed.Round(time.Millisecond)))
	if !summary.OK() {
		return errors.Errorf("%d of %d fixtures did not pass", summary.Failed+summary.Errors, summary.Total)
	}
	return nil
}

// watchAndRun runs fn once, then again after every change under dir,
// until ctx is cancelled. Failures are logged and the watch goes on.
func watchAndRun(ctx context.Context, c *cli, dir string, fn func() error) error {
	ignoreFile := func(path string) bool {
		return strings.HasPrefix(filepath.Base(path), ".")
	}
	folderWatcher := fswatch.NewFolderWatcher(dir, true, ignoreFile, 2)
	folderWatcher.Start()
	defer folderWatcher.Stop()

	if err := fn(); err != nil {
		c.log.WithError(err).Warn("fixtures failed")
	}
	for folderWatcher.IsRunning() {
		c.log.Debugf("Watching %s for changes", dir)
		select {
		case <-ctx.Done():
			return nil
		case changes := <-folderWatcher.ChangeDetails():
			c.log.Debugf("%s", changes.String())
			if err := fn(); err != nil {
				c.log.WithError(err).Warn("fixtures failed")
			}
		}
	}
	return nil
}
