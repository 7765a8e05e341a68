package main

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/finitefield-org/browser-tester-sub000/config"
	"github.com/finitefield-org/browser-tester-sub000/logging"
)

// cli holds the global flags and the resolved engine settings shared by
// every subcommand.
type cli struct {
	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	verbose    bool
	configPath string
	stepLimit  int
	seed       int64

	cfg *config.Config
	log *log.Logger
}

func newRootCmd(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{ctx: ctx, stdin: stdin, stdout: stdout, stderr: stderr}
	rootCmd := &cobra.Command{
		Use:               "jsgo",
		Short:             "Run scripts against a simulated document with a virtual clock",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to a YAML engine config")
	rootCmd.PersistentFlags().IntVar(&c.stepLimit, "step-limit", 0, "maximum scheduler tasks per run (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&c.seed, "seed", 0, "Math.random seed (overrides config)")

	rootCmd.AddCommand(
		newRunCmd(c),
		newEvalCmd(c),
		newReplCmd(c),
		newFixturesCmd(c),
		newASTCmd(c),
	)
	return rootCmd
}

// setup loads the config file, applies flag overrides and installs the
// logger into the context.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg, err := cfg.Merge(&config.Config{StepLimit: c.stepLimit, RandomSeed: c.seed})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.log = logging.New(c.stderr, cfg.Level())
	if c.verbose {
		c.log.SetLevel(log.DebugLevel)
	}
	c.cfg = cfg
	c.ctx = logging.WithLogger(c.ctx, c.log)
	c.log.WithField("config", c.configPath).Debug("engine configured")
	return nil
}
