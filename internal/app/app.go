// internal/app/app.go

// Package app is the mavekit command line: a cobra command tree over
// appcore, with configuration resolved by viper.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mavekit/internal/appcore"
	"mavekit/internal/config"
	"mavekit/internal/logging"
	"mavekit/internal/version"
	"mavekit/internal/zoo"
)

// env is the per-invocation state shared by all commands.
type env struct {
	v          *viper.Viper
	cfg        *config.Config
	catalog    *zoo.Catalog
	configFile string
	stdout     io.Writer
	stderr     io.Writer
}

func (e *env) loadCatalog() error {
	cat, err := zoo.Load(e.cfg.Catalog)
	if err != nil {
		return appcore.Usagef("catalog: %v", err)
	}
	cat.SetDefaultTimeout(e.cfg.Predictor.Timeout)
	e.catalog = cat
	return nil
}

func usageArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return appcore.Usagef("%s: unexpected argument %q", cmd.CommandPath(), args[n])
		}
		return nil
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "mavekit",
		Short: "In-silico MAVE global analysis of sequence-to-function models",
		Long: `mavekit scores thousands of random mutants of a wild-type sequence with a
black-box model, fits an interpretable surrogate to the scores and reports
the surrogate's additive effects as a sequence logo.

Steps:
  generate   mutagenize + score -> x_mut.npy, y_mut.npy
  fit        train surrogate    -> logo.csv, logo.svg, params.json
  run        both, in one process

Example:
  mavekit run --pattern AGCCATCAA --task Nanog --num-sim 10000`,
		Args:          usageArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadFile(e.v, e.configFile); err != nil {
				return appcore.Usagef("%v", err)
			}
			cfg, err := config.Load(e.v)
			if err != nil {
				return appcore.Usagef("%v", err)
			}
			e.cfg = cfg
			logging.Setup(cfg.Log.Level, cfg.Log.Format, e.stderr)
			return e.loadCatalog()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return appcore.Usagef("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&e.configFile, "config", "", "YAML config file")
	pf.String("out", "", "output directory (default outputs_global_analysis)")
	pf.String("catalog", "", "model catalog YAML merged over the built-in models")
	pf.String("log-level", "", "log level: debug|info|warn|error")
	pf.String("log-format", "", "log format: text|json")
	for key, flag := range map[string]string{
		config.KeyOutputDir: "out",
		config.KeyCatalog:   "catalog",
		config.KeyLogLevel:  "log-level",
		config.KeyLogFormat: "log-format",
	} {
		_ = e.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newGenerateCmd(e),
		newFitCmd(e),
		newRunCmd(e),
		newModelsCmd(e),
		newRunsCmd(e),
		newServeCmd(e),
		newVersionCmd(e),
	)
	return root
}

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version",
		Args:              usageArgs(0),
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(e.stdout, "mavekit version %s\n", version.Version)
			return err
		},
	}
}

// RunContext executes argv and returns the process exit code.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	e := &env{v: config.New(), stdout: stdout, stderr: stderr}
	root := newRootCmd(e)
	root.SetArgs(argv)
	err := root.ExecuteContext(parent)
	if err == nil {
		return appcore.ExitOK
	}
	if errors.Is(err, appcore.ErrUsage) || isCobraUsage(err) {
		fmt.Fprintf(stderr, "error: %v\n", strings.TrimPrefix(err.Error(), appcore.ErrUsage.Error()+": "))
		fmt.Fprintf(stderr, "Run 'mavekit --help' for usage.\n")
		return appcore.ExitUsage
	}
	return appcore.Report(stderr, err)
}

// isCobraUsage recognises command lookup errors cobra returns unwrapped.
func isCobraUsage(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// Run is RunContext with a background context.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
