// internal/app/fit.go
package app

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mavekit/internal/appcore"
	"mavekit/internal/runutil"
	"mavekit/internal/surrogate"
)

type fitFlags struct {
	in              string
	gpmap           string
	regression      string
	solver          string
	regStrength     float64
	learningRate    float64
	epochs          int
	batchSize       int
	patience        int
	noEarlyStopping bool
	noRestoreBest   bool
	validationSplit float64
	testSplit       float64
	deduplicate     bool
	gauge           string
	taskIndex       int
	task            string
	window          string
	viewWindow      string
	formats         []string
	center          bool
	color           bool
	seed            int64
}

// register adds the fit flags; inRun renames the ones that clash with
// generate's.
func (f *fitFlags) register(fs *pflag.FlagSet, inRun bool) {
	batch, window, task := "batch-size", "window", "task"
	if inRun {
		batch, window, task = "train-batch-size", "train-window", "fit-task"
	} else {
		fs.StringVar(&f.in, "in", "", "directory holding x_mut.npy and y_mut.npy (default: --out)")
		fs.Int64Var(&f.seed, "seed", 0, "random seed for splits and mini-batches")
	}
	fs.StringVar(&f.gpmap, "gpmap", "additive", "surrogate map: additive|neighbor")
	fs.StringVar(&f.regression, "regression", "GE", "GE (monotone nonlinearity) or linear")
	fs.StringVar(&f.solver, "solver", "adam", "adam (mini-batch, early stopping) or ridge (closed form)")
	fs.Float64Var(&f.regStrength, "reg-strength", 0.1, "L2 penalty")
	fs.Float64Var(&f.learningRate, "learning-rate", 5e-4, "Adam learning rate")
	fs.IntVar(&f.epochs, "epochs", 500, "maximum Adam epochs")
	fs.IntVar(&f.batchSize, batch, 100, "Adam mini-batch size")
	fs.IntVar(&f.patience, "patience", 25, "epochs without validation improvement before stopping")
	fs.BoolVar(&f.noEarlyStopping, "no-early-stopping", false, "train for all epochs")
	fs.BoolVar(&f.noRestoreBest, "no-restore-best", false, "keep last weights instead of the best validation weights")
	fs.Float64Var(&f.validationSplit, "validation-split", 0.2, "fraction held out for early stopping")
	fs.Float64Var(&f.testSplit, "test-split", 0.1, "fraction held out for the reported metrics")
	fs.BoolVar(&f.deduplicate, "deduplicate", true, "average targets of identical sequences")
	fs.StringVar(&f.gauge, "gauge", "empirical", "parameter gauge: empirical|uniform|wildtype|none")
	fs.IntVar(&f.taskIndex, "task-index", 0, "column of y_mut.npy to fit")
	fs.StringVar(&f.task, task, "", "task name to fit (overrides --task-index)")
	fs.StringVar(&f.window, window, "", "positions start:end the surrogate covers (default: whole sequence)")
	fs.StringVar(&f.viewWindow, "view-window", "", "logo rows start:end (default: pattern window)")
	fs.StringSliceVar(&f.formats, "format", nil, "extra logo formats: csv|tsv|json|svg|text")
	fs.BoolVar(&f.center, "center", true, "centre logo rows in the figure and terminal view")
	fs.BoolVar(&f.color, "color", true, "colour the terminal logo")
}

func (f *fitFlags) options(e *env, length int) (appcore.FitOptions, error) {
	var o appcore.FitOptions
	s := surrogate.DefaultOptions()
	var err error
	if s.GPMap, err = surrogate.ParseGPMap(f.gpmap); err != nil {
		return o, err
	}
	if s.Regression, err = surrogate.ParseRegression(f.regression); err != nil {
		return o, err
	}
	if s.Solver, err = surrogate.ParseSolver(f.solver); err != nil {
		return o, err
	}
	gauge, err := surrogate.ParseGauge(f.gauge)
	if err != nil {
		return o, err
	}
	s.RegStrength = f.regStrength
	s.LearningRate = f.learningRate
	s.Epochs = f.epochs
	s.BatchSize = f.batchSize
	s.Patience = f.patience
	s.EarlyStopping = !f.noEarlyStopping
	s.RestoreBest = !f.noRestoreBest
	s.ValidationFraction = f.validationSplit
	s.TestFraction = f.testSplit
	s.Deduplicate = f.deduplicate
	s.Seed = f.seed
	if s.Window, err = runutil.ParseWindow(f.window, length); err != nil {
		return o, appcore.Usagef("--window: %v", err)
	}
	view, err := runutil.ParseWindow(f.viewWindow, length)
	if err != nil {
		return o, appcore.Usagef("--view-window: %v", err)
	}
	if err := s.Validate(); err != nil {
		return o, err
	}
	var formats []string
	for _, fm := range f.formats {
		if fm = strings.ToLower(strings.TrimSpace(fm)); fm != "" {
			formats = append(formats, fm)
		}
	}
	return appcore.FitOptions{
		InDir:      f.in,
		OutDir:     e.cfg.OutputDir,
		Surrogate:  s,
		Gauge:      gauge,
		TaskIndex:  f.taskIndex,
		Task:       f.task,
		ViewWindow: view,
		Center:     f.center,
		Formats:    formats,
		Stdout:     e.stdout,
		Color:      f.color,
	}, nil
}

// runFit is shared by fit and run.
func runFit(ctx context.Context, o appcore.FitOptions) error {
	return appcore.Track(ctx, o.OutDir, "fit", o.Params(), func(ctx context.Context) (map[string]string, map[string]float64, error) {
		res, err := appcore.Fit(ctx, o)
		if err != nil {
			return nil, nil, err
		}
		return res.Artifacts, res.Report.Metrics(), nil
	})
}

func newFitCmd(e *env) *cobra.Command {
	var f fitFlags
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Step 2: train a surrogate and write the sequence logo",
		Long: `Loads x_mut.npy and y_mut.npy, trains an additive (or neighbour) surrogate
with an optional GE nonlinearity, extracts its parameters in the chosen gauge
and writes logo.csv, logo.svg and params.json. The logo is also printed.`,
		Args: usageArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := f.options(e, 0)
			if err != nil {
				return err
			}
			return runFit(cmd.Context(), o)
		},
	}
	f.register(cmd.Flags(), false)
	return cmd
}

func newRunCmd(e *env) *cobra.Command {
	var (
		g generateFlags
		f fitFlags
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run generate then fit in one process",
		Args:  usageArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			gopt, err := g.options(e)
			if err != nil {
				return err
			}
			f.seed = g.seed
			length := g.seqLength
			if g.fasta != "" {
				length = 0
			}
			fopt, err := f.options(e, length)
			if err != nil {
				return err
			}
			ds, err := runGenerate(cmd.Context(), gopt)
			if err != nil {
				return err
			}
			fopt.Dataset = ds
			return runFit(cmd.Context(), fopt)
		},
	}
	g.register(cmd.Flags())
	f.register(cmd.Flags(), true)
	return cmd
}
