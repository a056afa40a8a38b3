// internal/appcore/fit.go
package appcore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"mavekit/internal/jsonutil"
	"mavekit/internal/logo"
	"mavekit/internal/mave"
	"mavekit/internal/surrogate"
	"mavekit/internal/writers"
)

// Output file names of the fit step.
const (
	LogoCSV    = "logo.csv"
	LogoSVG    = "logo.svg"
	ParamsJSON = "params.json"
)

// FitOptions configure step 2.
type FitOptions struct {
	InDir  string // where x_mut.npy / y_mut.npy live; defaults to OutDir
	OutDir string

	// Dataset, when set, is used instead of loading InDir.
	Dataset *mave.Dataset

	Surrogate surrogate.Options
	Gauge     surrogate.Gauge
	TaskIndex int
	Task      string // by name; overrides TaskIndex

	// ViewWindow selects the logo rows; zero falls back to the dataset's
	// pattern window, then to the model window.
	ViewWindow [2]int
	Center     bool
	Formats    []string // extra logo formats written as logo.<ext>

	// Stdout receives the terminal logo; nil prints nothing.
	Stdout io.Writer
	Color  bool
}

// FitResult is everything step 2 produced.
type FitResult struct {
	Model     *surrogate.Model
	Report    *surrogate.Report
	Params    *surrogate.Params
	Logo      logo.Matrix
	View      [2]int
	Artifacts map[string]string
}

// Params flattens o for the run ledger.
func (o FitOptions) Params() map[string]any {
	s := o.Surrogate
	p := map[string]any{
		"gpmap": string(s.GPMap), "regression": string(s.Regression), "solver": string(s.Solver),
		"reg_strength": s.RegStrength, "deduplicate": s.Deduplicate, "gauge": string(o.Gauge),
		"task_index": o.TaskIndex, "seed": s.Seed,
	}
	if s.Solver == surrogate.Adam {
		p["learning_rate"], p["epochs"], p["batch_size"] = s.LearningRate, s.Epochs, s.BatchSize
		p["early_stopping"], p["patience"] = s.EarlyStopping, s.Patience
	}
	if o.Task != "" {
		p["task"] = o.Task
	}
	return p
}

func (o FitOptions) taskIndex(ds *mave.Dataset) (int, error) {
	if o.Task != "" {
		for i, t := range ds.Meta.Tasks {
			if t == o.Task {
				return i, nil
			}
		}
		return 0, Usagef("task %q not in dataset (have %v)", o.Task, ds.Meta.Tasks)
	}
	if o.TaskIndex < 0 || o.TaskIndex >= ds.T {
		return 0, Usagef("--task-index %d out of range: dataset has %d task(s)", o.TaskIndex, ds.T)
	}
	return o.TaskIndex, nil
}

// Fit runs step 2: train, extract parameters and logo, and write
// logo.csv, logo.svg and params.json (plus any extra formats).
func Fit(ctx context.Context, o FitOptions) (*FitResult, error) {
	ds := o.Dataset
	if ds == nil {
		dir := o.InDir
		if dir == "" {
			dir = o.OutDir
		}
		var err error
		if ds, err = mave.Load(dir); err != nil {
			return nil, fmt.Errorf("load dataset: %w", err)
		}
	}
	for _, f := range o.Formats {
		if _, ok := writers.LogoWriters[f]; !ok {
			return nil, Usagef("unknown logo format %q (have %v)", f, writers.LogoFormats())
		}
	}
	task, err := o.taskIndex(ds)
	if err != nil {
		return nil, err
	}

	model, rep, err := surrogate.Train(ctx, ds, task, o.Surrogate)
	if err != nil {
		return nil, err
	}
	params, err := model.Params(o.Gauge)
	if err != nil {
		return nil, err
	}

	view := o.ViewWindow
	if view == [2]int{} {
		view = ds.Meta.PatternWindow
	}
	if view == [2]int{} {
		view = model.Window
	}
	lg, err := params.Logo(view, ds.L)
	if err != nil {
		return nil, Usagef("--view-window: %v", err)
	}

	if err := ensureDir(o.OutDir); err != nil {
		return nil, err
	}
	res := &FitResult{Model: model, Report: rep, Params: params, Logo: lg, View: view, Artifacts: map[string]string{}}

	if err := writeFile(filepath.Join(o.OutDir, LogoCSV), func(w io.Writer) error { return logo.WriteCSV(w, lg) }); err != nil {
		return nil, err
	}
	res.Artifacts["logo_csv"] = filepath.Join(o.OutDir, LogoCSV)

	svgOpt := logo.SVGOptions{Center: o.Center, ViewWindow: view, Width: 20, Height: 2.5,
		Title: fmt.Sprintf("additive logo, %s gauge", params.Gauge)}
	if err := writeFile(filepath.Join(o.OutDir, LogoSVG), func(w io.Writer) error { return logo.WriteSVG(w, lg, svgOpt) }); err != nil {
		return nil, err
	}
	res.Artifacts["logo_svg"] = filepath.Join(o.OutDir, LogoSVG)

	if err := jsonutil.WriteFile(filepath.Join(o.OutDir, ParamsJSON), params.ToAPI(model)); err != nil {
		return nil, err
	}
	res.Artifacts["params"] = filepath.Join(o.OutDir, ParamsJSON)

	for _, f := range o.Formats {
		name := "logo" + writers.LogoExt(f)
		if name == LogoCSV || name == LogoSVG {
			continue
		}
		path := filepath.Join(o.OutDir, name)
		if err := writeFile(path, func(w io.Writer) error { return writers.WriteLogo(f, w, lg) }); err != nil {
			return nil, err
		}
		res.Artifacts["logo_"+f] = path
	}

	if o.Stdout != nil {
		shown, _ := lg.View(view)
		opt := logo.DefaultRenderOptions
		opt.Center, opt.Color = o.Center, o.Color
		if _, err := io.WriteString(o.Stdout, logo.Render(shown, opt)); err != nil {
			return nil, err
		}
		fmt.Fprintf(o.Stdout, "# consensus %s\n", logo.Consensus(shown.Center(), 0.1))
	}

	log.WithFields(log.Fields{
		"r2": rep.R2, "pearson": rep.Pearson, "removed": rep.Removed,
		"gauge": params.Gauge, "view": view,
	}).Info("surrogate summary")
	return res, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return write(f)
}
