// internal/surrogate/options.go

// Package surrogate fits interpretable models (additive or nearest-neighbour
// pairwise) to an in-silico MAVE library and extracts their parameters as
// sequence logos.
package surrogate

import (
	"errors"
	"fmt"
	"strings"
)

// GPMap selects the genotype-phenotype map.
type GPMap string

const (
	Additive GPMap = "additive"
	Neighbor GPMap = "neighbor"
)

// Regression selects how phi maps to the measurement.
type Regression string

const (
	Linear Regression = "linear"
	GE     Regression = "GE" // global epistasis: monotone g(phi)
)

// Solver selects the optimizer for the linear stage.
type Solver string

const (
	Ridge Solver = "ridge"
	Adam  Solver = "adam"
)

// ErrOptions wraps every option validation failure.
var ErrOptions = errors.New("surrogate: invalid options")

// Options configure Train.
type Options struct {
	GPMap      GPMap
	Regression Regression
	Solver     Solver

	// RegStrength is the L2 penalty on the non-constant parameters.
	RegStrength float64

	// Adam only.
	LearningRate  float64
	Epochs        int
	BatchSize     int
	EarlyStopping bool
	Patience      int
	RestoreBest   bool

	// Fractions of the (deduplicated) library held out for validation and
	// for the reported test metrics.
	ValidationFraction float64
	TestFraction       float64

	Deduplicate bool
	Seed        int64

	// Window restricts the model to positions [start, end); the zero value
	// uses the whole sequence.
	Window [2]int

	// OnEpoch, if set, is called after every Adam epoch.
	OnEpoch func(epoch int, trainLoss, valLoss float64)
}

// DefaultOptions mirror the settings of the reference global analysis.
func DefaultOptions() Options {
	return Options{
		GPMap:              Additive,
		Regression:         GE,
		Solver:             Adam,
		RegStrength:        0.1,
		LearningRate:       5e-4,
		Epochs:             500,
		BatchSize:          100,
		EarlyStopping:      true,
		Patience:           25,
		RestoreBest:        true,
		ValidationFraction: 0.2,
		TestFraction:       0.1,
		Deduplicate:        true,
	}
}

// ParseGPMap accepts "additive" and "neighbor" (or "neighbour", "pairwise").
func ParseGPMap(s string) (GPMap, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "additive":
		return Additive, nil
	case "neighbor", "neighbour", "pairwise":
		return Neighbor, nil
	}
	return "", fmt.Errorf("%w: unknown gpmap %q (want additive|neighbor)", ErrOptions, s)
}

func ParseRegression(s string) (Regression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ge":
		return GE, nil
	case "linear", "mpa":
		return Linear, nil
	}
	return "", fmt.Errorf("%w: unknown regression %q (want GE|linear)", ErrOptions, s)
}

func ParseSolver(s string) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "adam":
		return Adam, nil
	case "ridge":
		return Ridge, nil
	}
	return "", fmt.Errorf("%w: unknown solver %q (want adam|ridge)", ErrOptions, s)
}

// Validate reports the first inconsistent option.
func (o Options) Validate() error {
	if _, err := ParseGPMap(string(o.GPMap)); err != nil {
		return err
	}
	if _, err := ParseRegression(string(o.Regression)); err != nil {
		return err
	}
	if _, err := ParseSolver(string(o.Solver)); err != nil {
		return err
	}
	if o.RegStrength < 0 {
		return fmt.Errorf("%w: reg strength must be >= 0", ErrOptions)
	}
	if o.ValidationFraction < 0 || o.TestFraction < 0 || o.ValidationFraction+o.TestFraction >= 1 {
		return fmt.Errorf("%w: validation %.2f + test %.2f must be in [0,1)", ErrOptions, o.ValidationFraction, o.TestFraction)
	}
	if o.Window[0] < 0 || (o.Window != [2]int{} && o.Window[0] >= o.Window[1]) {
		return fmt.Errorf("%w: bad window %v", ErrOptions, o.Window)
	}
	if o.Solver == Adam {
		switch {
		case o.LearningRate <= 0:
			return fmt.Errorf("%w: learning rate must be > 0", ErrOptions)
		case o.Epochs < 1:
			return fmt.Errorf("%w: epochs must be >= 1", ErrOptions)
		case o.BatchSize < 1:
			return fmt.Errorf("%w: batch size must be >= 1", ErrOptions)
		case o.EarlyStopping && o.Patience < 1:
			return fmt.Errorf("%w: patience must be >= 1", ErrOptions)
		}
	}
	return nil
}
