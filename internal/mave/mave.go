// internal/mave/mave.go

// Package mave builds in-silico MAVE libraries: a wild-type sequence is
// mutagenized num_sim times and every variant is scored by a predictor.
package mave

import (
	"context"
	"fmt"

	"mavekit/internal/alphabet"
	"mavekit/internal/mutagenesis"
	"mavekit/internal/predictor"
)

// Config controls library generation.
type Config struct {
	// Window is the [start, end) interval to mutagenize; the zero value
	// means the whole sequence.
	Window [2]int
	// ContextAgnostic fills every background row of every variant with a
	// random symbol, so the pattern is scored in many random contexts.
	ContextAgnostic bool
	BatchSize       int
	Threads         int
	Seed            int64
	OnProgress      func(done, total int)
}

// Generator pairs a mutagenizer with a predictor.
type Generator struct {
	Mutagenizer mutagenesis.Mutagenizer
	Predictor   predictor.Predictor
	Config      Config
}

// window resolves the configured window against a sequence length.
func (c Config) window(length int) [2]int {
	if c.Window == [2]int{} {
		return [2]int{0, length}
	}
	return c.Window
}

// Variants builds the numSim sequences of the library without scoring them.
// Variant 0 is the wild-type (background-filled when context-agnostic).
func (g Generator) Variants(x alphabet.OneHot, numSim int) ([]alphabet.OneHot, error) {
	if numSim < 1 {
		return nil, fmt.Errorf("num_sim must be >= 1, got %d", numSim)
	}
	if x.Len == 0 {
		return nil, fmt.Errorf("empty wild-type sequence")
	}
	win := g.Config.window(x.Len)
	if err := mutagenesis.CheckWindow(win, x.Len); err != nil {
		return nil, err
	}
	rng := mutagenesis.NewRand(g.Config.Seed)
	full := [2]int{0, x.Len}

	out := make([]alphabet.OneHot, numSim)
	for i := range out {
		v := x.Clone()
		if g.Config.ContextAgnostic {
			mutagenesis.FillBackground(v, full, rng)
		}
		if i > 0 {
			v = g.Mutagenizer.Mutate(v, win, rng)
		}
		out[i] = v
	}
	return out, nil
}

// Generate builds and scores the library.
func (g Generator) Generate(ctx context.Context, x alphabet.OneHot, numSim int) (*Dataset, error) {
	if g.Mutagenizer == nil || g.Predictor == nil {
		return nil, fmt.Errorf("mave: generator needs a mutagenizer and a predictor")
	}
	xs, err := g.Variants(x, numSim)
	if err != nil {
		return nil, err
	}
	runner := predictor.BatchRunner{
		Predictor:  g.Predictor,
		BatchSize:  g.Config.BatchSize,
		Threads:    g.Config.Threads,
		OnProgress: g.Config.OnProgress,
	}
	ys, err := runner.Predict(ctx, xs)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	tasks := g.Predictor.Tasks()
	d := &Dataset{N: numSim, L: x.Len, A: x.Size, T: len(tasks)}
	d.X = make([]uint8, 0, numSim*x.Len*x.Size)
	d.Y = make([]float32, 0, numSim*len(tasks))
	for i, v := range xs {
		if len(ys[i]) != d.T {
			return nil, fmt.Errorf("%w: prediction %d has %d tasks, want %d", ErrShapeMismatch, i, len(ys[i]), d.T)
		}
		d.X = append(d.X, v.Data...)
		d.Y = append(d.Y, ys[i]...)
	}
	d.Meta.Tasks = tasks
	d.Meta.MutWindow = g.Config.window(x.Len)
	d.Meta.ContextAgnostic = g.Config.ContextAgnostic
	d.Meta.Seed = g.Config.Seed
	if rm, ok := g.Mutagenizer.(mutagenesis.RandomMutagenesis); ok {
		d.Meta.MutRate, d.Meta.Uniform = rm.Rate, rm.Uniform
	}
	return d, nil
}
