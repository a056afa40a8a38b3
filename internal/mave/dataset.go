// internal/mave/dataset.go
package mave

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mavekit/internal/alphabet"
	"mavekit/internal/npy"
)

// File names inside an output directory.
const (
	XFile    = "x_mut.npy"
	YFile    = "y_mut.npy"
	MetaFile = "mave.json"
)

// ErrShapeMismatch is returned when X and Y disagree or are malformed.
var ErrShapeMismatch = errors.New("mave: shape mismatch")

// Dataset is an in-silico MAVE library: N one-hot sequences of shape L x A
// and N x T model scores. Row 0 is the unmutated sequence.
type Dataset struct {
	N, L, A, T int
	X          []uint8
	Y          []float32
	Meta       Meta
}

// Meta describes how a dataset was produced. It is persisted next to the
// arrays so the fit step can recover the alphabet, tasks and windows.
type Meta struct {
	Alphabet        string   `json:"alphabet"`
	Tasks           []string `json:"tasks,omitempty"`
	Model           string   `json:"model,omitempty"`
	WildType        string   `json:"wild_type,omitempty"`
	PatternWindow   [2]int   `json:"pattern_window"`
	MutWindow       [2]int   `json:"mut_window"`
	ContextAgnostic bool     `json:"context_agnostic"`
	MutRate         float64  `json:"mut_rate"`
	Uniform         bool     `json:"uniform"`
	Seed            int64    `json:"seed"`
}

// Seq returns sequence i as a one-hot view sharing the dataset's storage.
func (d *Dataset) Seq(i int) alphabet.OneHot {
	sz := d.L * d.A
	return alphabet.OneHot{Len: d.L, Size: d.A, Data: d.X[i*sz : (i+1)*sz]}
}

// Target returns the score of sequence i for task t.
func (d *Dataset) Target(i, t int) float32 { return d.Y[i*d.T+t] }

// Validate checks array lengths against the declared shape.
func (d *Dataset) Validate() error {
	if d.N <= 0 || d.L <= 0 || d.A <= 0 || d.T <= 0 {
		return fmt.Errorf("%w: N=%d L=%d A=%d T=%d", ErrShapeMismatch, d.N, d.L, d.A, d.T)
	}
	if len(d.X) != d.N*d.L*d.A {
		return fmt.Errorf("%w: x has %d values, want %d", ErrShapeMismatch, len(d.X), d.N*d.L*d.A)
	}
	if len(d.Y) != d.N*d.T {
		return fmt.Errorf("%w: y has %d values, want %d", ErrShapeMismatch, len(d.Y), d.N*d.T)
	}
	return nil
}

// Alphabet resolves Meta.Alphabet, falling back to DNA.
func (d *Dataset) Alphabet() (alphabet.Alphabet, error) {
	if d.Meta.Alphabet == "" {
		if d.A != alphabet.DNA.Size() {
			return alphabet.Alphabet{}, fmt.Errorf("dataset has %d symbols per position and no alphabet", d.A)
		}
		return alphabet.DNA, nil
	}
	a, err := alphabet.Parse(d.Meta.Alphabet)
	if err != nil {
		return alphabet.Alphabet{}, err
	}
	if a.Size() != d.A {
		return alphabet.Alphabet{}, fmt.Errorf("%w: alphabet %s vs %d columns", ErrShapeMismatch, a, d.A)
	}
	return a, nil
}

// Save writes x_mut.npy, y_mut.npy and mave.json into dir.
func (d *Dataset) Save(dir string) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	err := npy.WriteFile(filepath.Join(dir, XFile), func(w io.Writer) error {
		return npy.WriteUint8(w, []int{d.N, d.L, d.A}, d.X)
	})
	if err != nil {
		return err
	}
	err = npy.WriteFile(filepath.Join(dir, YFile), func(w io.Writer) error {
		return npy.WriteFloat32(w, []int{d.N, d.T}, d.Y)
	})
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(d.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, MetaFile), append(raw, '\n'), 0o644)
}

// Load reads a dataset written by Save, or by numpy.save from Python:
// x must be N x L x A and y either N or N x T. mave.json is optional.
func Load(dir string) (*Dataset, error) {
	xa, err := npy.ReadFile(filepath.Join(dir, XFile))
	if err != nil {
		return nil, err
	}
	ya, err := npy.ReadFile(filepath.Join(dir, YFile))
	if err != nil {
		return nil, err
	}
	if len(xa.Shape) != 3 {
		return nil, fmt.Errorf("%w: %s has shape %v, want (N, L, A)", ErrShapeMismatch, XFile, xa.Shape)
	}
	d := &Dataset{N: xa.Shape[0], L: xa.Shape[1], A: xa.Shape[2]}
	switch len(ya.Shape) {
	case 1:
		d.T = 1
	case 2:
		d.T = ya.Shape[1]
	default:
		return nil, fmt.Errorf("%w: %s has shape %v, want (N,) or (N, T)", ErrShapeMismatch, YFile, ya.Shape)
	}
	if ya.Shape[0] != d.N {
		return nil, fmt.Errorf("%w: %d sequences but %d targets", ErrShapeMismatch, d.N, ya.Shape[0])
	}
	if xa.Descr == npy.Uint8 || xa.Descr == npy.Bool {
		d.X, _ = xa.Uint8()
	} else {
		f := xa.Float64()
		d.X = make([]uint8, len(f))
		for i, v := range f {
			if v >= 0.5 {
				d.X[i] = 1
			}
		}
	}
	d.Y = ya.Float32()

	if raw, err := os.ReadFile(filepath.Join(dir, MetaFile)); err == nil {
		if err := json.Unmarshal(raw, &d.Meta); err != nil {
			return nil, fmt.Errorf("parse %s: %w", MetaFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
