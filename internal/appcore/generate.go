// internal/appcore/generate.go
package appcore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"mavekit/internal/alphabet"
	"mavekit/internal/fasta"
	"mavekit/internal/mave"
	"mavekit/internal/mutagenesis"
	"mavekit/internal/runutil"
	"mavekit/internal/zoo"
)

// GenerateOptions configure step 1.
type GenerateOptions struct {
	// Wild type: Pattern padded with N to SeqLength, or the FASTA record
	// FastaID (first record when empty) of FastaPath.
	Pattern   string
	SeqLength int
	FastaPath string
	FastaID   string

	Catalog *zoo.Catalog
	Model   string
	Task    string

	NumSim          int
	MutRate         float64
	Uniform         bool
	Window          [2]int // zero: whole sequence
	ContextAgnostic bool
	BatchSize       int
	Threads         int
	Seed            int64

	OutDir string
}

// Params flattens o for the run ledger.
func (o GenerateOptions) Params() map[string]any {
	p := map[string]any{
		"model": o.Model, "task": o.Task, "num_sim": o.NumSim, "mut_rate": o.MutRate,
		"uniform": o.Uniform, "context_agnostic": o.ContextAgnostic, "seed": o.Seed,
		"batch_size": o.BatchSize, "threads": o.Threads,
	}
	if o.FastaPath != "" {
		p["fasta"] = o.FastaPath
	} else {
		p["pattern"], p["seq_length"] = o.Pattern, o.SeqLength
	}
	if o.Window != [2]int{} {
		p["window"] = runutil.FormatWindow(o.Window)
	}
	return p
}

func (o GenerateOptions) validate() error {
	if o.Catalog == nil {
		return Usagef("no model catalog")
	}
	if o.FastaPath == "" {
		if o.Pattern == "" {
			return Usagef("either --pattern or --fasta is required")
		}
		if o.SeqLength < len(o.Pattern) {
			return Usagef("--seq-length %d shorter than pattern (%d)", o.SeqLength, len(o.Pattern))
		}
	}
	if err := runutil.ValidatePositive("num-sim", o.NumSim); err != nil {
		return Usagef("%v", err)
	}
	if err := runutil.ValidatePositive("batch-size", o.BatchSize); err != nil {
		return Usagef("%v", err)
	}
	if err := runutil.ValidateFraction("mut-rate", o.MutRate); err != nil {
		return Usagef("%v", err)
	}
	return nil
}

// wildType resolves the starting sequence and the pattern's window in it
// (zero when the pattern is not found or not given).
func (o GenerateOptions) wildType() (string, [2]int, error) {
	if o.FastaPath == "" {
		pat, err := alphabet.Validate(o.Pattern)
		if err != nil {
			return "", [2]int{}, Usagef("pattern: %v", err)
		}
		return alphabet.WildType(pat, o.SeqLength)
	}
	rec, err := fasta.Find(o.FastaPath, o.FastaID)
	if err != nil {
		return "", [2]int{}, err
	}
	seq, err := alphabet.Validate(string(rec.Seq))
	if err != nil {
		return "", [2]int{}, fmt.Errorf("%s: %w", rec.ID, err)
	}
	var win [2]int
	if o.Pattern != "" {
		if i := strings.Index(seq, alphabet.Normalize(o.Pattern)); i >= 0 {
			win = [2]int{i, i + len(o.Pattern)}
		}
	}
	return seq, win, nil
}

// Generate runs step 1 and saves x_mut.npy, y_mut.npy and mave.json.
func Generate(ctx context.Context, o GenerateOptions) (*mave.Dataset, map[string]string, error) {
	if err := o.validate(); err != nil {
		return nil, nil, err
	}
	seq, patWin, err := o.wildType()
	if err != nil {
		return nil, nil, err
	}
	entry, err := o.Catalog.Entry(o.Model)
	if err != nil {
		return nil, nil, err
	}
	alpha := alphabet.DNA
	if entry.Alphabet != "" {
		if alpha, err = alphabet.Parse(entry.Alphabet); err != nil {
			return nil, nil, err
		}
	}
	pred, err := o.Catalog.Get(o.Model, o.Task)
	if err != nil {
		return nil, nil, err
	}
	mut := mutagenesis.RandomMutagenesis{Rate: o.MutRate, Uniform: o.Uniform}
	if err := mut.Validate(); err != nil {
		return nil, nil, Usagef("%v", err)
	}
	if o.Window != [2]int{} {
		if err := runutil.CheckWindow(o.Window, len(seq)); err != nil {
			return nil, nil, Usagef("--window: %v", err)
		}
	}

	total := o.NumSim
	step := max(total/10, 1)
	lg := log.WithFields(log.Fields{"model": o.Model, "tasks": pred.Tasks(), "num_sim": total, "length": len(seq)})
	lg.Info("generating in silico MAVE")
	gen := mave.Generator{
		Mutagenizer: mut,
		Predictor:   pred,
		Config: mave.Config{
			Window:          o.Window,
			ContextAgnostic: o.ContextAgnostic,
			BatchSize:       o.BatchSize,
			Threads:         runutil.ComputeThreads(o.Threads),
			Seed:            o.Seed,
			OnProgress: func(done, n int) {
				if done == n || done/step != (done-o.BatchSize)/step {
					lg.WithFields(log.Fields{"done": done, "total": n}).Info("scored batch")
				}
			},
		},
	}
	ds, err := gen.Generate(ctx, alpha.Encode(seq), o.NumSim)
	if err != nil {
		return nil, nil, err
	}
	ds.Meta.Alphabet = alpha.String()
	ds.Meta.Model = o.Model
	ds.Meta.WildType = seq
	ds.Meta.PatternWindow = patWin

	if err := ensureDir(o.OutDir); err != nil {
		return nil, nil, err
	}
	if err := ds.Save(o.OutDir); err != nil {
		return nil, nil, err
	}
	artifacts := map[string]string{
		"x":    filepath.Join(o.OutDir, mave.XFile),
		"y":    filepath.Join(o.OutDir, mave.YFile),
		"meta": filepath.Join(o.OutDir, mave.MetaFile),
	}
	lg.WithField("dir", o.OutDir).Info("saved in silico MAVE dataset")
	return ds, artifacts, nil
}
