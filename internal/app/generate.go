// internal/app/generate.go
package app

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mavekit/internal/appcore"
	"mavekit/internal/mave"
	"mavekit/internal/predictor"
	"mavekit/internal/runutil"
	"mavekit/internal/zoo"
)

type generateFlags struct {
	pattern         string
	seqLength       int
	fasta           string
	fastaID         string
	model           string
	task            string
	numSim          int
	mutRate         float64
	uniform         bool
	window          string
	contextAgnostic bool
	batchSize       int
	threads         int
	seed            int64
}

func (f *generateFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.pattern, "pattern", "AGCCATCAA", "conserved pattern inserted at seq-length/2 into N background")
	fs.IntVar(&f.seqLength, "seq-length", 1000, "full sequence length")
	fs.StringVar(&f.fasta, "fasta", "", "read the wild type from a FASTA file instead (\"-\" for stdin, .gz ok)")
	fs.StringVar(&f.fastaID, "fasta-id", "", "record to use from --fasta (default: first)")
	fs.StringVar(&f.model, "model", zoo.DefaultModel, "catalog model")
	fs.StringVar(&f.task, "task", "Nanog", "model task to score (empty: all tasks)")
	fs.IntVar(&f.numSim, "num-sim", 10000, "number of sequences to simulate")
	fs.Float64Var(&f.mutRate, "mut-rate", 0.1, "mutation rate per position of the window")
	fs.BoolVar(&f.uniform, "uniform", false, "exactly round(rate*W) mutations per variant instead of Poisson")
	fs.StringVar(&f.window, "window", "", "mutagenesis window start:end (default: whole sequence)")
	fs.BoolVar(&f.contextAgnostic, "context-agnostic", true, "fill N background with random nucleotides per variant")
	fs.IntVar(&f.batchSize, "batch-size", predictor.DefaultBatchSize, "prediction batch size")
	fs.IntVar(&f.threads, "threads", 0, "prediction workers (0: all CPUs)")
	fs.Int64Var(&f.seed, "seed", 0, "random seed")
}

func (f *generateFlags) options(e *env) (appcore.GenerateOptions, error) {
	length := f.seqLength
	if f.fasta != "" {
		length = 0 // checked against the record once it is read
	}
	win, err := runutil.ParseWindow(f.window, length)
	if err != nil {
		return appcore.GenerateOptions{}, appcore.Usagef("--window: %v", err)
	}
	return appcore.GenerateOptions{
		Pattern:         f.pattern,
		SeqLength:       f.seqLength,
		FastaPath:       f.fasta,
		FastaID:         f.fastaID,
		Catalog:         e.catalog,
		Model:           f.model,
		Task:            f.task,
		NumSim:          f.numSim,
		MutRate:         f.mutRate,
		Uniform:         f.uniform,
		Window:          win,
		ContextAgnostic: f.contextAgnostic,
		BatchSize:       f.batchSize,
		Threads:         f.threads,
		Seed:            f.seed,
		OutDir:          e.cfg.OutputDir,
	}, nil
}

// runGenerate is shared by generate and run.
func runGenerate(ctx context.Context, o appcore.GenerateOptions) (*mave.Dataset, error) {
	var ds *mave.Dataset
	err := appcore.Track(ctx, o.OutDir, "generate", o.Params(), func(ctx context.Context) (map[string]string, map[string]float64, error) {
		var (
			artifacts map[string]string
			err       error
		)
		ds, artifacts, err = appcore.Generate(ctx, o)
		if err != nil {
			return nil, nil, err
		}
		return artifacts, map[string]float64{"n": float64(ds.N), "tasks": float64(ds.T)}, nil
	})
	return ds, err
}

func newGenerateCmd(e *env) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Step 1: generate and score an in-silico MAVE library",
		Long: `Builds the wild type (pattern padded with N, or a FASTA record), draws
--num-sim random mutants, scores them with the chosen model and writes
x_mut.npy (N x L x 4, uint8) and y_mut.npy (N x T, float32).`,
		Args: usageArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := f.options(e)
			if err != nil {
				return err
			}
			_, err = runGenerate(cmd.Context(), o)
			return err
		},
	}
	f.register(cmd.Flags())
	return cmd
}
