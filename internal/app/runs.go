// internal/app/runs.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mavekit/internal/appcore"
	"mavekit/internal/store"
	"mavekit/internal/writers"
	"mavekit/pkg/api"
)

func newRunsCmd(e *env) *cobra.Command {
	var (
		output string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "Show the run ledger of the output directory",
		Long: `Lists the generate and fit steps recorded in <out>/runs.db, newest first.
With an id (or a unique id prefix) only that run is shown.`,
		Args: usageArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := writers.RunWriters[output]; !ok {
				return appcore.Usagef("--output: want %s, got %q", strings.Join(writers.RunFormats(), "|"), output)
			}
			runs, err := listRuns(cmd.Context(), e.cfg.OutputDir, args, limit)
			if err != nil {
				return err
			}
			return writers.WriteRuns(output, e.stdout, runs)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text|json|jsonl")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list (0: all)")
	return cmd
}

func listRuns(ctx context.Context, dir string, args []string, limit int) ([]api.RunV1, error) {
	path := filepath.Join(dir, store.FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && len(args) == 0 {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	if len(args) == 0 {
		return st.List(ctx, limit)
	}
	r, err := st.Get(ctx, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return nil, appcore.Usagef("run %q: %v", args[0], err)
	}
	if err != nil {
		return nil, fmt.Errorf("run %q: %w", args[0], err)
	}
	return []api.RunV1{r}, nil
}
