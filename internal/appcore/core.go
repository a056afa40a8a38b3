// internal/appcore/core.go

// Package appcore runs the generate and fit steps and maps their errors to
// process exit codes. It knows nothing about flags.
package appcore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"mavekit/internal/mutagenesis"
	"mavekit/internal/predictor"
	"mavekit/internal/store"
	"mavekit/internal/surrogate"
	"mavekit/internal/writers"
	"mavekit/internal/zoo"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitIO        = 3
	ExitCancelled = 130
)

// ErrUsage marks invalid user input; it maps to ExitUsage.
var ErrUsage = errors.New("usage error")

// Usagef wraps a formatted message in ErrUsage.
func Usagef(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, a...))
}

// ExitCode maps an error from a step to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	case writers.IsBrokenPipe(err):
		return ExitOK
	case errors.Is(err, ErrUsage),
		errors.Is(err, zoo.ErrUnknownModel),
		errors.Is(err, predictor.ErrUnknownTask),
		errors.Is(err, mutagenesis.ErrWindow),
		errors.Is(err, surrogate.ErrOptions):
		return ExitUsage
	}
	return ExitIO
}

// Report prints err to stderr the way the CLI does and returns its exit code.
func Report(stderr io.Writer, err error) int {
	code := ExitCode(err)
	switch code {
	case ExitOK:
	case ExitCancelled:
		fmt.Fprintln(stderr, "cancelled")
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return code
}

// StepFunc does the work of one step and returns its artifacts and metrics.
type StepFunc func(ctx context.Context) (artifacts map[string]string, metrics map[string]float64, err error)

// Track runs fn as a ledger entry in dir/runs.db. Ledger failures are
// logged, never fatal: the step's own outcome decides the result.
func Track(ctx context.Context, dir, step string, params map[string]any, fn StepFunc) error {
	entry := log.WithField("step", step)
	ledger, err := store.Open(filepath.Join(dir, store.FileName))
	if err != nil {
		entry.WithError(err).Warn("run ledger unavailable")
		_, _, err := fn(ctx)
		return err
	}
	defer ledger.Close()

	run, err := ledger.Begin(ctx, step, params)
	if err != nil {
		entry.WithError(err).Warn("run ledger unavailable")
		_, _, err := fn(ctx)
		return err
	}
	entry = entry.WithField("run", run.ID)
	entry.Info("step started")

	artifacts, metrics, runErr := fn(ctx)
	// record cancellations too, on a fresh context
	if err := ledger.Finish(context.WithoutCancel(ctx), run.ID, artifacts, metrics, runErr); err != nil {
		entry.WithError(err).Warn("could not close run")
	}
	if runErr != nil {
		entry.WithError(runErr).Error("step failed")
		return runErr
	}
	entry.WithField("artifacts", len(artifacts)).Info("step finished")
	return nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
