// internal/appshell/shell.go

// Package appshell is the process boundary of the mavekit binary: signal
// handling, the no-argument default and the final exit status.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// RunFunc executes argv and returns an exit status.
type RunFunc func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

const exitCanceled = 130

// Main runs run with a context cancelled on SIGINT or SIGTERM and exits.
func Main(run RunFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Exec(ctx, run, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Exec is Main without the process: an empty argv asks for help, and an
// interrupted run never reports success.
func Exec(ctx context.Context, run RunFunc, argv []string, stdout, stderr io.Writer) int {
	if len(argv) == 0 {
		argv = []string{"--help"}
	}
	code := run(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		code = exitCanceled
	}
	return code
}
