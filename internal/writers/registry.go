// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"sort"

	"mavekit/internal/logo"
	"mavekit/pkg/api"
)

// Writer registries (format -> handler). Register in init() blocks.
var (
	LogoWriters = map[string]func(w io.Writer, m logo.Matrix) error{}
	RunWriters  = map[string]func(w io.Writer, runs []api.RunV1) error{}
)

// Register helpers (idempotent last-wins)
func RegisterLogo(format string, fn func(io.Writer, logo.Matrix) error) { LogoWriters[format] = fn }
func RegisterRuns(format string, fn func(io.Writer, []api.RunV1) error) { RunWriters[format] = fn }

// WriteLogo dispatches m to the writer registered for format.
func WriteLogo(format string, w io.Writer, m logo.Matrix) error {
	fn, ok := LogoWriters[format]
	if !ok {
		return fmt.Errorf("unknown logo format %q (no writer registered)", format)
	}
	return fn(w, m)
}

// WriteRuns dispatches runs to the writer registered for format.
func WriteRuns(format string, w io.Writer, runs []api.RunV1) error {
	fn, ok := RunWriters[format]
	if !ok {
		return fmt.Errorf("unknown runs format %q (no writer registered)", format)
	}
	return fn(w, runs)
}

// LogoFormats lists the registered logo formats, sorted.
func LogoFormats() []string { return keys(LogoWriters) }

// RunFormats lists the registered run formats, sorted.
func RunFormats() []string { return keys(RunWriters) }

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LogoExt is the file extension used when a logo format is saved to disk.
func LogoExt(format string) string {
	switch format {
	case "text":
		return ".txt"
	default:
		return "." + format
	}
}
