// internal/runutil/runutil.go

// Package runutil holds small validated helpers shared by the CLI steps.
package runutil

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// ParseWindow parses "start:end" into a half-open interval. Either side may
// be omitted ("100:", ":200") and is then taken from [0, length). An empty
// string yields the zero window, which callers treat as "unset".
func ParseWindow(s string, length int) ([2]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return [2]int{}, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return [2]int{}, fmt.Errorf("window %q: want start:end", s)
	}
	w := [2]int{0, length}
	for i, part := range []string{lo, hi} {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return [2]int{}, fmt.Errorf("window %q: %w", s, err)
		}
		w[i] = v
	}
	if err := CheckWindow(w, length); err != nil {
		return [2]int{}, err
	}
	return w, nil
}

// CheckWindow requires 0 <= start < end <= length (length <= 0 skips the
// upper bound).
func CheckWindow(w [2]int, length int) error {
	if w[0] < 0 || w[0] >= w[1] || (length > 0 && w[1] > length) {
		return fmt.Errorf("window [%d,%d) invalid for length %d", w[0], w[1], length)
	}
	return nil
}

// FormatWindow is the inverse of ParseWindow.
func FormatWindow(w [2]int) string { return fmt.Sprintf("%d:%d", w[0], w[1]) }

// ComputeThreads returns n, or the CPU count when n <= 0.
func ComputeThreads(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// ValidatePositive rejects n < 1 with a flag-named error.
func ValidatePositive(flag string, n int) error {
	if n < 1 {
		return fmt.Errorf("--%s must be >= 1, got %d", flag, n)
	}
	return nil
}

// ValidateFraction rejects values outside [0, 1].
func ValidateFraction(flag string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("--%s must be in [0,1], got %g", flag, v)
	}
	return nil
}
