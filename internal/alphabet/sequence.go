// internal/alphabet/sequence.go
package alphabet

import (
	"fmt"
	"strings"
)

// Insert overwrites background[pos:pos+len(pattern)] with pattern.
func Insert(background, pattern string, pos int) (string, error) {
	if pos < 0 || pos+len(pattern) > len(background) {
		return "", fmt.Errorf("pattern of length %d at %d overruns sequence of length %d", len(pattern), pos, len(background))
	}
	return background[:pos] + pattern + background[pos+len(pattern):], nil
}

// WildType pads pattern with N background so that it starts at length/2 and
// the whole sequence is exactly length long. It returns the sequence and the
// pattern's [start, end) window.
func WildType(pattern string, length int) (string, [2]int, error) {
	p, err := Validate(pattern)
	if err != nil {
		return "", [2]int{}, fmt.Errorf("pattern: %w", err)
	}
	start := length / 2
	seq, err := Insert(strings.Repeat("N", length), p, start)
	if err != nil {
		return "", [2]int{}, err
	}
	return seq, [2]int{start, start + len(p)}, nil
}
