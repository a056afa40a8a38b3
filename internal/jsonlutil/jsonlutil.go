// internal/jsonlutil/jsonlutil.go

// Package jsonlutil streams values as JSON Lines from a single goroutine.
package jsonlutil

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// Buffered writers are pooled; each stream rebinds one to its output.
var bwPool = sync.Pool{
	New: func() any {
		return bufio.NewWriterSize(io.Discard, 64<<10)
	},
}

// Start spins up an encoder goroutine for values of type T. Close the
// returned channel when done; the error channel then yields exactly one
// value. Errors matched by isBroken (a closed downstream pipe) are dropped.
func Start[T any](out io.Writer, bufSize int, encode func(*json.Encoder, T) error, isBroken func(error) bool) (chan<- T, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan T, bufSize)
	done := make(chan error, 1)

	go func() {
		bw := bwPool.Get().(*bufio.Writer)
		bw.Reset(out)
		defer func() {
			bw.Reset(io.Discard)
			bwPool.Put(bw)
		}()

		enc := json.NewEncoder(bw)
		var failed error
		for v := range in {
			if failed != nil {
				continue // drain so the producer never blocks
			}
			if err := encode(enc, v); err != nil {
				failed = err
			}
		}
		if failed == nil {
			failed = bw.Flush()
		}
		if failed != nil && isBroken(failed) {
			failed = nil
		}
		done <- failed
	}()

	return in, done
}
