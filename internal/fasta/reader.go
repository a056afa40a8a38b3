// internal/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one FASTA entry with its sequence uppercased.
type Record struct {
	ID  string
	Seq []byte
}

// ErrNotFound is returned by Find when no record has the requested ID.
var ErrNotFound = errors.New("fasta: record not found")

// Stream emits every record of path on the returned channel. "-" reads stdin
// and a ".gz" suffix is decompressed transparently.
func Stream(path string) (<-chan Record, error) {
	return StreamCtx(context.Background(), path)
}

// StreamCtx is Stream with cancellation; the channel is closed when the file
// is exhausted or ctx is done.
func StreamCtx(ctx context.Context, path string) (<-chan Record, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	out := make(chan Record, 4)
	go func() {
		defer rc.Close()
		defer close(out)
		_ = scan(ctx, rc, func(r Record) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return out, nil
}

// Find returns the record named id, or the first record when id is empty.
func Find(path, id string) (Record, error) {
	rc, err := openReader(path)
	if err != nil {
		return Record{}, err
	}
	defer rc.Close()

	var (
		hit   Record
		found bool
	)
	err = scan(context.Background(), rc, func(r Record) bool {
		if id == "" || r.ID == id {
			hit, found = r, true
			return false
		}
		return true
	})
	if err != nil {
		return Record{}, err
	}
	if !found {
		if id == "" {
			return Record{}, fmt.Errorf("%s: no FASTA records", path)
		}
		return Record{}, fmt.Errorf("%s: %q: %w", path, id, ErrNotFound)
	}
	return hit, nil
}

func scan(ctx context.Context, r io.Reader, emit func(Record) bool) error {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024 // single-line genomes
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		id   string
		seq  []byte
		open bool
	)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if open && !emit(Record{ID: id, Seq: seq}) {
				return nil
			}
			fields := strings.Fields(string(line[1:]))
			id = ""
			if len(fields) > 0 {
				id = fields[0]
			}
			seq = nil
			open = true
			continue
		}
		seq = append(seq, bytes.ToUpper(line)...)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fasta scan: %w", err)
	}
	if open {
		emit(Record{ID: id, Seq: seq})
	}
	return nil
}

/* ---------------- small helpers ---------------- */

func openReader(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, err
		}
		return struct {
			io.Reader
			io.Closer
		}{Reader: gr, Closer: fh}, nil
	}
	return fh, nil
}
