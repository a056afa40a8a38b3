// internal/fasta/reader_test.go
package fasta

import (
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

const plain = `>seq1 first record
ACGT
acgt
>seq2
NNnn
`

func writeGz(t *testing.T, name string, data string) string {
	fh, err := os.CreateTemp(t.TempDir(), name)
	if err != nil {
		t.Fatalf("tmp: %v", err)
	}
	gw := gzip.NewWriter(fh)
	if _, err := gw.Write([]byte(data)); err != nil {
		t.Fatalf("write gz: %v", err)
	}
	gw.Close()
	fh.Close()
	return fh.Name()
}

func TestStreamGzip(t *testing.T) {
	gzPath := writeGz(t, "test*.fa.gz", plain)

	ch, err := Stream(gzPath)
	if err != nil {
		t.Fatalf("stream gz: %v", err)
	}

	var ids []string
	for r := range ch {
		ids = append(ids, r.ID)
	}
	if len(ids) != 2 || ids[0] != "seq1" || ids[1] != "seq2" {
		t.Fatalf("gzip parse failed, ids=%v", ids)
	}
}

func TestStreamStdin(t *testing.T) {
	orig := os.Stdin
	r, w, _ := os.Pipe()
	os.Stdin = r
	defer func() { os.Stdin = orig }()
	go func() { io.WriteString(w, plain); w.Close() }()

	ch, err := Stream("-")
	if err != nil {
		t.Fatalf("stream stdin: %v", err)
	}
	count := 0
	for range ch {
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 records from stdin, got %d", count)
	}
}

func TestFind(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "wt.fa")
	if err := os.WriteFile(fn, []byte(plain), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec, err := Find(fn, "")
	if err != nil || rec.ID != "seq1" || string(rec.Seq) != "ACGTACGT" {
		t.Fatalf("first record: %+v %v", rec, err)
	}
	rec, err = Find(fn, "seq2")
	if err != nil || string(rec.Seq) != "NNNN" {
		t.Fatalf("named record: %+v %v", rec, err)
	}
	if _, err := Find(fn, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
