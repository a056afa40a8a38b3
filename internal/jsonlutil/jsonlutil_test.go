// internal/jsonlutil/jsonlutil_test.go
package jsonlutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestStartOrderAndFlush(t *testing.T) {
	var b bytes.Buffer
	in, done := Start[int](&b, 1, func(e *json.Encoder, v int) error { return e.Encode(v) },
		func(error) bool { return false })
	for i := 0; i < 100; i++ {
		in <- i
	}
	close(in)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	dec := json.NewDecoder(&b)
	for want := 0; want < 100; want++ {
		var got int
		if err := dec.Decode(&got); err != nil || got != want {
			t.Fatalf("line %d: got %d err %v", want, got, err)
		}
	}
}

func TestStartDrainsAfterError(t *testing.T) {
	boom := errors.New("boom")
	in, done := Start[int](&bytes.Buffer{}, 1, func(*json.Encoder, int) error { return boom },
		func(error) bool { return false })
	for i := 0; i < 50; i++ {
		in <- i // must not block even though encoding failed
	}
	close(in)
	if err := <-done; !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}
