// internal/logo/logo_test.go
package logo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mavekit/internal/alphabet"
)

func sample() Matrix {
	m := New(alphabet.DNA, 4)
	m.Start = 10
	m.Rows[0] = []float64{1, 0, 0, 0}
	m.Rows[1] = []float64{0, 2, -1, 0.5}
	m.Rows[2] = []float64{-0.25, 0, 0, 0}
	m.Rows[3] = []float64{0, 0, 0, 3}
	return m
}

var approx = cmpopts.EquateApprox(0, 1e-12)

func TestCSVRoundTrip(t *testing.T) {
	m := sample()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, m); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), ",A,C,G,T\n10,1,0,0,0\n") {
		t.Fatalf("unexpected layout:\n%s", buf.String())
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Start != 10 || !got.Alphabet.Equal(alphabet.DNA) {
		t.Fatalf("start=%d alphabet=%s", got.Start, got.Alphabet)
	}
	if d := cmp.Diff(m.Rows, got.Rows, approx); d != "" {
		t.Fatalf("rows (-want +got):\n%s", d)
	}
}

func TestReadCSVRejectsGap(t *testing.T) {
	in := ",A,C,G,T\n0,1,0,0,0\n2,0,0,0,0\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for non-consecutive positions")
	}
}

func TestCenter(t *testing.T) {
	c := sample().Center()
	for i, r := range c.Rows {
		s := 0.0
		for _, v := range r {
			s += v
		}
		if s > 1e-12 || s < -1e-12 {
			t.Fatalf("row %d sums to %g", i, s)
		}
	}
	if sample().Rows[0][0] != 1 {
		t.Fatal("Center modified the receiver")
	}
}

func TestView(t *testing.T) {
	m := sample()
	v, err := m.View([2]int{11, 13})
	if err != nil {
		t.Fatal(err)
	}
	if v.Start != 11 || v.Len() != 2 || v.Rows[0][1] != 2 {
		t.Fatalf("bad view: %+v", v)
	}
	if _, err := m.View([2]int{9, 12}); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if _, err := m.View([2]int{12, 12}); err == nil {
		t.Fatal("expected empty-window error")
	}
	same, _ := m.View([2]int{})
	if same.Len() != 4 {
		t.Fatal("zero window must return full matrix")
	}
}

func TestToAPI(t *testing.T) {
	a := ToAPI(sample())
	if d := cmp.Diff([]string{"A", "C", "G", "T"}, a.Alphabet); d != "" {
		t.Fatal(d)
	}
	if a.Start != 10 || len(a.Rows) != 4 {
		t.Fatalf("%+v", a)
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sample(), SVGOptions{Width: 4, Height: 1, Title: "a<b"}); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	for _, want := range []string{"<svg", "</svg>", "#109648", "#D62839", "a&lt;b", ">13</text>"} {
		if !strings.Contains(s, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestWriteSVGBadWindow(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSVG(&buf, sample(), SVGOptions{ViewWindow: [2]int{0, 100}})
	if err == nil {
		t.Fatal("expected window error")
	}
}

func TestConsensus(t *testing.T) {
	m := sample()
	if got := Consensus(m, 0.5); got != "aC.T" {
		t.Fatalf("Consensus = %q", got)
	}
}

func TestRenderPlain(t *testing.T) {
	opt := DefaultRenderOptions
	opt.Color = false
	opt.Center = false
	opt.Floor = 0.1
	out := Render(sample(), opt)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("want 6 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[3], "   .") {
		t.Fatalf("row below floor should be a dot: %q", lines[3])
	}
	if !strings.Contains(lines[4], strings.Repeat("█", 40)) {
		t.Fatalf("largest effect should fill the bar: %q", lines[4])
	}
}
