// internal/alphabet/alphabet_test.go
package alphabet

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	a, err := Parse("a,c,g,t")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.String() != "ACGT" || a.Size() != 4 {
		t.Fatalf("want ACGT/4, got %s/%d", a, a.Size())
	}
	if a.Index('g') != 2 || a.Index('N') != -1 {
		t.Fatalf("bad index lookups: g=%d N=%d", a.Index('g'), a.Index('N'))
	}
	if _, err := Parse("AA"); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := Parse("A"); err == nil {
		t.Fatal("expected too-short error")
	}
}

func TestEncodeDecode(t *testing.T) {
	x := DNA.Encode("ACgtN")
	if x.Len != 5 || x.Size != 4 {
		t.Fatalf("shape %dx%d", x.Len, x.Size)
	}
	want := []uint8{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
		0, 0, 0, 0,
	}
	if string(x.Data) != string(want) {
		t.Fatalf("encode: got %v", x.Data)
	}
	if got := DNA.Decode(x, 'N'); got != "ACGTN" {
		t.Fatalf("decode: got %q", got)
	}
	if x.Background() != 1 {
		t.Fatalf("background: want 1, got %d", x.Background())
	}
}

func TestSetAndClone(t *testing.T) {
	x := DNA.Encode("AAAA")
	y := x.Clone()
	y.Set(1, 3)
	y.Set(2, -1)
	if DNA.Decode(x, 'N') != "AAAA" {
		t.Fatal("clone shares storage with source")
	}
	if got := DNA.Decode(y, 'N'); got != "ATNA" {
		t.Fatalf("set: got %q", got)
	}
	if x.Equal(y) {
		t.Fatal("expected inequality")
	}
}

func TestValidate(t *testing.T) {
	s, err := Validate(" agcc atcaa ")
	if err != nil || s != "AGCCATCAA" {
		t.Fatalf("validate: %q %v", s, err)
	}
	_, err = Validate("ACGX")
	if err == nil || !strings.Contains(err.Error(), "at 4") {
		t.Fatalf("want position in error, got %v", err)
	}
}

func TestRevComp(t *testing.T) {
	if got := RevComp("AGCCATCAA"); got != "TTGATGGCT" {
		t.Fatalf("revcomp: %s", got)
	}
	if got := RevComp("ryn"); got != "NRY" {
		t.Fatalf("iupac revcomp: %s", got)
	}
}

func TestWildType(t *testing.T) {
	seq, win, err := WildType("AGCCATCAA", 20)
	if err != nil {
		t.Fatalf("wildtype: %v", err)
	}
	if len(seq) != 20 {
		t.Fatalf("length: %d", len(seq))
	}
	if win != [2]int{10, 19} || seq[10:19] != "AGCCATCAA" {
		t.Fatalf("window %v seq %s", win, seq)
	}
	if strings.Trim(seq[:10], "N") != "" || seq[19:] != "N" {
		t.Fatalf("padding: %s", seq)
	}
	if _, _, err := WildType("AGCCATCAAAGCC", 20); err == nil {
		t.Fatal("expected overrun error")
	}
}

func TestExpand(t *testing.T) {
	if Expand('r') != "AG" || Expand('N') != "ACGT" || Expand('X') != "" {
		t.Fatalf("expand: %q %q %q", Expand('r'), Expand('N'), Expand('X'))
	}
}

func TestWildTypeOddLength(t *testing.T) {
	seq, win, err := WildType("AGCCATCAA", 21)
	if err != nil {
		t.Fatalf("wildtype: %v", err)
	}
	if len(seq) != 21 || win != [2]int{10, 19} || seq[19:] != "NN" {
		t.Fatalf("want 21 symbols with the pattern at [10,19), got %q %v", seq, win)
	}
}
