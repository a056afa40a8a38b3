// internal/alphabet/alphabet.go

// Package alphabet holds the nucleotide alphabet and the one-hot encoding
// shared by the mutagenizer, the predictors and the surrogate trainer.
package alphabet

import (
	"fmt"
	"strings"
)

// Alphabet is an ordered set of single-byte symbols. Column i of a one-hot
// row corresponds to Symbol(i).
type Alphabet struct {
	symbols []byte
	index   [256]int8 // symbol index + 1; 0 means "not in alphabet"
}

// DNA is the default A,C,G,T alphabet.
var DNA = MustParse("ACGT")

// Parse builds an alphabet from s. Separators (commas, spaces) are ignored and
// symbols are uppercased.
func Parse(s string) (Alphabet, error) {
	var a Alphabet
	for _, r := range strings.ToUpper(s) {
		if r == ',' || r == ' ' || r == '\t' {
			continue
		}
		if r > 0x7f {
			return Alphabet{}, fmt.Errorf("alphabet: non-ASCII symbol %q", r)
		}
		b := byte(r)
		if a.index[b] != 0 {
			return Alphabet{}, fmt.Errorf("alphabet: duplicate symbol %q", r)
		}
		a.symbols = append(a.symbols, b)
		a.index[b] = int8(len(a.symbols))
	}
	if len(a.symbols) < 2 {
		return Alphabet{}, fmt.Errorf("alphabet: need at least 2 symbols, got %d", len(a.symbols))
	}
	if len(a.symbols) > 127 {
		return Alphabet{}, fmt.Errorf("alphabet: too many symbols (%d)", len(a.symbols))
	}
	return a, nil
}

// MustParse is Parse for package-level literals.
func MustParse(s string) Alphabet {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Alphabet) Size() int { return len(a.symbols) }

// Symbols returns a copy of the ordered symbols.
func (a Alphabet) Symbols() []byte { return append([]byte(nil), a.symbols...) }

// Labels returns the symbols as one-character strings (table headers).
func (a Alphabet) Labels() []string {
	out := make([]string, len(a.symbols))
	for i, b := range a.symbols {
		out[i] = string(b)
	}
	return out
}

func (a Alphabet) String() string { return string(a.symbols) }

// Index returns the column for symbol b (case-insensitive), or -1.
func (a Alphabet) Index(b byte) int {
	if b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}
	return int(a.index[b]) - 1
}

func (a Alphabet) Symbol(i int) byte { return a.symbols[i] }

// Equal reports whether both alphabets list the same symbols in the same order.
func (a Alphabet) Equal(b Alphabet) bool { return string(a.symbols) == string(b.symbols) }
