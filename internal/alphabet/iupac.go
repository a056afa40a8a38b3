// internal/alphabet/iupac.go
package alphabet

import (
	"fmt"
	"strings"
	"unicode"
)

var complement [256]byte

func init() {
	complement['A'] = 'T'
	complement['C'] = 'G'
	complement['G'] = 'C'
	complement['T'] = 'A'
	complement['R'] = 'Y'
	complement['Y'] = 'R'
	complement['S'] = 'S'
	complement['W'] = 'W'
	complement['K'] = 'M'
	complement['M'] = 'K'
	complement['B'] = 'V'
	complement['V'] = 'B'
	complement['D'] = 'H'
	complement['H'] = 'D'
	complement['N'] = 'N'
}

// Normalize removes whitespace and quotes and uppercases the rest.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '\'' || r == '"' {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Validate returns the normalized sequence or an error naming the first
// non-IUPAC character (1-based position).
func Validate(raw string) (string, error) {
	s := Normalize(raw)
	if s == "" {
		return "", fmt.Errorf("empty sequence")
	}
	for i := 0; i < len(s); i++ {
		if complement[s[i]] == 0 {
			return "", fmt.Errorf("invalid base %q at %d; allowed: A C G T R Y S W K M B D H V N", s[i], i+1)
		}
	}
	return s, nil
}

// Complement returns the IUPAC complement of b, or 'N' for unknown input.
func Complement(b byte) byte {
	if b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}
	if c := complement[b]; c != 0 {
		return c
	}
	return 'N'
}

func RevComp(seq string) string {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = Complement(seq[n-1-i])
	}
	return string(out)
}

var iupacBases = map[byte]string{
	'A': "A", 'C': "C", 'G': "G", 'T': "T",
	'R': "AG", 'Y': "CT", 'S': "CG", 'W': "AT",
	'K': "GT", 'M': "AC", 'B': "CGT", 'D': "AGT",
	'H': "ACT", 'V': "ACG", 'N': "ACGT",
}

// Expand returns the bases an IUPAC code stands for ("" if unknown).
func Expand(b byte) string {
	if b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}
	return iupacBases[b]
}
