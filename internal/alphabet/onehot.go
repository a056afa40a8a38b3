// internal/alphabet/onehot.go
package alphabet

// OneHot is an L x A row-major matrix of 0/1 values. A row with no 1 marks a
// background position (N or any symbol outside the alphabet).
type OneHot struct {
	Len  int
	Size int
	Data []uint8
}

// NewOneHot returns an all-background matrix.
func NewOneHot(length, size int) OneHot {
	return OneHot{Len: length, Size: size, Data: make([]uint8, length*size)}
}

// Encode converts seq to one-hot (seq2oh). Lowercase is accepted.
func (a Alphabet) Encode(seq string) OneHot {
	x := NewOneHot(len(seq), a.Size())
	for i := 0; i < len(seq); i++ {
		if j := a.Index(seq[i]); j >= 0 {
			x.Data[i*x.Size+j] = 1
		}
	}
	return x
}

// Decode converts x back to a string (oh2seq). Background rows become fill.
func (a Alphabet) Decode(x OneHot, fill byte) string {
	out := make([]byte, x.Len)
	for i := range out {
		if j := x.At(i); j >= 0 {
			out[i] = a.Symbol(j)
		} else {
			out[i] = fill
		}
	}
	return string(out)
}

// Row returns the slice backing position pos.
func (x OneHot) Row(pos int) []uint8 { return x.Data[pos*x.Size : (pos+1)*x.Size] }

// At returns the symbol index set at pos, or -1 for a background row.
func (x OneHot) At(pos int) int {
	for j, v := range x.Row(pos) {
		if v != 0 {
			return j
		}
	}
	return -1
}

// Set makes pos a one-hot row for sym; sym < 0 clears it to background.
func (x OneHot) Set(pos, sym int) {
	row := x.Row(pos)
	for j := range row {
		row[j] = 0
	}
	if sym >= 0 {
		row[sym] = 1
	}
}

func (x OneHot) Clone() OneHot {
	return OneHot{Len: x.Len, Size: x.Size, Data: append([]uint8(nil), x.Data...)}
}

// Background reports the number of background rows.
func (x OneHot) Background() int {
	n := 0
	for i := 0; i < x.Len; i++ {
		if x.At(i) < 0 {
			n++
		}
	}
	return n
}

// Equal reports element-wise equality.
func (x OneHot) Equal(y OneHot) bool {
	if x.Len != y.Len || x.Size != y.Size {
		return false
	}
	return string(x.Data) == string(y.Data)
}
