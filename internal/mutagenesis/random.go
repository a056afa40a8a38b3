// internal/mutagenesis/random.go
package mutagenesis

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"mavekit/internal/alphabet"
)

// ErrWindow is returned for a window that is empty or outside the sequence.
var ErrWindow = errors.New("mutagenesis: invalid window")

// NewRand returns the seeded generator a library is drawn from.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x6d617665))
}

// Mutagenizer produces one variant of x, mutating only within window.
type Mutagenizer interface {
	Mutate(x alphabet.OneHot, window [2]int, rng *rand.Rand) alphabet.OneHot
}

// RandomMutagenesis substitutes random positions with a different symbol.
// With Uniform set every variant carries round(Rate*W) substitutions; otherwise
// the count is Poisson(Rate*W), where W is the window width.
type RandomMutagenesis struct {
	Rate    float64
	Uniform bool
}

func (m RandomMutagenesis) Validate() error {
	if m.Rate < 0 || m.Rate > 1 || math.IsNaN(m.Rate) {
		return fmt.Errorf("mutation rate must be within [0,1], got %v", m.Rate)
	}
	return nil
}

// NumMutations draws the substitution count for a window of width w.
func (m RandomMutagenesis) NumMutations(w int, rng *rand.Rand) int {
	lambda := m.Rate * float64(w)
	var n int
	if m.Uniform {
		n = int(math.Round(lambda))
	} else {
		n = int(distuv.Poisson{Lambda: lambda, Src: rng}.Rand())
	}
	if n > w {
		n = w
	}
	return n
}

func (m RandomMutagenesis) Mutate(x alphabet.OneHot, window [2]int, rng *rand.Rand) alphabet.OneHot {
	out := x.Clone()
	w := window[1] - window[0]
	if w <= 0 {
		return out
	}
	n := m.NumMutations(w, rng)
	for _, off := range sample(w, n, rng) {
		pos := window[0] + off
		out.Set(pos, substitute(out.At(pos), out.Size, rng))
	}
	return out
}

// FillBackground assigns a uniformly random symbol to every background row of
// x inside window, in place. It returns the number of rows filled.
func FillBackground(x alphabet.OneHot, window [2]int, rng *rand.Rand) int {
	filled := 0
	for pos := window[0]; pos < window[1]; pos++ {
		if x.At(pos) < 0 {
			x.Set(pos, rng.IntN(x.Size))
			filled++
		}
	}
	return filled
}

// CheckWindow validates a [start, end) window against a sequence length.
func CheckWindow(window [2]int, length int) error {
	if window[0] < 0 || window[1] > length || window[0] >= window[1] {
		return fmt.Errorf("%w: [%d,%d) for length %d", ErrWindow, window[0], window[1], length)
	}
	return nil
}

// substitute picks a symbol different from cur; background rows get any symbol.
func substitute(cur, size int, rng *rand.Rand) int {
	if cur < 0 {
		return rng.IntN(size)
	}
	s := rng.IntN(size - 1)
	if s >= cur {
		s++
	}
	return s
}

// sample returns k distinct offsets from [0,n) (partial Fisher-Yates).
func sample(n, k int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
