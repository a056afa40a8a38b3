// internal/predictor/pwm.go
package predictor

import (
	"context"
	"fmt"
	"math"

	"mavekit/internal/alphabet"
)

// Probability mass given to the consensus base(s) of a motif position.
const consensusMass = 0.85

// Motif is a position weight matrix in log2-odds against a uniform
// background: Weights[i][j] scores alphabet symbol j at motif position i.
type Motif struct {
	Name      string
	Consensus string
	Weights   [][]float64
}

// NewMotif derives log-odds weights from an IUPAC consensus.
func NewMotif(alpha alphabet.Alphabet, name, consensus string) (Motif, error) {
	cons, err := alphabet.Validate(consensus)
	if err != nil {
		return Motif{}, fmt.Errorf("motif %s: %w", name, err)
	}
	a := alpha.Size()
	bg := 1 / float64(a)
	w := make([][]float64, len(cons))
	for i := 0; i < len(cons); i++ {
		allowed := make([]bool, a)
		k := 0
		for _, b := range []byte(alphabet.Expand(cons[i])) {
			if j := alpha.Index(b); j >= 0 {
				allowed[j] = true
				k++
			}
		}
		row := make([]float64, a)
		if k == 0 || k == a {
			w[i] = row
			continue
		}
		in, out := consensusMass/float64(k), (1-consensusMass)/float64(a-k)
		for j := range row {
			p := out
			if allowed[j] {
				p = in
			}
			row[j] = math.Log2(p / bg)
		}
		w[i] = row
	}
	return Motif{Name: name, Consensus: cons, Weights: w}, nil
}

// Width is the motif length.
func (m Motif) Width() int { return len(m.Weights) }

// revComp mirrors the matrix onto the opposite strand.
func (m Motif) revComp(alpha alphabet.Alphabet) Motif {
	a := alpha.Size()
	perm := make([]int, a)
	for j := 0; j < a; j++ {
		perm[j] = j
		if c := alpha.Index(alphabet.Complement(alpha.Symbol(j))); c >= 0 {
			perm[j] = c
		}
	}
	w := make([][]float64, len(m.Weights))
	for i, row := range m.Weights {
		out := make([]float64, a)
		for j := range row {
			out[perm[j]] = row[j]
		}
		w[len(w)-1-i] = out
	}
	return Motif{Name: m.Name, Consensus: alphabet.RevComp(m.Consensus), Weights: w}
}

// PWM is a deterministic stand-in for a profile model: for every task it
// scans one motif over both strands and emits the best per-offset score as
// the output track. It is immutable and safe for concurrent use.
type PWM struct {
	alpha  alphabet.Alphabet
	motifs []Motif
	rc     []Motif
	means  [][]float64 // per motif position, expected score of a background row
	rcMean [][]float64
	reduce Reduction
}

func NewPWM(alpha alphabet.Alphabet, motifs []Motif, reduce Reduction) (*PWM, error) {
	if len(motifs) == 0 {
		return nil, fmt.Errorf("pwm: no motifs")
	}
	p := &PWM{alpha: alpha, motifs: motifs, reduce: reduce}
	for _, m := range motifs {
		if m.Width() == 0 {
			return nil, fmt.Errorf("pwm: motif %s is empty", m.Name)
		}
		p.rc = append(p.rc, m.revComp(alpha))
		mean := make([]float64, m.Width())
		for i, row := range m.Weights {
			for _, v := range row {
				mean[i] += v
			}
			mean[i] /= float64(len(row))
		}
		p.means = append(p.means, mean)
		p.rcMean = append(p.rcMean, reversed(mean))
	}
	return p, nil
}

func (p *PWM) Tasks() []string {
	out := make([]string, len(p.motifs))
	for i, m := range p.motifs {
		out[i] = m.Name
	}
	return out
}

// Motifs returns the per-task motifs.
func (p *PWM) Motifs() []Motif { return append([]Motif(nil), p.motifs...) }

func (p *PWM) PredictTracks(ctx context.Context, batch []alphabet.OneHot) ([][][]float32, error) {
	out := make([][][]float32, len(batch))
	for b, x := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if x.Size != p.alpha.Size() {
			return nil, fmt.Errorf("pwm: input has %d symbols per position, model expects %d", x.Size, p.alpha.Size())
		}
		tracks := make([][]float32, len(p.motifs))
		for t := range p.motifs {
			tracks[t] = p.track(x, t)
		}
		out[b] = tracks
	}
	return out, nil
}

func (p *PWM) PredictBatch(ctx context.Context, batch []alphabet.OneHot) ([][]float32, error) {
	tracks, err := p.PredictTracks(ctx, batch)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(tracks))
	for b, per := range tracks {
		row := make([]float32, len(per))
		for t, tr := range per {
			row[t] = p.reduce.Apply(tr)
		}
		out[b] = row
	}
	return out, nil
}

func (p *PWM) track(x alphabet.OneHot, t int) []float32 {
	w := p.motifs[t].Width()
	n := x.Len - w + 1
	if n <= 0 {
		return nil
	}
	syms := make([]int, x.Len)
	for i := range syms {
		syms[i] = x.At(i)
	}
	tr := make([]float32, n)
	for off := 0; off < n; off++ {
		f := score(p.motifs[t], p.means[t], syms[off:off+w])
		r := score(p.rc[t], p.rcMean[t], syms[off:off+w])
		tr[off] = float32(math.Max(f, r))
	}
	return tr
}

func score(m Motif, mean []float64, syms []int) float64 {
	s := 0.0
	for i, j := range syms {
		if j < 0 {
			s += mean[i]
			continue
		}
		s += m.Weights[i][j]
	}
	return s
}

func reversed(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[len(v)-1-i] = v[i]
	}
	return out
}
