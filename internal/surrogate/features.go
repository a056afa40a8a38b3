// internal/surrogate/features.go
package surrogate

import "mavekit/internal/mave"

// design is the sparse binary feature matrix of a library restricted to a
// window. Each row activates at most one additive feature per position and,
// for the neighbour map, one pairwise feature per adjacent position pair.
type design struct {
	n, w, a int
	pairs   bool
	sym     []int8 // n x w symbol index, -1 for background
}

func newDesign(ds *mave.Dataset, win [2]int, pairs bool) *design {
	w := win[1] - win[0]
	d := &design{n: ds.N, w: w, a: ds.A, pairs: pairs, sym: make([]int8, ds.N*w)}
	for i := 0; i < ds.N; i++ {
		x := ds.Seq(i)
		for l := 0; l < w; l++ {
			d.sym[i*w+l] = int8(x.At(win[0] + l))
		}
	}
	return d
}

func (d *design) numAdditive() int { return d.w * d.a }

func (d *design) numFeatures() int {
	p := d.numAdditive()
	if d.pairs && d.w > 1 {
		p += (d.w - 1) * d.a * d.a
	}
	return p
}

func (d *design) additiveIndex(l, s int) int { return l*d.a + s }

func (d *design) pairIndex(l, s, t int) int {
	return d.numAdditive() + l*d.a*d.a + s*d.a + t
}

// active appends the active feature indices of row i to buf.
func (d *design) active(i int, buf []int) []int {
	row := d.sym[i*d.w : (i+1)*d.w]
	for l, s := range row {
		if s >= 0 {
			buf = append(buf, d.additiveIndex(l, int(s)))
		}
	}
	if d.pairs {
		for l := 0; l+1 < len(row); l++ {
			if row[l] >= 0 && row[l+1] >= 0 {
				buf = append(buf, d.pairIndex(l, int(row[l]), int(row[l+1])))
			}
		}
	}
	return buf
}

// rowsFor returns the active features of each listed row, flattened.
func (d *design) rowsFor(idx []int) [][]int {
	out := make([][]int, len(idx))
	for k, i := range idx {
		out[k] = d.active(i, nil)
	}
	return out
}

// frequencies returns the per-position symbol frequencies over rows idx,
// ignoring background. Positions never observed get the uniform vector.
func (d *design) frequencies(idx []int) [][]float64 {
	f := make([][]float64, d.w)
	for l := range f {
		f[l] = make([]float64, d.a)
	}
	for _, i := range idx {
		for l, s := range d.sym[i*d.w : (i+1)*d.w] {
			if s >= 0 {
				f[l][s]++
			}
		}
	}
	for _, r := range f {
		tot := 0.0
		for _, v := range r {
			tot += v
		}
		for j := range r {
			if tot == 0 {
				r[j] = 1 / float64(d.a)
			} else {
				r[j] /= tot
			}
		}
	}
	return f
}

// wildType is row 0's symbol per window position (-1 for background).
func (d *design) wildType() []int {
	out := make([]int, d.w)
	for l := range out {
		out[l] = int(d.sym[l])
	}
	return out
}

// phi evaluates theta0 + theta . x for a row of active features.
func phi(theta0 float64, theta []float64, feats []int) float64 {
	s := theta0
	for _, f := range feats {
		s += theta[f]
	}
	return s
}
