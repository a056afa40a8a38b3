// internal/surrogate/gauge.go
package surrogate

import (
	"fmt"
	"strings"
)

// Gauge fixes the redundant degrees of freedom of a one-hot model. Every
// gauge leaves predictions on fully specified sequences unchanged.
type Gauge string

const (
	GaugeEmpirical Gauge = "empirical" // centred on observed symbol frequencies
	GaugeUniform   Gauge = "uniform"   // centred on the per-position mean
	GaugeWildType  Gauge = "wildtype"  // wild-type symbol set to zero
	GaugeNone      Gauge = "none"
)

func ParseGauge(s string) (Gauge, error) {
	switch g := Gauge(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GaugeEmpirical, nil
	case GaugeEmpirical, GaugeUniform, GaugeWildType, GaugeNone:
		return g, nil
	case "wild_type", "wt":
		return GaugeWildType, nil
	case "raw":
		return GaugeNone, nil
	}
	return "", fmt.Errorf("%w: unknown gauge %q (want empirical|uniform|wildtype|none)", ErrOptions, s)
}

// weights returns the probability vector per window position that the
// gauge centres on, or nil for GaugeNone.
func (m *Model) weights(g Gauge) [][]float64 {
	a := m.Alphabet.Size()
	w := make([][]float64, m.width())
	for l := range w {
		w[l] = make([]float64, a)
		switch g {
		case GaugeEmpirical:
			copy(w[l], m.freq[l])
		case GaugeWildType:
			if s := m.wild[l]; s >= 0 {
				w[l][s] = 1
				break
			}
			fallthrough
		default:
			for j := range w[l] {
				w[l][j] = 1 / float64(a)
			}
		}
	}
	return w
}

// fixGauge rewrites (theta0, additive, pairwise) in place so every
// pairwise block has zero weighted row and column means and every
// additive row a zero weighted mean. The removed means move down to the
// additive terms and the constant.
func fixGauge(theta0 *float64, add [][]float64, pair [][][]float64, w [][]float64) {
	for l, blk := range pair {
		p, q := w[l], w[l+1]
		a := len(p)
		row := make([]float64, a)
		col := make([]float64, a)
		mean := 0.0
		for s := 0; s < a; s++ {
			for t := 0; t < a; t++ {
				row[s] += q[t] * blk[s][t]
				col[t] += p[s] * blk[s][t]
				mean += p[s] * q[t] * blk[s][t]
			}
		}
		for s := 0; s < a; s++ {
			for t := 0; t < a; t++ {
				blk[s][t] -= row[s] + col[t] - mean
			}
			add[l][s] += row[s] - mean
			add[l+1][s] += col[s] - mean
		}
		*theta0 += mean
	}
	for l, r := range add {
		mean := 0.0
		for j, v := range r {
			mean += w[l][j] * v
		}
		for j := range r {
			r[j] -= mean
		}
		*theta0 += mean
	}
}
