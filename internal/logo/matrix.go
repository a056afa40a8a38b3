// internal/logo/matrix.go

// Package logo holds the sequence-logo matrix (per-position, per-symbol
// effects) and renders it as a table, a figure, or a terminal view.
package logo

import (
	"fmt"

	"mavekit/internal/alphabet"
)

// Matrix is an L x A table of effects. Rows[i] belongs to sequence position
// Start+i; column j to Alphabet.Symbol(j).
type Matrix struct {
	Alphabet alphabet.Alphabet
	Start    int
	Rows     [][]float64
}

// New returns an all-zero matrix of length rows starting at position 0.
func New(alpha alphabet.Alphabet, length int) Matrix {
	rows := make([][]float64, length)
	for i := range rows {
		rows[i] = make([]float64, alpha.Size())
	}
	return Matrix{Alphabet: alpha, Rows: rows}
}

func (m Matrix) Len() int { return len(m.Rows) }

// End is one past the last position.
func (m Matrix) End() int { return m.Start + len(m.Rows) }

func (m Matrix) Clone() Matrix {
	rows := make([][]float64, len(m.Rows))
	for i, r := range m.Rows {
		rows[i] = append([]float64(nil), r...)
	}
	return Matrix{Alphabet: m.Alphabet, Start: m.Start, Rows: rows}
}

// Center returns a copy with every row shifted to zero mean.
func (m Matrix) Center() Matrix {
	out := m.Clone()
	for _, r := range out.Rows {
		if len(r) == 0 {
			continue
		}
		mean := 0.0
		for _, v := range r {
			mean += v
		}
		mean /= float64(len(r))
		for j := range r {
			r[j] -= mean
		}
	}
	return out
}

// View returns the rows covering sequence positions [w[0], w[1]). The zero
// window returns m unchanged.
func (m Matrix) View(w [2]int) (Matrix, error) {
	if w == [2]int{} {
		return m, nil
	}
	if w[0] < m.Start || w[1] > m.End() || w[0] >= w[1] {
		return Matrix{}, fmt.Errorf("view window [%d,%d) outside logo [%d,%d)", w[0], w[1], m.Start, m.End())
	}
	return Matrix{Alphabet: m.Alphabet, Start: w[0], Rows: m.Rows[w[0]-m.Start : w[1]-m.Start]}, nil
}

// MaxAbs is the largest absolute entry.
func (m Matrix) MaxAbs() float64 {
	hi := 0.0
	for _, r := range m.Rows {
		for _, v := range r {
			if v < 0 {
				v = -v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return hi
}
