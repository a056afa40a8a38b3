// internal/surrogate/params.go
package surrogate

import (
	"fmt"

	"mavekit/internal/logo"
	"mavekit/pkg/api"
)

// Params are a model's parameters in one gauge. Additive rows cover the
// model window (Additive.Start is the window start); Pairwise[l][s][t]
// couples symbol s at window position l with t at l+1.
type Params struct {
	Gauge    Gauge
	Theta0   float64
	Additive logo.Matrix
	Pairwise [][][]float64
}

// Params extracts the parameters in gauge g.
func (m *Model) Params(g Gauge) (*Params, error) {
	g, err := ParseGauge(string(g))
	if err != nil {
		return nil, err
	}
	w, a := m.width(), m.Alphabet.Size()
	add := logo.New(m.Alphabet, w)
	add.Start = m.Window[0]
	for l := 0; l < w; l++ {
		copy(add.Rows[l], m.Theta[l*a:(l+1)*a])
	}
	var pair [][][]float64
	if m.GPMap == Neighbor && w > 1 {
		pair = make([][][]float64, w-1)
		off := w * a
		for l := range pair {
			pair[l] = make([][]float64, a)
			for s := range pair[l] {
				base := off + l*a*a + s*a
				pair[l][s] = append([]float64(nil), m.Theta[base:base+a]...)
			}
		}
	}
	p := &Params{Gauge: g, Theta0: m.Theta0, Additive: add, Pairwise: pair}
	if g != GaugeNone {
		fixGauge(&p.Theta0, add.Rows, pair, m.weights(g))
	}
	return p, nil
}

// Logo embeds the additive parameters for positions [view[0], view[1]) in
// a fullLength x A matrix starting at position 0; all other rows are zero.
// The zero view uses the model window.
func (p *Params) Logo(view [2]int, fullLength int) (logo.Matrix, error) {
	if view == [2]int{} {
		view = [2]int{p.Additive.Start, p.Additive.End()}
	}
	if fullLength < view[1] {
		return logo.Matrix{}, fmt.Errorf("full length %d shorter than view end %d", fullLength, view[1])
	}
	src, err := p.Additive.View(view)
	if err != nil {
		return logo.Matrix{}, err
	}
	out := logo.New(p.Additive.Alphabet, fullLength)
	for i, r := range src.Rows {
		copy(out.Rows[view[0]+i], r)
	}
	return out, nil
}

// ToAPI converts p to its wire form.
func (p *Params) ToAPI(m *Model) api.ParamsV1 {
	out := api.ParamsV1{
		GPMap:     string(m.GPMap),
		Gauge:     string(p.Gauge),
		Task:      m.Task,
		Alphabet:  m.Alphabet.Labels(),
		Window:    m.Window,
		Theta0:    p.Theta0,
		ThetaLC:   p.Additive.Clone().Rows,
		ThetaLCLC: p.Pairwise,
		GE:        m.GE.toAPI(),
	}
	return out
}
