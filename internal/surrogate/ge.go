// internal/surrogate/ge.go
package surrogate

import (
	"sort"

	"mavekit/pkg/api"
)

// Curve is a monotone non-decreasing piecewise-linear map y = g(phi),
// constant beyond its end knots.
type Curve struct {
	Phi []float64
	Y   []float64
}

// fitIsotonic fits g by pool-adjacent-violators on (phi, y) pairs. Knots
// sit at the mean phi of each pooled block.
func fitIsotonic(phi, y []float64) *Curve {
	idx := make([]int, len(phi))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return phi[idx[a]] < phi[idx[b]] })

	type block struct{ sumX, sumY, n float64 }
	var st []block
	for _, i := range idx {
		st = append(st, block{phi[i], y[i], 1})
		for len(st) > 1 {
			a, b := st[len(st)-2], st[len(st)-1]
			if a.sumY/a.n <= b.sumY/b.n {
				break
			}
			st = st[:len(st)-2]
			st = append(st, block{a.sumX + b.sumX, a.sumY + b.sumY, a.n + b.n})
		}
	}
	c := &Curve{Phi: make([]float64, 0, len(st)), Y: make([]float64, 0, len(st))}
	for _, b := range st {
		x, v := b.sumX/b.n, b.sumY/b.n
		if k := len(c.Phi); k > 0 && x == c.Phi[k-1] {
			c.Y[k-1] = v
			continue
		}
		c.Phi = append(c.Phi, x)
		c.Y = append(c.Y, v)
	}
	return c
}

// Eval interpolates g at x.
func (c *Curve) Eval(x float64) float64 {
	n := len(c.Phi)
	switch {
	case n == 0:
		return x
	case x <= c.Phi[0]:
		return c.Y[0]
	case x >= c.Phi[n-1]:
		return c.Y[n-1]
	}
	k := sort.SearchFloat64s(c.Phi, x)
	x0, x1 := c.Phi[k-1], c.Phi[k]
	y0, y1 := c.Y[k-1], c.Y[k]
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

func (c *Curve) toAPI() *api.CurveV1 {
	if c == nil {
		return nil
	}
	return &api.CurveV1{Phi: append([]float64(nil), c.Phi...), Y: append([]float64(nil), c.Y...)}
}
