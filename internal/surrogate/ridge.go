// internal/surrogate/ridge.go
package surrogate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Above this many features the normal equations are solved matrix-free.
const denseRidgeLimit = 512

const (
	cgMaxIter = 1000
	cgTol     = 1e-8
)

var errNotPositive = errors.New("normal equations not positive definite; raise --reg-strength")

// fitRidge minimises sum (y - theta0 - x.theta)^2 + lambda*|theta|^2 over
// the rows. Features are centred so theta0 is unpenalised.
func fitRidge(ctx context.Context, rows [][]int, y []float64, p int, lambda float64) (float64, []float64, error) {
	n := len(rows)
	if n == 0 {
		return 0, nil, fmt.Errorf("ridge: no training rows")
	}
	ybar := floats.Sum(y) / float64(n)
	mu := make([]float64, p)
	for _, r := range rows {
		for _, f := range r {
			mu[f]++
		}
	}
	floats.Scale(1/float64(n), mu)

	yc := make([]float64, n)
	for i := range y {
		yc[i] = y[i] - ybar
	}
	b := make([]float64, p)
	xtMul(rows, mu, yc, b)

	var theta []float64
	var err error
	if p <= denseRidgeLimit {
		theta, err = ridgeDense(rows, mu, b, lambda)
	} else {
		theta, err = ridgeCG(ctx, rows, mu, b, lambda)
	}
	if err != nil {
		return 0, nil, err
	}
	return ybar - floats.Dot(mu, theta), theta, nil
}

// ridgeDense forms (Xc'Xc + lambda I) and solves it by Cholesky.
func ridgeDense(rows [][]int, mu, b []float64, lambda float64) ([]float64, error) {
	p := len(mu)
	n := float64(len(rows))
	g := make([]float64, p*p)
	for _, r := range rows {
		for _, f := range r {
			for _, h := range r {
				g[f*p+h]++
			}
		}
	}
	for f := 0; f < p; f++ {
		for h := 0; h < p; h++ {
			g[f*p+h] -= n * mu[f] * mu[h]
		}
		g[f*p+f] += lambda
	}
	var ch mat.Cholesky
	if ok := ch.Factorize(mat.NewSymDense(p, g)); !ok {
		return nil, errNotPositive
	}
	var x mat.VecDense
	if err := ch.SolveVecTo(&x, mat.NewVecDense(p, b)); err != nil {
		return nil, fmt.Errorf("ridge: %w", err)
	}
	return mat.Col(nil, 0, &x), nil
}

// ridgeCG runs conjugate gradients on the same system without forming it.
func ridgeCG(ctx context.Context, rows [][]int, mu, b []float64, lambda float64) ([]float64, error) {
	p := len(mu)
	apply := func(v, out []float64) {
		u := make([]float64, len(rows))
		xMul(rows, mu, v, u)
		xtMul(rows, mu, u, out)
		floats.AddScaled(out, lambda, v)
	}

	x := make([]float64, p)
	r := append([]float64(nil), b...)
	d := append([]float64(nil), r...)
	ad := make([]float64, p)
	rr := floats.Dot(r, r)
	stop := cgTol * cgTol * math.Max(rr, 1e-300)
	for it := 0; it < cgMaxIter && rr > stop; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		apply(d, ad)
		dad := floats.Dot(d, ad)
		if dad <= 0 {
			return nil, errNotPositive
		}
		alpha := rr / dad
		floats.AddScaled(x, alpha, d)
		floats.AddScaled(r, -alpha, ad)
		next := floats.Dot(r, r)
		floats.Scale(next/rr, d)
		floats.Add(d, r)
		rr = next
	}
	return x, nil
}

// xMul sets out = Xc v, with Xc the column-centred design.
func xMul(rows [][]int, mu, v, out []float64) {
	shift := floats.Dot(mu, v)
	for i, r := range rows {
		s := 0.0
		for _, f := range r {
			s += v[f]
		}
		out[i] = s - shift
	}
}

// xtMul sets out = Xc' u.
func xtMul(rows [][]int, mu, u, out []float64) {
	for f := range out {
		out[f] = 0
	}
	for i, r := range rows {
		for _, f := range r {
			out[f] += u[i]
		}
	}
	floats.AddScaled(out, -floats.Sum(u), mu)
}
