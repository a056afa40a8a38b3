// internal/surrogate/metrics.go
package surrogate

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RSquared is the coefficient of determination of pred against obs.
func RSquared(pred, obs []float64) float64 {
	if len(obs) < 2 {
		return math.NaN()
	}
	return stat.RSquaredFrom(pred, obs, nil)
}

// Pearson is the correlation between pred and obs (NaN when either is
// constant).
func Pearson(pred, obs []float64) float64 {
	if len(obs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(pred, obs, nil)
}
