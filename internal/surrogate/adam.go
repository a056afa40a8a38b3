// internal/surrogate/adam.go
package surrogate

import (
	"context"
	"math"
	"math/rand"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-7
)

// adamFit is the outcome of fitAdam.
type adamFit struct {
	theta0    float64
	theta     []float64
	trainLoss []float64
	valLoss   []float64
	bestEpoch int
	stopEpoch int
	earlyStop bool
}

// fitAdam trains theta by mini-batch Adam on standardised targets, with
// optional early stopping on the validation loss. The returned parameters
// are on the unstandardised scale of y.
func fitAdam(ctx context.Context, train, val [][]int, ytr, yval []float64, p int, o Options, rng *rand.Rand) (*adamFit, error) {
	mean, std := stat.MeanStdDev(ytr, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	zs := func(y []float64) []float64 {
		out := make([]float64, len(y))
		for i, v := range y {
			out[i] = (v - mean) / std
		}
		return out
	}
	ztr, zval := zs(ytr), zs(yval)

	// theta[p] is the intercept.
	theta := make([]float64, p+1)
	m := make([]float64, p+1)
	v := make([]float64, p+1)
	grad := make([]float64, p+1)
	best := append([]float64(nil), theta...)
	bestLoss := math.Inf(1)
	penalty := o.RegStrength / float64(len(train))
	useVal := len(val) > 0 && o.EarlyStopping

	fit := &adamFit{}
	order := make([]int, len(train))
	for i := range order {
		order[i] = i
	}
	step := 0
	wait := 0
	for epoch := 1; epoch <= o.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for lo := 0; lo < len(order); lo += o.BatchSize {
			hi := min(lo+o.BatchSize, len(order))
			for k := range grad {
				grad[k] = 0
			}
			scale := 2 / float64(hi-lo)
			for _, i := range order[lo:hi] {
				r := phi(theta[p], theta[:p], train[i]) - ztr[i]
				grad[p] += scale * r
				for _, f := range train[i] {
					grad[f] += scale * r
				}
			}
			step++
			c1 := 1 - math.Pow(adamBeta1, float64(step))
			c2 := 1 - math.Pow(adamBeta2, float64(step))
			for k := range theta {
				g := grad[k]
				if k < p {
					g += 2 * penalty * theta[k]
				}
				m[k] = adamBeta1*m[k] + (1-adamBeta1)*g
				v[k] = adamBeta2*v[k] + (1-adamBeta2)*g*g
				theta[k] -= o.LearningRate * (m[k] / c1) / (math.Sqrt(v[k]/c2) + adamEps)
			}
		}

		tl := mse(theta, p, train, ztr)
		vl := math.NaN()
		if len(val) > 0 {
			vl = mse(theta, p, val, zval)
		}
		fit.trainLoss = append(fit.trainLoss, tl)
		fit.valLoss = append(fit.valLoss, vl)
		fit.stopEpoch = epoch
		if o.OnEpoch != nil {
			o.OnEpoch(epoch, tl, vl)
		}
		if epoch%25 == 0 {
			log.WithFields(log.Fields{"epoch": epoch, "loss": tl, "val_loss": vl}).Debug("surrogate epoch")
		}

		monitor := tl
		if useVal {
			monitor = vl
		}
		if monitor < bestLoss {
			bestLoss = monitor
			fit.bestEpoch = epoch
			copy(best, theta)
			wait = 0
		} else if useVal {
			wait++
			if wait >= o.Patience {
				fit.earlyStop = true
				break
			}
		}
	}
	if o.RestoreBest && fit.bestEpoch > 0 {
		copy(theta, best)
	}

	fit.theta = make([]float64, p)
	for k := 0; k < p; k++ {
		fit.theta[k] = theta[k] * std
	}
	fit.theta0 = theta[p]*std + mean
	return fit, nil
}

func mse(theta []float64, p int, rows [][]int, y []float64) float64 {
	if len(rows) == 0 {
		return math.NaN()
	}
	s := 0.0
	for i, r := range rows {
		d := phi(theta[p], theta[:p], r) - y[i]
		s += d * d
	}
	return s / float64(len(rows))
}
