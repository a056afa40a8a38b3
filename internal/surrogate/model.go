// internal/surrogate/model.go
package surrogate

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	log "github.com/sirupsen/logrus"

	"mavekit/internal/alphabet"
	"mavekit/internal/mave"
)

// Model is a fitted surrogate: phi(x) = theta0 + theta . features(x),
// followed by g(phi) when a GE curve was fitted.
type Model struct {
	Alphabet alphabet.Alphabet
	GPMap    GPMap
	Task     string
	TaskIdx  int
	SeqLen   int
	Window   [2]int
	Theta0   float64
	Theta    []float64
	GE       *Curve

	freq [][]float64
	wild []int
}

// Report summarises a training run. Metrics are computed on the test
// split, or on the training rows when no test split was held out.
type Report struct {
	N, Removed          int
	NTrain, NVal, NTest int
	Solver              Solver
	TrainLoss, ValLoss  []float64
	BestEpoch           int
	StoppedEpoch        int
	EarlyStopped        bool
	R2, Pearson         float64
	PhiR2               float64
}

// Metrics returns the report as a flat map for the run ledger.
func (r *Report) Metrics() map[string]float64 {
	m := map[string]float64{
		"n":       float64(r.N),
		"removed": float64(r.Removed),
		"n_train": float64(r.NTrain),
		"n_val":   float64(r.NVal),
		"n_test":  float64(r.NTest),
		"r2":      r.R2,
		"pearson": r.Pearson,
	}
	if r.StoppedEpoch > 0 {
		m["best_epoch"] = float64(r.BestEpoch)
		m["stopped_epoch"] = float64(r.StoppedEpoch)
	}
	return m
}

func (m *Model) width() int { return m.Window[1] - m.Window[0] }

// Train fits a surrogate to task taskIdx of ds.
func Train(ctx context.Context, ds *mave.Dataset, taskIdx int, o Options) (*Model, *Report, error) {
	if err := o.Validate(); err != nil {
		return nil, nil, err
	}
	o.GPMap, _ = ParseGPMap(string(o.GPMap))
	o.Regression, _ = ParseRegression(string(o.Regression))
	o.Solver, _ = ParseSolver(string(o.Solver))
	if err := ds.Validate(); err != nil {
		return nil, nil, err
	}
	if taskIdx < 0 || taskIdx >= ds.T {
		return nil, nil, fmt.Errorf("task index %d out of range [0,%d)", taskIdx, ds.T)
	}
	alpha, err := ds.Alphabet()
	if err != nil {
		return nil, nil, err
	}
	win := o.Window
	if win == [2]int{} {
		win = [2]int{0, ds.L}
	}
	if win[1] > ds.L {
		return nil, nil, fmt.Errorf("%w: window %v exceeds sequence length %d", ErrOptions, win, ds.L)
	}

	rep := &Report{Solver: o.Solver}
	if o.Deduplicate {
		ds, rep.Removed = Deduplicate(ds)
	}
	rep.N = ds.N
	if ds.N < 2 {
		return nil, nil, fmt.Errorf("need at least 2 distinct sequences, have %d", ds.N)
	}

	d := newDesign(ds, win, o.GPMap == Neighbor)
	p := d.numFeatures()
	y := make([]float64, ds.N)
	for i := range y {
		y[i] = float64(ds.Target(i, taskIdx))
	}

	rng := rand.New(rand.NewSource(o.Seed))
	trainIdx, valIdx, testIdx := split(ds.N, o.ValidationFraction, o.TestFraction, rng)
	rep.NTrain, rep.NVal, rep.NTest = len(trainIdx), len(valIdx), len(testIdx)
	if o.Solver == Ridge {
		// no epochs to monitor: validation rows join the training set
		trainIdx = append(trainIdx, valIdx...)
		rep.NTrain, rep.NVal, valIdx = len(trainIdx), 0, nil
	}
	trainRows, valRows, testRows := d.rowsFor(trainIdx), d.rowsFor(valIdx), d.rowsFor(testIdx)
	ytr, yval, yte := pick(y, trainIdx), pick(y, valIdx), pick(y, testIdx)

	m := &Model{
		Alphabet: alpha,
		GPMap:    o.GPMap,
		TaskIdx:  taskIdx,
		SeqLen:   ds.L,
		Window:   win,
		freq:     d.frequencies(trainIdx),
		wild:     d.wildType(),
	}
	if taskIdx < len(ds.Meta.Tasks) {
		m.Task = ds.Meta.Tasks[taskIdx]
	}

	entry := log.WithFields(log.Fields{
		"gpmap": o.GPMap, "solver": o.Solver, "regression": o.Regression,
		"features": p, "train": rep.NTrain, "val": rep.NVal, "test": rep.NTest,
	})
	entry.Info("training surrogate")

	switch o.Solver {
	case Ridge:
		m.Theta0, m.Theta, err = fitRidge(ctx, trainRows, ytr, p, o.RegStrength)
		if err != nil {
			return nil, nil, err
		}
	case Adam:
		fit, err := fitAdam(ctx, trainRows, valRows, ytr, yval, p, o, rng)
		if err != nil {
			return nil, nil, err
		}
		m.Theta0, m.Theta = fit.theta0, fit.theta
		rep.TrainLoss, rep.ValLoss = fit.trainLoss, fit.valLoss
		rep.BestEpoch, rep.StoppedEpoch, rep.EarlyStopped = fit.bestEpoch, fit.stopEpoch, fit.earlyStop
	}

	if o.Regression == GE {
		phis := make([]float64, len(trainRows))
		for i, r := range trainRows {
			phis[i] = phi(m.Theta0, m.Theta, r)
		}
		m.GE = fitIsotonic(phis, ytr)
	}

	evalRows, evalY := testRows, yte
	if len(evalRows) < 2 {
		evalRows, evalY = trainRows, ytr
	}
	pred := make([]float64, len(evalRows))
	lin := make([]float64, len(evalRows))
	for i, r := range evalRows {
		lin[i] = phi(m.Theta0, m.Theta, r)
		pred[i] = m.link(lin[i])
	}
	rep.R2, rep.Pearson = RSquared(pred, evalY), Pearson(pred, evalY)
	rep.PhiR2 = RSquared(lin, evalY)
	entry.WithFields(log.Fields{"r2": rep.R2, "pearson": rep.Pearson}).Info("surrogate trained")
	return m, rep, nil
}

func (m *Model) link(phi float64) float64 {
	if m.GE == nil {
		return phi
	}
	return m.GE.Eval(phi)
}

// Phi is the latent phenotype of x.
func (m *Model) Phi(x alphabet.OneHot) (float64, error) {
	if x.Len != m.SeqLen || x.Size != m.Alphabet.Size() {
		return 0, fmt.Errorf("%w: sequence is %dx%d, model expects %dx%d",
			mave.ErrShapeMismatch, x.Len, x.Size, m.SeqLen, m.Alphabet.Size())
	}
	w, a := m.width(), m.Alphabet.Size()
	s := m.Theta0
	prev := -1
	for l := 0; l < w; l++ {
		cur := x.At(m.Window[0] + l)
		if cur >= 0 {
			s += m.Theta[l*a+cur]
		}
		if m.GPMap == Neighbor && l > 0 && prev >= 0 && cur >= 0 {
			s += m.Theta[w*a+(l-1)*a*a+prev*a+cur]
		}
		prev = cur
	}
	return s, nil
}

// Predict is g(Phi(x)), or Phi(x) for a linear model.
func (m *Model) Predict(x alphabet.OneHot) (float64, error) {
	v, err := m.Phi(x)
	if err != nil {
		return 0, err
	}
	return m.link(v), nil
}

// split shuffles [0,n) into train, validation and test index sets.
func split(n int, valFrac, testFrac float64, rng *rand.Rand) (train, val, test []int) {
	perm := rng.Perm(n)
	nTest := int(math.Floor(testFrac * float64(n)))
	nVal := int(math.Floor(valFrac * float64(n)))
	if n-nTest-nVal < 1 {
		nTest, nVal = 0, 0
	}
	test = perm[:nTest]
	val = perm[nTest : nTest+nVal]
	train = perm[nTest+nVal:]
	return append([]int(nil), train...), val, test
}

func pick(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}
