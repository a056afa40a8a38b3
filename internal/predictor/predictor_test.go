// internal/predictor/predictor_test.go
package predictor

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavekit/internal/alphabet"
)

func nanogPWM(t *testing.T, reduce Reduction) *PWM {
	t.Helper()
	nanog, err := NewMotif(alphabet.DNA, "Nanog", "AGCCATCAA")
	require.NoError(t, err)
	sox2, err := NewMotif(alphabet.DNA, "Sox2", "ACAAAGG")
	require.NoError(t, err)
	p, err := NewPWM(alphabet.DNA, []Motif{nanog, sox2}, reduce)
	require.NoError(t, err)
	return p
}

func TestReductions(t *testing.T) {
	tr := []float32{1, 3, 2}
	assert.Equal(t, float32(6), ReduceSum.Apply(tr))
	assert.Equal(t, float32(3), ReduceMax.Apply(tr))
	assert.Equal(t, float32(2), ReduceMean.Apply(tr))
	assert.Equal(t, float32(3), ReduceCenter.Apply(tr))
	assert.Equal(t, float32(0), ReduceMax.Apply(nil))

	// softmax-weighted mean sits between the mean and the max
	p := ReduceProfile.Apply(tr)
	assert.Greater(t, p, float32(2))
	assert.Less(t, p, float32(3))

	flat := ReduceProfile.Apply([]float32{5, 5, 5, 5})
	assert.InDelta(t, 5, flat, 1e-6)

	_, err := ParseReduction("median")
	assert.Error(t, err)
	r, err := ParseReduction("")
	require.NoError(t, err)
	assert.Equal(t, ReduceMax, r)
}

func TestMotifWeights(t *testing.T) {
	m, err := NewMotif(alphabet.DNA, "x", "AN")
	require.NoError(t, err)
	assert.InDelta(t, math.Log2(0.85/0.25), m.Weights[0][0], 1e-9)
	assert.InDelta(t, math.Log2(0.05/0.25), m.Weights[0][1], 1e-9)
	assert.Equal(t, []float64{0, 0, 0, 0}, m.Weights[1])

	rc := m.revComp(alphabet.DNA)
	assert.Equal(t, "NT", rc.Consensus)
	assert.InDelta(t, m.Weights[0][0], rc.Weights[1][3], 1e-12)
}

func TestPWMPrefersConsensus(t *testing.T) {
	p := nanogPWM(t, ReduceMax)
	ctx := context.Background()

	site := alphabet.DNA.Encode("TTTTTAGCCATCAATTTTT")
	scrambled := alphabet.DNA.Encode("TTTTTACGATCCAGTTTTT")
	revSite := alphabet.DNA.Encode("TTTTT" + alphabet.RevComp("AGCCATCAA") + "TTTTT")

	ys, err := p.PredictBatch(ctx, []alphabet.OneHot{site, scrambled, revSite})
	require.NoError(t, err)
	require.Len(t, ys, 3)
	require.Len(t, ys[0], 2)

	assert.Greater(t, ys[0][0], ys[1][0], "consensus should outscore scrambled site")
	assert.InDelta(t, ys[0][0], ys[2][0], 1e-5, "both strands scored")
	assert.InDelta(t, 9*math.Log2(0.85/0.25), ys[0][0], 1e-4)
	assert.Equal(t, []string{"Nanog", "Sox2"}, p.Tasks())
}

func TestPWMBackgroundRows(t *testing.T) {
	p := nanogPWM(t, ReduceMax)
	x := alphabet.DNA.Encode("NNNNNNNNNNNN")
	ys, err := p.PredictBatch(context.Background(), []alphabet.OneHot{x})
	require.NoError(t, err)
	// expected score of an all-background window is the sum of column means
	want := 0.0
	for _, row := range p.motifs[0].Weights {
		for _, v := range row {
			want += v / 4
		}
	}
	assert.InDelta(t, want, ys[0][0], 1e-4)
}

func TestPWMRejectsWrongAlphabet(t *testing.T) {
	p := nanogPWM(t, ReduceMax)
	_, err := p.PredictBatch(context.Background(), []alphabet.OneHot{alphabet.NewOneHot(10, 5)})
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	p := nanogPWM(t, ReduceMax)
	s, err := Select(p, "sox2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sox2"}, s.Tasks())

	x := alphabet.DNA.Encode("GGACAAAGGTT")
	full, err := p.PredictBatch(context.Background(), []alphabet.OneHot{x})
	require.NoError(t, err)
	one, err := s.PredictBatch(context.Background(), []alphabet.OneHot{x})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{full[0][1]}}, one)

	_, err = Select(p, "Klf4")
	assert.True(t, errors.Is(err, ErrUnknownTask))

	same, err := Select(p, "")
	require.NoError(t, err)
	assert.Equal(t, p.Tasks(), same.Tasks())
}
