// internal/predictor/reduction.go
package predictor

import (
	"fmt"
	"math"
)

// Reduction turns a per-position output track into one scalar.
type Reduction string

const (
	ReduceSum    Reduction = "sum"
	ReduceMax    Reduction = "max"
	ReduceMean   Reduction = "mean"
	ReduceCenter Reduction = "center"
	// ReduceProfile is the profile contribution sum(softmax(track) * track)
	// used for BPNet-style count-normalised profiles.
	ReduceProfile Reduction = "profile"
)

func ParseReduction(s string) (Reduction, error) {
	switch r := Reduction(s); r {
	case ReduceSum, ReduceMax, ReduceMean, ReduceCenter, ReduceProfile:
		return r, nil
	case "":
		return ReduceMax, nil
	}
	return "", fmt.Errorf("unknown reduction %q (want sum|max|mean|center|profile)", s)
}

// Apply reduces track. An empty track reduces to 0.
func (r Reduction) Apply(track []float32) float32 {
	if len(track) == 0 {
		return 0
	}
	switch r {
	case ReduceSum:
		var s float64
		for _, v := range track {
			s += float64(v)
		}
		return float32(s)
	case ReduceMean:
		var s float64
		for _, v := range track {
			s += float64(v)
		}
		return float32(s / float64(len(track)))
	case ReduceCenter:
		return track[len(track)/2]
	case ReduceProfile:
		return profileContribution(track)
	default:
		m := track[0]
		for _, v := range track[1:] {
			if v > m {
				m = v
			}
		}
		return m
	}
}

func profileContribution(track []float32) float32 {
	hi := float64(track[0])
	for _, v := range track[1:] {
		hi = math.Max(hi, float64(v))
	}
	var z, s float64
	for _, v := range track {
		e := math.Exp(float64(v) - hi)
		z += e
		s += e * float64(v)
	}
	return float32(s / z)
}
