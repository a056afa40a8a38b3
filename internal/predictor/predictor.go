// internal/predictor/predictor.go
package predictor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mavekit/internal/alphabet"
)

// ErrUnknownTask is returned when a task name is not produced by a model.
var ErrUnknownTask = errors.New("predictor: unknown task")

// Predictor scores a batch of sequences. The result has one row per input
// and one column per entry of Tasks().
type Predictor interface {
	Tasks() []string
	PredictBatch(ctx context.Context, batch []alphabet.OneHot) ([][]float32, error)
}

// TrackPredictor is implemented by models that can return the unreduced
// per-position output for every task: tracks[b][t] is the track of input b
// for task t.
type TrackPredictor interface {
	Predictor
	PredictTracks(ctx context.Context, batch []alphabet.OneHot) ([][][]float32, error)
}

// Select narrows p to a single task. An empty task returns p unchanged.
func Select(p Predictor, task string) (Predictor, error) {
	if task == "" {
		return p, nil
	}
	tasks := p.Tasks()
	for i, t := range tasks {
		if strings.EqualFold(t, task) {
			return selected{inner: p, col: i, name: t}, nil
		}
	}
	return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownTask, task, strings.Join(tasks, ", "))
}

type selected struct {
	inner Predictor
	col   int
	name  string
}

func (s selected) Tasks() []string { return []string{s.name} }

func (s selected) PredictBatch(ctx context.Context, batch []alphabet.OneHot) ([][]float32, error) {
	ys, err := s.inner.PredictBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(ys))
	for i, row := range ys {
		if s.col >= len(row) {
			return nil, fmt.Errorf("predictor returned %d columns, need task %d", len(row), s.col)
		}
		out[i] = []float32{row[s.col]}
	}
	return out, nil
}
