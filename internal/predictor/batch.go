// internal/predictor/batch.go
package predictor

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"mavekit/internal/alphabet"
)

// DefaultBatchSize matches the batch size used for profile models.
const DefaultBatchSize = 512

// BatchRunner scores an arbitrarily large input by splitting it into
// batches and running up to Threads batches concurrently.
type BatchRunner struct {
	Predictor Predictor
	BatchSize int // <=0 means DefaultBatchSize
	Threads   int // <=0 means runtime.NumCPU()

	// OnProgress, if set, is called after every finished batch with the
	// number of scored sequences so far. Calls are serialized.
	OnProgress func(done, total int)
}

// Predict returns one row per input, in input order. The first error
// cancels every batch still in flight.
func (r BatchRunner) Predict(ctx context.Context, xs []alphabet.OneHot) ([][]float32, error) {
	bs := r.BatchSize
	if bs <= 0 {
		bs = DefaultBatchSize
	}
	thr := r.Threads
	if thr <= 0 {
		thr = runtime.NumCPU()
	}

	out := make([][]float32, len(xs))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(thr)
	for lo := 0; lo < len(xs); lo += bs {
		if gctx.Err() != nil {
			break
		}
		hi := min(lo+bs, len(xs))
		g.Go(func() error {
			ys, err := r.Predictor.PredictBatch(gctx, xs[lo:hi])
			if err != nil {
				return fmt.Errorf("batch [%d,%d): %w", lo, hi, err)
			}
			if len(ys) != hi-lo {
				return fmt.Errorf("batch [%d,%d): predictor returned %d rows", lo, hi, len(ys))
			}
			copy(out[lo:hi], ys)
			if r.OnProgress != nil {
				mu.Lock()
				done += hi - lo
				r.OnProgress(done, len(xs))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
