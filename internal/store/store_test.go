// internal/store/store_test.go
package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", FileName))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBeginFinishGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	run, err := s.Begin(ctx, "generate", map[string]any{"num_sim": 100, "model": "pwm"})
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Len(t, run.ID, 36)

	err = s.Finish(ctx, run.ID,
		map[string]string{"x": "x_mut.npy"},
		map[string]float64{"r2": 0.5, "bad": math.NaN()}, nil)
	require.NoError(t, err)

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, got.Status)
	assert.Equal(t, "generate", got.Step)
	assert.Equal(t, "x_mut.npy", got.Artifacts["x"])
	assert.Equal(t, map[string]float64{"r2": 0.5}, got.Metrics)
	assert.Equal(t, float64(100), got.Params["num_sim"]) // JSON numbers
	require.NotNil(t, got.FinishedAt)
	assert.False(t, got.FinishedAt.Before(got.StartedAt))

	byPrefix, err := s.Get(ctx, run.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, run.ID, byPrefix.ID)
}

func TestFinishFailed(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	run, err := s.Begin(ctx, "fit", nil)
	require.NoError(t, err)
	require.NoError(t, s.Finish(ctx, run.ID, nil, nil, errors.New("boom")))

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
	assert.Nil(t, got.Params)
}

func TestUnknownRun(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, err := s.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Finish(ctx, "does-not-exist", nil, nil, nil), ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	var ids []string
	for _, step := range []string{"generate", "fit", "run"} {
		r, err := s.Begin(ctx, step, nil)
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Begin(context.Background(), "generate", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
