// internal/zoo/zoo_test.go
package zoo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavekit/internal/alphabet"
	"mavekit/internal/predictor"
)

const catalogYAML = `
models:
  - name: remote-bpnet
    kind: http
    url: http://localhost:9999
    model: bpnet
    reduction: profile
    timeout: 5s
    tasks:
      - name: Nanog
      - name: Sox2
  - name: tiny
    kind: pwm
    tasks:
      - name: TATA
        consensus: TATAWAW
`

func TestBuiltinGet(t *testing.T) {
	c := Builtin()
	p, err := c.Get(DefaultModel, "Nanog")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nanog"}, p.Tasks())

	x := alphabet.DNA.Encode("TTAGCCATCAATT")
	ys, err := p.PredictBatch(context.Background(), []alphabet.OneHot{x})
	require.NoError(t, err)
	assert.Greater(t, ys[0][0], float32(10))

	all, err := c.Get(DefaultModel, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Oct4", "Sox2", "Klf4", "Nanog"}, all.Tasks())
}

func TestUnknownModelAndTask(t *testing.T) {
	c := Builtin()
	_, err := c.Get("BPNet-OSKN", "")
	assert.True(t, errors.Is(err, ErrUnknownModel))
	assert.Contains(t, err.Error(), DefaultModel)

	_, err = c.Get(DefaultModel, "Gata1")
	assert.True(t, errors.Is(err, predictor.ErrUnknownTask))
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultModel, "remote-bpnet", "tiny"}, c.Names())

	remote, err := c.Get("remote-bpnet", "")
	require.NoError(t, err)
	_, isHTTP := remote.(*predictor.HTTPClient)
	assert.True(t, isHTTP)
	assert.Equal(t, []string{"Nanog", "Sox2"}, remote.Tasks())

	tiny, err := c.Get("tiny", "TATA")
	require.NoError(t, err)
	assert.Equal(t, []string{"TATA"}, tiny.Tasks())
}

func TestCatalogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Builtin().WriteFile(path))
	c, err := Load(path)
	require.NoError(t, err)
	e, err := c.Entry(DefaultModel)
	require.NoError(t, err)
	assert.Len(t, e.Tasks, 4)
	assert.Equal(t, "AGCCATCAA", e.Tasks[3].Consensus)
}

func TestOpenErrors(t *testing.T) {
	_, err := Entry{Name: "x", Kind: "onnx", Tasks: []Task{{Name: "a"}}}.Open()
	assert.Error(t, err)
	_, err = Entry{Name: "x", Kind: KindPWM}.Open()
	assert.Error(t, err)
	_, err = Entry{Name: "x", Kind: KindHTTP, URL: "http://h", Timeout: "soon", Tasks: []Task{{Name: "a"}}}.Open()
	assert.Error(t, err)
}
