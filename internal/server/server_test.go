// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavekit/internal/alphabet"
	"mavekit/internal/predictor"
	"mavekit/internal/zoo"
	"mavekit/pkg/api"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(zoo.Builtin(), Options{MaxBatch: 8}).Router()
}

func TestHealthz(t *testing.T) {
	r := setupRouter()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestRequestIDAssigned(t *testing.T) {
	r := setupRouter()
	req, _ := http.NewRequest("GET", "/v2/models", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	var resp map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["models"], zoo.DefaultModel)
}

func TestModelMetadata(t *testing.T) {
	r := setupRouter()
	req, _ := http.NewRequest("GET", "/v2/models/"+zoo.DefaultModel, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var md api.ModelMetadataV1
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &md))
	assert.Len(t, md.Outputs, 4)
	assert.Equal(t, []int{-1, -1, 4}, md.Inputs[0].Shape)
}

func TestUnknownModel(t *testing.T) {
	r := setupRouter()
	for _, path := range []string{"/v2/models/nope", "/v2/models/nope/ready"} {
		req, _ := http.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func postInfer(r *gin.Engine, model string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", "/v2/models/"+model+"/infer", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInferBadRequests(t *testing.T) {
	r := setupRouter()
	x := alphabet.DNA.Encode("ACGTAGCCATCAAACGT")
	in, err := predictor.EncodeTensor(predictor.DefaultInputName, []alphabet.OneHot{x})
	require.NoError(t, err)

	w := postInfer(r, zoo.DefaultModel, map[string]any{"inputs": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postInfer(r, zoo.DefaultModel, api.InferRequestV1{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postInfer(r, zoo.DefaultModel, api.InferRequestV1{
		Inputs:  []api.TensorV1{in},
		Outputs: []api.RequestedOutputV1{{Name: "Gata1"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Gata1")

	five := api.TensorV1{Name: "seq", Shape: []int{1, 2, 5}, Datatype: api.DatatypeFP32, Data: make([]float32, 10)}
	w = postInfer(r, zoo.DefaultModel, api.InferRequestV1{Inputs: []api.TensorV1{five}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big := make([]alphabet.OneHot, 9)
	for i := range big {
		big[i] = x
	}
	in, _ = predictor.EncodeTensor("seq", big)
	w = postInfer(r, zoo.DefaultModel, api.InferRequestV1{Inputs: []api.TensorV1{in}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

// The HTTP predictor scoring through the server must agree with the local
// PWM: the server returns tracks and the client applies the same reduction.
func TestClientServerRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cat := zoo.Builtin()
	ts := httptest.NewServer(New(cat, Options{}).Router())
	defer ts.Close()

	local, err := cat.Get(zoo.DefaultModel, "")
	require.NoError(t, err)
	entry, err := cat.Entry(zoo.DefaultModel)
	require.NoError(t, err)
	red, err := predictor.ParseReduction(entry.Reduction)
	require.NoError(t, err)

	remote, err := predictor.NewHTTPClient(predictor.HTTPConfig{
		URL: ts.URL, Model: zoo.DefaultModel, Tasks: local.Tasks(), Reduction: red,
	})
	require.NoError(t, err)
	require.NoError(t, remote.Ready(context.Background()))

	batch := []alphabet.OneHot{
		alphabet.DNA.Encode("NNNNAGCCATCAANNNNNNN"),
		alphabet.DNA.Encode("TTTTATGCAAATGGGTGTGG"),
		alphabet.DNA.Encode("ACAAAGGACAAAGGNNNNNN"),
	}
	want, err := local.PredictBatch(context.Background(), batch)
	require.NoError(t, err)
	got, err := remote.PredictBatch(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for b := range want {
		assert.InDeltaSlice(t, want[b], got[b], 1e-5, "row %d", b)
	}
}

func TestRunShutsDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(zoo.Builtin(), Options{}).Run(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
