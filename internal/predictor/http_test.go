// internal/predictor/http_test.go
package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavekit/internal/alphabet"
	"mavekit/pkg/api"
)

func TestTensorRoundTrip(t *testing.T) {
	xs := []alphabet.OneHot{alphabet.DNA.Encode("ACGN"), alphabet.DNA.Encode("TTGA")}
	tensor, err := EncodeTensor("seq", xs)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 4}, tensor.Shape)

	back, err := DecodeTensor(tensor)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "ACGN", alphabet.DNA.Decode(back[0], 'N'))
	assert.Equal(t, "TTGA", alphabet.DNA.Decode(back[1], 'N'))

	_, err = EncodeTensor("seq", []alphabet.OneHot{alphabet.DNA.Encode("AC"), alphabet.DNA.Encode("ACG")})
	assert.Error(t, err)
}

func TestHTTPClientPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/models/toy/ready":
			w.WriteHeader(http.StatusOK)
		case "/v2/models/toy/infer":
			var req api.InferRequestV1
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			b := req.Inputs[0].Shape[0]
			resp := api.InferResponseV1{ModelName: "toy"}
			// "scalar" is [B]; "track" is [B,3]
			scalar := api.TensorV1{Name: "scalar", Shape: []int{b}, Datatype: api.DatatypeFP32}
			track := api.TensorV1{Name: "track", Shape: []int{b, 3}, Datatype: api.DatatypeFP32}
			for i := 0; i < b; i++ {
				scalar.Data = append(scalar.Data, float32(i))
				track.Data = append(track.Data, 1, float32(10+i), 2)
			}
			resp.Outputs = []api.TensorV1{track, scalar}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.ErrorV1{Error: "no such model"})
		}
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPConfig{URL: srv.URL + "/", Model: "toy", Tasks: []string{"scalar", "track"}, Reduction: ReduceMax})
	require.NoError(t, err)
	require.NoError(t, c.Ready(context.Background()))

	xs := []alphabet.OneHot{alphabet.DNA.Encode("AC"), alphabet.DNA.Encode("GT")}
	ys, err := c.PredictBatch(context.Background(), xs)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 10}, {1, 11}}, ys)

	missing, err := NewHTTPClient(HTTPConfig{URL: srv.URL, Model: "nope", Tasks: []string{"x"}})
	require.NoError(t, err)
	err = missing.Ready(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such model")
}

func TestHTTPClientMissingOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.InferResponseV1{ModelName: "toy"})
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPConfig{URL: srv.URL, Model: "toy", Tasks: []string{"Nanog"}})
	require.NoError(t, err)
	_, err = c.PredictBatch(context.Background(), []alphabet.OneHot{alphabet.DNA.Encode("A")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no output "Nanog"`)
}

func TestNewHTTPClientValidation(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{Model: "m", Tasks: []string{"t"}})
	assert.Error(t, err)
	_, err = NewHTTPClient(HTTPConfig{URL: "http://x", Model: "m"})
	assert.Error(t, err)
}
