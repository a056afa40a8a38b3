// internal/predictor/http.go
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"mavekit/internal/alphabet"
	"mavekit/pkg/api"
)

// DefaultInputName is the input tensor name sent to remote models.
const DefaultInputName = "seq"

// HTTPConfig configures a remote model reachable over the V2 inference
// protocol (KServe, Triton, or `mavekit serve`).
type HTTPConfig struct {
	URL       string // base URL, e.g. http://localhost:8080
	Model     string
	Tasks     []string // output tensor names, one per task
	Reduction Reduction
	InputName string
	Timeout   time.Duration
}

// HTTPClient is a Predictor backed by a remote inference server.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	tasks      []string
	reduce     Reduction
	input      string
}

func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.URL == "" || cfg.Model == "" {
		return nil, fmt.Errorf("http predictor: url and model are required")
	}
	if len(cfg.Tasks) == 0 {
		return nil, fmt.Errorf("http predictor %s: no tasks configured", cfg.Model)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	input := cfg.InputName
	if input == "" {
		input = DefaultInputName
	}
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		model:      cfg.Model,
		tasks:      append([]string(nil), cfg.Tasks...),
		reduce:     cfg.Reduction,
		input:      input,
	}, nil
}

func (c *HTTPClient) Tasks() []string { return append([]string(nil), c.tasks...) }

func (c *HTTPClient) modelURL(suffix string) string {
	return fmt.Sprintf("%s/v2/models/%s%s", c.baseURL, url.PathEscape(c.model), suffix)
}

// Ready checks the model readiness endpoint.
func (c *HTTPClient) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL("/ready"), nil)
	if err != nil {
		return fmt.Errorf("create ready request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model %s ready: %w", c.model, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %s not ready: %s", c.model, readError(resp))
	}
	return nil
}

func (c *HTTPClient) PredictBatch(ctx context.Context, batch []alphabet.OneHot) ([][]float32, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	in, err := EncodeTensor(c.input, batch)
	if err != nil {
		return nil, err
	}
	body := api.InferRequestV1{Inputs: []api.TensorV1{in}}
	for _, t := range c.tasks {
		body.Outputs = append(body.Outputs, api.RequestedOutputV1{Name: t})
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal infer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL("/infer"), bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("create infer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.WithFields(log.Fields{
		"model": c.model,
		"batch": len(batch),
		"bytes": len(buf),
	}).Debug("sending inference request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("infer %s: %w", c.model, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("infer %s: %s", c.model, readError(resp))
	}

	var out api.InferResponseV1
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode infer response: %w", err)
	}
	return c.collect(out, len(batch))
}

// collect maps output tensors back onto task columns. A [B] tensor is taken
// as-is; a [B,P] tensor is reduced row by row.
func (c *HTTPClient) collect(resp api.InferResponseV1, n int) ([][]float32, error) {
	byName := make(map[string]api.TensorV1, len(resp.Outputs))
	for _, o := range resp.Outputs {
		byName[o.Name] = o
	}
	ys := make([][]float32, n)
	for i := range ys {
		ys[i] = make([]float32, len(c.tasks))
	}
	for t, name := range c.tasks {
		o, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("infer %s: response has no output %q", c.model, name)
		}
		if len(o.Shape) == 0 || o.Shape[0] != n {
			return nil, fmt.Errorf("infer %s: output %q has shape %v, want leading dim %d", c.model, name, o.Shape, n)
		}
		width := 1
		for _, d := range o.Shape[1:] {
			width *= d
		}
		if len(o.Data) != n*width {
			return nil, fmt.Errorf("infer %s: output %q has %d values for shape %v", c.model, name, len(o.Data), o.Shape)
		}
		for b := 0; b < n; b++ {
			row := o.Data[b*width : (b+1)*width]
			if width == 1 {
				ys[b][t] = row[0]
			} else {
				ys[b][t] = c.reduce.Apply(row)
			}
		}
	}
	return ys, nil
}

// EncodeTensor packs a batch of equally shaped one-hot matrices into a
// [B, L, A] FP32 tensor.
func EncodeTensor(name string, batch []alphabet.OneHot) (api.TensorV1, error) {
	l, a := batch[0].Len, batch[0].Size
	data := make([]float32, 0, len(batch)*l*a)
	for i, x := range batch {
		if x.Len != l || x.Size != a {
			return api.TensorV1{}, fmt.Errorf("batch item %d has shape %dx%d, want %dx%d", i, x.Len, x.Size, l, a)
		}
		for _, v := range x.Data {
			data = append(data, float32(v))
		}
	}
	return api.TensorV1{Name: name, Shape: []int{len(batch), l, a}, Datatype: api.DatatypeFP32, Data: data}, nil
}

// DecodeTensor is the inverse of EncodeTensor. Values >= 0.5 are read as 1.
func DecodeTensor(t api.TensorV1) ([]alphabet.OneHot, error) {
	if len(t.Shape) != 3 {
		return nil, fmt.Errorf("input %q: want rank 3 [B,L,A], got shape %v", t.Name, t.Shape)
	}
	b, l, a := t.Shape[0], t.Shape[1], t.Shape[2]
	if b < 0 || l <= 0 || a <= 0 || len(t.Data) != b*l*a {
		return nil, fmt.Errorf("input %q: %d values do not fit shape %v", t.Name, len(t.Data), t.Shape)
	}
	out := make([]alphabet.OneHot, b)
	for i := range out {
		x := alphabet.NewOneHot(l, a)
		for j, v := range t.Data[i*l*a : (i+1)*l*a] {
			if v >= 0.5 {
				x.Data[j] = 1
			}
		}
		out[i] = x
	}
	return out, nil
}

func readError(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e api.ErrorV1
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return fmt.Sprintf("%s (HTTP %d)", e.Error, resp.StatusCode)
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return fmt.Sprintf("%s (HTTP %d)", msg, resp.StatusCode)
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}
