// pkg/api/runs_v1.go
package api

import "time"

// RunV1 is one entry of the run ledger, as printed by `mavekit runs -o json`.
// Keep fields stable; add new ones only with ",omitempty".
type RunV1 struct {
	ID         string             `json:"id"`
	Step       string             `json:"step"` // "generate" | "fit" | "run"
	Status     string             `json:"status"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	Params     map[string]any     `json:"params,omitempty"`
	Artifacts  map[string]string  `json:"artifacts,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// LogoV1 is the JSON form of a sequence logo: Rows[i][j] is the effect of
// Alphabet[j] at position Start+i.
type LogoV1 struct {
	Alphabet []string    `json:"alphabet"`
	Start    int         `json:"start"`
	Rows     [][]float64 `json:"rows"`
}

// ParamsV1 holds fitted surrogate parameters in a named gauge.
type ParamsV1 struct {
	GPMap     string        `json:"gpmap"`
	Gauge     string        `json:"gauge"`
	Task      string        `json:"task,omitempty"`
	Alphabet  []string      `json:"alphabet"`
	Window    [2]int        `json:"window"`
	Theta0    float64       `json:"theta_0"`
	ThetaLC   [][]float64   `json:"theta_lc"`
	ThetaLCLC [][][]float64 `json:"theta_lclc,omitempty"`
	GE        *CurveV1      `json:"ge,omitempty"`
}

// CurveV1 is a monotone piecewise-linear nonlinearity y = g(phi).
type CurveV1 struct {
	Phi []float64 `json:"phi"`
	Y   []float64 `json:"y"`
}
