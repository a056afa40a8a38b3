// pkg/api/inference_v1.go
package api

// Tensor datatypes used on the wire.
const (
	DatatypeFP32  = "FP32"
	DatatypeUINT8 = "UINT8"
)

// TensorV1 is one named tensor of the V2 (KServe/Triton) inference protocol,
// JSON flavour. Data is row-major and its length is the product of Shape.
type TensorV1 struct {
	Name     string    `json:"name"`
	Shape    []int     `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float32 `json:"data"`
}

// RequestedOutputV1 restricts the outputs a server returns.
type RequestedOutputV1 struct {
	Name string `json:"name"`
}

// InferRequestV1 is the body of POST /v2/models/{name}/infer.
type InferRequestV1 struct {
	ID      string              `json:"id,omitempty"`
	Inputs  []TensorV1          `json:"inputs"`
	Outputs []RequestedOutputV1 `json:"outputs,omitempty"`
}

// InferResponseV1 carries one output tensor per task.
type InferResponseV1 struct {
	ModelName    string     `json:"model_name"`
	ModelVersion string     `json:"model_version,omitempty"`
	ID           string     `json:"id,omitempty"`
	Outputs      []TensorV1 `json:"outputs"`
}

// TensorMetaV1 describes an input or output without data.
type TensorMetaV1 struct {
	Name     string `json:"name"`
	Datatype string `json:"datatype"`
	Shape    []int  `json:"shape"`
}

// ModelMetadataV1 is returned by GET /v2/models/{name}.
type ModelMetadataV1 struct {
	Name     string         `json:"name"`
	Versions []string       `json:"versions,omitempty"`
	Platform string         `json:"platform"`
	Inputs   []TensorMetaV1 `json:"inputs"`
	Outputs  []TensorMetaV1 `json:"outputs"`
}

// ErrorV1 is the protocol's error body.
type ErrorV1 struct {
	Error string `json:"error"`
}
