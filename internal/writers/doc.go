// internal/writers/doc.go

// Package writers turns logos and run records into serialized outputs.
//
// Design:
//   - Writers own all presentation knowledge (CSV/TSV, JSON/JSONL, SVG, text).
//   - Callers pick a format by name; unknown names are an error, never a fallback.
//   - JSON/JSONL go through pkg/api (v1) for a stable wire format.
package writers
