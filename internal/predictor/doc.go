// internal/predictor/doc.go

// Package predictor adapts black-box sequence-to-function models to a single
// contract: a batch of one-hot sequences in, one scalar per task out.
//
// Models that emit a per-position output track (profile models such as
// BPNet, or the built-in PWM scanner) are reduced to a scalar with a
// Reduction. BatchRunner fans batches out over a bounded worker pool and
// reassembles results in input order.
package predictor
