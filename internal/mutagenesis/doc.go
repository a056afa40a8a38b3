// internal/mutagenesis/doc.go

// Package mutagenesis perturbs one-hot sequences for an in-silico MAVE.
//
// A Mutagenizer never touches positions outside the window it is given, and
// always returns a fresh copy so the wild-type can be reused across variants.
// All randomness comes from the *rand.Rand (math/rand/v2) passed in, so a
// fixed seed gives a reproducible library; NewRand builds one from a seed.
package mutagenesis
