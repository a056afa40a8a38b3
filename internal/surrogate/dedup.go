// internal/surrogate/dedup.go
package surrogate

import "mavekit/internal/mave"

// Deduplicate collapses identical sequences into one row whose targets are
// the mean of the duplicates. Order of first occurrence is kept, so the
// wild-type stays row 0. It returns the number of rows removed.
func Deduplicate(ds *mave.Dataset) (*mave.Dataset, int) {
	sz := ds.L * ds.A
	first := make(map[string]int, ds.N)
	var keep []int
	counts := make([]int, 0, ds.N)
	sums := make([]float64, 0, ds.N*ds.T)
	for i := 0; i < ds.N; i++ {
		key := string(ds.X[i*sz : (i+1)*sz])
		j, ok := first[key]
		if !ok {
			j = len(keep)
			first[key] = j
			keep = append(keep, i)
			counts = append(counts, 0)
			sums = append(sums, make([]float64, ds.T)...)
		}
		counts[j]++
		for t := 0; t < ds.T; t++ {
			sums[j*ds.T+t] += float64(ds.Target(i, t))
		}
	}
	if len(keep) == ds.N {
		return ds, 0
	}
	out := &mave.Dataset{N: len(keep), L: ds.L, A: ds.A, T: ds.T, Meta: ds.Meta,
		X: make([]uint8, 0, len(keep)*sz), Y: make([]float32, len(keep)*ds.T)}
	for j, i := range keep {
		out.X = append(out.X, ds.X[i*sz:(i+1)*sz]...)
		for t := 0; t < ds.T; t++ {
			out.Y[j*ds.T+t] = float32(sums[j*ds.T+t] / float64(counts[j]))
		}
	}
	return out, ds.N - len(keep)
}
