package ml

import "math/rand"

// SyntheticBaseline draws n standard-normal vectors of the given width using
// a dedicated seeded source. The production model trains on 1000 vectors of
// width 5; the seed keeps the training distribution identical across runs.
func SyntheticBaseline(n, dim int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	data := make([][]float64, n)
	for i := range data {
		row := make([]float64, dim)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		data[i] = row
	}
	return data
}
