package testutil

import (
	"math/rand"
	"sort"

	"github.com/hupe1980/semvault/distance"
)

// RNG wraps a seeded random source for reproducible vector generation.
type RNG struct {
	rand *rand.Rand
}

// NewRNG creates an RNG with the given seed.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed))}
}

// UnitVector generates a single L2-normalized random vector. Gaussian
// components make the direction uniform on the hypersphere.
func (r *RNG) UnitVector(dim int) []float32 {
	vec := make([]float32, dim)
	for {
		for i := range vec {
			vec[i] = float32(r.rand.NormFloat64())
		}
		if distance.NormalizeL2InPlace(vec) {
			return vec
		}
	}
}

// UnitVectors generates num L2-normalized random vectors.
func (r *RNG) UnitVectors(num, dim int) [][]float32 {
	vectors := make([][]float32, num)
	for i := range vectors {
		vectors[i] = r.UnitVector(dim)
	}
	return vectors
}

// ScoredID pairs a vector offset with its similarity score.
type ScoredID struct {
	ID    uint32
	Score float32
}

// ExactTopK returns the k highest-cosine matches of query against
// vectors, descending, ids breaking score ties. It is the ground truth
// that index searches are checked against.
func ExactTopK(query []float32, vectors [][]float32, k int) []ScoredID {
	results := make([]ScoredID, len(vectors))
	for i, v := range vectors {
		results[i] = ScoredID{ID: uint32(i), Score: distance.Cosine(query, v)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}
