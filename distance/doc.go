// Package distance provides the float32 vector kernels used by the index and
// the semantic cache.
//
// # Supported Metrics
//
//   - MetricDot: Inner product (the index stores unit vectors, so this equals cosine)
//   - MetricCosine: Cosine similarity with a small epsilon guard on both norms
//   - MetricL2: Squared Euclidean distance
//
// # Usage
//
//	sim := distance.Dot(a, b)
//	cos := distance.Cosine(a, b)
//	normalized, ok := distance.NormalizeL2Copy(vec)
package distance
