// Package testutil provides test helpers: seeded random unit vectors
// and an exact top-k reference search used as ground truth for index
// tests. It is intended for tests only.
package testutil
