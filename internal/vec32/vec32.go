// Package vec32 converts float32 vectors to and from their little-endian
// byte encoding, the single wire format shared by SQLite blobs and
// snapshot payloads.
package vec32

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Bytes returns the little-endian byte encoding of vals.
func Bytes(vals []float32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// FromBytes decodes little-endian bytes into float32 values.
func FromBytes(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("vec32: payload size %d is not a multiple of 4", len(buf))
	}
	vals := make([]float32, len(buf)/4)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vals, nil
}
