package vec32

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	vals := []float32{0, 1, -1, 0.5, 3.14159, -2.71828}

	buf := Bytes(vals)
	require.Len(t, buf, len(vals)*4)

	got, err := FromBytes(buf)
	require.NoError(t, err)
	assert.Equal(t, vals, got)
}

func TestEmpty(t *testing.T) {
	assert.Empty(t, Bytes(nil))

	got, err := FromBytes(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOddLength(t *testing.T) {
	_, err := FromBytes([]byte{1, 2, 3, 4, 5})
	assert.Error(t, err)
}
