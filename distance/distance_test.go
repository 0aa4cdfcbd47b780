package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "parallel", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 14},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Dot(tt.a, tt.b), 1e-6)
		})
	}
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 0},
		{name: "unit apart", a: []float32{0, 0}, b: []float32{1, 0}, want: 1},
		{name: "diagonal", a: []float32{0, 0}, b: []float32{3, 4}, want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SquaredL2(tt.a, tt.b), 1e-6)
		})
	}
}

func TestCosine(t *testing.T) {
	t.Run("self similarity is one", func(t *testing.T) {
		v := []float32{0.3, -1.2, 4.5}
		assert.InDelta(t, 1.0, Cosine(v, v), 1e-6)
	})

	t.Run("orthogonal is zero", func(t *testing.T) {
		assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	})

	t.Run("opposite is minus one", func(t *testing.T) {
		assert.InDelta(t, -1.0, Cosine([]float32{2, 0}, []float32{-5, 0}), 1e-6)
	})

	t.Run("zero vector does not produce NaN", func(t *testing.T) {
		got := Cosine([]float32{0, 0}, []float32{1, 1})
		require.False(t, math.IsNaN(float64(got)))
		assert.InDelta(t, 0.0, got, 1e-6)
	})
}

func TestNormalizeL2(t *testing.T) {
	t.Run("in place", func(t *testing.T) {
		v := []float32{3, 4}
		require.True(t, NormalizeL2InPlace(v))
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)
		assert.InDelta(t, 1.0, Norm(v), 1e-6)
	})

	t.Run("copy leaves source untouched", func(t *testing.T) {
		src := []float32{0, 2}
		dst, ok := NormalizeL2Copy(src)
		require.True(t, ok)
		assert.Equal(t, []float32{0, 2}, src)
		assert.InDelta(t, 1.0, dst[1], 1e-6)
	})

	t.Run("zero vector", func(t *testing.T) {
		require.False(t, NormalizeL2InPlace([]float32{0, 0, 0}))

		_, ok := NormalizeL2Copy([]float32{0, 0})
		require.False(t, ok)
	})

	t.Run("empty vector", func(t *testing.T) {
		require.False(t, NormalizeL2InPlace(nil))
	})
}

func TestProvider(t *testing.T) {
	tests := []struct {
		name    string
		metric  Metric
		wantErr bool
	}{
		{name: "dot", metric: MetricDot},
		{name: "cosine", metric: MetricCosine},
		{name: "l2", metric: MetricL2},
		{name: "unknown", metric: Metric(42), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := Provider(tt.metric)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, fn)
		})
	}
}

func TestMetricString(t *testing.T) {
	assert.Equal(t, "Dot", MetricDot.String())
	assert.Equal(t, "Cosine", MetricCosine.String())
	assert.Equal(t, "L2", MetricL2.String())
	assert.Equal(t, "Unknown(42)", Metric(42).String())
}
