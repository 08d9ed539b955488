package sampler

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/randsearch/internal/optimization"
)

func TestSampleWithinBounds(t *testing.T) {
	bounds := optimization.Bounds{
		{Low: -10, High: 10},
		{Low: 0, High: 1e-3},
		{Low: -1e6, High: -1e6 + 1},
		{Low: 3, High: 3},
	}
	s := NewSeeded(7)

	for i := 0; i < 10000; i++ {
		x, err := s.Sample(bounds)
		require.NoError(t, err)
		require.Len(t, x, len(bounds))
		for d, b := range bounds {
			if x[d] < b.Low || x[d] > b.High {
				t.Fatalf("draw %d: x[%d]=%v outside [%v, %v]", i, d, x[d], b.Low, b.High)
			}
		}
	}
}

func TestSampleWideFiniteBoundsStayInside(t *testing.T) {
	bounds := optimization.Bounds{
		{Low: -8e307, High: 8e307},
		{Low: math.MaxFloat64 / 2, High: math.MaxFloat64},
		{Low: -math.MaxFloat64, High: -math.MaxFloat64 / 2},
	}
	require.NoError(t, bounds.Validate())

	s := NewSeeded(11)
	for i := 0; i < 1000; i++ {
		x, err := s.Sample(bounds)
		require.NoError(t, err)
		require.True(t, bounds.Contains(x), "draw %d: %v", i, x)
	}
}

func TestSampleDegenerate(t *testing.T) {
	s := NewEntropy()
	for i := 0; i < 100; i++ {
		x, err := s.Sample(optimization.Bounds{{Low: 5, High: 5}})
		require.NoError(t, err)
		assert.Equal(t, []float64{5.0}, x)
	}
}

func TestSampleDeterministic(t *testing.T) {
	bounds := optimization.UniformBounds(5, -10, 10)
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 50; i++ {
		xa, err := a.Sample(bounds)
		require.NoError(t, err)
		xb, err := b.Sample(bounds)
		require.NoError(t, err)
		assert.Equal(t, xa, xb)
	}

	xc, err := NewSeeded(43).Sample(bounds)
	require.NoError(t, err)
	xa, err := NewSeeded(42).Sample(bounds)
	require.NoError(t, err)
	assert.NotEqual(t, xa, xc)
}

func TestSampleUsesInjectedSource(t *testing.T) {
	bounds := optimization.Bounds{{Low: 0, High: 1}}
	x, err := New(rand.NewPCG(1, 2)).Sample(bounds)
	require.NoError(t, err)
	y, err := New(rand.NewPCG(1, 2)).Sample(bounds)
	require.NoError(t, err)
	assert.Equal(t, x, y)
}

func TestSampleIsRoughlyUniform(t *testing.T) {
	const n = 20000
	s := NewSeeded(1)
	bounds := optimization.Bounds{{Low: -1, High: 1}}

	draws := make([]float64, n)
	for i := range draws {
		x, err := s.Sample(bounds)
		require.NoError(t, err)
		draws[i] = x[0]
	}

	// U(-1, 1): mean 0, variance 1/3.
	mean, variance := stat.MeanVariance(draws, nil)
	assert.InDelta(t, 0.0, mean, 0.03)
	assert.InDelta(t, 1.0/3.0, variance, 0.02)
}

func TestSampleInvalidBounds(t *testing.T) {
	tests := []struct {
		name   string
		bounds optimization.Bounds
	}{
		{"empty", nil},
		{"reversed", optimization.Bounds{{Low: 1, High: -1}}},
		{"unbounded", optimization.Bounds{{Low: math.Inf(-1), High: math.Inf(1)}}},
		{"overflowing width", optimization.Bounds{{Low: -1e308, High: 1e308}}},
		{"full float range", optimization.Bounds{{Low: -math.MaxFloat64, High: math.MaxFloat64}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := NewSeeded(1).Sample(tt.bounds)
			assert.Nil(t, x)
			assert.ErrorIs(t, err, optimization.ErrInvalidBounds)
		})
	}
}

func TestSampleIntoLengthMismatch(t *testing.T) {
	err := NewSeeded(1).SampleInto(make([]float64, 2), optimization.UniformBounds(3, 0, 1))
	assert.Error(t, err)
}

func BenchmarkSample(b *testing.B) {
	s := NewSeeded(1)
	bounds := optimization.UniformBounds(5, -10, 10)
	dst := make([]float64, len(bounds))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.SampleInto(dst, bounds)
	}
}
