package objective

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/randsearch/internal/optimization"
)

func TestDemo(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{"origin", []float64{0, 0, 0, 0, 0}, 98},
		{"x4 lowers the score", []float64{0, 0, 0, 0, 10}, 88},
		{"zero product", []float64{-1, 5, 5, 5, 0}, 100},
		{"corner", []float64{10, 10, -10, 10, -10}, 100 - (11*11*(-8)*11 - 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Demo(tt.x), 1e-9)
		})
	}
}

func TestSimpleObjectives(t *testing.T) {
	assert.Equal(t, 0.25, Identity([]float64{0.25, 9}))
	assert.Equal(t, -5.0, Sphere([]float64{1, -2}))
	assert.Equal(t, -1.0, Constant(-1)([]float64{3}))
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"demo", "identity", "sphere"}, r.Names())

	e, err := r.Lookup("demo")
	require.NoError(t, err)
	assert.Equal(t, DemoDimensions, e.Dimensions)
	assert.NoError(t, e.CheckDimensions(optimization.UniformBounds(5, -10, 10)))
	assert.ErrorIs(t, e.CheckDimensions(optimization.UniformBounds(2, -10, 10)), optimization.ErrInvalidBounds)

	e, err = r.Lookup("sphere")
	require.NoError(t, err)
	assert.NoError(t, e.CheckDimensions(optimization.UniformBounds(7, -1, 1)))

	_, err = r.Lookup("rosenbrock")
	assert.ErrorIs(t, err, ErrUnknownObjective)
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Entry{Name: "flat", Func: Constant(0)}))
	assert.Error(t, r.Register(Entry{Name: "flat", Func: Constant(1)}))
	assert.Error(t, r.Register(Entry{Name: "", Func: Constant(1)}))
	assert.Error(t, r.Register(Entry{Name: "nil"}))
	assert.Equal(t, []string{"flat"}, r.Names())
}
