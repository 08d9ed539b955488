// Package sampler draws uniformly distributed points from a bounded box.
package sampler

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/copyleftdev/randsearch/internal/optimization"
)

// Sampler draws candidate points from an injected random source.
// A Sampler is not safe for concurrent use; give each run its own.
type Sampler struct {
	src rand.Source
}

// New returns a Sampler drawing from src.
func New(src rand.Source) *Sampler {
	return &Sampler{src: src}
}

// NewSeeded returns a Sampler whose sequence is fully determined by seed.
func NewSeeded(seed uint64) *Sampler {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewEntropy returns a Sampler seeded once from the runtime's entropy source.
func NewEntropy() *Sampler {
	return New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Sample returns a new point with one independent uniform draw per dimension.
func (s *Sampler) Sample(bounds optimization.Bounds) ([]float64, error) {
	x := make([]float64, len(bounds))
	if err := s.SampleInto(x, bounds); err != nil {
		return nil, err
	}
	return x, nil
}

// SampleInto fills dst with a new point. dst must have one slot per dimension.
// Nothing is drawn when the bounds are invalid.
func (s *Sampler) SampleInto(dst []float64, bounds optimization.Bounds) error {
	if err := bounds.Validate(); err != nil {
		return optimization.WrapError(err, "").WithOperation("sample").WithComponent("sampler")
	}
	if len(dst) != len(bounds) {
		return optimization.NewErrorf("destination has %d slots, bounds have %d dimensions", len(dst), len(bounds)).
			WithOperation("sample").WithComponent("sampler")
	}
	for i, b := range bounds {
		v := distuv.Uniform{Min: b.Low, Max: b.High, Src: s.src}.Rand()
		// Rounding near the top of very wide intervals can land past High.
		if v > b.High {
			v = b.High
		}
		dst[i] = v
	}
	return nil
}
