// Package objective provides named objective functions for random search.
package objective

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/copyleftdev/randsearch/internal/optimization"
)

// ErrUnknownObjective is returned by Lookup for unregistered names.
var ErrUnknownObjective = errors.New("unknown objective")

// DemoDimensions is the dimensionality Demo expects.
const DemoDimensions = 5

// Demo is the five-dimensional demo surface
// 100 - ((x0+1)(x1+1)(x2+2)(x3+1) + x4).
func Demo(x []float64) float64 {
	return 100 - (((x[0]+1)*(x[1]+1))*((x[2]+2)*(x[3]+1)) + x[4])
}

// Identity returns the first coordinate.
func Identity(x []float64) float64 {
	return x[0]
}

// Sphere is the negated sum of squares, maximal at the origin.
func Sphere(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return -sum
}

// Constant returns an objective that ignores its input.
func Constant(c float64) optimization.ObjectiveFunction {
	return func([]float64) float64 { return c }
}

// Entry describes a registered objective.
type Entry struct {
	Name string
	// Dimensions is the required dimensionality, 0 for any.
	Dimensions int
	Func       optimization.ObjectiveFunction
}

// CheckDimensions rejects bounds the objective cannot be evaluated on.
func (e Entry) CheckDimensions(bounds optimization.Bounds) error {
	if e.Dimensions != 0 && bounds.Dims() != e.Dimensions {
		return optimization.WrapErrorf(optimization.ErrInvalidBounds,
			"objective %q needs %d dimensions, got %d", e.Name, e.Dimensions, bounds.Dims())
	}
	return nil
}

// Registry maps names to objectives. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Default returns a registry holding demo, identity and sphere.
func Default() *Registry {
	r := NewRegistry()
	_ = r.Register(Entry{Name: "demo", Dimensions: DemoDimensions, Func: Demo})
	_ = r.Register(Entry{Name: "identity", Func: Identity})
	_ = r.Register(Entry{Name: "sphere", Func: Sphere})
	return r
}

// Register adds e, refusing duplicates and nil functions.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" || e.Func == nil {
		return fmt.Errorf("register objective %q: name and function are required", e.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.Name]; ok {
		return fmt.Errorf("register objective %q: already registered", e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownObjective, name)
	}
	return e, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
