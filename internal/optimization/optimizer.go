package optimization

import (
	"context"
	"math"
	"strings"
)

// Optimizer defines the interface for optimization algorithms
type Optimizer interface {
	// Optimize runs the optimization process
	Optimize(ctx context.Context, config OptimizerConfig) (*OptimizationResult, error)

	// GetBestSolution returns the best solution found so far
	GetBestSolution() *Solution

	// GetHistory returns the history of evaluations
	GetHistory() []Evaluation

	// Stop gracefully stops the optimization process
	Stop()
}

// OptimizerConfig contains configuration for the optimizer
type OptimizerConfig struct {
	// Objective function to optimize
	Objective ObjectiveFunction

	// Bounds for each dimension
	Bounds Bounds

	// Number of iterations after the initial sample
	MaxIterations int

	// Random seed for reproducibility, 0 seeds from entropy
	RandomSeed uint64

	// Goal selects the polarity of the search
	Goal Goal

	// RecordHistory keeps every evaluation in the result
	RecordHistory bool
}

// Validate checks the parts of the config every optimizer depends on.
func (c OptimizerConfig) Validate() error {
	if c.Objective == nil {
		return WrapError(ErrNilObjective, "objective function is required").WithOperation("validate")
	}
	if err := c.Bounds.Validate(); err != nil {
		return err
	}
	if c.MaxIterations < 0 {
		return WrapErrorf(ErrInvalidIterationCount, "got %d", c.MaxIterations).WithOperation("validate")
	}
	return nil
}

// ObjectiveFunction defines the function to be optimized
type ObjectiveFunction func(x []float64) float64

// Goal is the direction in which scores improve.
type Goal int

const (
	// Maximize treats strictly greater scores as better.
	Maximize Goal = iota
	// Minimize treats strictly smaller scores as better.
	Minimize
)

// ParseGoal maps "maximize"/"max" and "minimize"/"min" to a Goal.
// The empty string is Maximize.
func ParseGoal(s string) (Goal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max", "maximize":
		return Maximize, nil
	case "min", "minimize":
		return Minimize, nil
	}
	return Maximize, NewErrorf("unknown goal %q", s).WithOperation("parse_goal")
}

func (g Goal) String() string {
	if g == Minimize {
		return "minimize"
	}
	return "maximize"
}

// Better reports whether candidate strictly improves on best.
// Ties keep best, and NaN on either side never wins.
func (g Goal) Better(candidate, best float64) bool {
	if g == Minimize {
		return candidate < best
	}
	return candidate > best
}

// Bound is the sampling interval [Low, High) of one dimension.
type Bound struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Validate rejects reversed, NaN and unbounded intervals. The width must
// itself be finite, since draws are Low + u*(High-Low).
func (b Bound) Validate() error {
	switch {
	case math.IsNaN(b.Low) || math.IsNaN(b.High) || b.Low > b.High:
		return WrapErrorf(ErrInvalidBounds, "low %v > high %v", b.Low, b.High)
	case math.IsInf(b.Low, 0) || math.IsInf(b.High, 0):
		return WrapErrorf(ErrInvalidBounds, "interval [%v, %v] is unbounded", b.Low, b.High)
	case math.IsInf(b.Width(), 0):
		return WrapErrorf(ErrInvalidBounds, "width of [%v, %v] overflows", b.Low, b.High)
	}
	return nil
}

// Width returns High - Low.
func (b Bound) Width() float64 {
	return b.High - b.Low
}

// Contains reports whether v lies in [Low, High].
func (b Bound) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

// Bounds is the ordered list of per-dimension intervals of a search space.
type Bounds []Bound

// UniformBounds returns dims copies of [low, high).
func UniformBounds(dims int, low, high float64) Bounds {
	b := make(Bounds, dims)
	for i := range b {
		b[i] = Bound{Low: low, High: high}
	}
	return b
}

// Dims returns the dimensionality of the search space.
func (b Bounds) Dims() int {
	return len(b)
}

// Validate checks that the space is non-empty and every interval is well formed.
func (b Bounds) Validate() error {
	if len(b) == 0 {
		return WrapError(ErrInvalidBounds, "no dimensions").WithOperation("validate")
	}
	for i, bound := range b {
		if err := bound.Validate(); err != nil {
			return WrapErrorf(err, "dimension %d", i).WithOperation("validate")
		}
	}
	return nil
}

// Contains reports whether x has the right length and lies inside every interval.
func (b Bounds) Contains(x []float64) bool {
	if len(x) != len(b) {
		return false
	}
	for i, bound := range b {
		if !bound.Contains(x[i]) {
			return false
		}
	}
	return true
}

// Solution represents a solution in the optimization space
type Solution struct {
	Parameters []float64
	Value      float64
}

// Evaluation represents a single evaluation of the objective function.
// Iteration 0 is the initial sample.
type Evaluation struct {
	Iteration int
	Solution  *Solution
	Accepted  bool
}

// OptimizationResult contains the result of an optimization run
type OptimizationResult struct {
	BestSolution *Solution
	History      []Evaluation
	// Trace holds the best score after each evaluation, initial sample first.
	Trace      []float64
	Iterations int
}
