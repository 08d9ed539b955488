// Package randomsearch implements pure random search: sample uniformly from the
// bounds, evaluate, and keep the best point seen.
package randomsearch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/randsearch/internal/optimization"
	"github.com/copyleftdev/randsearch/internal/optimization/sampler"
)

// Observer is notified of every objective evaluation. improved is true only
// when the evaluation replaced an earlier best; the initial sample replaces
// nothing and is reported with improved false.
type Observer interface {
	ObserveEvaluation(value float64, improved bool)
}

// Search maximizes objective over bounds using numIterations draws after the
// initial sample, and returns the best point found.
func Search(objective optimization.ObjectiveFunction, bounds optimization.Bounds, numIterations int, s *sampler.Sampler) ([]float64, error) {
	opt, err := NewOptimizer(optimization.OptimizerConfig{
		Objective:     objective,
		Bounds:        bounds,
		MaxIterations: numIterations,
	}, WithSampler(s))
	if err != nil {
		return nil, err
	}
	result, err := opt.Optimize(context.Background(), optimization.OptimizerConfig{})
	if err != nil {
		return nil, err
	}
	return result.BestSolution.Parameters, nil
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger.Named("random_search")
		}
	}
}

// WithSampler overrides the sampler built from the config seed.
func WithSampler(s *sampler.Sampler) Option {
	return func(o *Optimizer) {
		if s != nil {
			o.sampler = s
		}
	}
}

// WithObserver registers an observer for evaluations. Observers are called
// in registration order.
func WithObserver(obs Observer) Option {
	return func(o *Optimizer) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Optimizer implements optimization.Optimizer with random search.
// Optimize must not be called concurrently, but the getters and Stop may be
// called from other goroutines while it runs.
type Optimizer struct {
	config   optimization.OptimizerConfig
	sampler   *sampler.Sampler
	logger    *zap.Logger
	observers []Observer

	mu           sync.RWMutex
	bestSolution *optimization.Solution
	history      []optimization.Evaluation
	trace        []float64

	// For cancellation
	cancel context.CancelFunc
}

// NewOptimizer validates config and returns a ready Optimizer.
// A zero RandomSeed seeds the sampler from entropy.
func NewOptimizer(config optimization.OptimizerConfig, opts ...Option) (*Optimizer, error) {
	if err := config.Validate(); err != nil {
		return nil, optimization.WrapError(err, "").WithComponent("random_search")
	}

	o := &Optimizer{
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.sampler == nil {
		if config.RandomSeed != 0 {
			o.sampler = sampler.NewSeeded(config.RandomSeed)
		} else {
			o.sampler = sampler.NewEntropy()
		}
	}
	return o, nil
}

// Optimize runs the search. A config carrying an objective replaces the one
// given to NewOptimizer, and a non-zero RandomSeed in it re-seeds the sampler.
func (o *Optimizer) Optimize(ctx context.Context, config optimization.OptimizerConfig) (*optimization.OptimizationResult, error) {
	if config.Objective != nil {
		if err := config.Validate(); err != nil {
			return nil, optimization.WrapError(err, "").WithComponent("random_search")
		}
		o.mu.Lock()
		o.config = config
		if config.RandomSeed != 0 {
			o.sampler = sampler.NewSeeded(config.RandomSeed)
		}
		o.mu.Unlock()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := o.config
	start := time.Now()

	o.mu.Lock()
	o.cancel = cancel
	o.bestSolution = nil
	o.history = nil
	if cfg.RecordHistory {
		o.history = make([]optimization.Evaluation, 0, cfg.MaxIterations+1)
	}
	o.trace = make([]float64, 0, cfg.MaxIterations+1)
	o.mu.Unlock()

	x := make([]float64, cfg.Bounds.Dims())
	if err := o.sampler.SampleInto(x, cfg.Bounds); err != nil {
		return nil, err
	}
	best := &optimization.Solution{Parameters: x, Value: cfg.Objective(x)}
	o.record(0, best, true)

	for i := 1; i <= cfg.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			o.logger.Info("search stopped",
				zap.Int("iteration", i),
				zap.Float64("best", best.Value))
			return nil, ctx.Err()
		default:
		}

		candidate := make([]float64, len(x))
		if err := o.sampler.SampleInto(candidate, cfg.Bounds); err != nil {
			return nil, err
		}
		value := cfg.Objective(candidate)
		sol := &optimization.Solution{Parameters: candidate, Value: value}

		accepted := cfg.Goal.Better(value, best.Value)
		if accepted {
			o.logger.Debug("improved",
				zap.Int("iteration", i),
				zap.Float64("previous", best.Value),
				zap.Float64("value", value))
			best = sol
		}
		o.record(i, sol, accepted)
	}

	o.logger.Info("search completed",
		zap.Int("iterations", cfg.MaxIterations),
		zap.Int("dimensions", cfg.Bounds.Dims()),
		zap.Stringer("goal", cfg.Goal),
		zap.Float64("best", best.Value),
		zap.Duration("elapsed", time.Since(start)))

	o.mu.RLock()
	defer o.mu.RUnlock()
	return &optimization.OptimizationResult{
		BestSolution: best,
		History:      o.history,
		Trace:        o.trace,
		Iterations:   cfg.MaxIterations,
	}, nil
}

// record stores one evaluation. On acceptance sol is already the best.
func (o *Optimizer) record(iteration int, sol *optimization.Solution, accepted bool) {
	o.mu.Lock()
	if accepted {
		o.bestSolution = sol
	}
	o.trace = append(o.trace, o.bestSolution.Value)
	if o.config.RecordHistory {
		o.history = append(o.history, optimization.Evaluation{
			Iteration: iteration,
			Solution:  sol,
			Accepted:  accepted,
		})
	}
	o.mu.Unlock()

	improved := accepted && iteration > 0
	for _, obs := range o.observers {
		obs.ObserveEvaluation(sol.Value, improved)
	}
}

// GetBestSolution returns the best solution found so far
func (o *Optimizer) GetBestSolution() *optimization.Solution {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.bestSolution
}

// GetHistory returns the history of evaluations
func (o *Optimizer) GetHistory() []optimization.Evaluation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.history[:len(o.history):len(o.history)]
}

// Trace returns the best score after each evaluation.
func (o *Optimizer) Trace() []float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.trace[:len(o.trace):len(o.trace)]
}

// Progress returns the fraction of evaluations done, in [0, 1].
func (o *Optimizer) Progress() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return float64(len(o.trace)) / float64(o.config.MaxIterations+1)
}

// Stop stops the optimization process
func (o *Optimizer) Stop() {
	o.mu.RLock()
	cancel := o.cancel
	o.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}
