// Command randsearch runs one random search and prints the best point found.
// With no environment set it maximizes the demo objective over [-10, 10)^5
// with 10000 iterations.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/copyleftdev/randsearch/internal/config"
	"github.com/copyleftdev/randsearch/internal/logging"
	"github.com/copyleftdev/randsearch/internal/objective"
	"github.com/copyleftdev/randsearch/internal/optimization"
	"github.com/copyleftdev/randsearch/internal/optimization/randomsearch"
)

func main() {
	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "randsearch: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	return search(cfg.Search, objective.Default(), logger, out)
}

// search runs the configured search and writes the formatted best point to out.
func search(sc config.Search, objectives *objective.Registry, logger *logging.Logger, out io.Writer) error {
	entry, err := objectives.Lookup(sc.Objective)
	if err != nil {
		return err
	}
	bounds := sc.Bounds()
	if err := entry.CheckDimensions(bounds); err != nil {
		return err
	}
	goal, err := optimization.ParseGoal(sc.Goal)
	if err != nil {
		return err
	}

	opt, err := randomsearch.NewOptimizer(optimization.OptimizerConfig{
		Objective:     entry.Func,
		Bounds:        bounds,
		MaxIterations: sc.Iterations,
		RandomSeed:    sc.Seed,
		Goal:          goal,
	}, randomsearch.WithLogger(logging.NewZapLogger(logger)))
	if err != nil {
		return err
	}

	result, err := opt.Optimize(context.Background(), optimization.OptimizerConfig{})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, optimization.FormatPoint(result.BestSolution.Parameters))
	return err
}
