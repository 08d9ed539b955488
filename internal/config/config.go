package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/randsearch/internal/optimization"
)

// Config is read from the environment. The defaults reproduce the demo run:
// 10000 iterations of the demo objective over [-10, 10)^5.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Search Search
}

// Search holds the parameters of a single run and the server's limits.
type Search struct {
	Objective  string  `env:"SEARCH_OBJECTIVE" envDefault:"demo"`
	Iterations int     `env:"SEARCH_ITERATIONS" envDefault:"10000"`
	Dimensions int     `env:"SEARCH_DIMENSIONS" envDefault:"5"`
	Low        float64 `env:"SEARCH_LOW" envDefault:"-10"`
	High       float64 `env:"SEARCH_HIGH" envDefault:"10"`
	Seed       uint64  `env:"SEARCH_SEED" envDefault:"0"`
	Goal       string  `env:"SEARCH_GOAL" envDefault:"maximize"`
	// MaxIterations caps the iteration count a server request may ask for.
	MaxIterations int `env:"SEARCH_MAX_ITERATIONS" envDefault:"1000000"`
	// RetainedJobs caps how many finished searches the server keeps for
	// status queries. The oldest are dropped first; 0 keeps them all.
	RetainedJobs int `env:"SEARCH_RETAINED_JOBS" envDefault:"100"`
}

// Bounds returns the hyper-cube described by Dimensions, Low and High.
func (s Search) Bounds() optimization.Bounds {
	return optimization.UniformBounds(s.Dimensions, s.Low, s.High)
}

// Validate checks the search section with the optimizer's own rules.
func (s Search) Validate() error {
	if err := s.Bounds().Validate(); err != nil {
		return err
	}
	if s.Iterations < 0 {
		return optimization.WrapErrorf(optimization.ErrInvalidIterationCount, "SEARCH_ITERATIONS=%d", s.Iterations)
	}
	if s.MaxIterations < 0 {
		return optimization.WrapErrorf(optimization.ErrInvalidIterationCount, "SEARCH_MAX_ITERATIONS=%d", s.MaxIterations)
	}
	if _, err := optimization.ParseGoal(s.Goal); err != nil {
		return err
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Default logging level based on environment
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Search.Validate(); err != nil {
		return nil, fmt.Errorf("search config: %w", err)
	}
	return cfg, nil
}
