package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/randsearch/internal/optimization"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, "demo", cfg.Search.Objective)
	assert.Equal(t, 10000, cfg.Search.Iterations)
	assert.Equal(t, uint64(0), cfg.Search.Seed)
	assert.Equal(t, "maximize", cfg.Search.Goal)
	assert.Equal(t, 100, cfg.Search.RetainedJobs)
	assert.Equal(t, optimization.UniformBounds(5, -10, 10), cfg.Search.Bounds())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SEARCH_ITERATIONS", "50")
	t.Setenv("SEARCH_DIMENSIONS", "1")
	t.Setenv("SEARCH_LOW", "-1")
	t.Setenv("SEARCH_HIGH", "1")
	t.Setenv("SEARCH_SEED", "42")
	t.Setenv("SEARCH_OBJECTIVE", "identity")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Search.Iterations)
	assert.Equal(t, uint64(42), cfg.Search.Seed)
	assert.Equal(t, "identity", cfg.Search.Objective)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, optimization.Bounds{{Low: -1, High: 1}}, cfg.Search.Bounds())
}

func TestLoadRejectsInvalidSearch(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		target error
	}{
		{"reversed bounds", map[string]string{"SEARCH_LOW": "3", "SEARCH_HIGH": "1"}, optimization.ErrInvalidBounds},
		{"infinite high", map[string]string{"SEARCH_HIGH": "Inf"}, optimization.ErrInvalidBounds},
		{"overflowing width", map[string]string{"SEARCH_LOW": "-1e308", "SEARCH_HIGH": "1e308"}, optimization.ErrInvalidBounds},
		{"no dimensions", map[string]string{"SEARCH_DIMENSIONS": "0"}, optimization.ErrInvalidBounds},
		{"negative iterations", map[string]string{"SEARCH_ITERATIONS": "-5"}, optimization.ErrInvalidIterationCount},
		{"unknown goal", map[string]string{"SEARCH_GOAL": "up"}, nil},
		{"not a number", map[string]string{"SEARCH_ITERATIONS": "many"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			assert.Nil(t, cfg)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}
