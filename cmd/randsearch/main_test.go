package main

import (
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/randsearch/internal/config"
	"github.com/copyleftdev/randsearch/internal/logging"
	"github.com/copyleftdev/randsearch/internal/objective"
)

var pointPattern = regexp.MustCompile(`^\[(-?[0-9.e+-]+)(, -?[0-9.e+-]+)*\]\n$`)

func demoConfig() config.Search {
	return config.Search{
		Objective:  "demo",
		Iterations: 10000,
		Dimensions: 5,
		Low:        -10,
		High:       10,
		Seed:       1,
		Goal:       "maximize",
	}
}

func parsePoint(t *testing.T, s string) []float64 {
	t.Helper()
	require.Regexp(t, pointPattern, s)
	fields := strings.Split(strings.Trim(strings.TrimSpace(s), "[]"), ", ")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

func TestSearchDemo(t *testing.T) {
	var out bytes.Buffer
	logger := logging.New(logging.InfoLevel, io.Discard)
	require.NoError(t, search(demoConfig(), objective.Default(), logger, &out))

	x := parsePoint(t, out.String())
	require.Len(t, x, 5)
	for _, v := range x {
		assert.GreaterOrEqual(t, v, -10.0)
		assert.LessOrEqual(t, v, 10.0)
	}
	// 10000 draws find a point far above the value at the origin.
	assert.Greater(t, objective.Demo(x), 1000.0)
}

func TestSearchDeterministic(t *testing.T) {
	logger := logging.New(logging.InfoLevel, io.Discard)
	var a, b bytes.Buffer
	require.NoError(t, search(demoConfig(), objective.Default(), logger, &a))
	require.NoError(t, search(demoConfig(), objective.Default(), logger, &b))
	assert.Equal(t, a.String(), b.String())
}

func TestSearchErrors(t *testing.T) {
	logger := logging.New(logging.InfoLevel, io.Discard)

	unknown := demoConfig()
	unknown.Objective = "nope"
	assert.Error(t, search(unknown, objective.Default(), logger, io.Discard))

	wrongDims := demoConfig()
	wrongDims.Dimensions = 3
	assert.Error(t, search(wrongDims, objective.Default(), logger, io.Discard))

	badGoal := demoConfig()
	badGoal.Goal = "up"
	assert.Error(t, search(badGoal, objective.Default(), logger, io.Discard))

	negative := demoConfig()
	negative.Iterations = -1
	assert.Error(t, search(negative, objective.Default(), logger, io.Discard))
}

func TestRunWithDefaults(t *testing.T) {
	t.Setenv("SEARCH_ITERATIONS", "100")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	require.NoError(t, run(&out))
	assert.Len(t, parsePoint(t, out.String()), 5)
}
