package experiment

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lintang-b-s/navsim/pkg"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Trials = 3
	cfg.TargetArrivals = 6
	cfg.Seed = 42
	return cfg
}

func TestEvaluate(t *testing.T) {
	testCases := []struct {
		name    string
		spawner string
	}{
		{name: "fixed pair", spawner: SPAWNER_FIXED_PAIR},
		{name: "random", spawner: SPAWNER_RANDOM},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			cfg.Spawner = tt.spawner

			report, err := Evaluate(context.Background(), cfg, zap.NewNop())
			require.NoError(t, err)
			require.Len(t, report.Results, len(pkg.AllStrategies()))

			for i, sr := range report.Results {
				assert.Equal(t, pkg.AllStrategies()[i], sr.Strategy)
				assert.Equal(t, cfg.Trials, len(sr.Trials)+sr.Skipped)
				for _, v := range sr.Trials {
					assert.GreaterOrEqual(t, v, 0.0)
					assert.GreaterOrEqual(t, v, sr.Min)
					assert.LessOrEqual(t, v, sr.Max)
				}
				if len(sr.Trials) > 0 {
					assert.True(t, sr.Min <= sr.Mean && sr.Mean <= sr.Max)
					assert.GreaterOrEqual(t, sr.StdDev, 0.0)
				}
			}
		})
	}
}

func TestEvaluateIsDeterministicAcrossWorkers(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 1
	sequential, err := Evaluate(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	cfg.Workers = 4
	cfg.RoutingWorkers = 2
	parallel, err := Evaluate(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	for i := range sequential.Results {
		assert.Equal(t, sequential.Results[i].Trials, parallel.Results[i].Trials)
	}
}

func TestEvaluateOnGraphFile(t *testing.T) {
	// bidirectional ring of four junctions
	adj := map[da.Index]map[da.Index]float64{
		0: {1: 2, 3: 2},
		1: {0: 2, 2: 2},
		2: {1: 2, 3: 2},
		3: {2: 2, 0: 2},
	}
	g, err := da.NewGraphFromAdjacency(adj)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ring.graph")
	require.NoError(t, g.WriteGraph(path))

	cfg := smallConfig()
	cfg.Trials = 2
	cfg.GraphFile = path
	report, err := Evaluate(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	for _, sr := range report.Results {
		require.Len(t, sr.Trials, cfg.Trials, sr.Name)
		// both trials run on the same network with the same fixed pair
		assert.Equal(t, sr.Trials[0], sr.Trials[1], sr.Name)
		assert.Greater(t, sr.Mean, 0.0)
	}

	cfg.GraphFile = filepath.Join(t.TempDir(), "missing.graph")
	_, err = Evaluate(context.Background(), cfg, zap.NewNop())
	var uerr *util.Error
	require.True(t, errors.As(err, &uerr))
	assert.ErrorIs(t, uerr.Code(), util.ErrBadParamInput)
}

func TestEvaluateRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "no strategies", mutate: func(c *Config) { c.Strategies = nil }},
		{name: "zero trials", mutate: func(c *Config) { c.Trials = 0 }},
		{name: "network too small", mutate: func(c *Config) { c.NumJunctions = 4 }},
		{name: "negative multiplier", mutate: func(c *Config) { c.Multiplier = -1 }},
		{name: "unknown spawner", mutate: func(c *Config) { c.Spawner = "poisson" }},
		{name: "unknown strategy", mutate: func(c *Config) { c.Strategies = []pkg.Strategy{9} }},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			tt.mutate(&cfg)
			_, err := Evaluate(context.Background(), cfg, zap.NewNop())
			require.Error(t, err)

			var uerr *util.Error
			require.True(t, errors.As(err, &uerr))
			assert.ErrorIs(t, uerr.Code(), util.ErrBadParamInput)
		})
	}
}

func TestEvaluateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Evaluate(ctx, smallConfig(), zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportPrint(t *testing.T) {
	report := &Report{
		Results: []StrategyResult{
			{Strategy: pkg.NAIVE, Name: "naive", Trials: []float64{4, 6}},
			{Strategy: pkg.CENTRALIZED, Name: "centralized", Skipped: 2},
		},
	}
	summarize(&report.Results[0])
	summarize(&report.Results[1])
	assert.Equal(t, 5.0, report.Results[0].Mean)
	assert.Equal(t, 4.0, report.Results[0].Min)
	assert.Equal(t, 6.0, report.Results[0].Max)

	var buf bytes.Buffer
	require.NoError(t, report.Print(&buf))
	out := buf.String()
	assert.Contains(t, out, "Evaluating naive")
	assert.Contains(t, out, "Evaluating centralized")
	assert.Contains(t, out, "no data")
	assert.Contains(t, out, "5.0")
}
