package config

import (
	"errors"
	"testing"
	"time"

	"github.com/lintang-b-s/navsim/pkg"
	"github.com/lintang-b-s/navsim/pkg/experiment"
	"github.com/lintang-b-s/navsim/pkg/util"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, experiment.DefaultConfig(), cfg.Experiment)
	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Server.Timeout)
	assert.False(t, cfg.Server.UseRateLimit)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("NAVSIM_EXPERIMENT_TRIALS", "3")
	t.Setenv("NAVSIM_EXPERIMENT_STRATEGIES", "naive, dynamic")
	t.Setenv("NAVSIM_EXPERIMENT_SPAWNER", "random")
	t.Setenv("NAVSIM_API_PORT", "8080")
	t.Setenv("NAVSIM_EXPERIMENT_GRAPH_FILE", "./data/network.graph")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Experiment.Trials)
	assert.Equal(t, []pkg.Strategy{pkg.NAIVE, pkg.DECENTRALIZED}, cfg.Experiment.Strategies)
	assert.Equal(t, experiment.SPAWNER_RANDOM, cfg.Experiment.Spawner)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./data/network.graph", cfg.Experiment.GraphFile)
}

func TestLoadRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown strategy", key: "NAVSIM_EXPERIMENT_STRATEGIES", value: "teleport"},
		{name: "zero trials", key: "NAVSIM_EXPERIMENT_TRIALS", value: "0"},
		{name: "port out of range", key: "NAVSIM_API_PORT", value: "70000"},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)

			var uerr *util.Error
			require.True(t, errors.As(err, &uerr))
			assert.ErrorIs(t, uerr.Code(), util.ErrBadParamInput)
		})
	}
}
