package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lintang-b-s/navsim/pkg"
	"github.com/lintang-b-s/navsim/pkg/experiment"
	"github.com/lintang-b-s/navsim/pkg/util"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port              int           `validate:"gte=1,lte=65535"`
	Timeout           time.Duration `validate:"gt=0"`
	UseRateLimit      bool
	RateLimitRPS      float64 `validate:"gt=0"`
	RateLimitBurst    int     `validate:"gte=1"`
	TopologyCacheSize int     `validate:"gte=1"`
	// MaxStreamArrivals upper bound on target arrivals of a streamed simulation
	MaxStreamArrivals int `validate:"gte=1"`
}

type Config struct {
	Experiment experiment.Config
	Server     ServerConfig
}

func setDefaults() {
	def := experiment.DefaultConfig()
	names := make([]string, 0, len(def.Strategies))
	for _, s := range def.Strategies {
		names = append(names, s.String())
	}

	viper.SetDefault("experiment.strategies", names)
	viper.SetDefault("experiment.trials", def.Trials)
	viper.SetDefault("experiment.target_arrivals", def.TargetArrivals)
	viper.SetDefault("experiment.num_junctions", def.NumJunctions)
	viper.SetDefault("experiment.multiplier", def.Multiplier)
	viper.SetDefault("experiment.seed", def.Seed)
	viper.SetDefault("experiment.spawner", def.Spawner)
	viper.SetDefault("experiment.cars_per_tick", def.CarsPerTick)
	viper.SetDefault("experiment.workers", def.Workers)
	viper.SetDefault("experiment.routing_workers", def.RoutingWorkers)
	viper.SetDefault("experiment.max_ticks", def.MaxTicks)
	viper.SetDefault("experiment.graph_file", "")

	viper.SetDefault("api.port", 6060)
	viper.SetDefault("api.timeout", "120s")
	viper.SetDefault("api.use_rate_limit", false)
	viper.SetDefault("api.rate_limit_rps", 20.0)
	viper.SetDefault("api.rate_limit_burst", 40)
	viper.SetDefault("api.topology_cache_size", 128)
	viper.SetDefault("api.max_stream_arrivals", 10000)
}

// strategyNames accepts a yaml list as well as a comma separated environment variable.
func strategyNames(raw []string) []string {
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, name := range strings.Split(r, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// Load reads ./data/config.* and NAVSIM_* environment overrides on top of the defaults.
func Load() (*Config, error) {
	setDefaults()
	if err := util.ReadConfig(); err != nil {
		return nil, err
	}

	strategies := make([]pkg.Strategy, 0, 4)
	for _, name := range strategyNames(viper.GetStringSlice("experiment.strategies")) {
		s, err := pkg.ParseStrategy(name)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "experiment.strategies")
		}
		strategies = append(strategies, s)
	}

	cfg := &Config{
		Experiment: experiment.Config{
			Strategies:     strategies,
			Trials:         viper.GetInt("experiment.trials"),
			TargetArrivals: viper.GetInt("experiment.target_arrivals"),
			NumJunctions:   viper.GetInt("experiment.num_junctions"),
			Multiplier:     viper.GetFloat64("experiment.multiplier"),
			Seed:           viper.GetUint64("experiment.seed"),
			Spawner:        viper.GetString("experiment.spawner"),
			CarsPerTick:    viper.GetInt("experiment.cars_per_tick"),
			Workers:        viper.GetInt("experiment.workers"),
			RoutingWorkers: viper.GetInt("experiment.routing_workers"),
			MaxTicks:       viper.GetInt("experiment.max_ticks"),
			GraphFile:      viper.GetString("experiment.graph_file"),
		},
		Server: ServerConfig{
			Port:              viper.GetInt("api.port"),
			Timeout:           viper.GetDuration("api.timeout"),
			UseRateLimit:      viper.GetBool("api.use_rate_limit"),
			RateLimitRPS:      viper.GetFloat64("api.rate_limit_rps"),
			RateLimitBurst:    viper.GetInt("api.rate_limit_burst"),
			TopologyCacheSize: viper.GetInt("api.topology_cache_size"),
			MaxStreamArrivals: viper.GetInt("api.max_stream_arrivals"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid configuration")
	}
	return cfg, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("strategies=%v trials=%d target_arrivals=%d junctions=%d spawner=%s port=%d",
		c.Experiment.Strategies, c.Experiment.Trials, c.Experiment.TargetArrivals, c.Experiment.NumJunctions,
		c.Experiment.Spawner, c.Server.Port)
}
