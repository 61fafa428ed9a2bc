package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/lintang-b-s/navsim/pkg"
	"github.com/lintang-b-s/navsim/pkg/concurrent"
	"github.com/lintang-b-s/navsim/pkg/costfunction"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/simulation"
	"github.com/lintang-b-s/navsim/pkg/topology"
	"github.com/lintang-b-s/navsim/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	SPAWNER_FIXED_PAIR = "fixed_pair"
	SPAWNER_RANDOM     = "random"
)

type Config struct {
	Strategies     []pkg.Strategy `json:"strategies" validate:"required,min=1,dive,lte=3"`
	Trials         int            `json:"trials" validate:"required,gte=1,lte=1000"`
	TargetArrivals int            `json:"target_arrivals" validate:"required,gte=1,lte=100000"`
	NumJunctions   int            `json:"num_junctions" validate:"required,gte=7,lte=5000"`
	Multiplier     float64        `json:"multiplier" validate:"gte=0"`
	Seed           uint64         `json:"seed"`
	Spawner        string         `json:"spawner" validate:"required,oneof=fixed_pair random"`
	CarsPerTick    int            `json:"cars_per_tick" validate:"gte=0,lte=1000"`
	Workers        int            `json:"workers" validate:"gte=0,lte=256"`
	RoutingWorkers int            `json:"routing_workers" validate:"gte=0,lte=256"`
	MaxTicks       int            `json:"max_ticks" validate:"gte=0"`
	// GraphFile network written by cmd/generator. every trial runs on it instead of a freshly generated one
	GraphFile string `json:"graph_file,omitempty"`
}

// DefaultConfig the original experiment: 12 junction grid, 30 arrivals, 8 cars per tick on one pair, every strategy.
func DefaultConfig() Config {
	return Config{
		Strategies:     pkg.AllStrategies(),
		Trials:         10,
		TargetArrivals: pkg.DEFAULT_TARGET_ARRIVALS,
		NumJunctions:   pkg.DEFAULT_NUM_JUNCTIONS,
		Multiplier:     pkg.TRAFFIC_MULTIPLIER,
		Seed:           1,
		Spawner:        SPAWNER_FIXED_PAIR,
		CarsPerTick:    pkg.CARS_PER_TICK_FIXED_PAIR,
		Workers:        1,
		RoutingWorkers: 1,
		MaxTicks:       pkg.DEFAULT_MAX_TICKS,
	}
}

var validate = validator.New()

func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return util.WrapErrorf(err, util.ErrBadParamInput, "invalid experiment config")
	}
	return nil
}

// StrategyResult average travel time of every trial of one strategy and its summary statistics.
type StrategyResult struct {
	Strategy pkg.Strategy `json:"-"`
	Name     string       `json:"strategy"`
	Trials   []float64    `json:"trials"`
	Mean     float64      `json:"mean"`
	StdDev   float64      `json:"std_dev"`
	Min      float64      `json:"min"`
	Max      float64      `json:"max"`
	// trials that ended without data: no arrivals before the tick limit
	Skipped int `json:"skipped"`
}

type Report struct {
	Config  Config           `json:"config"`
	Results []StrategyResult `json:"results"`
}

type trialJob struct {
	strategyIdx int
	strategy    pkg.Strategy
	trial       int
}

type trialResult struct {
	job     trialJob
	average float64
	ok      bool
	err     error
}

/*
Evaluate runs cfg.Trials independent trials per strategy and summarizes their average travel times.

trial i of every strategy uses the same seed (cfg.Seed + i), so all strategies are compared on the same
generated networks and spawn sequences. trials run on a worker pool of cfg.Workers goroutines.
*/
func Evaluate(ctx context.Context, cfg Config, log *zap.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	costFunction, err := costfunction.NewCongestionCostFunction(cfg.Multiplier)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid traffic multiplier")
	}

	var network *da.Graph
	if cfg.GraphFile != "" {
		network, err = da.ReadGraph(cfg.GraphFile)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "reading network %s", cfg.GraphFile)
		}
		log.Info("loaded network", zap.String("file", cfg.GraphFile),
			zap.Int("junctions", network.NumberOfJunctions()), zap.Int("roads", network.NumberOfRoads()))
	}

	jobs := make([]trialJob, 0, len(cfg.Strategies)*cfg.Trials)
	for si, strategy := range cfg.Strategies {
		for trial := 0; trial < cfg.Trials; trial++ {
			jobs = append(jobs, trialJob{strategyIdx: si, strategy: strategy, trial: trial})
		}
	}

	log.Info("running experiment", zap.Int("strategies", len(cfg.Strategies)), zap.Int("trials", cfg.Trials),
		zap.Int("junctions", cfg.NumJunctions), zap.Int("target_arrivals", cfg.TargetArrivals),
		zap.String("spawner", cfg.Spawner))

	results := concurrent.Run(ctx, max(cfg.Workers, 1), jobs, func(ctx context.Context, job trialJob) trialResult {
		avg, ok, err := runTrial(ctx, cfg, costFunction, network, job, log)
		return trialResult{job: job, average: avg, ok: ok, err: err}
	})

	report := &Report{
		Config:  cfg,
		Results: make([]StrategyResult, len(cfg.Strategies)),
	}
	for i, strategy := range cfg.Strategies {
		report.Results[i] = StrategyResult{Strategy: strategy, Name: strategy.String(), Trials: make([]float64, 0,
			cfg.Trials)}
	}
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		sr := &report.Results[res.job.strategyIdx]
		if !res.ok {
			sr.Skipped++
			continue
		}
		sr.Trials = append(sr.Trials, res.average)
	}

	for i := range report.Results {
		summarize(&report.Results[i])
		log.Info("strategy evaluated", zap.String("strategy", report.Results[i].Name),
			zap.Float64("mean", report.Results[i].Mean), zap.Int("skipped", report.Results[i].Skipped))
	}
	return report, nil
}

// runTrial simulates one trial. network is used as is when non nil, otherwise a topology is generated from the trial seed.
func runTrial(ctx context.Context, cfg Config, costFunction costfunction.CostFunction, network *da.Graph,
	job trialJob, log *zap.Logger) (float64, bool, error) {
	rng := rand.New(rand.NewSource(cfg.Seed + uint64(job.trial)))

	graph := network
	if graph == nil {
		var err error
		graph, err = topology.Generate(topology.GridConfig(cfg.NumJunctions), rng)
		if err != nil {
			return 0, false, util.WrapErrorf(err, util.ErrBadParamInput, "generating topology")
		}
	}
	if !graph.IsStronglyConnected() {
		_, k := graph.StronglyConnectedComponents()
		log.Debug("trial topology is not strongly connected", zap.Int("trial", job.trial), zap.Int("components", k))
	}

	sim, err := simulation.NewSimulation(ctx, graph, costFunction, job.strategy, log,
		simulation.WithWorkers(max(cfg.RoutingWorkers, 1)), simulation.WithMaxTicks(cfg.MaxTicks))
	if err != nil {
		return 0, false, err
	}

	var spawner simulation.Spawner
	switch cfg.Spawner {
	case SPAWNER_RANDOM:
		spawner = simulation.NewRandomSpawner(topology.SpawnProbabilities(graph, rng), rng)
	default:
		fixedPair, err := simulation.NewFixedPairSpawner(sim, cfg.CarsPerTick, rng)
		if errors.Is(err, simulation.ErrNoConnectedPair) {
			log.Warn("trial skipped", zap.String("strategy", job.strategy.String()), zap.Int("trial", job.trial),
				zap.Error(err))
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		spawner = fixedPair
	}

	arrived, err := sim.RunUntil(ctx, cfg.TargetArrivals, spawner)
	if errors.Is(err, simulation.ErrTickLimit) {
		log.Warn("trial skipped", zap.String("strategy", job.strategy.String()), zap.Int("trial", job.trial),
			zap.Error(err))
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s trial %d: %w", job.strategy, job.trial, err)
	}

	avg, ok := simulation.AverageTravelTime(arrived)
	log.Debug("trial done", zap.String("strategy", job.strategy.String()), zap.Int("trial", job.trial),
		zap.Float64("average", avg), zap.Int("ticks", sim.Clock()), zap.Int("spawned", sim.SpawnedCount()))
	return avg, ok, nil
}

func summarize(sr *StrategyResult) {
	if len(sr.Trials) == 0 {
		return
	}
	sr.Mean, sr.StdDev = stat.MeanStdDev(sr.Trials, nil)
	if len(sr.Trials) == 1 {
		sr.StdDev = 0
	}
	sr.Min = floats.Min(sr.Trials)
	sr.Max = floats.Max(sr.Trials)
}

// Print per trial results with the running average, then one summary line per strategy.
func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, sr := range r.Results {
		fmt.Fprintf(tw, "Evaluating %s\n", sr.Name)
		fmt.Fprintln(tw, "trial\tresult\taverage of all trials")
		sum := 0.0
		for i, v := range sr.Trials {
			sum += v
			fmt.Fprintf(tw, "%d\t%.1f\t%.1f\n", i+1, v, sum/float64(i+1))
		}
		if sr.Skipped > 0 {
			fmt.Fprintf(tw, "skipped\t%d\t\n", sr.Skipped)
		}
		fmt.Fprintln(tw)
	}

	fmt.Fprintln(tw, "strategy\tmean\tstd dev\tmin\tmax\ttrials\tskipped")
	for _, sr := range r.Results {
		if len(sr.Trials) == 0 {
			fmt.Fprintf(tw, "%s\tno data\t\t\t\t0\t%d\n", sr.Name, sr.Skipped)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.1f\t%.2f\t%.1f\t%.1f\t%d\t%d\n", sr.Name, sr.Mean, sr.StdDev, sr.Min, sr.Max,
			len(sr.Trials), sr.Skipped)
	}
	return tw.Flush()
}
