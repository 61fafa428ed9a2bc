package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/lintang-b-s/navsim/pkg"
	"github.com/lintang-b-s/navsim/pkg/config"
	"github.com/lintang-b-s/navsim/pkg/experiment"
	"github.com/lintang-b-s/navsim/pkg/logger"
	"go.uber.org/zap"
)

var (
	strategies     = flag.String("strategies", "", "comma separated strategies to compare (naive,fixed,decentralized,centralized)")
	naive          = flag.Bool("naive", false, "run only the naive strategy")
	fixed          = flag.Bool("fixed", false, "run only the fixed route strategy")
	centralized    = flag.Bool("centralized", false, "run only the centralized strategy")
	trials         = flag.Int("trials", 0, "simulations per strategy")
	targetArrivals = flag.Int("target", 0, "arrivals that end one simulation")
	numJunctions   = flag.Int("n", 0, "junctions of each generated network")
	seed           = flag.Uint64("seed", 0, "seed of the first trial")
	spawner        = flag.String("spawner", "", "fixed_pair or random")
	multiplier     = flag.Float64("multiplier", -1, "cost added per car on a road")
	workers        = flag.Int("workers", 0, "trials simulated in parallel")
	graphFile      = flag.String("graph", "", "network file written by cmd/generator, every trial runs on it")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}
	exp := cfg.Experiment
	if err := applyFlags(&exp); err != nil {
		logger.Fatal("invalid flags", zap.Error(err))
	}

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}
	defer cleanup()

	logger.Info("running experiment", zap.Any("strategies", exp.Strategies), zap.Int("trials", exp.Trials),
		zap.Int("target_arrivals", exp.TargetArrivals), zap.Int("junctions", exp.NumJunctions))
	report, err := experiment.Evaluate(ctx, exp, logger)
	if err != nil {
		logger.Fatal("experiment failed", zap.Error(err))
	}
	if err := report.Print(os.Stdout); err != nil {
		logger.Fatal("writing report", zap.Error(err))
	}
}

// applyFlags overrides the loaded configuration with every flag given on the command line.
func applyFlags(exp *experiment.Config) error {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["strategies"] {
		exp.Strategies = exp.Strategies[:0]
		for _, name := range strings.Split(*strategies, ",") {
			s, err := pkg.ParseStrategy(strings.TrimSpace(name))
			if err != nil {
				return err
			}
			exp.Strategies = append(exp.Strategies, s)
		}
	}
	if *naive || *fixed || *centralized {
		exp.Strategies = []pkg.Strategy{pkg.StrategyFromFlags(*fixed, *centralized, *naive)}
	}
	if set["trials"] {
		exp.Trials = *trials
	}
	if set["target"] {
		exp.TargetArrivals = *targetArrivals
	}
	if set["n"] {
		exp.NumJunctions = *numJunctions
	}
	if set["seed"] {
		exp.Seed = *seed
	}
	if set["spawner"] {
		exp.Spawner = *spawner
	}
	if set["multiplier"] {
		exp.Multiplier = *multiplier
	}
	if set["workers"] {
		exp.Workers = *workers
	}
	if set["graph"] {
		exp.GraphFile = *graphFile
	}
	return exp.Validate()
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
