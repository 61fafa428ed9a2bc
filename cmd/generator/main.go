package main

import (
	"flag"

	"github.com/lintang-b-s/navsim/pkg"
	"github.com/lintang-b-s/navsim/pkg/logger"
	"github.com/lintang-b-s/navsim/pkg/topology"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

var (
	numJunctions = flag.Int("n", pkg.DEFAULT_NUM_JUNCTIONS, "number of junctions")
	width        = flag.Int("width", 0, "grid width, 0 derives it from n")
	height       = flag.Int("height", 0, "grid height, 0 derives it from n")
	connectivity = flag.Int("k", pkg.CONNECTIVITY, "nearest neighbours each junction links to")
	seed         = flag.Uint64("seed", 1, "random seed")
	connected    = flag.Bool("connected", false, "regenerate until every junction reaches every other junction")
	attempts     = flag.Int("attempts", 20, "generation attempts when -connected is set")
	out          = flag.String("out", "./data/network.graph", "output file (bzip2 compressed)")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	cfg := topology.GridConfig(*numJunctions)
	if *width > 0 {
		cfg.Width = *width
	}
	if *height > 0 {
		cfg.Height = *height
	}
	cfg.Connectivity = *connectivity
	rng := rand.New(rand.NewSource(*seed))

	if *connected {
		g, ok, err := topology.GenerateConnected(cfg, rng, *attempts, logger)
		if err != nil {
			logger.Fatal("generating network", zap.Error(err))
		}
		if !ok {
			logger.Warn("no strongly connected network found, writing the last attempt", zap.Int("attempts", *attempts))
		}
		write(g.WriteGraph, logger)
		return
	}

	g, err := topology.Generate(cfg, rng)
	if err != nil {
		logger.Fatal("generating network", zap.Error(err))
	}
	write(g.WriteGraph, logger)
}

func write(writeGraph func(string) error, logger *zap.Logger) {
	if err := writeGraph(*out); err != nil {
		logger.Fatal("writing network", zap.Error(err))
	}
	logger.Info("network written", zap.String("file", *out))
}
