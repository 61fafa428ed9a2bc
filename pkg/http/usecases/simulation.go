package usecases

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/navsim/pkg"
	"github.com/lintang-b-s/navsim/pkg/costfunction"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/engine/routing"
	"github.com/lintang-b-s/navsim/pkg/experiment"
	"github.com/lintang-b-s/navsim/pkg/metrics"
	"github.com/lintang-b-s/navsim/pkg/simulation"
	"github.com/lintang-b-s/navsim/pkg/topology"
	"github.com/lintang-b-s/navsim/pkg/util"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

var ErrPathNotFound = errors.New("path not found")

type topologyKey struct {
	seed uint64
	n    int
}

// SimulationService. generated networks are cached by (seed, number of junctions), they are immutable once built.
type SimulationService struct {
	log        *zap.Logger
	topologies *lru.Cache[topologyKey, *da.Graph]
	evaluate   Evaluator
	maxTicks   int
}

func NewSimulationService(log *zap.Logger, cacheSize int, evaluate Evaluator) (*SimulationService, error) {
	cache, err := lru.New[topologyKey, *da.Graph](cacheSize)
	if err != nil {
		return nil, err
	}
	if evaluate == nil {
		evaluate = experiment.Evaluate
	}
	return &SimulationService{
		log:        log,
		topologies: cache,
		evaluate:   evaluate,
		maxTicks:   pkg.DEFAULT_MAX_TICKS,
	}, nil
}

// Topology network generated for seed with n junctions, from cache when available.
func (ss *SimulationService) Topology(seed uint64, n int) (*da.Graph, error) {
	key := topologyKey{seed: seed, n: n}
	if g, ok := ss.topologies.Get(key); ok {
		return g, nil
	}
	g, err := topology.Generate(topology.GridConfig(n), rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "generating topology")
	}
	ss.topologies.Add(key, g)
	return g, nil
}

func (ss *SimulationService) CachedTopologies() int {
	return ss.topologies.Len()
}

// Route. zero traffic shortest path. returns the junction sequence including source, its cost and
// the junction positions as an encoded polyline.
func (ss *SimulationService) Route(seed uint64, n int, source, destination da.Index) ([]da.Index, float64,
	string, error) {
	g, err := ss.Topology(seed, n)
	if err != nil {
		return nil, 0, "", err
	}
	if !g.HasJunction(source) || !g.HasJunction(destination) {
		return nil, 0, "", util.WrapErrorf(da.ErrJunctionNotFound, util.ErrNotFound,
			"junction %d or %d is not in a network of %d junctions", source, destination, g.NumberOfJunctions())
	}

	weights := metrics.NewZeroTrafficMetric(g, costfunction.NewDefaultCongestionCostFunction())
	tree := routing.NewDijkstra(g, weights).ShortestPath(source)
	path := tree.PathTo(destination)
	if path == nil {
		return nil, 0, "", util.WrapErrorf(ErrPathNotFound, util.ErrNotFound, "no path from %d to %d", source,
			destination)
	}

	coords := make([][]float64, 0, len(path))
	for _, v := range path {
		j := g.GetJunction(v)
		coords = append(coords, []float64{j.GetY(), j.GetX()})
	}
	return path, tree.Distance(destination), string(polyline.EncodeCoords(coords)), nil
}

func (ss *SimulationService) RunExperiment(ctx context.Context, cfg experiment.Config) (*experiment.Report, error) {
	return ss.evaluate(ctx, cfg, ss.log)
}

type StreamRequest struct {
	Strategy       pkg.Strategy
	Seed           uint64
	NumJunctions   int
	TargetArrivals int
	Multiplier     float64
	Spawner        string
	CarsPerTick    int
}

// TickFrame state of a streamed simulation after one tick.
type TickFrame struct {
	Tick            int     `json:"tick"`
	Spawned         int     `json:"spawned"`
	Traveling       int     `json:"traveling"`
	Arrived         int     `json:"arrived"`
	ArrivedThisTick int     `json:"arrived_this_tick"`
	TotalTraffic    int     `json:"total_traffic"`
	AverageTime     float64 `json:"average_travel_time"`
	Done            bool    `json:"done"`
}

/*
Stream runs one simulation and calls onTick after every tick until req.TargetArrivals cars arrived.
an error returned by onTick stops the run and is returned as is.
*/
func (ss *SimulationService) Stream(ctx context.Context, req StreamRequest, onTick func(TickFrame) error) error {
	g, err := ss.Topology(req.Seed, req.NumJunctions)
	if err != nil {
		return err
	}
	cf, err := costfunction.NewCongestionCostFunction(req.Multiplier)
	if err != nil {
		return util.WrapErrorf(err, util.ErrBadParamInput, "invalid traffic multiplier")
	}
	sim, err := simulation.NewSimulation(ctx, g, cf, req.Strategy, ss.log)
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "creating simulation")
	}

	rng := rand.New(rand.NewSource(req.Seed))
	var spawner simulation.Spawner
	if req.Spawner == experiment.SPAWNER_RANDOM {
		spawner = simulation.NewRandomSpawner(topology.SpawnProbabilities(g, rng), rng)
	} else {
		spawner, err = simulation.NewFixedPairSpawner(sim, req.CarsPerTick, rng)
		if err != nil {
			return util.WrapErrorf(err, util.ErrBadParamInput, "choosing spawn pair")
		}
	}

	for sim.ArrivedCount() < req.TargetArrivals {
		if util.StopConcurrentOperation(ctx) {
			return ctx.Err()
		}
		if sim.Clock() >= ss.maxTicks {
			return util.WrapErrorf(simulation.ErrTickLimit, util.ErrInternalServerError,
				"%d of %d arrivals after %d ticks", sim.ArrivedCount(), req.TargetArrivals, sim.Clock())
		}
		if err := spawner.Spawn(ctx, sim); err != nil {
			return fmt.Errorf("spawning cars: %w", err)
		}
		arrived, err := sim.Tick(ctx)
		if err != nil {
			return fmt.Errorf("tick %d: %w", sim.Clock(), err)
		}

		avg, _ := simulation.AverageTravelTime(sim.Arrived())
		frame := TickFrame{
			Tick:            sim.Clock(),
			Spawned:         sim.SpawnedCount(),
			Traveling:       sim.TravelingCount(),
			Arrived:         sim.ArrivedCount(),
			ArrivedThisTick: len(arrived),
			TotalTraffic:    sim.LiveMetric().TotalTraffic(),
			AverageTime:     util.RoundFloat(avg, 3),
			Done:            sim.ArrivedCount() >= req.TargetArrivals,
		}
		if err := onTick(frame); err != nil {
			return err
		}
	}
	return nil
}
