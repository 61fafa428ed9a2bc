package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/lintang-b-s/navsim/pkg"
	"github.com/lintang-b-s/navsim/pkg/costfunction"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/engine/routing"
	"github.com/lintang-b-s/navsim/pkg/metrics"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrUnreachablePair = errors.New("destination is unreachable from source")
	ErrSameJunction    = errors.New("source and destination are the same junction")
	ErrTickLimit       = errors.New("tick limit reached before the target number of arrivals")
)

type options struct {
	workers  int
	maxTicks int
}

type Option func(*options)

// WithWorkers parallelism of every routing table build.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMaxTicks upper bound on the clock for RunUntil, 0 disables it.
func WithMaxTicks(n int) Option {
	return func(o *options) {
		o.maxTicks = n
	}
}

// Simulation. one run of the congestion model: a static road network, the cars currently in it and the clock.
// a Simulation is driven by a single goroutine.
type Simulation struct {
	graph        *da.Graph
	costFunction costfunction.CostFunction
	strategy     pkg.Strategy
	opts         options

	// live traffic and road costs, rebuilt every tick
	live *metrics.Metric
	// full table on zero traffic, decides which pairs are connected at all
	naiveTable *routing.RoutingTable
	// full table on the live costs, built lazily between ticks for fixed route spawns
	spawnTable routing.Router

	cars    []*Car
	arrived []*Car

	nextCarId int
	spawned   int
	clock     int

	log *zap.Logger
}

func NewSimulation(ctx context.Context, graph *da.Graph, costFunction costfunction.CostFunction,
	strategy pkg.Strategy, log *zap.Logger, opts ...Option) (*Simulation, error) {
	o := options{workers: 1, maxTicks: pkg.DEFAULT_MAX_TICKS}
	for _, opt := range opts {
		opt(&o)
	}

	zeroTraffic := metrics.NewZeroTrafficMetric(graph, costFunction)
	naiveTable, err := routing.BuildFullRoutingTable(ctx, graph, zeroTraffic, routing.WithWorkers(o.workers))
	if err != nil {
		return nil, fmt.Errorf("building zero traffic routing table: %w", err)
	}

	return &Simulation{
		graph:        graph,
		costFunction: costFunction,
		strategy:     strategy,
		opts:         o,
		live:         zeroTraffic.Clone(),
		naiveTable:   naiveTable,
		cars:         make([]*Car, 0, 64),
		arrived:      make([]*Car, 0, 64),
		log:          log,
	}, nil
}

func (s *Simulation) Graph() *da.Graph {
	return s.graph
}

func (s *Simulation) Strategy() pkg.Strategy {
	return s.strategy
}

// NaiveTable routing table over zero traffic costs for every junction.
func (s *Simulation) NaiveTable() *routing.RoutingTable {
	return s.naiveTable
}

// Connected whether destination can be reached from source at all.
func (s *Simulation) Connected(source, destination da.Index) bool {
	_, ok := s.naiveTable.NextHop(source, destination)
	return ok
}

// Cars cars currently in the network, waiting or traveling.
func (s *Simulation) Cars() []*Car {
	return s.cars
}

// Arrived every car that reached its destination, in arrival order.
func (s *Simulation) Arrived() []*Car {
	return s.arrived
}

func (s *Simulation) SpawnedCount() int {
	return s.spawned
}

func (s *Simulation) TravelingCount() int {
	return len(s.cars)
}

func (s *Simulation) ArrivedCount() int {
	return len(s.arrived)
}

func (s *Simulation) Clock() int {
	return s.clock
}

// LiveMetric traffic and road costs as left by the last tick.
func (s *Simulation) LiveMetric() *metrics.Metric {
	return s.live
}

/*
Spawn a new car at source bound for destination. the car waits at source until the next tick routes it.
pairs that are not connected are refused with ErrUnreachablePair.

under the fixed route strategy the whole route is computed here from the current live costs.
*/
func (s *Simulation) Spawn(ctx context.Context, source, destination da.Index) (*Car, error) {
	if !s.graph.HasJunction(source) || !s.graph.HasJunction(destination) {
		return nil, fmt.Errorf("spawn %d -> %d: %w", source, destination, da.ErrJunctionNotFound)
	}
	if source == destination {
		return nil, fmt.Errorf("spawn %d -> %d: %w", source, destination, ErrSameJunction)
	}
	if !s.Connected(source, destination) {
		return nil, fmt.Errorf("spawn %d -> %d: %w", source, destination, ErrUnreachablePair)
	}

	car := newCar(s.nextCarId, source, destination)
	if s.strategy == pkg.FIXED_ROUTE {
		if s.spawnTable == nil {
			table, err := routing.BuildFullRoutingTable(ctx, s.graph, s.live, routing.WithWorkers(s.opts.workers))
			if err != nil {
				return nil, fmt.Errorf("building fixed route table: %w", err)
			}
			s.spawnTable = table
		}
		route, err := s.spawnTable.Route(source, destination)
		if err != nil {
			return nil, fmt.Errorf("spawn %d -> %d: %w", source, destination, err)
		}
		car.SetFixedRoute(route)
	}

	s.nextCarId++
	s.spawned++
	s.cars = append(s.cars, car)
	return car, nil
}

/*
Tick. advance the whole network by one unit of time.

 1. every car advances, cars reaching their destination leave the network.
 2. the live traffic snapshot is rebuilt from the cars that are on a road.
 3. every waiting car gets a next hop according to the routing strategy, each assignment adds
    its car to the live traffic right away.

returns the cars that arrived during this tick. when routing fails the tick still counts: arrivals are recorded
and the clock moves on, waiting cars are retried on the next tick.
*/
func (s *Simulation) Tick(ctx context.Context) ([]*Car, error) {
	arrived := make([]*Car, 0)
	waiting := make([]*Car, 0)
	starts := make([]da.Index, 0)
	startSeen := make(map[da.Index]struct{})

	remaining := s.cars[:0]
	for _, car := range s.cars {
		switch car.Advance() {
		case Arrived:
			arrived = append(arrived, car)
			continue
		case Waiting:
			waiting = append(waiting, car)
			if _, ok := startSeen[car.current]; !ok {
				startSeen[car.current] = struct{}{}
				starts = append(starts, car.current)
			}
		}
		remaining = append(remaining, car)
	}
	for i := len(remaining); i < len(s.cars); i++ {
		s.cars[i] = nil
	}
	s.cars = remaining

	s.rebuildLiveMetric()

	// advancement is committed before routing, a failed routing phase leaves the waiting cars without a next hop
	s.clock++
	s.spawnTable = nil
	s.arrived = append(s.arrived, arrived...)

	var err error
	switch s.strategy {
	case pkg.FIXED_ROUTE:
		err = s.routeFixed(waiting)
	case pkg.NAIVE:
		err = s.routeWithTable(waiting, s.naiveTable)
	case pkg.DECENTRALIZED:
		err = s.routeDecentralized(ctx, waiting, starts)
	case pkg.CENTRALIZED:
		err = s.routeCentralized(ctx, waiting, starts)
	default:
		err = fmt.Errorf("unknown routing strategy %v", s.strategy)
	}
	if err != nil {
		return arrived, err
	}

	if pkg.DEBUG {
		for _, car := range s.cars {
			s.log.Sugar().Debugf("tick %d %s", s.clock, car)
		}
	}
	return arrived, nil
}

func (s *Simulation) rebuildLiveMetric() {
	s.live.Reset()
	for _, car := range s.cars {
		if next, ok := car.GetNext(); ok {
			roadId, found := s.graph.GetRoadBetween(car.current, next)
			if !found {
				panic(fmt.Sprintf("car %d is on a road %d -> %d that does not exist", car.id, car.current, next))
			}
			s.live.AddTraffic(roadId)
		}
	}
}

// assign puts car on the road to next at its live cost and counts it in the live traffic.
func (s *Simulation) assign(car *Car, next da.Index) error {
	roadId, ok := s.graph.GetRoadBetween(car.current, next)
	if !ok {
		return fmt.Errorf("car %d: no road %d -> %d", car.id, car.current, next)
	}
	car.AssignNextHop(next, s.live.GetWeight(roadId))
	s.live.AddTraffic(roadId)
	return nil
}

func (s *Simulation) routeFixed(waiting []*Car) error {
	for _, car := range waiting {
		next, ok := car.PopFixedRoute()
		if !ok {
			s.log.Debug("car has no fixed route left", zap.Int("car", car.id),
				zap.Uint32("junction", uint32(car.current)))
			continue
		}
		if err := s.assign(car, next); err != nil {
			return err
		}
	}
	return nil
}

// routeWithTable. a car whose destination is unreachable from its junction keeps waiting and is retried next tick.
func (s *Simulation) routeWithTable(waiting []*Car, table routing.Router) error {
	for _, car := range waiting {
		if err := s.routeOne(car, table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulation) routeOne(car *Car, table routing.Router) error {
	next, ok := table.NextHop(car.current, car.destination)
	if !ok {
		s.log.Debug("no next hop for waiting car", zap.Int("car", car.id),
			zap.Uint32("junction", uint32(car.current)), zap.Uint32("destination", uint32(car.destination)))
		return nil
	}
	return s.assign(car, next)
}

func (s *Simulation) routeDecentralized(ctx context.Context, waiting []*Car, starts []da.Index) error {
	if len(waiting) == 0 {
		return nil
	}
	table, err := routing.BuildRoutingTable(ctx, s.graph, s.live, starts, routing.WithWorkers(s.opts.workers))
	if err != nil {
		return fmt.Errorf("building routing table at tick %d: %w", s.clock, err)
	}
	return s.routeWithTable(waiting, table)
}

// routeCentralized rebuilds the table after every assignment so later cars see the traffic added by earlier ones.
func (s *Simulation) routeCentralized(ctx context.Context, waiting []*Car, starts []da.Index) error {
	if len(waiting) == 0 {
		return nil
	}
	rebuilds := 0
	table, err := routing.BuildRoutingTable(ctx, s.graph, s.live, starts, routing.WithWorkers(s.opts.workers))
	if err != nil {
		return fmt.Errorf("building routing table at tick %d: %w", s.clock, err)
	}
	for i, car := range waiting {
		if err := s.routeOne(car, table); err != nil {
			return err
		}
		if i == len(waiting)-1 {
			break
		}
		table, err = routing.BuildRoutingTable(ctx, s.graph, s.live, starts, routing.WithWorkers(s.opts.workers))
		if err != nil {
			return fmt.Errorf("rebuilding routing table at tick %d: %w", s.clock, err)
		}
		rebuilds++
	}
	s.log.Debug("centralized routing", zap.Int("tick", s.clock), zap.Int("waiting", len(waiting)),
		zap.Int("sources", len(starts)), zap.Int("rebuilds", rebuilds))
	return nil
}

// Spawner adds new cars to a simulation, called once before every tick.
type Spawner interface {
	Spawn(ctx context.Context, sim *Simulation) error
}

/*
RunUntil spawns and ticks until at least target cars have arrived, then returns the first target arrivals.
it stops with ErrTickLimit once the clock reaches the configured maximum and with ctx.Err() on cancellation.
spawner may be nil when the cars were spawned up front.
*/
func (s *Simulation) RunUntil(ctx context.Context, target int, spawner Spawner) ([]*Car, error) {
	for len(s.arrived) < target {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.opts.maxTicks > 0 && s.clock >= s.opts.maxTicks {
			return nil, fmt.Errorf("%w: %d of %d arrivals after %d ticks", ErrTickLimit, len(s.arrived), target,
				s.clock)
		}
		if spawner != nil {
			if err := spawner.Spawn(ctx, s); err != nil {
				return nil, err
			}
		}
		if _, err := s.Tick(ctx); err != nil {
			return nil, err
		}
	}

	n := max(target, 0)
	result := make([]*Car, n)
	copy(result, s.arrived[:n])
	return result, nil
}

// AverageTravelTime mean elapsed time of cars. false when cars is empty.
func AverageTravelTime(cars []*Car) (float64, bool) {
	if len(cars) == 0 {
		return 0, false
	}
	elapsed := make([]float64, len(cars))
	for i, car := range cars {
		elapsed[i] = float64(car.elapsed)
	}
	return stat.Mean(elapsed, nil), true
}
