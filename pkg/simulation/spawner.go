package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/lintang-b-s/navsim/pkg"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"golang.org/x/exp/rand"
)

var ErrNoConnectedPair = errors.New("network has no connected pair of junctions")

// pickDestination keeps want if source can reach it, otherwise draws up to MAX_DESTINATION_RETRIES random alternates.
// false means the source should be skipped for this tick.
func pickDestination(sim *Simulation, rng *rand.Rand, source, want da.Index) (da.Index, bool) {
	n := sim.Graph().NumberOfJunctions()
	dest := want
	for counter := 0; dest == source || !sim.Connected(source, dest); counter++ {
		if counter >= pkg.MAX_DESTINATION_RETRIES {
			return da.INVALID_INDEX, false
		}
		dest = da.Index(rng.Intn(n))
	}
	return dest, true
}

// FixedPairSpawner. perTick cars every tick, all from the same source to the same destination.
type FixedPairSpawner struct {
	source      da.Index
	destination da.Index
	perTick     int
	rng         *rand.Rand
	skipped     int
}

// NewFixedPairSpawner picks the pair as the last connected (source, destination) of the zero traffic table,
// scanning sources and destinations in junction id order.
func NewFixedPairSpawner(sim *Simulation, perTick int, rng *rand.Rand) (*FixedPairSpawner, error) {
	table := sim.NaiveTable()
	source, destination := da.INVALID_INDEX, da.INVALID_INDEX
	n := sim.Graph().NumberOfJunctions()
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			if _, ok := table.NextHop(da.Index(u), da.Index(v)); ok {
				source, destination = da.Index(u), da.Index(v)
			}
		}
	}
	if source == da.INVALID_INDEX {
		return nil, ErrNoConnectedPair
	}
	if perTick <= 0 {
		perTick = pkg.CARS_PER_TICK_FIXED_PAIR
	}
	return &FixedPairSpawner{
		source:      source,
		destination: destination,
		perTick:     perTick,
		rng:         rng,
	}, nil
}

func (fs *FixedPairSpawner) Pair() (da.Index, da.Index) {
	return fs.source, fs.destination
}

func (fs *FixedPairSpawner) Skipped() int {
	return fs.skipped
}

func (fs *FixedPairSpawner) Spawn(ctx context.Context, sim *Simulation) error {
	for i := 0; i < fs.perTick; i++ {
		dest, ok := pickDestination(sim, fs.rng, fs.source, fs.destination)
		if !ok {
			fs.skipped++
			return nil
		}
		if _, err := sim.Spawn(ctx, fs.source, dest); err != nil {
			return fmt.Errorf("fixed pair spawn: %w", err)
		}
	}
	return nil
}

// RandomSpawner. every junction spawns a car with its own probability each tick, towards a random destination.
type RandomSpawner struct {
	probabilities []float64
	rng           *rand.Rand
	skipped       int
}

func NewRandomSpawner(probabilities []float64, rng *rand.Rand) *RandomSpawner {
	return &RandomSpawner{
		probabilities: probabilities,
		rng:           rng,
	}
}

// Skipped number of spawn attempts abandoned because no reachable destination was drawn.
func (rs *RandomSpawner) Skipped() int {
	return rs.skipped
}

func (rs *RandomSpawner) Spawn(ctx context.Context, sim *Simulation) error {
	n := sim.Graph().NumberOfJunctions()
	for u := 0; u < n && u < len(rs.probabilities); u++ {
		if rs.rng.Float64() >= rs.probabilities[u] {
			continue
		}
		source := da.Index(u)
		dest, ok := pickDestination(sim, rs.rng, source, da.Index(rs.rng.Intn(n)))
		if !ok {
			rs.skipped++
			continue
		}
		if _, err := sim.Spawn(ctx, source, dest); err != nil {
			return fmt.Errorf("random spawn: %w", err)
		}
	}
	return nil
}
