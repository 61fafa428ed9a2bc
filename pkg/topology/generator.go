package topology

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/lintang-b-s/navsim/pkg"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/spatialindex"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

var ErrInvalidTopology = errors.New("invalid topology parameters")

// GeneratorConfig. NumJunctions unique integer points inside a Width x Height box,
// every junction linked to its Connectivity nearest neighbours.
type GeneratorConfig struct {
	NumJunctions int
	Width        int
	Height       int
	Connectivity int
}

// GridConfig square box of side floor(sqrt(n))+4 with the default connectivity.
func GridConfig(n int) GeneratorConfig {
	side := int(math.Sqrt(float64(n))) + 4
	return GeneratorConfig{
		NumJunctions: n,
		Width:        side,
		Height:       side,
		Connectivity: pkg.CONNECTIVITY,
	}
}

func (cfg GeneratorConfig) validate() error {
	switch {
	case cfg.NumJunctions < 3:
		return fmt.Errorf("%w: need at least 3 junctions, got %d", ErrInvalidTopology, cfg.NumJunctions)
	case cfg.Connectivity < 1 || cfg.Connectivity >= cfg.NumJunctions:
		return fmt.Errorf("%w: connectivity %d must be in [1, %d)", ErrInvalidTopology, cfg.Connectivity,
			cfg.NumJunctions)
	case cfg.Width < 3 || cfg.Height < 3:
		return fmt.Errorf("%w: box %dx%d is smaller than 3x3", ErrInvalidTopology, cfg.Width, cfg.Height)
	case cfg.Width*cfg.Height < cfg.NumJunctions:
		return fmt.Errorf("%w: box %dx%d cannot hold %d unique junctions", ErrInvalidTopology, cfg.Width,
			cfg.Height, cfg.NumJunctions)
	}
	return nil
}

// Generate random k-nearest-neighbour road network. the corners (0,0), (h-1,w-1) and (h-2,w-2) are always junctions 0, 1 and 2.
// roads are directed and their base distance is the euclidean distance between the endpoints.
func Generate(cfg GeneratorConfig, rng *rand.Rand) (*da.Graph, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	type point struct{ x, y int }
	seen := make(map[point]struct{}, cfg.NumJunctions)
	points := make([]point, 0, cfg.NumJunctions)
	add := func(p point) bool {
		if _, ok := seen[p]; ok {
			return false
		}
		seen[p] = struct{}{}
		points = append(points, p)
		return true
	}
	add(point{0, 0})
	add(point{cfg.Height - 1, cfg.Width - 1})
	add(point{cfg.Height - 2, cfg.Width - 2})
	for len(points) < cfg.NumJunctions {
		add(point{rng.Intn(cfg.Width), rng.Intn(cfg.Height)})
	}

	b := da.NewGraphBuilder()
	tree := spatialindex.NewRtree()
	for _, p := range points {
		id := b.AddJunction(float64(p.x), float64(p.y))
		tree.Insert(id, r2.Point{X: float64(p.x), Y: float64(p.y)})
	}

	for i, p := range points {
		u := da.Index(i)
		for _, nb := range tree.KNearest(r2.Point{X: float64(p.x), Y: float64(p.y)}, cfg.Connectivity, u) {
			if err := b.AddRoad(u, nb.GetID(), nb.GetDistance()); err != nil {
				return nil, fmt.Errorf("linking junction %d to %d: %w", u, nb.GetID(), err)
			}
		}
	}
	return b.Build(), nil
}

// GenerateConnected like Generate but draws again, up to maxAttempts times, until the network is strongly connected.
// the last drawn network is returned with ok == false when no attempt was strongly connected.
func GenerateConnected(cfg GeneratorConfig, rng *rand.Rand, maxAttempts int, log *zap.Logger) (*da.Graph, bool,
	error) {
	var g *da.Graph
	for attempt := 1; attempt <= max(1, maxAttempts); attempt++ {
		var err error
		g, err = Generate(cfg, rng)
		if err != nil {
			return nil, false, err
		}
		if g.IsStronglyConnected() {
			return g, true, nil
		}
		_, k := g.StronglyConnectedComponents()
		log.Debug("generated topology is not strongly connected", zap.Int("attempt", attempt),
			zap.Int("components", k))
	}
	return g, false, nil
}

// SpawnProbabilities one uniform [0,1) spawn probability per junction.
func SpawnProbabilities(g *da.Graph, rng *rand.Rand) []float64 {
	probs := make([]float64, g.NumberOfJunctions())
	for i := range probs {
		probs[i] = rng.Float64()
	}
	return probs
}
