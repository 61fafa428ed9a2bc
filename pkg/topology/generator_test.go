package topology

import (
	"testing"

	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

func TestGridConfig(t *testing.T) {
	cfg := GridConfig(12)
	assert.Equal(t, GeneratorConfig{NumJunctions: 12, Width: 7, Height: 7, Connectivity: 6}, cfg)
}

func TestGenerate(t *testing.T) {
	cfg := GridConfig(12)
	g, err := Generate(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, 12, g.NumberOfJunctions())
	assert.Equal(t, 12*cfg.Connectivity, g.NumberOfRoads())

	// corner junctions come first
	assert.Equal(t, 0.0, g.GetJunction(0).GetX())
	assert.Equal(t, 0.0, g.GetJunction(0).GetY())
	assert.Equal(t, 6.0, g.GetJunction(1).GetX())
	assert.Equal(t, 5.0, g.GetJunction(2).GetY())

	positions := make(map[[2]float64]struct{})
	for _, j := range g.GetJunctions() {
		x, y := j.GetX(), j.GetY()
		assert.True(t, x >= 0 && x < 7 && y >= 0 && y < 7, "junction %d outside the box", j.GetID())
		positions[[2]float64{x, y}] = struct{}{}
		assert.Equal(t, cfg.Connectivity, g.GetOutDegree(j.GetID()))
	}
	assert.Len(t, positions, 12, "positions are unique")

	for _, r := range g.GetRoads() {
		from, to := g.GetJunction(r.GetFrom()), g.GetJunction(r.GetTo())
		assert.InDelta(t, from.DistanceTo(to), r.GetBaseDistance(), da.EPS)
	}
}

func TestGenerateNeighboursAreNearest(t *testing.T) {
	cfg := GeneratorConfig{NumJunctions: 30, Width: 20, Height: 20, Connectivity: 4}
	g, err := Generate(cfg, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	for _, j := range g.GetJunctions() {
		farthestLinked := 0.0
		linked := make(map[da.Index]bool)
		g.ForOutRoadsOf(j.GetID(), func(r *da.Road) {
			linked[r.GetTo()] = true
			farthestLinked = max(farthestLinked, r.GetBaseDistance())
		})
		for _, o := range g.GetJunctions() {
			if o.GetID() == j.GetID() || linked[o.GetID()] {
				continue
			}
			assert.GreaterOrEqual(t, j.DistanceTo(o), farthestLinked-da.EPS,
				"junction %d skipped a closer neighbour %d", j.GetID(), o.GetID())
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(GridConfig(12), rand.New(rand.NewSource(77)))
	require.NoError(t, err)
	b, err := Generate(GridConfig(12), rand.New(rand.NewSource(77)))
	require.NoError(t, err)
	assert.Equal(t, a.Adjacency(), b.Adjacency())
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  GeneratorConfig
	}{
		{name: "too few junctions", cfg: GeneratorConfig{NumJunctions: 2, Width: 5, Height: 5, Connectivity: 1}},
		{name: "connectivity too large", cfg: GeneratorConfig{NumJunctions: 5, Width: 5, Height: 5, Connectivity: 5}},
		{name: "connectivity zero", cfg: GeneratorConfig{NumJunctions: 5, Width: 5, Height: 5, Connectivity: 0}},
		{name: "box too small", cfg: GeneratorConfig{NumJunctions: 20, Width: 4, Height: 4, Connectivity: 3}},
		{name: "degenerate box", cfg: GeneratorConfig{NumJunctions: 3, Width: 2, Height: 9, Connectivity: 1}},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.cfg, rand.New(rand.NewSource(1)))
			assert.ErrorIs(t, err, ErrInvalidTopology)
		})
	}
}

func TestGenerateConnected(t *testing.T) {
	g, ok, err := GenerateConnected(GridConfig(12), rand.New(rand.NewSource(4)), 50, zap.NewNop())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, g.IsStronglyConnected())

	probs := SpawnProbabilities(g, rand.New(rand.NewSource(4)))
	require.Len(t, probs, 12)
	for _, p := range probs {
		assert.True(t, p >= 0 && p < 1)
	}
}
