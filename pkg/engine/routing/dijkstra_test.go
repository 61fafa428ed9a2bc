package routing

import (
	"context"
	"math"
	"testing"

	"github.com/lintang-b-s/navsim/pkg/costfunction"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

type pairEdge struct {
	to     int
	weight float64
}

func newPairEdge(to int, weight float64) pairEdge {
	return pairEdge{to, weight}
}

func buildGraph(t *testing.T, n int, adjList [][]pairEdge) *da.Graph {
	t.Helper()
	b := da.NewGraphBuilder()
	for i := 0; i < n; i++ {
		b.AddJunction(float64(i), 0)
	}
	for from, edges := range adjList {
		for _, e := range edges {
			require.NoError(t, b.AddRoad(da.Index(from), da.Index(e.to), e.weight))
		}
	}
	return b.Build()
}

func zeroTraffic(g *da.Graph) *metrics.Metric {
	return metrics.NewZeroTrafficMetric(g, costfunction.NewDefaultCongestionCostFunction())
}

// bruteForceDistances enumerates every simple path from s.
func bruteForceDistances(g *da.Graph, weights WeightProvider, s da.Index) []float64 {
	n := g.NumberOfJunctions()
	best := make([]float64, n)
	for i := range best {
		best[i] = math.Inf(1)
	}
	onPath := make([]bool, n)

	var walk func(u da.Index, cost float64)
	walk = func(u da.Index, cost float64) {
		if cost < best[u] {
			best[u] = cost
		}
		onPath[u] = true
		g.ForOutRoadsOf(u, func(r *da.Road) {
			if !onPath[r.GetTo()] {
				walk(r.GetTo(), cost+weights.GetWeight(r.GetRoadId()))
			}
		})
		onPath[u] = false
	}
	walk(s, 0)
	return best
}

func randomGraph(t *testing.T, rng *rand.Rand, n int, density float64) *da.Graph {
	t.Helper()
	adj := make([][]pairEdge, n)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			if u != v && rng.Float64() < density {
				adj[u] = append(adj[u], newPairEdge(v, float64(1+rng.Intn(20))))
			}
		}
	}
	return buildGraph(t, n, adj)
}

func TestDijkstraSmallGraph(t *testing.T) {
	// 0 -1-> 1 -1-> 2, 0 -5-> 2, 2 -2-> 3, 4 isolated
	g := buildGraph(t, 5, [][]pairEdge{
		{newPairEdge(1, 1), newPairEdge(2, 5)},
		{newPairEdge(2, 1)},
		{newPairEdge(3, 2)},
		{},
		{},
	})
	weights := metrics.NewZeroTrafficMetric(g, mustCost(t, 0))

	tree := NewDijkstra(g, weights).ShortestPath(0)

	assert.Equal(t, []float64{0, 1, 2, 4, math.Inf(1)}, tree.Distances())

	_, ok := tree.Predecessor(0)
	assert.False(t, ok, "source has no predecessor")
	p, ok := tree.Predecessor(2)
	require.True(t, ok)
	assert.Equal(t, da.Index(1), p)
	_, ok = tree.Predecessor(4)
	assert.False(t, ok, "unreachable junction has no predecessor")
	assert.False(t, tree.Reachable(4))

	assert.Equal(t, []da.Index{0, 1, 2, 3}, tree.PathTo(3))
	assert.Nil(t, tree.PathTo(4))
	assert.Equal(t, []da.Index{0}, tree.PathTo(0))
}

func TestDijkstraMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 30; trial++ {
		n := 2 + rng.Intn(9)
		g := randomGraph(t, rng, n, 0.3)
		weights := zeroTraffic(g)
		// some congestion so costs differ from base distances
		for i := 0; i < g.NumberOfRoads(); i++ {
			if rng.Intn(3) == 0 {
				weights.AddTraffic(da.Index(i))
			}
		}

		d := NewDijkstra(g, weights)
		for s := 0; s < n; s++ {
			tree := d.ShortestPath(da.Index(s))
			want := bruteForceDistances(g, weights, da.Index(s))
			for v := 0; v < n; v++ {
				got := tree.Distance(da.Index(v))
				if math.IsInf(want[v], 1) {
					assert.True(t, math.IsInf(got, 1), "trial %d: %d -> %d should be unreachable", trial, s, v)
					_, ok := tree.Predecessor(da.Index(v))
					assert.False(t, ok)
					continue
				}
				assert.InDelta(t, want[v], got, da.EPS, "trial %d: %d -> %d", trial, s, v)

				// predecessor is consistent with the distance
				if v != s {
					p, ok := tree.Predecessor(da.Index(v))
					require.True(t, ok)
					roadId, ok := g.GetRoadBetween(p, da.Index(v))
					require.True(t, ok)
					assert.InDelta(t, got, tree.Distance(p)+weights.GetWeight(roadId), da.EPS)
				}
			}
		}
	}
}

func TestDijkstraMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 10; trial++ {
		n := 10 + rng.Intn(20)
		g := randomGraph(t, rng, n, 0.15)
		weights := zeroTraffic(g)

		wg := simple.NewWeightedDirectedGraph(0, math.Inf(1))
		for v := 0; v < n; v++ {
			wg.AddNode(simple.Node(v))
		}
		for _, r := range g.GetRoads() {
			wg.SetWeightedEdge(simple.WeightedEdge{
				F: simple.Node(r.GetFrom()),
				T: simple.Node(r.GetTo()),
				W: weights.GetWeight(r.GetRoadId()),
			})
		}

		for s := 0; s < n; s++ {
			tree := NewDijkstra(g, weights).ShortestPath(da.Index(s))
			oracle := path.DijkstraFrom(simple.Node(s), wg)
			for v := 0; v < n; v++ {
				want := oracle.WeightTo(int64(v))
				got := tree.Distance(da.Index(v))
				if math.IsInf(want, 1) {
					assert.True(t, math.IsInf(got, 1))
					continue
				}
				assert.InDelta(t, want, got, da.EPS)
			}
		}
	}
}

func TestRoutingTableConsistentWithShortestPaths(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 15; trial++ {
		n := 3 + rng.Intn(8)
		g := randomGraph(t, rng, n, 0.35)
		weights := zeroTraffic(g)
		for i := 0; i < g.NumberOfRoads(); i++ {
			weights.SetTraffic(da.Index(i), rng.Intn(3))
		}

		for _, workers := range []int{1, 4} {
			rt, err := BuildFullRoutingTable(context.Background(), g, weights, WithWorkers(workers))
			require.NoError(t, err)

			for s := 0; s < n; s++ {
				want := bruteForceDistances(g, weights, da.Index(s))
				for d := 0; d < n; d++ {
					src, dst := da.Index(s), da.Index(d)
					hop, ok := rt.NextHop(src, dst)
					if s == d {
						assert.False(t, ok, "no next hop to itself")
						continue
					}
					if math.IsInf(want[d], 1) {
						assert.False(t, ok, "%d -> %d should be unreachable", s, d)
						assert.Equal(t, da.INVALID_INDEX, hop)
						_, err := rt.Route(src, dst)
						assert.ErrorIs(t, err, ErrNoRoute)
						continue
					}
					require.True(t, ok, "%d -> %d should be reachable", s, d)

					// walking next hops and summing live costs gives the shortest distance
					route, err := rt.Route(src, dst)
					require.NoError(t, err)
					require.Equal(t, dst, route[len(route)-1])
					sum := 0.0
					cur := src
					for _, next := range route {
						roadId, ok := g.GetRoadBetween(cur, next)
						require.True(t, ok, "route uses missing road %d -> %d", cur, next)
						sum += weights.GetWeight(roadId)
						cur = next
					}
					assert.InDelta(t, want[d], sum, da.EPS)

					dist, ok := rt.Distance(src, dst)
					require.True(t, ok)
					assert.InDelta(t, want[d], dist, da.EPS)
				}
			}
		}
	}
}

func TestRoutingTableActiveSet(t *testing.T) {
	// junction 2 has no outgoing road and nothing reaches junction 3
	g := buildGraph(t, 4, [][]pairEdge{
		{newPairEdge(1, 1), newPairEdge(2, 4)},
		{newPairEdge(2, 1)},
		{},
		{newPairEdge(0, 1)},
	})
	weights := zeroTraffic(g)

	rt, err := BuildRoutingTable(context.Background(), g, weights, []da.Index{0, 0, 2})
	require.NoError(t, err)

	assert.Equal(t, []da.Index{0, 2}, rt.Sources())
	assert.False(t, rt.HasSource(1))

	hop, ok := rt.NextHop(0, 2)
	require.True(t, ok)
	assert.Equal(t, da.Index(1), hop)

	_, ok = rt.NextHop(0, 3)
	assert.False(t, ok, "nothing reaches junction 3")
	_, ok = rt.NextHop(2, 0)
	assert.False(t, ok, "junction 2 is a dead end")
	_, ok = rt.NextHop(1, 2)
	assert.False(t, ok, "table was not built for junction 1")

	// route from 0 to 2 passes through 1, which is not a source of this table
	_, err = rt.Route(0, 2)
	assert.ErrorIs(t, err, ErrNoRoute)
	_, err = rt.Route(1, 2)
	assert.ErrorIs(t, err, ErrUnknownSource)

	_, err = BuildRoutingTable(context.Background(), g, weights, []da.Index{9})
	assert.ErrorIs(t, err, da.ErrJunctionNotFound)
}

func TestBuildRoutingTableCanceled(t *testing.T) {
	g := buildGraph(t, 3, [][]pairEdge{{newPairEdge(1, 1)}, {newPairEdge(2, 1)}, {}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildFullRoutingTable(ctx, g, zeroTraffic(g))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = BuildFullRoutingTable(ctx, g, zeroTraffic(g), WithWorkers(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func mustCost(t *testing.T, multiplier float64) costfunction.CostFunction {
	t.Helper()
	cf, err := costfunction.NewCongestionCostFunction(multiplier)
	require.NoError(t, err)
	return cf
}
