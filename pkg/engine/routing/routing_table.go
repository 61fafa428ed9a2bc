package routing

import (
	"context"
	"errors"
	"fmt"

	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoRoute       = errors.New("no route between junctions")
	ErrUnknownSource = errors.New("routing table has no row for source junction")
)

var _ Router = (*RoutingTable)(nil)

// RoutingTable next hop for every (source, destination) pair of a set of source junctions.
// row[destination] is INVALID_INDEX when destination is unreachable from source or equal to it.
type RoutingTable struct {
	numJunctions int
	sources      []da.Index
	rows         map[da.Index][]da.Index
	distances    map[da.Index][]float64
}

func newRoutingTable(numJunctions, numSources int) *RoutingTable {
	return &RoutingTable{
		numJunctions: numJunctions,
		sources:      make([]da.Index, 0, numSources),
		rows:         make(map[da.Index][]da.Index, numSources),
		distances:    make(map[da.Index][]float64, numSources),
	}
}

func (rt *RoutingTable) HasSource(source da.Index) bool {
	_, ok := rt.rows[source]
	return ok
}

// Sources source junctions of the table in build order
func (rt *RoutingTable) Sources() []da.Index {
	return rt.sources
}

// NextHop junction to drive to from source to reach destination. false when unreachable,
// when destination == source, or when the table was not built for source.
func (rt *RoutingTable) NextHop(source, destination da.Index) (da.Index, bool) {
	row, ok := rt.rows[source]
	if !ok || int(destination) >= len(row) {
		return da.INVALID_INDEX, false
	}
	hop := row[destination]
	return hop, hop != da.INVALID_INDEX
}

// Distance shortest path cost from source to destination at build time, +Inf if unreachable.
func (rt *RoutingTable) Distance(source, destination da.Index) (float64, bool) {
	row, ok := rt.distances[source]
	if !ok || int(destination) >= len(row) {
		return 0, false
	}
	return row[destination], true
}

// Route follows next hops from source to destination. the returned junctions exclude source and end at destination.
// only junctions that are themselves sources of the table can be passed through, so use a full table.
func (rt *RoutingTable) Route(source, destination da.Index) ([]da.Index, error) {
	if !rt.HasSource(source) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSource, source)
	}
	if source == destination {
		return nil, fmt.Errorf("%w: %d -> %d", ErrNoRoute, source, destination)
	}

	route := make([]da.Index, 0, 8)
	cur := source
	for cur != destination {
		hop, ok := rt.NextHop(cur, destination)
		if !ok || len(route) >= rt.numJunctions {
			return nil, fmt.Errorf("%w: %d -> %d", ErrNoRoute, source, destination)
		}
		route = append(route, hop)
		cur = hop
	}
	return route, nil
}

type routingTableOptions struct {
	workers int
}

type RoutingTableOption func(*routingTableOptions)

// WithWorkers number of dijkstra searches run concurrently, n <= 1 runs them sequentially.
func WithWorkers(n int) RoutingTableOption {
	return func(o *routingTableOptions) {
		o.workers = n
	}
}

/*
BuildRoutingTable. runs one single-source dijkstra per source junction and derives the next hop to every
other junction by walking its predecessor chain back to the source.

the searches only read graph and weights, each writes its own row, so they run in parallel without locking.
weights must not be mutated until BuildRoutingTable returns.
*/
func BuildRoutingTable(ctx context.Context, graph *da.Graph, weights WeightProvider, sources []da.Index,
	opts ...RoutingTableOption) (*RoutingTable, error) {
	o := routingTableOptions{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	unique := make([]da.Index, 0, len(sources))
	seen := make(map[da.Index]struct{}, len(sources))
	for _, s := range sources {
		if !graph.HasJunction(s) {
			return nil, fmt.Errorf("routing table source %d: %w", s, da.ErrJunctionNotFound)
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}

	hops := make([][]da.Index, len(unique))
	dists := make([][]float64, len(unique))

	if o.workers <= 1 {
		dijkstra := NewDijkstra(graph, weights)
		for i, s := range unique {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tree := dijkstra.ShortestPath(s)
			hops[i] = NextHops(tree)
			dists[i] = tree.Distances()
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.workers)
		for i, s := range unique {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				tree := NewDijkstra(graph, weights).ShortestPath(s)
				hops[i] = NextHops(tree)
				dists[i] = tree.Distances()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	rt := newRoutingTable(graph.NumberOfJunctions(), len(unique))
	for i, s := range unique {
		rt.sources = append(rt.sources, s)
		rt.rows[s] = hops[i]
		rt.distances[s] = dists[i]
	}
	return rt, nil
}

// BuildFullRoutingTable routing table with every junction as a source.
func BuildFullRoutingTable(ctx context.Context, graph *da.Graph, weights WeightProvider,
	opts ...RoutingTableOption) (*RoutingTable, error) {
	sources := make([]da.Index, graph.NumberOfJunctions())
	for i := range sources {
		sources[i] = da.Index(i)
	}
	return BuildRoutingTable(ctx, graph, weights, sources, opts...)
}

// NextHops first junction after the source on the shortest path to every destination.
// walks each predecessor chain back to the source, remembering hops already resolved.
// a chain that stops before reaching the source leaves the destination unreachable.
func NextHops(tree *ShortestPathTree) []da.Index {
	n := len(tree.pred)
	s := tree.source

	hops := make([]da.Index, n)
	resolved := make([]bool, n)
	for i := range hops {
		hops[i] = da.INVALID_INDEX
	}
	resolved[s] = true

	chain := make([]da.Index, 0, 8)
	for d := 0; d < n; d++ {
		dest := da.Index(d)
		if resolved[dest] {
			continue
		}

		chain = chain[:0]
		hop := da.INVALID_INDEX
		cur := dest
		for {
			if resolved[cur] {
				hop = hops[cur]
				break
			}
			chain = append(chain, cur)
			p := tree.pred[cur]
			if p == da.INVALID_INDEX || len(chain) > n {
				break
			}
			if p == s {
				hop = cur
				break
			}
			cur = p
		}

		for _, v := range chain {
			hops[v] = hop
			resolved[v] = true
		}
	}

	hops[s] = da.INVALID_INDEX
	return hops
}
