package routing

import (
	"math"

	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/util"
)

type Dijkstra struct {
	graph   *da.Graph
	weights WeightProvider

	pq *da.MinHeap[da.Index]
}

// NewDijkstra. every Dijkstra owns its own priority queue, use one instance per goroutine.
func NewDijkstra(graph *da.Graph, weights WeightProvider) *Dijkstra {
	pq := da.NewBinaryHeap[da.Index]()
	pq.Preallocate(graph.NumberOfJunctions())
	return &Dijkstra{
		graph:   graph,
		weights: weights,
		pq:      pq,
	}
}

// ShortestPathTree result of a single-source search: distance and predecessor of every junction.
type ShortestPathTree struct {
	source da.Index
	dist   []float64
	pred   []da.Index
}

func (t *ShortestPathTree) GetSource() da.Index {
	return t.source
}

// Distance shortest path cost from the source, +Inf if unreachable
func (t *ShortestPathTree) Distance(v da.Index) float64 {
	return t.dist[v]
}

func (t *ShortestPathTree) Distances() []float64 {
	return t.dist
}

// Predecessor junction preceding v on a shortest path. false for the source and unreachable junctions.
func (t *ShortestPathTree) Predecessor(v da.Index) (da.Index, bool) {
	p := t.pred[v]
	return p, p != da.INVALID_INDEX
}

func (t *ShortestPathTree) Reachable(v da.Index) bool {
	return !math.IsInf(t.dist[v], 1)
}

// PathTo junctions from the source to v, both included. nil if v is unreachable.
func (t *ShortestPathTree) PathTo(v da.Index) []da.Index {
	if !t.Reachable(v) {
		return nil
	}
	path := make([]da.Index, 0, 8)
	for cur := v; ; {
		path = append(path, cur)
		if cur == t.source {
			break
		}
		cur = t.pred[cur]
		if cur == da.INVALID_INDEX || len(path) > len(t.pred) {
			return nil
		}
	}
	return util.ReverseG(path)
}

// ShortestPath single-source shortest paths from s to all other junctions.
// every junction is seeded into the queue at +Inf, the search runs until the queue is empty.
func (us *Dijkstra) ShortestPath(s da.Index) *ShortestPathTree {
	n := us.graph.NumberOfJunctions()
	dist := make([]float64, n)
	pred := make([]da.Index, n)

	us.pq.Clear()
	for v := 0; v < n; v++ {
		dist[v] = math.Inf(1)
		pred[v] = da.INVALID_INDEX
		err := us.pq.Insert(da.Index(v), math.Inf(1))
		util.AssertPanic(err == nil, "dijkstra: junction seeded twice")
	}

	dist[s] = 0
	err := us.pq.DecreaseKey(s, 0)
	util.AssertPanic(err == nil, "dijkstra: source is not a junction of the graph")

	for !us.pq.IsEmpty() {
		us.graphSearchUni(dist, pred)
	}

	return &ShortestPathTree{
		source: s,
		dist:   dist,
		pred:   pred,
	}
}

func (us *Dijkstra) graphSearchUni(dist []float64, pred []da.Index) {
	queryKey, err := us.pq.ExtractMin()
	util.AssertPanic(err == nil, "dijkstra: extract from empty queue")

	uId := queryKey.GetItem()
	if math.IsInf(dist[uId], 1) {
		// everything left in the queue is unreachable
		return
	}

	us.graph.ForOutRoadsOf(uId, func(road *da.Road) {
		vId := road.GetTo()
		if !us.pq.Contains(vId) {
			// already settled
			return
		}

		newDist := dist[uId] + us.weights.GetWeight(road.GetRoadId())
		// improvements below EPS are ignored, the first predecessor found keeps the junction
		if !da.Lt(newDist, dist[vId]) {
			return
		}

		dist[vId] = newDist
		pred[vId] = uId
		err := us.pq.DecreaseKey(vId, newDist)
		util.AssertPanic(err == nil, "dijkstra: decrease key of a junction not in the queue")
	})
}
