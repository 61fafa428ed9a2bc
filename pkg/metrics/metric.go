package metrics

import (
	"github.com/lintang-b-s/navsim/pkg/costfunction"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
)

// Metric. live cost snapshot of one tick: number of cars on every road and the road cost at that traffic.
// owned by a single simulation for the duration of a tick, not safe for concurrent writers.
// concurrent readers (parallel dijkstra runs) are fine as long as nobody calls AddTraffic meanwhile.
type Metric struct {
	graph        *da.Graph
	costFunction costfunction.CostFunction

	traffic []int
	weights []float64
}

// NewZeroTrafficMetric snapshot of an empty network, every road costs cost(0).
func NewZeroTrafficMetric(graph *da.Graph, costFunction costfunction.CostFunction) *Metric {
	met := &Metric{
		graph:        graph,
		costFunction: costFunction,
		traffic:      make([]int, graph.NumberOfRoads()),
		weights:      make([]float64, graph.NumberOfRoads()),
	}
	met.Reset()
	return met
}

// Reset zero every traffic counter and re-evaluate every road cost.
func (met *Metric) Reset() {
	for i, r := range met.graph.GetRoads() {
		met.traffic[i] = 0
		met.weights[i] = met.costFunction.GetWeight(r, 0)
	}
}

// AddTraffic one more car enters roadId. the road cost is updated immediately
// so decisions made later in the same tick see it.
func (met *Metric) AddTraffic(roadId da.Index) {
	met.traffic[roadId]++
	met.weights[roadId] = met.costFunction.GetWeight(met.graph.GetRoad(roadId), met.traffic[roadId])
}

// SetTraffic set the counter of roadId directly and re-evaluate its cost.
func (met *Metric) SetTraffic(roadId da.Index, traffic int) {
	met.traffic[roadId] = traffic
	met.weights[roadId] = met.costFunction.GetWeight(met.graph.GetRoad(roadId), traffic)
}

func (met *Metric) GetWeight(roadId da.Index) float64 {
	return met.weights[roadId]
}

func (met *Metric) GetTraffic(roadId da.Index) int {
	return met.traffic[roadId]
}

// TotalTraffic number of cars currently on a road.
func (met *Metric) TotalTraffic() int {
	total := 0
	for _, t := range met.traffic {
		total += t
	}
	return total
}

func (met *Metric) GetGraph() *da.Graph {
	return met.graph
}

func (met *Metric) GetCostFunction() costfunction.CostFunction {
	return met.costFunction
}

func (met *Metric) Clone() *Metric {
	traffic := make([]int, len(met.traffic))
	copy(traffic, met.traffic)
	weights := make([]float64, len(met.weights))
	copy(weights, met.weights)
	return &Metric{
		graph:        met.graph,
		costFunction: met.costFunction,
		traffic:      traffic,
		weights:      weights,
	}
}
