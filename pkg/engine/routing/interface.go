package routing

import (
	"github.com/lintang-b-s/navsim/pkg/datastructure"
)

// WeightProvider current cost of every road, e.g. a live metrics.Metric snapshot.
type WeightProvider interface {
	GetWeight(roadId datastructure.Index) float64
}

type Router interface {
	NextHop(source, destination datastructure.Index) (datastructure.Index, bool)
	Route(source, destination datastructure.Index) ([]datastructure.Index, error)
}
