package costfunction

import (
	"github.com/lintang-b-s/navsim/pkg/datastructure"
)

type RoadAttributes interface {
	GetRoadId() datastructure.Index
	GetBaseDistance() float64
}

// CostFunction cost of traversing a road while traffic cars are on it.
// implementations must be pure and non-decreasing in traffic.
type CostFunction interface {
	GetWeight(r RoadAttributes, traffic int) float64
}
