package costfunction

import (
	"errors"
	"math"

	"github.com/lintang-b-s/navsim/pkg"
)

var ErrNegativeMultiplier = errors.New("traffic multiplier must be a non-negative finite number")

// CongestionFunction. cost(traffic) = multiplier * traffic + baseDistance
type CongestionFunction struct {
	multiplier float64
}

func NewCongestionCostFunction(multiplier float64) (*CongestionFunction, error) {
	if multiplier < 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return nil, ErrNegativeMultiplier
	}
	return &CongestionFunction{multiplier: multiplier}, nil
}

func NewDefaultCongestionCostFunction() *CongestionFunction {
	return &CongestionFunction{multiplier: pkg.TRAFFIC_MULTIPLIER}
}

func (cf *CongestionFunction) GetMultiplier() float64 {
	return cf.multiplier
}

func (cf *CongestionFunction) GetWeight(r RoadAttributes, traffic int) float64 {
	return Cost(cf.multiplier, r.GetBaseDistance(), traffic)
}

// Cost pure form of the congestion cost, negative traffic counts as empty road.
func Cost(multiplier, baseDistance float64, traffic int) float64 {
	if traffic < 0 {
		traffic = 0
	}
	return multiplier*float64(traffic) + baseDistance
}
