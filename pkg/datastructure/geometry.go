package datastructure

import (
	"math"
)

const (
	EPS = 1e-6
)

// Eq costs and distances closer than EPS are equal
func Eq(a, b float64) bool {
	if math.IsInf(a, 1) || math.IsInf(b, 1) {
		return a == b
	}
	return math.Abs(a-b) <= EPS
}

// Lt strictly smaller by more than EPS
func Lt(a, b float64) bool {
	return a+EPS < b
}
