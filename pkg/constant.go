package pkg

import (
	"fmt"
	"strings"
)

const (
	// TRAFFIC_MULTIPLIER extra cost added to a road for every car currently on it
	TRAFFIC_MULTIPLIER float64 = 8.0
	// CONNECTIVITY number of nearest neighbours each junction links to
	CONNECTIVITY = 6

	// MAX_DESTINATION_RETRIES alternate destinations tried by a spawner before it gives up on a source for this tick
	MAX_DESTINATION_RETRIES = 5

	CARS_PER_TICK_FIXED_PAIR = 8

	DEFAULT_TARGET_ARRIVALS = 30
	DEFAULT_NUM_JUNCTIONS   = 12
	DEFAULT_MAX_TICKS       = 100000
)

const (
	DEBUG = false
)

// enum of routing strategy
type Strategy uint8

const (
	// NAIVE. routing table computed once on zero-traffic costs and reused every tick
	NAIVE Strategy = iota
	// FIXED_ROUTE. full route computed at spawn time, consumed hop by hop
	FIXED_ROUTE
	// DECENTRALIZED. routing table rebuilt once per tick from current congestion
	DECENTRALIZED
	// CENTRALIZED. routing table rebuilt after every single assignment within a tick
	CENTRALIZED
)

var strategyNames = [...]string{
	NAIVE:         "naive",
	FIXED_ROUTE:   "fixed",
	DECENTRALIZED: "decentralized",
	CENTRALIZED:   "centralized",
}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", s)
}

func AllStrategies() []Strategy {
	return []Strategy{NAIVE, FIXED_ROUTE, DECENTRALIZED, CENTRALIZED}
}

func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "naive":
		return NAIVE, nil
	case "fixed", "fixed_route":
		return FIXED_ROUTE, nil
	case "decentralized", "dynamic":
		return DECENTRALIZED, nil
	case "centralized":
		return CENTRALIZED, nil
	default:
		return NAIVE, fmt.Errorf("unknown routing strategy %q", name)
	}
}

// StrategyFromFlags maps the experiment harness flags onto a strategy.
// useFixedRoute takes precedence over useNaive, useCentralized over plain dynamic routing.
func StrategyFromFlags(useFixedRoute, useCentralized, useNaive bool) Strategy {
	switch {
	case useFixedRoute:
		return FIXED_ROUTE
	case useNaive:
		return NAIVE
	case useCentralized:
		return CENTRALIZED
	default:
		return DECENTRALIZED
	}
}
