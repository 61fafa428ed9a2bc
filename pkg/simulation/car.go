package simulation

import (
	"strconv"
	"strings"

	da "github.com/lintang-b-s/navsim/pkg/datastructure"
)

type CarState uint8

const (
	// Waiting. at a junction without a next hop, needs a routing decision this tick
	Waiting CarState = iota
	// Traveling. on a road towards its next hop
	Traveling
	// Arrived. reached its destination, terminal
	Arrived
)

func (s CarState) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Traveling:
		return "traveling"
	case Arrived:
		return "arrived"
	default:
		return "unknown"
	}
}

type Car struct {
	id          int
	source      da.Index
	destination da.Index

	current  da.Index
	next     da.Index // INVALID_INDEX while waiting
	progress float64
	roadCost float64

	elapsed int
	// spawned this tick, the first Advance does not count towards elapsed
	fresh   bool
	arrived bool

	fixedRoute []da.Index
}

func newCar(id int, source, destination da.Index) *Car {
	return &Car{
		id:          id,
		source:      source,
		destination: destination,
		current:     source,
		next:        da.INVALID_INDEX,
		fresh:       true,
	}
}

func (c *Car) GetID() int {
	return c.id
}

func (c *Car) GetSource() da.Index {
	return c.source
}

func (c *Car) GetDestination() da.Index {
	return c.destination
}

func (c *Car) GetCurrent() da.Index {
	return c.current
}

// GetNext junction the car is driving to. false while waiting.
func (c *Car) GetNext() (da.Index, bool) {
	return c.next, c.next != da.INVALID_INDEX
}

func (c *Car) GetProgress() float64 {
	return c.progress
}

// GetRoadCost cost of the current road when the car entered it. false while waiting.
func (c *Car) GetRoadCost() (float64, bool) {
	return c.roadCost, c.next != da.INVALID_INDEX
}

// GetElapsed ticks spent in the network.
func (c *Car) GetElapsed() int {
	return c.elapsed
}

func (c *Car) GetFixedRoute() []da.Index {
	return c.fixedRoute
}

func (c *Car) State() CarState {
	switch {
	case c.arrived:
		return Arrived
	case c.next != da.INVALID_INDEX:
		return Traveling
	default:
		return Waiting
	}
}

/*
Advance. one tick of time for this car.

a traveling car moves one unit along its road. once progress reaches the road cost the car stands at
the road's head junction without a next hop. reaching the destination is terminal and the arrival tick
itself is not counted in elapsed.
*/
func (c *Car) Advance() CarState {
	if c.arrived {
		return Arrived
	}

	if c.fresh {
		c.fresh = false
	} else {
		c.elapsed++
	}

	if c.next != da.INVALID_INDEX {
		c.progress++
		if c.progress >= c.roadCost {
			c.current = c.next
			c.next = da.INVALID_INDEX
			c.progress = 0
			c.roadCost = 0

			if c.current == c.destination {
				c.elapsed--
				c.arrived = true
				return Arrived
			}
		}
	}
	return c.State()
}

// AssignNextHop put the car on the road to next, starting at progress 0.
func (c *Car) AssignNextHop(next da.Index, roadCost float64) {
	c.next = next
	c.roadCost = roadCost
	c.progress = 0
}

func (c *Car) SetFixedRoute(route []da.Index) {
	c.fixedRoute = route
}

// PopFixedRoute removes and returns the next junction of the precomputed route.
func (c *Car) PopFixedRoute() (da.Index, bool) {
	if len(c.fixedRoute) == 0 {
		return da.INVALID_INDEX, false
	}
	next := c.fixedRoute[0]
	c.fixedRoute = c.fixedRoute[1:]
	return next, true
}

func (c *Car) String() string {
	var sb strings.Builder
	sb.WriteString("CAR ")
	sb.WriteString(strconv.Itoa(c.id))
	sb.WriteString("| Start: ")
	sb.WriteString(strconv.Itoa(int(c.source)))
	sb.WriteString(",  Dest: ")
	sb.WriteString(strconv.Itoa(int(c.destination)))
	sb.WriteString(",  ")
	sb.WriteString(strconv.Itoa(int(c.current)))
	sb.WriteString("->")
	if next, ok := c.GetNext(); ok {
		sb.WriteString(strconv.Itoa(int(next)))
		sb.WriteString(",  ")
		sb.WriteString(strconv.FormatFloat(c.progress, 'f', -1, 64))
		sb.WriteString("/")
		sb.WriteString(strconv.FormatFloat(c.roadCost, 'f', -1, 64))
	} else {
		sb.WriteString("-,  0/-")
	}
	sb.WriteString(". Time Elapsed: ")
	sb.WriteString(strconv.Itoa(c.elapsed))
	return sb.String()
}
