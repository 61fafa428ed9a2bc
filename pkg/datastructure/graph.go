package datastructure

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r2"
)

type Index uint32

// INVALID_INDEX marks "no junction" / "no road"
const INVALID_INDEX Index = math.MaxUint32

var (
	ErrJunctionNotFound  = errors.New("junction not found")
	ErrDuplicateRoad     = errors.New("road already exists")
	ErrNegativeDistance  = errors.New("road base distance must be non-negative")
	ErrSelfLoop          = errors.New("road must connect two distinct junctions")
	ErrNonDenseJunctions = errors.New("junction ids must be 0..n-1")
)

// Junction. a node of the road network. position is only used to derive base distances.
type Junction struct {
	id       Index
	position r2.Point
}

func NewJunction(id Index, x, y float64) *Junction {
	return &Junction{id: id, position: r2.Point{X: x, Y: y}}
}

func (j *Junction) GetID() Index {
	return j.id
}

func (j *Junction) GetPosition() r2.Point {
	return j.position
}

func (j *Junction) GetX() float64 {
	return j.position.X
}

func (j *Junction) GetY() float64 {
	return j.position.Y
}

// DistanceTo euclidean distance between two junction positions
func (j *Junction) DistanceTo(other *Junction) float64 {
	return j.position.Sub(other.position).Norm()
}

// Road. directed edge from -> to with a static base distance.
type Road struct {
	id           Index
	from, to     Index
	baseDistance float64
}

func NewRoad(id, from, to Index, baseDistance float64) *Road {
	return &Road{id: id, from: from, to: to, baseDistance: baseDistance}
}

func (r *Road) GetRoadId() Index {
	return r.id
}

func (r *Road) GetFrom() Index {
	return r.from
}

func (r *Road) GetTo() Index {
	return r.to
}

func (r *Road) GetBaseDistance() float64 {
	return r.baseDistance
}

// Graph. immutable road network in compressed sparse row layout.
// roads are sorted by (from, to); the out roads of u are roads[firstOut[u]:firstOut[u+1]].
type Graph struct {
	junctions []*Junction
	roads     []*Road
	firstOut  []Index
}

func (g *Graph) NumberOfJunctions() int {
	return len(g.junctions)
}

func (g *Graph) NumberOfRoads() int {
	return len(g.roads)
}

func (g *Graph) HasJunction(id Index) bool {
	return int(id) < len(g.junctions)
}

func (g *Graph) GetJunction(id Index) *Junction {
	return g.junctions[id]
}

func (g *Graph) GetJunctions() []*Junction {
	return g.junctions
}

func (g *Graph) GetRoad(id Index) *Road {
	return g.roads[id]
}

func (g *Graph) GetRoads() []*Road {
	return g.roads
}

func (g *Graph) GetOutDegree(u Index) int {
	return int(g.firstOut[u+1] - g.firstOut[u])
}

func (g *Graph) ForOutRoadsOf(u Index, handle func(r *Road)) {
	for e := g.firstOut[u]; e < g.firstOut[u+1]; e++ {
		handle(g.roads[e])
	}
}

// GetRoadBetween id of the road u -> v. binary search over the out roads of u.
func (g *Graph) GetRoadBetween(u, v Index) (Index, bool) {
	if !g.HasJunction(u) {
		return INVALID_INDEX, false
	}
	lo, hi := int(g.firstOut[u]), int(g.firstOut[u+1])
	i := lo + sort.Search(hi-lo, func(i int) bool {
		return g.roads[lo+i].to >= v
	})
	if i < hi && g.roads[i].to == v {
		return g.roads[i].id, true
	}
	return INVALID_INDEX, false
}

// Adjacency the topology in the collaborator shape: junction -> neighbour -> base distance.
func (g *Graph) Adjacency() map[Index]map[Index]float64 {
	adj := make(map[Index]map[Index]float64, len(g.junctions))
	for _, j := range g.junctions {
		row := make(map[Index]float64, g.GetOutDegree(j.id))
		g.ForOutRoadsOf(j.id, func(r *Road) {
			row[r.to] = r.baseDistance
		})
		adj[j.id] = row
	}
	return adj
}

type GraphBuilder struct {
	junctions []*Junction
	roads     []*Road
	roadSet   map[[2]Index]struct{}
}

func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		junctions: make([]*Junction, 0),
		roads:     make([]*Road, 0),
		roadSet:   make(map[[2]Index]struct{}),
	}
}

// AddJunction add a junction at (x, y), returns its id.
func (b *GraphBuilder) AddJunction(x, y float64) Index {
	id := Index(len(b.junctions))
	b.junctions = append(b.junctions, NewJunction(id, x, y))
	return id
}

func (b *GraphBuilder) NumberOfJunctions() int {
	return len(b.junctions)
}

// AddRoad add a directed road with an explicit base distance.
func (b *GraphBuilder) AddRoad(from, to Index, baseDistance float64) error {
	if int(from) >= len(b.junctions) {
		return fmt.Errorf("road %d -> %d: %w: %d", from, to, ErrJunctionNotFound, from)
	}
	if int(to) >= len(b.junctions) {
		return fmt.Errorf("road %d -> %d: %w: %d", from, to, ErrJunctionNotFound, to)
	}
	if from == to {
		return fmt.Errorf("road %d -> %d: %w", from, to, ErrSelfLoop)
	}
	if baseDistance < 0 || math.IsNaN(baseDistance) {
		return fmt.Errorf("road %d -> %d: %w", from, to, ErrNegativeDistance)
	}
	key := [2]Index{from, to}
	if _, ok := b.roadSet[key]; ok {
		return fmt.Errorf("road %d -> %d: %w", from, to, ErrDuplicateRoad)
	}
	b.roadSet[key] = struct{}{}
	b.roads = append(b.roads, NewRoad(INVALID_INDEX, from, to, baseDistance))
	return nil
}

// AddEuclideanRoad add a directed road whose base distance is the distance between the two junction positions.
func (b *GraphBuilder) AddEuclideanRoad(from, to Index) error {
	if int(from) >= len(b.junctions) || int(to) >= len(b.junctions) {
		return fmt.Errorf("road %d -> %d: %w", from, to, ErrJunctionNotFound)
	}
	return b.AddRoad(from, to, b.junctions[from].DistanceTo(b.junctions[to]))
}

func (b *GraphBuilder) Build() *Graph {
	roads := make([]*Road, len(b.roads))
	copy(roads, b.roads)
	sort.Slice(roads, func(i, j int) bool {
		if roads[i].from != roads[j].from {
			return roads[i].from < roads[j].from
		}
		return roads[i].to < roads[j].to
	})

	n := len(b.junctions)
	firstOut := make([]Index, n+1)
	for i, r := range roads {
		roads[i] = NewRoad(Index(i), r.from, r.to, r.baseDistance)
		firstOut[r.from+1]++
	}
	for u := 0; u < n; u++ {
		firstOut[u+1] += firstOut[u]
	}

	junctions := make([]*Junction, n)
	copy(junctions, b.junctions)

	return &Graph{
		junctions: junctions,
		roads:     roads,
		firstOut:  firstOut,
	}
}

// NewGraphFromAdjacency build a graph from junction -> neighbour -> base distance.
// junction ids (keys and neighbours) must be exactly 0..n-1; positions are left at the origin.
func NewGraphFromAdjacency(adj map[Index]map[Index]float64) (*Graph, error) {
	n := len(adj)
	b := NewGraphBuilder()
	for i := 0; i < n; i++ {
		if _, ok := adj[Index(i)]; !ok {
			return nil, fmt.Errorf("missing junction %d: %w", i, ErrNonDenseJunctions)
		}
		b.AddJunction(0, 0)
	}

	for u := 0; u < n; u++ {
		for v, dist := range adj[Index(u)] {
			if int(v) >= n {
				return nil, fmt.Errorf("neighbour %d of junction %d: %w", v, u, ErrNonDenseJunctions)
			}
			if err := b.AddRoad(Index(u), v, dist); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}
