package spatialindex

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

type Rtree struct {
	tr        *rtree.RTreeG[da.Index]
	positions map[da.Index]r2.Point
}

// Neighbor junction found by a nearest neighbour query and its euclidean distance to the query point.
type Neighbor struct {
	id       da.Index
	distance float64
}

func (nb Neighbor) GetID() da.Index {
	return nb.id
}

func (nb Neighbor) GetDistance() float64 {
	return nb.distance
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[da.Index]
	return &Rtree{
		tr:        &tr,
		positions: make(map[da.Index]r2.Point),
	}
}

// Insert index a junction as a degenerate box at its position.
func (rt *Rtree) Insert(id da.Index, pos r2.Point) {
	rt.tr.Insert([2]float64{pos.X, pos.Y}, [2]float64{pos.X, pos.Y}, id)
	rt.positions[id] = pos
}

// Build. index every junction of the graph.
func (rt *Rtree) Build(graph *da.Graph, log *zap.Logger) {
	log.Debug("Building R-tree spatial index...", zap.Int("junctions", graph.NumberOfJunctions()))
	for _, j := range graph.GetJunctions() {
		rt.Insert(j.GetID(), j.GetPosition())
	}
	log.Debug("R-tree spatial index built.")
}

func (rt *Rtree) Len() int {
	return rt.tr.Len()
}

// SearchWithinRadius all indexed junctions inside the axis aligned box of half side radius around q.
func (rt *Rtree) SearchWithinRadius(q r2.Point, radius float64) []Neighbor {
	results := make([]Neighbor, 0, 8)
	rt.tr.Search([2]float64{q.X - radius, q.Y - radius}, [2]float64{q.X + radius, q.Y + radius},
		func(min, max [2]float64, id da.Index) bool {
			results = append(results, Neighbor{id: id, distance: rt.positions[id].Sub(q).Norm()})
			return true
		})
	return results
}

/*
KNearest k junctions closest to q, nearest first, ties broken by smaller junction id.
exclude is skipped (pass da.INVALID_INDEX to keep everything).

the search box starts small and doubles until it holds at least k candidates whose k-th distance
fits inside the box, every junction closer than that is then guaranteed to be among the candidates.
*/
func (rt *Rtree) KNearest(q r2.Point, k int, exclude da.Index) []Neighbor {
	available := rt.Len()
	if _, ok := rt.positions[exclude]; ok {
		available--
	}
	if k > available {
		k = available
	}
	if k <= 0 {
		return nil
	}

	radius := 1.0
	for {
		candidates := rt.SearchWithinRadius(q, radius)
		filtered := candidates[:0]
		for _, c := range candidates {
			if c.id != exclude {
				filtered = append(filtered, c)
			}
		}
		sort.Slice(filtered, func(i, j int) bool {
			if !da.Eq(filtered[i].distance, filtered[j].distance) {
				return da.Lt(filtered[i].distance, filtered[j].distance)
			}
			return filtered[i].id < filtered[j].id
		})

		if len(filtered) >= k && (filtered[k-1].distance <= radius || len(filtered) == available) {
			return filtered[:k]
		}
		if math.IsInf(radius, 1) {
			return filtered
		}
		radius *= 2
	}
}
