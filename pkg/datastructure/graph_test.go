package datastructure

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSquare(t *testing.T) *Graph {
	t.Helper()
	b := NewGraphBuilder()
	a := b.AddJunction(0, 0)
	c := b.AddJunction(3, 0)
	d := b.AddJunction(3, 4)
	e := b.AddJunction(0, 4)
	require.NoError(t, b.AddEuclideanRoad(a, c))
	require.NoError(t, b.AddEuclideanRoad(c, d))
	require.NoError(t, b.AddEuclideanRoad(a, d))
	require.NoError(t, b.AddEuclideanRoad(d, e))
	require.NoError(t, b.AddRoad(e, a, 10))
	return b.Build()
}

func TestGraphBuilder(t *testing.T) {
	g := buildSquare(t)

	assert.Equal(t, 4, g.NumberOfJunctions())
	assert.Equal(t, 5, g.NumberOfRoads())
	assert.Equal(t, 2, g.GetOutDegree(0))

	id, ok := g.GetRoadBetween(0, 2)
	require.True(t, ok)
	road := g.GetRoad(id)
	assert.Equal(t, Index(0), road.GetFrom())
	assert.Equal(t, Index(2), road.GetTo())
	assert.InDelta(t, 5.0, road.GetBaseDistance(), EPS)

	_, ok = g.GetRoadBetween(2, 0)
	assert.False(t, ok)
	_, ok = g.GetRoadBetween(99, 0)
	assert.False(t, ok)

	// road ids are dense and sorted by (from, to)
	for i, r := range g.GetRoads() {
		assert.Equal(t, Index(i), r.GetRoadId())
		if i > 0 {
			prev := g.GetRoads()[i-1]
			assert.True(t, prev.GetFrom() < r.GetFrom() ||
				(prev.GetFrom() == r.GetFrom() && prev.GetTo() < r.GetTo()))
		}
	}

	heads := make([]Index, 0)
	g.ForOutRoadsOf(0, func(r *Road) {
		heads = append(heads, r.GetTo())
	})
	assert.Equal(t, []Index{1, 2}, heads)
}

func TestGraphBuilderRejectsInvalidRoads(t *testing.T) {
	b := NewGraphBuilder()
	a := b.AddJunction(0, 0)
	c := b.AddJunction(1, 1)

	testCases := []struct {
		name    string
		from    Index
		to      Index
		dist    float64
		wantErr error
	}{
		{name: "unknown tail", from: 7, to: c, dist: 1, wantErr: ErrJunctionNotFound},
		{name: "unknown head", from: a, to: 7, dist: 1, wantErr: ErrJunctionNotFound},
		{name: "self loop", from: a, to: a, dist: 1, wantErr: ErrSelfLoop},
		{name: "negative distance", from: a, to: c, dist: -1, wantErr: ErrNegativeDistance},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, b.AddRoad(tt.from, tt.to, tt.dist), tt.wantErr)
		})
	}

	require.NoError(t, b.AddRoad(a, c, 1))
	assert.ErrorIs(t, b.AddRoad(a, c, 2), ErrDuplicateRoad)
}

func TestNewGraphFromAdjacency(t *testing.T) {
	adj := map[Index]map[Index]float64{
		0: {1: 3, 2: 1},
		1: {2: 1},
		2: {},
	}
	g, err := NewGraphFromAdjacency(adj)
	require.NoError(t, err)
	assert.Equal(t, 3, g.NumberOfJunctions())
	assert.Equal(t, 3, g.NumberOfRoads())
	assert.Equal(t, adj, g.Adjacency())

	_, err = NewGraphFromAdjacency(map[Index]map[Index]float64{0: {5: 1}})
	assert.ErrorIs(t, err, ErrNonDenseJunctions)

	_, err = NewGraphFromAdjacency(map[Index]map[Index]float64{1: {}})
	assert.ErrorIs(t, err, ErrNonDenseJunctions)
}

func TestGraphEncodeDecode(t *testing.T) {
	g := buildSquare(t)

	path := filepath.Join(t.TempDir(), "square.graph")
	require.NoError(t, g.WriteGraph(path))

	got, err := ReadGraph(path)
	require.NoError(t, err)

	assert.Equal(t, g.Adjacency(), got.Adjacency())
	for i, j := range g.GetJunctions() {
		assert.Equal(t, j.GetPosition(), got.GetJunction(Index(i)).GetPosition())
	}
}

func TestDecodeGraphMalformed(t *testing.T) {
	b := NewGraphBuilder()
	b.AddJunction(0, 0)
	g := b.Build()

	var buf bytes.Buffer
	require.NoError(t, g.Encode(&buf))

	_, err := DecodeGraph(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	_, err = DecodeGraph(bytes.NewReader([]byte("not bzip2")))
	assert.Error(t, err)
}

func TestStronglyConnectedComponents(t *testing.T) {
	g := buildSquare(t)
	// 0 -> 1 -> 2 -> 3 -> 0 is a cycle through every junction
	assert.True(t, g.IsStronglyConnected())

	b := NewGraphBuilder()
	for i := 0; i < 5; i++ {
		b.AddJunction(float64(i), 0)
	}
	require.NoError(t, b.AddRoad(0, 1, 1))
	require.NoError(t, b.AddRoad(1, 0, 1))
	require.NoError(t, b.AddRoad(1, 2, 1))
	require.NoError(t, b.AddRoad(2, 3, 1))
	require.NoError(t, b.AddRoad(3, 2, 1))
	g2 := b.Build()

	sccs, k := g2.StronglyConnectedComponents()
	assert.Equal(t, 3, k)
	assert.Equal(t, sccs[0], sccs[1])
	assert.Equal(t, sccs[2], sccs[3])
	assert.NotEqual(t, sccs[0], sccs[2])
	assert.NotEqual(t, sccs[4], sccs[0])
	assert.NotEqual(t, sccs[4], sccs[2])
	assert.False(t, g2.IsStronglyConnected())
}
