package datastructure

import (
	"github.com/lintang-b-s/navsim/pkg/util"
)

// StronglyConnectedComponents. kosaraju's algorithm over the junction graph.
// returns the component id of every junction and the number of components.
// component ids follow the order in which the second pass discovers them.
func (g *Graph) StronglyConnectedComponents() ([]Index, int) {
	n := Index(g.NumberOfJunctions())

	inAdj := make([][]Index, n)
	for _, r := range g.roads {
		inAdj[r.to] = append(inAdj[r.to], r.from)
	}

	order := make([]Index, 0, n)
	visited := make([]bool, n)
	for v := Index(0); v < n; v++ {
		if !visited[v] {
			g.dfs(v, &order, visited, nil)
		}
	}

	order = util.ReverseG[Index](order)

	// reset visited
	visited = make([]bool, n)
	sccs := make([]Index, n)
	numComponents := 0

	for _, v := range order {
		if visited[v] {
			continue
		}
		component := make([]Index, 0, 10)
		g.dfs(v, &component, visited, inAdj)
		for _, u := range component {
			sccs[u] = Index(numComponents)
		}
		numComponents++
	}

	return sccs, numComponents
}

func (g *Graph) IsStronglyConnected() bool {
	if g.NumberOfJunctions() == 0 {
		return true
	}
	_, k := g.StronglyConnectedComponents()
	return k == 1
}

// dfs iterative post-order dfs. follows out roads when inAdj is nil, reversed roads otherwise.
func (g *Graph) dfs(root Index, output *[]Index, visited []bool, inAdj [][]Index) {
	type frame struct {
		v    Index
		next int
	}

	neighbours := func(v Index) []Index {
		if inAdj != nil {
			return inAdj[v]
		}
		out := make([]Index, 0, g.GetOutDegree(v))
		g.ForOutRoadsOf(v, func(r *Road) {
			out = append(out, r.to)
		})
		return out
	}

	visited[root] = true
	stack := []frame{{v: root}}
	adj := map[Index][]Index{root: neighbours(root)}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		ns := adj[top.v]
		if top.next < len(ns) {
			w := ns[top.next]
			top.next++
			if !visited[w] {
				visited[w] = true
				adj[w] = neighbours(w)
				stack = append(stack, frame{v: w})
			}
			continue
		}
		*output = append(*output, top.v)
		delete(adj, top.v)
		stack = stack[:len(stack)-1]
	}
}
