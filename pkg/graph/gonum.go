package graph

import (
	"fmt"
	"math"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Gonum converts the graph to a gonum weighted undirected graph. Node IDs
// are the internal vertex indices; edge weights are the edge loads.
func (g *Graph) Gonum() *simple.WeightedUndirectedGraph {
	ug := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for v := 0; v < g.VertNbr; v++ {
		ug.AddNode(simple.Node(int64(v)))
	}
	for v := 0; v < g.VertNbr; v++ {
		for e := g.Verttab[v]; e < g.Verttab[v+1]; e++ {
			u := g.Edgetab[e]
			if u <= v {
				continue
			}
			ug.SetWeightedEdge(ug.NewWeightedEdge(simple.Node(int64(v)), simple.Node(int64(u)), float64(g.EdgeLoad(e))))
		}
	}
	return ug
}

// FromGonum converts a gonum weighted undirected graph. Vertices are
// numbered by increasing node ID and labelled with that ID; edge weights are
// rounded to the nearest positive integer load.
func FromGonum(ug gonum.WeightedUndirected) (*Graph, error) {
	nodes := gonum.NodesOf(ug.Nodes())
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })

	index := make(map[int64]int, len(nodes))
	for i, n := range nodes {
		index[n.ID()] = i
	}

	b := NewBuilder(len(nodes))
	for i, n := range nodes {
		if err := b.SetLabel(i, int(n.ID())); err != nil {
			return nil, err
		}
		neighbors := ug.From(n.ID())
		for neighbors.Next() {
			m := neighbors.Node()
			j := index[m.ID()]
			if j <= i {
				continue
			}
			w := ug.WeightedEdge(n.ID(), m.ID()).Weight()
			load := int(math.Round(w))
			if load < 1 {
				load = 1
			}
			if err := b.AddEdge(i, j, load); err != nil {
				return nil, fmt.Errorf("failed to convert edge %d-%d: %w", n.ID(), m.ID(), err)
			}
		}
	}
	return b.Build(), nil
}

// Components returns the connected components of the graph as vertex lists,
// each sorted, ordered by their smallest vertex.
func (g *Graph) Components() [][]int {
	comps := topo.ConnectedComponents(g.Gonum())
	result := make([][]int, 0, len(comps))
	for _, comp := range comps {
		verts := make([]int, len(comp))
		for i, n := range comp {
			verts[i] = int(n.ID())
		}
		sort.Ints(verts)
		result = append(result, verts)
	}
	sort.Slice(result, func(i, j int) bool { return result[i][0] < result[j][0] })
	return result
}
