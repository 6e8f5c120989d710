package graph

import (
	"fmt"
	"math/rand"
)

// Coarsening is the result of contracting a matching of a fine graph.
type Coarsening struct {
	Coarse *Graph
	// Multinodes[c] holds the fine vertices merged into coarse vertex c.
	// Both entries are equal when c represents a single fine vertex.
	Multinodes [][2]int
	// FineToCoarse[v] is the coarse vertex holding fine vertex v.
	FineToCoarse []int
}

// Coarsen contracts a randomized heavy-edge matching of g. Each vertex, taken
// in random order, is matched with its unmatched neighbor of heaviest edge
// load, or with itself if all its neighbors are matched. Loads of merged
// vertices and of merged edges are summed; edges internal to a multinode
// disappear.
func Coarsen(g *Graph, rng *rand.Rand) (*Coarsening, error) {
	if g.VertNbr == 0 {
		return nil, fmt.Errorf("%w: empty graph", ErrCoarsenDegenerate)
	}

	fineToCoarse := make([]int, g.VertNbr)
	for i := range fineToCoarse {
		fineToCoarse[i] = -1
	}
	multinodes := make([][2]int, 0, g.VertNbr/2+1)

	for _, v := range rng.Perm(g.VertNbr) {
		if fineToCoarse[v] >= 0 {
			continue
		}
		mate := v
		best := 0
		for e := g.Verttab[v]; e < g.Verttab[v+1]; e++ {
			u := g.Edgetab[e]
			if fineToCoarse[u] >= 0 {
				continue
			}
			if load := g.EdgeLoad(e); load > best {
				best = load
				mate = u
			}
		}
		c := len(multinodes)
		fineToCoarse[v] = c
		fineToCoarse[mate] = c
		multinodes = append(multinodes, [2]int{v, mate})
	}

	if len(multinodes) == g.VertNbr {
		return nil, fmt.Errorf("%w: no vertex could be matched (%d vertices)", ErrCoarsenDegenerate, g.VertNbr)
	}

	coarse := &Graph{
		Base:    g.Base,
		VertNbr: len(multinodes),
		Verttab: make([]int, len(multinodes)+1),
		Velotab: make([]int, len(multinodes)),
	}
	edges := make([]int, 0, g.EdgeNbr)
	loads := make([]int, 0, g.EdgeNbr)

	// slot[c'] is the arc position of neighbor c' in the current coarse
	// vertex's adjacency, valid when owner[c'] is the current vertex.
	slot := make([]int, len(multinodes))
	owner := make([]int, len(multinodes))
	for i := range owner {
		owner[i] = -1
	}

	for c, mn := range multinodes {
		coarse.Velotab[c] = g.VertexLoad(mn[0])
		fines := mn[:]
		if mn[0] == mn[1] {
			fines = mn[:1]
		} else {
			coarse.Velotab[c] += g.VertexLoad(mn[1])
		}
		for _, v := range fines {
			for e := g.Verttab[v]; e < g.Verttab[v+1]; e++ {
				cu := fineToCoarse[g.Edgetab[e]]
				if cu == c {
					continue
				}
				if owner[cu] == c {
					loads[slot[cu]] += g.EdgeLoad(e)
					continue
				}
				owner[cu] = c
				slot[cu] = len(edges)
				edges = append(edges, cu)
				loads = append(loads, g.EdgeLoad(e))
			}
		}
		coarse.Verttab[c+1] = len(edges)
	}

	coarse.Edgetab = edges
	coarse.Edlotab = loads
	coarse.EdgeNbr = len(edges)
	coarse.computeSums()

	return &Coarsening{
		Coarse:       coarse,
		Multinodes:   multinodes,
		FineToCoarse: fineToCoarse,
	}, nil
}
