package graph

// Induce builds the subgraph induced by the vertices v with part[v] == side.
// Vnumtab of the result refers to the same ancestor as g.
func (g *Graph) Induce(part []uint8, side uint8) *Graph {
	verts := make([]int, 0, g.VertNbr)
	for v := 0; v < g.VertNbr; v++ {
		if part[v] == side {
			verts = append(verts, v)
		}
	}
	return g.InduceList(verts)
}

// InduceList builds the subgraph induced by the given vertex list, which
// must not contain duplicates. Vertex i of the result is verts[i].
func (g *Graph) InduceList(verts []int) *Graph {
	index := make([]int, g.VertNbr)
	for i := range index {
		index[i] = -1
	}
	for i, v := range verts {
		index[v] = i
	}

	sub := &Graph{
		Base:    g.Base,
		VertNbr: len(verts),
		Verttab: make([]int, len(verts)+1),
		Vnumtab: make([]int, len(verts)),
	}
	if g.Velotab != nil {
		sub.Velotab = make([]int, len(verts))
	}
	if g.Vlbltab != nil {
		sub.Vlbltab = make([]int, len(verts))
	}
	edges := make([]int, 0)
	var loads []int
	if g.Edlotab != nil {
		loads = make([]int, 0)
	}

	for i, v := range verts {
		sub.Vnumtab[i] = g.Origin(v)
		if sub.Velotab != nil {
			sub.Velotab[i] = g.Velotab[v]
		}
		if sub.Vlbltab != nil {
			sub.Vlbltab[i] = g.Vlbltab[v]
		}
		for e := g.Verttab[v]; e < g.Verttab[v+1]; e++ {
			j := index[g.Edgetab[e]]
			if j < 0 {
				continue
			}
			edges = append(edges, j)
			if loads != nil {
				loads = append(loads, g.Edlotab[e])
			}
		}
		sub.Verttab[i+1] = len(edges)
	}
	sub.Edgetab = edges
	sub.Edlotab = loads
	sub.EdgeNbr = len(edges)
	sub.computeSums()
	return sub
}
