package graph

import (
	"errors"
	"fmt"
)

var (
	ErrVertexRange       = errors.New("graph: vertex index out of range")
	ErrBadWeight         = errors.New("graph: weight must be positive")
	ErrCoarsenDegenerate = errors.New("graph: coarsening does not shrink the graph")
)

// Graph is an immutable weighted undirected graph in compressed adjacency form.
//
// Vertices are numbered from 0 internally; Base is the number given to the
// first vertex in files and labels. Every undirected edge is stored as two
// arcs, so EdgeNbr is twice the number of edges.
type Graph struct {
	Base    int   `json:"base"`
	VertNbr int   `json:"vertnbr"`
	EdgeNbr int   `json:"edgenbr"`
	Verttab []int `json:"-"` // Verttab[v]..Verttab[v+1] is the adjacency range of v
	Edgetab []int `json:"-"`
	Velotab []int `json:"-"` // vertex loads, nil means all 1
	Edlotab []int `json:"-"` // edge loads, nil means all 1
	Vlbltab []int `json:"-"` // external labels, nil means index+Base
	Vnumtab []int `json:"-"` // vertex numbers in the ancestor graph, nil means identity
	VeloSum int   `json:"velosum"`
	EdloSum int   `json:"edlosum"` // sum over arcs
}

// Degree returns the number of arcs leaving v.
func (g *Graph) Degree(v int) int {
	return g.Verttab[v+1] - g.Verttab[v]
}

// Neighbors returns the adjacency slice of v. The slice must not be modified.
func (g *Graph) Neighbors(v int) []int {
	return g.Edgetab[g.Verttab[v]:g.Verttab[v+1]]
}

// VertexLoad returns the load of vertex v.
func (g *Graph) VertexLoad(v int) int {
	if g.Velotab == nil {
		return 1
	}
	return g.Velotab[v]
}

// EdgeLoad returns the load of arc e.
func (g *Graph) EdgeLoad(e int) int {
	if g.Edlotab == nil {
		return 1
	}
	return g.Edlotab[e]
}

// Label returns the external label of v.
func (g *Graph) Label(v int) int {
	if g.Vlbltab == nil {
		return v + g.Base
	}
	return g.Vlbltab[v]
}

// Origin returns the number of v in the ancestor graph the graph was induced from.
func (g *Graph) Origin(v int) int {
	if g.Vnumtab == nil {
		return v
	}
	return g.Vnumtab[v]
}

// Clone creates a deep copy of the graph
func (g *Graph) Clone() *Graph {
	clone := *g
	clone.Verttab = cloneInts(g.Verttab)
	clone.Edgetab = cloneInts(g.Edgetab)
	clone.Velotab = cloneInts(g.Velotab)
	clone.Edlotab = cloneInts(g.Edlotab)
	clone.Vlbltab = cloneInts(g.Vlbltab)
	clone.Vnumtab = cloneInts(g.Vnumtab)
	return &clone
}

func cloneInts(s []int) []int {
	if s == nil {
		return nil
	}
	c := make([]int, len(s))
	copy(c, s)
	return c
}

// Builder accumulates edges before producing a Graph.
type Builder struct {
	numVertices int
	adjacency   [][]int
	weights     [][]int
	loads       []int
	labels      []int
	base        int
	weighted    bool
	loaded      bool
}

// NewBuilder creates a builder for a graph with n vertices
func NewBuilder(n int) *Builder {
	return &Builder{
		numVertices: n,
		adjacency:   make([][]int, n),
		weights:     make([][]int, n),
	}
}

// SetBase sets the number of the first vertex.
func (b *Builder) SetBase(base int) *Builder {
	b.base = base
	return b
}

// SetVertexLoad sets the load of vertex v.
func (b *Builder) SetVertexLoad(v, load int) error {
	if v < 0 || v >= b.numVertices {
		return fmt.Errorf("%w: v=%d, numVertices=%d", ErrVertexRange, v, b.numVertices)
	}
	if load <= 0 {
		return fmt.Errorf("%w: vertex %d load %d", ErrBadWeight, v, load)
	}
	if b.loads == nil {
		b.loads = make([]int, b.numVertices)
		for i := range b.loads {
			b.loads[i] = 1
		}
	}
	b.loads[v] = load
	if load != 1 {
		b.loaded = true
	}
	return nil
}

// SetLabel sets the external label of vertex v.
func (b *Builder) SetLabel(v, label int) error {
	if v < 0 || v >= b.numVertices {
		return fmt.Errorf("%w: v=%d, numVertices=%d", ErrVertexRange, v, b.numVertices)
	}
	if b.labels == nil {
		b.labels = make([]int, b.numVertices)
		for i := range b.labels {
			b.labels[i] = i + b.base
		}
	}
	b.labels[v] = label
	return nil
}

// AddEdge adds a weighted undirected edge between two vertices. Loops are ignored.
func (b *Builder) AddEdge(u, v, weight int) error {
	if u < 0 || u >= b.numVertices || v < 0 || v >= b.numVertices {
		return fmt.Errorf("%w: u=%d, v=%d, numVertices=%d", ErrVertexRange, u, v, b.numVertices)
	}
	if weight <= 0 {
		return fmt.Errorf("%w: edge %d-%d weight %d", ErrBadWeight, u, v, weight)
	}
	if u == v {
		return nil
	}
	if weight != 1 {
		b.weighted = true
	}

	// Merge parallel edges
	for i, n := range b.adjacency[u] {
		if n == v {
			b.weights[u][i] += weight
			for j, m := range b.adjacency[v] {
				if m == u {
					b.weights[v][j] += weight
					break
				}
			}
			b.weighted = true
			return nil
		}
	}

	b.adjacency[u] = append(b.adjacency[u], v)
	b.weights[u] = append(b.weights[u], weight)
	b.adjacency[v] = append(b.adjacency[v], u)
	b.weights[v] = append(b.weights[v], weight)
	return nil
}

// Build produces the immutable graph.
func (b *Builder) Build() *Graph {
	g := &Graph{
		Base:    b.base,
		VertNbr: b.numVertices,
		Verttab: make([]int, b.numVertices+1),
	}
	for v := 0; v < b.numVertices; v++ {
		g.Verttab[v+1] = g.Verttab[v] + len(b.adjacency[v])
	}
	g.EdgeNbr = g.Verttab[b.numVertices]
	g.Edgetab = make([]int, 0, g.EdgeNbr)
	if b.weighted {
		g.Edlotab = make([]int, 0, g.EdgeNbr)
	}
	for v := 0; v < b.numVertices; v++ {
		g.Edgetab = append(g.Edgetab, b.adjacency[v]...)
		if b.weighted {
			g.Edlotab = append(g.Edlotab, b.weights[v]...)
		}
	}
	if b.loaded {
		g.Velotab = cloneInts(b.loads)
	}
	g.Vlbltab = cloneInts(b.labels)
	g.computeSums()
	return g
}

func (g *Graph) computeSums() {
	if g.Velotab == nil {
		g.VeloSum = g.VertNbr
	} else {
		g.VeloSum = 0
		for _, l := range g.Velotab {
			g.VeloSum += l
		}
	}
	if g.Edlotab == nil {
		g.EdloSum = g.EdgeNbr
	} else {
		g.EdloSum = 0
		for _, l := range g.Edlotab {
			g.EdloSum += l
		}
	}
}
