// Package bgraph implements the active bipartition graph and the methods
// that compute and refine a two-way partition of it: Fiduccia-Mattheyses
// refinement, greedy graph growing, diffusion, multilevel bipartitioning
// and the zero method.
//
// A Graph borrows its source graph and owns a part array, a frontier and
// incremental load and communication aggregates for the two candidate
// subdomains. Every method leaves these consistent with a full
// recomputation, which Check verifies.
package bgraph

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/gilchrisn/graph-mapping-service/pkg/arch"
	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
	"github.com/rs/zerolog"
)

var (
	// ErrAllocation is returned when a working structure cannot grow or be created.
	ErrAllocation = errors.New("bgraph: allocation failure")
	// ErrMethod is returned when a partitioning method cannot run.
	ErrMethod = errors.New("bgraph: method failed")
)

// External describes the placement of the vertices that surround the
// subgraph in an ancestor graph. Vertices of the subgraph are identified in
// the ancestor through their Vnumtab entries.
type External struct {
	Source *graph.Graph
	// Domain returns the domain ancestor vertex v is currently mapped to,
	// or false when v is not mapped.
	Domain func(v int) (arch.Domain, bool)
}

// Graph is an active bipartition graph.
type Graph struct {
	S    *graph.Graph
	Arch arch.Arch
	Dom  [2]arch.Domain

	// Parttax[v] is the part of vertex v.
	Parttax []uint8
	// Frontab holds the vertices having a neighbor in the other part.
	Frontab []int

	Domndist int
	Domnwght [2]int

	Compload0    int // load of part 0
	Compload0Avg int // target load of part 0
	Compload0Dlt int // Compload0 - Compload0Avg
	Compsize0    int // number of vertices in part 0
	Commload     int // communication load, external part included

	// Veextab[v] is the external communication load change when v goes
	// from part 0 to part 1. It is nil when there is none.
	Veextab       []int
	CommloadExtn0 int // external communication load when all vertices are in part 0
	CommgainExtn0 int // external load change when all vertices go from part 0 to part 1
	CommgainExtn  int // external load change when all vertices swap parts

	// Level is the coarsening depth of the graph.
	Level int
	// Seed drives the random choices of methods.
	Seed int64

	Log     zerolog.Logger
	Tracker *MoveTracker
}

// New creates an active bipartition graph of g against two domains of a,
// with every vertex in part 0. When ext is not nil, edges leading from g to
// already mapped vertices of ext.Source are folded into external gains.
func New(g *graph.Graph, a arch.Arch, dom0, dom1 arch.Domain, ext *External) (*Graph, error) {
	if g == nil || a == nil {
		return nil, fmt.Errorf("%w: nil graph or architecture", ErrAllocation)
	}
	b := &Graph{
		S:        g,
		Arch:     a,
		Dom:      [2]arch.Domain{dom0, dom1},
		Parttax:  make([]uint8, g.VertNbr),
		Frontab:  make([]int, 0, g.VertNbr),
		Domndist: a.DomainDist(dom0, dom1),
		Domnwght: [2]int{a.DomainWeight(dom0), a.DomainWeight(dom1)},
		Log:      zerolog.Nop(),
	}
	b.Compload0Avg = average(g.VeloSum, b.Domnwght)

	if ext != nil {
		if err := b.external(ext); err != nil {
			return nil, err
		}
	}
	b.Zero()
	return b, nil
}

// average splits load between the two domains in proportion to their weights.
func average(load int, w [2]int) int {
	if w[0]+w[1] <= 0 {
		return load / 2
	}
	hi, lo := bits.Mul64(uint64(load), uint64(w[0]))
	q, _ := bits.Div64(hi, lo, uint64(w[0]+w[1]))
	return int(q)
}

func (b *Graph) external(ext *External) error {
	src := ext.Source
	if src == nil || ext.Domain == nil || b.S.Vnumtab == nil {
		return fmt.Errorf("%w: external gains need a source graph, a domain lookup and vertex numbers", ErrAllocation)
	}
	inside := make(map[int]struct{}, b.S.VertNbr)
	for v := 0; v < b.S.VertNbr; v++ {
		inside[b.S.Origin(v)] = struct{}{}
	}

	veex := make([]int, b.S.VertNbr)
	nonzero := false
	for v := 0; v < b.S.VertNbr; v++ {
		o := b.S.Origin(v)
		if o < 0 || o >= src.VertNbr {
			return fmt.Errorf("%w: vertex %d has origin %d outside source graph", ErrAllocation, v, o)
		}
		for e := src.Verttab[o]; e < src.Verttab[o+1]; e++ {
			n := src.Edgetab[e]
			if _, ok := inside[n]; ok {
				continue
			}
			dn, ok := ext.Domain(n)
			if !ok {
				continue
			}
			load := src.EdgeLoad(e)
			b.CommloadExtn0 += load * b.Arch.DomainDist(b.Dom[0], dn)
			veex[v] += load * (b.Arch.DomainDist(b.Dom[1], dn) - b.Arch.DomainDist(b.Dom[0], dn))
		}
		if veex[v] != 0 {
			nonzero = true
		}
		b.CommgainExtn0 += veex[v]
	}
	if nonzero {
		b.Veextab = veex
	}
	return nil
}

// ext returns the external load change of moving v out of part p.
func (b *Graph) ext(v int, p uint8) int {
	if b.Veextab == nil {
		return 0
	}
	if p == 0 {
		return b.Veextab[v]
	}
	return -b.Veextab[v]
}

// Zero puts every vertex back in part 0.
func (b *Graph) Zero() {
	for i := range b.Parttax {
		b.Parttax[i] = 0
	}
	b.Frontab = b.Frontab[:0]
	b.Compload0 = b.S.VeloSum
	b.Compload0Dlt = b.S.VeloSum - b.Compload0Avg
	b.Compsize0 = b.S.VertNbr
	b.Commload = b.CommloadExtn0
	b.CommgainExtn = b.CommgainExtn0
}

// Swap exchanges the two parts. The frontier is unchanged.
func (b *Graph) Swap() {
	for i := range b.Parttax {
		b.Parttax[i] ^= 1
	}
	b.Compload0 = b.S.VeloSum - b.Compload0
	b.Compload0Dlt = b.S.VeloSum - b.Compload0Dlt - 2*b.Compload0Avg
	b.Compsize0 = b.S.VertNbr - b.Compsize0
	b.Commload += b.CommgainExtn
	b.CommgainExtn = -b.CommgainExtn
}

// Cost holds aggregates computed from the part array alone.
type Cost struct {
	Compload0    int
	Compsize0    int
	Commload     int
	CommgainExtn int
	Frontier     []int
}

// Cost recomputes every aggregate by scanning the part array.
func (b *Graph) Cost() Cost {
	var c Cost
	c.Commload = b.CommloadExtn0
	cut := 0
	for v := 0; v < b.S.VertNbr; v++ {
		p := b.Parttax[v]
		if p == 0 {
			c.Compload0 += b.S.VertexLoad(v)
			c.Compsize0++
		} else if b.Veextab != nil {
			c.Commload += b.Veextab[v]
		}
		c.CommgainExtn += b.ext(v, p)

		front := false
		for e := b.S.Verttab[v]; e < b.S.Verttab[v+1]; e++ {
			if b.Parttax[b.S.Edgetab[e]] != p {
				front = true
				cut += b.S.EdgeLoad(e)
			}
		}
		if front {
			c.Frontier = append(c.Frontier, v)
		}
	}
	// Every cut edge was seen from both ends
	c.Commload += cut / 2 * b.Domndist
	return c
}

// Recompute sets the aggregates and the frontier from the part array.
func (b *Graph) Recompute() {
	c := b.Cost()
	b.Compload0 = c.Compload0
	b.Compload0Dlt = c.Compload0 - b.Compload0Avg
	b.Compsize0 = c.Compsize0
	b.Commload = c.Commload
	b.CommgainExtn = c.CommgainExtn
	b.Frontab = append(b.Frontab[:0], c.Frontier...)
}

// DltMax returns the largest imbalance tolerated for a balance ratio.
func (b *Graph) DltMax(bal float64) int {
	if bal < 0 {
		bal = 0
	}
	return int(float64(b.Compload0Avg) * bal)
}

// Balanced reports whether the imbalance fits the window of ratio bal.
func (b *Graph) Balanced(bal float64) bool {
	return abs(b.Compload0Dlt) <= b.DltMax(bal)
}

// Side returns the vertices of part p.
func (b *Graph) Side(p uint8) []int {
	var verts []int
	for v, q := range b.Parttax {
		if q == p {
			verts = append(verts, v)
		}
	}
	return verts
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
