package bgraph

import (
	"errors"
	"fmt"

	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
	"github.com/gilchrisn/graph-mapping-service/pkg/strategy"
)

// MLParams are the parameters of the multilevel method.
type MLParams struct {
	// Vert is the vertex count at or below which coarsening stops.
	Vert int `strat:"vert"`
	// Rat is the largest coarse to fine vertex ratio accepted.
	Rat float64 `strat:"rat"`
	// Low is applied to the coarsest graph.
	Low strategy.Node `strat:"low"`
	// Asc is applied to each graph after uncoarsening.
	Asc strategy.Node `strat:"asc"`
}

// Multilevel coarsens the graph, bipartitions the coarse graph recursively
// and projects the result back before refining it with Asc. When the graph
// is small enough or does not shrink enough, Low is applied to it instead.
func (b *Graph) Multilevel(p MLParams) error {
	if b.S.VertNbr > p.Vert {
		co, err := graph.Coarsen(b.S, b.rng('m'))
		switch {
		case err == nil && float64(co.Coarse.VertNbr) <= p.Rat*float64(b.S.VertNbr):
			coarse := b.coarsen(co)
			b.Log.Trace().
				Int("level", b.Level).
				Int("vertices", b.S.VertNbr).
				Int("coarse_vertices", coarse.S.VertNbr).
				Msg("coarsened")
			if err := coarse.Multilevel(p); err != nil {
				return err
			}
			b.uncoarsen(coarse, co)
			return b.Run(p.Asc)
		case err != nil && !errors.Is(err, graph.ErrCoarsenDegenerate):
			return fmt.Errorf("failed to coarsen level %d: %w", b.Level, err)
		}
	}
	return b.Run(p.Low)
}

// coarsen builds the active graph of a coarsening, with every vertex in part 0.
func (b *Graph) coarsen(co *graph.Coarsening) *Graph {
	c := &Graph{
		S:             co.Coarse,
		Arch:          b.Arch,
		Dom:           b.Dom,
		Parttax:       make([]uint8, co.Coarse.VertNbr),
		Frontab:       make([]int, 0, co.Coarse.VertNbr),
		Domndist:      b.Domndist,
		Domnwght:      b.Domnwght,
		Compload0Avg:  b.Compload0Avg,
		CommloadExtn0: b.CommloadExtn0,
		CommgainExtn0: b.CommgainExtn0,
		Level:         b.Level + 1,
		Seed:          b.Seed,
		Log:           b.Log,
		Tracker:       b.Tracker,
	}
	if b.Veextab != nil {
		c.Veextab = make([]int, co.Coarse.VertNbr)
		for cv, mn := range co.Multinodes {
			c.Veextab[cv] = b.Veextab[mn[0]]
			if mn[1] != mn[0] {
				c.Veextab[cv] += b.Veextab[mn[1]]
			}
		}
	}
	c.Zero()
	return c
}

// uncoarsen projects the partition of the coarse graph back.
func (b *Graph) uncoarsen(coarse *Graph, co *graph.Coarsening) {
	b.Compsize0 = 0
	for v := range b.Parttax {
		b.Parttax[v] = coarse.Parttax[co.FineToCoarse[v]]
		if b.Parttax[v] == 0 {
			b.Compsize0++
		}
	}

	b.Frontab = b.Frontab[:0]
	for _, cv := range coarse.Frontab {
		mn := co.Multinodes[cv]
		fines := mn[:]
		if mn[0] == mn[1] {
			fines = mn[:1]
		}
		for _, v := range fines {
			p := b.Parttax[v]
			for _, u := range b.S.Neighbors(v) {
				if b.Parttax[u] != p {
					b.Frontab = append(b.Frontab, v)
					break
				}
			}
		}
	}

	b.Compload0 = coarse.Compload0
	b.Compload0Dlt = coarse.Compload0Dlt
	b.Commload = coarse.Commload
	b.CommgainExtn = coarse.CommgainExtn
}
