package bgraph

import (
	"github.com/gilchrisn/graph-mapping-service/pkg/strategy"
)

// Snapshot is a saved partition state of a Graph.
type Snapshot struct {
	b            *Graph
	parttax      []uint8
	frontab      []int
	compload0    int
	compload0Dlt int
	compsize0    int
	commload     int
	commgainExtn int
}

// Save copies the partition state.
func (b *Graph) Save() *Snapshot {
	return &Snapshot{
		b:            b,
		parttax:      append([]uint8(nil), b.Parttax...),
		frontab:      append([]int(nil), b.Frontab...),
		compload0:    b.Compload0,
		compload0Dlt: b.Compload0Dlt,
		compsize0:    b.Compsize0,
		commload:     b.Commload,
		commgainExtn: b.CommgainExtn,
	}
}

// Restore puts the graph back into the saved state.
func (s *Snapshot) Restore() {
	b := s.b
	copy(b.Parttax, s.parttax)
	b.Frontab = append(b.Frontab[:0], s.frontab...)
	b.Compload0 = s.compload0
	b.Compload0Dlt = s.compload0Dlt
	b.Compsize0 = s.compsize0
	b.Commload = s.commload
	b.CommgainExtn = s.commgainExtn
}

// Commload returns the saved communication load.
func (s *Snapshot) Commload() int { return s.commload }

// Dlt returns the saved imbalance.
func (s *Snapshot) Dlt() int { return s.compload0Dlt }

// Better reports whether s has a strictly smaller communication load than
// other, or the same load with a strictly smaller imbalance.
func (s *Snapshot) Better(other strategy.Snapshot) bool {
	o := other.(*Snapshot)
	if s.commload != o.commload {
		return s.commload < o.commload
	}
	return abs(s.compload0Dlt) < abs(o.compload0Dlt)
}

// Store implements strategy.Target.
func (b *Graph) Store() strategy.Snapshot { return b.Save() }
