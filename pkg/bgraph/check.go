package bgraph

import (
	"fmt"
	"sort"

	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
)

// Check recomputes every aggregate from the part array and compares it with
// the stored value. It is meant for tests and debugging.
func (b *Graph) Check() error {
	var errs graph.CheckErrors

	if len(b.Parttax) != b.S.VertNbr {
		errs.Add("parttax", "length must be vertnbr", len(b.Parttax))
		return errs
	}
	for v, p := range b.Parttax {
		if p > 1 {
			errs.Add("parttax", "part must be 0 or 1", fmt.Sprintf("vertex %d part %d", v, p))
			return errs
		}
	}
	if b.Veextab != nil && len(b.Veextab) != b.S.VertNbr {
		errs.Add("veextab", "length must be vertnbr", len(b.Veextab))
		return errs
	}

	c := b.Cost()
	if b.Compload0 != b.Compload0Avg+b.Compload0Dlt {
		errs.Add("compload0dlt", "load of part 0 differs from average plus delta",
			fmt.Sprintf("%d != %d + %d", b.Compload0, b.Compload0Avg, b.Compload0Dlt))
	}
	if b.Compload0 != c.Compload0 {
		errs.Add("compload0", "stale load of part 0", fmt.Sprintf("%d, want %d", b.Compload0, c.Compload0))
	}
	if b.Compsize0 != c.Compsize0 {
		errs.Add("compsize0", "stale size of part 0", fmt.Sprintf("%d, want %d", b.Compsize0, c.Compsize0))
	}
	if b.Commload != c.Commload {
		errs.Add("commload", "stale communication load", fmt.Sprintf("%d, want %d", b.Commload, c.Commload))
	}
	if b.CommgainExtn != c.CommgainExtn {
		errs.Add("commgainextn", "stale external swap gain", fmt.Sprintf("%d, want %d", b.CommgainExtn, c.CommgainExtn))
	}

	front := append([]int(nil), b.Frontab...)
	sort.Ints(front)
	for i := 1; i < len(front); i++ {
		if front[i] == front[i-1] {
			errs.Add("frontab", "duplicate frontier vertex", front[i])
		}
	}
	if len(front) != len(c.Frontier) {
		errs.Add("frontab", "frontier size differs", fmt.Sprintf("%d, want %d", len(front), len(c.Frontier)))
	} else {
		for i := range front {
			if front[i] != c.Frontier[i] {
				errs.Add("frontab", "frontier differs", fmt.Sprintf("vertex %d, want %d", front[i], c.Frontier[i]))
				break
			}
		}
	}

	return errs.Err()
}
