package graph

import (
	"fmt"
)

// CheckError represents one structural inconsistency found by Check
type CheckError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (ce CheckError) Error() string {
	if ce.Value != "" {
		return fmt.Sprintf("check error in field '%s': %s (value: %s)", ce.Field, ce.Message, ce.Value)
	}
	return fmt.Sprintf("check error in field '%s': %s", ce.Field, ce.Message)
}

// CheckErrors is a collection of check errors
type CheckErrors []CheckError

func (ce CheckErrors) Error() string {
	if len(ce) == 0 {
		return "no check errors"
	}
	if len(ce) == 1 {
		return ce[0].Error()
	}
	return fmt.Sprintf("%d check errors: %s (and %d more)", len(ce), ce[0].Error(), len(ce)-1)
}

// Add appends an error; it is a helper for packages building their own checks.
func (ce *CheckErrors) Add(field, message string, value any) {
	err := CheckError{Field: field, Message: message}
	if value != nil {
		err.Value = fmt.Sprint(value)
	}
	*ce = append(*ce, err)
}

// Err returns nil when no error was collected.
func (ce CheckErrors) Err() error {
	if len(ce) == 0 {
		return nil
	}
	return ce
}

// Check verifies the structural consistency of the graph: adjacency ranges,
// neighbor indices, arc symmetry with matching loads, positive loads and
// cached sums.
func (g *Graph) Check() error {
	var errs CheckErrors

	if g.VertNbr < 0 {
		errs.Add("vertnbr", "negative vertex count", g.VertNbr)
		return errs
	}
	if len(g.Verttab) != g.VertNbr+1 {
		errs.Add("verttab", "length must be vertnbr+1", len(g.Verttab))
		return errs
	}
	if g.Verttab[g.VertNbr] != g.EdgeNbr || len(g.Edgetab) != g.EdgeNbr {
		errs.Add("edgenbr", "arc count does not match adjacency", g.EdgeNbr)
		return errs
	}
	if g.Velotab != nil && len(g.Velotab) != g.VertNbr {
		errs.Add("velotab", "length must be vertnbr", len(g.Velotab))
	}
	if g.Edlotab != nil && len(g.Edlotab) != g.EdgeNbr {
		errs.Add("edlotab", "length must be edgenbr", len(g.Edlotab))
	}
	if g.Vlbltab != nil && len(g.Vlbltab) != g.VertNbr {
		errs.Add("vlbltab", "length must be vertnbr", len(g.Vlbltab))
	}
	if len(errs) > 0 {
		return errs
	}

	velosum := 0
	edlosum := 0
	for v := 0; v < g.VertNbr; v++ {
		if g.Verttab[v+1] < g.Verttab[v] {
			errs.Add("verttab", "decreasing adjacency range", v)
			continue
		}
		load := g.VertexLoad(v)
		if load <= 0 {
			errs.Add("velotab", "non-positive vertex load", v)
		}
		velosum += load

		for e := g.Verttab[v]; e < g.Verttab[v+1]; e++ {
			u := g.Edgetab[e]
			edlosum += g.EdgeLoad(e)
			if u < 0 || u >= g.VertNbr {
				errs.Add("edgetab", "neighbor out of range", fmt.Sprintf("%d->%d", v, u))
				continue
			}
			if u == v {
				errs.Add("edgetab", "loop edge", v)
				continue
			}
			if g.EdgeLoad(e) <= 0 {
				errs.Add("edlotab", "non-positive edge load", fmt.Sprintf("%d->%d", v, u))
			}
			back := -1
			for f := g.Verttab[u]; f < g.Verttab[u+1]; f++ {
				if g.Edgetab[f] == v {
					back = f
					break
				}
			}
			if back < 0 {
				errs.Add("edgetab", "arc has no reverse arc", fmt.Sprintf("%d->%d", v, u))
			} else if g.EdgeLoad(back) != g.EdgeLoad(e) {
				errs.Add("edlotab", "arc loads differ from reverse arc", fmt.Sprintf("%d->%d", v, u))
			}
		}
	}
	if velosum != g.VeloSum {
		errs.Add("velosum", "cached vertex load sum is stale", g.VeloSum)
	}
	if edlosum != g.EdloSum {
		errs.Add("edlosum", "cached edge load sum is stale", g.EdloSum)
	}

	return errs.Err()
}
