package mapping

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the quality of a mapping.
type Stats struct {
	// Loads maps each used terminal number to the load mapped onto it.
	Loads map[int]int `json:"loads"`

	Terminals int     `json:"terminals"`
	LoadMin   int     `json:"load_min"`
	LoadMax   int     `json:"load_max"`
	LoadAvg   float64 `json:"load_avg"`
	LoadDev   float64 `json:"load_dev"`
	// Imbalance is the largest ratio of a terminal load to its share of the
	// total load, minus one. Shares are proportional to terminal weights
	// over the whole architecture, or over the used terminals when the
	// architecture is variable-sized.
	Imbalance float64 `json:"imbalance"`

	CutEdges int `json:"cut_edges"`
	// CommLoad is the sum over cut edges of edge load times domain distance.
	CommLoad int `json:"comm_load"`
	// Dilation is the largest domain distance of a cut edge.
	Dilation int `json:"dilation"`
}

// Stats computes load and communication statistics. Unmapped vertices are
// skipped.
func (m *Mapping) Stats() Stats {
	g := m.Graph
	s := Stats{Loads: make(map[int]int)}
	weights := make(map[int]int)

	for v := 0; v < g.VertNbr; v++ {
		d, ok := m.Domain(v)
		if !ok {
			continue
		}
		num := m.Arch.DomainNum(d)
		s.Loads[num] += g.VertexLoad(v)
		weights[num] = m.Arch.DomainWeight(d)

		for e := g.Verttab[v]; e < g.Verttab[v+1]; e++ {
			u := g.Edgetab[e]
			if u < v {
				continue
			}
			du, ok := m.Domain(u)
			if !ok || du == d {
				continue
			}
			dist := m.Arch.DomainDist(d, du)
			s.CutEdges++
			s.CommLoad += g.EdgeLoad(e) * dist
			if dist > s.Dilation {
				s.Dilation = dist
			}
		}
	}

	s.Terminals = len(s.Loads)
	if s.Terminals == 0 {
		return s
	}

	nums := make([]int, 0, len(s.Loads))
	for num := range s.Loads {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	loads := make([]float64, len(nums))
	s.LoadMin = math.MaxInt
	wsum := 0
	for i, num := range nums {
		l := s.Loads[num]
		loads[i] = float64(l)
		s.LoadMin = min(s.LoadMin, l)
		s.LoadMax = max(s.LoadMax, l)
		wsum += weights[num]
	}
	s.LoadAvg = stat.Mean(loads, nil)
	if len(loads) > 1 {
		s.LoadDev = stat.StdDev(loads, nil)
	}
	if !m.Arch.Variable() {
		wsum = m.Arch.DomainWeight(m.Arch.DomainFirst())
	}

	if wsum > 0 && g.VeloSum > 0 {
		worst := 0.0
		for _, num := range nums {
			target := float64(g.VeloSum) * float64(weights[num]) / float64(wsum)
			if target > 0 {
				worst = math.Max(worst, float64(s.Loads[num])/target)
			}
		}
		s.Imbalance = worst - 1
	}
	return s
}
