package bgraph

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DFParams are the parameters of the diffusion method.
type DFParams struct {
	// Pass is the number of diffusion steps.
	Pass int `strat:"pass"`
	// Bal is the tolerated imbalance, as a ratio of the average load.
	Bal float64 `strat:"bal"`
}

const dfEpsilon = 1e-9

// Diffuse computes a partition from a heat field. Two far apart anchor
// vertices are held at +1 and -1 while every other vertex repeatedly takes
// the average of its own value, weighted by its load, and of its neighbors'
// values, weighted by edge loads. Vertices of non-negative value go to part
// 0. The heavier part then gives away its vertices of smallest magnitude
// until the imbalance fits the window.
func (b *Graph) Diffuse(p DFParams) error {
	n := b.S.VertNbr
	if n < 2 {
		b.Zero()
		return nil
	}

	rng := b.rng('d')
	dist := make([]int, n)
	a0 := b.bfs(rng.Intn(n), dist)
	a1 := b.bfs(a0, dist)
	for v := range dist {
		// Anchor a disconnected graph on another component
		if dist[v] < 0 {
			a1 = v
			break
		}
	}

	x := make([]float64, n)
	next := make([]float64, n)
	x[a0], x[a1] = 1, -1
	steps := 0
	for ; steps < p.Pass; steps++ {
		for v := 0; v < n; v++ {
			if v == a0 || v == a1 {
				next[v] = x[v]
				continue
			}
			velo := float64(b.S.VertexLoad(v))
			sum, wsum := velo*x[v], velo
			for e := b.S.Verttab[v]; e < b.S.Verttab[v+1]; e++ {
				w := float64(b.S.EdgeLoad(e))
				sum += w * x[b.S.Edgetab[e]]
				wsum += w
			}
			next[v] = sum / wsum
		}
		x, next = next, x
		if floats.Distance(x, next, math.Inf(1)) < dfEpsilon {
			break
		}
	}

	compload0 := 0
	for v := 0; v < n; v++ {
		if x[v] >= 0 {
			b.Parttax[v] = 0
			compload0 += b.S.VertexLoad(v)
		} else {
			b.Parttax[v] = 1
		}
	}
	b.rebalance(x, compload0-b.Compload0Avg, b.DltMax(p.Bal))
	b.Recompute()

	b.Log.Debug().
		Int("level", b.Level).
		Int("steps", steps).
		Int("commload", b.Commload).
		Int("dlt", b.Compload0Dlt).
		Msg("diffusion finished")
	return nil
}

// rebalance moves vertices of the heavier part, by increasing magnitude of
// their field value, while this brings the imbalance down toward dltmax.
func (b *Graph) rebalance(x []float64, dlt, dltmax int) {
	if abs(dlt) <= dltmax {
		return
	}
	mag := make([]float64, len(x))
	for i, v := range x {
		mag[i] = math.Abs(v)
	}
	order := make([]int, len(x))
	floats.Argsort(mag, order)

	for _, v := range order {
		if abs(dlt) <= dltmax {
			return
		}
		heavy := uint8(1)
		if dlt > 0 {
			heavy = 0
		}
		if b.Parttax[v] != heavy {
			continue
		}
		nd := dlt + b.S.VertexLoad(v)
		if heavy == 0 {
			nd = dlt - b.S.VertexLoad(v)
		}
		if abs(nd) >= abs(dlt) {
			continue
		}
		b.Parttax[v] ^= 1
		dlt = nd
	}
}
