package bgraph

import (
	"math/rand"

	"github.com/gilchrisn/graph-mapping-service/pkg/gain"
)

// GGParams are the parameters of greedy graph growing.
type GGParams struct {
	// Pass is the number of growths tried; the best one is kept.
	Pass int `strat:"pass"`
}

type ggArena []gain.Link

func (a ggArena) Link(h int) *gain.Link { return &a[h] }

// GrowGreedy computes a partition by growing part 0 from a seed vertex over
// a part 1 holding every vertex. Vertices adjacent to part 0 are moved by
// increasing communication gain for as long as a move lowers the imbalance;
// when the grown region has no neighbor left, growth restarts from an
// unvisited vertex. Even passes start from a random vertex and odd passes
// from a peripheral one. The pass of smallest communication load, then
// smallest imbalance, is kept.
func (b *Graph) GrowGreedy(p GGParams) error {
	n := b.S.VertNbr
	if n == 0 {
		b.Zero()
		return nil
	}
	if p.Pass < 1 {
		p.Pass = 1
	}
	rng := b.rng('h')
	arena := make(ggArena, n)
	tab := gain.New(arena, 0)
	dist := make([]int, n)

	var best *Snapshot
	for pass := 0; pass < p.Pass; pass++ {
		seed := rng.Intn(n)
		if pass%2 == 1 {
			seed = b.bfs(seed, dist)
		}
		b.grow(seed, arena, tab)
		b.Recompute()
		if cur := b.Save(); best == nil || cur.Better(best) {
			best = cur
		}
	}
	best.Restore()

	b.Log.Debug().
		Int("level", b.Level).
		Int("passes", p.Pass).
		Int("commload", b.Commload).
		Int("dlt", b.Compload0Dlt).
		Msg("greedy growing finished")
	return nil
}

func (b *Graph) grow(seed int, arena ggArena, tab *gain.Table) {
	n := len(arena)
	tab.Reset()
	for i := range arena {
		arena[i] = gain.Link{}
	}
	for i := range b.Parttax {
		b.Parttax[i] = 1
	}
	dlt := -b.Compload0Avg

	take := func(v int) {
		b.Parttax[v] = 0
		arena[v].State = gain.Used
		dlt += b.S.VertexLoad(v)
		for e := b.S.Verttab[v]; e < b.S.Verttab[v+1]; e++ {
			u := b.S.Edgetab[e]
			switch arena[u].State {
			case gain.Used:
				continue
			case gain.Linked:
				g := arena[u].Gain - 2*b.S.EdgeLoad(e)*b.Domndist
				tab.Del(u)
				tab.Add(u, g)
			default:
				tab.Add(u, b.growGain(u))
			}
		}
	}

	take(seed)
	next := 0
	for {
		h := tab.First()
		if h < 0 {
			for next < n && arena[next].State != gain.Free {
				next++
			}
			if next == n {
				break
			}
			h = next
		}
		if abs(dlt+b.S.VertexLoad(h)) >= abs(dlt) {
			break
		}
		if arena[h].State == gain.Linked {
			tab.Del(h)
		}
		take(h)
	}
	tab.Reset()
}

// growGain is the communication gain of moving v from part 1 to part 0.
func (b *Graph) growGain(v int) int {
	g := b.ext(v, 1)
	for e := b.S.Verttab[v]; e < b.S.Verttab[v+1]; e++ {
		c := b.S.EdgeLoad(e) * b.Domndist
		if b.Parttax[b.S.Edgetab[e]] == 1 {
			g += c
		} else {
			g -= c
		}
	}
	return g
}

// bfs fills dist with hop distances from start, -1 for unreached vertices,
// and returns the last vertex reached.
func (b *Graph) bfs(start int, dist []int) int {
	for i := range dist {
		dist[i] = -1
	}
	queue := []int{start}
	dist[start] = 0
	last := start
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		last = v
		for _, u := range b.S.Neighbors(v) {
			if dist[u] < 0 {
				dist[u] = dist[v] + 1
				queue = append(queue, u)
			}
		}
	}
	return last
}

// rng returns the random source of a method. It only depends on the seed
// and the level, so a method run twice from the same state does the same.
func (b *Graph) rng(method byte) *rand.Rand {
	return rand.New(rand.NewSource(b.Seed*1000003 + int64(method)*7919 + int64(b.Level)))
}
