package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
	"github.com/gilchrisn/graph-mapping-service/pkg/mapping"
)

func TestPoolTracksNeighborDomains(t *testing.T) {
	// 1, 2 and 3 hang off 0; 4 hangs off 3
	b := graph.NewBuilder(5)
	for _, e := range [][2]int{{0, 1}, {0, 2}, {0, 3}, {3, 4}} {
		require.NoError(t, b.AddEdge(e[0], e[1], 1))
	}
	g := b.Build()
	a := parseArch(t, "cmplt 4")
	st := &state{source: g, mapping: mapping.New(g, a), done: make([]bool, g.VertNbr)}
	pl := newPool(PolicyNgSize, st, 1)

	ha := pl.add(job{graph: g.InduceList([]int{0}), domain: a.DomainFirst()})
	hb := pl.add(job{graph: g.InduceList([]int{4}), domain: a.DomainFirst()})
	assert.Equal(t, 1, pl.tab[ha].prio)
	assert.Equal(t, 1, pl.tab[hb].prio)

	finish := func(term int, verts ...int) {
		d, err := a.DomainTerm(term)
		require.NoError(t, err)
		st.mapping.Assign(verts, st.mapping.AddDomain(d))
		for _, v := range verts {
			st.done[v] = true
		}
		pl.resolved(verts)
	}

	finish(0, 1, 2)
	assert.Equal(t, 2, pl.tab[ha].prio, "two vertices on one domain count once")
	assert.Equal(t, 1, pl.tab[hb].prio)

	finish(1, 3)
	assert.Equal(t, 3, pl.tab[ha].prio)
	assert.Equal(t, 2, pl.tab[hb].prio)

	for _, h := range []int{ha, hb} {
		j := &pl.tab[h]
		assert.True(t, j.ngb.Equal(pl.neighborDomains(j)), "job %d", h)
	}

	first, ok := pl.next()
	require.True(t, ok)
	assert.Equal(t, 0, first.graph.Origin(0))
	second, ok := pl.next()
	require.True(t, ok)
	assert.Equal(t, 4, second.graph.Origin(0))
	_, ok = pl.next()
	assert.False(t, ok)
}

func TestPoolOldPolicyOrder(t *testing.T) {
	g := grid(t, 4, 1)
	a := parseArch(t, "cmplt 4")
	st := &state{source: g, mapping: mapping.New(g, a), done: make([]bool, g.VertNbr)}
	pl := newPool(PolicyOld, st, 1)

	pl.add(job{graph: g.InduceList([]int{0}), domain: a.DomainFirst(), level: 2, side: 0})
	pl.add(job{graph: g.InduceList([]int{1}), domain: a.DomainFirst(), level: 1, side: 0})
	pl.add(job{graph: g.InduceList([]int{2}), domain: a.DomainFirst(), level: 1, side: 1})

	var order []int
	for {
		j, ok := pl.next()
		if !ok {
			break
		}
		order = append(order, j.graph.Origin(0))
	}
	assert.Equal(t, []int{2, 1, 0}, order)
}
