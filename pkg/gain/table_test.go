package gain

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type links []Link

func (s links) Link(h int) *Link { return &s[h] }

func drain(tab *Table, arena links) []int {
	var gains []int
	for h := tab.First(); h >= 0; h = tab.First() {
		gains = append(gains, arena[h].Gain)
		tab.Del(h)
	}
	return gains
}

func TestTableOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	arena := make(links, 200)
	tab := New(arena, 32)

	want := make([]int, len(arena))
	for h := range arena {
		g := rng.Intn(61) - 30
		want[h] = g
		tab.Add(h, g)
	}
	require.Equal(t, len(arena), tab.Len())

	sort.Ints(want)
	assert.Equal(t, want, drain(tab, arena))
	assert.Equal(t, 0, tab.Len())
	assert.Equal(t, -1, tab.First())
}

func TestTableBucketMonotone(t *testing.T) {
	tab := New(make(links, 0), 100)
	prev := tab.Bucket(math.MinInt)
	assert.GreaterOrEqual(t, prev, 0)
	for _, g := range []int{-1 << 40, -5000, -101, -100, -1, 0, 1, 100, 101, 5000, 1 << 40, math.MaxInt} {
		b := tab.Bucket(g)
		assert.GreaterOrEqual(t, b, prev, "gain %d", g)
		prev = b
	}
	assert.Less(t, tab.Bucket(math.MaxInt), len(tab.heads))

	// Linear region keeps gains apart
	assert.NotEqual(t, tab.Bucket(41), tab.Bucket(42))
}

func TestTableDelAndNext(t *testing.T) {
	arena := make(links, 6)
	tab := New(arena, 0)
	for h, g := range []int{3, -2, 3, 0, 7, -2} {
		tab.Add(h, g)
	}

	// Del from the middle of a bucket and from a bucket head
	tab.Del(2)
	tab.Del(4)
	assert.Equal(t, Free, arena[2].State)
	assert.Equal(t, Linked, arena[0].State)

	var seen []int
	for h := tab.First(); h >= 0; h = tab.Next(h) {
		seen = append(seen, arena[h].Gain)
	}
	assert.Equal(t, []int{-2, -2, 0, 3}, seen)

	tab.Reset()
	assert.Equal(t, 0, tab.Len())
	assert.Equal(t, -1, tab.First())
	for h := range arena {
		assert.NotEqual(t, Linked, arena[h].State)
	}
}

func TestTableArenaGrowth(t *testing.T) {
	// Links are re-fetched through the arena, so growing it is safe.
	arena := &growing{}
	tab := New(arena, 8)
	for h := 0; h < 100; h++ {
		arena.recs = append(arena.recs, Link{})
		tab.Add(h, 100-h)
	}
	assert.Equal(t, 1, arena.recs[tab.First()].Gain)
}

type growing struct{ recs []Link }

func (g *growing) Link(h int) *Link { return &g.recs[h] }
