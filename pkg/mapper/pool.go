package mapper

import (
	"container/heap"
	"fmt"
	"math/rand"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/gilchrisn/graph-mapping-service/pkg/arch"
	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
)

// Policy orders the jobs of the pool.
type Policy byte

const (
	PolicyRandom  Policy = 'r' // uniformly random
	PolicyLevel   Policy = 'l' // deepest job first
	PolicySize    Policy = 's' // largest job first
	PolicyNgLevel Policy = 'L' // level, boosted by resolved neighbor domains
	PolicyNgSize  Policy = 'S' // size, boosted by resolved neighbor domains
	PolicyOld     Policy = 'o' // breadth first, sides alternating with depth parity
)

var policyNames = map[Policy]string{
	PolicyRandom:  "random",
	PolicyLevel:   "level",
	PolicySize:    "size",
	PolicyNgLevel: "nglevel",
	PolicyNgSize:  "ngsize",
	PolicyOld:     "old",
}

// ParsePolicy accepts a policy name or its strategy letter.
func ParsePolicy(s string) (Policy, error) {
	if len(s) == 1 {
		if _, ok := policyNames[Policy(s[0])]; ok {
			return Policy(s[0]), nil
		}
	}
	for p, name := range policyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown policy %q", ErrConfig, s)
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%q)", byte(p))
}

func (p Policy) neighborAware() bool {
	return p == PolicyNgLevel || p == PolicyNgSize
}

// job is a pending bipartitioning of a subgraph against a domain.
type job struct {
	graph  *graph.Graph // Vnumtab holds vertex numbers of the source graph
	domain arch.Domain
	level  int
	side   uint8
	prio   int
	seq    int
	index  int // position in the heap, -1 when not queued

	// ngb holds the domain handles of finalized source vertices adjacent
	// to the job, for neighbor-aware policies.
	ngb mapset.Set[int]
}

// pool is a priority queue of jobs referenced by integer handles. Freed
// handles are reused.
type pool struct {
	policy Policy
	rng    *rand.Rand
	tab    []job
	free   []int
	order  []int
	seq    int

	// owner[v] is the handle of the queued job holding source vertex v, or -1.
	owner []int
	st    *state
}

func newPool(policy Policy, st *state, seed int64) *pool {
	owner := make([]int, len(st.done))
	for i := range owner {
		owner[i] = -1
	}
	return &pool{
		policy: policy,
		rng:    rand.New(rand.NewSource(seed)),
		owner:  owner,
		st:     st,
	}
}

func (p *pool) Len() int { return len(p.order) }

func (p *pool) Less(i, j int) bool {
	a, b := &p.tab[p.order[i]], &p.tab[p.order[j]]
	if a.prio != b.prio {
		return a.prio > b.prio
	}
	return a.seq < b.seq
}

func (p *pool) Swap(i, j int) {
	p.order[i], p.order[j] = p.order[j], p.order[i]
	p.tab[p.order[i]].index = i
	p.tab[p.order[j]].index = j
}

func (p *pool) Push(x any) {
	h := x.(int)
	p.tab[h].index = len(p.order)
	p.order = append(p.order, h)
}

func (p *pool) Pop() any {
	n := len(p.order) - 1
	h := p.order[n]
	p.order = p.order[:n]
	p.tab[h].index = -1
	return h
}

// add queues a job and returns its handle.
func (p *pool) add(j job) int {
	var h int
	if n := len(p.free); n > 0 {
		h = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		h = len(p.tab)
		p.tab = append(p.tab, job{})
	}
	j.seq = p.seq
	p.seq++
	p.tab[h] = j
	for v := 0; v < j.graph.VertNbr; v++ {
		p.owner[j.graph.Origin(v)] = h
	}
	if p.policy.neighborAware() {
		p.tab[h].ngb = p.neighborDomains(&p.tab[h])
	}
	p.tab[h].prio = p.priority(&p.tab[h])
	heap.Push(p, h)
	return h
}

// next removes the job of highest priority.
func (p *pool) next() (job, bool) {
	if len(p.order) == 0 {
		return job{}, false
	}
	h := heap.Pop(p).(int)
	j := p.tab[h]
	for v := 0; v < j.graph.VertNbr; v++ {
		p.owner[j.graph.Origin(v)] = -1
	}
	p.tab[h] = job{index: -1}
	p.free = append(p.free, h)
	return j, true
}

// resolved records the domains of newly finalized source vertices in the
// queued jobs adjacent to them, and updates the priority of the jobs whose
// set of neighbor domains grew.
func (p *pool) resolved(verts []int) {
	if !p.policy.neighborAware() {
		return
	}
	src := p.st.source
	touched := mapset.NewThreadUnsafeSet[int]()
	for _, v := range verts {
		d := p.st.mapping.Parttax[v]
		for _, u := range src.Neighbors(v) {
			if h := p.owner[u]; h >= 0 && p.tab[h].ngb.Add(d) {
				touched.Add(h)
			}
		}
	}
	for _, h := range touched.ToSlice() {
		p.tab[h].prio = p.priority(&p.tab[h])
		heap.Fix(p, p.tab[h].index)
	}
}

func (p *pool) priority(j *job) int {
	switch p.policy {
	case PolicyRandom:
		return p.rng.Int()
	case PolicyLevel:
		return j.level
	case PolicySize:
		return j.graph.VertNbr
	case PolicyNgLevel:
		return j.level + j.ngb.Cardinality()
	case PolicyNgSize:
		return j.graph.VertNbr + j.ngb.Cardinality()
	case PolicyOld:
		prio := -2 * j.level
		if int(j.side) == j.level&1 {
			prio++
		}
		return prio
	}
	return 0
}

// neighborDomains collects the domains of finalized source vertices
// adjacent to the job.
func (p *pool) neighborDomains(j *job) mapset.Set[int] {
	src := p.st.source
	seen := mapset.NewThreadUnsafeSet[int]()
	for v := 0; v < j.graph.VertNbr; v++ {
		for _, u := range src.Neighbors(j.graph.Origin(v)) {
			if p.st.done[u] {
				seen.Add(p.st.mapping.Parttax[u])
			}
		}
	}
	return seen
}
