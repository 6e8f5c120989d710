package arch

import (
	"fmt"
	"strings"
)

// TreeLeafDomain is a range of nodes at one level of a tree-leaf architecture.
// Level 0 holds the root; terminals live at the deepest level.
type TreeLeafDomain struct {
	Level int
	Min   int
	Count int
}

func (TreeLeafDomain) domain() {}

// TreeLeaf is a tree whose leaves are the terminals. Level i has sizes[i]
// children per node; links[i] is the communication cost between two
// terminals whose deepest common ancestor lies at level i.
type TreeLeaf struct {
	sizes []int
	links []int
	// below[l] is the number of terminals under one node of level l
	below []int
}

// NewTreeLeaf creates a tree-leaf architecture.
func NewTreeLeaf(sizes, links []int) (*TreeLeaf, error) {
	if len(sizes) == 0 || len(sizes) != len(links) {
		return nil, fmt.Errorf("%w: tree-leaf needs as many link costs as level sizes", ErrSyntax)
	}
	for i := range sizes {
		if sizes[i] < 1 || links[i] < 0 {
			return nil, fmt.Errorf("%w: bad tree-leaf level %d (size %d, link %d)", ErrSyntax, i, sizes[i], links[i])
		}
	}
	a := &TreeLeaf{
		sizes: append([]int(nil), sizes...),
		links: append([]int(nil), links...),
		below: make([]int, len(sizes)+1),
	}
	a.below[len(sizes)] = 1
	for l := len(sizes) - 1; l >= 0; l-- {
		a.below[l] = a.below[l+1] * sizes[l]
	}
	return a, nil
}

func (a *TreeLeaf) Name() string { return "tleaf" }

func (a *TreeLeaf) String() string {
	parts := []string{"tleaf", fmt.Sprint(len(a.sizes))}
	for i := range a.sizes {
		parts = append(parts, fmt.Sprint(a.sizes[i]), fmt.Sprint(a.links[i]))
	}
	return strings.Join(parts, " ")
}

func (a *TreeLeaf) Variable() bool { return false }

func (a *TreeLeaf) DomainFirst() Domain {
	return TreeLeafDomain{Level: 0, Min: 0, Count: 1}
}

func (a *TreeLeaf) DomainTerm(num int) (Domain, error) {
	if num < 0 || num >= a.below[0] {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrNoSuchDomain, num, a.below[0])
	}
	return TreeLeafDomain{Level: len(a.sizes), Min: num, Count: 1}, nil
}

func (a *TreeLeaf) DomainNum(d Domain) int {
	td := d.(TreeLeafDomain)
	return td.Min * a.below[td.Level]
}

func (a *TreeLeaf) DomainSize(d Domain) int {
	td := d.(TreeLeafDomain)
	return td.Count * a.below[td.Level]
}

func (a *TreeLeaf) DomainWeight(d Domain) int { return a.DomainSize(d) }

func (a *TreeLeaf) DomainDist(x, y Domain) int {
	tx, ty := x.(TreeLeafDomain), y.(TreeLeafDomain)
	if tx == ty {
		return 0
	}
	lx, ix := tx.Level, tx.Min
	ly, iy := ty.Level, ty.Min
	for lx > ly {
		lx--
		ix /= a.sizes[lx]
	}
	for ly > lx {
		ly--
		iy /= a.sizes[ly]
	}
	for ix != iy && lx > 0 {
		lx--
		ix /= a.sizes[lx]
		iy /= a.sizes[lx]
	}
	if lx >= len(a.links) {
		lx = len(a.links) - 1
	}
	return a.links[lx]
}

func (a *TreeLeaf) DomainBipart(d Domain) (Domain, Domain, error) {
	td, ok := d.(TreeLeafDomain)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %T", ErrBadDomain, d)
	}
	for td.Count == 1 {
		if td.Level >= len(a.sizes) {
			return nil, nil, ErrTerminal
		}
		td = TreeLeafDomain{Level: td.Level + 1, Min: td.Min * a.sizes[td.Level], Count: a.sizes[td.Level]}
	}
	half := td.Count / 2
	return TreeLeafDomain{Level: td.Level, Min: td.Min, Count: half},
		TreeLeafDomain{Level: td.Level, Min: td.Min + half, Count: td.Count - half}, nil
}
