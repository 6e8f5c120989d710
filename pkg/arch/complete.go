package arch

import (
	"fmt"
)

// CompleteDomain is an interval of terminals of a complete graph.
type CompleteDomain struct {
	Min   int
	Count int
}

func (CompleteDomain) domain() {}

// Complete is the complete graph architecture: every pair of distinct
// terminals is at distance 1.
type Complete struct {
	n int
}

// NewComplete creates a complete graph architecture with n terminals.
func NewComplete(n int) (*Complete, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: complete graph needs at least one terminal, got %d", ErrSyntax, n)
	}
	return &Complete{n: n}, nil
}

func (a *Complete) Name() string   { return "cmplt" }
func (a *Complete) String() string { return fmt.Sprintf("cmplt %d", a.n) }
func (a *Complete) Variable() bool { return false }

func (a *Complete) DomainFirst() Domain {
	return CompleteDomain{Min: 0, Count: a.n}
}

func (a *Complete) DomainTerm(num int) (Domain, error) {
	if num < 0 || num >= a.n {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrNoSuchDomain, num, a.n)
	}
	return CompleteDomain{Min: num, Count: 1}, nil
}

func (a *Complete) DomainNum(d Domain) int    { return d.(CompleteDomain).Min }
func (a *Complete) DomainSize(d Domain) int   { return d.(CompleteDomain).Count }
func (a *Complete) DomainWeight(d Domain) int { return d.(CompleteDomain).Count }

func (a *Complete) DomainDist(x, y Domain) int {
	if x.(CompleteDomain) == y.(CompleteDomain) {
		return 0
	}
	return 1
}

func (a *Complete) DomainBipart(d Domain) (Domain, Domain, error) {
	cd, ok := d.(CompleteDomain)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %T", ErrBadDomain, d)
	}
	if cd.Count <= 1 {
		return nil, nil, ErrTerminal
	}
	half := cd.Count / 2
	return CompleteDomain{Min: cd.Min, Count: half},
		CompleteDomain{Min: cd.Min + half, Count: cd.Count - half}, nil
}
