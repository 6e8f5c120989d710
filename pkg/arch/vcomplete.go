package arch

import (
	"fmt"
	"math/bits"
)

// VarDomain is a node of the infinite binary domain tree of a variable-sized
// architecture. The root has Num 1; the children of Num n are 2n and 2n+1.
type VarDomain struct {
	Level int
	Num   int
}

func (VarDomain) domain() {}

// VarComplete is the variable-sized complete graph: domains can be split
// indefinitely, all distinct domains are at distance 1 and all have the
// same weight.
type VarComplete struct{}

func NewVarComplete() *VarComplete { return &VarComplete{} }

func (a *VarComplete) Name() string   { return "vcmplt" }
func (a *VarComplete) String() string { return "vcmplt" }
func (a *VarComplete) Variable() bool { return true }

func (a *VarComplete) DomainFirst() Domain {
	return VarDomain{Level: 0, Num: 1}
}

func (a *VarComplete) DomainTerm(num int) (Domain, error) {
	if num < 1 {
		return nil, fmt.Errorf("%w: %d must be positive", ErrNoSuchDomain, num)
	}
	return VarDomain{Level: bits.Len(uint(num)) - 1, Num: num}, nil
}

func (a *VarComplete) DomainNum(d Domain) int    { return d.(VarDomain).Num }
func (a *VarComplete) DomainSize(d Domain) int   { return 1 }
func (a *VarComplete) DomainWeight(d Domain) int { return 1 }

func (a *VarComplete) DomainDist(x, y Domain) int {
	if x.(VarDomain) == y.(VarDomain) {
		return 0
	}
	return 1
}

func (a *VarComplete) DomainBipart(d Domain) (Domain, Domain, error) {
	vd, ok := d.(VarDomain)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %T", ErrBadDomain, d)
	}
	if vd.Level >= bits.UintSize-2 {
		return nil, nil, ErrTerminal
	}
	return VarDomain{Level: vd.Level + 1, Num: 2 * vd.Num},
		VarDomain{Level: vd.Level + 1, Num: 2*vd.Num + 1}, nil
}
