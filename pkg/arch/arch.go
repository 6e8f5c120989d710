// Package arch describes target architectures as trees of domains that can
// be recursively bipartitioned down to terminal domains.
package arch

import (
	"errors"
)

var (
	// ErrTerminal is returned by DomainBipart for a domain that cannot be split.
	ErrTerminal     = errors.New("arch: domain is terminal")
	ErrBadDomain    = errors.New("arch: domain does not belong to architecture")
	ErrNoSuchDomain = errors.New("arch: no terminal domain with this number")
	ErrSyntax       = errors.New("arch: invalid architecture description")
)

// Domain is a region of a target architecture. Implementations are the
// comparable value types of this package; two domains are the same region
// iff they are equal.
type Domain interface {
	domain()
}

// Arch is a target architecture.
type Arch interface {
	Name() string
	// DomainFirst returns the domain holding the whole architecture.
	DomainFirst() Domain
	// DomainTerm returns the terminal domain of the given number.
	DomainTerm(num int) (Domain, error)
	// DomainNum returns the number of the first terminal of the domain.
	DomainNum(d Domain) int
	// DomainSize returns the number of terminals in the domain.
	DomainSize(d Domain) int
	// DomainWeight returns the computation capacity of the domain.
	DomainWeight(d Domain) int
	// DomainDist returns the communication distance between two domains.
	DomainDist(a, b Domain) int
	// DomainBipart splits a domain in two, or returns ErrTerminal.
	DomainBipart(d Domain) (Domain, Domain, error)
	// Variable reports whether the architecture has no fixed terminal set.
	Variable() bool
	// String returns the textual description accepted by Parse.
	String() string
}

// IsTerminal reports whether d cannot be split further.
func IsTerminal(a Arch, d Domain) bool {
	if a.Variable() {
		return false
	}
	return a.DomainSize(d) <= 1
}
