// Package mapping holds the result of a static mapping: the domain each
// vertex of a graph is assigned to, with text file input and output and
// load and communication statistics.
package mapping

import (
	"errors"
	"fmt"

	"github.com/gilchrisn/graph-mapping-service/pkg/arch"
	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
)

var (
	ErrFormat   = errors.New("mapping: bad mapping file")
	ErrUnmapped = errors.New("mapping: vertex not mapped")
)

// Mapping assigns every vertex of a graph to a domain. Domains are stored
// once in a growable table and referenced by integer handles.
type Mapping struct {
	Graph *graph.Graph
	Arch  arch.Arch

	// Domains is the domain table.
	Domains []arch.Domain
	// Parttax[v] is the handle of the domain of vertex v, -1 if unmapped.
	Parttax []int

	index map[arch.Domain]int
}

// New creates a mapping with every vertex in the whole architecture domain.
func New(g *graph.Graph, a arch.Arch) *Mapping {
	m := &Mapping{
		Graph:   g,
		Arch:    a,
		Parttax: make([]int, g.VertNbr),
		index:   make(map[arch.Domain]int),
	}
	m.AddDomain(a.DomainFirst())
	return m
}

// AddDomain returns the handle of a domain, adding it to the table if needed.
func (m *Mapping) AddDomain(d arch.Domain) int {
	if h, ok := m.index[d]; ok {
		return h
	}
	h := len(m.Domains)
	m.Domains = append(m.Domains, d)
	m.index[d] = h
	return h
}

// Assign maps the given vertices to the domain of handle h.
func (m *Mapping) Assign(verts []int, h int) {
	for _, v := range verts {
		m.Parttax[v] = h
	}
}

// Domain returns the domain of vertex v.
func (m *Mapping) Domain(v int) (arch.Domain, bool) {
	h := m.Parttax[v]
	if h < 0 || h >= len(m.Domains) {
		return nil, false
	}
	return m.Domains[h], true
}

// Terminal returns the architecture number of the domain of vertex v.
func (m *Mapping) Terminal(v int) (int, error) {
	d, ok := m.Domain(v)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnmapped, v)
	}
	return m.Arch.DomainNum(d), nil
}

// Clone returns an independent copy sharing the graph and architecture.
func (m *Mapping) Clone() *Mapping {
	c := &Mapping{
		Graph:   m.Graph,
		Arch:    m.Arch,
		Domains: append([]arch.Domain(nil), m.Domains...),
		Parttax: append([]int(nil), m.Parttax...),
		index:   make(map[arch.Domain]int, len(m.index)),
	}
	for d, h := range m.index {
		c.index[d] = h
	}
	return c
}

// Merge copies the assignment of the given vertices from another mapping
// of the same graph.
func (m *Mapping) Merge(other *Mapping, verts []int) error {
	for _, v := range verts {
		d, ok := other.Domain(v)
		if !ok {
			return fmt.Errorf("failed to merge vertex %d: %w", v, ErrUnmapped)
		}
		m.Parttax[v] = m.AddDomain(d)
	}
	return nil
}

// Validate checks that every vertex is mapped to a valid domain and, for
// fixed-size architectures, to a terminal one.
func (m *Mapping) Validate() error {
	var errs graph.CheckErrors
	if len(m.Parttax) != m.Graph.VertNbr {
		errs.Add("parttax", "length must be vertnbr", len(m.Parttax))
		return errs
	}
	for v := range m.Parttax {
		d, ok := m.Domain(v)
		if !ok {
			errs.Add("parttax", "vertex not mapped", v)
			continue
		}
		if !m.Arch.Variable() && !arch.IsTerminal(m.Arch, d) {
			errs.Add("parttax", "vertex mapped to a non-terminal domain", fmt.Sprintf("vertex %d domain %d", v, m.Arch.DomainNum(d)))
		}
	}
	return errs.Err()
}
