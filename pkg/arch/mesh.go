package arch

import (
	"fmt"
	"strings"
)

// MeshDomain is a box of a 2D or 3D mesh or torus. Bounds are inclusive;
// unused dimensions have both bounds at 0.
type MeshDomain struct {
	Min [3]int
	Max [3]int
}

func (MeshDomain) domain() {}

// Mesh is a 2D or 3D mesh, or a torus when wrap-around links exist.
type Mesh struct {
	dims  [3]int
	ndims int
	torus bool
}

// NewMesh creates a mesh (or torus) with the given dimension sizes.
func NewMesh(torus bool, sizes ...int) (*Mesh, error) {
	if len(sizes) < 2 || len(sizes) > 3 {
		return nil, fmt.Errorf("%w: mesh needs 2 or 3 dimensions, got %d", ErrSyntax, len(sizes))
	}
	m := &Mesh{ndims: len(sizes), torus: torus, dims: [3]int{1, 1, 1}}
	for i, s := range sizes {
		if s < 1 {
			return nil, fmt.Errorf("%w: dimension %d has size %d", ErrSyntax, i, s)
		}
		m.dims[i] = s
	}
	return m, nil
}

func (a *Mesh) Name() string {
	kind := "mesh"
	if a.torus {
		kind = "torus"
	}
	return fmt.Sprintf("%s%dD", kind, a.ndims)
}

func (a *Mesh) String() string {
	parts := []string{a.Name()}
	for i := 0; i < a.ndims; i++ {
		parts = append(parts, fmt.Sprint(a.dims[i]))
	}
	return strings.Join(parts, " ")
}

func (a *Mesh) Variable() bool { return false }

func (a *Mesh) DomainFirst() Domain {
	var d MeshDomain
	for i := 0; i < a.ndims; i++ {
		d.Max[i] = a.dims[i] - 1
	}
	return d
}

func (a *Mesh) DomainTerm(num int) (Domain, error) {
	total := a.dims[0] * a.dims[1] * a.dims[2]
	if num < 0 || num >= total {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrNoSuchDomain, num, total)
	}
	var d MeshDomain
	for i := 0; i < 3; i++ {
		d.Min[i] = num % a.dims[i]
		d.Max[i] = d.Min[i]
		num /= a.dims[i]
	}
	return d, nil
}

func (a *Mesh) DomainNum(d Domain) int {
	md := d.(MeshDomain)
	return md.Min[0] + a.dims[0]*(md.Min[1]+a.dims[1]*md.Min[2])
}

func (a *Mesh) DomainSize(d Domain) int {
	md := d.(MeshDomain)
	size := 1
	for i := 0; i < 3; i++ {
		size *= md.Max[i] - md.Min[i] + 1
	}
	return size
}

func (a *Mesh) DomainWeight(d Domain) int { return a.DomainSize(d) }

// DomainDist returns the Manhattan distance between the box centers,
// taking wrap-around into account on tori.
func (a *Mesh) DomainDist(x, y Domain) int {
	mx, my := x.(MeshDomain), y.(MeshDomain)
	dist := 0
	for i := 0; i < a.ndims; i++ {
		// Doubled center coordinates keep the computation integral
		d := (mx.Min[i] + mx.Max[i]) - (my.Min[i] + my.Max[i])
		if d < 0 {
			d = -d
		}
		if a.torus && d > a.dims[i] {
			d = 2*a.dims[i] - d
		}
		dist += d
	}
	return dist / 2
}

// DomainBipart cuts the box in halves across its longest dimension.
func (a *Mesh) DomainBipart(d Domain) (Domain, Domain, error) {
	md, ok := d.(MeshDomain)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %T", ErrBadDomain, d)
	}
	dim := -1
	extent := 1
	for i := 0; i < a.ndims; i++ {
		if e := md.Max[i] - md.Min[i] + 1; e > extent {
			dim = i
			extent = e
		}
	}
	if dim < 0 {
		return nil, nil, ErrTerminal
	}
	d0, d1 := md, md
	mid := (md.Min[dim] + md.Max[dim]) / 2
	d0.Max[dim] = mid
	d1.Min[dim] = mid + 1
	return d0, d1, nil
}
