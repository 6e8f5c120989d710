package arch

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse builds an architecture from its textual description:
//
//	cmplt N
//	mesh2D X Y | mesh3D X Y Z | torus2D X Y | torus3D X Y Z
//	tleaf L S1 C1 ... SL CL
//	vcmplt
func Parse(text string) (Arch, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty description", ErrSyntax)
	}

	args := make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrSyntax, f)
		}
		args = append(args, n)
	}

	switch strings.ToLower(fields[0]) {
	case "cmplt":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: cmplt takes 1 argument", ErrSyntax)
		}
		return wrap(NewComplete(args[0]))
	case "mesh2d", "torus2d":
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: %s takes 2 arguments", ErrSyntax, fields[0])
		}
		return wrap(NewMesh(strings.HasPrefix(strings.ToLower(fields[0]), "torus"), args...))
	case "mesh3d", "torus3d":
		if len(args) != 3 {
			return nil, fmt.Errorf("%w: %s takes 3 arguments", ErrSyntax, fields[0])
		}
		return wrap(NewMesh(strings.HasPrefix(strings.ToLower(fields[0]), "torus"), args...))
	case "tleaf":
		if len(args) < 1 || len(args) != 1+2*args[0] {
			return nil, fmt.Errorf("%w: tleaf takes a level count followed by size/link pairs", ErrSyntax)
		}
		sizes := make([]int, args[0])
		links := make([]int, args[0])
		for i := 0; i < args[0]; i++ {
			sizes[i] = args[1+2*i]
			links[i] = args[2+2*i]
		}
		return wrap(NewTreeLeaf(sizes, links))
	case "vcmplt":
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: vcmplt takes no argument", ErrSyntax)
		}
		return NewVarComplete(), nil
	}
	return nil, fmt.Errorf("%w: unknown architecture %q", ErrSyntax, fields[0])
}

// wrap keeps a failed constructor from yielding a non-nil Arch holding a nil pointer.
func wrap[T Arch](a T, err error) (Arch, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}
