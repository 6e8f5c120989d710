package arch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// terminals recursively bipartitions the whole architecture and returns the
// numbers of the terminal domains reached.
func terminals(t *testing.T, a Arch) []int {
	t.Helper()
	var nums []int
	var walk func(d Domain)
	walk = func(d Domain) {
		d0, d1, err := a.DomainBipart(d)
		if errors.Is(err, ErrTerminal) {
			nums = append(nums, a.DomainNum(d))
			return
		}
		require.NoError(t, err)
		assert.Equal(t, a.DomainSize(d), a.DomainSize(d0)+a.DomainSize(d1))
		walk(d0)
		walk(d1)
	}
	walk(a.DomainFirst())
	return nums
}

func TestParse(t *testing.T) {
	tests := []struct {
		text  string
		name  string
		terms int
	}{
		{"cmplt 5", "cmplt", 5},
		{"mesh2D 3 4", "mesh2D", 12},
		{"torus3D 2 2 2", "torus3D", 8},
		{"tleaf 2 2 10 3 1", "tleaf", 6},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			a, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.name, a.Name())
			assert.Equal(t, tt.terms, a.DomainSize(a.DomainFirst()))

			again, err := Parse(a.String())
			require.NoError(t, err)
			assert.Equal(t, a.String(), again.String())

			nums := terminals(t, a)
			assert.Len(t, nums, tt.terms)
			assert.ElementsMatch(t, seq(tt.terms), nums)
			for _, n := range nums {
				d, err := a.DomainTerm(n)
				require.NoError(t, err)
				assert.True(t, IsTerminal(a, d))
				assert.Equal(t, n, a.DomainNum(d))
			}
		})
	}

	for _, bad := range []string{"", "cmplt", "cmplt x", "mesh2D 2", "tleaf 2 2 1", "hypercube 3", "cmplt 0"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrSyntax, bad)
	}
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func TestCompleteDistance(t *testing.T) {
	a, err := NewComplete(4)
	require.NoError(t, err)
	d0, d1, err := a.DomainBipart(a.DomainFirst())
	require.NoError(t, err)
	assert.Equal(t, 0, a.DomainDist(d0, d0))
	assert.Equal(t, 1, a.DomainDist(d0, d1))
	assert.Equal(t, 2, a.DomainWeight(d0))

	_, err = a.DomainTerm(4)
	assert.ErrorIs(t, err, ErrNoSuchDomain)
}

func TestMeshDistance(t *testing.T) {
	mesh, err := NewMesh(false, 4, 1)
	require.NoError(t, err)
	torus, err := NewMesh(true, 4, 1)
	require.NoError(t, err)

	t0, _ := mesh.DomainTerm(0)
	t3, _ := mesh.DomainTerm(3)
	assert.Equal(t, 3, mesh.DomainDist(t0, t3))
	assert.Equal(t, 1, torus.DomainDist(t0, t3))

	// Halves of a 4x1 line have centers 2 apart
	d0, d1, err := mesh.DomainBipart(mesh.DomainFirst())
	require.NoError(t, err)
	assert.Equal(t, 2, mesh.DomainDist(d0, d1))
}

func TestTreeLeafDistance(t *testing.T) {
	a, err := NewTreeLeaf([]int{2, 2}, []int{10, 1})
	require.NoError(t, err)
	t0, _ := a.DomainTerm(0)
	t1, _ := a.DomainTerm(1)
	t2, _ := a.DomainTerm(2)
	assert.Equal(t, 1, a.DomainDist(t0, t1))
	assert.Equal(t, 10, a.DomainDist(t0, t2))
	assert.Equal(t, 0, a.DomainDist(t2, t2))
}

func TestVarComplete(t *testing.T) {
	a := NewVarComplete()
	assert.True(t, a.Variable())
	root := a.DomainFirst()
	assert.False(t, IsTerminal(a, root))

	d0, d1, err := a.DomainBipart(root)
	require.NoError(t, err)
	assert.Equal(t, 2, a.DomainNum(d0))
	assert.Equal(t, 3, a.DomainNum(d1))

	back, err := a.DomainTerm(3)
	require.NoError(t, err)
	assert.Equal(t, d1, back)
	assert.Equal(t, 1, a.DomainDist(d0, d1))
}
