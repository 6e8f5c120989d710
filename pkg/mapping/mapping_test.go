package mapping

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-mapping-service/pkg/arch"
	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
)

// labeledPath builds the path 0-1-2-3 labelled 10, 20, 30, 40.
func labeledPath(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(4)
	for v := 0; v < 4; v++ {
		require.NoError(t, b.SetLabel(v, 10*(v+1)))
	}
	for v := 0; v < 3; v++ {
		require.NoError(t, b.AddEdge(v, v+1, 1))
	}
	return b.Build()
}

func complete(t *testing.T, n int) arch.Arch {
	t.Helper()
	a, err := arch.NewComplete(n)
	require.NoError(t, err)
	return a
}

func assign(t *testing.T, m *Mapping, terms ...int) {
	t.Helper()
	for v, num := range terms {
		d, err := m.Arch.DomainTerm(num)
		require.NoError(t, err)
		m.Parttax[v] = m.AddDomain(d)
	}
}

func terminals(t *testing.T, m *Mapping) []int {
	t.Helper()
	out := make([]int, m.Graph.VertNbr)
	for v := range out {
		num, err := m.Terminal(v)
		require.NoError(t, err)
		out[v] = num
	}
	return out
}

func TestAddDomainDedupes(t *testing.T) {
	m := New(labeledPath(t), complete(t, 4))
	assert.Len(t, m.Domains, 1)

	d, err := m.Arch.DomainTerm(2)
	require.NoError(t, err)
	h := m.AddDomain(d)
	assert.Equal(t, h, m.AddDomain(arch.CompleteDomain{Min: 2, Count: 1}))
	assert.Len(t, m.Domains, 2)
}

func TestWriteFormat(t *testing.T) {
	m := New(labeledPath(t), complete(t, 4))
	assign(t, m, 0, 0, 1, 3)

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))
	assert.Equal(t, "4\n10\t0\n20\t0\n30\t1\n40\t3\n", buf.String())
}

func TestRoundTrip(t *testing.T) {
	g := labeledPath(t)
	a := complete(t, 4)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		m := New(g, a)
		terms := make([]int, g.VertNbr)
		for v := range terms {
			terms[v] = rng.Intn(4)
		}
		assign(t, m, terms...)

		var buf bytes.Buffer
		require.NoError(t, m.Write(&buf))
		back, err := Read(&buf, g, a)
		require.NoError(t, err)
		if diff := cmp.Diff(terms, terminals(t, back)); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestSaveLoadFiles(t *testing.T) {
	g := labeledPath(t)
	a := complete(t, 4)
	m := New(g, a)
	assign(t, m, 3, 2, 1, 0)

	for _, name := range []string{"plain.map", "packed.map.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, m.Save(path))
			back, err := Load(path, g, a)
			require.NoError(t, err)
			assert.Equal(t, []int{3, 2, 1, 0}, terminals(t, back))
			require.NoError(t, back.Validate())
		})
	}
}

func TestReadErrors(t *testing.T) {
	g := labeledPath(t)
	a := complete(t, 4)

	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"BadCount", "four\n"},
		{"CountMismatch", "3\n10\t0\n20\t0\n"},
		{"UnknownLabel", "1\n99\t0\n"},
		{"BadTerminal", "1\n10\t7\n"},
		{"ShortLine", "1\n10\n"},
		{"RepeatedLabel", "4\n10\t0\n20\t1\n20\t2\n40\t3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), g, a)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestReadPartialFailsValidation(t *testing.T) {
	g := labeledPath(t)
	a := complete(t, 4)
	m, err := Read(strings.NewReader("# two of four\n2\n10\t1\n40\t2\n"), g, a)
	require.NoError(t, err)

	err = m.Validate()
	var errs graph.CheckErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
	_, err = m.Terminal(1)
	assert.ErrorIs(t, err, ErrUnmapped)
}

func TestValidateRejectsNonTerminal(t *testing.T) {
	m := New(labeledPath(t), complete(t, 4))
	assert.Error(t, m.Validate())

	assign(t, m, 0, 1, 2, 3)
	assert.NoError(t, m.Validate())
}

func TestCloneAndMerge(t *testing.T) {
	g := labeledPath(t)
	m := New(g, complete(t, 4))
	assign(t, m, 0, 0, 0, 0)

	c := m.Clone()
	assign(t, c, 1, 1, 2, 2)
	assert.Equal(t, []int{0, 0, 0, 0}, terminals(t, m))

	require.NoError(t, m.Merge(c, []int{2, 3}))
	assert.Equal(t, []int{0, 0, 2, 2}, terminals(t, m))
}

func TestStats(t *testing.T) {
	m := New(labeledPath(t), complete(t, 4))
	assign(t, m, 0, 0, 1, 3)

	s := m.Stats()
	assert.Equal(t, map[int]int{0: 2, 1: 1, 3: 1}, s.Loads)
	assert.Equal(t, 3, s.Terminals)
	assert.Equal(t, 1, s.LoadMin)
	assert.Equal(t, 2, s.LoadMax)
	assert.InDelta(t, 4.0/3.0, s.LoadAvg, 1e-9)
	assert.Greater(t, s.LoadDev, 0.0)
	assert.InDelta(t, 1.0, s.Imbalance, 1e-9)
	assert.Equal(t, 2, s.CutEdges)
	assert.Equal(t, 2, s.CommLoad)
	assert.Equal(t, 1, s.Dilation)
}

func TestStatsMeshDistance(t *testing.T) {
	a, err := arch.NewMesh(false, 4, 1)
	require.NoError(t, err)
	m := New(labeledPath(t), a)
	assign(t, m, 0, 3, 3, 3)

	s := m.Stats()
	assert.Equal(t, 1, s.CutEdges)
	assert.Equal(t, 3, s.CommLoad)
	assert.Equal(t, 3, s.Dilation)
}
