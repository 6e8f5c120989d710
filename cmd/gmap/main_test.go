package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-mapping-service/pkg/arch"
	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
	"github.com/gilchrisn/graph-mapping-service/pkg/mapping"
)

func writeCycle(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cycle.txt")
	require.NoError(t, os.WriteFile(path, []byte("# 4-cycle\n0 1\n1 2\n2 3\n3 0\n"), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestMapWritesOnlyMappingToStdout(t *testing.T) {
	graphFile := writeCycle(t)
	stdout, stderr, err := execute(t, "map", graphFile, "--arch", "cmplt 2", "--seed", "3")
	require.NoError(t, err)

	g, err := graph.LoadEdgeList(graphFile)
	require.NoError(t, err)
	a, err := arch.Parse("cmplt 2")
	require.NoError(t, err)

	m, err := mapping.Read(bytes.NewReader([]byte(stdout)), g, a)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, map[int]int{0: 2, 1: 2}, m.Stats().Loads)

	assert.Contains(t, stderr, "Starting mapping")
	assert.Contains(t, stderr, `"run_id"`)
}

func TestMapThenStats(t *testing.T) {
	graphFile := writeCycle(t)
	out := filepath.Join(t.TempDir(), "cycle.map.gz")
	stdout, _, err := execute(t, "map", graphFile, "-a", "cmplt 2", "--seed", "5", "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	stdout, _, err = execute(t, "stats", graphFile, out, "-a", "cmplt 2")
	require.NoError(t, err)
	var stats mapping.Stats
	require.NoError(t, json.Unmarshal([]byte(stdout), &stats))
	assert.Equal(t, 2, stats.Terminals)
	assert.Equal(t, 2, stats.CommLoad)
}

func TestCheckReportsComponents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.txt")
	require.NoError(t, os.WriteFile(path, []byte("0 1\n2 3\n4\n"), 0o644))

	stdout, _, err := execute(t, "check", path)
	require.NoError(t, err)
	var report map[string]int
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 5, report["vertices"])
	assert.Equal(t, 3, report["components"])
	assert.Equal(t, 2, report["largest_component"])
}

func TestMapRejectsBadArchitecture(t *testing.T) {
	_, _, err := execute(t, "map", writeCycle(t), "--arch", "hypercube 3")
	assert.Error(t, err)
}
