package mapper

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-mapping-service/pkg/arch"
	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
	"github.com/gilchrisn/graph-mapping-service/pkg/mapping"
)

func quietConfig() *Config {
	config := NewConfig()
	config.Set("logging.level", "error")
	config.Set("logging.enable_progress", false)
	config.Set("algorithm.random_seed", 42)
	return config
}

func grid(t *testing.T, w, h int) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(w * h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := y*w + x
			if x+1 < w {
				require.NoError(t, b.AddEdge(v, v+1, 1))
			}
			if y+1 < h {
				require.NoError(t, b.AddEdge(v, v+w, 1))
			}
		}
	}
	return b.Build()
}

func parseArch(t *testing.T, text string) arch.Arch {
	t.Helper()
	a, err := arch.Parse(text)
	require.NoError(t, err)
	return a
}

func terminals(t *testing.T, m *mapping.Mapping) []int {
	t.Helper()
	out := make([]int, m.Graph.VertNbr)
	for v := range out {
		num, err := m.Terminal(v)
		require.NoError(t, err)
		out[v] = num
	}
	return out
}

func TestSingleVertexTwoTerminals(t *testing.T) {
	g := graph.NewBuilder(1).Build()
	res, err := Run(context.Background(), g, parseArch(t, "cmplt 2"), quietConfig())
	require.NoError(t, err)

	num, err := res.Mapping.Terminal(0)
	require.NoError(t, err)
	assert.Contains(t, []int{0, 1}, num)
	assert.Equal(t, map[int]int{num: 1}, res.Stats.Loads)

	var buf bytes.Buffer
	require.NoError(t, res.Mapping.Write(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0])
}

func TestGridOntoComplete(t *testing.T) {
	g := grid(t, 8, 8)
	for _, poli := range []string{"random", "level", "size", "nglevel", "ngsize", "old"} {
		t.Run(poli, func(t *testing.T) {
			config := quietConfig()
			config.Set("mapping.policy", poli)
			res, err := Run(context.Background(), g, parseArch(t, "cmplt 4"), config)
			require.NoError(t, err)
			require.NoError(t, res.Mapping.Validate())

			assert.Equal(t, 4, res.Stats.Terminals)
			for num, load := range res.Stats.Loads {
				assert.InDelta(t, 16, load, 4, "terminal %d", num)
			}
			assert.Equal(t, int64(3), res.Statistics.Jobs)
			assert.Equal(t, int64(64), res.Statistics.Finalized)
			assert.Less(t, res.Stats.CommLoad, 40)
			assert.NotEmpty(t, res.RunID)
		})
	}
}

func TestMeshUsesDistances(t *testing.T) {
	g := grid(t, 8, 8)
	res, err := Run(context.Background(), g, parseArch(t, "mesh2D 2 2"), quietConfig())
	require.NoError(t, err)
	require.NoError(t, res.Mapping.Validate())
	assert.Equal(t, 4, res.Stats.Terminals)
	assert.LessOrEqual(t, res.Stats.Dilation, 2)
}

func TestVariableArchitecture(t *testing.T) {
	g := grid(t, 4, 4)
	res, err := Run(context.Background(), g, parseArch(t, "vcmplt"), quietConfig())
	require.NoError(t, err)
	require.NoError(t, res.Mapping.Validate())

	// Splitting stops at single vertices, so every vertex gets its own domain.
	used := mapset.NewSet[int]()
	for _, num := range terminals(t, res.Mapping) {
		used.Add(num)
	}
	assert.Equal(t, g.VertNbr, used.Cardinality())
}

func TestUntiedParallelMatchesSequential(t *testing.T) {
	g := grid(t, 10, 6)
	a := parseArch(t, "cmplt 8")

	runWith := func(parallel bool) []int {
		config := quietConfig()
		config.Set("mapping.job_tie", false)
		config.Set("mapping.map_tie", false)
		config.Set("mapping.parallel", parallel)
		res, err := Run(context.Background(), g, a, config)
		require.NoError(t, err)
		require.NoError(t, res.Mapping.Validate())
		return terminals(t, res.Mapping)
	}

	seq := runWith(false)
	par := runWith(true)
	if diff := cmp.Diff(seq, par); diff != "" {
		t.Fatalf("parallel run differs (-seq +par):\n%s", diff)
	}
}

func TestUntiedJobsSharedMap(t *testing.T) {
	config := quietConfig()
	config.Set("mapping.strategy", "r{job=u,map=t,poli=l}")
	res, err := Run(context.Background(), grid(t, 6, 6), parseArch(t, "cmplt 4"), config)
	require.NoError(t, err)
	require.NoError(t, res.Mapping.Validate())
	assert.Equal(t, 4, res.Stats.Terminals)
}

func TestDeterministicForSeed(t *testing.T) {
	g := grid(t, 9, 7)
	a := parseArch(t, "cmplt 6")
	first, err := Run(context.Background(), g, a, quietConfig())
	require.NoError(t, err)
	second, err := Run(context.Background(), g, a, quietConfig())
	require.NoError(t, err)
	assert.Equal(t, terminals(t, first.Mapping), terminals(t, second.Mapping))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestSelectKeepsBetterMapping(t *testing.T) {
	g := grid(t, 8, 8)
	a := parseArch(t, "cmplt 4")

	statsOf := func(strat string) mapping.Stats {
		config := quietConfig()
		config.Set("mapping.strategy", strat)
		res, err := Run(context.Background(), g, a, config)
		require.NoError(t, err)
		return res.Stats
	}

	left := statsOf("r{sep=h{pass=1}}")
	right := statsOf("r{sep=z}")
	assert.Equal(t, 64, right.LoadMax)

	both := statsOf("r{sep=h{pass=1}}|r{sep=z}")
	assert.Equal(t, left, both)
	assert.LessOrEqual(t, both.LoadMax, right.LoadMax)
}

func TestConditionalStrategy(t *testing.T) {
	config := quietConfig()
	config.Set("mapping.strategy", "/term>2?r{poli=s};")
	res, err := Run(context.Background(), grid(t, 4, 4), parseArch(t, "cmplt 4"), config)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Stats.Terminals)

	config.Set("mapping.strategy", "/term>8?r;")
	_, err = Run(context.Background(), grid(t, 4, 4), parseArch(t, "cmplt 4"), config)
	assert.Error(t, err, "nothing maps the graph when the condition is false")
}

func TestStrategyFromConfig(t *testing.T) {
	config := quietConfig()
	config.Set("mapping.policy", "level")
	config.Set("mapping.job_tie", false)
	config.Set("mapping.bipart_strategy", "h{pass=3}f")

	n, err := StrategyFromConfig(config)
	require.NoError(t, err)
	assert.Equal(t, "r{job=u,map=t,poli=l,sep=h{pass=3}f}", n.String())

	config.Set("mapping.policy", "bogus")
	_, err = StrategyFromConfig(config)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
	}{
		{"random", PolicyRandom},
		{"L", PolicyNgLevel},
		{"NGSIZE", PolicyNgSize},
		{"o", PolicyOld},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "nglevel", PolicyNgLevel.String())
	_, err := ParsePolicy("x")
	assert.Error(t, err)
}

func TestMoveTracking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.jsonl")
	config := quietConfig()
	config.Set("analysis.track_moves", true)
	config.Set("analysis.output_file", path)

	_, err := Run(context.Background(), grid(t, 8, 8), parseArch(t, "cmplt 4"), config)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"method":"fm"`)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, grid(t, 4, 4), parseArch(t, "cmplt 4"), quietConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mapping:\n  policy: old\n  parallel: true\nalgorithm:\n  random_seed: 7\n"), 0o644))

	config := NewConfig()
	require.NoError(t, config.LoadFromFile(path))
	assert.Equal(t, "old", config.Policy())
	assert.True(t, config.Parallel())
	assert.Equal(t, int64(7), config.RandomSeed())
	assert.True(t, config.JobTie())
}

func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer
	config := quietConfig()
	config.Set("logging.level", "info")
	config.SetLogOutput(&buf)

	_, err := Run(context.Background(), grid(t, 4, 4), parseArch(t, "cmplt 2"), config)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Starting mapping")
	assert.Contains(t, buf.String(), "Mapping completed")
}
