// Package mapper maps a graph onto a target architecture by recursive
// bipartitioning: the architecture and the graph are split in two
// together, the halves of the graph being computed by a bipartitioning
// strategy, until every vertex rests on a terminal domain.
package mapper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/graph-mapping-service/pkg/arch"
	"github.com/gilchrisn/graph-mapping-service/pkg/bgraph"
	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
	"github.com/gilchrisn/graph-mapping-service/pkg/mapping"
	"github.com/gilchrisn/graph-mapping-service/pkg/strategy"
)

var (
	ErrConfig = errors.New("mapper: invalid configuration")
	ErrMethod = errors.New("mapper: unknown mapping method")
)

// Result holds a mapping and the statistics of the run that computed it.
type Result struct {
	RunID      string           `json:"run_id"`
	Mapping    *mapping.Mapping `json:"-"`
	Stats      mapping.Stats    `json:"stats"`
	Statistics Statistics       `json:"statistics"`
}

// Statistics tracks the work done by a run.
type Statistics struct {
	Jobs      int64 `json:"jobs"`
	Finalized int64 `json:"finalized"`
	MaxLevel  int64 `json:"max_level"`
	RuntimeMS int64 `json:"runtime_ms"`
}

// run is the state of one mapping computation. It is the target of the
// mapping strategy.
type run struct {
	ctx     context.Context
	config  *Config
	logger  zerolog.Logger
	tracker *bgraph.MoveTracker
	seed    int64

	source  *graph.Graph
	arch    arch.Arch
	mapping *mapping.Mapping

	jobs      atomic.Int64
	finalized atomic.Int64
	maxLevel  atomic.Int64
}

// state is what a job pool works on: a mapping and the set of source
// vertices whose domain is final.
type state struct {
	source  *graph.Graph
	mapping *mapping.Mapping
	done    []bool
}

func (st *state) clone() *state {
	return &state{
		source:  st.source,
		mapping: st.mapping.Clone(),
		done:    append([]bool(nil), st.done...),
	}
}

// Run maps g onto a using the strategy given by the configuration.
func Run(ctx context.Context, g *graph.Graph, a arch.Arch, config *Config) (*Result, error) {
	startTime := time.Now()
	runID := uuid.New().String()
	logger := config.CreateLogger().With().Str("run_id", runID).Logger()

	if err := g.Check(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	strat, err := StrategyFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("invalid mapping strategy: %w", err)
	}

	var tracker *bgraph.MoveTracker
	if config.EnableMoveTracking() {
		tracker, err = bgraph.NewMoveTracker(config.TrackingOutputFile())
		if err != nil {
			return nil, err
		}
		defer tracker.Close()
	}

	logger.Info().
		Int("vertices", g.VertNbr).
		Int("edges", g.EdgeNbr/2).
		Str("architecture", a.String()).
		Str("strategy", strat.String()).
		Msg("Starting mapping")

	r := &run{
		ctx:     ctx,
		config:  config,
		logger:  logger,
		tracker: tracker,
		seed:    config.RandomSeed(),
		source:  g,
		arch:    a,
		mapping: mapping.New(g, a),
	}
	if err := strategy.Eval(strat, r); err != nil {
		return nil, err
	}
	if err := r.mapping.Validate(); err != nil {
		return nil, fmt.Errorf("incomplete mapping: %w", err)
	}
	if err := tracker.Close(); err != nil {
		return nil, fmt.Errorf("failed to write move log: %w", err)
	}

	result := &Result{
		RunID:   runID,
		Mapping: r.mapping,
		Stats:   r.mapping.Stats(),
		Statistics: Statistics{
			Jobs:      r.jobs.Load(),
			Finalized: r.finalized.Load(),
			MaxLevel:  r.maxLevel.Load(),
			RuntimeMS: time.Since(startTime).Milliseconds(),
		},
	}

	logger.Info().
		Int64("jobs", result.Statistics.Jobs).
		Int("terminals", result.Stats.Terminals).
		Int("comm_load", result.Stats.CommLoad).
		Float64("imbalance", result.Stats.Imbalance).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Mapping completed")

	return result, nil
}

// Apply implements strategy.Target.
func (r *run) Apply(m *strategy.Method) error {
	if m.Name() != 'r' {
		return fmt.Errorf("%w: %q", ErrMethod, m.Name())
	}
	var p RBParams
	if err := m.Decode(&p); err != nil {
		return err
	}
	return r.recursive(p)
}

// Lookup implements strategy.Env.
func (r *run) Lookup(name string) (float64, error) {
	switch name {
	case "vert":
		return float64(r.source.VertNbr), nil
	case "edge":
		return float64(r.source.EdgeNbr), nil
	case "load":
		return float64(r.source.VeloSum), nil
	case "term":
		if r.arch.Variable() {
			return 0, nil
		}
		return float64(r.arch.DomainSize(r.arch.DomainFirst())), nil
	}
	return 0, fmt.Errorf("%w: %s", strategy.ErrUnknownVar, name)
}

type snapshot struct {
	r     *run
	m     *mapping.Mapping
	stats mapping.Stats
}

// Store implements strategy.Target.
func (r *run) Store() strategy.Snapshot {
	return &snapshot{r: r, m: r.mapping.Clone(), stats: r.mapping.Stats()}
}

func (s *snapshot) Restore() { s.r.mapping = s.m.Clone() }

// Better compares the heaviest terminal load, then communication load.
func (s *snapshot) Better(other strategy.Snapshot) bool {
	o := other.(*snapshot)
	if s.stats.LoadMax != o.stats.LoadMax {
		return s.stats.LoadMax < o.stats.LoadMax
	}
	return s.stats.CommLoad < o.stats.CommLoad
}

// recursive computes a new mapping by recursive bipartitioning.
func (r *run) recursive(p RBParams) error {
	policy, err := ParsePolicy(p.Poli)
	if err != nil {
		return err
	}
	st := &state{
		source:  r.source,
		mapping: mapping.New(r.source, r.arch),
		done:    make([]bool, r.source.VertNbr),
	}
	root := job{graph: r.source, domain: r.arch.DomainFirst()}
	if r.source.VertNbr == 0 {
		r.mapping = st.mapping
		return nil
	}

	if p.Job != "u" {
		pl := newPool(policy, st, r.seed)
		pl.add(root)
		if err := r.drain(r.ctx, pl, p.Sep); err != nil {
			return err
		}
		r.mapping = st.mapping
		return nil
	}

	// Untied jobs: split the root once, then let each half run its own
	// pool, on its own copy of the mapping when maps are untied too.
	pl := newPool(policy, st, r.seed)
	children, err := r.process(pl, root, p.Sep)
	if err != nil {
		return err
	}
	untiedMap := p.Map == "u"
	states := make([]*state, len(children))
	for i := range children {
		states[i] = st
		if untiedMap {
			states[i] = st.clone()
		}
	}

	drainHalf := func(ctx context.Context, i int) error {
		half := newPool(policy, states[i], r.seed+int64(i)+1)
		half.add(children[i])
		return r.drain(ctx, half, p.Sep)
	}
	if untiedMap && r.config.Parallel() {
		eg, ctx := errgroup.WithContext(r.ctx)
		for i := range children {
			i := i
			eg.Go(func() error {
				return drainHalf(ctx, i)
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
	} else {
		for i := range children {
			if err := drainHalf(r.ctx, i); err != nil {
				return err
			}
		}
	}

	if untiedMap {
		for i, c := range children {
			if err := st.mapping.Merge(states[i].mapping, origins(c.graph)); err != nil {
				return err
			}
		}
	}
	r.mapping = st.mapping
	return nil
}

// drain processes jobs until the pool is empty.
func (r *run) drain(ctx context.Context, pl *pool, sep strategy.Node) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		j, ok := pl.next()
		if !ok {
			return nil
		}
		children, err := r.process(pl, j, sep)
		if err != nil {
			return err
		}
		for _, c := range children {
			pl.add(c)
		}
	}
}

// process bipartitions one job. Sides whose domain is final are written to
// the mapping and the others are returned as new jobs.
func (r *run) process(pl *pool, j job, sep strategy.Node) ([]job, error) {
	st := pl.st
	r.jobs.Add(1)
	for {
		lvl := r.maxLevel.Load()
		if int64(j.level) <= lvl || r.maxLevel.CompareAndSwap(lvl, int64(j.level)) {
			break
		}
	}

	dom0, dom1, err := r.arch.DomainBipart(j.domain)
	if errors.Is(err, arch.ErrTerminal) {
		r.finalize(pl, origins(j.graph), j.domain)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to split domain %d at level %d: %w", r.arch.DomainNum(j.domain), j.level, err)
	}

	var ext *bgraph.External
	if r.config.ExternalGains() && j.graph != r.source {
		ext = &bgraph.External{Source: r.source, Domain: st.domain}
	}
	b, err := bgraph.New(j.graph, r.arch, dom0, dom1, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create bipartition graph at level %d: %w", j.level, err)
	}
	b.Seed = r.seed*31 + int64(r.arch.DomainNum(j.domain))*1009 + int64(j.level)
	b.Log = r.logger
	b.Tracker = r.tracker
	if err := b.Run(sep); err != nil {
		return nil, fmt.Errorf("failed to bipartition job at level %d: %w", j.level, err)
	}

	level := zerolog.DebugLevel
	if r.config.EnableProgress() {
		level = zerolog.InfoLevel
	}
	r.logger.WithLevel(level).
		Int("level", j.level).
		Int("domain", r.arch.DomainNum(j.domain)).
		Int("vertices", j.graph.VertNbr).
		Int("size0", b.Compsize0).
		Int("commload", b.Commload).
		Int("delta", b.Compload0Dlt).
		Int("pending", pl.Len()).
		Msg("Job completed")

	doms := [2]arch.Domain{dom0, dom1}
	var children []job
	for side := uint8(0); side < 2; side++ {
		size := b.Compsize0
		if side == 1 {
			size = j.graph.VertNbr - b.Compsize0
		}
		if size == 0 {
			continue
		}
		sub := j.graph.Induce(b.Parttax, side)
		if r.final(doms[side], sub) {
			r.finalize(pl, origins(sub), doms[side])
			continue
		}
		st.mapping.Assign(origins(sub), st.mapping.AddDomain(doms[side]))
		children = append(children, job{graph: sub, domain: doms[side], level: j.level + 1, side: side})
	}
	return children, nil
}

// final reports whether the vertices of sub get no further split. On a
// fixed-size architecture a side is final when its domain is terminal; on
// a variable-sized one, when it holds at most one vertex.
func (r *run) final(d arch.Domain, sub *graph.Graph) bool {
	if r.arch.Variable() {
		return sub.VertNbr <= 1
	}
	return arch.IsTerminal(r.arch, d)
}

func (r *run) finalize(pl *pool, verts []int, d arch.Domain) {
	st := pl.st
	st.mapping.Assign(verts, st.mapping.AddDomain(d))
	for _, v := range verts {
		st.done[v] = true
	}
	r.finalized.Add(int64(len(verts)))
	pl.resolved(verts)
}

// domain returns the current domain of a source vertex.
func (st *state) domain(v int) (arch.Domain, bool) {
	return st.mapping.Domain(v)
}

func origins(g *graph.Graph) []int {
	verts := make([]int, g.VertNbr)
	for v := range verts {
		verts[v] = g.Origin(v)
	}
	return verts
}
