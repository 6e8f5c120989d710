package bgraph

import (
	"fmt"

	"github.com/gilchrisn/graph-mapping-service/pkg/strategy"
)

// DefaultStrategy is the bipartitioning strategy used when none is given.
const DefaultStrategy = "m{vert=80,rat=0.8,low=h{pass=10}f{bal=0.05,move=80},asc=f{bal=0.05,move=80}}"

// Methods is the method table of bipartitioning strategies:
//
//	f{pass,move,bal}     Fiduccia-Mattheyses refinement
//	h{pass}              greedy graph growing
//	d{pass,bal}          diffusion
//	m{vert,rat,low,asc}  multilevel
//	z                    move everything to part 0
//
// Conditions may use vert, edge, load, load0, levl, delt and bal.
var Methods = newMethods()

func newMethods() *strategy.Table {
	t := strategy.NewTable("bipartition", "vert", "edge", "load", "load0", "levl", "delt", "bal")
	t.Add('f',
		strategy.ParamSpec{Name: "pass", Kind: strategy.KindInt, Default: -1},
		strategy.ParamSpec{Name: "move", Kind: strategy.KindInt, Default: 80},
		strategy.ParamSpec{Name: "bal", Kind: strategy.KindFloat, Default: 0.05},
	)
	t.Add('h',
		strategy.ParamSpec{Name: "pass", Kind: strategy.KindInt, Default: 5},
	)
	t.Add('d',
		strategy.ParamSpec{Name: "pass", Kind: strategy.KindInt, Default: 40},
		strategy.ParamSpec{Name: "bal", Kind: strategy.KindFloat, Default: 0.05},
	)
	t.Add('m',
		strategy.ParamSpec{Name: "vert", Kind: strategy.KindInt, Default: 100},
		strategy.ParamSpec{Name: "rat", Kind: strategy.KindFloat, Default: 0.8},
		strategy.ParamSpec{Name: "low", Kind: strategy.KindStrat, Table: t, Default: "h{pass=10}f{bal=0.05,move=80}"},
		strategy.ParamSpec{Name: "asc", Kind: strategy.KindStrat, Table: t, Default: "f{bal=0.05,move=80}"},
	)
	t.Add('z')
	return t
}

// ParseStrategy parses a bipartitioning strategy.
func ParseStrategy(text string) (strategy.Node, error) {
	return strategy.Parse(Methods, text)
}

// Run applies a strategy to the graph.
func (b *Graph) Run(strat strategy.Node) error {
	return strategy.Eval(strat, b)
}

// Apply implements strategy.Target.
func (b *Graph) Apply(m *strategy.Method) error {
	switch m.Name() {
	case 'f':
		var p FMParams
		if err := m.Decode(&p); err != nil {
			return err
		}
		return b.FM(p)
	case 'h':
		var p GGParams
		if err := m.Decode(&p); err != nil {
			return err
		}
		return b.GrowGreedy(p)
	case 'd':
		var p DFParams
		if err := m.Decode(&p); err != nil {
			return err
		}
		return b.Diffuse(p)
	case 'm':
		var p MLParams
		if err := m.Decode(&p); err != nil {
			return err
		}
		return b.Multilevel(p)
	case 'z':
		b.Zero()
		return nil
	}
	return fmt.Errorf("%w: no bipartitioning method %q", ErrMethod, m.Name())
}

// Lookup implements strategy.Env.
func (b *Graph) Lookup(name string) (float64, error) {
	switch name {
	case "vert":
		return float64(b.S.VertNbr), nil
	case "edge":
		return float64(b.S.EdgeNbr), nil
	case "load":
		return float64(b.S.VeloSum), nil
	case "load0":
		return float64(b.Compload0), nil
	case "levl":
		return float64(b.Level), nil
	case "delt":
		return float64(abs(b.Compload0Dlt)), nil
	case "bal":
		if b.Compload0Avg == 0 {
			return 0, nil
		}
		return float64(abs(b.Compload0Dlt)) / float64(b.Compload0Avg), nil
	}
	return 0, fmt.Errorf("%w: %s", strategy.ErrUnknownVar, name)
}
