package mapper

import (
	"fmt"

	"github.com/gilchrisn/graph-mapping-service/pkg/bgraph"
	"github.com/gilchrisn/graph-mapping-service/pkg/strategy"
)

// Methods is the method table of mapping strategies. Its only method is
//
//	r{job,map,poli,sep}  recursive bipartitioning
//
// where job and map are t (tied) or u (untied), poli is a policy letter
// and sep is the bipartitioning strategy. Conditions may use vert, edge,
// load and term, the number of terminals of a fixed-size architecture.
var Methods = newMethods()

func newMethods() *strategy.Table {
	t := strategy.NewTable("mapping", "vert", "edge", "load", "term")
	t.Add('r',
		strategy.ParamSpec{Name: "job", Kind: strategy.KindCase, Cases: "tu", Default: "t"},
		strategy.ParamSpec{Name: "map", Kind: strategy.KindCase, Cases: "tu", Default: "t"},
		strategy.ParamSpec{Name: "poli", Kind: strategy.KindCase, Cases: "rlsLSo", Default: "S"},
		strategy.ParamSpec{Name: "sep", Kind: strategy.KindStrat, Table: bgraph.Methods, Default: bgraph.DefaultStrategy},
	)
	return t
}

// RBParams are the parameters of the recursive bipartitioning method.
type RBParams struct {
	Job  string        `strat:"job"`
	Map  string        `strat:"map"`
	Poli string        `strat:"poli"`
	Sep  strategy.Node `strat:"sep"`
}

// ParseStrategy parses a mapping strategy.
func ParseStrategy(text string) (strategy.Node, error) {
	return strategy.Parse(Methods, text)
}

// StrategyFromConfig returns mapping.strategy when set, and otherwise
// assembles a recursive bipartitioning strategy from the other mapping keys.
func StrategyFromConfig(config *Config) (strategy.Node, error) {
	if text := config.Strategy(); text != "" {
		return ParseStrategy(text)
	}

	poli, err := ParsePolicy(config.Policy())
	if err != nil {
		return nil, err
	}
	sep := config.BipartStrategy()
	if sep == "" {
		sep = bgraph.DefaultStrategy
	}
	return ParseStrategy(fmt.Sprintf("r{job=%c,map=%c,poli=%c,sep=%s}",
		tie(config.JobTie()), tie(config.MapTie()), poli, sep))
}

func tie(tied bool) byte {
	if tied {
		return 't'
	}
	return 'u'
}
