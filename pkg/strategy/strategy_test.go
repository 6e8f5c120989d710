package strategy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFail = errors.New("method failed")

// counter is a toy target whose cost grows with each method applied.
type counter struct {
	cost  int
	trail []string
}

type counterSnap struct {
	c     *counter
	cost  int
	trail []string
}

func (s *counterSnap) Restore() {
	s.c.cost = s.cost
	s.c.trail = append([]string(nil), s.trail...)
}

func (s *counterSnap) Better(other Snapshot) bool {
	return s.cost < other.(*counterSnap).cost
}

type addParams struct {
	Add int `strat:"add"`
}

type nestParams struct {
	Sub  Node    `strat:"sub"`
	Mode string  `strat:"mode"`
	Rat  float64 `strat:"rat"`
}

func (c *counter) Apply(m *Method) error {
	switch m.Name() {
	case 'a', 'b':
		var p addParams
		if err := m.Decode(&p); err != nil {
			return err
		}
		c.cost += p.Add
		c.trail = append(c.trail, fmt.Sprintf("%c%d", m.Name(), p.Add))
		return nil
	case 'f':
		return errFail
	case 'n':
		var p nestParams
		if err := m.Decode(&p); err != nil {
			return err
		}
		c.trail = append(c.trail, "n"+p.Mode)
		return Eval(p.Sub, c)
	}
	return fmt.Errorf("unexpected method %c", m.Name())
}

func (c *counter) Lookup(name string) (float64, error) {
	if name == "cost" {
		return float64(c.cost), nil
	}
	return 0, fmt.Errorf("no variable %s", name)
}

func (c *counter) Store() Snapshot {
	return &counterSnap{c: c, cost: c.cost, trail: append([]string(nil), c.trail...)}
}

func testTable() *Table {
	tab := NewTable("test", "cost")
	tab.Add('a', ParamSpec{Name: "add", Kind: KindInt, Default: 1})
	tab.Add('b', ParamSpec{Name: "add", Kind: KindInt, Default: 1})
	tab.Add('f')
	tab.Add('n',
		ParamSpec{Name: "sub", Kind: KindStrat, Table: tab, Default: "a"},
		ParamSpec{Name: "mode", Kind: KindCase, Cases: "xy", Default: "x"},
		ParamSpec{Name: "rat", Kind: KindFloat, Default: 0.5},
	)
	return tab
}

func TestParseRoundTrip(t *testing.T) {
	tab := testTable()
	for _, text := range []string{
		"",
		"a",
		"a{add=3}b",
		"a|b{add=2}",
		"(a|b)a",
		"n{sub=a{add=2}f,mode=y,rat=0.8}",
		"n{sub=(a|b)n{sub=b}}",
		"/(cost>3)?a:b;",
		"/!(cost=0)?a;",
	} {
		t.Run(text, func(t *testing.T) {
			n, err := Parse(tab, text)
			require.NoError(t, err)
			again, err := Parse(tab, n.String())
			require.NoError(t, err)
			assert.Equal(t, n.String(), again.String())
		})
	}
}

func TestParseShape(t *testing.T) {
	tab := testTable()

	n, err := Parse(tab, " a { add = 4 } | b ")
	require.NoError(t, err)
	sel, ok := n.(*Select)
	require.True(t, ok)
	assert.Equal(t, 4, sel.Left.(*Method).Params["add"])

	n, err = Parse(tab, "(a|b)a")
	require.NoError(t, err)
	cat, ok := n.(*Concat)
	require.True(t, ok)
	assert.IsType(t, &Select{}, cat.Left)

	n, err = Parse(tab, "/cost>1&cost<5|cost=9?a;")
	require.NoError(t, err)
	cond := n.(*Cond)
	assert.Equal(t, "(((cost>1)&(cost<5))|(cost=9))", cond.Test.String())
	assert.IsType(t, &Empty{}, cond.Else)
}

func TestParseErrors(t *testing.T) {
	tab := testTable()
	tests := []struct {
		text string
		want error
	}{
		{"q", ErrUnknownMethod},
		{"a{sub=1}", ErrUnknownParam},
		{"/size>1?a;", ErrUnknownVar},
		{"/cost>1?a", ErrSyntax},
		{"a{add=x}", ErrSyntax},
		{"n{mode=z}", ErrSyntax},
		{"(a", ErrSyntax},
		{"a)", ErrSyntax},
		{"a{add=1", ErrSyntax},
	}
	for _, tt := range tests {
		_, err := Parse(tab, tt.text)
		assert.ErrorIs(t, err, tt.want, tt.text)
	}
}

func run(t *testing.T, text string) (*counter, error) {
	t.Helper()
	n, err := Parse(testTable(), text)
	require.NoError(t, err)
	c := &counter{}
	return c, Eval(n, c)
}

func TestEval(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		cost  int
		trail []string
		fails bool
	}{
		{"empty", "", 0, nil, false},
		{"concat", "a{add=2}b{add=3}", 5, []string{"a2", "b3"}, false},
		{"concat stops", "a f a", 1, []string{"a1"}, true},
		{"select left", "a{add=3}|a{add=5}", 3, []string{"a3"}, false},
		{"select right", "a{add=5}|a{add=3}", 3, []string{"a3"}, false},
		{"select tie keeps right", "a{add=2}|b{add=2}", 2, []string{"b2"}, false},
		{"select left fails", "f|a{add=4}", 4, []string{"a4"}, false},
		{"select right fails", "a{add=4}|a f", 4, []string{"a4"}, false},
		{"select both fail", "f|f", 0, nil, true},
		{"cond then", "a{add=4}/cost>3?a{add=10}:a{add=1};", 14, []string{"a4", "a10"}, false},
		{"cond else", "/cost>3?a{add=10}:a{add=1};", 1, []string{"a1"}, false},
		{"cond no else", "/cost>3?a{add=10};", 0, nil, false},
		{"nested defaults", "n", 1, []string{"nx", "a1"}, false},
		{"nested select", "n{sub=a{add=9}|b,mode=y}", 1, []string{"ny", "b1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := run(t, tt.text)
			if tt.fails {
				assert.ErrorIs(t, err, errFail)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.cost, c.cost)
			assert.Equal(t, tt.trail, c.trail)
		})
	}
}

func TestEvalConditionError(t *testing.T) {
	_, err := run(t, "/cost/0>1?a;")
	assert.Error(t, err)
}

func TestDecodeDefaults(t *testing.T) {
	tab := testTable()
	n, err := Parse(tab, "n{rat=2}")
	require.NoError(t, err)

	var p nestParams
	require.NoError(t, n.(*Method).Decode(&p))
	assert.Equal(t, "x", p.Mode)
	assert.Equal(t, 2.0, p.Rat)
	require.IsType(t, &Method{}, p.Sub)
	assert.Equal(t, byte('a'), p.Sub.(*Method).Name())
}
