// Package strategy implements the strategy expression language used to
// compose partitioning methods.
//
// A strategy is parsed against a method Table into a tree of Nodes and then
// interpreted by Eval over any Target able to run methods, answer condition
// variables and snapshot its state.
//
//	strat   := concat ( '|' concat )*
//	concat  := item*
//	item    := '(' strat ')'
//	         | '/' cond '?' strat [ ':' strat ] ';'
//	         | METHOD [ '{' NAME '=' value ( ',' NAME '=' value )* '}' ]
//
// Juxtaposition runs items in sequence, '|' keeps the better of two
// alternatives and the guarded form picks a branch from a condition over
// the target's variables.
package strategy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSyntax        = errors.New("strategy: syntax error")
	ErrUnknownMethod = errors.New("strategy: unknown method")
	ErrUnknownParam  = errors.New("strategy: unknown parameter")
	ErrUnknownVar    = errors.New("strategy: unknown variable")
)

// Node is a strategy tree node: *Method, *Concat, *Cond, *Select or *Empty.
type Node interface {
	fmt.Stringer
	node()
}

// Method invokes one concrete method. Params holds the parameters given
// explicitly, typed after the method's ParamSpec: int, float64, string for
// case letters and Node for nested strategies.
type Method struct {
	Spec   *MethodSpec
	Params map[string]any
}

// Concat runs Left, then Right if Left succeeded.
type Concat struct {
	Left, Right Node
}

// Cond runs Then when Test evaluates to non-zero and Else otherwise.
type Cond struct {
	Test Expr
	Then Node
	Else Node
}

// Select runs Left and Right from the same starting state and keeps the
// better result.
type Select struct {
	Left, Right Node
}

// Empty does nothing and succeeds.
type Empty struct{}

func (*Method) node() {}
func (*Concat) node() {}
func (*Cond) node()   {}
func (*Select) node() {}
func (*Empty) node()  {}

// Name returns the method letter.
func (m *Method) Name() byte { return m.Spec.Name }

func (m *Method) String() string {
	var b strings.Builder
	b.WriteByte(m.Spec.Name)
	first := true
	for _, p := range m.Spec.Params {
		v, ok := m.Params[p.Name]
		if !ok {
			continue
		}
		if first {
			b.WriteByte('{')
			first = false
		} else {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%v", p.Name, v)
	}
	if !first {
		b.WriteByte('}')
	}
	return b.String()
}

func (c *Concat) String() string {
	return wrapSelect(c.Left) + wrapSelect(c.Right)
}

func (c *Cond) String() string {
	if _, ok := c.Else.(*Empty); ok || c.Else == nil {
		return fmt.Sprintf("/%s?%s;", c.Test, c.Then)
	}
	return fmt.Sprintf("/%s?%s:%s;", c.Test, c.Then, c.Else)
}

func (s *Select) String() string {
	return s.Left.String() + "|" + s.Right.String()
}

func (*Empty) String() string { return "" }

// wrapSelect parenthesizes a select nested inside a concat.
func wrapSelect(n Node) string {
	if _, ok := n.(*Select); ok {
		return "(" + n.String() + ")"
	}
	return n.String()
}
