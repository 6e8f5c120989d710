package strategy

import (
	"fmt"
	"math"
	"strconv"
)

// Env resolves condition variables.
type Env interface {
	Lookup(name string) (float64, error)
}

// Expr is a condition expression. Logical and relational operators yield 1
// for true and 0 for false.
type Expr interface {
	fmt.Stringer
	Eval(env Env) (float64, error)
}

// Num is a numeric literal.
type Num struct{ Value float64 }

// Var is a reference to a target variable.
type Var struct{ Name string }

// Unary is logical negation.
type Unary struct {
	Op byte
	X  Expr
}

// Binary is one of | & < = > + - * / %.
type Binary struct {
	Op   byte
	X, Y Expr
}

func (n *Num) Eval(Env) (float64, error) { return n.Value, nil }

func (n *Num) String() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

func (v *Var) Eval(env Env) (float64, error) {
	x, err := env.Lookup(v.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate %s: %w", v.Name, err)
	}
	return x, nil
}

func (v *Var) String() string { return v.Name }

func (u *Unary) Eval(env Env) (float64, error) {
	x, err := u.X.Eval(env)
	if err != nil {
		return 0, err
	}
	return truth(x == 0), nil
}

func (u *Unary) String() string { return "!" + u.X.String() }

func (b *Binary) Eval(env Env) (float64, error) {
	x, err := b.X.Eval(env)
	if err != nil {
		return 0, err
	}
	// Logical operators short-circuit
	switch b.Op {
	case '|':
		if x != 0 {
			return 1, nil
		}
	case '&':
		if x == 0 {
			return 0, nil
		}
	}
	y, err := b.Y.Eval(env)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case '|', '&':
		return truth(y != 0), nil
	case '<':
		return truth(x < y), nil
	case '=':
		return truth(x == y), nil
	case '>':
		return truth(x > y), nil
	case '+':
		return x + y, nil
	case '-':
		return x - y, nil
	case '*':
		return x * y, nil
	case '/':
		if y == 0 {
			return 0, fmt.Errorf("division by zero in %s", b)
		}
		return x / y, nil
	case '%':
		if y == 0 {
			return 0, fmt.Errorf("modulo by zero in %s", b)
		}
		return math.Mod(x, y), nil
	}
	return 0, fmt.Errorf("unknown operator %q", b.Op)
}

func (b *Binary) String() string {
	return "(" + b.X.String() + string(b.Op) + b.Y.String() + ")"
}

func truth(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
