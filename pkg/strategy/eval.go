package strategy

import (
	"errors"
	"fmt"
)

// Snapshot is a saved state of a Target.
type Snapshot interface {
	// Restore puts the target back into the saved state.
	Restore()
	// Better reports whether the saved state is strictly better than other.
	Better(other Snapshot) bool
}

// Target is what a strategy runs on.
type Target interface {
	Env
	// Apply runs one method on the target.
	Apply(m *Method) error
	// Store snapshots the current state.
	Store() Snapshot
}

// Eval interprets a strategy tree over a target.
//
// A concat stops at its first failure and a cond returns the result of the
// branch it runs. A select runs both branches from the same starting state,
// fails only when both fail and, when both succeed, keeps the right result
// unless the left one is strictly better.
func Eval(n Node, t Target) error {
	switch n := n.(type) {
	case *Empty, nil:
		return nil
	case *Method:
		return t.Apply(n)
	case *Concat:
		if err := Eval(n.Left, t); err != nil {
			return err
		}
		return Eval(n.Right, t)
	case *Cond:
		v, err := n.Test.Eval(t)
		if err != nil {
			return fmt.Errorf("failed to evaluate condition %s: %w", n.Test, err)
		}
		if v != 0 {
			return Eval(n.Then, t)
		}
		return Eval(n.Else, t)
	case *Select:
		return evalSelect(n, t)
	}
	return fmt.Errorf("unknown strategy node %T", n)
}

func evalSelect(n *Select, t Target) error {
	start := t.Store()

	var left Snapshot
	errLeft := Eval(n.Left, t)
	if errLeft == nil {
		left = t.Store()
	}

	start.Restore()
	errRight := Eval(n.Right, t)
	switch {
	case errRight == nil:
		if left != nil && left.Better(t.Store()) {
			left.Restore()
		}
		return nil
	case left != nil:
		left.Restore()
		return nil
	}
	return errors.Join(errLeft, errRight)
}
