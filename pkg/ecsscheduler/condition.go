package ecsscheduler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstate"
)

// RunConditionContext is what a Condition is evaluated against: the
// frame it's being asked about and the state snapshot taken once at
// the top of that frame (step 3).
type RunConditionContext struct {
	Frame    uint64
	Snapshot ecsstate.Snapshot
}

// Condition is a run-condition attached to one or more systems. The
// same *Condition instance shared by several systems is evaluated at
// most once per frame — the scheduler walks the distinct *Condition
// pointers referenced by that frame's systems and memoizes each.
type Condition struct {
	eval func(RunConditionContext) (bool, error)

	mu           sync.Mutex
	cachedFrame  uint64
	haveCached   bool
	cachedResult bool
	cachedErr    error
}

// NewCondition wraps an arbitrary predicate as a Condition. Use this
// for user-supplied run-conditions that are plain Go closures (the
// idiomatic analogue of the source's {module, function, args} form —
// a Go closure already carries its own "args" via capture).
func NewCondition(fn func(RunConditionContext) (bool, error)) *Condition {
	return &Condition{eval: fn}
}

// RunIf wraps a zero-argument predicate, for conditions that don't
// need the frame number or state snapshot.
func RunIf(fn func() (bool, error)) *Condition {
	return NewCondition(func(RunConditionContext) (bool, error) { return fn() })
}

// InState is the built-in condition gating a system on a named-state
// module currently holding want.
func InState(module string, want any) *Condition {
	return NewCondition(func(rc RunConditionContext) (bool, error) {
		return rc.Snapshot.InState(module, want), nil
	})
}

// NotInState is the negation of InState.
func NotInState(module string, want any) *Condition {
	return NewCondition(func(rc RunConditionContext) (bool, error) {
		return rc.Snapshot.NotInState(module, want), nil
	})
}

// RunIfExpr compiles script once, at registration time, exactly the
// way the teacher's rule-engine compiles a filter script once in
// Init and evaluates the program repeatedly. The expression is given
// "frame" plus every snapshotted state module's value as variables; it
// must evaluate to a boolean, or the condition errors with
// NonBooleanRunCondition.
func RunIfExpr(script string) (*Condition, error) {
	program, err := expr.Compile(script, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return NewCondition(func(rc RunConditionContext) (bool, error) {
		env := make(map[string]any, len(rc.Snapshot)+1)
		env["frame"] = rc.Frame
		for module, value := range rc.Snapshot {
			env[module] = value
		}
		out, err := vm.Run(program, env)
		if err != nil {
			return false, err
		}
		b, ok := out.(bool)
		if !ok {
			return false, ecserrors.New(ecserrors.NonBooleanRunCondition, "ecsscheduler.RunIfExpr", "expression did not evaluate to a boolean")
		}
		return b, nil
	}), nil
}

// resultFor evaluates c against rc, or returns the cached result if c
// was already evaluated for rc.Frame.
func (c *Condition) resultFor(rc RunConditionContext) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.haveCached && c.cachedFrame == rc.Frame {
		return c.cachedResult, c.cachedErr
	}
	result, err := c.eval(rc)
	c.cachedFrame = rc.Frame
	c.haveCached = true
	c.cachedResult = result
	c.cachedErr = err
	return result, err
}

// allTrue reports whether every condition in conds evaluates true for
// rc. A false result does not stop the loop (every condition's cache
// is still populated); the first error does. A NonBooleanRunCondition error is
// fatal (spec §7: "crashes scheduler by design") and is raised as a
// panic here rather than returned, since nothing upstream of a run
// condition is allowed to recover from it the way a per-system error
// is recovered from.
func allTrue(rc RunConditionContext, conds []*Condition) (bool, error) {
	ok := true
	for _, c := range conds {
		result, err := c.resultFor(rc)
		if err != nil {
			panicIfNonBoolean(err)
			return false, err
		}
		if !result {
			ok = false
		}
	}
	return ok, nil
}

var nonBooleanRunCondition = ecserrors.New(ecserrors.NonBooleanRunCondition, "", "")

// panicIfNonBoolean crashes the scheduler when err is (or wraps) a
// NonBooleanRunCondition error. Any other run-condition error (e.g. a
// user-supplied predicate's own I/O failure) is left to its caller's
// usual log-and-skip handling.
func panicIfNonBoolean(err error) {
	if errors.Is(err, nonBooleanRunCondition) {
		panic(fmt.Sprintf("ecsscheduler: %v", err))
	}
}
