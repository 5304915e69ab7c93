package ecsstate

import (
	"fmt"

	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// StateTransition is emitted every time SetState actually changes a
// Machine's value. Previous/Current carry the machine's declared atom
// type erased to any, since one event Kind is shared by every Machine
// regardless of its type parameter.
type StateTransition struct {
	Module   string
	Previous any
	Current  any
}

// StateTransitionKind is the single event Kind every Machine's
// transitions are enqueued under, batch-keyed per module name so
// listeners can filter by it.
var StateTransitionKind = ecstypes.Register[StateTransition](ecstypes.EventKind, "ecs:state_transition")

// Machine declares a finite set of named states (S is usually a
// defined string type) and a default, backed by one resource Kind.
// Register one Machine per named-state module at setup time; it must
// not be constructed more than once per name (Register panics on a
// duplicate name, matching ecstypes' fail-fast posture for setup-time
// mistakes).
type Machine[S comparable] struct {
	Kind    ecstypes.Kind
	states  map[S]struct{}
	Default S
}

// NewMachine registers the resource Kind backing a named-state module
// and returns a Machine describing its declared atoms. def must be
// one of states, or NewMachine panics — this is a setup-time
// programmer error, not a runtime condition.
func NewMachine[S comparable](name string, states []S, def S) *Machine[S] {
	set := make(map[S]struct{}, len(states))
	for _, s := range states {
		set[s] = struct{}{}
	}
	if _, ok := set[def]; !ok {
		panic(fmt.Sprintf("ecsstate: default state %v not among declared states for %q", def, name))
	}
	kind := ecstypes.Register[S](ecstypes.Resource, name)
	return &Machine[S]{Kind: kind, states: set, Default: def}
}

// Init seeds the resource with the Machine's default value if it has
// not already been set. Called once at startup.
func (m *Machine[S]) Init(store *ecsstore.Store) {
	if _, ok := store.GetResource(m.Kind); !ok {
		store.UpsertResource(m.Kind, m.Default)
	}
}

// Declares reports whether s is one of the Machine's declared atoms.
func (m *Machine[S]) Declares(s S) bool {
	_, ok := m.states[s]
	return ok
}

// GetState reads the Machine's current value. It is safe from any
// system, sync or async.
func GetState[S comparable](store *ecsstore.Store, m *Machine[S]) (S, error) {
	v, ok := store.GetResource(m.Kind)
	if !ok {
		var zero S
		return zero, ecserrors.New(ecserrors.NotFound, "ecsstate.GetState", fmt.Sprintf("state %q not initialized", m.Kind.Name()))
	}
	return v.(S), nil
}

// SetState validates next is one of m's declared atoms, then updates
// the resource and emits a StateTransition event if the value actually
// changed. Must be called from a synchronous system (spec §4.5);
// calling it from an async system is WrongPhase.
func SetState[S comparable](sc ecscontext.SystemContext, store *ecsstore.Store, m *Machine[S], next S) error {
	const op = "ecsstate.SetState"
	if sc.Mode != ecscontext.Sync {
		return ecserrors.New(ecserrors.WrongPhase, op, "set_state must be called from a synchronous system")
	}
	if !m.Declares(next) {
		return ecserrors.New(ecserrors.ArgumentShape, op, fmt.Sprintf("state %v is not declared for %q", next, m.Kind.Name()))
	}

	previous := m.Default
	if v, ok := store.GetResource(m.Kind); ok {
		previous = v.(S)
	}
	if previous == next {
		return nil
	}

	store.UpsertResource(m.Kind, next)
	store.Enqueue(StateTransitionKind, m.Kind.Name(), StateTransition{
		Module:   m.Kind.Name(),
		Previous: previous,
		Current:  next,
	})
	return nil
}
