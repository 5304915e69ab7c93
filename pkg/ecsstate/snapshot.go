package ecsstate

import "github.com/ecspanse-go/ecspanse/pkg/ecsstore"

// Snapshot is a point-in-time read of a set of Machines' values,
// taken once per frame by the scheduler (spec §4.5 step 3) so every
// in_state/not_in_state run-condition evaluated during that frame sees
// a value stable for the whole frame, even if a system transitions the
// same Machine mid-frame.
type Snapshot map[string]any

// TakeSnapshot reads the live value of every machine named and returns
// a Snapshot keyed by resource name. A machine with no value yet (Init
// not called) is recorded as its declared default.
func TakeSnapshot(store *ecsstore.Store, machines ...Module) Snapshot {
	snap := make(Snapshot, len(machines))
	for _, m := range machines {
		snap[m.name()] = m.currentOrDefault(store)
	}
	return snap
}

// Module lets TakeSnapshot, and hosts assembling a heterogeneous list
// of named-state machines for a Scheduler, accept *Machine[S] values
// for any S without Module itself being generic. Only *Machine[S]
// (declared in this package) can satisfy it.
type Module interface {
	name() string
	currentOrDefault(store *ecsstore.Store) any
}

func (m *Machine[S]) name() string { return m.Kind.Name() }

func (m *Machine[S]) currentOrDefault(store *ecsstore.Store) any {
	if v, ok := store.GetResource(m.Kind); ok {
		return v
	}
	return m.Default
}

// InState reports whether the snapshotted value of module equals want.
// want is compared with ==, so callers must pass the same concrete
// type the Machine was declared with.
func (s Snapshot) InState(module string, want any) bool {
	return s[module] == want
}

// NotInState is the negation of InState.
func (s Snapshot) NotInState(module string, want any) bool {
	return !s.InState(module, want)
}
