//go:build test || debug

package ecsscheduler

import "github.com/ecspanse-go/ecspanse/pkg/ecscontext"

// Snapshot is a point-in-time view of a Scheduler's frame state
// machine: its phase, frame number, and batch layout down to each
// system's declared locks and last-cached run-condition results.
// Available only under the test/debug build tags — cmd/ecsctl
// inspect is built with one of them, and nothing in the core frame
// loop depends on this package existing.
type Snapshot struct {
	Phase   Phase
	Frame   uint64
	Batches [][]SystemSnapshot
}

// SystemSnapshot describes one batch-phase system's placement and
// run-condition state as of the last frame Inspect was called during.
type SystemSnapshot struct {
	Name            string
	EventSubscribed bool
	Locked          []ecscontext.LockedType
	RunAfter        []string
	Conditions      []ConditionSnapshot
}

// ConditionSnapshot is a *Condition's cache as of the last frame it
// was evaluated for; Evaluated is false if the condition has never
// run.
type ConditionSnapshot struct {
	Evaluated bool
	Result    bool
	Err       error
}

// Inspect reports s's current phase, frame number, and batch layout.
func (s *Scheduler) Inspect() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	batches := make([][]SystemSnapshot, len(s.batches))
	for i, batch := range s.batches {
		systems := make([]SystemSnapshot, len(batch))
		for j, rs := range batch {
			systems[j] = SystemSnapshot{
				Name:            rs.name,
				EventSubscribed: rs.isEventSubscribed(),
				Locked:          rs.locked,
				RunAfter:        rs.runAfter,
				Conditions:      conditionSnapshots(rs.conditions),
			}
		}
		batches[i] = systems
	}

	return Snapshot{
		Phase:   s.phase,
		Frame:   s.frame,
		Batches: batches,
	}
}

func conditionSnapshots(conds []*Condition) []ConditionSnapshot {
	out := make([]ConditionSnapshot, len(conds))
	for i, c := range conds {
		c.mu.Lock()
		out[i] = ConditionSnapshot{Evaluated: c.haveCached, Result: c.cachedResult, Err: c.cachedErr}
		c.mu.Unlock()
	}
	return out
}
