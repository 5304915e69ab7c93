package ecsscheduler

import (
	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// SystemFunc is the body of a startup/frame-start/batch/frame-end/
// shutdown system. sc.Mode tells it whether it's running serially
// (Sync) or concurrently inside a batch (Async); sc.Locked lists the
// component kinds it declared, required by ecscommand when Mode is
// Async.
type SystemFunc func(sc ecscontext.SystemContext) error

// EventSystemFunc is the body of an event-subscribed system, invoked
// once per matching event drawn from the frame's event snapshot.
type EventSystemFunc func(sc ecscontext.SystemContext, event ecsstore.EventRecord) error

// BatchKeyFunc derives the serialization key for an event-subscribed
// system's invocations: two events yielding the same key run in
// declaration order relative to each other, never concurrently.
type BatchKeyFunc func(event ecsstore.EventRecord) string

type registeredSystem struct {
	name       string
	fn         SystemFunc
	eventFn    EventSystemFunc
	eventKinds []ecstypes.Kind
	batchKeyFn BatchKeyFunc
	locked     []ecscontext.LockedType
	conditions []*Condition
	runAfter   []string
}

func (rs *registeredSystem) isEventSubscribed() bool { return rs.eventFn != nil }

// SystemOption configures a registered system at AddSystem/
// AddEventSystem time.
type SystemOption func(*registeredSystem)

// WithLocked declares the component kinds (optionally tag-qualified)
// this system's commands touch. Required for any batch-phase system
// that calls ecscommand — checkLocks rejects an undeclared kind.
func WithLocked(locked ...ecscontext.LockedType) SystemOption {
	return func(rs *registeredSystem) { rs.locked = append(rs.locked, locked...) }
}

// WithRunConditions gates the system on every condition evaluating
// true this frame.
func WithRunConditions(conds ...*Condition) SystemOption {
	return func(rs *registeredSystem) { rs.conditions = append(rs.conditions, conds...) }
}

// WithRunAfter places this system strictly after the batch containing
// every named predecessor, regardless of whether an earlier batch
// would otherwise be lock-compatible (the asymmetric placement rule).
// Every named predecessor must already be registered in BatchPhase.
func WithRunAfter(systemNames ...string) SystemOption {
	return func(rs *registeredSystem) { rs.runAfter = append(rs.runAfter, systemNames...) }
}

// WithBatchKey sets the serialization key function for an
// event-subscribed system; invocations sharing a key never overlap.
// Without one, every matching event for this system serializes
// against every other (the safe default).
func WithBatchKey(fn BatchKeyFunc) SystemOption {
	return func(rs *registeredSystem) { rs.batchKeyFn = fn }
}
