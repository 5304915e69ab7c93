package ecscommand

import (
	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// AddChildren upserts each of children onto parent's Children list and
// mirrors parent onto each child's Parents list (invariant R1).
func (e *Executor) AddChildren(sc ecscontext.SystemContext, parent ecstypes.EntityID, children ...ecstypes.EntityID) error {
	const op = "ecscommand.AddChildren"
	return e.addRelations(sc, op, parent, ecstypes.ChildrenKind, ecstypes.ParentsKind, children)
}

// AddParents upserts each of parents onto child's Parents list and
// mirrors child onto each parent's Children list.
func (e *Executor) AddParents(sc ecscontext.SystemContext, child ecstypes.EntityID, parents ...ecstypes.EntityID) error {
	const op = "ecscommand.AddParents"
	return e.addRelations(sc, op, child, ecstypes.ParentsKind, ecstypes.ChildrenKind, parents)
}

// RemoveChildren removes each of children from parent's Children list
// and mirrors the removal on each child's Parents list.
func (e *Executor) RemoveChildren(sc ecscontext.SystemContext, parent ecstypes.EntityID, children ...ecstypes.EntityID) error {
	const op = "ecscommand.RemoveChildren"
	return e.removeRelations(sc, op, parent, ecstypes.ChildrenKind, ecstypes.ParentsKind, children)
}

// RemoveParents removes each of parents from child's Parents list and
// mirrors the removal on each parent's Children list.
func (e *Executor) RemoveParents(sc ecscontext.SystemContext, child ecstypes.EntityID, parents ...ecstypes.EntityID) error {
	const op = "ecscommand.RemoveParents"
	return e.removeRelations(sc, op, child, ecstypes.ParentsKind, ecstypes.ChildrenKind, parents)
}

func (e *Executor) addRelations(sc ecscontext.SystemContext, op string, self ecstypes.EntityID, selfKind, otherKind ecstypes.Kind, others []ecstypes.EntityID) error {
	if err := gate(sc, op, false); err != nil {
		return err
	}
	if err := checkLocks(sc, op, selfKind, otherKind); err != nil {
		return err
	}
	if len(others) == 0 {
		return nil
	}

	checks := []func() error{func() error { return requireEntity(e.store, op, self) }}
	for _, o := range others {
		o := o
		checks = append(checks, func() error { return requireEntity(e.store, op, o) })
	}
	if err := validateConcurrently(checks...); err != nil {
		recordOutcome(op, err)
		return err
	}

	acc := make(map[ecsstore.ComponentKey]ecsstore.ComponentWrite)
	for _, o := range others {
		e.mirrorInto(acc, self, selfKind, o)
		e.mirrorInto(acc, o, otherKind, self)
	}
	updates := flattenWrites(acc)
	if err := e.store.Update(updates); err != nil {
		recordOutcome(op, err)
		return err
	}
	for key := range acc {
		e.emitComponentUpdated(key.Entity, key.Kind)
	}
	recordOutcome(op, nil)
	return nil
}

func (e *Executor) removeRelations(sc ecscontext.SystemContext, op string, self ecstypes.EntityID, selfKind, otherKind ecstypes.Kind, others []ecstypes.EntityID) error {
	if err := gate(sc, op, false); err != nil {
		return err
	}
	if err := checkLocks(sc, op, selfKind, otherKind); err != nil {
		return err
	}
	if len(others) == 0 {
		return nil
	}
	if err := requireEntity(e.store, op, self); err != nil {
		recordOutcome(op, err)
		return err
	}

	acc := make(map[ecsstore.ComponentKey]ecsstore.ComponentWrite)
	for _, o := range others {
		e.unmirror(acc, self, selfKind, o)
		e.unmirror(acc, o, otherKind, self)
	}
	updates := flattenWrites(acc)
	if err := e.store.Update(updates); err != nil {
		recordOutcome(op, err)
		return err
	}
	for key := range acc {
		e.emitComponentUpdated(key.Entity, key.Kind)
	}
	recordOutcome(op, nil)
	return nil
}

// mirrorInto folds add into entity's kind-side list, reading any value
// already staged in acc first.
func (e *Executor) mirrorInto(acc map[ecsstore.ComponentKey]ecsstore.ComponentWrite, entity ecstypes.EntityID, kind ecstypes.Kind, add ecstypes.EntityID) {
	key := ecsstore.ComponentKey{Entity: entity, Kind: kind}
	ids := e.relationshipIDs(acc, key)
	ids = ecstypes.UpsertEntity(ids, add)
	acc[key] = ecsstore.ComponentWrite{Entity: entity, Kind: kind, Payload: relationshipPayload(kind, ids)}
}

func flattenWrites(acc map[ecsstore.ComponentKey]ecsstore.ComponentWrite) []ecsstore.ComponentWrite {
	out := make([]ecsstore.ComponentWrite, 0, len(acc))
	for _, w := range acc {
		out = append(out, w)
	}
	return out
}
