package ecscommand

import (
	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

func requireNotRelationshipKind(op string, kind ecstypes.Kind) error {
	if kind == ecstypes.ChildrenKind || kind == ecstypes.ParentsKind {
		return ecserrors.New(ecserrors.ArgumentShape, op, "Children/Parents are managed via relationship commands, not component CUD")
	}
	return nil
}

// AddComponent attaches a new component to an already-spawned entity.
func (e *Executor) AddComponent(sc ecscontext.SystemContext, entity ecstypes.EntityID, spec ComponentSpec) error {
	const op = "ecscommand.AddComponent"
	if err := gate(sc, op, false); err != nil {
		return err
	}
	if err := requireNotRelationshipKind(op, spec.Kind); err != nil {
		return err
	}
	if err := checkLocks(sc, op, spec.Kind); err != nil {
		return err
	}

	checks := []func() error{
		func() error { return requireEntity(e.store, op, entity) },
		func() error {
			if e.store.HasComponent(entity, spec.Kind) {
				return ecserrors.New(ecserrors.AlreadyExists, op, "component already present")
			}
			return nil
		},
		func() error { return spec.Kind.Validate(spec.Payload) },
	}
	if err := validateConcurrently(checks...); err != nil {
		recordOutcome("add_component", err)
		return err
	}

	write := ecsstore.ComponentWrite{Entity: entity, Kind: spec.Kind, Tags: ecstypes.MergeTags(spec.Kind, spec.Tags...), Payload: spec.Payload}
	if err := e.store.Insert([]ecsstore.ComponentWrite{write}); err != nil {
		recordOutcome("add_component", err)
		return err
	}
	e.emitComponentCreated(entity, spec.Kind)
	recordOutcome("add_component", nil)
	return nil
}

// UpdateComponent overwrites the payload of an existing component.
func (e *Executor) UpdateComponent(sc ecscontext.SystemContext, entity ecstypes.EntityID, kind ecstypes.Kind, payload any) error {
	const op = "ecscommand.UpdateComponent"
	if err := gate(sc, op, false); err != nil {
		return err
	}
	if err := requireNotRelationshipKind(op, kind); err != nil {
		return err
	}
	if err := checkLocks(sc, op, kind); err != nil {
		return err
	}

	checks := []func() error{
		func() error { return requireEntity(e.store, op, entity) },
		func() error {
			if !e.store.HasComponent(entity, kind) {
				return ecserrors.New(ecserrors.NotFound, op, "component not present")
			}
			return nil
		},
		func() error { return kind.Validate(payload) },
	}
	if err := validateConcurrently(checks...); err != nil {
		recordOutcome("update_component", err)
		return err
	}

	write := ecsstore.ComponentWrite{Entity: entity, Kind: kind, Payload: payload}
	if err := e.store.Update([]ecsstore.ComponentWrite{write}); err != nil {
		recordOutcome("update_component", err)
		return err
	}
	e.emitComponentUpdated(entity, kind)
	recordOutcome("update_component", nil)
	return nil
}

// RemoveComponent deletes an existing component from entity.
func (e *Executor) RemoveComponent(sc ecscontext.SystemContext, entity ecstypes.EntityID, kind ecstypes.Kind) error {
	const op = "ecscommand.RemoveComponent"
	if err := gate(sc, op, false); err != nil {
		return err
	}
	if err := requireNotRelationshipKind(op, kind); err != nil {
		return err
	}
	if err := checkLocks(sc, op, kind); err != nil {
		return err
	}

	checks := []func() error{
		func() error { return requireEntity(e.store, op, entity) },
		func() error {
			if !e.store.HasComponent(entity, kind) {
				return ecserrors.New(ecserrors.NotFound, op, "component not present")
			}
			return nil
		},
	}
	if err := validateConcurrently(checks...); err != nil {
		recordOutcome("remove_component", err)
		return err
	}

	if err := e.store.Delete([]ecsstore.ComponentKey{{Entity: entity, Kind: kind}}); err != nil {
		recordOutcome("remove_component", err)
		return err
	}
	e.emitComponentDeleted(entity, kind)
	recordOutcome("remove_component", nil)
	return nil
}
