package ecscommand

import (
	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsquery"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// Despawn removes one or more entities: every component they carry is
// deleted, and the entity is mirror-removed from every parent and
// child list it appears in.
func (e *Executor) Despawn(sc ecscontext.SystemContext, entities ...ecstypes.EntityID) error {
	const op = "ecscommand.Despawn"
	if err := gate(sc, op, false); err != nil {
		return err
	}
	return e.despawnSet(sc, op, entities)
}

// DespawnCascade removes the given entities and every transitive
// descendant of each, atomically in one commit (spec §4.3).
func (e *Executor) DespawnCascade(sc ecscontext.SystemContext, entities ...ecstypes.EntityID) error {
	const op = "ecscommand.DespawnCascade"
	if err := gate(sc, op, false); err != nil {
		return err
	}

	all := make(map[ecstypes.EntityID]struct{}, len(entities))
	var ordered []ecstypes.EntityID
	for _, root := range entities {
		if root == "" {
			err := ecserrors.New(ecserrors.ArgumentShape, op, "non-entity argument")
			recordOutcome(op, err)
			return err
		}
		if !e.store.EntityExists(root) {
			// Already despawned (or never existed under this id):
			// a no-op, not an error (spec §8).
			continue
		}
		if _, seen := all[root]; !seen {
			all[root] = struct{}{}
			ordered = append(ordered, root)
		}
		desc, err := ecsquery.Descendants(e.store, root)
		if err != nil {
			recordOutcome(op, err)
			return err
		}
		for _, d := range desc {
			if _, seen := all[d]; !seen {
				all[d] = struct{}{}
				ordered = append(ordered, d)
			}
		}
	}
	return e.despawnSet(sc, op, ordered)
}

// despawnSet removes entities from the store. An entity id that no
// longer exists (already despawned, or never spawned under that id) is
// silently dropped rather than rejected: despawning twice is a no-op
// (spec §8), not an error. Only a malformed (empty) id is fatal.
func (e *Executor) despawnSet(sc ecscontext.SystemContext, op string, entities []ecstypes.EntityID) error {
	if len(entities) == 0 {
		return nil
	}

	for _, entity := range entities {
		if entity == "" {
			err := ecserrors.New(ecserrors.ArgumentShape, op, "non-entity argument")
			recordOutcome(op, err)
			return err
		}
	}

	live := make([]ecstypes.EntityID, 0, len(entities))
	doomed := make(map[ecstypes.EntityID]struct{}, len(entities))
	for _, entity := range entities {
		if !e.store.EntityExists(entity) {
			continue
		}
		if _, seen := doomed[entity]; seen {
			continue
		}
		doomed[entity] = struct{}{}
		live = append(live, entity)
	}
	if len(live) == 0 {
		recordOutcome(op, nil)
		return nil
	}

	var deletes []ecsstore.ComponentKey
	mirrorUpdates := make(map[ecsstore.ComponentKey]ecsstore.ComponentWrite)

	for _, entity := range live {
		for _, kind := range e.store.KindsForEntity(entity) {
			deletes = append(deletes, ecsstore.ComponentKey{Entity: entity, Kind: kind})
		}

		parents, _ := ecsquery.Parents(e.store, entity)
		for _, p := range parents {
			if _, alsoDoomed := doomed[p]; alsoDoomed {
				continue
			}
			e.unmirror(mirrorUpdates, p, ecstypes.ChildrenKind, entity)
		}
		children, _ := ecsquery.Children(e.store, entity)
		for _, c := range children {
			if _, alsoDoomed := doomed[c]; alsoDoomed {
				continue
			}
			e.unmirror(mirrorUpdates, c, ecstypes.ParentsKind, entity)
		}
	}

	updates := make([]ecsstore.ComponentWrite, 0, len(mirrorUpdates))
	for _, w := range mirrorUpdates {
		updates = append(updates, w)
	}

	if err := e.store.Update(updates); err != nil {
		recordOutcome(op, err)
		return err
	}
	if err := e.store.Delete(deletes); err != nil {
		recordOutcome(op, err)
		return err
	}

	for _, key := range deletes {
		e.emitComponentDeleted(key.Entity, key.Kind)
	}
	for key := range mirrorUpdates {
		e.emitComponentUpdated(key.Entity, key.Kind)
	}
	recordOutcome(op, nil)
	return nil
}

// unmirror removes removed from entity's kind-side relationship list,
// merging across multiple sub-operations in the same commit so that an
// edge is gone if *any* of them removed it (spec §4.3's intersection-
// of-survivors rule, applied here to a single-entity removal: once any
// caller removes an id, later callers reading the same staged row see
// it already gone and cannot reintroduce it).
func (e *Executor) unmirror(acc map[ecsstore.ComponentKey]ecsstore.ComponentWrite, entity ecstypes.EntityID, kind ecstypes.Kind, removed ecstypes.EntityID) {
	key := ecsstore.ComponentKey{Entity: entity, Kind: kind}
	ids := e.relationshipIDs(acc, key)
	ids = ecstypes.RemoveEntity(ids, removed)
	acc[key] = ecsstore.ComponentWrite{Entity: entity, Kind: kind, Payload: relationshipPayload(kind, ids)}
}
