package ecscommand

import (
	"github.com/google/uuid"

	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// ComponentSpec describes one component to attach at spawn time.
type ComponentSpec struct {
	Kind    ecstypes.Kind
	Tags    []string
	Payload any
}

// EntitySpec describes one entity to spawn. ID is optional; a fresh
// UUID is generated when omitted (spec §4.3 tie-break).
type EntitySpec struct {
	ID         ecstypes.EntityID
	Components []ComponentSpec
	Children   []ecstypes.EntityID
	Parents    []ecstypes.EntityID
}

// Spawn creates one or more entities in a single commit. Spawning an
// entity with no components, children, or parents is rejected — there
// would be nothing to persist (spec §4.3 tie-break).
func (e *Executor) Spawn(sc ecscontext.SystemContext, specs ...EntitySpec) ([]ecstypes.EntityID, error) {
	const op = "ecscommand.Spawn"
	if err := gate(sc, op, false); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, nil
	}

	ids := make([]ecstypes.EntityID, len(specs))
	batchIDs := make(map[ecstypes.EntityID]struct{}, len(specs))
	for i, spec := range specs {
		id := spec.ID
		if id == "" {
			id = ecstypes.EntityID(uuid.NewString())
		}
		if _, dup := batchIDs[id]; dup {
			return nil, ecserrors.New(ecserrors.ArgumentShape, op, "duplicate entity id within one spawn batch")
		}
		batchIDs[id] = struct{}{}
		ids[i] = id
	}

	touched := []ecstypes.Kind{ecstypes.ChildrenKind, ecstypes.ParentsKind}
	checks := make([]func() error, 0, len(specs))
	for i := range specs {
		i := i
		for _, cs := range specs[i].Components {
			touched = append(touched, cs.Kind)
		}
		checks = append(checks, func() error {
			return e.validateSpawnSpec(op, ids[i], specs[i], batchIDs)
		})
	}
	if err := checkLocks(sc, op, touched...); err != nil {
		recordOutcome("spawn", err)
		return nil, err
	}
	if err := validateConcurrently(checks...); err != nil {
		recordOutcome("spawn", err)
		return nil, err
	}

	// relInserts holds the Children/Parents row each spawned entity will
	// get; it starts from each spec's own declared relationships and is
	// then mutated in place as sibling specs in the same batch mirror
	// their own relationships back onto it (so in-batch cross-references
	// land in the Insert batch, not a separate Update).
	relInserts := make(map[ecsstore.ComponentKey]ecsstore.ComponentWrite, 2*len(specs))
	mirrorUpdates := make(map[ecsstore.ComponentKey]ecsstore.ComponentWrite)
	userInserts := make([]ecsstore.ComponentWrite, 0, len(specs))

	for i, spec := range specs {
		id := ids[i]
		relInserts[ecsstore.ComponentKey{Entity: id, Kind: ecstypes.ChildrenKind}] =
			ecsstore.ComponentWrite{Entity: id, Kind: ecstypes.ChildrenKind, Payload: ecstypes.Children{Entities: append([]ecstypes.EntityID(nil), spec.Children...)}}
		relInserts[ecsstore.ComponentKey{Entity: id, Kind: ecstypes.ParentsKind}] =
			ecsstore.ComponentWrite{Entity: id, Kind: ecstypes.ParentsKind, Payload: ecstypes.Parents{Entities: append([]ecstypes.EntityID(nil), spec.Parents...)}}
		for _, cs := range spec.Components {
			userInserts = append(userInserts, ecsstore.ComponentWrite{
				Entity:  id,
				Kind:    cs.Kind,
				Tags:    ecstypes.MergeTags(cs.Kind, cs.Tags...),
				Payload: cs.Payload,
			})
		}
	}

	for i, spec := range specs {
		id := ids[i]
		for _, childID := range spec.Children {
			e.mirrorRelationship(relInserts, mirrorUpdates, batchIDs, childID, ecstypes.ParentsKind, id)
		}
		for _, parentID := range spec.Parents {
			e.mirrorRelationship(relInserts, mirrorUpdates, batchIDs, parentID, ecstypes.ChildrenKind, id)
		}
	}

	inserts := make([]ecsstore.ComponentWrite, 0, len(relInserts)+len(userInserts))
	for _, w := range relInserts {
		inserts = append(inserts, w)
	}
	inserts = append(inserts, userInserts...)

	updates := make([]ecsstore.ComponentWrite, 0, len(mirrorUpdates))
	for _, w := range mirrorUpdates {
		updates = append(updates, w)
	}

	if err := e.store.Insert(inserts); err != nil {
		recordOutcome("spawn", err)
		return nil, err
	}
	if err := e.store.Update(updates); err != nil {
		recordOutcome("spawn", err)
		return nil, err
	}

	for i, spec := range specs {
		id := ids[i]
		e.emitComponentCreated(id, ecstypes.ChildrenKind)
		e.emitComponentCreated(id, ecstypes.ParentsKind)
		for _, cs := range spec.Components {
			e.emitComponentCreated(id, cs.Kind)
		}
	}
	for key := range mirrorUpdates {
		e.emitComponentUpdated(key.Entity, key.Kind)
	}

	recordOutcome("spawn", nil)
	return ids, nil
}

func (e *Executor) validateSpawnSpec(op string, id ecstypes.EntityID, spec EntitySpec, batchIDs map[ecstypes.EntityID]struct{}) error {
	if len(spec.Components) == 0 && len(spec.Children) == 0 && len(spec.Parents) == 0 {
		return ecserrors.New(ecserrors.ArgumentShape, op, "spawning with no components, children, or parents is rejected")
	}
	for _, cs := range spec.Components {
		if cs.Kind == ecstypes.ChildrenKind || cs.Kind == ecstypes.ParentsKind {
			return ecserrors.New(ecserrors.ArgumentShape, op, "Children/Parents may not be set as a plain component spec")
		}
		if err := cs.Kind.Validate(cs.Payload); err != nil {
			return ecserrors.Wrap(ecserrors.InvalidPayload, op, err)
		}
	}
	if err := e.validateRelationshipRefs(op, id, spec.Children, batchIDs); err != nil {
		return err
	}
	return e.validateRelationshipRefs(op, id, spec.Parents, batchIDs)
}

func (e *Executor) validateRelationshipRefs(op string, self ecstypes.EntityID, refs []ecstypes.EntityID, batchIDs map[ecstypes.EntityID]struct{}) error {
	for _, ref := range refs {
		if ref == "" {
			return ecserrors.New(ecserrors.ArgumentShape, op, "non-entity in relationship list")
		}
		if ref == self {
			continue
		}
		if _, inBatch := batchIDs[ref]; inBatch {
			continue
		}
		if !e.store.EntityExists(ref) {
			return ecserrors.New(ecserrors.NotFound, op, "referenced entity does not exist")
		}
	}
	return nil
}

// mirrorRelationship folds add into entity's kind-side relationship
// list. If entity is being spawned in this same batch the merged
// result is re-staged into relInserts (so it lands in the Insert
// commit); otherwise it is staged into mirrorUpdates, reading the
// current value from there if already touched this commit or from the
// live Store otherwise.
func (e *Executor) mirrorRelationship(relInserts, mirrorUpdates map[ecsstore.ComponentKey]ecsstore.ComponentWrite, batchIDs map[ecstypes.EntityID]struct{}, entity ecstypes.EntityID, kind ecstypes.Kind, add ecstypes.EntityID) {
	key := ecsstore.ComponentKey{Entity: entity, Kind: kind}
	if _, inBatch := batchIDs[entity]; inBatch {
		w := relInserts[key]
		ids := ecstypes.UpsertEntity(relationshipEntities(kind, w.Payload), add)
		relInserts[key] = ecsstore.ComponentWrite{Entity: entity, Kind: kind, Payload: relationshipPayload(kind, ids)}
		return
	}
	ids := e.relationshipIDs(mirrorUpdates, key)
	ids = ecstypes.UpsertEntity(ids, add)
	mirrorUpdates[key] = ecsstore.ComponentWrite{Entity: entity, Kind: kind, Payload: relationshipPayload(kind, ids)}
}

func (e *Executor) relationshipIDs(acc map[ecsstore.ComponentKey]ecsstore.ComponentWrite, key ecsstore.ComponentKey) []ecstypes.EntityID {
	if w, ok := acc[key]; ok {
		return relationshipEntities(key.Kind, w.Payload)
	}
	if row, ok := e.store.GetComponent(key.Entity, key.Kind); ok {
		return relationshipEntities(key.Kind, row.Payload)
	}
	return nil
}

func relationshipEntities(kind ecstypes.Kind, payload any) []ecstypes.EntityID {
	if payload == nil {
		return nil
	}
	switch kind {
	case ecstypes.ChildrenKind:
		return payload.(ecstypes.Children).Entities
	case ecstypes.ParentsKind:
		return payload.(ecstypes.Parents).Entities
	default:
		return nil
	}
}

func relationshipPayload(kind ecstypes.Kind, ids []ecstypes.EntityID) any {
	switch kind {
	case ecstypes.ChildrenKind:
		return ecstypes.Children{Entities: ids}
	case ecstypes.ParentsKind:
		return ecstypes.Parents{Entities: ids}
	default:
		return nil
	}
}
