package ecssnapshot

import (
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// PruneDanglingReferences discovers and removes Children/Parents
// entries whose referenced entity is not live in store — the helper
// spec §6 requires for a partial Restore (a snapshot file that lacks
// some referenced entities, or a restore targeting a store that already
// held unrelated state). It returns every referent entity id it
// removed, in no particular order, possibly with duplicates if the
// same dangling id appeared in more than one relationship row.
func PruneDanglingReferences(store *ecsstore.Store) []ecstypes.EntityID {
	var pruned []ecstypes.EntityID
	pruned = append(pruned, pruneRelationship(store, ecstypes.ChildrenKind, func(payload any) []ecstypes.EntityID {
		return payload.(ecstypes.Children).Entities
	}, func(ids []ecstypes.EntityID) any {
		return ecstypes.Children{Entities: ids}
	})...)
	pruned = append(pruned, pruneRelationship(store, ecstypes.ParentsKind, func(payload any) []ecstypes.EntityID {
		return payload.(ecstypes.Parents).Entities
	}, func(ids []ecstypes.EntityID) any {
		return ecstypes.Parents{Entities: ids}
	})...)
	return pruned
}

func pruneRelationship(
	store *ecsstore.Store,
	kind ecstypes.Kind,
	entitiesOf func(payload any) []ecstypes.EntityID,
	rebuild func(ids []ecstypes.EntityID) any,
) []ecstypes.EntityID {
	var pruned []ecstypes.EntityID
	var updates []ecsstore.ComponentWrite

	for _, entity := range store.EntitiesWithKind(kind) {
		row, ok := store.GetComponent(entity, kind)
		if !ok {
			continue
		}
		ids := entitiesOf(row.Payload)
		kept := make([]ecstypes.EntityID, 0, len(ids))
		changed := false
		for _, id := range ids {
			if store.EntityExists(id) {
				kept = append(kept, id)
			} else {
				changed = true
				pruned = append(pruned, id)
			}
		}
		if changed {
			updates = append(updates, ecsstore.ComponentWrite{Entity: entity, Kind: kind, Payload: rebuild(kept)})
		}
	}

	if len(updates) > 0 {
		_ = store.Update(updates)
	}
	return pruned
}
