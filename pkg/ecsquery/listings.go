package ecsquery

import (
	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// FetchComponent returns entity's live payload for kind, or NotFound.
func FetchComponent(store *ecsstore.Store, entity ecstypes.EntityID, kind ecstypes.Kind) (any, error) {
	if entity == "" {
		return nil, ecserrors.New(ecserrors.ArgumentShape, "ecsquery.FetchComponent", "non-entity argument")
	}
	row, ok := store.GetComponent(entity, kind)
	if !ok {
		return nil, ecserrors.New(ecserrors.NotFound, "ecsquery.FetchComponent", "component not found")
	}
	return row.Payload, nil
}

// FetchComponents returns entity's live payloads for each of kinds, in
// order; a missing component yields NotFound for the whole call.
func FetchComponents(store *ecsstore.Store, entity ecstypes.EntityID, kinds []ecstypes.Kind) ([]any, error) {
	if entity == "" {
		return nil, ecserrors.New(ecserrors.ArgumentShape, "ecsquery.FetchComponents", "non-entity argument")
	}
	if len(kinds) == 0 {
		return nil, nil
	}
	out := make([]any, 0, len(kinds))
	for _, k := range kinds {
		row, ok := store.GetComponent(entity, k)
		if !ok {
			return nil, ecserrors.New(ecserrors.NotFound, "ecsquery.FetchComponents", "component not found")
		}
		out = append(out, row.Payload)
	}
	return out, nil
}

// ListComponents returns every component payload currently live on
// entity, excluding the distinguished Children/Parents relationship
// components (spec §4.2).
func ListComponents(store *ecsstore.Store, entity ecstypes.EntityID) ([]any, error) {
	if entity == "" {
		return nil, ecserrors.New(ecserrors.ArgumentShape, "ecsquery.ListComponents", "non-entity argument")
	}
	kinds := store.KindsForEntity(entity)
	out := make([]any, 0, len(kinds))
	for _, k := range kinds {
		if k == ecstypes.ChildrenKind || k == ecstypes.ParentsKind {
			continue
		}
		row, ok := store.GetComponent(entity, k)
		if !ok {
			continue
		}
		out = append(out, row.Payload)
	}
	return out, nil
}

// HasComponent reports whether entity currently carries kind.
func HasComponent(store *ecsstore.Store, entity ecstypes.EntityID, kind ecstypes.Kind) bool {
	return store.HasComponent(entity, kind)
}

// HasComponents reports whether entity currently carries every kind given.
func HasComponents(store *ecsstore.Store, entity ecstypes.EntityID, kinds []ecstypes.Kind) bool {
	for _, k := range kinds {
		if !store.HasComponent(entity, k) {
			return false
		}
	}
	return true
}

// TaggedComponents returns the entity id of every component across the
// whole Store carrying the full given tag set (AND semantics); an
// entity appears once per matching component.
func TaggedComponents(store *ecsstore.Store, tags []string) ([]ecstypes.EntityID, error) {
	if len(tags) == 0 {
		return nil, ecserrors.New(ecserrors.ArgumentShape, "ecsquery.TaggedComponents", "empty tag set")
	}
	matches := intersectTagSets(store, tags)
	out := make([]ecstypes.EntityID, 0, len(matches))
	for key := range matches {
		out = append(out, key.Entity)
	}
	return out, nil
}

// TaggedComponentsForEntity lists entity's own components carrying the
// full given tag set.
func TaggedComponentsForEntity(store *ecsstore.Store, entity ecstypes.EntityID, tags []string) ([]ecstypes.Kind, error) {
	if entity == "" {
		return nil, ecserrors.New(ecserrors.ArgumentShape, "ecsquery.TaggedComponentsForEntity", "non-entity argument")
	}
	if len(tags) == 0 {
		return nil, ecserrors.New(ecserrors.ArgumentShape, "ecsquery.TaggedComponentsForEntity", "empty tag set")
	}
	matches := intersectTagSets(store, tags)
	out := make([]ecstypes.Kind, 0)
	for key := range matches {
		if key.Entity == entity {
			out = append(out, key.Kind)
		}
	}
	return out, nil
}

func intersectTagSets(store *ecsstore.Store, tags []string) map[ecsstore.ComponentKey]struct{} {
	first := true
	var acc map[ecsstore.ComponentKey]struct{}
	for _, tag := range tags {
		set := make(map[ecsstore.ComponentKey]struct{})
		for _, key := range store.EntitiesWithTag(tag) {
			set[key] = struct{}{}
		}
		if first {
			acc = set
			first = false
			continue
		}
		for key := range acc {
			if _, ok := set[key]; !ok {
				delete(acc, key)
			}
		}
	}
	if acc == nil {
		return map[ecsstore.ComponentKey]struct{}{}
	}
	return acc
}

// taggedAmong restricts a tag match to a relationship-derived entity set.
func taggedAmong(store *ecsstore.Store, tags []string, among []ecstypes.EntityID) []ecstypes.EntityID {
	matches := intersectTagSets(store, tags)
	set := make(map[ecstypes.EntityID]struct{})
	for key := range matches {
		set[key.Entity] = struct{}{}
	}
	out := make([]ecstypes.EntityID, 0)
	for _, e := range among {
		if _, ok := set[e]; ok {
			out = append(out, e)
		}
	}
	return out
}

// TaggedChildrenOf lists the direct children of parent carrying tags.
func TaggedChildrenOf(store *ecsstore.Store, parent ecstypes.EntityID, tags []string) ([]ecstypes.EntityID, error) {
	kids, err := Children(store, parent)
	if err != nil {
		return nil, err
	}
	return taggedAmong(store, tags, kids), nil
}

// TaggedDescendantsOf lists the transitive descendants of root carrying tags.
func TaggedDescendantsOf(store *ecsstore.Store, root ecstypes.EntityID, tags []string) ([]ecstypes.EntityID, error) {
	desc, err := Descendants(store, root)
	if err != nil {
		return nil, err
	}
	return taggedAmong(store, tags, desc), nil
}

// TaggedParentsOf lists the direct parents of child carrying tags.
func TaggedParentsOf(store *ecsstore.Store, child ecstypes.EntityID, tags []string) ([]ecstypes.EntityID, error) {
	parents, err := Parents(store, child)
	if err != nil {
		return nil, err
	}
	return taggedAmong(store, tags, parents), nil
}

// TaggedAncestorsOf lists the transitive ancestors of descendant carrying tags.
func TaggedAncestorsOf(store *ecsstore.Store, descendant ecstypes.EntityID, tags []string) ([]ecstypes.EntityID, error) {
	anc, err := Ancestors(store, descendant)
	if err != nil {
		return nil, err
	}
	return taggedAmong(store, tags, anc), nil
}
