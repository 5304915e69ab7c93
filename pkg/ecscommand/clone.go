package ecscommand

import (
	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsquery"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
	"github.com/google/uuid"
)

// userComponents returns every non-relationship component payload and
// tag set currently live on entity.
func (e *Executor) userComponents(entity ecstypes.EntityID) []ComponentSpec {
	kinds := e.store.KindsForEntity(entity)
	specs := make([]ComponentSpec, 0, len(kinds))
	for _, k := range kinds {
		if k == ecstypes.ChildrenKind || k == ecstypes.ParentsKind {
			continue
		}
		row, ok := e.store.GetComponent(entity, k)
		if !ok {
			continue
		}
		tags := make([]string, 0, len(row.Tags))
		for t := range row.Tags {
			tags = append(tags, t)
		}
		specs = append(specs, ComponentSpec{Kind: k, Tags: tags, Payload: row.Payload})
	}
	return specs
}

// CloneShallow creates a new entity carrying copies of source's user
// components and their tags; relationships are not copied (spec §4.3
// tie-break).
func (e *Executor) CloneShallow(sc ecscontext.SystemContext, source ecstypes.EntityID) (ecstypes.EntityID, error) {
	const op = "ecscommand.CloneShallow"
	if err := requireEntity(e.store, op, source); err != nil {
		return "", err
	}
	specs := e.userComponents(source)
	if len(specs) == 0 {
		return "", ecserrors.New(ecserrors.ArgumentShape, op, "source entity has no user components to clone")
	}

	ids, err := e.Spawn(sc, EntitySpec{Components: specs})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// CloneDeep recursively clones source and every transitive descendant
// in one commit, remapping Children/Parents edges to the new ids.
// A descendant's parent outside the cloned subtree is neither cloned
// nor linked (spec §4.3 tie-break).
func (e *Executor) CloneDeep(sc ecscontext.SystemContext, source ecstypes.EntityID) (ecstypes.EntityID, error) {
	const op = "ecscommand.CloneDeep"
	if err := requireEntity(e.store, op, source); err != nil {
		return "", err
	}

	subtree := []ecstypes.EntityID{source}
	desc, err := ecsquery.Descendants(e.store, source)
	if err != nil {
		return "", err
	}
	subtree = append(subtree, desc...)

	idMap := make(map[ecstypes.EntityID]ecstypes.EntityID, len(subtree))
	for _, old := range subtree {
		idMap[old] = ecstypes.EntityID(uuid.NewString())
	}

	specs := make([]EntitySpec, 0, len(subtree))
	for _, old := range subtree {
		children, err := ecsquery.Children(e.store, old)
		if err != nil {
			return "", err
		}
		parents, err := ecsquery.Parents(e.store, old)
		if err != nil {
			return "", err
		}
		specs = append(specs, EntitySpec{
			ID:         idMap[old],
			Components: e.userComponents(old),
			Children:   remapWithinSubtree(children, idMap),
			Parents:    remapWithinSubtree(parents, idMap),
		})
	}

	if _, err := e.Spawn(sc, specs...); err != nil {
		return "", err
	}
	return idMap[source], nil
}

func remapWithinSubtree(ids []ecstypes.EntityID, idMap map[ecstypes.EntityID]ecstypes.EntityID) []ecstypes.EntityID {
	out := make([]ecstypes.EntityID, 0, len(ids))
	for _, id := range ids {
		if mapped, ok := idMap[id]; ok {
			out = append(out, mapped)
		}
	}
	return out
}
