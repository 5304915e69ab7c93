package ecscommand

import (
	"fmt"

	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// Lifecycle event payloads, enqueued by every committing operation for
// delivery on the *next* frame (spec §4.3 step 4).
type (
	ComponentCreated struct {
		Entity ecstypes.EntityID
		Kind   ecstypes.Kind
	}
	ComponentUpdated struct {
		Entity ecstypes.EntityID
		Kind   ecstypes.Kind
	}
	ComponentDeleted struct {
		Entity ecstypes.EntityID
		Kind   ecstypes.Kind
	}
	ResourceCreated struct{ Kind ecstypes.Kind }
	ResourceUpdated struct{ Kind ecstypes.Kind }
	ResourceDeleted struct{ Kind ecstypes.Kind }
)

var (
	ComponentCreatedKind = ecstypes.Register[ComponentCreated](ecstypes.EventKind, "ecs:component_created")
	ComponentUpdatedKind = ecstypes.Register[ComponentUpdated](ecstypes.EventKind, "ecs:component_updated")
	ComponentDeletedKind = ecstypes.Register[ComponentDeleted](ecstypes.EventKind, "ecs:component_deleted")
	ResourceCreatedKind  = ecstypes.Register[ResourceCreated](ecstypes.EventKind, "ecs:resource_created")
	ResourceUpdatedKind  = ecstypes.Register[ResourceUpdated](ecstypes.EventKind, "ecs:resource_updated")
	ResourceDeletedKind  = ecstypes.Register[ResourceDeleted](ecstypes.EventKind, "ecs:resource_deleted")
)

func componentBatchKey(entity ecstypes.EntityID, kind ecstypes.Kind) string {
	return fmt.Sprintf("%s:%s", entity, kind.Name())
}

func (e *Executor) emitComponentCreated(entity ecstypes.EntityID, kind ecstypes.Kind) {
	e.store.Enqueue(ComponentCreatedKind, componentBatchKey(entity, kind), ComponentCreated{Entity: entity, Kind: kind})
}

func (e *Executor) emitComponentUpdated(entity ecstypes.EntityID, kind ecstypes.Kind) {
	e.store.Enqueue(ComponentUpdatedKind, componentBatchKey(entity, kind), ComponentUpdated{Entity: entity, Kind: kind})
}

func (e *Executor) emitComponentDeleted(entity ecstypes.EntityID, kind ecstypes.Kind) {
	e.store.Enqueue(ComponentDeletedKind, componentBatchKey(entity, kind), ComponentDeleted{Entity: entity, Kind: kind})
}

func (e *Executor) emitResourceCreated(kind ecstypes.Kind) {
	e.store.Enqueue(ResourceCreatedKind, kind.Name(), ResourceCreated{Kind: kind})
}

func (e *Executor) emitResourceUpdated(kind ecstypes.Kind) {
	e.store.Enqueue(ResourceUpdatedKind, kind.Name(), ResourceUpdated{Kind: kind})
}

func (e *Executor) emitResourceDeleted(kind ecstypes.Kind) {
	e.store.Enqueue(ResourceDeletedKind, kind.Name(), ResourceDeleted{Kind: kind})
}
