package ecscommand

import (
	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// UpsertResource creates or replaces the singleton value for kind,
// validating payload against kind's optional validate hook first.
// Rejected in async systems (spec §4.3 step 2).
func (e *Executor) UpsertResource(sc ecscontext.SystemContext, kind ecstypes.Kind, payload any) error {
	const op = "ecscommand.UpsertResource"
	if err := gate(sc, op, true); err != nil {
		return err
	}
	if err := kind.Validate(payload); err != nil {
		recordOutcome("upsert_resource", err)
		return err
	}

	_, existed := e.store.GetResource(kind)
	e.store.UpsertResource(kind, payload)
	if existed {
		e.emitResourceUpdated(kind)
	} else {
		e.emitResourceCreated(kind)
	}
	recordOutcome("upsert_resource", nil)
	return nil
}

// DeleteResource removes the singleton value for kind, if any.
func (e *Executor) DeleteResource(sc ecscontext.SystemContext, kind ecstypes.Kind) error {
	const op = "ecscommand.DeleteResource"
	if err := gate(sc, op, true); err != nil {
		return err
	}
	if _, ok := e.store.GetResource(kind); !ok {
		return nil
	}
	e.store.DeleteResource(kind)
	e.emitResourceDeleted(kind)
	recordOutcome("delete_resource", nil)
	return nil
}
