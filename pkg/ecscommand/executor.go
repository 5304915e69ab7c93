package ecscommand

import (
	"sync"

	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecslog"
	"github.com/ecspanse-go/ecspanse/pkg/ecsmetrics"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// Executor is the engine's Command executor: the only writer of a
// *ecsstore.Store. Grounded on manager.WarrenFSM (pkg/manager/fsm.go),
// which likewise is the sole writer of its storage.Store.
type Executor struct {
	store *ecsstore.Store
}

// New builds an Executor over store.
func New(store *ecsstore.Store) *Executor {
	return &Executor{store: store}
}

// gate enforces spec §4.3's "caller whose ambient context marks it as
// inside a system" rule, and spec §4.3 step 2's resource-CUD-rejected-
// in-async-systems rule when resourceOp is true.
func gate(sc ecscontext.SystemContext, op string, resourceOp bool) error {
	if sc.SystemName == "" {
		return ecserrors.New(ecserrors.MustRunInSystem, op, "commands may only be issued from inside a system")
	}
	if resourceOp && sc.Mode == ecscontext.Async {
		return ecserrors.New(ecserrors.WrongPhase, op, "resource create/update/delete is rejected in async systems")
	}
	return nil
}

// validateConcurrently runs each check in checks on its own goroutine
// and returns the first error encountered, if any, without short-
// circuiting the others: spec §4.3 step 2 ("all validations
// concurrently"). Grounded on the worker-fan-out shape in
// infrastructure/service/healthcheck.go, generalized from "one
// goroutine per health check" to "one goroutine per validation".
func validateConcurrently(checks ...func() error) error {
	if len(checks) == 0 {
		return nil
	}
	var wg sync.WaitGroup
	errs := make([]error, len(checks))
	wg.Add(len(checks))
	for i, check := range checks {
		go func(i int, check func() error) {
			defer wg.Done()
			errs[i] = check()
		}(i, check)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// checkLocks enforces spec §4.3 step 2's locking rule: async systems
// must declare every component kind they touch among locked_components;
// sync systems are exempt, but the exemption is logged since a sync
// system ignoring locks is either deliberate (startup/frame-end work)
// or a sign the system should have been declared async.
func checkLocks(sc ecscontext.SystemContext, op string, touched ...ecstypes.Kind) error {
	if sc.Mode != ecscontext.Async {
		if len(sc.Locked) > 0 {
			ecslog.WithSystem(sc.SystemName).Debug().Msg("sync system declared locked_components; ignoring")
		}
		return nil
	}
	for _, k := range touched {
		if !sc.LocksKind(k) {
			return ecserrors.New(ecserrors.NotLocked, op, "async system touched a component kind absent from locked_components: "+k.Name())
		}
	}
	return nil
}

func requireEntity(store *ecsstore.Store, op string, entity ecstypes.EntityID) error {
	if entity == "" {
		return ecserrors.New(ecserrors.ArgumentShape, op, "non-entity argument")
	}
	if !store.EntityExists(entity) {
		return ecserrors.New(ecserrors.NotFound, op, "entity not found")
	}
	return nil
}

func recordOutcome(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ecsmetrics.CommandsTotal.WithLabelValues(op, outcome).Inc()
}
