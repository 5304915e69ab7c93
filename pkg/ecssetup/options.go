package ecssetup

import "github.com/ecspanse-go/ecspanse/pkg/ecsscheduler"

// These aliases let a host write ecssetup.WithLocked, ecssetup.RunIf,
// and so on without a second import for every call that configures a
// system, while the types and behavior remain exactly
// pkg/ecsscheduler's.
type (
	Option          = ecsscheduler.SystemOption
	Condition       = ecsscheduler.Condition
	SystemFunc      = ecsscheduler.SystemFunc
	EventSystemFunc = ecsscheduler.EventSystemFunc
	BatchKeyFunc    = ecsscheduler.BatchKeyFunc
)

var (
	WithLocked        = ecsscheduler.WithLocked
	WithRunConditions = ecsscheduler.WithRunConditions
	WithRunAfter      = ecsscheduler.WithRunAfter
	WithBatchKey      = ecsscheduler.WithBatchKey

	RunIf         = ecsscheduler.RunIf
	RunInState    = ecsscheduler.InState
	RunNotInState = ecsscheduler.NotInState
	RunIfExpr     = ecsscheduler.RunIfExpr
)
