package ecssetup

import (
	"github.com/ecspanse-go/ecspanse/pkg/ecsprojection"
	"github.com/ecspanse-go/ecspanse/pkg/ecsscheduler"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstate"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// Data is the accumulated, immutable-once-built set of registrations
// a Builder has collected. Build replays them onto a fresh Scheduler
// in the order they were added.
type Data struct {
	store        *ecsstore.Store
	fps          int
	projections  *ecsprojection.Registry
	stateModules []ecsstate.Module
	regs         []func(*ecsscheduler.Scheduler)
}

// Build constructs a Scheduler bound to Data's store/fps/projections/
// state modules and applies every accumulated registration, in
// declaration order.
func (d *Data) Build() *ecsscheduler.Scheduler {
	s := ecsscheduler.New(ecsscheduler.Config{
		Store:        d.store,
		FPS:          d.fps,
		Projections:  d.projections,
		StateModules: d.stateModules,
	})
	for _, reg := range d.regs {
		reg(s)
	}
	return s
}

// Builder is the host-facing registration DSL (spec §6): chain its
// Add* methods in the order systems should be considered for
// placement, then call Build.
type Builder struct {
	data *Data
}

// NewBuilder starts a Builder bound to store. FPS defaults to 0 (no
// pacing); call WithFPS to set a target frame rate.
func NewBuilder(store *ecsstore.Store) *Builder {
	return &Builder{data: &Data{store: store}}
}

// WithFPS sets the scheduler's target frames per second.
func (b *Builder) WithFPS(fps int) *Builder {
	b.data.fps = fps
	return b
}

// WithProjections attaches a projection registry; the scheduler awaits
// its UpdateAll once per frame as part of the frame-complete gate.
func (b *Builder) WithProjections(r *ecsprojection.Registry) *Builder {
	b.data.projections = r
	return b
}

// AddStartupSystem registers a system to run once, serially, before
// the first frame.
func (b *Builder) AddStartupSystem(name string, fn SystemFunc) *Builder {
	b.data.regs = append(b.data.regs, func(s *ecsscheduler.Scheduler) {
		s.AddStartupSystem(name, fn)
	})
	return b
}

// AddFrameStartSystem registers a system to run serially at the top of
// every frame.
func (b *Builder) AddFrameStartSystem(name string, fn SystemFunc, opts ...Option) *Builder {
	b.data.regs = append(b.data.regs, func(s *ecsscheduler.Scheduler) {
		s.AddFrameStartSystem(name, fn, opts...)
	})
	return b
}

// AddFrameEndSystem registers a system to run serially at the end of
// every frame.
func (b *Builder) AddFrameEndSystem(name string, fn SystemFunc, opts ...Option) *Builder {
	b.data.regs = append(b.data.regs, func(s *ecsscheduler.Scheduler) {
		s.AddFrameEndSystem(name, fn, opts...)
	})
	return b
}

// AddShutdownSystem registers a system to run serially, in declaration
// order, once the scheduler stops.
func (b *Builder) AddShutdownSystem(name string, fn SystemFunc) *Builder {
	b.data.regs = append(b.data.regs, func(s *ecsscheduler.Scheduler) {
		s.AddShutdownSystem(name, fn)
	})
	return b
}

// AddSystem registers a batch-phase system, placed at build time into
// the earliest lock-compatible batch strictly after every run_after
// predecessor's batch.
func (b *Builder) AddSystem(name string, fn SystemFunc, opts ...Option) *Builder {
	b.data.regs = append(b.data.regs, func(s *ecsscheduler.Scheduler) {
		s.AddSystem(name, fn, opts...)
	})
	return b
}

// AddEventSystem registers a batch-phase system invoked once per
// drained event whose Kind is in kinds.
func (b *Builder) AddEventSystem(name string, kinds []ecstypes.Kind, fn EventSystemFunc, opts ...Option) *Builder {
	b.data.regs = append(b.data.regs, func(s *ecsscheduler.Scheduler) {
		s.AddEventSystem(name, kinds, fn, opts...)
	})
	return b
}

// AddSystemSet applies fn against this same Builder, purely as a way
// to group a handful of related Add* calls under one name in the
// host's setup code; it carries no batching semantics beyond whatever
// order fn registers its systems in.
func (b *Builder) AddSystemSet(name string, fn func(*Builder)) *Builder {
	fn(b)
	return b
}

// Build assembles the accumulated Data into a running Scheduler.
func (b *Builder) Build() *ecsscheduler.Scheduler {
	return b.data.Build()
}

// InitState declares a named-state resource: m.Init seeds the store
// with its default value if unset, and m is registered so the
// scheduler's per-frame Snapshot includes it for in_state/not_in_state
// run-conditions. A free function, not a Builder method, because Go
// methods cannot carry their own type parameters.
func InitState[S comparable](b *Builder, m *ecsstate.Machine[S]) *Builder {
	m.Init(b.data.store)
	b.data.stateModules = append(b.data.stateModules, m)
	return b
}
