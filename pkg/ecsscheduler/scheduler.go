package ecsscheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecslog"
	"github.com/ecspanse-go/ecspanse/pkg/ecsmetrics"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstate"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// Phase names the scheduler's current position in the frame state
// machine (spec §4.4).
type Phase string

const (
	StartupPhase Phase = "startup"
	FrameStart   Phase = "frame_start"
	BatchPhase   Phase = "batch"
	FrameEnd     Phase = "frame_end"
	FrameIdle    Phase = "frame_idle"
	Shutdown     Phase = "shutdown"
)

// ProjectionUpdater is implemented by pkg/ecsprojection's registry; the
// scheduler awaits one call to UpdateAll per frame as part of the
// frame-complete gate (step 4/8), without depending on ecsprojection's
// package directly.
type ProjectionUpdater interface {
	UpdateAll(ctx context.Context, frame uint64)
}

// Scheduler runs the frame loop against a Store. Construct with New,
// register systems, then call Run.
type Scheduler struct {
	store       *ecsstore.Store
	fps         int
	projections ProjectionUpdater
	stateMods   []ecsstate.Module

	mu               sync.Mutex
	startup          []*registeredSystem
	frameStart       []*registeredSystem
	batches          [][]*registeredSystem
	frameEnd         []*registeredSystem
	shutdownSystems  []*registeredSystem
	batchIndexByName map[string]int

	frame uint64
	phase Phase

	stopCh chan struct{}
	doneCh chan struct{}
}

// Config configures a new Scheduler.
type Config struct {
	Store        *ecsstore.Store
	FPS          int // target frames per second; 0 means "no fps deadline, run flat out"
	Projections  ProjectionUpdater
	StateModules []ecsstate.Module
}

// New constructs a Scheduler bound to store, ready to accept system
// registrations.
func New(cfg Config) *Scheduler {
	return &Scheduler{
		store:            cfg.Store,
		fps:              cfg.FPS,
		projections:      cfg.Projections,
		stateMods:        cfg.StateModules,
		batchIndexByName: make(map[string]int),
		phase:            StartupPhase,
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
}

// AddStartupSystem registers fn to run once, serially, before the
// first frame, in declaration order.
func (s *Scheduler) AddStartupSystem(name string, fn SystemFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startup = append(s.startup, &registeredSystem{name: name, fn: fn})
}

// AddFrameStartSystem registers fn to run serially at the top of every
// frame (step 5), skipped if any of opts' run-conditions is false.
func (s *Scheduler) AddFrameStartSystem(name string, fn SystemFunc, opts ...SystemOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameStart = append(s.frameStart, buildSystem(name, fn, opts))
}

// AddFrameEndSystem registers fn to run serially at the end of every
// frame (step 7), same gating as FrameStart.
func (s *Scheduler) AddFrameEndSystem(name string, fn SystemFunc, opts ...SystemOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameEnd = append(s.frameEnd, buildSystem(name, fn, opts))
}

// AddShutdownSystem registers fn to run serially, in declaration
// order, once the scheduler reaches Shutdown.
func (s *Scheduler) AddShutdownSystem(name string, fn SystemFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownSystems = append(s.shutdownSystems, &registeredSystem{name: name, fn: fn})
}

// AddSystem registers a batch-phase system (step 6), placed into the
// earliest lock-compatible batch strictly after every run_after
// predecessor's batch.
func (s *Scheduler) AddSystem(name string, fn SystemFunc, opts ...SystemOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := buildSystem(name, fn, opts)
	s.placeBatchSystem(rs)
}

// AddEventSystem registers a batch-phase, event-subscribed system: its
// fn runs once per drained event whose Kind is in kinds, within
// whichever batch this system was placed into by the same rules as
// AddSystem.
func (s *Scheduler) AddEventSystem(name string, kinds []ecstypes.Kind, fn EventSystemFunc, opts ...SystemOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := buildSystem(name, nil, opts)
	rs.eventFn = fn
	rs.eventKinds = kinds
	s.placeBatchSystem(rs)
}

func buildSystem(name string, fn SystemFunc, opts []SystemOption) *registeredSystem {
	rs := &registeredSystem{name: name, fn: fn}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Phase reports the scheduler's current position in the frame state
// machine.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Frame reports the number of the frame currently running or about to
// run.
func (s *Scheduler) Frame() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Run drives the frame loop until Stop is called or ctx is canceled,
// then runs shutdown systems and returns. Call once, typically from
// the host's main goroutine or a dedicated one.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.doneCh)

	s.runSerially(ecscontext.SystemContext{Mode: ecscontext.Sync}, s.startup)
	s.setPhase(FrameIdle)

	var lastFrameStart time.Time
	for {
		select {
		case <-s.stopCh:
			s.runShutdown()
			return
		case <-ctx.Done():
			s.runShutdown()
			return
		default:
		}

		frameDeadline := s.startFrameDeadline()
		s.runFrame(ctx, &lastFrameStart)
		<-frameDeadline
	}
}

func (s *Scheduler) runShutdown() {
	s.setPhase(Shutdown)
	s.runSerially(ecscontext.SystemContext{Mode: ecscontext.Sync}, s.shutdownSystems)
}

// Stop signals the frame loop to finish its current frame, run
// shutdown systems, and return. Safe to call once.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// startFrameDeadline returns a channel that fires once this frame's
// fps budget has elapsed, enforcing step 8's fps limit. With FPS <= 0
// it fires immediately (no pacing).
func (s *Scheduler) startFrameDeadline() <-chan time.Time {
	if s.fps <= 0 {
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return time.After(time.Second / time.Duration(s.fps))
}

func (s *Scheduler) runFrame(ctx context.Context, lastFrameStart *time.Time) {
	timer := ecsmetrics.NewTimer()
	defer func() {
		elapsed := timer.ObserveDuration(ecsmetrics.FrameDuration)
		ecsmetrics.FramesTotal.Inc()
		if s.fps > 0 && elapsed > time.Second/time.Duration(s.fps) {
			ecsmetrics.FrameOverrunTotal.Inc()
		}
	}()

	s.mu.Lock()
	s.frame++
	frame := s.frame
	s.mu.Unlock()

	*lastFrameStart = time.Now()

	s.setPhase(FrameStart)

	records := s.store.DrainEvents()
	groups := groupEvents(records)

	snapshot := ecsstate.TakeSnapshot(s.store, s.stateMods...)
	rc := RunConditionContext{Frame: frame, Snapshot: snapshot}

	// Step 3: evaluate every run-condition referenced by a registered
	// system once, before any system runs; each *Condition caches the
	// result, so every system this frame reads the same value.
	for _, group := range append([][]*registeredSystem{s.frameStart, s.frameEnd}, s.batches...) {
		for _, rs := range group {
			for _, c := range rs.conditions {
				_, _ = c.resultFor(rc)
			}
		}
	}

	var projWG sync.WaitGroup
	if s.projections != nil {
		projWG.Add(1)
		go func() {
			defer projWG.Done()
			s.projections.UpdateAll(ctx, frame)
		}()
	}

	s.runSerially(ecscontext.SystemContext{Mode: ecscontext.Sync, Frame: frame}, s.frameStart, rc)

	s.setPhase(BatchPhase)
	ecsmetrics.BatchCount.Set(float64(len(s.batches)))
	for i, batch := range s.batches {
		s.runBatch(i, batch, rc, groups)
	}

	s.setPhase(FrameEnd)
	s.runSerially(ecscontext.SystemContext{Mode: ecscontext.Sync, Frame: frame}, s.frameEnd, rc)

	projWG.Wait()
	s.setPhase(FrameIdle)
}

func (s *Scheduler) runBatch(index int, batch []*registeredSystem, rc RunConditionContext, groups [][]ecsstore.EventRecord) {
	batchTimer := ecsmetrics.NewTimer()
	defer func() {
		batchTimer.ObserveDuration(ecsmetrics.BatchDuration.WithLabelValues(strconv.Itoa(index)))
	}()

	var wg sync.WaitGroup
	for _, rs := range batch {
		if rs.isEventSubscribed() {
			continue
		}
		rs := rs
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runOne(ecscontext.SystemContext{
				SystemName: rs.name,
				Mode:       ecscontext.Async,
				Locked:     rs.locked,
				Frame:      rc.Frame,
			}, rs, rc)
		}()
	}
	wg.Wait()

	for _, group := range groups {
		s.dispatchEventSystems(batch, group, rc)
	}
}

// runSerially runs systems one at a time, in declaration order,
// skipping any whose run-conditions aren't all true. rc is optional
// (startup/shutdown systems have no run-conditions).
func (s *Scheduler) runSerially(base ecscontext.SystemContext, systems []*registeredSystem, rc ...RunConditionContext) {
	var ctx RunConditionContext
	if len(rc) > 0 {
		ctx = rc[0]
	}
	for _, rs := range systems {
		sc := base
		sc.SystemName = rs.name
		sc.Locked = rs.locked
		s.runOne(sc, rs, ctx)
	}
}

func (s *Scheduler) runOne(sc ecscontext.SystemContext, rs *registeredSystem, rc RunConditionContext) {
	ok, err := allTrue(rc, rs.conditions)
	if err != nil {
		ecslog.WithSystem(rs.name).Error().Err(err).Msg("run-condition evaluation failed, skipping")
		return
	}
	if !ok {
		ecsmetrics.SystemsSkippedTotal.Inc()
		return
	}
	if rs.fn == nil {
		return
	}
	if err := rs.fn(sc); err != nil {
		ecsmetrics.SystemErrorsTotal.WithLabelValues(rs.name).Inc()
		ecslog.WithSystem(rs.name).Error().Err(err).Msg("system returned error")
	}
}
