// Package integration_test exercises the six end-to-end scenarios
// through public APIs only: scenarios 2, 3 and 6 run as scheduled work
// on a real Scheduler, while 1, 4 and 5 call ecscommand and ecsquery
// directly.
package integration_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecspanse-go/ecspanse/pkg/ecscommand"
	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecsquery"
	"github.com/ecspanse-go/ecspanse/pkg/ecssetup"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstate"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

type position struct{ X, Y int }
type energy struct{ Current, Max int }
type moveHero struct{ Direction string }

var (
	positionKind = ecstypes.Register[position](ecstypes.Component, "e2e:position")
	energyKind   = ecstypes.Register[energy](ecstypes.Component, "e2e:energy")
	moveHeroKind = ecstypes.Register[moveHero](ecstypes.EventKind, "e2e:move_hero")
)

func setupCtx(name string) ecscontext.SystemContext {
	return ecscontext.SystemContext{SystemName: name, Mode: ecscontext.Sync}
}

// Scenario 1: spawn then query.
func TestSpawnThenQuery(t *testing.T) {
	store := ecsstore.New()
	exec := ecscommand.New(store)

	ids, err := exec.Spawn(setupCtx("setup"), ecscommand.EntitySpec{
		Components: []ecscommand.ComponentSpec{
			{Kind: positionKind, Payload: position{X: 0, Y: 0}},
			{Kind: energyKind, Payload: energy{Current: 50, Max: 100}},
		},
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	ch, err := ecsquery.New(store).WithEntity().Select(positionKind, energyKind).All().Stream()
	require.NoError(t, err)

	var tuples []ecsquery.Tuple
	for tup := range ch {
		tuples = append(tuples, tup)
	}
	require.Len(t, tuples, 1)
	assert.Equal(t, ids[0], tuples[0].Entity)
	pos, _ := tuples[0].Get(1)
	en, _ := tuples[0].Get(2)
	assert.Equal(t, position{X: 0, Y: 0}, pos)
	assert.Equal(t, energy{Current: 50, Max: 100}, en)
}

// Scenario 2: two async systems locking the same component never run
// in the same batch, verified by never observing concurrent overlap
// across a few dozen real frames.
func TestLockedSystemsNeverOverlap(t *testing.T) {
	store := ecsstore.New()
	b := ecssetup.NewBuilder(store).WithFPS(500)

	var inCriticalSection int32
	var overlapDetected int32
	guardedWork := func(ecscontext.SystemContext) error {
		if !atomic.CompareAndSwapInt32(&inCriticalSection, 0, 1) {
			atomic.StoreInt32(&overlapDetected, 1)
			return nil
		}
		time.Sleep(time.Millisecond)
		atomic.StoreInt32(&inCriticalSection, 0)
		return nil
	}
	b.AddSystem("mover_a", guardedWork, ecssetup.WithLocked(ecscontext.LockedType{Kind: positionKind}))
	b.AddSystem("mover_b", guardedWork, ecssetup.WithLocked(ecscontext.LockedType{Kind: positionKind}))

	sched := b.Build()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Run(ctx)
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	assert.EqualValues(t, 0, atomic.LoadInt32(&overlapDetected))
	assert.Greater(t, sched.Frame(), uint64(0))
}

// Scenario 3: an event enqueued at frame N is observed by a subscribed
// system exactly once, at frame N+1, and never again.
func TestEventDeliveredExactlyOneFrameLater(t *testing.T) {
	store := ecsstore.New()
	b := ecssetup.NewBuilder(store).WithFPS(500)

	var mu sync.Mutex
	var deliveries []uint64

	b.AddFrameStartSystem("emit_once", onceAtFrame(store, 2))
	b.AddEventSystem("watcher", []ecstypes.Kind{moveHeroKind}, func(sc ecscontext.SystemContext, _ ecsstore.EventRecord) error {
		mu.Lock()
		deliveries = append(deliveries, sc.Frame)
		mu.Unlock()
		return nil
	}, ecssetup.WithLocked(ecscontext.LockedType{Kind: moveHeroKind}))

	sched := b.Build()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Run(ctx)
	require.Eventually(t, func() bool {
		return sched.Frame() >= 6
	}, time.Second, time.Millisecond)
	sched.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, deliveries, 1)
	assert.Equal(t, uint64(3), deliveries[0])
}

// onceAtFrame returns a FrameStart system that enqueues one MoveHero
// event the first time it observes targetFrame, and never again.
func onceAtFrame(store *ecsstore.Store, targetFrame uint64) func(ecscontext.SystemContext) error {
	var fired int32
	return func(sc ecscontext.SystemContext) error {
		if sc.Frame != targetFrame {
			return nil
		}
		if !atomic.CompareAndSwapInt32(&fired, 0, 1) {
			return nil
		}
		store.Enqueue(moveHeroKind, "hero", moveHero{Direction: "up"})
		return nil
	}
}

// Scenario 4: bidirectional parent/child relationship, and its removal
// on despawn.
func TestBidirectionalRelationshipAndDespawnRemoval(t *testing.T) {
	store := ecsstore.New()
	exec := ecscommand.New(store)
	sc := setupCtx("setup")

	ids, err := exec.Spawn(sc,
		ecscommand.EntitySpec{ID: "a", Components: []ecscommand.ComponentSpec{{Kind: positionKind, Payload: position{}}}},
		ecscommand.EntitySpec{ID: "b", Components: []ecscommand.ComponentSpec{{Kind: positionKind, Payload: position{}}}},
	)
	require.NoError(t, err)
	require.ElementsMatch(t, []ecstypes.EntityID{"a", "b"}, ids)

	require.NoError(t, exec.AddChildren(sc, "a", "b"))

	parents, err := ecsquery.Parents(store, "b")
	require.NoError(t, err)
	assert.Equal(t, []ecstypes.EntityID{"a"}, parents)

	children, err := ecsquery.Children(store, "a")
	require.NoError(t, err)
	assert.Contains(t, children, ecstypes.EntityID("b"))

	require.NoError(t, exec.Despawn(sc, "a"))

	parents, err = ecsquery.Parents(store, "b")
	require.NoError(t, err)
	assert.NotContains(t, parents, ecstypes.EntityID("a"))
}

// Scenario 5: despawning an entity and its descendants leaves none of
// them live.
func TestDespawnCascadeRemovesDescendants(t *testing.T) {
	store := ecsstore.New()
	exec := ecscommand.New(store)
	sc := setupCtx("setup")

	_, err := exec.Spawn(sc,
		ecscommand.EntitySpec{ID: "a", Components: []ecscommand.ComponentSpec{{Kind: positionKind, Payload: position{}}}},
		ecscommand.EntitySpec{ID: "b", Components: []ecscommand.ComponentSpec{{Kind: positionKind, Payload: position{}}}, Parents: []ecstypes.EntityID{"a"}},
		ecscommand.EntitySpec{ID: "c", Components: []ecscommand.ComponentSpec{{Kind: positionKind, Payload: position{}}}, Parents: []ecstypes.EntityID{"b"}},
	)
	require.NoError(t, err)

	require.NoError(t, exec.DespawnCascade(sc, "a"))

	assert.False(t, store.EntityExists("a"))
	assert.False(t, store.EntityExists("b"))
	assert.False(t, store.EntityExists("c"))
}

// Scenario 6: a state transition requested in a FrameEnd system takes
// effect for the *next* frame, not the one that requested it.
func TestStateGateDefersToNextFrame(t *testing.T) {
	type phase string
	const (
		running phase = "running"
		paused  phase = "paused"
	)

	store := ecsstore.New()
	b := ecssetup.NewBuilder(store).WithFPS(500)
	machine := ecsstate.NewMachine("e2e:phase", []phase{running, paused}, running)
	ecssetup.InitState(b, machine)

	var mu sync.Mutex
	var pausedRuns []uint64

	b.AddFrameEndSystem("pause_at_three", func(sc ecscontext.SystemContext) error {
		if sc.Frame == 3 {
			return ecsstate.SetState(sc, store, machine, paused)
		}
		return nil
	})
	b.AddFrameStartSystem("only_while_paused", func(sc ecscontext.SystemContext) error {
		mu.Lock()
		pausedRuns = append(pausedRuns, sc.Frame)
		mu.Unlock()
		return nil
	}, ecssetup.WithRunConditions(ecssetup.RunInState("e2e:phase", paused)))

	sched := b.Build()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Run(ctx)
	require.Eventually(t, func() bool {
		return sched.Frame() >= 6
	}, time.Second, time.Millisecond)
	sched.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, pausedRuns)
	assert.NotContains(t, pausedRuns, uint64(3))
	for _, f := range pausedRuns {
		assert.GreaterOrEqual(t, f, uint64(4))
	}
}
