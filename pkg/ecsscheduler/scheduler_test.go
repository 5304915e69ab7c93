package ecsscheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

type widget struct{ N int }

var widgetKind = ecstypes.Register[widget](ecstypes.Component, "schedtest:widget")
var gizmoKind = ecstypes.Register[widget](ecstypes.Component, "schedtest:gizmo")

func TestBatchPlacementGroupsDisjointLocks(t *testing.T) {
	s := New(Config{Store: ecsstore.New()})
	s.AddSystem("a", func(ecscontext.SystemContext) error { return nil }, WithLocked(ecscontext.LockedType{Kind: widgetKind}))
	s.AddSystem("b", func(ecscontext.SystemContext) error { return nil }, WithLocked(ecscontext.LockedType{Kind: gizmoKind}))

	require.Len(t, s.batches, 1)
	assert.Len(t, s.batches[0], 2)
}

func TestBatchPlacementSplitsConflictingLocks(t *testing.T) {
	s := New(Config{Store: ecsstore.New()})
	s.AddSystem("a", func(ecscontext.SystemContext) error { return nil }, WithLocked(ecscontext.LockedType{Kind: widgetKind}))
	s.AddSystem("b", func(ecscontext.SystemContext) error { return nil }, WithLocked(ecscontext.LockedType{Kind: widgetKind}))

	require.Len(t, s.batches, 2)
	assert.Len(t, s.batches[0], 1)
	assert.Len(t, s.batches[1], 1)
}

func TestRunAfterForcesStrictlyLaterBatchEvenIfLocksWouldFit(t *testing.T) {
	s := New(Config{Store: ecsstore.New()})
	s.AddSystem("a", func(ecscontext.SystemContext) error { return nil }, WithLocked(ecscontext.LockedType{Kind: widgetKind}))
	s.AddSystem("b", func(ecscontext.SystemContext) error { return nil },
		WithLocked(ecscontext.LockedType{Kind: gizmoKind}),
		WithRunAfter("a"),
	)

	require.Len(t, s.batches, 2)
	assert.Equal(t, "a", s.batches[0][0].name)
	assert.Equal(t, "b", s.batches[1][0].name)
}

func TestRunAfterUnknownPredecessorPanics(t *testing.T) {
	s := New(Config{Store: ecsstore.New()})
	assert.Panics(t, func() {
		s.AddSystem("b", func(ecscontext.SystemContext) error { return nil }, WithRunAfter("ghost"))
	})
}

func TestFrameStartAndFrameEndRunSeriallyInOrder(t *testing.T) {
	s := New(Config{Store: ecsstore.New(), FPS: 200})
	var order []string
	var mu sync.Mutex
	record := func(name string) SystemFunc {
		return func(ecscontext.SystemContext) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}
	s.AddFrameStartSystem("fs1", record("fs1"))
	s.AddFrameStartSystem("fs2", record("fs2"))
	s.AddFrameEndSystem("fe1", record("fe1"))

	var last time.Time
	s.runFrame(context.Background(), &last)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 3)
	assert.Equal(t, []string{"fs1", "fs2", "fe1"}, order)
}

func TestBatchSystemsRunConcurrently(t *testing.T) {
	s := New(Config{Store: ecsstore.New(), FPS: 200})
	var count int32
	s.AddSystem("a", func(ecscontext.SystemContext) error { atomic.AddInt32(&count, 1); return nil },
		WithLocked(ecscontext.LockedType{Kind: widgetKind}))
	s.AddSystem("b", func(ecscontext.SystemContext) error { atomic.AddInt32(&count, 1); return nil },
		WithLocked(ecscontext.LockedType{Kind: gizmoKind}))

	var last time.Time
	s.runFrame(context.Background(), &last)
	assert.EqualValues(t, 2, atomic.LoadInt32(&count))
}

func TestRunConditionSkipsSystemWhenFalse(t *testing.T) {
	s := New(Config{Store: ecsstore.New(), FPS: 200})
	var ran bool
	cond := RunIf(func() (bool, error) { return false, nil })
	s.AddFrameStartSystem("gated", func(ecscontext.SystemContext) error { ran = true; return nil }, WithRunConditions(cond))

	var last time.Time
	s.runFrame(context.Background(), &last)
	assert.False(t, ran)
}

func TestRunConditionRunsSystemWhenTrue(t *testing.T) {
	s := New(Config{Store: ecsstore.New(), FPS: 200})
	var ran bool
	cond := RunIf(func() (bool, error) { return true, nil })
	s.AddFrameStartSystem("gated", func(ecscontext.SystemContext) error { ran = true; return nil }, WithRunConditions(cond))

	var last time.Time
	s.runFrame(context.Background(), &last)
	assert.True(t, ran)
}

func TestConditionIsEvaluatedOnceThenCachedForTheFrame(t *testing.T) {
	var evalCount int32
	cond := NewCondition(func(RunConditionContext) (bool, error) {
		atomic.AddInt32(&evalCount, 1)
		return true, nil
	})

	s := New(Config{Store: ecsstore.New(), FPS: 200})
	s.AddFrameStartSystem("s1", func(ecscontext.SystemContext) error { return nil }, WithRunConditions(cond))
	s.AddFrameStartSystem("s2", func(ecscontext.SystemContext) error { return nil }, WithRunConditions(cond))

	var last time.Time
	s.runFrame(context.Background(), &last)
	assert.EqualValues(t, 1, atomic.LoadInt32(&evalCount))
}

func TestEventSubscribedSystemReceivesMatchingEvent(t *testing.T) {
	store := ecsstore.New()
	s := New(Config{Store: store, FPS: 200})

	var received []ecsstore.EventRecord
	var mu sync.Mutex
	s.AddEventSystem("watcher", []ecstypes.Kind{widgetKind}, func(sc ecscontext.SystemContext, event ecsstore.EventRecord) error {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		return nil
	}, WithLocked(ecscontext.LockedType{Kind: widgetKind}))

	store.Enqueue(widgetKind, "w1", widget{N: 1})
	store.Enqueue(gizmoKind, "g1", widget{N: 2})

	var last time.Time
	s.runFrame(context.Background(), &last)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, widgetKind, received[0].Kind)
}

func TestGroupEventsSeparatesDuplicateKeysIntoCarryOverGroups(t *testing.T) {
	now := time.Unix(0, 0)
	records := []ecsstore.EventRecord{
		{Kind: widgetKind, BatchKey: "x", Inserted: now},
		{Kind: widgetKind, BatchKey: "x", Inserted: now.Add(time.Millisecond)},
		{Kind: gizmoKind, BatchKey: "y", Inserted: now.Add(2 * time.Millisecond)},
	}
	groups := groupEvents(records)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 1)
}

func TestRunStopsAndRunsShutdownSystems(t *testing.T) {
	s := New(Config{Store: ecsstore.New(), FPS: 500})
	var shutdownRan bool
	var frameRan int32
	s.AddSystem("work", func(ecscontext.SystemContext) error { atomic.AddInt32(&frameRan, 1); return nil },
		WithLocked(ecscontext.LockedType{Kind: widgetKind}))
	s.AddShutdownSystem("cleanup", func(ecscontext.SystemContext) error { shutdownRan = true; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	s.Stop()
	<-done

	assert.True(t, shutdownRan)
	assert.Greater(t, atomic.LoadInt32(&frameRan), int32(0))
	assert.Equal(t, Shutdown, s.Phase())
}
