//go:build test || debug

package ecsscheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
)

func TestInspectReportsPhaseFrameAndBatches(t *testing.T) {
	s := New(Config{Store: ecsstore.New()})
	s.AddSystem("a", func(ecscontext.SystemContext) error { return nil }, WithLocked(ecscontext.LockedType{Kind: widgetKind}))
	s.AddSystem("b", func(ecscontext.SystemContext) error { return nil }, WithLocked(ecscontext.LockedType{Kind: widgetKind}))

	snap := s.Inspect()

	assert.Equal(t, StartupPhase, snap.Phase)
	assert.Equal(t, uint64(0), snap.Frame)
	require.Len(t, snap.Batches, 2)
	assert.Equal(t, "a", snap.Batches[0][0].Name)
	assert.Equal(t, "b", snap.Batches[1][0].Name)
}

func TestInspectReportsCachedConditionResult(t *testing.T) {
	s := New(Config{Store: ecsstore.New()})
	cond := RunIf(func() (bool, error) { return true, nil })
	s.AddSystem("a", func(ecscontext.SystemContext) error { return nil }, WithRunConditions(cond))

	ok, err := allTrue(RunConditionContext{Frame: 1}, []*Condition{cond})
	require.NoError(t, err)
	require.True(t, ok)

	snap := s.Inspect()
	require.Len(t, snap.Batches[0][0].Conditions, 1)
	cs := snap.Batches[0][0].Conditions[0]
	assert.True(t, cs.Evaluated)
	assert.True(t, cs.Result)
	assert.NoError(t, cs.Err)
}
