package ecsstate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstate"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
)

type matchPhase string

const (
	phaseLobby   matchPhase = "lobby"
	phasePlaying matchPhase = "playing"
	phaseEnded   matchPhase = "ended"
)

func syncCtx() ecscontext.SystemContext {
	return ecscontext.SystemContext{SystemName: "test-system", Mode: ecscontext.Sync}
}

func TestNewMachinePanicsOnUndeclaredDefault(t *testing.T) {
	assert.Panics(t, func() {
		ecsstate.NewMachine("ecsstate_test:bad_default", []matchPhase{phaseLobby, phasePlaying}, matchPhase("nope"))
	})
}

func TestGetStateReturnsDefaultAfterInit(t *testing.T) {
	store := ecsstore.New()
	m := ecsstate.NewMachine("ecsstate_test:match_phase_a", []matchPhase{phaseLobby, phasePlaying, phaseEnded}, phaseLobby)
	m.Init(store)

	got, err := ecsstate.GetState(store, m)
	require.NoError(t, err)
	assert.Equal(t, phaseLobby, got)
}

func TestGetStateNotFoundBeforeInit(t *testing.T) {
	store := ecsstore.New()
	m := ecsstate.NewMachine("ecsstate_test:match_phase_b", []matchPhase{phaseLobby, phasePlaying}, phaseLobby)

	_, err := ecsstate.GetState(store, m)
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.NotFound))
}

func TestSetStateRejectsUndeclaredValue(t *testing.T) {
	store := ecsstore.New()
	m := ecsstate.NewMachine("ecsstate_test:match_phase_c", []matchPhase{phaseLobby, phasePlaying}, phaseLobby)
	m.Init(store)

	err := ecsstate.SetState(syncCtx(), store, m, matchPhase("unknown"))
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.ArgumentShape))
}

func TestSetStateRejectedFromAsyncSystem(t *testing.T) {
	store := ecsstore.New()
	m := ecsstate.NewMachine("ecsstate_test:match_phase_d", []matchPhase{phaseLobby, phasePlaying}, phaseLobby)
	m.Init(store)

	asyncCtx := ecscontext.SystemContext{SystemName: "async-system", Mode: ecscontext.Async}
	err := ecsstate.SetState(asyncCtx, store, m, phasePlaying)
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.WrongPhase))
}

func TestSetStateTransitionsAndEmitsEvent(t *testing.T) {
	store := ecsstore.New()
	m := ecsstate.NewMachine("ecsstate_test:match_phase_e", []matchPhase{phaseLobby, phasePlaying, phaseEnded}, phaseLobby)
	m.Init(store)

	require.NoError(t, ecsstate.SetState(syncCtx(), store, m, phasePlaying))

	got, err := ecsstate.GetState(store, m)
	require.NoError(t, err)
	assert.Equal(t, phasePlaying, got)

	records := store.DrainEvents()
	require.Len(t, records, 1)
	assert.Equal(t, ecsstate.StateTransitionKind, records[0].Kind)
	transition, ok := records[0].Payload.(ecsstate.StateTransition)
	require.True(t, ok)
	assert.Equal(t, phaseLobby, transition.Previous)
	assert.Equal(t, phasePlaying, transition.Current)
}

func TestSetStateSameValueIsNoopAndEmitsNoEvent(t *testing.T) {
	store := ecsstore.New()
	m := ecsstate.NewMachine("ecsstate_test:match_phase_f", []matchPhase{phaseLobby, phasePlaying}, phaseLobby)
	m.Init(store)

	require.NoError(t, ecsstate.SetState(syncCtx(), store, m, phaseLobby))
	assert.Empty(t, store.DrainEvents())
}

func TestSnapshotReflectsValueAtCaptureTime(t *testing.T) {
	store := ecsstore.New()
	m := ecsstate.NewMachine("ecsstate_test:match_phase_g", []matchPhase{phaseLobby, phasePlaying}, phaseLobby)
	m.Init(store)

	snap := ecsstate.TakeSnapshot(store, m)
	assert.True(t, snap.InState(m.Kind.Name(), phaseLobby))

	require.NoError(t, ecsstate.SetState(syncCtx(), store, m, phasePlaying))

	// the snapshot taken before the transition still reads the old value
	assert.True(t, snap.InState(m.Kind.Name(), phaseLobby))
	assert.False(t, snap.InState(m.Kind.Name(), phasePlaying))

	fresh := ecsstate.TakeSnapshot(store, m)
	assert.True(t, fresh.InState(m.Kind.Name(), phasePlaying))
	assert.True(t, fresh.NotInState(m.Kind.Name(), phaseLobby))
}
