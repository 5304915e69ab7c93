package ecssetup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecsscheduler"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstate"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

type widget struct{ N int }

var widgetKind = ecstypes.Register[widget](ecstypes.Component, "setuptest:widget")

func TestBuilderRegistersSystemsInDeclarationOrder(t *testing.T) {
	store := ecsstore.New()
	var order []string

	sched := NewBuilder(store).
		WithFPS(200).
		AddStartupSystem("boot", func(ecscontext.SystemContext) error {
			order = append(order, "boot")
			return nil
		}).
		AddFrameStartSystem("fs", func(ecscontext.SystemContext) error {
			order = append(order, "fs")
			return nil
		}).
		AddSystem("work", func(ecscontext.SystemContext) error {
			order = append(order, "work")
			return nil
		}, WithLocked(ecscontext.LockedType{Kind: widgetKind})).
		Build()

	require.NotNil(t, sched)
	assert.Equal(t, ecsscheduler.StartupPhase, sched.Phase())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)
	require.Eventually(t, func() bool { return sched.Frame() >= 1 }, time.Second, time.Millisecond)
	sched.Stop()

	require.GreaterOrEqual(t, len(order), 3)
	assert.Equal(t, []string{"boot", "fs", "work"}, order[:3])
}

func TestAddSystemSetGroupsRegistrations(t *testing.T) {
	store := ecsstore.New()
	var calls []string

	b := NewBuilder(store).AddSystemSet("widgets", func(b *Builder) {
		b.AddSystem("a", func(ecscontext.SystemContext) error { calls = append(calls, "a"); return nil },
			WithLocked(ecscontext.LockedType{Kind: widgetKind}))
	})
	sched := b.Build()
	require.NotNil(t, sched)
}

func TestInitStateSeedsDefaultAndRegistersForSnapshot(t *testing.T) {
	store := ecsstore.New()
	type phase string
	const (
		lobby   phase = "lobby"
		playing phase = "playing"
	)
	machine := ecsstate.NewMachine("setuptest:phase", []phase{lobby, playing}, lobby)

	b := NewBuilder(store)
	InitState(b, machine)

	got, err := ecsstate.GetState(store, machine)
	require.NoError(t, err)
	assert.Equal(t, lobby, got)
	assert.Len(t, b.data.stateModules, 1)
}
