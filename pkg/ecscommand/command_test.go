package ecscommand_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecspanse-go/ecspanse/pkg/ecscommand"
	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

type health struct{ HP int }

var healthKind = ecstypes.Register[health](ecstypes.Component, "cmdtest:health")

func syncCtx() ecscontext.SystemContext {
	return ecscontext.SystemContext{SystemName: "test-system", Mode: ecscontext.Sync}
}

func TestCommandsRejectedOutsideSystem(t *testing.T) {
	e := ecscommand.New(ecsstore.New())
	_, err := e.Spawn(ecscontext.SystemContext{}, ecscommand.EntitySpec{
		Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 1}}},
	})
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.MustRunInSystem))
}

func TestSpawnRejectsEmptySpec(t *testing.T) {
	e := ecscommand.New(ecsstore.New())
	_, err := e.Spawn(syncCtx(), ecscommand.EntitySpec{})
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.ArgumentShape))
}

func TestSpawnGeneratesIDWhenOmitted(t *testing.T) {
	e := ecscommand.New(ecsstore.New())
	ids, err := e.Spawn(syncCtx(), ecscommand.EntitySpec{
		Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 10}}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.NotEmpty(t, ids[0])
}

func TestSpawnWithCrossReferencedChildInSameBatch(t *testing.T) {
	s := ecsstore.New()
	e := ecscommand.New(s)
	ids, err := e.Spawn(syncCtx(),
		ecscommand.EntitySpec{ID: "parent", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 1}}}, Children: []ecstypes.EntityID{"child"}},
		ecscommand.EntitySpec{ID: "child", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 2}}}},
	)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ecstypes.EntityID{"parent", "child"}, ids)

	row, ok := s.GetComponent("child", ecstypes.ParentsKind)
	require.True(t, ok)
	assert.Contains(t, row.Payload.(ecstypes.Parents).Entities, ecstypes.EntityID("parent"))
}

func TestSpawnRejectsMissingReferencedParent(t *testing.T) {
	e := ecscommand.New(ecsstore.New())
	_, err := e.Spawn(syncCtx(), ecscommand.EntitySpec{
		ID:       "orphan",
		Parents:  []ecstypes.EntityID{"ghost"},
		Children: nil,
	})
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.NotFound))
}

func TestDespawnMirrorsRemovalOnSurvivingParent(t *testing.T) {
	s := ecsstore.New()
	e := ecscommand.New(s)
	_, err := e.Spawn(syncCtx(),
		ecscommand.EntitySpec{ID: "parent", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 1}}}, Children: []ecstypes.EntityID{"child"}},
		ecscommand.EntitySpec{ID: "child", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 2}}}},
	)
	require.NoError(t, err)

	require.NoError(t, e.Despawn(syncCtx(), "child"))

	assert.False(t, s.EntityExists("child"))
	row, ok := s.GetComponent("parent", ecstypes.ChildrenKind)
	require.True(t, ok)
	assert.NotContains(t, row.Payload.(ecstypes.Children).Entities, ecstypes.EntityID("child"))
}

func TestDespawnCascadeRemovesDescendants(t *testing.T) {
	s := ecsstore.New()
	e := ecscommand.New(s)
	_, err := e.Spawn(syncCtx(),
		ecscommand.EntitySpec{ID: "root", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 1}}}, Children: []ecstypes.EntityID{"mid"}},
		ecscommand.EntitySpec{ID: "mid", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 2}}}, Children: []ecstypes.EntityID{"leaf"}},
		ecscommand.EntitySpec{ID: "leaf", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 3}}}},
	)
	require.NoError(t, err)

	require.NoError(t, e.DespawnCascade(syncCtx(), "root"))
	assert.False(t, s.EntityExists("root"))
	assert.False(t, s.EntityExists("mid"))
	assert.False(t, s.EntityExists("leaf"))
}

func TestAddUpdateRemoveComponent(t *testing.T) {
	s := ecsstore.New()
	e := ecscommand.New(s)
	_, err := e.Spawn(syncCtx(), ecscommand.EntitySpec{ID: "e1", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 1}}}})
	require.NoError(t, err)

	type shield struct{ Amount int }
	shieldKind := ecstypes.Register[shield](ecstypes.Component, "cmdtest:shield")

	require.NoError(t, e.AddComponent(syncCtx(), "e1", ecscommand.ComponentSpec{Kind: shieldKind, Payload: shield{Amount: 5}}))
	assert.True(t, s.HasComponent("e1", shieldKind))

	require.NoError(t, e.UpdateComponent(syncCtx(), "e1", shieldKind, shield{Amount: 9}))
	row, ok := s.GetComponent("e1", shieldKind)
	require.True(t, ok)
	assert.Equal(t, shield{Amount: 9}, row.Payload)

	require.NoError(t, e.RemoveComponent(syncCtx(), "e1", shieldKind))
	assert.False(t, s.HasComponent("e1", shieldKind))
}

func TestAddComponentRejectsDuplicate(t *testing.T) {
	s := ecsstore.New()
	e := ecscommand.New(s)
	_, err := e.Spawn(syncCtx(), ecscommand.EntitySpec{ID: "e1", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 1}}}})
	require.NoError(t, err)

	err = e.AddComponent(syncCtx(), "e1", ecscommand.ComponentSpec{Kind: healthKind, Payload: health{HP: 2}})
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.AlreadyExists))
}

func TestResourceCUDRejectedInAsync(t *testing.T) {
	s := ecsstore.New()
	e := ecscommand.New(s)
	asyncCtx := ecscontext.SystemContext{SystemName: "async-system", Mode: ecscontext.Async}

	err := e.UpsertResource(asyncCtx, healthKind, health{HP: 1})
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.WrongPhase))
}

func TestResourceUpsertAndDelete(t *testing.T) {
	s := ecsstore.New()
	e := ecscommand.New(s)

	require.NoError(t, e.UpsertResource(syncCtx(), healthKind, health{HP: 1}))
	v, ok := s.GetResource(healthKind)
	require.True(t, ok)
	assert.Equal(t, health{HP: 1}, v)

	require.NoError(t, e.UpsertResource(syncCtx(), healthKind, health{HP: 2}))
	v, _ = s.GetResource(healthKind)
	assert.Equal(t, health{HP: 2}, v)

	require.NoError(t, e.DeleteResource(syncCtx(), healthKind))
	_, ok = s.GetResource(healthKind)
	assert.False(t, ok)
}

func TestAsyncSystemMustDeclareLockedComponent(t *testing.T) {
	s := ecsstore.New()
	e := ecscommand.New(s)
	asyncCtx := ecscontext.SystemContext{SystemName: "async-system", Mode: ecscontext.Async}

	_, err := e.Spawn(asyncCtx, ecscommand.EntitySpec{Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 1}}}})
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.NotLocked))

	asyncCtx.Locked = []ecscontext.LockedType{{Kind: healthKind}, {Kind: ecstypes.ChildrenKind}, {Kind: ecstypes.ParentsKind}}
	_, err = e.Spawn(asyncCtx, ecscommand.EntitySpec{Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 1}}}})
	assert.NoError(t, err)
}

func TestCloneShallowDoesNotCopyRelationships(t *testing.T) {
	s := ecsstore.New()
	e := ecscommand.New(s)
	_, err := e.Spawn(syncCtx(),
		ecscommand.EntitySpec{ID: "parent", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 1}}}, Children: []ecstypes.EntityID{"child"}},
		ecscommand.EntitySpec{ID: "child", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 2}}}},
	)
	require.NoError(t, err)

	cloneID, err := e.CloneShallow(syncCtx(), "parent")
	require.NoError(t, err)

	row, ok := s.GetComponent(cloneID, ecstypes.ChildrenKind)
	require.True(t, ok)
	assert.Empty(t, row.Payload.(ecstypes.Children).Entities)

	healthRow, ok := s.GetComponent(cloneID, healthKind)
	require.True(t, ok)
	assert.Equal(t, health{HP: 1}, healthRow.Payload)
}

func TestCloneDeepRemapsDescendantEdges(t *testing.T) {
	s := ecsstore.New()
	e := ecscommand.New(s)
	_, err := e.Spawn(syncCtx(),
		ecscommand.EntitySpec{ID: "root", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 1}}}, Children: []ecstypes.EntityID{"child"}},
		ecscommand.EntitySpec{ID: "child", Components: []ecscommand.ComponentSpec{{Kind: healthKind, Payload: health{HP: 2}}}},
	)
	require.NoError(t, err)

	cloneRoot, err := e.CloneDeep(syncCtx(), "root")
	require.NoError(t, err)
	assert.NotEqual(t, ecstypes.EntityID("root"), cloneRoot)

	row, ok := s.GetComponent(cloneRoot, ecstypes.ChildrenKind)
	require.True(t, ok)
	require.Len(t, row.Payload.(ecstypes.Children).Entities, 1)
	clonedChild := row.Payload.(ecstypes.Children).Entities[0]
	assert.NotEqual(t, ecstypes.EntityID("child"), clonedChild)

	childHealth, ok := s.GetComponent(clonedChild, healthKind)
	require.True(t, ok)
	assert.Equal(t, health{HP: 2}, childHealth.Payload)
}
