package ecsquery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsquery"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

type health struct{ HP int }
type shield struct{ Amount int }

var (
	healthKind = ecstypes.Register[health](ecstypes.Component, "querytest:health")
	shieldKind = ecstypes.Register[shield](ecstypes.Component, "querytest:shield")
)

func upsertComponent(t *testing.T, s *ecsstore.Store, entity ecstypes.EntityID, kind ecstypes.Kind, payload any) {
	t.Helper()
	write := ecsstore.ComponentWrite{Entity: entity, Kind: kind, Payload: payload}
	if s.HasComponent(entity, kind) {
		require.NoError(t, s.Update([]ecsstore.ComponentWrite{write}))
		return
	}
	require.NoError(t, s.Insert([]ecsstore.ComponentWrite{write}))
}

func spawnWithChildren(t *testing.T, s *ecsstore.Store, id ecstypes.EntityID, hp int, children ...ecstypes.EntityID) {
	t.Helper()
	upsertComponent(t, s, id, healthKind, health{HP: hp})
	if !s.HasComponent(id, ecstypes.ParentsKind) {
		upsertComponent(t, s, id, ecstypes.ParentsKind, ecstypes.Parents{})
	}

	existingChildren := ecstypes.Children{}
	if row, ok := s.GetComponent(id, ecstypes.ChildrenKind); ok {
		existingChildren = row.Payload.(ecstypes.Children)
	}
	for _, c := range children {
		existingChildren.Entities = ecstypes.UpsertEntity(existingChildren.Entities, c)
	}
	upsertComponent(t, s, id, ecstypes.ChildrenKind, existingChildren)

	for _, c := range children {
		var parents ecstypes.Parents
		if row, ok := s.GetComponent(c, ecstypes.ParentsKind); ok {
			parents = row.Payload.(ecstypes.Parents)
		}
		parents.Entities = ecstypes.UpsertEntity(parents.Entities, id)
		upsertComponent(t, s, c, ecstypes.ParentsKind, parents)
		if !s.HasComponent(c, ecstypes.ChildrenKind) {
			upsertComponent(t, s, c, ecstypes.ChildrenKind, ecstypes.Children{})
		}
	}
}

func TestSelectAllRequiredComponent(t *testing.T) {
	s := ecsstore.New()
	require.NoError(t, s.Insert([]ecsstore.ComponentWrite{
		{Entity: "e1", Kind: healthKind, Payload: health{HP: 10}},
		{Entity: "e2", Kind: healthKind, Payload: health{HP: 20}},
	}))

	tuples, err := ecsquery.New(s).WithEntity().Select(healthKind).All().Stream()
	require.NoError(t, err)

	var got []ecstypes.EntityID
	for tup := range tuples {
		got = append(got, tup.Entity)
	}
	assert.ElementsMatch(t, []ecstypes.EntityID{"e1", "e2"}, got)
}

func TestOptionalComponentPresentAbsentMarker(t *testing.T) {
	s := ecsstore.New()
	require.NoError(t, s.Insert([]ecsstore.ComponentWrite{
		{Entity: "e1", Kind: healthKind, Payload: health{HP: 10}},
		{Entity: "e1", Kind: shieldKind, Payload: shield{Amount: 5}},
		{Entity: "e2", Kind: healthKind, Payload: health{HP: 20}},
	}))

	ch, err := ecsquery.New(s).WithEntity().Select(healthKind).SelectOptional(shieldKind).All().Stream()
	require.NoError(t, err)

	byEntity := map[ecstypes.EntityID]ecsquery.Tuple{}
	for tup := range ch {
		byEntity[tup.Entity] = tup
	}
	require.Len(t, byEntity, 2)

	_, present := byEntity["e1"].Get(2)
	assert.True(t, present)
	_, present = byEntity["e2"].Get(2)
	assert.False(t, present)
}

func TestWithWithoutFilterGroups(t *testing.T) {
	s := ecsstore.New()
	require.NoError(t, s.Insert([]ecsstore.ComponentWrite{
		{Entity: "e1", Kind: healthKind, Payload: health{HP: 10}},
		{Entity: "e1", Kind: shieldKind, Payload: shield{Amount: 5}},
		{Entity: "e2", Kind: healthKind, Payload: health{HP: 20}},
	}))

	// Only entities that also carry shield.
	ch, err := ecsquery.New(s).WithEntity().Select(healthKind).With(shieldKind).All().Stream()
	require.NoError(t, err)
	var got []ecstypes.EntityID
	for tup := range ch {
		got = append(got, tup.Entity)
	}
	assert.Equal(t, []ecstypes.EntityID{"e1"}, got)

	// Exclude entities carrying shield.
	ch, err = ecsquery.New(s).WithEntity().Select(healthKind).Without(shieldKind).All().Stream()
	require.NoError(t, err)
	got = nil
	for tup := range ch {
		got = append(got, tup.Entity)
	}
	assert.Equal(t, []ecstypes.EntityID{"e2"}, got)
}

func TestOneReturnsMultipleResultsError(t *testing.T) {
	s := ecsstore.New()
	require.NoError(t, s.Insert([]ecsstore.ComponentWrite{
		{Entity: "e1", Kind: healthKind, Payload: health{HP: 10}},
		{Entity: "e2", Kind: healthKind, Payload: health{HP: 20}},
	}))

	_, err := ecsquery.New(s).Select(healthKind).All().One()
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.MultipleResults))
}

func TestOneReturnsNotFound(t *testing.T) {
	s := ecsstore.New()
	_, err := ecsquery.New(s).Select(healthKind).All().One()
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.NotFound))
}

func TestMixedScopeSelectorsIsArgumentShapeError(t *testing.T) {
	s := ecsstore.New()
	_, err := ecsquery.New(s).Select(healthKind).All().For("e1").Stream()
	require.Error(t, err)
	assert.True(t, ecserrors.HasKind(err, ecserrors.ArgumentShape))
}

func TestForChildrenOfScope(t *testing.T) {
	s := ecsstore.New()
	spawnWithChildren(t, s, "root", 100, "c1", "c2")
	require.NoError(t, s.Insert([]ecsstore.ComponentWrite{
		{Entity: "c1", Kind: healthKind, Payload: health{HP: 1}},
		{Entity: "c2", Kind: healthKind, Payload: health{HP: 2}},
	}))

	ch, err := ecsquery.New(s).WithEntity().Select(healthKind).ForChildrenOf("root").Stream()
	require.NoError(t, err)
	var got []ecstypes.EntityID
	for tup := range ch {
		got = append(got, tup.Entity)
	}
	assert.ElementsMatch(t, []ecstypes.EntityID{"c1", "c2"}, got)
}

func TestDescendantsIsCycleSafe(t *testing.T) {
	s := ecsstore.New()
	// a -> b -> c, and c relinks back to a (cycle).
	spawnWithChildren(t, s, "a", 0, "b")
	spawnWithChildren(t, s, "b", 0, "c")

	row, _ := s.GetComponent("c", ecstypes.ChildrenKind)
	var children ecstypes.Children
	if row.Payload != nil {
		children = row.Payload.(ecstypes.Children)
	}
	children.Entities = ecstypes.UpsertEntity(children.Entities, "a")
	require.NoError(t, s.Update([]ecsstore.ComponentWrite{{Entity: "c", Kind: ecstypes.ChildrenKind, Payload: children}}))

	desc, err := ecsquery.Descendants(s, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []ecstypes.EntityID{"b", "c"}, desc)
}

func TestTaggedComponentsRequiresFullTagSet(t *testing.T) {
	s := ecsstore.New()
	require.NoError(t, s.Insert([]ecsstore.ComponentWrite{
		{Entity: "e1", Kind: healthKind, Tags: map[string]struct{}{"enemy": {}, "boss": {}}, Payload: health{HP: 1}},
		{Entity: "e2", Kind: healthKind, Tags: map[string]struct{}{"enemy": {}}, Payload: health{HP: 2}},
	}))

	both, err := ecsquery.TaggedComponents(s, []string{"enemy", "boss"})
	require.NoError(t, err)
	assert.Equal(t, []ecstypes.EntityID{"e1"}, both)

	enemyOnly, err := ecsquery.TaggedComponents(s, []string{"enemy"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []ecstypes.EntityID{"e1", "e2"}, enemyOnly)
}
