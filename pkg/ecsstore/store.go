package ecsstore

import (
	"sync"
	"sync/atomic"

	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// ComponentKey identifies one live component row: invariant C1 says at
// most one such row exists at a time.
type ComponentKey struct {
	Entity ecstypes.EntityID
	Kind   ecstypes.Kind
}

// ComponentRow is a stored component: its merged tag set (component-kind
// tags union instance tags, frozen at spawn/add time per C2) and payload.
type ComponentRow struct {
	Tags    map[string]struct{}
	Payload any
}

// ComponentWrite is one (entity, kind) row to insert or overwrite.
// Command callers are expected to have already validated shape and
// existence; Store only guards against duplicate keys within one batch.
type ComponentWrite struct {
	Entity  ecstypes.EntityID
	Kind    ecstypes.Kind
	Tags    map[string]struct{}
	Payload any
}

// TimerTag is the conventional tag for timer components; they are
// found with EntitiesWithTag(TimerTag), through the same generic tag
// index as any other tag rather than a parallel structure. The frame
// loop itself does not read it.
const TimerTag = "timer"

// Store is the engine's concurrent component/resource/event table.
// Grounded on the teacher's storage.Store interface and
// storage.BoltStore bucket-per-kind layout, with bbolt buckets
// replaced by guarded Go maps: the live Store is never persisted
// (spec §1 Non-goals).
type Store struct {
	mu sync.RWMutex

	components  map[ComponentKey]ComponentRow
	entityKinds map[ecstypes.EntityID]map[ecstypes.Kind]struct{}
	tagIndex    map[string]map[ComponentKey]struct{}

	resources map[ecstypes.Kind]any

	graphVersion atomic.Uint64

	events eventTables
}

// New builds an empty Store.
func New() *Store {
	s := &Store{
		components:  make(map[ComponentKey]ComponentRow),
		entityKinds: make(map[ecstypes.EntityID]map[ecstypes.Kind]struct{}),
		tagIndex:    make(map[string]map[ComponentKey]struct{}),
		resources:   make(map[ecstypes.Kind]any),
	}
	s.events.init()
	return s
}

// GraphVersion returns the current relationship-graph version counter.
// The Store advances it on every relationship write; ecsquery recomputes
// a memoized traversal once this has moved past the cached version.
func (s *Store) GraphVersion() uint64 {
	return s.graphVersion.Load()
}

func isRelationshipKind(k ecstypes.Kind) bool {
	return k == ecstypes.ChildrenKind || k == ecstypes.ParentsKind
}

// Insert adds new component rows. Duplicate (entity, kind) keys within
// batch, or a key that already has a live row, are a fail-fast
// programmer error (spec §4.1): validation should have been done by
// the caller (typically ecscommand), so Store only catches it defensively.
func (s *Store) Insert(batch []ComponentWrite) error {
	if len(batch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[ComponentKey]struct{}, len(batch))
	for _, w := range batch {
		key := ComponentKey{Entity: w.Entity, Kind: w.Kind}
		if _, dup := seen[key]; dup {
			return ecserrors.New(ecserrors.DuplicateCommitKey, "ecsstore.Insert",
				"duplicate component key within one commit batch")
		}
		seen[key] = struct{}{}
		if _, exists := s.components[key]; exists {
			return ecserrors.New(ecserrors.AlreadyExists, "ecsstore.Insert",
				"component already present for entity")
		}
	}

	for _, w := range batch {
		key := ComponentKey{Entity: w.Entity, Kind: w.Kind}
		s.components[key] = ComponentRow{Tags: w.Tags, Payload: w.Payload}
		s.indexInsert(key, w.Tags)
		if isRelationshipKind(w.Kind) {
			s.graphVersion.Add(1)
		}
	}
	return nil
}

// Update overwrites the payload of existing component rows in place;
// tags are immutable after insert (C2) and are not touched.
func (s *Store) Update(batch []ComponentWrite) error {
	if len(batch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[ComponentKey]struct{}, len(batch))
	for _, w := range batch {
		key := ComponentKey{Entity: w.Entity, Kind: w.Kind}
		if _, dup := seen[key]; dup {
			return ecserrors.New(ecserrors.DuplicateCommitKey, "ecsstore.Update",
				"duplicate component key within one commit batch")
		}
		seen[key] = struct{}{}
		if _, exists := s.components[key]; !exists {
			return ecserrors.New(ecserrors.NotFound, "ecsstore.Update",
				"component not found for entity")
		}
	}

	for _, w := range batch {
		key := ComponentKey{Entity: w.Entity, Kind: w.Kind}
		row := s.components[key]
		row.Payload = w.Payload
		s.components[key] = row
		if isRelationshipKind(w.Kind) {
			s.graphVersion.Add(1)
		}
	}
	return nil
}

// Delete removes component rows.
func (s *Store) Delete(batch []ComponentKey) error {
	if len(batch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[ComponentKey]struct{}, len(batch))
	for _, key := range batch {
		if _, dup := seen[key]; dup {
			return ecserrors.New(ecserrors.DuplicateCommitKey, "ecsstore.Delete",
				"duplicate component key within one commit batch")
		}
		seen[key] = struct{}{}
	}

	for _, key := range batch {
		row, exists := s.components[key]
		if !exists {
			continue
		}
		delete(s.components, key)
		s.indexDelete(key, row.Tags)
		if isRelationshipKind(key.Kind) {
			s.graphVersion.Add(1)
		}
	}
	return nil
}

func (s *Store) indexInsert(key ComponentKey, tags map[string]struct{}) {
	kinds, ok := s.entityKinds[key.Entity]
	if !ok {
		kinds = make(map[ecstypes.Kind]struct{})
		s.entityKinds[key.Entity] = kinds
	}
	kinds[key.Kind] = struct{}{}

	for tag := range tags {
		set, ok := s.tagIndex[tag]
		if !ok {
			set = make(map[ComponentKey]struct{})
			s.tagIndex[tag] = set
		}
		set[key] = struct{}{}
	}
}

func (s *Store) indexDelete(key ComponentKey, tags map[string]struct{}) {
	if kinds, ok := s.entityKinds[key.Entity]; ok {
		delete(kinds, key.Kind)
		if len(kinds) == 0 {
			delete(s.entityKinds, key.Entity)
		}
	}
	for tag := range tags {
		if set, ok := s.tagIndex[tag]; ok {
			delete(set, key)
			if len(set) == 0 {
				delete(s.tagIndex, tag)
			}
		}
	}
}

// GetComponent returns the live row for (entity, kind), if any.
func (s *Store) GetComponent(entity ecstypes.EntityID, kind ecstypes.Kind) (ComponentRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.components[ComponentKey{Entity: entity, Kind: kind}]
	return row, ok
}

// HasComponent reports whether entity currently carries kind.
func (s *Store) HasComponent(entity ecstypes.EntityID, kind ecstypes.Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds, ok := s.entityKinds[entity]
	if !ok {
		return false
	}
	_, ok = kinds[kind]
	return ok
}

// KindsForEntity lists every component kind currently live on entity.
func (s *Store) KindsForEntity(entity ecstypes.EntityID) []ecstypes.Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds, ok := s.entityKinds[entity]
	if !ok {
		return nil
	}
	out := make([]ecstypes.Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	return out
}

// EntityExists reports whether entity carries at least one component
// (an entity with zero components is considered despawned).
func (s *Store) EntityExists(entity ecstypes.EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entityKinds[entity]
	return ok
}

// EntitiesWithKind lists every entity currently carrying kind.
func (s *Store) EntitiesWithKind(kind ecstypes.Kind) []ecstypes.EntityID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ecstypes.EntityID, 0)
	for key := range s.components {
		if key.Kind == kind {
			out = append(out, key.Entity)
		}
	}
	return out
}

// EntitiesWithTag lists the (entity, kind) pairs carrying tag, via the
// tag index rather than a full table scan.
func (s *Store) EntitiesWithTag(tag string) []ComponentKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.tagIndex[tag]
	if !ok {
		return nil
	}
	out := make([]ComponentKey, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	return out
}

// UpsertResource sets the singleton payload for kind, creating or
// replacing it (S1: exactly one live value per resource kind).
func (s *Store) UpsertResource(kind ecstypes.Kind, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[kind] = payload
}

// GetResource returns the live payload for kind, if any.
func (s *Store) GetResource(kind ecstypes.Kind) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.resources[kind]
	return v, ok
}

// DeleteResource removes the singleton payload for kind.
func (s *Store) DeleteResource(kind ecstypes.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resources, kind)
}
