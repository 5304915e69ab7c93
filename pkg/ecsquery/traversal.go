package ecsquery

import (
	"sync"

	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsmetrics"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// cacheKey identifies one memoized traversal: a scope name plus the
// entity it was computed for.
type cacheKey struct {
	scope  string
	entity ecstypes.EntityID
}

type cacheEntry struct {
	version uint64
	result  []ecstypes.EntityID
}

// traversalCache memoizes relationship listings per Store, invalidated
// by comparing against Store.GraphVersion() rather than by an explicit
// eviction signal; concurrent misses on the same key single-flight
// through inflight so only one goroutine recomputes (spec §4.2
// "bounded-waiter semantics").
type traversalCache struct {
	mu       sync.Mutex
	entries  map[cacheKey]cacheEntry
	inflight map[cacheKey]chan struct{}
}

func newTraversalCache() *traversalCache {
	return &traversalCache{
		entries:  make(map[cacheKey]cacheEntry),
		inflight: make(map[cacheKey]chan struct{}),
	}
}

func (c *traversalCache) getOrCompute(key cacheKey, version uint64, compute func() []ecstypes.EntityID) []ecstypes.EntityID {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.version == version {
		c.mu.Unlock()
		ecsmetrics.QueryCacheHits.Inc()
		return e.result
	}
	if ch, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-ch
		c.mu.Lock()
		e := c.entries[key]
		c.mu.Unlock()
		return e.result
	}
	ch := make(chan struct{})
	c.inflight[key] = ch
	c.mu.Unlock()

	ecsmetrics.QueryCacheMisses.Inc()
	result := compute()

	c.mu.Lock()
	c.entries[key] = cacheEntry{version: version, result: result}
	delete(c.inflight, key)
	c.mu.Unlock()
	close(ch)
	return result
}

var (
	cachesMu sync.Mutex
	caches   = make(map[*ecsstore.Store]*traversalCache)
)

func cacheFor(store *ecsstore.Store) *traversalCache {
	cachesMu.Lock()
	defer cachesMu.Unlock()
	c, ok := caches[store]
	if !ok {
		c = newTraversalCache()
		caches[store] = c
	}
	return c
}

func copyIDs(ids []ecstypes.EntityID) []ecstypes.EntityID {
	out := make([]ecstypes.EntityID, len(ids))
	copy(out, ids)
	return out
}

func requireEntity(store *ecsstore.Store, id ecstypes.EntityID, op string) error {
	if id == "" {
		return ecserrors.New(ecserrors.ArgumentShape, op, "non-entity argument")
	}
	if !store.EntityExists(id) {
		return ecserrors.New(ecserrors.NotFound, op, "entity not found")
	}
	return nil
}

// Children returns the direct children of parent.
func Children(store *ecsstore.Store, parent ecstypes.EntityID) ([]ecstypes.EntityID, error) {
	if err := requireEntity(store, parent, "ecsquery.Children"); err != nil {
		return nil, err
	}
	cache := cacheFor(store)
	result := cache.getOrCompute(cacheKey{scope: "children", entity: parent}, store.GraphVersion(), func() []ecstypes.EntityID {
		row, ok := store.GetComponent(parent, ecstypes.ChildrenKind)
		if !ok {
			return nil
		}
		return copyIDs(row.Payload.(ecstypes.Children).Entities)
	})
	return copyIDs(result), nil
}

// Parents returns the direct parents of child.
func Parents(store *ecsstore.Store, child ecstypes.EntityID) ([]ecstypes.EntityID, error) {
	if err := requireEntity(store, child, "ecsquery.Parents"); err != nil {
		return nil, err
	}
	cache := cacheFor(store)
	result := cache.getOrCompute(cacheKey{scope: "parents", entity: child}, store.GraphVersion(), func() []ecstypes.EntityID {
		row, ok := store.GetComponent(child, ecstypes.ParentsKind)
		if !ok {
			return nil
		}
		return copyIDs(row.Payload.(ecstypes.Parents).Entities)
	})
	return copyIDs(result), nil
}

// Descendants returns every transitive child of root, breadth-first,
// visiting each entity at most once regardless of diamond or cyclic
// shapes in the graph (spec §3 invariant R3).
func Descendants(store *ecsstore.Store, root ecstypes.EntityID) ([]ecstypes.EntityID, error) {
	if err := requireEntity(store, root, "ecsquery.Descendants"); err != nil {
		return nil, err
	}
	cache := cacheFor(store)
	result := cache.getOrCompute(cacheKey{scope: "descendants", entity: root}, store.GraphVersion(), func() []ecstypes.EntityID {
		return bfsRelationship(store, root, ecstypes.ChildrenKind)
	})
	return copyIDs(result), nil
}

// Ancestors returns every transitive parent of descendant, breadth-first.
func Ancestors(store *ecsstore.Store, descendant ecstypes.EntityID) ([]ecstypes.EntityID, error) {
	if err := requireEntity(store, descendant, "ecsquery.Ancestors"); err != nil {
		return nil, err
	}
	cache := cacheFor(store)
	result := cache.getOrCompute(cacheKey{scope: "ancestors", entity: descendant}, store.GraphVersion(), func() []ecstypes.EntityID {
		return bfsRelationship(store, descendant, ecstypes.ParentsKind)
	})
	return copyIDs(result), nil
}

// bfsRelationship walks the Children or Parents edge set from start,
// cycle-safe via a visited set, and returns every reachable entity
// excluding start itself.
func bfsRelationship(store *ecsstore.Store, start ecstypes.EntityID, edgeKind ecstypes.Kind) []ecstypes.EntityID {
	visited := map[ecstypes.EntityID]struct{}{start: {}}
	queue := []ecstypes.EntityID{start}
	var out []ecstypes.EntityID

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		row, ok := store.GetComponent(cur, edgeKind)
		if !ok {
			continue
		}
		var next []ecstypes.EntityID
		switch edgeKind {
		case ecstypes.ChildrenKind:
			next = row.Payload.(ecstypes.Children).Entities
		case ecstypes.ParentsKind:
			next = row.Payload.(ecstypes.Parents).Entities
		}
		for _, n := range next {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

// IsParentOf reports whether parent is a direct parent of child.
func IsParentOf(store *ecsstore.Store, parent, child ecstypes.EntityID) (bool, error) {
	children, err := Children(store, parent)
	if err != nil {
		return false, err
	}
	for _, c := range children {
		if c == child {
			return true, nil
		}
	}
	return false, nil
}

// IsChildOf reports whether child is a direct child of parent.
func IsChildOf(store *ecsstore.Store, child, parent ecstypes.EntityID) (bool, error) {
	return IsParentOf(store, parent, child)
}
