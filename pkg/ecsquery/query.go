package ecsquery

import (
	"github.com/ecspanse-go/ecspanse/pkg/ecserrors"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// Scope names the one scope selector a Query may carry.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeFor
	ScopeNotFor
	ScopeForChildrenOf
	ScopeForDescendantsOf
	ScopeForParentsOf
	ScopeForAncestorsOf
)

// selectElem is one element of the select tuple: a required or
// optional component kind.
type selectElem struct {
	kind     ecstypes.Kind
	optional bool
}

// filterGroup is one with/without clause, AND'd internally; a Query
// ORs across its filterGroups.
type filterGroup struct {
	with    []ecstypes.Kind
	without []ecstypes.Kind
}

func (g filterGroup) satisfiedBy(kinds map[ecstypes.Kind]struct{}) bool {
	for _, k := range g.with {
		if _, ok := kinds[k]; !ok {
			return false
		}
	}
	for _, k := range g.without {
		if _, ok := kinds[k]; ok {
			return false
		}
	}
	return true
}

// TupleElem is one resolved element of a result Tuple, in select order.
type TupleElem struct {
	IsEntity bool
	Kind     ecstypes.Kind
	Optional bool
	Present  bool // for Optional elements: whether the component was there
	Value    any  // component payload, or the EntityID when IsEntity
}

// Tuple is one query result row.
type Tuple struct {
	Entity ecstypes.EntityID
	Elems  []TupleElem
}

// Entity0 returns the tuple's entity id, which is always available
// regardless of whether the select declared a leading entity element.
func (t Tuple) Entity0() ecstypes.EntityID {
	return t.Entity
}

// Get returns the i'th select element's value and whether it was
// present (always true for required elements).
func (t Tuple) Get(i int) (any, bool) {
	if i < 0 || i >= len(t.Elems) {
		return nil, false
	}
	e := t.Elems[i]
	if e.IsEntity {
		return e.Value, true
	}
	if e.Optional {
		return e.Value, e.Present
	}
	return e.Value, true
}

// Query is a declarative, immutable-once-finalized read request
// against a Store (spec §4.2).
type Query struct {
	store *ecsstore.Store

	withEntity bool
	selects    []selectElem

	groups  []filterGroup
	pending filterGroup
	hasPend bool

	scope     Scope
	scopeSet  bool
	scopeArgs []ecstypes.EntityID

	shapeErr error
}

// New starts a Query against store.
func New(store *ecsstore.Store) *Query {
	return &Query{store: store}
}

// WithEntity prepends the entity id itself as the select tuple's
// leading element.
func (q *Query) WithEntity() *Query {
	q.withEntity = true
	return q
}

// Select declares required component kinds, appended to the select
// tuple in the order given.
func (q *Query) Select(kinds ...ecstypes.Kind) *Query {
	for _, k := range kinds {
		q.selects = append(q.selects, selectElem{kind: k})
	}
	return q
}

// SelectOptional declares an optional component kind: present in the
// result tuple as a present-or-absent marker rather than excluding
// entities that lack it.
func (q *Query) SelectOptional(kind ecstypes.Kind) *Query {
	q.selects = append(q.selects, selectElem{kind: kind, optional: true})
	return q
}

// With adds required kinds to the current filter group (AND within
// the group).
func (q *Query) With(kinds ...ecstypes.Kind) *Query {
	q.hasPend = true
	q.pending.with = append(q.pending.with, kinds...)
	return q
}

// Without adds excluded kinds to the current filter group.
func (q *Query) Without(kinds ...ecstypes.Kind) *Query {
	q.hasPend = true
	q.pending.without = append(q.pending.without, kinds...)
	return q
}

// Or closes the current with/without group and starts a fresh one;
// groups are OR'd together at execution time.
func (q *Query) Or() *Query {
	q.flushGroup()
	return q
}

func (q *Query) flushGroup() {
	if q.hasPend {
		q.groups = append(q.groups, q.pending)
		q.pending = filterGroup{}
		q.hasPend = false
	}
}

func (q *Query) setScope(s Scope, args ...ecstypes.EntityID) *Query {
	if q.scopeSet {
		q.shapeErr = ecserrors.New(ecserrors.ArgumentShape, "ecsquery.Query",
			"at most one scope selector may be set")
		return q
	}
	q.scopeSet = true
	q.scope = s
	q.scopeArgs = args
	return q
}

// All scopes the query over every entity in the Store.
func (q *Query) All() *Query { return q.setScope(ScopeAll) }

// For scopes the query to exactly the given entities.
func (q *Query) For(ids ...ecstypes.EntityID) *Query { return q.setScope(ScopeFor, ids...) }

// NotFor scopes the query to every entity except the given ones.
func (q *Query) NotFor(ids ...ecstypes.EntityID) *Query { return q.setScope(ScopeNotFor, ids...) }

// ForChildrenOf scopes the query to the direct children of parent.
func (q *Query) ForChildrenOf(parent ecstypes.EntityID) *Query {
	return q.setScope(ScopeForChildrenOf, parent)
}

// ForDescendantsOf scopes the query to the transitive descendants of root.
func (q *Query) ForDescendantsOf(root ecstypes.EntityID) *Query {
	return q.setScope(ScopeForDescendantsOf, root)
}

// ForParentsOf scopes the query to the direct parents of child.
func (q *Query) ForParentsOf(child ecstypes.EntityID) *Query {
	return q.setScope(ScopeForParentsOf, child)
}

// ForAncestorsOf scopes the query to the transitive ancestors of descendant.
func (q *Query) ForAncestorsOf(descendant ecstypes.EntityID) *Query {
	return q.setScope(ScopeForAncestorsOf, descendant)
}

// candidates enumerates the scope's entity set.
func (q *Query) candidates() ([]ecstypes.EntityID, error) {
	switch q.scope {
	case ScopeAll:
		all := make(map[ecstypes.EntityID]struct{})
		for _, k := range q.selects {
			for _, e := range q.store.EntitiesWithKind(k.kind) {
				all[e] = struct{}{}
			}
		}
		if len(q.selects) == 0 {
			return nil, ecserrors.New(ecserrors.ArgumentShape, "ecsquery.Query",
				"a select tuple needs at least one required or optional component")
		}
		out := make([]ecstypes.EntityID, 0, len(all))
		for e := range all {
			out = append(out, e)
		}
		return out, nil
	case ScopeFor:
		for _, id := range q.scopeArgs {
			if id == "" {
				return nil, ecserrors.New(ecserrors.ArgumentShape, "ecsquery.Query", "non-entity in entity list")
			}
		}
		return q.scopeArgs, nil
	case ScopeNotFor:
		excluded := make(map[ecstypes.EntityID]struct{}, len(q.scopeArgs))
		for _, id := range q.scopeArgs {
			excluded[id] = struct{}{}
		}
		all := make(map[ecstypes.EntityID]struct{})
		for _, k := range q.selects {
			for _, e := range q.store.EntitiesWithKind(k.kind) {
				all[e] = struct{}{}
			}
		}
		out := make([]ecstypes.EntityID, 0, len(all))
		for e := range all {
			if _, skip := excluded[e]; !skip {
				out = append(out, e)
			}
		}
		return out, nil
	case ScopeForChildrenOf:
		return Children(q.store, q.scopeArgs[0])
	case ScopeForDescendantsOf:
		return Descendants(q.store, q.scopeArgs[0])
	case ScopeForParentsOf:
		return Parents(q.store, q.scopeArgs[0])
	case ScopeForAncestorsOf:
		return Ancestors(q.store, q.scopeArgs[0])
	default:
		return nil, ecserrors.New(ecserrors.ArgumentShape, "ecsquery.Query", "unknown scope")
	}
}

// resolve runs the five-step execution algorithm and returns every
// matching tuple (order is select-declared per row; row order is the
// enumeration order and is not itself significant for the stream shape).
func (q *Query) resolve() ([]Tuple, error) {
	if q.shapeErr != nil {
		return nil, q.shapeErr
	}
	q.flushGroup()

	cands, err := q.candidates()
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, nil
	}

	out := make([]Tuple, 0, len(cands))
	for _, entity := range cands {
		kindSet := make(map[ecstypes.Kind]struct{})
		for _, k := range q.store.KindsForEntity(entity) {
			kindSet[k] = struct{}{}
		}

		if len(q.groups) > 0 {
			matched := false
			for _, g := range q.groups {
				if g.satisfiedBy(kindSet) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}

		elems := make([]TupleElem, 0, len(q.selects)+1)
		if q.withEntity {
			elems = append(elems, TupleElem{IsEntity: true, Value: entity})
		}

		dropped := false
		for _, sel := range q.selects {
			row, ok := q.store.GetComponent(entity, sel.kind)
			if !ok {
				if sel.optional {
					elems = append(elems, TupleElem{Kind: sel.kind, Optional: true, Present: false})
					continue
				}
				// Required component concurrently removed: drop silently.
				dropped = true
				break
			}
			elems = append(elems, TupleElem{
				Kind:     sel.kind,
				Optional: sel.optional,
				Present:  true,
				Value:    row.Payload,
			})
		}
		if dropped {
			continue
		}
		out = append(out, Tuple{Entity: entity, Elems: elems})
	}
	return out, nil
}

// Stream returns every matching tuple as a channel; readers may range
// over it concurrently, and the order across the channel carries no
// meaning beyond "some valid execution order" (spec §4.2 "lazy,
// unordered across parallel workers").
func (q *Query) Stream() (<-chan Tuple, error) {
	tuples, err := q.resolve()
	if err != nil {
		return nil, err
	}
	ch := make(chan Tuple, len(tuples))
	for _, t := range tuples {
		ch <- t
	}
	close(ch)
	return ch, nil
}

// One returns the single matching tuple, or NotFound if there are
// none, or MultipleResults if there is more than one.
func (q *Query) One() (Tuple, error) {
	tuples, err := q.resolve()
	if err != nil {
		return Tuple{}, err
	}
	switch len(tuples) {
	case 0:
		return Tuple{}, ecserrors.New(ecserrors.NotFound, "ecsquery.Query.One", "no matching entity")
	case 1:
		return tuples[0], nil
	default:
		return Tuple{}, ecserrors.New(ecserrors.MultipleResults, "ecsquery.Query.One", "more than one matching entity")
	}
}
