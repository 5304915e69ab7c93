package ecstypes

import (
	"fmt"
	"reflect"
	"sync"
)

// EntityID is a stable identifier for an entity. Entities are never
// stored as rows of their own; an entity exists iff at least one
// component references its id.
type EntityID string

// Category distinguishes what a Kind names: a component, a resource,
// or an event type. The three namespaces never overlap.
type Category uint8

const (
	Component Category = iota
	Resource
	EventKind
)

func (c Category) String() string {
	switch c {
	case Component:
		return "component"
	case Resource:
		return "resource"
	case EventKind:
		return "event"
	default:
		return "unknown"
	}
}

// Kind is a dense, process-wide token naming a component, resource, or
// event type. It is assigned once by Register and compared by value
// everywhere else in the engine — never by string or reflection.
type Kind uint32

// ValidateFunc optionally rejects a payload before it is committed.
// Returning a non-nil error aborts the whole enclosing command (spec
// §4.3 step 3: "if it returns error, the operation raises and no part
// of the batch is committed").
type ValidateFunc func(payload any) error

type registryEntry struct {
	kind        Kind
	category    Category
	name        string
	payloadType reflect.Type
	tags        map[string]struct{}
	validate    ValidateFunc
}

type registry struct {
	mu      sync.RWMutex
	byKind  []registryEntry
	byName  map[string]Kind
	byGoT   map[reflect.Type]Kind
}

var global = &registry{
	byName: make(map[string]Kind),
	byGoT:  make(map[reflect.Type]Kind),
}

// RegisterOption configures a Register call.
type RegisterOption func(*registryEntry)

// WithTags attaches an immutable, compile-time tag set to every
// instance of the kind being registered. Per-instance tags supplied at
// insert time (spec §4) are merged with these at construction and are
// just as immutable afterward (invariant C2).
func WithTags(tags ...string) RegisterOption {
	return func(e *registryEntry) {
		for _, t := range tags {
			e.tags[t] = struct{}{}
		}
	}
}

// WithValidate attaches a payload validation hook, consulted by the
// command executor on every add/update of this kind.
func WithValidate(fn ValidateFunc) RegisterOption {
	return func(e *registryEntry) {
		e.validate = fn
	}
}

// Register allocates a new Kind token for the payload type T under the
// given category and name. Registering the same name twice is a
// programmer error and panics, matching the teacher's fail-fast
// posture for setup-time mistakes (spec §7: "programmer errors in
// scheduler setup ... are fatal at setup time").
func Register[T any](category Category, name string, opts ...RegisterOption) Kind {
	global.mu.Lock()
	defer global.mu.Unlock()

	qualified := category.String() + ":" + name
	if _, exists := global.byName[qualified]; exists {
		panic(fmt.Sprintf("ecstypes: %s kind %q already registered", category, name))
	}

	entry := registryEntry{
		category: category,
		name:     name,
		tags:     make(map[string]struct{}),
	}
	var zero T
	entry.payloadType = reflect.TypeOf(zero)

	for _, opt := range opts {
		opt(&entry)
	}

	k := Kind(len(global.byKind))
	entry.kind = k
	global.byKind = append(global.byKind, entry)
	global.byName[qualified] = k
	if entry.payloadType != nil {
		global.byGoT[entry.payloadType] = k
	}
	return k
}

// LookupByGoType returns the Kind registered for the exact Go type T,
// if any. Used by Command/Query generic helpers that receive a typed
// payload and need its Kind without the caller naming it twice.
func LookupByGoType[T any]() (Kind, bool) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	var zero T
	k, ok := global.byGoT[reflect.TypeOf(zero)]
	return k, ok
}

// LookupByName returns the Kind registered under name within category,
// if any. Used by pkg/ecssnapshot to resolve a serialized record's
// (category, name) pair back to the live process's Kind token, since
// the numeric Kind value is not stable across runs.
func LookupByName(category Category, name string) (Kind, bool) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	k, ok := global.byName[category.String()+":"+name]
	return k, ok
}

// Name returns the registered name of a Kind.
func (k Kind) Name() string {
	global.mu.RLock()
	defer global.mu.RUnlock()
	if int(k) >= len(global.byKind) {
		return "<unregistered>"
	}
	return global.byKind[k].name
}

// Category returns whether k names a component, resource, or event.
func (k Kind) Category() Category {
	global.mu.RLock()
	defer global.mu.RUnlock()
	if int(k) >= len(global.byKind) {
		return Component
	}
	return global.byKind[k].category
}

// PayloadType returns the reflect.Type registered for k's payload,
// used by pkg/ecssnapshot to allocate a concrete value to decode a
// serialized payload into.
func (k Kind) PayloadType() reflect.Type {
	global.mu.RLock()
	defer global.mu.RUnlock()
	if int(k) >= len(global.byKind) {
		return nil
	}
	return global.byKind[k].payloadType
}

// Tags returns the compile-time tag set declared for k at Register
// time. The caller must not mutate the returned map.
func (k Kind) Tags() map[string]struct{} {
	global.mu.RLock()
	defer global.mu.RUnlock()
	if int(k) >= len(global.byKind) {
		return nil
	}
	return global.byKind[k].tags
}

// Validate runs k's registered validation hook, if any.
func (k Kind) Validate(payload any) error {
	global.mu.RLock()
	entry := global.byKind
	var fn ValidateFunc
	if int(k) < len(entry) {
		fn = entry[k].validate
	}
	global.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(payload)
}

// MergeTags unions a Kind's compile-time tags with per-instance tags
// supplied at insert time, producing the immutable set the component
// carries for its whole lifetime (invariant C2).
func MergeTags(k Kind, instanceTags ...string) map[string]struct{} {
	base := k.Tags()
	out := make(map[string]struct{}, len(base)+len(instanceTags))
	for t := range base {
		out[t] = struct{}{}
	}
	for _, t := range instanceTags {
		out[t] = struct{}{}
	}
	return out
}

// HasAllTags reports whether tagSet contains every tag in want (AND
// semantics, as required by spec §4.2's tag-indexed listings).
func HasAllTags(tagSet map[string]struct{}, want []string) bool {
	for _, w := range want {
		if _, ok := tagSet[w]; !ok {
			return false
		}
	}
	return true
}
