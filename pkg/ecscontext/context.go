package ecscontext

import (
	"context"

	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// ExecutionMode records whether a system runs synchronously (startup,
// frame-start, frame-end, shutdown) or asynchronously inside a batch.
// Resource CUD and ignoring locked-components declarations are gated
// on this (spec §4.3 step 2).
type ExecutionMode uint8

const (
	Sync ExecutionMode = iota
	Async
)

func (m ExecutionMode) String() string {
	if m == Sync {
		return "sync"
	}
	return "async"
}

// LockedType names one lockable unit: a component kind, optionally
// qualified by a discriminating tag so two systems touching the same
// component kind on disjoint, tag-partitioned entity populations can
// still run in the same batch (spec §4.3 "tag-indexed fast locking").
type LockedType struct {
	Kind ecstypes.Kind
	Tag  string // empty means "the whole kind, untagged"
}

// Conflicts reports whether two LockedTypes would race on the same
// rows: same kind and (either side untagged, or same tag).
func (l LockedType) Conflicts(other LockedType) bool {
	if l.Kind != other.Kind {
		return false
	}
	if l.Tag == "" || other.Tag == "" {
		return true
	}
	return l.Tag == other.Tag
}

// SystemContext is the explicit, immutable descriptor a system's
// ambient execution context carries into every Query/Command call.
// It replaces the source's process-dictionary-as-context design
// (spec §9): construct one per system invocation and pass it in, never
// reach for global/thread-local state as the source of truth.
type SystemContext struct {
	SystemName string
	Mode       ExecutionMode
	Locked     []LockedType
	Frame      uint64
	// TestElevated marks a context manufactured by the debug/test
	// surface (spec §6) rather than by the scheduler; such contexts
	// are only constructible from test/dev builds.
	TestElevated bool
}

// LocksKind reports whether sc declares k among its locked component
// types, whether that lock is tagged or untagged.
func (sc SystemContext) LocksKind(k ecstypes.Kind) bool {
	for _, l := range sc.Locked {
		if l.Kind == k {
			return true
		}
	}
	return false
}

// LocksExact reports whether any lock sc declares conflicts with the
// (kind, tag) pair: the same tag, or an untagged lock on that kind.
func (sc SystemContext) LocksExact(k ecstypes.Kind, tag string) bool {
	want := LockedType{Kind: k, Tag: tag}
	for _, l := range sc.Locked {
		if l.Conflicts(want) {
			return true
		}
	}
	return false
}

type ctxKey struct{}

// WithSystemContext returns a context carrying sc, for code that
// prefers ambient retrieval over threading SystemContext explicitly
// (spec §9: "a concession to ergonomics, never as the source of
// truth" — every Command/Query function still accepts sc explicitly
// as its primary parameter).
func WithSystemContext(ctx context.Context, sc SystemContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, sc)
}

// FromContext retrieves a SystemContext stashed by WithSystemContext.
func FromContext(ctx context.Context) (SystemContext, bool) {
	sc, ok := ctx.Value(ctxKey{}).(SystemContext)
	return sc, ok
}
