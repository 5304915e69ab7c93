//go:build test || debug

package ecscontext

import (
	"context"
	"testing"
)

// WithSystem returns a context carrying a synchronous SystemContext
// for name, as if a system called name were running outside a
// scheduler-driven frame. Available only under the test/debug build
// tags; production code threads a real SystemContext through instead
// of reaching for this.
func WithSystem(ctx context.Context, name string) context.Context {
	return WithSystemContext(ctx, SystemContext{SystemName: name, Mode: Sync})
}

// ElevateForTest returns a background context carrying a
// TestElevated SystemContext named after the running test, for tests
// that need to call Query/Command functions without a Scheduler
// driving the frame loop.
func ElevateForTest(t *testing.T) context.Context {
	t.Helper()
	return WithSystemContext(context.Background(), SystemContext{
		SystemName:   "test:" + t.Name(),
		Mode:         Sync,
		TestElevated: true,
	})
}
