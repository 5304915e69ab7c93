package ecsprojection

import (
	"context"
	"sync"
)

// Actor is the scheduler-facing face of a registered *Projection[A, T]
// for any A, T — erasing the type parameters the same way
// ecsstate.Module erases a Machine's state type, so a Registry can
// hold a heterogeneous list of projections.
type Actor interface {
	update(ctx context.Context, frame uint64)
	stop()
}

// Registry holds every projection a host registered and refreshes
// them all, concurrently, once per frame. A *Registry satisfies
// pkg/ecsscheduler's ProjectionUpdater and is passed as
// ecsscheduler.Config.Projections.
type Registry struct {
	mu     sync.Mutex
	actors []Actor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a projection actor to the registry. Call once per
// projection, after NewProjection.
func (r *Registry) Register(a Actor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors = append(r.actors, a)
}

// UpdateAll runs one Update call against every registered projection,
// concurrently, and returns once they have all completed (spec §4.6:
// "a dedicated task started at frame boundary calls update on all
// projection actors in parallel"). The scheduler awaits this call as
// part of its per-frame completion gate.
func (r *Registry) UpdateAll(ctx context.Context, frame uint64) {
	r.mu.Lock()
	actors := make([]Actor, len(r.actors))
	copy(actors, r.actors)
	r.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(actors))
	for _, a := range actors {
		a := a
		go func() {
			defer wg.Done()
			a.update(ctx, frame)
		}()
	}
	wg.Wait()
}

// StopAll stops every registered projection's actor goroutine. Call
// during shutdown, after the scheduler has stopped calling UpdateAll.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actors {
		a.stop()
	}
}
