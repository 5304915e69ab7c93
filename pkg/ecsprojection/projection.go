package ecsprojection

import (
	"context"
	"reflect"
	"sync"

	"github.com/ecspanse-go/ecspanse/pkg/ecsmetrics"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
)

// status names the tagged variant a projection's result carries (spec
// §4.6: "Loading | Ok(struct) | Error(value) | Halt").
type status uint8

const (
	statusLoading status = iota
	statusOk
	statusError
	statusHalt
)

// Result is the typed outcome of one projection evaluation.
type Result[T any] struct {
	status status
	value  T
	err    error
}

// Loading reports that the projection has not produced a value yet.
func Loading[T any]() Result[T] { return Result[T]{status: statusLoading} }

// Ok wraps a successfully computed value.
func Ok[T any](v T) Result[T] { return Result[T]{status: statusOk, value: v} }

// Errored wraps a failure encountered while computing the value.
func Errored[T any](err error) Result[T] { return Result[T]{status: statusError, err: err} }

// Halted tells the projection to keep its last non-halt result rather
// than publish anything new this frame.
func Halted[T any]() Result[T] { return Result[T]{status: statusHalt} }

func (r Result[T]) IsLoading() bool { return r.status == statusLoading }
func (r Result[T]) IsOk() bool      { return r.status == statusOk }
func (r Result[T]) IsError() bool   { return r.status == statusError }
func (r Result[T]) IsHalt() bool    { return r.status == statusHalt }

// Value returns the wrapped value and whether the result was Ok.
func (r Result[T]) Value() (T, bool) { return r.value, r.status == statusOk }

// Err returns the wrapped error and whether the result was Error.
func (r Result[T]) Err() (error, bool) { return r.err, r.status == statusError }

func (r Result[T]) equal(other Result[T]) bool {
	if r.status != other.status {
		return false
	}
	switch r.status {
	case statusOk:
		return reflect.DeepEqual(r.value, other.value)
	case statusError:
		if r.err == nil || other.err == nil {
			return r.err == other.err
		}
		return r.err.Error() == other.err.Error()
	default:
		return true
	}
}

// UpdateFunc computes a projection's result for one frame. It may run
// any Query against store; attrs is whatever the host parameterized
// the projection with at registration time.
type UpdateFunc[A any, T any] func(ctx context.Context, store *ecsstore.Store, attrs A) Result[T]

// OnChangeFunc fires after an Update call whose result is non-Halt and
// differs from the projection's previous result.
type OnChangeFunc[A any, T any] func(attrs A, next, previous Result[T])

type updateRequest struct {
	ctx   context.Context
	frame uint64
	done  chan struct{}
}

// Projection is one long-lived projection actor. Construct with
// NewProjection, then hand it to a Registry's Register so the
// scheduler's frame loop drives it.
type Projection[A any, T any] struct {
	name     string
	attrs    A
	store    *ecsstore.Store
	update   UpdateFunc[A, T]
	onChange OnChangeFunc[A, T]

	mu      sync.Mutex
	current Result[T]

	reqCh  chan updateRequest
	stopCh chan struct{}
}

// NewProjection starts a projection actor's goroutine and returns it
// in the Loading state. Register it with a Registry to have it
// refreshed once per frame.
func NewProjection[A any, T any](name string, store *ecsstore.Store, attrs A, update UpdateFunc[A, T], onChange OnChangeFunc[A, T]) *Projection[A, T] {
	p := &Projection[A, T]{
		name:     name,
		attrs:    attrs,
		store:    store,
		update:   update,
		onChange: onChange,
		current:  Loading[T](),
		reqCh:    make(chan updateRequest),
		stopCh:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Projection[A, T]) run() {
	for {
		select {
		case req := <-p.reqCh:
			p.step(req.ctx, req.frame)
			close(req.done)
		case <-p.stopCh:
			return
		}
	}
}

func (p *Projection[A, T]) step(ctx context.Context, frame uint64) {
	timer := ecsmetrics.NewTimer()
	next := p.update(ctx, p.store, p.attrs)
	timer.ObserveDuration(ecsmetrics.ProjectionEvalDuration.WithLabelValues(p.name))

	if next.IsHalt() {
		return
	}

	p.mu.Lock()
	previous := p.current
	changed := !previous.equal(next)
	p.current = next
	p.mu.Unlock()

	if changed && p.onChange != nil {
		p.onChange(p.attrs, next, previous)
	}
}

// Current returns the projection's most recently published result —
// the last non-Halt Update outcome, or Loading before the first.
func (p *Projection[A, T]) Current() Result[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Name reports the projection's registration name, used as the
// "projection" label on ecsmetrics.ProjectionEvalDuration.
func (p *Projection[A, T]) Name() string { return p.name }

// update blocks until one Update call has run and its result has been
// diffed and, if changed, published via OnChange. It is unexported so
// that only *Projection, declared in this package, can satisfy Actor;
// a Registry elsewhere can still hold and call already-satisfying
// values of the exported Actor type.
func (p *Projection[A, T]) update(ctx context.Context, frame uint64) {
	done := make(chan struct{})
	select {
	case p.reqCh <- updateRequest{ctx: ctx, frame: frame, done: done}:
		<-done
	case <-p.stopCh:
	}
}

func (p *Projection[A, T]) stop() {
	close(p.stopCh)
}

// Stop ends the projection's actor goroutine. Safe to call once; a
// Registry holding this projection will call it too (via Actor) when
// StopAll runs, so a projection registered with one should not also
// have Stop called directly.
func (p *Projection[A, T]) Stop() {
	p.stop()
}
