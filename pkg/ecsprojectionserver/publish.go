package ecsprojectionserver

import "github.com/ecspanse-go/ecspanse/pkg/ecsprojection"

// Publisher returns an ecsprojection.OnChangeFunc that forwards every
// non-Halt result to srv under name, for subscribers of
// GET /projections/{name}/stream. Pass it as NewProjection's onChange
// argument, or chain it alongside other in-process OnChange logic.
func Publisher[A any, T any](srv *Server, name string) ecsprojection.OnChangeFunc[A, T] {
	return func(_ A, next, _ ecsprojection.Result[T]) {
		_ = srv.Publish(name, eventFrom(next))
	}
}

func eventFrom[T any](r ecsprojection.Result[T]) WireEvent {
	if v, ok := r.Value(); ok {
		return WireEvent{Status: "ok", Value: v}
	}
	if err, ok := r.Err(); ok {
		return WireEvent{Status: "error", Error: err.Error()}
	}
	return WireEvent{Status: "loading"}
}
