//go:build test || debug

package main

import (
	"encoding/json"
	"net/http"

	"github.com/ecspanse-go/ecspanse/pkg/ecsscheduler"
)

// registerDebugRoutes exposes Scheduler.Inspect over GET /debug/inspect
// as JSON. Only compiled into a test/debug build, matching the build
// tags Inspect itself is gated behind.
func registerDebugRoutes(mux *http.ServeMux, sched *ecsscheduler.Scheduler) {
	mux.HandleFunc("/debug/inspect", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sched.Inspect()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
