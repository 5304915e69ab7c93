//go:build !test && !debug

package main

import (
	"net/http"

	"github.com/ecspanse-go/ecspanse/pkg/ecsscheduler"
)

// registerDebugRoutes is a no-op in a release build: Scheduler.Inspect
// does not exist outside the test/debug build tags, so there is
// nothing to expose here.
func registerDebugRoutes(*http.ServeMux, *ecsscheduler.Scheduler) {}
