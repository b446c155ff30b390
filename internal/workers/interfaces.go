// Package workers provides the aggregate that runs the engine's background
// workers (currently the sync scheduler) and waits for them to stop.
//
// A Worker blocks until its context is cancelled; the aggregate runs each
// one in its own goroutine and joins them on shutdown.
package workers

import "context"

// Worker is a long-running background task. Run blocks until ctx is
// cancelled and must return promptly afterwards.
type Worker interface {
	Run(ctx context.Context)
}
