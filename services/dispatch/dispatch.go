package dispatch

import "context"

// Dispatcher is the job dispatch collaborator: it starts scrape runs on a
// remote executor. At-most-one-concurrent-run is the caller's duty: check
// IsRunInProgress before calling TriggerRun.
type Dispatcher interface {
	// TriggerRun asks the executor to start a scrape run
	TriggerRun(ctx context.Context) error

	// IsRunInProgress reports whether a run is currently executing
	IsRunInProgress(ctx context.Context) (bool, error)
}
