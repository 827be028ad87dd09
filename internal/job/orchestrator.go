// Package job defines the Orchestrator interface and job-related types.
package job

import "context"

// Orchestrator defines the interface for the cluster backend that runs jobs.
//
// # State Management
//
// The Orchestrator is the SOURCE OF TRUTH for job state. This service never
// persists or caches job state: every status query re-fetches from the
// cluster and re-derives the lifecycle state. Concurrent callers therefore
// observe no stale state, and the service can restart or scale horizontally
// without bookkeeping.
//
// # Error policy
//
// Transient API failures propagate unchanged to the caller; retry policy is
// a caller responsibility. The single exception is log retrieval, where a
// pod whose container has not started yet contributes a placeholder line
// instead of failing the whole aggregation.
type Orchestrator interface {
	// Schedule builds a manifest from the request and submits it.
	// Submitting a name that already exists fails; submission is not
	// idempotent.
	Schedule(ctx context.Context, req *Request) error

	// Info fetches the job and derives its current lifecycle snapshot.
	Info(ctx context.Context, name string) (*Info, error)

	// Logs concatenates the logs of every pod belonging to the job, in
	// listing order.
	Logs(ctx context.Context, name string) (string, error)

	// Remove deletes the job with a background cascade so dependent pods
	// are reclaimed asynchronously. Removing an absent job is a no-op.
	Remove(ctx context.Context, name string) error

	// RemovePod deletes a single pod directly.
	RemovePod(ctx context.Context, name string) error

	// RemoveStorageClaim deletes the storage claim derived from the job
	// name. This is a separate, explicit step; Remove never calls it.
	RemoveStorageClaim(ctx context.Context, jobID string) error

	// Ready checks that the cluster API server is reachable.
	Ready(ctx context.Context) error
}
