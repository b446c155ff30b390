package queue

import (
	"context"
	"time"

	"github.com/carelog/carelog/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/queue_mock.go -package=mock

// Validator rejects unsafe items before they enter the queue. The replay
// guard implements it; it is injected so the queue is testable in
// isolation.
type Validator interface {
	Validate(item models.SyncQueueItem) error
}

// BackoffFunc maps a retry count (1 for the first retry) to the delay
// before the next attempt.
type BackoffFunc func(retry int) time.Duration

// Queue is the durable, ordered representation of pending outbound
// operations.
//
// Ordering contract: priority descending, then enqueue time ascending, then
// storage sequence ascending. The order is stable and reproducible from the
// same stored state.
type Queue interface {
	// Enqueue validates item and persists it, returning the assigned id.
	// Items carrying a dedupe key replace any active item with the same
	// key instead of accumulating duplicates.
	Enqueue(ctx context.Context, item models.SyncQueueItem) (string, error)

	// DequeueOrdered returns every pending item in drain order.
	DequeueOrdered(ctx context.Context) ([]models.SyncQueueItem, error)

	// DequeueDue returns, in drain order, the pending items whose next
	// attempt time has passed.
	DequeueDue(ctx context.Context, now time.Time) ([]models.SyncQueueItem, error)

	// MarkSucceeded removes the item after a definitive delivery.
	MarkSucceeded(ctx context.Context, id string) error

	// MarkFailed records a failed attempt. Retryable failures within the
	// retry budget increment the count and reschedule with backoff;
	// terminal failures and exhausted budgets remove the item and return
	// it as a TerminalFailure for the caller to report exactly once.
	MarkFailed(ctx context.Context, id string, class models.FailureClass, reason string) (*models.TerminalFailure, error)

	// PendingCount reports the number of items currently queued.
	PendingCount(ctx context.Context) (int, error)
}
