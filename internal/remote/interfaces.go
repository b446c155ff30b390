package remote

import (
	"context"

	"github.com/carelog/carelog/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_mock.go -package=mock

// Result is the definitive outcome of a delivery attempt.
type Result struct {
	StatusCode int
	Body       []byte
}

// Sender delivers one queued operation to the first-party endpoint. headers
// is the already-filtered allowlisted set; implementations must not add
// anything from item.Headers on their own.
//
// A returned error means no definitive response was obtained (transport
// failure, timeout, cancellation); the caller decides whether the attempt
// counts against the item's retry budget.
type Sender interface {
	Send(ctx context.Context, item models.SyncQueueItem, headers map[string]string) (*Result, error)
}
