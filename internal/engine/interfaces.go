package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/carelog/carelog/internal/scheduler"
	"github.com/carelog/carelog/models"
)

// Syncer is the scheduler surface the engine forwards to. It is an
// interface so facade tests can run without a drain loop.
type Syncer interface {
	SyncNow(ctx context.Context) error
	Notify(t scheduler.Trigger)
	LastDrainResult() *models.DrainResult
	PendingCount(ctx context.Context) (int, error)
}

// TokenSource holds the bearer token attached to outbound deliveries. The
// remote HTTP sender implements it.
type TokenSource interface {
	SetToken(token string)
	TokenExpiresAt() time.Time
}

// Row is one decrypted virtual-table row.
type Row struct {
	ID   string
	Data json.RawMessage
}
