package store

import (
	"context"

	"github.com/carelog/carelog/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// TableEntry is one row of a virtual-table snapshot.
type TableEntry struct {
	ID      string
	Payload models.EncryptedRecord
}

// DurableStore persists encrypted records across process restarts, layering
// a synchronous fast cache over the durable SQLite path.
//
// Failure semantics: cache failures are logged and swallowed (durability is
// never compromised by cache unavailability); durable-path failures
// propagate to the caller. Every durable mutation is atomic, so a crash
// mid-write leaves either the old or the new value readable, never a torn
// one.
type DurableStore interface {
	// Write stores rec under {namespace}:{id}, resetting the synced flag
	// and bumping last_modified. The cache is updated best-effort first.
	Write(ctx context.Context, namespace, id string, rec models.EncryptedRecord) error

	// Read returns the record under {namespace}:{id}, preferring the fast
	// cache and repopulating it on a durable-path hit. Returns
	// [ErrNotFound] when absent.
	Read(ctx context.Context, namespace, id string) (models.EncryptedRecord, error)

	// Delete removes the entry physically. Deleting a missing entry is a
	// no-op.
	Delete(ctx context.Context, namespace, id string) error

	// MarkSynced flips the advisory synced flag. It is bookkeeping for
	// future reconciliation, not a store correctness invariant.
	MarkSynced(ctx context.Context, namespace, id string) error

	// QueryByTable returns a consistent-as-of-call snapshot of the table,
	// ordered by key. Re-invoking produces a fresh snapshot.
	QueryByTable(ctx context.Context, table Table) ([]TableEntry, error)

	// DeleteTable removes every entry of the table in one transaction.
	DeleteTable(ctx context.Context, table Table) error

	// UpsertTable replaces the table's full contents in one transaction
	// (full-table replace semantics for settings-like collections).
	UpsertTable(ctx context.Context, table Table, items map[string]models.EncryptedRecord) error

	// ListAll returns every stored entry across all namespaces. Used by
	// the re-key batch.
	ListAll(ctx context.Context) ([]models.StoredEntry, error)

	// ReplaceAll rewrites the given entries' payloads and the given meta
	// keys in a single transaction. It is the atomic swap at the end of a
	// re-key batch: either every record and the key metadata move to the
	// new key version together, or none do.
	ReplaceAll(ctx context.Context, entries []models.StoredEntry, meta map[string]string) error

	// GetMeta reads a plaintext metadata value (e.g. the KDF salt).
	// Returns [ErrNotFound] when the key is absent.
	GetMeta(ctx context.Context, key string) (string, error)

	// SetMeta writes a plaintext metadata value.
	SetMeta(ctx context.Context, key, value string) error
}
