// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

// Package engine is the typed facade the UI layer talks to. It composes the
// vault, the durable store, the sync queue and the scheduler into the
// operations an app screen actually needs: unlock, put, get, query, submit,
// sync.
//
// Values cross this boundary as plain Go values; everything below it is
// ciphertext. The {namespace}:{id} address of a record doubles as the AEAD
// associated data, so a ciphertext moved to a different key fails
// authentication instead of decrypting in the wrong place.
package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/carelog/carelog/internal/logger"
	"github.com/carelog/carelog/internal/queue"
	"github.com/carelog/carelog/internal/scheduler"
	"github.com/carelog/carelog/internal/store"
	"github.com/carelog/carelog/internal/vault"
	"github.com/carelog/carelog/models"
)

// Meta keys for key-derivation material. The salt is stored plaintext:
// it is not secret, it only has to be stable.
const (
	metaSaltKey    = "kdf_salt"
	metaKeyVersion = "key_version"
)

// Engine is the single entry point for collaborators. Safe for concurrent
// use; the vault serializes key access internally.
type Engine struct {
	vault  *vault.Vault
	store  store.DurableStore
	queue  queue.Queue
	sync   Syncer
	tokens TokenSource
	log    *logger.Logger
}

// New wires the facade. All collaborators are constructed by the caller
// (see cmd/carelog).
func New(v *vault.Vault, st store.DurableStore, q queue.Queue, sync Syncer, tokens TokenSource, log *logger.Logger) *Engine {
	return &Engine{
		vault:  v,
		store:  st,
		queue:  q,
		sync:   sync,
		tokens: tokens,
		log:    log,
	}
}

// Unlock derives the session key from secret, loading the salt and key
// version from storage or minting them on first run.
//
// There is no stored secret-check value to compare against: a wrong secret
// "unlocks" but every subsequent read fails with [vault.ErrIntegrity],
// which leaks nothing about the real secret to an attacker with the
// database file.
func (e *Engine) Unlock(ctx context.Context, secret string) error {
	salt, version, err := e.loadOrCreateKeyMeta(ctx)
	if err != nil {
		return fmt.Errorf("load key metadata: %w", err)
	}

	return e.vault.Unlock(ctx, secret, salt, version)
}

// Lock discards the session key. Idempotent.
func (e *Engine) Lock() {
	e.vault.Lock()
}

// Status reports the vault session state.
func (e *Engine) Status() vault.Status {
	return e.vault.Status()
}

// Put JSON-encodes value, seals it under the session key and stores it
// durably at {namespace}:{id}. The write is atomic; on return the value
// survives process death.
func (e *Engine) Put(ctx context.Context, namespace, id string, value any) error {
	if namespace == "" || id == "" {
		return errors.New("namespace and id must be non-empty")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}

	rec, err := e.vault.Encrypt(data, recordAAD(namespace, id))
	if err != nil {
		return err
	}

	return e.store.Write(ctx, namespace, id, rec)
}

// Get loads {namespace}:{id}, decrypts it and decodes it into target.
// Returns [store.ErrNotFound] when absent and [vault.ErrIntegrity] when the
// record fails authentication; target is never partially filled from a
// failed decrypt.
func (e *Engine) Get(ctx context.Context, namespace, id string, target any) error {
	rec, err := e.store.Read(ctx, namespace, id)
	if err != nil {
		return err
	}

	plaintext, err := e.vault.Decrypt(rec, recordAAD(namespace, id))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(plaintext, target); err != nil {
		return fmt.Errorf("decode record %s: %w", recordAAD(namespace, id), err)
	}
	return nil
}

// Delete removes {namespace}:{id}. Deleting a missing record is a no-op.
func (e *Engine) Delete(ctx context.Context, namespace, id string) error {
	return e.store.Delete(ctx, namespace, id)
}

// MarkSynced flips the advisory synced flag on a record after its outbound
// operation succeeded.
func (e *Engine) MarkSynced(ctx context.Context, namespace, id string) error {
	return e.store.MarkSynced(ctx, namespace, id)
}

// QueryTable returns a decrypted snapshot of the named virtual table,
// ordered by row id. The snapshot is consistent as of the call.
func (e *Engine) QueryTable(ctx context.Context, table string) ([]Row, error) {
	tbl := store.Table(table)

	entries, err := e.store.QueryByTable(ctx, tbl)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(entries))
	for _, entry := range entries {
		plaintext, err := e.vault.Decrypt(entry.Payload, recordAAD(tbl.Namespace(), entry.ID))
		if err != nil {
			return nil, fmt.Errorf("row %s/%s: %w", table, entry.ID, err)
		}
		rows = append(rows, Row{ID: entry.ID, Data: json.RawMessage(plaintext)})
	}
	return rows, nil
}

// PutTable replaces the named virtual table's full contents in one
// transaction. rows maps row id to any JSON-encodable value.
func (e *Engine) PutTable(ctx context.Context, table string, rows map[string]any) error {
	tbl := store.Table(table)

	items := make(map[string]models.EncryptedRecord, len(rows))
	for id, value := range rows {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode row %s/%s: %w", table, id, err)
		}
		rec, err := e.vault.Encrypt(data, recordAAD(tbl.Namespace(), id))
		if err != nil {
			return err
		}
		items[id] = rec
	}

	return e.store.UpsertTable(ctx, tbl, items)
}

// DeleteTable removes the named virtual table in one transaction.
func (e *Engine) DeleteTable(ctx context.Context, table string) error {
	return e.store.DeleteTable(ctx, store.Table(table))
}

// Submit queues an outbound operation for eventual delivery and returns its
// queue id immediately. The replay guard validates the target before the
// item is accepted.
//
// A non-empty dedupeKey names the logical operation: a later Submit with
// the same key replaces the still-pending item instead of queueing a
// duplicate. Pass "" for operations that must all be delivered.
func (e *Engine) Submit(ctx context.Context, target, method string, body []byte, priority models.Priority, dedupeKey string) (string, error) {
	item := models.SyncQueueItem{
		Target:    target,
		Method:    method,
		Headers:   map[string]string{"Content-Type": "application/json"},
		Body:      body,
		Priority:  priority,
		Type:      "api_call",
		DedupeKey: dedupeKey,
	}
	return e.queue.Enqueue(ctx, item)
}

// SetAuthToken installs the bearer token attached to outbound deliveries,
// typically after the app shell completes a sign-in.
func (e *Engine) SetAuthToken(token string) {
	e.tokens.SetToken(token)
}

// AuthTokenExpiresAt reports the expiry of the installed bearer token for
// UI status indicators. Zero when no token is installed or the token
// carries no expiry.
func (e *Engine) AuthTokenExpiresAt() time.Time {
	return e.tokens.TokenExpiresAt()
}

// SyncNow drains the queue synchronously. This is the single manual-sync
// spelling; event sources go through [Engine.Notify].
func (e *Engine) SyncNow(ctx context.Context) error {
	return e.sync.SyncNow(ctx)
}

// Notify reports a connectivity or lifecycle event to the scheduler.
func (e *Engine) Notify(t scheduler.Trigger) {
	e.sync.Notify(t)
}

// PendingCount reports the number of queued outbound operations.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	return e.sync.PendingCount(ctx)
}

// LastDrainResult returns the outcome of the most recent drain pass, or nil
// before the first one.
func (e *Engine) LastDrainResult() *models.DrainResult {
	return e.sync.LastDrainResult()
}

// Rekey re-encrypts every stored record under a key derived from newSecret
// with a fresh salt, then swaps records and key metadata in a single
// transaction. Requires an unlocked vault.
//
// If the final swap fails the durable state is unchanged (still the old
// key) but the in-memory key has already rotated, so the vault is locked
// and the caller must unlock with the old secret again.
func (e *Engine) Rekey(ctx context.Context, newSecret string) error {
	if !e.vault.Status().Unlocked {
		return vault.ErrNotUnlocked
	}

	entries, err := e.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	// Read everything back under the old key before touching it.
	plaintexts := make([][]byte, len(entries))
	for i, entry := range entries {
		plaintext, err := e.vault.Decrypt(entry.Payload, recordAAD(entry.Namespace, entry.ID))
		if err != nil {
			return fmt.Errorf("record %s:%s: %w", entry.Namespace, entry.ID, err)
		}
		plaintexts[i] = plaintext
	}

	newSalt, err := e.vault.GenerateSalt()
	if err != nil {
		return err
	}

	newVersion, err := e.vault.Rotate(newSecret, newSalt)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		rec, err := e.vault.Encrypt(plaintexts[i], recordAAD(entry.Namespace, entry.ID))
		if err != nil {
			e.vault.Lock()
			return err
		}
		entries[i].Payload = rec
	}

	meta := map[string]string{
		metaSaltKey:    base64.StdEncoding.EncodeToString(newSalt),
		metaKeyVersion: strconv.Itoa(newVersion),
	}
	if err := e.store.ReplaceAll(ctx, entries, meta); err != nil {
		e.vault.Lock()
		return fmt.Errorf("swap re-keyed records: %w", err)
	}

	e.log.Info().Int("key_version", newVersion).Int("records", len(entries)).Msg("re-key complete")

	return nil
}

// loadOrCreateKeyMeta returns the persisted KDF salt and key version,
// minting and persisting fresh ones on first run.
func (e *Engine) loadOrCreateKeyMeta(ctx context.Context) ([]byte, int, error) {
	encoded, err := e.store.GetMeta(ctx, metaSaltKey)
	if errors.Is(err, store.ErrNotFound) {
		salt, err := e.vault.GenerateSalt()
		if err != nil {
			return nil, 0, err
		}
		if err := e.store.SetMeta(ctx, metaSaltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
			return nil, 0, err
		}
		if err := e.store.SetMeta(ctx, metaKeyVersion, "1"); err != nil {
			return nil, 0, err
		}
		return salt, 1, nil
	}
	if err != nil {
		return nil, 0, err
	}

	salt, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, 0, fmt.Errorf("stored salt is not base64: %w", err)
	}

	stored, err := e.store.GetMeta(ctx, metaKeyVersion)
	if err != nil {
		return nil, 0, err
	}
	version, err := strconv.Atoi(stored)
	if err != nil {
		return nil, 0, fmt.Errorf("stored key version %q: %w", stored, err)
	}

	return salt, version, nil
}

func recordAAD(namespace, id string) string {
	return namespace + ":" + id
}
