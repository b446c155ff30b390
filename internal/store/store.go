// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

// Package store implements the durable document store beneath the carelog
// engine: a namespaced key space in SQLite with a byte-budgeted in-memory
// fast cache in front of it, plus a virtual-table convention that lets new
// logical collections appear without schema migrations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/carelog/carelog/internal/logger"
	"github.com/carelog/carelog/models"
)

type durableStore struct {
	db     *DB
	cache  Cache
	logger *logger.Logger
}

// New constructs a [DurableStore] over db with cache as its fast path.
func New(db *DB, cache Cache, log *logger.Logger) DurableStore {
	return &durableStore{
		db:     db,
		cache:  cache,
		logger: log,
	}
}

func (s *durableStore) Write(ctx context.Context, namespace, id string, rec models.EncryptedRecord) error {
	log := logger.FromContext(ctx)
	key := entryKey(namespace, id)

	// Fast path first, best-effort. A full cache must never block the
	// durable write.
	if err := s.cache.Set(key, rec); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("fast cache write skipped")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, upsertEntry, key, namespace, id, string(payload), time.Now().UTC())
	if err != nil {
		// The durable path failed: the cached copy would otherwise serve
		// a value that survives no restart.
		s.cache.Delete(key)
		log.Err(err).Str("key", key).Msg("durable write failed")
		return fmt.Errorf("durable write %s: %w", key, err)
	}

	return nil
}

func (s *durableStore) Read(ctx context.Context, namespace, id string) (models.EncryptedRecord, error) {
	log := logger.FromContext(ctx)
	key := entryKey(namespace, id)

	if rec, ok := s.cache.Get(key); ok {
		return rec, nil
	}

	var payload string
	err := s.db.QueryRowContext(ctx, getEntry, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EncryptedRecord{}, ErrNotFound
	}
	if err != nil {
		log.Err(err).Str("key", key).Msg("durable read failed")
		return models.EncryptedRecord{}, fmt.Errorf("durable read %s: %w", key, err)
	}

	var rec models.EncryptedRecord
	if err = json.Unmarshal([]byte(payload), &rec); err != nil {
		return models.EncryptedRecord{}, fmt.Errorf("decode payload for %s: %w", key, err)
	}

	if cacheErr := s.cache.Set(key, rec); cacheErr != nil {
		log.Warn().Err(cacheErr).Str("key", key).Msg("fast cache repopulate skipped")
	}

	return rec, nil
}

func (s *durableStore) Delete(ctx context.Context, namespace, id string) error {
	key := entryKey(namespace, id)
	s.cache.Delete(key)

	if _, err := s.db.ExecContext(ctx, deleteEntry, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *durableStore) MarkSynced(ctx context.Context, namespace, id string) error {
	key := entryKey(namespace, id)

	if _, err := s.db.ExecContext(ctx, markEntrySynced, key); err != nil {
		return fmt.Errorf("mark synced %s: %w", key, err)
	}
	return nil
}

func (s *durableStore) QueryByTable(ctx context.Context, table Table) ([]TableEntry, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildTableScan(table)
	if err != nil {
		return nil, fmt.Errorf("build table scan for %q: %w", table, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("table", string(table)).Msg("table scan failed")
		return nil, fmt.Errorf("scan table %q: %w", table, err)
	}
	defer rows.Close()

	var entries []TableEntry
	for rows.Next() {
		var (
			id      string
			payload string
		)
		if err = rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan table %q row: %w", table, err)
		}

		var rec models.EncryptedRecord
		if err = json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode table %q row %s: %w", table, id, err)
		}

		entries = append(entries, TableEntry{ID: id, Payload: rec})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table %q: %w", table, err)
	}

	return entries, nil
}

func (s *durableStore) DeleteTable(ctx context.Context, table Table) error {
	query, args, err := buildTableDelete(table)
	if err != nil {
		return fmt.Errorf("build table delete for %q: %w", table, err)
	}

	prefix, _ := table.keyPrefix()
	s.cache.DeletePrefix(prefix)

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete table %q: %w", table, err)
	}
	return nil
}

func (s *durableStore) UpsertTable(ctx context.Context, table Table, items map[string]models.EncryptedRecord) error {
	deleteQuery, deleteArgs, err := buildTableDelete(table)
	if err != nil {
		return fmt.Errorf("build table delete for %q: %w", table, err)
	}

	prefix, _ := table.keyPrefix()
	s.cache.DeletePrefix(prefix)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert table %q: %w", table, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("clear table %q: %w", table, err)
	}

	namespace := table.Namespace()
	now := time.Now().UTC()
	for id, rec := range items {
		payload, marshalErr := json.Marshal(rec)
		if marshalErr != nil {
			return fmt.Errorf("encode table %q row %s: %w", table, id, marshalErr)
		}

		key := entryKey(namespace, id)
		if _, err = tx.ExecContext(ctx, upsertEntry, key, namespace, id, string(payload), now); err != nil {
			return fmt.Errorf("upsert table %q row %s: %w", table, id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert table %q: %w", table, err)
	}
	return nil
}

func (s *durableStore) ListAll(ctx context.Context) ([]models.StoredEntry, error) {
	rows, err := s.db.QueryContext(ctx, getAllEntries)
	if err != nil {
		return nil, fmt.Errorf("list all entries: %w", err)
	}
	defer rows.Close()

	var entries []models.StoredEntry
	for rows.Next() {
		var (
			entry   models.StoredEntry
			payload string
		)
		if err = rows.Scan(&entry.Namespace, &entry.ID, &payload, &entry.Synced, &entry.LastModified); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		if err = json.Unmarshal([]byte(payload), &entry.Payload); err != nil {
			return nil, fmt.Errorf("decode entry %s:%s: %w", entry.Namespace, entry.ID, err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

func (s *durableStore) ReplaceAll(ctx context.Context, entries []models.StoredEntry, meta map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace all: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, entry := range entries {
		payload, marshalErr := json.Marshal(entry.Payload)
		if marshalErr != nil {
			return fmt.Errorf("encode entry %s:%s: %w", entry.Namespace, entry.ID, marshalErr)
		}

		key := entryKey(entry.Namespace, entry.ID)
		if _, err = tx.ExecContext(ctx, replaceEntryPayload, string(payload), now, key); err != nil {
			return fmt.Errorf("replace entry %s: %w", key, err)
		}
	}

	for key, value := range meta {
		if _, err = tx.ExecContext(ctx, upsertMeta, key, value); err != nil {
			return fmt.Errorf("replace meta %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace all: %w", err)
	}

	// Cached payloads are stale after a re-key; drop everything.
	s.cache.DeletePrefix("")

	return nil
}

func (s *durableStore) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, getMeta, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

func (s *durableStore) SetMeta(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertMeta, key, value); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}
