// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

// Package queue implements the durable sync queue: pending outbound
// operations persisted in SQLite and drained in a deterministic order.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/logger"
	"github.com/carelog/carelog/internal/store"
	"github.com/carelog/carelog/models"
)

// ErrItemNotFound is returned when marking an item that is no longer
// queued.
var ErrItemNotFound = errors.New("queue item not found")

type syncQueue struct {
	db        *store.DB
	validator Validator
	backoff   BackoffFunc
	maxRetry  int
	logger    *logger.Logger
}

// New constructs a [Queue] over db. validator is consulted at enqueue time;
// backoff and maxRetry govern rescheduling in MarkFailed.
func New(db *store.DB, validator Validator, backoff BackoffFunc, maxRetry int, log *logger.Logger) Queue {
	return &syncQueue{
		db:        db,
		validator: validator,
		backoff:   backoff,
		maxRetry:  maxRetry,
		logger:    log,
	}
}

func (q *syncQueue) Enqueue(ctx context.Context, item models.SyncQueueItem) (string, error) {
	log := logger.FromContext(ctx)

	if err := q.validator.Validate(item); err != nil {
		log.Warn().Err(err).Str("target", item.Target).Msg("enqueue rejected")
		return "", err
	}

	if _, err := models.ParsePriority(string(item.Priority)); err != nil {
		item.Priority = models.PriorityMedium
	}

	item.ID = uuid.NewString()
	now := time.Now().UTC()
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = now
	}
	if item.NextAttemptAt.IsZero() {
		item.NextAttemptAt = now
	}

	headers, err := json.Marshal(item.Headers)
	if err != nil {
		return "", fmt.Errorf("encode headers: %w", err)
	}
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	var dedupeKey any
	if item.DedupeKey != "" {
		dedupeKey = item.DedupeKey
	}

	_, err = q.db.ExecContext(ctx, insertItem,
		item.ID,
		item.Target,
		item.Method,
		string(headers),
		item.Body,
		item.Priority.Rank(),
		item.Type,
		dedupeKey,
		item.EnqueuedAt,
		item.NextAttemptAt,
		string(metadata),
	)
	if err != nil {
		log.Err(err).Str("target", item.Target).Msg("enqueue failed")
		return "", fmt.Errorf("enqueue item: %w", err)
	}

	return item.ID, nil
}

func (q *syncQueue) DequeueOrdered(ctx context.Context) ([]models.SyncQueueItem, error) {
	query, args, err := buildDequeue()
	if err != nil {
		return nil, fmt.Errorf("build dequeue query: %w", err)
	}
	return q.queryItems(ctx, query, args...)
}

func (q *syncQueue) DequeueDue(ctx context.Context, now time.Time) ([]models.SyncQueueItem, error) {
	query, args, err := buildDequeueDue(now.UTC())
	if err != nil {
		return nil, fmt.Errorf("build due query: %w", err)
	}
	return q.queryItems(ctx, query, args...)
}

func (q *syncQueue) MarkSucceeded(ctx context.Context, id string) error {
	if _, err := q.db.ExecContext(ctx, deleteItem, id); err != nil {
		return fmt.Errorf("remove succeeded item %s: %w", id, err)
	}
	return nil
}

func (q *syncQueue) MarkFailed(ctx context.Context, id string, class models.FailureClass, reason string) (*models.TerminalFailure, error) {
	log := logger.FromContext(ctx)

	item, err := q.getItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if class == models.FailureRetryable && item.RetryCount < q.maxRetry {
		retry := item.RetryCount + 1
		next := time.Now().UTC().Add(q.backoff(retry))

		if _, err = q.db.ExecContext(ctx, rescheduleItem, next, id); err != nil {
			return nil, fmt.Errorf("reschedule item %s: %w", id, err)
		}

		log.Debug().
			Str("id", id).
			Int("retry", retry).
			Time("next_attempt_at", next).
			Msg("queue item rescheduled")
		return nil, nil
	}

	if _, err = q.db.ExecContext(ctx, deleteItem, id); err != nil {
		return nil, fmt.Errorf("remove failed item %s: %w", id, err)
	}

	if class == models.FailureRetryable {
		reason = fmt.Sprintf("retry budget exhausted after %d attempts: %s", item.RetryCount+1, reason)
	}

	log.Warn().Str("id", id).Str("class", class.String()).Msg("queue item failed terminally")

	return &models.TerminalFailure{Item: item, Reason: reason}, nil
}

func (q *syncQueue) PendingCount(ctx context.Context) (int, error) {
	var count int
	if err := q.db.QueryRowContext(ctx, countItems).Scan(&count); err != nil {
		return 0, fmt.Errorf("count queue items: %w", err)
	}
	return count, nil
}

func (q *syncQueue) getItem(ctx context.Context, id string) (models.SyncQueueItem, error) {
	row := q.db.QueryRowContext(ctx, getItem, id)

	item, err := scanItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncQueueItem{}, ErrItemNotFound
	}
	if err != nil {
		return models.SyncQueueItem{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return item, nil
}

func (q *syncQueue) queryItems(ctx context.Context, query string, args ...any) ([]models.SyncQueueItem, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query queue items: %w", err)
	}
	defer rows.Close()

	var items []models.SyncQueueItem
	for rows.Next() {
		item, scanErr := scanItem(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan queue item: %w", scanErr)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue items: %w", err)
	}

	return items, nil
}

func scanItem(scan func(dest ...any) error) (models.SyncQueueItem, error) {
	var (
		item      models.SyncQueueItem
		headers   string
		metadata  string
		rank      int
		dedupeKey sql.NullString
	)

	err := scan(
		&item.Seq,
		&item.ID,
		&item.Target,
		&item.Method,
		&headers,
		&item.Body,
		&rank,
		&item.RetryCount,
		&item.Type,
		&dedupeKey,
		&item.EnqueuedAt,
		&item.NextAttemptAt,
		&metadata,
	)
	if err != nil {
		return models.SyncQueueItem{}, err
	}

	item.Priority = rankToPriority(rank)
	item.DedupeKey = dedupeKey.String

	if err = json.Unmarshal([]byte(headers), &item.Headers); err != nil {
		return models.SyncQueueItem{}, fmt.Errorf("decode headers: %w", err)
	}
	if err = json.Unmarshal([]byte(metadata), &item.Metadata); err != nil {
		return models.SyncQueueItem{}, fmt.Errorf("decode metadata: %w", err)
	}

	return item, nil
}

func rankToPriority(rank int) models.Priority {
	switch rank {
	case models.PriorityHigh.Rank():
		return models.PriorityHigh
	case models.PriorityMedium.Rank():
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
