// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

package queue

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

const (
	insertItem = `
		INSERT INTO sync_queue (
			id,
			target,
			method,
			headers,
			body,
			priority,
			retry_count,
			type,
			dedupe_key,
			enqueued_at,
			next_attempt_at,
			metadata
		) VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10, $11)
		ON CONFLICT (dedupe_key) WHERE dedupe_key IS NOT NULL DO UPDATE SET
			id              = excluded.id,
			target          = excluded.target,
			method          = excluded.method,
			headers         = excluded.headers,
			body            = excluded.body,
			priority        = excluded.priority,
			retry_count     = 0,
			type            = excluded.type,
			next_attempt_at = excluded.next_attempt_at,
			metadata        = excluded.metadata;`

	getItem = `
		SELECT seq, id, target, method, headers, body, priority, retry_count,
		       type, dedupe_key, enqueued_at, next_attempt_at, metadata
		FROM sync_queue
		WHERE id = $1;`

	deleteItem = `
		DELETE FROM sync_queue
		WHERE id = $1;`

	rescheduleItem = `
		UPDATE sync_queue
		SET retry_count = retry_count + 1, next_attempt_at = $1
		WHERE id = $2;`

	countItems = `
		SELECT COUNT(*) FROM sync_queue;`
)

const itemColumns = "seq, id, target, method, headers, body, priority, retry_count, " +
	"type, dedupe_key, enqueued_at, next_attempt_at, metadata"

// drainOrder is the ordering contract of the queue.
var drainOrder = []string{"priority DESC", "enqueued_at ASC", "seq ASC"}

// buildDequeue builds the full ordered listing.
func buildDequeue() (string, []any, error) {
	return sq.Select(itemColumns).
		From("sync_queue").
		OrderBy(drainOrder...).
		ToSql()
}

// buildDequeueDue builds the ordered listing restricted to items whose next
// attempt time has passed.
func buildDequeueDue(now time.Time) (string, []any, error) {
	return sq.Select(itemColumns).
		From("sync_queue").
		Where(sq.LtOrEq{"next_attempt_at": now}).
		OrderBy(drainOrder...).
		ToSql()
}
