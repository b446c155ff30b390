// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

package store

import (
	sq "github.com/Masterminds/squirrel"
)

const (
	upsertEntry = `
		INSERT INTO entries (key, namespace, id, payload, synced, last_modified)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (key) DO UPDATE SET
			payload       = excluded.payload,
			synced        = 0,
			last_modified = excluded.last_modified;`

	getEntry = `
		SELECT payload
		FROM entries
		WHERE key = $1;`

	deleteEntry = `
		DELETE FROM entries
		WHERE key = $1;`

	markEntrySynced = `
		UPDATE entries
		SET synced = 1
		WHERE key = $1;`

	getAllEntries = `
		SELECT namespace, id, payload, synced, last_modified
		FROM entries
		ORDER BY key;`

	replaceEntryPayload = `
		UPDATE entries
		SET payload = $1, last_modified = $2
		WHERE key = $3;`

	upsertMeta = `
		INSERT INTO meta (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`

	getMeta = `
		SELECT value
		FROM meta
		WHERE key = $1;`
)

// buildTableScan builds the prefix range scan over a virtual table. The key
// space is ordered, so the half-open bound pair selects exactly the table's
// entries.
func buildTableScan(table Table) (string, []any, error) {
	prefix, end := table.keyPrefix()

	return sq.Select("id", "payload").
		From("entries").
		Where(sq.GtOrEq{"key": prefix}).
		Where(sq.Lt{"key": end}).
		OrderBy("key ASC").
		ToSql()
}

// buildTableDelete builds the bulk delete over the same prefix range.
func buildTableDelete(table Table) (string, []any, error) {
	prefix, end := table.keyPrefix()

	return sq.Delete("entries").
		Where(sq.GtOrEq{"key": prefix}).
		Where(sq.Lt{"key": end}).
		ToSql()
}
