// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

package store

// Table names a logical collection emulated inside the single physical key
// space. A table's entries live under the namespace "table:{name}", so
// their composite keys ("table:{name}:{id}") are lexically range-queryable
// by prefix and adding a new table needs no schema migration.
type Table string

// Namespace returns the namespace the table's entries are stored under.
func (t Table) Namespace() string {
	return "table:" + string(t)
}

// keyPrefix returns the half-open key range [prefix, end) covering every
// entry of the table. The upper bound replaces the trailing ':' (0x3a) with
// ';' (0x3b), the next byte value.
func (t Table) keyPrefix() (prefix, end string) {
	prefix = t.Namespace() + ":"
	end = t.Namespace() + ";"
	return prefix, end
}

// entryKey builds the composite physical key for an entry.
func entryKey(namespace, id string) string {
	return namespace + ":" + id
}
