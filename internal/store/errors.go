package store

import "errors"

var (
	// ErrNotFound is returned by reads when no entry exists under the
	// requested namespace and id.
	ErrNotFound = errors.New("entry not found")

	// ErrCacheQuota is returned by the fast cache when an entry would
	// exceed the configured byte quota. Callers treat it as advisory; the
	// durable path is the source of truth.
	ErrCacheQuota = errors.New("cache quota exceeded")
)
