package models

import (
	"fmt"
	"time"
)

// Priority orders queue items during a drain. Higher priorities drain first;
// within one priority items drain in enqueue order.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank maps a priority to a sortable integer, larger meaning more urgent.
// Unknown values rank below low so a corrupted row never jumps the queue.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ParsePriority validates a stored priority string.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// SyncQueueItem is a pending outbound operation. It is untrusted input by
// the time it is replayed: the replay guard re-validates Target and strips
// non-allowlisted Headers immediately before every send, not only at
// enqueue time.
type SyncQueueItem struct {
	// ID is the caller-facing identifier assigned at enqueue.
	ID string `json:"id"`

	// Seq is the monotonically increasing storage sequence. It breaks ties
	// between items enqueued within the same clock tick.
	Seq int64 `json:"seq"`

	// Target is the absolute URL the operation will be sent to.
	Target string `json:"target"`

	// Method is the HTTP method of the queued operation.
	Method string `json:"method"`

	// Headers are the headers requested by the producer. Only allowlisted
	// headers survive replay.
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the opaque request payload.
	Body []byte `json:"body,omitempty"`

	Priority Priority `json:"priority"`

	// RetryCount is the number of failed delivery attempts so far.
	RetryCount int `json:"retry_count"`

	// Type labels the logical operation kind (e.g. "export").
	Type string `json:"type,omitempty"`

	// DedupeKey, when set, enforces at most one active item per logical
	// operation: a later enqueue with the same key replaces this item.
	DedupeKey string `json:"dedupe_key,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`

	// NextAttemptAt is the earliest time the scheduler may try this item
	// again. Zero means eligible immediately.
	NextAttemptAt time.Time `json:"next_attempt_at"`

	Metadata map[string]string `json:"metadata,omitempty"`
}
