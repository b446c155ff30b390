package models

import "time"

// FailureClass tells the queue how to treat a failed delivery attempt.
type FailureClass int

const (
	// FailureRetryable marks transient failures: the item is rescheduled
	// with backoff until its retry budget is exhausted.
	FailureRetryable FailureClass = iota

	// FailureTerminal marks permanent failures: the item is removed and a
	// terminal-failure event is reported once.
	FailureTerminal
)

func (c FailureClass) String() string {
	if c == FailureTerminal {
		return "terminal"
	}
	return "retryable"
}

// DrainResult summarises one drain pass over the sync queue. It is exposed
// read-only through diagnostics for UI status indicators.
type DrainResult struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Attempted is the number of due items the pass tried to deliver.
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`

	// Rescheduled counts retryable failures put back with backoff.
	Rescheduled int `json:"rescheduled"`

	// Failed counts items removed after a terminal failure or an exhausted
	// retry budget.
	Failed int `json:"failed"`

	// Rejected counts items the replay guard refused to send.
	Rejected int `json:"rejected"`

	// Err is set when the pass aborted early (e.g. queue read failure).
	Err string `json:"err,omitempty"`
}

// TerminalFailure is emitted exactly once when an item leaves the queue
// without succeeding, so the UI can surface it instead of losing it quietly.
type TerminalFailure struct {
	Item   SyncQueueItem
	Reason string
}
