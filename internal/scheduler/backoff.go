// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

package scheduler

import "time"

const maxBackoff = 30 * time.Minute

// openingSchedule covers the first retries; past it the last step doubles
// per retry until maxBackoff.
var openingSchedule = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	2 * time.Minute,
}

// Backoff returns the delay before the next attempt for the given retry
// count (1 for the first retry). The delay is applied per item, so one slow
// item never holds back the rest of the queue.
func Backoff(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	if retry <= len(openingSchedule) {
		return openingSchedule[retry-1]
	}

	d := openingSchedule[len(openingSchedule)-1]
	for i := len(openingSchedule); i < retry; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
