// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

// Package scheduler decides when the sync queue is drained and performs the
// drain itself: replay-guard re-validation, delivery through the remote
// sender, response classification, and per-item backoff bookkeeping.
package scheduler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/carelog/carelog/internal/config"
	"github.com/carelog/carelog/internal/guard"
	"github.com/carelog/carelog/internal/logger"
	"github.com/carelog/carelog/internal/queue"
	"github.com/carelog/carelog/internal/remote"
	"github.com/carelog/carelog/models"
)

// Trigger names the event that caused a drain pass.
type Trigger string

const (
	// TriggerOnline fires when connectivity is restored.
	TriggerOnline Trigger = "online"
	// TriggerForeground fires when the app returns to the foreground.
	TriggerForeground Trigger = "foreground"
	// TriggerTimer is the coarse periodic safeguard.
	TriggerTimer Trigger = "timer"
	// TriggerManual is a user-initiated sync.
	TriggerManual Trigger = "manual"
)

// TerminalFunc receives every item that leaves the queue without
// succeeding. It is called exactly once per item, from the drain goroutine.
type TerminalFunc func(models.TerminalFailure)

// Scheduler owns the drain loop. All triggers funnel into the same pass;
// concurrent triggers coalesce rather than stacking passes.
type Scheduler struct {
	queue  queue.Queue
	guard  *guard.Guard
	sender remote.Sender
	log    *logger.Logger

	interval       time.Duration
	attemptTimeout time.Duration
	onTerminal     TerminalFunc

	triggers chan Trigger

	drainMu sync.Mutex

	mu   sync.RWMutex
	last *models.DrainResult
}

// New builds a Scheduler around the queue, the replay guard and the sender.
// onTerminal may be nil.
func New(q queue.Queue, g *guard.Guard, sender remote.Sender, cfg config.Sync, onTerminal TerminalFunc, log *logger.Logger) *Scheduler {
	return &Scheduler{
		queue:          q,
		guard:          g,
		sender:         sender,
		log:            log,
		interval:       cfg.DrainInterval,
		attemptTimeout: cfg.RequestTimeout,
		onTerminal:     onTerminal,
		triggers:       make(chan Trigger, 1),
	}
}

// Notify requests a drain pass for the given trigger. It never blocks; a
// trigger arriving while one is already pending is coalesced into it.
func (s *Scheduler) Notify(t Trigger) {
	select {
	case s.triggers <- t:
	default:
	}
}

// Run drains on triggers and on the safeguard timer until ctx is
// cancelled. It blocks; callers run it in a goroutine (see workers).
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drain(ctx, TriggerTimer)
		case t := <-s.triggers:
			s.drain(ctx, t)
		}
	}
}

// SyncNow runs a drain pass synchronously and reports whether it aborted.
// Per-item failures are not errors here; they are counted in the result.
func (s *Scheduler) SyncNow(ctx context.Context) error {
	res := s.drain(ctx, TriggerManual)
	if res.Err != "" {
		return errors.New(res.Err)
	}
	return nil
}

// LastDrainResult returns a copy of the most recent pass, or nil before the
// first one.
func (s *Scheduler) LastDrainResult() *models.DrainResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return nil
	}
	res := *s.last
	return &res
}

// PendingCount reports the number of items currently queued.
func (s *Scheduler) PendingCount(ctx context.Context) (int, error) {
	return s.queue.PendingCount(ctx)
}

// drain performs one pass over the due items in drain order. One pass runs
// at a time; cancellation mid-item leaves that item untouched.
func (s *Scheduler) drain(ctx context.Context, trigger Trigger) models.DrainResult {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	log := &logger.Logger{Logger: s.log.With().Str("trigger", string(trigger)).Logger()}
	res := models.DrainResult{StartedAt: time.Now()}

	items, err := s.queue.DequeueDue(ctx, time.Now())
	if err != nil {
		log.Err(err).Msg("drain aborted: queue read failed")
		res.Err = err.Error()
		return s.finish(res)
	}

	for _, item := range items {
		if ctx.Err() != nil {
			res.Err = ctx.Err().Error()
			break
		}

		// The item may predate a guard configuration change, or storage
		// may have been tampered with. Re-check before every send.
		if err := s.guard.Validate(item); err != nil {
			log.Warn().Err(err).Str("id", item.ID).Msg("replay guard rejected queued item")
			res.Rejected++
			s.remove(ctx, log, item.ID, models.FailureTerminal, err.Error(), nil)
			continue
		}

		headers := s.guard.FilterHeaders(item.Headers)

		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		result, sendErr := s.sender.Send(attemptCtx, item, headers)
		cancel()

		res.Attempted++

		if sendErr != nil {
			if ctx.Err() != nil {
				// Cancelled mid-item with no definitive response: the item
				// keeps its state and will be retried on the next pass.
				res.Attempted--
				res.Err = ctx.Err().Error()
				break
			}
			// Transport failure, per-attempt timeout included.
			s.remove(ctx, log, item.ID, models.FailureRetryable, sendErr.Error(), &res)
			continue
		}

		switch {
		case result.StatusCode >= 200 && result.StatusCode < 300:
			if err := s.queue.MarkSucceeded(ctx, item.ID); err != nil {
				log.Err(err).Str("id", item.ID).Msg("mark succeeded failed")
				continue
			}
			res.Succeeded++
		case retryableStatus(result.StatusCode):
			s.remove(ctx, log, item.ID, models.FailureRetryable, "server responded "+http.StatusText(result.StatusCode), &res)
		default:
			s.remove(ctx, log, item.ID, models.FailureTerminal, "server responded "+http.StatusText(result.StatusCode), &res)
		}
	}

	return s.finish(res)
}

// remove records a failed attempt with the queue and updates the pass
// counters. A nil res means the item is counted by the caller (guard
// rejections); the terminal event still fires exactly once.
func (s *Scheduler) remove(ctx context.Context, log *logger.Logger, id string, class models.FailureClass, reason string, res *models.DrainResult) {
	tf, err := s.queue.MarkFailed(ctx, id, class, reason)
	if err != nil {
		log.Err(err).Str("id", id).Msg("mark failed errored")
		return
	}

	if tf != nil {
		if res != nil {
			res.Failed++
		}
		if s.onTerminal != nil {
			s.onTerminal(*tf)
		}
		return
	}
	if res != nil {
		res.Rescheduled++
	}
}

func (s *Scheduler) finish(res models.DrainResult) models.DrainResult {
	res.FinishedAt = time.Now()

	s.mu.Lock()
	stored := res
	s.last = &stored
	s.mu.Unlock()

	s.log.Info().
		Int("attempted", res.Attempted).
		Int("succeeded", res.Succeeded).
		Int("rescheduled", res.Rescheduled).
		Int("failed", res.Failed).
		Int("rejected", res.Rejected).
		Msg("drain pass finished")

	return res
}

// retryableStatus reports whether an HTTP status is worth retrying:
// timeouts, rate limiting and server-side errors. Other 4xx responses mean
// the request itself is bad and will never succeed.
func retryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	}
	return false
}
