// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

package scheduler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carelog/carelog/internal/config"
	"github.com/carelog/carelog/internal/guard"
	"github.com/carelog/carelog/internal/logger"
	"github.com/carelog/carelog/internal/mock"
	"github.com/carelog/carelog/internal/queue"
	"github.com/carelog/carelog/internal/remote"
	"github.com/carelog/carelog/internal/store"
	"github.com/carelog/carelog/models"
)

func testSyncConfig(baseURL string) config.Sync {
	return config.Sync{
		BaseURL:        baseURL,
		APIPrefix:      "/api/",
		AllowedHeaders: []string{"Content-Type", "Accept", "Authorization"},
		MaxRetries:     3,
		RequestTimeout: 5 * time.Second,
		DrainInterval:  time.Hour,
	}
}

// terminalLog collects terminal-failure events for assertions.
type terminalLog struct {
	mu     sync.Mutex
	events []models.TerminalFailure
}

func (l *terminalLog) record(tf models.TerminalFailure) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, tf)
}

func (l *terminalLog) all() []models.TerminalFailure {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.TerminalFailure(nil), l.events...)
}

// permissiveValidator lets anything into the queue, so tests can stage
// items the replay guard must later refuse to send.
type permissiveValidator struct{}

func (permissiveValidator) Validate(models.SyncQueueItem) error { return nil }

type schedEnv struct {
	sched  *Scheduler
	queue  queue.Queue
	events *terminalLog
}

func newSchedEnv(t *testing.T, cfg config.Sync, sender remote.Sender, enqueueValidator queue.Validator, backoff queue.BackoffFunc) *schedEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "carelog.db")
	db, err := store.Open(context.Background(), config.Storage{DSN: dsn}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	g, err := guard.New(cfg)
	require.NoError(t, err)

	if enqueueValidator == nil {
		enqueueValidator = g
	}
	if backoff == nil {
		backoff = Backoff
	}

	q := queue.New(db, enqueueValidator, backoff, cfg.MaxRetries, logger.Nop())

	events := &terminalLog{}
	sched := New(q, g, sender, cfg, events.record, logger.Nop())

	return &schedEnv{sched: sched, queue: q, events: events}
}

func queuedItem(target string, priority models.Priority) models.SyncQueueItem {
	return models.SyncQueueItem{
		Target:   target,
		Method:   http.MethodPost,
		Headers:  map[string]string{"Content-Type": "application/json"},
		Body:     []byte(`{"entries":[1]}`),
		Priority: priority,
		Type:     "export",
	}
}

func TestScheduler_DrainDeliversAllDueItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testSyncConfig("https://api.carelog.app")
	sender := mock.NewMockSender(ctrl)
	sender.EXPECT().
		Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&remote.Result{StatusCode: http.StatusOK}, nil).
		Times(2)

	env := newSchedEnv(t, cfg, sender, nil, nil)
	ctx := context.Background()

	_, err := env.queue.Enqueue(ctx, queuedItem("https://api.carelog.app/api/export", models.PriorityHigh))
	require.NoError(t, err)
	_, err = env.queue.Enqueue(ctx, queuedItem("https://api.carelog.app/api/export", models.PriorityLow))
	require.NoError(t, err)

	require.NoError(t, env.sched.SyncNow(ctx))

	res := env.sched.LastDrainResult()
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Attempted)
	assert.Equal(t, 2, res.Succeeded)
	assert.Zero(t, res.Rescheduled)
	assert.Zero(t, res.Failed)
	assert.Zero(t, res.Rejected)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))

	pending, err := env.sched.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Empty(t, env.events.all())
}

func TestScheduler_RetryableResponseReschedulesWithBackoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testSyncConfig("https://api.carelog.app")
	sender := mock.NewMockSender(ctrl)
	sender.EXPECT().
		Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&remote.Result{StatusCode: http.StatusServiceUnavailable}, nil)

	env := newSchedEnv(t, cfg, sender, nil, nil)
	ctx := context.Background()

	_, err := env.queue.Enqueue(ctx, queuedItem("https://api.carelog.app/api/export", models.PriorityMedium))
	require.NoError(t, err)

	require.NoError(t, env.sched.SyncNow(ctx))

	res := env.sched.LastDrainResult()
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Attempted)
	assert.Equal(t, 1, res.Rescheduled)
	assert.Zero(t, res.Failed)

	// Still queued, but its first-retry backoff keeps it off the next
	// pass until 10s have elapsed.
	pending, err := env.sched.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	due, err := env.queue.DequeueDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = env.queue.DequeueDue(ctx, time.Now().Add(11*time.Second))
	require.NoError(t, err)
	assert.Len(t, due, 1)
	assert.Equal(t, 1, due[0].RetryCount)
}

func TestScheduler_TransportErrorIsRetryable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testSyncConfig("https://api.carelog.app")
	sender := mock.NewMockSender(ctrl)
	sender.EXPECT().
		Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, io.ErrUnexpectedEOF)

	env := newSchedEnv(t, cfg, sender, nil, nil)
	ctx := context.Background()

	_, err := env.queue.Enqueue(ctx, queuedItem("https://api.carelog.app/api/export", models.PriorityMedium))
	require.NoError(t, err)

	require.NoError(t, env.sched.SyncNow(ctx))

	res := env.sched.LastDrainResult()
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Attempted)
	assert.Equal(t, 1, res.Rescheduled)
	assert.Empty(t, env.events.all())
}

func TestScheduler_TerminalResponseRemovesAndReportsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testSyncConfig("https://api.carelog.app")
	sender := mock.NewMockSender(ctrl)
	sender.EXPECT().
		Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&remote.Result{StatusCode: http.StatusUnprocessableEntity}, nil)

	env := newSchedEnv(t, cfg, sender, nil, nil)
	ctx := context.Background()

	id, err := env.queue.Enqueue(ctx, queuedItem("https://api.carelog.app/api/export", models.PriorityHigh))
	require.NoError(t, err)

	require.NoError(t, env.sched.SyncNow(ctx))

	res := env.sched.LastDrainResult()
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Failed)

	pending, err := env.sched.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	events := env.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].Item.ID)
	assert.Contains(t, events[0].Reason, http.StatusText(http.StatusUnprocessableEntity))

	// A later pass must not resurrect or re-report it.
	require.NoError(t, env.sched.SyncNow(ctx))
	assert.Len(t, env.events.all(), 1)
}

func TestScheduler_RetryBudgetExhaustionIsTerminal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testSyncConfig("https://api.carelog.app")
	cfg.MaxRetries = 1

	sender := mock.NewMockSender(ctrl)
	sender.EXPECT().
		Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&remote.Result{StatusCode: http.StatusInternalServerError}, nil).
		Times(2)

	// Zero backoff so the rescheduled item is due on the second pass.
	env := newSchedEnv(t, cfg, sender, nil, func(int) time.Duration { return 0 })
	ctx := context.Background()

	id, err := env.queue.Enqueue(ctx, queuedItem("https://api.carelog.app/api/export", models.PriorityHigh))
	require.NoError(t, err)

	require.NoError(t, env.sched.SyncNow(ctx))
	assert.Equal(t, 1, env.sched.LastDrainResult().Rescheduled)

	require.NoError(t, env.sched.SyncNow(ctx))
	assert.Equal(t, 1, env.sched.LastDrainResult().Failed)

	events := env.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].Item.ID)

	pending, err := env.sched.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestScheduler_ReplayGuardRejectsStoredItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testSyncConfig("https://api.carelog.app")
	sender := mock.NewMockSender(ctrl)
	// The guard must refuse before any network attempt happens.
	sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// The permissive validator stands in for an item enqueued before a
	// guard configuration change: it is stored, but no longer sendable.
	env := newSchedEnv(t, cfg, sender, permissiveValidator{}, nil)
	ctx := context.Background()

	id, err := env.queue.Enqueue(ctx, queuedItem("https://evil.example.com/api/export", models.PriorityHigh))
	require.NoError(t, err)

	require.NoError(t, env.sched.SyncNow(ctx))

	res := env.sched.LastDrainResult()
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Rejected)
	assert.Zero(t, res.Attempted)

	pending, err := env.sched.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	events := env.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].Item.ID)
}

func TestScheduler_CancellationLeavesItemUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testSyncConfig("https://api.carelog.app")
	ctx, cancel := context.WithCancel(context.Background())

	sender := mock.NewMockSender(ctrl)
	sender.EXPECT().
		Send(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(sendCtx context.Context, _ models.SyncQueueItem, _ map[string]string) (*remote.Result, error) {
			cancel()
			<-sendCtx.Done()
			return nil, sendCtx.Err()
		})

	env := newSchedEnv(t, cfg, sender, nil, nil)

	_, err := env.queue.Enqueue(context.Background(), queuedItem("https://api.carelog.app/api/export", models.PriorityHigh))
	require.NoError(t, err)

	require.Error(t, env.sched.SyncNow(ctx))

	res := env.sched.LastDrainResult()
	require.NotNil(t, res)
	assert.Zero(t, res.Attempted)
	assert.NotEmpty(t, res.Err)

	// No retry consumed, no backoff applied: the item is still due.
	due, err := env.queue.DequeueDue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Zero(t, due[0].RetryCount)
}

func TestScheduler_NotifyTriggersDrain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testSyncConfig("https://api.carelog.app")
	sender := mock.NewMockSender(ctrl)
	sender.EXPECT().
		Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&remote.Result{StatusCode: http.StatusOK}, nil)

	env := newSchedEnv(t, cfg, sender, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := env.queue.Enqueue(ctx, queuedItem("https://api.carelog.app/api/export", models.PriorityHigh))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.sched.Run(ctx)
	}()

	env.sched.Notify(TriggerOnline)

	require.Eventually(t, func() bool {
		res := env.sched.LastDrainResult()
		return res != nil && res.Succeeded == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

// End-to-end over a real HTTP hop: real queue, real guard, real resty
// sender, fake first-party API.
func TestScheduler_DrainOverHTTP(t *testing.T) {
	var (
		mu       sync.Mutex
		gotAuth  string
		gotExtra string
		gotBody  []byte
	)

	r := chi.NewRouter()
	r.Post("/api/export", func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotAuth = req.Header.Get("Authorization")
		gotExtra = req.Header.Get("X-Internal-Debug")
		gotBody, _ = io.ReadAll(req.Body)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	cfg := testSyncConfig(srv.URL)
	sender := remote.NewHTTPSender(remote.ClientConfig{Timeout: cfg.RequestTimeout})
	sender.SetToken("session-token")

	env := newSchedEnv(t, cfg, sender, nil, nil)
	ctx := context.Background()

	item := queuedItem(srv.URL+"/api/export", models.PriorityHigh)
	// Not on the allowlist; must be stripped at replay.
	item.Headers["X-Internal-Debug"] = "1"

	_, err := env.queue.Enqueue(ctx, item)
	require.NoError(t, err)

	require.NoError(t, env.sched.SyncNow(ctx))

	res := env.sched.LastDrainResult()
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Succeeded)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer session-token", gotAuth)
	assert.Empty(t, gotExtra)
	assert.Equal(t, []byte(`{"entries":[1]}`), gotBody)
}

func TestScheduler_QueueReadFailureAbortsDrain(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := mock.NewMockQueue(ctrl)
	q.EXPECT().
		DequeueDue(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("database is locked"))

	cfg := testSyncConfig("https://api.carelog.app")
	g, err := guard.New(cfg)
	require.NoError(t, err)

	sched := New(q, g, mock.NewMockSender(ctrl), cfg, nil, logger.Nop())

	err = sched.SyncNow(context.Background())
	require.ErrorContains(t, err, "database is locked")

	res := sched.LastDrainResult()
	require.NotNil(t, res)
	assert.Equal(t, "database is locked", res.Err)
	assert.Zero(t, res.Attempted)
}
