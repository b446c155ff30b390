// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

// Package remote delivers drained queue items to the first-party API over
// HTTP. It owns the bearer token attached to authorized requests; targets
// and headers are validated upstream by the replay guard.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/carelog/carelog/models"
)

// ClientConfig tunes the HTTP sender.
type ClientConfig struct {
	Timeout time.Duration
}

type httpSender struct {
	client *resty.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPSender constructs a [Sender] with the given per-attempt timeout.
func NewHTTPSender(cfg ClientConfig) *httpSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().SetTimeout(cfg.Timeout)

	return &httpSender{client: cli}
}

// SetToken installs the bearer token attached to requests whose filtered
// headers carry no Authorization value of their own.
func (h *httpSender) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token returns the currently installed bearer token.
func (h *httpSender) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// TokenExpiresAt reports the expiry of the installed token, parsed without
// signature verification (the engine is not the token's verifier, the
// server is). Returns the zero time when no token is installed or the token
// carries no expiry.
func (h *httpSender) TokenExpiresAt() time.Time {
	token := h.Token()
	if token == "" {
		return time.Time{}
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Send implements [Sender]. The request carries exactly the filtered
// headers passed in; item.Headers is never consulted here. When the
// filtered set has no Authorization header and a token is installed, the
// current bearer token is attached.
func (h *httpSender) Send(ctx context.Context, item models.SyncQueueItem, headers map[string]string) (*Result, error) {
	req := h.client.R().SetContext(ctx)

	authSet := false
	for name, value := range headers {
		req.SetHeader(name, value)
		if http.CanonicalHeaderKey(name) == "Authorization" {
			authSet = true
		}
	}
	if !authSet {
		if token := h.Token(); token != "" {
			req.SetHeader("Authorization", "Bearer "+token)
		}
	}

	if len(item.Body) > 0 {
		req.SetBody(item.Body)
	}

	resp, err := req.Execute(item.Method, item.Target)
	if err != nil {
		return nil, fmt.Errorf("deliver %s %s: %w", item.Method, item.Target, err)
	}

	return &Result{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}
