// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

// Package guard implements the replay guard: the validation layer that
// decides whether a queued outbound operation is safe to send.
//
// A queue item is untrusted input by the time it is replayed. It may have
// been written days earlier by code that has since been patched, or altered
// in a compromised-storage scenario. The guard therefore runs twice per
// item: once at enqueue, and again immediately before every delivery
// attempt. The second check is deliberate defense in depth, not redundancy.
package guard

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/carelog/carelog/internal/config"
	"github.com/carelog/carelog/models"
)

// ValidationError reports why the guard rejected an item.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("replay guard rejected %s: %s", e.Field, e.Reason)
}

// Guard validates queued operations against the configured first-party
// origin, path prefix, and header allowlist.
type Guard struct {
	origin    *url.URL
	apiPrefix string
	allowed   map[string]struct{}
}

// New builds a Guard from the sync configuration. The base URL must carry a
// scheme and host; the API prefix must be absolute.
func New(cfg config.Sync) (*Guard, error) {
	origin, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("base url %q has no scheme or host", cfg.BaseURL)
	}
	if !strings.HasPrefix(cfg.APIPrefix, "/") {
		return nil, fmt.Errorf("api prefix %q is not absolute", cfg.APIPrefix)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedHeaders))
	for _, h := range cfg.AllowedHeaders {
		allowed[http.CanonicalHeaderKey(h)] = struct{}{}
	}

	return &Guard{
		origin:    origin,
		apiPrefix: cfg.APIPrefix,
		allowed:   allowed,
	}, nil
}

// Validate checks the item's method and target. Cross-origin targets and
// targets outside the API prefix are rejected outright.
func (g *Guard) Validate(item models.SyncQueueItem) error {
	switch item.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return &ValidationError{Field: "method", Reason: fmt.Sprintf("method %q not allowed", item.Method)}
	}

	target, err := url.Parse(item.Target)
	if err != nil {
		return &ValidationError{Field: "target", Reason: "target is not a valid URL"}
	}

	if !target.IsAbs() || target.Scheme != g.origin.Scheme || !strings.EqualFold(target.Host, g.origin.Host) {
		return &ValidationError{Field: "target", Reason: fmt.Sprintf("target %q is cross-origin", item.Target)}
	}

	// Dot segments would let the resolved path escape the prefix after
	// the check, so they are rejected outright rather than normalized.
	// target.Path is the decoded form, which also covers %2e encodings.
	if hasDotSegment(target.Path) || hasDotSegment(target.EscapedPath()) {
		return &ValidationError{Field: "target", Reason: fmt.Sprintf("path %q contains dot segments", target.Path)}
	}

	if !strings.HasPrefix(target.Path, g.apiPrefix) {
		return &ValidationError{Field: "target", Reason: fmt.Sprintf("path %q outside allowed prefix %q", target.Path, g.apiPrefix)}
	}

	return nil
}

// hasDotSegment reports whether any path segment is "." or ".." in plain or
// percent-encoded form.
func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		switch strings.ToLower(seg) {
		case ".", "..", "%2e", "%2e%2e", ".%2e", "%2e.":
			return true
		}
	}
	return false
}

// FilterHeaders returns only the allowlisted headers from headers, dropping
// everything else. A tampered queue entry cannot smuggle extra headers onto
// the wire.
func (g *Guard) FilterHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}

	filtered := make(map[string]string, len(headers))
	for name, value := range headers {
		if _, ok := g.allowed[http.CanonicalHeaderKey(name)]; ok {
			filtered[http.CanonicalHeaderKey(name)] = value
		}
	}

	if len(filtered) == 0 {
		return nil
	}
	return filtered
}
