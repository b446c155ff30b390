// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

package config

import (
	"net/url"
	"strings"
	"time"
)

// defaultAllowedHeaders is the replay-guard header allowlist applied when the
// deployment does not configure its own.
var defaultAllowedHeaders = []string{"Content-Type", "Accept", "Authorization"}

// applyDefaults fills unset fields of the merged config with the engine's
// operational defaults.
func applyDefaults(cfg *Config) {
	if cfg.Sync.APIPrefix == "" {
		cfg.Sync.APIPrefix = "/api/"
	}
	if len(cfg.Sync.AllowedHeaders) == 0 {
		cfg.Sync.AllowedHeaders = append([]string(nil), defaultAllowedHeaders...)
	}
	if cfg.Sync.MaxRetries == 0 {
		cfg.Sync.MaxRetries = 5
	}
	if cfg.Sync.RequestTimeout == 0 {
		cfg.Sync.RequestTimeout = 15 * time.Second
	}
	if cfg.Sync.DrainInterval == 0 {
		cfg.Sync.DrainInterval = 5 * time.Minute
	}
	if cfg.Storage.CacheMaxBytes == 0 {
		cfg.Storage.CacheMaxBytes = 8 << 20
	}
}

// validate checks that the final merged [Config] satisfies the engine's
// startup invariants.
func (cfg *Config) validate() error {
	if cfg.Storage.DSN == "" || isMemoryDSN(cfg.Storage.DSN) {
		return ErrInvalidStorageConfigs
	}

	if cfg.Sync.BaseURL == "" {
		return ErrInvalidSyncConfigs
	}
	u, err := url.Parse(cfg.Sync.BaseURL)
	if err != nil {
		return ErrInvalidSyncConfigs
	}
	if u.Scheme == "" || u.Host == "" {
		return ErrInvalidSyncConfigs
	}

	if !strings.HasPrefix(cfg.Sync.APIPrefix, "/") {
		return ErrInvalidSyncConfigs
	}

	if cfg.Sync.MaxRetries < 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}

// isMemoryDSN reports whether the DSN names one of SQLite's in-memory
// forms. Ordinary file paths that merely contain the word "memory" are
// legitimate.
func isMemoryDSN(dsn string) bool {
	base := dsn
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		base = dsn[:i]
	}
	base = strings.TrimPrefix(base, "file:")
	if base == ":memory:" || strings.HasSuffix(base, "/:memory:") {
		return true
	}
	return strings.Contains(dsn, "mode=memory")
}
