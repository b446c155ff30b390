// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

package config

import (
	"time"
)

// Config is the top-level configuration container for the carelog engine.
// It aggregates all sub-configurations and is populated by merging values
// from environment variables, command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type Config struct {
	// Vault holds key-derivation tuning parameters.
	Vault Vault `envPrefix:"VAULT_"`

	// Storage holds the local database and fast-cache settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds the replay-guard allowlist and scheduler settings.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Vault holds Argon2id tuning parameters. Zero values fall back to the
// defaults applied by the vault package (OWASP-recommended settings), so a
// deployment only sets these to trade unlock latency against brute-force
// cost on a constrained device.
type Vault struct {
	// ArgonTime is the Argon2id time cost (iterations).
	// Env: VAULT_ARGON_TIME
	ArgonTime uint32 `env:"ARGON_TIME"`

	// ArgonMemoryKiB is the Argon2id memory cost in KiB.
	// Env: VAULT_ARGON_MEMORY_KIB
	ArgonMemoryKiB uint32 `env:"ARGON_MEMORY_KIB"`

	// ArgonThreads is the Argon2id parallelism degree.
	// Env: VAULT_ARGON_THREADS
	ArgonThreads uint8 `env:"ARGON_THREADS"`
}

// Storage holds settings for the durable store and its fast cache.
type Storage struct {
	// DSN is the SQLite database path used for all durable collections
	// (records, queue items, meta). In-memory DSNs are rejected by
	// validation: the engine exists to survive restarts.
	// Env: STORAGE_DATABASE_URI
	DSN string `env:"DATABASE_URI"`

	// CacheMaxBytes caps the in-memory fast cache. Writes beyond the cap
	// fail the cache path only; durability is unaffected.
	// Env: STORAGE_CACHE_MAX_BYTES
	CacheMaxBytes int64 `env:"CACHE_MAX_BYTES"`
}

// Sync holds the replay-guard allowlist and drain scheduling settings.
type Sync struct {
	// BaseURL is the first-party API origin queued operations may target
	// (e.g. "https://api.carelog.app"). Cross-origin targets are rejected.
	// Env: SYNC_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// APIPrefix is the path prefix queued targets must fall under
	// (e.g. "/api/"). Env: SYNC_API_PREFIX
	APIPrefix string `env:"API_PREFIX"`

	// AllowedHeaders is the fixed set of headers forwarded on replay.
	// All other headers are stripped. Env: SYNC_ALLOWED_HEADERS
	AllowedHeaders []string `env:"ALLOWED_HEADERS" envSeparator:","`

	// MaxRetries bounds retryable delivery attempts per item.
	// Env: SYNC_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// RequestTimeout is the per-attempt network timeout.
	// Env: SYNC_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// DrainInterval is the coarse periodic safety-net trigger. Event
	// triggers (online, foreground, manual) remain the primary mechanism.
	// Env: SYNC_DRAIN_INTERVAL
	DrainInterval time.Duration `env:"DRAIN_INTERVAL"`
}
