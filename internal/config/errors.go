package config

import "errors"

// Validation errors returned by [Config.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, empty DSN or an in-memory DSN, which cannot satisfy
	// durability across restarts).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidSyncConfigs indicates invalid sync settings (for example,
	// a missing or unparsable base URL, or a relative API prefix).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
)
