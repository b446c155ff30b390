package config

import (
	"flag"
	"strings"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-d database path for the local encrypted store
//	-base-url first-party API origin for queued operations
//	-api-prefix allowed path prefix under the base URL
//	-allowed-headers comma-separated header allowlist for replay
//	-max-retries retry budget per queue item
//	-request-timeout per-attempt network timeout (e.g., "30s")
//	-drain-interval periodic drain safety-net interval (e.g., "5m")
//	-c/-config json file path with configs
func ParseFlags() *Config {
	var databaseDSN string
	var cacheMaxBytes int64
	var baseURL string
	var apiPrefix string
	var allowedHeaders string
	var maxRetries int
	var requestTimeout time.Duration
	var drainInterval time.Duration
	var jsonConfigPath string

	flag.StringVar(&databaseDSN, "d", "", "Local database path")
	flag.Int64Var(&cacheMaxBytes, "cache-max-bytes", 0, "Fast cache byte quota")
	flag.StringVar(&baseURL, "base-url", "", "First-party API origin")
	flag.StringVar(&apiPrefix, "api-prefix", "", "Allowed API path prefix")
	flag.StringVar(&allowedHeaders, "allowed-headers", "", "Comma-separated replay header allowlist")
	flag.IntVar(&maxRetries, "max-retries", 0, "Retry budget per queue item")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Per-attempt network timeout (e.g., 30s)")
	flag.DurationVar(&drainInterval, "drain-interval", 0, "Periodic drain interval (e.g., 5m)")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &Config{
		Storage: Storage{
			DSN:           databaseDSN,
			CacheMaxBytes: cacheMaxBytes,
		},
		Sync: Sync{
			BaseURL:        baseURL,
			APIPrefix:      apiPrefix,
			AllowedHeaders: splitHeaders(allowedHeaders),
			MaxRetries:     maxRetries,
			RequestTimeout: requestTimeout,
			DrainInterval:  drainInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}

func splitHeaders(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	headers := make([]string, 0, len(parts))
	for _, p := range parts {
		if h := strings.TrimSpace(p); h != "" {
			headers = append(headers, h)
		}
	}
	return headers
}
