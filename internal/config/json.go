package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONConfig mirrors [Config] with JSON tags and string-friendly durations,
// so an operator can keep the engine settings in a checked-in file.
type JSONConfig struct {
	Vault struct {
		ArgonTime      uint32 `json:"argon_time"`
		ArgonMemoryKiB uint32 `json:"argon_memory_kib"`
		ArgonThreads   uint8  `json:"argon_threads"`
	} `json:"vault,omitempty"`

	Storage struct {
		DSN           string `json:"dsn"`
		CacheMaxBytes int64  `json:"cache_max_bytes"`
	} `json:"storage,omitempty"`

	Sync struct {
		BaseURL        string   `json:"base_url"`
		APIPrefix      string   `json:"api_prefix"`
		AllowedHeaders []string `json:"allowed_headers"`
		MaxRetries     int      `json:"max_retries"`
		RequestTimeout Duration `json:"request_timeout"`
		DrainInterval  Duration `json:"drain_interval"`
	} `json:"sync,omitempty"`
}

func parseJSON(jsonFilePath string) (*Config, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg JSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &Config{
		Vault: Vault{
			ArgonTime:      jsonCfg.Vault.ArgonTime,
			ArgonMemoryKiB: jsonCfg.Vault.ArgonMemoryKiB,
			ArgonThreads:   jsonCfg.Vault.ArgonThreads,
		},
		Storage: Storage{
			DSN:           jsonCfg.Storage.DSN,
			CacheMaxBytes: jsonCfg.Storage.CacheMaxBytes,
		},
		Sync: Sync{
			BaseURL:        jsonCfg.Sync.BaseURL,
			APIPrefix:      jsonCfg.Sync.APIPrefix,
			AllowedHeaders: jsonCfg.Sync.AllowedHeaders,
			MaxRetries:     jsonCfg.Sync.MaxRetries,
			RequestTimeout: time.Duration(jsonCfg.Sync.RequestTimeout),
			DrainInterval:  time.Duration(jsonCfg.Sync.DrainInterval),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON
// unmarshalling from strings like "1h" or "30s" as well as raw nanosecond
// numbers.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
