package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	AllowAutoCreateFeeds bool         `json:"allowAutoCreateFeeds" yaml:"allowAutoCreateFeeds"`
	FeedNameRegex        string       `json:"feedNameRegex" yaml:"feedNameRegex"`
	FeedDefaults         FeedDefaults `json:"feedDefaults" yaml:"feedDefaults"`
	// LongPollMaxMs caps the wait a long-polling fetch may request.
	LongPollMaxMs int       `json:"longPollMaxMs" yaml:"longPollMaxMs"`
	Retention     Retention `json:"retention" yaml:"retention"`
}

// FeedDefaults captures per-feed baseline limits.
type FeedDefaults struct {
	PageLimit       int `json:"pageLimit" yaml:"pageLimit"`
	PayloadMaxBytes int `json:"payloadMaxBytes" yaml:"payloadMaxBytes"`
}

// Retention controls the event-feed retention sweeper. MaxAgeMs 0 disables
// trimming; data feeds are never swept.
type Retention struct {
	SweepIntervalMs int64 `json:"sweepIntervalMs" yaml:"sweepIntervalMs"`
	MaxAgeMs        int64 `json:"maxAgeMs" yaml:"maxAgeMs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		AllowAutoCreateFeeds: true,
		FeedNameRegex:        "[a-z0-9-_]{1,64}",
		FeedDefaults: FeedDefaults{
			PageLimit:       100,
			PayloadMaxBytes: 1 << 20,
		},
		LongPollMaxMs: 30_000,
		Retention: Retention{
			SweepIntervalMs: 60_000,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
