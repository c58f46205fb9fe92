package config

import (
	"os"
	"strconv"
)

// FromEnv overlays FEEDS_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("FEEDS_ALLOW_AUTO_CREATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowAutoCreateFeeds = b
		}
	}
	if v := os.Getenv("FEEDS_NAME_REGEX"); v != "" {
		cfg.FeedNameRegex = v
	}
	if v := os.Getenv("FEEDS_PAGE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FeedDefaults.PageLimit = n
		}
	}
	if v := os.Getenv("FEEDS_PAYLOAD_MAX_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FeedDefaults.PayloadMaxBytes = n
		}
	}
	if v := os.Getenv("FEEDS_LONG_POLL_MAX_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.LongPollMaxMs = n
		}
	}
	if v := os.Getenv("FEEDS_RETENTION_SWEEP_INTERVAL_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Retention.SweepIntervalMs = n
		}
	}
	if v := os.Getenv("FEEDS_RETENTION_MAX_AGE_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.Retention.MaxAgeMs = n
		}
	}
}
