// Package config loads server configuration from a JSON or YAML file, with
// FEEDS_* environment overrides and OS-specific data directory resolution.
package config
