// Package config loads, normalizes, and validates fitflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FITFLOW_NTFY_TOPIC. The Config type centralizes every knob the daemon and
// CLI need: watched directories, debounce and stability timing, retry policy,
// and notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
