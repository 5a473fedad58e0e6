// Package config loads, normalizes, and validates hirepipe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HIREPIPE_API_TOKEN. The Config type centralizes every knob the API server
// and CLI need so the data directory, stage bounds, and notification relay
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
