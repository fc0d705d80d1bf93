// Package config loads, normalizes, and validates discjockey configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads an optional TOML file, and overlays command-line values on
// top. The resulting Config is built once at startup and passed explicitly to
// every component; nothing mutates it after Load returns.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
