// Package config loads, normalizes, and validates actorflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and overlays ACTORFLOW_* environment
// variables. The Config type centralizes every knob the engine and CLI need,
// so worker counts, queue capacities, and directories are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
