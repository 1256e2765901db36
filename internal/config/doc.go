// Package config loads, normalizes, and validates skipintro configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and clamps skip settings into their supported
// ranges instead of rejecting them. The Config type centralizes every knob the
// watcher and CLI need: database location, skip timing, chapter backends, and
// the player socket.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
