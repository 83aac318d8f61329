// Package config loads, normalizes, and validates MovieBox configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and MOVIEBOX_MONGO_URI. The Config type centralizes every knob
// the CLI and API server need, so data directories, image cache limits, and
// external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
