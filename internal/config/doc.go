// Package config loads, normalizes, and validates Sidelines configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as SIDELINES_SERVER_URL. The Config type
// centralizes every knob the CLI and orchestrator need so service endpoints,
// spool directories and notification settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized URLs, canonical language codes, and clear validation errors.
package config
