// Package config loads, normalizes, and validates fusionkit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FUSIONKIT_TEMPLATES and FUSION_VERSION. The Config type centralizes every
// knob the engine, loader, and CLI need so the state directory, templates file,
// and publish registry are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
