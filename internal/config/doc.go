// Package config loads, normalizes, and validates comicpub configuration.
//
// It supplies defaults matching the original site layout (img/, comics/,
// comic-index.json under the project root), expands tilde paths, joins
// relative paths onto paths.project_root, reads TOML files, loads a .env file
// from the project root, and honours environment fallbacks such as
// COMICPUB_NTFY_TOPIC.
//
// Always obtain settings through this package so downstream code receives
// absolute paths and clear validation errors.
package config
