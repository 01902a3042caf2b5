// Package config loads, normalizes, and validates inkframe configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// INKFRAME_IMAGE_DIR and INKFRAME_REMOTE_TOKEN. Values are fixed at process
// start; the daemon never reloads them.
package config
