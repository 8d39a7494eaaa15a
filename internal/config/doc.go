// Package config loads, normalizes, and validates delisys configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts and file:// URIs), reads TOML files, and honours environment
// fallbacks such as DELISYS_OUTPUT_DIR. Template patterns are validated at
// load time so a pattern referencing an unknown key fails before any file is
// scanned.
package config
