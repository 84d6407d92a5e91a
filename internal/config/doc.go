// Package config loads, normalizes, and validates Aerial's TOML
// configuration. Defaults are defined in defaults.go; Load applies the
// file on top of them and expands all path fields.
package config
