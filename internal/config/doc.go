// Package config loads, normalizes, and validates the TOML configuration
// shared by the clipsmith daemon and CLI.
package config
