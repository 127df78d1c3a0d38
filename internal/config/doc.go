// Package config loads and validates toonvault configuration.
//
// Configuration is read from a TOML file (default
// ~/.config/toonvault/config.toml), normalized so every path field is
// absolute, and validated before any component starts. Components receive the
// resulting *Config by injection instead of reading files themselves.
package config
