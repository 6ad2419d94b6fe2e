// Package config loads the homedash configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/homedash/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or blank, use defaults
//
// Files ending in .yaml or .yml are decoded as YAML, everything else as TOML.
//
// # Fields
//
//	primary = "127.0.0.1:5000"     # address of the primary host API
//	feed_listen = ":8088"          # JSON/WebSocket feed, disabled when empty
//	request_timeout = "5s"         # per-request HTTP timeout
//	log_level = "info"             # zerolog level name
//	log_file = "~/.local/state/homedash/homedash.log"  # or "stderr", "discard"
//
// Tilde expansion is applied to the config path and to log_file.
//
// # Error Handling
//
// Missing files are not an error. Unreadable files, syntax errors and
// invalid durations are, and the latter two mention "parse config".
//
// The returned Config is the only process-wide configuration value. It is
// threaded into the host registry and API clients at startup instead of
// being read from package globals.
package config
