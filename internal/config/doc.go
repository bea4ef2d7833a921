// Package config loads the console configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/datamate/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or blank, use defaults
//
// # Default Values
//
//   - API base URL: http://127.0.0.1:8080
//   - Log directory: ~/.local/share/datamate/logs
//   - Poll interval: 5s
//   - Search debounce: 500ms
//   - Page size: 10
//   - Request timeout: 10s
//
// # File Format
//
//	api_url = "http://datamate.internal:8080"
//	log_dir = "~/.local/share/datamate/logs"
//	poll_interval = "5s"
//	debounce = "500ms"
//	page_size = 20
//	request_timeout = "10s"
//
// Durations use Go duration syntax and must be positive. Paths starting
// with ~ are expanded to the user's home directory and made absolute.
//
// # Error Handling
//
// A missing file is not an error. A file that cannot be read, is not valid
// TOML, or carries an invalid duration or page size makes Load fail with an
// error mentioning "parse config" so the caller can report it and exit.
package config
