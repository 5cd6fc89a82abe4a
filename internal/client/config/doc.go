// Package config loads runtime configuration for the pixelstudio CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment: PIXELSTUDIO_SERVER_URL, PIXELSTUDIO_COOKIE_DB,
//     PIXELSTUDIO_REQUEST_TIMEOUT, PIXELSTUDIO_LOG_LEVEL.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string     API root url
//	-db string    local cookie database
//	-t duration   request timeout
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:3000",
//	  "cookie_db": "pixelstudio.db",
//	  "request_timeout": "10s",
//	  "log_level": "warn"
//	}
package config
