// Package config loads runtime configuration for the authkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed with AUTHKEEPER_, optionally seeded from
//     a .env file in the working directory.
//  3. Optional JSON file selected via -c or -config.
//  4. Command-line flags, which override everything else.
//
// # Supported flags
//
//	-a string   base URL of the authentication API
//	-d string   path of the local session database
//	-p string   directory CAPTCHA images are written to
//	-t int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:3000",
//	  "session_db": "session.db",
//	  "token_key": "session_token",
//	  "captcha_dir": "/tmp",
//	  "request_timeout": "10s",
//	  "log_level": "debug"
//	}
//
// # Environment
//
//	AUTHKEEPER_SERVER_URL, AUTHKEEPER_SESSION_DB, AUTHKEEPER_TOKEN_KEY,
//	AUTHKEEPER_CAPTCHA_DIR, AUTHKEEPER_REQUEST_TIMEOUT (Go duration),
//	AUTHKEEPER_LOG_LEVEL
package config
