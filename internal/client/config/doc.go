// Package config loads runtime configuration for the chainkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c/--config or
//     $CHAINKEEPER_CONFIG.
//  3. Command-line flags bound by (*Config).BindFlags.
//
// # File schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "database_path": "data/client.db",
//	  "request_timeout": "30s",
//	  "algorithm": "sha256",
//	  "encoding": "base64",
//	  "log_level": "warn",
//	  "log_format": "text"
//	}
package config
