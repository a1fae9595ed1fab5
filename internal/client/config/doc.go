// Package config loads runtime configuration for the bukukas CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags bound by the CLI layer, which override earlier
//     values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so values can be
// either strings like "30s" or integer nanoseconds:
//
//	{
//	  "remote_mode": "http",
//	  "remote_addr": "https://api.example.com",
//	  "postgres_dsn": "",
//	  "data_dir": "/home/me/.config/bukukas",
//	  "log_file": "/var/log/bukukas.log",
//	  "sync_timeout": "30s"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
