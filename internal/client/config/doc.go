// Package config loads runtime configuration for the satkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJSON) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string     address:port of the identity provider gRPC endpoint
//	-d string     data directory
//	-t duration   identity provider request timeout
//	-i int        online status check interval (seconds)
//	-r int        login attempts per minute (0 disables throttling)
//	-b int        login attempt burst
//	-k int        maximum concurrent password hashes
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds. Keys that are absent keep their
// default:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "data_dir": "/home/alice/.satkeeper",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s",
//	  "login_attempts_per_minute": 5,
//	  "login_burst": 3,
//	  "max_concurrent_hashes": 2
//	}
package config
