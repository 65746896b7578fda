// Package config loads runtime configuration for the shop client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c or -config; the format
//     follows the file extension.
//  3. Environment variables prefixed with SHOP_. LoadConfig first reads a
//     .env file from the working directory when one exists.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-u string   catalog base URL
//	-d string   data directory holding the SQLite file
//	-t int      request timeout (seconds)
//	-v string   log level
//
// # File schema
//
// Durations are strings like "5m" or integer nanoseconds:
//
//	catalog_base_url: https://dummyjson.com
//	request_timeout: 10s
//	cache_stale_time: 5m
//	cache_gc_time: 30m
//	data_dir: data
//	s3_bucket: avatars
//
// The result is checked with (*Config).Validate before it is returned.
package config
