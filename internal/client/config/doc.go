// Package config loads runtime configuration for the EventPass CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. A .yaml or .yml
//     file is read as YAML, anything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the event service API
//	-d string   path of the local SQLite database
//	-t int      request timeout (seconds, 0 for none)
//	-i int      online status check interval (seconds)
//	-l string   log level
//
// # File schema
//
// Durations are strings like "3s" or integer nanoseconds. Keys left out of
// the file keep their default. Object storage settings exist only here:
//
//	{
//	  "api_base_url": "http://localhost:8080/api",
//	  "database_path": "eventpass.db",
//	  "request_timeout": "0s",
//	  "online_check_interval": "3s",
//	  "scan_cooldown": "2s",
//	  "log_level": "warn",
//	  "s3_endpoint": "http://localhost:9000",
//	  "s3_region": "us-east-1",
//	  "s3_bucket": "eventpass",
//	  "s3_access_key": "",
//	  "s3_secret_key": "",
//	  "s3_public_base_url": "",
//	  "s3_presign_ttl": "15m"
//	}
//
// The package does not read environment variables; the AWS SDK still picks
// up its own credentials chain when no access key is configured.
package config
