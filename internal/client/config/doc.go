// Package config loads runtime configuration for the diary client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional .env file and DIARY_* environment variables.
//  3. Optional JSON or YAML file selected via -c or -config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL
//	-i int      online status check interval (seconds)
//	-d string   local database file
//	-k string   API key
//
// # File schema
//
// Intervals use timex.Duration, so values can be strings like "3s" or integer
// nanoseconds:
//
//	{
//	  "server_url": "http://localhost:8000",
//	  "online_check_interval": "3s",
//	  "autosave_delay": "2s",
//	  "s3_bucket": "diary-images"
//	}
//
// # Environment
//
// Every field has a DIARY_ variable, e.g. DIARY_SERVER_URL, DIARY_API_KEY,
// DIARY_AUTOSAVE_DELAY=5s, DIARY_DEV_MODE=true.
package config
