// Package config loads runtime configuration for the vocab client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   path of the local SQLite database
//	-r string   PostgreSQL DSN of the remote store
//	-i int      online probe interval (seconds)
//	-s int      pending queue check interval while online (seconds)
//	-l string   log file
//	-m string   address for the /metrics endpoint, empty disables it
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds. Fields left out keep their default:
//
//	{
//	  "db_path": "vocab.db",
//	  "remote_dsn": "postgres://vocab@localhost/vocab",
//	  "ai_base_url": "https://api.openai.com/v1",
//	  "ai_model": "gpt-4o-mini",
//	  "tts_model": "tts-1",
//	  "tts_voice": "alloy",
//	  "fallback_command": "espeak -v {lang} {text}",
//	  "player_command": "ffplay -nodisp -autoexit -loglevel quiet {file}",
//	  "online_check_interval": "5s",
//	  "sync_check_interval": "30s",
//	  "max_retries": 5,
//	  "audio_cache_capacity": 50,
//	  "s3": {"region": "us-east-1", "endpoint": "http://127.0.0.1:9000", "bucket": "vocab-audio"},
//	  "log_file": "vocab.log",
//	  "metrics_addr": "127.0.0.1:9464",
//	  "jwt_secret": ""
//	}
//
// The default AI key is taken from OPENAI_API_KEY when set.
package config
