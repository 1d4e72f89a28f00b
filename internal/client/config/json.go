package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aaajiao/vocab-tracker-sub000/internal/flagx"
	"github.com/aaajiao/vocab-tracker-sub000/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	DBPath              string         `json:"db_path"`
	RemoteDSN           string         `json:"remote_dsn"`
	AIBaseURL           string         `json:"ai_base_url"`
	AIModel             string         `json:"ai_model"`
	APIKey              string         `json:"api_key"`
	TTSModel            string         `json:"tts_model"`
	TTSVoice            string         `json:"tts_voice"`
	FallbackCommand     string         `json:"fallback_command"`
	PlayerCommand       string         `json:"player_command"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	SyncCheckInterval   timex.Duration `json:"sync_check_interval"`
	MaxRetries          int            `json:"max_retries"`
	AudioCacheCapacity  int            `json:"audio_cache_capacity"`
	S3                  struct {
		Region    string `json:"region"`
		Endpoint  string `json:"endpoint"`
		AccessKey string `json:"access_key"`
		SecretKey string `json:"secret_key"`
		Bucket    string `json:"bucket"`
	} `json:"s3"`
	LogFile     string `json:"log_file"`
	LogLevel    string `json:"log_level"`
	MetricsAddr string `json:"metrics_addr"`
	JWTSecret   string `json:"jwt_secret"`
}

// parseJson overlays cfg with the non-empty values of the JSON file named by
// -c or -config. Without such a flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.JsonConfigFlags(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.RemoteDSN, jc.RemoteDSN)
	setString(&cfg.AIBaseURL, jc.AIBaseURL)
	setString(&cfg.AIModel, jc.AIModel)
	setString(&cfg.APIKey, jc.APIKey)
	setString(&cfg.TTSModel, jc.TTSModel)
	setString(&cfg.TTSVoice, jc.TTSVoice)
	setString(&cfg.FallbackCommand, jc.FallbackCommand)
	setString(&cfg.PlayerCommand, jc.PlayerCommand)
	setString(&cfg.S3.Region, jc.S3.Region)
	setString(&cfg.S3.Endpoint, jc.S3.Endpoint)
	setString(&cfg.S3.AccessKey, jc.S3.AccessKey)
	setString(&cfg.S3.SecretKey, jc.S3.SecretKey)
	setString(&cfg.S3.Bucket, jc.S3.Bucket)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	setString(&cfg.JWTSecret, jc.JWTSecret)

	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncCheckInterval.Duration > 0 {
		cfg.SyncCheckInterval = jc.SyncCheckInterval.Duration
	}
	if jc.MaxRetries > 0 {
		cfg.MaxRetries = jc.MaxRetries
	}
	if jc.AudioCacheCapacity > 0 {
		cfg.AudioCacheCapacity = jc.AudioCacheCapacity
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
