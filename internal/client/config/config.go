package config

import (
	"os"
	"time"
)

// S3 configures the optional shared audio bucket. An empty Bucket disables
// it.
type S3 struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Config holds runtime settings for the vocab client.
type Config struct {
	DBPath    string
	RemoteDSN string

	AIBaseURL string
	AIModel   string
	// APIKey is the default AI credential, used until the user stores or
	// clears one.
	APIKey string

	TTSModel        string
	TTSVoice        string
	FallbackCommand string
	PlayerCommand   string

	OnlineCheckInterval time.Duration
	SyncCheckInterval   time.Duration
	MaxRetries          int

	AudioCacheCapacity int
	S3                 S3

	LogFile     string
	LogLevel    string
	MetricsAddr string
	JWTSecret   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "vocab.db"
	c.AIBaseURL = "https://api.openai.com/v1"
	c.AIModel = "gpt-4o-mini"
	c.APIKey = os.Getenv("OPENAI_API_KEY")
	c.TTSModel = "tts-1"
	c.TTSVoice = "alloy"
	c.FallbackCommand = "espeak -v {lang} {text}"
	c.PlayerCommand = "ffplay -nodisp -autoexit -loglevel quiet {file}"
	c.OnlineCheckInterval = 5 * time.Second
	c.SyncCheckInterval = 30 * time.Second
	c.MaxRetries = 5
	c.AudioCacheCapacity = 50
	c.S3.Region = "us-east-1"
	c.LogFile = "vocab.log"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
