package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/dmitrijs2005/eventpass/internal/client/storage"
)

// Config holds runtime settings for the EventPass CLI.
//
// RequestTimeout of zero means requests run until the server answers or the
// command is cancelled.
type Config struct {
	APIBaseURL          string
	DatabasePath        string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	ScanCooldown        time.Duration
	LogLevel            string

	// Object storage for proof images; set from the config file only.
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
	S3PresignTTL    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = api.DefaultBaseURL
	c.DatabasePath = "eventpass.db"
	c.RequestTimeout = 0
	c.OnlineCheckInterval = 3 * time.Second
	c.ScanCooldown = 2 * time.Second
	c.LogLevel = "warn"
	c.S3Region = "us-east-1"
}

// Storage returns the object storage part of the config.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Endpoint:      c.S3Endpoint,
		Region:        c.S3Region,
		Bucket:        c.S3Bucket,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		PublicBaseURL: c.S3PublicBaseURL,
		PresignTTL:    c.S3PresignTTL,
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if given) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	return load(os.Args[1:])
}

func load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
