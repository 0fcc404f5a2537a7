package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/eventpass/internal/flagx"
	"github.com/dmitrijs2005/eventpass/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used only for decoding config files. Durations use
// timex.Duration so files can say "3s" as well as integer nanoseconds.
// Pointer fields tell a missing key apart from an empty one.
type FileConfig struct {
	APIBaseURL          *string         `json:"api_base_url" yaml:"api_base_url"`
	DatabasePath        *string         `json:"database_path" yaml:"database_path"`
	RequestTimeout      *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	ScanCooldown        *timex.Duration `json:"scan_cooldown" yaml:"scan_cooldown"`
	LogLevel            *string         `json:"log_level" yaml:"log_level"`

	S3Endpoint      *string         `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3Region        *string         `json:"s3_region" yaml:"s3_region"`
	S3Bucket        *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3AccessKey     *string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey     *string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3PublicBaseURL *string         `json:"s3_public_base_url" yaml:"s3_public_base_url"`
	S3PresignTTL    *timex.Duration `json:"s3_presign_ttl" yaml:"s3_presign_ttl"`
}

// parseFile overlays cfg with the file named by -c or -config. Files ending
// in .yaml or .yml are read as YAML, anything else as JSON. Read and decode
// errors panic.
func parseFile(cfg *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.APIBaseURL, fc.APIBaseURL)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.S3Endpoint, fc.S3Endpoint)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3AccessKey, fc.S3AccessKey)
	setString(&cfg.S3SecretKey, fc.S3SecretKey)
	setString(&cfg.S3PublicBaseURL, fc.S3PublicBaseURL)

	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.ScanCooldown != nil {
		cfg.ScanCooldown = fc.ScanCooldown.Duration
	}
	if fc.S3PresignTTL != nil {
		cfg.S3PresignTTL = fc.S3PresignTTL.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
