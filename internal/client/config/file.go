package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/kidsdiary/internal/timex"
)

// fileConfig is a DTO used exclusively for config file unmarshalling. It
// relies on timex.Duration so intervals can be given as "3s" or as integer
// nanoseconds. It is seeded from the current Config, so keys missing from
// the file keep their earlier value.
type fileConfig struct {
	ServerURL           string         `json:"server_url" yaml:"server_url"`
	APIKey              string         `json:"api_key" yaml:"api_key"`
	RequestTimeout      timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	RetryCount          int            `json:"retry_count" yaml:"retry_count"`
	RetryBaseInterval   timex.Duration `json:"retry_base_interval" yaml:"retry_base_interval"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	AutoSaveDelay       timex.Duration `json:"autosave_delay" yaml:"autosave_delay"`
	DatabasePath        string         `json:"database_path" yaml:"database_path"`
	StorageQuotaBytes   int64          `json:"storage_quota_bytes" yaml:"storage_quota_bytes"`
	DevMode             bool           `json:"dev_mode" yaml:"dev_mode"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
	LogFormat           string         `json:"log_format" yaml:"log_format"`
	MetricsAddr         string         `json:"metrics_addr" yaml:"metrics_addr"`
	S3Bucket            string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region            string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3AccessKey         string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key" yaml:"s3_secret_key"`
}

func newFileConfig(c *Config) fileConfig {
	return fileConfig{
		ServerURL:           c.ServerURL,
		APIKey:              c.APIKey,
		RequestTimeout:      timex.Duration{Duration: c.RequestTimeout},
		RetryCount:          c.RetryCount,
		RetryBaseInterval:   timex.Duration{Duration: c.RetryBaseInterval},
		OnlineCheckInterval: timex.Duration{Duration: c.OnlineCheckInterval},
		AutoSaveDelay:       timex.Duration{Duration: c.AutoSaveDelay},
		DatabasePath:        c.DatabasePath,
		StorageQuotaBytes:   c.StorageQuotaBytes,
		DevMode:             c.DevMode,
		LogLevel:            c.LogLevel,
		LogFormat:           c.LogFormat,
		MetricsAddr:         c.MetricsAddr,
		S3Bucket:            c.S3Bucket,
		S3Region:            c.S3Region,
		S3BaseEndpoint:      c.S3BaseEndpoint,
		S3AccessKey:         c.S3AccessKey,
		S3SecretKey:         c.S3SecretKey,
	}
}

func (f fileConfig) apply(c *Config) {
	c.ServerURL = f.ServerURL
	c.APIKey = f.APIKey
	c.RequestTimeout = f.RequestTimeout.Duration
	c.RetryCount = f.RetryCount
	c.RetryBaseInterval = f.RetryBaseInterval.Duration
	c.OnlineCheckInterval = f.OnlineCheckInterval.Duration
	c.AutoSaveDelay = f.AutoSaveDelay.Duration
	c.DatabasePath = f.DatabasePath
	c.StorageQuotaBytes = f.StorageQuotaBytes
	c.DevMode = f.DevMode
	c.LogLevel = f.LogLevel
	c.LogFormat = f.LogFormat
	c.MetricsAddr = f.MetricsAddr
	c.S3Bucket = f.S3Bucket
	c.S3Region = f.S3Region
	c.S3BaseEndpoint = f.S3BaseEndpoint
	c.S3AccessKey = f.S3AccessKey
	c.S3SecretKey = f.S3SecretKey
}

// parseFile overlays cfg with values from a JSON or YAML file. The format is
// chosen by extension: .yaml and .yml are YAML, anything else is JSON. An
// empty path is a no-op.
//
// Panics on read or unmarshal errors (caller should recover if desired).
func parseFile(cfg *Config, path string) {
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := newFileConfig(cfg)
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
