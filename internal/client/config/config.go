package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "DIARY"

// Config holds runtime settings for the diary client.
//
// Units: all intervals are time.Duration; StorageQuotaBytes is in bytes.
type Config struct {
	ServerURL         string        `envconfig:"SERVER_URL"`
	APIKey            string        `envconfig:"API_KEY"`
	RequestTimeout    time.Duration `envconfig:"REQUEST_TIMEOUT"`
	RetryCount        int           `envconfig:"RETRY_COUNT"`
	RetryBaseInterval time.Duration `envconfig:"RETRY_BASE_INTERVAL"`

	OnlineCheckInterval time.Duration `envconfig:"ONLINE_CHECK_INTERVAL"`
	AutoSaveDelay       time.Duration `envconfig:"AUTOSAVE_DELAY"`

	DatabasePath      string `envconfig:"DATABASE_PATH"`
	StorageQuotaBytes int64  `envconfig:"STORAGE_QUOTA_BYTES"`

	// DevMode replaces gateway failures with local stand-ins.
	DevMode bool `envconfig:"DEV_MODE"`

	LogLevel    string `envconfig:"LOG_LEVEL"`
	LogFormat   string `envconfig:"LOG_FORMAT"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	// S3Bucket empty disables image upload.
	S3Bucket       string `envconfig:"S3_BUCKET"`
	S3Region       string `envconfig:"S3_REGION"`
	S3BaseEndpoint string `envconfig:"S3_BASE_ENDPOINT"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey    string `envconfig:"S3_SECRET_KEY"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8000"
	c.RequestTimeout = 30 * time.Second
	c.RetryCount = 3
	c.RetryBaseInterval = time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.AutoSaveDelay = 2 * time.Second
	c.DatabasePath = "data/diary.db"
	c.StorageQuotaBytes = 5 * 1024 * 1024
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.S3Region = "us-east-1"
}

var (
	errNoServerURL = errors.New("server URL is required unless dev mode is on")
	errBadValue    = errors.New("invalid config value")
)

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	if c.ServerURL == "" && !c.DevMode {
		return errNoServerURL
	}
	switch {
	case c.RetryCount < 0:
		return fmt.Errorf("%w: retry count %d", errBadValue, c.RetryCount)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: request timeout %s", errBadValue, c.RequestTimeout)
	case c.OnlineCheckInterval <= 0:
		return fmt.Errorf("%w: online check interval %s", errBadValue, c.OnlineCheckInterval)
	case c.AutoSaveDelay <= 0:
		return fmt.Errorf("%w: autosave delay %s", errBadValue, c.AutoSaveDelay)
	case c.StorageQuotaBytes <= 0:
		return fmt.Errorf("%w: storage quota %d", errBadValue, c.StorageQuotaBytes)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// .env and the environment, a config file (if given) and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	args := os.Args[1:]

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, ".env")
	parseFile(cfg, configFileFlag(args))
	parseFlags(cfg, args)
	return cfg
}
