package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort              = 8080
	defaultDownloadDir       = "downloads"
	defaultRetentionAge      = time.Hour
	defaultSweepInterval     = 10 * time.Minute
	defaultMaxConcurrentJobs = 4
	defaultProgressInterval  = 500 * time.Millisecond
	defaultYtdlpPath         = "yt-dlp"
)

// Config describes runtime configuration for the service.
type Config struct {
	Port              int
	DownloadDir       string
	RetentionAge      time.Duration
	SweepInterval     time.Duration
	MaxConcurrentJobs int
	ProgressInterval  time.Duration
	YtdlpPath         string
}

// rawConfig is the YAML shape; durations are given as strings ("1h", "500ms")
// and parsed during Load.
type rawConfig struct {
	Port              int    `yaml:"port"`
	DownloadDir       string `yaml:"download_dir"`
	RetentionAge      string `yaml:"retention_age"`
	SweepInterval     string `yaml:"sweep_interval"`
	MaxConcurrentJobs int    `yaml:"max_concurrent_jobs"`
	ProgressInterval  string `yaml:"progress_interval"`
	YtdlpPath         string `yaml:"ytdlp_path"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		Port:              defaultPort,
		DownloadDir:       defaultDownloadDir,
		RetentionAge:      defaultRetentionAge,
		SweepInterval:     defaultSweepInterval,
		MaxConcurrentJobs: defaultMaxConcurrentJobs,
		ProgressInterval:  defaultProgressInterval,
		YtdlpPath:         defaultYtdlpPath,
	}
}

// Load reads YAML config from the provided path. If the file does not exist
// or is empty, defaults are returned with no error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("empty config path")
	}
	fileData, err := os.ReadFile(path) //nolint:gosec // config path is controlled by deployment
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(fileData) == 0 {
		return cfg, nil
	}

	raw := rawConfig{
		Port:              defaultPort,
		MaxConcurrentJobs: defaultMaxConcurrentJobs,
	}
	if err := yaml.Unmarshal(fileData, &raw); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}

	// basic normalization
	if raw.Port == 0 {
		raw.Port = defaultPort
	}
	// validate concurrency explicitly: values < 1 are not allowed
	if raw.MaxConcurrentJobs < 1 {
		return cfg, fmt.Errorf("invalid max_concurrent_jobs: %d (must be >= 1)", raw.MaxConcurrentJobs)
	}
	cfg.Port = raw.Port
	cfg.MaxConcurrentJobs = raw.MaxConcurrentJobs
	if raw.DownloadDir != "" {
		cfg.DownloadDir = raw.DownloadDir
	}
	if raw.YtdlpPath != "" {
		cfg.YtdlpPath = raw.YtdlpPath
	}

	if cfg.RetentionAge, err = parseDuration(raw.RetentionAge, "retention_age", defaultRetentionAge); err != nil {
		return cfg, err
	}
	if cfg.SweepInterval, err = parseDuration(raw.SweepInterval, "sweep_interval", defaultSweepInterval); err != nil {
		return cfg, err
	}
	if cfg.ProgressInterval, err = parseDuration(raw.ProgressInterval, "progress_interval", defaultProgressInterval); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseDuration(value, key string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed <= 0 {
		return fallback, fmt.Errorf("invalid %s: %s (must be positive)", key, value)
	}
	return parsed, nil
}
