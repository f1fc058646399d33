// Package config loads nbmfetch settings from defaults, an optional
// nbmfetch.yaml, a .env file and NBMFETCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/thesavant42/nbmfetch/internal/models"
)

// DefaultBaseURL is the NBM 1D Viewer archive root
const DefaultBaseURL = "https://apps.gsl.noaa.gov/nbmviewer/data/archive"

// Config holds all configuration for the application.
type Config struct {
	Archive ArchiveConfig `mapstructure:"archive"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
}

// ArchiveConfig describes where runs live and how hard to search for them.
type ArchiveConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Stations          []string      `mapstructure:"stations"`
	Versions          []string      `mapstructure:"versions"`
	DaysBack          int           `mapstructure:"days_back"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// CacheConfig holds the probe/download cache lifetime.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// OutputConfig controls where downloaded CSVs are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration. configFile may be empty to search the default
// locations; a missing default file is not an error.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("nbmfetch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "nbmfetch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("NBMFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	return &Config{
		Archive: ArchiveConfig{
			BaseURL:           DefaultBaseURL,
			Stations:          append([]string(nil), models.Stations...),
			Versions:          append([]string(nil), models.Versions...),
			DaysBack:          3,
			Timeout:           20 * time.Second,
			RequestsPerSecond: 10,
		},
		Cache:  CacheConfig{TTL: 300 * time.Second},
		Output: OutputConfig{Dir: "."},
		Log:    LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("archive.base_url", d.Archive.BaseURL)
	v.SetDefault("archive.stations", d.Archive.Stations)
	v.SetDefault("archive.versions", d.Archive.Versions)
	v.SetDefault("archive.days_back", d.Archive.DaysBack)
	v.SetDefault("archive.timeout", d.Archive.Timeout)
	v.SetDefault("archive.requests_per_second", d.Archive.RequestsPerSecond)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Validate rejects settings the locator cannot work with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Archive.BaseURL) == "":
		return fmt.Errorf("archive.base_url must not be empty")
	case len(c.Archive.Stations) == 0:
		return fmt.Errorf("archive.stations must list at least one station")
	case len(c.Archive.Versions) == 0:
		return fmt.Errorf("archive.versions must list at least one version")
	case c.Archive.DaysBack < 1:
		return fmt.Errorf("archive.days_back must be at least 1, got %d", c.Archive.DaysBack)
	case c.Archive.Timeout <= 0:
		return fmt.Errorf("archive.timeout must be positive")
	case c.Archive.RequestsPerSecond < 0:
		return fmt.Errorf("archive.requests_per_second must not be negative")
	case c.Cache.TTL < 0:
		return fmt.Errorf("cache.ttl must not be negative")
	}
	c.Archive.BaseURL = strings.TrimRight(strings.TrimSpace(c.Archive.BaseURL), "/")
	return nil
}

// HasStation reports whether station is one of the configured stations.
func (c *Config) HasStation(station string) bool {
	for _, s := range c.Archive.Stations {
		if s == station {
			return true
		}
	}
	return false
}
