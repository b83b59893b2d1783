// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	DB      DBConfig      `mapstructure:"db"`
	Blob    BlobConfig    `mapstructure:"blob"`
	Publish PublishConfig `mapstructure:"publish"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ScraperConfig governs browser sessions and the navigation flow.
type ScraperConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	UserAgent       string  `mapstructure:"user_agent"`
	Headless        bool    `mapstructure:"headless"`
	NavTimeoutSec   int     `mapstructure:"nav_timeout_seconds"`
	MaxSessions     int     `mapstructure:"max_sessions"`
	LaunchPerSecond float64 `mapstructure:"launch_per_second"`
	StaticList      bool    `mapstructure:"static_list"`
}

// DBConfig controls access to the results database.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// BlobConfig sets the snapshot archive destination.
type BlobConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PublishConfig holds metadata for scrape-event notifications.
type PublishConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KINOSCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("logging.development", true)
	v.SetDefault("scraper.base_url", "https://ua.kinorium.com")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("scraper.headless", true)
	v.SetDefault("scraper.nav_timeout_seconds", 60)
	v.SetDefault("scraper.max_sessions", 2)
	v.SetDefault("scraper.launch_per_second", 1.0)
	v.SetDefault("scraper.static_list", false)
	v.SetDefault("db.provider", "noop")
	v.SetDefault("db.table", "scraping_results")
	v.SetDefault("blob.provider", "noop")
	v.SetDefault("blob.prefix", "pages")
	v.SetDefault("publish.provider", "noop")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url is required")
	}
	if c.Scraper.NavTimeoutSec <= 0 {
		return fmt.Errorf("scraper.nav_timeout_seconds must be > 0")
	}
	if c.Scraper.MaxSessions <= 0 {
		return fmt.Errorf("scraper.max_sessions must be > 0")
	}
	switch c.DB.Provider {
	case "noop":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	default:
		return fmt.Errorf("unknown db.provider %q", c.DB.Provider)
	}
	switch c.Blob.Provider {
	case "noop":
	case "gcs":
		if c.Blob.GCSBucket == "" {
			return fmt.Errorf("blob.gcs_bucket must be set when blob.provider is gcs")
		}
	default:
		return fmt.Errorf("unknown blob.provider %q", c.Blob.Provider)
	}
	switch c.Publish.Provider {
	case "noop":
	case "pubsub":
		if c.Publish.ProjectID == "" || c.Publish.TopicID == "" {
			return fmt.Errorf("publish.project_id and publish.topic_id must be set when publish.provider is pubsub")
		}
	default:
		return fmt.Errorf("unknown publish.provider %q", c.Publish.Provider)
	}
	return nil
}

// NavTimeout converts the navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Scraper.NavTimeoutSec) * time.Second
}
