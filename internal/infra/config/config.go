// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Catalog provider names.
const (
	CatalogSaavn   = "saavn"
	CatalogSpotify = "spotify"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Spotify     SpotifyConfig     `yaml:"spotify"`
	Storage     StorageConfig     `yaml:"storage"`
	Downloads   DownloadsConfig   `yaml:"downloads"`
	Playback    PlaybackConfig    `yaml:"playback"`
	Suggestions SuggestionsConfig `yaml:"suggestions"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string `yaml:"addr" default:":8080"`
	Token string `yaml:"token"` // Empty disables authentication
}

// CatalogConfig represents the music catalog configuration.
type CatalogConfig struct {
	Provider  string `yaml:"provider" default:"saavn" validate:"oneof=saavn spotify"`
	BaseURL   string `yaml:"base_url" default:"https://saavn.sumit.co" validate:"url"`
	TimeoutMs int    `yaml:"timeout_ms" default:"10000" validate:"gte=1000,lte=120000"`
	PageSize  int    `yaml:"page_size" default:"20" validate:"gte=1,lte=50"`
}

// SpotifyConfig represents Spotify API configuration.
// Credentials are only required when Spotify is the catalog provider.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// StorageConfig represents playback state persistence configuration.
type StorageConfig struct {
	Driver string      `yaml:"driver" default:"file" validate:"oneof=file memory redis"`
	Path   string      `yaml:"path" default:"data/player.json"`
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig represents the redis storage backend configuration.
type RedisConfig struct {
	Addr      string `yaml:"addr" default:"localhost:6379"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db" validate:"gte=0,lte=15"`
	KeyPrefix string `yaml:"key_prefix" default:"lokal:"`
}

// DownloadsConfig represents offline download configuration.
type DownloadsConfig struct {
	Dir       string `yaml:"dir" default:"downloads" validate:"required"`
	TimeoutMs int    `yaml:"timeout_ms" default:"300000" validate:"gte=1000"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	StatusIntervalMs int   `yaml:"status_interval_ms" default:"500" validate:"gte=50,lte=10000"`
	AutoAdvance      *bool `yaml:"auto_advance" default:"true"`
	SampleRate       int   `yaml:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	EventBuffer      int   `yaml:"event_buffer" default:"64" validate:"gte=1"`
}

// SuggestionsConfig represents suggestion provider configuration.
type SuggestionsConfig struct {
	Count     int                     `yaml:"count" default:"10" validate:"gte=1,lte=50"`
	Providers []ProviderConfig        `yaml:"providers" validate:"dive"`
	Filters   map[string]FilterConfig `yaml:"filters"`
}

// ProviderConfig represents a single suggestion provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// FilterConfig represents a suggestion filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, applying env overrides and defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		for i := range c.Suggestions.Providers {
			if c.Suggestions.Providers[i].Type == "lastfm" {
				if c.Suggestions.Providers[i].Settings == nil {
					c.Suggestions.Providers[i].Settings = make(map[string]any)
				}
				c.Suggestions.Providers[i].Settings["api_key"] = v
				break
			}
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
	if v := os.Getenv("PLAYER_TOKEN"); v != "" {
		c.Server.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Catalog.Provider == CatalogSpotify {
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" || c.Spotify.RefreshToken == "" {
			return errors.New("spotify catalog requires client_id, client_secret and refresh_token")
		}
	}

	switch c.Storage.Driver {
	case "file":
		if c.Storage.Path == "" {
			return errors.New("file storage requires storage.path")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return errors.New("redis storage requires storage.redis.addr")
		}
	}

	return nil
}

// Timeout returns the catalog request timeout.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Timeout returns the download request timeout.
func (c DownloadsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// StatusInterval returns the audio status reporting interval.
func (c PlaybackConfig) StatusInterval() time.Duration {
	return time.Duration(c.StatusIntervalMs) * time.Millisecond
}

// AutoAdvanceEnabled reports whether playback continues with the next track on its own.
func (c PlaybackConfig) AutoAdvanceEnabled() bool {
	return c.AutoAdvance == nil || *c.AutoAdvance
}

// IsFilterEnabled checks if a suggestion filter is enabled.
func (c SuggestionsConfig) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}
