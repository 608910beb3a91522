// Package config provides studio configuration with multi-source
// priority.
//
// Sources, highest to lowest:
//  1. Environment variables
//  2. Config file (~/.vibestudio/config.yaml)
//  3. Default values
//
// The Gemini API key is only required on hosts: guests and the relay
// never call the model, so Validate checks everything except the key
// and RequireAPIKey is called on the generation path.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates GEMINI_API_KEY is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidRelayURL indicates the relay URL is not a websocket URL.
	ErrInvalidRelayURL = errors.New("invalid relay URL")

	// ErrInvalidInterval indicates a non-positive duration setting.
	ErrInvalidInterval = errors.New("invalid interval")
)

// Temperature bounds accepted by the Gemini API.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
)

// Config stores studio configuration.
type Config struct {
	// Generation
	ModelName   string  `mapstructure:"model_name"`
	Temperature float32 `mapstructure:"temperature"`
	APIKey      string  `mapstructure:"api_key"` // SENSITIVE: never logged

	// Peer relay
	RelayAddr string `mapstructure:"relay_addr"` // listen address for the relay command
	RelayURL  string `mapstructure:"relay_url"`  // websocket URL peers dial

	// Persistence
	DatabasePath     string        `mapstructure:"database_path"`
	SnapshotPath     string        `mapstructure:"snapshot_path"`
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
	PersistDebounce  time.Duration `mapstructure:"persist_debounce"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load loads configuration from ~/.vibestudio plus the current
// directory, creating the config directory when missing.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	dir := filepath.Join(home, ".vibestudio")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}
	return LoadFrom(dir)
}

// LoadFrom loads configuration searching the given directory (and the
// current one) for config.yaml.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	setDefaults(v, dir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("temperature", 0.4)

	v.SetDefault("relay_addr", ":8787")
	v.SetDefault("relay_url", "ws://localhost:8787/relay")

	v.SetDefault("database_path", filepath.Join(dir, "studio.db"))
	v.SetDefault("snapshot_path", filepath.Join(dir, "snapshot.json"))
	v.SetDefault("autosave_interval", 30*time.Second)
	v.SetDefault("persist_debounce", 1200*time.Millisecond)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("api_key", "GEMINI_API_KEY")
	mustBind("model_name", "VIBESTUDIO_MODEL_NAME")
	mustBind("relay_addr", "VIBESTUDIO_RELAY_ADDR")
	mustBind("relay_url", "VIBESTUDIO_RELAY_URL")
	mustBind("database_path", "VIBESTUDIO_DATABASE_PATH")
	mustBind("log_level", "VIBESTUDIO_LOG_LEVEL")
}

// Validate checks everything except the API key, which only the
// generation path needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}
	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return fmt.Errorf("%w: %.2f not in [%.1f, %.1f]",
			ErrInvalidTemperature, c.Temperature, MinTemperature, MaxTemperature)
	}
	if !strings.HasPrefix(c.RelayURL, "ws://") && !strings.HasPrefix(c.RelayURL, "wss://") {
		return fmt.Errorf("%w: %q must use ws:// or wss://", ErrInvalidRelayURL, c.RelayURL)
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("%w: autosave_interval must be positive", ErrInvalidInterval)
	}
	if c.PersistDebounce <= 0 {
		return fmt.Errorf("%w: persist_debounce must be positive", ErrInvalidInterval)
	}
	return nil
}

// RequireAPIKey checks the key hosts need to call the model.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
	}
	return nil
}
