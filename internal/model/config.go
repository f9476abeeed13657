package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// RemoteConfig holds the settings for the REST sync backend.
type RemoteConfig struct {
	// BaseURL is the root URL of the dashboard API. Empty means local only.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries is the number of 429 retries. Zero disables retrying.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// CacheConfig holds the location of the durable client-side cache.
type CacheConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// CredentialConfig names the keyring entry holding the bearer token.
type CredentialConfig struct {
	Key string `mapstructure:"key" yaml:"key"`
}

// SyncConfig holds background refresh preferences.
type SyncConfig struct {
	IntervalSec     int `mapstructure:"interval_sec" yaml:"interval_sec"`
	FetchTimeoutSec int `mapstructure:"fetch_timeout_sec" yaml:"fetch_timeout_sec"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`

	// File, when set, sends logs to a rotating file instead of stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Remote     RemoteConfig     `mapstructure:"remote" yaml:"remote"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Credential CredentialConfig `mapstructure:"credential" yaml:"credential"`
	Sync       SyncConfig       `mapstructure:"sync" yaml:"sync"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// envKeyReplacer maps nested keys like remote.base_url to REMOTE_BASE_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/bizdash/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "bizdash")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Remote: RemoteConfig{
			TimeoutSec: 30,
		},
		Cache: CacheConfig{
			Path: filepath.Join(configDir(), "cache.db"),
		},
		Credential: CredentialConfig{
			Key: "api-token",
		},
		Sync: SyncConfig{
			IntervalSec:     120,
			FetchTimeoutSec: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// Environment variables prefixed with BIZDASH_ override file values
// (e.g. BIZDASH_REMOTE_BASE_URL).
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("bizdash")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	v.SetDefault("remote.base_url", def.Remote.BaseURL)
	v.SetDefault("remote.timeout_sec", def.Remote.TimeoutSec)
	v.SetDefault("remote.max_retries", def.Remote.MaxRetries)
	v.SetDefault("cache.path", def.Cache.Path)
	v.SetDefault("credential.key", def.Credential.Key)
	v.SetDefault("sync.interval_sec", def.Sync.IntervalSec)
	v.SetDefault("sync.fetch_timeout_sec", def.Sync.FetchTimeoutSec)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Remote.TimeoutSec <= 0 {
		cfg.Remote.TimeoutSec = def.Remote.TimeoutSec
	}
	if cfg.Sync.IntervalSec <= 0 {
		cfg.Sync.IntervalSec = def.Sync.IntervalSec
	}
	if cfg.Sync.FetchTimeoutSec <= 0 {
		cfg.Sync.FetchTimeoutSec = def.Sync.FetchTimeoutSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("remote", cfg.Remote)
	v.Set("cache", cfg.Cache)
	v.Set("credential", cfg.Credential)
	v.Set("sync", cfg.Sync)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
