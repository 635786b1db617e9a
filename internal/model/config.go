package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the backend endpoints.
type ServerConfig struct {
	// BaseURL is the root URL of the CommuniSafe backend.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// PushPath is the path of the push-channel websocket endpoint.
	PushPath string `mapstructure:"push_path" yaml:"push_path"`

	// GeocoderURL is the root URL of the Nominatim-style reverse geocoder.
	GeocoderURL string `mapstructure:"geocoder_url" yaml:"geocoder_url"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// SensorPollSec is how often (in seconds) the flood panel refreshes
	// sensor readings. Sensors have no push events.
	SensorPollSec int `mapstructure:"sensor_poll_sec" yaml:"sensor_poll_sec"`
}

// LogConfig holds logging settings. The TUI owns stdout, so diagnostics go
// to a file.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`

	// CachePath is the SQLite offline-cache location.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/communisafe/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "communisafe", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	stateDir := filepath.Join(".", ".communisafe")
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ".local", "share", "communisafe")
	}
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:     "https://communisafe-backend.onrender.com",
			PushPath:    "/socket",
			GeocoderURL: "https://nominatim.openstreetmap.org",
		},
		Display: DisplayConfig{
			Theme:         "default",
			SensorPollSec: 10,
		},
		Log: LogConfig{
			File:  filepath.Join(stateDir, "communisafe.log"),
			Level: "info",
		},
		CachePath: filepath.Join(stateDir, "cache.db"),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.base_url", def.Server.BaseURL)
	v.SetDefault("server.push_path", def.Server.PushPath)
	v.SetDefault("server.geocoder_url", def.Server.GeocoderURL)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.sensor_poll_sec", def.Display.SensorPollSec)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("cache_path", def.CachePath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
