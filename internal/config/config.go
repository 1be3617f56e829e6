package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models taskdock.yml.
type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	} `yaml:"app"`
	Server struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Storage struct {
		DataDir    string `yaml:"data_dir"`
		BackupKeep int    `yaml:"backup_keep"`
	} `yaml:"storage"`
	Weather struct {
		CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
		CacheSize       int `yaml:"cache_size"`
	} `yaml:"weather"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; generate one with td config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("config.app.name is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config.server.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("config.storage.data_dir is required")
	}
	if c.Storage.BackupKeep < 0 {
		return fmt.Errorf("config.storage.backup_keep must not be negative")
	}
	if c.Weather.CacheTTLSeconds < 1 {
		return fmt.Errorf("config.weather.cache_ttl_seconds must be positive")
	}
	if c.Weather.CacheSize < 1 {
		return fmt.Errorf("config.weather.cache_size must be positive")
	}
	return nil
}

// WeatherTTL returns the weather cache lifetime as a duration.
func (c *Config) WeatherTTL() time.Duration {
	return time.Duration(c.Weather.CacheTTLSeconds) * time.Second
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "taskdock.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `app:
  name: Taskdock
  version: 1.0.0
  description: Task, user, and weather management backed by JSON documents

server:
  host: 0.0.0.0
  port: 5000
  base_path: /api

storage:
  data_dir: data
  backup_keep: 5

weather:
  cache_ttl_seconds: 300
  cache_size: 128
`
