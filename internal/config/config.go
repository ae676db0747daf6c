package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModelBaseURL   = "https://api.anthropic.com"
	DefaultThinkingBudget = 8000
	DefaultListenAddr     = ":8470"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Model    ModelConfig    `yaml:"model"`
	Server   ServerConfig   `yaml:"server"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type ModelConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Name           string `yaml:"name"`
	ThinkingBudget int    `yaml:"thinking_budget"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// envOverrides are applied on top of the file so deployments can keep
// secrets out of xstream.yaml.
type envOverrides struct {
	DBDriver    string `env:"XSTREAM_DB_DRIVER"`
	DBDSN       string `env:"XSTREAM_DB_DSN"`
	ModelAPIKey string `env:"XSTREAM_MODEL_API_KEY"`
	ModelName   string `env:"XSTREAM_MODEL_NAME"`
	ListenAddr  string `env:"XSTREAM_LISTEN_ADDR"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyOverrides(&cfg, overrides)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &cfg, nil
}

func applyOverrides(cfg *Config, o envOverrides) {
	if o.DBDriver != "" {
		cfg.Database.Driver = o.DBDriver
	}
	if o.DBDSN != "" {
		cfg.Database.DSN = o.DBDSN
	}
	if o.ModelAPIKey != "" {
		cfg.Model.APIKey = o.ModelAPIKey
	}
	if o.ModelName != "" {
		cfg.Model.Name = o.ModelName
	}
	if o.ListenAddr != "" {
		cfg.Server.ListenAddr = o.ListenAddr
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Model.BaseURL == "" {
		cfg.Model.BaseURL = DefaultModelBaseURL
	}
	if cfg.Model.ThinkingBudget == 0 {
		cfg.Model.ThinkingBudget = DefaultThinkingBudget
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	case "":
		return fmt.Errorf("database driver is required")
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if strings.TrimSpace(cfg.Model.Name) == "" {
		return fmt.Errorf("model name is required")
	}
	if cfg.Model.ThinkingBudget < 0 {
		return fmt.Errorf("thinking budget must be non-negative")
	}
	return nil
}
