package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPromptTimeoutMS = 5000
	defaultAttachDelayMS   = 1000
	defaultPort            = 8766
)

type LogConfig struct {
	Dir        string `yaml:"dir"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type Config struct {
	Shell           string    `yaml:"shell"`
	PromptTimeoutMS int       `yaml:"prompt_timeout_ms"`
	AttachDelayMS   int       `yaml:"attach_delay_ms"`
	DataDir         string    `yaml:"data_dir"`
	Port            int       `yaml:"port"`
	Token           string    `yaml:"token"`
	Log             LogConfig `yaml:"log"`

	path string
}

// Load reads the config file (creating defaults, including a generated
// auth token, on first run). An empty path resolves to
// ~/.config/boilterm/config.yaml.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Shell:           "/bin/bash",
		PromptTimeoutMS: defaultPromptTimeoutMS,
		AttachDelayMS:   defaultAttachDelayMS,
		Port:            defaultPort,
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	cfg.DataDir = filepath.Join(homeDir, ".local", "share", "boilterm")
	cfg.Log.Dir = filepath.Join(cfg.DataDir, "logs")

	if path == "" {
		path = filepath.Join(homeDir, ".config", "boilterm", "config.yaml")
	}
	cfg.path = path

	if err := cfg.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 1 and 65535", cfg.Port)
	}
	if cfg.PromptTimeoutMS <= 0 {
		cfg.PromptTimeoutMS = defaultPromptTimeoutMS
	}
	if cfg.AttachDelayMS < 0 {
		cfg.AttachDelayMS = defaultAttachDelayMS
	}

	if cfg.Token == "" {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
		cfg.Token = token
		if err := cfg.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	return cfg, nil
}

// DatabasePath is the sqlite file holding saved recordings.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "recordings.db")
}

// PromptTimeout returns the confirmation prompt deadline as a duration.
func (c *Config) PromptTimeout() time.Duration {
	return time.Duration(c.PromptTimeoutMS) * time.Millisecond
}

// AttachDelay returns the observer attach grace period as a duration.
func (c *Config) AttachDelay() time.Duration {
	return time.Duration(c.AttachDelayMS) * time.Millisecond
}

func (c *Config) loadFromFile() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid config %q: %w", c.path, err)
	}
	return nil
}

func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}

func generateToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
