package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Storage configuration
	DataDir string `yaml:"dataDir"`

	// Trash configuration
	TrashRetentionDays int `yaml:"trashRetentionDays"`

	// Save policy configuration
	SaveGraceSeconds int `yaml:"saveGraceSeconds"` // Seconds after creation during which overwrites skip confirmation

	// Logging
	LogLevel string `yaml:"logLevel"`

	// Environment
	Environment string `yaml:"environment"` // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the YAML file (if present) and
// environment variables
func load() (*Config, error) {
	config := &Config{
		DataDir:            "./data",
		TrashRetentionDays: 7,
		SaveGraceSeconds:   120,
		LogLevel:           "info",
		Environment:        "development",
	}

	path := os.Getenv("BETPOOL_CONFIG")
	if path == "" {
		path = "betpool.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// The file is optional; defaults and environment apply.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Environment variables override the file
	if dir := os.Getenv("BETPOOL_DATA_DIR"); dir != "" {
		config.DataDir = dir
	}
	if days := os.Getenv("BETPOOL_TRASH_RETENTION_DAYS"); days != "" {
		if parsedDays, err := strconv.Atoi(days); err == nil {
			config.TrashRetentionDays = parsedDays
		}
	}
	if grace := os.Getenv("BETPOOL_SAVE_GRACE_SECONDS"); grace != "" {
		if parsedGrace, err := strconv.Atoi(grace); err == nil {
			config.SaveGraceSeconds = parsedGrace
		}
	}
	if level := os.Getenv("BETPOOL_LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
	if env := os.Getenv("BETPOOL_ENVIRONMENT"); env != "" {
		config.Environment = env
	}

	if config.TrashRetentionDays < 0 {
		return nil, fmt.Errorf("trashRetentionDays must not be negative, got %d", config.TrashRetentionDays)
	}
	if config.SaveGraceSeconds < 0 {
		return nil, fmt.Errorf("saveGraceSeconds must not be negative, got %d", config.SaveGraceSeconds)
	}

	return config, nil
}

// TrashRetention returns the trash retention as a duration
func (c *Config) TrashRetention() time.Duration {
	return time.Duration(c.TrashRetentionDays) * 24 * time.Hour
}

// SaveGrace returns the confirmation grace window as a duration
func (c *Config) SaveGrace() time.Duration {
	return time.Duration(c.SaveGraceSeconds) * time.Second
}

// HistoryDir returns the directory holding saved records
func (c *Config) HistoryDir() string {
	return filepath.Join(c.DataDir, "history")
}

// TemplatesDir returns the directory holding participant templates
func (c *Config) TemplatesDir() string {
	return filepath.Join(c.DataDir, "templates")
}

// TrashDir returns the directory holding trashed record backups
func (c *Config) TrashDir() string {
	return filepath.Join(c.DataDir, "trash")
}
