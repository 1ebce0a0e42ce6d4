package config

import (
	"fmt"
	"os"
	"time"

	"github.com/querybot-ai/querybot/pkg/models"
	"gopkg.in/yaml.v3"
)

// Policy modes.
const (
	ModeTwoTier = "two-tier"
	ModeSimple  = "simple"
)

// Config holds all querybot configuration.
type Config struct {
	Listen    string         `yaml:"listen"`
	Namespace string         `yaml:"namespace"`
	Mode      string         `yaml:"mode"`
	DBPath    string         `yaml:"db_path"`
	Redis     RedisConfig    `yaml:"redis"`
	Provider  ProviderConfig `yaml:"provider"`
	Cache     CacheConfig    `yaml:"cache"`
	History   HistoryConfig  `yaml:"history"`
	Budget    BudgetConfig   `yaml:"budget"`
	Users     []UserConfig   `yaml:"users"`
}

// RedisConfig points at the key-value backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ProviderConfig defines the upstream LLM provider.
// Type is "gemini" (default) or "openai".
type ProviderConfig struct {
	Type   string `yaml:"type"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// CacheConfig controls the answer cache and seen-flag TTLs.
type CacheConfig struct {
	AnswerTTL time.Duration `yaml:"answer_ttl"`
	SeenTTL   time.Duration `yaml:"seen_ttl"`
}

// HistoryConfig controls the per-user interaction log.
type HistoryConfig struct {
	TTL   time.Duration `yaml:"ttl"`
	Limit int           `yaml:"limit"`
}

// BudgetConfig controls daily token budget enforcement.
type BudgetConfig struct {
	Enabled  bool                  `yaml:"enabled"`
	Policies []models.BudgetPolicy `yaml:"policies"`
}

// UserConfig is one entry in the static demo credential table.
type UserConfig struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:    ":8080",
		Namespace: "querybot",
		Mode:      ModeTwoTier,
		DBPath:    "querybot.db",
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Provider: ProviderConfig{
			Type:  "gemini",
			URL:   "https://generativelanguage.googleapis.com",
			Model: "gemini-2.5-flash",
		},
		Cache: CacheConfig{
			AnswerTTL: time.Hour,
			SeenTTL:   24 * time.Hour,
		},
		History: HistoryConfig{
			TTL:   72 * time.Hour,
			Limit: 50,
		},
	}
}

// Load reads a YAML config file, expands environment variables, and
// normalizes the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize validates the mode and enforces structural invariants: the
// seen-flag TTL may never be shorter than the answer TTL, and the history
// read cap falls back to 50.
func (c *Config) Normalize() error {
	switch c.Mode {
	case ModeTwoTier, ModeSimple:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.Provider.Type {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown provider type %q", c.Provider.Type)
	}
	if c.Cache.SeenTTL < c.Cache.AnswerTTL {
		c.Cache.SeenTTL = c.Cache.AnswerTTL
	}
	if c.History.Limit <= 0 {
		c.History.Limit = 50
	}
	return nil
}
