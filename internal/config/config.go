// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token        string `yaml:"token"`
	Mode         string `yaml:"mode"` // polling | webhook (future)
	Username     string `yaml:"username"`
	Workers      int    `yaml:"workers"` // polling workers
	SuperAdminID int64  `yaml:"superadmin_id"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	APIKey     string        `yaml:"api_key"` // login credential for the operator
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// ModerationConfig holds the tunable policy knobs of the pipeline. The
// lexical scorer thresholds live next to the scorer itself; only the knobs an
// operator realistically retunes per deployment are exposed here.
type ModerationConfig struct {
	WarningTTL              time.Duration `yaml:"warning_ttl"`               // how long warnings stay visible
	UnverifiedRetentionDays int           `yaml:"unverified_retention_days"` // GC window for unverified records
	SmallGroupCutoff        int           `yaml:"small_group_cutoff"`        // deny-on-inconclusive below this size
	Locale                  string        `yaml:"locale"`                    // uz | en
}

type Config struct {
	Bot        BotConfig        `yaml:"bot"`
	Log        LogConfig        `yaml:"log"`
	Admin      AdminConfig      `yaml:"admin"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Moderation ModerationConfig `yaml:"moderation"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(configPath string, dev bool) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Moderation.WarningTTL <= 0 {
		cfg.Moderation.WarningTTL = 5 * time.Second
	}
	if cfg.Moderation.UnverifiedRetentionDays <= 0 {
		cfg.Moderation.UnverifiedRetentionDays = 7
	}
	if cfg.Moderation.SmallGroupCutoff <= 0 {
		cfg.Moderation.SmallGroupCutoff = 200
	}
	if cfg.Moderation.Locale == "" {
		cfg.Moderation.Locale = "uz"
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Bot.SuperAdminID == 0 {
		return nil, errors.New("bot.superadmin_id is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
