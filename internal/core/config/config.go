package config

import (
	"fmt"
	"strings"

	"github.com/kairos-lab/project-kairos/internal/core/conflict"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config plus resolved category
// policies.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Schedule ScheduleConfig `koanf:"schedule"`

	// Policies is populated by Load after parsing the policy directory.
	Policies conflict.PolicySet `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"` // postgres | memory
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type ScheduleConfig struct {
	InstanceCap   int    `koanf:"instance_cap"`
	MaxRangeDays  int    `koanf:"max_range_days"`
	UpcomingCount int    `koanf:"upcoming_count"`
	PolicyDir     string `koanf:"policy_dir"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Database.Type {
	case "memory":
		// no DSN needed
	case "", "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	default:
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if c.Schedule.InstanceCap <= 0 {
		return fmt.Errorf("schedule.instance_cap must be > 0")
	}
	if c.Schedule.MaxRangeDays <= 0 {
		return fmt.Errorf("schedule.max_range_days must be > 0")
	}
	if c.Schedule.UpcomingCount <= 0 {
		return fmt.Errorf("schedule.upcoming_count must be > 0")
	}

	return nil
}

// Load parses config from file + env, validates it, then loads category
// conflict policies from the configured directory.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":              8080,
		"server.host":              "0.0.0.0",
		"server.max_body_size_mb":  1,
		"server.mode":              "release",
		"database.type":            "postgres",
		"database.dsn":             "",
		"database.max_open_conns":  25,
		"database.max_idle_conns":  25,
		"database.auto_migrate":    true,
		"schedule.instance_cap":    1000,
		"schedule.max_range_days":  366,
		"schedule.upcoming_count":  5,
		"schedule.policy_dir":      "./config/policies",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("KAIROS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "KAIROS_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := conflict.NewFileSystemPolicyRepository(cfg.Schedule.PolicyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load category policies: %w", err)
	}
	cfg.Policies = repo.Set()

	return &cfg, nil
}
