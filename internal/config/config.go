package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Scheduling struct {
		SlotGranularityMinutes int `yaml:"slot_granularity_minutes"`
		MaxRecurrenceInstances int `yaml:"max_recurrence_instances"`
		DefaultDurationMinutes int `yaml:"default_duration_minutes"`
	} `yaml:"scheduling"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Reminders struct {
		Enabled       bool   `yaml:"enabled"`
		TelegramToken string `yaml:"telegram_token"`
		HoursBefore   int    `yaml:"hours_before"`
		SweepMinutes  int    `yaml:"sweep_minutes"`
		RatePerSecond int    `yaml:"rate_per_second"`
	} `yaml:"reminders"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/vetsystem.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SlotGranularity returns the candidate-slot step in minutes.
func (c *Config) SlotGranularity() int {
	if c.Scheduling.SlotGranularityMinutes <= 0 {
		return 15
	}
	return c.Scheduling.SlotGranularityMinutes
}

// MaxRecurrenceInstances caps how many bookings one series may expand to.
func (c *Config) MaxRecurrenceInstances() int {
	if c.Scheduling.MaxRecurrenceInstances <= 0 {
		return 366
	}
	return c.Scheduling.MaxRecurrenceInstances
}

// DefaultDuration is the appointment length used when a request omits one.
func (c *Config) DefaultDuration() int {
	if c.Scheduling.DefaultDurationMinutes <= 0 {
		return 30
	}
	return c.Scheduling.DefaultDurationMinutes
}

// CacheTTL returns the free-slot cache TTL; zero disables caching.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

// ReminderSweep returns how often the reminder loop scans for due bookings.
func (c *Config) ReminderSweep() time.Duration {
	if c.Reminders.SweepMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Reminders.SweepMinutes) * time.Minute
}

// ReminderLead returns how far ahead of the visit reminders are sent.
func (c *Config) ReminderLead() time.Duration {
	if c.Reminders.HoursBefore <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Reminders.HoursBefore) * time.Hour
}
