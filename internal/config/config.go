package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
		Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	} `yaml:"log"`
	// Storage picks where quizzes and submissions live: memory, postgres or sqlite.
	Storage string `yaml:"storage" validate:"omitempty,oneof=memory postgres sqlite"`
	Redis   struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		TTL      string `yaml:"ttl"`
		Fixtures string `yaml:"fixtures"`
	} `yaml:"quiz"`
	Session struct {
		IdleTimeout   string `yaml:"idle_timeout"`
		SweepInterval string `yaml:"sweep_interval"`
	} `yaml:"session"`
	Submit struct {
		MaxRetries      uint64 `yaml:"max_retries" validate:"lte=20"`
		InitialInterval string `yaml:"initial_interval"`
		MaxInterval     string `yaml:"max_interval"`
	} `yaml:"submit"`
	Access struct {
		// Open lets every respondent take every quiz. When false the
		// storage backend's assignments decide; memory storage uses Assignments.
		Open bool `yaml:"open"`
		// Assignments maps quiz id to respondent ids for memory storage.
		Assignments map[string][]string `yaml:"assignments"`
	} `yaml:"access"`
}

var validate = validator.New()

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(data)
}

// Parse decodes YAML config, fills defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage == "" {
		c.Storage = "memory"
		if c.Postgres.URL != "" {
			c.Storage = "postgres"
		}
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "quiz.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage == "postgres" && c.Postgres.URL == "" {
		return fmt.Errorf("invalid config: postgres.url is required for postgres storage")
	}
	for name, raw := range map[string]string{
		"redis.ttl":               c.Redis.TTL,
		"quiz.ttl":                c.Quiz.TTL,
		"session.idle_timeout":    c.Session.IdleTimeout,
		"session.sweep_interval":  c.Session.SweepInterval,
		"submit.initial_interval": c.Submit.InitialInterval,
		"submit.max_interval":     c.Submit.MaxInterval,
	} {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid config: %s must be positive, got %s", name, raw)
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
