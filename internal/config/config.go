package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Prismic  PrismicConfig  `yaml:"prismic"`
	Site     SiteConfig     `yaml:"site"`
	Session  SessionConfig  `yaml:"session"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type PrismicConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	AccessToken   string        `yaml:"access_token"`
	DocumentType  string        `yaml:"document_type"`
	PageSize      int           `yaml:"page_size"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	MaxRetries    uint          `yaml:"max_retries"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

type SiteConfig struct {
	Title            string        `yaml:"title"`
	Locale           string        `yaml:"locale"`
	Revalidate       time.Duration `yaml:"revalidate"`
	RevalidateSecret string        `yaml:"revalidate_secret"`
}

type SessionConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`

	// MaxSessions caps live listing sessions; the longest idle one is evicted.
	MaxSessions int `yaml:"max_sessions"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Prismic: PrismicConfig{
			DocumentType:  "post",
			PageSize:      20,
			Timeout:       10 * time.Second,
			RatePerSecond: 10,
			Burst:         5,
			MaxRetries:    3,
			RetryInterval: 200 * time.Millisecond,
		},
		Site: SiteConfig{
			Title:      "spacetraveling",
			Locale:     "pt-BR",
			Revalidate: 24 * time.Hour,
		},
		Session: SessionConfig{
			TTL:         30 * time.Minute,
			MaxSessions: 10000,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "spacetraveling:snapshot:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (a missing file leaves the defaults), then applies
// environment overrides. A .env file in the working directory is loaded
// first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "SERVER_PORT")
	setString(&c.Prismic.Endpoint, "PRISMIC_ENDPOINT")
	setString(&c.Prismic.AccessToken, "PRISMIC_ACCESS_TOKEN")
	setString(&c.Postgres.DSN, "POSTGRES_DSN")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Session.Secret, "SESSION_SECRET")
	setString(&c.Site.RevalidateSecret, "REVALIDATE_SECRET")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("PRISMIC_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PRISMIC_PAGE_SIZE: %w", err)
		}
		c.Prismic.PageSize = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Prismic.Endpoint == "" {
		return errors.New("prismic.endpoint is required")
	}
	if c.Prismic.PageSize <= 0 || c.Prismic.PageSize > 100 {
		return fmt.Errorf("prismic.page_size must be in 1..100, got %d", c.Prismic.PageSize)
	}
	if c.Prismic.DocumentType == "" {
		return errors.New("prismic.document_type is required")
	}
	if c.Site.Revalidate <= 0 {
		return errors.New("site.revalidate must be positive")
	}
	return nil
}
