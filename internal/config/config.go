// Package config loads process configuration from defaults, an optional
// YAML file, an optional .env file and the environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds every runtime setting.
type Config struct {
	Port     string `yaml:"port" env:"PORT"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	DatabaseDriver string `yaml:"database_driver" env:"DATABASE_DRIVER"`
	DatabasePath   string `yaml:"database_path" env:"DATABASE_PATH"`
	MongoURI       string `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase  string `yaml:"mongo_database" env:"MONGO_DATABASE"`

	RedisURL     string `yaml:"redis_url" env:"REDIS_URL"`
	RedisChannel string `yaml:"redis_channel" env:"REDIS_CHANNEL"`

	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"BCRYPT_COST"`

	PostsPerPage int    `yaml:"posts_per_page" env:"POSTS_PER_PAGE"`
	UploadRoot   string `yaml:"upload_root" env:"UPLOAD_ROOT"`

	AuthRatePerSecond float64 `yaml:"auth_rate_per_second" env:"AUTH_RATE_PER_SECOND"`
	AuthRateBurst     int     `yaml:"auth_rate_burst" env:"AUTH_RATE_BURST"`

	PushBuffer      int           `yaml:"push_buffer" env:"PUSH_BUFFER"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Default returns the configuration used when nothing is overridden.
// JWTSecret has no default.
func Default() *Config {
	return &Config{
		Port:              "8080",
		LogLevel:          "info",
		DatabaseDriver:    DriverSQLite,
		DatabasePath:      "postfeed.db",
		MongoDatabase:     "postfeed",
		RedisChannel:      "postfeed:posts",
		TokenTTL:          time.Hour,
		BcryptCost:        12,
		PostsPerPage:      2,
		UploadRoot:        ".",
		AuthRatePerSecond: 1,
		AuthRateBurst:     10,
		PushBuffer:        16,
		ShutdownTimeout:   5 * time.Second,
	}
}

// Load builds the configuration. Each envFile that exists is loaded into the
// environment without overriding variables already set; with no arguments
// ".env" is tried. CONFIG_FILE, if set, names a YAML file applied before the
// environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case len(c.JWTSecret) < 32:
		return errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	case c.BcryptCost < 4 || c.BcryptCost > 14:
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost)
	case c.DatabaseDriver != DriverSQLite && c.DatabaseDriver != DriverMongo:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMongo, c.DatabaseDriver)
	case c.DatabaseDriver == DriverMongo && c.MongoURI == "":
		return errors.New("MONGO_URI is required when DATABASE_DRIVER is mongo")
	case c.PostsPerPage < 1:
		return fmt.Errorf("POSTS_PER_PAGE must be at least 1, got %d", c.PostsPerPage)
	case c.TokenTTL <= 0:
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	case c.AuthRateBurst < 1:
		return fmt.Errorf("AUTH_RATE_BURST must be at least 1, got %d", c.AuthRateBurst)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
