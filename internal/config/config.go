// Package config handles loading and parsing application configuration.
// It supports two sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every key can also be overridden by the environment variable named in its
// env tag. After reading, the struct is checked with validator tags so an
// unknown backend or a missing retry count stops the process at boot.
//
// A NOTE ON DEFAULTS:
// ───────────────────
// cleanenv applies env-default whenever a field still holds its zero value
// after the YAML is read. It cannot tell "key absent" from "key: 0", so a
// field whose zero value must be rejected carries no env-default at all.
// Its default lives in the shipped YAML files instead, and validator
// rejects the zero.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	// LogFile, when set, sends logs to a rotating file instead of stdout.
	LogFile     string `yaml:"log_file" env:"LOG_FILE"`
	LogRotation `yaml:"log_rotation"`

	HTTPServer `yaml:"http_server"`
	Auth       `yaml:"auth"`
	Store      `yaml:"store"`
}

// LogRotation configures the log file writer.
type LogRotation struct {
	// MaxSizeMB is the size that triggers a rotation. Zero keeps
	// lumberjack's own default of 100 megabytes.
	MaxSizeMB  int `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" validate:"gte=0"`
	MaxBackups int `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"3" validate:"gte=0"`
	MaxAgeDays int `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"28" validate:"gte=0"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr         string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8080" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Auth holds the digest secrets.
type Auth struct {
	Salt       string `yaml:"salt" env:"AUTH_SALT" env-default:"Otus" validate:"required"`
	AdminLogin string `yaml:"admin_login" env:"AUTH_ADMIN_LOGIN" env-default:"admin" validate:"required"`
	AdminSalt  string `yaml:"admin_salt" env:"AUTH_ADMIN_SALT" env-default:"42" validate:"required"`
}

const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Store selects and tunes the key/value backend.
// Nested under store: in the YAML file.
type Store struct {
	// Backend picks the implementation behind storage.Storage.
	// Valid values: "redis", "sqlite"
	Backend string `yaml:"backend" env:"STORE_BACKEND" env-default:"redis" validate:"oneof=redis sqlite"`

	// RetryCount is the number of attempts per store call. It has no
	// env-default (see the package doc): 0 or a missing key is rejected.
	RetryCount    int           `yaml:"retry_count" env:"STORE_RETRY_COUNT" validate:"gte=1"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"STORE_RETRY_INTERVAL" env-default:"1s"`
	OpTimeout     time.Duration `yaml:"op_timeout" env:"STORE_OP_TIMEOUT" env-default:"10s"`

	Redis Redis `yaml:"redis"`

	// StoragePath is the SQLite database file, used by the sqlite backend.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" validate:"required_if=Backend sqlite"`
}

// Redis holds connection settings for the redis backend.
type Redis struct {
	Addr     string `yaml:"address" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0" validate:"gte=0"`
}

// Load reads the YAML file at path, applies env overrides and validates
// the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: read: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: validate: %w", err)
	}

	return &cfg, nil
}

// MustLoad resolves the config path from CONFIG_PATH or --config and
// returns the loaded config. It exits the process on any failure.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err.Error())
	}

	return cfg
}
