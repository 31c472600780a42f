package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the service configuration.
//
// Precedence (highest to lowest):
//  1. Environment variables (DMS_*, nested keys joined with "_")
//  2. Configuration file (DMS_CONFIG, YAML)
//  3. Defaults
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Badger   BadgerConfig   `mapstructure:"badger"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Content  ContentConfig  `mapstructure:"content"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port        string          `mapstructure:"port" validate:"required"`
	Environment string          `mapstructure:"environment" validate:"oneof=dev test prod"`
	CORSOrigins string          `mapstructure:"cors_origins"`
	ReadTimeout time.Duration   `mapstructure:"read_timeout" validate:"gt=0"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig configures the per-principal token bucket. Zero disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

// StoreConfig selects the metadata backend used for the tree, users, teams
// and activity log.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=memory badger postgres"`
	Root    string `mapstructure:"root" validate:"required,startswith=/"`
}

type BadgerConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

type PostgresConfig struct {
	URL         string `mapstructure:"url"`
	TablePrefix string `mapstructure:"table_prefix"`
	MaxConns    int32  `mapstructure:"max_conns" validate:"gte=0"`
	MinConns    int32  `mapstructure:"min_conns" validate:"gte=0"`
}

// ContentConfig selects where file bytes live. Options are decoded by the
// matching factory in the content package.
type ContentConfig struct {
	Type    string         `mapstructure:"type" validate:"oneof=memory filesystem s3"`
	Options map[string]any `mapstructure:"options"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	JWKSURL   string        `mapstructure:"jwks_url"`
	Issuer    string        `mapstructure:"issuer"`
}

type UploadConfig struct {
	MaxMemory int64 `mapstructure:"max_memory" validate:"gt=0"`
	MaxBytes  int64 `mapstructure:"max_bytes" validate:"gt=0"`
}

// LogConfig controls the slog handler. An empty Level follows the
// environment: debug in dev, info elsewhere.
type LogConfig struct {
	Level    string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format   string `mapstructure:"format" validate:"omitempty,oneof=json text"`
	Dir      string `mapstructure:"dir"`
	MaxFiles int    `mapstructure:"max_files" validate:"gte=0"`
}

var validate = validator.New()

// Load reads configuration from defaults, an optional YAML file and the environment.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("DMS_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.cors_origins", "http://localhost:3000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.rate_limit.requests_per_second", 0)
	v.SetDefault("server.rate_limit.burst", 0)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.root", "/")

	v.SetDefault("badger.path", "./data/metadata")
	v.SetDefault("badger.in_memory", false)

	v.SetDefault("postgres.url", "")
	v.SetDefault("postgres.table_prefix", "")
	v.SetDefault("postgres.max_conns", 25)
	v.SetDefault("postgres.min_conns", 2)

	v.SetDefault("content.type", "filesystem")
	v.SetDefault("content.options", map[string]any{"path": "./data/content"})

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 480*time.Minute)
	v.SetDefault("auth.jwks_url", "")
	v.SetDefault("auth.issuer", "internaldms")

	v.SetDefault("upload.max_memory", int64(32<<20))
	v.SetDefault("upload.max_bytes", int64(1<<30))

	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.max_files", 10)
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	switch cfg.Store.Backend {
	case "postgres":
		if cfg.Postgres.URL == "" {
			return errors.New("postgres.url is required when store.backend is postgres")
		}
	case "badger":
		if cfg.Badger.Path == "" && !cfg.Badger.InMemory {
			return errors.New("badger.path is required unless badger.in_memory is set")
		}
	}

	if cfg.Auth.JWTSecret == "" && cfg.Auth.JWKSURL == "" {
		return errors.New("one of auth.jwt_secret or auth.jwks_url must be set")
	}
	if cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 bytes")
	}
	if cfg.Server.Environment == "prod" && cfg.Store.Backend == "memory" {
		return errors.New("store.backend memory is not allowed in prod")
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}

// IsDev reports whether the service runs in the dev environment.
func (c *Config) IsDev() bool {
	return c.Server.Environment == "dev"
}
