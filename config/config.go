package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV"       envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT"      envDefault:"8080"  validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"  validate:"oneof=debug info warn error"`

	DatabaseURL    string `env:"DATABASE_URL,required" validate:"required"`
	DBMaxConns     int32  `env:"DB_MAX_CONNS"     envDefault:"25" validate:"min=1,max=200"`
	DBMinConns     int32  `env:"DB_MIN_CONNS"     envDefault:"2"  validate:"min=0,ltefield=DBMaxConns"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	// No default: a deployment without a signing secret must not start.
	JWTSecret     string        `env:"JWT_SECRET,required" validate:"required,min=32"`
	JWTTTL        time.Duration `env:"JWT_TTL"         envDefault:"24h" validate:"min=1m"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"  validate:"min=1m"`

	BcryptCost  int `env:"BCRYPT_COST"  envDefault:"10" validate:"min=4,max=31"`
	HashWorkers int `env:"HASH_WORKERS" validate:"min=0,max=256"`

	ResendAPIKey     string `env:"RESEND_API_KEY"      validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom       string `env:"RESEND_FROM"         validate:"required_if=Env production,required_if=Env staging"`
	ResetLinkBaseURL string `env:"RESET_LINK_BASE_URL" envDefault:"http://localhost:3000" validate:"url"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	RedisURL           string        `env:"REDIS_URL"`
	LoginMaxFailures   int           `env:"LOGIN_MAX_FAILURES"   envDefault:"5"   validate:"min=1"`
	LoginFailureWindow time.Duration `env:"LOGIN_FAILURE_WINDOW" envDefault:"15m" validate:"min=1s"`

	MinioEndpoint    string `env:"MINIO_ENDPOINT"`
	MinioAccessKey   string `env:"MINIO_ACCESS_KEY" validate:"required_with=MinioEndpoint"`
	MinioSecretKey   string `env:"MINIO_SECRET_KEY" validate:"required_with=MinioEndpoint"`
	MinioBucket      string `env:"MINIO_BUCKET"     envDefault:"volunteer-documents"`
	MinioUseSSL      bool   `env:"MINIO_USE_SSL"`
	MaxDocumentBytes int64  `env:"MAX_DOCUMENT_BYTES" envDefault:"10485760" validate:"min=1"`

	SweepSchedule string `env:"SWEEP_SCHEDULE" envDefault:"*/15 * * * *" validate:"required"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.HashWorkers == 0 {
		cfg.HashWorkers = runtime.NumCPU()
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) ThrottleEnabled() bool { return c.RedisURL != "" }

func (c *Config) DocumentsEnabled() bool { return c.MinioEndpoint != "" }
