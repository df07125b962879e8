package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ErlanBelekov/cyberaid/internal/credential"
	"github.com/ErlanBelekov/cyberaid/internal/infrastructure/postgres"
	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// ctlConfig is the slice of the server environment the operator commands need.
// It is parsed separately so that migrations can run without a JWT secret.
type ctlConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	BcryptCost  int    `env:"BCRYPT_COST"`
	LogLevel    string `env:"LOG_LEVEL"   envDefault:"warn"`
}

func loadConfig() (*ctlConfig, error) {
	cfg := &ctlConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = credential.DefaultCost
	}
	return cfg, nil
}

func (c *ctlConfig) requireDatabase() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}
	return nil
}

func (c *ctlConfig) logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openPool(ctx context.Context, cfg *ctlConfig) (*pgxpool.Pool, error) {
	if err := cfg.requireDatabase(); err != nil {
		return nil, err
	}
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 2, 0)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	return pool, nil
}

// NewRootCmd creates the root command for the operator CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cyberaidctl",
		Short: "Operator tooling for the CyberAid API",
		Long: `cyberaidctl runs database migrations, bootstraps admin accounts and
performs maintenance against the CyberAid database. It reads DATABASE_URL
and BCRYPT_COST from the environment.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCreateAdminCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewSweepCmd())

	return cmd
}
