package main

import (
	"fmt"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/cyberaid/internal/sweeper"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// NewSweepCmd creates the sweep subcommand, a one-shot run of the reset-token sweeper.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Purge expired password reset tokens once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			// The schedule is never consulted by RunOnce.
			s := sweeper.New(postgres.NewUserRepository(pool), cron.Every(time.Hour), cfg.logger())
			n, err := s.RunOnce(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired reset tokens\n", n)
			return err
		},
	}
}
