package main

import (
	"fmt"
	"os"

	"github.com/ErlanBelekov/cyberaid/internal/credential"
	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/cyberaid/internal/usecase"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const adminPasswordEnv = "CYBERAID_ADMIN_PASSWORD"

type createAdminConfig struct {
	email     string
	firstName string
	lastName  string
	password  string
}

// NewCreateAdminCmd creates the create-admin subcommand. Admin accounts cannot
// be self-registered, so this is how the first one comes to exist.
func NewCreateAdminCmd() *cobra.Command {
	cfg := &createAdminConfig{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Long: `Create an admin account directly in the database. The password is taken
from --password or, when the flag is omitted, from ` + adminPasswordEnv + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAdmin(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.email, "email", "", "admin email address")
	cmd.Flags().StringVar(&cfg.firstName, "first-name", "", "admin first name")
	cmd.Flags().StringVar(&cfg.lastName, "last-name", "", "admin last name")
	cmd.Flags().StringVar(&cfg.password, "password", "", "admin password (prefer "+adminPasswordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")

	return cmd
}

func runCreateAdmin(cmd *cobra.Command, _ []string, in *createAdminConfig) error {
	password := in.password
	if password == "" {
		password = os.Getenv(adminPasswordEnv)
	}
	if password == "" {
		return oops.Code("CONFIG_INVALID").Errorf("--password or %s is required", adminPasswordEnv)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	hasher, err := credential.New(cfg.BcryptCost, 1)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "build hasher").Wrap(err)
	}

	ctx := cmd.Context()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	admins := usecase.NewAdminUsecase(postgres.NewUserRepository(pool), hasher, cfg.logger())
	created, err := admins.AddUser(ctx, domain.Principal{Role: domain.RoleAdmin}, usecase.RegisterInput{
		FirstName: in.firstName,
		LastName:  in.lastName,
		Email:     in.email,
		Password:  password,
		Role:      domain.RoleAdmin,
	})
	if err != nil {
		return oops.Code("ADMIN_CREATE_FAILED").With("email", in.email).Wrap(err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", created.Email, created.ID)
	return err
}
