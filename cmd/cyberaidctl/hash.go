package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/cyberaid/internal/credential"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for a password",
		Long: `Print a bcrypt hash at BCRYPT_COST. The password is read from --password,
or from the first line of standard input when the flag is omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return oops.Code("CONFIG_INVALID").Errorf("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			hasher, err := credential.New(cfg.BcryptCost, 1)
			if err != nil {
				return oops.Code("CONFIG_INVALID").With("operation", "build hasher").Wrap(err)
			}

			hash, err := hasher.Hash(cmd.Context(), password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password to hash")

	return cmd
}
