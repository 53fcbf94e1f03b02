package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harentsoaR/clinic-api/internal/services"
)

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			cfg, log, st, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			svc, _, err := newServices(cfg, st, services.NopNotifier{}, nil, log)
			if err != nil {
				return err
			}
			admin, err := svc.Accounts.CreateAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}
			log.Info().Str("userId", admin.ID.Hex()).Str("email", admin.Email).Msg("admin created")
			fmt.Fprintln(cmd.OutOrStdout(), admin.ID.Hex())
			return nil
		},
	}
	cmd.Flags().String("name", "Administrator", "Display name")
	cmd.Flags().String("email", "", "Login e-mail")
	cmd.Flags().String("password", "", "Login password")
	return cmd
}
