/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/ecostore/apiserver/internal/db"
	"github.com/ecostore/apiserver/internal/services"
	"github.com/ecostore/apiserver/internal/store"
	"github.com/ecostore/apiserver/types"
	"github.com/spf13/cobra"
)

var (
	userEmail string
	userRole  string
)

// userCmd groups operator commands for user accounts.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant the admin role to a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := userService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		user, err := svc.Promote(cmd.Context(), userEmail)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.Email, user.ID, user.Role)
		return nil
	},
}

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Set the role of a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := types.ParseRole(userRole)
		if !ok {
			return fmt.Errorf("unknown role %q", userRole)
		}
		svc, closeDB, err := userService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		user, err := svc.SetRole(cmd.Context(), userEmail, role)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.Email, user.ID, user.Role)
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := userService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		if err := svc.DeleteByEmail(cmd.Context(), userEmail); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", userEmail)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.PersistentFlags().StringVar(&userEmail, "email", "", "email of the user")
	_ = userCmd.MarkPersistentFlagRequired("email")
	userSetRoleCmd.Flags().StringVar(&userRole, "role", "", "role to assign (user or admin)")
	_ = userSetRoleCmd.MarkFlagRequired("role")
	userCmd.AddCommand(userPromoteCmd, userSetRoleCmd, userDeleteCmd)
}

func userService(cmd *cobra.Command) (*services.UserService, func(), error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return services.NewUserService(store.NewUserRepository(conn)), func() { _ = conn.Close() }, nil
}
